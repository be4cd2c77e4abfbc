// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*Package interval defines the scored genomic window (SCW) value type shared by
  every other package in this module, plus sorted-endpoint search helpers.
  It assumes every position fits in a PosType, which is currently defined as
  int32 since that's what BAM files are limited to.
  Intervals are zero-based and half-open: [Start, Stop).
*/
package interval
