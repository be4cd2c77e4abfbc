// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*Package scw implements per-chromosome sequences of scored chromosome windows
  ("views") and the single-use builders that produce them.

  Four encodings share the read-only View contract:
    Dense     contiguous runs; only run stops and scores are stored, interior
              gaps are stored as zero-score runs
    Generic   explicit (start, stop, score) triples; gaps are implicit
    Mask      covered/uncovered only; a flat sorted endpoint array
    FixedBin  one score per [i*binSize, (i+1)*binSize) bin

  Every stored sequence is sorted and non-overlapping:
    At(i).Stop <= At(i+1).Start
  A score of 0 means "no data" everywhere in this module.

  Views are immutable once a Builder returns them; any content change produces
  a new view.  That makes them safe to share between goroutines without
  locking.
*/
package scw
