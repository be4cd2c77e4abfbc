// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package scwlist holds genome-wide collections of scored chromosome windows:
// one immutable scw.View per chromosome of a genome.Genome.
//
// Lists are constructed by streaming (Loader) or by per-chromosome producers
// run in parallel (Generate).  Bulk statistics, score transforms and merges
// dispatch one unit of work per selected chromosome, and recombine the
// results in chromosome order.  Every operation that changes scores returns a
// new List; existing views are never modified.
package scwlist
