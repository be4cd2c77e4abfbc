// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package display reduces genome-wide interval lists to what is worth drawing
// at a given zoom level.
//
// The zoom level is given as xRatio, the number of pixels per base.  A Scaler
// picks the finest precomputed resolution whose windows are at least one
// pixel wide; when even the coarsest one is too fine, it merges sub-pixel
// windows on the fly.  Scaling for the visible chromosome runs in the
// background, and a newer request silently supersedes an older one.
package display
