// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package interval

import (
	"fmt"
	"math"
)

// PosType is the type used to represent interval coordinates.  int32 should be
// wide enough for some time to come, since that's what BAM is limited to.
type PosType int32

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = math.MaxInt32

// Interval is one scored chromosome window [Start, Stop).  It is a value type;
// views never hand out references into their backing storage.
type Interval struct {
	Start PosType
	Stop  PosType
	Score float32
}

// Len returns Stop - Start.
func (iv Interval) Len() PosType {
	return iv.Stop - iv.Start
}

// Valid returns whether Start < Stop and Start is nonnegative.
func (iv Interval) Valid() bool {
	return iv.Start >= 0 && iv.Start < iv.Stop
}

// Intersects returns whether iv shares at least one position with [start, stop).
func (iv Interval) Intersects(start, stop PosType) bool {
	return iv.Start < stop && start < iv.Stop
}

// Overlap returns the number of positions iv shares with [start, stop).
func (iv Interval) Overlap(start, stop PosType) PosType {
	if iv.Start > start {
		start = iv.Start
	}
	if iv.Stop < stop {
		stop = iv.Stop
	}
	if stop <= start {
		return 0
	}
	return stop - start
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d, %d):%g", iv.Start, iv.Stop, iv.Score)
}
