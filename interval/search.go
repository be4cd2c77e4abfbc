// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package interval

import "sort"

// SearchPosTypesAfter returns the index of the first element of a[] which is
// > x, or len(a) if there is none.
func SearchPosTypesAfter(a []PosType, x PosType) int {
	return sort.Search(len(a), func(i int) bool { return a[i] > x })
}

// ExpsearchPosType returns the index of the first element of a[] which is
// >= x, or len(a) if there is none.  Every element of a[:idx] must be < x.
// It probes a[idx], a[idx+1], a[idx+3], a[idx+7], ... and then bisects the
// last gap, so it costs O(log d) where d is the distance from idx to the
// answer.  Use it when scanning forward from a known position.
func ExpsearchPosType(a []PosType, x PosType, idx int) int {
	lo, hi := idx, len(a)
	for step := 1; idx < hi; step *= 2 {
		if a[idx] >= x {
			hi = idx
			break
		}
		lo = idx + 1
		idx += step
	}
	return lo + sort.Search(hi-lo, func(i int) bool { return a[lo+i] >= x })
}

// DivUp returns ceil(a/b) for nonnegative a and positive b.  The sum is taken
// in int64, so a near PosTypeMax doesn't wrap.
func DivUp(a, b PosType) int {
	return int((int64(a) + int64(b) - 1) / int64(b))
}
