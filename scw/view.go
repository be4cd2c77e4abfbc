// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scw

import (
	"fmt"

	"github.com/grailbio/scw/interval"
)

// PosType is the integer type used to represent genomic positions.
type PosType = interval.PosType

// Interval is a scored chromosome window.
type Interval = interval.Interval

// Encoding identifies a physical view representation.
type Encoding uint8

const (
	// Dense stores contiguous runs.
	Dense Encoding = iota
	// Generic stores explicit windows.
	Generic
	// Mask stores covered regions only.
	Mask
	// FixedBin stores one score per fixed-size bin.
	FixedBin
)

var encodingNames = [...]string{"dense", "generic", "mask", "fixedbin"}

func (e Encoding) String() string {
	if int(e) >= len(encodingNames) {
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
	return encodingNames[e]
}

// ParseEncoding converts "dense", "generic", "mask" or "fixedbin" to an
// Encoding.
func ParseEncoding(s string) (Encoding, error) {
	for i, name := range encodingNames {
		if s == name {
			return Encoding(i), nil
		}
	}
	return Dense, fmt.Errorf("scw.ParseEncoding: unrecognized encoding %q", s)
}

// View is an immutable, sorted, non-overlapping sequence of intervals on one
// chromosome.
type View interface {
	// Encoding returns the physical representation.
	Encoding() Encoding
	// Len returns the number of stored intervals.
	Len() int
	// At returns stored interval #i.  It panics if i is out of range.
	At(i int) Interval
	// Search returns the index of the first stored interval with Stop > pos,
	// or Len() if there is none.
	Search(pos PosType) int
}

// IndexRange returns [lo, hi) such that v.At(lo..hi-1) are exactly the stored
// intervals intersecting [start, stop).
func IndexRange(v View, start, stop PosType) (lo, hi int) {
	if v == nil || stop <= start {
		return 0, 0
	}
	lo = v.Search(start)
	if s, ok := v.(startSearcher); ok {
		return lo, s.searchStart(stop, lo)
	}
	n := v.Len()
	for hi = lo; hi < n; hi++ {
		if v.At(hi).Start >= stop {
			break
		}
	}
	return
}

// startSearcher is implemented by the views of this package.
type startSearcher interface {
	// searchStart returns the index of the first stored interval with
	// Start >= pos, or Len() if there is none.  Every interval before #lo
	// must start before pos.
	searchStart(pos PosType, lo int) int
}

// SubRange returns the stored intervals intersecting [start, stop), in start
// order.  Boundary intervals are returned whole, not clipped.
func SubRange(v View, start, stop PosType) []Interval {
	lo, hi := IndexRange(v, start, stop)
	if lo == hi {
		return nil
	}
	result := make([]Interval, 0, hi-lo)
	for i := lo; i < hi; i++ {
		result = append(result, v.At(i))
	}
	return result
}

// Intervals returns every stored interval of v.
func Intervals(v View) []Interval {
	if v == nil {
		return nil
	}
	n := v.Len()
	result := make([]Interval, n)
	for i := 0; i < n; i++ {
		result[i] = v.At(i)
	}
	return result
}

// Equal returns whether two views store the same intervals.  Encodings are
// not compared.
func Equal(a, b View) bool {
	na, nb := 0, 0
	if a != nil {
		na = a.Len()
	}
	if b != nil {
		nb = b.Len()
	}
	if na != nb {
		return false
	}
	for i := 0; i < na; i++ {
		if a.At(i) != b.At(i) {
			return false
		}
	}
	return true
}

// IsEmpty returns whether v is nil or stores no intervals.
func IsEmpty(v View) bool {
	return v == nil || v.Len() == 0
}
