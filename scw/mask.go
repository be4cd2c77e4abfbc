// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scw

import "github.com/grailbio/scw/interval"

// MaskView is a covered/uncovered region set, represented as a length-2N
// sequence of endpoints: the start of covered region #k is in element [2k] and
// its stop in element [2k+1].  Every stored interval has score 1.
//
// For example, the regions [5, 17) and [20, 25) are stored as
//   {5, 17, 20, 25}.
// SearchPosTypesAfter(endpoints, pos) is odd exactly when pos is covered.
type MaskView struct {
	endpoints []PosType
}

// Encoding implements View.
func (v *MaskView) Encoding() Encoding { return Mask }

// Len implements View.
func (v *MaskView) Len() int { return len(v.endpoints) / 2 }

// At implements View.
func (v *MaskView) At(i int) Interval {
	return Interval{Start: v.endpoints[2*i], Stop: v.endpoints[2*i+1], Score: 1}
}

// Search implements View.
func (v *MaskView) Search(pos PosType) int {
	return interval.SearchPosTypesAfter(v.endpoints, pos) / 2
}

// An odd endpoint index means pos falls inside (or at the stop of) a region
// that starts before it.
func (v *MaskView) searchStart(pos PosType, lo int) int {
	return (interval.ExpsearchPosType(v.endpoints, pos, 2*lo) + 1) / 2
}

// Contains returns whether pos is covered.
func (v *MaskView) Contains(pos PosType) bool {
	return interval.SearchPosTypesAfter(v.endpoints, pos)&1 == 1
}

// CoveredLength returns the number of covered positions.
func (v *MaskView) CoveredLength() int64 {
	var total int64
	for i := 0; i < len(v.endpoints); i += 2 {
		total += int64(v.endpoints[i+1] - v.endpoints[i])
	}
	return total
}

// maskBuilder marks every nonzero-score interval as covered, merging touching
// regions.
type maskBuilder struct {
	orderCheck
	endpoints []PosType
}

func (b *maskBuilder) Add(start, stop PosType, score float32) error {
	if err := b.check(start, stop); err != nil {
		return err
	}
	if score == 0 {
		return nil
	}
	if n := len(b.endpoints); n > 0 && b.endpoints[n-1] == start {
		b.endpoints[n-1] = stop
		return nil
	}
	b.endpoints = append(b.endpoints, start, stop)
	return nil
}

func (b *maskBuilder) Build() (View, error) {
	if err := b.finish(); err != nil {
		return nil, err
	}
	v := &MaskView{endpoints: b.endpoints}
	b.endpoints = nil
	return v, nil
}
