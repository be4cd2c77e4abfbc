// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scw

import "github.com/grailbio/scw/interval"

// GenericView stores explicit windows.  Uncovered regions are not stored; it
// is the encoding of choice for sparse data.
type GenericView struct {
	starts []PosType
	stops  []PosType
	scores []float32
}

// Encoding implements View.
func (v *GenericView) Encoding() Encoding { return Generic }

// Len implements View.
func (v *GenericView) Len() int { return len(v.starts) }

// At implements View.
func (v *GenericView) At(i int) Interval {
	return Interval{Start: v.starts[i], Stop: v.stops[i], Score: v.scores[i]}
}

// Search implements View.  Stops are strictly increasing since windows don't
// overlap.
func (v *GenericView) Search(pos PosType) int {
	return interval.SearchPosTypesAfter(v.stops, pos)
}

func (v *GenericView) searchStart(pos PosType, lo int) int {
	return interval.ExpsearchPosType(v.starts, pos, lo)
}

type genericBuilder struct {
	orderCheck
	starts []PosType
	stops  []PosType
	scores []float32
}

func (b *genericBuilder) Add(start, stop PosType, score float32) error {
	if err := b.check(start, stop); err != nil {
		return err
	}
	if score == 0 {
		return nil
	}
	if n := len(b.starts); n > 0 && b.stops[n-1] == start && b.scores[n-1] == score {
		b.stops[n-1] = stop
		return nil
	}
	b.starts = append(b.starts, start)
	b.stops = append(b.stops, stop)
	b.scores = append(b.scores, score)
	return nil
}

func (b *genericBuilder) Build() (View, error) {
	if err := b.finish(); err != nil {
		return nil, err
	}
	v := &GenericView{starts: b.starts, stops: b.stops, scores: b.scores}
	b.starts, b.stops, b.scores = nil, nil, nil
	return v, nil
}
