// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scw

import "github.com/grailbio/scw/interval"

// DenseView stores contiguous runs: run #i is [stops[i-1], stops[i]) (with
// firstStart in place of stops[-1]) and has score scores[i].  Consecutive runs
// never share a score.  Interior gaps of the input are stored as zero-score
// runs, so the encoding pays off when most of the chromosome is covered.
type DenseView struct {
	firstStart PosType
	stops      []PosType
	scores     []float32
}

// Encoding implements View.
func (v *DenseView) Encoding() Encoding { return Dense }

// Len implements View.
func (v *DenseView) Len() int { return len(v.stops) }

// At implements View.
func (v *DenseView) At(i int) Interval {
	start := v.firstStart
	if i > 0 {
		start = v.stops[i-1]
	}
	return Interval{Start: start, Stop: v.stops[i], Score: v.scores[i]}
}

// Search implements View.
func (v *DenseView) Search(pos PosType) int {
	return interval.SearchPosTypesAfter(v.stops, pos)
}

// Run #i>0 starts at stops[i-1].
func (v *DenseView) searchStart(pos PosType, lo int) int {
	n := len(v.stops)
	if n == 0 || v.firstStart >= pos {
		return 0
	}
	if lo > n-1 {
		lo = n - 1
	}
	return interval.ExpsearchPosType(v.stops[:n-1], pos, lo) + 1
}

type denseBuilder struct {
	orderCheck
	firstStart PosType
	stops      []PosType
	scores     []float32
}

func (b *denseBuilder) Add(start, stop PosType, score float32) error {
	if err := b.check(start, stop); err != nil {
		return err
	}
	if score == 0 {
		return nil
	}
	n := len(b.stops)
	if n == 0 {
		b.firstStart = start
		b.stops = append(b.stops, stop)
		b.scores = append(b.scores, score)
		return nil
	}
	if start > b.stops[n-1] {
		// Keep the runs contiguous.  The previous run is never a zero run, so
		// this can't create two consecutive zero runs.
		b.stops = append(b.stops, start)
		b.scores = append(b.scores, 0)
		n++
	}
	if b.scores[n-1] == score {
		b.stops[n-1] = stop
		return nil
	}
	b.stops = append(b.stops, stop)
	b.scores = append(b.scores, score)
	return nil
}

func (b *denseBuilder) Build() (View, error) {
	if err := b.finish(); err != nil {
		return nil, err
	}
	v := &DenseView{firstStart: b.firstStart, stops: b.stops, scores: b.scores}
	b.stops, b.scores = nil, nil
	return v, nil
}
