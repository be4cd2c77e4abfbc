// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scw

import (
	"fmt"

	"github.com/grailbio/scw/interval"
)

// FixedBinView stores one score per bin.  Bin #i is
// [i*binSize, min((i+1)*binSize, chromLength)); only the last bin can be
// shorter than binSize.  Every bin is a stored interval, including zero-score
// ones.
type FixedBinView struct {
	binSize     PosType
	chromLength PosType
	scores      scoreArray
}

// NewFixedBinView returns a view over the given per-bin values, stored at
// precision p.  len(values) must be ceil(chromLength/binSize).
func NewFixedBinView(binSize, chromLength PosType, p Precision, values []float64) (*FixedBinView, error) {
	if binSize <= 0 || chromLength <= 0 {
		return nil, fmt.Errorf("scw.NewFixedBinView: invalid bin size %d / chromosome length %d", binSize, chromLength)
	}
	if want := interval.DivUp(chromLength, binSize); len(values) != want {
		return nil, fmt.Errorf("scw.NewFixedBinView: got %d values, want %d", len(values), want)
	}
	return &FixedBinView{binSize: binSize, chromLength: chromLength, scores: newScoreArray(p, values)}, nil
}

// Encoding implements View.
func (v *FixedBinView) Encoding() Encoding { return FixedBin }

// Len implements View.
func (v *FixedBinView) Len() int { return v.scores.Len() }

// At implements View.  The score is narrowed to float32; use Score for the
// stored value.
func (v *FixedBinView) At(i int) Interval {
	return Interval{Start: PosType(i) * v.binSize, Stop: v.binStop(i), Score: float32(v.scores.Get(i))}
}

// Search implements View.
func (v *FixedBinView) Search(pos PosType) int {
	if pos < 0 {
		return 0
	}
	if pos >= v.chromLength {
		return v.scores.Len()
	}
	return int(pos / v.binSize)
}

func (v *FixedBinView) searchStart(pos PosType, lo int) int {
	if pos <= 0 {
		return 0
	}
	if i := interval.DivUp(pos, v.binSize); i < v.scores.Len() {
		return i
	}
	return v.scores.Len()
}

// BinSize returns the bin width.
func (v *FixedBinView) BinSize() PosType { return v.binSize }

// ChromLength returns the length of the chromosome the bins cover.
func (v *FixedBinView) ChromLength() PosType { return v.chromLength }

// Precision returns the score storage width.
func (v *FixedBinView) Precision() Precision { return v.scores.Precision() }

// Score returns the stored score of bin #i at full storage precision.
func (v *FixedBinView) Score(i int) float64 { return v.scores.Get(i) }

// BinLen returns the width of bin #i.
func (v *FixedBinView) BinLen(i int) PosType {
	return v.binStop(i) - PosType(i)*v.binSize
}

func (v *FixedBinView) binStop(i int) PosType {
	if stop := int64(i+1) * int64(v.binSize); stop < int64(v.chromLength) {
		return PosType(stop)
	}
	return v.chromLength
}

// Values returns a float64 copy of every bin score.
func (v *FixedBinView) Values() []float64 {
	n := v.scores.Len()
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = v.scores.Get(i)
	}
	return values
}

// MapScores returns a new view, at the same precision, with every nonzero bin
// score replaced by f(score).  Zero bins stay zero.
func (v *FixedBinView) MapScores(f func(float64) float64) *FixedBinView {
	values := v.Values()
	for i, x := range values {
		if x != 0 {
			values[i] = f(x)
		}
	}
	return &FixedBinView{binSize: v.binSize, chromLength: v.chromLength, scores: newScoreArray(v.Precision(), values)}
}

// Coarsen combines every factor consecutive bins into one, with op.  Child
// bins are weighted by their width for Average, so a level built this way
// equals one binned directly from the raw windows (up to storage rounding).
// Zero bins don't contribute to Maximum/Minimum.
func Coarsen(v *FixedBinView, factor int, op Operation) (*FixedBinView, error) {
	if factor < 1 {
		return nil, fmt.Errorf("scw.Coarsen: invalid factor %d", factor)
	}
	binSize := v.binSize * PosType(factor)
	if binSize/PosType(factor) != v.binSize {
		return nil, fmt.Errorf("scw.Coarsen: bin size %d * %d overflows", v.binSize, factor)
	}
	n := v.Len()
	nOut := (n + factor - 1) / factor
	values := make([]float64, nOut)
	for p := 0; p < nOut; p++ {
		var acc binAccumulator
		var parentLen int64
		lo := p * factor
		hi := lo + factor
		if hi > n {
			hi = n
		}
		for c := lo; c < hi; c++ {
			childLen := int64(v.BinLen(c))
			parentLen += childLen
			x := v.scores.Get(c)
			if x == 0 {
				continue
			}
			// Child sums are already length-weighted.
			weight := childLen
			if op == Sum {
				weight = 1
			}
			acc.add(op, x, weight)
		}
		values[p] = acc.value(op, parentLen)
	}
	return &FixedBinView{binSize: binSize, chromLength: v.chromLength, scores: newScoreArray(v.Precision(), values)}, nil
}

// fixedBinBuilder rebins flattened windows onto a uniform grid.
type fixedBinBuilder struct {
	orderCheck
	binSize   PosType
	op        Operation
	precision Precision
	bins      []binAccumulator
}

func newFixedBinBuilder(opts BuilderOpts) (*fixedBinBuilder, error) {
	if opts.BinSize <= 0 {
		return nil, fmt.Errorf("scw.NewBuilder: fixed-bin encoding requires a positive bin size, got %d", opts.BinSize)
	}
	if opts.ChromLength <= 0 {
		return nil, fmt.Errorf("scw.NewBuilder: fixed-bin encoding requires the chromosome length")
	}
	if opts.Op < Sum || opts.Op > Minimum {
		return nil, fmt.Errorf("scw.NewBuilder: unknown operation %v", opts.Op)
	}
	return &fixedBinBuilder{
		orderCheck: orderCheck{chromLength: opts.ChromLength},
		binSize:    opts.BinSize,
		op:         opts.Op,
		precision:  opts.Precision,
		bins:       make([]binAccumulator, interval.DivUp(opts.ChromLength, opts.BinSize)),
	}, nil
}

func (b *fixedBinBuilder) Add(start, stop PosType, score float32) error {
	if err := b.check(start, stop); err != nil {
		return err
	}
	if score == 0 {
		return nil
	}
	x := float64(score)
	// Bin bounds are int64 so that the last bin of a chromosome near
	// PosTypeMax doesn't wrap.
	binSize, chromLength := int64(b.binSize), int64(b.chromLength)
	for i := int64(start) / binSize; i*binSize < int64(stop); i++ {
		binStart, binStop := i*binSize, (i+1)*binSize
		if binStop > chromLength {
			binStop = chromLength
		}
		overlap := Interval{Start: start, Stop: stop}.Overlap(PosType(binStart), PosType(binStop))
		b.bins[i].add(b.op, x, int64(overlap))
	}
	return nil
}

func (b *fixedBinBuilder) Build() (View, error) {
	if err := b.finish(); err != nil {
		return nil, err
	}
	values := make([]float64, len(b.bins))
	for i := range b.bins {
		binLen := int64(b.binSize)
		if last := int64(i+1) * binLen; last > int64(b.chromLength) {
			binLen = int64(b.chromLength) - int64(i)*binLen
		}
		values[i] = b.bins[i].value(b.op, binLen)
	}
	b.bins = nil
	return &FixedBinView{binSize: b.binSize, chromLength: b.chromLength, scores: newScoreArray(b.precision, values)}, nil
}
