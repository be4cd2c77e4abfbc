// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scw_test

import (
	"math/rand"
	"testing"

	"github.com/grailbio/scw/scw"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	tassert "github.com/stretchr/testify/assert"
)

func buildFixedBin(t *testing.T, binSize, chromLength scw.PosType, op scw.Operation, p scw.Precision, input []iv) *scw.FixedBinView {
	v, err := scw.BuildFrom(scw.BuilderOpts{
		Encoding:    scw.FixedBin,
		ChromLength: chromLength,
		BinSize:     binSize,
		Op:          op,
		Precision:   p,
	}, input)
	assert.NoError(t, err)
	return v.(*scw.FixedBinView)
}

func TestFixedBinRebin(t *testing.T) {
	v := buildFixedBin(t, 1000, 1000, scw.Average, scw.Float32, []iv{{Start: 0, Stop: 1000, Score: 5}})
	expect.EQ(t, v.Len(), 1)
	expect.EQ(t, v.At(0), iv{Start: 0, Stop: 1000, Score: 5})

	v = buildFixedBin(t, 500, 1000, scw.Sum, scw.Float32, []iv{{Start: 0, Stop: 1000, Score: 5}})
	expect.EQ(t, scw.Intervals(v), []iv{{Start: 0, Stop: 500, Score: 2500}, {Start: 500, Stop: 1000, Score: 2500}})

	// Uncovered bases count as zero for averages.
	v = buildFixedBin(t, 100, 250, scw.Average, scw.Float64, []iv{
		{Start: 50, Stop: 150, Score: 2},
		{Start: 200, Stop: 210, Score: 8},
	})
	expect.EQ(t, v.Values(), []float64{1, 1, 80.0 / 50})
	expect.EQ(t, v.BinLen(2), scw.PosType(50))

	v = buildFixedBin(t, 100, 250, scw.Maximum, scw.Float32, []iv{
		{Start: 50, Stop: 150, Score: -2},
		{Start: 150, Stop: 160, Score: -1},
	})
	expect.EQ(t, v.Values(), []float64{-2, -1, 0})

	v = buildFixedBin(t, 100, 250, scw.Minimum, scw.Float32, []iv{
		{Start: 50, Stop: 150, Score: 2},
		{Start: 150, Stop: 160, Score: 1},
	})
	expect.EQ(t, v.Values(), []float64{2, 1, 0})
	expect.EQ(t, v.Search(99), 0)
	expect.EQ(t, v.Search(100), 1)
	expect.EQ(t, v.Search(1000), 3)
}

func TestFixedBinPrecision(t *testing.T) {
	v := buildFixedBin(t, 10, 20, scw.Average, scw.Float16, []iv{{Start: 0, Stop: 20, Score: 1.0 / 3}})
	expect.EQ(t, v.Precision(), scw.Float16)
	tassert.InDelta(t, 1.0/3, v.Score(0), 1e-3)
	expect.EQ(t, v.Score(0), scw.Float16.Round(1.0/3))

	_, err := scw.NewFixedBinView(10, 25, scw.Float32, []float64{1, 2})
	expect.NotNil(t, err)
	fv, err := scw.NewFixedBinView(10, 25, scw.Float32, []float64{1, 0, 2})
	assert.NoError(t, err)
	doubled := fv.MapScores(func(x float64) float64 { return x * 2 })
	expect.EQ(t, doubled.Values(), []float64{2, 0, 4})
	expect.EQ(t, fv.Values(), []float64{1, 0, 2})
}

func TestFixedBinPastChromEnd(t *testing.T) {
	v, err := scw.NewFixedBinView(1000, 1500, scw.Float32, []float64{1, 2})
	assert.NoError(t, err)
	expect.EQ(t, v.Search(1499), 1)
	expect.EQ(t, v.Search(1500), 2)
	expect.EQ(t, v.Search(1999), 2)
	expect.EQ(t, scw.SubRange(v, 1700, 1800), []iv(nil))
	expect.EQ(t, scw.SubRange(v, 1500, 2500), []iv(nil))
	expect.EQ(t, scw.SubRange(v, 1400, 1800), []iv{{Start: 1000, Stop: 1500, Score: 2}})
	expect.EQ(t, scw.SubRange(v, 999, 1001), []iv{{Start: 0, Stop: 1000, Score: 1}, {Start: 1000, Stop: 1500, Score: 2}})
}

// Chromosome lengths and bin bounds near PosTypeMax must not wrap.
func TestFixedBinLongChromosome(t *testing.T) {
	v := buildFixedBin(t, 100000000, 2100000000, scw.Sum, scw.Float64, []iv{
		{Start: 1999999000, Stop: 2000001000, Score: 1},
		{Start: 2099999000, Stop: 2100000000, Score: 1},
	})
	expect.EQ(t, v.Len(), 21)
	expect.EQ(t, v.Score(19), 1000.0)
	expect.EQ(t, v.At(20), iv{Start: 2000000000, Stop: 2100000000, Score: 2000})

	const maxLen = scw.PosType(2147483647)
	v = buildFixedBin(t, 1000000000, maxLen, scw.Average, scw.Float64, []iv{
		{Start: maxLen - 1000, Stop: maxLen, Score: 4},
	})
	expect.EQ(t, v.Len(), 3)
	expect.EQ(t, v.BinLen(2), scw.PosType(147483647))
	expect.EQ(t, v.At(2).Stop, maxLen)
	tassert.InDelta(t, 4000.0/147483647, v.Score(2), 1e-12)
	expect.EQ(t, v.Search(maxLen-1), 2)
	expect.EQ(t, len(scw.SubRange(v, maxLen-10, maxLen)), 1)
}

func randomWindows(r *rand.Rand, chromLength scw.PosType) []iv {
	var result []iv
	pos := scw.PosType(0)
	for {
		start := pos + scw.PosType(r.Intn(20))
		stop := start + 1 + scw.PosType(r.Intn(30))
		if stop > chromLength {
			return result
		}
		score := float32(r.Intn(9) - 4)
		result = append(result, iv{Start: start, Stop: stop, Score: score})
		pos = stop
	}
}

// A coarsened level matches binning the raw windows directly at the coarser
// size.
func TestCoarsenMatchesDirect(t *testing.T) {
	r := rand.New(rand.NewSource(0))
	const chromLength = 9973
	for _, op := range []scw.Operation{scw.Sum, scw.Average, scw.Maximum, scw.Minimum} {
		for iter := 0; iter < 10; iter++ {
			input := randomWindows(r, chromLength)
			fine := buildFixedBin(t, 10, chromLength, op, scw.Float64, input)
			direct := buildFixedBin(t, 40, chromLength, op, scw.Float64, input)
			coarse, err := scw.Coarsen(fine, 4, op)
			assert.NoError(t, err)
			expect.EQ(t, coarse.BinSize(), scw.PosType(40))
			expect.EQ(t, coarse.Len(), direct.Len())
			for i := 0; i < direct.Len(); i++ {
				tassert.InDelta(t, direct.Score(i), coarse.Score(i), 1e-9, "op %v bin %d", op, i)
			}
		}
	}
	fine := buildFixedBin(t, 10, 100, scw.Sum, scw.Float32, nil)
	_, err := scw.Coarsen(fine, 0, scw.Sum)
	expect.NotNil(t, err)
}
