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
	"github.com/pkg/errors"
)

type iv = scw.Interval

var allEncodings = []scw.Encoding{scw.Dense, scw.Generic, scw.Mask, scw.FixedBin}

func newBuilder(t *testing.T, enc scw.Encoding) scw.Builder {
	b, err := scw.NewBuilder(scw.BuilderOpts{Encoding: enc, ChromLength: 1000, BinSize: 10, Op: scw.Average})
	assert.NoError(t, err)
	return b
}

func TestBuilderErrors(t *testing.T) {
	for _, enc := range allEncodings {
		b := newBuilder(t, enc)
		assert.NoError(t, b.Add(10, 20, 1))
		expect.True(t, errors.Cause(b.Add(5, 30, 1)) == scw.ErrOutOfOrder, "enc %v", enc)
		expect.True(t, errors.Cause(b.Add(15, 30, 1)) == scw.ErrOverlap, "enc %v", enc)
		expect.True(t, errors.Cause(b.Add(30, 30, 1)) == scw.ErrInvalidInterval, "enc %v", enc)
		expect.True(t, errors.Cause(b.Add(-1, 30, 1)) == scw.ErrInvalidInterval, "enc %v", enc)
		expect.True(t, errors.Cause(b.Add(900, 1001, 1)) == scw.ErrInvalidInterval, "enc %v", enc)
		// Failed adds leave the builder usable.
		assert.NoError(t, b.Add(20, 30, 2))
		_, err := b.Build()
		assert.NoError(t, err)
		expect.True(t, errors.Cause(b.Add(40, 50, 1)) == scw.ErrAlreadyBuilt, "enc %v", enc)
		_, err = b.Build()
		expect.True(t, errors.Cause(err) == scw.ErrAlreadyBuilt, "enc %v", enc)
	}
	_, err := scw.NewBuilder(scw.BuilderOpts{Encoding: scw.FixedBin, ChromLength: 1000})
	expect.NotNil(t, err)
	_, err = scw.NewBuilder(scw.BuilderOpts{Encoding: scw.FixedBin, BinSize: 10})
	expect.NotNil(t, err)
}

func TestDenseBuilder(t *testing.T) {
	v, err := scw.BuildFrom(scw.BuilderOpts{Encoding: scw.Dense}, []iv{
		{Start: 10, Stop: 20, Score: 1},
		{Start: 20, Stop: 25, Score: 1},
		{Start: 25, Stop: 30, Score: 2},
		{Start: 30, Stop: 35, Score: 0},
		{Start: 40, Stop: 50, Score: 2},
	})
	assert.NoError(t, err)
	expect.EQ(t, v.Encoding(), scw.Dense)
	expect.EQ(t, scw.Intervals(v), []iv{
		{Start: 10, Stop: 25, Score: 1},
		{Start: 25, Stop: 30, Score: 2},
		{Start: 30, Stop: 40, Score: 0},
		{Start: 40, Stop: 50, Score: 2},
	})
	expect.NoError(t, scw.Validate(v))
}

func TestGenericAndMaskBuilders(t *testing.T) {
	input := []iv{
		{Start: 10, Stop: 20, Score: 1},
		{Start: 20, Stop: 25, Score: 1},
		{Start: 25, Stop: 30, Score: 2},
		{Start: 30, Stop: 35, Score: 0},
		{Start: 40, Stop: 50, Score: 2},
	}
	v, err := scw.BuildFrom(scw.BuilderOpts{Encoding: scw.Generic}, input)
	assert.NoError(t, err)
	expect.EQ(t, scw.Intervals(v), []iv{
		{Start: 10, Stop: 25, Score: 1},
		{Start: 25, Stop: 30, Score: 2},
		{Start: 40, Stop: 50, Score: 2},
	})

	v, err = scw.BuildFrom(scw.BuilderOpts{Encoding: scw.Mask}, input)
	assert.NoError(t, err)
	expect.EQ(t, scw.Intervals(v), []iv{
		{Start: 10, Stop: 30, Score: 1},
		{Start: 40, Stop: 50, Score: 1},
	})
	mv := v.(*scw.MaskView)
	expect.True(t, mv.Contains(10))
	expect.True(t, mv.Contains(29))
	expect.False(t, mv.Contains(30))
	expect.False(t, mv.Contains(9))
	expect.EQ(t, mv.CoveredLength(), int64(30))
}

func TestEmptyViews(t *testing.T) {
	for _, enc := range []scw.Encoding{scw.Dense, scw.Generic, scw.Mask} {
		v, err := scw.BuildFrom(scw.BuilderOpts{Encoding: enc}, nil)
		assert.NoError(t, err)
		expect.True(t, scw.IsEmpty(v))
		expect.EQ(t, v.Search(100), 0)
		expect.EQ(t, len(scw.SubRange(v, 0, 100)), 0)
	}
}

// Every encoding produces sorted, non-overlapping intervals.
func TestNonOverlap(t *testing.T) {
	var input []iv
	pos := scw.PosType(0)
	for i := 0; i < 200; i++ {
		start := pos + scw.PosType(i%3)
		stop := start + 1 + scw.PosType(i%7)
		input = append(input, iv{Start: start, Stop: stop, Score: float32(i % 4)})
		pos = stop
	}
	for _, enc := range allEncodings {
		v, err := scw.BuildFrom(scw.BuilderOpts{Encoding: enc, ChromLength: pos, BinSize: 13, Op: scw.Sum}, input)
		assert.NoError(t, err)
		expect.NoError(t, scw.Validate(v), "enc %v", enc)
		for i := 1; i < v.Len(); i++ {
			expect.LE(t, v.At(i-1).Stop, v.At(i).Start)
		}
	}
}

func TestSearchAndSubRange(t *testing.T) {
	input := []iv{
		{Start: 10, Stop: 20, Score: 1},
		{Start: 30, Stop: 40, Score: 2},
		{Start: 50, Stop: 60, Score: 3},
	}
	for _, enc := range []scw.Encoding{scw.Dense, scw.Generic} {
		v, err := scw.BuildFrom(scw.BuilderOpts{Encoding: enc}, input)
		assert.NoError(t, err)
		expect.EQ(t, scw.SubRange(v, 0, 10), []iv(nil))
		expect.EQ(t, scw.SubRange(v, 55, 100), []iv{{Start: 50, Stop: 60, Score: 3}})
		expect.EQ(t, scw.SubRange(v, 60, 100), []iv(nil))
		got := scw.SubRange(v, 15, 35)
		if enc == scw.Dense {
			expect.EQ(t, got, []iv{{Start: 10, Stop: 20, Score: 1}, {Start: 20, Stop: 30, Score: 0}, {Start: 30, Stop: 40, Score: 2}})
		} else {
			expect.EQ(t, got, []iv{{Start: 10, Stop: 20, Score: 1}, {Start: 30, Stop: 40, Score: 2}})
		}
	}
	v, err := scw.BuildFrom(scw.BuilderOpts{Encoding: scw.Mask}, input)
	assert.NoError(t, err)
	expect.EQ(t, v.Search(20), 1)
	expect.EQ(t, v.Search(19), 0)
	expect.EQ(t, v.Search(60), 3)
	expect.EQ(t, scw.SubRange(v, 20, 30), []iv(nil))
}

// SubRange agrees with a scan over every stored interval.
func TestSubRangeMatchesScan(t *testing.T) {
	r := rand.New(rand.NewSource(0))
	const chromLength = 5003
	input := randomWindows(r, chromLength)
	for _, enc := range allEncodings {
		v, err := scw.BuildFrom(scw.BuilderOpts{Encoding: enc, ChromLength: chromLength, BinSize: 17, Op: scw.Sum}, input)
		assert.NoError(t, err)
		all := scw.Intervals(v)
		for iter := 0; iter < 500; iter++ {
			start := scw.PosType(r.Intn(chromLength+100)) - 50
			stop := start + 1 + scw.PosType(r.Intn(300))
			var want []iv
			for _, x := range all {
				if x.Stop > start && x.Start < stop {
					want = append(want, x)
				}
			}
			expect.EQ(t, scw.SubRange(v, start, stop), want, "enc %v [%d, %d)", enc, start, stop)
		}
	}
}

func TestParse(t *testing.T) {
	enc, err := scw.ParseEncoding("fixedbin")
	expect.NoError(t, err)
	expect.EQ(t, enc, scw.FixedBin)
	_, err = scw.ParseEncoding("sparse")
	expect.NotNil(t, err)

	op, err := scw.ParseOperation("max")
	expect.NoError(t, err)
	expect.EQ(t, op, scw.Maximum)

	p, err := scw.ParsePrecision("16")
	expect.NoError(t, err)
	expect.EQ(t, p, scw.Float16)
	expect.EQ(t, p.Bytes(), 2)
}

func TestAccumulator(t *testing.T) {
	acc := scw.Average.NewAccumulator()
	expect.EQ(t, acc.Value(), 0.0)
	acc.Add(2)
	acc.Add(4)
	expect.EQ(t, acc.Value(), 3.0)
	acc.Reset()
	expect.EQ(t, acc.N(), 0)

	acc = scw.Minimum.NewAccumulator()
	acc.Add(3)
	acc.Add(-1)
	expect.EQ(t, acc.Value(), -1.0)
}
