// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package display_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/grailbio/scw/binlist"
	"github.com/grailbio/scw/display"
	"github.com/grailbio/scw/genome"
	"github.com/grailbio/scw/interval"
	"github.com/grailbio/scw/scw"
	"github.com/grailbio/scw/scwlist"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/pkg/errors"
)

type iv = interval.Interval

func testGenome(t *testing.T) *genome.Genome {
	g, err := genome.New([]genome.Chromosome{{Name: "chr1", Length: 1000000}, {Name: "chr2", Length: 300000}})
	assert.NoError(t, err)
	return g
}

func randomBinList(t *testing.T, g *genome.Genome) *binlist.BinList {
	r := rand.New(rand.NewSource(0))
	l, err := scwlist.Generate(context.Background(), g, scwlist.DefaultBuildOpts, scwlist.Opts{Parallelism: 1}, func(chr int, emit scwlist.EmitFunc) error {
		length := g.Chromosome(chr).Length
		for pos := interval.PosType(r.Intn(1000)); ; pos += interval.PosType(100 + r.Intn(5000)) {
			stop := pos + 1 + interval.PosType(r.Intn(2000))
			if stop > length {
				return nil
			}
			if err := emit(pos, stop, 1+10*r.Float32()); err != nil {
				return err
			}
		}
	})
	assert.NoError(t, err)
	b, err := binlist.Rebin(context.Background(), l, binlist.Opts{BinSize: 100, Op: scw.Average, Factors: []int{4, 4, 4}}, scwlist.DefaultOpts)
	assert.NoError(t, err)
	return b
}

func TestScaleNative(t *testing.T) {
	ctx := context.Background()
	g := testGenome(t)
	b := randomBinList(t, g)
	s, err := display.NewScaler(b, display.DefaultOpts)
	assert.NoError(t, err)
	for _, xRatio := range []float64{0.01, 0.5, 3} {
		v, err := s.Scale(ctx, 0, xRatio)
		assert.NoError(t, err)
		expect.True(t, v == b.List().View(0), "ratio %v", xRatio)
	}
	v, err := s.Scale(ctx, 0, 0.001)
	assert.NoError(t, err)
	level2, err := b.Level(ctx, 2)
	assert.NoError(t, err)
	expect.True(t, v == level2.View(0))

	_, err = s.Scale(ctx, 0, 0)
	expect.NotNil(t, err)
	_, err = s.Scale(ctx, 5, 1)
	expect.True(t, errors.Cause(err) == genome.ErrUnknownChromosome)
}

// Zooming out never increases the number of windows to draw.  Pyramid levels
// nest, so this holds for any range; on-the-fly reductions are compared over
// the whole chromosome.
func TestScaleMonotonic(t *testing.T) {
	ctx := context.Background()
	g := testGenome(t)
	b := randomBinList(t, g)
	s, err := display.NewScaler(b, display.Opts{CacheSize: 4})
	assert.NoError(t, err)
	native := b.List().View(0)
	for _, rng := range [][2]interval.PosType{{0, 1000000}, {123456, 654321}, {5000, 9000}} {
		prev := len(scw.SubRange(native, rng[0], rng[1]))
		for _, xRatio := range []float64{1, 0.01, 0.005, 0.002, 0.0005} {
			v, err := s.Scale(ctx, 0, xRatio)
			assert.NoError(t, err)
			n := len(scw.SubRange(v, rng[0], rng[1]))
			expect.LE(t, n, prev, "range %v ratio %v", rng, xRatio)
			prev = n
		}
	}
	prev := native.Len()
	for _, xRatio := range []float64{0.0005, 1e-4, 3e-5, 1e-5, 1e-6} {
		v, err := s.Scale(ctx, 0, xRatio)
		assert.NoError(t, err)
		expect.LE(t, v.Len(), prev, "ratio %v", xRatio)
		prev = v.Len()
	}
	expect.EQ(t, prev, 1)
}

func TestListScaler(t *testing.T) {
	ctx := context.Background()
	g := testGenome(t)
	v, err := scw.BuildFrom(scw.BuilderOpts{Encoding: scw.Generic}, []iv{
		{Start: 0, Stop: 4, Score: 1},
		{Start: 4, Stop: 6, Score: 4},
		{Start: 20, Stop: 30, Score: 2},
		{Start: 31, Stop: 35, Score: 2},
		{Start: 100, Stop: 101, Score: 5},
	})
	assert.NoError(t, err)
	l, err := scwlist.New(g, scw.Generic, []scw.View{v, nil})
	assert.NoError(t, err)
	s, err := display.NewListScaler(l, display.DefaultOpts)
	assert.NoError(t, err)

	got, err := s.Scale(ctx, 0, 1)
	assert.NoError(t, err)
	expect.True(t, got == v)
	got, err = s.Scale(ctx, 0, 0.1)
	assert.NoError(t, err)
	expect.EQ(t, got.Encoding(), scw.Generic)
	expect.EQ(t, scw.Intervals(got), []iv{
		{Start: 0, Stop: 6, Score: 2},
		{Start: 20, Stop: 35, Score: 2},
		{Start: 100, Stop: 101, Score: 5},
	})
	got, err = s.Scale(ctx, 1, 0.1)
	assert.NoError(t, err)
	expect.Nil(t, got)
}

// A compacting cache serves the same windows as a plain one.
func TestScaleCompact(t *testing.T) {
	ctx := context.Background()
	g := testGenome(t)
	b := randomBinList(t, g)
	plain, err := display.NewScaler(b, display.DefaultOpts)
	assert.NoError(t, err)
	compact, err := display.NewScaler(b, display.Opts{CacheSize: 4, Compact: true})
	assert.NoError(t, err)
	for _, xRatio := range []float64{1e-5, 0.5, 1e-6, 1e-5} {
		for chr := 0; chr < g.Len(); chr++ {
			want, err := plain.Scale(ctx, chr, xRatio)
			assert.NoError(t, err)
			// The second call is served from the cache.
			for i := 0; i < 2; i++ {
				got, err := compact.Scale(ctx, chr, xRatio)
				assert.NoError(t, err)
				expect.True(t, scw.Equal(got, want), "chr %d ratio %v", chr, xRatio)
			}
		}
	}
	// Unreduced views are the list's own, and aren't compacted.
	v, err := compact.Scale(ctx, 0, 0.5)
	assert.NoError(t, err)
	expect.True(t, v == b.List().View(0))
	// Reduced ones are expanded afresh on every hit.
	v0, err := compact.Scale(ctx, 0, 1e-5)
	assert.NoError(t, err)
	v1, err := compact.Scale(ctx, 0, 1e-5)
	assert.NoError(t, err)
	expect.False(t, v0 == v1)
	expect.True(t, scw.Equal(v0, v1))
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	g := testGenome(t)
	b := randomBinList(t, g)
	s, err := display.NewScaler(b, display.DefaultOpts)
	assert.NoError(t, err)

	assert.NoError(t, s.Wait(ctx))
	_, _, _, ok := s.Visible(0, 1000)
	expect.False(t, ok)

	s.Update(ctx, 0, 1e-5)
	s.Update(ctx, 1, 0.01)
	s.Update(ctx, 1, 0.01)
	assert.NoError(t, s.Wait(ctx))
	chr, xRatio, intervals, ok := s.Visible(1000, 2000)
	expect.True(t, ok)
	expect.EQ(t, chr, 1)
	expect.EQ(t, xRatio, 0.01)
	expect.EQ(t, intervals, scw.SubRange(b.List().View(1), 1000, 2000))

	s.Update(ctx, 0, 1e-6)
	assert.NoError(t, s.Wait(ctx))
	chr, _, _, ok = s.Visible(0, 1000000)
	expect.True(t, ok)
	expect.EQ(t, chr, 0)
}
