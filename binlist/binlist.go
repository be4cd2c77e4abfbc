// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package binlist resamples genome-wide interval lists onto a uniform grid,
// and maintains a pyramid of successively coarser copies for display.
package binlist

import (
	"context"
	"fmt"
	"sync"

	"github.com/grailbio/base/log"
	"github.com/grailbio/scw/genome"
	"github.com/grailbio/scw/interval"
	"github.com/grailbio/scw/scw"
	"github.com/grailbio/scw/scwlist"
)

// PosType is the integer type used to represent genomic positions.
type PosType = interval.PosType

// Opts configures a BinList.
type Opts struct {
	// BinSize is the width of the native bins.
	BinSize PosType
	// Op aggregates windows into bins, and bins into coarser bins.
	Op scw.Operation
	// Precision is the score storage width of every level.
	Precision scw.Precision
	// Factors are the per-level multipliers of the pyramid: level i+1 has bins
	// Factors[i] times wider than level i.
	Factors []int
}

// DefaultOpts are the bigWig-style defaults: 1kb averaged bins, six zoom
// levels, each 4x coarser than the previous.
var DefaultOpts = Opts{
	BinSize: 1000,
	Op:      scw.Average,
	Factors: []int{4, 4, 4, 4, 4, 4},
}

func (o Opts) validate() error {
	if o.BinSize <= 0 {
		return fmt.Errorf("binlist: invalid bin size %d", o.BinSize)
	}
	binSize := int64(o.BinSize)
	for i, f := range o.Factors {
		if f < 2 {
			return fmt.Errorf("binlist: pyramid factor #%d is %d, want >= 2", i, f)
		}
		if binSize *= int64(f); binSize > int64(interval.PosTypeMax) {
			return fmt.Errorf("binlist: pyramid level %d bin size overflows", i+1)
		}
	}
	return nil
}

// BuildOpts returns the list construction options for the native level.
func (o Opts) BuildOpts() scwlist.BuildOpts {
	return scwlist.BuildOpts{Encoding: scw.FixedBin, Op: o.Op, BinSize: o.BinSize, Precision: o.Precision}
}

// BinList is a FixedBin list plus a lazily computed pyramid.  It's safe for
// concurrent use.
type BinList struct {
	opts Opts

	mu sync.Mutex
	// levels[0] is the native list.  Coarser levels are appended by
	// buildPyramid, all at once.
	levels []*scwlist.List
}

// New wraps an existing FixedBin list whose views all use opts.BinSize.
func New(l *scwlist.List, opts Opts) (*BinList, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if l.Encoding() != scw.FixedBin {
		return nil, fmt.Errorf("binlist.New: list has %v encoding, want %v", l.Encoding(), scw.FixedBin)
	}
	for chr := 0; chr < l.Len(); chr++ {
		if v, ok := l.View(chr).(*scw.FixedBinView); ok && v.BinSize() != opts.BinSize {
			return nil, fmt.Errorf("binlist.New: chromosome %s has bin size %d, want %d", l.Genome().Chromosome(chr).Name, v.BinSize(), opts.BinSize)
		}
	}
	return &BinList{opts: opts, levels: []*scwlist.List{l}}, nil
}

// Rebin resamples every selected chromosome of src onto opts.BinSize bins.
// src must be flattened already (every scwlist.List is).
func Rebin(ctx context.Context, src *scwlist.List, opts Opts, lopts scwlist.Opts) (*BinList, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	l, err := scwlist.Generate(ctx, src.Genome(), opts.BuildOpts(), lopts, func(chr int, emit scwlist.EmitFunc) error {
		v := src.View(chr)
		if v == nil {
			return nil
		}
		n := v.Len()
		for i := 0; i < n; i++ {
			iv := v.At(i)
			if err := emit(iv.Start, iv.Stop, iv.Score); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &BinList{opts: opts, levels: []*scwlist.List{l}}, nil
}

// NewLoader returns a streaming loader producing the native level of a
// BinList; pass its result to New.
func NewLoader(g *genome.Genome, opts Opts) (*scwlist.Loader, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return scwlist.NewLoader(g, opts.BuildOpts())
}

// Opts returns the configuration of b.
func (b *BinList) Opts() Opts { return b.opts }

// List returns the native level.
func (b *BinList) List() *scwlist.List { return b.levels[0] }

// BinSize returns the native bin width.
func (b *BinList) BinSize() PosType { return b.opts.BinSize }

// NumLevels returns the number of levels, native one included.
func (b *BinList) NumLevels() int { return len(b.opts.Factors) + 1 }

// LevelBinSize returns the bin width of level i.
func (b *BinList) LevelBinSize(level int) PosType {
	binSize := b.opts.BinSize
	for _, f := range b.opts.Factors[:level] {
		binSize *= PosType(f)
	}
	return binSize
}

// Level returns pyramid level i (0 is the native level), computing the
// pyramid first if needed.
func (b *BinList) Level(ctx context.Context, level int) (*scwlist.List, error) {
	if level < 0 || level >= b.NumLevels() {
		return nil, fmt.Errorf("binlist.Level: level %d out of range [0, %d)", level, b.NumLevels())
	}
	if level == 0 {
		return b.levels[0], nil
	}
	levels, err := b.Pyramid(ctx)
	if err != nil {
		return nil, err
	}
	return levels[level], nil
}

// Pyramid returns every level, computing the coarser ones on first call.
// Level i+1 is built from level i only, never from the raw data, so the cost
// is proportional to the number of native bins.  An interrupted or failed
// computation isn't cached.
func (b *BinList) Pyramid(ctx context.Context) ([]*scwlist.List, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.levels) == b.NumLevels() {
		return b.levels, nil
	}
	levels := []*scwlist.List{b.levels[0]}
	for i, factor := range b.opts.Factors {
		next, err := coarsenList(ctx, levels[i], factor, b.opts.Op)
		if err != nil {
			return nil, err
		}
		levels = append(levels, next)
	}
	var nBins int64
	for _, l := range levels {
		nBins += l.NumIntervals()
	}
	log.Printf("binlist: built %d pyramid levels (%d bins in total) from %d-base bins", len(levels)-1, nBins, b.opts.BinSize)
	b.levels = levels
	return levels, nil
}

func coarsenList(ctx context.Context, l *scwlist.List, factor int, op scw.Operation) (*scwlist.List, error) {
	views := make([]scw.View, l.Len())
	err := scwlist.DefaultOpts.ForEach(ctx, l.Len(), func(chr int) bool { return l.View(chr) != nil }, func(chr int) error {
		v, err := scw.Coarsen(l.View(chr).(*scw.FixedBinView), factor, op)
		if err != nil {
			return err
		}
		views[chr] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scwlist.New(l.Genome(), scw.FixedBin, views)
}
