// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scw

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrOutOfOrder is returned (wrapped) when an interval starts before the
	// previously added one.
	ErrOutOfOrder = errors.New("interval out of order")
	// ErrOverlap is returned (wrapped) when an interval starts before the
	// previously added one stops.  Overlapping input must be flattened first.
	ErrOverlap = errors.New("overlapping intervals")
	// ErrAlreadyBuilt is returned (wrapped) when a builder is used after Build.
	ErrAlreadyBuilt = errors.New("builder already built")
	// ErrInvalidInterval is returned (wrapped) for empty or reversed
	// intervals, negative starts, and stops past the chromosome end.
	ErrInvalidInterval = errors.New("invalid interval")
)

// Builder accumulates the sorted, non-overlapping intervals of one chromosome
// and produces an immutable View.  A Builder is single-use: once Build has been
// called, the backing arrays belong to the returned view and every further
// call fails with ErrAlreadyBuilt.
//
// Builders are not safe for concurrent use.
type Builder interface {
	// Add appends [start, stop) with the given score.  Zero-score intervals
	// are ordering-checked but otherwise treated as "no data".
	Add(start, stop PosType, score float32) error
	// Build returns the finished view.
	Build() (View, error)
}

// BuilderOpts selects and configures the view encoding.
type BuilderOpts struct {
	Encoding Encoding
	// ChromLength bounds every stop.  Required for FixedBin; 0 disables the
	// check for the other encodings.
	ChromLength PosType
	// BinSize, Op and Precision are only used by FixedBin.
	BinSize   PosType
	Op        Operation
	Precision Precision
}

// NewBuilder returns an empty builder for opts.Encoding.
func NewBuilder(opts BuilderOpts) (Builder, error) {
	if opts.ChromLength < 0 {
		return nil, fmt.Errorf("scw.NewBuilder: negative chromosome length %d", opts.ChromLength)
	}
	switch opts.Encoding {
	case Dense:
		return &denseBuilder{orderCheck: orderCheck{chromLength: opts.ChromLength}}, nil
	case Generic:
		return &genericBuilder{orderCheck: orderCheck{chromLength: opts.ChromLength}}, nil
	case Mask:
		return &maskBuilder{orderCheck: orderCheck{chromLength: opts.ChromLength}}, nil
	case FixedBin:
		b, err := newFixedBinBuilder(opts)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, fmt.Errorf("scw.NewBuilder: unknown encoding %v", opts.Encoding)
}

// orderCheck is the state machine shared by all builders: it enforces the
// sort/overlap invariants and the open -> built transition.
type orderCheck struct {
	chromLength PosType
	lastStart   PosType
	lastStop    PosType
	started     bool
	built       bool
}

func (c *orderCheck) check(start, stop PosType) error {
	if c.built {
		return errors.Wrapf(ErrAlreadyBuilt, "adding [%d, %d)", start, stop)
	}
	if start < 0 || start >= stop || (c.chromLength > 0 && stop > c.chromLength) {
		return errors.Wrapf(ErrInvalidInterval, "[%d, %d) with chromosome length %d", start, stop, c.chromLength)
	}
	if c.started {
		if start < c.lastStart {
			return errors.Wrapf(ErrOutOfOrder, "[%d, %d) added after an interval starting at %d", start, stop, c.lastStart)
		}
		if start < c.lastStop {
			return errors.Wrapf(ErrOverlap, "[%d, %d) overlaps [%d, %d)", start, stop, c.lastStart, c.lastStop)
		}
	}
	c.lastStart = start
	c.lastStop = stop
	c.started = true
	return nil
}

func (c *orderCheck) finish() error {
	if c.built {
		return errors.Wrap(ErrAlreadyBuilt, "Build called twice")
	}
	c.built = true
	return nil
}

// BuildFrom feeds intervals to a new builder and returns the built view.
func BuildFrom(opts BuilderOpts, intervals []Interval) (View, error) {
	b, err := NewBuilder(opts)
	if err != nil {
		return nil, err
	}
	for _, iv := range intervals {
		if err := b.Add(iv.Start, iv.Stop, iv.Score); err != nil {
			return nil, err
		}
	}
	return b.Build()
}
