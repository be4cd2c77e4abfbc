// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scwlist

import (
	"context"
	"fmt"
	"math"

	"github.com/grailbio/scw/scw"
)

// Transform returns a new list whose nonzero scores on the selected
// chromosomes are replaced by f(score).  Zero windows are absent and stay
// untouched; windows for which f returns 0 or a non-finite value become
// absent.  Unselected chromosomes share their views with l.
//
// Mask lists can't be transformed, since their scores are fixed at 1.
func Transform(ctx context.Context, l *List, opts Opts, f func(float64) float64) (*List, error) {
	if l.encoding == scw.Mask {
		return nil, fmt.Errorf("scwlist.Transform: mask lists have no scores to transform")
	}
	g := func(x float64) float64 {
		y := f(x)
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return 0
		}
		return y
	}
	views := make([]scw.View, len(l.views))
	copy(views, l.views)
	err := opts.ForEach(ctx, l.Len(), l.hasData, func(chr int) error {
		v, err := transformView(ctx, opts, l.views[chr], g)
		views[chr] = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return New(l.genome, l.encoding, views)
}

func transformView(ctx context.Context, opts Opts, v scw.View, f func(float64) float64) (scw.View, error) {
	if fv, ok := v.(*scw.FixedBinView); ok {
		return fv.MapScores(f), nil
	}
	b, err := scw.NewBuilder(scw.BuilderOpts{Encoding: v.Encoding()})
	if err != nil {
		return nil, err
	}
	n := v.Len()
	for i := 0; i < n; i++ {
		if i%stopCheckInterval == stopCheckInterval-1 && opts.interrupted(ctx) {
			return nil, ErrInterrupted
		}
		iv := v.At(i)
		if iv.Score == 0 {
			continue
		}
		if err := b.Add(iv.Start, iv.Stop, float32(f(float64(iv.Score)))); err != nil {
			return nil, err
		}
	}
	result, err := b.Build()
	if err != nil || scw.IsEmpty(result) {
		return nil, err
	}
	return result, nil
}

// Add adds c to every score.
func Add(ctx context.Context, l *List, opts Opts, c float64) (*List, error) {
	return Transform(ctx, l, opts, func(x float64) float64 { return x + c })
}

// Subtract subtracts c from every score.
func Subtract(ctx context.Context, l *List, opts Opts, c float64) (*List, error) {
	return Add(ctx, l, opts, -c)
}

// Multiply multiplies every score by c.
func Multiply(ctx context.Context, l *List, opts Opts, c float64) (*List, error) {
	return Transform(ctx, l, opts, func(x float64) float64 { return x * c })
}

// Divide divides every score by c, which must be nonzero.
func Divide(ctx context.Context, l *List, opts Opts, c float64) (*List, error) {
	if c == 0 {
		return nil, fmt.Errorf("scwlist.Divide: division by zero")
	}
	return Transform(ctx, l, opts, func(x float64) float64 { return x / c })
}

// Log replaces every score by its logarithm in the given base.  Windows with
// nonpositive scores become absent.
func Log(ctx context.Context, l *List, opts Opts, base float64) (*List, error) {
	if base <= 0 || base == 1 {
		return nil, fmt.Errorf("scwlist.Log: invalid base %v", base)
	}
	lb := math.Log(base)
	return Transform(ctx, l, opts, func(x float64) float64 {
		if x <= 0 {
			return 0
		}
		return math.Log(x) / lb
	})
}

// Threshold drops every window whose score is below min.
func Threshold(ctx context.Context, l *List, opts Opts, min float64) (*List, error) {
	return Transform(ctx, l, opts, func(x float64) float64 {
		if x < min {
			return 0
		}
		return x
	})
}

// Clip clamps every score to [lo, hi].
func Clip(ctx context.Context, l *List, opts Opts, lo, hi float64) (*List, error) {
	if lo > hi {
		return nil, fmt.Errorf("scwlist.Clip: empty range [%v, %v]", lo, hi)
	}
	return Transform(ctx, l, opts, func(x float64) float64 { return math.Max(lo, math.Min(hi, x)) })
}

// IndexToRange linearly rescales the scores of the selected chromosomes so
// that their minimum maps to lo and their maximum to hi.  If all scores are
// equal, they map to (lo+hi)/2.  A list without data is returned unchanged.
func IndexToRange(ctx context.Context, l *List, opts Opts, lo, hi float64) (*List, error) {
	s, err := Summarize(ctx, l, opts)
	if err != nil {
		return nil, err
	}
	if s.Empty() {
		return l, nil
	}
	if s.Max == s.Min {
		mid := (lo + hi) / 2
		return Transform(ctx, l, opts, func(float64) float64 { return mid })
	}
	scale := (hi - lo) / (s.Max - s.Min)
	min := s.Min
	return Transform(ctx, l, opts, func(x float64) float64 { return lo + (x-min)*scale })
}
