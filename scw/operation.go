// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scw

import (
	"fmt"
	"strings"
)

// Operation is a score-combination rule.  It is used both to combine the
// scores of overlapping windows (pileup flattening, list merging) and to
// aggregate windows into fixed-size bins.
type Operation int

const (
	// Sum adds scores.  When binning, each score is weighted by the number of
	// bases it covers in the bin.
	Sum Operation = iota
	// Average is the arithmetic mean.  When flattening, it's the unweighted
	// mean of the overlapping scores.  When binning, it's the length-weighted
	// mean over the whole bin, with uncovered bases counted as 0 (i.e. the
	// denominator is the bin length, not the covered length).
	Average
	// Maximum keeps the largest nonzero score.
	Maximum
	// Minimum keeps the smallest nonzero score.
	Minimum
)

var operationNames = [...]string{"sum", "average", "maximum", "minimum"}

func (op Operation) String() string {
	if op < 0 || int(op) >= len(operationNames) {
		return fmt.Sprintf("Operation(%d)", int(op))
	}
	return operationNames[op]
}

// ParseOperation converts "sum", "average"/"avg"/"mean", "maximum"/"max" or
// "minimum"/"min" (case-insensitive) to an Operation.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(s) {
	case "sum":
		return Sum, nil
	case "average", "avg", "mean":
		return Average, nil
	case "maximum", "max":
		return Maximum, nil
	case "minimum", "min":
		return Minimum, nil
	}
	return Sum, fmt.Errorf("scw.ParseOperation: unrecognized operation %q", s)
}

// Accumulator folds a sequence of unweighted scores with an Operation.
type Accumulator struct {
	op Operation
	n  int
	v  float64
}

// NewAccumulator returns an empty Accumulator for op.
func (op Operation) NewAccumulator() Accumulator {
	return Accumulator{op: op}
}

// Add folds x into the accumulator.
func (a *Accumulator) Add(x float64) {
	switch a.op {
	case Sum, Average:
		a.v += x
	case Maximum:
		if a.n == 0 || x > a.v {
			a.v = x
		}
	case Minimum:
		if a.n == 0 || x < a.v {
			a.v = x
		}
	}
	a.n++
}

// N returns the number of values added since the last Reset.
func (a *Accumulator) N() int {
	return a.n
}

// Value returns the combined score, or 0 if nothing was added.
func (a *Accumulator) Value() float64 {
	if a.n == 0 {
		return 0
	}
	if a.op == Average {
		return a.v / float64(a.n)
	}
	return a.v
}

// Reset empties the accumulator.
func (a *Accumulator) Reset() {
	a.n = 0
	a.v = 0
}

// binAccumulator aggregates windows into one fixed-size bin.  Weighted sums
// are kept in float64 regardless of the output precision.
type binAccumulator struct {
	v      float64
	filled bool
}

func (b *binAccumulator) add(op Operation, score float64, overlap int64) {
	switch op {
	case Sum, Average:
		b.v += score * float64(overlap)
	case Maximum:
		if !b.filled || score > b.v {
			b.v = score
		}
	case Minimum:
		if !b.filled || score < b.v {
			b.v = score
		}
	}
	b.filled = true
}

func (b *binAccumulator) value(op Operation, binLen int64) float64 {
	if !b.filled {
		return 0
	}
	if op == Average {
		return b.v / float64(binLen)
	}
	return b.v
}
