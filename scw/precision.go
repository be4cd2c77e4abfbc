// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scw

import (
	"fmt"

	"github.com/x448/float16"
)

// Precision is the storage width of fixed-bin scores.  Rounding is always
// IEEE round-to-nearest-even: float64 values are converted to float32, and
// Float16 storage then converts that float32 to binary16.
type Precision uint8

const (
	// Float32 is the default.
	Float32 Precision = iota
	// Float16 halves memory use; values beyond ±65504 become infinite.
	Float16
	// Float64 keeps accumulated values exactly.
	Float64
)

// ParsePrecision converts "16", "32" or "64" to a Precision.
func ParsePrecision(s string) (Precision, error) {
	switch s {
	case "16":
		return Float16, nil
	case "32":
		return Float32, nil
	case "64":
		return Float64, nil
	}
	return Float32, fmt.Errorf("scw.ParsePrecision: unsupported precision %q (want 16, 32 or 64)", s)
}

// Bytes returns the number of bytes used per stored score.
func (p Precision) Bytes() int {
	switch p {
	case Float16:
		return 2
	case Float64:
		return 8
	}
	return 4
}

func (p Precision) String() string {
	return fmt.Sprintf("float%d", p.Bytes()*8)
}

// Round returns x as it would be stored at precision p.
func (p Precision) Round(x float64) float64 {
	switch p {
	case Float16:
		return float64(float16.Fromfloat32(float32(x)).Float32())
	case Float64:
		return x
	}
	return float64(float32(x))
}

// scoreArray is the flat score storage of a FixedBinView.
type scoreArray interface {
	Len() int
	Get(i int) float64
	Precision() Precision
}

type float16Scores []float16.Float16

func (s float16Scores) Len() int             { return len(s) }
func (s float16Scores) Get(i int) float64    { return float64(s[i].Float32()) }
func (s float16Scores) Precision() Precision { return Float16 }

type float32Scores []float32

func (s float32Scores) Len() int             { return len(s) }
func (s float32Scores) Get(i int) float64    { return float64(s[i]) }
func (s float32Scores) Precision() Precision { return Float32 }

type float64Scores []float64

func (s float64Scores) Len() int             { return len(s) }
func (s float64Scores) Get(i int) float64    { return s[i] }
func (s float64Scores) Precision() Precision { return Float64 }

// newScoreArray stores values at precision p.  For Float64 the slice is
// adopted, not copied.
func newScoreArray(p Precision, values []float64) scoreArray {
	switch p {
	case Float16:
		s := make(float16Scores, len(values))
		for i, x := range values {
			s[i] = float16.Fromfloat32(float32(x))
		}
		return s
	case Float64:
		return float64Scores(values)
	}
	s := make(float32Scores, len(values))
	for i, x := range values {
		s[i] = float32(x)
	}
	return s
}
