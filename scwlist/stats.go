// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scwlist

import (
	"context"
	"math"

	"github.com/grailbio/scw/scw"
	"github.com/pkg/errors"
)

// ErrInterrupted is returned when a bulk operation observed a stop request or
// a canceled context before all its units completed.  No partial result is
// ever returned alongside it.
var ErrInterrupted = errors.New("operation interrupted")

// Summary aggregates the nonzero windows of the selected chromosomes.  Zero
// score means "no data", so zero windows (e.g. dense fillers or empty fixed
// bins) are not counted.
type Summary struct {
	// Windows is the number of nonzero windows.
	Windows int64
	// Bases is the total length of the nonzero windows.
	Bases int64
	// Min and Max are the extreme scores.  Only meaningful when Windows > 0.
	Min, Max float64
	// SumScores is the unweighted score sum.
	SumScores float64
	// SumArea is the length-weighted score sum.
	SumArea float64
	// SumSquaredArea is the length-weighted sum of squared scores.
	SumSquaredArea float64
}

// Empty returns whether no window contributed, in which case every statistic
// is absent.
func (s Summary) Empty() bool { return s.Windows == 0 }

// Merge folds o into s.
func (s *Summary) Merge(o Summary) {
	if o.Windows == 0 {
		return
	}
	if s.Windows == 0 {
		*s = o
		return
	}
	s.Min = math.Min(s.Min, o.Min)
	s.Max = math.Max(s.Max, o.Max)
	s.Windows += o.Windows
	s.Bases += o.Bases
	s.SumScores += o.SumScores
	s.SumArea += o.SumArea
	s.SumSquaredArea += o.SumSquaredArea
}

func (s *Summary) add(score float64, length int64) {
	if s.Windows == 0 || score < s.Min {
		s.Min = score
	}
	if s.Windows == 0 || score > s.Max {
		s.Max = score
	}
	s.Windows++
	s.Bases += length
	s.SumScores += score
	area := score * float64(length)
	s.SumArea += area
	s.SumSquaredArea += area * score
}

// Average returns the length-weighted mean score over the covered bases.
func (s Summary) Average() (float64, bool) {
	if s.Empty() {
		return 0, false
	}
	return s.SumArea / float64(s.Bases), true
}

// StdDev returns the length-weighted population standard deviation of the
// scores over the covered bases.
func (s Summary) StdDev() (float64, bool) {
	avg, ok := s.Average()
	if !ok {
		return 0, false
	}
	v := s.SumSquaredArea/float64(s.Bases) - avg*avg
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v), true
}

// summarizeView scans one view.  It returns ErrInterrupted if a stop was
// observed mid-scan.
func summarizeView(ctx context.Context, opts Opts, v scw.View) (Summary, error) {
	var s Summary
	n := v.Len()
	fv, isFixed := v.(*scw.FixedBinView)
	for i := 0; i < n; i++ {
		if i%stopCheckInterval == stopCheckInterval-1 && opts.interrupted(ctx) {
			return Summary{}, ErrInterrupted
		}
		iv := v.At(i)
		score := float64(iv.Score)
		if isFixed {
			score = fv.Score(i)
		}
		if score == 0 {
			continue
		}
		s.add(score, int64(iv.Len()))
	}
	return s, nil
}

// Summarize aggregates the nonzero windows of the selected chromosomes.
// Per-chromosome summaries are combined in chromosome order.  Chromosomes
// without data contribute nothing; if nothing contributes, the summary is
// Empty.
func Summarize(ctx context.Context, l *List, opts Opts) (Summary, error) {
	perChrom := make([]Summary, l.Len())
	err := opts.ForEach(ctx, l.Len(), l.hasData, func(chr int) error {
		s, err := summarizeView(ctx, opts, l.views[chr])
		perChrom[chr] = s
		return err
	})
	if err != nil {
		return Summary{}, err
	}
	var total Summary
	for _, s := range perChrom {
		total.Merge(s)
	}
	return total, nil
}

// Statistic names a scalar bulk reduction.
type Statistic int

const (
	// Min is the smallest nonzero score.
	Min Statistic = iota
	// Max is the largest nonzero score.
	Max
	// SumScores is the unweighted sum of nonzero scores.
	SumScores
	// SumArea is the length-weighted sum of scores.
	SumArea
	// Average is the length-weighted mean over covered bases.
	Average
	// StdDev is the length-weighted standard deviation over covered bases.
	StdDev
	// CountWindows is the number of nonzero windows.
	CountWindows
	// CountBases is the number of bases under nonzero windows.
	CountBases
)

var statisticNames = [...]string{"min", "max", "sum", "area", "average", "stddev", "windows", "bases"}

func (st Statistic) String() string {
	if st < 0 || int(st) >= len(statisticNames) {
		return "unknown"
	}
	return statisticNames[st]
}

// ParseStatistic converts a Statistic name back.
func ParseStatistic(s string) (Statistic, error) {
	for i, name := range statisticNames {
		if s == name {
			return Statistic(i), nil
		}
	}
	return Min, errors.Errorf("scwlist.ParseStatistic: unknown statistic %q", s)
}

// Value extracts one statistic.  ok is false when the statistic is absent.
func (s Summary) Value(st Statistic) (v float64, ok bool) {
	if s.Empty() {
		return 0, false
	}
	switch st {
	case Min:
		return s.Min, true
	case Max:
		return s.Max, true
	case SumScores:
		return s.SumScores, true
	case SumArea:
		return s.SumArea, true
	case Average:
		return s.Average()
	case StdDev:
		return s.StdDev()
	case CountWindows:
		return float64(s.Windows), true
	case CountBases:
		return float64(s.Bases), true
	}
	return 0, false
}

// Reduce computes one statistic over the selected chromosomes.  ok is false
// when every selected chromosome is empty or none is selected.  On
// interruption the result is absent and the error is ErrInterrupted.
func Reduce(ctx context.Context, l *List, opts Opts, st Statistic) (v float64, ok bool, err error) {
	s, err := Summarize(ctx, l, opts)
	if err != nil {
		return 0, false, err
	}
	v, ok = s.Value(st)
	return v, ok, nil
}
