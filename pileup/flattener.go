// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pileup

import (
	"github.com/biogo/store/llrb"
	"github.com/grailbio/scw/interval"
	"github.com/grailbio/scw/scw"
	"github.com/pkg/errors"
)

// PosType is the integer type used to represent genomic positions.
type PosType = interval.PosType

// openInterval is an element of the active set.  seq breaks ties between
// intervals with the same stop, so that the tree never treats two of them as
// equal.
type openInterval struct {
	stop  PosType
	seq   uint64
	score float32
}

// Compare implements llrb.Comparable.
func (o *openInterval) Compare(c llrb.Comparable) int {
	o2 := c.(*openInterval)
	if o.stop != o2.stop {
		if o.stop < o2.stop {
			return -1
		}
		return 1
	}
	if o.seq < o2.seq {
		return -1
	}
	if o.seq > o2.seq {
		return 1
	}
	return 0
}

// Flattener converts a start-sorted, possibly overlapping stream of scored
// intervals on one chromosome into a sorted, non-overlapping one.  Where
// inputs overlap, the output score is the op-combination of every input
// covering the segment.
//
// The active set (inputs whose stop hasn't been passed yet) is kept ordered by
// stop, so each boundary of the pileup is found with one Min call.  Output is
// produced eagerly: everything left of the most recent input start is final.
//
// Zero-score inputs are ordering-checked but otherwise treated as absent.
// Adjacent output segments with equal scores are not merged; the builder the
// output is fed to does that.
//
// A Flattener is not safe for concurrent use.  After Flush, it can be reused
// for the next chromosome.
type Flattener struct {
	op       scw.Operation
	active   llrb.Tree
	seq      uint64
	boundary PosType
	// lastStart is the start of the most recently added interval.
	lastStart PosType
	started   bool
	acc       scw.Accumulator
	out       []interval.Interval
}

// NewFlattener returns an empty Flattener combining overlaps with op.
func NewFlattener(op scw.Operation) *Flattener {
	return &Flattener{op: op, acc: op.NewAccumulator()}
}

// Op returns the score-combination rule.
func (f *Flattener) Op() scw.Operation { return f.op }

// Add feeds [start, stop) to the flattener, and returns the output segments
// that became final.  The returned slice is owned by the Flattener and is only
// valid until the next Add or Flush call.
//
// Inputs must be sorted by start; violations return a wrapped
// scw.ErrOutOfOrder and leave the flattener unchanged.
func (f *Flattener) Add(start, stop PosType, score float32) ([]interval.Interval, error) {
	if start < 0 || start >= stop {
		return nil, errors.Wrapf(scw.ErrInvalidInterval, "pileup.Flattener: [%d, %d)", start, stop)
	}
	if f.started && start < f.lastStart {
		return nil, errors.Wrapf(scw.ErrOutOfOrder, "pileup.Flattener: [%d, %d) added after an interval starting at %d", start, stop, f.lastStart)
	}
	f.started = true
	f.lastStart = start
	f.out = f.out[:0]
	f.advance(start)
	if score == 0 {
		return f.out, nil
	}
	if f.active.Len() == 0 {
		f.boundary = start
	}
	f.seq++
	f.active.Insert(&openInterval{stop: stop, seq: f.seq, score: score})
	return f.out, nil
}

// Flush emits every remaining segment, and resets the flattener.  It must be
// called once at the end of each chromosome.  The returned slice has the same
// lifetime as Add's.
func (f *Flattener) Flush() []interval.Interval {
	f.out = f.out[:0]
	f.advance(PosTypeMax)
	f.started = false
	f.lastStart = 0
	f.boundary = 0
	return f.out
}

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = interval.PosTypeMax

// advance emits all output to the left of pos.
func (f *Flattener) advance(pos PosType) {
	for f.active.Len() > 0 {
		next := f.active.Min().(*openInterval).stop
		if next > pos {
			break
		}
		f.emit(next)
		for f.active.Len() > 0 && f.active.Min().(*openInterval).stop == next {
			f.active.DeleteMin()
		}
	}
	if f.active.Len() > 0 && f.boundary < pos {
		f.emit(pos)
	}
}

// emit appends [f.boundary, stop) with the combined score of the active set.
func (f *Flattener) emit(stop PosType) {
	if stop <= f.boundary {
		return
	}
	f.acc.Reset()
	f.active.Do(func(c llrb.Comparable) bool {
		f.acc.Add(float64(c.(*openInterval).score))
		return false
	})
	f.out = append(f.out, interval.Interval{Start: f.boundary, Stop: stop, Score: float32(f.acc.Value())})
	f.boundary = stop
}

// Flatten feeds the start-sorted intervals through a new Flattener, and adds
// its output to b.  b is not built.
func Flatten(op scw.Operation, intervals []interval.Interval, b scw.Builder) error {
	f := NewFlattener(op)
	for _, iv := range intervals {
		out, err := f.Add(iv.Start, iv.Stop, iv.Score)
		if err != nil {
			return err
		}
		if err := addAll(b, out); err != nil {
			return err
		}
	}
	return addAll(b, f.Flush())
}

func addAll(b scw.Builder, out []interval.Interval) error {
	for _, iv := range out {
		if err := b.Add(iv.Start, iv.Stop, iv.Score); err != nil {
			return err
		}
	}
	return nil
}
