// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scwlist

import (
	"context"
	"runtime"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"go.uber.org/atomic"
)

// Stopper is a cooperative stop flag shared by all units of one or more bulk
// operations.  Units poll it between chromosomes and inside their scan loops.
// A nil *Stopper never stops.
type Stopper struct {
	stopped atomic.Bool
}

// NewStopper returns a Stopper that hasn't been stopped.
func NewStopper() *Stopper { return &Stopper{} }

// Stop requests every unit polling s to abandon its work.
func (s *Stopper) Stop() { s.stopped.Store(true) }

// Stopped returns whether Stop has been called.
func (s *Stopper) Stopped() bool { return s != nil && s.stopped.Load() }

// Opts controls how bulk operations dispatch per-chromosome units.
type Opts struct {
	// Parallelism bounds the number of chromosomes processed concurrently.
	// <= 0 means runtime.NumCPU().
	Parallelism int
	// Selected flags the chromosomes to process, by index.  nil selects every
	// chromosome; indices past its end are unselected.
	Selected []bool
	// Stop, if non-nil, is polled by every unit.
	Stop *Stopper
	// Progress, if non-nil, is called after each unit completes successfully.
	// It may be called concurrently from several goroutines.
	Progress func(chr int)
}

// DefaultOpts processes every chromosome on all CPUs.
var DefaultOpts = Opts{}

func (o Opts) selected(chr int) bool {
	return o.Selected == nil || (chr < len(o.Selected) && o.Selected[chr])
}

// stopCheckInterval is the number of windows a scan loop processes between
// stop-flag polls.
const stopCheckInterval = 1 << 12

// interrupted returns whether units should stop.
func (o Opts) interrupted(ctx context.Context) bool {
	return o.Stop.Stopped() || ctx.Err() != nil
}

// ForEach runs fn once for every selected chromosome index in [0, n) for which
// include returns true (include == nil includes all), with bounded
// parallelism.  fn must be safe for concurrent calls on distinct
// chromosomes.  It returns the first error of any unit.  If a stop was
// requested or ctx was canceled before every unit finished, the result is
// ErrInterrupted, even when all started units succeeded.
func (o Opts) ForEach(ctx context.Context, n int, include func(chr int) bool, fn func(chr int) error) error {
	chrs := make([]int, 0, n)
	for chr := 0; chr < n; chr++ {
		if o.selected(chr) && (include == nil || include(chr)) {
			chrs = append(chrs, chr)
		}
	}
	if len(chrs) == 0 {
		return nil
	}
	parallelism := o.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if parallelism > len(chrs) {
		parallelism = len(chrs)
	}
	log.Debug.Printf("scwlist: dispatching %d chromosomes over %d workers", len(chrs), parallelism)
	err := traverse.Each(parallelism, func(jobIdx int) error {
		for k := jobIdx; k < len(chrs); k += parallelism {
			if o.interrupted(ctx) {
				return ErrInterrupted
			}
			if err := fn(chrs[k]); err != nil {
				return err
			}
			if o.Progress != nil {
				o.Progress(chrs[k])
			}
		}
		return nil
	})
	if err == nil && o.interrupted(ctx) {
		err = ErrInterrupted
	}
	return err
}
