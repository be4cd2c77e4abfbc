// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package display

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/grailbio/base/log"
	"github.com/grailbio/scw/binlist"
	"github.com/grailbio/scw/interval"
	"github.com/grailbio/scw/scw"
	"github.com/grailbio/scw/scwlist"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/atomic"
)

// Opts configures a Scaler.
type Opts struct {
	// CacheSize is the number of scaled views kept around, for quick
	// returns to recently displayed chromosomes and zoom levels.
	CacheSize int
	// Compact keeps reduced views snappy-compressed in the cache, and expands
	// them on each hit.  It trades CPU for memory on large genomes.
	Compact bool
}

// DefaultOpts is the default Scaler configuration.
var DefaultOpts = Opts{CacheSize: 64}

// cacheKey identifies a scaled view.  xRatio is 0 for views served unreduced,
// so all zoom levels mapping to the same resolution share an entry.
type cacheKey struct {
	chr    int
	level  int
	xRatio float64
}

// cacheEntry holds a scaled view, or its compacted form.
type cacheEntry struct {
	view      scw.View
	compacted *scw.Compacted
}

// published is the result of the latest completed request.
type published struct {
	chr    int
	xRatio float64
	view   scw.View
	err    error
}

// Scaler serves displayable views of one list.  Scale is a synchronous
// lookup; Update/Visible/Wait implement the background "visible chromosome"
// slot.  A Scaler is safe for concurrent use.
type Scaler struct {
	bins  *binlist.BinList
	list  *scwlist.List
	opts  Opts
	cache *lru.Cache[cacheKey, cacheEntry]

	// gen is the token of the latest Update request.  A background unit only
	// publishes if its token is still current.
	gen atomic.Uint64

	mu sync.Mutex
	// requested is the (chr, xRatio) of the latest Update.
	requested    published
	hasRequested bool
	cur          *published
	// ready is closed once the latest request is published.
	ready chan struct{}
}

// NewScaler returns a Scaler over a BinList, using its pyramid levels.
func NewScaler(bins *binlist.BinList, opts Opts) (*Scaler, error) {
	s, err := newScaler(bins.List(), opts)
	if err != nil {
		return nil, err
	}
	s.bins = bins
	return s, nil
}

// NewListScaler returns a Scaler over a list without precomputed levels.
func NewListScaler(l *scwlist.List, opts Opts) (*Scaler, error) {
	return newScaler(l, opts)
}

func newScaler(l *scwlist.List, opts Opts) (*Scaler, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultOpts.CacheSize
	}
	cache, err := lru.New[cacheKey, cacheEntry](opts.CacheSize)
	if err != nil {
		return nil, err
	}
	ready := make(chan struct{})
	close(ready)
	return &Scaler{list: l, opts: opts, cache: cache, ready: ready}, nil
}

func (s *Scaler) cacheGet(key cacheKey) (scw.View, bool) {
	e, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	if e.compacted == nil {
		return e.view, true
	}
	v, err := e.compacted.Expand()
	if err != nil {
		log.Error.Printf("display: dropping cached chromosome %d level %d: %v", key.chr, key.level, err)
		s.cache.Remove(key)
		return nil, false
	}
	return v, true
}

// cacheAdd stores v.  Only reduced views are compacted; the others are the
// list's own views, which stay resident anyway.
func (s *Scaler) cacheAdd(key cacheKey, v scw.View, reduced bool) {
	if s.opts.Compact && reduced && v != nil {
		c, err := scw.Compact(v)
		if err == nil {
			log.Debug.Printf("display: compacted %d windows to %d bytes", c.Len(), c.Size())
			s.cache.Add(key, cacheEntry{compacted: c})
			return
		}
		log.Error.Printf("display: compacting chromosome %d: %v", key.chr, err)
	}
	s.cache.Add(key, cacheEntry{view: v})
}

// selectLevel returns the resolution to serve at xRatio, and whether it
// must be reduced further.
func (s *Scaler) selectLevel(xRatio float64) (level int, reduced bool) {
	if s.bins == nil {
		return 0, xRatio < 1
	}
	for level = 0; level < s.bins.NumLevels(); level++ {
		if xRatio*float64(s.bins.LevelBinSize(level)) >= 1 {
			return level, false
		}
	}
	return s.bins.NumLevels() - 1, true
}

// Scale returns the view of chromosome #chr to draw at xRatio pixels per
// base.  The result is one of the list's own views when those are coarse
// enough, and otherwise a reduced Generic view.  It's nil if the chromosome
// has no data.
func (s *Scaler) Scale(ctx context.Context, chr int, xRatio float64) (scw.View, error) {
	return s.scale(ctx, chr, xRatio, nil)
}

func (s *Scaler) scale(ctx context.Context, chr int, xRatio float64, stale func() bool) (scw.View, error) {
	if !(xRatio > 0) || math.IsInf(xRatio, 0) {
		return nil, fmt.Errorf("display.Scale: invalid ratio %v", xRatio)
	}
	if err := s.list.Genome().CheckIndex(chr); err != nil {
		return nil, err
	}
	level, reduced := s.selectLevel(xRatio)
	key := cacheKey{chr: chr, level: level}
	if reduced {
		key.xRatio = xRatio
	}
	if v, ok := s.cacheGet(key); ok {
		return v, nil
	}
	l := s.list
	if level > 0 {
		var err error
		if l, err = s.bins.Level(ctx, level); err != nil {
			return nil, err
		}
	}
	v := l.View(chr)
	if v != nil && reduced {
		var err error
		if v, err = reduce(v, xRatio, stale); err != nil {
			return nil, err
		}
		log.Debug.Printf("display: reduced chromosome %d level %d to %d windows at %g pixels/base", chr, level, v.Len(), xRatio)
	}
	s.cacheAdd(key, v, reduced)
	return v, nil
}

// Update requests scaling of chromosome #chr at xRatio in the background.
// Repeating the latest request is a no-op.  A request made before the
// previous one completed supersedes it: the older computation is abandoned
// and never published.
func (s *Scaler) Update(ctx context.Context, chr int, xRatio float64) {
	s.mu.Lock()
	if s.hasRequested && s.requested.chr == chr && s.requested.xRatio == xRatio {
		s.mu.Unlock()
		return
	}
	s.requested = published{chr: chr, xRatio: xRatio}
	s.hasRequested = true
	select {
	case <-s.ready:
		s.ready = make(chan struct{})
	default:
		// Still pending; the new request completes the same wait.
	}
	gen := s.gen.Inc()
	s.mu.Unlock()

	stale := func() bool { return s.gen.Load() != gen }
	go func() {
		v, err := s.scale(ctx, chr, xRatio, stale)
		s.mu.Lock()
		defer s.mu.Unlock()
		if stale() {
			log.Debug.Printf("display: dropping superseded scaling of chromosome %d at %g", chr, xRatio)
			return
		}
		s.cur = &published{chr: chr, xRatio: xRatio, view: v, err: err}
		close(s.ready)
	}()
}

// Wait blocks until the latest Update is published, and returns its error.
func (s *Scaler) Wait(ctx context.Context) error {
	for {
		s.mu.Lock()
		ready := s.ready
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ready:
		}
		s.mu.Lock()
		cur, done := s.cur, s.ready == ready
		s.mu.Unlock()
		if !done {
			// A newer request came in meanwhile.
			continue
		}
		if cur == nil {
			return nil
		}
		return cur.err
	}
}

// Visible returns the published intervals intersecting [start, stop), along
// with the chromosome and ratio they were scaled for.  ok is false if nothing
// was published yet or the last scaling failed.
func (s *Scaler) Visible(start, stop interval.PosType) (chr int, xRatio float64, intervals []interval.Interval, ok bool) {
	s.mu.Lock()
	cur := s.cur
	s.mu.Unlock()
	if cur == nil || cur.err != nil {
		return 0, 0, nil, false
	}
	return cur.chr, cur.xRatio, scw.SubRange(cur.view, start, stop), true
}
