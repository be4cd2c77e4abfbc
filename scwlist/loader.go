// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scwlist

import (
	"context"
	"fmt"

	"github.com/grailbio/base/log"
	"github.com/grailbio/scw/genome"
	"github.com/grailbio/scw/pileup"
	"github.com/grailbio/scw/scw"
	"github.com/pkg/errors"
)

// BuildOpts fixes the shape of a list before construction begins.
type BuildOpts struct {
	Encoding scw.Encoding
	// Op combines overlapping input scores.  For FixedBin it also aggregates
	// windows into bins.
	Op scw.Operation
	// BinSize and Precision are only used by FixedBin.
	BinSize   PosType
	Precision scw.Precision
}

// DefaultBuildOpts builds generic views, summing overlaps.
var DefaultBuildOpts = BuildOpts{Encoding: scw.Generic, Op: scw.Sum}

func (o BuildOpts) newBuilder(c genome.Chromosome) (scw.Builder, error) {
	return scw.NewBuilder(scw.BuilderOpts{
		Encoding:    o.Encoding,
		ChromLength: c.Length,
		BinSize:     o.BinSize,
		Op:          o.Op,
		Precision:   o.Precision,
	})
}

// chromBuild flattens and builds one chromosome.
type chromBuild struct {
	chr       int
	length    PosType
	flattener *pileup.Flattener
	builder   scw.Builder
}

func (o BuildOpts) newChromBuild(g *genome.Genome, chr int) (*chromBuild, error) {
	b, err := o.newBuilder(g.Chromosome(chr))
	if err != nil {
		return nil, err
	}
	return &chromBuild{chr: chr, length: g.Chromosome(chr).Length, flattener: pileup.NewFlattener(o.Op), builder: b}, nil
}

func (c *chromBuild) add(start, stop PosType, score float32) error {
	if stop > c.length {
		return errors.Wrapf(scw.ErrInvalidInterval, "[%d, %d) past chromosome end %d", start, stop, c.length)
	}
	out, err := c.flattener.Add(start, stop, score)
	if err != nil {
		return err
	}
	for _, iv := range out {
		if err := c.builder.Add(iv.Start, iv.Stop, iv.Score); err != nil {
			return err
		}
	}
	return nil
}

func (c *chromBuild) finish() (scw.View, error) {
	for _, iv := range c.flattener.Flush() {
		if err := c.builder.Add(iv.Start, iv.Stop, iv.Score); err != nil {
			return nil, err
		}
	}
	v, err := c.builder.Build()
	if err != nil {
		return nil, err
	}
	if scw.IsEmpty(v) {
		return nil, nil
	}
	return v, nil
}

// Loader builds a List from one stream of (chromosome, start, stop, score)
// records.  Records of one chromosome must be contiguous and sorted by start;
// overlaps are flattened with BuildOpts.Op.  Records on chromosomes unknown
// to the genome are skipped and counted.
//
// The first error is sticky: every later call returns it, and no List is
// produced.
//
// Loader is not safe for concurrent use.
type Loader struct {
	genome  *genome.Genome
	opts    BuildOpts
	views   []scw.View
	seen    []bool
	cur     *chromBuild
	curName string
	// skipping is set while records of an unknown chromosome are streaming.
	skipping bool
	skipped  map[string]int
	err      error
}

// NewLoader returns a Loader for lists over g.
func NewLoader(g *genome.Genome, opts BuildOpts) (*Loader, error) {
	if _, err := opts.newBuilder(genome.Chromosome{Name: "check", Length: 1}); err != nil {
		return nil, err
	}
	return &Loader{
		genome:  g,
		opts:    opts,
		views:   make([]scw.View, g.Len()),
		seen:    make([]bool, g.Len()),
		skipped: map[string]int{},
	}, nil
}

// Add feeds one record.
func (l *Loader) Add(chrName string, start, stop PosType, score float32) error {
	if l.err != nil {
		return l.err
	}
	if chrName != l.curName || (l.cur == nil && !l.skipping) {
		if err := l.switchTo(chrName); err != nil {
			l.err = err
			return err
		}
	}
	if l.skipping {
		l.skipped[chrName]++
		return nil
	}
	if err := l.cur.add(start, stop, score); err != nil {
		l.err = errors.Wrapf(err, "chromosome %s", chrName)
	}
	return l.err
}

func (l *Loader) switchTo(chrName string) error {
	if err := l.finishChrom(); err != nil {
		return err
	}
	l.curName = chrName
	chr, err := l.genome.Index(chrName)
	if errors.Cause(err) == genome.ErrUnknownChromosome {
		l.skipping = true
		return nil
	}
	if err != nil {
		return err
	}
	l.skipping = false
	if l.seen[chr] {
		return fmt.Errorf("scwlist.Loader: records of chromosome %s are not contiguous", chrName)
	}
	l.seen[chr] = true
	l.cur, err = l.opts.newChromBuild(l.genome, chr)
	return err
}

func (l *Loader) finishChrom() error {
	if l.cur == nil {
		return nil
	}
	v, err := l.cur.finish()
	if err != nil {
		return errors.Wrapf(err, "chromosome %s", l.curName)
	}
	l.views[l.cur.chr] = v
	log.Debug.Printf("scwlist.Loader: built %s", l.curName)
	l.cur = nil
	return nil
}

// Finish completes the last chromosome and returns the list.  The Loader
// can't be used afterwards.
func (l *Loader) Finish() (*List, error) {
	if l.err != nil {
		return nil, l.err
	}
	if l.err = l.finishChrom(); l.err != nil {
		return nil, l.err
	}
	l.err = errors.Wrap(scw.ErrAlreadyBuilt, "scwlist.Loader")
	for name, n := range l.skipped {
		log.Printf("scwlist.Loader: skipped %d records on unknown chromosome %s", n, name)
	}
	return New(l.genome, l.opts.Encoding, l.views)
}

// Skipped returns the number of records skipped per unknown chromosome name.
func (l *Loader) Skipped() map[string]int { return l.skipped }

// EmitFunc feeds one start-sorted record to a chromosome under construction.
type EmitFunc func(start, stop PosType, score float32) error

// Generate builds a List by running produce once per selected chromosome, in
// parallel.  produce streams the chromosome's records through emit, sorted by
// start.  Unselected chromosomes have no data.  A construction error on one
// chromosome aborts the whole list.
func Generate(ctx context.Context, g *genome.Genome, bopts BuildOpts, opts Opts, produce func(chr int, emit EmitFunc) error) (*List, error) {
	views := make([]scw.View, g.Len())
	err := opts.ForEach(ctx, g.Len(), nil, func(chr int) error {
		c, err := bopts.newChromBuild(g, chr)
		if err != nil {
			return err
		}
		if err := produce(chr, c.add); err != nil {
			return errors.Wrapf(err, "chromosome %s", g.Chromosome(chr).Name)
		}
		v, err := c.finish()
		if err != nil {
			return errors.Wrapf(err, "chromosome %s", g.Chromosome(chr).Name)
		}
		views[chr] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return New(g, bopts.Encoding, views)
}
