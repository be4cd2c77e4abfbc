// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scwlist

import (
	"fmt"

	"github.com/grailbio/scw/genome"
	"github.com/grailbio/scw/interval"
	"github.com/grailbio/scw/scw"
)

// PosType is the integer type used to represent genomic positions.
type PosType = interval.PosType

// List is a genome-wide collection of views.  A nil view means "no data on
// that chromosome".  Lists are immutable and safe for concurrent use.
type List struct {
	genome   *genome.Genome
	encoding scw.Encoding
	views    []scw.View
}

// New returns a list over views, which must have one entry per chromosome of
// g.  Non-nil views must all have the given encoding.  The slice is adopted.
func New(g *genome.Genome, enc scw.Encoding, views []scw.View) (*List, error) {
	if len(views) != g.Len() {
		return nil, fmt.Errorf("scwlist.New: got %d views for %d chromosomes", len(views), g.Len())
	}
	for i, v := range views {
		if v != nil && v.Encoding() != enc {
			return nil, fmt.Errorf("scwlist.New: chromosome %s has encoding %v, want %v", g.Chromosome(i).Name, v.Encoding(), enc)
		}
	}
	return &List{genome: g, encoding: enc, views: views}, nil
}

// Genome returns the chromosome registry the list is indexed by.
func (l *List) Genome() *genome.Genome { return l.genome }

// Encoding returns the encoding shared by all views.
func (l *List) Encoding() scw.Encoding { return l.encoding }

// Len returns the number of chromosomes (not intervals).
func (l *List) Len() int { return len(l.views) }

// View returns the view of chromosome #chr, or nil if there's no data.
func (l *List) View(chr int) scw.View { return l.views[chr] }

// ViewByName returns the view of the named chromosome.
func (l *List) ViewByName(chrName string) (scw.View, error) {
	chr, err := l.genome.Index(chrName)
	if err != nil {
		return nil, err
	}
	return l.views[chr], nil
}

// SubRange returns the stored intervals of chrName intersecting
// [start, stop), unclipped and in start order.
func (l *List) SubRange(chrName string, start, stop PosType) ([]interval.Interval, error) {
	v, err := l.ViewByName(chrName)
	if err != nil {
		return nil, err
	}
	return scw.SubRange(v, start, stop), nil
}

// NumIntervals returns the total number of stored intervals.
func (l *List) NumIntervals() int64 {
	var n int64
	for _, v := range l.views {
		if v != nil {
			n += int64(v.Len())
		}
	}
	return n
}

// WithView returns a copy of l with the view of chromosome #chr replaced.
func (l *List) WithView(chr int, v scw.View) (*List, error) {
	if err := l.genome.CheckIndex(chr); err != nil {
		return nil, err
	}
	if v != nil && v.Encoding() != l.encoding {
		return nil, fmt.Errorf("scwlist.WithView: encoding %v, want %v", v.Encoding(), l.encoding)
	}
	views := make([]scw.View, len(l.views))
	copy(views, l.views)
	views[chr] = v
	return &List{genome: l.genome, encoding: l.encoding, views: views}, nil
}

// hasData reports whether chromosome #chr has at least one stored interval.
func (l *List) hasData(chr int) bool {
	return !scw.IsEmpty(l.views[chr])
}
