// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scwlist

import (
	"context"
	"fmt"

	"github.com/biogo/store/llrb"
	"github.com/grailbio/scw/scw"
)

// mergeCursor iterates over one view during a k-way merge.
type mergeCursor struct {
	v     scw.View
	idx   int
	start PosType
	// list breaks start ties, so that equal starts are consumed in list order.
	list int
}

// Compare implements llrb.Comparable.
func (c *mergeCursor) Compare(o llrb.Comparable) int {
	c2 := o.(*mergeCursor)
	if c.start != c2.start {
		if c.start < c2.start {
			return -1
		}
		return 1
	}
	return c.list - c2.list
}

// Merge combines several lists over the same genome into one, chromosome by
// chromosome: the views' intervals are merged by start and flattened with
// bopts.Op, then built with bopts.Encoding.
func Merge(ctx context.Context, bopts BuildOpts, opts Opts, lists ...*List) (*List, error) {
	if len(lists) == 0 {
		return nil, fmt.Errorf("scwlist.Merge: no input lists")
	}
	g := lists[0].genome
	for _, l := range lists[1:] {
		if !l.genome.Equal(g) {
			return nil, fmt.Errorf("scwlist.Merge: lists have different genomes")
		}
	}
	anyData := func(chr int) bool {
		for _, l := range lists {
			if l.hasData(chr) {
				return true
			}
		}
		return false
	}
	views := make([]scw.View, g.Len())
	err := opts.ForEach(ctx, g.Len(), anyData, func(chr int) error {
		c, err := bopts.newChromBuild(g, chr)
		if err != nil {
			return err
		}
		cursors := llrb.Tree{}
		for i, l := range lists {
			if v := l.views[chr]; !scw.IsEmpty(v) {
				cursors.Insert(&mergeCursor{v: v, start: v.At(0).Start, list: i})
			}
		}
		for n := 0; cursors.Len() > 0; n++ {
			if n%stopCheckInterval == stopCheckInterval-1 && opts.interrupted(ctx) {
				return ErrInterrupted
			}
			cur := cursors.Min().(*mergeCursor)
			cursors.DeleteMin()
			iv := cur.v.At(cur.idx)
			if err := c.add(iv.Start, iv.Stop, iv.Score); err != nil {
				return err
			}
			if cur.idx++; cur.idx < cur.v.Len() {
				cur.start = cur.v.At(cur.idx).Start
				cursors.Insert(cur)
			}
		}
		views[chr], err = c.finish()
		return err
	})
	if err != nil {
		return nil, err
	}
	return New(g, bopts.Encoding, views)
}
