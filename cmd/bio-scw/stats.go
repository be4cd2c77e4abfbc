// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"io"
	"strconv"

	"github.com/grailbio/base/tsv"
	"github.com/grailbio/scw/encoding/scwio"
	"github.com/grailbio/scw/scwlist"
)

var statsColumns = []scwlist.Statistic{
	scwlist.CountWindows,
	scwlist.CountBases,
	scwlist.Min,
	scwlist.Max,
	scwlist.SumScores,
	scwlist.SumArea,
	scwlist.Average,
	scwlist.StdDev,
}

func writeSummary(w *tsv.Writer, name string, s scwlist.Summary) error {
	w.WriteString(name)
	for _, st := range statsColumns {
		v, ok := s.Value(st)
		switch {
		case !ok:
			w.WriteString("NA")
		case st == scwlist.CountWindows || st == scwlist.CountBases:
			w.WriteInt64(int64(v))
		default:
			w.WriteString(strconv.FormatFloat(v, 'g', 6, 64))
		}
	}
	return w.EndLine()
}

// stats writes one summary line per chromosome with data, followed by the
// genome-wide summary of the same chromosomes.
func stats(ctx context.Context, path string, chroms []string, out io.Writer) error {
	l, err := scwio.ReadFile(ctx, path)
	if err != nil {
		return err
	}
	g := l.Genome()
	selected := make([]bool, g.Len())
	if len(chroms) == 0 {
		for i := range selected {
			selected[i] = true
		}
	}
	for _, name := range chroms {
		chr, err := g.Index(name)
		if err != nil {
			return err
		}
		selected[chr] = true
	}

	w := tsv.NewWriter(out)
	w.WriteString("#CHROM")
	for _, st := range statsColumns {
		w.WriteString(st.String())
	}
	if err := w.EndLine(); err != nil {
		return err
	}
	for chr := 0; chr < g.Len(); chr++ {
		if !selected[chr] || l.View(chr) == nil {
			continue
		}
		opts := scwlist.DefaultOpts
		opts.Selected = make([]bool, chr+1)
		opts.Selected[chr] = true
		s, err := scwlist.Summarize(ctx, l, opts)
		if err != nil {
			return err
		}
		if err := writeSummary(w, g.Chromosome(chr).Name, s); err != nil {
			return err
		}
	}
	opts := scwlist.DefaultOpts
	opts.Selected = selected
	total, err := scwlist.Summarize(ctx, l, opts)
	if err != nil {
		return err
	}
	if err := writeSummary(w, "*", total); err != nil {
		return err
	}
	return w.Flush()
}
