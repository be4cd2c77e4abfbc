// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/tsv"
	"github.com/grailbio/scw/binlist"
	"github.com/grailbio/scw/display"
	"github.com/grailbio/scw/encoding/scwio"
	"github.com/grailbio/scw/interval"
	"github.com/grailbio/scw/scw"
	"github.com/grailbio/scw/scwlist"
)

type viewFlags struct {
	region  *string
	width   *int
	factors *string
}

// newScaler serves FixedBin lists from their pyramid, and everything else by
// on-the-fly reduction.
func newScaler(l *scwlist.List, factors string) (*display.Scaler, error) {
	if l.Encoding() == scw.FixedBin {
		for chr := 0; chr < l.Len(); chr++ {
			v, ok := l.View(chr).(*scw.FixedBinView)
			if !ok {
				continue
			}
			opts := binlist.DefaultOpts
			opts.BinSize = v.BinSize()
			opts.Precision = v.Precision()
			var err error
			if opts.Factors, err = parseFactors(factors); err != nil {
				return nil, err
			}
			bins, err := binlist.New(l, opts)
			if err != nil {
				return nil, err
			}
			return display.NewScaler(bins, display.DefaultOpts)
		}
	}
	return display.NewListScaler(l, display.DefaultOpts)
}

func view(ctx context.Context, flags viewFlags, path string, out io.Writer) error {
	if *flags.region == "" {
		return fmt.Errorf("view: -region is required")
	}
	region, err := interval.ParseRegionString(*flags.region)
	if err != nil {
		return err
	}
	l, err := scwio.ReadFile(ctx, path)
	if err != nil {
		return err
	}
	chr, err := l.Genome().Index(region.ChrName)
	if err != nil {
		return err
	}
	if length := l.Genome().Chromosome(chr).Length; region.End > length {
		region.End = length
	}
	if region.Start0 >= region.End {
		return fmt.Errorf("view: empty region %s", *flags.region)
	}

	var intervals []interval.Interval
	if *flags.width <= 0 {
		if v := l.View(chr); v != nil {
			intervals = scw.SubRange(v, region.Start0, region.End)
		}
	} else {
		scaler, err := newScaler(l, *flags.factors)
		if err != nil {
			return err
		}
		xRatio := float64(*flags.width) / float64(region.End-region.Start0)
		scaler.Update(ctx, chr, xRatio)
		if err := scaler.Wait(ctx); err != nil {
			return err
		}
		_, _, intervals, _ = scaler.Visible(region.Start0, region.End)
	}

	w := tsv.NewWriter(out)
	for _, iv := range intervals {
		w.WriteString(region.ChrName)
		w.WriteInt64(int64(iv.Start))
		w.WriteInt64(int64(iv.Stop))
		w.WriteString(strconv.FormatFloat(float64(iv.Score), 'g', -1, 32))
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}
