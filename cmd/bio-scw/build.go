// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/grailbio/base/log"
	"github.com/grailbio/scw/binlist"
	"github.com/grailbio/scw/encoding/bedgraph"
	"github.com/grailbio/scw/encoding/scwio"
	"github.com/grailbio/scw/genome"
	"github.com/grailbio/scw/interval"
	"github.com/grailbio/scw/scw"
	"github.com/grailbio/scw/scwlist"
)

type buildFlags struct {
	sizes     *string
	encoding  *string
	op        *string
	binSize   *int
	precision *string
}

func (f buildFlags) buildOpts() (opts scwlist.BuildOpts, err error) {
	if opts.Encoding, err = scw.ParseEncoding(*f.encoding); err != nil {
		return
	}
	if opts.Op, err = scw.ParseOperation(*f.op); err != nil {
		return
	}
	if opts.Encoding == scw.FixedBin {
		opts.BinSize = interval.PosType(*f.binSize)
		opts.Precision, err = scw.ParsePrecision(*f.precision)
	}
	return
}

func build(ctx context.Context, flags buildFlags, srcPath, dstPath string) error {
	if *flags.sizes == "" {
		return fmt.Errorf("build: -sizes is required")
	}
	bopts, err := flags.buildOpts()
	if err != nil {
		return err
	}
	g, err := genome.ReadSizesFromPath(ctx, *flags.sizes)
	if err != nil {
		return err
	}
	start := time.Now()
	l, err := bedgraph.LoadPath(ctx, srcPath, g, bopts)
	if err != nil {
		return err
	}
	log.Printf("build: loaded %d windows from %s in %v", l.NumIntervals(), srcPath, time.Since(start))
	return scwio.WriteFile(ctx, dstPath, l)
}

type rebinFlags struct {
	binSize     *int
	op          *string
	precision   *string
	factors     *string
	level       *int
	parallelism *int
}

func (f rebinFlags) opts() (opts binlist.Opts, err error) {
	opts.BinSize = interval.PosType(*f.binSize)
	if opts.Op, err = scw.ParseOperation(*f.op); err != nil {
		return
	}
	if opts.Precision, err = scw.ParsePrecision(*f.precision); err != nil {
		return
	}
	opts.Factors, err = parseFactors(*f.factors)
	return
}

func rebin(ctx context.Context, flags rebinFlags, srcPath, dstPath string) error {
	opts, err := flags.opts()
	if err != nil {
		return err
	}
	src, err := scwio.ReadFile(ctx, srcPath)
	if err != nil {
		return err
	}
	lopts := scwlist.DefaultOpts
	lopts.Parallelism = *flags.parallelism
	bins, err := binlist.Rebin(ctx, src, opts, lopts)
	if err != nil {
		return err
	}
	l, err := bins.Level(ctx, *flags.level)
	if err != nil {
		return err
	}
	log.Printf("rebin: %s has %d bins of width %d", dstPath, l.NumIntervals(), bins.LevelBinSize(*flags.level))
	return scwio.WriteFile(ctx, dstPath, l)
}
