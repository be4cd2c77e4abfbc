// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// bio-scw builds, rebins, summarizes and displays genome-wide score lists.
//
//   bio-scw build -sizes hg19.sizes in.bedgraph.gz out.scw
//   bio-scw rebin -binsize 1000 out.scw out.1kb.scw
//   bio-scw stats out.1kb.scw
//   bio-scw view -region chr1:1-5,000,000 -width 800 out.1kb.scw
package main

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"
)

func newCmdBuild() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "build",
		Short:    "Flatten a bedGraph file into a score list",
		ArgsName: "srcpath destpath",
	}
	flags := buildFlags{
		sizes:     cmd.Flags.String("sizes", "", "Chromosome sizes file (name<TAB>length per line). Required"),
		encoding:  cmd.Flags.String("encoding", "generic", "Output encoding: dense, generic, mask or fixedbin"),
		op:        cmd.Flags.String("op", "sum", "Operation combining overlapping scores (and binned windows): sum, average, max or min"),
		binSize:   cmd.Flags.Int("binsize", 1000, "Bin width for the fixedbin encoding"),
		precision: cmd.Flags.String("precision", "32", "Bin score storage for the fixedbin encoding, in bits: 16, 32 or 64"),
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("build takes srcpath destpath, but found %v", argv)
		}
		return build(vcontext.Background(), flags, argv[0], argv[1])
	})
	return cmd
}

func newCmdRebin() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "rebin",
		Short:    "Resample a score list onto fixed-width bins",
		ArgsName: "srcpath destpath",
	}
	flags := rebinFlags{
		binSize:     cmd.Flags.Int("binsize", 1000, "Native bin width"),
		op:          cmd.Flags.String("op", "average", "Operation aggregating windows into bins: sum, average, max or min"),
		precision:   cmd.Flags.String("precision", "32", "Bin score storage, in bits: 16, 32 or 64"),
		factors:     cmd.Flags.String("factors", "4,4,4,4,4,4", "Comma-separated pyramid factors"),
		level:       cmd.Flags.Int("level", 0, "Pyramid level to write; 0 is the native bin width"),
		parallelism: cmd.Flags.Int("parallelism", 0, "Maximum number of chromosomes processed concurrently; 0 = runtime.NumCPU()"),
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("rebin takes srcpath destpath, but found %v", argv)
		}
		return rebin(vcontext.Background(), flags, argv[0], argv[1])
	})
	return cmd
}

func newCmdStats() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "stats",
		Short:    "Print per-chromosome and genome-wide score statistics",
		ArgsName: "path",
	}
	chroms := cmd.Flags.String("chroms", "", "Comma-separated chromosomes to summarize. By default, all of them")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("stats takes one pathname argument, but got %v", argv)
		}
		return stats(vcontext.Background(), argv[0], splitList(*chroms), env.Stdout)
	})
	return cmd
}

func newCmdView() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "view",
		Short:    "Print the windows of a region as they would be displayed",
		ArgsName: "path",
	}
	flags := viewFlags{
		region: cmd.Flags.String("region", "", `Region to show, as 'chr', 'chr:pos' or 'chr:begin-end'.
[begin,end] is a 1-based, closed interval, as in samtools.`),
		width:   cmd.Flags.Int("width", 0, "Display width in pixels. 0 prints the windows unreduced"),
		factors: cmd.Flags.String("factors", "4,4,4,4,4,4", "Comma-separated pyramid factors, used when the list has the fixedbin encoding"),
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("view takes one pathname argument, but got %v", argv)
		}
		return view(vcontext.Background(), flags, argv[0], env.Stdout)
	})
	return cmd
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func parseFactors(s string) ([]int, error) {
	var factors []int
	for _, f := range splitList(s) {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("invalid pyramid factor %q: %v", f, err)
		}
		factors = append(factors, n)
	}
	return factors, nil
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-scw",
			Short:    "Tools for working with genome-wide score lists",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdBuild(),
				newCmdRebin(),
				newCmdStats(),
				newCmdView(),
			},
		})
}
