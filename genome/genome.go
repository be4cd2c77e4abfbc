// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package genome provides the chromosome registry that views, lists and
// scalers are constructed against.  A Genome is an explicit, immutable context
// object; nothing in this module consults process-wide chromosome state.
package genome

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/scw/interval"
	"github.com/pkg/errors"
)

// ErrUnknownChromosome is returned (wrapped) when a chromosome name or index
// isn't registered.
var ErrUnknownChromosome = errors.New("unknown chromosome")

// Chromosome is a registered sequence name and its length.
type Chromosome struct {
	Name   string
	Length interval.PosType
}

// Genome is an ordered chromosome registry.  Chromosome indices are positions
// in that order, and every genome-wide collection is indexed the same way.
type Genome struct {
	chroms  []Chromosome
	nameMap map[string]int
}

// New returns a Genome with the given chromosomes, in order.  Names must be
// unique and nonempty, and lengths positive.
func New(chroms []Chromosome) (*Genome, error) {
	g := &Genome{
		chroms:  make([]Chromosome, len(chroms)),
		nameMap: make(map[string]int, len(chroms)),
	}
	for i, c := range chroms {
		if c.Name == "" {
			return nil, fmt.Errorf("genome.New: empty name for chromosome %d", i)
		}
		if c.Length <= 0 {
			return nil, fmt.Errorf("genome.New: nonpositive length %d for %s", c.Length, c.Name)
		}
		if _, found := g.nameMap[c.Name]; found {
			return nil, fmt.Errorf("genome.New: duplicate chromosome %s", c.Name)
		}
		g.chroms[i] = c
		g.nameMap[c.Name] = i
	}
	return g, nil
}

// FromSAMHeader returns a Genome with the references of a SAM/BAM header, in
// header order, so that chromosome indices coincide with sam reference IDs.
func FromSAMHeader(header *sam.Header) (*Genome, error) {
	refs := header.Refs()
	chroms := make([]Chromosome, len(refs))
	for refID, ref := range refs {
		if refID != ref.ID() {
			panic("internal error: sam.header ref.ID != array position")
		}
		chroms[refID] = Chromosome{Name: ref.Name(), Length: interval.PosType(ref.Len())}
	}
	return New(chroms)
}

// ReadSizes parses a UCSC chrom.sizes table: whitespace-separated name and
// length columns, one chromosome per line.  Blank lines are skipped.
func ReadSizes(r io.Reader) (*Genome, error) {
	var chroms []Chromosome
	scanner := bufio.NewScanner(r)
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("genome.ReadSizes: line %d has fewer tokens than expected", lineIdx)
		}
		length, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "genome.ReadSizes: line %d", lineIdx)
		}
		chroms = append(chroms, Chromosome{Name: fields[0], Length: interval.PosType(length)})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return New(chroms)
}

// ReadSizesFromPath is a wrapper for ReadSizes that takes a path instead of an
// io.Reader.
func ReadSizesFromPath(ctx context.Context, path string) (g *Genome, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return ReadSizes(infile.Reader(ctx))
}

// Len returns the number of registered chromosomes.
func (g *Genome) Len() int {
	return len(g.chroms)
}

// Chromosome returns the chromosome with the given index.  It panics if the
// index is out of range.
func (g *Genome) Chromosome(chrIdx int) Chromosome {
	return g.chroms[chrIdx]
}

// Chromosomes returns all chromosomes, in index order.  The caller must not
// modify the result.
func (g *Genome) Chromosomes() []Chromosome {
	return g.chroms
}

// Index returns the index of the named chromosome.
func (g *Genome) Index(name string) (int, error) {
	chrIdx, found := g.nameMap[name]
	if !found {
		return -1, errors.Wrapf(ErrUnknownChromosome, "%s", name)
	}
	return chrIdx, nil
}

// CheckIndex returns an error wrapping ErrUnknownChromosome if chrIdx is out
// of range.
func (g *Genome) CheckIndex(chrIdx int) error {
	if chrIdx < 0 || chrIdx >= len(g.chroms) {
		return errors.Wrapf(ErrUnknownChromosome, "index %d (genome has %d)", chrIdx, len(g.chroms))
	}
	return nil
}

// TotalLength returns the sum of all chromosome lengths.
func (g *Genome) TotalLength() int64 {
	var total int64
	for _, c := range g.chroms {
		total += int64(c.Length)
	}
	return total
}

// Equal returns whether the two genomes register the same chromosomes in the
// same order.
func (g *Genome) Equal(other *Genome) bool {
	if len(g.chroms) != len(other.chroms) {
		return false
	}
	for i, c := range g.chroms {
		if c != other.chroms[i] {
			return false
		}
	}
	return true
}
