// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package bedgraph reads 4-column "chrom start end score" text files, with
// 0-based half-open coordinates.  "track", "browser" and "#" lines are
// skipped.
package bedgraph

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/scw/genome"
	"github.com/grailbio/scw/interval"
	"github.com/grailbio/scw/scwlist"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Record is one bedGraph line.
type Record struct {
	// ChrName is shared between consecutive records on the same chromosome.
	ChrName string
	Start   interval.PosType
	Stop    interval.PosType
	Score   float32
}

// Scanner iterates over the records of a bedGraph stream.
type Scanner struct {
	scanner *bufio.Scanner
	lineIdx int
	rec     Record
	err     error
}

// NewScanner returns a Scanner reading r.
func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Scanner{scanner: s}
}

// getTokens identifies up to the first len(tokens) whitespace-separated
// tokens of curLine, and returns the number found.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

var (
	trackPrefix   = []byte("track")
	browserPrefix = []byte("browser")
)

// Scan reads the next record.  It returns false at the end of the input or on
// error; check Err.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	var tokens [4][]byte
	for s.scanner.Scan() {
		s.lineIdx++
		curLine := s.scanner.Bytes()
		nToken := getTokens(tokens[:], curLine)
		if nToken == 0 || tokens[0][0] == '#' || bytes.Equal(tokens[0], trackPrefix) || bytes.Equal(tokens[0], browserPrefix) {
			continue
		}
		if nToken != 4 {
			s.err = fmt.Errorf("bedgraph: line %d has %d tokens, want 4", s.lineIdx, nToken)
			return false
		}
		if gunsafe.BytesToString(tokens[0]) != s.rec.ChrName {
			s.rec.ChrName = string(tokens[0])
		}
		start, err := strconv.Atoi(gunsafe.BytesToString(tokens[1]))
		if err != nil {
			s.err = fmt.Errorf("bedgraph: line %d: %v", s.lineIdx, err)
			return false
		}
		stop, err := strconv.Atoi(gunsafe.BytesToString(tokens[2]))
		if err != nil {
			s.err = fmt.Errorf("bedgraph: line %d: %v", s.lineIdx, err)
			return false
		}
		if start < 0 || stop <= start || stop > int(interval.PosTypeMax) {
			s.err = fmt.Errorf("bedgraph: line %d: invalid interval [%d, %d)", s.lineIdx, start, stop)
			return false
		}
		score, err := strconv.ParseFloat(gunsafe.BytesToString(tokens[3]), 32)
		if err != nil {
			s.err = fmt.Errorf("bedgraph: line %d: %v", s.lineIdx, err)
			return false
		}
		s.rec.Start = interval.PosType(start)
		s.rec.Stop = interval.PosType(stop)
		s.rec.Score = float32(score)
		return true
	}
	s.err = s.scanner.Err()
	return false
}

// Record returns the record read by the last successful Scan.
func (s *Scanner) Record() Record { return s.rec }

// Err returns the first error encountered.
func (s *Scanner) Err() error { return s.err }

// Open opens path, transparently decompressing it if its name ends in .gz.
// The caller must close the returned file.
func Open(ctx context.Context, path string) (file.File, io.Reader, error) {
	infile, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if reader, err = gzip.NewReader(reader); err != nil {
			_ = infile.Close(ctx)
			return nil, nil, err
		}
	}
	return infile, reader, nil
}

// Load reads a whole bedGraph stream into a list over g.  Records on
// chromosomes g doesn't know are skipped.
func Load(r io.Reader, g *genome.Genome, opts scwlist.BuildOpts) (*scwlist.List, error) {
	loader, err := scwlist.NewLoader(g, opts)
	if err != nil {
		return nil, err
	}
	s := NewScanner(r)
	var n int
	for s.Scan() {
		rec := s.Record()
		if err := loader.Add(rec.ChrName, rec.Start, rec.Stop, rec.Score); err != nil {
			return nil, errors.Wrapf(err, "bedgraph: line %d", s.lineIdx)
		}
		n++
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	log.Debug.Printf("bedgraph: loaded %d records", n)
	return loader.Finish()
}

// LoadPath is Load on a file path.
func LoadPath(ctx context.Context, path string, g *genome.Genome, opts scwlist.BuildOpts) (l *scwlist.List, err error) {
	infile, r, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return Load(r, g, opts)
}
