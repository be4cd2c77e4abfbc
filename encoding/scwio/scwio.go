// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package scwio stores scwlist.Lists in recordio files.
//
// The header carries the genome (chromosome names and lengths), the list
// encoding and, for FixedBin lists, the bin size.  Each chromosome with data
// is one zstd-compressed record: its index followed by scw.MarshalView
// output.  The trailer holds the format version, the record count and a
// farmhash fingerprint of all records, which Read verifies.
package scwio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgryski/go-farm"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
	"github.com/grailbio/scw/genome"
	"github.com/grailbio/scw/interval"
	"github.com/grailbio/scw/scw"
	"github.com/grailbio/scw/scwlist"
)

const (
	chromNamesHeader   = "scw.chromnames"
	chromLengthsHeader = "scw.chromlengths"
	encodingHeader     = "scw.encoding"
	binSizeHeader      = "scw.binsize"

	trailerVersion = 1
	trailerSize    = 24
)

func init() {
	recordiozstd.Init()
}

// chromRecord is the unit of one recordio record.
type chromRecord struct {
	chr  int
	view scw.View
}

func marshalChromRecord(scratch []byte, p interface{}) ([]byte, error) {
	rec := p.(*chromRecord)
	body, err := scw.MarshalView(nil, rec.view)
	if err != nil {
		return nil, err
	}
	out := append(scratch[:0], 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(out, uint32(rec.chr))
	return append(out, body...), nil
}

// fingerprint chains farmhash over the marshalled records, in file order.
type fingerprint struct {
	n    int64
	hash uint64
}

func (f *fingerprint) add(rec []byte) {
	f.n++
	f.hash = farm.Hash64WithSeed(rec, f.hash)
}

func (f *fingerprint) trailer() []byte {
	var buf bytes.Buffer
	for _, x := range []int64{trailerVersion, f.n, int64(f.hash)} {
		if err := binary.Write(&buf, binary.LittleEndian, x); err != nil {
			panic(err)
		}
	}
	return buf.Bytes()
}

func parseTrailer(trailer []byte) (fingerprint, error) {
	if len(trailer) != trailerSize {
		return fingerprint{}, fmt.Errorf("scwio: trailer has %d bytes, want %d", len(trailer), trailerSize)
	}
	if version := int64(binary.LittleEndian.Uint64(trailer)); version != trailerVersion {
		return fingerprint{}, fmt.Errorf("scwio: unrecognized trailer version: got %d, want %d", version, trailerVersion)
	}
	return fingerprint{
		n:    int64(binary.LittleEndian.Uint64(trailer[8:])),
		hash: binary.LittleEndian.Uint64(trailer[16:]),
	}, nil
}

// Write stores l to w.
func Write(w io.Writer, l *scwlist.List) error {
	g := l.Genome()
	names := make([]string, g.Len())
	lengths := make([]string, g.Len())
	for i, c := range g.Chromosomes() {
		names[i] = c.Name
		lengths[i] = strconv.Itoa(int(c.Length))
	}
	var fp fingerprint
	marshal := func(scratch []byte, p interface{}) ([]byte, error) {
		out, err := marshalChromRecord(scratch, p)
		if err == nil {
			fp.add(out)
		}
		return out, err
	}
	rw := recordio.NewWriter(w, recordio.WriterOpts{
		Marshal:      marshal,
		Transformers: []string{recordiozstd.Name},
	})
	rw.AddHeader(chromNamesHeader, strings.Join(names, "\000"))
	rw.AddHeader(chromLengthsHeader, strings.Join(lengths, ","))
	rw.AddHeader(encodingHeader, l.Encoding().String())
	if binSize, ok := listBinSize(l); ok {
		rw.AddHeader(binSizeHeader, strconv.Itoa(int(binSize)))
	}
	rw.AddHeader(recordio.KeyTrailer, true)
	for chr := 0; chr < l.Len(); chr++ {
		if v := l.View(chr); v != nil {
			rw.Append(&chromRecord{chr: chr, view: v})
		}
	}
	// Marshal runs synchronously in Append, so fp is complete.
	rw.SetTrailer(fp.trailer())
	return rw.Finish()
}

func listBinSize(l *scwlist.List) (interval.PosType, bool) {
	for chr := 0; chr < l.Len(); chr++ {
		if v, ok := l.View(chr).(*scw.FixedBinView); ok {
			return v.BinSize(), true
		}
	}
	return 0, false
}

// Header is the list-level metadata of a file.
type Header struct {
	Genome   *genome.Genome
	Encoding scw.Encoding
	// BinSize is 0 unless the list is FixedBin and has data.
	BinSize interval.PosType
}

func parseHeader(kvs map[string]string) (Header, error) {
	var h Header
	names, lengths, enc := kvs[chromNamesHeader], kvs[chromLengthsHeader], kvs[encodingHeader]
	if s, ok := kvs[binSizeHeader]; ok {
		binSize, err := strconv.Atoi(s)
		if err != nil {
			return h, fmt.Errorf("scwio: bad bin size header %q", s)
		}
		h.BinSize = interval.PosType(binSize)
	}
	var err error
	if h.Encoding, err = scw.ParseEncoding(enc); err != nil {
		return h, err
	}
	var chroms []genome.Chromosome
	if names != "" {
		nameList := strings.Split(names, "\000")
		lengthList := strings.Split(lengths, ",")
		if len(nameList) != len(lengthList) {
			return h, fmt.Errorf("scwio: %d chromosome names but %d lengths", len(nameList), len(lengthList))
		}
		for i, name := range nameList {
			length, err := strconv.Atoi(lengthList[i])
			if err != nil {
				return h, fmt.Errorf("scwio: bad length %q for chromosome %s", lengthList[i], name)
			}
			chroms = append(chroms, genome.Chromosome{Name: name, Length: interval.PosType(length)})
		}
	}
	h.Genome, err = genome.New(chroms)
	return h, err
}

// Read loads a list written by Write.
func Read(rs io.ReadSeeker) (*scwlist.List, error) {
	var fp fingerprint
	scanner := recordio.NewScanner(rs, recordio.ScannerOpts{
		Unmarshal: func(in []byte) (interface{}, error) {
			if len(in) < 4 {
				return nil, fmt.Errorf("scwio: record too short (%d bytes)", len(in))
			}
			fp.add(in)
			v, err := scw.UnmarshalView(in[4:])
			if err != nil {
				return nil, err
			}
			return &chromRecord{chr: int(binary.LittleEndian.Uint32(in)), view: v}, nil
		},
	})
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	kvs := map[string]string{}
	for _, kv := range scanner.Header() {
		// Other keys are recordio's own, and may not be strings.
		if s, ok := kv.Value.(string); ok {
			kvs[kv.Key] = s
		}
	}
	h, err := parseHeader(kvs)
	if err != nil {
		return nil, err
	}
	want, err := parseTrailer(scanner.Trailer())
	if err != nil {
		return nil, err
	}
	views := make([]scw.View, h.Genome.Len())
	for scanner.Scan() {
		rec := scanner.Get().(*chromRecord)
		if err := h.Genome.CheckIndex(rec.chr); err != nil {
			return nil, err
		}
		if views[rec.chr] != nil {
			return nil, fmt.Errorf("scwio: duplicate record for chromosome %s", h.Genome.Chromosome(rec.chr).Name)
		}
		views[rec.chr] = rec.view
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if fp != want {
		return nil, errors.E(fmt.Sprintf("scwio: fingerprint mismatch: %d records hashing to %x, trailer says %d records hashing to %x", fp.n, fp.hash, want.n, want.hash))
	}
	return scwlist.New(h.Genome, h.Encoding, views)
}

// WriteFile stores l at path, which may be any path supported by
// grailbio/base/file.
func WriteFile(ctx context.Context, path string, l *scwlist.List) (err error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "scwio.WriteFile", path)
	}
	defer file.CloseAndReport(ctx, f, &err)
	if err = Write(f.Writer(ctx), l); err != nil {
		return errors.E(err, "scwio.WriteFile", path)
	}
	log.Debug.Printf("scwio: wrote %d intervals to %s", l.NumIntervals(), path)
	return nil
}

// ReadFile loads the list stored at path.
func ReadFile(ctx context.Context, path string) (*scwlist.List, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "scwio.ReadFile", path)
	}
	defer f.Close(ctx) // nolint: errcheck
	l, err := Read(f.Reader(ctx))
	if err != nil {
		return nil, errors.E(err, "scwio.ReadFile", path)
	}
	return l, nil
}
