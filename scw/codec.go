// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scw

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// ViewFormatVersion is the first byte of every marshalled view.
const ViewFormatVersion = 1

// ErrCorrupt is returned (wrapped) when a marshalled view can't be decoded or
// violates the view invariants.
var ErrCorrupt = errors.New("corrupt view encoding")

// Serialized format (little-endian):
//   [0]: ViewFormatVersion
//   [1]: Encoding
//   Dense:    firstStart int32, n uint32, stops [n]int32, scores [n]float32
//   Generic:  n uint32, starts [n]int32, stops [n]int32, scores [n]float32
//   Mask:     n uint32 (endpoint count), endpoints [n]int32
//   FixedBin: precision uint8, binSize int32, chromLength int32, n uint32,
//             scores [n] at the precision's width
// Exactly the backing arrays are written; nothing derived is stored.

// MarshalView serializes v, reusing scratch when it's large enough, and
// returns the result.
func MarshalView(scratch []byte, v View) ([]byte, error) {
	var w viewWriter
	switch tv := v.(type) {
	case *DenseView:
		n := len(tv.stops)
		w.init(scratch, 2+8+8*n)
		w.header(Dense)
		w.u32(uint32(tv.firstStart))
		w.u32(uint32(n))
		w.positions(tv.stops)
		w.float32s(tv.scores)
	case *GenericView:
		n := len(tv.starts)
		w.init(scratch, 2+4+12*n)
		w.header(Generic)
		w.u32(uint32(n))
		w.positions(tv.starts)
		w.positions(tv.stops)
		w.float32s(tv.scores)
	case *MaskView:
		n := len(tv.endpoints)
		w.init(scratch, 2+4+4*n)
		w.header(Mask)
		w.u32(uint32(n))
		w.positions(tv.endpoints)
	case *FixedBinView:
		n := tv.scores.Len()
		p := tv.scores.Precision()
		w.init(scratch, 2+13+p.Bytes()*n)
		w.header(FixedBin)
		w.buf[w.off] = byte(p)
		w.off++
		w.u32(uint32(tv.binSize))
		w.u32(uint32(tv.chromLength))
		w.u32(uint32(n))
		switch s := tv.scores.(type) {
		case float16Scores:
			for _, x := range s {
				binary.LittleEndian.PutUint16(w.buf[w.off:], uint16(x))
				w.off += 2
			}
		case float32Scores:
			w.float32s(s)
		case float64Scores:
			for _, x := range s {
				binary.LittleEndian.PutUint64(w.buf[w.off:], math.Float64bits(x))
				w.off += 8
			}
		}
	default:
		return nil, fmt.Errorf("scw.MarshalView: unsupported view type %T", v)
	}
	return w.buf, nil
}

type viewWriter struct {
	buf []byte
	off int
}

func (w *viewWriter) init(scratch []byte, bytesReq int) {
	if cap(scratch) < bytesReq {
		scratch = make([]byte, bytesReq)
	}
	w.buf = scratch[:bytesReq]
}

func (w *viewWriter) header(enc Encoding) {
	w.buf[0] = ViewFormatVersion
	w.buf[1] = byte(enc)
	w.off = 2
}

func (w *viewWriter) u32(x uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], x)
	w.off += 4
}

func (w *viewWriter) positions(a []PosType) {
	for _, x := range a {
		w.u32(uint32(x))
	}
}

func (w *viewWriter) float32s(a []float32) {
	for _, x := range a {
		w.u32(math.Float32bits(x))
	}
}

type viewReader struct {
	in  []byte
	off int
	err error
}

func (r *viewReader) take(nBytes int) []byte {
	if r.err != nil {
		return nil
	}
	if nBytes < 0 || len(r.in)-r.off < nBytes {
		r.err = errors.Wrapf(ErrCorrupt, "truncated input (%d bytes at offset %d, want %d more)", len(r.in), r.off, nBytes)
		return nil
	}
	b := r.in[r.off : r.off+nBytes]
	r.off += nBytes
	return b
}

func (r *viewReader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *viewReader) count(elemBytes int) int {
	n := int(r.u32())
	if r.err == nil && n > (len(r.in)-r.off)/elemBytes {
		r.err = errors.Wrapf(ErrCorrupt, "element count %d exceeds input size", n)
		return 0
	}
	return n
}

func (r *viewReader) positions(n int) []PosType {
	b := r.take(4 * n)
	if b == nil {
		return nil
	}
	a := make([]PosType, n)
	for i := range a {
		a[i] = PosType(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return a
}

func (r *viewReader) float32s(n int) []float32 {
	b := r.take(4 * n)
	if b == nil {
		return nil
	}
	a := make([]float32, n)
	for i := range a {
		a[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return a
}

// UnmarshalView decodes a view written by MarshalView.  The input is not
// retained.
func UnmarshalView(in []byte) (View, error) {
	if len(in) < 2 {
		return nil, errors.Wrap(ErrCorrupt, "missing header")
	}
	if in[0] != ViewFormatVersion {
		return nil, errors.Wrapf(ErrCorrupt, "unrecognized format version: got %d, want %d", in[0], ViewFormatVersion)
	}
	r := viewReader{in: in, off: 2}
	var v View
	switch Encoding(in[1]) {
	case Dense:
		firstStart := PosType(r.u32())
		n := r.count(8)
		dv := &DenseView{firstStart: firstStart}
		dv.stops = r.positions(n)
		dv.scores = r.float32s(n)
		v = dv
	case Generic:
		n := r.count(12)
		gv := &GenericView{}
		gv.starts = r.positions(n)
		gv.stops = r.positions(n)
		gv.scores = r.float32s(n)
		v = gv
	case Mask:
		n := r.count(4)
		if n%2 != 0 {
			return nil, errors.Wrapf(ErrCorrupt, "odd mask endpoint count %d", n)
		}
		v = &MaskView{endpoints: r.positions(n)}
	case FixedBin:
		b := r.take(1)
		if b == nil {
			return nil, r.err
		}
		p := Precision(b[0])
		if p > Float64 {
			return nil, errors.Wrapf(ErrCorrupt, "unknown precision %d", p)
		}
		binSize := PosType(r.u32())
		chromLength := PosType(r.u32())
		n := r.count(p.Bytes())
		raw := r.take(p.Bytes() * n)
		if r.err != nil {
			return nil, r.err
		}
		if binSize <= 0 || chromLength <= 0 || n != int((int64(chromLength)+int64(binSize)-1)/int64(binSize)) {
			return nil, errors.Wrapf(ErrCorrupt, "%d bins inconsistent with bin size %d and length %d", n, binSize, chromLength)
		}
		fv := &FixedBinView{binSize: binSize, chromLength: chromLength}
		switch p {
		case Float16:
			s := make(float16Scores, n)
			for i := range s {
				s[i] = float16.Frombits(binary.LittleEndian.Uint16(raw[2*i:]))
			}
			fv.scores = s
		case Float32:
			s := make(float32Scores, n)
			for i := range s {
				s[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
			}
			fv.scores = s
		case Float64:
			s := make(float64Scores, n)
			for i := range s {
				s[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
			}
			fv.scores = s
		}
		v = fv
	default:
		return nil, errors.Wrapf(ErrCorrupt, "unknown encoding %d", in[1])
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.off != len(in) {
		return nil, errors.Wrapf(ErrCorrupt, "%d trailing bytes", len(in)-r.off)
	}
	if err := Validate(v); err != nil {
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}
	return v, nil
}

// Validate checks the sort and non-overlap invariants of v.  Views produced by
// builders always pass; it exists for data that crossed a process boundary.
func Validate(v View) error {
	n := v.Len()
	for i := 0; i < n; i++ {
		iv := v.At(i)
		if iv.Start < 0 || iv.Start >= iv.Stop {
			return fmt.Errorf("interval #%d %v is empty or negative", i, iv)
		}
		if i > 0 {
			prev := v.At(i - 1)
			if prev.Stop > iv.Start {
				return fmt.Errorf("interval #%d %v overlaps or precedes %v", i, iv, prev)
			}
			if v.Encoding() == Dense && (prev.Stop != iv.Start || prev.Score == iv.Score) {
				return fmt.Errorf("dense runs #%d and #%d are not contiguous distinct runs", i-1, i)
			}
		}
	}
	return nil
}
