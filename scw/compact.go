// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scw

import (
	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// ErrCompression is returned (wrapped) when a compacted view can't be
// decompressed.
var ErrCompression = errors.New("view compression failure")

// Compacted is a snappy-compressed, serialized view.  It is immutable and
// safe for concurrent Expand calls.
type Compacted struct {
	enc  Encoding
	n    int
	data []byte
}

// Compact serializes and compresses v.  v itself is left untouched, so the
// caller decides whether to drop it.
func Compact(v View) (*Compacted, error) {
	raw, err := MarshalView(nil, v)
	if err != nil {
		return nil, err
	}
	return &Compacted{enc: v.Encoding(), n: v.Len(), data: snappy.Encode(nil, raw)}, nil
}

// Encoding returns the encoding of the compacted view.
func (c *Compacted) Encoding() Encoding { return c.enc }

// Len returns the interval count of the compacted view.
func (c *Compacted) Len() int { return c.n }

// Size returns the compressed size in bytes.
func (c *Compacted) Size() int { return len(c.data) }

// Expand decompresses the view.
func (c *Compacted) Expand() (View, error) {
	raw, err := snappy.Decode(nil, c.data)
	if err != nil {
		return nil, errors.Wrap(ErrCompression, err.Error())
	}
	v, err := UnmarshalView(raw)
	if err != nil {
		return nil, errors.Wrap(ErrCompression, err.Error())
	}
	return v, nil
}
