// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scw_test

import (
	"testing"

	"github.com/grailbio/scw/scw"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/pkg/errors"
)

func TestMarshalView(t *testing.T) {
	input := []iv{
		{Start: 10, Stop: 20, Score: 1.5},
		{Start: 20, Stop: 30, Score: -2},
		{Start: 45, Stop: 60, Score: 3},
	}
	var scratch []byte
	for _, enc := range allEncodings {
		for _, p := range []scw.Precision{scw.Float16, scw.Float32, scw.Float64} {
			v, err := scw.BuildFrom(scw.BuilderOpts{Encoding: enc, ChromLength: 100, BinSize: 7, Op: scw.Average, Precision: p}, input)
			assert.NoError(t, err)
			scratch, err = scw.MarshalView(scratch, v)
			assert.NoError(t, err)
			got, err := scw.UnmarshalView(scratch)
			assert.NoError(t, err)
			expect.EQ(t, got.Encoding(), enc)
			expect.True(t, scw.Equal(got, v), "enc %v precision %v", enc, p)
			if fv, ok := got.(*scw.FixedBinView); ok {
				expect.EQ(t, fv.Values(), v.(*scw.FixedBinView).Values())
			}
		}
	}
}

func TestUnmarshalViewCorrupt(t *testing.T) {
	v, err := scw.BuildFrom(scw.BuilderOpts{Encoding: scw.Generic}, []iv{{Start: 10, Stop: 20, Score: 1}, {Start: 30, Stop: 40, Score: 2}})
	assert.NoError(t, err)
	data, err := scw.MarshalView(nil, v)
	assert.NoError(t, err)

	for _, bad := range [][]byte{
		nil,
		{0, 1},
		data[:len(data)-1],
		append(append([]byte{}, data...), 0),
	} {
		_, err := scw.UnmarshalView(bad)
		expect.True(t, errors.Cause(err) == scw.ErrCorrupt, "input %v: %v", bad, err)
	}

	// Swap the two starts so the windows are out of order.
	swapped := append([]byte{}, data...)
	copy(swapped[6:10], data[10:14])
	copy(swapped[10:14], data[6:10])
	_, err = scw.UnmarshalView(swapped)
	expect.True(t, errors.Cause(err) == scw.ErrCorrupt, "got %v", err)
}

func TestCompact(t *testing.T) {
	var input []iv
	for i := scw.PosType(0); i < 1000; i++ {
		input = append(input, iv{Start: i * 10, Stop: i*10 + 5, Score: float32(i % 3)})
	}
	v, err := scw.BuildFrom(scw.BuilderOpts{Encoding: scw.Generic}, input)
	assert.NoError(t, err)
	c, err := scw.Compact(v)
	assert.NoError(t, err)
	expect.EQ(t, c.Encoding(), scw.Generic)
	expect.EQ(t, c.Len(), v.Len())
	expect.True(t, c.Size() < 12*v.Len())
	got, err := c.Expand()
	assert.NoError(t, err)
	expect.True(t, scw.Equal(got, v))
}
