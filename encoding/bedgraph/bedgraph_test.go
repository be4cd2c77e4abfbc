// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package bedgraph_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/scw/encoding/bedgraph"
	"github.com/grailbio/scw/genome"
	"github.com/grailbio/scw/interval"
	"github.com/grailbio/scw/scw"
	"github.com/grailbio/scw/scwlist"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

const testBedGraph = `track type=bedGraph name=test
# comment
chr1	0	10	2
chr1	5	15	3

chr1	20	30	-1.5
chrUn	0	10	1
chr2	100	200	4
`

func TestScanner(t *testing.T) {
	s := bedgraph.NewScanner(strings.NewReader(testBedGraph))
	var got []bedgraph.Record
	for s.Scan() {
		got = append(got, s.Record())
	}
	assert.NoError(t, s.Err())
	expect.EQ(t, got, []bedgraph.Record{
		{"chr1", 0, 10, 2},
		{"chr1", 5, 15, 3},
		{"chr1", 20, 30, -1.5},
		{"chrUn", 0, 10, 1},
		{"chr2", 100, 200, 4},
	})

	for _, bad := range []string{"chr1\t0\t10\n", "chr1\t10\t5\t1\n", "chr1\tx\t5\t1\n", "chr1\t0\t5\tscore\n"} {
		s := bedgraph.NewScanner(strings.NewReader(bad))
		expect.False(t, s.Scan())
		expect.NotNil(t, s.Err(), "input %q", bad)
	}
}

func TestLoad(t *testing.T) {
	g, err := genome.New([]genome.Chromosome{{Name: "chr1", Length: 100}, {Name: "chr2", Length: 1000}})
	assert.NoError(t, err)
	l, err := bedgraph.Load(strings.NewReader(testBedGraph), g, scwlist.BuildOpts{Encoding: scw.Generic, Op: scw.Maximum})
	assert.NoError(t, err)
	expect.EQ(t, scw.Intervals(l.View(0)), []interval.Interval{
		{Start: 0, Stop: 5, Score: 2},
		{Start: 5, Stop: 15, Score: 3},
		{Start: 20, Stop: 30, Score: -1.5},
	})

	_, err = bedgraph.Load(strings.NewReader("chr1\t50\t60\t1\nchr1\t40\t45\t1\n"), g, scwlist.DefaultBuildOpts)
	expect.True(t, errors.Cause(err) == scw.ErrOutOfOrder, "got %v", err)
}

func TestLoadPathGzip(t *testing.T) {
	ctx := vcontext.Background()
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	path := filepath.Join(tmpdir, "test.bedgraph.gz")
	f, err := os.Create(path)
	assert.NoError(t, err)
	w := gzip.NewWriter(f)
	_, err = w.Write([]byte(testBedGraph))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.NoError(t, f.Close())

	g, err := genome.New([]genome.Chromosome{{Name: "chr1", Length: 100}, {Name: "chr2", Length: 1000}})
	assert.NoError(t, err)
	l, err := bedgraph.LoadPath(ctx, path, g, scwlist.BuildOpts{Encoding: scw.Mask})
	assert.NoError(t, err)
	expect.EQ(t, scw.Intervals(l.View(0)), []interval.Interval{
		{Start: 0, Stop: 15, Score: 1},
		{Start: 20, Stop: 30, Score: 1},
	})
	expect.EQ(t, scw.Intervals(l.View(1)), []interval.Interval{{Start: 100, Stop: 200, Score: 1}})
}
