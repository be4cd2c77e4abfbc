// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package display

import (
	"github.com/grailbio/scw/interval"
	"github.com/grailbio/scw/scw"
	"github.com/pkg/errors"
)

var errSuperseded = errors.New("superseded by a newer request")

// supersessionCheckInterval is the number of groups reduce forms between
// supersession checks.
const supersessionCheckInterval = 1 << 12

// reduce merges the windows of v into groups at least one pixel (1/xRatio
// bases) wide.  A group grows while it's narrower than a pixel and the gap to
// the next window is narrower than a pixel.  Its score is the length-weighted
// mean of its nonzero windows; zero windows only extend its span, and groups
// without any nonzero window are dropped.  Finally, consecutive groups with
// the same score less than a pixel apart are joined.
//
// stale, if non-nil, is polled periodically; reduce returns errSuperseded once
// it returns true.
func reduce(v scw.View, xRatio float64, stale func() bool) (scw.View, error) {
	width := 1 / xRatio
	b, err := scw.NewBuilder(scw.BuilderOpts{Encoding: scw.Generic})
	if err != nil {
		return nil, err
	}
	var (
		pending    interval.Interval
		hasPending bool
	)
	emit := func(iv interval.Interval) error {
		if hasPending {
			if iv.Score == pending.Score && float64(iv.Start-pending.Stop) < width {
				pending.Stop = iv.Stop
				return nil
			}
			if err := b.Add(pending.Start, pending.Stop, pending.Score); err != nil {
				return err
			}
		}
		pending, hasPending = iv, true
		return nil
	}
	n := v.Len()
	for i, nGroup := 0, 0; i < n; nGroup++ {
		if stale != nil && nGroup%supersessionCheckInterval == supersessionCheckInterval-1 && stale() {
			return nil, errSuperseded
		}
		first := v.At(i)
		group := interval.Interval{Start: first.Start, Stop: first.Stop}
		var area float64
		var covered int64
		for {
			iv := v.At(i)
			group.Stop = iv.Stop
			if iv.Score != 0 {
				area += float64(iv.Score) * float64(iv.Len())
				covered += int64(iv.Len())
			}
			i++
			if i >= n || float64(group.Len()) >= width {
				break
			}
			if next := v.At(i); float64(next.Start-group.Stop) >= width {
				break
			}
		}
		if covered == 0 {
			continue
		}
		group.Score = float32(area / float64(covered))
		if group.Score == 0 {
			continue
		}
		if err := emit(group); err != nil {
			return nil, err
		}
	}
	if hasPending {
		if err := b.Add(pending.Start, pending.Stop, pending.Score); err != nil {
			return nil, err
		}
	}
	return b.Build()
}
