// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package chain provides reference ChainDP and ChainGen implementations
// (spec §4.9): DefaultDP is intentionally simple, a single forward pass
// bounded by maxSkip candidates per anchor, not the banded/affine-scored
// production algorithm a real aligner would use — the chaining DP's
// sophistication is a non-goal, its contract is not. Grounded on
// original_source/map.c's mg_chain_dp and mg_chain_gen, generalized here to
// the module's own anchor bit layout and arbitrary MaxSeg segment count.
package chain

import (
	"sort"

	"github.com/grailbio/graphmap/graphmap"
)

// DefaultDP implements graphmap.ChainDP.
func DefaultDP(gapRef, gapQry, bw, maxSkip, minCnt int, minScore float64,
	splice bool, nSegs int, anchors []graphmap.MM128) (reordered []graphmap.MM128, u []uint64) {
	_ = splice
	_ = nSegs
	n := len(anchors)
	if n == 0 {
		return nil, nil
	}

	score := make([]int32, n)
	pred := make([]int32, n)
	for i := range pred {
		pred[i] = -1
	}

	for i := 0; i < n; i++ {
		span := int32(graphmap.AnchorSpan(anchors[i].Y))
		score[i] = span
		best := int32(-1)
		bestScore := int32(0)

		lo := i - maxSkip
		if lo < 0 {
			lo = 0
		}
		for j := i - 1; j >= lo; j-- {
			if graphmap.AnchorIsReverse(anchors[j].X) != graphmap.AnchorIsReverse(anchors[i].X) {
				continue // strand mismatch: DefaultDP never links across strands
			}
			dr := int64(graphmap.AnchorRefPos(anchors[i].X)) - int64(graphmap.AnchorRefPos(anchors[j].X))
			if dr < 0 || dr > int64(gapRef) {
				continue
			}
			dq := int64(graphmap.AnchorQEnd(anchors[i].Y)) - int64(graphmap.AnchorQEnd(anchors[j].Y))
			if dq < 0 || dq > int64(gapQry) {
				continue
			}
			if d := dr - dq; d < -int64(bw) || d > int64(bw) {
				continue
			}
			if s := score[j] + span; s > bestScore {
				bestScore, best = s, int32(j)
			}
		}
		if best >= 0 {
			score[i] = bestScore
			pred[i] = best
		}
	}

	used := make([]bool, n)
	type chainHead struct {
		end   int32
		score int32
	}
	var heads []chainHead
	for i := 0; i < n; i++ {
		heads = append(heads, chainHead{int32(i), score[i]})
	}
	sort.SliceStable(heads, func(a, b int) bool { return heads[a].score > heads[b].score })

	reordered = make([]graphmap.MM128, 0, n)
	for _, h := range heads {
		if used[h.end] {
			continue
		}
		var run []int32
		for i := h.end; i >= 0; i = pred[i] {
			if used[i] {
				run = nil
				break
			}
			run = append(run, i)
			if pred[i] < 0 {
				break
			}
		}
		if len(run) == 0 {
			continue
		}
		if len(run) < minCnt || float64(h.score) < minScore {
			continue
		}
		for _, i := range run {
			used[i] = true
		}
		for k := len(run) - 1; k >= 0; k-- {
			reordered = append(reordered, anchors[run[k]])
		}
		u = append(u, uint64(uint32(h.score))<<32|uint64(uint32(len(run))))
	}
	return reordered, u
}

// DefaultGen implements graphmap.ChainGen.
func DefaultGen(hash uint32, qlenSum int, u []uint64, anchors []graphmap.MM128) []graphmap.Region {
	_ = qlenSum
	var regions []graphmap.Region
	off := 0
	for _, ui := range u {
		cnt := int(uint32(ui))
		score := int32(ui >> 32)
		if off+cnt > len(anchors) {
			break
		}
		run := anchors[off : off+cnt]
		first, last := run[0], run[cnt-1]
		qs := int(graphmap.AnchorQEnd(first.Y)) - int(graphmap.AnchorSpan(first.Y))
		qe := int(graphmap.AnchorQEnd(last.Y))
		if qs < 0 {
			qs = 0
		}
		regions = append(regions, graphmap.Region{
			QS:    qs,
			QE:    qe,
			Rev:   graphmap.AnchorIsReverse(first.X),
			As:    off,
			Cnt:   cnt,
			Score: score,
			Hash:  hash,
		})
		off += cnt
	}
	return regions
}
