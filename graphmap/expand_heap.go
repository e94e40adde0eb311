// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graphmap

import (
	"container/heap"

	"github.com/grailbio/graphmap/graphmap/arena"
)

// heapItem is one k-way-merge cursor: the current posting value (the X the
// merge is ordered on) plus the match it came from and the match's own
// posting-array cursor (spec §4.8).
type heapItem struct {
	r uint64
	m int
	j int
}

// mergeHeap is a min-heap on the raw posting value, implemented with
// container/heap rather than a hand-rolled sift (see DESIGN.md's
// "container/heap" note): the merge policy — what gets compared, and where
// forward vs. reverse anchors land — is the part worth writing out by hand,
// not the heap mechanics.
type mergeHeap []heapItem

func (h mergeHeap) Len() int            { return len(h) }
func (h mergeHeap) Less(i, j int) bool  { return h[i].r < h[j].r }
func (h mergeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }
func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// expandHeap implements the k-way heap merge anchor expander (spec §4.8): a
// single ascending pass over every match's postings, with forward anchors
// compacted in from the front and reverse anchors compacted in from the
// back (descending), avoiding the direct expander's separate sort pass.
// Grounded on map.c's heap-merge branch of mm_map_frag.
func expandHeap(ar *arena.Arena, matches []matchRecord, nAnchorsTotal int64, qlenSum int, flag OptFlag, qname string, idx Index) []MM128 {
	n := int(nAnchorsTotal)
	anchors := allocMM128(ar, n)

	h := make(mergeHeap, 0, len(matches))
	for mi := range matches {
		if matches[mi].n > 0 {
			h = append(h, heapItem{r: matches[mi].postings[0], m: mi, j: 0})
		}
	}
	heap.Init(&h)

	nFor, nRev := 0, 0
	for h.Len() > 0 {
		m := &matches[h[0].m]
		r := h[0].r

		if !skipSeed(flag, r, m.qPos, qname, qlenSum, idx) {
			anc := makeAnchor(r, m, qlenSum)
			if AnchorIsReverse(anc.X) {
				nRev++
				anchors[n-nRev] = anc
			} else {
				anchors[nFor] = anc
				nFor++
			}
		}

		if h[0].j < m.n-1 {
			h[0].j++
			h[0].r = m.postings[h[0].j]
			heap.Fix(&h, 0)
		} else {
			heap.Pop(&h)
		}
	}

	// The reverse block at the tail was filled descending; flip it in place.
	for lo, hi := n-nRev, n-1; lo < hi; lo, hi = lo+1, hi-1 {
		anchors[lo], anchors[hi] = anchors[hi], anchors[lo]
	}

	// skipSeed may have dropped entries, leaving a gap between the forward
	// and reverse blocks; slide the reverse block down to close it.
	if nFor+nRev < n {
		copy(anchors[nFor:nFor+nRev], anchors[n-nRev:n])
	}
	return anchors[:nFor+nRev]
}
