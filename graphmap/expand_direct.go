// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graphmap

import "github.com/grailbio/graphmap/graphmap/arena"

// expandDirect implements the direct anchor expander (spec §4.5/§4.7):
// allocate the full nAnchorsTotal anchor array up front, fan every match's
// postings out into it applying the strand filter, then sort ascending by X.
// Grounded on map.c's non-heap expansion branch of mm_map_frag.
func expandDirect(ar *arena.Arena, matches []matchRecord, nAnchorsTotal int64, qlenSum int, flag OptFlag, qname string, idx Index) []MM128 {
	anchors := allocMM128(ar, int(nAnchorsTotal))[:0]
	for mi := range matches {
		m := &matches[mi]
		for _, r := range m.postings {
			if skipSeed(flag, r, m.qPos, qname, qlenSum, idx) {
				continue
			}
			anchors = append(anchors, makeAnchor(r, m, qlenSum))
		}
	}
	radixSortByX(anchors)
	return anchors
}

// makeAnchor builds one post-expansion anchor from a posting-list entry and
// its originating match (spec §4.5/§4.7). A posting r packs, from the low
// bit up: bit 0 a strand-parity bit, bits 32..1 the reference position,
// bits 62..33 the reference segment id (graphmap/refidx.Table's encoding,
// documented on refidx.Builder.Add).
func makeAnchor(r uint64, m *matchRecord, qlenSum int) MM128 {
	forward := (r & 1) == uint64(m.qPos&1)

	// x keeps the posting's own bit layout (ref position at bits 32..1, strand
	// parity cleared) rather than map.c's packed bits 30..0: this posting
	// format is graphmap/refidx.Table's, not the original's, so a literal
	// ref position here reads as 2x the original's x_low32 (e.g. 2000 where
	// map.c's scenario 2 states 1000). AnchorRefPos/DefaultDP divide back out
	// consistently, so chaining is unaffected.
	x := r &^ uint64(1)
	var qEnd uint32
	if forward {
		qEnd = m.qPos >> 1
	} else {
		x |= uint64(1) << 63
		qEnd = uint32(qlenSum) - ((m.qPos>>1)+1-uint32(m.qSpan)) - 1
	}
	y := packAnchorY(m.qSpan, m.segID, m.isTandem, qEnd)
	return MM128{X: x, Y: y}
}

// radixSortByX is an 8-pass byte-wise LSD radix sort over the anchor array's
// X lane, grounded on the teacher's bit-packed-struct-plus-unsafe idiom used
// throughout fusion.kmerIndex and biosimd: anchor volumes are large enough
// (millions per batch) that an LSD radix sort's linear passes beat
// comparison sort's log factor, and X's unsignedness makes byte-wise
// bucketing a direct fit with no sign handling required.
func radixSortByX(a []MM128) {
	n := len(a)
	if n < 2 {
		return
	}
	buf := make([]MM128, n)
	src, dst := a, buf
	var count [256]int
	for shift := uint(0); shift < 64; shift += 8 {
		for i := range count {
			count[i] = 0
		}
		for i := range src {
			count[byte(src[i].X>>shift)]++
		}
		sum := 0
		for i := range count {
			c := count[i]
			count[i] = sum
			sum += c
		}
		for i := range src {
			b := byte(src[i].X >> shift)
			dst[count[b]] = src[i]
			count[b]++
		}
		src, dst = dst, src
	}
	// 8 passes over 64 bits, an even count, leaves the fully sorted data
	// back in a: src/dst swap every pass, so src returns to a every 2.
}
