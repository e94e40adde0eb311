// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graphmap

import "github.com/grailbio/graphmap/graphmap/arena"

// matchRecord is one retained index hit for a minimizer, ready for
// expansion into anchors (spec §3 "Match record", §4.3).
type matchRecord struct {
	n        int // len(postings); kept separately since postings may be nil for n==0
	qPos     uint32
	qSpan    uint8
	segID    uint32
	isTandem bool
	postings []uint64
}

// collectMatches implements the match collector (spec §4.3): for each
// minimizer, look the key up in idx; minimizers whose posting count meets or
// exceeds maxOcc are folded into the rolling repetitive-region accounting
// instead of being retained as a match. Grounded directly on map.c's
// collect_matches. The match array and mini_pos are arena-backed at their
// one safe upper bound, len(mv) (spec §3 "Lifecycle").
func collectMatches(a *arena.Arena, mv []MM128, maxOcc int, idx Index) (matches []matchRecord, nAnchorsTotal int64, repLen int, miniPos []uint64) {
	matches = allocMatchRecords(a, len(mv))
	miniPos = allocUint64(a, len(mv))[:0]

	repSt, repEn := 0, 0
	for i := range mv {
		key := mv[i].X >> 8
		qSpan := uint8(mv[i].X & 0xff)
		qPos := uint32(mv[i].Y)

		postings, count := idx.Get(key)
		if count >= maxOcc {
			en := int(qPos>>1) + 1
			st := en - int(qSpan)
			if st > repEn {
				repLen += repEn - repSt
				repSt, repEn = st, en
			} else {
				repEn = en
			}
			continue
		}

		isTandem := false
		if i > 0 && mv[i-1].X>>8 == key {
			isTandem = true
		}
		if i < len(mv)-1 && mv[i+1].X>>8 == key {
			isTandem = true
		}

		matches = append(matches, matchRecord{
			n:        count,
			qPos:     qPos,
			qSpan:    qSpan,
			segID:    uint32(mv[i].Y >> 32),
			isTandem: isTandem,
			postings: postings,
		})
		nAnchorsTotal += int64(count)
		miniPos = append(miniPos, uint64(qSpan)<<32|uint64(qPos>>1))
	}
	repLen += repEn - repSt
	return matches, nAnchorsTotal, repLen, miniPos
}
