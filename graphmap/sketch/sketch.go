// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package sketch provides the reference Sketcher implementation the mapper
// drives per query segment (spec §4.4): a windowed minimizer sketch over a
// rolling 2-bit k-mer encoding. Grounded on fusion/kmer.go's kmerizer
// (rolling forward/reverse-complement 2-bit encoding) and
// fusion/kmer_index.go's farmhash-based key hash.
package sketch

import (
	"github.com/dgryski/go-farm"

	"github.com/grailbio/graphmap/graphmap"
)

var seqNt4Table [256]uint8

func init() {
	for i := range seqNt4Table {
		seqNt4Table[i] = 4
	}
	seqNt4Table['A'], seqNt4Table['a'] = 0, 0
	seqNt4Table['C'], seqNt4Table['c'] = 1, 1
	seqNt4Table['G'], seqNt4Table['g'] = 2, 2
	seqNt4Table['T'], seqNt4Table['t'] = 3, 3
}

// Default sketches seq into raw minimizers, appending to *out (spec §4.4).
// Each appended MM128 packs, pre-stitch: X = hash<<8 | span, Y = segID<<32 |
// (pos<<1 | strand). The minimizer collector (graphmap.collectMinimizers)
// later folds in the multi-segment coordinate offset.
func Default(seq []byte, w, k int, segID uint32, hpc bool, out *[]graphmap.MM128) {
	if k <= 0 || k > 28 {
		return
	}
	if w <= 0 {
		w = 1
	}
	if !hpc {
		ends := make([]uint32, len(seq))
		for i := range ends {
			ends[i] = uint32(i + 1)
		}
		sketchRaw(seq, ends, w, k, segID, out)
		return
	}
	compressed, ends := compressHomopolymers(seq)
	sketchRaw(compressed, ends, w, k, segID, out)
}

// compressHomopolymers collapses runs of a repeated base into one symbol
// (spec §4.4's "homopolymer-compressed" sketching mode), returning the
// collapsed sequence and, for each collapsed symbol, the original
// sequence's end position of its run — so the minimizer span can still be
// measured in original-sequence coordinates.
func compressHomopolymers(seq []byte) ([]byte, []uint32) {
	out := make([]byte, 0, len(seq))
	ends := make([]uint32, 0, len(seq))
	for i, ch := range seq {
		if len(out) > 0 && seqNt4Table[ch] < 4 && seqNt4Table[ch] == seqNt4Table[out[len(out)-1]] {
			ends[len(ends)-1] = uint32(i + 1)
			continue
		}
		out = append(out, ch)
		ends = append(ends, uint32(i+1))
	}
	return out, ends
}

type candidate struct {
	key    uint64
	pos    uint32
	span   uint8
	strand uint8
}

// sketchRaw runs a rolling 2-bit forward/reverse-complement k-mer encoding
// (fusion.kmerizer's idiom, generalized here to the single-strand-choice
// minimizer scheme instead of emitting both strands) through a monotonic
// sliding-window minimum — a deque kept non-decreasing front-to-back, which
// naturally emits every k-mer tied for a window's minimum exactly once, the
// source of the "tandem" duplicate-key runs the match collector looks for
// (spec §4.3) — rather than minimap2's original ring-buffer walk, which is
// equivalent but considerably more intricate to read.
func sketchRaw(seq []byte, ends []uint32, w, k int, segID uint32, out *[]graphmap.MM128) {
	if len(seq) < k {
		return
	}
	mask := uint64(1)<<(2*uint(k)) - 1
	shift1 := uint(2 * (k - 1))

	var kmerF, kmerR uint64
	l := 0

	var dq []candidate
	lastEmittedPos := int32(-1)
	nCandidates := 0

	flush := func() {
		if len(dq) == 0 {
			return
		}
		minKey := dq[0].key
		for _, d := range dq {
			if d.key != minKey {
				break
			}
			if int32(d.pos) > lastEmittedPos {
				*out = append(*out, graphmap.MM128{
					X: d.key<<8 | uint64(d.span),
					Y: uint64(segID)<<32 | uint64(d.pos)<<1 | uint64(d.strand),
				})
				lastEmittedPos = int32(d.pos)
			}
		}
	}

	for i := 0; i < len(seq); i++ {
		c := seqNt4Table[seq[i]]
		if c > 3 {
			kmerF, kmerR, l = 0, 0, 0
			dq = dq[:0]
			continue
		}
		kmerF = ((kmerF << 2) | uint64(c)) & mask
		kmerR = (kmerR >> 2) | (uint64(3-c) << shift1)
		if l < k {
			l++
		}
		if l < k {
			continue
		}

		startOrig := uint32(0)
		if i >= k {
			startOrig = ends[i-k]
		}
		span := ends[i] - startOrig
		if span > 255 {
			span = 255
		}

		var key uint64
		var strand uint8
		switch {
		case kmerF < kmerR:
			key, strand = farm.Hash64WithSeed(nil, kmerF), 0
		case kmerR < kmerF:
			key, strand = farm.Hash64WithSeed(nil, kmerR), 1
		default:
			continue // palindromic k-mer: skip, matching minimap2's convention
		}

		cand := candidate{key: key, pos: uint32(i), span: uint8(span), strand: strand}

		for len(dq) > 0 && dq[len(dq)-1].key > key {
			dq = dq[:len(dq)-1]
		}
		dq = append(dq, cand)
		for dq[0].pos+uint32(w) <= cand.pos {
			dq = dq[1:]
		}
		nCandidates++
		if nCandidates >= w {
			flush()
		}
	}
}
