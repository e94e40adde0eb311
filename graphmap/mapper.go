// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graphmap

import (
	"io"

	"github.com/grailbio/graphmap/graphmap/debug"
)

// Map maps one single-segment query (spec §6, the common case). It is a
// thin convenience wrapper over MapFrag.
func Map(idx Index, qlen int, seq []byte, opt *Options, buf *TBuf, qname string) []Region {
	out := MapFrag(idx, []int{qlen}, [][]byte{seq}, opt, buf, qname)
	if len(out) == 0 {
		return nil
	}
	return out[0]
}

// MapFrag maps a fragment of 1..MaxSeg segments against idx (spec §4.10,
// §6). The returned slice has one entry per input segment; with
// OptIndependSeg set, each segment is mapped independently (simple
// recursion into the nSegs==1 case below), otherwise all segments are
// sketched and chained jointly on one stitched query axis and each
// resulting region is bucketed under the segment its first anchor came
// from.
func MapFrag(idx Index, qlens []int, seqs [][]byte, opt *Options, buf *TBuf, qname string) [][]Region {
	nSegs := len(qlens)
	if opt.Flag&OptIndependSeg != 0 && nSegs > 1 {
		out := make([][]Region, nSegs)
		for i := range qlens {
			sub := MapFrag(idx, qlens[i:i+1], seqs[i:i+1], opt, buf, qname)
			if len(sub) > 0 {
				out[i] = sub[0]
			}
		}
		return out
	}
	return mapJoint(idx, qlens, seqs, opt, buf, qname)
}

// mapJoint implements spec §4.10's nine-step pipeline for one jointly
// chained fragment.
func mapJoint(idx Index, qlens []int, seqs [][]byte, opt *Options, buf *TBuf, qname string) [][]Region {
	nSegs := len(qlens)
	out := make([][]Region, nSegs)

	// Step 1: pre-check.
	buf.RepLen, buf.FragGap = 0, 0
	qlenSum := 0
	for _, l := range qlens {
		qlenSum += l
	}
	if qlenSum == 0 || nSegs == 0 || nSegs > MaxSeg || (opt.MaxQlen > 0 && qlenSum > opt.MaxQlen) {
		return out
	}

	// Step 2: fingerprint.
	hash := fragmentFingerprint(qname, qlenSum, opt.Seed)
	buf.ContentHash = hashFragmentContent(seqs)

	k, w, idxFlag := idx.Params()
	hpc := idxFlag&IndexHPC != 0
	a := buf.Arena()

	mv := collectMinimizers(opt.Sketcher, seqs, k, w, hpc)

	expand := func(occCap int) ([]MM128, []uint64, int) {
		matches, nAnchorsTotal, repLen, miniPos := collectMatches(a, mv, occCap, idx)
		var anchors []MM128
		if opt.Flag&OptHeapSort != 0 {
			anchors = expandHeap(a, matches, nAnchorsTotal, qlenSum, opt.Flag, qname, idx)
		} else {
			anchors = expandDirect(a, matches, nAnchorsTotal, qlenSum, opt.Flag, qname, idx)
		}
		freeMatchRecords(a, matches)
		return anchors, miniPos, repLen
	}

	// Step 4: chain gap bounds.
	maxChainGapQry := opt.MaxGap
	if opt.Flag&OptSR != 0 && qlenSum > maxChainGapQry {
		maxChainGapQry = qlenSum
	}
	maxChainGapRef := opt.MaxGapRef
	if maxChainGapRef == 0 {
		if opt.MaxFragLen > 0 {
			maxChainGapRef = opt.MaxFragLen - qlenSum
			if maxChainGapRef < opt.MaxGap {
				maxChainGapRef = opt.MaxGap
			}
		} else {
			maxChainGapRef = opt.MaxGap
		}
	}

	// Step 3: sketch -> matches -> anchors, at the conservative cap.
	anchors, miniPos, repLen := expand(opt.MidOcc)

	// Step 5: chain.
	reordered, u := opt.ChainDP(maxChainGapRef, maxChainGapQry, opt.Bw, opt.MaxChainSkip,
		opt.MinLcCnt, opt.MinLcScore, opt.Flag&OptSplice != 0, nSegs, anchors)

	// Step 6: adaptive rechain. Never reuse the conservative pass's partial
	// chains — start entirely from scratch at the permissive cap.
	if opt.MaxOcc > opt.MidOcc && repLen > 0 {
		if bestChainSegCoverage(reordered, u) < nSegs {
			freeMM128(a, anchors)
			freeUint64(a, miniPos)
			anchors, miniPos, repLen = expand(opt.MaxOcc)
			reordered, u = opt.ChainDP(maxChainGapRef, maxChainGapQry, opt.Bw, opt.MaxChainSkip,
				opt.MinLcCnt, opt.MinLcScore, opt.Flag&OptSplice != 0, nSegs, anchors)
		}
	}

	// Step 7: record diagnostics.
	buf.RepLen, buf.FragGap = repLen, maxChainGapRef

	// Step 8: region generation, then bucket by originating segment while
	// reordered is still live (it may alias the anchors array about to be
	// freed in step 9).
	regions := opt.ChainGen(hash, qlenSum, u, reordered)
	for _, r := range regions {
		seg := 0
		if r.As >= 0 && r.As < len(reordered) {
			seg = int(AnchorSegID(reordered[r.As].Y))
		}
		if seg >= nSegs {
			seg = nSegs - 1
		}
		out[seg] = append(out[seg], r)
	}

	if opt.Flag&OptPrintSeed != 0 && opt.DebugWriter != nil {
		emitDebug(opt.DebugWriter, idx, reordered, u, repLen)
	}

	// Step 9: free transient arrays and maybe tear down the arena.
	freeMM128(a, anchors)
	freeUint64(a, miniPos)
	a.AssertNoLeak()
	buf.maybeTeardown()

	return out
}

// bestChainSegCoverage finds the highest-scoring chain in u and returns how
// many distinct query segments its anchors span (spec §4.10 step 6).
func bestChainSegCoverage(reordered []MM128, u []uint64) int {
	if len(u) == 0 {
		return 0
	}
	best, bestScore := 0, int32(u[0]>>32)
	for i := 1; i < len(u); i++ {
		if s := int32(u[i] >> 32); s > bestScore {
			bestScore, best = s, i
		}
	}
	off := 0
	for i := 0; i < best; i++ {
		off += int(uint32(u[i]))
	}
	cnt := int(uint32(u[best]))
	if off+cnt > len(reordered) {
		cnt = len(reordered) - off
	}
	seen := make(map[uint32]bool, MaxSeg)
	for _, anc := range reordered[off : off+cnt] {
		seen[AnchorSegID(anc.Y)] = true
	}
	return len(seen)
}

// emitDebug writes the PrintSeed diagnostic records for one fragment (spec
// §6).
func emitDebug(w io.Writer, idx Index, reordered []MM128, u []uint64, repLen int) {
	debug.EmitRepLen(w, repLen)
	off := 0
	for chainID, ui := range u {
		cnt := int(uint32(ui))
		score := int32(ui >> 32)
		debug.EmitChain(w, chainID, cnt, score)
		for _, anc := range reordered[off : off+cnt] {
			debug.EmitSeed(w, idx.SegName(AnchorRefSegID(anc.X)), AnchorRefPos(anc.X),
				AnchorIsReverse(anc.X), AnchorQEnd(anc.Y), AnchorSpan(anc.Y), 0)
		}
		off += cnt
	}
}
