// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graphmap

// Sketcher is the external collaborator from spec §4.4/§6: it sketches one
// query segment into a vector of raw (pre-stitch) minimizers. graphmap/sketch
// provides a reference implementation; the minimizer collector (minimizer.go)
// drives it per-segment and performs the multi-segment coordinate stitching
// that stays part of this module's core (spec §4.2).
type Sketcher func(seq []byte, w, k int, segID uint32, hpc bool, out *[]MM128)

// Region is the chain-generator's output (spec §4.9/§6): a query/reference
// interval and orientation for one linear chain.
type Region struct {
	QS, QE int    // query interval [QS, QE), on the stitched query axis
	Rev    bool   // true if the chain is on the reverse strand
	As     int    // offset of the chain's first anchor in the (reordered) anchor array
	Cnt    int    // number of anchors in the chain
	Score  int32  // chain score, copied from u[i]>>32
	Hash   uint32 // the fragment's stable fingerprint, for deterministic tie-break
}

// ChainDP is the chaining dynamic-program contract (spec §4.9/§6). anchors
// must already be partitioned [forward...|reverse...] and sorted ascending
// by X within each partition (the anchor-expander invariant, spec §3).
//
// u[i] = score<<32 | anchorCount, and the reordered anchors for chain i
// occupy a contiguous run of reordered[]; offsets are cumulative anchorCount
// sums across preceding chains, exactly as in the original's u/a convention.
type ChainDP func(gapRef, gapQry, bw, maxSkip, minCnt int, minScore float64,
	splice bool, nSegs int, anchors []MM128) (reordered []MM128, u []uint64)

// ChainGen is the chain-to-region contract (spec §4.9/§6).
type ChainGen func(hash uint32, qlenSum int, u []uint64, anchors []MM128) []Region
