// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graphmap

// collectMinimizers sketches every segment of a fragment and stitches their
// coordinates onto one contiguous query axis (spec §4.2), grounded on
// map.c's collect_minimizers combined with fusion/position.go's
// segment-offset idiom (generalized here from a fixed R1/R2 split to an
// arbitrary running offset, since SPEC_FULL.md allows up to MaxSeg segments).
func collectMinimizers(sketch Sketcher, segs [][]byte, k, w int, hpc bool) []MM128 {
	var mv []MM128
	sum := 0
	for i, seq := range segs {
		before := len(mv)
		sketch(seq, w, k, uint32(i), hpc, &mv)
		if sum > 0 {
			off := uint64(sum) << 1
			for j := before; j < len(mv); j++ {
				mv[j].Y += off
			}
		}
		sum += len(seq)
	}
	return mv
}
