// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graphmap

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChainDP returns every anchor as its own single-anchor chain, in the
// order it was given (sufficient to drive mapJoint's plumbing without
// pulling in a real chaining DP).
func fakeChainDP(gapRef, gapQry, bw, maxSkip, minCnt int, minScore float64,
	splice bool, nSegs int, anchors []MM128) ([]MM128, []uint64) {
	u := make([]uint64, len(anchors))
	for i := range anchors {
		u[i] = uint64(1)<<32 | 1
	}
	return anchors, u
}

func fakeChainGen(hash uint32, qlenSum int, u []uint64, anchors []MM128) []Region {
	var regions []Region
	off := 0
	for range u {
		regions = append(regions, Region{QS: off, QE: off + 1, As: off, Cnt: 1, Hash: hash})
		off++
	}
	return regions
}

func fakeSketcher(seq []byte, w, k int, segID uint32, hpc bool, out *[]MM128) {
	// One fixed minimizer per segment, keyed on segID so each segment's
	// sketch is distinguishable.
	*out = append(*out, mkMini(uint64(1000+segID), 20, 0, segID))
}

func testOptions() *Options {
	opt := DefaultOptions
	opt.ChainDP = fakeChainDP
	opt.ChainGen = fakeChainGen
	opt.Sketcher = fakeSketcher
	return &opt
}

func TestMapNoHitReturnsNil(t *testing.T) {
	idx := &fakeIndex{postings: map[uint64][]uint64{}}
	buf := NewTBuf()
	out := Map(idx, 100, []byte("ACGT"), testOptions(), buf, "r1")
	assert.Nil(t, out)
	buf.Destroy()
}

func TestMapSingleForwardHit(t *testing.T) {
	idx := &fakeIndex{postings: map[uint64][]uint64{1000: {0 | 500<<1}}}
	buf := NewTBuf()
	out := Map(idx, 100, []byte("ACGT"), testOptions(), buf, "r1")
	require.Len(t, out, 1)
	buf.Destroy()
}

func TestMapFragJointStitchesSegments(t *testing.T) {
	idx := &fakeIndex{postings: map[uint64][]uint64{
		1000: {0 | 500<<1},
		1001: {0 | 600<<1},
	}}
	buf := NewTBuf()
	out := MapFrag(idx, []int{50, 60}, [][]byte{[]byte("AAAA"), []byte("CCCC")}, testOptions(), buf, "frag1")
	require.Len(t, out, 2)
	buf.Destroy()
}

func TestMapFragIndependentSegmentsRecurse(t *testing.T) {
	idx := &fakeIndex{postings: map[uint64][]uint64{
		1000: {0 | 500<<1},
		1001: {0 | 600<<1},
	}}
	opt := testOptions()
	opt.Flag |= OptIndependSeg
	buf := NewTBuf()
	out := MapFrag(idx, []int{50, 60}, [][]byte{[]byte("AAAA"), []byte("CCCC")}, opt, buf, "frag1")
	require.Len(t, out, 2)
	assert.Len(t, out[0], 1)
	assert.Len(t, out[1], 1)
	buf.Destroy()
}

func TestMapFragRejectsOversizedFragment(t *testing.T) {
	idx := &fakeIndex{postings: map[uint64][]uint64{}}
	opt := testOptions()
	opt.MaxQlen = 10
	buf := NewTBuf()
	out := MapFrag(idx, []int{100}, [][]byte{[]byte("ACGT")}, opt, buf, "r1")
	assert.Nil(t, out[0])
	buf.Destroy()
}

func TestMapFragRejectsTooManySegments(t *testing.T) {
	idx := &fakeIndex{postings: map[uint64][]uint64{}}
	buf := NewTBuf()
	qlens := make([]int, MaxSeg+1)
	seqs := make([][]byte, MaxSeg+1)
	for i := range qlens {
		qlens[i] = 10
		seqs[i] = []byte("ACGT")
	}
	out := MapFrag(idx, qlens, seqs, testOptions(), buf, "r1")
	for _, r := range out {
		assert.Nil(t, r)
	}
	buf.Destroy()
}

func TestEmitDebugWritesRecords(t *testing.T) {
	idx := &fakeIndex{postings: map[uint64][]uint64{1000: {0 | 500<<1}}}
	var b bytes.Buffer
	opt := testOptions()
	opt.Flag |= OptPrintSeed
	opt.DebugWriter = &b
	buf := NewTBuf()
	Map(idx, 100, []byte("ACGT"), opt, buf, "r1")
	buf.Destroy()
	assert.Contains(t, b.String(), "RS\t")
	assert.Contains(t, b.String(), "CN\t")
}

func TestArenaHasNoLeakAfterMapFrag(t *testing.T) {
	idx := &fakeIndex{postings: map[uint64][]uint64{1000: {0 | 500<<1}}}
	buf := NewTBuf()
	MapFrag(idx, []int{100}, [][]byte{[]byte("ACGT")}, testOptions(), buf, "r1")
	buf.Arena().AssertNoLeak() // must not panic: every transient array was freed
	buf.Destroy()
}
