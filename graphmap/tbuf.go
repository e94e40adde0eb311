// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graphmap

import (
	"github.com/minio/highwayhash"

	"github.com/grailbio/graphmap/graphmap/arena"
)

// TBuf is the per-thread scratch buffer the mapper requires (spec §6):
// one Arena plus the last call's diagnostic counters. The pipeline gives
// each worker slot exactly one TBuf for the fragments of one batch, and
// destroys it when that batch's free stage runs.
type TBuf struct {
	arena *arena.Arena

	// RepLen and FragGap are set at the end of each MapFrag call (spec §4.10
	// step 7): the repetitive-region length folded in by the match collector,
	// and the reference-side chaining gap bound actually used.
	RepLen  int
	FragGap int

	// ContentHash is a highwayhash digest of the last-mapped fragment's raw
	// sequence bytes, surfaced for callers that want a cheap dedup/cache key
	// independent of the spec-mandated X31+Wang query fingerprint (which
	// stays plain arithmetic so its bit pattern matches exactly). Grounded on
	// fusion/postprocess.go's groupCandidatesByGenePair, which hashes a byte
	// buffer the same way for fusion-candidate dedup.
	ContentHash [highwayhash.Size]uint8
}

var zeroHashKey [highwayhash.Size]uint8

// hashFragmentContent digests a fragment's concatenated segment bytes.
func hashFragmentContent(seqs [][]byte) [highwayhash.Size]uint8 {
	if len(seqs) == 1 {
		return highwayhash.Sum(seqs[0], zeroHashKey[:])
	}
	var buf []byte
	for _, s := range seqs {
		buf = append(buf, s...)
	}
	return highwayhash.Sum(buf, zeroHashKey[:])
}

// NewTBuf allocates a fresh per-thread buffer.
func NewTBuf() *TBuf {
	return &TBuf{arena: arena.New(false)}
}

// Arena returns the buffer's scratch allocator.
func (b *TBuf) Arena() *arena.Arena { return b.arena }

// Destroy asserts the arena carries no outstanding allocations and releases
// it. Calling Destroy while a MapFrag call is in flight on this buffer is a
// programming error (same contract as the original's km destruction).
func (b *TBuf) Destroy() {
	b.arena.AssertNoLeak()
}

// maybeTeardown recreates the arena once its high-water mark crosses the
// 256MiB threshold (spec §4.10 step 9, §5), bounding long-tail growth across
// a long-running pipeline.
func (b *TBuf) maybeTeardown() {
	b.arena = b.arena.MaybeTeardown()
}
