// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package refidx provides a reference Index implementation (spec §4.3,
// §6): a 256-way sharded, linear-probing minimizer-key -> posting-list
// table, grounded on fusion/kmer_index.go's kmerIndex/kmerIndexShard. Unlike
// the teacher, this table holds plain Go slices rather than mmap'd,
// madvise(MADV_HUGEPAGE) anonymous regions — no SPEC_FULL.md component
// needs index construction or lookup to run at genome-index scale, so the
// extra unsafe.Pointer bookkeeping would buy nothing here (see DESIGN.md).
package refidx

import (
	"sort"

	"github.com/grailbio/graphmap/graphmap"
)

const (
	nShards       = 256
	invalidBucket = ^uint32(0)
)

// entry is one occupied bucket slot: a minimizer key plus the half-open
// range of postings it owns inside that shard's flat postings array.
type entry struct {
	key        uint64
	start, end uint32
}

type shard struct {
	nShift   uint32  // table has 1<<(64-nShift) buckets; bucket = key>>nShift
	buckets  []int32 // bucket -> index into entries, or -1 if empty
	entries  []entry
	postings []uint64
}

// Table is a read-only minimizer posting-list index (graphmap.Index). Build
// one with a Builder; Table itself has no mutating methods.
type Table struct {
	shards  [nShards]shard
	segs    []string
	k, w    int
	idxFlag graphmap.IndexFlag
}

var _ graphmap.Index = (*Table)(nil)

// Get implements graphmap.Index (spec §4.3): linear-probe the key's shard
// for an occupied bucket holding this exact key, per
// fusion/kmer_index.go's kmerIndex.get.
func (t *Table) Get(key uint64) ([]uint64, int) {
	sh := &t.shards[key&(nShards-1)]
	if len(sh.buckets) == 0 {
		return nil, 0
	}
	mask := uint32(len(sh.buckets) - 1)
	b := uint32(key>>sh.nShift) & mask
	for probes := 0; probes <= maxCollisions; probes++ {
		idx := sh.buckets[b]
		if idx < 0 {
			return nil, 0
		}
		e := &sh.entries[idx]
		if e.key == key {
			p := sh.postings[e.start:e.end]
			return p, len(p)
		}
		b = (b + 1) & mask
	}
	return nil, 0
}

const maxCollisions = 64

// SegName implements graphmap.Index.
func (t *Table) SegName(id uint32) string {
	if int(id) >= len(t.segs) {
		return ""
	}
	return t.segs[id]
}

// Params implements graphmap.Index.
func (t *Table) Params() (k, w int, flag graphmap.IndexFlag) { return t.k, t.w, t.idxFlag }

// sortPostings sorts and dedups one key's posting list in place, returning
// the deduped prefix of p. Grounded on fusion/kmer_index.go's initShard, which
// sort.SliceStables then dedups each kmer's gene list before inlining it;
// biogo/store/llrb's Tree (the teacher's only other sorted-container
// dependency, confirmed via encoding/bampair/shard_info.go) exposes no bulk
// in-order traversal in any example read for this pack, so reusing it here
// would require guessing at an API this session cannot verify compiles —
// sort.Slice is the grounded, confidently-correct choice (see DESIGN.md).
func sortPostings(p []uint64) []uint64 {
	sort.Slice(p, func(i, j int) bool { return p[i] < p[j] })
	n := 1
	for i := 1; i < len(p); i++ {
		if p[i] != p[n-1] {
			p[n] = p[i]
			n++
		}
	}
	return p[:n]
}
