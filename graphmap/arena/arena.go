// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package arena implements a per-thread scratch allocator for the fragment
// mapper. The match array, anchor array and mini_pos made while mapping one
// fragment come from an Arena and are returned before the mapper call
// returns; the minimizer vector stays on the Go heap. The end-of-call leak
// check (NBlocks == 0, i.e. every block ever allocated is back on a free
// list) replaces manual allocation bookkeeping with a single invariant.
package arena

import (
	"github.com/grailbio/base/log"
)

// highWaterTeardown is the largest single block an Arena may hand out before
// the caller is expected to destroy and recreate it (spec §4.1, §5).
const highWaterTeardown = 1 << 28

// minClassBytes is the smallest size class. Allocations are bucketed the same way a general-purpose bump
// allocator with per-size free lists would: round up to the next power of
// two above a small floor, so repeated same-shape requests (one minimizer
// vector per fragment, one match array, one anchor array) recycle the same
// block instead of growing the heap every call.
const minClassBytes = 64

// Stats mirrors the original implementation's km_stat_t: enough information
// to drive the leak assertion and the high-water teardown decision.
type Stats struct {
	Capacity int // total bytes held across all size classes
	NBlocks  int // blocks currently checked out
	NCores   int // blocks allocated total (all of them on free lists at a clean call boundary)
	Largest  int // largest single allocation ever served
}

// Arena is a per-thread region allocator. It is not safe for concurrent use
// by multiple goroutines; the pipeline gives each worker its own Arena via
// TBuf (spec §5: "no cross-thread sharing of arenas").
type Arena struct {
	classes map[int]*class
	cores   int // monotonic count of blocks ever allocated (for NCores)
	largest int
	noArena bool // debug mode: bypass pooling and go straight to the Go heap
}

type class struct {
	size int
	free [][]byte
	out  int // blocks currently checked out from this class
}

// New creates an Arena. If noArena is true, Alloc/Free fall back to the Go
// runtime allocator on every call — useful under the race detector or when
// debugging a suspected arena bug, mirroring the original's km==nil sentinel
// mode.
func New(noArena bool) *Arena {
	return &Arena{classes: make(map[int]*class), noArena: noArena}
}

func classSize(n int) int {
	size := minClassBytes
	for size < n {
		size <<= 1
	}
	return size
}

// Alloc returns a []byte of length n, reused from a free list when possible.
func (a *Arena) Alloc(n int) []byte {
	if n > a.largest {
		a.largest = n
	}
	if a.noArena {
		return make([]byte, n)
	}
	size := classSize(n)
	c := a.classes[size]
	if c == nil {
		c = &class{size: size}
		a.classes[size] = c
	}
	var buf []byte
	if l := len(c.free); l > 0 {
		buf = c.free[l-1]
		c.free = c.free[:l-1]
	} else {
		buf = make([]byte, size)
		a.cores++
	}
	c.out++
	return buf[:n]
}

// Free returns a block to its size class's free list. The slice must have
// been returned by Alloc on this Arena (or be nil, a no-op).
func (a *Arena) Free(buf []byte) {
	if a.noArena || buf == nil {
		return
	}
	size := classSize(cap(buf))
	c := a.classes[size]
	if c == nil || c.out == 0 {
		log.Panicf("arena: freeing a block from an unknown size class (cap=%d)", cap(buf))
	}
	c.out--
	c.free = append(c.free, buf[:cap(buf)])
}

// Stats reports the current allocator state.
func (a *Arena) Stats() Stats {
	s := Stats{NCores: a.cores, Largest: a.largest}
	for size, c := range a.classes {
		s.Capacity += size * (len(c.free) + c.out)
		s.NBlocks += c.out
	}
	return s
}

// AssertNoLeak is the hard invariant from spec §4.1/§5: every block checked
// out during one mapping call must be returned before the call returns. A
// violation is a programming error, not a recoverable condition.
func (a *Arena) AssertNoLeak() {
	st := a.Stats()
	if st.NBlocks != 0 {
		log.Panicf("arena: leak detected, %d blocks still outstanding", st.NBlocks)
	}
}

// MaybeTeardown destroys and recreates the arena's internal pools if the
// largest allocation ever served exceeds the 256MiB high-water mark (spec
// §4.1, §5), to bound long-tail memory growth. It returns the (possibly new)
// Arena to use going forward.
func (a *Arena) MaybeTeardown() *Arena {
	if a.largest <= highWaterTeardown {
		return a
	}
	return New(a.noArena)
}
