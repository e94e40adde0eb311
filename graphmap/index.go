// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graphmap

// IndexFlag carries index-level parameters relevant to the mapper (spec §6).
type IndexFlag uint32

const (
	// IndexHPC marks an index built in homopolymer-compressed mode.
	IndexHPC IndexFlag = 1 << iota
)

// Index is the external collaborator described in spec §4.3/§6: a read-only
// minimizer posting-list lookup over a pre-built reference (sequence graph).
// Index construction itself is out of scope (spec Non-goals) — only this
// read-side contract is specified and implemented (see graphmap/refidx for a
// concrete Table).
type Index interface {
	// Get returns the posting list for a minimizer hash key, and its length.
	// count == 0 means the key is absent.
	Get(key uint64) (postings []uint64, count int)

	// SegName returns the name of reference segment id.
	SegName(id uint32) string

	// Params returns the index's sketching parameters.
	Params() (k, w int, flag IndexFlag)
}

// skipSeed implements the strand filter from spec §4.6. qname, qlen, and idx
// are accepted but currently unused — see the "skip_seed's unused parameters"
// open-question decision in DESIGN.md: the signature is kept exactly as the
// original specifies it, reserved for a future reference-aware filter.
func skipSeed(flag OptFlag, r uint64, qPos uint32, qname string, qlen int, idx Index) bool {
	_ = qname
	_ = qlen
	_ = idx
	if flag&(OptForOnly|OptRevOnly) == 0 {
		return false
	}
	if (r & 1) == uint64(qPos&1) { // forward strand
		return flag&OptRevOnly != 0
	}
	return flag&OptForOnly != 0 // reverse strand
}
