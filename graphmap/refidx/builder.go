// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package refidx

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/golang/snappy"

	"github.com/grailbio/graphmap/graphmap"
)

// Builder accumulates (key, posting) pairs and reference segment names,
// then produces an immutable Table. Index construction itself is out of
// scope (spec Non-goals); Builder exists only so this package can exercise
// and test the Table it defines, and so a caller has a concrete way to
// populate one.
type Builder struct {
	postings map[uint64][]uint64
	segs     []string
	k, w     int
	idxFlag  graphmap.IndexFlag
}

// NewBuilder creates a Builder for an index sketched with the given
// parameters (spec §4.4).
func NewBuilder(k, w int, hpc bool) *Builder {
	flag := graphmap.IndexFlag(0)
	if hpc {
		flag |= graphmap.IndexHPC
	}
	return &Builder{postings: make(map[uint64][]uint64), k: k, w: w, idxFlag: flag}
}

// AddSegment registers a reference segment and returns its id.
func (b *Builder) AddSegment(name string) uint32 {
	b.segs = append(b.segs, name)
	return uint32(len(b.segs) - 1)
}

// Add records one (minimizer key, posting) occurrence. posting is the
// caller's already-packed reference coordinate word (spec §3's posting
// format: bit0 strand parity, bits32..1 ref pos, bits62..33 ref segID).
func (b *Builder) Add(key, posting uint64) {
	b.postings[key] = append(b.postings[key], posting)
}

// Build sorts and dedups every key's posting list (fusion/kmer_index.go's
// initShard idiom) and partitions keys into the 256-way shard layout,
// linear-probing within each shard exactly as fusion/kmer_index.go's
// initShard does, substituting plain slices for its mmap'd hugepage
// region (see DESIGN.md).
func (b *Builder) Build() *Table {
	t := &Table{segs: b.segs, k: b.k, w: b.w, idxFlag: b.idxFlag}

	var byShard [nShards][]uint64
	for key := range b.postings {
		s := key & (nShards - 1)
		byShard[s] = append(byShard[s], key)
	}

	for s := 0; s < nShards; s++ {
		keys := byShard[s]
		if len(keys) == 0 {
			continue
		}
		const loadFactor = 4
		size := 1
		shift := 0
		for size < len(keys)*loadFactor {
			size <<= 1
			shift++
		}
		nShift := uint32(64 - shift)

		sh := &t.shards[s]
		sh.nShift = nShift
		sh.buckets = make([]int32, size)
		for i := range sh.buckets {
			sh.buckets[i] = -1
		}
		sh.entries = make([]entry, 0, len(keys))

		for _, key := range keys {
			p := sortPostings(b.postings[key])
			start := uint32(len(sh.postings))
			sh.postings = append(sh.postings, p...)
			e := entry{key: key, start: start, end: uint32(len(sh.postings))}

			mask := uint32(size - 1)
			bucket := uint32(key>>nShift) & mask
			for {
				if sh.buckets[bucket] < 0 {
					break
				}
				bucket = (bucket + 1) & mask
			}
			sh.entries = append(sh.entries, e)
			sh.buckets[bucket] = int32(len(sh.entries) - 1)
		}
	}
	return t
}

const formatMagic = "gmidx001"

// Save serializes the builder's accumulated (key, posting) pairs and
// segment table, snappy-compressed (golang/snappy, the teacher's own
// on-disk compression choice in encoding/bampair/disk_mate_shard.go).
func (b *Builder) Save(w io.Writer) error {
	sw := snappy.NewBufferedWriter(w)
	bw := bufio.NewWriter(sw)

	if _, err := bw.WriteString(formatMagic); err != nil {
		return err
	}
	hdr := []uint32{uint32(b.k), uint32(b.w), uint32(b.idxFlag), uint32(len(b.segs))}
	for _, v := range hdr {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	for _, name := range b.segs {
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(name))); err != nil {
			return err
		}
		if _, err := bw.WriteString(name); err != nil {
			return err
		}
	}
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(b.postings))); err != nil {
		return err
	}
	for key, p := range b.postings {
		if err := binary.Write(bw, binary.LittleEndian, key); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(p))); err != nil {
			return err
		}
		for _, r := range p {
			if err := binary.Write(bw, binary.LittleEndian, r); err != nil {
				return err
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return sw.Close()
}

// Load reads a Builder back from the format Save wrote and builds a Table.
func Load(r io.Reader) (*Table, error) {
	sr := snappy.NewReader(r)
	br := bufio.NewReader(sr)

	magic := make([]byte, len(formatMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, fmt.Errorf("refidx: reading magic: %v", err)
	}
	if string(magic) != formatMagic {
		return nil, fmt.Errorf("refidx: bad magic %q", magic)
	}

	var hdr [4]uint32
	for i := range hdr {
		if err := binary.Read(br, binary.LittleEndian, &hdr[i]); err != nil {
			return nil, fmt.Errorf("refidx: reading header: %v", err)
		}
	}
	b := NewBuilder(int(hdr[0]), int(hdr[1]), graphmap.IndexFlag(hdr[2])&graphmap.IndexHPC != 0)

	nSegs := hdr[3]
	for i := uint32(0); i < nSegs; i++ {
		var n uint32
		if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("refidx: reading segment name length: %v", err)
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("refidx: reading segment name: %v", err)
		}
		b.AddSegment(string(buf))
	}

	var nKeys uint64
	if err := binary.Read(br, binary.LittleEndian, &nKeys); err != nil {
		return nil, fmt.Errorf("refidx: reading key count: %v", err)
	}
	for i := uint64(0); i < nKeys; i++ {
		var key uint64
		var n uint32
		if err := binary.Read(br, binary.LittleEndian, &key); err != nil {
			return nil, fmt.Errorf("refidx: reading key: %v", err)
		}
		if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("refidx: reading posting count: %v", err)
		}
		for j := uint32(0); j < n; j++ {
			var p uint64
			if err := binary.Read(br, binary.LittleEndian, &p); err != nil {
				return nil, fmt.Errorf("refidx: reading posting: %v", err)
			}
			b.Add(key, p)
		}
	}
	return b.Build(), nil
}
