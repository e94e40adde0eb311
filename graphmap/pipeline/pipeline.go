// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package pipeline drives graphmap.MapFrag across a whole input stream
// (spec §4.12): three stages — read, map, free — run one after another for
// each batch in a single loop, so only one batch is in flight at a time and
// the read and free stages do not overlap with mapping. Stage 1's fan-out is
// grounded on pileup/snp.pileupSNPMain's traverse.Each(parallelism, ...)
// over independent units of work. OptTwoIOThreads is not consulted.
// Output formatting and serialization remain non-goals; Emit is the seam a
// SAM/PAF writer would hang off of.
package pipeline

import (
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"

	"github.com/grailbio/graphmap/biosimd"
	"github.com/grailbio/graphmap/graphmap"
	"github.com/grailbio/graphmap/graphmap/seqio"
)

// PeOri bits select, per segment, whether that segment should be
// reverse-complemented before joint mapping and flipped back afterward
// (spec §4.12 Stage 1). Bit 0 -> segment 0, bit 1 -> segment 1.
const (
	PeOriRev0 uint8 = 1 << 0
	PeOriRev1 uint8 = 1 << 1
)

// Fragment is one unit of Stage 1's work: 1..MaxSeg records sharing a name
// (when OptFragMode groups them) or a single record otherwise.
type Fragment struct {
	RID     int // monotonic record id assigned by Stage 0
	Name    string
	Recs    []seqio.Record
	Regions [][]graphmap.Region
}

// Batch is one Stage 0 read's worth of fragments, carried through Stage 1
// and Stage 2 together so later stages can reuse the earlier ones' slices.
type Batch struct {
	Fragments []Fragment
	bufs      []*graphmap.TBuf
}

// Emit is the caller-supplied Stage 2 callback (spec §4.12 Stage 2).
type Emit func(batch *Batch)

// readStage0 implements spec §4.12 Stage 0: read up to maxBases from each of
// readers, grouping same-named consecutive records into fragments when
// fragMode is set.
func readStage0(readers []seqio.Reader, maxBases int, fragMode bool, nextRID *int) (*Batch, error) {
	perStream := make([][]seqio.Record, len(readers))
	for i, r := range readers {
		recs, err := r.ReadBatch(maxBases)
		if err != nil {
			return nil, errors.E(err, "pipeline: stage 0 read")
		}
		perStream[i] = recs
	}
	n := len(perStream[0])
	for _, recs := range perStream[1:] {
		if len(recs) < n {
			n = len(recs)
		}
	}
	if n == 0 {
		return &Batch{}, nil
	}

	batch := &Batch{}
	i := 0
	for i < n {
		group := []seqio.Record{perStream[0][i]}
		for s := 1; s < len(perStream); s++ {
			group = append(group, perStream[s][i])
		}
		name := group[0].Name
		j := i + 1
		if fragMode {
			for j < n && perStream[0][j].Name == name && len(group) < graphmap.MaxSeg {
				for s := 0; s < len(perStream); s++ {
					group = append(group, perStream[s][j])
				}
				j++
			}
		}
		batch.Fragments = append(batch.Fragments, Fragment{RID: *nextRID, Name: name, Recs: group})
		*nextRID++
		i = j
	}
	return batch, nil
}

// mapStage1 implements spec §4.12 Stage 1: traverse.Each over the batch's
// fragments, one persistent TBuf per worker slot.
func mapStage1(batch *Batch, idx graphmap.Index, opt *graphmap.Options, nThreads int) error {
	bufs := make([]*graphmap.TBuf, nThreads)
	for i := range bufs {
		bufs[i] = graphmap.NewTBuf()
	}
	batch.bufs = bufs

	err := traverse.Each(nThreads, func(slot int) error {
		buf := bufs[slot]
		for fi := slot; fi < len(batch.Fragments); fi += nThreads {
			f := &batch.Fragments[fi]
			qlens := make([]int, len(f.Recs))
			seqs := make([][]byte, len(f.Recs))
			flipped := make([]bool, len(f.Recs))
			for i, rec := range f.Recs {
				qlens[i] = len(rec.Seq)
				seqs[i] = rec.Seq
				if i == 0 && opt.PeOri&PeOriRev0 != 0 || i == 1 && opt.PeOri&PeOriRev1 != 0 {
					rc := make([]byte, len(rec.Seq))
					biosimd.ReverseComp8NoValidate(rc, rec.Seq)
					seqs[i] = rc
					flipped[i] = true
				}
			}
			regions := graphmap.MapFrag(idx, qlens, seqs, opt, buf, f.Name)
			for i, segRegions := range regions {
				if !flipped[i] {
					continue
				}
				for j := range segRegions {
					r := &segRegions[j]
					qs, qe := qlens[i]-r.QE, qlens[i]-r.QS
					r.QS, r.QE, r.Rev = qs, qe, !r.Rev
				}
			}
			f.Regions = regions
		}
		return nil
	})
	return err
}

// freeStage2 implements spec §4.12 Stage 2: destroy this batch's worker
// buffers and invoke emit.
func freeStage2(batch *Batch, emit Emit) {
	for _, b := range batch.bufs {
		b.Destroy()
	}
	batch.bufs = nil
	if emit != nil {
		emit(batch)
	}
}

// MapFile drives the full pipeline over a single-segment input stream.
func MapFile(r io.Reader, gzipped bool, idx graphmap.Index, opt *graphmap.Options, nThreads int, emit Emit) error {
	return MapFileFrag([]io.Reader{r}, []bool{gzipped}, idx, opt, nThreads, emit)
}

// MapFileFrag drives the full pipeline over 1..MaxSeg parallel input
// streams (paired-end when len(readers) == 2), round-robining one record
// per stream per fragment.
func MapFileFrag(readerInputs []io.Reader, gzippedFlags []bool, idx graphmap.Index, opt *graphmap.Options, nThreads int, emit Emit) error {
	readers := make([]seqio.Reader, len(readerInputs))
	for i, rin := range readerInputs {
		fr, err := seqio.NewFASTAReader(rin, gzippedFlags[i])
		if err != nil {
			return errors.E(err, "pipeline: opening input stream", i)
		}
		readers[i] = fr
		defer fr.Close()
	}

	fragMode := opt.Flag&graphmap.OptFragMode != 0
	rid := 0
	log.Printf("pipeline: starting main loop (%d streams, %d workers)", len(readers), nThreads)
	for {
		batch, err := readStage0(readers, opt.MiniBatchSize, fragMode, &rid)
		if err != nil {
			return err
		}
		if len(batch.Fragments) == 0 {
			log.Printf("pipeline: main loop complete (%d fragments)", rid)
			return nil
		}
		if err := mapStage1(batch, idx, opt, nThreads); err != nil {
			return errors.E(err, "pipeline: stage 1 map")
		}
		freeStage2(batch, emit)
	}
}
