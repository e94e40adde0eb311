// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graphmap

import "io"

// OptFlag is the mapper's bitset of behavior switches (spec §6).
type OptFlag uint32

const (
	// OptForOnly rejects reverse-strand anchors (skipSeed, spec §4.6).
	OptForOnly OptFlag = 1 << iota
	// OptRevOnly rejects forward-strand anchors.
	OptRevOnly
	// OptHeapSort selects the k-way heap expander over the direct expander
	// (spec §4.8 vs §4.7).
	OptHeapSort
	// OptSplice enables splice-aware chaining (passed through to ChainDP).
	OptSplice
	// OptSR marks short-read (non-long-read) mode, widening the query-side
	// chaining gap to at least qlenSum (spec §4.10 step 4).
	OptSR
	// OptIndependSeg maps each segment of a fragment independently instead of
	// jointly as one stitched query (spec §4.12 stage 1).
	OptIndependSeg
	// OptFragMode groups consecutive same-named records from a single input
	// stream into fragments (spec §4.12 stage 0).
	OptFragMode
	// OptNoQual is carried in the bundle but read by no code; seqio's FASTA
	// reader never parses quality strings.
	OptNoQual
	// OptCopyComment is carried in the bundle but read by no code; seqio's
	// FASTA reader always keeps the header comment on each Record.
	OptCopyComment
	// OptTwoIOThreads is carried in the bundle but not consulted by
	// graphmap/pipeline, whose stages run sequentially per batch.
	OptTwoIOThreads
	// OptPrintSeed enables the tab-separated debug channel (spec §6).
	OptPrintSeed
)

// Options is the option bundle consumed by the mapper (spec §6).
type Options struct {
	Flag OptFlag

	MidOcc int // conservative occurrence cap for the first chaining pass
	MaxOcc int // permissive occurrence cap for the adaptive rechain

	MaxQlen int // refuse fragments whose summed query length exceeds this (0 = unlimited)

	MaxGap     int // base chaining gap bound
	MaxGapRef  int // explicit reference-side gap bound override (0 = derive it)
	MaxFragLen int // expected total fragment length, used to derive MaxGapRef

	Bw           int     // chaining bandwidth
	MaxChainSkip int     // max candidates examined per anchor in the chaining DP
	MinLcCnt     int     // minimum anchor count to keep a chain
	MinLcScore   float64 // minimum score to keep a chain

	MiniBatchSize int   // pipeline: bases per read batch
	PeOri         uint8 // pipeline: paired-end orientation, bits 1/0 select segment 1/0 reverse-complement
	Seed          uint32

	// ChainDP and ChainGen are the chaining-DP and chain-generator external
	// collaborators (spec §4.9, §6). Callers must supply both; graphmap/chain
	// provides minimal reference implementations.
	ChainDP  ChainDP
	ChainGen ChainGen

	// Sketcher is the minimizer-sketch external collaborator (spec §4.4,
	// §6). graphmap/sketch provides a reference implementation.
	Sketcher Sketcher

	// DebugWriter receives the tab-separated PrintSeed records (spec §6)
	// when OptPrintSeed is set. Tests wire a bytes.Buffer; graphmap/pipeline
	// passes the caller's Options through and never sets it. A nil writer
	// with OptPrintSeed set is a no-op.
	DebugWriter io.Writer
}

// DefaultOptions mirrors the teacher's DefaultOpts convention
// (pileup/snp.DefaultOpts): reasonable starting values for the numeric
// knobs, with the functional collaborators left nil — callers must wire
// ChainDP/ChainGen/Sketcher explicitly.
var DefaultOptions = Options{
	MidOcc:        50,
	MaxOcc:        2000,
	MaxQlen:       0,
	MaxGap:        5000,
	Bw:            500,
	MaxChainSkip:  25,
	MinLcCnt:      2,
	MinLcScore:    40,
	MiniBatchSize: 500000000,
	Seed:          11,
}
