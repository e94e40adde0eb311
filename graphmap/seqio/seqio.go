// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package seqio provides a minimal sequence reader (spec §4.11): just
// enough for graphmap/pipeline's Stage 0 to drive. Rich FASTQ quality
// handling, multi-file interleaving beyond simple round-robin, and any
// output serialization remain non-goals.
package seqio

import (
	"bufio"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/grailbio/base/errors"
)

// Record is one sequence read from a Reader.
type Record struct {
	Name    string
	Seq     []byte
	Comment string
}

// Reader produces batches of Records.
type Reader interface {
	// ReadBatch reads records until at least maxBases bases have been
	// accumulated (or EOF), returning them. An empty, non-nil-error-free
	// result signals end of input.
	ReadBatch(maxBases int) ([]Record, error)
	Close() error
}

// FASTAReader reads FASTA-formatted records from an io.Reader, optionally
// gzip-compressed (klauspost/compress/gzip, matching interval/bedunion.go's
// and encoding/fastq/downsample.go's use of the same package for the same
// purpose: transparently decompressing a line-oriented sequence format).
type FASTAReader struct {
	rc     io.Closer
	sc     *bufio.Scanner
	pendID string // name/comment line read as part of the previous record's terminator
	eof    bool
}

// NewFASTAReader wraps r. If gzipped is true, r is first wrapped in a
// gzip.Reader.
func NewFASTAReader(r io.Reader, gzipped bool) (*FASTAReader, error) {
	rc, _ := r.(io.Closer)
	if gzipped {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.E(err, "seqio: opening gzip stream")
		}
		rc = gz
		r = gz
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<30)
	return &FASTAReader{rc: rc, sc: sc}, nil
}

func splitNameComment(line string) (name, comment string) {
	line = strings.TrimPrefix(line, ">")
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		return line[:i], line[i+1:]
	}
	return line, ""
}

// ReadBatch implements Reader.
func (r *FASTAReader) ReadBatch(maxBases int) ([]Record, error) {
	var batch []Record
	bases := 0
	for bases < maxBases {
		rec, ok, err := r.readOne()
		if err != nil {
			return batch, err
		}
		if !ok {
			break
		}
		batch = append(batch, rec)
		bases += len(rec.Seq)
	}
	return batch, nil
}

func (r *FASTAReader) readOne() (Record, bool, error) {
	var header string
	if r.pendID != "" {
		header, r.pendID = r.pendID, ""
	} else {
		if r.eof {
			return Record{}, false, nil
		}
		for {
			if !r.sc.Scan() {
				r.eof = true
				if err := r.sc.Err(); err != nil {
					return Record{}, false, err
				}
				return Record{}, false, nil
			}
			line := r.sc.Text()
			if strings.HasPrefix(line, ">") {
				header = line
				break
			}
		}
	}

	name, comment := splitNameComment(header)
	var seq []byte
	sawNext := false
	for r.sc.Scan() {
		line := r.sc.Text()
		if strings.HasPrefix(line, ">") {
			r.pendID = line
			sawNext = true
			break
		}
		seq = append(seq, line...)
	}
	if !sawNext {
		r.eof = true
	}
	if err := r.sc.Err(); err != nil {
		return Record{}, false, err
	}
	return Record{Name: name, Seq: seq, Comment: comment}, true, nil
}

// Close releases the underlying stream.
func (r *FASTAReader) Close() error {
	if r.rc != nil {
		return r.rc.Close()
	}
	return nil
}
