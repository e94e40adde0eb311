// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package seqio

import (
	"bytes"
	"compress/gzip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fasta = ">read1 comment one\nACGT\nACGT\n>read2\nTTTT\n"

func TestReadBatchSplitsOnMaxBases(t *testing.T) {
	r, err := NewFASTAReader(strings.NewReader(fasta), false)
	require.NoError(t, err)
	defer r.Close()

	batch, err := r.ReadBatch(1)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "read1", batch[0].Name)
	assert.Equal(t, "comment one", batch[0].Comment)
	assert.Equal(t, []byte("ACGTACGT"), batch[0].Seq)

	batch, err = r.ReadBatch(1000)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "read2", batch[0].Name)
	assert.Equal(t, []byte("TTTT"), batch[0].Seq)

	batch, err = r.ReadBatch(1000)
	require.NoError(t, err)
	assert.Len(t, batch, 0)
}

func TestReadBatchGzipped(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(fasta))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	r, err := NewFASTAReader(&buf, true)
	require.NoError(t, err)
	defer r.Close()

	batch, err := r.ReadBatch(1000)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "read1", batch[0].Name)
	assert.Equal(t, "read2", batch[1].Name)
}
