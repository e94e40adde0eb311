// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package refidx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/graphmap/graphmap"
)

func TestGetMissingKey(t *testing.T) {
	b := NewBuilder(15, 10, false)
	b.AddSegment("chr1")
	b.Add(1234, 0)
	tbl := b.Build()

	p, n := tbl.Get(9999)
	assert.Equal(t, 0, n)
	assert.Nil(t, p)
}

func TestGetRoundTrip(t *testing.T) {
	b := NewBuilder(15, 10, true)
	id := b.AddSegment("chr1")
	b.Add(42, 0|uint64(100)<<1|uint64(id)<<33)
	b.Add(42, 0|uint64(50)<<1|uint64(id)<<33)
	b.Add(7, 0|uint64(1)<<1)
	tbl := b.Build()

	p, n := tbl.Get(42)
	require.Equal(t, 2, n)
	// sortPostings sorts ascending, so the smaller ref position comes first.
	assert.Equal(t, uint32(50), graphmap.AnchorRefPos(p[0]))
	assert.Equal(t, uint32(100), graphmap.AnchorRefPos(p[1]))

	_, n = tbl.Get(7)
	assert.Equal(t, 1, n)

	k, w, flag := tbl.Params()
	assert.Equal(t, 15, k)
	assert.Equal(t, 10, w)
	assert.Equal(t, graphmap.IndexHPC, flag)

	assert.Equal(t, "chr1", tbl.SegName(id))
	assert.Equal(t, "", tbl.SegName(id+1))
}

func TestDedupsDuplicatePostings(t *testing.T) {
	b := NewBuilder(15, 10, false)
	b.Add(5, 100)
	b.Add(5, 100)
	b.Add(5, 200)
	tbl := b.Build()

	_, n := tbl.Get(5)
	assert.Equal(t, 2, n)
}

func TestManyKeysAcrossShards(t *testing.T) {
	b := NewBuilder(15, 10, false)
	const nKeys = 5000
	for i := uint64(0); i < nKeys; i++ {
		b.Add(i*2654435761+1, i)
	}
	tbl := b.Build()
	for i := uint64(0); i < nKeys; i++ {
		key := i*2654435761 + 1
		p, n := tbl.Get(key)
		require.Equal(t, 1, n, "key %d", key)
		assert.Equal(t, i, p[0])
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	b := NewBuilder(21, 11, false)
	b.AddSegment("chr1")
	b.AddSegment("chr2")
	b.Add(42, 100)
	b.Add(42, 200)
	b.Add(7, 1)

	var buf bytes.Buffer
	require.NoError(t, b.Save(&buf))

	tbl, err := Load(&buf)
	require.NoError(t, err)

	k, w, flag := tbl.Params()
	assert.Equal(t, 21, k)
	assert.Equal(t, 11, w)
	assert.Equal(t, graphmap.IndexFlag(0), flag)
	assert.Equal(t, "chr1", tbl.SegName(0))
	assert.Equal(t, "chr2", tbl.SegName(1))

	p, n := tbl.Get(42)
	require.Equal(t, 2, n)
	assert.Equal(t, []uint64{100, 200}, p)
}
