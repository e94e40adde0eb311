// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package sketch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/graphmap/graphmap"
)

func TestDefaultEmitsMinimizers(t *testing.T) {
	seq := []byte(strings.Repeat("ACGTGGTCAA", 10))
	var mv []graphmap.MM128
	Default(seq, 10, 15, 0, false, &mv)
	require.NotEmpty(t, mv)
	for _, m := range mv {
		span := uint8(m.X & 0xff)
		assert.True(t, span > 0 && span <= 255)
	}
}

func TestDefaultPositionsAreMonotonic(t *testing.T) {
	seq := []byte(strings.Repeat("ACGTGGTCAACTAGGCTA", 8))
	var mv []graphmap.MM128
	Default(seq, 10, 15, 0, false, &mv)
	require.True(t, len(mv) > 1)
	for i := 1; i < len(mv); i++ {
		assert.True(t, mv[i].Y&0xffffffff > mv[i-1].Y&0xffffffff,
			"minimizer positions must strictly increase within one segment")
	}
}

func TestDefaultSkipsAmbiguousBases(t *testing.T) {
	seq := []byte(strings.Repeat("N", 50))
	var mv []graphmap.MM128
	Default(seq, 10, 15, 0, false, &mv)
	assert.Empty(t, mv)
}

func TestDefaultRejectsInvalidK(t *testing.T) {
	seq := []byte(strings.Repeat("ACGT", 10))
	var mv []graphmap.MM128
	Default(seq, 10, 0, 0, false, &mv)
	assert.Empty(t, mv)
	Default(seq, 10, 29, 0, false, &mv)
	assert.Empty(t, mv)
}

func TestHPCCollapsesHomopolymerRuns(t *testing.T) {
	// Same 15-mer content, one copy with a stuttered homopolymer run inserted;
	// HPC mode should sketch them identically modulo span.
	plain := []byte(strings.Repeat("ACGTGGTCAACTAGG", 6))
	stuttered := []byte(strings.ReplaceAll(string(plain), "GG", "GGGGG"))

	var mvPlain, mvStutter []graphmap.MM128
	Default(plain, 10, 15, 0, true, &mvPlain)
	Default(stuttered, 10, 15, 0, true, &mvStutter)

	require.NotEmpty(t, mvPlain)
	require.NotEmpty(t, mvStutter)
	// Both runs should find the same number of minimizer keys since HPC
	// collapses the inserted run back to the same compressed sequence.
	assert.Equal(t, len(mvPlain), len(mvStutter))
}

func TestSegIDCarriedThrough(t *testing.T) {
	seq := []byte(strings.Repeat("ACGTGGTCAA", 10))
	var mv []graphmap.MM128
	Default(seq, 10, 15, 5, false, &mv)
	require.NotEmpty(t, mv)
	for _, m := range mv {
		assert.Equal(t, uint32(5), uint32(m.Y>>32))
	}
}
