// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/graphmap/graphmap"
)

func anchor(refPos, span, qEnd uint32, rev bool) graphmap.MM128 {
	x := uint64(refPos) << 1
	if rev {
		x |= 1 << 63
	}
	y := uint64(span)<<graphmap.SeedSpanShift | uint64(qEnd)&graphmap.SeedQposMask
	return graphmap.MM128{X: x, Y: y}
}

func TestDefaultDPSingleAnchorChain(t *testing.T) {
	anchors := []graphmap.MM128{anchor(1000, 20, 20, false)}
	reordered, u := DefaultDP(5000, 5000, 500, 25, 1, 0, false, 1, anchors)
	require.Len(t, u, 1)
	assert.Equal(t, 1, int(uint32(u[0])))
	assert.Len(t, reordered, 1)
}

func TestDefaultDPCollinearChainExtends(t *testing.T) {
	anchors := []graphmap.MM128{
		anchor(1000, 20, 20, false),
		anchor(1100, 20, 120, false),
		anchor(1200, 20, 220, false),
	}
	reordered, u := DefaultDP(5000, 5000, 500, 25, 1, 0, false, 1, anchors)
	require.Len(t, u, 1)
	assert.Equal(t, 3, int(uint32(u[0])))
	assert.Equal(t, anchors, reordered)
}

func TestDefaultDPRespectsGapBound(t *testing.T) {
	anchors := []graphmap.MM128{
		anchor(1000, 20, 20, false),
		anchor(100000, 20, 120, false), // far beyond gapRef
	}
	_, u := DefaultDP(500, 5000, 500, 25, 1, 0, false, 1, anchors)
	require.Len(t, u, 2)
	for _, ui := range u {
		assert.Equal(t, 1, int(uint32(ui)))
	}
}

func TestDefaultDPDropsChainsBelowMinCnt(t *testing.T) {
	anchors := []graphmap.MM128{anchor(1000, 20, 20, false)}
	_, u := DefaultDP(5000, 5000, 500, 25, 2, 0, false, 1, anchors)
	assert.Len(t, u, 0)
}

func TestDefaultDPNoCrossStrandLinking(t *testing.T) {
	anchors := []graphmap.MM128{
		anchor(1000, 20, 20, false),
		anchor(1100, 20, 120, true),
	}
	_, u := DefaultDP(5000, 5000, 500, 25, 1, 0, false, 1, anchors)
	require.Len(t, u, 2)
}

func TestDefaultGenProducesRegionPerChain(t *testing.T) {
	anchors := []graphmap.MM128{
		anchor(1000, 20, 20, false),
		anchor(1100, 20, 120, false),
	}
	reordered, u := DefaultDP(5000, 5000, 500, 25, 1, 0, false, 1, anchors)
	regions := DefaultGen(0xCAFE, 200, u, reordered)
	require.Len(t, regions, 1)
	r := regions[0]
	assert.Equal(t, 0, r.QS)
	assert.Equal(t, 120, r.QE)
	assert.False(t, r.Rev)
	assert.Equal(t, 2, r.Cnt)
	assert.Equal(t, uint32(0xCAFE), r.Hash)
}
