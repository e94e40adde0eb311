// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graphmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFragmentFingerprintDeterministic(t *testing.T) {
	a := fragmentFingerprint("read1", 150, 11)
	b := fragmentFingerprint("read1", 150, 11)
	assert.Equal(t, a, b)
}

func TestFragmentFingerprintVariesWithInputs(t *testing.T) {
	base := fragmentFingerprint("read1", 150, 11)
	assert.NotEqual(t, base, fragmentFingerprint("read2", 150, 11))
	assert.NotEqual(t, base, fragmentFingerprint("read1", 151, 11))
	assert.NotEqual(t, base, fragmentFingerprint("read1", 150, 12))
}

func TestFragmentFingerprintEmptyName(t *testing.T) {
	// An empty qname still folds qlenSum/seed through x31Hash's zero base case.
	assert.Equal(t, wangHash32(uint32(150)^11), fragmentFingerprint("", 150, 11))
}

func TestX31HashMatchesDefinition(t *testing.T) {
	var want uint32
	for _, c := range "abc" {
		want = want*31 + uint32(c)
	}
	assert.Equal(t, want, x31Hash("abc"))
}
