// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graphmap

// x31Hash is the classic "X31" string hash (`h = h*31 + c`), used here to
// fold a fragment's name into its chain-generator fingerprint (spec §4.10
// step 2).
func x31Hash(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*31 + uint32(s[i])
	}
	return h
}

// wangHash32 is Thomas Wang's 32-bit integer mix, used to spread the
// combined qname/qlenSum/seed fingerprint across the full 32-bit range
// before handing it to the chain generator as a stable tie-break key.
func wangHash32(key uint32) uint32 {
	key = ^key + (key << 15)
	key ^= key >> 12
	key += key << 2
	key ^= key >> 4
	key *= 2057
	key ^= key >> 16
	return key
}

// fragmentFingerprint computes the 32-bit fingerprint the chain generator
// uses for deterministic tie-breaking across chains of equal score (spec
// §4.10 step 2): an X31 hash of the fragment name, folded together with the
// summed query length and the mapper's configured seed, then spread with
// wangHash32.
func fragmentFingerprint(qname string, qlenSum int, seed uint32) uint32 {
	var h uint32
	if qname != "" {
		h = x31Hash(qname)
	}
	h += uint32(qlenSum) ^ seed
	return wangHash32(h)
}
