// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package graphmap maps sequence fragments onto a pre-built reference index
// by collecting minimizer seeds, looking them up in a posting-list index,
// expanding the hits into chainable anchors, and delegating to a pluggable
// chaining DP and chain generator. Index construction, the chaining DP's
// scoring sophistication, and output serialization are all external
// collaborators (see Index, ChainDP, ChainGen, Sketcher); this package owns
// the seed-collection and anchor-expansion core plus the fragment-mapper
// orchestration that drives them.
package graphmap
