// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package debug provides the tab-separated debug channel the mapper writes
// to when PrintSeed is set (spec §6), grounded on base/log's
// leveled-writer pattern: one tagged, tab-separated line per record, written
// straight to the caller's io.Writer rather than through a structured
// encoder.
package debug

import (
	"fmt"
	"io"
)

// EmitRepLen writes an "RS" record: the repetitive-region length folded in
// by the match collector for one fragment.
func EmitRepLen(w io.Writer, repLen int) {
	fmt.Fprintf(w, "RS\t%d\n", repLen)
}

// EmitSeed writes an "SD" record for one post-expansion anchor.
func EmitSeed(w io.Writer, refName string, refPos uint32, reverse bool, qEnd uint32, span uint8, delta int) {
	strand := byte('+')
	if reverse {
		strand = '-'
	}
	fmt.Fprintf(w, "SD\t%s\t%d\t%c\t%d\t%d\t%d\n", refName, refPos, strand, qEnd, span, delta)
}

// EmitChain writes a "CN" record for one surviving chain.
func EmitChain(w io.Writer, chainID, cnt int, score int32) {
	fmt.Fprintf(w, "CN\t%d\t%d\t%d\n", chainID, cnt, score)
}
