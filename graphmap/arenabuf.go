// Copyright 2024 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graphmap

import (
	"reflect"
	"unsafe"

	"github.com/grailbio/graphmap/graphmap/arena"
)

// These helpers reinterpret one of the arena's raw []byte blocks as a typed
// slice, the same reflect.SliceHeader idiom the teacher's biosimd package
// uses to hand SIMD assembly a pointer into a Go slice without a copy. The
// match array, anchor array and mini_pos the mapper builds per fragment
// round-trip through one of these so the arena's leak check (NBlocks == 0)
// actually covers them (spec §4.1/§3 "Lifecycle"). The minimizer vector is
// not arena-backed: the Sketcher appends to a plain Go slice.

var (
	sizeofMM128       = int(unsafe.Sizeof(MM128{}))
	sizeofUint64      = int(unsafe.Sizeof(uint64(0)))
	sizeofMatchRecord = int(unsafe.Sizeof(matchRecord{}))
)

func allocMM128(a *arena.Arena, n int) []MM128 {
	if n == 0 {
		return nil
	}
	buf := a.Alloc(n * sizeofMM128)
	var out []MM128
	src := (*reflect.SliceHeader)(unsafe.Pointer(&buf))
	dst := (*reflect.SliceHeader)(unsafe.Pointer(&out))
	dst.Data, dst.Len, dst.Cap = src.Data, n, n
	return out
}

func freeMM128(a *arena.Arena, s []MM128) {
	if cap(s) == 0 {
		return
	}
	n := cap(s)
	var buf []byte
	src := (*reflect.SliceHeader)(unsafe.Pointer(&s))
	dst := (*reflect.SliceHeader)(unsafe.Pointer(&buf))
	dst.Data, dst.Len, dst.Cap = src.Data, n*sizeofMM128, n*sizeofMM128
	a.Free(buf)
}

func allocUint64(a *arena.Arena, n int) []uint64 {
	if n == 0 {
		return nil
	}
	buf := a.Alloc(n * sizeofUint64)
	var out []uint64
	src := (*reflect.SliceHeader)(unsafe.Pointer(&buf))
	dst := (*reflect.SliceHeader)(unsafe.Pointer(&out))
	dst.Data, dst.Len, dst.Cap = src.Data, n, n
	return out
}

func freeUint64(a *arena.Arena, s []uint64) {
	if cap(s) == 0 {
		return
	}
	n := cap(s)
	var buf []byte
	src := (*reflect.SliceHeader)(unsafe.Pointer(&s))
	dst := (*reflect.SliceHeader)(unsafe.Pointer(&buf))
	dst.Data, dst.Len, dst.Cap = src.Data, n*sizeofUint64, n*sizeofUint64
	a.Free(buf)
}

func allocMatchRecords(a *arena.Arena, n int) []matchRecord {
	if n == 0 {
		return nil
	}
	buf := a.Alloc(n * sizeofMatchRecord)
	var out []matchRecord
	src := (*reflect.SliceHeader)(unsafe.Pointer(&buf))
	dst := (*reflect.SliceHeader)(unsafe.Pointer(&out))
	dst.Data, dst.Len, dst.Cap = src.Data, 0, n
	return out
}

func freeMatchRecords(a *arena.Arena, s []matchRecord) {
	if cap(s) == 0 {
		return
	}
	n := cap(s)
	var buf []byte
	src := (*reflect.SliceHeader)(unsafe.Pointer(&s))
	dst := (*reflect.SliceHeader)(unsafe.Pointer(&buf))
	dst.Data, dst.Len, dst.Cap = src.Data, n*sizeofMatchRecord, n*sizeofMatchRecord
	a.Free(buf)
}
