// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm6502

// A Segment is a named 64 KiB flat address space the code generator
// emits bytes into, along with its current program counter and the
// minimum-to-maximum range of addresses it has touched (spec §4.5).
// Segments allocate the full 64 KiB address space up front, trading a
// fixed and negligible amount of memory for O(1) random-access writes
// and trivial overlap detection during merge (spec §9 "64 KiB dense
// buffers"), the same technique the teacher uses implicitly for its one
// global code buffer in asm/asm.go.
type Segment struct {
	Name      string
	Data      [0x10000]byte
	pc        int
	haveRange bool
	rangeLo   int // inclusive
	rangeHi   int // exclusive

	InitialPC int  // the segment's starting program counter
	Write     bool // whether this segment is written to the output image

	// Target names the merge target this segment composes into (spec
	// §4.7). A build has a single shared default target (""), matching
	// the original assembler's one-SegmentMerger-per-build model where
	// every written segment, regardless of its own name, merges into
	// the same output — which is what makes cross-segment overlap
	// detection meaningful. `.define name { target = other }` opts a
	// segment into a distinct target instead.
	Target string
}

// NewSegment creates a segment with the given starting PC.
func NewSegment(name string, initialPC int, write bool) *Segment {
	return &Segment{
		Name:      name,
		pc:        initialPC & 0xffff,
		InitialPC: initialPC & 0xffff,
		Write:     write,
	}
}

// PC returns the segment's current program counter.
func (s *Segment) PC() int {
	return s.pc
}

// SetPC repositions the segment's program counter without writing,
// used by the fixpoint driver to retry emission at a remembered
// address (spec §4.5).
func (s *Segment) SetPC(pc int) {
	s.pc = pc & 0xffff
}

// Emit writes bytes at the current PC, advances the PC by len(bytes),
// and widens the segment's covered range.
func (s *Segment) Emit(bytes []byte) {
	for _, b := range bytes {
		s.Data[s.pc&0xffff] = b
		s.widen(s.pc & 0xffff)
		s.pc = (s.pc + 1) & 0xffff
	}
}

func (s *Segment) widen(addr int) {
	if !s.haveRange {
		s.rangeLo, s.rangeHi, s.haveRange = addr, addr+1, true
		return
	}
	if addr < s.rangeLo {
		s.rangeLo = addr
	}
	if addr+1 > s.rangeHi {
		s.rangeHi = addr + 1
	}
}

// Range returns the half-open [lo, hi) range of addresses this segment
// has written to. ok is false if the segment is empty.
func (s *Segment) Range() (lo, hi int, ok bool) {
	return s.rangeLo, s.rangeHi, s.haveRange
}

// RangeData returns the bytes in [lo, hi).
func (s *Segment) RangeData() []byte {
	lo, hi, ok := s.Range()
	if !ok {
		return nil
	}
	return s.Data[lo:hi]
}
