// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm6502

import "testing"

func TestSegmentEmitAdvancesPC(t *testing.T) {
	seg := NewSegment("test", 0xC000, true)
	seg.Emit([]byte{1, 2, 3})
	if seg.PC() != 0xC003 {
		t.Errorf("PC = %#x, want 0xC003", seg.PC())
	}
	lo, hi, ok := seg.Range()
	if !ok || lo != 0xC000 || hi != 0xC003 {
		t.Errorf("Range() = (%#x, %#x, %v), want (0xC000, 0xC003, true)", lo, hi, ok)
	}
}

func TestSegmentSetPCRewindsWithoutWrite(t *testing.T) {
	seg := NewSegment("test", 0xC000, true)
	seg.Emit([]byte{1, 2})
	seg.SetPC(0xC000)
	if seg.PC() != 0xC000 {
		t.Errorf("PC after SetPC = %#x, want 0xC000", seg.PC())
	}
	// SetPC must not touch the already-written range.
	_, hi, _ := seg.Range()
	if hi != 0xC002 {
		t.Errorf("Range high must be unaffected by SetPC, got %#x", hi)
	}
}

func TestSegmentEmptyRange(t *testing.T) {
	seg := NewSegment("test", 0xC000, true)
	if _, _, ok := seg.Range(); ok {
		t.Errorf("a segment with no emitted bytes must report ok=false")
	}
	if seg.RangeData() != nil {
		t.Errorf("RangeData on an empty segment must be nil")
	}
}

func TestSegmentPCWraps(t *testing.T) {
	seg := NewSegment("test", 0xFFFF, true)
	seg.Emit([]byte{1, 2})
	if seg.PC() != 0x0001 {
		t.Errorf("PC must wrap at 0x10000, got %#x", seg.PC())
	}
}
