// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm6502

import (
	"bytes"
	"strings"
	"testing"
)

func sampleSourceMap() *SourceMap {
	sm := NewSourceMap()
	sm.Origin = 0xC000
	sm.Size = 0x10
	sm.CRC = 0xDEADBEEF
	sm.Files = []string{"main.asm", "inc.asm"}
	sm.Lines = []SourceLine{
		{Address: 0xC000, FileIndex: 0, Line: 1},
		{Address: 0xC003, FileIndex: 0, Line: 2},
		{Address: 0xC005, FileIndex: 1, Line: 1},
	}
	sm.Exports = []Export{
		{Label: "foo", Address: 0xC000},
		{Label: "bar", Address: 0xC005},
	}
	return sm
}

func TestSourceMapRoundTrip(t *testing.T) {
	sm := sampleSourceMap()

	var buf bytes.Buffer
	if _, err := sm.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	var out SourceMap
	if _, err := out.ReadFrom(&buf); err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}

	if out.Origin != sm.Origin || out.Size != sm.Size || out.CRC != sm.CRC {
		t.Errorf("header mismatch: got %+v", out)
	}
	if len(out.Files) != len(sm.Files) {
		t.Fatalf("file count = %d, want %d", len(out.Files), len(sm.Files))
	}
	for i := range sm.Files {
		if out.Files[i] != sm.Files[i] {
			t.Errorf("file[%d] = %q, want %q", i, out.Files[i], sm.Files[i])
		}
	}
	if len(out.Lines) != len(sm.Lines) {
		t.Fatalf("line count = %d, want %d", len(out.Lines), len(sm.Lines))
	}
	for i := range sm.Lines {
		if out.Lines[i] != sm.Lines[i] {
			t.Errorf("line[%d] = %+v, want %+v", i, out.Lines[i], sm.Lines[i])
		}
	}
	if len(out.Exports) != len(sm.Exports) {
		t.Fatalf("export count = %d, want %d", len(out.Exports), len(sm.Exports))
	}
}

func TestSourceMapFind(t *testing.T) {
	sm := sampleSourceMap()
	file, line, err := sm.Find(0xC003)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if file != "main.asm" || line != 2 {
		t.Errorf("got (%s, %d), want (main.asm, 2)", file, line)
	}
	if _, _, err := sm.Find(0xBFFF); err == nil {
		t.Errorf("expected an error for an address with no mapping")
	}
}

func TestSourceMapClearRange(t *testing.T) {
	sm := sampleSourceMap()
	sm.ClearRange(0xC000, 0x4)
	for _, l := range sm.Lines {
		if l.Address >= 0xC000 && l.Address < 0xC004 {
			t.Errorf("line at %#x should have been cleared", l.Address)
		}
	}
	for _, e := range sm.Exports {
		if e.Address == 0xC000 {
			t.Errorf("export foo at 0xC000 should have been cleared")
		}
	}
}

func TestSourceMapMerge(t *testing.T) {
	base := sampleSourceMap()
	incoming := NewSourceMap()
	incoming.Origin = 0xC000
	incoming.Size = 0x4
	incoming.Files = []string{"replacement.asm"}
	incoming.Lines = []SourceLine{{Address: 0xC000, FileIndex: 0, Line: 10}}
	incoming.Exports = []Export{{Label: "foo", Address: 0xC000}}

	base.Merge(incoming)

	file, line, err := base.Find(0xC000)
	if err != nil {
		t.Fatalf("Find after merge: %v", err)
	}
	if file != "replacement.asm" || line != 10 {
		t.Errorf("got (%s, %d), want (replacement.asm, 10)", file, line)
	}
	// The untouched line outside the merged range must survive.
	if _, _, err := base.Find(0xC005); err != nil {
		t.Errorf("expected the untouched line at 0xC005 to survive the merge: %v", err)
	}
}

func TestWriteSymbolFile(t *testing.T) {
	st := NewSymbolTable()
	st.Register([]string{"foo"}, SymLabel, 0xC000, Span{})
	st.Register([]string{"bar"}, SymLabel, 0xC010, Span{})
	st.Register([]string{"not_a_label"}, SymConstant, 42, Span{})

	var buf bytes.Buffer
	if err := WriteSymbolFile(&buf, st); err != nil {
		t.Fatalf("WriteSymbolFile: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "al C:C000 .foo\n") {
		t.Errorf("missing foo entry, got:\n%s", out)
	}
	if !strings.Contains(out, "al C:C010 .bar\n") {
		t.Errorf("missing bar entry, got:\n%s", out)
	}
	if strings.Contains(out, "not_a_label") {
		t.Errorf("a constant must not appear in the symbol file, got:\n%s", out)
	}
	// foo ($C000) must be listed before bar ($C010).
	if strings.Index(out, "foo") > strings.Index(out, "bar") {
		t.Errorf("entries must be sorted by address, got:\n%s", out)
	}
}
