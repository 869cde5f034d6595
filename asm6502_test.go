// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm6502

import (
	"strings"
	"testing"
)

// assemble parses and assembles code with the default initial PC used
// throughout spec §8's end-to-end scenarios, returning the bytes
// written to the default (unnamed) segment's image.
func assemble(t *testing.T, code string) []byte {
	t.Helper()
	return assembleAt(t, code, 0xC000)
}

func assembleAt(t *testing.T, code string, initialPC int) []byte {
	t.Helper()
	tree, _, sink := Parse("test", code, nil)
	images, _ := Assemble(tree, Options{InitialPC: initialPC}, sink)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors assembling:\n%s\n%s", code, diagString(sink))
	}
	for _, img := range images {
		if img.Target == "" {
			return img.Data
		}
	}
	return nil
}

func diagString(sink *ErrorSink) string {
	var b strings.Builder
	for _, d := range sink.Diagnostics() {
		b.WriteString(d.Severity.String())
		b.WriteString(": ")
		b.WriteString(d.Message)
		b.WriteString("\n")
	}
	return b.String()
}

// checkASM assembles code and compares the default segment's bytes
// against expected, byte for byte.
func checkASM(t *testing.T, code string, expected []byte) {
	t.Helper()
	got := assemble(t, code)
	if !bytesEqual(got, expected) {
		t.Errorf("code:\n%s\ngot:  % X\nexp:  % X", code, got, expected)
	}
}

// checkASMError assembles code and requires it to fail with a
// diagnostic whose message contains want.
func checkASMError(t *testing.T, code string, want string) {
	t.Helper()
	tree, _, sink := Parse("test", code, nil)
	Assemble(tree, Options{InitialPC: 0xC000}, sink)
	if !sink.HasErrors() {
		t.Fatalf("code:\n%s\nexpected an error containing %q, got none", code, want)
	}
	for _, d := range sink.Diagnostics() {
		if d.Severity == SeverityError && strings.Contains(d.Message, want) {
			return
		}
	}
	t.Errorf("code:\n%s\nexpected an error containing %q, got:\n%s", code, want, diagString(sink))
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- spec §8 end-to-end scenarios ---

func TestScenario1Immediate(t *testing.T) {
	checkASM(t, `lda #123`, []byte{0xA9, 0x7B})
}

func TestScenario2ImmediateArithmetic(t *testing.T) {
	checkASM(t, "lda #1 + 1\nlda #1 - 1\nlda #2 * 4\nlda #8 / 2\n",
		[]byte{0xA9, 0x02, 0xA9, 0x00, 0xA9, 0x08, 0xA9, 0x04})
}

func TestScenario3ForwardReference(t *testing.T) {
	checkASM(t, "jmp my_label\nmy_label: nop\n",
		[]byte{0x4C, 0x03, 0xC0, 0xEA})
}

func TestScenario4Data(t *testing.T) {
	checkASM(t, ".byte 123\n.word 64738\n",
		[]byte{0x7B, 0xE2, 0xFC})
}

func TestScenario5WordOfLabelDifference(t *testing.T) {
	checkASM(t, "foo: .word bar - foo\nnop\nnop\nnop\nbar: nop\n",
		[]byte{0x05, 0x00, 0xEA, 0xEA, 0xEA, 0xEA})
}

func TestScenario6BackwardBranch(t *testing.T) {
	checkASM(t, "foo: nop\nbne foo\n",
		[]byte{0xEA, 0xD0, 0xFD})
}

func TestScenario7BranchTooFar(t *testing.T) {
	var b strings.Builder
	b.WriteString("foo: nop\n")
	for i := 0; i < 140; i++ {
		b.WriteString("nop\n")
	}
	b.WriteString("bne foo\n")
	checkASMError(t, b.String(), "branch too far")
}

func TestScenario8ConstReassignment(t *testing.T) {
	checkASMError(t, ".const foo = 10\n.const foo = 20\n",
		"cannot reassign constant: foo")
}

// --- universal properties (spec §8) ---

func TestRoundTrip(t *testing.T) {
	sources := []string{
		"lda #123\n",
		"  lda #123 // a comment\njmp foo\nfoo: nop\n",
		"/* block */ .byte 1, 2, 3\n.segment data {\n  .word 1\n}\n",
		".const x = 1 + 2 * 3\nlda #x\n",
	}
	for _, src := range sources {
		tree, _, sink := Parse("test", src, nil)
		if sink.HasErrors() {
			t.Fatalf("unexpected parse errors for %q:\n%s", src, diagString(sink))
		}
		out := Format(tree)
		if out != src {
			t.Errorf("round-trip mismatch:\nin:  %q\nout: %q", src, out)
		}
	}
}

func TestFormatIdempotent(t *testing.T) {
	src := "lda #123\njmp foo\nfoo: nop // done\n"
	tree, _, sink := Parse("test", src, nil)
	if sink.HasErrors() {
		t.Fatalf("unexpected parse errors:\n%s", diagString(sink))
	}
	once := Format(tree)
	tree2, _, sink2 := Parse("test", once, nil)
	if sink2.HasErrors() {
		t.Fatalf("unexpected parse errors on reformatted text:\n%s", diagString(sink2))
	}
	twice := Format(tree2)
	if once != twice {
		t.Errorf("format not idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}
}

func TestAssembleDeterministic(t *testing.T) {
	code := "foo: .word bar - foo\nnop\nnop\nnop\nbar: nop\n"
	first := assemble(t, code)
	second := assemble(t, code)
	if !bytesEqual(first, second) {
		t.Errorf("assemble not deterministic: % X vs % X", first, second)
	}
}

func TestLayoutStabilityMultiPassConvergence(t *testing.T) {
	// bar's address is only known once the whole file has been walked,
	// so codegen needs more than one pass to resolve foo's .word operand;
	// the byte at each address must come out the same regardless.
	got := assemble(t, "foo: .word bar - foo\nnop\nnop\nnop\nbar: nop\n")
	want := []byte{0x05, 0x00, 0xEA, 0xEA, 0xEA, 0xEA}
	if !bytesEqual(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestForwardReferenceEquivalence(t *testing.T) {
	forward := assemble(t, "jmp my_label\nmy_label: nop\n")
	backward := assemble(t, "my_label: nop\njmp my_label\n")
	// Both programs place the jmp target differently (the label lands
	// before or after the jump), so compare the decoded meaning rather
	// than raw bytes: the jmp operand must equal the address of the nop
	// it targets in each respective layout.
	if forward[0] != 0x4C || backward[1] != 0x4C {
		t.Fatalf("expected a jmp opcode at the instruction position in both orderings")
	}
	fwdTarget := int(forward[1]) | int(forward[2])<<8
	fwdNopAddr := 0xC000 + 3
	if fwdTarget != fwdNopAddr {
		t.Errorf("forward case: jmp target %04X != nop address %04X", fwdTarget, fwdNopAddr)
	}
	bwdTarget := int(backward[2]) | int(backward[3])<<8
	bwdNopAddr := 0xC000
	if bwdTarget != bwdNopAddr {
		t.Errorf("backward case: jmp target %04X != nop address %04X", bwdTarget, bwdNopAddr)
	}
}

func TestOverlapDetection(t *testing.T) {
	seg1 := NewSegment("a", 0xC000, true)
	seg1.Emit([]byte{1, 2, 3, 4})
	seg2 := NewSegment("b", 0xC002, true)
	seg2.Emit([]byte{5, 6, 7, 8})

	m := NewSegmentMerger()
	if err := m.Merge("out", seg1); err != nil {
		t.Fatalf("unexpected error merging first segment: %v", err)
	}
	if err := m.Merge("out", seg2); err == nil {
		t.Fatalf("expected overlap error, got none")
	} else if _, ok := err.(*OverlapError); !ok {
		t.Fatalf("expected *OverlapError, got %T: %v", err, err)
	}

	seg3 := NewSegment("c", 0xD000, true)
	seg3.Emit([]byte{9, 9})
	if err := m.Merge("out", seg3); err != nil {
		t.Errorf("disjoint segment unexpectedly failed to merge: %v", err)
	}
}

// TestOverlapDetectionThroughPipeline exercises the same overlap check
// as TestOverlapDetection, but through the real Parse/Assemble pipeline
// rather than by driving SegmentMerger directly: two distinctly-named
// `.segment` blocks with no `target` override both default to the
// single shared "" merge target (spec §4.7), so their intersecting
// address ranges collide exactly as build.rs's single SegmentMerger
// would catch them.
func TestOverlapDetectionThroughPipeline(t *testing.T) {
	code := ".define a {\n  start = $D000,\n  write = 1\n}\n" +
		".segment a {\n  .byte 1, 2, 3\n}\n" +
		".define b {\n  start = $D002,\n  write = 1\n}\n" +
		".segment b {\n  .byte 4, 5\n}\n"
	checkASMError(t, code, "segment overlap")
}
