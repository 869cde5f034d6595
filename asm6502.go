// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm6502

import (
	"os"
)

// DefaultLoader resolves `.include` paths directly against the
// filesystem, relative to the working directory. Command-line tooling
// passes this to Parse, since the core parser never touches the
// filesystem itself; the lspsrv language server passes nil instead.
func DefaultLoader(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Parse parses filename/text into a statement tree, resolving any
// `.include` directives through loader (spec §6 "Input boundary":
// "(filename, source_text) -> (tree, diagnostics)"). A nil loader
// leaves `.include` unresolved, reported as a diagnostic, which is
// useful for parsing a single buffer in isolation (e.g. a language
// server validating one open file before its includes are known).
func Parse(filename, text string, loader Loader) (tree []Statement, sources *SourceSet, sink *ErrorSink) {
	sources = NewSourceSet()
	file, _ := sources.AddFile(filename, text)
	sink = &ErrorSink{}
	p := NewParser(sources, sink, loader)
	tree = p.ParseFile(file)
	return tree, sources, sink
}

// Image is one named, writable segment's composed output, ready to be
// written as a `.prg`-style file by prepending its little-endian load
// address (spec §6 "Output boundary").
type Image struct {
	Target  string
	Address uint16
	Data    []byte
}

// Assemble runs the code generator and segment merger over a parsed
// tree, returning one Image per merge target in no particular order,
// plus the symbol table codegen produced (spec §6: "(tree,
// options{initial_pc}) -> (segments_by_name, symbol_table,
// diagnostics)"; the merger's "(start_address_u16, bytes)" pair is
// folded into Image here since that is the whole point of merging).
// Every written segment merges into its Target, which defaults to the
// single shared "" target unless a `.define` block names a distinct
// one — so a build ordinarily composes all of its `.segment` blocks
// into one image, and two segments whose written ranges collide are
// caught by SegmentMerger.Merge, not silently layered in separate
// images keyed by segment name.
func Assemble(tree []Statement, opts Options, sink *ErrorSink) (images []Image, symtab *SymbolTable) {
	segments, order, symtab := GenerateCode(tree, opts, sink)

	merger := NewSegmentMerger()
	for _, name := range order {
		seg := segments[name]
		if !seg.Write {
			continue
		}
		target := seg.Target
		if err := merger.Merge(target, seg); err != nil {
			sink.Errorf(Span{}, "%v", err)
		}
	}

	for target, t := range merger.Targets() {
		lo, hi, ok := t.Range()
		if !ok {
			continue
		}
		images = append(images, Image{
			Target:  target,
			Address: uint16(lo),
			Data:    append([]byte(nil), t.Data[lo:hi]...),
		})
	}
	return images, symtab
}
