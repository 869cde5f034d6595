// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm6502

import "strings"

// Format reserializes a single file's top-level statement list
// (as returned by Parser.ParseFile) back to source text.
//
// Every statement's span is captured after its entire syntax —
// including any nested block and its closing brace — has been
// consumed (spec §4.2 "Trivia policy": "every node ... attaches the
// immediately preceding run of trivia"), so a statement's own
// Leading() plus its Span().Text() already reproduce that statement's
// complete original bytes. Format never needs to descend into a
// SegmentStmt's Body, an IfStmt's Then/Else, or a LabelStmt's Block to
// reconstruct them from their children: doing so would print the same
// bytes twice. The one exception, IncludeStmt, is handled the same
// way for the same reason in the other direction — its Included
// statements belong to a different SourceFile, so reprinting this
// file must stop at the `.include "path"` text itself.
//
// This makes Format a pure identity transform: Format(Parse(text)) ==
// text, and therefore Format(Format(x)) == Format(x) trivially. A
// policy-driven pretty-printer that reflows whitespace is a separate
// collaborator layered on top of this tree (spec §1); it is not this
// function's job.
func Format(stmts []Statement) string {
	var b strings.Builder
	for _, s := range stmts {
		writeTrivia(&b, s.Leading())
		b.WriteString(s.Span().Text())
	}
	return b.String()
}

func writeTrivia(b *strings.Builder, pieces []TriviaPiece) {
	for _, p := range pieces {
		b.WriteString(p.Span.Text())
	}
}
