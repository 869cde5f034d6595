// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm6502

// A TriviaKind classifies a single piece of non-semantic source text.
type TriviaKind byte

const (
	TriviaSpace     TriviaKind = iota // run of horizontal whitespace
	TriviaNewline                     // a single newline
	TriviaLineComment                 // "// ..." to end of line
	TriviaBlockComment                // "/* ... */", possibly nested
)

// A TriviaPiece is one lexical unit of whitespace or comment text,
// carried as sidecar data on the tree node that follows it so that
// reserializing the tree reproduces the input byte-for-byte. The code
// generator never consults trivia; only the formatter does.
type TriviaPiece struct {
	Kind TriviaKind
	Span Span
}

// scanTrivia consumes a maximal run of trivia starting at offset i in
// text, returning the pieces found and the offset just past them. An
// unterminated block comment is reported to the sink and recovered by
// consuming the remainder of the file.
func scanTrivia(file *SourceFile, i int, sink *ErrorSink) (pieces []TriviaPiece, next int) {
	text := file.Text
	for i < len(text) {
		switch {
		case text[i] == ' ' || text[i] == '\t':
			start := i
			for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
				i++
			}
			pieces = append(pieces, TriviaPiece{TriviaSpace, Span{file, start, i}})

		case text[i] == '\r' || text[i] == '\n':
			// A CR LF pair is one newline piece; a lone CR or LF is its own.
			start := i
			if text[i] == '\r' && i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			i++
			pieces = append(pieces, TriviaPiece{TriviaNewline, Span{file, start, i}})

		case hasPrefixAt(text, i, "//"):
			start := i
			for i < len(text) && text[i] != '\n' {
				i++
			}
			pieces = append(pieces, TriviaPiece{TriviaLineComment, Span{file, start, i}})

		case hasPrefixAt(text, i, "/*"):
			start := i
			depth := 1
			i += 2
			for i < len(text) && depth > 0 {
				switch {
				case hasPrefixAt(text, i, "/*"):
					depth++
					i += 2
				case hasPrefixAt(text, i, "*/"):
					depth--
					i += 2
				default:
					i++
				}
			}
			if depth > 0 {
				sink.Add(Span{file, start, i}, SeverityError, "unterminated block comment")
			}
			pieces = append(pieces, TriviaPiece{TriviaBlockComment, Span{file, start, i}})

		default:
			return pieces, i
		}
	}
	return pieces, i
}

func hasPrefixAt(s string, i int, prefix string) bool {
	return i+len(prefix) <= len(s) && s[i:i+len(prefix)] == prefix
}
