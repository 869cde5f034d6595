// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm6502

// A cursor is a position within a single source file's text, used by
// both the statement parser and the expression parser to consume
// characters and produce spans. It generalizes the teacher's fstring
// (asm/fstring.go) from line-local substrings to whole-file offsets, so
// that trivia (including block comments) can span multiple lines.
type cursor struct {
	file *SourceFile
	pos  int
}

func newCursor(file *SourceFile) *cursor {
	return &cursor{file: file, pos: 0}
}

func (c *cursor) atEnd() bool {
	return c.pos >= len(c.file.Text)
}

func (c *cursor) peek() byte {
	if c.atEnd() {
		return 0
	}
	return c.file.Text[c.pos]
}

func (c *cursor) peekAt(offset int) byte {
	i := c.pos + offset
	if i < 0 || i >= len(c.file.Text) {
		return 0
	}
	return c.file.Text[i]
}

func (c *cursor) hasPrefix(s string) bool {
	return hasPrefixAt(c.file.Text, c.pos, s)
}

func (c *cursor) span(begin int) Span {
	return Span{c.file, begin, c.pos}
}

func (c *cursor) here() Span {
	return Span{c.file, c.pos, c.pos}
}

// skipTrivia consumes and returns leading trivia at the cursor,
// advancing past it.
func (c *cursor) skipTrivia(sink *ErrorSink) []TriviaPiece {
	pieces, next := scanTrivia(c.file, c.pos, sink)
	c.pos = next
	return pieces
}

// skipHorizontalTrivia consumes only spaces/tabs and comments, stopping
// at a newline. Used within a single logical line (e.g. between an
// opcode and its operand) where crossing a newline would be wrong.
func (c *cursor) skipHorizontalTrivia(sink *ErrorSink) {
	for !c.atEnd() {
		switch {
		case c.peek() == ' ' || c.peek() == '\t':
			c.pos++
		case c.hasPrefix("//"):
			for !c.atEnd() && c.peek() != '\n' {
				c.pos++
			}
		case c.hasPrefix("/*"):
			begin := c.pos
			c.pos += 2
			depth := 1
			for !c.atEnd() && depth > 0 {
				switch {
				case c.hasPrefix("/*"):
					depth++
					c.pos += 2
				case c.hasPrefix("*/"):
					depth--
					c.pos += 2
				default:
					c.pos++
				}
			}
			if depth > 0 {
				sink.Errorf(c.span(begin), "unterminated block comment")
			}
		default:
			return
		}
	}
}

//
// character classifiers
//

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isBinDigit(c byte) bool {
	return c == '0' || c == '1'
}

func isIdentStart(c byte) bool {
	return isAlpha(c) || c == '_'
}

func isIdentChar(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '_'
}

func isNewline(c byte) bool {
	return c == '\n' || c == '\r'
}
