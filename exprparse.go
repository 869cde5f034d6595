// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm6502

import "strconv"

// exprParser parses integer expressions using a two-precedence
// recursive-descent (Pratt) scheme per spec §4.2, generalizing the
// teacher's shunting-yard implementation in asm/expr.go: term operators
// (* / << >> ^) bind tighter than expression operators
// (+ - == != < > <= >= && ||), and unary - and ! bind tightest of all,
// applied left-to-right before the primary.
type exprParser struct {
	sink *ErrorSink
}

func newExprParser(sink *ErrorSink) *exprParser {
	return &exprParser{sink: sink}
}

// parse parses one expression starting at the cursor. It consumes
// horizontal whitespace and comments while looking for a further
// operator, stops at the first character that cannot extend the
// expression (newline, comma, closing paren/brace not matched by an
// open one it consumed, etc.) and leaves the cursor there.
func (p *exprParser) parse(c *cursor) (Expr, bool) {
	return p.parseExpr(c)
}

// parseExpr handles the expression-precedence binary operators.
func (p *exprParser) parseExpr(c *cursor) (Expr, bool) {
	left, ok := p.parseTerm(c)
	if !ok {
		return nil, false
	}
	for {
		c.skipHorizontalTrivia(p.sink)
		op, width, matched := matchExprOp(c)
		if !matched {
			return left, true
		}
		c.pos += width
		c.skipHorizontalTrivia(p.sink)
		right, ok := p.parseTerm(c)
		if !ok {
			return nil, false
		}
		left = &BinaryExpr{
			exprBase: exprBase{Span{left.Span().File, left.Span().Begin, right.Span().End}},
			Op:       op,
			Left:     left,
			Right:    right,
		}
	}
}

// parseTerm handles the term-precedence binary operators.
func (p *exprParser) parseTerm(c *cursor) (Expr, bool) {
	left, ok := p.parseUnary(c)
	if !ok {
		return nil, false
	}
	for {
		c.skipHorizontalTrivia(p.sink)
		op, width, matched := matchTermOp(c)
		if !matched {
			return left, true
		}
		c.pos += width
		c.skipHorizontalTrivia(p.sink)
		right, ok := p.parseUnary(c)
		if !ok {
			return nil, false
		}
		left = &BinaryExpr{
			exprBase: exprBase{Span{left.Span().File, left.Span().Begin, right.Span().End}},
			Op:       op,
			Left:     left,
			Right:    right,
		}
	}
}

// parseUnary handles -, !, <, > prefixes (left-to-right, tightest
// binding) before falling through to a primary.
func (p *exprParser) parseUnary(c *cursor) (Expr, bool) {
	begin := c.pos
	switch c.peek() {
	case '-':
		// A '-' not followed by anything that can start a primary is
		// the anonymous backward-label reference (spec §4.2), not a
		// negation prefix: `bne -` vs `lda -1`.
		if !canStartPrimaryAt(c, 1) {
			c.pos++
			return &AnonRefExpr{exprBase{c.span(begin)}, false, nil}, true
		}
		c.pos++
		c.skipHorizontalTrivia(p.sink)
		operand, ok := p.parseUnary(c)
		if !ok {
			return nil, false
		}
		return &FactorExpr{exprBase{c.span(begin)}, true, false, operand}, true

	case '+':
		// There is no unary '+' in the grammar; a bare '+' is always the
		// anonymous forward-label reference.
		c.pos++
		return &AnonRefExpr{exprBase{c.span(begin)}, true, nil}, true

	case '!':
		c.pos++
		c.skipHorizontalTrivia(p.sink)
		operand, ok := p.parseUnary(c)
		if !ok {
			return nil, false
		}
		return &FactorExpr{exprBase{c.span(begin)}, false, true, operand}, true

	case '<':
		if c.peekAt(1) == '<' {
			break // not a modifier; let the caller see `<<` as a term op
		}
		c.pos++
		c.skipHorizontalTrivia(p.sink)
		operand, ok := p.parseUnary(c)
		if !ok {
			return nil, false
		}
		return &ModifierExpr{exprBase{c.span(begin)}, ModifierLow, operand}, true

	case '>':
		if c.peekAt(1) == '>' {
			break
		}
		c.pos++
		c.skipHorizontalTrivia(p.sink)
		operand, ok := p.parseUnary(c)
		if !ok {
			return nil, false
		}
		return &ModifierExpr{exprBase{c.span(begin)}, ModifierHigh, operand}, true
	}
	return p.parsePrimary(c)
}

func (p *exprParser) parsePrimary(c *cursor) (Expr, bool) {
	begin := c.pos
	switch {
	case c.atEnd():
		p.sink.Errorf(c.here(), "expected expression")
		return nil, false

	case c.peek() == '*':
		c.pos++
		return &PCExpr{exprBase{c.span(begin)}}, true

	case c.peek() == '$':
		return p.parseNumber(c, begin)

	case c.peek() == '%':
		return p.parseNumber(c, begin)

	case isDigit(c.peek()):
		return p.parseNumber(c, begin)

	case c.peek() == '[':
		c.pos++
		c.skipTrivia(p.sink)
		inner, ok := p.parseExpr(c)
		if !ok {
			return nil, false
		}
		c.skipTrivia(p.sink)
		if c.peek() != ']' {
			p.sink.Errorf(c.here(), "expected ']'")
			return nil, false
		}
		c.pos++
		return &ParenExpr{exprBase{c.span(begin)}, inner}, true

	case isIdentStart(c.peek()):
		path := p.parsePath(c)
		name := path[len(path)-1]
		if len(path) == 1 && c.peek() == '(' {
			return p.parseCall(c, begin, name)
		}
		return &IdentExpr{exprBase{c.span(begin)}, path}, true

	default:
		p.sink.Errorf(c.here(), "unexpected character '%c' in expression", c.peek())
		return nil, false
	}
}

func (p *exprParser) parsePath(c *cursor) []string {
	var path []string
	for {
		start := c.pos
		for !c.atEnd() && isIdentChar(c.peek()) {
			c.pos++
		}
		path = append(path, c.file.Text[start:c.pos])
		if c.peek() == '.' && isIdentStart(c.peekAt(1)) {
			c.pos++
			continue
		}
		return path
	}
}

func (p *exprParser) parseCall(c *cursor, begin int, name string) (Expr, bool) {
	c.pos++ // consume '('
	var args []Expr
	c.skipTrivia(p.sink)
	if c.peek() != ')' {
		for {
			arg, ok := p.parseExpr(c)
			if !ok {
				return nil, false
			}
			args = append(args, arg)
			c.skipTrivia(p.sink)
			if c.peek() == ',' {
				c.pos++
				c.skipTrivia(p.sink)
				continue
			}
			break
		}
	}
	if c.peek() != ')' {
		p.sink.Errorf(c.here(), "expected ')' in call to %s", name)
		return nil, false
	}
	c.pos++
	return &CallExpr{exprBase{c.span(begin)}, name, args}, true
}

func (p *exprParser) parseNumber(c *cursor, begin int) (Expr, bool) {
	var digits string
	var base int
	var kind NumberKind
	switch {
	case c.peek() == '$':
		c.pos++
		base, kind = 16, NumberHex
		start := c.pos
		for !c.atEnd() && isHexDigit(c.peek()) {
			c.pos++
		}
		digits = c.file.Text[start:c.pos]

	case c.peek() == '%':
		c.pos++
		base, kind = 2, NumberBinary
		start := c.pos
		for !c.atEnd() && isBinDigit(c.peek()) {
			c.pos++
		}
		digits = c.file.Text[start:c.pos]

	default:
		base, kind = 10, NumberDecimal
		start := c.pos
		for !c.atEnd() && isDigit(c.peek()) {
			c.pos++
		}
		digits = c.file.Text[start:c.pos]
	}

	if digits == "" {
		p.sink.Errorf(c.span(begin), "invalid numeric literal")
		return nil, false
	}

	v, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		p.sink.Errorf(c.span(begin), "numeric literal out of range: %s", digits)
	}
	return &NumberExpr{exprBase{c.span(begin)}, int(v), kind}, true
}

// canStartPrimaryAt reports whether the character at c.peekAt(offset)
// could begin a primary expression, used to disambiguate a bare '-'
// from a negation prefix.
func canStartPrimaryAt(c *cursor, offset int) bool {
	ch := c.peekAt(offset)
	switch {
	case isDigit(ch), isIdentStart(ch):
		return true
	case ch == '$' || ch == '%' || ch == '*' || ch == '[':
		return true
	case ch == '-' || ch == '!' || ch == '<' || ch == '>':
		return true
	}
	return false
}

// matchTermOp recognizes a term-precedence operator at the cursor
// without consuming it. The two-character operators must be checked
// before their single-character prefixes.
func matchTermOp(c *cursor) (op BinOp, width int, ok bool) {
	switch {
	case c.hasPrefix("<<"):
		return OpShl, 2, true
	case c.hasPrefix(">>"):
		return OpShr, 2, true
	case c.peek() == '*':
		return OpMul, 1, true
	case c.peek() == '/':
		return OpDiv, 1, true
	case c.peek() == '^':
		return OpXor, 1, true
	}
	return 0, 0, false
}

func matchExprOp(c *cursor) (op BinOp, width int, ok bool) {
	switch {
	case c.hasPrefix("=="):
		return OpEq, 2, true
	case c.hasPrefix("!="):
		return OpNe, 2, true
	case c.hasPrefix("<="):
		return OpLe, 2, true
	case c.hasPrefix(">="):
		return OpGe, 2, true
	case c.hasPrefix("&&"):
		return OpAnd, 2, true
	case c.hasPrefix("||"):
		return OpOr, 2, true
	case c.peek() == '+':
		return OpAdd, 1, true
	case c.peek() == '-':
		return OpSub, 1, true
	case c.peek() == '<':
		return OpLt, 1, true
	case c.peek() == '>':
		return OpGt, 1, true
	}
	return 0, 0, false
}
