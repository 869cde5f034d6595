// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm6502

import (
	"fmt"
	"strings"
)

// Loader resolves the textual contents of a `.include`d file. The core
// package never touches the filesystem itself (spec's file-I/O
// boundary is owned by the CLI/LSP shells); DefaultLoader supplies the
// obvious os.ReadFile-backed implementation for command-line use. The
// language server passes a nil Loader, so `.include` is reported as
// unresolved there.
type Loader func(path string) (string, error)

// Parser turns a SourceFile into a Statement tree, generalizing the
// teacher's line-oriented parseLine/parseLabeledLine/parsePseudoOp
// family (asm/asm.go) from fixed-format assembler lines into a
// recursive-descent grammar over whole files, with brace-delimited
// blocks, trivia attachment, and statement-level error recovery
// (spec §4.2).
type Parser struct {
	sources *SourceSet
	sink    *ErrorSink
	loader  Loader
	expr    *exprParser

	anonCounter int

	included map[string]bool // canonical paths currently open, for self-inclusion detection
}

// NewParser creates a parser over the given source set, pushing
// diagnostics to sink and resolving `.include` targets through loader.
func NewParser(sources *SourceSet, sink *ErrorSink, loader Loader) *Parser {
	return &Parser{
		sources:  sources,
		sink:     sink,
		loader:   loader,
		expr:     newExprParser(sink),
		included: make(map[string]bool),
	}
}

// ParseFile parses file's full contents as a top-level translation
// unit, splicing in any `.include`d files inline at the point of
// inclusion, and resolves anonymous (`+`/`-`) label references against
// the definitions seen across the whole unit.
func (p *Parser) ParseFile(file *SourceFile) []Statement {
	p.included[file.Path] = true
	c := newCursor(file)
	stmts := p.parseBlock(c, false)
	p.resolveAnonymousLabels(stmts)
	return stmts
}

// parseBlock parses statements until EOF (!nested) or a closing '}'
// left unconsumed for the caller. The trivia immediately preceding
// that '}' is attached to the synthetic Eof/closing marker the caller
// embeds in its own node, not dropped.
func (p *Parser) parseBlock(c *cursor, nested bool) []Statement {
	var stmts []Statement
	for {
		leading := c.skipTrivia(p.sink)
		if c.atEnd() {
			stmts = append(stmts, &EOFStmt{stmtBase{c.here(), leading}})
			return stmts
		}
		if nested && c.peek() == '}' {
			// Leave '}' for the caller; reattach the trivia we just
			// consumed by rewinding isn't possible (it may span a
			// comment we already recorded), so fold it into a
			// zero-width Eof-like marker the caller discards after
			// reading its Leading(). This keeps round-trip lossless
			// without needing a distinct "closing brace" node kind.
			stmts = append(stmts, &EOFStmt{stmtBase{c.here(), leading}})
			return stmts
		}
		stmt := p.parseStatement(c, leading)
		stmts = append(stmts, stmt)
	}
}

// parseStatement parses exactly one statement, given its already-
// consumed leading trivia.
func (p *Parser) parseStatement(c *cursor, leading []TriviaPiece) Statement {
	begin := c.pos
	base := stmtBase{span: Span{}, leading: leading}
	_ = base

	switch {
	case c.peek() == '{':
		c.pos++
		body := p.parseBlock(c, true)
		p.consumeClosingBrace(c)
		return &BracesStmt{stmtBase{c.span(begin), leading}, body}

	case c.peek() == '*':
		// Could be a PC-relative assignment `* = expr` or, inside an
		// expression context, the PC token — but at statement start
		// only the assignment form is a valid statement.
		if p.lookaheadIsPCAssign(c) {
			return p.parsePCAssign(c, begin, leading)
		}
		return p.recoverUnexpected(c, begin, leading)

	case c.peek() == '.':
		return p.parseDirective(c, begin, leading)

	case c.peek() == '-' || c.peek() == '+':
		if name, isDef := p.tryAnonLabelDef(c); isDef {
			return p.finishLabel(c, begin, leading, name, true)
		}
		return p.recoverUnexpected(c, begin, leading)

	case isIdentStart(c.peek()):
		return p.parseIdentStatement(c, begin, leading)

	default:
		return p.recoverUnexpected(c, begin, leading)
	}
}

// consumeClosingBrace eats the '}' a nested parseBlock left behind. A
// missing brace (EOF instead) is reported once, at the point of use,
// rather than inside parseBlock, since only the caller knows whether
// one was expected.
func (p *Parser) consumeClosingBrace(c *cursor) {
	if c.peek() == '}' {
		c.pos++
		return
	}
	p.sink.Errorf(c.here(), "expected '}'")
}

// lookaheadIsPCAssign reports whether the `*` at the cursor begins a
// `* = expr` statement rather than being mid-expression (it never is,
// here, since parseStatement only runs at statement boundaries, but
// the explicit check documents the grammar and guards against a bare
// `*` with no '=' being silently swallowed).
func (p *Parser) lookaheadIsPCAssign(c *cursor) bool {
	i := c.pos + 1
	for i < len(c.file.Text) && (c.file.Text[i] == ' ' || c.file.Text[i] == '\t') {
		i++
	}
	return i < len(c.file.Text) && c.file.Text[i] == '='
}

func (p *Parser) parsePCAssign(c *cursor, begin int, leading []TriviaPiece) Statement {
	c.pos++ // '*'
	c.skipHorizontalTrivia(p.sink)
	if c.peek() != '=' {
		p.sink.Errorf(c.here(), "expected '=' after '*'")
		return p.recoverStatement(c, begin, leading)
	}
	c.pos++
	c.skipHorizontalTrivia(p.sink)
	val, ok := p.expr.parse(c)
	if !ok {
		return p.recoverStatement(c, begin, leading)
	}
	p.endOfStatement(c)
	return &PCAssignStmt{stmtBase{c.span(begin), leading}, val}
}

// tryAnonLabelDef reports whether a bare '-' or '+' at the cursor is
// an anonymous label definition (immediately followed by ':') rather
// than a reference; if so it consumes through the ':'.
func (p *Parser) tryAnonLabelDef(c *cursor) (name string, ok bool) {
	ch := c.peek()
	if c.peekAt(1) != ':' {
		return "", false
	}
	c.pos += 2
	return string(ch), true
}

func (p *Parser) parseIdentStatement(c *cursor, begin int, leading []TriviaPiece) Statement {
	start := c.pos
	for !c.atEnd() && isIdentChar(c.peek()) {
		c.pos++
	}
	name := c.file.Text[start:c.pos]

	save := c.pos
	c.skipHorizontalTrivia(p.sink)
	if c.peek() == ':' {
		c.pos++
		return p.finishLabel(c, begin, leading, name, false)
	}
	c.pos = save

	if IsMnemonic(name) {
		return p.parseInstruction(c, begin, leading, name)
	}

	p.sink.Errorf(Span{c.file, start, save}, "unknown mnemonic or undeclared label %q", name)
	return p.recoverStatement(c, begin, leading)
}

// finishLabel parses the optional brace-delimited block following a
// label name (spec §3 "optional { block }"), whether the label is a
// plain identifier or an anonymous `-`/`+` token.
func (p *Parser) finishLabel(c *cursor, begin int, leading []TriviaPiece, name string, anon bool) Statement {
	stmt := &LabelStmt{stmtBase: stmtBase{span: Span{}, leading: leading}, Name: name}
	if anon {
		stmt.AnonKey = fmt.Sprintf("~anon%d", p.anonCounter)
		p.anonCounter++
	}

	if peekAfterTrivia(c) == '{' {
		stmt.BlockLeading = c.skipTrivia(p.sink)
		c.pos++ // '{'
		stmt.Block = p.parseBlock(c, true)
		p.consumeClosingBrace(c)
	}
	stmt.span = c.span(begin)
	return stmt
}

// peekAfterTrivia reports the first non-trivia byte at or after the
// cursor without consuming anything or reporting diagnostics (a
// malformed comment found here will be re-reported, correctly, when
// the caller actually consumes the trivia).
func peekAfterTrivia(c *cursor) byte {
	discard := &ErrorSink{}
	_, next := scanTrivia(c.file, c.pos, discard)
	if next >= len(c.file.Text) {
		return 0
	}
	return c.file.Text[next]
}

func (p *Parser) parseInstruction(c *cursor, begin int, leading []TriviaPiece, mnemonic string) Statement {
	var operand *Operand
	save := c.pos
	c.skipHorizontalTrivia(p.sink)
	if !p.atStatementEnd(c) {
		c.pos = save
		c.skipHorizontalTrivia(p.sink)
		op, ok := p.parseOperand(c)
		if !ok {
			return p.recoverStatement(c, begin, leading)
		}
		operand = op
	} else {
		c.pos = save
	}
	p.endOfStatement(c)
	return &InstructionStmt{stmtBase{c.span(begin), leading}, mnemonic, operand}
}

// parseOperand parses one of the addressing-mode surface forms (spec
// §4.6 selection table): `#expr` immediate, `(expr,X)` / `(expr),Y`
// indirect forms, or a bare `expr[,X|,Y]` absolute-or-zero-page form.
func (p *Parser) parseOperand(c *cursor) (*Operand, bool) {
	switch {
	case c.peek() == '#':
		c.pos++
		c.skipHorizontalTrivia(p.sink)
		e, ok := p.expr.parse(c)
		if !ok {
			return nil, false
		}
		return &Operand{Mode: ModeImmediate, Expr: e}, true

	case c.peek() == '(':
		return p.parseIndirectOperand(c)

	default:
		e, ok := p.expr.parse(c)
		if !ok {
			return nil, false
		}
		reg := p.parseTrailingRegister(c)
		return &Operand{Mode: ModeAbsoluteOrZP, Expr: e, Register: reg}, true
	}
}

func (p *Parser) parseIndirectOperand(c *cursor) (*Operand, bool) {
	c.pos++ // '('
	c.skipHorizontalTrivia(p.sink)
	e, ok := p.expr.parse(c)
	if !ok {
		return nil, false
	}
	c.skipHorizontalTrivia(p.sink)
	switch {
	case c.peek() == ',':
		// (expr,X)
		c.pos++
		c.skipHorizontalTrivia(p.sink)
		if !p.expectRegister(c, RegX) {
			return nil, false
		}
		c.skipHorizontalTrivia(p.sink)
		if c.peek() != ')' {
			p.sink.Errorf(c.here(), "expected ')'")
			return nil, false
		}
		c.pos++
		return &Operand{Mode: ModeIndirect, Expr: e, Register: RegX}, true

	case c.peek() == ')':
		c.pos++
		c.skipHorizontalTrivia(p.sink)
		if c.peek() == ',' {
			c.pos++
			c.skipHorizontalTrivia(p.sink)
			if !p.expectRegister(c, RegY) {
				return nil, false
			}
			return &Operand{Mode: ModeOuterIndirect, Expr: e, Register: RegY}, true
		}
		return &Operand{Mode: ModeIndirect, Expr: e}, true

	default:
		p.sink.Errorf(c.here(), "expected ',' or ')'")
		return nil, false
	}
}

func (p *Parser) expectRegister(c *cursor, want Register) bool {
	r := p.parseTrailingRegister(c)
	if r != want {
		p.sink.Errorf(c.here(), "expected register %s", registerName(want))
		return false
	}
	return true
}

func registerName(r Register) string {
	if r == RegX {
		return "X"
	}
	return "Y"
}

func (p *Parser) parseTrailingRegister(c *cursor) Register {
	save := c.pos
	c.skipHorizontalTrivia(p.sink)
	if c.peek() != ',' {
		c.pos = save
		return RegNone
	}
	c.pos++
	c.skipHorizontalTrivia(p.sink)
	switch {
	case c.peek() == 'x' || c.peek() == 'X':
		c.pos++
		return RegX
	case c.peek() == 'y' || c.peek() == 'Y':
		c.pos++
		return RegY
	default:
		p.sink.Errorf(c.here(), "expected register name after ','")
		return RegNone
	}
}

// parseDirective dispatches on the `.name` keyword (spec §4.1/§3).
func (p *Parser) parseDirective(c *cursor, begin int, leading []TriviaPiece) Statement {
	start := c.pos
	c.pos++ // '.'
	for !c.atEnd() && isIdentChar(c.peek()) {
		c.pos++
	}
	kw := strings.ToLower(c.file.Text[start:c.pos])

	switch kw {
	case ".byte":
		return p.parseData(c, begin, leading, 1)
	case ".word":
		return p.parseData(c, begin, leading, 2)
	case ".dword":
		return p.parseData(c, begin, leading, 4)
	case ".var":
		return p.parseVarDecl(c, begin, leading, false)
	case ".const":
		return p.parseVarDecl(c, begin, leading, true)
	case ".align":
		return p.parseAlign(c, begin, leading)
	case ".segment":
		return p.parseSegment(c, begin, leading)
	case ".if":
		return p.parseIf(c, begin, leading)
	case ".include":
		return p.parseInclude(c, begin, leading)
	case ".define":
		return p.parseDefine(c, begin, leading)
	default:
		p.sink.Errorf(Span{c.file, start, c.pos}, "unknown directive %q", kw)
		return p.recoverStatement(c, begin, leading)
	}
}

func (p *Parser) parseData(c *cursor, begin int, leading []TriviaPiece, size int) Statement {
	c.skipHorizontalTrivia(p.sink)
	var values []Expr
	for {
		e, ok := p.expr.parse(c)
		if !ok {
			return p.recoverStatement(c, begin, leading)
		}
		values = append(values, e)
		c.skipHorizontalTrivia(p.sink)
		if c.peek() == ',' {
			c.pos++
			c.skipHorizontalTrivia(p.sink)
			continue
		}
		break
	}
	p.endOfStatement(c)
	return &DataStmt{stmtBase{c.span(begin), leading}, size, values}
}

func (p *Parser) parseVarDecl(c *cursor, begin int, leading []TriviaPiece, isConst bool) Statement {
	c.skipHorizontalTrivia(p.sink)
	name, ok := p.parseIdentName(c)
	if !ok {
		return p.recoverStatement(c, begin, leading)
	}
	c.skipHorizontalTrivia(p.sink)
	if c.peek() != '=' {
		p.sink.Errorf(c.here(), "expected '=' in declaration of %q", name)
		return p.recoverStatement(c, begin, leading)
	}
	c.pos++
	c.skipHorizontalTrivia(p.sink)
	val, ok := p.expr.parse(c)
	if !ok {
		return p.recoverStatement(c, begin, leading)
	}
	p.endOfStatement(c)
	return &VarDeclStmt{stmtBase{c.span(begin), leading}, isConst, name, val}
}

func (p *Parser) parseAlign(c *cursor, begin int, leading []TriviaPiece) Statement {
	c.skipHorizontalTrivia(p.sink)
	val, ok := p.expr.parse(c)
	if !ok {
		return p.recoverStatement(c, begin, leading)
	}
	p.endOfStatement(c)
	return &AlignStmt{stmtBase{c.span(begin), leading}, val}
}

func (p *Parser) parseSegment(c *cursor, begin int, leading []TriviaPiece) Statement {
	c.skipHorizontalTrivia(p.sink)
	name, ok := p.parseIdentName(c)
	if !ok {
		return p.recoverStatement(c, begin, leading)
	}
	c.skipHorizontalTrivia(p.sink)
	if c.peek() != '{' {
		p.sink.Errorf(c.here(), "expected '{' after segment name")
		return p.recoverStatement(c, begin, leading)
	}
	c.pos++
	body := p.parseBlock(c, true)
	p.consumeClosingBrace(c)
	return &SegmentStmt{stmtBase{c.span(begin), leading}, name, body}
}

func (p *Parser) parseIf(c *cursor, begin int, leading []TriviaPiece) Statement {
	c.skipHorizontalTrivia(p.sink)
	cond, ok := p.expr.parse(c)
	if !ok {
		return p.recoverStatement(c, begin, leading)
	}
	c.skipHorizontalTrivia(p.sink)
	if c.peek() != '{' {
		p.sink.Errorf(c.here(), "expected '{' after .if condition")
		return p.recoverStatement(c, begin, leading)
	}
	c.pos++
	then := p.parseBlock(c, true)
	p.consumeClosingBrace(c)

	// Peek past the trivia following the `.if` block without reporting
	// diagnostics for it yet, so a missing `else` leaves the cursor
	// (and the sink) untouched for the enclosing parseBlock to re-skip
	// as the next statement's leading trivia — otherwise an
	// unterminated block comment in that trivia would be reported
	// twice.
	var els []Statement
	discard := &ErrorSink{}
	_, next := scanTrivia(c.file, c.pos, discard)
	if hasPrefixAt(c.file.Text, next, "else") && !isIdentChar(c.peekAt(next-c.pos+4)) {
		c.skipTrivia(p.sink)
		c.consumeDirective("else")
		c.skipHorizontalTrivia(p.sink)
		if c.peek() != '{' {
			p.sink.Errorf(c.here(), "expected '{' after else")
			return p.recoverStatement(c, begin, leading)
		}
		c.pos++
		els = p.parseBlock(c, true)
		p.consumeClosingBrace(c)
	}
	return &IfStmt{stmtBase{c.span(begin), leading}, cond, then, els}
}

func (p *Parser) parseInclude(c *cursor, begin int, leading []TriviaPiece) Statement {
	c.skipHorizontalTrivia(p.sink)
	path, ok := p.parseQuotedString(c)
	if !ok {
		return p.recoverStatement(c, begin, leading)
	}
	p.endOfStatement(c)
	stmt := &IncludeStmt{stmtBase{c.span(begin), leading}, path}

	if p.loader == nil {
		p.sink.Errorf(stmt.span, "no file loader configured to resolve .include %q", path)
		return stmt
	}
	text, err := p.loader(path)
	if err != nil {
		p.sink.Errorf(stmt.span, "cannot include %q: %v", path, err)
		return stmt
	}
	canon := canonicalPath(path)
	if p.included[canon] {
		p.sink.Errorf(stmt.span, "self-inclusion detected for %q", path)
		return stmt
	}
	file, added := p.sources.AddFile(path, text)
	if !added && p.included[file.Path] {
		p.sink.Errorf(stmt.span, "self-inclusion detected for %q", path)
		return stmt
	}
	p.included[file.Path] = true
	nested := p.parseBlock(newCursor(file), false)
	delete(p.included, file.Path)
	// The trailing Eof marker of the included file's own statement list
	// carries only that file's final trivia and is not itself part of
	// the splice; drop it, keeping everything else inline in program
	// order (this is what makes anonymous-label resolution work across
	// an `.include` boundary).
	if n := len(nested); n > 0 {
		if _, isEOF := nested[n-1].(*EOFStmt); isEOF {
			nested = nested[:n-1]
		}
	}
	stmt.Included = nested
	return stmt
}

func (p *Parser) parseDefine(c *cursor, begin int, leading []TriviaPiece) Statement {
	c.skipHorizontalTrivia(p.sink)
	name, ok := p.parseIdentName(c)
	if !ok {
		return p.recoverStatement(c, begin, leading)
	}
	c.skipHorizontalTrivia(p.sink)
	if c.peek() != '{' {
		p.sink.Errorf(c.here(), "expected '{' after .define name")
		return p.recoverStatement(c, begin, leading)
	}
	c.pos++
	var entries []DefineEntry
	for {
		c.skipTrivia(p.sink)
		if c.peek() == '}' {
			break
		}
		key, ok := p.parseIdentName(c)
		if !ok {
			return p.recoverStatement(c, begin, leading)
		}
		c.skipHorizontalTrivia(p.sink)
		if c.peek() != '=' {
			p.sink.Errorf(c.here(), "expected '=' after %q", key)
			return p.recoverStatement(c, begin, leading)
		}
		c.pos++
		c.skipHorizontalTrivia(p.sink)
		val, ok := p.expr.parse(c)
		if !ok {
			return p.recoverStatement(c, begin, leading)
		}
		entries = append(entries, DefineEntry{key, val})
		c.skipTrivia(p.sink)
		if c.peek() == ',' {
			c.pos++
			continue
		}
		break
	}
	c.skipTrivia(p.sink)
	p.consumeClosingBrace(c)
	p.endOfStatement(c)
	return &DefineStmt{stmtBase{c.span(begin), leading}, name, entries}
}

func (p *Parser) parseIdentName(c *cursor) (string, bool) {
	if !isIdentStart(c.peek()) {
		p.sink.Errorf(c.here(), "expected identifier")
		return "", false
	}
	start := c.pos
	for !c.atEnd() && isIdentChar(c.peek()) {
		c.pos++
	}
	return c.file.Text[start:c.pos], true
}

func (p *Parser) parseQuotedString(c *cursor) (string, bool) {
	if c.peek() != '"' {
		p.sink.Errorf(c.here(), "expected a quoted string")
		return "", false
	}
	c.pos++
	start := c.pos
	for !c.atEnd() && c.peek() != '"' && !isNewline(c.peek()) {
		c.pos++
	}
	if c.peek() != '"' {
		p.sink.Errorf(c.here(), "unterminated string literal")
		return "", false
	}
	s := c.file.Text[start:c.pos]
	c.pos++
	return s, true
}

// atStatementEnd reports whether the cursor sits at the end of the
// current logical line: EOF, newline, or a closing brace belonging to
// an enclosing block.
func (p *Parser) atStatementEnd(c *cursor) bool {
	return c.atEnd() || isNewline(c.peek()) || c.peek() == '}'
}

// endOfStatement verifies (without consuming past it) that nothing but
// trivia remains on the current line, reporting and recovering from
// trailing garbage.
func (p *Parser) endOfStatement(c *cursor) {
	save := c.pos
	c.skipHorizontalTrivia(p.sink)
	if !p.atStatementEnd(c) {
		p.sink.Errorf(c.here(), "unexpected trailing text")
		for !c.atEnd() && !isNewline(c.peek()) && c.peek() != '}' {
			c.pos++
		}
		return
	}
	c.pos = save
}

func (c *cursor) consumeDirective(kw string) {
	c.pos += len(kw)
}

// recoverUnexpected reports an unexpected character at the start of a
// statement and recovers at the next statement boundary (spec §4.2
// "Errors... the parser continues at the next of ')', '}', newline").
func (p *Parser) recoverUnexpected(c *cursor, begin int, leading []TriviaPiece) Statement {
	p.sink.Errorf(c.here(), "unexpected character %q", string(c.peek()))
	return p.recoverStatement(c, begin, leading)
}

// recoverStatement consumes raw text through the next statement
// boundary and wraps it in an ErrorStmt, so one malformed line never
// derails the rest of the file (spec §4.2, §4.8 "accumulate, don't
// abort").
func (p *Parser) recoverStatement(c *cursor, begin int, leading []TriviaPiece) Statement {
	for !c.atEnd() && !isNewline(c.peek()) && c.peek() != '}' && c.peek() != ')' {
		c.pos++
	}
	return &ErrorStmt{stmtBase{c.span(begin), leading}, c.file.Text[begin:c.pos]}
}

// anonEvent is one anonymous-label definition or reference encountered
// during a document-order walk of the parsed tree.
type anonEvent struct {
	isDef bool
	name  string // "-" or "+"; meaningful for defs
	path  []string
	ref   *AnonRefExpr
}

// resolveAnonymousLabels matches every AnonRefExpr in the tree against
// the nearest preceding ('-') or following ('+') anonymous label
// definition with the same direction marker (spec §4.2; classic
// ACME/Kick-Assembler-style scoped anonymous labels). The walk visits
// statements (and, for `.include`, the spliced-in Included statements)
// in document order, so `.include` boundaries resolve correctly.
func (p *Parser) resolveAnonymousLabels(stmts []Statement) {
	var events []anonEvent

	var walkExpr func(e Expr)
	walkExpr = func(e Expr) {
		switch n := e.(type) {
		case nil:
		case *AnonRefExpr:
			events = append(events, anonEvent{ref: n})
		case *ModifierExpr:
			walkExpr(n.Operand)
		case *FactorExpr:
			walkExpr(n.Operand)
		case *ParenExpr:
			walkExpr(n.Inner)
		case *BinaryExpr:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *CallExpr:
			for _, a := range n.Args {
				walkExpr(a)
			}
		}
	}

	var walkStmts func(list []Statement)
	walkStmts = func(list []Statement) {
		for _, s := range list {
			switch st := s.(type) {
			case *LabelStmt:
				if st.AnonKey != "" {
					events = append(events, anonEvent{isDef: true, name: st.Name, path: []string{st.AnonKey}})
				}
				walkStmts(st.Block)
			case *InstructionStmt:
				if st.Operand != nil {
					walkExpr(st.Operand.Expr)
				}
			case *DataStmt:
				for _, v := range st.Values {
					walkExpr(v)
				}
			case *VarDeclStmt:
				walkExpr(st.Value)
			case *PCAssignStmt:
				walkExpr(st.Value)
			case *SegmentStmt:
				walkStmts(st.Body)
			case *IfStmt:
				walkExpr(st.Cond)
				walkStmts(st.Then)
				walkStmts(st.Else)
			case *AlignStmt:
				walkExpr(st.Value)
			case *IncludeStmt:
				walkStmts(st.Included)
			case *BracesStmt:
				walkStmts(st.Body)
			case *DefineStmt:
				for _, entry := range st.Entries {
					walkExpr(entry.Value)
				}
			}
		}
	}
	walkStmts(stmts)

	for i, ev := range events {
		if ev.isDef {
			continue
		}
		if ev.ref.Forward {
			for j := i + 1; j < len(events); j++ {
				if events[j].isDef && events[j].name == "+" {
					ev.ref.ResolvedPath = events[j].path
					break
				}
			}
		} else {
			for j := i - 1; j >= 0; j-- {
				if events[j].isDef && events[j].name == "-" {
					ev.ref.ResolvedPath = events[j].path
					break
				}
			}
		}
	}
}
