// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm6502

import "strings"

// Options configures one codegen run (spec §6 "Input boundary").
type Options struct {
	InitialPC int // starting PC of the default (unnamed) segment
}

// CodeGenerator implements the worklist fixpoint of spec §4.6,
// generalizing the teacher's named-phase pipeline (asm/asm.go's
// parse/evaluateExpressions/assignAddresses/resolveLabels/generateCode
// steps) into a single repeatedly-re-walked tree: each full pass
// recomputes every segment's PC from its InitialPC and re-resolves
// every statement, so a statement that depended on a forward reference
// simply produces the same result once that reference is known. Only
// instruction operand sizes (to satisfy "layout stability") and the
// chosen arm of each resolved `.if` are remembered across passes;
// everything else is naturally idempotent to re-run.
type CodeGenerator struct {
	sink      *ErrorSink
	symtab    *SymbolTable
	eval      *Evaluator
	segments  map[string]*Segment
	segOrder  []string
	defines   map[string]map[string]Expr
	initialPC int
	current   *Segment

	// instrCand remembers, per instruction statement, the addressing
	// candidate chosen the first time it was visited. Once a
	// candidate is chosen while the operand was still unresolved, it
	// must never change size later (spec §4.6 "Layout stability").
	instrCand map[*InstructionStmt]opcodeCandidate

	// ifChosen remembers which arm of an `.if` has been locked in
	// (no entry = still unresolved, 0 = then, 1 = else), per the Open
	// Question resolution: the condition is evaluated once per pass
	// until it resolves, then the chosen arm is fixed forever.
	ifChosen map[*IfStmt]int
}

// GenerateCode runs the fixpoint code generator over a parsed tree and
// returns the resulting segments (in first-use order) and symbol
// table. Diagnostics accumulate in sink.
func GenerateCode(tree []Statement, opts Options, sink *ErrorSink) (segments map[string]*Segment, order []string, symtab *SymbolTable) {
	symtab = NewSymbolTable()
	cg := &CodeGenerator{
		sink:      sink,
		symtab:    symtab,
		eval:      NewEvaluator(symtab, sink),
		segments:  make(map[string]*Segment),
		defines:   make(map[string]map[string]Expr),
		initialPC: opts.InitialPC,
		instrCand: make(map[*InstructionStmt]opcodeCandidate),
		ifChosen:  make(map[*IfStmt]int),
	}
	cg.collectDefines(tree)
	cg.current = cg.segmentNamed("")

	prevUnresolved := -1
	for {
		cg.resetSegments()
		cg.current = cg.segments[""]
		n := cg.genBlock(tree, nil, false)
		if n == 0 {
			break
		}
		if n == prevUnresolved {
			cg.resetSegments()
			cg.current = cg.segments[""]
			cg.genBlock(tree, nil, true)
			break
		}
		prevUnresolved = n
	}

	return cg.segments, cg.segOrder, cg.symtab
}

func (cg *CodeGenerator) resetSegments() {
	for _, seg := range cg.segments {
		seg.SetPC(seg.InitialPC)
	}
}

// collectDefines walks the whole tree up front (order-independent: a
// `.segment` use may textually precede the `.define` that configures
// it) gathering every `.define` block's key/value expressions, keyed
// by the defined name.
func (cg *CodeGenerator) collectDefines(stmts []Statement) {
	for _, s := range stmts {
		switch st := s.(type) {
		case *DefineStmt:
			cfg := make(map[string]Expr, len(st.Entries))
			for _, e := range st.Entries {
				cfg[e.Key] = e.Value
			}
			cg.defines[st.Name] = cfg
		case *SegmentStmt:
			cg.collectDefines(st.Body)
		case *IfStmt:
			cg.collectDefines(st.Then)
			cg.collectDefines(st.Else)
		case *BracesStmt:
			cg.collectDefines(st.Body)
		case *LabelStmt:
			cg.collectDefines(st.Block)
		case *IncludeStmt:
			cg.collectDefines(st.Included)
		}
	}
}

// segmentNamed returns the segment registered under name, creating it
// (applying any `.define name { start = ..., write = ... }`
// configuration) on first use. The default segment ("") always starts
// at the generator's configured InitialPC regardless of `.define`.
func (cg *CodeGenerator) segmentNamed(name string) *Segment {
	if seg, ok := cg.segments[name]; ok {
		return seg
	}
	initPC, write := 0, true
	target := ""
	if name == "" {
		initPC = cg.initialPC
	}
	if cfg, ok := cg.defines[name]; ok {
		scratch := NewEvaluator(cg.symtab, &ErrorSink{})
		if e, ok := cfg["start"]; ok {
			if r := scratch.Eval(e, -1, false); r.Resolved {
				initPC = r.Value
			}
		}
		if e, ok := cfg["write"]; ok {
			if r := scratch.Eval(e, -1, false); r.Resolved {
				write = r.Value != 0
			}
		}
		// target is an identifier path naming a distinct merge target,
		// not a numeric expression, so it is read directly rather than
		// run through the evaluator.
		if e, ok := cfg["target"]; ok {
			if id, ok := e.(*IdentExpr); ok {
				target = strings.Join(id.Path, ".")
			}
		}
	}
	seg := NewSegment(name, initPC, write)
	seg.Target = target
	cg.segments[name] = seg
	cg.segOrder = append(cg.segOrder, name)
	return seg
}

// genBlock processes a statement list under the given lexical scope,
// returning the number of leaf statements that remain unresolved.
func (cg *CodeGenerator) genBlock(stmts []Statement, scope []string, errorOnFailure bool) int {
	unresolved := 0
	for _, s := range stmts {
		unresolved += cg.genStmt(s, scope, errorOnFailure)
	}
	return unresolved
}

func (cg *CodeGenerator) genStmt(s Statement, scope []string, errorOnFailure bool) int {
	cg.eval.Scope = scope
	switch st := s.(type) {
	case *EOFStmt, *ErrorStmt:
		return 0

	case *LabelStmt:
		name := st.Name
		if st.AnonKey != "" {
			name = st.AnonKey
		}
		path := appendPath(scope, name)
		if msg := cg.symtab.Register(path, SymLabel, cg.current.PC(), st.Span()); msg != "" {
			cg.sink.Errorf(st.Span(), "%s", msg)
		}
		return cg.genBlock(st.Block, path, errorOnFailure)

	case *VarDeclStmt:
		res := cg.eval.Eval(st.Value, cg.current.PC(), errorOnFailure)
		if !res.Resolved {
			return 1
		}
		kind := SymVariable
		if st.Const {
			kind = SymConstant
		}
		if msg := cg.symtab.Register(appendPath(scope, st.Name), kind, res.Value, st.Span()); msg != "" {
			cg.sink.Errorf(st.Span(), "%s", msg)
		}
		return 0

	case *PCAssignStmt:
		res := cg.eval.Eval(st.Value, cg.current.PC(), errorOnFailure)
		if !res.Resolved {
			return 1
		}
		cg.current.SetPC(res.Value)
		return 0

	case *SegmentStmt:
		prev := cg.current
		cg.current = cg.segmentNamed(st.Name)
		unresolved := cg.genBlock(st.Body, scope, errorOnFailure)
		cg.current = prev
		return unresolved

	case *BracesStmt:
		return cg.genBlock(st.Body, scope, errorOnFailure)

	case *IncludeStmt:
		return cg.genBlock(st.Included, scope, errorOnFailure)

	case *IfStmt:
		return cg.genIf(st, scope, errorOnFailure)

	case *AlignStmt:
		res := cg.eval.Eval(st.Value, cg.current.PC(), errorOnFailure)
		if !res.Resolved || res.Value <= 0 {
			if res.Resolved && res.Value <= 0 {
				cg.sink.Errorf(st.Span(), "alignment must be positive")
				return 0
			}
			return 1
		}
		pc := cg.current.PC()
		n := res.Value
		target := (pc+n-1)/n*n
		cg.current.Emit(make([]byte, target-pc))
		return 0

	case *DataStmt:
		return cg.genData(st, scope, errorOnFailure)

	case *InstructionStmt:
		return cg.genInstruction(st, scope, errorOnFailure)

	default:
		return 0
	}
}

func appendPath(scope []string, name string) []string {
	path := make([]string, 0, len(scope)+1)
	path = append(path, scope...)
	path = append(path, name)
	return path
}

// genIf implements the Open Question decision recorded in DESIGN.md:
// the condition is (re-)evaluated every pass until it resolves; once
// resolved, the chosen arm is locked in forever and the other arm is
// never visited again.
func (cg *CodeGenerator) genIf(st *IfStmt, scope []string, errorOnFailure bool) int {
	chosen, known := cg.ifChosen[st]
	if !known {
		res := cg.eval.Eval(st.Cond, cg.current.PC(), errorOnFailure)
		if !res.Resolved {
			// Not yet decidable: walk both arms for label collection
			// only (so a later forward reference into either arm can
			// still find its label), without emitting any bytes.
			cg.collectLabelsOnly(st.Then, scope)
			cg.collectLabelsOnly(st.Else, scope)
			return 1
		}
		chosen = 0
		if res.Value == 0 {
			chosen = 1
		}
		cg.ifChosen[st] = chosen
	}
	if chosen == 0 {
		return cg.genBlock(st.Then, scope, errorOnFailure)
	}
	return cg.genBlock(st.Else, scope, errorOnFailure)
}

// collectLabelsOnly registers labels found in a not-yet-taken `.if`
// arm at the segment's current PC, without advancing PC or emitting
// any instruction/data bytes — a best-effort accommodation for code
// elsewhere that forward-references a label declared inside an
// `.if` whose condition isn't decidable yet.
func (cg *CodeGenerator) collectLabelsOnly(stmts []Statement, scope []string) {
	for _, s := range stmts {
		switch st := s.(type) {
		case *LabelStmt:
			name := st.Name
			if st.AnonKey != "" {
				name = st.AnonKey
			}
			path := appendPath(scope, name)
			cg.symtab.Register(path, SymLabel, cg.current.PC(), st.Span())
			cg.collectLabelsOnly(st.Block, path)
		case *BracesStmt:
			cg.collectLabelsOnly(st.Body, scope)
		case *IfStmt:
			cg.collectLabelsOnly(st.Then, scope)
			cg.collectLabelsOnly(st.Else, scope)
		case *IncludeStmt:
			cg.collectLabelsOnly(st.Included, scope)
		}
	}
}

func (cg *CodeGenerator) genData(st *DataStmt, scope []string, errorOnFailure bool) int {
	unresolved := 0
	for _, v := range st.Values {
		res := cg.eval.Eval(v, cg.current.PC(), errorOnFailure)
		bytes := make([]byte, st.Size)
		if res.Resolved {
			u := res.Value
			for i := 0; i < st.Size; i++ {
				bytes[i] = byte(u & 0xff)
				u >>= 8
			}
		} else {
			unresolved++
		}
		cg.current.Emit(bytes)
	}
	return unresolved
}

func (cg *CodeGenerator) genInstruction(st *InstructionStmt, scope []string, errorOnFailure bool) int {
	mode := ModeImplied
	reg := RegNone
	var operandExpr Expr
	if st.Operand != nil {
		mode = st.Operand.Mode
		reg = st.Operand.Register
		operandExpr = st.Operand.Expr
	}

	var res EvalResult
	if operandExpr != nil {
		res = cg.eval.Eval(operandExpr, cg.current.PC(), errorOnFailure)
	} else {
		res = EvalResult{Resolved: true}
	}

	candidate, locked := cg.instrCand[st]
	if !locked {
		chosen, ok := selectOpcode(st.Mnemonic, mode, reg, res.Resolved, res.Value)
		if !ok {
			cg.sink.Errorf(st.Span(), "invalid addressing mode for instruction %q", st.Mnemonic)
			return 0
		}
		cg.instrCand[st] = chosen
		candidate = chosen
	}

	size := 1 + candidate.OperandBytes
	pc := cg.current.PC()
	bytes := make([]byte, size)
	bytes[0] = candidate.Opcode

	if res.Resolved {
		isBranch := branchMnemonics[strings.ToUpper(st.Mnemonic)]
		switch {
		case isBranch:
			next := pc + size
			offset := res.Value - next
			if offset < -128 || offset > 127 {
				cg.sink.Errorf(st.Span(), "branch too far")
			} else {
				bytes[1] = byte(int8(offset))
			}
		case candidate.OperandBytes == 1:
			bytes[1] = byte(res.Value & 0xff)
		case candidate.OperandBytes == 2:
			v := res.Value & 0xffff
			bytes[1] = byte(v & 0xff)
			bytes[2] = byte((v >> 8) & 0xff)
		}
	}
	cg.current.Emit(bytes)
	if res.Resolved {
		return 0
	}
	return 1
}
