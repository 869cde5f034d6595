// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm6502

import "testing"

func num(v int) *NumberExpr {
	return &NumberExpr{Value: v}
}

func bin(op BinOp, l, r Expr) *BinaryExpr {
	return &BinaryExpr{Op: op, Left: l, Right: r}
}

func TestEvalArithmetic(t *testing.T) {
	st := NewSymbolTable()
	sink := &ErrorSink{}
	ev := NewEvaluator(st, sink)

	cases := []struct {
		expr Expr
		want int
	}{
		{bin(OpAdd, num(1), num(1)), 2},
		{bin(OpSub, num(1), num(1)), 0},
		{bin(OpMul, num(2), num(4)), 8},
		{bin(OpDiv, num(8), num(2)), 4},
		{bin(OpShl, num(1), num(4)), 16},
		{bin(OpShr, num(16), num(4)), 1},
		{bin(OpXor, num(0xff), num(0x0f)), 0xf0},
		{bin(OpEq, num(3), num(3)), 1},
		{bin(OpLt, num(3), num(4)), 1},
		{bin(OpAnd, num(1), num(0)), 0},
		{bin(OpOr, num(1), num(0)), 1},
	}
	for _, c := range cases {
		r := ev.Eval(c.expr, -1, true)
		if !r.Resolved || r.Value != c.want {
			t.Errorf("eval %+v = %v (resolved=%v), want %d", c.expr, r.Value, r.Resolved, c.want)
		}
	}
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %s", diagString(sink))
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	st := NewSymbolTable()
	sink := &ErrorSink{}
	ev := NewEvaluator(st, sink)
	ev.Eval(bin(OpDiv, num(1), num(0)), -1, true)
	if !sink.HasErrors() {
		t.Fatalf("expected a division-by-zero error")
	}
}

func TestEvalUnresolvedIdentifier(t *testing.T) {
	st := NewSymbolTable()
	sink := &ErrorSink{}
	ev := NewEvaluator(st, sink)
	id := &IdentExpr{Path: []string{"missing"}}

	r := ev.Eval(id, -1, false)
	if r.Resolved {
		t.Fatalf("expected unresolved result for undefined identifier")
	}
	if len(r.Unresolved) != 1 || r.Unresolved[0] != "missing" {
		t.Errorf("unexpected Unresolved set: %v", r.Unresolved)
	}
	if sink.HasErrors() {
		t.Errorf("errorOnFailure=false must not push a diagnostic")
	}

	ev.Eval(id, -1, true)
	if !sink.HasErrors() {
		t.Errorf("errorOnFailure=true must push a diagnostic for an unresolved identifier")
	}
}

func TestEvalDefinedBuiltin(t *testing.T) {
	st := NewSymbolTable()
	sink := &ErrorSink{}
	ev := NewEvaluator(st, sink)

	call := &CallExpr{Name: "defined", Args: []Expr{&IdentExpr{Path: []string{"x"}}}}
	r := ev.Eval(call, -1, true)
	if !r.Resolved || r.Value != 0 {
		t.Fatalf("defined(x) before declaration: got %+v", r)
	}

	if errMsg := st.Register([]string{"x"}, SymConstant, 42, Span{}); errMsg != "" {
		t.Fatalf("unexpected registration error: %s", errMsg)
	}
	r = ev.Eval(call, -1, true)
	if !r.Resolved || r.Value != 1 {
		t.Fatalf("defined(x) after declaration: got %+v", r)
	}
}

func TestEvalProgramCounter(t *testing.T) {
	st := NewSymbolTable()
	sink := &ErrorSink{}
	ev := NewEvaluator(st, sink)

	r := ev.Eval(&PCExpr{}, -1, false)
	if r.Resolved {
		t.Errorf("* must be unresolved when no segment is being emitted to")
	}

	r = ev.Eval(&PCExpr{}, 0xC000, true)
	if !r.Resolved || r.Value != 0xC000 {
		t.Errorf("* = %v, want 0xC000", r.Value)
	}
}

func TestEvalByteModifiers(t *testing.T) {
	st := NewSymbolTable()
	sink := &ErrorSink{}
	ev := NewEvaluator(st, sink)

	lo := &ModifierExpr{Modifier: ModifierLow, Operand: num(0xC0FE)}
	hi := &ModifierExpr{Modifier: ModifierHigh, Operand: num(0xC0FE)}

	if r := ev.Eval(lo, -1, true); r.Value != 0xFE {
		t.Errorf("<0xC0FE = %#x, want 0xFE", r.Value)
	}
	if r := ev.Eval(hi, -1, true); r.Value != 0xC0 {
		t.Errorf(">0xC0FE = %#x, want 0xC0", r.Value)
	}
}

func TestSymbolTableConstantReassignment(t *testing.T) {
	st := NewSymbolTable()
	span1 := Span{Begin: 0, End: 5}
	span2 := Span{Begin: 10, End: 15}

	if errMsg := st.Register([]string{"foo"}, SymConstant, 10, span1); errMsg != "" {
		t.Fatalf("unexpected error on first registration: %s", errMsg)
	}
	// Re-registering from the same declaration site (the fixpoint driver
	// revisiting the same .const statement on a later pass) must be a
	// silent refresh, not an error.
	if errMsg := st.Register([]string{"foo"}, SymConstant, 10, span1); errMsg != "" {
		t.Errorf("re-registration from the same site must not error: %s", errMsg)
	}
	if errMsg := st.Register([]string{"foo"}, SymConstant, 20, span2); errMsg == "" {
		t.Errorf("expected a reassignment error from a distinct declaration site")
	}
}
