// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm6502

import (
	"strings"

	"github.com/beevik/prefixtree/v2"
)

// SymbolTable interns identifier paths and tracks labels, variables,
// and constants, enforcing the redefinition rules of spec §4.3:
//
//   - constants can never be reassigned;
//   - redefining a symbol under a different SymbolKind fails;
//   - variables may be reassigned to another value of the same kind.
//
// Scoping is handled by joining the active scope's path onto the
// symbol's own path before lookup/insertion (spec §4.6 "Scoping").
// Lookup during codegen passes may legitimately miss on a forward
// reference to a label not yet encountered; that is not itself an
// error (§4.3).
type SymbolTable struct {
	table map[string]*Symbol

	// completions indexes every defined name (its full qualified path
	// joined with '.') for unambiguous-abbreviation lookup via Resolve,
	// used by the language server shell (C10) for go-to-definition
	// requests where the editor sends a shortened name. It mirrors the
	// trie the teacher uses for interactive command lookup in
	// debugger/command.go, repurposed here for assembly symbol names
	// instead of REPL command names.
	completions *prefixtree.Tree[*Symbol]
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		table:       make(map[string]*Symbol),
		completions: prefixtree.New[*Symbol](),
	}
}

func joinPath(path []string) string {
	return strings.Join(path, ".")
}

// Register inserts or updates a symbol, applying the redefinition
// rules. It returns an error diagnostic message on violation, or ""
// on success.
func (st *SymbolTable) Register(path []string, kind SymbolKind, value int, span Span) (errMsg string) {
	key := joinPath(path)
	existing, found := st.table[key]
	switch {
	case found && existing.Kind == SymConstant:
		// The fixpoint driver re-visits every statement on every pass,
		// so the same .const statement registers its symbol again each
		// time; only a second, distinct declaration site is a real
		// reassignment.
		if existing.DefinedAt.File == span.File && existing.DefinedAt.Begin == span.Begin {
			existing.Value = value
			return ""
		}
		return "cannot reassign constant: " + key
	case found && existing.Kind != kind:
		return "symbol redefinition: " + key
	}
	sym := &Symbol{Kind: kind, Value: value, DefinedAt: span}
	st.table[key] = sym
	if !found {
		st.completions.Add(key, sym)
	}
	return ""
}

// Lookup finds a symbol by its fully-qualified dotted path. ok is
// false if no such symbol has been registered yet (which, during a
// non-final codegen pass, simply means "not resolved yet" rather than
// an error).
func (st *SymbolTable) Lookup(path []string) (sym *Symbol, ok bool) {
	sym, ok = st.table[joinPath(path)]
	return sym, ok
}

// Complete returns the symbols whose fully-qualified path starts with
// prefix, for editor autocompletion.
func (st *SymbolTable) Complete(prefix string) []string {
	var names []string
	for key := range st.table {
		if strings.HasPrefix(key, prefix) {
			names = append(names, key)
		}
	}
	return names
}

// Resolve looks up a symbol by an unambiguous abbreviation of its full
// path, the way the teacher's debugger resolves abbreviated command
// names (debugger/command.go). Used by the language server shell for
// go-to-definition requests where the editor may send a shortened
// name.
func (st *SymbolTable) Resolve(abbrev string) (*Symbol, error) {
	return st.completions.Find(abbrev)
}
