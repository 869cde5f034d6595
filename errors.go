// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm6502

import "fmt"

// Severity classifies a Diagnostic. Only Error severity affects whether
// an assemble/format call is considered successful.
type Severity byte

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// A Diagnostic is a single parse or codegen error, warning, or note,
// tied to the span of source text responsible for it.
type Diagnostic struct {
	Span     Span
	Message  string
	Severity Severity
}

// ErrorSink accumulates diagnostics without ever aborting the pass that
// produced them. Parser and code generator push to it directly; callers
// drain it once a pass completes. Diagnostics are stored in the order
// they were pushed, which is source order because both the parser and
// the code generator visit statements in source order.
type ErrorSink struct {
	diags []Diagnostic
}

// Add appends a diagnostic to the sink.
func (s *ErrorSink) Add(span Span, severity Severity, format string, args ...interface{}) {
	s.diags = append(s.diags, Diagnostic{
		Span:     span,
		Message:  fmt.Sprintf(format, args...),
		Severity: severity,
	})
}

// Errorf is shorthand for Add(span, SeverityError, ...).
func (s *ErrorSink) Errorf(span Span, format string, args ...interface{}) {
	s.Add(span, SeverityError, format, args...)
}

// Diagnostics returns all accumulated diagnostics in source order.
func (s *ErrorSink) Diagnostics() []Diagnostic {
	return s.diags
}

// HasErrors reports whether any diagnostic of SeverityError was added.
func (s *ErrorSink) HasErrors() bool {
	for _, d := range s.diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
