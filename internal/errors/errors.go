// Package errors collects and renders the compiler's diagnostics.
//
// Every stage that can fail without aborting the pipeline (semantic
// analysis) reports through a shared Diagnostics collector so that a
// single pass surfaces as many errors as possible, matching the
// "continue, report many" policy for semantic errors and the
// "report and abort" policy for control-flow errors.
package errors

import (
	"fmt"
	"strings"
)

// Kind distinguishes where in the pipeline a diagnostic originated.
type Kind string

const (
	KindUndefinedVariable    Kind = "undefined variable"
	KindVariableRedefinition Kind = "variable redefinition"
	KindInvalidOperands      Kind = "invalid operands"
	KindNotAssignable        Kind = "not assignable"
	KindReturnMismatch       Kind = "return type mismatch"
	KindMissingReturn        Kind = "missing return"
	KindUnreachableCode      Kind = "unreachable code"
	KindUncolorable          Kind = "register allocation failure"
	KindSyntax               Kind = "syntax error"
)

// Diagnostic is a single compiler error anchored to a source line.
type Diagnostic struct {
	Kind    Kind
	Message string
	Line    int
	// Source is the offending source line, set when the caller wants an
	// excerpt+caret rendered (token-anchored errors only).
	Source string
	Column int
}

// Error renders "Line <n>: <message>" plus an optional excerpt and caret,
// matching the CLI's diagnostic output format.
func (d *Diagnostic) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Line %d: %s", d.Line, d.Message)
	if d.Source != "" {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "  %s\n", d.Source)
		if d.Column > 0 {
			sb.WriteString("  ")
			sb.WriteString(strings.Repeat(" ", d.Column-1))
			sb.WriteString("^")
		}
	}
	return sb.String()
}

// Diagnostics batches the diagnostics produced by one pipeline stage.
type Diagnostics struct {
	items []*Diagnostic
}

// Add records a new diagnostic and keeps the analyzer going.
func (d *Diagnostics) Add(kind Kind, line int, format string, args ...interface{}) {
	d.items = append(d.items, &Diagnostic{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
	})
}

// AddWithSource records a diagnostic anchored to a specific token, carrying
// the source excerpt and caret column to render under the message.
func (d *Diagnostics) AddWithSource(kind Kind, line, column int, source, format string, args ...interface{}) {
	d.items = append(d.items, &Diagnostic{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Source:  source,
		Column:  column,
	})
}

// HasErrors reports whether any diagnostic was recorded.
func (d *Diagnostics) HasErrors() bool {
	return len(d.items) > 0
}

// All returns the recorded diagnostics in report order.
func (d *Diagnostics) All() []*Diagnostic {
	return d.items
}

// Print writes every diagnostic to sb, one per line, in the §6 format.
func (d *Diagnostics) Print(sb *strings.Builder) {
	for _, item := range d.items {
		sb.WriteString(item.Error())
		sb.WriteString("\n")
	}
}
