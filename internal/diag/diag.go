// Package diag defines the diagnostic types shared by the parser, the
// semantic analyzer, and the code generator. Every phase collects its own
// diagnostics and reports them the same way: message plus source position.
package diag

import (
	"fmt"
	"strings"
)

// Severity distinguishes a fatal problem from an advisory one. Warnings
// never stop the pipeline; errors stop it from reaching code generation.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Position is a line number in the source file being compiled. Columns
// are not tracked past the scanner since no diagnostic in this compiler
// needs finer resolution than a line.
type Position struct {
	Line int
}

// Diagnostic is a single reported problem, carrying enough context to
// reproduce the message a human would see on the command line. Kind and
// Context are optional classification used by the semantic analyzer
// (e.g. "undeclared error", "redeclaration error"); other phases leave
// them empty.
type Diagnostic struct {
	Severity Severity
	Kind     string
	Context  string
	Message  string
	Pos      Position
}

// Error implements the error interface so a Diagnostic can be returned
// and compared anywhere ordinary errors are.
func (d Diagnostic) Error() string {
	var b strings.Builder
	if d.Kind != "" {
		fmt.Fprintf(&b, "[%s] ", d.Kind)
	}
	fmt.Fprintf(&b, "line %d", d.Pos.Line)
	if d.Context != "" {
		fmt.Fprintf(&b, " in %s", d.Context)
	}
	fmt.Fprintf(&b, ": %s", d.Message)
	return b.String()
}

// Newf builds an error-severity diagnostic at the given line.
func Newf(line int, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Severity: Error, Message: fmt.Sprintf(format, args...), Pos: Position{Line: line}}
}

// Warnf builds a warning-severity diagnostic at the given line.
func Warnf(line int, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Severity: Warning, Message: fmt.Sprintf(format, args...), Pos: Position{Line: line}}
}

// Kindf builds an error-severity diagnostic carrying a kind tag and a
// context phrase, the shape the semantic analyzer reports with.
func Kindf(line int, kind, context, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Severity: Error, Kind: kind, Context: context, Message: fmt.Sprintf(format, args...), Pos: Position{Line: line}}
}

// List is an ordered collection of diagnostics with convenience queries
// used by every phase to decide whether it is safe to continue.
type List []Diagnostic

// Add appends a diagnostic to the list.
func (l *List) Add(d Diagnostic) { *l = append(*l, d) }

// HasErrors reports whether the list contains at least one error-severity
// diagnostic. Warnings alone never fail a phase.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity diagnostics, preserving order.
func (l List) Errors() List {
	var out List
	for _, d := range l {
		if d.Severity == Error {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns only the warning-severity diagnostics, preserving order.
func (l List) Warnings() List {
	var out List
	for _, d := range l {
		if d.Severity == Warning {
			out = append(out, d)
		}
	}
	return out
}
