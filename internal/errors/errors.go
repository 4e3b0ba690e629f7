// Package errors renders a *trap.RaisedError for a human reader: the
// teacher's own error type carried a location, a source line, and a call
// stack formatted into one multi-line report; this package keeps that
// rendering shape but formats trap's category/id/near/where error object
// instead of a compiler-position SentraError.
package errors

import (
	"fmt"
	"strings"

	"rebcore/internal/trap"
)

// Render formats e the way a console host prints an uncaught error:
// the category/id header, the near-source tokens captured at raise
// time, and the call-stack labels in Where, innermost first.
func Render(e *trap.RaisedError) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s error (%d): %s\n", e.Type, e.Code(), e.Message))

	if len(e.Near) > 0 {
		sb.WriteString(fmt.Sprintf("  near: %s\n", strings.Join(e.Near, " ")))
	}

	if len(e.Where) > 0 {
		sb.WriteString("\ncall stack:\n")
		for _, frame := range e.Where {
			sb.WriteString(fmt.Sprintf("  at %s\n", frame))
		}
	}

	return sb.String()
}

// WithNear attaches near-source context tokens to e and returns e, for
// chaining at a raise site the way a WithSource/WithStack builder works.
func WithNear(e *trap.RaisedError, tokens ...string) *trap.RaisedError {
	e.Near = tokens
	return e
}

// WithWhere attaches call-stack frame labels to e and returns e.
func WithWhere(e *trap.RaisedError, frames ...string) *trap.RaisedError {
	e.Where = frames
	return e
}

// PushWhere appends one call-stack frame label to the end of e.Where —
// the running equivalent of AddStackFrame. Render prints Where in slice
// order, so it reads innermost first only when labels are pushed as the
// error propagates outward through each call.
func PushWhere(e *trap.RaisedError, label string) *trap.RaisedError {
	e.Where = append(e.Where, label)
	return e
}
