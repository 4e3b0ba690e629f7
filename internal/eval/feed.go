// Package eval implements the call-frame evaluator: a step-by-step
// reduction of a lazy feed of cells, with lookahead for enfix (infix)
// dispatch, and argument fulfillment against an action's facade. A
// dispatcher that needs a sub-expression evaluated mid-call gets it from
// a nested, recursive Run rather than by suspending its own Level; the
// State values in level.go name the steps, but the evaluator does not
// park a Level at them.
package eval

import (
	"rebcore/internal/array"
	"rebcore/internal/bind"
	"rebcore/internal/cell"
)

// Feed is a cursor over an array's cells plus the specifier needed to
// resolve any relative words among them. A feed never mutates the array
// it walks; the lazy token stream the evaluator consumes is this cursor,
// not a separate token buffer.
type Feed struct {
	Source    *array.Array
	Specifier *bind.Specifier
	index     int
}

// NewFeed creates a feed starting at the front of src.
func NewFeed(src *array.Array, specifier *bind.Specifier) *Feed {
	if specifier == nil {
		specifier = &bind.Specifier{Kind: bind.SpecifierNone}
	}
	return &Feed{Source: src, Specifier: specifier}
}

// AtEnd reports whether the feed has exhausted its source.
func (f *Feed) AtEnd() bool { return f.index >= f.Source.Len() }

// Peek returns the next cell without consuming it, derelativized against
// the feed's specifier, or nil at end.
func (f *Feed) Peek() *cell.Cell {
	if f.AtEnd() {
		return nil
	}
	raw := f.Source.At(f.index)
	var out cell.Cell
	cell.Derelativize(&out, raw, f.Specifier)
	return &out
}

// Next consumes and returns the next cell, or nil at end.
func (f *Feed) Next() *cell.Cell {
	c := f.Peek()
	if c != nil {
		f.index++
	}
	return c
}

// Index returns the feed's current cursor position, for checkpointing
// around an attempted PATH!/refinement scan.
func (f *Feed) Index() int { return f.index }

// SeekTo restores a previously observed cursor position.
func (f *Feed) SeekTo(i int) { f.index = i }
