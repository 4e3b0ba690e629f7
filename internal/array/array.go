// Package array specializes series.Series to hold Cells: an Array is the
// representation for BLOCK!, GROUP!, PATH!, and TUPLE! values, plus
// action bodies and context varlists/keylists. Arrays may be "relative"
// (containing cells whose word bindings point at an action identity
// rather than a concrete variable store); reading through a relative
// array requires a Specifier to resolve those bindings at lookup time.
package array

import (
	"fmt"

	"rebcore/internal/cell"
	"rebcore/internal/series"
)

// Array is a series of cells, reserving its last slot as an implicit-end
// marker so an N-capacity array needs only N live cells of storage but
// still presents an N+1 iteration terminator.
type Array struct {
	s *series.Series

	// ActionIdentity is non-nil when this array is "relative": it is the
	// deep-copied body of an action, and relative words inside it must be
	// paired with a specifier naming a live invocation of that identity
	// before they can be looked up.
	ActionIdentity any
}

// New creates an empty, unmanaged array with the given initial capacity.
func New(capacity int) *Array {
	return &Array{s: series.Make(capacity, 1, series.FlagArray)}
}

// NewRelative creates an array flagged relative to the given action
// identity, as produced when an action's body is deep-copied at
// definition time.
func NewRelative(capacity int, actionIdentity any) *Array {
	a := New(capacity)
	a.ActionIdentity = actionIdentity
	return a
}

// IsRelative reports whether this array requires a specifier to resolve
// word bindings at lookup time.
func (a *Array) IsRelative() bool { return a.ActionIdentity != nil }

// Len returns the number of live cells (excluding the implicit-end slot).
func (a *Array) Len() int { return a.s.Len() }

// At returns the cell at index i. Reads past Len but within Rest observe
// the implicit-end marker.
func (a *Array) At(i int) *cell.Cell {
	v := a.s.At(i)
	if v == nil {
		return nil
	}
	return v.(*cell.Cell)
}

// Append adds a cell to the end of the array.
func (a *Array) Append(c *cell.Cell) error {
	return a.s.Append(c)
}

// Underlying exposes the backing series for callers (the GC, mold, and
// series-level operations like Freeze) that need to operate generically.
func (a *Array) Underlying() *series.Series { return a.s }

// Tail returns the implicit-end cell: a cell with only End/Node bits set,
// whose writes must be rejected by any caller that checks IsCell first.
func (a *Array) Tail() *cell.Cell {
	var end cell.Cell
	end.ResetEnd()
	return &end
}

// Each walks live cells in order.
func (a *Array) Each(fn func(i int, c *cell.Cell) bool) {
	a.s.Each(func(i int, v series.Element) bool {
		return fn(i, v.(*cell.Cell))
	})
}

// DeepCopy recursively copies an array and every nested array it
// contains (through Clonify's array type selector), producing a fully
// independent, writable clone. Shallow copy leaves nested arrays aliased.
func (a *Array) DeepCopy(deep bool) *Array {
	out := New(a.Len())
	cloner := func(node any) any {
		if nested, ok := node.(*Array); ok && deep {
			return nested.DeepCopy(true)
		}
		return node
	}
	types := cell.CloneTypes{cell.KindBlock: true, cell.KindGroup: true, cell.KindPath: true, cell.KindTuple: true}
	a.Each(func(i int, c *cell.Cell) bool {
		var dst cell.Cell
		cell.Clonify(&dst, c, types, cloner)
		_ = out.Append(&dst)
		return true
	})
	return out
}

// Freeze marks the array (and, if deep, everything it references)
// immutable. Deep freezing recurses into nested arrays reachable through
// Payload[0].
func (a *Array) Freeze(deep bool) {
	if deep {
		a.s.FreezeDeep()
		a.Each(func(i int, c *cell.Cell) bool {
			if nested, ok := c.Payload[0].(*Array); ok {
				nested.Freeze(true)
			}
			return true
		})
		return
	}
	a.s.FreezeShallow()
}

// Trace visits every live cell in the array, so the collector can walk
// reachability through block/group/path/tuple contents without this
// package importing gc.
func (a *Array) Trace(visit func(child any)) {
	a.Each(func(i int, c *cell.Cell) bool {
		visit(c)
		return true
	})
}

// ErrLocked is returned by mutators when the underlying series is frozen.
var ErrLocked = fmt.Errorf("locked series")
