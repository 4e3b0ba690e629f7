package action

import (
	"fmt"

	"rebcore/internal/bind"
	"rebcore/internal/cell"
	"rebcore/internal/trap"
)

// OrderArguments assigns a flat run of positional argument cells to a
// refinement's own parameters, visiting refinements in refinementOrder
// rather than paramlist order. This is what makes `foo/b/c 1 2` and
// `foo/c/b 1 2` bind `1` and `2` to different formal parameters even
// though `b` and `c` have fixed, unchanging positions in foo's
// paramlist: the arguments that follow a path-refined call are consumed
// in the order the refinements were named on the path, not the order
// they were declared in.
//
// Each refinement consumes exactly one following positional argument
// per non-local, non-refinement parameter declared directly after it in
// the paramlist, up to the next refinement or end of list. Plain
// (unrefined) leading parameters are filled first, in paramlist order.
func OrderArguments(paramlist []*Param, refinementOrder []string, positional []*cell.Cell) (map[string]*cell.Cell, error) {
	result := make(map[string]*cell.Cell)
	cursor := 0

	take := func() (*cell.Cell, error) {
		if cursor >= len(positional) {
			return nil, fmt.Errorf("apply: not enough arguments supplied")
		}
		v := positional[cursor]
		cursor++
		return v, nil
	}

	// Leading plain parameters (before the first refinement) fill first,
	// in declaration order.
	for _, p := range paramlist {
		if p.IsRefinement() {
			break
		}
		if p.Class == ClassLocal || p.Class == ClassReturn {
			continue
		}
		v, err := take()
		if err != nil {
			return nil, err
		}
		result[p.Symbol] = v
	}

	for _, name := range refinementOrder {
		idx := -1
		for i, p := range paramlist {
			if p.Symbol == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("apply: no such refinement %q", name)
		}
		result[name] = trueCell()
		for i := idx + 1; i < len(paramlist); i++ {
			p := paramlist[i]
			if p.IsRefinement() {
				break
			}
			if p.Class == ClassLocal || p.Class == ClassReturn {
				continue
			}
			v, err := take()
			if err != nil {
				return nil, err
			}
			result[p.Symbol] = v
		}
	}

	return result, nil
}

func trueCell() *cell.Cell {
	c := &cell.Cell{}
	c.Reset(cell.KindLogic)
	c.Payload[0] = true
	return c
}

// MakeFrame builds a FRAME context suitable for Apply: one slot per
// paramlist entry, filled from assignments where present and Blank
// otherwise.
func MakeFrame(target *Action, assignments map[string]*cell.Cell) (*bind.Context, error) {
	ctx := bind.NewContext(bind.KindFrame)
	for _, p := range target.Paramlist {
		v, ok := assignments[p.Symbol]
		if !ok {
			v = &cell.Cell{}
			v.Reset(cell.KindBlank)
		}
		ctx.AppendKey(p.Symbol, v)
	}
	return ctx, nil
}

// basicCallContext is the CallContext MakeFrame-built invocations run
// under when driven directly through Apply rather than through the
// evaluator's feed-based call (eval.Level implements the same interface
// for ordinary evaluation).
type basicCallContext struct {
	varlist *bind.Context
	out     *cell.Cell
}

func (c *basicCallContext) Varlist() *bind.Context { return c.varlist }
func (c *basicCallContext) Out() *cell.Cell         { return c.out }
func (c *basicCallContext) SetOut(v *cell.Cell)     { c.out = v }

// Apply invokes target directly against a prebuilt assignment map,
// without going through the evaluator's argument-fulfillment feed. This
// is the direct equivalent of the runtime's APPLY operation: construct a
// frame, fill named arguments, run the dispatcher once. A specialized
// action's RedoUnchecked is resolved here by merging its Exemplar into
// the frame and invoking Underlying instead, the same redo rule the
// evaluator applies for an ordinary call.
func Apply(target *Action, assignments map[string]*cell.Cell) trap.Result {
	ctx, err := MakeFrame(target, assignments)
	if err != nil {
		return trap.RaiseResult(trap.NewError(trap.CategoryScript, 0, "apply-error", err.Error()))
	}
	call := &basicCallContext{varlist: ctx}

	a := target
	for {
		r := a.Dispatch(call)
		if r.Kind != trap.KindRedoUnchecked || a.Underlying == nil {
			return r
		}
		MergeExemplar(ctx, a.Exemplar)
		a = a.Underlying
	}
}

// MergeExemplar copies every non-blank slot of exemplar into dst,
// keyed by shared symbols, as the evaluator does when redoing a call
// against a specialization's underlying action.
func MergeExemplar(dst *bind.Context, exemplar *bind.Context) {
	if exemplar == nil {
		return
	}
	for _, symbol := range exemplar.Keylist.Symbols {
		src, _, ok := exemplar.Lookup(symbol, false)
		if !ok || src.Kind == cell.KindBlank {
			continue
		}
		if slot, _, ok := dst.Lookup(symbol, false); ok {
			cell.CopyCell(slot, src)
		}
	}
}
