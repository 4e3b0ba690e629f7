package natives

import (
	"fmt"

	"rebcore/internal/action"
	"rebcore/internal/array"
	"rebcore/internal/bind"
	"rebcore/internal/cell"
	"rebcore/internal/trap"
)

// registerActions exposes action.Specialize/action.Apply — real, tested
// Go APIs that otherwise only action_test.go ever calls — as the
// SPECIALIZE and APPLY words a script uses to build and invoke a partial
// action directly, instead of only ever reaching partial-refinement
// ordering through a PATH! call (evalPath) or a plain-word call onto an
// already-specialized action (invokeAction's Exemplar fallback).
func registerActions(ctx *bind.Context) {
	bindNative(ctx, "specialize", []*action.Param{
		param("target"),
		{Symbol: "spec", Class: action.ClassHardQuote},
	}, func(call action.CallContext) trap.Result {
		act, ok := actionOf(arg(call, "target"))
		if !ok {
			return wrongType("specialize", arg(call, "target"))
		}
		specArr, ok := blockArray(arg(call, "spec"))
		if !ok {
			return wrongType("specialize", arg(call, "spec"))
		}
		refinementOrder, fill, err := readSpecializeSpec(act, specArr)
		if err != nil {
			return specializeError(err)
		}
		specialized, err := action.Specialize(act, refinementOrder, fill)
		if err != nil {
			return specializeError(err)
		}
		c := &cell.Cell{}
		c.Reset(cell.KindAction)
		c.Quote = 0
		c.Payload[0] = specialized
		return trap.ValueResult(c)
	})

	bindNative(ctx, "apply", []*action.Param{
		param("target"),
		{Symbol: "args", Class: action.ClassHardQuote},
	}, func(call action.CallContext) trap.Result {
		act, ok := actionOf(arg(call, "target"))
		if !ok {
			return wrongType("apply", arg(call, "target"))
		}
		argsArr, ok := blockArray(arg(call, "args"))
		if !ok {
			return wrongType("apply", arg(call, "args"))
		}
		positional := make([]*cell.Cell, 0, argsArr.Len())
		argsArr.Each(func(_ int, c *cell.Cell) bool {
			cp := &cell.Cell{}
			cell.CopyCell(cp, c)
			positional = append(positional, cp)
			return true
		})
		var refinementOrder []string
		if act.Exemplar != nil {
			refinementOrder = action.RefinementOrder(act.Paramlist, act.Exemplar)
		}
		assignments, err := action.OrderArguments(act.Paramlist, refinementOrder, positional)
		if err != nil {
			return specializeError(err)
		}
		return action.Apply(act, assignments)
	})
}

func actionOf(v *cell.Cell) (*action.Action, bool) {
	if v == nil || v.Kind != cell.KindAction {
		return nil, false
	}
	act, ok := v.Payload[0].(*action.Action)
	return act, ok
}

// readSpecializeSpec reads a SPECIALIZE spec block: a bare WORD!/
// REFINEMENT! names one of target's refinements for partial ordering (in
// the order it appears), and a SET-WORD! pins the following literal
// value as that parameter's fill, the way a MAKE OBJECT! spec block
// reads its fields — neither form is evaluated.
func readSpecializeSpec(act *action.Action, arr *array.Array) ([]string, map[string]*cell.Cell, error) {
	var order []string
	fill := make(map[string]*cell.Cell)
	n := arr.Len()
	for i := 0; i < n; i++ {
		c := arr.At(i)
		switch c.Kind {
		case cell.KindWord, cell.KindRefinement:
			sym := bind.Symbol(c)
			if act.ParamIndex(sym) < 0 {
				return nil, nil, fmt.Errorf("specialize: no such parameter %q", sym)
			}
			order = append(order, sym)
		case cell.KindSetWord:
			sym := bind.Symbol(c)
			if act.ParamIndex(sym) < 0 {
				return nil, nil, fmt.Errorf("specialize: no such parameter %q", sym)
			}
			if i+1 >= n {
				return nil, nil, fmt.Errorf("specialize: %q needs a following value", sym)
			}
			i++
			v := &cell.Cell{}
			cell.CopyCell(v, arr.At(i))
			fill[sym] = v
		}
	}
	return order, fill, nil
}

func specializeError(err error) trap.Result {
	return trap.RaiseResult(trap.NewError(trap.CategoryScript, 5, "specialize-error", err.Error()))
}
