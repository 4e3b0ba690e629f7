package eval

import (
	"rebcore/internal/action"
	"rebcore/internal/array"
	"rebcore/internal/bind"
	"rebcore/internal/cell"
	"rebcore/internal/trap"
)

// RunBlock runs arr's contents as a sequence of sub-expressions in the
// lexical scope of the call currently backing callCtx, returning the last
// step's value the way a parenthesized GROUP! reduces to one value
// inline. This is the same sub-Level construction evalGroup uses for
// GROUP!, exposed here so a native whose argument is a hard-quoted
// BLOCK! (an IF/WHILE/CASE/CATCH body, say) can run it without this
// package's unexported Level fields leaking out of the package.
func RunBlock(callCtx action.CallContext, arr *array.Array) trap.Result {
	lvl, ok := callCtx.(*Level)
	if !ok {
		return trap.RaiseResult(trap.NewError(trap.CategoryInternal, 3, "bad-dispatch", "RunBlock requires an *eval.Level"))
	}
	if arr == nil || arr.Len() == 0 {
		return trap.ValueResult(blankValue())
	}
	sub := &Level{
		Feed:          NewFeed(arr, lvl.Feed.Specifier),
		varlist:       lvl.varlist,
		phaseIdentity: lvl.phaseIdentity,
	}
	return Run(sub)
}

// RelativizeParams walks arr recursively and rebinds every word-family
// cell whose symbol names one of act's formal parameters to act's
// identity, unconditionally overwriting whatever binding BindDeep gave
// it at load time — the counterpart, for a FUNC body, of what a deep
// copy through a compiler's scope table would otherwise do. Words that
// do not name a parameter are left exactly as AttachBody copied them, so
// they keep resolving against the context the literal body was written
// in, exactly as Rebol's lexically-scoped non-parameter words do.
func RelativizeParams(arr *array.Array, names map[string]bool, act *action.Action) {
	if arr == nil {
		return
	}
	arr.Each(func(_ int, c *cell.Cell) bool {
		relativizeCell(c, names, act)
		return true
	})
}

func relativizeCell(c *cell.Cell, names map[string]bool, act *action.Action) {
	switch c.Kind {
	case cell.KindWord, cell.KindSetWord, cell.KindGetWord, cell.KindLitWord, cell.KindRefinement:
		if names[bind.Symbol(c)] {
			bind.BindRelative(c, act)
		}

	case cell.KindBlock, cell.KindGroup, cell.KindPath, cell.KindTuple:
		if nested, ok := c.Payload[0].(*array.Array); ok {
			RelativizeParams(nested, names, act)
		}
	}
}
