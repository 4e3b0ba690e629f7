package natives

import (
	"rebcore/internal/action"
	"rebcore/internal/array"
	"rebcore/internal/bind"
	"rebcore/internal/cell"
	"rebcore/internal/eval"
	"rebcore/internal/trap"
)

// Thrown-value labels the control natives below use to signal abrupt
// non-local exits. THROW/CATCH use a single fixed label rather than
// Rebol's full named-catch (CATCH/name): good enough to let a CATCH
// anywhere on the call stack intercept any THROW below it, which is as
// far as this runtime's worked examples exercise the mechanism. BREAK
// and CONTINUE are never caught by a user CATCH since loopOutcome
// intercepts them first.
const (
	throwLabel    = "throw"
	breakLabel    = "break"
	continueLabel = "continue"
)

func blankValue() *cell.Cell {
	c := &cell.Cell{}
	c.Reset(cell.KindBlank)
	return c
}

func blockArray(v *cell.Cell) (*array.Array, bool) {
	if v == nil || v.Kind != cell.KindBlock {
		return nil, false
	}
	arr, ok := v.Payload[0].(*array.Array)
	return arr, ok
}

// registerFunction binds FUNC: it reads a [word ...] spec block and a
// body block exactly as they appear at the call site (both hard-quoted,
// so neither is evaluated), builds a plain-positional paramlist from the
// spec's WORD! cells, and forcibly relativizes every body word matching
// one of those names to the new action's identity before attaching the
// body — the script-level counterpart of the paramlist/AttachBody pair
// function_test.go exercises only by constructing them directly in Go.
func registerFunction(ctx *bind.Context) {
	bindNative(ctx, "func", []*action.Param{
		{Symbol: "spec", Class: action.ClassHardQuote},
		{Symbol: "body", Class: action.ClassHardQuote},
	}, func(call action.CallContext) trap.Result {
		specArr, ok := blockArray(arg(call, "spec"))
		if !ok {
			return wrongType("func", arg(call, "spec"))
		}
		bodyArr, ok := blockArray(arg(call, "body"))
		if !ok {
			return wrongType("func", arg(call, "body"))
		}

		paramlist, names := paramsFromSpec(specArr)
		act := eval.NewFunctionShell(paramlist)
		eval.AttachBody(act, bodyArr)
		// the definitional RETURN lives in the frame varlist too
		names["return"] = true
		eval.RelativizeParams(act.Body, names, act)
		act.Label = "func"

		c := &cell.Cell{}
		c.Reset(cell.KindAction)
		c.Quote = 0
		c.Payload[0] = act
		return trap.ValueResult(c)
	})
}

// paramsFromSpec reads a FUNC spec block's bare WORD! cells as plain
// positional parameters. Refinements, type constraints, and docstrings
// in the spec dialect are not supported; a spec using them is treated as
// naming only its plain words.
func paramsFromSpec(arr *array.Array) ([]*action.Param, map[string]bool) {
	var params []*action.Param
	names := make(map[string]bool)
	arr.Each(func(_ int, c *cell.Cell) bool {
		if c.Kind == cell.KindWord {
			sym := bind.Symbol(c)
			params = append(params, &action.Param{Symbol: sym, Class: action.ClassNormal})
			names[sym] = true
		}
		return true
	})
	return params, names
}

// registerControl binds the conditional, loop, and non-local-exit
// natives a script needs to express anything beyond a single expression:
// IF/EITHER/CASE for branching, WHILE/REPEAT for looping, and
// CATCH/THROW/BREAK/CONTINUE for the abrupt exits trap.go already knows
// how to carry. Every block argument is hard-quoted and run with
// eval.RunBlock in the calling level's own scope, the same sub-Level
// construction a GROUP! gets.
func registerControl(ctx *bind.Context) {
	bindNative(ctx, "if", []*action.Param{
		param("condition"),
		{Symbol: "body", Class: action.ClassHardQuote},
	}, func(call action.CallContext) trap.Result {
		bodyArr, ok := blockArray(arg(call, "body"))
		if !ok {
			return wrongType("if", arg(call, "body"))
		}
		if !isTruthy(arg(call, "condition")) {
			return trap.ValueResult(blankValue())
		}
		return eval.RunBlock(call, bodyArr)
	})

	bindNative(ctx, "either", []*action.Param{
		param("condition"),
		{Symbol: "true-body", Class: action.ClassHardQuote},
		{Symbol: "false-body", Class: action.ClassHardQuote},
	}, func(call action.CallContext) trap.Result {
		trueArr, ok := blockArray(arg(call, "true-body"))
		if !ok {
			return wrongType("either", arg(call, "true-body"))
		}
		falseArr, ok := blockArray(arg(call, "false-body"))
		if !ok {
			return wrongType("either", arg(call, "false-body"))
		}
		if isTruthy(arg(call, "condition")) {
			return eval.RunBlock(call, trueArr)
		}
		return eval.RunBlock(call, falseArr)
	})

	bindNative(ctx, "case", []*action.Param{
		{Symbol: "cases", Class: action.ClassHardQuote},
	}, func(call action.CallContext) trap.Result {
		arr, ok := blockArray(arg(call, "cases"))
		if !ok {
			return wrongType("case", arg(call, "cases"))
		}
		for i := 0; i+1 < arr.Len(); i += 2 {
			condResult := evalSingleCell(call, arr.At(i))
			if condResult.IsAbrupt() {
				return condResult
			}
			consequent := arr.At(i + 1)
			if consequent.Kind != cell.KindBlock {
				return wrongType("case", consequent)
			}
			if isTruthy(condResult.Value) {
				body, _ := blockArray(consequent)
				return eval.RunBlock(call, body)
			}
		}
		return trap.ValueResult(blankValue())
	})

	bindNative(ctx, "while", []*action.Param{
		{Symbol: "condition", Class: action.ClassHardQuote},
		{Symbol: "body", Class: action.ClassHardQuote},
	}, func(call action.CallContext) trap.Result {
		condArr, ok := blockArray(arg(call, "condition"))
		if !ok {
			return wrongType("while", arg(call, "condition"))
		}
		bodyArr, ok := blockArray(arg(call, "body"))
		if !ok {
			return wrongType("while", arg(call, "body"))
		}
		result := blankValue()
		for {
			cr := eval.RunBlock(call, condArr)
			if cr.IsAbrupt() {
				return cr
			}
			if !isTruthy(cr.Value) {
				break
			}
			v, stop, abrupt, isAbrupt := loopOutcome(call, bodyArr)
			if isAbrupt {
				return abrupt
			}
			if stop {
				return trap.ValueResult(v)
			}
			if v != nil {
				result = v
			}
		}
		return trap.ValueResult(result)
	})

	bindNative(ctx, "repeat", []*action.Param{
		param("count"),
		{Symbol: "body", Class: action.ClassHardQuote},
	}, func(call action.CallContext) trap.Result {
		n, ok := numberOf(arg(call, "count"))
		if !ok {
			return wrongType("repeat", arg(call, "count"))
		}
		bodyArr, ok := blockArray(arg(call, "body"))
		if !ok {
			return wrongType("repeat", arg(call, "body"))
		}
		result := blankValue()
		for i := 0; i < int(n); i++ {
			v, stop, abrupt, isAbrupt := loopOutcome(call, bodyArr)
			if isAbrupt {
				return abrupt
			}
			if stop {
				return trap.ValueResult(v)
			}
			if v != nil {
				result = v
			}
		}
		return trap.ValueResult(result)
	})

	bindNative(ctx, "catch", []*action.Param{
		{Symbol: "body", Class: action.ClassHardQuote},
	}, func(call action.CallContext) trap.Result {
		arr, ok := blockArray(arg(call, "body"))
		if !ok {
			return wrongType("catch", arg(call, "body"))
		}
		r := eval.RunBlock(call, arr)
		if v, caught := trap.Catch(r, throwLabel, nil); caught {
			return trap.ValueResult(v)
		}
		return r
	})

	bindNative(ctx, "throw", []*action.Param{param("value")}, func(call action.CallContext) trap.Result {
		return trap.ThrowResult(&trap.ThrownValue{Label: throwLabel, Value: arg(call, "value")})
	})

	bindNative(ctx, "break", nil, func(call action.CallContext) trap.Result {
		return trap.ThrowResult(&trap.ThrownValue{Label: breakLabel, Value: blankValue()})
	})

	bindNative(ctx, "continue", nil, func(call action.CallContext) trap.Result {
		return trap.ThrowResult(&trap.ThrownValue{Label: continueLabel, Value: blankValue()})
	})
}

// evalSingleCell runs exactly one already-fetched cell (CASE's condition
// slots, which are not whole blocks) as a one-element sequence, so a bare
// word or literal value in a CASE block is resolved the same way the
// evaluator would resolve it inline. A condition made of more than one
// cell (an infix expression, an action call) is not supported: CASE here
// only examines a single value per slot.
func evalSingleCell(call action.CallContext, c *cell.Cell) trap.Result {
	arr := array.New(1)
	var cp cell.Cell
	cell.CopyCell(&cp, c)
	_ = arr.Append(&cp)
	return eval.RunBlock(call, arr)
}

// loopOutcome runs one pass of a loop body block and classifies the
// result: a caught BREAK stops the loop and supplies its own value, a
// caught CONTINUE moves on to the next pass, and any other abrupt result
// (a user THROW, a RETURN unwinding through the loop, a RAISE) is hoisted
// out verbatim for the caller to propagate rather than swallowed here.
func loopOutcome(call action.CallContext, body *array.Array) (value *cell.Cell, stop bool, abrupt trap.Result, isAbrupt bool) {
	r := eval.RunBlock(call, body)
	if !r.IsAbrupt() {
		return r.Value, false, trap.Result{}, false
	}
	if v, ok := trap.Catch(r, breakLabel, nil); ok {
		return v, true, trap.Result{}, false
	}
	if _, ok := trap.Catch(r, continueLabel, nil); ok {
		return nil, false, trap.Result{}, false
	}
	return nil, true, r, true
}
