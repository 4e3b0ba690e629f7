package eval

import (
	"rebcore/internal/action"
	"rebcore/internal/array"
	"rebcore/internal/bind"
	"rebcore/internal/cell"
	"rebcore/internal/trap"
)

// NewFunctionShell allocates a user-defined action's identity and
// dispatcher without a body, so a caller can bind the body's words
// relative to this exact action (its pointer is its identity, per
// the relative-binding model) before calling AttachBody.
func NewFunctionShell(paramlist []*action.Param) *action.Action {
	return action.New(paramlist, functionDispatch)
}

// AttachBody deep-copies bodyTemplate cell-by-cell into a fresh array
// relative to a's identity and installs it as a's body — the core of an
// "ordinary" action, as opposed to a native. Copying
// (rather than aliasing) the template lets one function's body be
// invoked reentrantly without sharing storage with whatever block
// expression produced it.
func AttachBody(a *action.Action, bodyTemplate *array.Array) {
	body := bodyTemplate.DeepCopy(true)
	body.ActionIdentity = a
	a.Body = body
}

// returnLabel is the thrown-value label a definitional RETURN uses;
// matching it against a frame's phase identity (rather than any RETURN
// call anywhere in the program) is what makes RETURN exit exactly the
// invocation it lexically belongs to, even through nested calls.
const returnLabel = "return"

// functionDispatch runs a user-defined action's body as a block,
// installing a definitional RETURN bound to this exact invocation before
// doing so. A thrown "return" whose frame identity matches this call is
// caught and converted back into an ordinary value result; anything else
// (a different throw, a raise, or the body's own last value) propagates
// or is returned as-is.
func functionDispatch(callCtx action.CallContext) trap.Result {
	lvl, ok := callCtx.(*Level)
	if !ok {
		return trap.RaiseResult(trap.NewError(trap.CategoryInternal, 2, "bad-dispatch", "function dispatch requires an *eval.Level"))
	}
	act := lvl.phaseIdentity.(*action.Action)

	returnAction := action.New(
		[]*action.Param{{Symbol: "value", Class: action.ClassNormal, Flags: action.FlagEndable}},
		func(ctx action.CallContext) trap.Result {
			v, _, _ := ctx.Varlist().Lookup("value", false)
			return trap.ThrowResult(&trap.ThrownValue{Label: returnLabel, FrameIdentity: act, Value: v})
		},
	)
	returnCell := &cell.Cell{}
	returnCell.Reset(cell.KindAction)
	returnCell.Quote = 0
	returnCell.Payload[0] = returnAction
	lvl.varlist.AppendKey(returnLabel, returnCell)

	specifier := bind.PushFrame(lvl.Feed.Specifier, lvl)
	sub := &Level{
		Feed:          NewFeed(act.Body, specifier),
		varlist:       lvl.varlist,
		phaseIdentity: lvl.phaseIdentity,
	}
	r := Run(sub)
	if v, caught := trap.Catch(r, returnLabel, act); caught {
		return trap.ValueResult(v)
	}
	return r
}
