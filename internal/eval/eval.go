package eval

import (
	"rebcore/internal/action"
	"rebcore/internal/array"
	"rebcore/internal/bind"
	"rebcore/internal/cell"
	"rebcore/internal/trap"
)

// Run drives lvl's feed to completion, returning the last step's result
// (or the first abrupt throw/raise encountered). This is the top-level
// reduction loop: fetch one value (stepOnce), then keep extending it
// leftward with any run of enfix words the lookahead finds, until the
// feed is exhausted.
func Run(lvl *Level) trap.Result {
	for {
		if lvl.Feed.AtEnd() {
			return trap.ValueResult(lvl.out)
		}
		r := evalOneValue(lvl)
		if r.IsAbrupt() {
			return r
		}
		lvl.out = r.Value
	}
}

// evalOneValue fetches and evaluates exactly one source position, then
// extends the result with enfix lookahead: a single evaluator STEP.
func evalOneValue(lvl *Level) trap.Result {
	r := stepOnce(lvl)
	if r.IsAbrupt() {
		return r
	}
	return lookaheadEnfix(lvl, r)
}

// lookaheadEnfix repeatedly checks the next feed position for a word
// bound to an enfixed action; each match consumes the word and invokes
// it with r's value as its left-hand argument, producing a new r to test
// again. This is the infix-dispatch weave the evaluator performs.
func lookaheadEnfix(lvl *Level, r trap.Result) trap.Result {
	for {
		peek := lvl.Feed.Peek()
		if peek == nil || peek.Kind != cell.KindWord {
			return r
		}
		v, err := resolveWordValue(lvl, peek)
		if err != nil {
			return r
		}
		if !isInvocableAction(v) || v.Flags&cell.FlagEnfixed == 0 {
			return r
		}
		lvl.Feed.Next()
		act := v.Payload[0].(*action.Action)
		r = invokeAction(lvl, act, r.Value, nil)
		if r.IsAbrupt() {
			return r
		}
	}
}

// shoveWordName is the one word the evaluator recognizes by spelling
// rather than by binding: SHOVE. Ordinary words are never dispatched
// this way, but enfix is a per-variable flag, not a per-action one, so
// there is no other call-site-local way to force a normally-prefix
// action to take its left argument from whatever the previous step
// already produced.
const shoveWordName = "->"

// evalShove implements SHOVE: it takes the value the evaluator's
// previous step already produced as the left-hand argument and invokes
// the action named by the next feed word with it, exactly as
// lookaheadEnfix would for a naturally-enfixed word — except the
// target's own enfix flag is never consulted. This lets one particular
// call site use a prefix action infix-style without redefining it.
func evalShove(lvl *Level) trap.Result {
	if lvl.Feed.AtEnd() {
		return raiseArity("-> needs a following action word")
	}
	target := lvl.Feed.Next()
	var targetVal cell.Cell
	cell.Derelativize(&targetVal, target, lvl.Feed.Specifier)
	if targetVal.Kind != cell.KindWord {
		return raiseArity("-> requires a WORD! naming an action")
	}
	v, err := resolveWordValue(lvl, &targetVal)
	if err != nil {
		return raiseLookupError(err)
	}
	if !isInvocableAction(v) {
		return raiseArity("-> target does not resolve to an action")
	}
	act := v.Payload[0].(*action.Action)
	return invokeAction(lvl, act, lvl.out, nil)
}

func isInvocableAction(v *cell.Cell) bool {
	return v.Kind == cell.KindAction && v.Quote == 0
}

func resolveWordValue(lvl *Level, word *cell.Cell) (*cell.Cell, error) {
	return bind.Lookup(word, lvl.Feed.Specifier, false)
}

// stepOnce dispatches a single fetched cell by kind.
func stepOnce(lvl *Level) trap.Result {
	c := lvl.Feed.Next()
	if c == nil {
		return trap.ValueResult(blankValue())
	}

	switch c.Kind {
	case cell.KindWord:
		if bind.Symbol(c) == shoveWordName {
			return evalShove(lvl)
		}
		v, err := resolveWordValue(lvl, c)
		if err != nil {
			return raiseLookupError(err)
		}
		if isInvocableAction(v) {
			act := v.Payload[0].(*action.Action)
			return invokeAction(lvl, act, nil, nil)
		}
		return trap.ValueResult(copyOf(v))

	case cell.KindSetWord:
		if lvl.Feed.AtEnd() {
			return raiseArity("SET-WORD! needs a following value")
		}
		r := evalOneValue(lvl)
		if r.IsAbrupt() {
			return r
		}
		if err := bind.SetWord(c, lvl.Feed.Specifier, r.Value, false); err != nil {
			return raiseLookupError(err)
		}
		return trap.ValueResult(r.Value)

	case cell.KindGetWord:
		v, err := resolveWordValue(lvl, c)
		if err != nil {
			return raiseLookupError(err)
		}
		cp := copyOf(v)
		if cp.Kind == cell.KindAction && cp.Quote == 0 {
			cp.Quote = 1 // reify: a GET-WORD! fetches the callable without invoking it
		}
		return trap.ValueResult(cp)

	case cell.KindLitWord:
		sym := bind.Symbol(c)
		wc := &cell.Cell{}
		bind.MakeWord(wc, cell.KindWord, sym)
		return trap.ValueResult(wc)

	case cell.KindGroup:
		return evalGroup(lvl, c)

	case cell.KindPath:
		return evalPath(lvl, c)

	default:
		return trap.ValueResult(copyOf(c))
	}
}

func copyOf(src *cell.Cell) *cell.Cell {
	dst := &cell.Cell{}
	cell.CopyCell(dst, src)
	return dst
}

func blankValue() *cell.Cell {
	c := &cell.Cell{}
	c.Reset(cell.KindBlank)
	return c
}

func logicValue(b bool) *cell.Cell {
	c := &cell.Cell{}
	c.Reset(cell.KindLogic)
	c.Payload[0] = b
	return c
}

func raiseArity(msg string) trap.Result {
	return trap.RaiseResult(trap.NewError(trap.CategoryScript, 1, "arity-error", msg))
}

func raiseLookupError(err error) trap.Result {
	return trap.RaiseResult(trap.NewError(trap.CategoryScript, 2, "bind-error", err.Error()))
}

// evalGroup runs a GROUP!'s contents as a sub-expression sequence and
// returns the last step's value, the way a parenthesized expression
// reduces to one value inline. It shares the enclosing level's frame
// context and phase identity: a GROUP! is not a new binding scope.
func evalGroup(lvl *Level, c *cell.Cell) trap.Result {
	arr, _ := c.Payload[0].(*array.Array)
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

// evalPath recognizes a refinement-call path (WORD! followed by one or
// more REFINEMENT!/WORD! names naming an action's refinements) and
// invokes the named action with those refinements requested in the
// order they appear on the path — partial-refinement ordering. A path
// whose head does not resolve to an invocable action is returned as an
// inert literal value.
func evalPath(lvl *Level, c *cell.Cell) trap.Result {
	arr, _ := c.Payload[0].(*array.Array)
	if arr == nil || arr.Len() == 0 {
		return trap.ValueResult(copyOf(c))
	}
	head := arr.At(0)
	var headVal cell.Cell
	cell.Derelativize(&headVal, head, lvl.Feed.Specifier)

	if headVal.Kind != cell.KindWord {
		return trap.ValueResult(copyOf(c))
	}
	v, err := resolveWordValue(lvl, &headVal)
	if err != nil || !isInvocableAction(v) {
		return trap.ValueResult(copyOf(c))
	}

	var refinements []string
	for i := 1; i < arr.Len(); i++ {
		var rc cell.Cell
		cell.Derelativize(&rc, arr.At(i), lvl.Feed.Specifier)
		switch rc.Kind {
		case cell.KindWord, cell.KindRefinement:
			refinements = append(refinements, bind.Symbol(&rc))
		}
	}

	act := v.Payload[0].(*action.Action)
	return invokeAction(lvl, act, nil, refinements)
}

// invokeAction fulfills act's arguments (from enfixLeft, if supplied, and
// otherwise from lvl's feed, in facade order with any named refinements'
// own arguments visited in refinementOrder rather than declaration
// order), then runs its dispatcher, resolving RedoUnchecked bounces by
// merging the redoing action's Exemplar and retrying against Underlying —
// the same rule action.Apply uses outside the evaluator.
func invokeAction(lvl *Level, act *action.Action, enfixLeft *cell.Cell, refinementOrder []string) trap.Result {
	ctx := action.BuildExemplar(act)

	// A specialized action invoked directly by word (rather than through
	// an explicit PATH! at this call site) carries its own baked-in
	// partial-refinement order in its Exemplar's order-marker slots
	// (copied into ctx by BuildExemplar above) rather than in the
	// refinementOrder argument, which evalPath never populated for it.
	if len(refinementOrder) == 0 && act.Exemplar != nil {
		refinementOrder = action.RefinementOrder(act.Paramlist, ctx)
	}

	if len(refinementOrder) > 0 {
		if err := applyRefinementOrder(ctx, act.Paramlist, refinementOrder); err != nil {
			return trap.RaiseResult(trap.NewError(trap.CategoryScript, 3, "refinement-error", err.Error()))
		}
	}

	usedEnfix := false
	fill := func(p *action.Param) trap.Result {
		slot, _, ok := ctx.Lookup(p.Symbol, false)
		if !ok || slot.Kind != cell.KindBlank {
			return trap.ValueResult(nil) // already specialized or refinement-marked
		}
		var r trap.Result
		if enfixLeft != nil && !usedEnfix {
			r = trap.ValueResult(enfixLeft)
			usedEnfix = true
		} else if enfixLeft != nil && p.Class == action.ClassNormal && !lvl.Feed.AtEnd() {
			// an enfix call's right-hand argument is one step with no
			// lookahead, so a chain of infix operators groups left to right
			r = stepOnce(lvl)
		} else {
			r = fetchArg(lvl, p)
		}
		if r.IsAbrupt() {
			return r
		}
		cell.CopyCell(slot, r.Value)
		return trap.ValueResult(nil)
	}

	leading := true
	for _, p := range act.Paramlist {
		if p.IsRefinement() {
			leading = false
			continue
		}
		if !leading {
			continue
		}
		if p.Class == action.ClassLocal || p.Class == action.ClassReturn || p.IsHidden() {
			continue
		}
		if r := fill(p); r.IsAbrupt() {
			return r
		}
	}

	for _, name := range refinementOrder {
		idx := act.ParamIndex(name)
		if idx < 0 {
			continue
		}
		for i := idx + 1; i < len(act.Paramlist); i++ {
			p := act.Paramlist[i]
			if p.IsRefinement() {
				break
			}
			if p.Class == action.ClassLocal || p.Class == action.ClassReturn || p.IsHidden() {
				continue
			}
			if r := fill(p); r.IsAbrupt() {
				return r
			}
		}
	}

	for _, p := range act.Paramlist {
		if !p.IsRefinement() {
			continue
		}
		slot, _, ok := ctx.Lookup(p.Symbol, false)
		if ok && slot.Kind == cell.KindBlank {
			cell.CopyCell(slot, logicValue(false))
		}
	}

	call := NewCall(lvl, lvl.Feed, ctx, act, act.Label)
	a := act
	for {
		r := a.Dispatch(call)
		if r.Kind == trap.KindRedoUnchecked && a.Underlying != nil {
			action.MergeExemplar(ctx, a.Exemplar)
			a = a.Underlying
			continue
		}
		call.Finish()
		return r
	}
}

// applyRefinementOrder marks each named refinement's slot "on" (a plain
// logic-true), leaving the order information in refinementOrder itself
// for invokeAction's arg-fetch loop to consult; it does not need to be
// re-derived from the context afterward the way action.Specialize's
// order markers must be (nothing here persists past this one call).
func applyRefinementOrder(ctx *bind.Context, paramlist []*action.Param, order []string) error {
	for _, name := range order {
		slot, _, ok := ctx.Lookup(name, false)
		if !ok {
			return trap.NewError(trap.CategoryScript, 4, "no-refinement", "no such refinement: "+name)
		}
		found := false
		for _, p := range paramlist {
			if p.Symbol == name && p.IsRefinement() {
				found = true
			}
		}
		if !found {
			return trap.NewError(trap.CategoryScript, 4, "no-refinement", "not a refinement: "+name)
		}
		cell.CopyCell(slot, logicValue(true))
	}
	return nil
}

// fetchArg pulls one argument value for p from lvl's feed, honoring the
// parameter's quoting convention: hard-quote takes the next cell
// literally, soft-quote takes it literally unless it is a GROUP! or
// GET-WORD! (which still evaluate), and every other class evaluates the
// next sub-expression in full.
func fetchArg(lvl *Level, p *action.Param) trap.Result {
	switch p.Class {
	case action.ClassHardQuote:
		if lvl.Feed.AtEnd() {
			if p.Flags&action.FlagEndable != 0 {
				return trap.ValueResult(blankValue())
			}
			return raiseArity("missing required argument: " + p.Symbol)
		}
		return trap.ValueResult(lvl.Feed.Next())

	case action.ClassSoftQuote:
		if lvl.Feed.AtEnd() {
			if p.Flags&action.FlagEndable != 0 {
				return trap.ValueResult(blankValue())
			}
			return raiseArity("missing required argument: " + p.Symbol)
		}
		peek := lvl.Feed.Peek()
		if peek.Kind == cell.KindGroup || peek.Kind == cell.KindGetWord {
			return evalOneValue(lvl)
		}
		return trap.ValueResult(lvl.Feed.Next())

	default:
		if lvl.Feed.AtEnd() {
			if p.Flags&action.FlagEndable != 0 {
				return trap.ValueResult(blankValue())
			}
			return raiseArity("missing required argument: " + p.Symbol)
		}
		return evalOneValue(lvl)
	}
}
