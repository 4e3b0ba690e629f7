package action

import (
	"rebcore/internal/array"
	"rebcore/internal/bind"
	"rebcore/internal/cell"
	"rebcore/internal/trap"
)

// CallContext is the minimal surface a dispatcher needs to read its bound
// arguments and write its result. eval.Level implements this; keeping it
// as an interface here lets the evaluator depend on action without action
// depending back on eval.
type CallContext interface {
	Varlist() *bind.Context // the frame context backing this call, keyed by param symbol
	Out() *cell.Cell
	SetOut(*cell.Cell)
}

// Dispatcher is the function an Action invokes once its arguments are
// fulfilled and typechecked. It returns a trap.Result the way every
// evaluator step does: a plain value, a redo request (for specialization
// and adapted actions), or an abrupt throw/raise.
type Dispatcher func(ctx CallContext) trap.Result

// Action is a callable: a parameter list describing its full argument
// shape, a facade describing what a caller assembling a call actually
// sees (narrower once some parameters are hidden by specialization), an
// optional exemplar prefilling some of those arguments, and a dispatcher.
//
// An Action's own identity (used to match relative word bindings and
// definitional RETURN/UNWIND targets back to the exact invocation they
// belong to) is the *Action pointer itself; nothing else needs to carry
// it separately.
type Action struct {
	Paramlist []*Param
	Facade    []*Param
	Dispatch  Dispatcher
	Exemplar  *bind.Context // nil unless this action was produced by specialization
	Body      *array.Array  // dispatcher-private compiled/interpreted body, nil for natives
	Label     string        // bound name at the call site, for Where/stack traces; set by the binder, not fixed at creation

	// Underlying is non-nil when Dispatch is a specializer stub: it names
	// the action that RedoUnchecked should actually invoke once this
	// action's Exemplar has been merged into the call frame.
	Underlying *Action
}

// New creates a plain (unspecialized) action over paramlist, whose facade
// is initially identical to the full paramlist.
func New(paramlist []*Param, dispatch Dispatcher) *Action {
	facade := make([]*Param, len(paramlist))
	copy(facade, paramlist)
	return &Action{Paramlist: paramlist, Facade: facade, Dispatch: dispatch}
}

// ParamIndex finds a parameter's position in the full paramlist by
// symbol, or -1.
func (a *Action) ParamIndex(symbol string) int {
	for i, p := range a.Paramlist {
		if p.Symbol == symbol {
			return i
		}
	}
	return -1
}

// VisibleFacade returns the facade parameters that are not hidden, in
// order: what a caller assembling an ordinary call actually fills in.
func (a *Action) VisibleFacade() []*Param {
	out := make([]*Param, 0, len(a.Facade))
	for _, p := range a.Facade {
		if !p.IsHidden() {
			out = append(out, p)
		}
	}
	return out
}

// Refinements returns the visible facade's refinement parameters, in
// declaration order.
func (a *Action) Refinements() []*Param {
	out := make([]*Param, 0)
	for _, p := range a.VisibleFacade() {
		if p.IsRefinement() {
			out = append(out, p)
		}
	}
	return out
}
