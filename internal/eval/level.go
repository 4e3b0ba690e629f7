package eval

import (
	"rebcore/internal/bind"
	"rebcore/internal/cell"
)

// State names the steps of evaluating a Level, after the original
// runtime's R_CONTINUE coroutine re-entry points. StateFetch and
// StateFinished are the only states ever assigned: a dispatcher that
// needs a sub-expression run (an action argument, a body block, a
// condition) gets it from a nested, recursive Run on a child Level, so
// the Go call stack remembers where to resume and no Level is parked at
// any of the other states.
type State int

const (
	StateFetch State = iota
	StateDispatch
	StateArgFulfill
	StateTypeCheck
	StateActionDispatch
	StateLookahead
	StateFinished
)

// Level is one call frame: a feed to pull cells from, the output slot
// the last evaluated step wrote, the FRAME context backing the current
// action invocation (nil at the toplevel), and the phase identity used
// to match relative word bindings and definitional RETURN/UNWIND targets
// back to this exact invocation.
type Level struct {
	Feed   *Feed
	State  State
	Label  string
	Parent *Level

	out           *cell.Cell
	varlist       *bind.Context
	phaseIdentity any
}

// NewToplevel creates the outermost Level for evaluating src, with no
// owning action.
func NewToplevel(feed *Feed) *Level {
	return &Level{Feed: feed, State: StateFetch}
}

// NewCall creates a child Level for invoking an action: varlist is the
// frame context built for this call, phaseIdentity is the *action.Action
// pointer that relative words in the action's body resolve against.
func NewCall(parent *Level, feed *Feed, varlist *bind.Context, phaseIdentity any, label string) *Level {
	lvl := &Level{
		Feed:          feed,
		State:         StateFetch,
		Label:         label,
		Parent:        parent,
		varlist:       varlist,
		phaseIdentity: phaseIdentity,
	}
	if varlist != nil {
		varlist.BindFrame(lvl)
	}
	return lvl
}

// PhaseIdentity implements bind.FrameRef.
func (l *Level) PhaseIdentity() any { return l.phaseIdentity }

// Varlist implements bind.VarlistProvider and action.CallContext.
func (l *Level) Varlist() *bind.Context { return l.varlist }

// Out implements action.CallContext.
func (l *Level) Out() *cell.Cell { return l.out }

// SetOut implements action.CallContext.
func (l *Level) SetOut(v *cell.Cell) { l.out = v }

// Finish detaches this level's frame context from the live call,
// expiring it for any stale RETURN/binding that still references it.
func (l *Level) Finish() {
	l.State = StateFinished
	if l.varlist != nil {
		l.varlist.DropFrame()
	}
}

// Trace implements gc.Traceable: a running level keeps its output slot,
// its frame varlist's archetype cell, and the array it is feeding from
// reachable.
func (l *Level) Trace(visit func(child any)) {
	if l.out != nil {
		visit(l.out)
	}
	if l.varlist != nil {
		visit(l.varlist)
	}
	if l.Feed != nil && l.Feed.Source != nil {
		visit(l.Feed.Source)
	}
}
