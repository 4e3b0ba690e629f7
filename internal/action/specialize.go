package action

import (
	"fmt"

	"rebcore/internal/bind"
	"rebcore/internal/cell"
	"rebcore/internal/trap"
)

// BuildExemplar creates the FRAME context an action invocation (or a
// specialization) fills in: one variable per paramlist slot, in
// paramlist order, starting out Blank. If target is already itself a
// specialization, its own Exemplar's filled-in values seed the new one,
// so repeated specialization accumulates rather than discarding earlier
// work.
func BuildExemplar(target *Action) *bind.Context {
	ctx := bind.NewContext(bind.KindFrame)
	for _, p := range target.Paramlist {
		blank := &cell.Cell{}
		blank.Reset(cell.KindBlank)
		ctx.AppendKey(p.Symbol, blank)
	}
	if target.Exemplar != nil {
		for _, p := range target.Paramlist {
			if src, _, ok := target.Exemplar.Lookup(p.Symbol, false); ok && src.Kind != cell.KindBlank {
				dst, _, _ := ctx.Lookup(p.Symbol, false)
				cell.CopyCell(dst, src)
			}
		}
	}
	return ctx
}

// orderMarker tags a refinement slot that has been named for partial
// specialization but whose own arguments have not yet been supplied. The
// integer is the refinement's 1-based position in the caller-supplied
// ordering, which is what lets a later fulfillment pass visit partial
// refinements' arguments in the order they were named rather than in
// declaration order.
func orderMarker(position int) *cell.Cell {
	c := &cell.Cell{}
	c.Reset(cell.KindInteger)
	c.Payload[0] = position
	return c
}

// Specialize produces a new Action over the same paramlist as target,
// with the named refinements (and, through fill, any of their arguments
// or plain positional parameters) pre-filled. refinementOrder gives the
// order those refinement names were mentioned at the SPECIALIZE call
// site; later fulfillment against the resulting action visits each
// refinement's own arguments in that order, not paramlist order, which
// is the partial-refinement-ordering behavior: `foo/b/c` and `foo/c/b`
// build distinguishable specializations even
// though `b` and `c` occupy fixed paramlist slots.
//
// fill supplies values for any parameter BuildExemplar left blank that
// the caller wants to pin now; it is consulted after refinement markers
// are written, so it may also override a refinement's own on/off slot.
func Specialize(target *Action, refinementOrder []string, fill map[string]*cell.Cell) (*Action, error) {
	ctx := BuildExemplar(target)

	for pos, name := range refinementOrder {
		idx := target.ParamIndex(name)
		if idx < 0 {
			return nil, fmt.Errorf("specialize: no such refinement %q", name)
		}
		p := target.Paramlist[idx]
		if !p.IsRefinement() {
			return nil, fmt.Errorf("specialize: %q is not a refinement", name)
		}
		slot, _, _ := ctx.Lookup(name, false)
		cell.CopyCell(slot, orderMarker(pos+1))
	}

	for symbol, v := range fill {
		slot, _, ok := ctx.Lookup(symbol, false)
		if !ok {
			return nil, fmt.Errorf("specialize: no such parameter %q", symbol)
		}
		cell.CopyCell(slot, v)
	}

	facade := make([]*Param, 0, len(target.Paramlist))
	for _, p := range target.Paramlist {
		cp := *p
		slot, _, ok := ctx.Lookup(p.Symbol, false)
		filled := ok && slot.Kind != cell.KindBlank
		if filled && !p.IsRefinement() {
			cp.Hide()
		}
		if filled && p.IsRefinement() {
			if slot.Kind == cell.KindLogic {
				cp.Hide() // fully decided on/off, no longer user-visible
			}
			// else: an order marker leaves the refinement visible so its
			// own arguments can still be supplied at the call site.
		}
		facade = append(facade, &cp)
	}

	return &Action{
		Paramlist:  target.Paramlist,
		Facade:     facade,
		Exemplar:   ctx,
		Dispatch:   specializerDispatch,
		Underlying: target,
	}, nil
}

// specializerDispatch never runs any user logic itself: it tells the
// evaluator to redo the call against Underlying with this action's
// Exemplar merged in as the starting varlist, mirroring how the original
// runtime's specialized actions carry no dispatcher of their own.
func specializerDispatch(ctx CallContext) trap.Result {
	return trap.RedoUncheckedResult()
}

// RefinementOrder reads back the order in which an exemplar's refinements
// were named for partial specialization, by sorting the order-marker
// slots by their stored position. Refinements fully resolved to a
// logic value (not partially specialized) are omitted.
func RefinementOrder(paramlist []*Param, ctx *bind.Context) []string {
	type entry struct {
		name string
		pos  int
	}
	var entries []entry
	for _, p := range paramlist {
		if !p.IsRefinement() {
			continue
		}
		slot, _, ok := ctx.Lookup(p.Symbol, false)
		if !ok || slot.Kind != cell.KindInteger {
			continue
		}
		entries = append(entries, entry{p.Symbol, slot.Payload[0].(int)})
	}
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].pos < entries[j-1].pos; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}
