package action

import (
	"testing"

	"rebcore/internal/cell"
	"rebcore/internal/trap"
)

func intCell(n int) *cell.Cell {
	c := &cell.Cell{}
	c.Reset(cell.KindInteger)
	c.Payload[0] = n
	return c
}

func asInt(c *cell.Cell) int { return c.Payload[0].(int) }

func fooParamlist() []*Param {
	return []*Param{
		{Symbol: "a", Class: ClassNormal},
		{Symbol: "b", Class: ClassRefinement, Flags: FlagRefinement},
		{Symbol: "x", Class: ClassNormal},
		{Symbol: "c", Class: ClassRefinement, Flags: FlagRefinement},
		{Symbol: "y", Class: ClassNormal},
	}
}

func TestBuildExemplarHasOneSlotPerParam(t *testing.T) {
	a := New(fooParamlist(), func(ctx CallContext) trap.Result { return trap.ValueResult(nil) })
	ctx := BuildExemplar(a)
	if len(ctx.Keylist.Symbols) != len(a.Paramlist) {
		t.Fatalf("exemplar has %d slots, want %d", len(ctx.Keylist.Symbols), len(a.Paramlist))
	}
}

func TestSpecializeHidesFilledPlainParam(t *testing.T) {
	a := New(fooParamlist(), func(ctx CallContext) trap.Result { return trap.ValueResult(nil) })
	spec, err := Specialize(a, nil, map[string]*cell.Cell{"a": intCell(9)})
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range spec.VisibleFacade() {
		if p.Symbol == "a" {
			t.Fatal("specialized plain parameter should be hidden from the facade")
		}
	}
}

func TestSpecializeWithNoRefinementsLeavesFacadeEquivalent(t *testing.T) {
	a := New(fooParamlist(), func(ctx CallContext) trap.Result { return trap.ValueResult(nil) })
	spec, err := Specialize(a, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(spec.VisibleFacade()) != len(a.VisibleFacade()) {
		t.Fatal("specializing nothing should not change the visible facade's size")
	}
}

func TestSpecializeRejectsUnknownRefinement(t *testing.T) {
	a := New(fooParamlist(), func(ctx CallContext) trap.Result { return trap.ValueResult(nil) })
	if _, err := Specialize(a, []string{"nope"}, nil); err == nil {
		t.Fatal("expected an error for an unknown refinement name")
	}
}

func TestOrderArgumentsRespectsRefinementCallOrder(t *testing.T) {
	pl := fooParamlist()

	bc, err := OrderArguments(pl, []string{"b", "c"}, []*cell.Cell{intCell(1), intCell(2), intCell(3)})
	if err != nil {
		t.Fatal(err)
	}
	if asInt(bc["a"]) != 1 || asInt(bc["x"]) != 2 || asInt(bc["y"]) != 3 {
		t.Fatalf("foo/b/c 1 2 3 should bind a=1 x=2 y=3, got a=%v x=%v y=%v",
			bc["a"].Payload[0], bc["x"].Payload[0], bc["y"].Payload[0])
	}

	cb, err := OrderArguments(pl, []string{"c", "b"}, []*cell.Cell{intCell(1), intCell(2), intCell(3)})
	if err != nil {
		t.Fatal(err)
	}
	if asInt(cb["a"]) != 1 || asInt(cb["y"]) != 2 || asInt(cb["x"]) != 3 {
		t.Fatalf("foo/c/b 1 2 3 should bind a=1 y=2 x=3, got a=%v y=%v x=%v",
			cb["a"].Payload[0], cb["y"].Payload[0], cb["x"].Payload[0])
	}
}

func TestApplyRedoesThroughSpecializationToUnderlying(t *testing.T) {
	ran := false
	base := New(fooParamlist(), func(ctx CallContext) trap.Result {
		ran = true
		v, _, ok := ctx.Varlist().Lookup("a", false)
		if !ok || v.Kind != cell.KindInteger || asInt(v) != 42 {
			t.Fatal("underlying dispatcher should see the specialized value for a")
		}
		return trap.ValueResult(v)
	})
	spec, err := Specialize(base, nil, map[string]*cell.Cell{"a": intCell(42)})
	if err != nil {
		t.Fatal(err)
	}
	r := Apply(spec, nil)
	if !ran {
		t.Fatal("Apply should redo into the underlying action's dispatcher")
	}
	if r.Kind != trap.KindValue || asInt(r.Value) != 42 {
		t.Fatal("Apply should return the underlying dispatcher's result")
	}
}

func TestRefinementOrderRoundTrips(t *testing.T) {
	base := New(fooParamlist(), func(ctx CallContext) trap.Result { return trap.ValueResult(nil) })
	spec, err := Specialize(base, []string{"c", "b"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	order := RefinementOrder(base.Paramlist, spec.Exemplar)
	if len(order) != 2 || order[0] != "c" || order[1] != "b" {
		t.Fatalf("refinement order = %v, want [c b]", order)
	}
}
