package bind

import (
	"testing"

	"rebcore/internal/cell"
)

func newIntVar(n int) *cell.Cell {
	c := &cell.Cell{}
	c.Reset(cell.KindInteger)
	c.Payload[0] = n
	return c
}

func TestLookupUnboundWordFails(t *testing.T) {
	var w cell.Cell
	MakeWord(&w, cell.KindWord, "x")
	if _, err := Lookup(&w, Specified, false); err == nil {
		t.Fatal("expected unbound error")
	}
}

func TestLookupVarlistBindingRoundTrips(t *testing.T) {
	ctx := NewContext(KindObject)
	idx := ctx.AppendKey("x", newIntVar(10))

	var w cell.Cell
	MakeWord(&w, cell.KindWord, "x")
	BindSpecific(&w, ctx, idx)

	v, err := Lookup(&w, Specified, false)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if v.Payload[0] != 10 {
		t.Fatalf("got %v, want 10", v.Payload[0])
	}
}

func TestSetWordRejectsProtectedVariable(t *testing.T) {
	ctx := NewContext(KindObject)
	v := newIntVar(1)
	SetProtected(v)
	idx := ctx.AppendKey("x", v)

	var w cell.Cell
	MakeWord(&w, cell.KindSetWord, "x")
	BindSpecific(&w, ctx, idx)

	newVal := newIntVar(2)
	if err := SetWord(&w, Specified, newVal, false); err == nil {
		t.Fatal("expected protected-variable error")
	}
}

func TestVarAtDetectsStaleCachedIndex(t *testing.T) {
	ctx := NewContext(KindObject)
	idx := ctx.AppendKey("x", newIntVar(1))

	if _, err := ctx.VarAt(idx, "y"); err == nil {
		t.Fatal("expected stale-index mismatch to be caught")
	}
	if _, err := ctx.VarAt(idx, "x"); err != nil {
		t.Fatalf("expected matching symbol to succeed: %v", err)
	}
}

func TestWordIndexBeyondKeylistFails(t *testing.T) {
	ctx := NewContext(KindObject)
	ctx.AppendKey("x", newIntVar(1))
	if _, err := ctx.VarAt(5, "x"); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

type fakeFrame struct {
	phase   any
	varlist *Context
}

func (f *fakeFrame) PhaseIdentity() any  { return f.phase }
func (f *fakeFrame) Varlist() *Context   { return f.varlist }

func TestRelativeBindingResolvesThroughFrameSpecifier(t *testing.T) {
	ctx := NewContext(KindFrame)
	ctx.AppendKey("x", newIntVar(99))

	frame := &fakeFrame{phase: "action-1", varlist: ctx}
	specifier := PushFrame(Specified, frame)

	var w cell.Cell
	MakeWord(&w, cell.KindWord, "x")
	BindRelative(&w, "action-1")

	v, err := Lookup(&w, specifier, false)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if v.Payload[0] != 99 {
		t.Fatalf("got %v, want 99", v.Payload[0])
	}
}

func TestRelativeBindingMissingFrameFails(t *testing.T) {
	var w cell.Cell
	MakeWord(&w, cell.KindWord, "x")
	BindRelative(&w, "action-1")

	if _, err := Lookup(&w, Specified, false); err == nil {
		t.Fatal("expected failure when no matching frame is in the specifier chain")
	}
}

func TestFrameContextExpiresWhenFrameDrops(t *testing.T) {
	ctx := NewContext(KindFrame)
	frame := &fakeFrame{phase: "action-1", varlist: ctx}
	ctx.BindFrame(frame)
	if ctx.Expired() {
		t.Fatal("context should not be expired while frame is live")
	}
	ctx.DropFrame()
	if !ctx.Expired() {
		t.Fatal("context should be expired once its frame drops")
	}
}

func TestLetPatchOverlayIsFoundBeforeFallthrough(t *testing.T) {
	patchVar := NewContext(KindObject)
	patchVar.AppendKey("tmp", newIntVar(7))

	specifier := PushLetPatch(Specified, "tmp", patchVar)
	ctx, ok := LookupInChain(specifier, "tmp", false)
	if !ok || ctx != patchVar {
		t.Fatal("expected LET patch to be found in the specifier chain")
	}
}

func TestSetWordAutoCreatesMissingModuleVariable(t *testing.T) {
	mod := NewContext(KindModule)

	var w cell.Cell
	MakeWord(&w, cell.KindSetWord, "greeting")
	BindSea(&w, mod)

	val := newIntVar(42)
	if err := SetWord(&w, Specified, val, false); err != nil {
		t.Fatalf("expected module SET to auto-create, got error: %v", err)
	}

	got, _, found := mod.Lookup("greeting", false)
	if !found {
		t.Fatal("expected greeting to now exist in the module context")
	}
	if got.Payload[0] != 42 {
		t.Fatalf("got %v, want 42", got.Payload[0])
	}
}

func TestSetWordStillFailsForNonModuleUnboundTarget(t *testing.T) {
	obj := NewContext(KindObject)

	var w cell.Cell
	MakeWord(&w, cell.KindSetWord, "missing")
	BindSea(&w, obj)

	if err := SetWord(&w, Specified, newIntVar(1), false); err == nil {
		t.Fatal("expected non-module context to still raise an unbound error")
	}
}
