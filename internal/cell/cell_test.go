package cell

import "testing"

func TestResetDeclaresKindAndNodeCellFlags(t *testing.T) {
	var c Cell
	c.Reset(KindInteger)
	if !c.IsNode() || !c.IsCell() {
		t.Fatal("Reset must set both Node and Cell flags")
	}
	if c.IsEnd() {
		t.Fatal("a reset cell is not an end marker")
	}
	if c.Quote != 1 {
		t.Fatalf("Quote = %d, want 1 (plain)", c.Quote)
	}
}

func TestResetEndHasNodeButNotCellBit(t *testing.T) {
	var c Cell
	c.ResetEnd()
	if !c.IsEnd() || !c.IsNode() {
		t.Fatal("end marker must carry Node and End bits")
	}
	if c.IsCell() {
		t.Fatal("end marker must not carry the Cell bit (writes forbidden)")
	}
}

func TestQuoteZeroOnlyOnIsotopeKinds(t *testing.T) {
	var c Cell
	c.Reset(KindInteger)
	c.Quote = 0
	if err := c.ValidateQuoteZero(); err == nil {
		t.Fatal("integer should not admit an isotope form")
	}

	c.Reset(KindLogic)
	c.Quote = 0
	if err := c.ValidateQuoteZero(); err != nil {
		t.Fatalf("logic should admit an isotope form: %v", err)
	}
}

func TestUnstableIsotopesRejectedFromValueSlot(t *testing.T) {
	var nihil Cell
	nihil.Reset(KindNihil)
	nihil.Quote = 0
	if nihil.IsStableValue() {
		t.Fatal("nihil isotope must not be a stable value")
	}

	var dst Cell
	Decay(&dst, &nihil)
	if dst.Kind != KindBlank {
		t.Fatalf("nihil decays to blank, got %s", dst.Kind)
	}
}

func TestPackDecaysToFirstElement(t *testing.T) {
	var inner Cell
	inner.Reset(KindInteger)
	inner.Payload[0] = 42

	var pack Cell
	pack.Reset(KindPack)
	pack.Quote = 0
	pack.Payload[0] = &inner

	var dst Cell
	Decay(&dst, &pack)
	if dst.Kind != KindInteger || dst.Payload[0] != 42 {
		t.Fatalf("expected decayed pack to equal inner integer, got %+v", dst)
	}
}

func TestMoveCellLeavesSourceDetectablyMovedFrom(t *testing.T) {
	var src, dst Cell
	src.Reset(KindInteger)
	src.Payload[0] = 7

	MoveCell(&dst, &src)
	if dst.Payload[0] != 7 {
		t.Fatal("destination should carry moved value")
	}
	if src.Kind != KindFree || src.Flags != 0 {
		t.Fatal("source should be reset to a detectable moved-from state")
	}
}

type fakeSpecifier struct{ target any }

func (f fakeSpecifier) Resolve(rel any) (any, bool) {
	if rel == "unbound" {
		return nil, false
	}
	return f.target, true
}

func TestDerelativizeResolvesThroughSpecifier(t *testing.T) {
	var rel Cell
	rel.Reset(KindWord)
	rel.Extra = "action-identity-123"

	var dst Cell
	Derelativize(&dst, &rel, fakeSpecifier{target: "varlist-abc"})
	if dst.Extra != "varlist-abc" {
		t.Fatalf("Extra = %v, want resolved varlist", dst.Extra)
	}
}

func TestDerelativizeLeavesInertKindsAlone(t *testing.T) {
	var rel Cell
	rel.Reset(KindInteger)
	rel.Payload[0] = 5

	var dst Cell
	Derelativize(&dst, &rel, fakeSpecifier{target: "varlist-abc"})
	if dst.Payload[0] != 5 {
		t.Fatal("inert cells must pass through Derelativize unchanged")
	}
}

func TestElementExcludesFunctionIsotope(t *testing.T) {
	var c Cell
	c.Reset(KindAction)
	c.Quote = 0
	if c.IsElement() {
		t.Fatal("an activated (isotope) action must not be an Element")
	}
}
