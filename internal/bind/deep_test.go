package bind

import (
	"testing"

	"rebcore/internal/array"
	"rebcore/internal/cell"
)

func TestBindDeepBindsWordsAtEveryNestingLevel(t *testing.T) {
	ctx := NewContext(KindModule)
	ctx.AppendKey("x", newIntVar(10))

	inner := array.New(1)
	var innerWord cell.Cell
	MakeWord(&innerWord, cell.KindWord, "x")
	inner.Append(&innerWord)

	var block cell.Cell
	block.Reset(cell.KindBlock)
	block.Payload[0] = inner

	outer := array.New(2)
	var outerWord cell.Cell
	MakeWord(&outerWord, cell.KindWord, "x")
	outer.Append(&outerWord)
	outer.Append(&block)

	BindDeep(outer, ctx)

	if !IsBound(&outerWord) {
		t.Fatal("expected top-level word to be bound")
	}
	if !IsBound(&innerWord) {
		t.Fatal("expected word nested in a block to be bound")
	}

	v, err := Lookup(&innerWord, Specified, false)
	if err != nil || v.Payload[0] != 10 {
		t.Fatalf("expected nested word to resolve to 10, got %v, %v", v, err)
	}
}

func TestBindDeepLeavesAlreadyBoundWordsAlone(t *testing.T) {
	ctxA := NewContext(KindModule)
	ctxA.AppendKey("x", newIntVar(1))
	ctxB := NewContext(KindModule)
	ctxB.AppendKey("x", newIntVar(2))

	arr := array.New(1)
	var w cell.Cell
	MakeWord(&w, cell.KindWord, "x")
	BindSea(&w, ctxA)
	arr.Append(&w)

	BindDeep(arr, ctxB)

	v, err := Lookup(&w, Specified, false)
	if err != nil || v.Payload[0] != 1 {
		t.Fatalf("expected already-bound word to keep resolving against its original context, got %v, %v", v, err)
	}
}
