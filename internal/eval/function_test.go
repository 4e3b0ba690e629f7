package eval

import (
	"testing"

	"rebcore/internal/action"
	"rebcore/internal/array"
	"rebcore/internal/bind"
	"rebcore/internal/cell"
	"rebcore/internal/trap"
)

func relativeWordCell(symbol string, kind cell.Kind, actionIdentity any) *cell.Cell {
	c := &cell.Cell{}
	bind.MakeWord(c, kind, symbol)
	bind.BindRelative(c, actionIdentity)
	return c
}

func TestFunctionBodyReturnsLastValue(t *testing.T) {
	pl := []*action.Param{{Symbol: "n", Class: action.ClassNormal}}
	a := NewFunctionShell(pl)

	body := array.New(1)
	_ = body.Append(relativeWordCell("n", cell.KindWord, a))
	AttachBody(a, body)

	ctx := bind.NewContext(bind.KindModule)
	ctx.AppendKey("double", actionValueCell(a, false))

	r := runBlock(wordCell("double", ctx), intCell(7))
	if r.IsAbrupt() {
		t.Fatalf("unexpected abrupt result: %+v", r)
	}
	if asInt(r.Value) != 7 {
		t.Fatalf("body evaluating to n should return 7, got %v", r.Value.Payload[0])
	}
}

func TestFunctionBodyDefinitionalReturnExitsEarly(t *testing.T) {
	pl := []*action.Param{{Symbol: "n", Class: action.ClassNormal}}
	a := NewFunctionShell(pl)

	body := array.New(3)
	_ = body.Append(relativeWordCell("return", cell.KindWord, a))
	_ = body.Append(relativeWordCell("n", cell.KindWord, a))
	_ = body.Append(intCellLiteral(999)) // never reached
	AttachBody(a, body)

	ctx := bind.NewContext(bind.KindModule)
	ctx.AppendKey("early", actionValueCell(a, false))

	r := runBlock(wordCell("early", ctx), intCell(5))
	if r.IsAbrupt() {
		t.Fatalf("unexpected abrupt result: %+v", r)
	}
	if asInt(r.Value) != 5 {
		t.Fatalf("return n should exit with 5, got %v", r.Value.Payload[0])
	}
}

func TestFunctionBodyReturnDoesNotEscapeOuterCaller(t *testing.T) {
	pl := []*action.Param{{Symbol: "n", Class: action.ClassNormal}}
	a := NewFunctionShell(pl)
	body := array.New(1)
	_ = body.Append(relativeWordCell("n", cell.KindWord, a))
	AttachBody(a, body)

	ctx := bind.NewContext(bind.KindModule)
	ctx.AppendKey("id", actionValueCell(a, false))

	r := runBlock(wordCell("id", ctx), intCell(3))
	if r.Kind != trap.KindValue {
		t.Fatalf("calling id should not leave any throw escaping to toplevel, got %+v", r)
	}
	if asInt(r.Value) != 3 {
		t.Fatalf("id 3 should evaluate to 3, got %v", r.Value.Payload[0])
	}
}

func intCellLiteral(n int) *cell.Cell { return intCell(n) }
