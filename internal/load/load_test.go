package load

import (
	"testing"

	"github.com/kr/pretty"

	"rebcore/internal/array"
	"rebcore/internal/bind"
	"rebcore/internal/cell"
)

func TestLoadFlatIntegersAndWords(t *testing.T) {
	arr, err := Load("1 foo bar: 3.5")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if arr.Len() != 4 {
		t.Fatalf("expected 4 values, got %d", arr.Len())
	}
	if arr.At(0).Kind != cell.KindInteger || arr.At(0).Payload[0] != 1 {
		t.Fatalf("element 0: got %+v", arr.At(0))
	}
	if arr.At(1).Kind != cell.KindWord || bind.Symbol(arr.At(1)) != "foo" {
		t.Fatalf("element 1: got %+v", arr.At(1))
	}
	if arr.At(2).Kind != cell.KindSetWord || bind.Symbol(arr.At(2)) != "bar" {
		t.Fatalf("element 2: got %+v", arr.At(2))
	}
	if arr.At(3).Kind != cell.KindDecimal || arr.At(3).Payload[0] != 3.5 {
		t.Fatalf("element 3: got %+v", arr.At(3))
	}
}

func TestLoadNestedBlockAndGroup(t *testing.T) {
	arr, err := Load("[1 (2 3)]")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if arr.Len() != 1 {
		t.Fatalf("expected 1 top-level value, got %d", arr.Len())
	}
	block := arr.At(0)
	if block.Kind != cell.KindBlock {
		t.Fatalf("expected block, got %+v", block)
	}
	inner := block.Payload[0].(*array.Array)
	if inner.Len() != 2 {
		t.Fatalf("expected 2 values in block, got %d", inner.Len())
	}
	if inner.At(0).Kind != cell.KindInteger || inner.At(0).Payload[0] != 1 {
		t.Fatalf("block element 0: got %+v", inner.At(0))
	}
	group := inner.At(1)
	if group.Kind != cell.KindGroup {
		t.Fatalf("expected group, got %+v", group)
	}
	groupArr := group.Payload[0].(*array.Array)
	if groupArr.Len() != 2 {
		t.Fatalf("expected 2 values in group, got %d", groupArr.Len())
	}
}

func TestLoadPathFromAdjacentWordAndRefinements(t *testing.T) {
	arr, err := Load("foo/bar/baz")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if arr.Len() != 1 {
		t.Fatalf("expected 1 value, got %d", arr.Len())
	}
	p := arr.At(0)
	if p.Kind != cell.KindPath {
		t.Fatalf("expected path, got %+v", p)
	}
	segs := p.Payload[0].(*array.Array)
	if segs.Len() != 3 {
		t.Fatalf("expected 3 path segments, got %d", segs.Len())
	}
	if segs.At(0).Kind != cell.KindWord || bind.Symbol(segs.At(0)) != "foo" {
		t.Fatalf("segment 0: got %+v", segs.At(0))
	}
	if segs.At(1).Kind != cell.KindRefinement || bind.Symbol(segs.At(1)) != "bar" {
		t.Fatalf("segment 1: got %+v", segs.At(1))
	}
	if segs.At(2).Kind != cell.KindRefinement || bind.Symbol(segs.At(2)) != "baz" {
		t.Fatalf("segment 2: got %+v", segs.At(2))
	}
}

func TestLoadSeparatedWordAndRefinementAreNotAPath(t *testing.T) {
	arr, err := Load("foo /bar")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if arr.Len() != 2 {
		t.Fatalf("expected 2 standalone values, got %d", arr.Len())
	}
	if arr.At(0).Kind != cell.KindWord {
		t.Fatalf("element 0: got %+v", arr.At(0))
	}
	if arr.At(1).Kind != cell.KindRefinement {
		t.Fatalf("element 1: got %+v", arr.At(1))
	}
}

func TestLoadTupleFromDottedWord(t *testing.T) {
	arr, err := Load("a.b.c")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if arr.Len() != 1 {
		t.Fatalf("expected 1 value, got %d", arr.Len())
	}
	tup := arr.At(0)
	if tup.Kind != cell.KindTuple {
		t.Fatalf("expected tuple, got %+v", tup)
	}
	segs := tup.Payload[0].(*array.Array)
	if segs.Len() != 3 {
		t.Fatalf("expected 3 tuple segments, got %d", segs.Len())
	}
	want := []string{"a", "b", "c"}
	for i, w := range want {
		if bind.Symbol(segs.At(i)) != w {
			t.Fatalf("segment %d: got %q, want %q", i, bind.Symbol(segs.At(i)), w)
		}
	}
}

func TestLoadRawLiteralsPassThroughAsText(t *testing.T) {
	arr, err := Load(`%file.txt "a string" <tag>`)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if arr.Len() != 3 {
		t.Fatalf("expected 3 values, got %d", arr.Len())
	}
	for i := 0; i < 3; i++ {
		if arr.At(i).Kind != cell.KindText {
			t.Fatalf("element %d: expected text, got %+v", i, arr.At(i))
		}
	}
}

func TestLoadUnmatchedBlockCloseFails(t *testing.T) {
	if _, err := Load("1 2]"); err == nil {
		t.Fatal("expected error for unmatched closing bracket")
	}
}

func TestLoadUnterminatedBlockFails(t *testing.T) {
	if _, err := Load("[1 2"); err == nil {
		t.Fatal("expected error for unterminated block")
	}
}

func TestMoldRoundTripsSimpleValues(t *testing.T) {
	for _, src := range []string{
		"1 -7 3.14",
		"foo bar: :baz 'qux /ref",
		"[1 2 [3 4]]",
		"foo/bar/baz",
		"a.b.c",
		`"hello world"`,
	} {
		arr, err := Load(src)
		if err != nil {
			t.Fatalf("Load(%q): %v", src, err)
		}
		molded := Mold(arr)
		arr2, err := Load(molded)
		if err != nil {
			t.Fatalf("Load(Mold(%q)) = %q: %v", src, molded, err)
		}
		if remolded := Mold(arr2); remolded != molded {
			t.Fatalf("round trip unstable: %q -> %q -> %q\ndiff (first load vs reload):\n%s",
				src, molded, remolded, pretty.Diff(arr, arr2))
		}
	}
}

func TestMoldEscapesStringContent(t *testing.T) {
	arr, err := Load(`"a\nb"`)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	molded := Mold(arr)
	if molded != `"a\nb"` {
		t.Fatalf("got %q", molded)
	}
}
