package api

import (
	"context"
	"testing"

	"rebcore/internal/cell"
)

func TestValueEvaluatesIntegerLiteral(t *testing.T) {
	in := Startup()
	defer in.Shutdown(true)

	v, err := in.Value("42")
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	n, err := UnboxInteger(v)
	if err != nil {
		t.Fatalf("UnboxInteger: %v", err)
	}
	if n != 42 {
		t.Fatalf("got %d, want 42", n)
	}
}

func TestValueSetWordPersistsAcrossCalls(t *testing.T) {
	in := Startup()
	defer in.Shutdown(true)

	if _, err := in.Value("x: 10"); err != nil {
		t.Fatalf("Value(set): %v", err)
	}
	v, err := in.Value("x")
	if err != nil {
		t.Fatalf("Value(read): %v", err)
	}
	n, err := UnboxInteger(v)
	if err != nil || n != 10 {
		t.Fatalf("got %v, %v, want 10", n, err)
	}
}

func TestValueExposesSystemObject(t *testing.T) {
	in := Startup()
	defer in.Shutdown(true)

	v, err := in.Value("system")
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v.Kind != cell.KindObject {
		t.Fatalf("expected system to evaluate to an object, got %+v", v)
	}
}

func TestValueUnboundWordRaisesError(t *testing.T) {
	in := Startup()
	defer in.Shutdown(true)

	if _, err := in.Value("nonexistent-word"); err == nil {
		t.Fatal("expected an error evaluating an unbound word")
	}
	if in.LastError() == nil {
		t.Fatal("expected LastError to be set after a raise")
	}
}

func TestElideDiscardsResultButReportsError(t *testing.T) {
	in := Startup()
	defer in.Shutdown(true)

	if err := in.Elide("y: 5"); err != nil {
		t.Fatalf("Elide: %v", err)
	}
	if err := in.Elide("still-unbound"); err == nil {
		t.Fatal("expected Elide to surface the raise")
	}
}

func TestUnboxIntegerRejectsNonInteger(t *testing.T) {
	if _, err := UnboxInteger(Text("hello")); err == nil {
		t.Fatal("expected error unboxing a non-integer cell")
	}
}

func TestTextWideDecodesSurrogatePair(t *testing.T) {
	// U+1F600 GRINNING FACE, encoded as a UTF-16 surrogate pair.
	units := []uint16{0xD83D, 0xDE00}
	c := TextWide(units)
	s, _ := c.Payload[0].(string)
	if s != "\U0001F600" {
		t.Fatalf("got %q", s)
	}
}

func TestHandleFiresCleanupOnRecycleOnceUnreachable(t *testing.T) {
	in := Startup()
	defer in.Shutdown(false)

	fired := false
	_ = in.Handle(nil, 0, func() { fired = true })
	in.GC.Recycle()
	if !fired {
		t.Fatal("expected handle cleanup to fire once nothing references the handle")
	}
}

func TestRunScriptsEvaluatesEachIndependently(t *testing.T) {
	results, err := RunScripts(context.Background(), []string{"7", "99", "nonexistent-word"}, 2)
	if err != nil {
		t.Fatalf("RunScripts: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Err != nil || results[0].Molded != "7" {
		t.Fatalf("result 0: got %+v", results[0])
	}
	if results[1].Err != nil || results[1].Molded != "99" {
		t.Fatalf("result 1: got %+v", results[1])
	}
	if results[2].Err == nil {
		t.Fatal("expected result 2 to report an error for the unbound word")
	}
}
