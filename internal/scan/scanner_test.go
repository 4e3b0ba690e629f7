package scan

import "testing"

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestScansWordSetWordGetWordLitWordRefinement(t *testing.T) {
	toks, err := New("foo bar: :baz 'qux /ref").Tokens()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Kind{TokWord, TokSetWord, TokGetWord, TokLitWord, TokRefinement, TokEnd}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestScansIntegersAndDecimals(t *testing.T) {
	toks, err := New("42 -7 3.14 10%").Tokens()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != TokInteger || toks[0].Text != "42" {
		t.Fatalf("expected integer 42, got %+v", toks[0])
	}
	if toks[1].Kind != TokInteger || toks[1].Text != "-7" {
		t.Fatalf("expected integer -7, got %+v", toks[1])
	}
	if toks[2].Kind != TokDecimal || toks[2].Text != "3.14" {
		t.Fatalf("expected decimal 3.14, got %+v", toks[2])
	}
	if toks[3].Kind != TokDecimal || toks[3].Text != "10" {
		t.Fatalf("expected percent folded to decimal 10, got %+v", toks[3])
	}
}

func TestScansStringWithEscapes(t *testing.T) {
	toks, err := New(`"hello\nworld"`).Tokens()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != TokString || toks[0].Text != "hello\nworld" {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestScansBlockAndGroupDelimiters(t *testing.T) {
	toks, err := New("[1 (2)]").Tokens()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Kind{TokBlockOpen, TokInteger, TokGroupOpen, TokInteger, TokGroupClose, TokBlockClose, TokEnd}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPathTokensAreAdjacentWithNoGap(t *testing.T) {
	toks, err := New("foo/bar/baz").Tokens()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != TokWord || toks[1].Kind != TokRefinement || toks[2].Kind != TokRefinement {
		t.Fatalf("unexpected token kinds: %+v", toks[:3])
	}
	if toks[0].End != toks[1].Start || toks[1].End != toks[2].Start {
		t.Fatalf("expected adjacent path segments to touch, got %+v", toks[:3])
	}
}

func TestSpacedWordsAreNotAdjacent(t *testing.T) {
	toks, err := New("foo bar").Tokens()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].End == toks[1].Start {
		t.Fatal("expected a space-separated gap between tokens")
	}
}

func TestCommentIsScannedToEndOfLine(t *testing.T) {
	toks, err := New("1 ; a comment\n2").Tokens()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[1].Kind != TokComment {
		t.Fatalf("expected comment token, got %+v", toks[1])
	}
	if toks[2].Kind != TokInteger || toks[2].Text != "2" {
		t.Fatalf("expected integer 2 after comment, got %+v", toks[2])
	}
}

func TestScansFileURLEmailAndTagAsRawLiterals(t *testing.T) {
	toks, err := New(`%file.txt http://example.com user@example.com <tag>`).Tokens()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 4; i++ {
		if toks[i].Kind != TokRawLiteral {
			t.Fatalf("token %d: expected raw literal, got %+v", i, toks[i])
		}
	}
}

func TestUnterminatedStringFails(t *testing.T) {
	if _, err := New(`"unterminated`).Tokens(); err == nil {
		t.Fatal("expected error for unterminated string")
	}
}
