package series

import "testing"

func TestAppendGrowsAndPreservesOrder(t *testing.T) {
	s := Make(0, 8, 0)
	for i := 0; i < 100; i++ {
		if err := s.Append(i); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if s.Len() != 100 {
		t.Fatalf("len = %d, want 100", s.Len())
	}
	for i := 0; i < 100; i++ {
		if got := s.At(i); got != i {
			t.Fatalf("At(%d) = %v, want %d", i, got, i)
		}
	}
}

func TestHeadInsertionShiftsExistingElements(t *testing.T) {
	s := Make(8, 8, 0)
	for i := 0; i < 4; i++ {
		_ = s.Append(i)
	}
	if err := s.Expand(0, 1); err != nil {
		t.Fatalf("expand: %v", err)
	}
	if err := s.SetAt(0, -1); err != nil {
		t.Fatalf("set: %v", err)
	}
	want := []Element{-1, 0, 1, 2, 3}
	if s.Len() != len(want) {
		t.Fatalf("len = %d, want %d", s.Len(), len(want))
	}
	for i, w := range want {
		if s.At(i) != w {
			t.Fatalf("At(%d) = %v, want %v", i, s.At(i), w)
		}
	}
}

func TestFixedSizeRejectsExpand(t *testing.T) {
	s := Make(4, 8, FlagFixedSize)
	if err := s.Expand(0, 1); err == nil {
		t.Fatal("expected locked series error")
	}
}

func TestFrozenDeepImpliesFrozenShallow(t *testing.T) {
	s := Make(4, 8, 0)
	_ = s.Append(1)
	s.FreezeDeep()
	if !s.IsFrozen() {
		t.Fatal("expected frozen")
	}
	if s.Flags&FlagFrozenShallow == 0 {
		t.Fatal("FrozenDeep must imply FrozenShallow")
	}
	if err := s.SetAt(0, 2); err == nil {
		t.Fatal("expected write to frozen series to fail")
	}
}

func TestDecayMarksInaccessible(t *testing.T) {
	s := Make(4, 8, 0)
	_ = s.Append(1)
	s.Decay()
	if !s.Inaccessible() {
		t.Fatal("expected series to be inaccessible after decay")
	}
	if s.Len() != 0 {
		t.Fatal("decayed series should report zero length")
	}
}

func TestIndexPastEndFails(t *testing.T) {
	s := Make(4, 8, 0)
	if err := s.Expand(5, 1); err == nil {
		t.Fatal("expected past-end error")
	}
}

func TestInlineThenPromoteToDynamic(t *testing.T) {
	s := Make(0, 8, 0)
	_ = s.Append("a")
	_ = s.Append("b")
	if s.dynamic {
		t.Fatal("should still be inline at capacity")
	}
	_ = s.Append("c")
	if !s.dynamic {
		t.Fatal("expected promotion to dynamic storage past inline capacity")
	}
	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}
}
