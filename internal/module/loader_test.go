package module

import (
	"os"
	"path/filepath"
	"testing"

	"rebcore/internal/cell"
)

func writeModule(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".reb"), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFindsModuleOnSearchPathAndBindsExports(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "greet", "answer: 42")

	l := NewLoader(dir)
	m, err := l.Load("greet", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	v, _, found := m.Context.Lookup("answer", false)
	if !found {
		t.Fatal("expected module context to contain 'answer'")
	}
	if v.Kind != cell.KindInteger || v.Payload[0] != 42 {
		t.Fatalf("got %+v", v)
	}
}

func TestLoadCachesByNameAndConstraint(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "counter", "n: 1")

	l := NewLoader(dir)
	first, err := l.Load("counter", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := l.Load("counter", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first != second {
		t.Fatal("expected the second Load to return the cached Module")
	}
}

func TestLoadEnforcesExactVersionConstraint(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "versioned", "version: 1.2.0\nanswer: 1")

	l := NewLoader(dir)
	if _, err := l.Load("versioned", "1.2.0"); err != nil {
		t.Fatalf("expected matching exact constraint to succeed, got %v", err)
	}
	l.ClearCache()
	if _, err := l.Load("versioned", "1.3.0"); err == nil {
		t.Fatal("expected mismatched exact constraint to fail")
	}
}

func TestLoadEnforcesCaretVersionConstraint(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "caretmod", "version: 1.5.0\nanswer: 1")

	l := NewLoader(dir)
	if _, err := l.Load("caretmod", "^1.0.0"); err != nil {
		t.Fatalf("expected ^1.0.0 to accept 1.5.0, got %v", err)
	}
	l.ClearCache()
	if _, err := l.Load("caretmod", "^2.0.0"); err == nil {
		t.Fatal("expected ^2.0.0 to reject a major-version-1 module")
	}
}

func TestLoadRejectsConstraintOnUnversionedModule(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "plain", "answer: 1")

	l := NewLoader(dir)
	if _, err := l.Load("plain", "1.0.0"); err == nil {
		t.Fatal("expected a version constraint on an unversioned module to fail")
	}
}

func TestLoadMissingModuleReturnsError(t *testing.T) {
	l := NewLoader(t.TempDir())
	if _, err := l.Load("does-not-exist", ""); err == nil {
		t.Fatal("expected an error for a module not on the search path")
	}
}
