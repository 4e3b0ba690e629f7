// Package module is the module/import resolution layer: the KindModule
// context is named by the binding model but its loading mechanism needs
// one, so this package gives it one — a search path, a load cache keyed
// by name and version constraint, and a semver-checked version
// declaration convention. Grounded on internal/module.ModuleLoader's
// search-path list, name→cache map, find-then-load-then-cache shape,
// generalized from a fixed set of built-in modules each with its own
// hand-written export table to a uniform file-based loader producing a
// KindModule bind.Context per loaded module — this project has no
// bytecode Module/Exports struct to populate, only the context the
// evaluator already understands.
package module

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/mod/semver"

	"rebcore/internal/array"
	"rebcore/internal/bind"
	"rebcore/internal/cell"
	"rebcore/internal/eval"
	"rebcore/internal/load"
	"rebcore/internal/trap"
)

// Module is one loaded module: its declared version (empty if it
// declared none) and the bind.Context its top-level SET-WORDs landed in.
type Module struct {
	Name    string
	Version string
	Path    string
	Context *bind.Context
}

type cacheKey struct{ name, constraint string }

// Loader resolves module names against a search path, parses and
// evaluates each module body exactly once per (name, constraint) pair,
// and caches the result.
type Loader struct {
	mu          sync.RWMutex
	searchPaths []string
	cache       map[cacheKey]*Module
}

// NewLoader builds a loader with the default search order (current
// directory, then ./lib, then ./modules) plus any extra paths a host
// wants to add up front.
func NewLoader(extraSearchPaths ...string) *Loader {
	paths := append([]string{".", "./lib", "./modules"}, extraSearchPaths...)
	return &Loader{searchPaths: paths, cache: make(map[cacheKey]*Module)}
}

// AddSearchPath appends a directory to the search order.
func (l *Loader) AddSearchPath(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.searchPaths = append(l.searchPaths, path)
}

// SearchPaths returns the current search order.
func (l *Loader) SearchPaths() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.searchPaths...)
}

// ClearCache discards every cached module, forcing the next Load of each
// name to re-read and re-evaluate its file.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[cacheKey]*Module)
}

// Load resolves name to a file, parses it, checks its declared version
// (if any) against constraint, evaluates its body into a fresh
// KindModule context, and caches the result under (name, constraint).
// An empty constraint accepts any declared version, including none.
func (l *Loader) Load(name, constraint string) (*Module, error) {
	key := cacheKey{name, constraint}

	l.mu.RLock()
	if m, ok := l.cache[key]; ok {
		l.mu.RUnlock()
		return m, nil
	}
	l.mu.RUnlock()

	path, err := l.findModule(name)
	if err != nil {
		return nil, err
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("module: read %s: %w", name, err)
	}

	arr, err := load.Load(string(src))
	if err != nil {
		return nil, fmt.Errorf("module: parse %s: %w", name, err)
	}

	version := extractVersion(arr)
	if err := checkConstraint(name, version, constraint); err != nil {
		return nil, err
	}

	ctx := bind.NewContext(bind.KindModule)
	bind.BindDeep(arr, ctx)

	lvl := eval.NewToplevel(eval.NewFeed(arr, nil))
	if r := eval.Run(lvl); r.IsAbrupt() {
		return nil, fmt.Errorf("module: %s: %s", name, abruptMessage(r))
	}

	m := &Module{Name: name, Version: version, Path: path, Context: ctx}

	l.mu.Lock()
	l.cache[key] = m
	l.mu.Unlock()

	return m, nil
}

func abruptMessage(r trap.Result) string {
	if r.Kind == trap.KindRaise {
		return r.Err.Error()
	}
	return fmt.Sprintf("uncaught throw of label %q", r.Thrown.Label)
}

func (l *Loader) findModule(name string) (string, error) {
	if strings.HasSuffix(name, ".reb") {
		if fileExists(name) {
			return name, nil
		}
		return "", fmt.Errorf("module: file not found: %s", name)
	}

	for _, dir := range l.SearchPaths() {
		if candidate := filepath.Join(dir, name+".reb"); fileExists(candidate) {
			return candidate, nil
		}
		if candidate := filepath.Join(dir, name, "index.reb"); fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("module: not found: %s", name)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// extractVersion reads a leading `version: <tuple-or-word>` declaration
// off the front of a module body, the convention this loader uses in
// place of the original source's separate header block. Returns "" if
// the module declares no version.
func extractVersion(arr *array.Array) string {
	if arr.Len() < 2 {
		return ""
	}
	head := arr.At(0)
	if head.Kind != cell.KindSetWord || bind.Symbol(head) != "version" {
		return ""
	}

	valArr := array.New(1)
	if err := valArr.Append(arr.At(1)); err != nil {
		return ""
	}
	text := strings.TrimSpace(load.Mold(valArr))
	if text == "" {
		return ""
	}
	return "v" + text
}

// checkConstraint compares a module's declared version against an
// import's requested constraint using golang.org/x/mod/semver. A "^"
// prefix means "same major version, at least this one"; anything else
// must match exactly. An empty constraint always passes.
func checkConstraint(name, version, constraint string) error {
	if constraint == "" {
		return nil
	}
	if version == "" {
		return fmt.Errorf("module: %s: import requires version %s but module declares none", name, constraint)
	}
	if !semver.IsValid(version) {
		return fmt.Errorf("module: %s: declared version %q is not valid semver", name, strings.TrimPrefix(version, "v"))
	}

	caret := strings.HasPrefix(constraint, "^")
	want := constraint
	if caret {
		want = strings.TrimPrefix(want, "^")
	}
	if !strings.HasPrefix(want, "v") {
		want = "v" + want
	}
	if !semver.IsValid(want) {
		return fmt.Errorf("module: %s: constraint %q is not valid semver", name, constraint)
	}

	if caret {
		if semver.Major(version) == semver.Major(want) && semver.Compare(version, want) >= 0 {
			return nil
		}
		return fmt.Errorf("module: %s: version %s does not satisfy ^%s", name, strings.TrimPrefix(version, "v"), strings.TrimPrefix(want, "v"))
	}
	if semver.Compare(version, want) == 0 {
		return nil
	}
	return fmt.Errorf("module: %s: version %s does not satisfy exact constraint %s", name, strings.TrimPrefix(version, "v"), strings.TrimPrefix(want, "v"))
}
