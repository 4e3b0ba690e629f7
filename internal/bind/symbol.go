package bind

import (
	"sync"

	"golang.org/x/crypto/blake2b"
)

// Symbol is the canonical interned handle for a word's name. Word cells
// carry a *Symbol rather than a bare string so that two words spelled
// the same way compare equal by pointer. Keylists still hold plain
// strings, so Lookup's re-verification step compares the symbol's Name
// against the keylist entry as a string.
type Symbol struct {
	Name string
}

// symbolTable interns Symbols behind a keyed hash of the name rather
// than a plain map[string]*Symbol: a 16-byte blake2b-keyed digest
// picks the single bucket that is then scanned for an exact match, so
// interning stays cheap even for long symbol strings. The interning
// table is a shared resource mutated only at symbol-creation time;
// lookups never mutate it. One process-wide table backs every
// Interpreter; symbols, unlike contexts, are never per-interpreter.
type symbolTable struct {
	mu      sync.RWMutex
	key     [32]byte
	buckets map[[16]byte][]*Symbol
}

var symbols = newSymbolTable()

func newSymbolTable() *symbolTable {
	return &symbolTable{buckets: make(map[[16]byte][]*Symbol)}
}

func (t *symbolTable) digest(name string) [16]byte {
	h, _ := blake2b.New(16, t.key[:])
	h.Write([]byte(name))
	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Intern returns the canonical *Symbol for name, creating it on first
// use. A name that is already interned is found under the read lock;
// any name not yet in its bucket takes the write lock, which re-scans
// the bucket before appending, so finding an existing name never
// mutates the table.
func (t *symbolTable) Intern(name string) *Symbol {
	d := t.digest(name)

	t.mu.RLock()
	for _, s := range t.buckets[d] {
		if s.Name == name {
			t.mu.RUnlock()
			return s
		}
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.buckets[d] {
		if s.Name == name {
			return s
		}
	}
	s := &Symbol{Name: name}
	t.buckets[d] = append(t.buckets[d], s)
	return s
}

// Intern returns the canonical Symbol for name from the process-wide
// table.
func Intern(name string) *Symbol { return symbols.Intern(name) }
