// Package bind implements named variable storage: keyed Contexts
// (objects, frames, modules, errors, ports), the Word cell's binding
// resolution algorithm, and the virtual-binding specifier chain that
// lets relative (action-body) cells be resolved against the live
// invocation they belong to without copying the body per call.
package bind

import (
	"fmt"
	"sync"

	"rebcore/internal/cell"
)

// Kind distinguishes what role a Context plays.
type Kind int

const (
	KindObject Kind = iota
	KindModule
	KindFrame
	KindError
	KindPort
)

// Keylist is the shared symbol table backing one or more contexts. A copy
// is forced only when an append would diverge two contexts that share
// one (see Context.AppendKey).
type Keylist struct {
	mu       sync.Mutex
	Symbols  []string
	Hidden   []bool // HIDDEN|UNBINDABLE marker per slot, parallel to Symbols
	refcount int
}

// NewKeylist creates a fresh keylist with refcount 1.
func NewKeylist() *Keylist {
	return &Keylist{refcount: 1}
}

func (k *Keylist) retain() {
	k.mu.Lock()
	k.refcount++
	k.mu.Unlock()
}

func (k *Keylist) release() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.refcount--
	return k.refcount
}

func (k *Keylist) indexOf(symbol string) (int, bool) {
	for i, s := range k.Symbols {
		if s == symbol {
			return i, true
		}
	}
	return -1, false
}

// Context is an array-shaped keyed table. Slot 0 is the archetype
// (self-reference); slots 1..N are variables parallel to Keylist.
type Context struct {
	mu      sync.RWMutex
	Kind    Kind
	Keylist *Keylist
	Vars    []*cell.Cell // Vars[0] is the archetype slot

	// frame is the live call-frame backing this context while its
	// corresponding call is on the stack. It is not a GC root (the frame
	// owns the context while running); when the frame exits it nulls
	// this atomically with dropping, and the context becomes "expired".
	frame FrameRef
}

// FrameRef is the minimal surface a live call-frame exposes to the
// binding layer, implemented by eval.Level. Kept as an interface here so
// this lower layer never imports the evaluator.
type FrameRef interface {
	// PhaseIdentity is the acting action identity for this invocation,
	// used to match a relative word's binding during lookup.
	PhaseIdentity() any
}

// NewContext creates a context with a fresh keylist and an archetype
// slot pointing at itself.
func NewContext(kind Kind) *Context {
	c := &Context{Kind: kind, Keylist: NewKeylist()}
	archetype := &cell.Cell{}
	archetype.Reset(contextArchetypeKind(kind))
	archetype.Payload[0] = c
	c.Vars = append(c.Vars, archetype)
	return c
}

func contextArchetypeKind(k Kind) cell.Kind {
	switch k {
	case KindFrame:
		return cell.KindFrame
	case KindModule:
		return cell.KindModule
	case KindError:
		return cell.KindError
	case KindPort:
		return cell.KindPort
	default:
		return cell.KindObject
	}
}

// BindFrame attaches a live call-frame to a FRAME context.
func (c *Context) BindFrame(f FrameRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = f
}

// DropFrame nulls the back-pointer atomically with the owning frame's
// exit. After this, the context is "expired": lookups of already-bound
// variables still work via Vars, but frame-relative features fail.
func (c *Context) DropFrame() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = nil
}

// Expired reports whether this FRAME context's call has already returned.
func (c *Context) Expired() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Kind == KindFrame && c.frame == nil
}

// Frame returns the live frame backing this context, if any.
func (c *Context) Frame() FrameRef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frame
}

// AppendKey appends a new key/var pair. If this context's keylist is
// shared (refcount > 1) and diverging it would affect siblings, the
// keylist is copied first.
func (c *Context) AppendKey(symbol string, v *cell.Cell) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Keylist.refcount > 1 {
		fresh := &Keylist{refcount: 1}
		fresh.Symbols = append(fresh.Symbols, c.Keylist.Symbols...)
		fresh.Hidden = append(fresh.Hidden, c.Keylist.Hidden...)
		c.Keylist.release()
		c.Keylist = fresh
	}

	c.Keylist.Symbols = append(c.Keylist.Symbols, symbol)
	c.Keylist.Hidden = append(c.Keylist.Hidden, false)
	c.Vars = append(c.Vars, v)
	return len(c.Keylist.Symbols) // 1-based primary index into Vars
}

// ShareKeylist returns a new context sharing this one's keylist (bumping
// its refcount), used by specialization/exemplar construction where a
// new varlist the same shape as an action's facade is needed.
func (c *Context) ShareKeylist(kind Kind) *Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.Keylist.retain()
	n := &Context{Kind: kind, Keylist: c.Keylist}
	n.Vars = make([]*cell.Cell, len(c.Vars))
	archetype := &cell.Cell{}
	archetype.Reset(contextArchetypeKind(kind))
	archetype.Payload[0] = n
	n.Vars[0] = archetype
	for i := 1; i < len(c.Vars); i++ {
		n.Vars[i] = &cell.Cell{}
		n.Vars[i].Reset(cell.KindBlank)
	}
	return n
}

// Lookup finds a variable by symbol, optionally case-insensitively.
func (c *Context) Lookup(symbol string, caseInsensitive bool) (*cell.Cell, int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, s := range c.Keylist.Symbols {
		if s == symbol || (caseInsensitive && equalFold(s, symbol)) {
			return c.Vars[i+1], i + 1, true
		}
	}
	return nil, -1, false
}

// VarAt returns the variable at a 1-based primary index, verifying the
// keylist symbol there still matches the expected symbol (a facade may
// have hidden or reordered slots since the index was cached).
func (c *Context) VarAt(index int, expectSymbol string) (*cell.Cell, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 1 || index > len(c.Keylist.Symbols) {
		return nil, fmt.Errorf("word index %d beyond keylist length %d", index, len(c.Keylist.Symbols))
	}
	if c.Keylist.Symbols[index-1] != expectSymbol {
		return nil, fmt.Errorf("stale cached index: keylist slot %d holds %q, expected %q",
			index, c.Keylist.Symbols[index-1], expectSymbol)
	}
	return c.Vars[index], nil
}

// SetProtected marks a variable protected against writes.
func SetProtected(v *cell.Cell) { v.Flags |= cell.FlagProtected }

// CheckWritable returns an error if v is protected.
func CheckWritable(v *cell.Cell) error {
	if v.Flags&cell.FlagProtected != 0 {
		return fmt.Errorf("protected variable: cannot write")
	}
	return nil
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
