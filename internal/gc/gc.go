// Package gc implements the mark-and-sweep collector that reconciles the
// runtime's notion of "managed" (GC-owned) series against what is still
// reachable from its roots: the data stack, the call-frame stack, the
// guarded-value stack, the manuals list, the thrown-argument slot, and
// the boot-time root object tree.
//
// The collector tracks reachability and drives the same protocol as a
// native mark-sweep allocator (register on promotion to managed, mark
// from roots, sweep the unreached), but final memory reclamation is left
// to the host Go runtime — this package's sweep phase unregisters dead
// series from the live set and invokes their finalizers, which is the
// portion of the protocol a hosted implementation can and must still
// enforce itself.
package gc

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"rebcore/internal/pool"
)

// Traceable is implemented by anything the collector can walk: cells,
// arrays, and the higher-level context/frame types satisfy it
// structurally, without gc needing to import their packages.
type Traceable interface {
	Trace(visit func(child any))
}

// RootProvider is called fresh at the start of every collection, so the
// collector always sees the current data stack, frame stack, and guard
// stack rather than a stale snapshot.
type RootProvider func() []any

// managedEntry pairs a registered object with its optional cleanup
// finalizer, used for "singular handle with cleanup" series.
type managedEntry struct {
	obj      Traceable
	cleanup  func()
	selfRef  any // identity self-reference check: cleanup fires only if selfRef == obj
}

// Collector is the GC. It is never invoked reentrantly; Disable/Enable
// form a nestable suppression counter, and a recycle requested while
// disabled is queued rather than dropped.
type Collector struct {
	mu sync.Mutex

	Allocator *pool.Allocator
	roots     []RootProvider
	managed   map[any]*managedEntry

	disabledCount int
	queued        bool

	marked map[any]bool

	stats Stats
}

// Stats summarizes the outcome of the most recent collection.
type Stats struct {
	Marked int
	Swept  int
	Live   int
}

// New creates a collector bound to an allocator for watermark queries.
func New(allocator *pool.Allocator) *Collector {
	return &Collector{
		Allocator: allocator,
		managed:   make(map[any]*managedEntry),
	}
}

// AddRoot registers a root provider; typical callers register one per
// concern (data stack, frame stack, guard stack, thrown slot, boot root).
func (c *Collector) AddRoot(p RootProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roots = append(c.roots, p)
}

// Manage promotes obj into the GC-owned set. A series created unmanaged
// (on a manuals list) becomes a GC root candidate only once it is
// inserted into any managed container and explicitly promoted here.
func (c *Collector) Manage(obj Traceable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.managed[obj] = &managedEntry{obj: obj}
}

// ManageWithCleanup promotes obj and registers a finalizer that fires on
// collection if and only if selfRef equals obj — the identity
// self-reference check that distinguishes a real owner handle from a
// copy that merely points at the same series.
func (c *Collector) ManageWithCleanup(obj Traceable, selfRef any, cleanup func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.managed[obj] = &managedEntry{obj: obj, cleanup: cleanup, selfRef: selfRef}
}

// Disable suppresses collection; nested calls must be matched by an
// equal number of Enable calls.
func (c *Collector) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabledCount++
}

// Enable reduces the suppression count by one. If it reaches zero and a
// recycle was queued while disabled, that queued recycle now runs.
func (c *Collector) Enable() {
	c.mu.Lock()
	runNow := false
	if c.disabledCount > 0 {
		c.disabledCount--
	}
	if c.disabledCount == 0 && c.queued {
		c.queued = false
		runNow = true
	}
	c.mu.Unlock()
	if runNow {
		c.Recycle()
	}
}

// Disabled reports whether collection is currently suppressed.
func (c *Collector) Disabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disabledCount > 0
}

// RequestRecycle signals that a collection should happen. If collection
// is currently disabled, the request is queued instead of running
// immediately.
func (c *Collector) RequestRecycle() {
	c.mu.Lock()
	if c.disabledCount > 0 {
		c.queued = true
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.Recycle()
}

// Recycle runs one mark-then-sweep pass. While collection is disabled it
// does not run: it marks a recycle as queued and returns the previous
// stats. It has no guard against being entered reentrantly.
func (c *Collector) Recycle() Stats {
	c.mu.Lock()
	if c.disabledCount > 0 {
		c.queued = true
		c.mu.Unlock()
		return c.stats
	}
	roots := append([]RootProvider(nil), c.roots...)
	managedSnapshot := make(map[any]*managedEntry, len(c.managed))
	for k, v := range c.managed {
		managedSnapshot[k] = v
	}
	c.mu.Unlock()

	marked := make(map[any]bool)
	var markMu sync.Mutex
	var visit func(v any)
	visit = func(v any) {
		if v == nil {
			return
		}
		// Some payload slots hold non-pointer, non-hashable structs
		// (e.g. a word's resolved binding record); those carry no
		// further reachable children worth tracking as a map key, so
		// failing to mark them is harmless and we skip rather than
		// panic on an unhashable type.
		defer func() { recover() }()

		markMu.Lock()
		if marked[v] {
			markMu.Unlock()
			return
		}
		marked[v] = true
		markMu.Unlock()
		if t, ok := v.(Traceable); ok {
			t.Trace(visit)
		}
	}

	for _, p := range roots {
		for _, r := range p() {
			visit(r)
		}
	}

	swept := c.sweepParallel(managedSnapshot, marked)

	c.mu.Lock()
	c.stats = Stats{Marked: len(marked), Swept: swept, Live: len(c.managed)}
	result := c.stats
	c.mu.Unlock()
	return result
}

// sweepParallel removes unreached entries from the managed set, firing
// finalizers for handles whose self-reference still holds. Segments of
// the snapshot are swept concurrently via an errgroup-bounded worker
// pool, mirroring the runtime's general worker-pool idiom for
// parallelizing otherwise-serial bulk work.
func (c *Collector) sweepParallel(snapshot map[any]*managedEntry, marked map[any]bool) int {
	type kv struct {
		key   any
		entry *managedEntry
	}
	all := make([]kv, 0, len(snapshot))
	for k, v := range snapshot {
		all = append(all, kv{k, v})
	}

	const workers = 4
	chunks := chunk(all, workers)

	var mu sync.Mutex
	dead := make([]any, 0)
	finalize := make([]*managedEntry, 0)

	var g errgroup.Group
	for _, ch := range chunks {
		ch := ch
		g.Go(func() error {
			var localDead []any
			var localFinal []*managedEntry
			for _, item := range ch {
				if marked[item.key] {
					continue
				}
				localDead = append(localDead, item.key)
				if item.entry.cleanup != nil && item.entry.selfRef == item.key {
					localFinal = append(localFinal, item.entry)
				}
			}
			mu.Lock()
			dead = append(dead, localDead...)
			finalize = append(finalize, localFinal...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	c.mu.Lock()
	for _, k := range dead {
		delete(c.managed, k)
	}
	c.mu.Unlock()

	for _, e := range finalize {
		e.cleanup()
	}
	return len(dead)
}

func chunk[T any](items []T, n int) [][]T {
	if n <= 0 || len(items) == 0 {
		return [][]T{items}
	}
	size := (len(items) + n - 1) / n
	if size == 0 {
		size = 1
	}
	var out [][]T
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end])
	}
	return out
}

// LastStats returns the outcome of the most recent Recycle call.
func (c *Collector) LastStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (s Stats) String() string {
	return fmt.Sprintf("gc: marked=%d swept=%d live=%d", s.Marked, s.Swept, s.Live)
}
