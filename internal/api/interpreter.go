// Package api is the embedding surface: a small C-callable-shaped API
// (startup/shutdown, formatted value construction, unboxing, release,
// handles, text conversion, and raise) plus the multi-interpreter pool
// that supports multiple independent interpreters per process on top of
// internal/concurrency. Grounded on the host shim's own top-level wiring
// (reading a single "runtime" struct that owns its own allocator/
// collector/contexts per invocation), generalized to support many such
// runtimes concurrently.
package api

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"rebcore/internal/bind"
	"rebcore/internal/catalog"
	"rebcore/internal/cell"
	"rebcore/internal/device"
	"rebcore/internal/eval"
	"rebcore/internal/gc"
	"rebcore/internal/hostio"
	"rebcore/internal/load"
	"rebcore/internal/module"
	"rebcore/internal/natives"
	"rebcore/internal/pool"
	"rebcore/internal/trap"
)

var sessionLog = hostio.Default.Named("api")

// defaultWatermark is the live-byte threshold at which the allocator asks
// for a recycle; chosen generously since this project runs under the host
// Go runtime's own memory management rather than a hard process limit.
const defaultWatermark = 64 << 20

// Interpreter is one independent evaluation context: its own allocator,
// collector, boot-time system object, and top-level module context.
// Nothing here is safe to share across goroutines — RunScripts in
// pool.go starts one Interpreter per script precisely because running several scripts concurrently means running
// several Interpreters, never one from multiple goroutines at once.
type Interpreter struct {
	ID        uuid.UUID
	Allocator *pool.Allocator
	GC        *gc.Collector
	System    *catalog.System
	Root      *bind.Context // the boot-time "system" object
	User      *bind.Context // the top-level module script code binds into
	Devices   *device.Registry
	Modules   *module.Loader

	lastError *trap.RaisedError
}

// Startup is the embedding API's startup(): allocates a fresh Interpreter
// with its GC roots wired up and the `system` word bound in its user
// context, matching the boot-time catalog description. Kept as a
// package-level constructor rather than a zero-value struct since a live
// Interpreter always needs its roots registered before any value is
// evaluated.
func Startup() *Interpreter {
	in := &Interpreter{
		ID:        uuid.New(),
		Allocator: pool.NewAllocator(defaultWatermark),
		System:    catalog.NewSystem(),
	}
	in.GC = gc.New(in.Allocator)
	in.Root = in.System.RootObject()
	in.User = bind.NewContext(bind.KindModule)
	in.User.AppendKey("system", in.Root.Vars[0])
	in.Devices = device.NewRegistry()
	in.Modules = module.NewLoader()
	natives.Register(in.User, os.Stdout, in.Devices, in.Modules)

	in.GC.AddRoot(func() []any {
		roots := make([]any, 0, len(in.User.Vars)+len(in.Root.Vars))
		for _, v := range in.User.Vars {
			roots = append(roots, v)
		}
		for _, v := range in.Root.Vars {
			roots = append(roots, v)
		}
		return roots
	})
	sessionLog.Printf("%s: startup", in.ID)
	return in
}

// Shutdown is the embedding API's shutdown(clean). A clean shutdown runs
// one final recycle so any registered handle cleanups fire deterministically;
// an unclean shutdown (the host is aborting) skips it, mirroring the
// original source's distinction between an orderly and a crash exit.
func (in *Interpreter) Shutdown(clean bool) {
	if clean {
		stats := in.GC.Recycle()
		sessionLog.Printf("%s: %s", in.ID, hostio.RecycleReport(stats.Marked, stats.Swept, stats.Live, in.Allocator.LiveBytes()))
	}
}

// Value is the embedding API's value(format, ...): loads and evaluates
// src as Rebol source against this interpreter's user context, returning
// the final value. A raised error is surfaced as a Go error (retained on
// the interpreter so a subsequent host call can still inspect it via
// LastError) rather than panicking, matching trap's "never catch what you
// don't understand" propagation policy at the one boundary that must
// convert an abrupt Result into something a host function can return.
func (in *Interpreter) Value(src string) (*cell.Cell, error) {
	arr, err := load.Load(src)
	if err != nil {
		return nil, fmt.Errorf("api: load: %w", err)
	}
	bind.BindDeep(arr, in.User)
	in.GC.Manage(arr)

	lvl := eval.NewToplevel(eval.NewFeed(arr, nil))
	r := eval.Run(lvl)
	return in.finish(r)
}

// Elide is the embedding API's elide(format, ...): evaluates src purely
// for side effect, discarding the result value but still surfacing an
// error.
func (in *Interpreter) Elide(src string) error {
	_, err := in.Value(src)
	return err
}

func (in *Interpreter) finish(r trap.Result) (*cell.Cell, error) {
	switch r.Kind {
	case trap.KindRaise:
		in.lastError = r.Err
		return nil, r.Err
	case trap.KindThrow:
		return nil, fmt.Errorf("api: uncaught throw of label %q", r.Thrown.Label)
	default:
		in.lastError = nil
		return r.Value, nil
	}
}

// LastError returns the RaisedError from the most recent Value/Elide
// call that raised one, or nil.
func (in *Interpreter) LastError() *trap.RaisedError { return in.lastError }

// UnboxInteger is the embedding API's unbox_integer(v): extracts a plain
// Go int from an INTEGER! cell, failing on any other kind rather than
// coercing, since the embedding surface is meant to be used by a host
// that already knows the shape of the value it asked for.
func UnboxInteger(v *cell.Cell) (int, error) {
	if v == nil || v.Kind != cell.KindInteger {
		return 0, fmt.Errorf("api: unbox_integer: not an integer value")
	}
	n, _ := v.Payload[0].(int)
	return n, nil
}

// Release is the embedding API's release(v). Values here are reclaimed
// by the interpreter's own tracing collector rather than host-side
// reference counting, so Release is a documented no-op: it exists so
// host code written against the C API's ownership discipline still
// compiles and reads correctly against this implementation, but nothing
// needs to happen until the next GC.Recycle finds the value unreachable.
func Release(*cell.Cell) {}

// Handle is the embedding API's handle(ptr, size, cleaner): wraps an
// opaque host-owned value as a cell carrying size and a cleanup
// callback, invoked when the collector finds the handle unreachable.
func (in *Interpreter) Handle(ptr any, size int, cleaner func()) *cell.Cell {
	h := &cell.Cell{}
	h.Reset(cell.KindIssue) // no dedicated HANDLE! kind; carried as an opaque issue-shaped cell, see DESIGN.md
	h.Extra = handlePayload{ptr: ptr, size: size}
	if cleaner != nil {
		owner := handleTraceable{h}
		in.GC.ManageWithCleanup(owner, owner, cleaner)
	}
	return h
}

type handlePayload struct {
	ptr  any
	size int
}

// handleTraceable adapts a handle cell's single-cell lifetime to
// gc.Traceable, since a handle holds no further cells of its own to walk.
type handleTraceable struct{ c *cell.Cell }

func (h handleTraceable) Trace(visit func(child any)) {}

// Text is the embedding API's text(utf8): builds a TEXT! cell from a
// UTF-8 Go string.
func Text(s string) *cell.Cell {
	c := &cell.Cell{}
	c.Reset(cell.KindText)
	c.Payload[0] = s
	return c
}

// TextWide is the embedding API's text_wide(utf16): builds a TEXT! cell
// from UTF-16 code units, re-encoding to the single internal string
// representation (this project has no separate wide-string storage form).
func TextWide(units []uint16) *cell.Cell {
	return Text(utf16ToString(units))
}

func utf16ToString(units []uint16) string {
	runes := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u >= 0xD800 && u <= 0xDBFF && i+1 < len(units) {
			u2 := units[i+1]
			if u2 >= 0xDC00 && u2 <= 0xDFFF {
				r := (rune(u-0xD800)<<10 | rune(u2-0xDC00)) + 0x10000
				runes = append(runes, r)
				i++
				continue
			}
		}
		runes = append(runes, rune(u))
	}
	return string(runes)
}

// Jumps is the embedding API's jumps(...): raises a script-category
// error, the host-callable equivalent of a script-level FAIL.
func Jumps(message string, args ...any) trap.Result {
	return trap.RaiseResult(trap.NewError(trap.CategoryScript, 0, "user", message, args...))
}
