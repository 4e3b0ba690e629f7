package catalog

import (
	"rebcore/internal/bind"
	"rebcore/internal/cell"
	"rebcore/internal/trap"
)

// SecurityPolicy is the small subset of the original source's security
// levels this project carries: per-facility allow/ask/deny for
// file/network/eval operations that could affect the host. The system
// object exports it as flags; no device backend consults it before
// performing an operation.
type SecurityPolicy struct {
	Files   Permission
	Network Permission
	Eval    Permission
}

// Permission is one security facility's allowed level.
type Permission int

const (
	PermissionAllow Permission = iota
	PermissionAsk
	PermissionDeny
)

// DefaultPolicy matches the original source's boot default: everything
// is allowed unless a host explicitly locks it down, since embedding
// callers opt into sandboxing rather than receiving it automatically.
var DefaultPolicy = SecurityPolicy{
	Files:   PermissionAllow,
	Network: PermissionAllow,
	Eval:    PermissionAllow,
}

// System is the boot-time root object: a single place an embedding host
// or running script reaches the typeset/error catalogs and the active
// security policy from, the way a package registry is the one place
// command names are looked up.
type System struct {
	Policy   SecurityPolicy
	Typesets map[string]TypeSet
	Errors   map[trap.ErrorCategory]categoryTable
}

// NewSystem builds a fresh System carrying the default security policy
// and the package-level Typesets/Errors catalogs.
func NewSystem() *System {
	return &System{
		Policy:   DefaultPolicy,
		Typesets: Typesets,
		Errors:   Errors,
	}
}

// Allows reports whether policy permits a facility outright (PermissionAsk
// is the caller's responsibility to prompt on; this only distinguishes
// "definitely fine" from "needs a decision").
func (p Permission) Allows() bool { return p == PermissionAllow }

// RootObject materializes the System as a KindObject bind.Context, the
// shape a running script sees when it evaluates the word `system` —
// fields are: 'policy-files, 'policy-network, 'policy-eval (logic: true
// when PermissionAllow, false otherwise, a simplification of the
// three-state Permission into a script-visible boolean gate).
func (s *System) RootObject() *bind.Context {
	ctx := bind.NewContext(bind.KindObject)
	ctx.AppendKey("policy-files", logicCell(s.Policy.Files.Allows()))
	ctx.AppendKey("policy-network", logicCell(s.Policy.Network.Allows()))
	ctx.AppendKey("policy-eval", logicCell(s.Policy.Eval.Allows()))
	return ctx
}

func logicCell(v bool) *cell.Cell {
	c := &cell.Cell{}
	c.Reset(cell.KindLogic)
	c.Payload[0] = v
	return c
}
