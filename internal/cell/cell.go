// Package cell implements the fixed-width, tagged value slot that is the
// atomic unit of data in the runtime: every variable, array element, and
// evaluator register is a Cell. A Cell's meaning is the tuple (Kind,
// Quote, Extra, Payload, Flags); nothing about its size may vary, only
// the interpretation of the payload words changes with Kind.
package cell

import "fmt"

// Kind tags what a Cell holds. The zero value is reserved for the
// end-marker so a zero-initialized Cell slice segment reads as "end of
// sequence" without any further dispatch.
type Kind uint8

const (
	KindEnd Kind = iota // distinguished: readable as end-of-sequence from any context
	KindFree            // distinguished: the reserved free pattern, never a live cell

	KindBlank // none/unset placeholder
	KindLogic
	KindInteger
	KindDecimal
	KindText
	KindIssue

	KindWord
	KindSetWord
	KindGetWord
	KindLitWord
	KindRefinement

	KindBlock
	KindGroup
	KindPath
	KindTuple

	KindAction
	KindFrame
	KindObject
	KindModule
	KindError
	KindPort

	// Unstable isotopes: atom-only, must be decayed before reaching
	// storage (see Decay in this package).
	KindPack
	KindNihil
)

func (k Kind) String() string {
	switch k {
	case KindEnd:
		return "end"
	case KindFree:
		return "free"
	case KindBlank:
		return "blank"
	case KindLogic:
		return "logic"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindText:
		return "text"
	case KindIssue:
		return "issue"
	case KindWord:
		return "word"
	case KindSetWord:
		return "set-word"
	case KindGetWord:
		return "get-word"
	case KindLitWord:
		return "lit-word"
	case KindRefinement:
		return "refinement"
	case KindBlock:
		return "block"
	case KindGroup:
		return "group"
	case KindPath:
		return "path"
	case KindTuple:
		return "tuple"
	case KindAction:
		return "action"
	case KindFrame:
		return "frame"
	case KindObject:
		return "object"
	case KindModule:
		return "module"
	case KindError:
		return "error"
	case KindPort:
		return "port"
	case KindPack:
		return "pack"
	case KindNihil:
		return "nihil"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// isotopeOnly is the set of kinds that may legally carry quote-byte 0
// (an "isotope"/antiform). Most kinds may not: only Logic (true/false
// antiforms used for trash/void-adjacent signaling in boolean contexts),
// Word (activation antiforms), Action, Blank, and the two unstable kinds.
var isotopeOnly = map[Kind]bool{
	KindLogic:  true,
	KindWord:   true,
	KindAction: true,
	KindPack:   true,
	KindNihil:  true,
	KindBlank:  true,
}

// unstableKinds may only appear transiently in evaluator output slots,
// never in a Value that is written into a variable or array.
var unstableKinds = map[Kind]bool{
	KindPack:  true,
	KindNihil: true,
}

// Flag is the per-cell category bitset.
type Flag uint32

const (
	FlagNode Flag = 1 << iota
	FlagCell
	FlagEnd
	FlagFree
	FlagManaged
	FlagProtected
	FlagUnevaluated
	FlagEnfixed
	FlagStale
	FlagFirstIsNode
	FlagConst
	FlagExplicitlyMutable
	FlagMarked
)

// Cell is the four-machine-word value slot.
//
//   - Kind / Quote / Flags form the header.
//   - Extra carries a small scalar or a binding pointer.
//   - Payload carries either (node, index), two inline scalars, or two
//     node pointers, depending on Kind.
type Cell struct {
	Kind    Kind
	Quote   byte // 0 = isotope, 1 = plain, 2..n = n-1 levels of quoting
	Flags   Flag
	Extra   any
	Payload [2]any
}

// Reset declares a cell's new kind, as every writer must do before
// filling the payload. It clears stale category flags except the ones
// that make the cell a detectable pointer target (Node, Cell), which
// are always (re)asserted here.
func (c *Cell) Reset(kind Kind) {
	c.Kind = kind
	c.Quote = 1 // plain, unquoted, by default
	c.Flags = FlagNode | FlagCell
	c.Extra = nil
	c.Payload[0] = nil
	c.Payload[1] = nil
}

// ResetEnd writes the implicit-end marker pattern: end and node bits set,
// but not the cell bit, so writes through this slot are rejected by
// anything that checks IsCell first.
func (c *Cell) ResetEnd() {
	c.Kind = KindEnd
	c.Quote = 0
	c.Flags = FlagNode | FlagEnd
	c.Extra = nil
	c.Payload[0] = nil
	c.Payload[1] = nil
}

func (c *Cell) IsEnd() bool  { return c.Flags&FlagEnd != 0 }
func (c *Cell) IsNode() bool { return c.Flags&FlagNode != 0 }
func (c *Cell) IsCell() bool { return c.Flags&FlagCell != 0 }

// IsIsotope reports whether this cell is in its quote-byte-0 antiform
// state.
func (c *Cell) IsIsotope() bool { return c.Quote == 0 }

// ValidateQuoteZero enforces that only kinds which logically admit
// isotopes may carry quote-byte 0.
func (c *Cell) ValidateQuoteZero() error {
	if c.Quote != 0 {
		return nil
	}
	if !isotopeOnly[c.Kind] {
		return fmt.Errorf("kind %s does not admit an isotope form", c.Kind)
	}
	return nil
}

// IsUnstable reports whether this cell is one of the atom-only unstable
// isotopes (Pack, Nihil) that must never reach a variable or array slot.
func (c *Cell) IsUnstable() bool {
	return c.Quote == 0 && unstableKinds[c.Kind]
}

// IsStableValue reports whether c may legally appear in a variable or
// array (the "Value" stability class).
func (c *Cell) IsStableValue() bool {
	return !c.IsUnstable()
}

// IsElement reports whether c may legally appear inside an array: a
// stable value that is additionally not a function isotope (an enfixed
// or activated Action antiform).
func (c *Cell) IsElement() bool {
	if c.IsUnstable() {
		return false
	}
	if c.Kind == KindAction && c.Quote == 0 {
		return false
	}
	return true
}

// Decay converts an unstable atom into a storable value: a Pack's first
// element is extracted; a Nihil decays to Blank. Decay is a no-op for
// already-stable cells.
func Decay(dst, src *Cell) {
	if src.Quote != 0 || !unstableKinds[src.Kind] {
		CopyCell(dst, src)
		return
	}
	switch src.Kind {
	case KindNihil:
		dst.Reset(KindBlank)
	case KindPack:
		if first, ok := src.Payload[0].(*Cell); ok && first != nil {
			CopyCell(dst, first)
		} else {
			dst.Reset(KindBlank)
		}
	}
}

// CopyCell copies header, extra, and payload, preserving the source's
// stability class verbatim (no decay is performed; callers writing into
// a Value slot must Decay first if the source might be unstable).
func CopyCell(dst, src *Cell) {
	*dst = *src
}

// MoveCell transfers ownership from src to dst and leaves src in a
// detectable "moved-from" state (reset to KindFree with no flags), so a
// checker walking cells afterward can catch accidental reuse.
func MoveCell(dst, src *Cell) {
	*dst = *src
	src.Kind = KindFree
	src.Quote = 0
	src.Flags = 0
	src.Extra = nil
	src.Payload[0] = nil
	src.Payload[1] = nil
}

// Specifier resolves a relative binding (an action-identity token stored
// in a word's Extra) to the concrete binding that should replace it. The
// bind package supplies the concrete implementation; this package only
// needs the capability to convert a relative cell into a specific one.
type Specifier interface {
	Resolve(relativeBinding any) (specificBinding any, ok bool)
}

// Derelativize converts a relative cell into a specific cell by resolving
// its binding through the specifier chain. Non-relative cells (nil
// binding, or a binding that is not an action identity) are copied
// unchanged.
func Derelativize(dst, rel *Cell, specifier Specifier) {
	CopyCell(dst, rel)
	if rel.Kind != KindWord && rel.Kind != KindSetWord && rel.Kind != KindGetWord &&
		rel.Kind != KindLitWord && rel.Kind != KindRefinement {
		return
	}
	if rel.Extra == nil || specifier == nil {
		return
	}
	if specific, ok := specifier.Resolve(rel.Extra); ok {
		dst.Extra = specific
	}
}

// CloneTypes selects, by Kind, which cells Clonify recurses into versus
// aliases.
type CloneTypes map[Kind]bool

// Trace visits whatever this cell's payload/extra slots point at, so the
// collector can walk reachability without this package importing gc.
func (c *Cell) Trace(visit func(child any)) {
	visit(c.Extra)
	visit(c.Payload[0])
	visit(c.Payload[1])
}

// Clonify performs a recursive copy through arrays when a cell's Kind is
// selected by types; other kinds are aliased (shallow-copied, sharing
// the underlying node). arrayCloner is supplied by the array/series layer
// since this package has no notion of array contents.
func Clonify(dst, src *Cell, types CloneTypes, arrayCloner func(node any) any) {
	CopyCell(dst, src)
	if !types[src.Kind] {
		return
	}
	if dst.Payload[0] != nil && arrayCloner != nil {
		dst.Payload[0] = arrayCloner(dst.Payload[0])
	}
}
