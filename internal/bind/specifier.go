package bind

// SpecifierKind distinguishes the four shapes a specifier link can take.
type SpecifierKind int

const (
	SpecifierNone    SpecifierKind = iota // SPECIFIED: nothing to overlay
	SpecifierFrame                        // a live frame, matched by phase identity
	SpecifierVarlist                      // a plain context overlay (object/module)
	SpecifierPatch                        // a LET-introduced single-name patch
)

// Specifier is a cons-list of binding overlays, innermost first. A
// relative word's binding (an action identity) is resolved by walking
// the chain for a Frame link whose PhaseIdentity matches.
type Specifier struct {
	Kind SpecifierKind
	Next *Specifier

	Frame FrameRef // SpecifierFrame
	Ctx   *Context // SpecifierVarlist, or the single-entry context for a Patch

	// Patch fields, mirroring the {next_specifier, let_series, reuse_count}
	// tuple LET statements splice onto the current feed's specifier.
	PatchSymbol string
	PatchVar    *Context // holds exactly one bound variable
	ReuseCount  int
}

// Specified is the empty specifier: nothing to overlay.
var Specified = &Specifier{Kind: SpecifierNone}

// PushFrame conses a frame link onto specifier, used on action entry so
// relative words bound to this invocation's phase identity resolve here.
func PushFrame(specifier *Specifier, f FrameRef) *Specifier {
	return &Specifier{Kind: SpecifierFrame, Frame: f, Next: specifier}
}

// PushVarlist conses a plain context overlay onto specifier, used by
// FOR-each-style loops that virtual-bind a loop variable for the
// duration of the loop body.
func PushVarlist(specifier *Specifier, ctx *Context) *Specifier {
	return &Specifier{Kind: SpecifierVarlist, Ctx: ctx, Next: specifier}
}

// PushLetPatch splices a fresh single-name patch onto specifier, as LET
// does onto the current feed's specifier chain.
func PushLetPatch(specifier *Specifier, symbol string, v *Context) *Specifier {
	return &Specifier{Kind: SpecifierPatch, PatchSymbol: symbol, PatchVar: v, Next: specifier}
}

// ResolveRelative walks the specifier chain looking for a frame whose
// phase identity matches actionIdentity, returning the varlist context
// it should be looked up in.
func ResolveRelative(specifier *Specifier, actionIdentity any) (*Context, bool) {
	for s := specifier; s != nil; s = s.Next {
		switch s.Kind {
		case SpecifierFrame:
			if s.Frame != nil && s.Frame.PhaseIdentity() == actionIdentity {
				if ctxProvider, ok := s.Frame.(VarlistProvider); ok {
					return ctxProvider.Varlist(), true
				}
			}
		}
	}
	return nil, false
}

// VarlistProvider is implemented by FrameRef values (eval.Level) that can
// hand back the Context backing their varlist.
type VarlistProvider interface {
	Varlist() *Context
}

// LookupInChain searches the overlay chain's virtual bindings (patches
// and varlist overlays) for symbol, before falling through to whatever
// the caller otherwise resolves. Returns the patch's single-variable
// context, or the overlay context itself, on a hit.
func LookupInChain(specifier *Specifier, symbol string, caseInsensitive bool) (*Context, bool) {
	for s := specifier; s != nil; s = s.Next {
		switch s.Kind {
		case SpecifierPatch:
			if s.PatchSymbol == symbol || (caseInsensitive && equalFold(s.PatchSymbol, symbol)) {
				return s.PatchVar, true
			}
		case SpecifierVarlist:
			if _, _, found := s.Ctx.Lookup(symbol, caseInsensitive); found {
				return s.Ctx, true
			}
		}
	}
	return nil, false
}

// Resolve implements cell.Specifier for the relative-word Derelativize
// path: it resolves an action identity to the live varlist it is
// currently running against.
func (s *Specifier) Resolve(relativeBinding any) (any, bool) {
	ctx, ok := ResolveRelative(s, relativeBinding)
	if !ok {
		return nil, false
	}
	return WordBinding{class: bindingVarlist, ctx: ctx}, true
}
