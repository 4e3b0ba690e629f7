package catalog

import "rebcore/internal/trap"

// Template is one entry in the error catalog: a message pattern with up
// to three %v-style argument slots, named the way the original source's
// errors.r keys a (category, id) pair to a human-readable string.
type Template struct {
	ID      int
	Type    string
	Message string
}

// categoryTable is a category's own member list, mirroring the
// "error catalog of category objects" design — one Go map per category
// rather than one flat map, so New can report an unknown-category
// failure distinctly from an unknown-id-within-a-known-category failure.
type categoryTable map[int]Template

// Errors is the boot-time error catalog: one categoryTable per
// trap.ErrorCategory, matching the six standard error categories.
var Errors = map[trap.ErrorCategory]categoryTable{
	trap.CategoryMath: {
		0: {ID: 0, Type: "math", Message: "division by zero"},
		1: {ID: 1, Type: "math", Message: "math overflow in %v"},
		2: {ID: 2, Type: "math", Message: "cannot take %v of a negative number"},
	},
	trap.CategoryAccess: {
		0: {ID: 0, Type: "access", Message: "cannot access %v: permission denied"},
		1: {ID: 1, Type: "access", Message: "protected variable: cannot write %v"},
		2: {ID: 2, Type: "access", Message: "security policy rejected %v"},
	},
	trap.CategoryInternal: {
		0: {ID: 0, Type: "internal", Message: "user halt"},
		1: {ID: 1, Type: "internal", Message: "stack depth exceeded"},
		2: {ID: 2, Type: "internal", Message: "invariant violated: %v"},
	},
	trap.CategoryUser: {
		0: {ID: 0, Type: "user", Message: "%v"},
	},
	trap.CategoryScript: {
		0: {ID: 0, Type: "script", Message: "invalid argument: %v"},
		1: {ID: 1, Type: "script", Message: "expected %v but got %v"},
		2: {ID: 2, Type: "script", Message: "value out of range: %v"},
		3: {ID: 3, Type: "script", Message: "no value for unbound word: %v"},
		4: {ID: 4, Type: "script", Message: "no matching catch for thrown label %v"},
		5: {ID: 5, Type: "script", Message: "RETURN's frame is no longer live"},
	},
	trap.CategorySyntax: {
		0: {ID: 0, Type: "syntax", Message: "invalid token near %v"},
		1: {ID: 1, Type: "syntax", Message: "missing terminator for %v"},
		2: {ID: 2, Type: "syntax", Message: "unexpected end of input"},
	},
}

// New looks up (category, id) in the catalog and builds a RaisedError
// from its template, attaching up to three arguments the way
// trap.RaisedError carries Arg1/Arg2/Arg3 for the renderer to interpolate.
func New(category trap.ErrorCategory, id int, args ...any) *trap.RaisedError {
	table, ok := Errors[category]
	if !ok {
		return trap.NewError(trap.CategoryInternal, 2, "internal", "unknown error category %v", category)
	}
	tmpl, ok := table[id]
	if !ok {
		return trap.NewError(trap.CategoryInternal, 2, "internal", "unknown error id %d in category %v", id, category)
	}
	return trap.NewError(category, tmpl.ID, tmpl.Type, tmpl.Message, args...)
}
