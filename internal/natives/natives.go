// Package natives is the boot-time catalog of built-in actions: the
// words a fresh Interpreter must already have bound before any script
// can do arithmetic, print a value, or open a database connection.
// Natives are the counterpart to user-defined actions; this package
// supplies the catalog, grounded on the host runtime's RegisterBuiltin
// tables (internal/stdlib/*.go, the VM's own bootstrap) adapted to this
// project's action.Action/trap.Result dispatch convention instead of
// the original (args ...interface{}) (interface{}, error) builtins.
package natives

import (
	"fmt"
	"io"

	"rebcore/internal/action"
	"rebcore/internal/array"
	"rebcore/internal/bind"
	"rebcore/internal/cell"
	"rebcore/internal/device"
	"rebcore/internal/load"
	"rebcore/internal/module"
	"rebcore/internal/trap"
)

// Register installs every native this package defines as a set-word in
// ctx, the way RegisterBuiltin calls populate a VM's global builtin
// table. registry and loader are both nil-able: a host that never opens
// a device backend or module loader can still register the rest of the
// catalog.
func Register(ctx *bind.Context, w io.Writer, registry *device.Registry, loader *module.Loader) {
	registerMath(ctx)
	registerPrint(ctx, w)
	registerDatabase(ctx, registry)
	registerAssert(ctx)
	registerControl(ctx)
	registerFunction(ctx)
	registerActions(ctx)
	registerModule(ctx, registry, loader)
}

func bindNative(ctx *bind.Context, name string, paramlist []*action.Param, dispatch action.Dispatcher) {
	act := action.New(paramlist, dispatch)
	act.Label = name
	c := &cell.Cell{}
	c.Reset(cell.KindAction)
	c.Quote = 0
	c.Payload[0] = act
	ctx.AppendKey(name, c)
}

// bindEnfixAlias gives an already-registered prefix native a second,
// infix-dispatched name bound to the same *action.Action — the way `+`
// is nothing but `add` invoked enfix. The alias shares the target's
// dispatcher rather than re-registering one, since the two words name
// the same operation.
func bindEnfixAlias(ctx *bind.Context, alias, target string) {
	v, _, ok := ctx.Lookup(target, false)
	if !ok || v.Kind != cell.KindAction {
		return
	}
	c := &cell.Cell{}
	c.Reset(cell.KindAction)
	c.Quote = 0
	c.Flags |= cell.FlagEnfixed
	c.Payload[0] = v.Payload[0]
	ctx.AppendKey(alias, c)
}

func param(symbol string) *action.Param {
	return &action.Param{Symbol: symbol, Class: action.ClassNormal}
}

func arg(ctx action.CallContext, symbol string) *cell.Cell {
	v, _, _ := ctx.Varlist().Lookup(symbol, false)
	return v
}

func wrongType(native string, v *cell.Cell) trap.Result {
	got := "none"
	if v != nil {
		got = v.Kind.String()
	}
	return trap.RaiseResult(trap.NewError(trap.CategoryScript, 1, "invalid-arg", fmt.Sprintf("%s: wrong argument type (%s)", native, got)))
}

func numberOf(v *cell.Cell) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch v.Kind {
	case cell.KindInteger:
		n, _ := v.Payload[0].(int)
		return float64(n), true
	case cell.KindDecimal:
		n, _ := v.Payload[0].(float64)
		return n, true
	default:
		return 0, false
	}
}

func isInteger(v *cell.Cell) bool { return v != nil && v.Kind == cell.KindInteger }

func integerCell(n int) *cell.Cell {
	c := &cell.Cell{}
	c.Reset(cell.KindInteger)
	c.Payload[0] = n
	return c
}

func decimalCell(f float64) *cell.Cell {
	c := &cell.Cell{}
	c.Reset(cell.KindDecimal)
	c.Payload[0] = f
	return c
}

func logicCell(v bool) *cell.Cell {
	c := &cell.Cell{}
	c.Reset(cell.KindLogic)
	c.Payload[0] = v
	return c
}

func textCell(s string) *cell.Cell {
	c := &cell.Cell{}
	c.Reset(cell.KindText)
	c.Payload[0] = s
	return c
}

func textOf(v *cell.Cell) (string, bool) {
	if v == nil || v.Kind != cell.KindText {
		return "", false
	}
	s, _ := v.Payload[0].(string)
	return s, true
}

func registerMath(ctx *bind.Context) {
	binary := func(name string, op func(a, b float64) float64) {
		bindNative(ctx, name, []*action.Param{param("a"), param("b")}, func(call action.CallContext) trap.Result {
			a, aok := numberOf(arg(call, "a"))
			b, bok := numberOf(arg(call, "b"))
			if !aok {
				return wrongType(name, arg(call, "a"))
			}
			if !bok {
				return wrongType(name, arg(call, "b"))
			}
			result := op(a, b)
			if isInteger(arg(call, "a")) && isInteger(arg(call, "b")) && result == float64(int(result)) {
				return trap.ValueResult(integerCell(int(result)))
			}
			return trap.ValueResult(decimalCell(result))
		})
	}
	binary("add", func(a, b float64) float64 { return a + b })
	binary("subtract", func(a, b float64) float64 { return a - b })
	binary("multiply", func(a, b float64) float64 { return a * b })

	bindNative(ctx, "divide", []*action.Param{param("a"), param("b")}, func(call action.CallContext) trap.Result {
		a, aok := numberOf(arg(call, "a"))
		b, bok := numberOf(arg(call, "b"))
		if !aok {
			return wrongType("divide", arg(call, "a"))
		}
		if !bok {
			return wrongType("divide", arg(call, "b"))
		}
		if b == 0 {
			return trap.RaiseResult(trap.NewError(trap.CategoryMath, 1, "zero-divide", "divide: attempt to divide by zero"))
		}
		result := a / b
		if isInteger(arg(call, "a")) && isInteger(arg(call, "b")) && result == float64(int(result)) {
			return trap.ValueResult(integerCell(int(result)))
		}
		return trap.ValueResult(decimalCell(result))
	})

	compare := func(name string, op func(a, b float64) bool) {
		bindNative(ctx, name, []*action.Param{param("a"), param("b")}, func(call action.CallContext) trap.Result {
			a, aok := numberOf(arg(call, "a"))
			b, bok := numberOf(arg(call, "b"))
			if !aok {
				return wrongType(name, arg(call, "a"))
			}
			if !bok {
				return wrongType(name, arg(call, "b"))
			}
			return trap.ValueResult(logicCell(op(a, b)))
		})
	}
	compare("lesser?", func(a, b float64) bool { return a < b })
	compare("greater?", func(a, b float64) bool { return a > b })
	compare("equal?", func(a, b float64) bool { return a == b })

	// The symbolic operators are enfix aliases of the words above, not
	// separate natives: `1 + 2` and `add 1 2` invoke the one add action,
	// the first by infix lookahead and the second by ordinary prefix call.
	bindEnfixAlias(ctx, "+", "add")
	bindEnfixAlias(ctx, "-", "subtract")
	bindEnfixAlias(ctx, "*", "multiply")
	bindEnfixAlias(ctx, "/", "divide")
	bindEnfixAlias(ctx, "<", "lesser?")
	bindEnfixAlias(ctx, ">", "greater?")
	bindEnfixAlias(ctx, "=", "equal?")
}

// registerPrint binds the one diagnostic native every other native and
// test script in this tree leans on: print molds its argument (through
// a one-element array so load.Mold's block-walking logic can be reused
// unchanged) and writes it followed by a newline.
func registerPrint(ctx *bind.Context, w io.Writer) {
	bindNative(ctx, "print", []*action.Param{param("value")}, func(call action.CallContext) trap.Result {
		v := arg(call, "value")
		fmt.Fprintln(w, moldOne(v))
		return trap.ValueResult(nil)
	})
}

func moldOne(v *cell.Cell) string {
	if v == nil {
		return "none"
	}
	if v.Kind == cell.KindText {
		s, _ := v.Payload[0].(string)
		return s
	}
	arr := arrayOf(v)
	return load.Mold(arr)
}

func arrayOf(v *cell.Cell) *array.Array {
	arr := array.New(1)
	_ = arr.Append(v)
	return arr
}

// isTruthy applies Rebol's two-value falsiness rule: only NONE! and
// LOGIC! false are falsy, every other value (including 0 and "") is
// truthy.
func isTruthy(v *cell.Cell) bool {
	if v == nil || v.Kind == cell.KindBlank {
		return false
	}
	if v.Kind == cell.KindLogic {
		b, _ := v.Payload[0].(bool)
		return b
	}
	return true
}

// registerAssert binds the one native `rebcore test` leans on for script
// test authoring: ASSERT raises a script error when its argument is
// falsy, so a test file is "failed" exactly when evaluating it raises.
func registerAssert(ctx *bind.Context) {
	bindNative(ctx, "assert", []*action.Param{param("condition")}, func(call action.CallContext) trap.Result {
		if !isTruthy(arg(call, "condition")) {
			return trap.RaiseResult(trap.NewError(trap.CategoryScript, 3, "assert-failed", "assert: condition was falsy"))
		}
		return trap.ValueResult(logicCell(true))
	})
}
