package natives

import (
	"fmt"

	"rebcore/internal/action"
	"rebcore/internal/array"
	"rebcore/internal/bind"
	"rebcore/internal/cell"
	"rebcore/internal/device"
	"rebcore/internal/trap"
)

// registerDatabase binds db-open/db-close/db-query/db-execute against a
// shared device.Registry, replacing the stdlib database_funcs.go +
// database.DBManager pair (a VM-global manager of *sql.DB handles keyed
// by connection id) with the same verbs routed through this project's
// device request protocol instead:
// every db- native builds a device.Request and dispatches it, rather
// than calling database/sql directly. registry may be nil, in which
// case these natives raise rather than panic — a host that never wires
// a registry into its Interpreter still gets a working console for
// everything except database access.
func registerDatabase(ctx *bind.Context, registry *device.Registry) {
	bindNative(ctx, "db-open", []*action.Param{param("id"), param("kind"), param("dsn")}, func(call action.CallContext) trap.Result {
		if registry == nil {
			return noRegistry("db-open")
		}
		id, ok := textOf(arg(call, "id"))
		if !ok {
			return wrongType("db-open", arg(call, "id"))
		}
		kind, ok := textOf(arg(call, "kind"))
		if !ok {
			return wrongType("db-open", arg(call, "kind"))
		}
		dsn, ok := textOf(arg(call, "dsn"))
		if !ok {
			return wrongType("db-open", arg(call, "dsn"))
		}
		backend, err := device.OpenSQL(kind, dsn)
		if err != nil {
			return dbError("db-open", err)
		}
		if err := registry.Open(id, backend); err != nil {
			return dbError("db-open", err)
		}
		return trap.ValueResult(logicCell(true))
	})

	bindNative(ctx, "db-close", []*action.Param{param("id")}, func(call action.CallContext) trap.Result {
		if registry == nil {
			return noRegistry("db-close")
		}
		id, ok := textOf(arg(call, "id"))
		if !ok {
			return wrongType("db-close", arg(call, "id"))
		}
		req := device.NewRequest(id, device.CmdClose)
		if res := registry.Dispatch(req); res == device.ResultError {
			return dbError("db-close", req.Err)
		}
		registry.Close(id)
		return trap.ValueResult(logicCell(true))
	})

	bindNative(ctx, "db-query", []*action.Param{param("id"), param("statement")}, func(call action.CallContext) trap.Result {
		if registry == nil {
			return noRegistry("db-query")
		}
		id, ok := textOf(arg(call, "id"))
		if !ok {
			return wrongType("db-query", arg(call, "id"))
		}
		stmt, ok := textOf(arg(call, "statement"))
		if !ok {
			return wrongType("db-query", arg(call, "statement"))
		}
		req := device.NewRequest(id, device.CmdQuery)
		req.Special = device.SQLQuery{Statement: stmt}
		if res := registry.Dispatch(req); res == device.ResultError {
			return dbError("db-query", req.Err)
		}
		rows, _ := req.Special.([]map[string]any)
		return trap.ValueResult(rowsToBlock(rows))
	})

	bindNative(ctx, "db-execute", []*action.Param{param("id"), param("statement")}, func(call action.CallContext) trap.Result {
		if registry == nil {
			return noRegistry("db-execute")
		}
		id, ok := textOf(arg(call, "id"))
		if !ok {
			return wrongType("db-execute", arg(call, "id"))
		}
		stmt, ok := textOf(arg(call, "statement"))
		if !ok {
			return wrongType("db-execute", arg(call, "statement"))
		}
		req := device.NewRequest(id, device.CmdModify)
		req.Special = device.SQLQuery{Statement: stmt}
		if res := registry.Dispatch(req); res == device.ResultError {
			return dbError("db-execute", req.Err)
		}
		return trap.ValueResult(integerCell(req.Actual))
	})
}

func noRegistry(native string) trap.Result {
	return trap.RaiseResult(trap.NewError(trap.CategoryAccess, 1, "no-device", native+": no device registry is open on this interpreter"))
}

func dbError(native string, err error) trap.Result {
	msg := native + ": "
	if err != nil {
		msg += err.Error()
	} else {
		msg += "device request failed"
	}
	return trap.RaiseResult(trap.NewError(trap.CategoryAccess, 2, "db-error", msg))
}

// rowsToBlock converts a device query result into a BLOCK! of OBJECT!
// contexts, one per row, a column name bound as a set-word per field —
// the Rebol-native shape in place of a map-of-string rows value, since
// this project has no generic map value.
func rowsToBlock(rows []map[string]any) *cell.Cell {
	arr := array.New(len(rows))
	for _, row := range rows {
		rowCtx := bind.NewContext(bind.KindObject)
		for col, val := range row {
			rowCtx.AppendKey(col, sqlValueCell(val))
		}
		_ = arr.Append(rowCtx.Vars[0]) // the context's own archetype cell
	}
	blockCell := &cell.Cell{}
	blockCell.Reset(cell.KindBlock)
	blockCell.Payload[0] = arr
	return blockCell
}

func sqlValueCell(v any) *cell.Cell {
	switch val := v.(type) {
	case nil:
		c := &cell.Cell{}
		c.Reset(cell.KindBlank)
		return c
	case int64:
		return integerCell(int(val))
	case float64:
		return decimalCell(val)
	case bool:
		return logicCell(val)
	case []byte:
		return textCell(string(val))
	case string:
		return textCell(val)
	default:
		return textCell(fmt.Sprintf("%v", val))
	}
}
