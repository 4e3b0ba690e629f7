package natives

import (
	"rebcore/internal/action"
	"rebcore/internal/bind"
	"rebcore/internal/cell"
	"rebcore/internal/device"
	"rebcore/internal/module"
	"rebcore/internal/trap"
)

// registerModule binds IMPORT against a shared module.Loader — the
// script-reachable counterpart of Loader.Load, which loader_test.go
// otherwise only exercises directly in Go — and OPEN/WRITE/READ/CLOSE
// against a device.Registry network backend (device.DialNetwork), the
// websocket counterpart of the db- natives' SQL backend. loader and
// registry are both nil-able, matching registerDatabase's "still a
// working console without one" convention.
func registerModule(ctx *bind.Context, registry *device.Registry, loader *module.Loader) {
	bindNative(ctx, "import", []*action.Param{param("name"), param("constraint")}, func(call action.CallContext) trap.Result {
		if loader == nil {
			return noRegistry("import")
		}
		name, ok := textOf(arg(call, "name"))
		if !ok {
			return wrongType("import", arg(call, "name"))
		}
		constraint, ok := textOf(arg(call, "constraint"))
		if !ok {
			return wrongType("import", arg(call, "constraint"))
		}
		mod, err := loader.Load(name, constraint)
		if err != nil {
			return dbError("import", err)
		}
		return trap.ValueResult(mod.Context.Vars[0])
	})

	bindNative(ctx, "open", []*action.Param{param("id"), param("url")}, func(call action.CallContext) trap.Result {
		if registry == nil {
			return noRegistry("open")
		}
		id, ok := textOf(arg(call, "id"))
		if !ok {
			return wrongType("open", arg(call, "id"))
		}
		url, ok := textOf(arg(call, "url"))
		if !ok {
			return wrongType("open", arg(call, "url"))
		}
		backend, err := device.DialNetwork(url)
		if err != nil {
			return dbError("open", err)
		}
		if err := registry.Open(id, backend); err != nil {
			return dbError("open", err)
		}
		return trap.ValueResult(logicCell(true))
	})

	bindNative(ctx, "write", []*action.Param{param("id"), param("data")}, func(call action.CallContext) trap.Result {
		if registry == nil {
			return noRegistry("write")
		}
		id, ok := textOf(arg(call, "id"))
		if !ok {
			return wrongType("write", arg(call, "id"))
		}
		data, ok := textOf(arg(call, "data"))
		if !ok {
			return wrongType("write", arg(call, "data"))
		}
		req := device.NewRequest(id, device.CmdWrite)
		req.Data = []byte(data)
		if res := registry.Dispatch(req); res == device.ResultError {
			return dbError("write", req.Err)
		}
		return trap.ValueResult(integerCell(req.Actual))
	})

	bindNative(ctx, "read", []*action.Param{param("id")}, func(call action.CallContext) trap.Result {
		if registry == nil {
			return noRegistry("read")
		}
		id, ok := textOf(arg(call, "id"))
		if !ok {
			return wrongType("read", arg(call, "id"))
		}
		req := device.NewRequest(id, device.CmdRead)
		switch registry.Dispatch(req) {
		case device.ResultError:
			return dbError("read", req.Err)
		case device.ResultPend:
			return trap.ValueResult(blankValue())
		default:
			return trap.ValueResult(textCell(string(req.Data)))
		}
	})

	bindNative(ctx, "close", []*action.Param{param("id")}, func(call action.CallContext) trap.Result {
		if registry == nil {
			return noRegistry("close")
		}
		id, ok := textOf(arg(call, "id"))
		if !ok {
			return wrongType("close", arg(call, "id"))
		}
		req := device.NewRequest(id, device.CmdClose)
		if res := registry.Dispatch(req); res == device.ResultError {
			return dbError("close", req.Err)
		}
		registry.Close(id)
		return trap.ValueResult(logicCell(true))
	})
}
