package bench

import (
	"context"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/pvec"
)

// DefaultScriptTimeout bounds one script execution. Long-running Lua
// is interrupted through the state's context.
const DefaultScriptTimeout = 30 * time.Second

// ScriptHost runs a Lua workload against a single transient vector.
// Scripts obtain the vector API with require("vec"):
//
//	local vec = require("vec")
//	for i = 1, elements do vec.append(i) end
//	vec.drop(100)
//	print(vec.sum())
//
// Indices on the Lua side are 1-based. The globals "elements" and
// "seed" carry the scenario's values into the script.
//
// gopher-lua states are not goroutine-safe; a host must be used from
// one goroutine and closed after the run.
type ScriptHost struct {
	L       *lua.LState
	tr      *pvec.Transient[int64]
	ops     int
	timeout time.Duration
}

// NewScriptHost creates a sandboxed Lua state with the vec module
// preloaded over a fresh vector built with opts.
func NewScriptHost(opts []pvec.Option) *ScriptHost {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	hardenState(L)

	h := &ScriptHost{
		L:       L,
		tr:      pvec.New[int64](opts...).Detach(),
		timeout: DefaultScriptTimeout,
	}
	L.PreloadModule("vec", h.vecLoader)
	return h
}

// openSafeLibraries opens only the Lua standard libraries a workload
// needs: base, package (for require of preloaded modules), table,
// string, and math. io, os, and debug stay closed.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenPackage(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// hardenState removes the escape hatches the open libraries leave:
// code loading from strings or files, and module resolution from
// disk. Only preloaded modules remain requirable.
func hardenState(L *lua.LState) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
	if pkg, ok := L.GetGlobal("package").(*lua.LTable); ok {
		L.SetField(pkg, "path", lua.LString(""))
		L.SetField(pkg, "cpath", lua.LString(""))
	}
}

// SetGlobals publishes scenario parameters to the script.
func (h *ScriptHost) SetGlobals(elements int, seed int64) {
	h.L.SetGlobal("elements", lua.LNumber(elements))
	h.L.SetGlobal("seed", lua.LNumber(seed))
}

// RunFile executes a workload file. The run is bounded by the host
// timeout and the given context.
func (h *ScriptHost) RunFile(ctx context.Context, path string) error {
	return h.run(ctx, func() error { return h.L.DoFile(path) })
}

// RunString executes workload source directly.
func (h *ScriptHost) RunString(ctx context.Context, code string) error {
	return h.run(ctx, func() error { return h.L.DoString(code) })
}

func (h *ScriptHost) run(ctx context.Context, do func() error) (err error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	h.L.SetContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	if err := do(); err != nil {
		return fmt.Errorf("running workload: %w", err)
	}
	return nil
}

// Ops returns the number of vec module calls the script made.
func (h *ScriptHost) Ops() int { return h.ops }

// Finish freezes the hosted vector and returns it.
func (h *ScriptHost) Finish() pvec.Vector[int64] {
	return h.tr.Persistent()
}

// Close releases the Lua state.
func (h *ScriptHost) Close() {
	h.L.Close()
}

// vecLoader is the module loader for require("vec").
func (h *ScriptHost) vecLoader(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"len":    h.luaLen,
		"get":    h.luaGet,
		"append": h.luaAppend,
		"set":    h.luaSet,
		"update": h.luaUpdate,
		"take":   h.luaTake,
		"drop":   h.luaDrop,
		"sum":    h.luaSum,
	})
	L.Push(mod)
	return 1
}

func (h *ScriptHost) luaLen(L *lua.LState) int {
	h.ops++
	L.Push(lua.LNumber(h.tr.Len()))
	return 1
}

func (h *ScriptHost) luaGet(L *lua.LState) int {
	i := L.CheckInt(1)
	if i < 1 || i > h.tr.Len() {
		L.ArgError(1, fmt.Sprintf("index %d out of range [1, %d]", i, h.tr.Len()))
		return 0
	}
	h.ops++
	L.Push(lua.LNumber(h.tr.Get(i - 1)))
	return 1
}

func (h *ScriptHost) luaAppend(L *lua.LState) int {
	x := L.CheckNumber(1)
	if err := h.tr.Append(int64(x)); err != nil {
		L.RaiseError("append: %s", err.Error())
		return 0
	}
	h.ops++
	return 0
}

func (h *ScriptHost) luaSet(L *lua.LState) int {
	i := L.CheckInt(1)
	x := L.CheckNumber(2)
	if err := h.tr.Set(i-1, int64(x)); err != nil {
		L.RaiseError("set: %s", err.Error())
		return 0
	}
	h.ops++
	return 0
}

// luaUpdate calls back into the script for the replacement value. A
// callback error or non-number result aborts the update and leaves
// the element unchanged.
func (h *ScriptHost) luaUpdate(L *lua.LState) int {
	i := L.CheckInt(1)
	fn := L.CheckFunction(2)

	err := h.tr.Update(i-1, func(old int64) (int64, error) {
		L.Push(fn)
		L.Push(lua.LNumber(old))
		if err := L.PCall(1, 1, nil); err != nil {
			return 0, err
		}
		ret := L.Get(-1)
		L.Pop(1)
		n, ok := ret.(lua.LNumber)
		if !ok {
			return 0, fmt.Errorf("update callback returned %s, want number", ret.Type())
		}
		return int64(n), nil
	})
	if err != nil {
		L.RaiseError("update: %s", err.Error())
		return 0
	}
	h.ops++
	return 0
}

func (h *ScriptHost) luaTake(L *lua.LState) int {
	n := L.CheckInt(1)
	if err := h.tr.Take(n); err != nil {
		L.RaiseError("take: %s", err.Error())
		return 0
	}
	h.ops++
	return 0
}

func (h *ScriptHost) luaDrop(L *lua.LState) int {
	n := L.CheckInt(1)
	if err := h.tr.Drop(n); err != nil {
		L.RaiseError("drop: %s", err.Error())
		return 0
	}
	h.ops++
	return 0
}

// luaSum reads the whole vector out and returns the element total.
func (h *ScriptHost) luaSum(L *lua.LState) int {
	h.ops++
	var total int64
	for _, x := range h.tr.ToSlice() {
		total += x
	}
	L.Push(lua.LNumber(total))
	return 1
}
