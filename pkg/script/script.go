// Package script implements the scripting front end, SPEC_FULL.md §4.9:
// a Lua 5.1 VM (the luaish fork) bound to an execution engine, exposed as
// a global "exec" table the same shape as go/repl/bind_usercorn.go's
// bindUsercorn binds "u".
package script

import (
	"reflect"

	"github.com/lunixbochs/argjoy"
	lua "github.com/lunixbochs/luaish"
	luar "github.com/lunixbochs/luaish-luar"
	"github.com/pkg/errors"

	"github.com/gunmetal313/medusa/internal/elog"
	"github.com/gunmetal313/medusa/pkg/cpu"
	"github.com/gunmetal313/medusa/pkg/emulator"
)

// Target is the exec engine a script binds against: Execution's hook and
// hook-lookup surface, declared narrowly here rather than importing
// pkg/execution, the same import-cycle-avoidance seam pkg/trace uses.
type Target interface {
	HookInstruction(cb emulator.HookCallback) error
	HookFunction(name string, cb emulator.HookCallback) error
	GetHookName() string
}

var uint64Type = reflect.TypeOf(uint64(0))

// Engine is one Lua VM bound to a Target and CpuContext.
type Engine struct {
	*lua.LState
	target Target
	cpuCtx cpu.Context
	aj     argjoy.Argjoy
}

// New builds a scripting Engine bound to target/cpuCtx and loads the exec
// bindings, mirroring go/lua/repl.go's NewRepl plus
// go/repl/bind_usercorn.go's bindUsercorn/bindCpu pattern.
func New(target Target, cpuCtx cpu.Context) (*Engine, error) {
	e := &Engine{LState: lua.NewState(), target: target, cpuCtx: cpuCtx}
	e.aj.Register(argjoy.IntToInt)
	if err := e.bindExec(); err != nil {
		return nil, errors.Wrap(err, "script: failed to bind exec table")
	}
	return e, nil
}

func (e *Engine) bindExec() error {
	mod := e.SetFuncs(e.NewTable(), map[string]lua.LGFunction{
		"hook_instruction": e.hookInstruction,
		"hook_function":    e.hookFunction,
		"hook_name":        e.hookName,
		"reg_read":         e.regRead,
		"reg_write":        e.regWrite,
	})
	e.SetGlobal("exec", mod)
	// exposes the raw *Target value to scripts that want it directly,
	// matching luar.New(L.LState, L.u) in bind_usercorn.go.
	e.SetGlobal("exec_raw", luar.New(e.LState, e.target))
	return nil
}

// coerceUint64 runs v through the Argjoy conversion chain, so reg_read/
// reg_write accept whatever numeric Lua type a script happens to pass
// (LInt, LFloat, numeric LString) for register ids, the same role
// Argjoy.Convert plays coercing syscall arguments in
// go/kernel/common/syscall.go.
func (e *Engine) coerceUint64(v interface{}) uint64 {
	out, err := e.aj.Convert([]reflect.Type{uint64Type}, false, []interface{}{v})
	if err != nil {
		return 0
	}
	return out[0].Convert(uint64Type).Uint()
}

// callLua invokes a Lua hook function with addr, interpreting its return
// value as the HookCallback bool contract: no value or a truthy
// non-boolean means "keep going", only an explicit false stops execution.
func (e *Engine) callLua(fn *lua.LFunction, addr uint64) bool {
	e.Push(fn)
	e.Push(lua.LInt(int64(addr)))
	if err := e.PCall(1, 1, nil); err != nil {
		elog.Script.Printf("hook callback error: %v", err)
		return false
	}
	ret := e.Get(-1)
	e.Pop(1)
	if b, ok := ret.(lua.LBool); ok {
		return bool(b)
	}
	return true
}

func (e *Engine) hookInstruction(L *lua.LState) int {
	fn := L.CheckFunction(1)
	if err := e.target.HookInstruction(func(addr uint64) bool {
		return e.callLua(fn, addr)
	}); err != nil {
		L.RaiseError(err.Error())
	}
	return 0
}

func (e *Engine) hookFunction(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	if err := e.target.HookFunction(name, func(addr uint64) bool {
		return e.callLua(fn, addr)
	}); err != nil {
		L.RaiseError(err.Error())
	}
	return 0
}

func (e *Engine) hookName(L *lua.LState) int {
	L.Push(lua.LString(e.target.GetHookName()))
	return 1
}

func (e *Engine) regRead(L *lua.LState) int {
	id := uint32(e.coerceUint64(L.CheckAny(1)))
	bits := uint16(L.CheckInt(2))
	v, ok := e.cpuCtx.ReadRegister(id, bits)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LInt(int64(v)))
	return 1
}

func (e *Engine) regWrite(L *lua.LState) int {
	id := uint32(e.coerceUint64(L.CheckAny(1)))
	val := L.CheckUint64(2)
	bits := uint16(L.CheckInt(3))
	L.Push(lua.LBool(e.cpuCtx.WriteRegister(id, val, bits)))
	return 1
}
