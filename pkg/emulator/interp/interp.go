// Package interp implements the reference interpreter Emulator: it walks
// the semantic expression list the execution engine built and evaluates
// each node against a CpuContext/MemoryContext pair, per SPEC_FULL.md
// §4.6. Grounded on go/models/cpu/cpu.go's Cpu interface shape and
// go/models/cpu/hooks.go's Hooks bookkeeping (address-range hook records
// adapted down to the two hook kinds this spec needs).
package interp

import (
	"sync"

	"github.com/gunmetal313/medusa/pkg/cpu"
	"github.com/gunmetal313/medusa/pkg/emulator"
	"github.com/gunmetal313/medusa/pkg/expr"
)

func init() {
	emulator.Register("interp", func(info *cpu.Information, cpuCtx cpu.Context, mem cpu.Memory) emulator.Emulator {
		return New(info, cpuCtx, mem)
	})
}

// Interp is the reference, architecture-agnostic Emulator: no native code
// ever runs, every semantic node is interpreted directly.
type Interp struct {
	info   *cpu.Information
	cpuCtx cpu.Context
	mem    cpu.Memory

	mu         sync.Mutex
	addrHooks  map[uint64]emulator.HookCallback
	instrHooks []emulator.HookCallback
}

// New builds an interpreter bound to one CpuContext/MemoryContext pair.
func New(info *cpu.Information, cpuCtx cpu.Context, mem cpu.Memory) *Interp {
	return &Interp{
		info:      info,
		cpuCtx:    cpuCtx,
		mem:       mem,
		addrHooks: make(map[uint64]emulator.HookCallback),
	}
}

// Execute walks sems in order. System("dump_insn", ...) fires instruction
// hooks; System("check_exec_hook", ...) fires any hook registered at the
// current program-pointer value; every other node (Assignment, the
// Condition family, Bind, ...) is evaluated by calling its own Read,
// which already knows how to apply its own side effects. Other System
// markers a lifter may emit (e.g. x86's "int0x80") are not hook sync
// points and are silently skipped - there is nothing registered against
// them in this reference interpreter.
func (in *Interp) Execute(blockAddr uint64, sems []expr.Expression) bool {
	for _, e := range sems {
		if se, ok := e.(*expr.SystemExpr); ok {
			switch se.Name {
			case "dump_insn":
				if !in.fireInstructionHooks(se.Addr.Offset) {
					return false
				}
			case "check_exec_hook":
				if !in.fireAddressHook() {
					return false
				}
			}
			continue
		}
		if err := e.Read(in.cpuCtx, in.mem, nil); err != nil {
			return false
		}
	}
	return true
}

func (in *Interp) fireInstructionHooks(addr uint64) bool {
	in.mu.Lock()
	hooks := append([]emulator.HookCallback(nil), in.instrHooks...)
	in.mu.Unlock()
	for _, cb := range hooks {
		if !cb(addr) {
			return false
		}
	}
	return true
}

func (in *Interp) fireAddressHook() bool {
	pcID := in.info.RegisterByType(cpu.ProgramPointerRegister, in.cpuCtx.GetMode())
	if pcID == cpu.InvalidRegister {
		return true
	}
	pc, ok := in.cpuCtx.ReadRegister(pcID, in.info.BitSize(pcID))
	if !ok {
		return true
	}
	in.mu.Lock()
	cb, found := in.addrHooks[pc]
	in.mu.Unlock()
	if !found {
		return true
	}
	return cb(pc)
}

func (in *Interp) AddHook(addr uint64, kind emulator.HookKind, cb emulator.HookCallback) bool {
	if kind != emulator.OnExecute {
		return false
	}
	in.mu.Lock()
	in.addrHooks[addr] = cb
	in.mu.Unlock()
	return true
}

func (in *Interp) AddHookOnInstruction(cb emulator.HookCallback) {
	in.mu.Lock()
	in.instrHooks = append(in.instrHooks, cb)
	in.mu.Unlock()
}

func (in *Interp) WriteMemory(addr uint64, buf []byte) bool {
	return in.mem.WriteMemory(addr, buf) == nil
}
