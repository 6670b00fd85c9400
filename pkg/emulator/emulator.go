// Package emulator declares the pluggable Emulator capability interface
// the execution engine drives (spec.md §6.1) and the name-keyed
// ModuleManager registry SetEmulator resolves factories from. Grounded on
// arch/arch.go's archMap lookup pattern, generalized from architectures
// to emulator implementations.
package emulator

import (
	"github.com/pkg/errors"

	"github.com/gunmetal313/medusa/pkg/cpu"
	"github.com/gunmetal313/medusa/pkg/expr"
)

// HookKind enumerates the address-triggered hook kinds an Emulator
// dispatches. Only OnExecute exists today (spec.md's HookFunction only
// ever registers execution hooks), but the type keeps AddHook's shape
// open to growth the way go/models/cpu's HOOK_* constants are.
type HookKind int

const (
	OnExecute HookKind = iota
)

// HookCallback is invoked when a registered address (via AddHook) or any
// instruction (via AddHookOnInstruction) executes. Returning false asks
// the emulator to stop - the engine's only cancellation mechanism, per
// spec.md §5's "cooperative only" cancellation model.
type HookCallback func(addr uint64) bool

// Emulator is the execution engine's sole dependency on "how code
// actually runs" - spec.md §2 item 4 and §6.1. Two implementations ship:
// emulator/interp (walks the IR) and emulator/unicorn (runs native code),
// selectable by name through SetEmulator so both can be compared against
// the same lifted semantics.
type Emulator interface {
	// Execute runs the semantic block starting at blockAddr. Returns
	// false to stop the engine's outer loop.
	Execute(blockAddr uint64, sems []expr.Expression) bool
	// AddHook registers cb to fire when execution reaches addr.
	AddHook(addr uint64, kind HookKind, cb HookCallback) bool
	// AddHookOnInstruction registers cb to fire on every instruction.
	AddHookOnInstruction(cb HookCallback)
	// WriteMemory stores buf at addr through this emulator's memory
	// context (HookFunction uses this to overwrite an imported function's
	// prologue with a fake-address trampoline).
	WriteMemory(addr uint64, buf []byte) bool
}

// Factory constructs an Emulator bound to one CpuContext/MemoryContext
// pair, matching spec.md §4.3's SetEmulator: "instantiate with CPU-info,
// CPU context, memory context."
type Factory func(info *cpu.Information, cpuCtx cpu.Context, mem cpu.Memory) Emulator

var registry = map[string]Factory{}

// Register adds a named emulator factory to the process-wide
// ModuleManager. Both emulator/interp and emulator/unicorn call this from
// an init() the way go/arch/x86's package registers itself into archMap.
func Register(name string, f Factory) {
	registry[name] = f
}

// New resolves name and instantiates it, matching spec.md §6.1's
// ModuleManager role ("name-keyed emulator factory registry").
func New(name string, info *cpu.Information, cpuCtx cpu.Context, mem cpu.Memory) (Emulator, error) {
	f, ok := registry[name]
	if !ok {
		return nil, errors.Errorf("emulator: %q not registered", name)
	}
	return f(info, cpuCtx, mem), nil
}
