// Package execution implements the fetch-decode-lift-execute engine:
// spec.md §4.3. It assembles semantic blocks on demand from the Document
// and Architecture, hands them to a pluggable Emulator, and supports
// instruction/function hooking via the fake-address redirection trick
// described in spec.md §4.3/§9.
package execution

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/gunmetal313/medusa/internal/elog"
	"github.com/gunmetal313/medusa/pkg/arch"
	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
	"github.com/gunmetal313/medusa/pkg/document"
	"github.com/gunmetal313/medusa/pkg/emulator"
	"github.com/gunmetal313/medusa/pkg/expr"
)

// initialFakeAddr/fakeAddrStep implement spec.md §9's "monotonically
// growing fake-address counter for hooks" design note: moved onto the
// Execution instance (not a package-level global) specifically so two
// Execution objects never collide over the same counter.
const (
	initialFakeAddr = 0xDEAD7700
	fakeAddrStep    = 4
)

var (
	errNoEmulator       = errors.New("execution: no emulator set")
	errNotInitialized   = errors.New("execution: not initialized")
	errInvalidPCReg     = errors.New("execution: no usable program-pointer register")
	errLabelNotHookable = errors.New("execution: label is not Imported or Function")
	errUnknownLabel     = errors.New("execution: label not found")
)

// Execution is the engine. It owns its CpuContext/MemoryContext (created
// fresh in Initialize, dropped on re-Initialize) but not the Document,
// Architecture, or OperatingSystem it was built with, and the Emulator is
// a shared handle set via SetEmulator - exactly spec.md §5's resource
// ownership rules.
type Execution struct {
	doc *document.Document
	ar  arch.Architecture
	os  OperatingSystem

	cpuCtx cpu.Context
	mem    cpu.Memory
	emu    emulator.Emulator

	hookMu   sync.Mutex
	hooks    map[uint64]string
	nextFake uint64
}

// New builds an Execution over doc/ar. Call Initialize then SetEmulator
// before Execute.
func New(doc *document.Document, ar arch.Architecture) *Execution {
	return &Execution{
		doc:      doc,
		ar:       ar,
		hooks:    make(map[uint64]string),
		nextFake: initialFakeAddr,
	}
}

// SetOS attaches an optional OperatingSystem persona, consulted by the
// next Initialize call.
func (e *Execution) SetOS(os OperatingSystem) { e.os = os }

// CpuContext returns the current CpuContext, or nil before Initialize.
// Front ends (cmd/medusa-repl, cmd/medusa-tui) use this for register
// dumps and hand it to pkg/script; pkg/trace uses WrapCpuContext instead
// since it needs to intercept writes, not just read snapshots.
func (e *Execution) CpuContext() cpu.Context { return e.cpuCtx }

// Architecture returns the Architecture this Execution was built with.
func (e *Execution) Architecture() arch.Architecture { return e.ar }

// Initialize drops any existing contexts and builds fresh ones, per
// spec.md §4.3's five-step Initialize.
func (e *Execution) Initialize(mode uint8, argv, envp []string, cwd string) error {
	e.cpuCtx = nil
	e.mem = nil

	cpuCtx := e.ar.MakeCpuContext()
	mem := e.ar.MakeMemoryContext()

	if !mem.MapDocument(e.doc, cpuCtx) {
		return errors.New("execution: MapDocument failed")
	}
	cpuCtx.SetMode(mode)

	if e.os != nil {
		if !e.os.InitializeContext(e.doc, cpuCtx, mem, argv, envp, cwd) {
			return errors.New("execution: OperatingSystem.InitializeContext failed")
		}
	}

	e.cpuCtx = cpuCtx
	e.mem = mem
	return nil
}

// WrapCpuContext replaces the current CpuContext with f(current), the
// seam pkg/trace's Recorder uses to observe register writes without
// Execute's loop knowing instrumentation is present. Must run after
// Initialize and before SetEmulator, since SetEmulator binds the
// Emulator to whichever CpuContext is current at that point.
func (e *Execution) WrapCpuContext(f func(cpu.Context) cpu.Context) error {
	if e.cpuCtx == nil {
		return errNotInitialized
	}
	e.cpuCtx = f(e.cpuCtx)
	return nil
}

// SetEmulator resolves name from the process-wide ModuleManager
// (pkg/emulator's registry) and instantiates it bound to this
// Execution's current contexts, per spec.md §4.3's SetEmulator.
func (e *Execution) SetEmulator(name string) error {
	if e.cpuCtx == nil || e.mem == nil {
		return errNotInitialized
	}
	emu, err := emulator.New(name, e.ar.CpuInformation(), e.cpuCtx, e.mem)
	if err != nil {
		return errors.Wrap(err, "execution: SetEmulator")
	}
	e.emu = emu
	return nil
}

func (e *Execution) pcRegister() (id uint32, bits uint16, err error) {
	info := e.ar.CpuInformation()
	id = info.RegisterByType(cpu.ProgramPointerRegister, e.cpuCtx.GetMode())
	if id == cpu.InvalidRegister {
		return 0, 0, errInvalidPCReg
	}
	bits = info.BitSize(id)
	if bits < 8 {
		return 0, 0, errInvalidPCReg
	}
	return id, bits, nil
}

// Execute is the core loop: spec.md §4.3's ten-step block-building
// algorithm, repeated until something logs-and-stops. Stopping
// conditions that spec.md §7 classifies as "execution-time" errors (bad
// PC register, disassembly failure, cell-write failure, emulator
// returning false, PC read-back failure) are logged through
// internal/elog and end the loop without returning a Go error - the
// engine's contract is "runs until it can't", not "fails loudly", per
// spec.md §7's partial-failure policy (the caller inspects contexts
// directly afterward).
func (e *Execution) Execute(entry expr.Address) error {
	if e.emu == nil {
		return errNoEmulator
	}
	if e.cpuCtx == nil || e.mem == nil {
		return errNotInitialized
	}
	pcID, pcBits, err := e.pcRegister()
	if err != nil {
		elog.Exec.Printf("%v, stopping", err)
		return nil
	}
	if !e.cpuCtx.WriteRegister(pcID, entry.Offset, pcBits) {
		return errors.New("execution: failed to seed program pointer")
	}

	info := e.ar.CpuInformation()
	current := entry
	current.OffsetSize = pcBits

	for {
		blockStart := current
		var sems []expr.Expression

		for {
			cell, ok := e.doc.GetCell(current.Offset)
			if !ok || cell.Kind != document.CellInstruction {
				off, ok := e.doc.ConvertAddressToFileOffset(current.Offset)
				if !ok {
					elog.Exec.Printf("address %s has no file offset, stopping", current)
					return nil
				}
				insn := &arch.Instruction{}
				if err := e.ar.Disassemble(e.doc.GetBinaryStream(), off, insn, e.doc.GetMode(current.Offset)); err != nil {
					elog.Exec.Printf("disassembly failed at %s: %v", current, err)
					return nil
				}
				if !e.doc.SetCell(current.Offset, document.Cell{Kind: document.CellInstruction, Insn: insn}, true) {
					elog.Exec.Printf("cell write failed at %s, stopping", current)
					return nil
				}
			}

			cell, ok = e.doc.GetCell(current.Offset)
			if !ok || cell.Kind != document.CellInstruction || cell.Insn == nil {
				elog.Exec.Printf("instruction cell vanished at %s, stopping", current)
				return nil
			}
			insn := cell.Insn

			pcAfter := e.ar.CurrentAddress(current, insn)

			sems = append(sems, expr.MakeSystem("dump_insn", current))
			sems = append(sems, expr.MakeAssignment(
				expr.MakeIdentifier(pcID, info),
				expr.MakeBitVector(bitvec.New(pcAfter.OffsetSize, pcAfter.Offset)),
			))

			current.Offset += insn.Length

			if len(insn.Semantics) == 0 {
				elog.Exec.Printf("warning: empty semantics at %s", blockStart)
			} else {
				for _, s := range insn.Semantics {
					sems = append(sems, s.Clone())
				}
			}

			sems = append(sems, expr.MakeSystem("check_exec_hook", expr.Address{}))

			if insn.SubType != arch.SubNone {
				break
			}
		}

		if !e.emu.Execute(blockStart.Offset, sems) {
			elog.Exec.Printf("emulator stopped at block %s", blockStart)
			return nil
		}

		newPC, ok := e.cpuCtx.ReadRegister(pcID, pcBits)
		if !ok {
			elog.Exec.Printf("program-pointer read-back failed after block %s", blockStart)
			return nil
		}
		current = expr.Address{Base: current.Base, Offset: newPC, OffsetSize: pcBits}
	}
}

// HookInstruction forwards to the emulator's AddHookOnInstruction, per
// spec.md §4.3.
func (e *Execution) HookInstruction(cb emulator.HookCallback) error {
	if e.emu == nil {
		return errNoEmulator
	}
	e.emu.AddHookOnInstruction(cb)
	return nil
}

// HookFunction implements spec.md §4.3's six-step fake-address
// redirection: resolve name to an address, require it be an
// Imported/Function label, allocate a fake address, overwrite the
// function's prologue with it, and register an execution hook there.
// All-or-nothing: if any step fails, the fake-address counter is not
// advanced (spec.md §7's hook-registration policy).
func (e *Execution) HookFunction(name string, cb emulator.HookCallback) error {
	if e.emu == nil {
		return errNoEmulator
	}
	addr, ok := e.doc.GetAddressFromLabelName(name)
	if !ok {
		return errors.Wrapf(errUnknownLabel, "%q", name)
	}
	label, ok := e.doc.GetLabelFromAddress(addr)
	if !ok {
		return errors.Wrapf(errUnknownLabel, "%q", name)
	}
	if label.Type&(document.Imported|document.Function) == 0 {
		return errors.Wrapf(errLabelNotHookable, "%q", name)
	}

	_, pcBits, err := e.pcRegister()
	if err != nil {
		return err
	}
	widthBytes := int(pcBits+7) / 8

	e.hookMu.Lock()
	fake := e.nextFake
	e.hookMu.Unlock()

	buf := make([]byte, widthBytes)
	for i := 0; i < widthBytes; i++ {
		buf[i] = byte(fake >> (8 * uint(i)))
	}
	if !e.emu.WriteMemory(addr, buf) {
		return errors.Errorf("execution: failed writing hook trampoline for %q", name)
	}

	e.hookMu.Lock()
	e.hooks[fake] = name
	e.hookMu.Unlock()

	if !e.emu.AddHook(fake, emulator.OnExecute, cb) {
		e.hookMu.Lock()
		delete(e.hooks, fake)
		e.hookMu.Unlock()
		return errors.Errorf("execution: failed registering hook for %q", name)
	}

	e.hookMu.Lock()
	e.nextFake += fakeAddrStep
	e.hookMu.Unlock()
	return nil
}

// GetHookName reads the current program-pointer register and looks it up
// in the hook table, per spec.md §4.3. Returns "" if the current PC is
// not a known fake address.
func (e *Execution) GetHookName() string {
	if e.cpuCtx == nil {
		return ""
	}
	pcID, pcBits, err := e.pcRegister()
	if err != nil {
		return ""
	}
	pc, ok := e.cpuCtx.ReadRegister(pcID, pcBits)
	if !ok {
		return ""
	}
	e.hookMu.Lock()
	defer e.hookMu.Unlock()
	return e.hooks[pc]
}
