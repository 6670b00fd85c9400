//go:build unicorn

// Package unicorn implements the Unicorn-engine-backed Emulator,
// SPEC_FULL.md §4.7. It is build-tagged because it cgo-links the real
// Unicorn engine exactly as go/cpu/unicorn/unicorn.go does. Rather than
// executing our IR, it re-derives a native run from the same
// CpuContext/MemoryContext pair the reference interpreter uses: it
// mirrors register and mapped-page state into a real uc.Unicorn instance,
// runs the block natively, then mirrors state back out, so a caller can
// flip between SetEmulator("interp") and SetEmulator("unicorn") against
// identical contexts and compare native-speed execution against IR
// interpretation of the same block.
package unicorn

import (
	"sync"

	"github.com/pkg/errors"
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/gunmetal313/medusa/pkg/cpu"
	"github.com/gunmetal313/medusa/pkg/emulator"
	"github.com/gunmetal313/medusa/pkg/expr"
)

func init() {
	emulator.Register("unicorn", func(info *cpu.Information, cpuCtx cpu.Context, mem cpu.Memory) emulator.Emulator {
		return New(info, cpuCtx, mem)
	})
}

// regByName maps this repo's x86 register names to Unicorn's UC_X86_REG_*
// enum, grounded on go/arch/x86/arch.go's Regs map. Registers not in this
// table (the synthetic 1-bit "zf") have no native backing and are tracked
// as plain scratch state instead.
var regByName = map[string]int{
	"eax":    uc.X86_REG_EAX,
	"ebx":    uc.X86_REG_EBX,
	"ecx":    uc.X86_REG_ECX,
	"edx":    uc.X86_REG_EDX,
	"esi":    uc.X86_REG_ESI,
	"edi":    uc.X86_REG_EDI,
	"esp":    uc.X86_REG_ESP,
	"ebp":    uc.X86_REG_EBP,
	"eip":    uc.X86_REG_EIP,
	"eflags": uc.X86_REG_EFLAGS,
}

// Unicorn is the Emulator implementation. The native engine is created
// lazily on first Execute so construction (via the ModuleManager
// factory) never touches cgo before it's actually needed.
type Unicorn struct {
	info   *cpu.Information
	cpuCtx cpu.Context
	mem    cpu.Memory

	u    uc.Unicorn
	once sync.Once

	mu         sync.Mutex
	addrHooks  map[uint64]emulator.HookCallback
	instrHooks []emulator.HookCallback
}

// New builds a Unicorn-backed Emulator bound to a CpuContext/MemoryContext
// pair - typically the same pair the reference interpreter is also bound
// to, so the two can be compared.
func New(info *cpu.Information, cpuCtx cpu.Context, mem cpu.Memory) *Unicorn {
	return &Unicorn{
		info:      info,
		cpuCtx:    cpuCtx,
		mem:       mem,
		addrHooks: make(map[uint64]emulator.HookCallback),
	}
}

func (e *Unicorn) ensureEngine() error {
	var openErr error
	e.once.Do(func() {
		u, err := uc.NewUnicorn(uc.ARCH_X86, uc.MODE_32)
		if err != nil {
			openErr = errors.Wrap(err, "unicorn: NewUnicorn failed")
			return
		}
		e.u = u
	})
	return openErr
}

// syncIn mirrors this emulator's CpuContext registers and any PagedMemory
// pages into the native engine before a native run.
func (e *Unicorn) syncIn() error {
	for _, d := range e.info.Registers() {
		ucReg, ok := regByName[d.Name]
		if !ok {
			continue
		}
		v, ok := e.cpuCtx.ReadRegister(d.ID, d.Bits)
		if !ok {
			continue
		}
		if err := e.u.RegWrite(ucReg, v); err != nil {
			return errors.Wrapf(err, "unicorn: RegWrite(%s)", d.Name)
		}
	}
	if pm, ok := e.mem.(*cpu.PagedMemory); ok {
		for _, pg := range pm.Pages() {
			prot := pg.Prot
			if prot == 0 {
				prot = cpu.ProtAll
			}
			if err := e.u.MemMapProt(pg.Addr, pg.Size, prot); err != nil {
				// already mapped from a prior Execute call is fine
				continue
			}
			if err := e.u.MemWrite(pg.Addr, pg.Data); err != nil {
				return errors.Wrap(err, "unicorn: MemWrite during sync-in")
			}
		}
	}
	return nil
}

// syncOut mirrors native register/memory state back into the
// CpuContext/MemoryContext pair after a native run.
func (e *Unicorn) syncOut() error {
	for _, d := range e.info.Registers() {
		ucReg, ok := regByName[d.Name]
		if !ok {
			continue
		}
		v, err := e.u.RegRead(ucReg)
		if err != nil {
			continue
		}
		e.cpuCtx.WriteRegister(d.ID, v, d.Bits)
	}
	if pm, ok := e.mem.(*cpu.PagedMemory); ok {
		for _, pg := range pm.Pages() {
			data, err := e.u.MemRead(pg.Addr, pg.Size)
			if err != nil {
				continue
			}
			pm.WriteMemory(pg.Addr, data)
		}
	}
	return nil
}

// Execute runs the block natively. It counts the dump_insn markers in
// sems to know how many instructions the block covers, then drives a
// HOOK_CODE callback that fires the same dump_insn/check_exec_hook hook
// protocol the reference interpreter fires, stopping once the expected
// instruction count is reached or a hook asks to stop.
func (e *Unicorn) Execute(blockAddr uint64, sems []expr.Expression) bool {
	if err := e.ensureEngine(); err != nil {
		return false
	}
	if err := e.syncIn(); err != nil {
		return false
	}

	want := 0
	for _, s := range sems {
		if se, ok := s.(*expr.SystemExpr); ok && se.Name == "dump_insn" {
			want++
		}
	}
	if want == 0 {
		return true
	}

	executed := 0
	aborted := false
	hh, err := e.u.HookAdd(uc.HOOK_CODE, func(_ uc.Unicorn, addr uint64, size uint32) {
		e.mu.Lock()
		hooks := append([]emulator.HookCallback(nil), e.instrHooks...)
		addrHook, hasAddrHook := e.addrHooks[addr]
		e.mu.Unlock()

		for _, cb := range hooks {
			if !cb(addr) {
				aborted = true
				e.u.Stop()
				return
			}
		}
		if hasAddrHook && !addrHook(addr) {
			aborted = true
			e.u.Stop()
			return
		}
		executed++
		if executed >= want {
			e.u.Stop()
		}
	}, blockAddr, ^uint64(0))
	if err != nil {
		return false
	}
	defer e.u.HookDel(hh)

	// until=0: reliance is on the HOOK_CODE callback's explicit Stop(),
	// not on a fixed address bound, since a block may end in a branch to
	// an address this package has no independent way to predict.
	runErr := e.u.Start(blockAddr, 0)

	if err := e.syncOut(); err != nil {
		return false
	}
	if aborted {
		return false
	}
	return runErr == nil
}

func (e *Unicorn) AddHook(addr uint64, kind emulator.HookKind, cb emulator.HookCallback) bool {
	if kind != emulator.OnExecute {
		return false
	}
	e.mu.Lock()
	e.addrHooks[addr] = cb
	e.mu.Unlock()
	return true
}

func (e *Unicorn) AddHookOnInstruction(cb emulator.HookCallback) {
	e.mu.Lock()
	e.instrHooks = append(e.instrHooks, cb)
	e.mu.Unlock()
}

func (e *Unicorn) WriteMemory(addr uint64, buf []byte) bool {
	if err := e.ensureEngine(); err != nil {
		return e.mem.WriteMemory(addr, buf) == nil
	}
	if err := e.syncIn(); err != nil {
		return false
	}
	if err := e.u.MemWrite(addr, buf); err != nil {
		return false
	}
	return e.syncOut() == nil
}
