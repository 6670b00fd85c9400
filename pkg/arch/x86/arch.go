// Package x86 implements the execution engine's Architecture plugin for a
// deliberately small 32-bit x86 instruction subset (SPEC_FULL.md §4.4).
// Disassembly is delegated to the vendored capstone-family engine,
// github.com/lunixbochs/capstr (go/cpu/capstr.go); this package's
// own job is pattern-matching the decoded mnemonic/operand text into
// expr.Make... semantics.
package x86

import (
	"io"

	capstr "github.com/lunixbochs/capstr"
	"github.com/pkg/errors"

	"github.com/gunmetal313/medusa/pkg/arch"
	"github.com/gunmetal313/medusa/pkg/cpu"
	"github.com/gunmetal313/medusa/pkg/expr"
)

// Mode32 is the only CPU mode this subset supports.
const Mode32 uint8 = 0

// maxInsnLen bounds how many bytes Disassemble reads ahead of offset -
// longer than any encoding in the supported subset needs.
const maxInsnLen = 15

// Architecture implements arch.Architecture for the x86-32 subset.
type Architecture struct {
	info   *cpu.Information
	engine *capstr.Engine
}

// New builds an x86-32 Architecture. Capstone initialization is deferred
// to the first Disassemble call, matching go/cpu/capstr.go's lazy Open.
func New() *Architecture {
	return &Architecture{info: newInformation()}
}

func (a *Architecture) CpuInformation() *cpu.Information { return a.info }

func (a *Architecture) MakeCpuContext() cpu.Context {
	return cpu.NewRegContext(a.info)
}

// MakeMemoryContext pre-maps a scratch stack region before the execution
// engine's Initialize loads the document's own segments into the same
// MemoryContext, since push/pop/ret need somewhere to write that a
// document's code/data segments won't themselves cover.
func (a *Architecture) MakeMemoryContext() cpu.Memory {
	m := cpu.NewPagedMemory()
	m.Map(stackBase, stackSize, cpu.ProtRead|cpu.ProtWrite, "stack")
	return m
}

func (a *Architecture) open() error {
	if a.engine != nil {
		return nil
	}
	engine, err := capstr.New(capstr.ARCH_X86, capstr.MODE_32)
	if err != nil {
		return errors.Wrap(err, "x86: capstone open failed")
	}
	a.engine = engine
	return nil
}

// Disassemble decodes one instruction from stream at offset. offset
// doubles as the instruction's virtual address (this package's documents
// are always built with a zero base, per SPEC_FULL.md §4.4's scope), so
// the decoded mnemonic's jump/call targets - which capstone resolves to
// absolute addresses - land correctly without this package tracking a
// separate base.
func (a *Architecture) Disassemble(stream io.ReaderAt, offset int64, insn *arch.Instruction, mode uint8) error {
	if err := a.open(); err != nil {
		return err
	}
	buf := make([]byte, maxInsnLen)
	n, err := stream.ReadAt(buf, offset)
	if n == 0 && err != nil {
		return errors.Wrap(err, "x86: read ahead of offset failed")
	}
	buf = buf[:n]

	addr := uint64(offset)
	decoded, err := a.engine.Dis(buf, addr, 1)
	if err != nil {
		return errors.Wrap(err, "x86: capstone disassembly failed")
	}
	if len(decoded) == 0 {
		return errors.Errorf("x86: no instruction decoded at %#x", addr)
	}
	ins := decoded[0]

	insn.Address = ins.Addr()
	insn.Length = uint64(len(ins.Bytes()))
	insn.Mnemonic = ins.Mnemonic()
	insn.OpStr = ins.OpStr()
	insn.SubType = arch.SubNone
	insn.Semantics = nil

	lift(insn, a.info)
	return nil
}

// CurrentAddress returns addr+insn.Length - x86 has no delayed-branch
// quirk, unlike the RISC aside spec.md §4.3 calls out.
func (a *Architecture) CurrentAddress(addr expr.Address, insn *arch.Instruction) expr.Address {
	return expr.Address{
		Base:       addr.Base,
		Offset:     addr.Offset + insn.Length,
		OffsetSize: 32,
	}
}
