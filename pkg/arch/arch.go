// Package arch declares the Architecture plugin boundary the execution
// engine drives: disassembly of one instruction plus the semantics it
// lifts to. Grounded on go/models/arch.go's Arch/OS registration shape,
// generalized from a per-ISA struct to an interface so pkg/execution can
// depend on the role without depending on any concrete ISA package.
package arch

import (
	"io"

	"github.com/gunmetal313/medusa/pkg/cpu"
	"github.com/gunmetal313/medusa/pkg/expr"
)

// SubType classifies how an instruction ends its basic block, mirroring
// go/models/ins.go's instruction sub-typing.
type SubType int

const (
	SubNone SubType = iota
	SubBranch
	SubCall
	SubReturn
)

func (s SubType) String() string {
	switch s {
	case SubBranch:
		return "branch"
	case SubCall:
		return "call"
	case SubReturn:
		return "return"
	default:
		return "none"
	}
}

// Instruction is one decoded instruction: its address, encoded length,
// mnemonic (for disassembly listings), the block-ending classification,
// and the semantic expressions it lifts to.
type Instruction struct {
	Address   uint64
	Length    uint64
	Mnemonic  string
	OpStr     string
	SubType   SubType
	Semantics []expr.Expression
}

// Architecture is the consumed interface from spec.md §6.1: a factory for
// runtime contexts plus the disassemble/current-address operations the
// execution engine's fetch-decode-lift loop needs.
type Architecture interface {
	MakeCpuContext() cpu.Context
	MakeMemoryContext() cpu.Memory
	CpuInformation() *cpu.Information

	// Disassemble decodes one instruction from stream at offset (using
	// mode to select the instruction-set variant) and fills insn in place.
	Disassemble(stream io.ReaderAt, offset int64, insn *Instruction, mode uint8) error

	// CurrentAddress returns the architecture's notion of the PC visible
	// during an instruction's own execution - usually addr+insn.Length,
	// but not universally (delayed-branch RISC ISAs differ).
	CurrentAddress(addr expr.Address, insn *Instruction) expr.Address
}
