package execution

import (
	"io"
	"testing"

	"github.com/pkg/errors"

	"github.com/gunmetal313/medusa/pkg/arch"
	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
	"github.com/gunmetal313/medusa/pkg/document"
	_ "github.com/gunmetal313/medusa/pkg/emulator/interp"
	"github.com/gunmetal313/medusa/pkg/expr"
)

const (
	regEAX uint32 = iota
	regEIP
)

// fakeArch is a minimal arch.Architecture that never actually
// disassembles - tests feed pre-built Document cells directly, the way
// pkg/arch/x86's own lift is exercised independently of capstone in
// lift_test.go. Its Disassemble always fails, so Execute's outer loop
// terminates cleanly the first time it walks off the end of the
// pre-populated cells, rather than needing a real encoded instruction
// stream.
type fakeArch struct {
	info *cpu.Information
}

func newFakeArch() *fakeArch {
	return &fakeArch{info: cpu.NewInformation([]cpu.RegisterDef{
		{ID: regEAX, Name: "eax", Bits: 32},
		{ID: regEIP, Name: "eip", Bits: 32, Role: cpu.ProgramPointerRegister},
	})}
}

func (a *fakeArch) MakeCpuContext() cpu.Context        { return cpu.NewRegContext(a.info) }
func (a *fakeArch) MakeMemoryContext() cpu.Memory      { return cpu.NewPagedMemory() }
func (a *fakeArch) CpuInformation() *cpu.Information   { return a.info }
func (a *fakeArch) Disassemble(io.ReaderAt, int64, *arch.Instruction, uint8) error {
	return errors.New("fakeArch: disassembly not supported")
}
func (a *fakeArch) CurrentAddress(addr expr.Address, insn *arch.Instruction) expr.Address {
	return expr.Address{Base: addr.Base, Offset: addr.Offset + insn.Length, OffsetSize: 32}
}

func TestExecuteRunsPrebuiltBlock(t *testing.T) {
	ar := newFakeArch()
	doc := document.New(make([]byte, 4), 0)
	doc.SetCell(0, document.Cell{
		Kind: document.CellInstruction,
		Insn: &arch.Instruction{
			Length:  1,
			SubType: arch.SubReturn,
			Semantics: []expr.Expression{
				expr.MakeAssignment(expr.MakeIdentifier(regEAX, ar.info), expr.MakeBitVector(bitvec.New(32, 5))),
			},
		},
	}, true)

	ex := New(doc, ar)
	if err := ex.Initialize(0, nil, nil, ""); err != nil {
		t.Fatal(err)
	}
	if err := ex.SetEmulator("interp"); err != nil {
		t.Fatal(err)
	}
	if err := ex.Execute(expr.Address{Offset: 0}); err != nil {
		t.Fatal(err)
	}

	v, ok := ex.CpuContext().ReadRegister(regEAX, 32)
	if !ok || v != 5 {
		t.Fatalf("expected eax=5, got %d ok=%v", v, ok)
	}
}

func TestExecuteWithoutEmulatorFails(t *testing.T) {
	ar := newFakeArch()
	doc := document.New(make([]byte, 4), 0)
	ex := New(doc, ar)
	if err := ex.Initialize(0, nil, nil, ""); err != nil {
		t.Fatal(err)
	}
	if err := ex.Execute(expr.Address{Offset: 0}); err == nil {
		t.Fatal("expected Execute to fail before SetEmulator")
	}
}

func TestHookFunctionRequiresImportedOrFunctionLabel(t *testing.T) {
	ar := newFakeArch()
	doc := document.New(make([]byte, 4), 0)
	doc.AddLabel("plain", 0, 0)
	ex := New(doc, ar)
	if err := ex.Initialize(0, nil, nil, ""); err != nil {
		t.Fatal(err)
	}
	if err := ex.SetEmulator("interp"); err != nil {
		t.Fatal(err)
	}
	if err := ex.HookFunction("plain", func(uint64) bool { return true }); err == nil {
		t.Fatal("expected HookFunction to reject a label with no Imported/Function role")
	}
}

func TestHookFunctionUnknownLabel(t *testing.T) {
	ar := newFakeArch()
	doc := document.New(make([]byte, 4), 0)
	ex := New(doc, ar)
	if err := ex.Initialize(0, nil, nil, ""); err != nil {
		t.Fatal(err)
	}
	if err := ex.SetEmulator("interp"); err != nil {
		t.Fatal(err)
	}
	if err := ex.HookFunction("nope", func(uint64) bool { return true }); err == nil {
		t.Fatal("expected HookFunction to fail for an unregistered label")
	}
}

func TestHookFunctionRegistersAndGetHookName(t *testing.T) {
	ar := newFakeArch()
	doc := document.New(make([]byte, 16), 0)
	doc.AddLabel("memcpy", 2, document.Imported|document.Function)
	ex := New(doc, ar)
	if err := ex.Initialize(0, nil, nil, ""); err != nil {
		t.Fatal(err)
	}
	if err := ex.SetEmulator("interp"); err != nil {
		t.Fatal(err)
	}

	if err := ex.HookFunction("memcpy", func(uint64) bool { return false }); err != nil {
		t.Fatal(err)
	}

	pcID, pcBits, err := ex.pcRegister()
	if err != nil {
		t.Fatal(err)
	}
	var fake uint64
	for addr, name := range ex.hooks {
		if name == "memcpy" {
			fake = addr
		}
	}
	if fake == 0 {
		t.Fatal("expected a fake address to be recorded for memcpy")
	}
	ex.cpuCtx.WriteRegister(pcID, fake, pcBits)
	if got := ex.GetHookName(); got != "memcpy" {
		t.Fatalf("expected GetHookName to resolve %q, got %q", "memcpy", got)
	}
}
