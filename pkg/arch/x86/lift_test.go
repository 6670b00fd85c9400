package x86

import (
	"testing"

	"github.com/gunmetal313/medusa/pkg/arch"
	"github.com/gunmetal313/medusa/pkg/expr"
)

func TestLiftMov(t *testing.T) {
	info := newInformation()
	insn := &arch.Instruction{Mnemonic: "mov", OpStr: "eax, ebx"}
	lift(insn, info)

	if len(insn.Semantics) != 1 {
		t.Fatalf("expected 1 semantic, got %d", len(insn.Semantics))
	}
	a, ok := insn.Semantics[0].(*expr.AssignmentExpr)
	if !ok {
		t.Fatalf("expected AssignmentExpr, got %T", insn.Semantics[0])
	}
	dst, ok := a.Target.(*expr.IdentifierExpr)
	if !ok || dst.ID != RegEAX {
		t.Fatalf("expected target eax, got %+v", a.Target)
	}
	src, ok := a.Value.(*expr.IdentifierExpr)
	if !ok || src.ID != RegEBX {
		t.Fatalf("expected value ebx, got %+v", a.Value)
	}
}

func TestLiftMovImmediate(t *testing.T) {
	info := newInformation()
	insn := &arch.Instruction{Mnemonic: "mov", OpStr: "eax, 0x5"}
	lift(insn, info)

	if len(insn.Semantics) != 1 {
		t.Fatalf("expected 1 semantic, got %d", len(insn.Semantics))
	}
	a := insn.Semantics[0].(*expr.AssignmentExpr)
	bv, ok := a.Value.(*expr.BitVectorExpr)
	if !ok {
		t.Fatalf("expected BitVectorExpr, got %T", a.Value)
	}
	if bv.Value.Unsigned() != 5 {
		t.Fatalf("expected immediate 5, got %d", bv.Value.Unsigned())
	}
}

func TestLiftAdd(t *testing.T) {
	info := newInformation()
	insn := &arch.Instruction{Mnemonic: "add", OpStr: "eax, ebx"}
	lift(insn, info)

	a := insn.Semantics[0].(*expr.AssignmentExpr)
	bin, ok := a.Value.(*expr.BinaryOpExpr)
	if !ok || bin.Op != expr.BinaryAdd {
		t.Fatalf("expected BinaryAdd, got %+v", a.Value)
	}
}

func TestLiftPushPop(t *testing.T) {
	info := newInformation()

	push := &arch.Instruction{Mnemonic: "push", OpStr: "eax"}
	lift(push, info)
	if len(push.Semantics) != 1 {
		t.Fatalf("expected push to lift to 1 semantic, got %d", len(push.Semantics))
	}

	pop := &arch.Instruction{Mnemonic: "pop", OpStr: "eax"}
	lift(pop, info)
	if len(pop.Semantics) != 1 {
		t.Fatalf("expected pop to lift to 1 semantic, got %d", len(pop.Semantics))
	}
}

func TestLiftRetSetsSubReturn(t *testing.T) {
	info := newInformation()
	insn := &arch.Instruction{Mnemonic: "ret"}
	lift(insn, info)
	if insn.SubType != arch.SubReturn {
		t.Fatalf("expected SubReturn, got %v", insn.SubType)
	}
	if len(insn.Semantics) != 1 {
		t.Fatalf("expected 1 semantic, got %d", len(insn.Semantics))
	}
}

func TestLiftJmpSetsSubBranch(t *testing.T) {
	info := newInformation()
	insn := &arch.Instruction{Mnemonic: "jmp", OpStr: "0x100"}
	lift(insn, info)
	if insn.SubType != arch.SubBranch {
		t.Fatalf("expected SubBranch, got %v", insn.SubType)
	}
	a, ok := insn.Semantics[0].(*expr.AssignmentExpr)
	if !ok {
		t.Fatalf("expected AssignmentExpr, got %T", insn.Semantics[0])
	}
	dst, ok := a.Target.(*expr.IdentifierExpr)
	if !ok || dst.ID != RegEIP {
		t.Fatalf("expected jmp to assign eip, got %+v", a.Target)
	}
}

func TestLiftUnknownMnemonicIsEmptySemantics(t *testing.T) {
	info := newInformation()
	insn := &arch.Instruction{Mnemonic: "vfmadd213ps", OpStr: "xmm0, xmm1, xmm2"}
	lift(insn, info)
	if insn.Semantics != nil {
		t.Fatalf("expected no semantics for unsupported mnemonic, got %+v", insn.Semantics)
	}
}

func TestLiftNopHasNoSemantics(t *testing.T) {
	info := newInformation()
	insn := &arch.Instruction{Mnemonic: "nop"}
	lift(insn, info)
	if insn.Semantics != nil {
		t.Fatalf("expected nop to have no semantics, got %+v", insn.Semantics)
	}
}
