package expr

import (
	"testing"

	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
)

const (
	regEAX uint32 = iota
	regEBX
	regEIP
)

func testInfo() *cpu.Information {
	return cpu.NewInformation([]cpu.RegisterDef{
		{ID: regEAX, Name: "eax", Bits: 32},
		{ID: regEBX, Name: "ebx", Bits: 32},
		{ID: regEIP, Name: "eip", Bits: 32, Role: cpu.ProgramPointerRegister},
	})
}

func testEnv() (cpu.Context, cpu.Memory) {
	info := testInfo()
	c := cpu.NewRegContext(info)
	m := cpu.NewPagedMemory()
	m.Map(0x1000, 0x1000, cpu.ProtAll, "test")
	return c, m
}

func readOne(t *testing.T, e Expression, c cpu.Context, m cpu.Memory) bitvec.BitVector {
	t.Helper()
	buf := make([]bitvec.BitVector, 1)
	if err := e.Read(c, m, buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	return buf[0]
}

// invariant: Compare is reflexive and Identical for equal literals.
func TestCompareIdenticalLiterals(t *testing.T) {
	a := MakeBitVector(bitvec.New(32, 5))
	b := MakeBitVector(bitvec.New(32, 5))
	if got := a.Compare(b); got != Identical {
		t.Fatalf("Compare = %v, want Identical", got)
	}
}

func TestCompareSameClassDifferentValue(t *testing.T) {
	a := MakeBitVector(bitvec.New(32, 5))
	b := MakeBitVector(bitvec.New(32, 6))
	if got := a.Compare(b); got != SameExpressionClass {
		t.Fatalf("Compare = %v, want SameExpressionClass", got)
	}
}

func TestCompareDifferentKind(t *testing.T) {
	info := testInfo()
	a := MakeBitVector(bitvec.New(32, 5))
	b := MakeIdentifier(regEAX, info)
	if got := a.Compare(b); got != Different {
		t.Fatalf("Compare = %v, want Different", got)
	}
}

func TestIdentifierComparePointerSensitive(t *testing.T) {
	info1 := testInfo()
	info2 := testInfo()
	a := MakeIdentifier(regEAX, info1)
	b := MakeIdentifier(regEAX, info2)
	if got := a.Compare(b); got != SameExpressionClass {
		t.Fatalf("Compare across distinct Information = %v, want SameExpressionClass", got)
	}
}

func TestClonePreservesIdentical(t *testing.T) {
	info := testInfo()
	orig := MakeIdentifier(regEAX, info)
	clone := orig.Clone()
	if orig == clone {
		t.Fatalf("Clone returned same pointer")
	}
	if got := orig.Compare(clone); got != Identical {
		t.Fatalf("Compare(orig, clone) = %v, want Identical", got)
	}
}

func TestIdentifierReadWriteRoundTrip(t *testing.T) {
	c, m := testEnv()
	info := c.Information()
	id := MakeIdentifier(regEAX, info)
	in := []bitvec.BitVector{bitvec.New(32, 0xdeadbeef)}
	if err := id.Write(c, m, in); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got := readOne(t, id, c, m)
	if got.Unsigned() != 0xdeadbeef {
		t.Fatalf("got %#x, want 0xdeadbeef", got.Unsigned())
	}
}

func TestIdentifierNotAddressable(t *testing.T) {
	c, m := testEnv()
	id := MakeIdentifier(regEAX, c.Information())
	if _, err := id.GetAddress(c, m); err == nil {
		t.Fatalf("GetAddress on a register should fail")
	}
}

func TestVectorIdentifierReverseOrderReadWrite(t *testing.T) {
	c, m := testEnv()
	info := c.Information()
	vec := MakeVectorIdentifier([]uint32{regEAX, regEBX}, info)
	// Write: front of data (index 0) lands in the last id (regEBX),
	// index 1 lands in regEAX.
	if err := vec.Write(c, m, []bitvec.BitVector{bitvec.New(32, 0xb), bitvec.New(32, 0xa)}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	eax, _ := c.ReadRegister(regEAX, 32)
	ebx, _ := c.ReadRegister(regEBX, 32)
	if eax != 0xa || ebx != 0xb {
		t.Fatalf("eax=%#x ebx=%#x, want eax=0xa ebx=0xb", eax, ebx)
	}
	data := make([]bitvec.BitVector, 2)
	if err := vec.Read(c, m, data); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if data[0].Unsigned() != 0xb || data[1].Unsigned() != 0xa {
		t.Fatalf("Read = %v, want [0xb, 0xa]", data)
	}
	if vec.BitSize() != 64 {
		t.Fatalf("BitSize = %d, want 64", vec.BitSize())
	}
}

func TestMemoryDereferenceReadWrite(t *testing.T) {
	c, m := testEnv()
	base := MakeBitVector(bitvec.New(32, 0))
	off := MakeBitVector(bitvec.New(32, 0x1008))
	cell := MakeMemory(base, off, 32, true)
	if err := cell.Write(c, m, []bitvec.BitVector{bitvec.New(32, 0x11223344)}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got := readOne(t, cell, c, m)
	if got.Unsigned() != 0x11223344 {
		t.Fatalf("got %#x, want 0x11223344", got.Unsigned())
	}
}

func TestMemoryEffectiveAddressIsNotWritable(t *testing.T) {
	c, m := testEnv()
	base := MakeBitVector(bitvec.New(32, 0))
	off := MakeBitVector(bitvec.New(32, 0x1008))
	lea := MakeMemory(base, off, 32, false)
	if err := lea.Write(c, m, []bitvec.BitVector{bitvec.New(32, 1)}); err == nil {
		t.Fatalf("Write on a non-dereferenced memory expression should fail")
	}
	addr, err := lea.GetAddress(c, m)
	if err != nil {
		t.Fatalf("GetAddress: %v", err)
	}
	if addr.Offset != 0x1008 {
		t.Fatalf("Offset = %#x, want 0x1008", addr.Offset)
	}
}

func TestMemoryNonDereferencedWritesThroughIdentifierOffset(t *testing.T) {
	c, m := testEnv()
	info := c.Information()
	off := MakeIdentifier(regEAX, info)
	lea := MakeMemory(nil, off, 32, false)
	if err := lea.Write(c, m, []bitvec.BitVector{bitvec.New(32, 0x77)}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	eax, _ := c.ReadRegister(regEAX, 32)
	if eax != 0x77 {
		t.Fatalf("eax = %#x, want 0x77", eax)
	}
}

func TestBinaryOpAdd(t *testing.T) {
	c, m := testEnv()
	sum := MakeBinaryOp(BinaryAdd, MakeBitVector(bitvec.New(32, 2)), MakeBitVector(bitvec.New(32, 3)))
	got := readOne(t, sum, c, m)
	if got.Unsigned() != 5 {
		t.Fatalf("got %d, want 5", got.Unsigned())
	}
}

func TestBinaryOpDivByZeroPropagatesError(t *testing.T) {
	c, m := testEnv()
	div := MakeBinaryOp(BinaryUDiv, MakeBitVector(bitvec.New(32, 2)), MakeBitVector(bitvec.New(32, 0)))
	buf := make([]bitvec.BitVector, 1)
	if err := div.Read(c, m, buf); err == nil {
		t.Fatalf("expected division-by-zero error")
	}
}

func TestBinaryOpBitSizeMaxOfOperands(t *testing.T) {
	add := MakeBinaryOp(BinaryAdd, MakeBitVector(bitvec.New(8, 1)), MakeBitVector(bitvec.New(32, 2)))
	if got := add.BitSize(); got != 32 {
		t.Fatalf("BitSize = %d, want 32", got)
	}
}

func TestBinaryOpSignExtendTakesWidthFromLiteralRight(t *testing.T) {
	c, m := testEnv()
	ext := MakeBinaryOp(BinarySignExtend, MakeBitVector(bitvec.New(8, 0xff)), MakeBitVector(bitvec.New(16, 32)))
	if got := ext.BitSize(); got != 32 {
		t.Fatalf("BitSize = %d, want 32", got)
	}
	got := readOne(t, ext, c, m)
	if got.Unsigned() != 0xffffffff {
		t.Fatalf("got %#x, want 0xffffffff", got.Unsigned())
	}
}

func TestUnaryOpNeg(t *testing.T) {
	c, m := testEnv()
	neg := MakeUnaryOp(UnaryNeg, MakeBitVector(bitvec.New(32, 1)))
	got := readOne(t, neg, c, m)
	if got.Unsigned() != 0xffffffff {
		t.Fatalf("got %#x, want 0xffffffff", got.Unsigned())
	}
}

func TestAssignmentWritesTarget(t *testing.T) {
	c, m := testEnv()
	info := c.Information()
	target := MakeIdentifier(regEAX, info)
	assign := MakeAssignment(target, MakeBitVector(bitvec.New(32, 42)))
	if err := assign.Read(c, m, nil); err != nil {
		t.Fatalf("Read: %v", err)
	}
	eax, _ := c.ReadRegister(regEAX, 32)
	if eax != 42 {
		t.Fatalf("eax = %d, want 42", eax)
	}
}

// TestAssignmentGrammar pins spec.md §6.2's `(<dst> = <src>)` form,
// scenario S3's exact literal output for a self-xor zeroing idiom.
func TestAssignmentGrammar(t *testing.T) {
	info := testInfo()
	eax := func() Expression { return MakeIdentifier(regEAX, info) }
	assign := MakeAssignment(eax(), MakeBinaryOp(BinaryXor, eax(), eax()))
	want := "(Id32(eax) = (Id32(eax) ^ Id32(eax)))"
	if got := assign.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestTernaryConditionSelectsBranch(t *testing.T) {
	c, m := testEnv()
	ref := MakeBitVector(bitvec.New(32, 1))
	test := MakeBitVector(bitvec.New(32, 1))
	tern := MakeTernaryCondition(CmpEq, ref, test, MakeBitVector(bitvec.New(32, 1)), MakeBitVector(bitvec.New(32, 2)))
	got := readOne(t, tern, c, m)
	if got.Unsigned() != 1 {
		t.Fatalf("got %d, want 1", got.Unsigned())
	}
}

func TestTernaryConditionGrammar(t *testing.T) {
	ref := MakeBitVector(bitvec.New(32, 1))
	test := MakeBitVector(bitvec.New(32, 2))
	tern := MakeTernaryCondition(CmpEq, ref, test, MakeBitVector(bitvec.New(32, 3)), MakeBitVector(bitvec.New(32, 4)))
	want := "(int32(0x1) == int32(0x2)) ? (int32(0x3)) : int32(0x4))"
	if got := tern.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestIfElseExecutesCorrectBranch(t *testing.T) {
	c, m := testEnv()
	info := c.Information()
	target := MakeIdentifier(regEAX, info)
	ref := MakeBitVector(bitvec.New(32, 1))
	test := MakeBitVector(bitvec.New(32, 2))
	ifelse := MakeIfElseCondition(CmpEq, ref, test,
		MakeAssignment(target, MakeBitVector(bitvec.New(32, 1))),
		MakeAssignment(target, MakeBitVector(bitvec.New(32, 2))),
	)
	if err := ifelse.Read(c, m, nil); err != nil {
		t.Fatalf("Read: %v", err)
	}
	eax, _ := c.ReadRegister(regEAX, 32)
	if eax != 2 {
		t.Fatalf("eax = %d, want 2 (else branch)", eax)
	}
}

func TestIfElseWithoutElseIsNoopWhenFalse(t *testing.T) {
	c, m := testEnv()
	info := c.Information()
	target := MakeIdentifier(regEAX, info)
	target.Write(c, m, []bitvec.BitVector{bitvec.New(32, 9)})
	ref := MakeBitVector(bitvec.New(32, 1))
	test := MakeBitVector(bitvec.New(32, 2))
	ifelse := MakeIfElseCondition(CmpEq, ref, test, MakeAssignment(target, MakeBitVector(bitvec.New(32, 1))), nil)
	if err := ifelse.Read(c, m, nil); err != nil {
		t.Fatalf("Read: %v", err)
	}
	eax, _ := c.ReadRegister(regEAX, 32)
	if eax != 9 {
		t.Fatalf("eax = %d, want 9 (unchanged)", eax)
	}
}

func TestWhileConditionLoopsUntilFalse(t *testing.T) {
	c, m := testEnv()
	info := c.Information()
	counter := MakeIdentifier(regEAX, info)
	counter.Write(c, m, []bitvec.BitVector{bitvec.New(32, 0)})
	body := MakeAssignment(counter, MakeBinaryOp(BinaryAdd, counter, MakeBitVector(bitvec.New(32, 1))))
	loop := MakeWhileCondition(CmpULt, counter, MakeBitVector(bitvec.New(32, 5)), body)
	if err := loop.Read(c, m, nil); err != nil {
		t.Fatalf("Read: %v", err)
	}
	eax, _ := c.ReadRegister(regEAX, 32)
	if eax != 5 {
		t.Fatalf("eax = %d, want 5", eax)
	}
}

func TestBindExecutesSequenceAndReturnsLast(t *testing.T) {
	c, m := testEnv()
	info := c.Information()
	target := MakeIdentifier(regEAX, info)
	bind := MakeBind(
		MakeAssignment(target, MakeBitVector(bitvec.New(32, 1))),
		MakeAssignment(target, MakeBinaryOp(BinaryAdd, target, MakeBitVector(bitvec.New(32, 6)))),
	)
	got := readOne(t, bind, c, m)
	if got.Unsigned() != 7 {
		t.Fatalf("got %d, want 7", got.Unsigned())
	}
	eax, _ := c.ReadRegister(regEAX, 32)
	if eax != 7 {
		t.Fatalf("eax = %d, want 7", eax)
	}
}

func TestBindLengthMismatchIsDifferent(t *testing.T) {
	a := MakeBind(MakeBitVector(bitvec.New(32, 1)))
	b := MakeBind(MakeBitVector(bitvec.New(32, 1)), MakeBitVector(bitvec.New(32, 2)))
	if got := a.Compare(b); got != Different {
		t.Fatalf("Compare = %v, want Different", got)
	}
}

func TestVariableAllocUseFree(t *testing.T) {
	c, m := testEnv()
	alloc := MakeVariable("tmp", VarAlloc, 32)
	if err := alloc.Read(c, m, nil); err != nil {
		t.Fatalf("alloc Read: %v", err)
	}
	use := MakeVariable("tmp", VarUse, 32)
	if err := use.Write(c, m, []bitvec.BitVector{bitvec.New(32, 55)}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got := readOne(t, use, c, m)
	if got.Unsigned() != 55 {
		t.Fatalf("got %d, want 55", got.Unsigned())
	}
	free := MakeVariable("tmp", VarFree, 32)
	if err := free.Read(c, m, nil); err != nil {
		t.Fatalf("free Read: %v", err)
	}
	buf := make([]bitvec.BitVector, 1)
	if err := use.Read(c, m, buf); err == nil {
		t.Fatalf("expected error reading a freed variable")
	}
}

func TestSystemExprReportsSideEffect(t *testing.T) {
	c, m := testEnv()
	sys := MakeSystem("dump_insn", Address{Offset: 0x4000})
	if err := sys.Read(c, m, nil); err != ErrSystemCall {
		t.Fatalf("Read err = %v, want ErrSystemCall", err)
	}
}

func TestSymbolicReadsUnconstrainedZero(t *testing.T) {
	c, m := testEnv()
	sym := MakeSymbolic(SymUndefined, "x", Address{Offset: 0x2000}, 16, nil)
	got := readOne(t, sym, c, m)
	if !got.IsZero() {
		t.Fatalf("expected zero, got %#x", got.Unsigned())
	}
	if sym.BitSize() != 16 {
		t.Fatalf("BitSize = %d, want 16", sym.BitSize())
	}
}

func TestSymbolicDelegatesToChildWhenPresent(t *testing.T) {
	c, m := testEnv()
	child := MakeBitVector(bitvec.New(32, 77))
	sym := MakeSymbolic(SymReturnValue, "ret", Address{Offset: 0x2000}, 32, child)
	got := readOne(t, sym, c, m)
	if got.Unsigned() != 77 {
		t.Fatalf("got %d, want 77", got.Unsigned())
	}
}

func TestTrackIsTransparent(t *testing.T) {
	c, m := testEnv()
	info := c.Information()
	id := MakeIdentifier(regEAX, info)
	tracked := MakeTrack(id, Address{Offset: 0x3000}, 0)
	if err := tracked.Write(c, m, []bitvec.BitVector{bitvec.New(32, 9)}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got := readOne(t, tracked, c, m)
	if got.Unsigned() != 9 {
		t.Fatalf("got %d, want 9", got.Unsigned())
	}
}

func TestUpdateChildRewritesBinaryOperand(t *testing.T) {
	left := MakeBitVector(bitvec.New(32, 1))
	right := MakeBitVector(bitvec.New(32, 2))
	add := MakeBinaryOp(BinaryAdd, left, right)
	replacement := MakeBitVector(bitvec.New(32, 99))
	if !add.UpdateChild(right, replacement) {
		t.Fatalf("UpdateChild reported no match")
	}
	c, m := testEnv()
	got := readOne(t, add, c, m)
	if got.Unsigned() != 100 {
		t.Fatalf("got %d, want 100 (1 + 99)", got.Unsigned())
	}
}

// rewriteVisitor replaces every BitVector literal equal to `from` with `to`.
type rewriteVisitor struct {
	BaseVisitor
	from, to bitvec.BitVector
}

func (r *rewriteVisitor) VisitBitVector(e *BitVectorExpr) Expression {
	if e.Value.Unsigned() == r.from.Unsigned() {
		return &BitVectorExpr{Value: r.to}
	}
	return e
}

// TestUpdateChildRecursesIntoGrandchildren covers spec.md §4.2's UpdateChild
// contract: a target nested below the immediate children must still be
// found by recursing into each direct child in turn.
func TestUpdateChildRecursesIntoGrandchildren(t *testing.T) {
	leaf := MakeBitVector(bitvec.New(32, 7))
	inner := MakeBinaryOp(BinaryAdd, leaf, MakeBitVector(bitvec.New(32, 1)))
	outer := MakeBinaryOp(BinaryAnd, MakeBitVector(bitvec.New(32, 0xff)), inner)
	replacement := MakeBitVector(bitvec.New(32, 99))

	if !outer.UpdateChild(leaf, replacement) {
		t.Fatalf("UpdateChild reported no match for a grandchild")
	}
	got := inner.(*BinaryOpExpr).Left
	if got.Compare(replacement) != Identical {
		t.Fatalf("grandchild not replaced: %s", got)
	}
}

// TestUpdateChildReplacesOnlyFirstPreOrderMatch is scenario S5: when
// old_leaf occurs twice, only the first occurrence discovered in
// pre-order is replaced.
func TestUpdateChildReplacesOnlyFirstPreOrderMatch(t *testing.T) {
	shared := MakeBitVector(bitvec.New(32, 7))
	left := MakeBinaryOp(BinaryAdd, shared, MakeBitVector(bitvec.New(32, 1)))
	right := MakeBinaryOp(BinaryAdd, shared, MakeBitVector(bitvec.New(32, 2)))
	root := MakeBinaryOp(BinaryAnd, left, right)
	replacement := MakeBitVector(bitvec.New(32, 99))

	if !root.UpdateChild(shared, replacement) {
		t.Fatalf("UpdateChild reported no match")
	}
	leftOperand := left.(*BinaryOpExpr).Left
	rightOperand := right.(*BinaryOpExpr).Left
	if leftOperand.Compare(replacement) != Identical {
		t.Fatalf("left occurrence not replaced: %s", leftOperand)
	}
	if rightOperand != shared {
		t.Fatalf("right occurrence should be untouched, got %s", rightOperand)
	}
}

func TestVisitRewritesTree(t *testing.T) {
	c, m := testEnv()
	expr := MakeBinaryOp(BinaryAdd, MakeBitVector(bitvec.New(32, 1)), MakeBitVector(bitvec.New(32, 2)))
	rewritten := expr.Visit(&rewriteVisitor{from: bitvec.New(32, 2), to: bitvec.New(32, 40)})
	got := readOne(t, rewritten, c, m)
	if got.Unsigned() != 41 {
		t.Fatalf("got %d, want 41", got.Unsigned())
	}
}

func TestAddressCompareLexicographic(t *testing.T) {
	a := Address{Base: 1, Offset: 5}
	b := Address{Base: 1, Offset: 6}
	if a.Compare(b) != -1 {
		t.Fatalf("Compare = %d, want -1", a.Compare(b))
	}
	if b.Compare(a) != 1 {
		t.Fatalf("Compare = %d, want 1", b.Compare(a))
	}
	if a.Compare(a) != 0 {
		t.Fatalf("Compare = %d, want 0", a.Compare(a))
	}
}
