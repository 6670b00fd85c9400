package expr

import (
	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
)

// BinaryOp enumerates the two-operand operations a lifter can emit,
// grounded on expression.cpp's eBinaryOperator and spec.md §3.3's binary
// op list. Comparisons live on CmpKind/conditionBase instead - the
// source's BinaryOperatorExpression and ConditionExpression are sibling
// classes, not one merged enum.
type BinaryOp int

const (
	BinaryXchg BinaryOp = iota
	BinaryAnd
	BinaryOr
	BinaryXor
	BinaryLsl
	BinaryLsr
	BinaryAsr
	BinaryRol
	BinaryRor
	BinaryAdd
	BinaryAddFloat
	BinarySub
	BinaryMul
	BinarySDiv
	BinaryUDiv
	BinarySMod
	BinaryUMod
	BinarySignExtend
	BinaryZeroExtend
	BinaryInsertBits
	BinaryExtractBits
	BinaryBroadcast
)

// String renders the operator symbol per spec.md §6.2's binary-op
// grammar.
func (op BinaryOp) String() string {
	switch op {
	case BinaryXchg:
		return "xchg"
	case BinaryAnd:
		return "&"
	case BinaryOr:
		return "|"
	case BinaryXor:
		return "^"
	case BinaryLsl:
		return "<<"
	case BinaryLsr:
		return ">>{u}"
	case BinaryAsr:
		return ">>{s}"
	case BinaryRol:
		return "rol"
	case BinaryRor:
		return "ror"
	case BinaryAdd:
		return "+"
	case BinaryAddFloat:
		return "+{f}"
	case BinarySub:
		return "-"
	case BinaryMul:
		return "*"
	case BinarySDiv:
		return "/{s}"
	case BinaryUDiv:
		return "/{u}"
	case BinarySMod:
		return "%{s}"
	case BinaryUMod:
		return "%{u}"
	case BinarySignExtend:
		return "↗{s}"
	case BinaryZeroExtend:
		return "↗{z}"
	case BinaryInsertBits:
		return "<insert_bits>"
	case BinaryExtractBits:
		return "<extract_bits>"
	case BinaryBroadcast:
		return "<bcast>"
	default:
		return "?"
	}
}

// BinaryOpExpr is a two-operand operation over Left and Right, grounded
// on expression.cpp's BinaryOperatorExpression. For SignExtend,
// ZeroExtend and Broadcast, Right supplies the new width / lane width as
// a literal BitVector rather than a value to combine; for ExtractBits,
// Right's value packs lo in its low half and hi in its high half via
// Extract's own (lo, hi) convention, decoded in Read below.
type BinaryOpExpr struct {
	notLocation
	Op    BinaryOp
	Left  Expression
	Right Expression
}

func (e *BinaryOpExpr) Kind() Kind { return KindBinaryOp }

func (e *BinaryOpExpr) String() string {
	return "(" + e.Left.String() + " " + e.Op.String() + " " + e.Right.String() + ")"
}

func (e *BinaryOpExpr) Clone() Expression {
	return &BinaryOpExpr{Op: e.Op, Left: e.Left.Clone(), Right: e.Right.Clone()}
}

func (e *BinaryOpExpr) Visit(v Visitor) Expression {
	e.Left = e.Left.Visit(v)
	e.Right = e.Right.Visit(v)
	return v.VisitBinaryOp(e)
}

// BitSize implements spec.md §8 invariant 5 (max(l, r)) for every op
// whose result width doesn't change with a literal width operand.
// SignExtend, ZeroExtend and ExtractBits compute their real output width
// from a literal Right operand when one is present (the only form a
// lifter ever emits them with), falling back to max(l, r) otherwise;
// InsertBits and Broadcast always report Left's width.
func (e *BinaryOpExpr) BitSize() uint16 {
	switch e.Op {
	case BinarySignExtend, BinaryZeroExtend:
		if lit, ok := e.Right.(*BitVectorExpr); ok {
			return uint16(lit.Value.Unsigned())
		}
	case BinaryExtractBits:
		if lit, ok := e.Right.(*BitVectorExpr); ok {
			lo := uint16(lit.Value.Unsigned() & 0xffff)
			hi := uint16(lit.Value.Unsigned() >> 16)
			return hi - lo
		}
	case BinaryInsertBits, BinaryBroadcast:
		return e.Left.BitSize()
	}
	l, r := e.Left.BitSize(), e.Right.BitSize()
	if l > r {
		return l
	}
	return r
}

func (e *BinaryOpExpr) UpdateChild(old, new Expression) bool {
	switch {
	case e.Left == old:
		e.Left = new
		return true
	case e.Right == old:
		e.Right = new
		return true
	}
	if e.Left.UpdateChild(old, new) {
		return true
	}
	return e.Right.UpdateChild(old, new)
}

func (e *BinaryOpExpr) Compare(other Expression) CompareResult {
	o, ok := other.(*BinaryOpExpr)
	if !ok {
		return Different
	}
	if e.Op != o.Op {
		return SameExpressionClass
	}
	if e.Left.Compare(o.Left) == Identical && e.Right.Compare(o.Right) == Identical {
		return Identical
	}
	return SameExpressionClass
}

func (e *BinaryOpExpr) Read(c cpu.Context, m cpu.Memory, data []bitvec.BitVector) error {
	if len(data) != 1 {
		return errWrongSlotCount
	}
	lbuf := make([]bitvec.BitVector, 1)
	if err := e.Left.Read(c, m, lbuf); err != nil {
		return err
	}
	rbuf := make([]bitvec.BitVector, 1)
	if err := e.Right.Read(c, m, rbuf); err != nil {
		return err
	}
	l, r := lbuf[0], rbuf[0]
	var err error
	var out bitvec.BitVector
	switch e.Op {
	case BinaryXchg:
		out = r
	case BinaryAnd:
		out = l.And(r)
	case BinaryOr:
		out = l.Or(r)
	case BinaryXor:
		out = l.Xor(r)
	case BinaryLsl:
		out = l.Lsl(r)
	case BinaryLsr:
		out = l.Lsr(r)
	case BinaryAsr:
		out = l.Asr(r)
	case BinaryRol:
		out = l.Rol(r)
	case BinaryRor:
		out = l.Ror(r)
	case BinaryAdd, BinaryAddFloat:
		out = l.Add(r)
	case BinarySub:
		out = l.Sub(r)
	case BinaryMul:
		out = l.Mul(r)
	case BinarySDiv:
		out, err = l.SDiv(r)
	case BinaryUDiv:
		out, err = l.UDiv(r)
	case BinarySMod:
		out, err = l.SMod(r)
	case BinaryUMod:
		out, err = l.UMod(r)
	case BinarySignExtend:
		out = l.SignExtend(uint16(r.Unsigned()))
	case BinaryZeroExtend:
		out = l.ZeroExtend(uint16(r.Unsigned()))
	case BinaryBroadcast:
		out = l.Broadcast(uint16(r.Unsigned()))
	case BinaryInsertBits:
		out = l.Insert(uint16(r.Unsigned()&0xffff), r)
	case BinaryExtractBits:
		lo := uint16(r.Unsigned() & 0xffff)
		hi := uint16(r.Unsigned() >> 16)
		out = l.Extract(lo, hi)
	default:
		return errRegisterIO
	}
	if err != nil {
		return err
	}
	data[0] = out
	return nil
}
