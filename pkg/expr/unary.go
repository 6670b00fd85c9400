package expr

import (
	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
)

// UnaryOp enumerates the single-operand operations a lifter can emit,
// grounded on expression.cpp's eUnaryOperator.
type UnaryOp int

const (
	UnaryNot UnaryOp = iota
	UnaryNeg
	UnarySwap
	UnaryBsf
	UnaryBsr
)

func (op UnaryOp) String() string {
	switch op {
	case UnaryNot:
		return "~"
	case UnaryNeg:
		return "-"
	case UnarySwap:
		return "⇄"
	case UnaryBsf:
		return "bsf"
	case UnaryBsr:
		return "bsr"
	default:
		return "?"
	}
}

// UnaryOpExpr is a single-operand arithmetic/logical operation over its
// Operand subtree, grounded on expression.cpp's UnaryOperatorExpression.
type UnaryOpExpr struct {
	notLocation
	Op      UnaryOp
	Operand Expression
}

func (e *UnaryOpExpr) Kind() Kind { return KindUnaryOp }

// String renders per spec.md §6.2: `<op>(<child>)`.
func (e *UnaryOpExpr) String() string {
	return e.Op.String() + "(" + e.Operand.String() + ")"
}

func (e *UnaryOpExpr) Clone() Expression {
	return &UnaryOpExpr{Op: e.Op, Operand: e.Operand.Clone()}
}

func (e *UnaryOpExpr) Visit(v Visitor) Expression {
	e.Operand = e.Operand.Visit(v)
	return v.VisitUnaryOp(e)
}

func (e *UnaryOpExpr) BitSize() uint16 { return e.Operand.BitSize() }

func (e *UnaryOpExpr) UpdateChild(old, new Expression) bool {
	if e.Operand == old {
		e.Operand = new
		return true
	}
	return e.Operand.UpdateChild(old, new)
}

func (e *UnaryOpExpr) Compare(other Expression) CompareResult {
	o, ok := other.(*UnaryOpExpr)
	if !ok {
		return Different
	}
	if e.Op != o.Op {
		return SameExpressionClass
	}
	if e.Operand.Compare(o.Operand) == Identical {
		return Identical
	}
	return SameExpressionClass
}

func (e *UnaryOpExpr) Read(c cpu.Context, m cpu.Memory, data []bitvec.BitVector) error {
	if len(data) != 1 {
		return errWrongSlotCount
	}
	buf := make([]bitvec.BitVector, 1)
	if err := e.Operand.Read(c, m, buf); err != nil {
		return err
	}
	v := buf[0]
	switch e.Op {
	case UnaryNot:
		data[0] = v.Not()
	case UnaryNeg:
		data[0] = v.Neg()
	case UnarySwap:
		data[0] = v.Swap()
	case UnaryBsf:
		data[0] = bitvec.New(v.BitSize(), bsf(v))
	case UnaryBsr:
		data[0] = bitvec.New(v.BitSize(), bsr(v))
	default:
		return errRegisterIO
	}
	return nil
}

func bsf(v bitvec.BitVector) uint64 {
	u := v.Unsigned()
	if u == 0 {
		return uint64(v.BitSize())
	}
	var i uint64
	for u&1 == 0 {
		u >>= 1
		i++
	}
	return i
}

func bsr(v bitvec.BitVector) uint64 {
	u := v.Unsigned()
	if u == 0 {
		return uint64(v.BitSize())
	}
	var i uint64
	for u != 0 {
		u >>= 1
		i++
	}
	return i - 1
}
