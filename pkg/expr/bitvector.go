package expr

import (
	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
)

// BitVectorExpr is a literal integer/boolean value (boolean == width 1),
// grounded on expression.cpp's BitVectorExpression.
type BitVectorExpr struct {
	notLocation
	Value bitvec.BitVector
}

func (e *BitVectorExpr) Kind() Kind { return KindBitVector }

func (e *BitVectorExpr) String() string {
	return "int" + itoa(int(e.Value.BitSize())) + "(" + e.Value.String() + ")"
}

func (e *BitVectorExpr) Clone() Expression {
	return &BitVectorExpr{Value: e.Value}
}

func (e *BitVectorExpr) Visit(v Visitor) Expression {
	return v.VisitBitVector(e)
}

func (e *BitVectorExpr) BitSize() uint16 { return e.Value.BitSize() }

func (e *BitVectorExpr) UpdateChild(Expression, Expression) bool { return false }

func (e *BitVectorExpr) Compare(other Expression) CompareResult {
	o, ok := other.(*BitVectorExpr)
	if !ok {
		return Different
	}
	if e.Value.Unsigned() != o.Value.Unsigned() {
		return SameExpressionClass
	}
	return Identical
}

func (e *BitVectorExpr) Read(_ cpu.Context, _ cpu.Memory, data []bitvec.BitVector) error {
	if len(data) != 1 {
		return errWrongSlotCount
	}
	data[0] = e.Value
	return nil
}
