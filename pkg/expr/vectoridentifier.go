package expr

import (
	"strings"

	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
)

// VectorIdentifierExpr names an aggregate register (an FPU stack slot
// group, a SIMD lane group), grounded on expression.cpp's
// VectorIdentifierExpression. Read/Write follow a deque discipline: Read
// pushes each member's value to the front of the output in reverse
// member order, so the front of the result corresponds to the last id;
// Write consumes from the front in the same reversed order.
type VectorIdentifierExpr struct {
	IDs  []uint32
	Info *cpu.Information
}

func (e *VectorIdentifierExpr) Kind() Kind { return KindVectorIdentifier }

func (e *VectorIdentifierExpr) String() string {
	names := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		n, _ := e.Info.Name(id)
		names[i] = n
	}
	return "{ " + strings.Join(names, ", ") + " }"
}

func (e *VectorIdentifierExpr) Clone() Expression {
	ids := make([]uint32, len(e.IDs))
	copy(ids, e.IDs)
	return &VectorIdentifierExpr{IDs: ids, Info: e.Info}
}

func (e *VectorIdentifierExpr) Visit(v Visitor) Expression {
	return v.VisitVectorIdentifier(e)
}

func (e *VectorIdentifierExpr) BitSize() uint16 {
	var total uint16
	for _, id := range e.IDs {
		total += e.Info.BitSize(id)
	}
	return total
}

func (e *VectorIdentifierExpr) UpdateChild(Expression, Expression) bool { return false }

func (e *VectorIdentifierExpr) Compare(other Expression) CompareResult {
	o, ok := other.(*VectorIdentifierExpr)
	if !ok {
		return Different
	}
	if e.Info != o.Info || len(e.IDs) != len(o.IDs) {
		return SameExpressionClass
	}
	for i := range e.IDs {
		if e.IDs[i] != o.IDs[i] {
			return SameExpressionClass
		}
	}
	return Identical
}

func (e *VectorIdentifierExpr) Read(c cpu.Context, _ cpu.Memory, data []bitvec.BitVector) error {
	if len(data) != len(e.IDs) {
		return errWrongSlotCount
	}
	// front of data corresponds to the last id: iterate ids in reverse,
	// filling data from the front.
	for i := 0; i < len(e.IDs); i++ {
		id := e.IDs[len(e.IDs)-1-i]
		width := e.Info.BitSize(id)
		v, ok := c.ReadRegister(id, width)
		if !ok {
			return errRegisterIO
		}
		data[i] = bitvec.New(width, v)
	}
	return nil
}

func (e *VectorIdentifierExpr) Write(c cpu.Context, _ cpu.Memory, data []bitvec.BitVector) error {
	if len(data) != len(e.IDs) {
		return errWrongSlotCount
	}
	for i := 0; i < len(e.IDs); i++ {
		id := e.IDs[len(e.IDs)-1-i]
		width := e.Info.BitSize(id)
		if !c.WriteRegister(id, data[i].Unsigned(), width) {
			return errRegisterIO
		}
	}
	return nil
}

func (e *VectorIdentifierExpr) GetAddress(cpu.Context, cpu.Memory) (Address, error) {
	return Address{}, errNotAddressable
}
