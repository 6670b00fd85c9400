package expr

import (
	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
)

// IdentifierExpr names a register, grounded on expression.cpp's
// IdentifierExpression. It carries a pointer to the architecture's
// Information dictionary rather than its own width so renaming a
// register in the dictionary can't desync from the tree.
type IdentifierExpr struct {
	ID   uint32
	Info *cpu.Information
}

func (e *IdentifierExpr) Kind() Kind { return KindIdentifier }

func (e *IdentifierExpr) String() string {
	name, ok := e.Info.Name(e.ID)
	if !ok {
		return ""
	}
	return "Id" + itoa(int(e.Info.BitSize(e.ID))) + "(" + name + ")"
}

func (e *IdentifierExpr) Clone() Expression {
	return &IdentifierExpr{ID: e.ID, Info: e.Info}
}

func (e *IdentifierExpr) Visit(v Visitor) Expression {
	return v.VisitIdentifier(e)
}

func (e *IdentifierExpr) BitSize() uint16 { return e.Info.BitSize(e.ID) }

func (e *IdentifierExpr) UpdateChild(Expression, Expression) bool { return false }

func (e *IdentifierExpr) Compare(other Expression) CompareResult {
	o, ok := other.(*IdentifierExpr)
	if !ok {
		return Different
	}
	if e.ID != o.ID || e.Info != o.Info {
		return SameExpressionClass
	}
	return Identical
}

func (e *IdentifierExpr) Read(c cpu.Context, _ cpu.Memory, data []bitvec.BitVector) error {
	if len(data) != 1 {
		return errWrongSlotCount
	}
	width := e.Info.BitSize(e.ID)
	v, ok := c.ReadRegister(e.ID, width)
	if !ok {
		return errRegisterIO
	}
	data[0] = bitvec.New(width, v)
	return nil
}

func (e *IdentifierExpr) Write(c cpu.Context, _ cpu.Memory, data []bitvec.BitVector) error {
	if len(data) == 0 {
		return errWrongSlotCount
	}
	width := e.Info.BitSize(e.ID)
	if !c.WriteRegister(e.ID, data[0].Unsigned(), width) {
		return errRegisterIO
	}
	return nil
}

func (e *IdentifierExpr) GetAddress(cpu.Context, cpu.Memory) (Address, error) {
	return Address{}, errNotAddressable
}
