package expr

import (
	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
)

// VarAction enumerates what a VariableExpr does to its name-keyed slot
// in the evaluator's scratch store, per spec.md §3.3.
type VarAction int

const (
	VarAlloc VarAction = iota
	VarFree
	VarUse
)

func (a VarAction) String() string {
	switch a {
	case VarAlloc:
		return "alloc"
	case VarFree:
		return "free"
	case VarUse:
		return "use"
	default:
		return "?"
	}
}

// VariableExpr is a named, ssa-like scratch temporary, grounded on
// expression.cpp's VariableExpression. It is opaque to the tree: Read/
// Write go through cpu.Context's name-keyed scratch store (spec.md
// §4.2) rather than through a child expression, since it names a
// temporary that outlives any single sub-expression.
type VariableExpr struct {
	Name   string
	Action VarAction
	Bits   uint16
}

func (e *VariableExpr) Kind() Kind { return KindVariable }

// String renders per spec.md §6.2: `Var<w>[<alloc|free|use>] <name>`.
func (e *VariableExpr) String() string {
	return "Var" + itoa(int(e.Bits)) + "[" + e.Action.String() + "] " + e.Name
}

func (e *VariableExpr) Clone() Expression {
	return &VariableExpr{Name: e.Name, Action: e.Action, Bits: e.Bits}
}

func (e *VariableExpr) Visit(v Visitor) Expression {
	return v.VisitVariable(e)
}

func (e *VariableExpr) BitSize() uint16 { return e.Bits }

func (e *VariableExpr) UpdateChild(Expression, Expression) bool { return false }

func (e *VariableExpr) Compare(other Expression) CompareResult {
	o, ok := other.(*VariableExpr)
	if !ok {
		return Different
	}
	if e.Name != o.Name || e.Action != o.Action || e.Bits != o.Bits {
		return SameExpressionClass
	}
	return Identical
}

func (e *VariableExpr) Read(c cpu.Context, _ cpu.Memory, data []bitvec.BitVector) error {
	switch e.Action {
	case VarAlloc:
		c.AllocVariable(e.Name, e.Bits)
		if len(data) > 0 {
			data[0] = bitvec.New(e.Bits, 0)
		}
		return nil
	case VarFree:
		c.FreeVariable(e.Name)
		return nil
	case VarUse:
		if len(data) != 1 {
			return errWrongSlotCount
		}
		val, bits, ok := c.ReadVariable(e.Name)
		if !ok {
			return errRegisterIO
		}
		data[0] = bitvec.New(bits, val)
		return nil
	default:
		return errRegisterIO
	}
}

func (e *VariableExpr) Write(c cpu.Context, _ cpu.Memory, data []bitvec.BitVector) error {
	if len(data) == 0 {
		return errWrongSlotCount
	}
	if !c.WriteVariable(e.Name, data[0].Unsigned(), e.Bits) {
		return errRegisterIO
	}
	return nil
}

func (e *VariableExpr) GetAddress(cpu.Context, cpu.Memory) (Address, error) {
	return Address{}, errNotAddressable
}
