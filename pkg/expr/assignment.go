package expr

import (
	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
)

// AssignmentExpr evaluates Value and stores it into Target, grounded on
// expression.cpp's AssignmentExpression. It is the statement form every
// lifted instruction ultimately bottoms out in: a list of
// AssignmentExprs is what architecture lifters hand back to the
// execution engine as "the meaning of this instruction".
type AssignmentExpr struct {
	notLocation
	Target Expression
	Value  Expression
}

func (e *AssignmentExpr) Kind() Kind { return KindAssignment }

func (e *AssignmentExpr) String() string {
	return "(" + e.Target.String() + " = " + e.Value.String() + ")"
}

func (e *AssignmentExpr) Clone() Expression {
	return &AssignmentExpr{Target: e.Target.Clone(), Value: e.Value.Clone()}
}

func (e *AssignmentExpr) Visit(v Visitor) Expression {
	e.Target = e.Target.Visit(v)
	e.Value = e.Value.Visit(v)
	return v.VisitAssignment(e)
}

func (e *AssignmentExpr) BitSize() uint16 { return e.Target.BitSize() }

func (e *AssignmentExpr) UpdateChild(old, new Expression) bool {
	switch {
	case e.Target == old:
		e.Target = new
		return true
	case e.Value == old:
		e.Value = new
		return true
	}
	if e.Target.UpdateChild(old, new) {
		return true
	}
	return e.Value.UpdateChild(old, new)
}

func (e *AssignmentExpr) Compare(other Expression) CompareResult {
	o, ok := other.(*AssignmentExpr)
	if !ok {
		return Different
	}
	if e.Target.Compare(o.Target) == Identical && e.Value.Compare(o.Value) == Identical {
		return Identical
	}
	return SameExpressionClass
}

// Read evaluates Value, stores it into Target, and also hands the stored
// value back through data - an assignment is usable as an rvalue the way
// C's `=` operator is (`mov eax, (ebx = 1)` style chaining never appears
// in lifted code today, but the execution engine's top-level statement
// loop reads each AssignmentExpr the same way it reads any other node).
func (e *AssignmentExpr) Read(c cpu.Context, m cpu.Memory, data []bitvec.BitVector) error {
	width := e.Target.BitSize()
	slots := (int(width) + 63) / 64
	if slots == 0 {
		slots = 1
	}
	buf := make([]bitvec.BitVector, slots)
	if err := e.Value.Read(c, m, buf); err != nil {
		return err
	}
	if err := e.Target.Write(c, m, buf); err != nil {
		return err
	}
	if len(data) > 0 {
		copy(data, buf)
	}
	return nil
}
