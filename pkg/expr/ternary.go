package expr

import (
	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
)

// TernaryConditionExpr is the value-producing conditional (`cond ? a :
// b`), grounded on expression.cpp's TernaryConditionExpression. Unlike
// IfElseConditionExpr/WhileConditionExpr it is a value, not a
// statement: Read evaluates exactly one of True/False depending on the
// embedded condition and never touches the other, so a lifted `cmov`
// can be expressed without executing both sides' side effects.
type TernaryConditionExpr struct {
	notLocation
	conditionBase
	True  Expression
	False Expression
}

func (e *TernaryConditionExpr) Kind() Kind { return KindTernaryCondition }

// String renders per spec.md §6.2: `<cond> ? (<true>) : <false>)`.
func (e *TernaryConditionExpr) String() string {
	return e.conditionBase.String() + " ? (" + e.True.String() + ") : " + e.False.String() + ")"
}

func (e *TernaryConditionExpr) Clone() Expression {
	return &TernaryConditionExpr{
		conditionBase: conditionBase{Cmp: e.Cmp, Ref: e.Ref.Clone(), Test: e.Test.Clone()},
		True:          e.True.Clone(),
		False:         e.False.Clone(),
	}
}

func (e *TernaryConditionExpr) Visit(v Visitor) Expression {
	e.Ref = e.Ref.Visit(v)
	e.Test = e.Test.Visit(v)
	e.True = e.True.Visit(v)
	e.False = e.False.Visit(v)
	return v.VisitTernaryCondition(e)
}

func (e *TernaryConditionExpr) BitSize() uint16 { return e.True.BitSize() }

func (e *TernaryConditionExpr) UpdateChild(old, new Expression) bool {
	switch {
	case e.conditionBase.updateChild(old, new):
		return true
	case e.True == old:
		e.True = new
		return true
	case e.False == old:
		e.False = new
		return true
	}
	if e.conditionBase.recurseChild(old, new) {
		return true
	}
	if e.True.UpdateChild(old, new) {
		return true
	}
	return e.False.UpdateChild(old, new)
}

func (e *TernaryConditionExpr) Compare(other Expression) CompareResult {
	o, ok := other.(*TernaryConditionExpr)
	if !ok {
		return Different
	}
	if e.conditionBase.compareBase(&o.conditionBase) != Identical {
		return SameExpressionClass
	}
	if e.True.Compare(o.True) == Identical && e.False.Compare(o.False) == Identical {
		return Identical
	}
	return SameExpressionClass
}

func (e *TernaryConditionExpr) Read(c cpu.Context, m cpu.Memory, data []bitvec.BitVector) error {
	ok, err := e.eval(c, m)
	if err != nil {
		return err
	}
	if ok {
		return e.True.Read(c, m, data)
	}
	return e.False.Read(c, m, data)
}
