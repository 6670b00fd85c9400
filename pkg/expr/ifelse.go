package expr

import (
	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
)

// IfElseConditionExpr is the statement-form conditional, grounded on
// expression.cpp's IfElseConditionExpression. Then is required; Else may
// be nil (an if with no else), per spec.md §3.4. Both are normally a
// Bind wrapping several Assignments when more than one statement needs
// to execute in a branch.
type IfElseConditionExpr struct {
	notLocation
	conditionBase
	Then Expression
	Else Expression
}

func (e *IfElseConditionExpr) Kind() Kind { return KindIfElseCondition }

// String renders per spec.md §6.2: `if <cond> { <then> }` or
// `if <cond> { <then> } else { <else> }`.
func (e *IfElseConditionExpr) String() string {
	s := "if " + e.conditionBase.String() + " { " + e.Then.String() + " }"
	if e.Else != nil {
		s += " else { " + e.Else.String() + " }"
	}
	return s
}

func (e *IfElseConditionExpr) Clone() Expression {
	c := &IfElseConditionExpr{
		conditionBase: conditionBase{Cmp: e.Cmp, Ref: e.Ref.Clone(), Test: e.Test.Clone()},
		Then:          e.Then.Clone(),
	}
	if e.Else != nil {
		c.Else = e.Else.Clone()
	}
	return c
}

func (e *IfElseConditionExpr) Visit(v Visitor) Expression {
	e.Ref = e.Ref.Visit(v)
	e.Test = e.Test.Visit(v)
	e.Then = e.Then.Visit(v)
	if e.Else != nil {
		e.Else = e.Else.Visit(v)
	}
	return v.VisitIfElseCondition(e)
}

func (e *IfElseConditionExpr) BitSize() uint16 { return 0 }

func (e *IfElseConditionExpr) UpdateChild(old, new Expression) bool {
	switch {
	case e.conditionBase.updateChild(old, new):
		return true
	case e.Then == old:
		e.Then = new
		return true
	case e.Else == old:
		e.Else = new
		return true
	}
	if e.conditionBase.recurseChild(old, new) {
		return true
	}
	if e.Then.UpdateChild(old, new) {
		return true
	}
	return e.Else != nil && e.Else.UpdateChild(old, new)
}

func (e *IfElseConditionExpr) Compare(other Expression) CompareResult {
	o, ok := other.(*IfElseConditionExpr)
	if !ok {
		return Different
	}
	if e.conditionBase.compareBase(&o.conditionBase) != Identical {
		return SameExpressionClass
	}
	if (e.Else == nil) != (o.Else == nil) {
		return SameExpressionClass
	}
	if e.Then.Compare(o.Then) != Identical {
		return SameExpressionClass
	}
	if e.Else != nil && e.Else.Compare(o.Else) != Identical {
		return SameExpressionClass
	}
	return Identical
}

func (e *IfElseConditionExpr) Read(c cpu.Context, m cpu.Memory, _ []bitvec.BitVector) error {
	ok, err := e.eval(c, m)
	if err != nil {
		return err
	}
	if ok {
		return e.Then.Read(c, m, nil)
	}
	if e.Else != nil {
		return e.Else.Read(c, m, nil)
	}
	return nil
}
