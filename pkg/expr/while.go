package expr

import (
	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
)

// maxWhileIterations bounds WhileConditionExpr's loop so a miscompiled
// or adversarial condition (one that never flips) can't hang the
// execution engine; real lifted loops (string/memory instructions with
// a `rep` prefix) always terminate well inside this bound.
const maxWhileIterations = 1 << 24

// WhileConditionExpr repeats Body while the embedded condition evaluates
// true, grounded on expression.cpp's WhileConditionExpression - the
// shape a lifter reaches for with `rep movs`/`rep stos` style repeated
// string instructions. Body is a single expression (typically a Bind)
// rather than a statement list, matching spec.md §3.3's attribute table.
type WhileConditionExpr struct {
	notLocation
	conditionBase
	Body Expression
}

func (e *WhileConditionExpr) Kind() Kind { return KindWhileCondition }

// String renders per spec.md §6.2: `while <cond> { <body> }`.
func (e *WhileConditionExpr) String() string {
	return "while " + e.conditionBase.String() + " { " + e.Body.String() + " }"
}

func (e *WhileConditionExpr) Clone() Expression {
	return &WhileConditionExpr{
		conditionBase: conditionBase{Cmp: e.Cmp, Ref: e.Ref.Clone(), Test: e.Test.Clone()},
		Body:          e.Body.Clone(),
	}
}

func (e *WhileConditionExpr) Visit(v Visitor) Expression {
	e.Ref = e.Ref.Visit(v)
	e.Test = e.Test.Visit(v)
	e.Body = e.Body.Visit(v)
	return v.VisitWhileCondition(e)
}

func (e *WhileConditionExpr) BitSize() uint16 { return 0 }

func (e *WhileConditionExpr) UpdateChild(old, new Expression) bool {
	switch {
	case e.conditionBase.updateChild(old, new):
		return true
	case e.Body == old:
		e.Body = new
		return true
	}
	if e.conditionBase.recurseChild(old, new) {
		return true
	}
	return e.Body.UpdateChild(old, new)
}

func (e *WhileConditionExpr) Compare(other Expression) CompareResult {
	o, ok := other.(*WhileConditionExpr)
	if !ok {
		return Different
	}
	if e.conditionBase.compareBase(&o.conditionBase) != Identical {
		return SameExpressionClass
	}
	if e.Body.Compare(o.Body) == Identical {
		return Identical
	}
	return SameExpressionClass
}

func (e *WhileConditionExpr) Read(c cpu.Context, m cpu.Memory, _ []bitvec.BitVector) error {
	for i := 0; i < maxWhileIterations; i++ {
		ok, err := e.eval(c, m)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := e.Body.Read(c, m, nil); err != nil {
			return err
		}
	}
	return errRegisterIO
}
