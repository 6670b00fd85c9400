package expr

import (
	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
)

// CmpKind enumerates the comparison kinds shared by every Condition
// variant, per spec.md §3.3's Condition base row.
type CmpKind int

const (
	CmpEq CmpKind = iota
	CmpNe
	CmpUGt
	CmpUGe
	CmpULt
	CmpULe
	CmpSGt
	CmpSGe
	CmpSLt
	CmpSLe
)

func (k CmpKind) String() string {
	switch k {
	case CmpEq:
		return "=="
	case CmpNe:
		return "!="
	case CmpUGt:
		return "u>"
	case CmpUGe:
		return "u>="
	case CmpULt:
		return "u<"
	case CmpULe:
		return "u<="
	case CmpSGt:
		return "s>"
	case CmpSGe:
		return "s>="
	case CmpSLt:
		return "s<"
	case CmpSLe:
		return "s<="
	default:
		return "?"
	}
}

// conditionBase is the "Condition (base)" row of spec.md §3.3, embedded
// by TernaryConditionExpr/IfElseConditionExpr/WhileConditionExpr rather
// than expressed as its own Expression variant - Go has no class
// hierarchy to hang a genuine abstract base off of, so each concrete
// condition variant composes this struct the way the original composes
// by inheritance. Ref and Test are never nil per spec.md §3.4.
type conditionBase struct {
	Cmp  CmpKind
	Ref  Expression
	Test Expression
}

func (b *conditionBase) compareBase(o *conditionBase) CompareResult {
	if b.Cmp != o.Cmp {
		return SameExpressionClass
	}
	if b.Ref.Compare(o.Ref) == Identical && b.Test.Compare(o.Test) == Identical {
		return Identical
	}
	return SameExpressionClass
}

// updateChild handles only the direct-child identity swaps on Ref/Test;
// callers recurse into Ref/Test themselves (via recurseChild) once every
// direct child across the whole node - including their own True/False,
// Then/Else, Body - has been checked, preserving pre-order search.
func (b *conditionBase) updateChild(old, new Expression) bool {
	switch {
	case b.Ref == old:
		b.Ref = new
	case b.Test == old:
		b.Test = new
	default:
		return false
	}
	return true
}

// recurseChild descends into Ref then Test, in construction order.
func (b *conditionBase) recurseChild(old, new Expression) bool {
	if b.Ref.UpdateChild(old, new) {
		return true
	}
	return b.Test.UpdateChild(old, new)
}

func (b *conditionBase) String() string {
	return "(" + b.Ref.String() + " " + b.Cmp.String() + " " + b.Test.String() + ")"
}

// eval evaluates Ref <Cmp> Test and returns the boolean result.
func (b *conditionBase) eval(c cpu.Context, m cpu.Memory) (bool, error) {
	rbuf := make([]bitvec.BitVector, 1)
	if err := b.Ref.Read(c, m, rbuf); err != nil {
		return false, err
	}
	tbuf := make([]bitvec.BitVector, 1)
	if err := b.Test.Read(c, m, tbuf); err != nil {
		return false, err
	}
	ref, test := rbuf[0], tbuf[0]
	switch b.Cmp {
	case CmpEq:
		return ref.Eq(test), nil
	case CmpNe:
		return !ref.Eq(test), nil
	case CmpUGt:
		return test.ULess(ref), nil
	case CmpUGe:
		return test.ULessEq(ref), nil
	case CmpULt:
		return ref.ULess(test), nil
	case CmpULe:
		return ref.ULessEq(test), nil
	case CmpSGt:
		return test.SLess(ref), nil
	case CmpSGe:
		return test.SLessEq(ref), nil
	case CmpSLt:
		return ref.SLess(test), nil
	case CmpSLe:
		return ref.SLessEq(test), nil
	default:
		return false, errRegisterIO
	}
}
