package expr

import (
	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
)

// SymbolicKind enumerates what a SymbolicExpr stands in for, per
// spec.md §3.3.
type SymbolicKind int

const (
	SymUnknown SymbolicKind = iota
	SymReturnValue
	SymParameter
	SymUndefined
)

func (k SymbolicKind) String() string {
	switch k {
	case SymUnknown:
		return "Unknown"
	case SymReturnValue:
		return "ReturnValue"
	case SymParameter:
		return "Parameter"
	case SymUndefined:
		return "Undefined"
	default:
		return "?"
	}
}

// SymbolicExpr stands in for a value the lifter could not resolve
// concretely (an indirect jump target before the emulator has picked a
// branch, a function's return value before it is called), grounded on
// expression.cpp's SymbolicExpression. Child is optional (nil when
// absent); when present it is what Read delegates to, letting a
// solver-backed Emulator still see a concrete fallback shape. Write and
// GetAddress always fail, as for any non-location node. The
// reference interpreter in pkg/emulator/interp has no constraint solver,
// so a childless SymbolicExpr reads as zero of the declared width.
type SymbolicExpr struct {
	notLocation
	SymKind SymbolicKind
	Label   string
	Addr    Address
	Child   Expression
	Bits    uint16
}

func (e *SymbolicExpr) Kind() Kind { return KindSymbolic }

// String renders per spec.md §6.2: `Sym(<kind>, "<value>", <addr>[, <child>])`.
func (e *SymbolicExpr) String() string {
	s := "Sym(" + e.SymKind.String() + ", \"" + e.Label + "\", " + e.Addr.String()
	if e.Child != nil {
		s += ", " + e.Child.String()
	}
	return s + ")"
}

func (e *SymbolicExpr) Clone() Expression {
	c := &SymbolicExpr{SymKind: e.SymKind, Label: e.Label, Addr: e.Addr, Bits: e.Bits}
	if e.Child != nil {
		c.Child = e.Child.Clone()
	}
	return c
}

func (e *SymbolicExpr) Visit(v Visitor) Expression {
	if e.Child != nil {
		e.Child = e.Child.Visit(v)
	}
	return v.VisitSymbolic(e)
}

func (e *SymbolicExpr) BitSize() uint16 {
	if e.Child != nil {
		return e.Child.BitSize()
	}
	return e.Bits
}

func (e *SymbolicExpr) UpdateChild(old, new Expression) bool {
	if e.Child == old {
		e.Child = new
		return true
	}
	return e.Child != nil && e.Child.UpdateChild(old, new)
}

func (e *SymbolicExpr) Compare(other Expression) CompareResult {
	o, ok := other.(*SymbolicExpr)
	if !ok {
		return Different
	}
	if e.SymKind != o.SymKind || e.Label != o.Label || e.Addr != o.Addr {
		return SameExpressionClass
	}
	if (e.Child == nil) != (o.Child == nil) {
		return SameExpressionClass
	}
	if e.Child != nil && e.Child.Compare(o.Child) != Identical {
		return SameExpressionClass
	}
	return Identical
}

func (e *SymbolicExpr) Read(c cpu.Context, m cpu.Memory, data []bitvec.BitVector) error {
	if e.Child != nil {
		return e.Child.Read(c, m, data)
	}
	if len(data) != 1 {
		return errWrongSlotCount
	}
	data[0] = bitvec.New(e.Bits, 0)
	return nil
}
