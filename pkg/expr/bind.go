package expr

import (
	"strings"

	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
)

// BindExpr is an ordered, semicolon-joined sequence of expressions,
// grounded on expression.cpp's BindExpression - the compound-statement
// node a lifter reaches for when one instruction needs several
// Assignments in sequence. Per the clarification in
// original_source/src/core/expression.cpp, a length mismatch against
// another BindExpr compares Different, not SameExpressionClass - two
// binds of differing arity are never considered "the same shape".
type BindExpr struct {
	notLocation
	Children []Expression
}

func (e *BindExpr) Kind() Kind { return KindBind }

// String renders per spec.md §6.2: `<e1>; <e2>; …`.
func (e *BindExpr) String() string {
	parts := make([]string, len(e.Children))
	for i, c := range e.Children {
		parts[i] = c.String()
	}
	return strings.Join(parts, "; ")
}

func (e *BindExpr) Clone() Expression {
	children := make([]Expression, len(e.Children))
	for i, c := range e.Children {
		children[i] = c.Clone()
	}
	return &BindExpr{Children: children}
}

func (e *BindExpr) Visit(v Visitor) Expression {
	for i, c := range e.Children {
		e.Children[i] = c.Visit(v)
	}
	return v.VisitBind(e)
}

func (e *BindExpr) BitSize() uint16 {
	if len(e.Children) == 0 {
		return 0
	}
	return e.Children[len(e.Children)-1].BitSize()
}

func (e *BindExpr) UpdateChild(old, new Expression) bool {
	for i, c := range e.Children {
		if c == old {
			e.Children[i] = new
			return true
		}
	}
	for _, c := range e.Children {
		if c.UpdateChild(old, new) {
			return true
		}
	}
	return false
}

func (e *BindExpr) Compare(other Expression) CompareResult {
	o, ok := other.(*BindExpr)
	if !ok {
		return Different
	}
	if len(e.Children) != len(o.Children) {
		return Different
	}
	identical := true
	for i := range e.Children {
		if e.Children[i].Compare(o.Children[i]) != Identical {
			identical = false
			break
		}
	}
	if identical {
		return Identical
	}
	return SameExpressionClass
}

// Read executes every child in order for side effect and returns the
// last child's value, the usual "compound expression" discipline.
func (e *BindExpr) Read(c cpu.Context, m cpu.Memory, data []bitvec.BitVector) error {
	for i, child := range e.Children {
		if i == len(e.Children)-1 {
			if err := child.Read(c, m, data); err != nil {
				return err
			}
			continue
		}
		if err := child.Read(c, m, nil); err != nil {
			return err
		}
	}
	return nil
}
