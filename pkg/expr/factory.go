package expr

import (
	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
)

// The Make* functions are the construction surface architecture lifters
// are expected to use instead of building variant structs directly -
// matching the free-function factories expression.cpp exposes alongside
// each Expression subclass (MakeBitVectorExpression, and so on), and the
// sole surface spec.md §4.2 says tests rely on.

func MakeBitVector(v bitvec.BitVector) Expression { return &BitVectorExpr{Value: v} }

func MakeBoolean(v bool) Expression { return &BitVectorExpr{Value: bitvec.Bool(v)} }

func MakeIdentifier(id uint32, info *cpu.Information) Expression {
	return &IdentifierExpr{ID: id, Info: info}
}

func MakeVectorIdentifier(ids []uint32, info *cpu.Information) Expression {
	return &VectorIdentifierExpr{IDs: ids, Info: info}
}

// MakeMemory constructs a Memory expression with an explicit base
// (segment) sub-expression. Pass a nil base for a flat address.
func MakeMemory(base, offset Expression, size uint16, deref bool) Expression {
	return &MemoryExpr{Base: base, Offset: offset, Size: size, Dereference: deref}
}

func MakeUnaryOp(op UnaryOp, operand Expression) Expression {
	return &UnaryOpExpr{Op: op, Operand: operand}
}

func MakeBinaryOp(op BinaryOp, left, right Expression) Expression {
	return &BinaryOpExpr{Op: op, Left: left, Right: right}
}

func MakeAssignment(target, value Expression) Expression {
	return &AssignmentExpr{Target: target, Value: value}
}

func MakeTernaryCondition(cmp CmpKind, ref, test, ifTrue, ifFalse Expression) Expression {
	return &TernaryConditionExpr{
		conditionBase: conditionBase{Cmp: cmp, Ref: ref, Test: test},
		True:          ifTrue,
		False:         ifFalse,
	}
}

// MakeIfElseCondition constructs an if/else. Pass a nil els for an if
// with no else branch.
func MakeIfElseCondition(cmp CmpKind, ref, test, then, els Expression) Expression {
	return &IfElseConditionExpr{
		conditionBase: conditionBase{Cmp: cmp, Ref: ref, Test: test},
		Then:          then,
		Else:          els,
	}
}

func MakeWhileCondition(cmp CmpKind, ref, test, body Expression) Expression {
	return &WhileConditionExpr{
		conditionBase: conditionBase{Cmp: cmp, Ref: ref, Test: test},
		Body:          body,
	}
}

func MakeBind(children ...Expression) Expression {
	return &BindExpr{Children: children}
}

func MakeVariable(name string, action VarAction, bits uint16) Expression {
	return &VariableExpr{Name: name, Action: action, Bits: bits}
}

func MakeTrack(inner Expression, addr Address, position uint8) Expression {
	return &TrackExpr{Inner: inner, Addr: addr, Position: position}
}

func MakeSymbolic(kind SymbolicKind, label string, addr Address, bits uint16, child Expression) Expression {
	return &SymbolicExpr{SymKind: kind, Label: label, Addr: addr, Bits: bits, Child: child}
}

func MakeSystem(name string, addr Address) Expression {
	return &SystemExpr{Name: name, Addr: addr}
}
