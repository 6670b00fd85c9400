// Package expr implements the semantic expression tree: the polymorphic,
// visitable, clonable, structurally-comparable IR every architecture emits
// as the meaning of a decoded instruction. Grounded on
// original_source/src/core/expression.cpp (the C++ source this IR is
// ported from) and shaped, package- and file-wise, the way go/models
// shapes its own small value types (one concept per file).
package expr

import (
	"fmt"

	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
)

// Kind tags which variant an Expression is. Compare itself decides
// Different vs SameExpressionClass with a type assertion on the other
// node, not through Kind.
type Kind int

const (
	KindBitVector Kind = iota
	KindIdentifier
	KindVectorIdentifier
	KindMemory
	KindUnaryOp
	KindBinaryOp
	KindAssignment
	KindTernaryCondition
	KindIfElseCondition
	KindWhileCondition
	KindBind
	KindVariable
	KindTrack
	KindSymbolic
	KindSystem
)

// CompareResult is the three-valued outcome of structural comparison,
// per spec.md §3.4.
type CompareResult int

const (
	Identical CompareResult = iota
	SameExpressionClass
	Different
)

func (c CompareResult) String() string {
	switch c {
	case Identical:
		return "Identical"
	case SameExpressionClass:
		return "SameExpressionClass"
	default:
		return "Different"
	}
}

// Expression is the tagged-sum interface every node of the semantic tree
// implements. Read/Write/GetAddress are defined on every variant (as in
// expression.cpp). Write succeeds only on location-typed expressions
// (Identifier, VectorIdentifier, Variable, and Memory - a
// non-dereferenced one only when its offset is an Identifier) and
// GetAddress only on Memory; Track delegates both to the expression it
// wraps. Others report failure the way BitVectorExpression::Write always
// returns false.
type Expression interface {
	Kind() Kind
	String() string
	Clone() Expression
	Visit(v Visitor) Expression
	BitSize() uint16
	UpdateChild(old, new Expression) bool
	Compare(other Expression) CompareResult

	// Read fills data (one slot per unit read - a scalar location fills
	// exactly one) by evaluating or loading this expression's value.
	Read(c cpu.Context, m cpu.Memory, data []bitvec.BitVector) error
	// Write stores data into the location this expression names.
	Write(c cpu.Context, m cpu.Memory, data []bitvec.BitVector) error
	// GetAddress resolves this expression to a linear address, when it
	// names one (Memory, principally).
	GetAddress(c cpu.Context, m cpu.Memory) (Address, error)
}

// Address is the (base, offset) pair from spec.md §3.2. Equality and
// ordering are lexicographic on (Base, Offset). OffsetSize records the
// bit width the offset should be rendered/emitted at when the address is
// turned into a literal (the execution engine does this for the
// post-instruction program-counter assignment).
type Address struct {
	Base       uint64
	Offset     uint64
	OffsetSize uint16
}

// Compare returns -1, 0, 1 for lexicographic (Base, Offset) ordering.
func (a Address) Compare(b Address) int {
	if a.Base != b.Base {
		if a.Base < b.Base {
			return -1
		}
		return 1
	}
	if a.Offset != b.Offset {
		if a.Offset < b.Offset {
			return -1
		}
		return 1
	}
	return 0
}

func (a Address) String() string {
	if a.Base == 0 {
		return fmt.Sprintf("%#x", a.Offset)
	}
	return fmt.Sprintf("%#x:%#x", a.Base, a.Offset)
}

// notLocation is embedded by variants that are never a read/write
// location (BitVector, UnaryOp, BinaryOp, Assignment, Condition family,
// Bind, Symbolic, System) to give them the uniform "not a location" failure
// behavior without repeating it in each file.
type notLocation struct{}

func (notLocation) Write(cpu.Context, cpu.Memory, []bitvec.BitVector) error {
	return errNotAssignable
}

func (notLocation) GetAddress(cpu.Context, cpu.Memory) (Address, error) {
	return Address{}, errNotAddressable
}

var (
	errNotAssignable  = fmt.Errorf("expr: not an assignable location")
	errNotAddressable = fmt.Errorf("expr: expression has no address")
)
