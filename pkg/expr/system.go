package expr

import (
	"github.com/pkg/errors"

	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
)

// ErrSystemCall is returned by SystemExpr.Read to signal a synthetic
// out-of-band marker (`dump_insn`, `check_exec_hook`) rather than an
// evaluation failure. The reference interpreter in pkg/emulator/interp
// recognizes SystemExpr nodes by type and fires tracing/hook processing
// for them without calling Read.
var ErrSystemCall = errors.New("expr: system marker")

// SystemExpr is a synthetic marker with no direct semantics, grounded on
// expression.cpp's SystemExpression - the node the execution engine
// splices before and after every lifted instruction's semantics
// (spec.md §4.3 steps 5 and 9) so the emulator gets a predictable,
// instruction-granularity sync point without the engine knowing
// anything about tracing or hooks.
type SystemExpr struct {
	notLocation
	Name string
	Addr Address
}

func (e *SystemExpr) Kind() Kind { return KindSystem }

// String renders per spec.md §6.2: `<addr> <name>`.
func (e *SystemExpr) String() string {
	return e.Addr.String() + " " + e.Name
}

func (e *SystemExpr) Clone() Expression {
	return &SystemExpr{Name: e.Name, Addr: e.Addr}
}

func (e *SystemExpr) Visit(v Visitor) Expression {
	return v.VisitSystem(e)
}

func (e *SystemExpr) BitSize() uint16 { return 0 }

func (e *SystemExpr) UpdateChild(Expression, Expression) bool { return false }

func (e *SystemExpr) Compare(other Expression) CompareResult {
	o, ok := other.(*SystemExpr)
	if !ok {
		return Different
	}
	if e.Name != o.Name || e.Addr != o.Addr {
		return SameExpressionClass
	}
	return Identical
}

func (e *SystemExpr) Read(cpu.Context, cpu.Memory, []bitvec.BitVector) error {
	return ErrSystemCall
}
