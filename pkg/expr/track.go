package expr

import (
	"strconv"

	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
)

// TrackExpr tags Inner with the address and position it was produced at,
// grounded on expression.cpp's TrackExpression - an annotation node a
// data-flow pass uses to remember provenance. It is semantically
// transparent: Read/Write/GetAddress simply delegate to Inner.
type TrackExpr struct {
	Inner    Expression
	Addr     Address
	Position uint8
}

func (e *TrackExpr) Kind() Kind { return KindTrack }

// String renders per spec.md §6.2: `Trk(<addr>, <pos>, <child>)`.
func (e *TrackExpr) String() string {
	return "Trk(" + e.Addr.String() + ", " + strconv.Itoa(int(e.Position)) + ", " + e.Inner.String() + ")"
}

func (e *TrackExpr) Clone() Expression {
	return &TrackExpr{Inner: e.Inner.Clone(), Addr: e.Addr, Position: e.Position}
}

func (e *TrackExpr) Visit(v Visitor) Expression {
	e.Inner = e.Inner.Visit(v)
	return v.VisitTrack(e)
}

func (e *TrackExpr) BitSize() uint16 { return e.Inner.BitSize() }

func (e *TrackExpr) UpdateChild(old, new Expression) bool {
	if e.Inner == old {
		e.Inner = new
		return true
	}
	return e.Inner.UpdateChild(old, new)
}

func (e *TrackExpr) Compare(other Expression) CompareResult {
	o, ok := other.(*TrackExpr)
	if !ok {
		return Different
	}
	if e.Addr != o.Addr || e.Position != o.Position {
		return SameExpressionClass
	}
	if e.Inner.Compare(o.Inner) == Identical {
		return Identical
	}
	return SameExpressionClass
}

func (e *TrackExpr) Read(c cpu.Context, m cpu.Memory, data []bitvec.BitVector) error {
	return e.Inner.Read(c, m, data)
}

func (e *TrackExpr) Write(c cpu.Context, m cpu.Memory, data []bitvec.BitVector) error {
	return e.Inner.Write(c, m, data)
}

func (e *TrackExpr) GetAddress(c cpu.Context, m cpu.Memory) (Address, error) {
	return e.Inner.GetAddress(c, m)
}
