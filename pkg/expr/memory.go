package expr

import (
	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
)

// MemoryExpr names a memory location as an optional base-segment plus a
// byte offset, grounded on expression.cpp's MemoryExpression. Base and
// Offset are themselves sub-expressions (an Identifier for a segment
// register, a BinaryOp computing an effective address, ...) evaluated
// through Read rather than stored as raw values, so a rewrite pass can
// substitute either child like any other node. Base may be nil (a flat,
// unsegmented address). Size is the width, in bits, of the value the
// memory cell holds; Dereference distinguishes "the address this
// computes" (effective-address style, as in LEA) from "the value stored
// at that address" (an ordinary load/store).
type MemoryExpr struct {
	Base        Expression
	Offset      Expression
	Size        uint16
	Dereference bool
}

func (e *MemoryExpr) Kind() Kind { return KindMemory }

// String renders per spec.md §6.2: `Mem<w>(<base>:<off>)` when Base is
// present, `Mem<w>(<off>)` otherwise; a non-dereferenced node uses
// `Addr` in place of `Mem`.
func (e *MemoryExpr) String() string {
	name := "Mem"
	if !e.Dereference {
		name = "Addr"
	}
	body := e.Offset.String()
	if e.Base != nil {
		body = e.Base.String() + ":" + body
	}
	return name + itoa(int(e.Size)) + "(" + body + ")"
}

func (e *MemoryExpr) Clone() Expression {
	c := &MemoryExpr{Offset: e.Offset.Clone(), Size: e.Size, Dereference: e.Dereference}
	if e.Base != nil {
		c.Base = e.Base.Clone()
	}
	return c
}

func (e *MemoryExpr) Visit(v Visitor) Expression {
	if e.Base != nil {
		e.Base = e.Base.Visit(v)
	}
	e.Offset = e.Offset.Visit(v)
	return v.VisitMemory(e)
}

func (e *MemoryExpr) BitSize() uint16 {
	return e.Size
}

func (e *MemoryExpr) UpdateChild(old, new Expression) bool {
	switch {
	case e.Base == old:
		e.Base = new
		return true
	case e.Offset == old:
		e.Offset = new
		return true
	}
	if e.Base != nil && e.Base.UpdateChild(old, new) {
		return true
	}
	return e.Offset.UpdateChild(old, new)
}

func (e *MemoryExpr) Compare(other Expression) CompareResult {
	o, ok := other.(*MemoryExpr)
	if !ok {
		return Different
	}
	if e.Size != o.Size || e.Dereference != o.Dereference {
		return SameExpressionClass
	}
	if (e.Base == nil) != (o.Base == nil) {
		return SameExpressionClass
	}
	if e.Base != nil && e.Base.Compare(o.Base) != Identical {
		return SameExpressionClass
	}
	if e.Offset.Compare(o.Offset) != Identical {
		return SameExpressionClass
	}
	return Identical
}

// resolve computes the (base, offset) pair this node names, per
// spec.md §4.2's Memory row.
func (e *MemoryExpr) resolve(c cpu.Context, m cpu.Memory) (Address, error) {
	var base uint64
	if e.Base != nil {
		baseBuf := make([]bitvec.BitVector, 1)
		if err := e.Base.Read(c, m, baseBuf); err != nil {
			return Address{}, err
		}
		base = baseBuf[0].Unsigned()
	}
	offBuf := make([]bitvec.BitVector, 1)
	if err := e.Offset.Read(c, m, offBuf); err != nil {
		return Address{}, err
	}
	return Address{Base: base, Offset: offBuf[0].Unsigned(), OffsetSize: e.Offset.BitSize()}, nil
}

// linearize resolves and translates to a linear address, falling back
// to the raw offset if CpuContext::Translate fails (spec.md §4.2).
func (e *MemoryExpr) linearize(c cpu.Context, m cpu.Memory) (uint64, Address, error) {
	addr, err := e.resolve(c, m)
	if err != nil {
		return 0, Address{}, err
	}
	if lin, ok := c.Translate(addr.Base + addr.Offset); ok {
		return lin, addr, nil
	}
	return addr.Offset, addr, nil
}

func (e *MemoryExpr) GetAddress(c cpu.Context, m cpu.Memory) (Address, error) {
	return e.resolve(c, m)
}

func (e *MemoryExpr) Read(c cpu.Context, m cpu.Memory, data []bitvec.BitVector) error {
	if !e.Dereference {
		addr, err := e.resolve(c, m)
		if err != nil {
			return err
		}
		if len(data) != 1 {
			return errWrongSlotCount
		}
		data[0] = bitvec.New(e.Size, addr.Offset)
		return nil
	}
	lin, _, err := e.linearize(c, m)
	if err != nil {
		return err
	}
	nbytes := (int(e.Size) + 7) / 8
	for i := range data {
		raw, err := m.ReadMemory(lin+uint64(i*nbytes), nbytes)
		if err != nil {
			return err
		}
		data[i] = bitvec.New(e.Size, bytesToUint64(raw))
	}
	return nil
}

// Write stores to the dereferenced memory cell(s). When the node is not
// dereferenced, spec.md §4.2 defines Write only when Offset is itself an
// Identifier, storing the datum into that register directly (the
// "compute an address, but the destination turned out to be a bare
// register" edge case some lifters rely on); any other non-dereferenced
// shape is not a location.
func (e *MemoryExpr) Write(c cpu.Context, m cpu.Memory, data []bitvec.BitVector) error {
	if !e.Dereference {
		if id, ok := e.Offset.(*IdentifierExpr); ok {
			return id.Write(c, m, data)
		}
		return errNotAssignable
	}
	lin, _, err := e.linearize(c, m)
	if err != nil {
		return err
	}
	nbytes := (int(e.Size) + 7) / 8
	for i, d := range data {
		if err := m.WriteMemory(lin+uint64(i*nbytes), uint64ToBytes(d.Unsigned(), nbytes)); err != nil {
			return err
		}
	}
	return nil
}

func bytesToUint64(b []byte) uint64 {
	var v uint64
	for i, by := range b {
		v |= uint64(by) << (8 * uint(i))
	}
	return v
}

func uint64ToBytes(v uint64, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = byte(v >> (8 * uint(i)))
	}
	return out
}
