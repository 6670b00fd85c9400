package trace

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Op kinds. SPEC_FULL.md §4.8 narrows the tracer down to the two kinds
// its Recorder actually emits: one record per instruction stepped, one
// per register write observed.
const (
	OpKindStep = 1
	OpKindReg  = 2
)

var order = binary.LittleEndian

// Op is one packed trace record, the same small Pack/Unpack shape as
// go/models/trace/ops.go's Op variants.
type Op interface {
	Pack(w io.Writer) error
}

// OpStep records one instruction's address, emitted from the dump_insn
// sync point via an instruction hook.
type OpStep struct {
	Addr uint64
}

func (o *OpStep) Pack(w io.Writer) error {
	var buf [9]byte
	buf[0] = OpKindStep
	order.PutUint64(buf[1:], o.Addr)
	_, err := w.Write(buf[:])
	return err
}

func (o *OpStep) Unpack(r io.Reader) error {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	o.Addr = order.Uint64(buf[:])
	return nil
}

// OpReg records one register write's register id and new value, observed
// through a wrapping CpuContext.
type OpReg struct {
	Id  uint32
	Val uint64
}

func (o *OpReg) Pack(w io.Writer) error {
	var buf [13]byte
	buf[0] = OpKindReg
	order.PutUint32(buf[1:], o.Id)
	order.PutUint64(buf[5:], o.Val)
	_, err := w.Write(buf[:])
	return err
}

func (o *OpReg) Unpack(r io.Reader) error {
	var buf [12]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	o.Id = order.Uint32(buf[:])
	o.Val = order.Uint64(buf[4:])
	return nil
}

// UnpackOp reads one kind byte then dispatches to the matching Op's own
// Unpack, mirroring ops.go's top-level Unpack dispatcher.
func UnpackOp(r io.Reader) (Op, error) {
	var kind [1]byte
	if _, err := io.ReadFull(r, kind[:]); err != nil {
		return nil, err
	}
	switch kind[0] {
	case OpKindStep:
		o := &OpStep{}
		if err := o.Unpack(r); err != nil {
			return nil, errors.Wrap(err, "trace: unpack OpStep")
		}
		return o, nil
	case OpKindReg:
		o := &OpReg{}
		if err := o.Unpack(r); err != nil {
			return nil, errors.Wrap(err, "trace: unpack OpReg")
		}
		return o, nil
	default:
		return nil, errors.Errorf("trace: unknown op kind %d", kind[0])
	}
}
