package trace

import (
	"github.com/gunmetal313/medusa/pkg/cpu"
	"github.com/gunmetal313/medusa/pkg/emulator"
)

// Target is the minimal execution-engine surface a Recorder instruments,
// satisfied by *execution.Execution. Declared narrowly here (rather than
// importing pkg/execution) so pkg/trace stays a leaf consumer, the same
// import-cycle-avoidance seam as cpu.SegmentSource and arch.Architecture.
type Target interface {
	HookInstruction(cb emulator.HookCallback) error
	HookFunction(name string, cb emulator.HookCallback) error
	WrapCpuContext(f func(cpu.Context) cpu.Context) error
}

// Recorder drives a TraceWriter from an execution engine's instruction
// stream and register writes, per SPEC_FULL.md §4.8: "registers itself as
// an instruction hook and a function hook factory."
type Recorder struct {
	w *TraceWriter
}

// NewRecorder attaches a Recorder to target: it installs itself as an
// instruction hook (one OpStep per dump_insn) and wraps target's
// CpuContext so every register write also emits an OpReg.
func NewRecorder(target Target, w *TraceWriter) (*Recorder, error) {
	rec := &Recorder{w: w}
	if err := target.HookInstruction(rec.Hook); err != nil {
		return nil, err
	}
	if err := target.WrapCpuContext(rec.wrapContext); err != nil {
		return nil, err
	}
	return rec, nil
}

// Hook is an emulator.HookCallback: it records an OpStep and always lets
// execution continue. Exported so callers can also register it directly
// as a function hook (NewRecorder's "function hook factory" role) via
// target.HookFunction(name, rec.Hook) to trace calls into a specific
// imported/exported function without tracing every instruction.
func (rec *Recorder) Hook(addr uint64) bool {
	rec.w.Pack(&OpStep{Addr: addr})
	return true
}

func (rec *Recorder) wrapContext(inner cpu.Context) cpu.Context {
	return &tracingContext{Context: inner, rec: rec}
}

// tracingContext wraps a CpuContext, forwarding everything but
// WriteRegister, which it mirrors into an OpReg record after a
// successful write.
type tracingContext struct {
	cpu.Context
	rec *Recorder
}

func (t *tracingContext) WriteRegister(id uint32, val uint64, widthBits uint16) bool {
	ok := t.Context.WriteRegister(id, val, widthBits)
	if ok {
		t.rec.w.Pack(&OpReg{Id: id, Val: val})
	}
	return ok
}
