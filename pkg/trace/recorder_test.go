package trace

import (
	"bytes"
	"testing"

	"github.com/gunmetal313/medusa/pkg/cpu"
	"github.com/gunmetal313/medusa/pkg/emulator"
)

type fakeTarget struct {
	instrHook emulator.HookCallback
	fnHooks   map[string]emulator.HookCallback
	ctx       cpu.Context
}

func (f *fakeTarget) HookInstruction(cb emulator.HookCallback) error {
	f.instrHook = cb
	return nil
}

func (f *fakeTarget) HookFunction(name string, cb emulator.HookCallback) error {
	if f.fnHooks == nil {
		f.fnHooks = make(map[string]emulator.HookCallback)
	}
	f.fnHooks[name] = cb
	return nil
}

func (f *fakeTarget) WrapCpuContext(wrap func(cpu.Context) cpu.Context) error {
	f.ctx = wrap(f.ctx)
	return nil
}

func TestRecorderRecordsStepsAndRegisterWrites(t *testing.T) {
	info := cpu.NewInformation([]cpu.RegisterDef{{ID: 1, Name: "r1", Bits: 32}})
	target := &fakeTarget{ctx: cpu.NewRegContext(info)}

	var b buf
	b.Buffer = &bytes.Buffer{}
	w, err := NewWriter(b, "test", "test")
	if err != nil {
		t.Fatal(err)
	}

	rec, err := NewRecorder(target, w)
	if err != nil {
		t.Fatal(err)
	}
	if target.instrHook == nil {
		t.Fatal("expected NewRecorder to install an instruction hook")
	}

	if !target.instrHook(0x100) {
		t.Fatal("expected Recorder.Hook to always continue")
	}
	if !target.ctx.WriteRegister(1, 42, 32) {
		t.Fatal("expected wrapped WriteRegister to succeed")
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(b)
	if err != nil {
		t.Fatal(err)
	}
	op1, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if step, ok := op1.(*OpStep); !ok || step.Addr != 0x100 {
		t.Fatalf("expected OpStep{0x100}, got %+v", op1)
	}
	op2, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if reg, ok := op2.(*OpReg); !ok || reg.Id != 1 || reg.Val != 42 {
		t.Fatalf("expected OpReg{1, 42}, got %+v", op2)
	}

	_ = rec
}
