package cpu

import "testing"

func TestRegContextRoundTrip(t *testing.T) {
	info := NewInformation([]RegisterDef{
		{ID: 1, Name: "eax", Bits: 32},
		{ID: 2, Name: "eip", Bits: 32, Role: ProgramPointerRegister},
	})
	c := NewRegContext(info)
	if !c.WriteRegister(1, 0xdeadbeef, 32) {
		t.Fatal("write failed")
	}
	v, ok := c.ReadRegister(1, 32)
	if !ok || v != 0xdeadbeef {
		t.Fatalf("expected 0xdeadbeef, got %#x ok=%v", v, ok)
	}
	if id := info.RegisterByType(ProgramPointerRegister, 0); id != 2 {
		t.Fatalf("expected register 2 for program pointer, got %d", id)
	}
	if id := info.RegisterByType(StackPointerRegister, 0); id != InvalidRegister {
		t.Fatalf("expected InvalidRegister for unregistered role, got %d", id)
	}
}

func TestRegWriteMasksToWidth(t *testing.T) {
	info := NewInformation([]RegisterDef{{ID: 1, Name: "al", Bits: 8}})
	c := NewRegContext(info)
	c.WriteRegister(1, 0x1ff, 8)
	v, _ := c.ReadRegister(1, 8)
	if v != 0xff {
		t.Fatalf("expected write to mask to 8 bits, got %#x", v)
	}
}

type fakeSegSource struct{ segs []Segment }

func (f fakeSegSource) Segments() ([]Segment, error) { return f.segs, nil }

func TestPagedMemoryMapAndReadWrite(t *testing.T) {
	m := NewPagedMemory()
	m.Map(0x1000, 0x1000, ProtAll, "test")
	if err := m.WriteMemory(0x1000, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	data, err := m.ReadMemory(0x1000, 5)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Fatalf("expected hello, got %q", data)
	}
	if _, err := m.ReadMemory(0x5000, 4); err == nil {
		t.Fatal("expected error reading unmapped memory")
	}
}

func TestMapDocument(t *testing.T) {
	m := NewPagedMemory()
	src := fakeSegSource{segs: []Segment{{Addr: 0x400000, Data: []byte{0x90, 0x90}, Prot: ProtRead | ProtExec}}}
	if !m.MapDocument(src, nil) {
		t.Fatal("MapDocument failed")
	}
	data, err := m.ReadMemory(0x400000, 2)
	if err != nil {
		t.Fatal(err)
	}
	if data[0] != 0x90 || data[1] != 0x90 {
		t.Fatalf("unexpected segment contents: %v", data)
	}
}
