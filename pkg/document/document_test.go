package document

import "testing"

func TestNewSegmentsFromBase(t *testing.T) {
	doc := New([]byte{0x90, 0x90, 0xc3}, 0x1000)
	segs, err := doc.Segments()
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 1 || segs[0].Addr != 0x1000 || len(segs[0].Data) != 3 {
		t.Fatalf("unexpected segments: %+v", segs)
	}
}

func TestConvertAddressToFileOffset(t *testing.T) {
	doc := New([]byte{1, 2, 3, 4}, 0x1000)
	off, ok := doc.ConvertAddressToFileOffset(0x1002)
	if !ok || off != 2 {
		t.Fatalf("expected offset 2, got %d ok=%v", off, ok)
	}
	if _, ok := doc.ConvertAddressToFileOffset(0x5000); ok {
		t.Fatal("expected address outside segment to fail")
	}
}

func TestSetCellNoOverwrite(t *testing.T) {
	doc := New([]byte{1, 2, 3}, 0)
	if !doc.SetCell(0, Cell{Kind: CellData}, true) {
		t.Fatal("first SetCell should succeed")
	}
	if doc.SetCell(0, Cell{Kind: CellString}, false) {
		t.Fatal("SetCell with overwrite=false should fail over an existing cell")
	}
	cell, ok := doc.GetCell(0)
	if !ok || cell.Kind != CellData {
		t.Fatalf("expected original cell to survive, got %+v ok=%v", cell, ok)
	}
	if !doc.SetCell(0, Cell{Kind: CellString}, true) {
		t.Fatal("SetCell with overwrite=true should succeed")
	}
	cell, _ = doc.GetCell(0)
	if cell.Kind != CellString {
		t.Fatalf("expected overwritten cell, got %+v", cell)
	}
}

func TestLabels(t *testing.T) {
	doc := New([]byte{0, 0}, 0)
	doc.AddLabel("main", 0x10, Function|Exported)
	addr, ok := doc.GetAddressFromLabelName("main")
	if !ok || addr != 0x10 {
		t.Fatalf("expected addr 0x10, got %#x ok=%v", addr, ok)
	}
	label, ok := doc.GetLabelFromAddress(0x10)
	if !ok || label.Name != "main" || label.Type&Function == 0 {
		t.Fatalf("unexpected label: %+v ok=%v", label, ok)
	}
	if _, ok := doc.GetAddressFromLabelName("nope"); ok {
		t.Fatal("expected unknown label to fail")
	}
}

func TestBinaryStreamReadAt(t *testing.T) {
	bs := NewBinaryStream([]byte("hello world"))
	buf := make([]byte, 5)
	n, err := bs.ReadAt(buf, 6)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 || string(buf) != "world" {
		t.Fatalf("expected world, got %q (n=%d)", buf, n)
	}
}
