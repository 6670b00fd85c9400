// Package document implements the in-memory analysis database the
// execution engine reads cells from and writes disassembled instructions
// back into. Grounded on go/models/loader.go's Loader/SegmentData,
// go/models/symbol.go's Symbol, and go/models/mapped_file.go's whole-file
// buffering strategy.
package document

import (
	"sync"

	"github.com/gunmetal313/medusa/pkg/arch"
	"github.com/gunmetal313/medusa/pkg/cpu"
)

// CellKind tags what occupies an address in the document.
type CellKind int

const (
	CellNone CellKind = iota
	CellInstruction
	CellData
	CellString
)

// Cell is the tagged union spec.md §9's "dynamic cast during cell fetch"
// design note replaces with a typed accessor: exactly one of Insn/Data/Str
// is meaningful, selected by Kind.
type Cell struct {
	Kind CellKind
	Insn *arch.Instruction
	Data []byte
	Str  string
}

// LabelType is a bitmask of what role a named address plays, mirroring
// HookFunction's requirement that a resolved label be Imported|Function.
type LabelType int

const (
	Imported LabelType = 1 << iota
	Exported
	Function
)

// Label binds a name to an address and a role bitmask.
type Label struct {
	Name string
	Addr uint64
	Type LabelType
}

// BinaryStream is the in-memory ReaderAt over a loaded file's bytes,
// the minimal form of go/models/mapped_file.go's MappedFile this repo
// needs - good enough for the fixtures it ships, per SPEC_FULL.md §4.5.
type BinaryStream struct {
	data []byte
}

// NewBinaryStream wraps a byte slice as a BinaryStream.
func NewBinaryStream(data []byte) *BinaryStream {
	return &BinaryStream{data: data}
}

func (s *BinaryStream) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(s.data)) {
		return 0, errOutOfRange
	}
	n := copy(p, s.data[off:])
	if n < len(p) {
		return n, errShortRead
	}
	return n, nil
}

func (s *BinaryStream) Len() int { return len(s.data) }

// Document is the cell store, label table, and binary stream the
// execution engine treats as an external collaborator (spec.md §6.1).
// The RWMutex exists because front ends read cells/labels from a
// goroutine separate from the single-threaded Execution loop for live
// display (SPEC_FULL.md §5), not because Execution itself is concurrent.
type Document struct {
	mu sync.RWMutex

	cells  map[uint64]Cell
	labels map[string]Label
	byAddr map[uint64]string

	stream  *BinaryStream
	base    uint64
	segs    []cpu.Segment
	mode    uint8
}

// New builds a Document whose binary stream is `data`, loaded at file
// offset 0 mapping to virtual address `base` as one read+write+exec
// segment - sufficient for the fixtures this repo drives end to end.
func New(data []byte, base uint64) *Document {
	return &Document{
		cells:  make(map[uint64]Cell),
		labels: make(map[string]Label),
		byAddr: make(map[uint64]string),
		stream: NewBinaryStream(data),
		base:   base,
		segs: []cpu.Segment{
			{Addr: base, Data: data, Prot: cpu.ProtAll, Desc: "image"},
		},
	}
}

func (d *Document) GetCell(addr uint64) (Cell, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.cells[addr]
	return c, ok
}

// SetCell stores c at addr. If overwrite is false and a cell already
// exists there, it refuses and returns false.
func (d *Document) SetCell(addr uint64, c Cell, overwrite bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.cells[addr]; exists && !overwrite {
		return false
	}
	d.cells[addr] = c
	return true
}

// ConvertAddressToFileOffset maps a virtual address back to its position
// in the binary stream, assuming the flat one-segment layout New builds.
func (d *Document) ConvertAddressToFileOffset(addr uint64) (int64, bool) {
	if addr < d.base || addr >= d.base+uint64(d.stream.Len()) {
		return 0, false
	}
	return int64(addr - d.base), true
}

func (d *Document) GetBinaryStream() *BinaryStream { return d.stream }

// AddLabel registers name as a label at addr with the given role bitmask.
func (d *Document) AddLabel(name string, addr uint64, typ LabelType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.labels[name] = Label{Name: name, Addr: addr, Type: typ}
	d.byAddr[addr] = name
}

func (d *Document) GetAddressFromLabelName(name string) (uint64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	l, ok := d.labels[name]
	return l.Addr, ok
}

func (d *Document) GetLabelFromAddress(addr uint64) (Label, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.byAddr[addr]
	if !ok {
		return Label{}, false
	}
	return d.labels[name], true
}

// GetMode reports the CPU mode active at addr. This repo ships a single
// mode per document (no Thumb/ARM-style mode islands), so it is constant.
func (d *Document) GetMode(addr uint64) uint8 { return d.mode }

// SetMode fixes the CPU mode this document's code should be decoded in.
func (d *Document) SetMode(mode uint8) { d.mode = mode }

// Segments satisfies cpu.SegmentSource so MemoryContext.MapDocument can
// load this document's image directly.
func (d *Document) Segments() ([]cpu.Segment, error) {
	return d.segs, nil
}

var (
	errOutOfRange = &rangeError{"document: offset out of range"}
	errShortRead  = &rangeError{"document: short read"}
)

type rangeError struct{ msg string }

func (e *rangeError) Error() string { return e.msg }
