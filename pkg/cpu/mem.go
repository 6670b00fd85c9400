package cpu

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Memory is the MemoryContext collaborator from spec.md §6.1: a flat
// linear address space read and written by Memory expressions.
type Memory interface {
	ReadMemory(linAddr uint64, n int) ([]byte, error)
	WriteMemory(linAddr uint64, data []byte) error
	MapDocument(doc SegmentSource, cpu Context) bool
	String() string
}

// Segment is one loaded chunk of a document's binary image, the minimal
// shape MapDocument needs.
type Segment struct {
	Addr uint64
	Data []byte
	Prot int
	Desc string
}

// SegmentSource is satisfied by document.Document. It is declared here,
// narrow, rather than importing the document package, so cpu stays a leaf
// package the way go/models/cpu has no dependency on go/models/loader.go.
type SegmentSource interface {
	Segments() ([]Segment, error)
}

// PagedMemory is the reference MemoryContext: an in-process page table,
// adapted from go/models/cpu/memsim.go.
type PagedMemory struct {
	pages Pages
}

// NewPagedMemory returns an empty MemoryContext.
func NewPagedMemory() *PagedMemory {
	return &PagedMemory{}
}

// Map creates a new page, first unmapping every existing page that
// overlaps [addr, addr+size) in its entirety.
func (m *PagedMemory) Map(addr, size uint64, prot int, desc string) *Page {
	m.unmapRange(addr, size)
	page := &Page{Addr: addr, Size: size, Prot: prot, Data: make([]byte, size), Desc: desc}
	m.pages = append(m.pages, page)
	sort.Sort(m.pages)
	return page
}

func (m *PagedMemory) unmapRange(addr, size uint64) {
	end := addr + size
	var kept Pages
	for _, pg := range m.pages {
		if pg.Addr+pg.Size <= addr || pg.Addr >= end {
			kept = append(kept, pg)
		}
	}
	m.pages = kept
}

func (m *PagedMemory) ReadMemory(linAddr uint64, n int) ([]byte, error) {
	out := make([]byte, n)
	remaining := out
	addr := linAddr
	for len(remaining) > 0 {
		pg := m.pages.find(addr)
		if pg == nil {
			return nil, errors.Errorf("cpu: read of unmapped memory at %#x", addr)
		}
		off := addr - pg.Addr
		avail := pg.Size - off
		chunk := uint64(len(remaining))
		if chunk > avail {
			chunk = avail
		}
		copy(remaining[:chunk], pg.Data[off:off+chunk])
		remaining = remaining[chunk:]
		addr += chunk
	}
	return out, nil
}

func (m *PagedMemory) WriteMemory(linAddr uint64, data []byte) error {
	remaining := data
	addr := linAddr
	for len(remaining) > 0 {
		pg := m.pages.find(addr)
		if pg == nil {
			return errors.Errorf("cpu: write to unmapped memory at %#x", addr)
		}
		off := addr - pg.Addr
		avail := pg.Size - off
		chunk := uint64(len(remaining))
		if chunk > avail {
			chunk = avail
		}
		copy(pg.Data[off:off+chunk], remaining[:chunk])
		remaining = remaining[chunk:]
		addr += chunk
	}
	return nil
}

// MapDocument loads every segment the document reports into this memory,
// mirroring go/models/loader.go's Segments() consumed by
// Usercorn.mapMemory in the root-level usercorn.go.
func (m *PagedMemory) MapDocument(doc SegmentSource, cpu Context) bool {
	segs, err := doc.Segments()
	if err != nil {
		return false
	}
	for _, s := range segs {
		prot := s.Prot
		if prot == 0 {
			prot = ProtAll
		}
		page := m.Map(s.Addr, uint64(len(s.Data)), prot, s.Desc)
		copy(page.Data, s.Data)
	}
	return true
}

// Pages returns the current page list, sorted by address. Used by
// emulator/unicorn to mirror this reference MemoryContext's mapped
// regions into a real Unicorn instance around each Execute call.
func (m *PagedMemory) Pages() Pages {
	return append(Pages(nil), m.pages...)
}

func (m *PagedMemory) String() string {
	s := "<MemoryContext"
	for _, pg := range m.pages {
		s += " " + pg.String()
	}
	return s + fmt.Sprintf(" (%d pages)>", len(m.pages))
}
