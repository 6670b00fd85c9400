package cpu

// Package cpu models the runtime contexts consumed by the semantic
// expression tree: the register file (CpuContext) and the flat memory
// space (MemoryContext), plus the immutable register dictionary
// (Information) every Identifier/VectorIdentifier expression carries a
// pointer to. Grounded on go/models/cpu/regs.go and go/models/arch.go's
// Reg/regMap.

import (
	"sort"

	"github.com/lunixbochs/fvbommel-util/sortorder"
)

// RegisterRole names a register's architectural function so code that
// doesn't know a specific architecture's register numbering (the
// execution engine, in particular) can still find "the program counter"
// or "the stack pointer".
type RegisterRole int

const (
	RoleNone RegisterRole = iota
	ProgramPointerRegister
	StackPointerRegister
	BasePointerRegister
	FlagsRegister
)

// InvalidRegister is returned by RegisterByType when no register of the
// requested role exists for the given mode.
const InvalidRegister = ^uint32(0)

// RegisterDef describes one addressable register or flag bit.
type RegisterDef struct {
	ID   uint32
	Name string
	Bits uint16
	Role RegisterRole
	// Mode restricts a role lookup to a specific CPU mode (e.g. 16 vs 32
	// vs 64-bit x86). Zero matches any mode.
	Mode uint8
}

// Information is the immutable id<->name/width/role dictionary an
// Architecture hands out via CpuInformation. It never changes after
// construction, so Identifier/VectorIdentifier expressions can safely
// hold a bare pointer to it without synchronization.
type Information struct {
	byID map[uint32]RegisterDef
	byRole map[roleKey]uint32
}

type roleKey struct {
	role RegisterRole
	mode uint8
}

// NewInformation builds a register dictionary from a flat list of
// definitions.
func NewInformation(defs []RegisterDef) *Information {
	info := &Information{
		byID:   make(map[uint32]RegisterDef, len(defs)),
		byRole: make(map[roleKey]uint32),
	}
	for _, d := range defs {
		info.byID[d.ID] = d
		if d.Role != RoleNone {
			info.byRole[roleKey{d.Role, d.Mode}] = d.ID
			if d.Mode != 0 {
				// also register as the mode-agnostic default if none set yet
				if _, ok := info.byRole[roleKey{d.Role, 0}]; !ok {
					info.byRole[roleKey{d.Role, 0}] = d.ID
				}
			}
		}
	}
	return info
}

// Name returns the canonical register name for id, or ("", false) if id
// is not known to this dictionary.
func (i *Information) Name(id uint32) (string, bool) {
	d, ok := i.byID[id]
	return d.Name, ok
}

// BitSize returns the register's width in bits, or 0 if id is unknown.
func (i *Information) BitSize(id uint32) uint16 {
	return i.byID[id].Bits
}

// RegisterByType resolves the register id playing a given architectural
// role under a given CPU mode. Returns InvalidRegister if none matches.
func (i *Information) RegisterByType(role RegisterRole, mode uint8) uint32 {
	if id, ok := i.byRole[roleKey{role, mode}]; ok {
		return id
	}
	if id, ok := i.byRole[roleKey{role, 0}]; ok {
		return id
	}
	return InvalidRegister
}

// Registers returns every known register definition sorted by name in
// natural order (so eax, ebx, ... e10 would sort as a human expects,
// rather than ASCII order), for diagnostics and register-dump front ends
// - the same regList/sortorder.NaturalLess pairing go/models/arch.go's
// RegDump uses.
func (i *Information) Registers() []RegisterDef {
	out := make([]RegisterDef, 0, len(i.byID))
	for _, d := range i.byID {
		out = append(out, d)
	}
	sort.Slice(out, func(a, b int) bool {
		return sortorder.NaturalLess(out[a].Name, out[b].Name)
	})
	return out
}
