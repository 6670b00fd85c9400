package cpu

import "fmt"

// Context is the CpuContext collaborator from spec.md §6.1: a
// register file plus CPU mode and address translation, consumed by
// Identifier/VectorIdentifier/Memory Read/Write. The Variable* methods
// back expr.VariableExpr's name-keyed scratch store (spec.md §4.2: "Read/
// Write go through a name-keyed scratch store held by the evaluator") -
// the evaluator here is the CpuContext implementation itself, since
// that is the one object every Expression.Read/Write already carries.
type Context interface {
	ReadRegister(id uint32, widthBits uint16) (uint64, bool)
	WriteRegister(id uint32, val uint64, widthBits uint16) bool
	Translate(addr uint64) (uint64, bool)
	GetMode() uint8
	SetMode(mode uint8)
	Information() *Information
	AllocVariable(name string, widthBits uint16)
	FreeVariable(name string)
	ReadVariable(name string) (uint64, uint16, bool)
	WriteVariable(name string, val uint64, widthBits uint16) bool
	String() string
}

// RegContext is the reference, architecture-agnostic CpuContext
// implementation: a flat register file with identity address
// translation. Concrete architectures (arch/x86) construct one from
// their own Information and may wrap it to override Translate for
// segmented addressing.
type RegContext struct {
	info *Information
	regs *regFile
	mode uint8
	vars map[string]scratchVar
}

type scratchVar struct {
	val  uint64
	bits uint16
}

// NewRegContext builds a register-file-backed CpuContext for the given
// dictionary.
func NewRegContext(info *Information) *RegContext {
	return &RegContext{info: info, regs: newRegFile(info), vars: make(map[string]scratchVar)}
}

func (c *RegContext) AllocVariable(name string, widthBits uint16) {
	c.vars[name] = scratchVar{bits: widthBits}
}

func (c *RegContext) FreeVariable(name string) {
	delete(c.vars, name)
}

func (c *RegContext) ReadVariable(name string) (uint64, uint16, bool) {
	v, ok := c.vars[name]
	if !ok {
		return 0, 0, false
	}
	return v.val, v.bits, true
}

func (c *RegContext) WriteVariable(name string, val uint64, widthBits uint16) bool {
	v, ok := c.vars[name]
	if !ok {
		v = scratchVar{bits: widthBits}
	}
	v.val = val & regMask(widthBits)
	if v.bits == 0 {
		v.bits = widthBits
	}
	c.vars[name] = v
	return true
}

func (c *RegContext) ReadRegister(id uint32, widthBits uint16) (uint64, bool) {
	v, err := c.regs.read(id)
	if err != nil {
		return 0, false
	}
	return v & regMask(widthBits), true
}

func (c *RegContext) WriteRegister(id uint32, val uint64, widthBits uint16) bool {
	return c.regs.write(id, val&regMask(widthBits)) == nil
}

// Translate performs identity translation: linear == offset. Architectures
// with segmentation or paging override this by wrapping RegContext.
func (c *RegContext) Translate(addr uint64) (uint64, bool) {
	return addr, true
}

func (c *RegContext) GetMode() uint8     { return c.mode }
func (c *RegContext) SetMode(mode uint8) { c.mode = mode }
func (c *RegContext) Information() *Information { return c.info }

func (c *RegContext) String() string {
	s := "<CpuContext"
	for _, d := range c.info.Registers() {
		v, _ := c.ReadRegister(d.ID, d.Bits)
		s += fmt.Sprintf(" %s=%#x", d.Name, v)
	}
	return s + ">"
}
