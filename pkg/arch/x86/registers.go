package x86

import "github.com/gunmetal313/medusa/pkg/cpu"

// Register ids, grounded on go/arch/x86/arch.go's Regs map but reassigned
// to a dense package-local id space instead of reusing Unicorn's
// UC_X86_REG_* enum, since CpuInformation is architecture-owned here.
const (
	RegEAX uint32 = iota
	RegEBX
	RegECX
	RegEDX
	RegESI
	RegEDI
	RegESP
	RegEBP
	RegEIP
	RegEFlags
	RegZF
)

var regByName = map[string]uint32{
	"eax":    RegEAX,
	"ebx":    RegEBX,
	"ecx":    RegECX,
	"edx":    RegEDX,
	"esi":    RegESI,
	"edi":    RegEDI,
	"esp":    RegESP,
	"ebp":    RegEBP,
	"eip":    RegEIP,
	"eflags": RegEFlags,
	"zf":     RegZF,
}

func newInformation() *cpu.Information {
	return cpu.NewInformation([]cpu.RegisterDef{
		{ID: RegEAX, Name: "eax", Bits: 32},
		{ID: RegEBX, Name: "ebx", Bits: 32},
		{ID: RegECX, Name: "ecx", Bits: 32},
		{ID: RegEDX, Name: "edx", Bits: 32},
		{ID: RegESI, Name: "esi", Bits: 32},
		{ID: RegEDI, Name: "edi", Bits: 32},
		{ID: RegESP, Name: "esp", Bits: 32, Role: cpu.StackPointerRegister},
		{ID: RegEBP, Name: "ebp", Bits: 32, Role: cpu.BasePointerRegister},
		{ID: RegEIP, Name: "eip", Bits: 32, Role: cpu.ProgramPointerRegister},
		{ID: RegEFlags, Name: "eflags", Bits: 32, Role: cpu.FlagsRegister},
		// Synthetic single-bit zero flag, kept as its own identifier rather
		// than an eflags bitfield extraction per SPEC_FULL.md §4.4.
		{ID: RegZF, Name: "zf", Bits: 1},
	})
}

const (
	// stackBase/stackSize carve out a scratch stack region MakeMemoryContext
	// pre-maps, since push/pop/ret need somewhere to write that the
	// document's own segments won't cover.
	stackBase = 0x7ffd0000
	stackSize = 0x10000
	// stackInit is where MakeCpuContext's paired MemoryContext expects esp
	// to start; callers of Initialize still have to seed it explicitly
	// (Execution doesn't know about stacks), but fixtures can rely on this
	// being mapped read/write.
	stackInit = stackBase + stackSize - 0x100
)
