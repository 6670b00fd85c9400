package cpu

// Memory protection bits, numbered the way go/models/cpu/enums.go bases
// them on Unicorn's own protection constants.
const (
	ProtNone  = 0
	ProtRead  = 1
	ProtWrite = 2
	ProtExec  = 4
	ProtAll   = ProtRead | ProtWrite | ProtExec
)
