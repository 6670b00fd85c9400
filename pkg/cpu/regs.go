package cpu

import "github.com/pkg/errors"

// regFile is a sparse register value store, adapted from
// go/models/cpu/regs.go. Values are masked to their declared width on
// write so a 16-bit register can never silently hold a 17th bit.
type regFile struct {
	info *Information
	vals map[uint32]uint64
}

func newRegFile(info *Information) *regFile {
	return &regFile{info: info, vals: make(map[uint32]uint64)}
}

func (r *regFile) read(id uint32) (uint64, error) {
	if _, ok := r.info.byID[id]; !ok {
		return 0, errors.Errorf("cpu: unknown register %d", id)
	}
	return r.vals[id], nil
}

func (r *regFile) write(id uint32, val uint64) error {
	d, ok := r.info.byID[id]
	if !ok {
		return errors.Errorf("cpu: unknown register %d", id)
	}
	r.vals[id] = val & regMask(d.Bits)
	return nil
}

func regMask(bits uint16) uint64 {
	if bits == 0 {
		return 0
	}
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << bits) - 1
}
