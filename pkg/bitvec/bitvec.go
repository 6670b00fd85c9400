// Package bitvec implements a fixed-width integer value type used by every
// numeric expression in the semantic tree. A BitVector always carries its
// bit width alongside its value so architectures with mixed register sizes
// (8/16/32/64/80/128/512 bits) can share one representation without losing
// width information across operations.
package bitvec

import (
	"fmt"

	"github.com/pkg/errors"
)

// MaxBits is the widest width tag a BitVector is used with (512 bits, the
// widest SIMD lane group in practice); New does not check it. The source
// this package is based on used arbitrary-precision integers; here the
// value is held in a single uint64, so for widths above 64 bits only the
// low 64 bits of the value are stored and every higher bit reads as zero.
const MaxBits = 512

// BitVector is an immutable, width-preserving unsigned integer carrying a
// width tag of 1..512 bits and at most 64 bits of value (see MaxBits).
// All operations are pure: they return a new BitVector rather than
// mutating the receiver.
type BitVector struct {
	bits uint16
	val  uint64
}

// New returns a BitVector of the given width holding the low `bits` bits of
// an unsigned value.
func New(bits uint16, val uint64) BitVector {
	return BitVector{bits: bits, val: mask(bits) & val}
}

// NewSigned returns a BitVector of the given width holding the two's
// complement encoding of a signed value.
func NewSigned(bits uint16, val int64) BitVector {
	return New(bits, uint64(val))
}

// Bool returns a 1-bit BitVector, the encoding used for boolean-valued
// expressions (comparisons, flags).
func Bool(v bool) BitVector {
	if v {
		return New(1, 1)
	}
	return New(1, 0)
}

func mask(bits uint16) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	if bits == 0 {
		return 0
	}
	return (uint64(1) << bits) - 1
}

// BitSize reports the width in bits.
func (b BitVector) BitSize() uint16 { return b.bits }

// Unsigned returns the value in [0, 2^bits).
func (b BitVector) Unsigned() uint64 { return b.val }

// Signed reinterprets the high bit as a sign bit.
func (b BitVector) Signed() int64 {
	if b.bits == 0 || b.bits >= 64 {
		return int64(b.val)
	}
	sign := uint64(1) << (b.bits - 1)
	if b.val&sign != 0 {
		return int64(b.val | ^mask(b.bits))
	}
	return int64(b.val)
}

// IsZero reports whether the value is zero.
func (b BitVector) IsZero() bool { return b.val == 0 }

// Truncate32 converts to a machine uint32 by truncation.
func (b BitVector) Truncate32() uint32 { return uint32(b.val) }

// Truncate64 converts to a machine uint64 by truncation (no-op past 64 bits).
func (b BitVector) Truncate64() uint64 { return b.val }

func widen(a, b BitVector) uint16 {
	if a.bits > b.bits {
		return a.bits
	}
	return b.bits
}

// And returns the bitwise AND, width-widened to max(a.bits, b.bits).
func (a BitVector) And(b BitVector) BitVector { return New(widen(a, b), a.val&b.val) }

// Or returns the bitwise OR, width-widened.
func (a BitVector) Or(b BitVector) BitVector { return New(widen(a, b), a.val|b.val) }

// Xor returns the bitwise XOR, width-widened.
func (a BitVector) Xor(b BitVector) BitVector { return New(widen(a, b), a.val^b.val) }

// Not returns the bitwise complement, width preserved.
func (a BitVector) Not() BitVector { return New(a.bits, ^a.val) }

// Neg returns the two's complement negation, width preserved.
func (a BitVector) Neg() BitVector { return New(a.bits, -a.val) }

// Add returns (a+b) mod 2^w, width-widened.
func (a BitVector) Add(b BitVector) BitVector { return New(widen(a, b), a.val+b.val) }

// Sub returns (a-b) mod 2^w, width-widened.
func (a BitVector) Sub(b BitVector) BitVector { return New(widen(a, b), a.val-b.val) }

// Mul returns (a*b) mod 2^w, width-widened.
func (a BitVector) Mul(b BitVector) BitVector { return New(widen(a, b), a.val*b.val) }

// UDiv returns the unsigned quotient. Division by zero fails.
func (a BitVector) UDiv(b BitVector) (BitVector, error) {
	if b.val == 0 {
		return BitVector{}, errors.New("bitvec: division by zero")
	}
	return New(widen(a, b), a.val/b.val), nil
}

// UMod returns the unsigned remainder. Division by zero fails.
func (a BitVector) UMod(b BitVector) (BitVector, error) {
	if b.val == 0 {
		return BitVector{}, errors.New("bitvec: division by zero")
	}
	return New(widen(a, b), a.val%b.val), nil
}

// SDiv returns the signed quotient. Division by zero fails.
func (a BitVector) SDiv(b BitVector) (BitVector, error) {
	if b.val == 0 {
		return BitVector{}, errors.New("bitvec: division by zero")
	}
	w := widen(a, b)
	return New(w, uint64(a.Signed()/b.Signed())), nil
}

// SMod returns the signed remainder. Division by zero fails.
func (a BitVector) SMod(b BitVector) (BitVector, error) {
	if b.val == 0 {
		return BitVector{}, errors.New("bitvec: division by zero")
	}
	w := widen(a, b)
	return New(w, uint64(a.Signed()%b.Signed())), nil
}

// Lsl is the logical left shift; the count is taken modulo the receiver's
// width, width preserved.
func (a BitVector) Lsl(n BitVector) BitVector {
	shift := n.val % uint64(a.bits)
	return New(a.bits, a.val<<shift)
}

// Lsr is the logical right shift; the count is taken modulo the receiver's
// width, width preserved.
func (a BitVector) Lsr(n BitVector) BitVector {
	shift := n.val % uint64(a.bits)
	return New(a.bits, a.val>>shift)
}

// Asr is the arithmetic right shift (sign-extending), count modulo width.
func (a BitVector) Asr(n BitVector) BitVector {
	shift := n.val % uint64(a.bits)
	return New(a.bits, uint64(a.Signed()>>shift))
}

// Rol rotates left, count modulo width.
func (a BitVector) Rol(n BitVector) BitVector {
	if a.bits == 0 {
		return a
	}
	shift := n.val % uint64(a.bits)
	v := a.val & mask(a.bits)
	rotated := (v<<shift | v>>(uint64(a.bits)-shift)) & mask(a.bits)
	if shift == 0 {
		rotated = v
	}
	return New(a.bits, rotated)
}

// Ror rotates right, count modulo width.
func (a BitVector) Ror(n BitVector) BitVector {
	if a.bits == 0 {
		return a
	}
	shift := n.val % uint64(a.bits)
	v := a.val & mask(a.bits)
	rotated := (v>>shift | v<<(uint64(a.bits)-shift)) & mask(a.bits)
	if shift == 0 {
		rotated = v
	}
	return New(a.bits, rotated)
}

// SignExtend widens to newBits, replicating the sign bit. newBits must be
// >= the current width.
func (a BitVector) SignExtend(newBits uint16) BitVector {
	return New(newBits, uint64(a.Signed()))
}

// ZeroExtend widens to newBits, filling with zero bits. newBits must be
// >= the current width.
func (a BitVector) ZeroExtend(newBits uint16) BitVector {
	return New(newBits, a.val)
}

// Extract returns bits [lo, hi) as a BitVector of width hi-lo.
func (a BitVector) Extract(lo, hi uint16) BitVector {
	if hi <= lo {
		return New(0, 0)
	}
	return New(hi-lo, (a.val>>lo)&mask(hi-lo))
}

// Insert writes `val` into bits [lo, lo+val.bits) of the receiver, returning
// a BitVector of the receiver's width.
func (a BitVector) Insert(lo uint16, val BitVector) BitVector {
	m := mask(val.bits) << lo
	cleared := a.val &^ m
	return New(a.bits, cleared|((val.val<<lo)&m))
}

// Swap reverses byte order across the full width (width must be a multiple
// of 8).
func (a BitVector) Swap() BitVector {
	n := a.bits / 8
	var out uint64
	v := a.val
	for i := uint16(0); i < n; i++ {
		b := (v >> (8 * i)) & 0xff
		out |= b << (8 * (n - 1 - i))
	}
	return New(a.bits, out)
}

// Broadcast tiles the low `laneBits` of the receiver across the full width.
func (a BitVector) Broadcast(laneBits uint16) BitVector {
	if laneBits == 0 || laneBits >= a.bits {
		return a
	}
	lane := a.val & mask(laneBits)
	var out uint64
	for off := uint16(0); off < a.bits; off += laneBits {
		out |= lane << off
	}
	return New(a.bits, out)
}

// Eq reports bit-for-bit equality (width is not part of equality, only value).
func (a BitVector) Eq(b BitVector) bool { return a.val == b.val }

// ULess reports unsigned a < b.
func (a BitVector) ULess(b BitVector) bool { return a.val < b.val }

// ULessEq reports unsigned a <= b.
func (a BitVector) ULessEq(b BitVector) bool { return a.val <= b.val }

// SLess reports signed a < b.
func (a BitVector) SLess(b BitVector) bool { return a.Signed() < b.Signed() }

// SLessEq reports signed a <= b.
func (a BitVector) SLessEq(b BitVector) bool { return a.Signed() <= b.Signed() }

// String renders the value as hex, e.g. "0x1234".
func (a BitVector) String() string {
	return fmt.Sprintf("0x%x", a.val)
}
