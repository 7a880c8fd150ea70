package utils

import (
	"golang.org/x/exp/constraints"
)

// Returns an all ones bitmask of n bits of the given unsigned integer type
func AllOnes[T constraints.Unsigned](bits int) T {
	if bits >= SizeofBits[T]() {
		return ^T(0)
	}
	return (T(1) << bits) - T(1)
}

// Returns the size in bits of values of an unsigned integer type
func SizeofBits[T constraints.Unsigned]() int {
	var zero T
	bits := 0
	for v := ^zero; v != 0; v >>= 1 {
		bits++
	}
	return bits
}

// Sign extends the lowest n bits of a value to 32 bits
func SignExtend(value uint32, bits int) uint32 {
	shift := 32 - bits
	return uint32(int32(value<<shift) >> shift)
}
