package arm

import "math/bits"

// Barrel shifter.
//
// The shift type bits mean different things depending on where the amount
// comes from, so every shift type has an immediate (xxI) and a register
// (xxR) entry point. Immediate amounts are 0..31 and amount 0 encodes LSR
// #32, ASR #32 and RRX. Register amounts are the bottom byte of the register
// and amount 0 leaves both operand and carry untouched. The S forms update
// the carry flag with the shifter carry out.

func bit(value uint32, n uint32) bool {
	return (value>>n)&1 != 0
}

func aluLLI(_ *Registers, value, amount uint32) uint32 {
	return value << amount
}

func aluLLIS(r *Registers, value, amount uint32) uint32 {
	if amount == 0 {
		return value
	}
	r.PutC(bit(value, 32-amount))
	return value << amount
}

func aluLLR(_ *Registers, value, amount uint32) uint32 {
	if amount >= 32 {
		return 0
	}
	return value << amount
}

func aluLLRS(r *Registers, value, amount uint32) uint32 {
	switch {
	case amount == 0:
		return value
	case amount < 32:
		r.PutC(bit(value, 32-amount))
		return value << amount
	case amount == 32:
		r.PutC(bit(value, 0))
		return 0
	default:
		r.ClearC()
		return 0
	}
}

func aluLRI(_ *Registers, value, amount uint32) uint32 {
	if amount == 0 {
		return 0
	}
	return value >> amount
}

func aluLRIS(r *Registers, value, amount uint32) uint32 {
	if amount == 0 {
		r.PutC(bit(value, 31))
		return 0
	}
	r.PutC(bit(value, amount-1))
	return value >> amount
}

func aluLRR(_ *Registers, value, amount uint32) uint32 {
	if amount >= 32 {
		return 0
	}
	return value >> amount
}

func aluLRRS(r *Registers, value, amount uint32) uint32 {
	switch {
	case amount == 0:
		return value
	case amount < 32:
		r.PutC(bit(value, amount-1))
		return value >> amount
	case amount == 32:
		r.PutC(bit(value, 31))
		return 0
	default:
		r.ClearC()
		return 0
	}
}

func signFill(value uint32) uint32 {
	return uint32(int32(value) >> 31)
}

func aluARI(_ *Registers, value, amount uint32) uint32 {
	if amount == 0 {
		return signFill(value)
	}
	return uint32(int32(value) >> amount)
}

func aluARIS(r *Registers, value, amount uint32) uint32 {
	if amount == 0 {
		r.PutC(bit(value, 31))
		return signFill(value)
	}
	r.PutC(bit(value, amount-1))
	return uint32(int32(value) >> amount)
}

func aluARR(_ *Registers, value, amount uint32) uint32 {
	if amount >= 32 {
		return signFill(value)
	}
	return uint32(int32(value) >> amount)
}

func aluARRS(r *Registers, value, amount uint32) uint32 {
	switch {
	case amount == 0:
		return value
	case amount < 32:
		r.PutC(bit(value, amount-1))
		return uint32(int32(value) >> amount)
	default:
		r.PutC(bit(value, 31))
		return signFill(value)
	}
}

func rrx(r *Registers, value uint32) uint32 {
	return carryIn(r)<<31 | value>>1
}

func aluRRI(r *Registers, value, amount uint32) uint32 {
	if amount == 0 {
		return rrx(r, value)
	}
	return bits.RotateLeft32(value, -int(amount))
}

func aluRRIS(r *Registers, value, amount uint32) uint32 {
	if amount == 0 {
		result := rrx(r, value)
		r.PutC(bit(value, 0))
		return result
	}
	r.PutC(bit(value, amount-1))
	return bits.RotateLeft32(value, -int(amount))
}

func aluRRR(_ *Registers, value, amount uint32) uint32 {
	return bits.RotateLeft32(value, -int(amount&31))
}

func aluRRRS(r *Registers, value, amount uint32) uint32 {
	if amount == 0 {
		return value
	}
	amount &= 31
	if amount == 0 {
		r.PutC(bit(value, 31))
		return value
	}
	r.PutC(bit(value, amount-1))
	return bits.RotateLeft32(value, -int(amount))
}

// aluImm decodes a data processing immediate: an 8 bit value rotated right
// by twice the 4 bit rotate field
func aluImm(_ *Registers, imm, rotate uint32) uint32 {
	return bits.RotateLeft32(imm, -int(rotate*2))
}

func aluImmS(r *Registers, imm, rotate uint32) uint32 {
	result := aluImm(r, imm, rotate)
	if rotate != 0 {
		r.PutC(bit(result, 31))
	}
	return result
}
