package asm

import (
	"math/bits"

	"github.com/Manu343726/armv4t/pkg/utils"
)

// Reg is a register number
type Reg uint32

const (
	R0 Reg = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15

	SP = R13
	LR = R14
	PC = R15
)

// Shift is a barrel shifter operation
type Shift uint32

const (
	LSL Shift = iota
	LSR
	ASR
	ROR
)

// Operand is the second operand of a data processing instruction
type Operand struct {
	bits      uint32
	immediate bool
	err       error
}

// Imm encodes a 32 bit constant as an 8 bit value rotated right by an even
// amount
func Imm(value uint32) Operand {
	for rotate := 0; rotate < 16; rotate++ {
		if imm := bits.RotateLeft32(value, 2*rotate); imm <= 0xFF {
			return Operand{bits: uint32(rotate)<<8 | imm, immediate: true}
		}
	}
	return Operand{err: utils.MakeError(ErrOutOfRange, "0x%08X is not an 8 bit rotated immediate", value)}
}

// R is a plain register operand
func R(rm Reg) Operand {
	return Operand{bits: uint32(rm)}
}

// Shifted is a register shifted by an immediate amount. LSR and ASR take
// 1..32, LSL 0..31 and ROR 1..31.
func Shifted(rm Reg, shift Shift, amount uint32) Operand {
	valid := amount < 32
	switch shift {
	case LSR, ASR:
		valid = amount >= 1 && amount <= 32
	case ROR:
		valid = amount >= 1 && amount < 32
	}
	if !valid {
		return Operand{err: utils.MakeError(ErrOutOfRange, "shift amount %d", amount)}
	}
	return Operand{bits: (amount&0x1F)<<7 | uint32(shift)<<5 | uint32(rm)}
}

// RRX is a register rotated right by one through the carry flag
func RRX(rm Reg) Operand {
	return Operand{bits: uint32(ROR)<<5 | uint32(rm)}
}

// ShiftedReg is a register shifted by the bottom byte of another register
func ShiftedReg(rm Reg, shift Shift, rs Reg) Operand {
	return Operand{bits: uint32(rs)<<8 | uint32(shift)<<5 | 1<<4 | uint32(rm)}
}

// Address is the addressing mode of a single load or store
type Address struct {
	rn        Reg
	offset    uint32
	register  bool
	up        bool
	pre       bool
	writeback bool
	err       error
}

func immediateAddress(rn Reg, offset int32, pre, writeback bool) Address {
	a := Address{rn: rn, up: offset >= 0, pre: pre, writeback: writeback}
	if offset < 0 {
		a.offset = uint32(-offset)
	} else {
		a.offset = uint32(offset)
	}
	return a
}

// Off is [rn, #offset]
func Off(rn Reg, offset int32) Address {
	return immediateAddress(rn, offset, true, false)
}

// PreIndex is [rn, #offset]!
func PreIndex(rn Reg, offset int32) Address {
	return immediateAddress(rn, offset, true, true)
}

// PostIndex is [rn], #offset
func PostIndex(rn Reg, offset int32) Address {
	return immediateAddress(rn, offset, false, false)
}

// OffReg is [rn, rm]
func OffReg(rn, rm Reg) Address {
	return Address{rn: rn, offset: uint32(rm), register: true, up: true, pre: true}
}

// OffRegShift is [rn, rm, shift #amount], only valid for word and byte
// transfers
func OffRegShift(rn, rm Reg, shift Shift, amount uint32) Address {
	op := Shifted(rm, shift, amount)
	return Address{rn: rn, offset: op.bits, register: true, up: true, pre: true, err: op.err}
}

// PostReg is [rn], rm
func PostReg(rn, rm Reg) Address {
	return Address{rn: rn, offset: uint32(rm), register: true, up: true}
}

// Down subtracts the offset instead of adding it
func (a Address) Down() Address {
	a.up = false
	return a
}

// Writeback sets the write back bit of a pre indexed address
func (a Address) Writeback() Address {
	a.writeback = true
	return a
}

func (a Address) bits() uint32 {
	var word uint32
	if a.pre {
		word |= 1 << 24
	}
	if a.up {
		word |= 1 << 23
	}
	if a.writeback {
		word |= 1 << 21
	}
	return word | uint32(a.rn)<<16
}

func registerList(regs []Reg) uint32 {
	var list uint32
	for _, r := range regs {
		list |= 1 << r
	}
	return list
}
