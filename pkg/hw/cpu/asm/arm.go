package asm

import (
	"github.com/Manu343726/armv4t/pkg/hw/cpu/arm"
	"github.com/Manu343726/armv4t/pkg/utils"
)

// ARM emits 32 bit ARM instructions into a program. Instructions are
// unconditional unless emitted through If().
type ARM struct {
	p    *Program
	cond arm.Condition
}

// ARM returns an ARM instruction emitter for the program
func (p *Program) ARM() *ARM {
	return &ARM{p: p, cond: arm.CondAL}
}

// If returns an emitter of instructions executed when cond passes
func (a *ARM) If(cond arm.Condition) *ARM {
	return &ARM{p: a.p, cond: cond}
}

func (a *ARM) emit(word uint32) {
	if a.p.PC()%4 != 0 {
		a.p.fail(utils.MakeError(ErrMisalignedAddress, "ARM instruction at 0x%08X", a.p.PC()))
	}
	a.p.Word(uint32(a.cond)<<28 | word)
}

// Raw emits an opcode as is, condition field included
func (a *ARM) Raw(word uint32) {
	a.p.Word(word)
}

// data processing opcodes
const (
	opAND uint32 = iota
	opEOR
	opSUB
	opRSB
	opADD
	opADC
	opSBC
	opRSC
	opTST
	opTEQ
	opCMP
	opCMN
	opORR
	opMOV
	opBIC
	opMVN
)

func (a *ARM) dp(op uint32, s bool, rd, rn Reg, operand Operand) {
	if operand.err != nil {
		a.p.fail(operand.err)
		return
	}
	word := op<<21 | uint32(rn)<<16 | uint32(rd)<<12 | operand.bits
	if s {
		word |= 1 << 20
	}
	if operand.immediate {
		word |= 1 << 25
	}
	a.emit(word)
}

func (a *ARM) AND(rd, rn Reg, op Operand)  { a.dp(opAND, false, rd, rn, op) }
func (a *ARM) ANDS(rd, rn Reg, op Operand) { a.dp(opAND, true, rd, rn, op) }
func (a *ARM) EOR(rd, rn Reg, op Operand)  { a.dp(opEOR, false, rd, rn, op) }
func (a *ARM) EORS(rd, rn Reg, op Operand) { a.dp(opEOR, true, rd, rn, op) }
func (a *ARM) SUB(rd, rn Reg, op Operand)  { a.dp(opSUB, false, rd, rn, op) }
func (a *ARM) SUBS(rd, rn Reg, op Operand) { a.dp(opSUB, true, rd, rn, op) }
func (a *ARM) RSB(rd, rn Reg, op Operand)  { a.dp(opRSB, false, rd, rn, op) }
func (a *ARM) RSBS(rd, rn Reg, op Operand) { a.dp(opRSB, true, rd, rn, op) }
func (a *ARM) ADD(rd, rn Reg, op Operand)  { a.dp(opADD, false, rd, rn, op) }
func (a *ARM) ADDS(rd, rn Reg, op Operand) { a.dp(opADD, true, rd, rn, op) }
func (a *ARM) ADC(rd, rn Reg, op Operand)  { a.dp(opADC, false, rd, rn, op) }
func (a *ARM) ADCS(rd, rn Reg, op Operand) { a.dp(opADC, true, rd, rn, op) }
func (a *ARM) SBC(rd, rn Reg, op Operand)  { a.dp(opSBC, false, rd, rn, op) }
func (a *ARM) SBCS(rd, rn Reg, op Operand) { a.dp(opSBC, true, rd, rn, op) }
func (a *ARM) RSC(rd, rn Reg, op Operand)  { a.dp(opRSC, false, rd, rn, op) }
func (a *ARM) RSCS(rd, rn Reg, op Operand) { a.dp(opRSC, true, rd, rn, op) }
func (a *ARM) ORR(rd, rn Reg, op Operand)  { a.dp(opORR, false, rd, rn, op) }
func (a *ARM) ORRS(rd, rn Reg, op Operand) { a.dp(opORR, true, rd, rn, op) }
func (a *ARM) BIC(rd, rn Reg, op Operand)  { a.dp(opBIC, false, rd, rn, op) }
func (a *ARM) BICS(rd, rn Reg, op Operand) { a.dp(opBIC, true, rd, rn, op) }

func (a *ARM) MOV(rd Reg, op Operand)  { a.dp(opMOV, false, rd, R0, op) }
func (a *ARM) MOVS(rd Reg, op Operand) { a.dp(opMOV, true, rd, R0, op) }
func (a *ARM) MVN(rd Reg, op Operand)  { a.dp(opMVN, false, rd, R0, op) }
func (a *ARM) MVNS(rd Reg, op Operand) { a.dp(opMVN, true, rd, R0, op) }

func (a *ARM) TST(rn Reg, op Operand) { a.dp(opTST, true, R0, rn, op) }
func (a *ARM) TEQ(rn Reg, op Operand) { a.dp(opTEQ, true, R0, rn, op) }
func (a *ARM) CMP(rn Reg, op Operand) { a.dp(opCMP, true, R0, rn, op) }
func (a *ARM) CMN(rn Reg, op Operand) { a.dp(opCMN, true, R0, rn, op) }

// MovImm32 loads any 32 bit constant with a MOV followed by up to three
// ORRs
func (a *ARM) MovImm32(rd Reg, value uint32) {
	if op := Imm(value); op.err == nil {
		a.MOV(rd, op)
		return
	}
	if op := Imm(^value); op.err == nil {
		a.MVN(rd, op)
		return
	}
	a.MOV(rd, Imm(value&0xFF))
	for shift := 8; shift < 32; shift += 8 {
		if part := value & (0xFF << shift); part != 0 {
			a.ORR(rd, rd, Imm(part))
		}
	}
}

func (a *ARM) multiply(accumulate, s bool, rd, rm, rs, rn Reg) {
	word := uint32(0b1001)<<4 | uint32(rd)<<16 | uint32(rn)<<12 | uint32(rs)<<8 | uint32(rm)
	if accumulate {
		word |= 1 << 21
	}
	if s {
		word |= 1 << 20
	}
	a.emit(word)
}

func (a *ARM) MUL(rd, rm, rs Reg)      { a.multiply(false, false, rd, rm, rs, R0) }
func (a *ARM) MULS(rd, rm, rs Reg)     { a.multiply(false, true, rd, rm, rs, R0) }
func (a *ARM) MLA(rd, rm, rs, rn Reg)  { a.multiply(true, false, rd, rm, rs, rn) }
func (a *ARM) MLAS(rd, rm, rs, rn Reg) { a.multiply(true, true, rd, rm, rs, rn) }

// MultiplyLong emits UMULL, UMLAL, SMULL or SMLAL
func (a *ARM) MultiplyLong(signed, accumulate, s bool, rdLo, rdHi, rm, rs Reg) {
	word := uint32(0b00001)<<23 | uint32(0b1001)<<4 | uint32(rdHi)<<16 | uint32(rdLo)<<12 | uint32(rs)<<8 | uint32(rm)
	if signed {
		word |= 1 << 22
	}
	if accumulate {
		word |= 1 << 21
	}
	if s {
		word |= 1 << 20
	}
	a.emit(word)
}

func (a *ARM) UMULL(rdLo, rdHi, rm, rs Reg) { a.MultiplyLong(false, false, false, rdLo, rdHi, rm, rs) }
func (a *ARM) UMLAL(rdLo, rdHi, rm, rs Reg) { a.MultiplyLong(false, true, false, rdLo, rdHi, rm, rs) }
func (a *ARM) SMULL(rdLo, rdHi, rm, rs Reg) { a.MultiplyLong(true, false, false, rdLo, rdHi, rm, rs) }
func (a *ARM) SMLAL(rdLo, rdHi, rm, rs Reg) { a.MultiplyLong(true, true, false, rdLo, rdHi, rm, rs) }

func (a *ARM) transfer(load, byteTransfer, user bool, rd Reg, addr Address) {
	if addr.err != nil {
		a.p.fail(addr.err)
		return
	}
	if !addr.register && addr.offset > 0xFFF {
		a.p.fail(utils.MakeError(ErrOutOfRange, "transfer offset %d", addr.offset))
		return
	}

	word := uint32(0b01)<<26 | addr.bits() | uint32(rd)<<12 | addr.offset
	if addr.register {
		word |= 1 << 25
	}
	if byteTransfer {
		word |= 1 << 22
	}
	if user {
		word |= 1 << 21
	}
	if load {
		word |= 1 << 20
	}
	a.emit(word)
}

func (a *ARM) LDR(rd Reg, addr Address)  { a.transfer(true, false, false, rd, addr) }
func (a *ARM) STR(rd Reg, addr Address)  { a.transfer(false, false, false, rd, addr) }
func (a *ARM) LDRB(rd Reg, addr Address) { a.transfer(true, true, false, rd, addr) }
func (a *ARM) STRB(rd Reg, addr Address) { a.transfer(false, true, false, rd, addr) }

// LDRT loads with a User mode access, addr must be post indexed
func (a *ARM) LDRT(rd Reg, addr Address) { a.transfer(true, false, true, rd, addr) }

// STRT stores with a User mode access, addr must be post indexed
func (a *ARM) STRT(rd Reg, addr Address) { a.transfer(false, false, true, rd, addr) }

// LDRLabel loads the word at a label, PC relative
func (a *ARM) LDRLabel(rd Reg, label string) {
	a.p.addFixup(label, 4, func(site, target, encoded uint32) (uint32, error) {
		offset := int64(target) - int64(site) - 8
		encoded &^= 0xFFF | 1<<23
		if offset >= 0 {
			encoded |= 1 << 23
		} else {
			offset = -offset
		}
		if offset > 0xFFF {
			return 0, utils.MakeError(ErrOutOfRange, "offset %d", offset)
		}
		return encoded | uint32(offset), nil
	})
	a.LDR(rd, Off(PC, 0))
}

// ADR computes the address of a label with an ADD or SUB from the PC
func (a *ARM) ADR(rd Reg, label string) {
	a.p.addFixup(label, 4, func(site, target, encoded uint32) (uint32, error) {
		offset := int64(target) - int64(site) - 8
		op := uint32(opADD)
		if offset < 0 {
			op, offset = opSUB, -offset
		}
		imm := Imm(uint32(offset))
		if imm.err != nil {
			return 0, imm.err
		}
		return encoded&^(0xF<<21|0xFFF) | op<<21 | imm.bits, nil
	})
	a.ADD(rd, PC, Imm(0))
}

// halfword transfer kinds, opcode bits 6-5
const (
	halfUnsigned   uint32 = 0b01
	halfSignedByte uint32 = 0b10
	halfSigned     uint32 = 0b11
)

func (a *ARM) halfTransfer(load bool, kind uint32, rd Reg, addr Address) {
	if addr.err != nil {
		a.p.fail(addr.err)
		return
	}

	word := addr.bits() | uint32(rd)<<12 | 1<<7 | kind<<5 | 1<<4
	if addr.register {
		if addr.offset > 0xF {
			a.p.fail(utils.MakeError(ErrInvalidOperand, "halfword transfers do not shift the offset register"))
			return
		}
		word |= addr.offset
	} else {
		if addr.offset > 0xFF {
			a.p.fail(utils.MakeError(ErrOutOfRange, "halfword transfer offset %d", addr.offset))
			return
		}
		word |= 1<<22 | (addr.offset&0xF0)<<4 | addr.offset&0xF
	}
	if load {
		word |= 1 << 20
	}
	a.emit(word)
}

func (a *ARM) LDRH(rd Reg, addr Address)  { a.halfTransfer(true, halfUnsigned, rd, addr) }
func (a *ARM) STRH(rd Reg, addr Address)  { a.halfTransfer(false, halfUnsigned, rd, addr) }
func (a *ARM) LDRSB(rd Reg, addr Address) { a.halfTransfer(true, halfSignedByte, rd, addr) }
func (a *ARM) LDRSH(rd Reg, addr Address) { a.halfTransfer(true, halfSigned, rd, addr) }

// BlockMode is the addressing mode of LDM/STM: the P and U bits
type BlockMode uint32

const (
	DA BlockMode = iota
	IA
	DB
	IB
)

func (a *ARM) block(load, s bool, mode BlockMode, rn Reg, writeback bool, regs []Reg) {
	word := uint32(0b100)<<25 | uint32(mode)<<23 | uint32(rn)<<16 | registerList(regs)
	if s {
		word |= 1 << 22
	}
	if writeback {
		word |= 1 << 21
	}
	if load {
		word |= 1 << 20
	}
	a.emit(word)
}

func (a *ARM) LDM(mode BlockMode, rn Reg, writeback bool, regs ...Reg) {
	a.block(true, false, mode, rn, writeback, regs)
}

func (a *ARM) STM(mode BlockMode, rn Reg, writeback bool, regs ...Reg) {
	a.block(false, false, mode, rn, writeback, regs)
}

// LDMS is LDM with the S bit: User bank registers, or CPSR restore when
// loading the PC
func (a *ARM) LDMS(mode BlockMode, rn Reg, writeback bool, regs ...Reg) {
	a.block(true, true, mode, rn, writeback, regs)
}

// STMS is STM with the S bit: User bank registers
func (a *ARM) STMS(mode BlockMode, rn Reg, writeback bool, regs ...Reg) {
	a.block(false, true, mode, rn, writeback, regs)
}

func (a *ARM) PUSH(regs ...Reg) { a.STM(DB, SP, true, regs...) }
func (a *ARM) POP(regs ...Reg)  { a.LDM(IA, SP, true, regs...) }

func (a *ARM) branch(link bool, label string) {
	a.p.addFixup(label, 4, func(site, target, encoded uint32) (uint32, error) {
		offset := int64(target) - int64(site) - 8
		if offset%4 != 0 {
			return 0, utils.MakeError(ErrMisalignedAddress, "branch target 0x%08X", target)
		}
		if offset < -(1<<25) || offset >= 1<<25 {
			return 0, utils.MakeError(ErrOutOfRange, "branch offset %d", offset)
		}
		return encoded&^0xFFFFFF | uint32(offset>>2)&0xFFFFFF, nil
	})

	word := uint32(0b101) << 25
	if link {
		word |= 1 << 24
	}
	a.emit(word)
}

func (a *ARM) B(label string)  { a.branch(false, label) }
func (a *ARM) BL(label string) { a.branch(true, label) }

func (a *ARM) BX(rm Reg) {
	a.emit(0x012FFF10 | uint32(rm))
}

func (a *ARM) SWI(comment uint32) {
	a.emit(0x0F000000 | comment&0xFFFFFF)
}

// PSR fields written by MSR
const (
	FieldControl uint32 = 1 << 16
	FieldFlags   uint32 = 1 << 19
)

func (a *ARM) MRS(rd Reg, spsr bool) {
	word := uint32(0x010F0000) | uint32(rd)<<12
	if spsr {
		word |= 1 << 22
	}
	a.emit(word)
}

// MSR writes the fields of the CPSR (or SPSR) from a register or an
// immediate
func (a *ARM) MSR(spsr bool, fields uint32, op Operand) {
	if op.err != nil {
		a.p.fail(op.err)
		return
	}
	if !op.immediate && op.bits > 0xF {
		a.p.fail(utils.MakeError(ErrInvalidOperand, "MSR takes an unshifted register"))
		return
	}

	word := uint32(0x0120F000) | fields | op.bits
	if op.immediate {
		word |= 1 << 25
	}
	if spsr {
		word |= 1 << 22
	}
	a.emit(word)
}

func (a *ARM) swap(byteSwap bool, rd, rm, rn Reg) {
	word := uint32(0x01000090) | uint32(rn)<<16 | uint32(rd)<<12 | uint32(rm)
	if byteSwap {
		word |= 1 << 22
	}
	a.emit(word)
}

// SWP is rd = [rn], [rn] = rm
func (a *ARM) SWP(rd, rm, rn Reg)  { a.swap(false, rd, rm, rn) }
func (a *ARM) SWPB(rd, rm, rn Reg) { a.swap(true, rd, rm, rn) }
