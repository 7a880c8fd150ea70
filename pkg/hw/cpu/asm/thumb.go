package asm

import (
	"github.com/Manu343726/armv4t/pkg/hw/cpu/arm"
	"github.com/Manu343726/armv4t/pkg/utils"
)

// Thumb emits 16 bit THUMB instructions into a program
type Thumb struct {
	p *Program
}

// Thumb returns a THUMB instruction emitter for the program
func (p *Program) Thumb() *Thumb {
	return &Thumb{p: p}
}

func (t *Thumb) emit(op uint32) {
	if t.p.PC()%2 != 0 {
		t.p.fail(utils.MakeError(ErrMisalignedAddress, "THUMB instruction at 0x%08X", t.p.PC()))
	}
	t.p.Half(uint16(op))
}

// check records an error when value does not fit in width bits once
// divided by scale
func (t *Thumb) check(value uint32, width int, scale uint32) uint32 {
	if value%scale != 0 {
		t.p.fail(utils.MakeError(ErrMisalignedAddress, "offset %d is not a multiple of %d", value, scale))
	}
	value /= scale
	if value > utils.AllOnes[uint32](width) {
		t.p.fail(utils.MakeError(ErrOutOfRange, "%d does not fit in %d bits", value, width))
	}
	return value & utils.AllOnes[uint32](width)
}

func (t *Thumb) low(regs ...Reg) {
	for _, r := range regs {
		if r > R7 {
			t.p.fail(utils.MakeError(ErrInvalidOperand, "r%d is not a low register", r))
		}
	}
}

func (t *Thumb) shiftImm(shift Shift, rd, rs Reg, amount uint32) {
	t.low(rd, rs)
	if shift != LSL && amount == 32 {
		amount = 0
	}
	t.emit(uint32(shift)<<11 | t.check(amount, 5, 1)<<6 | uint32(rs)<<3 | uint32(rd))
}

// LSLImm is LSL rd, rs, #amount (0..31)
func (t *Thumb) LSLImm(rd, rs Reg, amount uint32) { t.shiftImm(LSL, rd, rs, amount) }

// LSRImm is LSR rd, rs, #amount (1..32)
func (t *Thumb) LSRImm(rd, rs Reg, amount uint32) { t.shiftImm(LSR, rd, rs, amount) }

// ASRImm is ASR rd, rs, #amount (1..32)
func (t *Thumb) ASRImm(rd, rs Reg, amount uint32) { t.shiftImm(ASR, rd, rs, amount) }

func (t *Thumb) addSub(immediate, sub bool, rd, rs Reg, operand uint32) {
	t.low(rd, rs)
	op := uint32(0b00011)<<11 | t.check(operand, 3, 1)<<6 | uint32(rs)<<3 | uint32(rd)
	if immediate {
		op |= 1 << 10
	}
	if sub {
		op |= 1 << 9
	}
	t.emit(op)
}

func (t *Thumb) ADD(rd, rs, rn Reg)          { t.addSub(false, false, rd, rs, uint32(rn)) }
func (t *Thumb) SUB(rd, rs, rn Reg)          { t.addSub(false, true, rd, rs, uint32(rn)) }
func (t *Thumb) ADDImm3(rd, rs Reg, n uint32) { t.addSub(true, false, rd, rs, n) }
func (t *Thumb) SUBImm3(rd, rs Reg, n uint32) { t.addSub(true, true, rd, rs, n) }

func (t *Thumb) immediate(op uint32, rd Reg, value uint32) {
	t.low(rd)
	t.emit(uint32(0b001)<<13 | op<<11 | uint32(rd)<<8 | t.check(value, 8, 1))
}

func (t *Thumb) MOVImm(rd Reg, value uint32) { t.immediate(0, rd, value) }
func (t *Thumb) CMPImm(rd Reg, value uint32) { t.immediate(1, rd, value) }
func (t *Thumb) ADDImm(rd Reg, value uint32) { t.immediate(2, rd, value) }
func (t *Thumb) SUBImm(rd Reg, value uint32) { t.immediate(3, rd, value) }

func (t *Thumb) alu(op uint32, rd, rs Reg) {
	t.low(rd, rs)
	t.emit(uint32(0b010000)<<10 | op<<6 | uint32(rs)<<3 | uint32(rd))
}

func (t *Thumb) AND(rd, rs Reg) { t.alu(0x0, rd, rs) }
func (t *Thumb) EOR(rd, rs Reg) { t.alu(0x1, rd, rs) }
func (t *Thumb) LSL(rd, rs Reg) { t.alu(0x2, rd, rs) }
func (t *Thumb) LSR(rd, rs Reg) { t.alu(0x3, rd, rs) }
func (t *Thumb) ASR(rd, rs Reg) { t.alu(0x4, rd, rs) }
func (t *Thumb) ADC(rd, rs Reg) { t.alu(0x5, rd, rs) }
func (t *Thumb) SBC(rd, rs Reg) { t.alu(0x6, rd, rs) }
func (t *Thumb) ROR(rd, rs Reg) { t.alu(0x7, rd, rs) }
func (t *Thumb) TST(rd, rs Reg) { t.alu(0x8, rd, rs) }
func (t *Thumb) NEG(rd, rs Reg) { t.alu(0x9, rd, rs) }
func (t *Thumb) CMP(rd, rs Reg) { t.alu(0xA, rd, rs) }
func (t *Thumb) CMN(rd, rs Reg) { t.alu(0xB, rd, rs) }
func (t *Thumb) ORR(rd, rs Reg) { t.alu(0xC, rd, rs) }
func (t *Thumb) MUL(rd, rs Reg) { t.alu(0xD, rd, rs) }
func (t *Thumb) BIC(rd, rs Reg) { t.alu(0xE, rd, rs) }
func (t *Thumb) MVN(rd, rs Reg) { t.alu(0xF, rd, rs) }

func (t *Thumb) hi(op uint32, rd, rs Reg) {
	t.emit(uint32(0b010001)<<10 | op<<8 | (uint32(rd)>>3)<<7 | uint32(rs)<<3 | uint32(rd)&0b111)
}

// ADDHi adds any two registers without setting flags
func (t *Thumb) ADDHi(rd, rs Reg) { t.hi(0, rd, rs) }

// CMPHi compares any two registers
func (t *Thumb) CMPHi(rd, rs Reg) { t.hi(1, rd, rs) }

// MOVHi moves between any two registers without setting flags
func (t *Thumb) MOVHi(rd, rs Reg) { t.hi(2, rd, rs) }

func (t *Thumb) BX(rs Reg) { t.hi(3, R0, rs) }

// LDRLabel loads the word at a label, relative to the word aligned PC
func (t *Thumb) LDRLabel(rd Reg, label string) {
	t.low(rd)
	t.p.addFixup(label, 2, func(site, target, encoded uint32) (uint32, error) {
		offset := int64(target) - int64((site+4)&^2)
		if offset < 0 || offset > 1020 || offset%4 != 0 {
			return 0, utils.MakeError(ErrOutOfRange, "PC relative offset %d", offset)
		}
		return encoded | uint32(offset>>2), nil
	})
	t.emit(uint32(0b01001)<<11 | uint32(rd)<<8)
}

func (t *Thumb) transferRegister(op uint32, rd, rb, ro Reg) {
	t.low(rd, rb, ro)
	t.emit(uint32(0b0101)<<12 | op<<9 | uint32(ro)<<6 | uint32(rb)<<3 | uint32(rd))
}

func (t *Thumb) STRReg(rd, rb, ro Reg)  { t.transferRegister(0b000, rd, rb, ro) }
func (t *Thumb) STRHReg(rd, rb, ro Reg) { t.transferRegister(0b001, rd, rb, ro) }
func (t *Thumb) STRBReg(rd, rb, ro Reg) { t.transferRegister(0b010, rd, rb, ro) }
func (t *Thumb) LDSBReg(rd, rb, ro Reg) { t.transferRegister(0b011, rd, rb, ro) }
func (t *Thumb) LDRReg(rd, rb, ro Reg)  { t.transferRegister(0b100, rd, rb, ro) }
func (t *Thumb) LDRHReg(rd, rb, ro Reg) { t.transferRegister(0b101, rd, rb, ro) }
func (t *Thumb) LDRBReg(rd, rb, ro Reg) { t.transferRegister(0b110, rd, rb, ro) }
func (t *Thumb) LDSHReg(rd, rb, ro Reg) { t.transferRegister(0b111, rd, rb, ro) }

func (t *Thumb) transferImmediate(prefix uint32, load bool, rd, rb Reg, offset, scale uint32) {
	t.low(rd, rb)
	op := prefix<<11 | t.check(offset, 5, scale)<<6 | uint32(rb)<<3 | uint32(rd)
	if load {
		op |= 1 << 11
	}
	t.emit(op)
}

// STRImm is STR rd, [rb, #offset], offset a multiple of 4 up to 124
func (t *Thumb) STRImm(rd, rb Reg, offset uint32) { t.transferImmediate(0b01100, false, rd, rb, offset, 4) }
func (t *Thumb) LDRImm(rd, rb Reg, offset uint32) { t.transferImmediate(0b01100, true, rd, rb, offset, 4) }

// STRBImm is STRB rd, [rb, #offset], offset up to 31
func (t *Thumb) STRBImm(rd, rb Reg, offset uint32) { t.transferImmediate(0b01110, false, rd, rb, offset, 1) }
func (t *Thumb) LDRBImm(rd, rb Reg, offset uint32) { t.transferImmediate(0b01110, true, rd, rb, offset, 1) }

// STRHImm is STRH rd, [rb, #offset], offset a multiple of 2 up to 62
func (t *Thumb) STRHImm(rd, rb Reg, offset uint32) { t.transferImmediate(0b10000, false, rd, rb, offset, 2) }
func (t *Thumb) LDRHImm(rd, rb Reg, offset uint32) { t.transferImmediate(0b10000, true, rd, rb, offset, 2) }

func (t *Thumb) spRelative(load bool, rd Reg, offset uint32) {
	t.low(rd)
	op := uint32(0b1001)<<12 | uint32(rd)<<8 | t.check(offset, 8, 4)
	if load {
		op |= 1 << 11
	}
	t.emit(op)
}

// STRSP is STR rd, [SP, #offset]
func (t *Thumb) STRSP(rd Reg, offset uint32) { t.spRelative(false, rd, offset) }

// LDRSP is LDR rd, [SP, #offset]
func (t *Thumb) LDRSP(rd Reg, offset uint32) { t.spRelative(true, rd, offset) }

// ADR computes the address of a word aligned label after the instruction
func (t *Thumb) ADR(rd Reg, label string) {
	t.low(rd)
	t.p.addFixup(label, 2, func(site, target, encoded uint32) (uint32, error) {
		offset := int64(target) - int64((site+4)&^2)
		if offset < 0 || offset > 1020 || offset%4 != 0 {
			return 0, utils.MakeError(ErrOutOfRange, "PC relative offset %d", offset)
		}
		return encoded | uint32(offset>>2), nil
	})
	t.emit(uint32(0b1010)<<12 | uint32(rd)<<8)
}

// ADDSPImm is ADD rd, SP, #offset
func (t *Thumb) ADDSPImm(rd Reg, offset uint32) {
	t.low(rd)
	t.emit(uint32(0b1010)<<12 | 1<<11 | uint32(rd)<<8 | t.check(offset, 8, 4))
}

// ADDSP adds a signed multiple of 4 to SP
func (t *Thumb) ADDSP(offset int32) {
	op := uint32(0b10110000) << 8
	if offset < 0 {
		op |= 1 << 7
		offset = -offset
	}
	t.emit(op | t.check(uint32(offset), 7, 4))
}

// PUSH stores low registers, and LR when lr is set
func (t *Thumb) PUSH(lr bool, regs ...Reg) {
	t.low(regs...)
	op := uint32(0b1011010)<<9 | registerList(regs)
	if lr {
		op |= 1 << 8
	}
	t.emit(op)
}

// POP loads low registers, and PC when pc is set
func (t *Thumb) POP(pc bool, regs ...Reg) {
	t.low(regs...)
	op := uint32(0b1011110)<<9 | registerList(regs)
	if pc {
		op |= 1 << 8
	}
	t.emit(op)
}

func (t *Thumb) STMIA(rb Reg, regs ...Reg) {
	t.low(append(regs, rb)...)
	t.emit(uint32(0b11000)<<11 | uint32(rb)<<8 | registerList(regs))
}

func (t *Thumb) LDMIA(rb Reg, regs ...Reg) {
	t.low(append(regs, rb)...)
	t.emit(uint32(0b11001)<<11 | uint32(rb)<<8 | registerList(regs))
}

func branchOffset(site, target uint32, width int) (uint32, error) {
	offset := int64(target) - int64(site) - 4
	if offset%2 != 0 {
		return 0, utils.MakeError(ErrMisalignedAddress, "branch target 0x%08X", target)
	}
	offset >>= 1
	if offset < -(1<<(width-1)) || offset >= 1<<(width-1) {
		return 0, utils.MakeError(ErrOutOfRange, "branch offset %d", offset<<1)
	}
	return uint32(offset) & utils.AllOnes[uint32](width), nil
}

// Bcc branches to a label when cond passes
func (t *Thumb) Bcc(cond arm.Condition, label string) {
	if cond >= arm.CondAL {
		t.p.fail(utils.MakeError(ErrInvalidOperand, "condition %s", cond))
		return
	}
	t.p.addFixup(label, 2, func(site, target, encoded uint32) (uint32, error) {
		offset, err := branchOffset(site, target, 8)
		return encoded | offset, err
	})
	t.emit(uint32(0b1101)<<12 | uint32(cond)<<8)
}

func (t *Thumb) B(label string) {
	t.p.addFixup(label, 2, func(site, target, encoded uint32) (uint32, error) {
		offset, err := branchOffset(site, target, 11)
		return encoded | offset, err
	})
	t.emit(uint32(0b11100) << 11)
}

// BL emits the two halves of a long branch with link
func (t *Thumb) BL(label string) {
	t.p.addFixup(label, 4, func(site, target, encoded uint32) (uint32, error) {
		offset, err := branchOffset(site, target, 22)
		if err != nil {
			return 0, err
		}
		return encoded | offset>>11 | (offset&0x7FF)<<16, nil
	})
	t.emit(uint32(0b11110) << 11)
	t.emit(uint32(0b11111) << 11)
}

func (t *Thumb) SWI(comment uint32) {
	t.emit(0xDF00 | t.check(comment, 8, 1))
}

// Raw emits an opcode as is
func (t *Thumb) Raw(op uint16) {
	t.p.Half(op)
}
