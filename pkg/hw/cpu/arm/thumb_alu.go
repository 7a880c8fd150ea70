package arm

// THUMB formats 1-5: shifts, add/subtract, 8 bit immediate operations,
// ALU operations and hi register operations. All of them cost 1S except
// register shifts (+1I), MUL (+mI) and PC writes (pipeline refill).

// shift by immediate with carry out: LSL, LSR, ASR
var thumbShifts = [3]shiftFunc{aluLLIS, aluLRIS, aluARIS}

func thumbMoveShifted(shift shiftFunc) thumbInstruction {
	return func(c *CPU, m Memory, op uint16) {
		r := &c.Registers
		rd := int(op) & 0b111
		rs := int(op>>3) & 0b111
		amount := uint32(op>>6) & 0x1F

		result := shift(r, r.Read(rs), amount)
		setNZ(r, result)
		r.Write(rd, result)
	}
}

func thumbAddSub(immediate, sub bool) thumbInstruction {
	return func(c *CPU, m Memory, op uint16) {
		r := &c.Registers
		rd := int(op) & 0b111
		rs := int(op>>3) & 0b111
		operand := uint32(op>>6) & 0b111
		if !immediate {
			operand = r.Read(int(operand))
		}

		if sub {
			r.Write(rd, aluSubs(r, r.Read(rs), operand))
		} else {
			r.Write(rd, aluAdds(r, r.Read(rs), operand))
		}
	}
}

// MOV, CMP, ADD, SUB with an 8 bit immediate
var thumbImmediateOps = [4]*aluOperation{
	aluOperations[0b1101],
	aluOperations[0b1010],
	aluOperations[0b0100],
	aluOperations[0b0010],
}

func thumbImmediate(alu *aluOperation, rd int) thumbInstruction {
	return func(c *CPU, m Memory, op uint16) {
		r := &c.Registers
		result := alu.flags(r, r.Read(rd), uint32(op)&0xFF)
		if !alu.test {
			r.Write(rd, result)
		}
	}
}

type thumbALUFunc func(c *CPU, lhs, rhs uint32) uint32

func thumbShiftALU(shift shiftFunc) thumbALUFunc {
	return func(c *CPU, lhs, rhs uint32) uint32 {
		c.internal(1)
		return logical(&c.Registers, shift(&c.Registers, lhs, rhs&0xFF))
	}
}

func thumbFlagALU(alu aluFunc) thumbALUFunc {
	return func(c *CPU, lhs, rhs uint32) uint32 {
		return alu(&c.Registers, lhs, rhs)
	}
}

func thumbNeg(c *CPU, _, rhs uint32) uint32 {
	return aluSubs(&c.Registers, 0, rhs)
}

func thumbMul(c *CPU, lhs, rhs uint32) uint32 {
	c.internal(multiplyCycles(lhs))
	return logical(&c.Registers, lhs*rhs)
}

type thumbALUOperation struct {
	name string
	alu  thumbALUFunc
	// compare operations do not write Rd
	test bool
}

// thumbALUOperations is indexed by opcode bits 9-6. The dispatch table
// selects a group of 4 by bits 9-8.
var thumbALUOperations = [16]thumbALUOperation{
	{name: "and", alu: thumbFlagALU(aluAnds)},
	{name: "eor", alu: thumbFlagALU(aluEors)},
	{name: "lsl", alu: thumbShiftALU(aluLLRS)},
	{name: "lsr", alu: thumbShiftALU(aluLRRS)},
	{name: "asr", alu: thumbShiftALU(aluARRS)},
	{name: "adc", alu: thumbFlagALU(aluAdcs)},
	{name: "sbc", alu: thumbFlagALU(aluSbcs)},
	{name: "ror", alu: thumbShiftALU(aluRRRS)},
	{name: "tst", alu: thumbFlagALU(testALU(aluTst)), test: true},
	{name: "neg", alu: thumbNeg},
	{name: "cmp", alu: thumbFlagALU(testALU(aluCmp)), test: true},
	{name: "cmn", alu: thumbFlagALU(testALU(aluCmn)), test: true},
	{name: "orr", alu: thumbFlagALU(aluOrrs)},
	{name: "mul", alu: thumbMul},
	{name: "bic", alu: thumbFlagALU(aluBics)},
	{name: "mvn", alu: thumbFlagALU(aluMvns)},
}

func thumbALU(group uint32) thumbInstruction {
	ops := thumbALUOperations[group*4 : group*4+4]
	return func(c *CPU, m Memory, op uint16) {
		r := &c.Registers
		rd := int(op) & 0b111
		rs := int(op>>3) & 0b111

		alu := &ops[(op>>6)&0b11]
		result := alu.alu(c, r.Read(rd), r.Read(rs))
		if !alu.test {
			r.Write(rd, result)
		}
	}
}

// thumbHiRegister builds ADD, CMP, MOV and BX on the full register set.
// Only CMP sets flags.
func thumbHiRegister(operation uint32) thumbInstruction {
	return func(c *CPU, m Memory, op uint16) {
		r := &c.Registers
		rd := int(op)&0b111 | int(op>>4)&0b1000
		rs := int(op>>3) & 0xF
		value := r.Read(rs)

		switch operation {
		case 0b00:
			c.writeRegister(rd, r.Read(rd)+value, m)
		case 0b01:
			aluCmp(r, r.Read(rd), value)
		case 0b10:
			c.writeRegister(rd, value, m)
		default:
			r.PutT(value&1 != 0)
			c.branchTo(value, m)
		}
	}
}
