package arm

import "log/slog"

// armSwap builds SWP and SWPB: 1S + 2N + 1I
func armSwap(byteSwap bool) armInstruction {
	return func(c *CPU, m Memory, op uint32) {
		r := &c.Registers
		address := r.Read(int(op>>16) & 0xF)
		rd := int(op>>12) & 0xF
		source := r.Read(int(op) & 0xF)

		var value uint32
		if byteSwap {
			value = uint32(m.Load8(address, NonSeq, &c.cycles))
			m.Store8(address, uint8(source), NonSeq, &c.cycles)
		} else {
			value = c.loadWord(m, address, NonSeq)
			m.Store32(address&^3, source, NonSeq, &c.cycles)
		}
		c.internal(1)
		c.writeRegister(rd, value, m)
	}
}

func armSWI(c *CPU, m Memory, op uint32) {
	c.HandleException(ExceptionSWI, m)
}

// armCoprocessor handles CDP, LDC, STC, MCR and MRC. There are no
// coprocessors attached, so they trap like undefined instructions.
func armCoprocessor(c *CPU, m Memory, op uint32) {
	c.log().Warn("coprocessor instruction without coprocessor",
		slog.String("pc", hex32(c.Registers.Read(PC)-8)),
		slog.String("opcode", hex32(op)))
	c.HandleException(ExceptionUndefined, m)
}

func armUndefined(c *CPU, m Memory, op uint32) {
	c.log().Warn("undefined instruction",
		slog.String("pc", hex32(c.Registers.Read(PC)-8)),
		slog.String("opcode", hex32(op)))
	c.HandleException(ExceptionUndefined, m)
}
