package arm

// PSR field masks of MSR
const (
	psrFlagsMask   uint32 = 0xF0000000
	psrControlMask uint32 = 0x000000FF
)

// armMRS copies the CPSR or the SPSR to Rd
func armMRS(spsr bool) armInstruction {
	return func(c *CPU, m Memory, op uint32) {
		value := c.Registers.ReadCPSR()
		if spsr {
			value = c.Registers.ReadSPSR()
		}
		c.Registers.Write(int(op>>12)&0xF, value)
	}
}

// armMSR writes the fields of the CPSR or the SPSR selected by opcode bits
// 19 (flags) and 16 (control). User mode can only write the CPSR flags and
// the T bit of the CPSR is never written.
func armMSR(spsr, immediate bool) armInstruction {
	return func(c *CPU, m Memory, op uint32) {
		r := &c.Registers

		var value uint32
		if immediate {
			value = aluImm(r, op&0xFF, (op>>8)&0xF)
		} else {
			value = r.Read(int(op) & 0xF)
		}

		var mask uint32
		if op&(1<<19) != 0 {
			mask |= psrFlagsMask
		}
		if op&(1<<16) != 0 {
			mask |= psrControlMask
		}

		if spsr {
			r.WriteSPSR(r.ReadSPSR()&^mask | value&mask)
			return
		}

		if !r.Mode().Privileged() {
			mask &= psrFlagsMask
		}
		mask &^= 1 << FlagT
		r.WriteCPSR(r.ReadCPSR()&^mask | value&mask)
	}
}
