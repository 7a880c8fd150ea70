package arm

// armMultiply builds MUL and MLA: 1S + mI, one more I when accumulating
func armMultiply(accumulate, s bool) armInstruction {
	return func(c *CPU, m Memory, op uint32) {
		r := &c.Registers
		rd := int(op>>16) & 0xF
		rn := int(op>>12) & 0xF
		rs := r.Read(int(op>>8) & 0xF)
		rm := r.Read(int(op) & 0xF)

		result := rm * rs
		c.internal(multiplyCycles(rs))
		if accumulate {
			result += r.Read(rn)
			c.internal(1)
		}

		if s {
			// C is destroyed on ARMv4, it is left alone here
			setNZ(r, result)
		}
		r.Write(rd, result)
	}
}

// armMultiplyLong builds UMULL, UMLAL, SMULL and SMLAL: 1S + (m+1)I, one
// more I when accumulating
func armMultiplyLong(signed, accumulate, s bool) armInstruction {
	return func(c *CPU, m Memory, op uint32) {
		r := &c.Registers
		rdHi := int(op>>16) & 0xF
		rdLo := int(op>>12) & 0xF
		rs := r.Read(int(op>>8) & 0xF)
		rm := r.Read(int(op) & 0xF)

		var result uint64
		if signed {
			result = uint64(int64(int32(rm)) * int64(int32(rs)))
		} else {
			result = uint64(rm) * uint64(rs)
		}
		c.internal(multiplyCycles(rs) + 1)

		if accumulate {
			result += uint64(r.Read(rdHi))<<32 | uint64(r.Read(rdLo))
			c.internal(1)
		}

		if s {
			r.PutN(result>>63 != 0)
			r.PutZ(result == 0)
		}
		r.Write(rdLo, uint32(result))
		r.Write(rdHi, uint32(result>>32))
	}
}
