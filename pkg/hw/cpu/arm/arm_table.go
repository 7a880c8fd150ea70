package arm

// armInstruction executes one ARM opcode, charging its cycles to the CPU
type armInstruction func(c *CPU, m Memory, op uint32)

// armTable is indexed by armIndex(): opcode bits 27-20 and 7-4
var armTable [4096]armInstruction

func init() {
	for index := range armTable {
		armTable[index] = decodeARM(uint32(index))
	}
}

// decodeARM picks the handler of a dispatch table slot. hi holds opcode
// bits 27-20 and lo bits 7-4.
func decodeARM(index uint32) armInstruction {
	hi, lo := index>>4, index&0xF

	switch hi >> 5 {
	case 0b000:
		if lo == 0b1001 {
			switch {
			case hi&0b11111100 == 0b00000000:
				return armMultiply(hi&0b10 != 0, hi&1 != 0)
			case hi&0b11111000 == 0b00001000:
				return armMultiplyLong(hi&0b100 != 0, hi&0b10 != 0, hi&1 != 0)
			case hi&0b11111011 == 0b00010000:
				return armSwap(hi&0b100 != 0)
			default:
				return armUndefined
			}
		}
		if lo&0b1001 == 0b1001 {
			return decodeHalfwordTransfer(hi, lo)
		}
		if hi&0b11011001 == 0b00010000 {
			return decodeMisc(hi, lo)
		}
		return armDataProcessing(aluOperations[(hi>>1)&0xF], decodeOperand(lo), hi&1 != 0)

	case 0b001:
		if hi&0b11011001 == 0b00010000 {
			if hi&0b10 == 0 {
				return armUndefined
			}
			return armMSR(hi&0b100 != 0, true)
		}
		return armDataProcessing(aluOperations[(hi>>1)&0xF], &operandModes[operandIMM], hi&1 != 0)

	case 0b010, 0b011:
		if hi&0b100000 != 0 && lo&1 != 0 {
			return armUndefined
		}
		return armSingleTransfer(decodeSingleTransfer(hi, lo))

	case 0b100:
		return armBlockTransfer(blockTransferConfig{
			pre:       hi&0b10000 != 0,
			up:        hi&0b1000 != 0,
			psr:       hi&0b100 != 0,
			writeback: hi&0b10 != 0,
			load:      hi&1 != 0,
		})

	case 0b101:
		return armBranch(hi&0b10000 != 0)

	case 0b110:
		return armCoprocessor

	default:
		if hi&0b10000 != 0 {
			return armSWI
		}
		return armCoprocessor
	}
}

// decodeMisc decodes the PSR transfer and BX instructions living in the
// encoding space of the compare operations without S bit
func decodeMisc(hi, lo uint32) armInstruction {
	spsr := hi&0b100 != 0
	switch {
	case hi&0b10 == 0 && lo == 0:
		return armMRS(spsr)
	case hi&0b10 != 0 && lo == 0:
		return armMSR(spsr, false)
	case hi == 0b00010010 && lo == 0b0001:
		return armBX
	default:
		return armUndefined
	}
}

// decodeOperand returns the shifter operand of a register data processing
// opcode from bits 7-4
func decodeOperand(lo uint32) *operandMode {
	shift := (lo >> 1) & 0b11
	if lo&1 == 0 {
		return &operandModes[operandLLI+2*shift]
	}
	return &operandModes[operandLLR+2*shift]
}
