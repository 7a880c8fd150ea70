package arm

// thumbInstruction executes one THUMB opcode, charging its cycles to the
// CPU
type thumbInstruction func(c *CPU, m Memory, op uint16)

// thumbTable is indexed by thumbIndex(): opcode bits 15-8
var thumbTable [256]thumbInstruction

func init() {
	for index := range thumbTable {
		thumbTable[index] = decodeThumb(uint32(index))
	}
}

// decodeThumb picks the handler of a dispatch table slot holding opcode
// bits 15-8
func decodeThumb(hi uint32) thumbInstruction {
	switch {
	case hi>>5 == 0b000:
		if (hi>>3)&0b11 != 0b11 {
			return thumbMoveShifted(thumbShifts[(hi>>3)&0b11])
		}
		return thumbAddSub(hi&0b100 != 0, hi&0b10 != 0)

	case hi>>5 == 0b001:
		return thumbImmediate(thumbImmediateOps[(hi>>3)&0b11], int(hi&0b111))

	case hi>>2 == 0b010000:
		return thumbALU(hi & 0b11)

	case hi>>2 == 0b010001:
		return thumbHiRegister(hi & 0b11)

	case hi>>3 == 0b01001:
		return thumbLoadPCRelative(int(hi & 0b111))

	case hi>>4 == 0b0101:
		if hi&0b10 == 0 {
			kind := transferWord
			if hi&0b100 != 0 {
				kind = transferByte
			}
			return thumbTransferRegister(kind, hi&0b1000 != 0)
		}
		return thumbTransferRegister(thumbSignedKinds[(hi>>2)&0b11], (hi>>2)&0b11 != 0)

	case hi>>5 == 0b011:
		kind := transferWord
		if hi&0b10000 != 0 {
			kind = transferByte
		}
		return thumbTransferImmediate(kind, hi&0b1000 != 0)

	case hi>>4 == 0b1000:
		return thumbTransferImmediate(transferHalf, hi&0b1000 != 0)

	case hi>>4 == 0b1001:
		return thumbTransferSPRelative(hi&0b1000 != 0, int(hi&0b111))

	case hi>>4 == 0b1010:
		return thumbLoadAddress(hi&0b1000 != 0, int(hi&0b111))

	case hi == 0b10110000:
		return thumbAddSP

	case hi&0b11110110 == 0b10110100:
		return thumbPushPop(hi&0b1000 != 0, hi&1 != 0)

	case hi>>4 == 0b1100:
		return thumbBlockTransfer(hi&0b1000 != 0, int(hi&0b111))

	case hi>>4 == 0b1101:
		switch cond := Condition(hi & 0xF); cond {
		case CondAL:
			return thumbUndefined
		case CondNV:
			return thumbSWI
		default:
			return thumbConditionalBranch(cond)
		}

	case hi>>3 == 0b11100:
		return thumbBranch

	case hi>>3 == 0b11110:
		return thumbLongBranchHigh

	case hi>>3 == 0b11111:
		return thumbLongBranchLow

	default:
		return thumbUndefined
	}
}

// signed/halfword register offset transfers by opcode bits 11-10: STRH,
// LDSB, LDRH, LDSH
var thumbSignedKinds = [4]transferKind{transferHalf, transferSignedByte, transferHalf, transferSignedHalf}
