package arm

import "math/bits"

// Single data transfer (LDR, STR, LDRB, STRB) and halfword/signed data
// transfer (LDRH, STRH, LDRSB, LDRSH).

type transferKind uint8

const (
	transferWord transferKind = iota
	transferByte
	transferHalf
	transferSignedByte
	transferSignedHalf
)

// transferConfig is the addressing of a single load or store
type transferConfig struct {
	kind      transferKind
	load      bool
	pre       bool
	up        bool
	writeback bool
	// offset computes the unsigned offset from the opcode
	offset func(r *Registers, op uint32) uint32
}

func immediateOffset12(_ *Registers, op uint32) uint32 {
	return op & 0xFFF
}

func immediateOffset8(_ *Registers, op uint32) uint32 {
	return (op>>4)&0xF0 | op&0xF
}

// shiftedRegisterOffset returns the offset function of the 4 shift types
// applied by an immediate amount
func shiftedRegisterOffset(shift uint32) func(r *Registers, op uint32) uint32 {
	f := [4]shiftFunc{aluLLI, aluLRI, aluARI, aluRRI}[shift]
	return func(r *Registers, op uint32) uint32 {
		return f(r, r.Read(int(op)&0xF), (op>>7)&0x1F)
	}
}

func plainRegisterOffset(r *Registers, op uint32) uint32 {
	return r.Read(int(op) & 0xF)
}

func decodeSingleTransfer(hi, lo uint32) transferConfig {
	cfg := transferConfig{
		kind:   transferWord,
		load:   hi&1 != 0,
		pre:    hi&0b10000 != 0,
		up:     hi&0b1000 != 0,
		offset: immediateOffset12,
	}
	if hi&0b100 != 0 {
		cfg.kind = transferByte
	}
	w := hi&0b10 != 0
	// post-indexed W=1 is LDRT/STRT. Memory has no privilege input, so
	// they access memory like plain post-indexed transfers.
	cfg.writeback = !cfg.pre || w
	if hi&0b100000 != 0 {
		cfg.offset = shiftedRegisterOffset((lo >> 1) & 0b11)
	}
	return cfg
}

func decodeHalfwordTransfer(hi, lo uint32) armInstruction {
	cfg := transferConfig{
		load:   hi&1 != 0,
		pre:    hi&0b10000 != 0,
		up:     hi&0b1000 != 0,
		offset: plainRegisterOffset,
	}
	cfg.writeback = !cfg.pre || hi&0b10 != 0
	if hi&0b100 != 0 {
		cfg.offset = immediateOffset8
	}

	switch (lo >> 1) & 0b11 {
	case 0b01:
		cfg.kind = transferHalf
	case 0b10:
		cfg.kind = transferSignedByte
	default:
		cfg.kind = transferSignedHalf
	}
	if !cfg.load && cfg.kind != transferHalf {
		return armUndefined
	}
	return armSingleTransfer(cfg)
}

// armSingleTransfer builds a load/store handler. Loads take 1S+1N+1I,
// plus a pipeline refill when loading the PC. Stores take 2N.
func armSingleTransfer(cfg transferConfig) armInstruction {
	return func(c *CPU, m Memory, op uint32) {
		r := &c.Registers
		rn := int(op>>16) & 0xF
		rd := int(op>>12) & 0xF

		base := r.Read(rn)
		offset := cfg.offset(r, op)
		moved := base - offset
		if cfg.up {
			moved = base + offset
		}
		address := base
		if cfg.pre {
			address = moved
		}

		if cfg.load {
			value := c.load(m, cfg.kind, address, NonSeq)
			c.internal(1)
			if cfg.writeback && rn != rd {
				r.Write(rn, moved)
			}
			c.writeRegister(rd, value, m)
			return
		}

		value := r.Read(rd)
		if rd == PC {
			value += 4
		}
		c.store(m, cfg.kind, address, value, NonSeq)
		if cfg.writeback {
			r.Write(rn, moved)
		}
		c.nonSequentialPrefetch()
	}
}

// load reads memory the way the ARM7TDMI data bus does: misaligned words
// and halfwords are rotated, misaligned signed halfwords read a signed byte
func (c *CPU) load(m Memory, kind transferKind, address uint32, access AccessType) uint32 {
	switch kind {
	case transferByte:
		return uint32(m.Load8(address, access, &c.cycles))
	case transferSignedByte:
		return uint32(int8(m.Load8(address, access, &c.cycles)))
	case transferHalf:
		value := uint32(m.Load16(address&^1, access, &c.cycles))
		return bits.RotateLeft32(value, -int(8*(address&1)))
	case transferSignedHalf:
		if address&1 != 0 {
			return uint32(int8(m.Load8(address, access, &c.cycles)))
		}
		return uint32(int16(m.Load16(address, access, &c.cycles)))
	default:
		return c.loadWord(m, address, access)
	}
}

func (c *CPU) loadWord(m Memory, address uint32, access AccessType) uint32 {
	value := m.Load32(address&^3, access, &c.cycles)
	return bits.RotateLeft32(value, -int(8*(address&3)))
}

func (c *CPU) store(m Memory, kind transferKind, address, value uint32, access AccessType) {
	switch kind {
	case transferByte:
		m.Store8(address, uint8(value), access, &c.cycles)
	case transferHalf:
		m.Store16(address&^1, uint16(value), access, &c.cycles)
	default:
		m.Store32(address&^3, value, access, &c.cycles)
	}
}
