package arm

import "math/bits"

// THUMB formats 6-15: loads, stores and address computations. Loads cost
// 1S+1N+1I and stores 2N, like their ARM counterparts.

func (c *CPU) thumbLoad(m Memory, kind transferKind, address uint32, rd int) {
	value := c.load(m, kind, address, NonSeq)
	c.internal(1)
	c.Registers.Write(rd, value)
}

func (c *CPU) thumbStore(m Memory, kind transferKind, address uint32, rd int) {
	c.store(m, kind, address, c.Registers.Read(rd), NonSeq)
	c.nonSequentialPrefetch()
}

func (c *CPU) thumbTransfer(m Memory, kind transferKind, load bool, address uint32, rd int) {
	if load {
		c.thumbLoad(m, kind, address, rd)
	} else {
		c.thumbStore(m, kind, address, rd)
	}
}

// thumbLoadPCRelative loads a word from the word aligned PC plus an 8 bit
// word offset
func thumbLoadPCRelative(rd int) thumbInstruction {
	return func(c *CPU, m Memory, op uint16) {
		address := c.Registers.Read(PC)&^2 + uint32(op&0xFF)<<2
		c.thumbLoad(m, transferWord, address, rd)
	}
}

// thumbTransferRegister builds the register offset transfers:
// STR/STRB/LDR/LDRB and STRH/LDSB/LDRH/LDSH
func thumbTransferRegister(kind transferKind, load bool) thumbInstruction {
	return func(c *CPU, m Memory, op uint16) {
		r := &c.Registers
		rd := int(op) & 0b111
		address := r.Read(int(op>>3)&0b111) + r.Read(int(op>>6)&0b111)
		c.thumbTransfer(m, kind, load, address, rd)
	}
}

// thumbTransferImmediate builds the 5 bit immediate offset transfers, with
// the offset scaled by the transfer size
func thumbTransferImmediate(kind transferKind, load bool) thumbInstruction {
	var scale uint32
	switch kind {
	case transferWord:
		scale = 2
	case transferHalf:
		scale = 1
	}

	return func(c *CPU, m Memory, op uint16) {
		r := &c.Registers
		rd := int(op) & 0b111
		address := r.Read(int(op>>3)&0b111) + (uint32(op>>6)&0x1F)<<scale
		c.thumbTransfer(m, kind, load, address, rd)
	}
}

func thumbTransferSPRelative(load bool, rd int) thumbInstruction {
	return func(c *CPU, m Memory, op uint16) {
		address := c.Registers.Read(SP) + uint32(op&0xFF)<<2
		c.thumbTransfer(m, transferWord, load, address, rd)
	}
}

// thumbLoadAddress builds ADD Rd, PC, #imm and ADD Rd, SP, #imm
func thumbLoadAddress(sp bool, rd int) thumbInstruction {
	return func(c *CPU, m Memory, op uint16) {
		base := c.Registers.Read(PC) &^ 2
		if sp {
			base = c.Registers.Read(SP)
		}
		c.Registers.Write(rd, base+uint32(op&0xFF)<<2)
	}
}

func thumbAddSP(c *CPU, m Memory, op uint16) {
	offset := uint32(op&0x7F) << 2
	sp := c.Registers.Read(SP)
	if op&0x80 != 0 {
		c.Registers.Write(SP, sp-offset)
	} else {
		c.Registers.Write(SP, sp+offset)
	}
}

// thumbPushPop builds PUSH {list, LR} and POP {list, PC}. PUSH is a full
// descending STMDB SP!, POP an LDMIA SP!.
func thumbPushPop(pop, extra bool) thumbInstruction {
	return func(c *CPU, m Memory, op uint16) {
		r := &c.Registers
		list := uint32(op & 0xFF)
		if extra {
			if pop {
				list |= 1 << PC
			} else {
				list |= 1 << LR
			}
		}
		if list == 0 {
			c.thumbEmptyList(m, SP, pop, !pop)
			return
		}

		n := uint32(bits.OnesCount32(list))
		sp := r.Read(SP)
		address := sp
		if !pop {
			address = sp - 4*n
		}

		pc, loadsPC := c.thumbTransferList(m, list, address, pop)
		if pop {
			r.Write(SP, sp+4*n)
			c.internal(1)
			if loadsPC {
				c.thumbBranchTo(pc, m)
			}
		} else {
			r.Write(SP, address)
			c.nonSequentialPrefetch()
		}
	}
}

// thumbBlockTransfer builds STMIA Rb!, {list} and LDMIA Rb!, {list}. The
// base is written back after the first transfer, and an LDMIA that loads
// the base keeps the loaded value.
func thumbBlockTransfer(load bool, rb int) thumbInstruction {
	return func(c *CPU, m Memory, op uint16) {
		r := &c.Registers
		list := uint32(op & 0xFF)
		if list == 0 {
			c.thumbEmptyList(m, rb, load, false)
			return
		}

		base := r.Read(rb)
		moved := base + 4*uint32(bits.OnesCount32(list))
		writeback := !(load && list&(1<<rb) != 0)

		access := NonSeq
		address := base
		for reg := 0; reg < 8; reg++ {
			if list&(1<<reg) == 0 {
				continue
			}
			if load {
				r.Write(reg, m.Load32(address&^3, access, &c.cycles))
			} else {
				m.Store32(address&^3, r.Read(reg), access, &c.cycles)
			}
			if access == NonSeq && writeback {
				r.Write(rb, moved)
			}
			access = Seq
			address += 4
		}

		if load {
			c.internal(1)
		} else {
			c.nonSequentialPrefetch()
		}
	}
}

// thumbTransferList transfers a register list in ascending order starting
// at address. A loaded PC is returned instead of written.
func (c *CPU) thumbTransferList(m Memory, list, address uint32, load bool) (pc uint32, loadsPC bool) {
	r := &c.Registers
	access := NonSeq
	for reg := 0; reg < 16; reg++ {
		if list&(1<<reg) == 0 {
			continue
		}
		switch {
		case load && reg == PC:
			pc, loadsPC = m.Load32(address&^3, access, &c.cycles), true
		case load:
			r.Write(reg, m.Load32(address&^3, access, &c.cycles))
		default:
			m.Store32(address&^3, r.Read(reg), access, &c.cycles)
		}
		access = Seq
		address += 4
	}
	return pc, loadsPC
}

// thumbEmptyList handles an empty register list: R15 is transferred and
// the base moves by 0x40
func (c *CPU) thumbEmptyList(m Memory, rb int, load, descending bool) {
	r := &c.Registers
	base := r.Read(rb)
	address, moved := base, base+0x40
	if descending {
		address, moved = base-0x40, base-0x40
	}

	if load {
		value := m.Load32(address&^3, NonSeq, &c.cycles)
		r.Write(rb, moved)
		c.internal(1)
		c.thumbBranchTo(value, m)
		return
	}

	m.Store32(address&^3, r.Read(PC)+2, NonSeq, &c.cycles)
	r.Write(rb, moved)
	c.nonSequentialPrefetch()
}
