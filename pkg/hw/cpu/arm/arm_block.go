package arm

import "math/bits"

// blockTransferConfig is the addressing mode of LDM/STM
type blockTransferConfig struct {
	pre       bool
	up        bool
	psr       bool
	writeback bool
	load      bool
}

// blockAddresses returns the lowest transferred address and the written
// back base for a transfer of n words
func blockAddresses(cfg blockTransferConfig, base, n uint32) (start, moved uint32) {
	size := 4 * n
	switch {
	case cfg.up && !cfg.pre:
		return base, base + size
	case cfg.up && cfg.pre:
		return base + 4, base + size
	case !cfg.pre:
		return base - size + 4, base - size
	default:
		return base - size, base - size
	}
}

// armBlockTransfer builds the LDM/STM handler of one addressing mode.
//
// Registers are transferred lowest first at the lowest address. The base is
// written back after the first transfer, so an STM with the base first in
// the list stores the original base and any later position stores the
// updated one. An LDM that loads the base never writes it back. An empty
// list transfers R15 and moves the base by 0x40.
//
// LDM takes nS+1N+1I, STM (n-1)S+2N.
func armBlockTransfer(cfg blockTransferConfig) armInstruction {
	return func(c *CPU, m Memory, op uint32) {
		r := &c.Registers
		rn := int(op>>16) & 0xF
		list := op & 0xFFFF

		n := uint32(bits.OnesCount32(list))
		if list == 0 {
			list = 1 << PC
			n = 16
		}

		base := r.Read(rn)
		address, moved := blockAddresses(cfg, base, n)
		writeback := cfg.writeback && !(cfg.load && list&(1<<rn) != 0)

		// S bit without PC in an LDM, or with any STM: User bank transfer
		loadsPC := cfg.load && list&(1<<PC) != 0
		user := cfg.psr && !loadsPC

		access := NonSeq
		first := true
		var pc uint32
		for reg := 0; reg < 16; reg++ {
			if list&(1<<reg) == 0 {
				continue
			}

			if cfg.load {
				value := m.Load32(address&^3, access, &c.cycles)
				switch {
				case reg == PC:
					pc = value
				case user:
					r.WriteUser(reg, value)
				default:
					r.Write(reg, value)
				}
			} else {
				var value uint32
				switch {
				case reg == PC:
					value = r.Read(PC) + 4
				case user:
					value = r.ReadUser(reg)
				default:
					value = r.Read(reg)
				}
				m.Store32(address&^3, value, access, &c.cycles)
			}

			if first && writeback {
				r.Write(rn, moved)
			}
			first = false
			access = Seq
			address += 4
		}

		if !cfg.load {
			c.nonSequentialPrefetch()
			return
		}

		c.internal(1)
		if loadsPC {
			if cfg.psr {
				r.WriteCPSR(r.ReadSPSR())
			}
			c.branchTo(pc, m)
		}
	}
}
