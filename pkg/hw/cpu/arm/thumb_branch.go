package arm

import (
	"log/slog"

	"github.com/Manu343726/armv4t/pkg/utils"
)

// thumbConditionalBranch builds B<cond> with a signed 8 bit halfword
// offset. A failed condition costs only the prefetch.
func thumbConditionalBranch(cond Condition) thumbInstruction {
	return func(c *CPU, m Memory, op uint16) {
		if !cond.Passed(c.Registers.ReadCPSR()) {
			return
		}
		offset := utils.SignExtend(uint32(op&0xFF), 8) << 1
		c.thumbBranchTo(c.Registers.Read(PC)+offset, m)
	}
}

// thumbBranch is B with a signed 11 bit halfword offset
func thumbBranch(c *CPU, m Memory, op uint16) {
	offset := utils.SignExtend(uint32(op&0x7FF), 11) << 1
	c.thumbBranchTo(c.Registers.Read(PC)+offset, m)
}

// thumbLongBranchHigh is the first half of BL: LR holds the PC plus the
// upper part of the offset until the second half executes
func thumbLongBranchHigh(c *CPU, m Memory, op uint16) {
	offset := utils.SignExtend(uint32(op&0x7FF), 11) << 12
	c.Registers.Write(LR, c.Registers.Read(PC)+offset)
}

// thumbLongBranchLow is the second half of BL: branches to LR plus the
// lower part of the offset, leaving the return address with bit 0 set in
// LR
func thumbLongBranchLow(c *CPU, m Memory, op uint16) {
	target := c.Registers.Read(LR) + uint32(op&0x7FF)<<1
	c.Registers.Write(LR, (c.Registers.Read(PC)-2)|1)
	c.thumbBranchTo(target, m)
}

func thumbSWI(c *CPU, m Memory, op uint16) {
	c.HandleException(ExceptionSWI, m)
}

func thumbUndefined(c *CPU, m Memory, op uint16) {
	c.log().Warn("undefined thumb instruction",
		slog.String("pc", hex32(c.Registers.Read(PC)-4)),
		slog.String("opcode", hex32(uint32(op))))
	c.HandleException(ExceptionUndefined, m)
}
