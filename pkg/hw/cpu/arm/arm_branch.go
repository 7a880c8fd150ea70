package arm

import "github.com/Manu343726/armv4t/pkg/utils"

// armBranch builds B and BL: 2S + 1N
func armBranch(link bool) armInstruction {
	return func(c *CPU, m Memory, op uint32) {
		pc := c.Registers.Read(PC)
		offset := utils.SignExtend(op&0xFFFFFF, 24) << 2
		if link {
			c.Registers.Write(LR, pc-4)
		}
		c.armBranchTo(pc+offset, m)
	}
}

// armBX branches to Rm, entering THUMB state when bit 0 of the target is
// set
func armBX(c *CPU, m Memory, op uint32) {
	target := c.Registers.Read(int(op) & 0xF)
	c.Registers.PutT(target&1 != 0)
	c.branchTo(target, m)
}
