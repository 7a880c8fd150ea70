package arm

import "fmt"

// Exception kinds, in vector order
type Exception uint8

const (
	ExceptionReset Exception = iota
	ExceptionUndefined
	ExceptionSWI
	ExceptionPrefetchAbort
	ExceptionDataAbort
	ExceptionAddressExceeds26Bit
	ExceptionIRQ
	ExceptionFIQ
)

// ExceptionBase is the address of the exception vector table
const ExceptionBase uint32 = 0x00000000

// exception mask bits, checked against CPSR I and F
const (
	maskFIQ uint8 = 1 << iota
	maskIRQ
)

type exceptionDescriptor struct {
	name       string
	mode       Mode
	disableIRQ bool
	disableFIQ bool
	offset     uint32
	mask       uint8
	// raised by the executing instruction rather than by the host
	synchronous bool
}

var exceptions = [...]exceptionDescriptor{
	ExceptionReset:               {name: "reset", mode: ModeSupervisor, disableIRQ: true, disableFIQ: true, offset: 0x00},
	ExceptionUndefined:           {name: "undefined", mode: ModeUndefined, disableIRQ: true, offset: 0x04, synchronous: true},
	ExceptionSWI:                 {name: "swi", mode: ModeSupervisor, disableIRQ: true, offset: 0x08, synchronous: true},
	ExceptionPrefetchAbort:       {name: "prefetch abort", mode: ModeAbort, disableIRQ: true, offset: 0x0C},
	ExceptionDataAbort:           {name: "data abort", mode: ModeAbort, disableIRQ: true, offset: 0x10},
	ExceptionAddressExceeds26Bit: {name: "address exceeds 26 bit", mode: ModeSupervisor, disableIRQ: true, offset: 0x14},
	ExceptionIRQ:                 {name: "irq", mode: ModeIRQ, disableIRQ: true, offset: 0x18, mask: maskIRQ},
	ExceptionFIQ:                 {name: "fiq", mode: ModeFIQ, disableIRQ: true, disableFIQ: true, offset: 0x1C, mask: maskFIQ},
}

func (e Exception) String() string {
	if int(e) < len(exceptions) {
		return exceptions[e].name
	}
	return fmt.Sprintf("unknown(%d)", uint8(e))
}

// Mode returns the mode the exception is taken in
func (e Exception) Mode() Mode {
	return exceptions[e].mode
}

// Vector returns the address of the exception vector
func (e Exception) Vector() uint32 {
	return ExceptionBase + exceptions[e].offset
}

// Masked returns whether the CPSR value disables the exception
func (e Exception) Masked(cpsr uint32) bool {
	mask := exceptions[e].mask
	return (mask&maskIRQ != 0 && (cpsr>>FlagI)&1 != 0) ||
		(mask&maskFIQ != 0 && (cpsr>>FlagF)&1 != 0)
}

// returnAddress computes the LR value of the exception handler. Exceptions
// raised by the executing instruction return to the next instruction, the
// others return to the instruction that would have executed next, plus 4
// in both states so that handlers always return with SUBS PC, LR, #4.
func (c *CPU) returnAddress(e Exception) uint32 {
	pc := c.Registers.Read(PC)
	size := uint32(4)
	if c.Thumb() {
		size = 2
	}
	if exceptions[e].synchronous {
		return pc - size
	}
	return pc - 2*size + 4
}

// HandleException raises an exception. It returns false, without any
// state change, when the exception is disabled by the CPSR I or F flags.
// Otherwise the exception hook runs first and may consume the exception;
// if it does not, the CPU enters the exception mode and branches to the
// vector.
func (c *CPU) HandleException(e Exception, m Memory) bool {
	cpsr := c.Registers.ReadCPSR()
	if e.Masked(cpsr) {
		return false
	}

	ret := c.returnAddress(e)
	if c.exceptionHandler != nil && c.exceptionHandler(c, m, e, ret) {
		return true
	}

	d := &exceptions[e]
	c.Registers.WriteMode(d.mode)
	c.Registers.Write(LR, ret)
	c.Registers.WriteSPSR(cpsr)
	c.Registers.ClearT()
	if d.disableIRQ {
		c.Registers.SetI()
	}
	if d.disableFIQ {
		c.Registers.SetF()
	}

	if c.executing {
		c.armBranchTo(e.Vector(), m)
		return true
	}

	// raised by the host between steps
	saved := c.cycles
	c.cycles = 0
	c.armBranchTo(e.Vector(), m)
	c.TotalCycles += uint64(c.cycles)
	c.cycles = saved
	c.branched = false
	return true
}
