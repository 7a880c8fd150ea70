package arm

import (
	"fmt"
	"log/slog"
)

// ExceptionHandler intercepts exceptions before the hardware entry sequence
// runs. It receives the address the exception would return to. Returning
// true consumes the exception: no mode switch and no branch take place.
type ExceptionHandler func(c *CPU, m Memory, e Exception, returnAddress uint32) bool

// CPU is an ARM7TDMI core.
//
// The pipeline always holds two opcodes: decoded is the next one to execute
// and fetched the one after it. R15 points past fetched, so instructions
// see their own address + 8 in ARM state and + 4 in THUMB state.
type CPU struct {
	// Registers can be freely inspected and modified by the host between
	// steps. Changing R15 or the T flag requires a SetPC() to refill the
	// pipeline.
	Registers Registers

	// TotalCycles counts every cycle executed since construction
	TotalCycles uint64

	fetched uint32
	decoded uint32

	// per step accumulator
	cycles Cycles
	// access type of the prefetch done by the executing instruction
	prefetch AccessType
	// set when the executing instruction refilled the pipeline
	branched  bool
	executing bool

	exceptionHandler ExceptionHandler
	logger           *slog.Logger
}

// Option configures a CPU on construction
type Option func(c *CPU)

// WithLogger sets the logger of the CPU and its register file
func WithLogger(logger *slog.Logger) Option {
	return func(c *CPU) {
		c.SetLogger(logger)
	}
}

// WithExceptionHandler installs an exception hook on construction
func WithExceptionHandler(handler ExceptionHandler) Option {
	return func(c *CPU) {
		c.exceptionHandler = handler
	}
}

// New returns a CPU in the reset state. The pipeline is empty until the
// first SetPC().
func New(opts ...Option) *CPU {
	c := &CPU{
		Registers: *NewRegisters(),
		prefetch:  Seq,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetLogger sets the logger used for developer diagnostics such as
// undefined instructions and invalid mode bits
func (c *CPU) SetLogger(logger *slog.Logger) {
	c.logger = logger
	c.Registers.SetLogger(logger)
}

func (c *CPU) log() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

// SetExceptionHandler installs the hook called before exception entry
func (c *CPU) SetExceptionHandler(handler ExceptionHandler) {
	c.exceptionHandler = handler
}

// RemoveExceptionHandler uninstalls the exception hook
func (c *CPU) RemoveExceptionHandler() {
	c.exceptionHandler = nil
}

// ResetRegisters forces Supervisor mode with IRQ and FIQ disabled in ARM
// state. The pipeline must be reseeded with SetPC() afterwards.
func (c *CPU) ResetRegisters() {
	c.Registers.WriteMode(ModeSupervisor)
	c.Registers.SetI()
	c.Registers.SetF()
	c.Registers.ClearT()
	c.prefetch = Seq
}

// SetPC refills the pipeline starting at address, in ARM or THUMB state
// depending on the T flag. It returns the cycles spent refilling.
func (c *CPU) SetPC(address uint32, m Memory) Cycles {
	c.cycles = 0
	c.branchTo(address, m)
	c.branched = false
	return c.cycles
}

// Thumb returns whether the CPU is in THUMB state
func (c *CPU) Thumb() bool {
	return c.Registers.GetT()
}

// Decoded returns the opcode that the next Step() executes
func (c *CPU) Decoded() uint32 {
	return c.decoded
}

// Fetched returns the opcode following the decoded one
func (c *CPU) Fetched() uint32 {
	return c.fetched
}

// NextAddress returns the address of the decoded opcode
func (c *CPU) NextAddress() uint32 {
	if c.Thumb() {
		return c.Registers.Read(PC) - 4
	}
	return c.Registers.Read(PC) - 8
}

// Step executes one instruction and returns the cycles it took. An ARM
// instruction whose condition fails only costs its prefetch.
func (c *CPU) Step(m Memory) Cycles {
	c.cycles = 0
	c.branched = false
	c.prefetch = Seq
	c.executing = true

	pc := c.Registers.Read(PC)

	if c.Thumb() {
		op := uint16(c.decoded)
		c.decoded = c.fetched
		thumbTable[thumbIndex(op)](c, m, op)

		c.cycles += m.CodeCycles(Half, pc, c.prefetch)
		if !c.branched {
			c.fetched = uint32(m.Load16(pc, c.prefetch, nil))
			c.Registers.gp[PC] = pc + 2
		}
	} else {
		op := c.decoded
		c.decoded = c.fetched
		if cond := Condition(op >> 28); cond == CondAL || cond.Passed(c.Registers.cpsr) {
			armTable[armIndex(op)](c, m, op)
		}

		c.cycles += m.CodeCycles(Word, pc, c.prefetch)
		if !c.branched {
			c.fetched = m.Load32(pc, c.prefetch, nil)
			c.Registers.gp[PC] = pc + 4
		}
	}

	c.executing = false
	c.TotalCycles += uint64(c.cycles)
	return c.cycles
}

// armIndex returns the dispatch table index of an ARM opcode: bits 27-20
// followed by bits 7-4
func armIndex(op uint32) uint32 {
	return (op>>16)&0xFF0 | (op>>4)&0xF
}

// thumbIndex returns the dispatch table index of a THUMB opcode: bits 15-8
func thumbIndex(op uint16) uint16 {
	return op >> 8
}

func (c *CPU) branchTo(address uint32, m Memory) {
	if c.Thumb() {
		c.thumbBranchTo(address, m)
	} else {
		c.armBranchTo(address, m)
	}
}

// armBranchTo refills the pipeline in ARM state: 1N + 1S code cycles
func (c *CPU) armBranchTo(address uint32, m Memory) {
	address &^= 3
	c.decoded = m.Load32(address, NonSeq, nil)
	c.cycles += m.CodeCycles(Word, address, NonSeq)
	c.fetched = m.Load32(address+4, Seq, nil)
	c.cycles += m.CodeCycles(Word, address+4, Seq)
	c.Registers.gp[PC] = address + 8
	c.branched = true
}

// thumbBranchTo refills the pipeline in THUMB state: 1N + 1S code cycles
func (c *CPU) thumbBranchTo(address uint32, m Memory) {
	address &^= 1
	c.decoded = uint32(m.Load16(address, NonSeq, nil))
	c.cycles += m.CodeCycles(Half, address, NonSeq)
	c.fetched = uint32(m.Load16(address+2, Seq, nil))
	c.cycles += m.CodeCycles(Half, address+2, Seq)
	c.Registers.gp[PC] = address + 4
	c.branched = true
}

// writeRegister writes an instruction result, branching when the
// destination is the PC
func (c *CPU) writeRegister(reg int, value uint32, m Memory) {
	if reg == PC {
		c.branchTo(value, m)
		return
	}
	c.Registers.Write(reg, value)
}

// internal charges I cycles
func (c *CPU) internal(n Cycles) {
	c.cycles += n
}

// nonSequentialPrefetch marks the prefetch of the executing instruction as
// an N cycle, which happens after the data bus was used
func (c *CPU) nonSequentialPrefetch() {
	c.prefetch = NonSeq
}

func (c *CPU) String() string {
	state := "arm"
	if c.Thumb() {
		state = "thumb"
	}
	return fmt.Sprintf("%s\nstate=%s decoded=%08X fetched=%08X cycles=%d", &c.Registers, state, c.decoded, c.fetched, c.TotalCycles)
}

func hex32(v uint32) string {
	return fmt.Sprintf("%08X", v)
}
