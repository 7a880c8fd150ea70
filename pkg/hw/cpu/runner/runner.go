// Package runner drives an ARM7TDMI core until a program finishes.
//
// A program finishes when it raises the termination SWI, when it is about
// to execute a termination address, or when a step limit is reached.
// Breakpoints and a per instruction trace callback are available for
// tooling.
//
// The typical execution flow is:
//
//  1. Create a Runner with New(cpu, mem, config) or NewFromFile(path, config)
//  2. Boot it at an entry point with Boot()
//  3. Execute with Run() or RunWithTrace()
//  4. Inspect the CPU and the ExecutionResult
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Manu343726/armv4t/pkg/hw/cpu/arm"
	"github.com/Manu343726/armv4t/pkg/hw/cpu/loader"
	"github.com/Manu343726/armv4t/pkg/hw/memory"
)

// cancellation is checked every that many steps
const contextCheckInterval = 4096

// Memory is what a runner executes from and loads images into
type Memory interface {
	arm.Memory
	loader.Writer
}

// StopReason indicates why execution stopped
type StopReason int

const (
	// StopNone indicates execution has not stopped
	StopNone StopReason = iota
	// StopStep indicates execution stopped after a single step
	StopStep
	// StopBreakpoint indicates execution stopped at a breakpoint
	StopBreakpoint
	// StopTermination indicates normal program termination
	StopTermination
	// StopMaxSteps indicates max steps limit was reached
	StopMaxSteps
	// StopCallback indicates the trace callback asked to stop
	StopCallback
	// StopCanceled indicates the context was canceled
	StopCanceled
)

// String returns the string representation of a StopReason
func (r StopReason) String() string {
	switch r {
	case StopNone:
		return "none"
	case StopStep:
		return "step"
	case StopBreakpoint:
		return "breakpoint"
	case StopTermination:
		return "termination"
	case StopMaxSteps:
		return "max_steps"
	case StopCallback:
		return "callback"
	case StopCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("unknown(%d)", r)
	}
}

// MarshalYAML dumps stop reasons by name
func (r StopReason) MarshalYAML() (any, error) {
	return r.String(), nil
}

// Breakpoint represents a code breakpoint
type Breakpoint struct {
	// ID is the unique breakpoint identifier
	ID int
	// Address is the address of the instruction the breakpoint stops at
	Address uint32
	// Enabled indicates if the breakpoint is active
	Enabled bool
	// HitCount tracks how many times this breakpoint has been hit
	HitCount int
}

// ExecutionResult contains the result of an execution operation
type ExecutionResult struct {
	// StopReason indicates why execution stopped
	StopReason StopReason `yaml:"stop_reason"`
	// StepsExecuted is the number of instructions executed
	StepsExecuted uint64 `yaml:"steps_executed"`
	// Cycles spent by the executed instructions
	Cycles uint64 `yaml:"cycles"`
	// BreakpointID is set if stopped at a breakpoint
	BreakpointID int `yaml:"breakpoint_id,omitempty"`
	// SWI is the comment of the terminating software interrupt
	SWI uint32 `yaml:"swi"`
	// LastPC is the address of the next instruction to execute
	LastPC uint32 `yaml:"last_pc"`
}

// TraceCallback is called before each instruction executes. It receives
// the step number, the instruction address and opcode. Return true to
// continue execution, false to stop.
type TraceCallback func(step uint64, pc uint32, opcode uint32, thumb bool) bool

// Runner executes a program on a CPU
type Runner struct {
	cpu    *arm.CPU
	mem    Memory
	config Config
	logger *slog.Logger

	// Breakpoints indexed by ID
	breakpoints map[int]*Breakpoint
	// Breakpoint addresses for fast lookup
	breakpointAddrs map[uint32]*Breakpoint
	// Next breakpoint ID
	nextBreakpointID int
	// Termination addresses
	terminationAddrs map[uint32]bool

	// set by the SWI hook
	terminated bool
	swi        uint32

	image  *loader.Image
	result *ExecutionResult
}

// Option configures a Runner
type Option func(r *Runner)

// WithLogger sets the logger of the runner and its CPU
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// New creates a runner executing cpu on mem. It installs the CPU exception
// hook used to detect the termination SWI.
func New(cpu *arm.CPU, mem Memory, config Config, opts ...Option) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		cpu:              cpu,
		mem:              mem,
		config:           config,
		logger:           slog.Default(),
		breakpoints:      make(map[int]*Breakpoint),
		breakpointAddrs:  make(map[uint32]*Breakpoint),
		nextBreakpointID: 1,
		terminationAddrs: make(map[uint32]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, address := range config.TerminationAddresses {
		r.AddTerminationAddress(address)
	}

	cpu.SetLogger(r.logger)
	cpu.SetExceptionHandler(r.onException)
	return r, nil
}

// NewFromFile allocates the memory described by config, loads an image
// file into it and boots a new CPU at its entry point
func NewFromFile(path string, config Config, opts ...Option) (*Runner, error) {
	mem, err := memory.NewFlat(config.Memory)
	if err != nil {
		return nil, err
	}

	format, err := loader.ParseFormat(config.Format)
	if err != nil {
		return nil, err
	}

	r, err := New(arm.New(), mem, config, opts...)
	if err != nil {
		return nil, err
	}

	image, err := loader.LoadFile(mem, path, &loader.Options{
		Format: format,
		Base:   config.Memory.Base,
		Thumb:  config.Thumb,
		Logger: r.logger,
	})
	if err != nil {
		return nil, err
	}

	r.image = image
	r.Boot(image.Entry, image.Thumb)
	return r, nil
}

// CPU returns the executing core
func (r *Runner) CPU() *arm.CPU {
	return r.cpu
}

// Memory returns the memory the program runs from
func (r *Runner) Memory() Memory {
	return r.mem
}

// Image returns the loaded image, or nil when the runner was not created
// from a file
func (r *Runner) Image() *loader.Image {
	return r.image
}

// Result returns the result of the last execution, or nil if not run yet
func (r *Runner) Result() *ExecutionResult {
	return r.result
}

// Boot resets the CPU registers, sets up a stack in every mode and starts
// the pipeline at entry
func (r *Runner) Boot(entry uint32, thumb bool) {
	regs := &r.cpu.Registers
	stack := r.config.stackTop()

	// one stack per mode, SVC last so that it is the boot mode
	for _, mode := range []arm.Mode{arm.ModeIRQ, arm.ModeFIQ, arm.ModeAbort, arm.ModeUndefined, arm.ModeSystem, arm.ModeSupervisor} {
		regs.WriteMode(mode)
		regs.Write(arm.SP, stack)
	}

	r.cpu.ResetRegisters()
	regs.PutT(thumb)
	r.cpu.SetPC(entry, r.mem)
	r.terminated = false

	r.logger.Debug("boot", "entry", fmt.Sprintf("%08X", entry), "thumb", thumb, "sp", fmt.Sprintf("%08X", stack))
}

// onException is the CPU exception hook: it consumes the termination SWI
// and lets everything else reach the vector table
func (r *Runner) onException(c *arm.CPU, m arm.Memory, e arm.Exception, returnAddress uint32) bool {
	if e != arm.ExceptionSWI {
		r.logger.Debug("exception", "kind", e.String(), "return", fmt.Sprintf("%08X", returnAddress))
		return false
	}

	var comment uint32
	if c.Thumb() {
		comment = uint32(m.Load16(returnAddress-2, arm.NonSeq, nil)) & 0xFF
	} else {
		comment = m.Load32(returnAddress-4, arm.NonSeq, nil) & 0xFFFFFF
	}

	if r.config.TerminationSWI != NoTerminationSWI && comment == uint32(r.config.TerminationSWI) {
		r.terminated = true
		r.swi = comment
		return true
	}

	r.logger.Debug("exception", "kind", e.String(), "swi", comment, "return", fmt.Sprintf("%08X", returnAddress))
	return false
}

// AddTerminationAddress stops execution before the instruction at address
func (r *Runner) AddTerminationAddress(address uint32) {
	r.terminationAddrs[address] = true
}

// AddBreakpoint adds a breakpoint at the given address
func (r *Runner) AddBreakpoint(address uint32) *Breakpoint {
	if bp, exists := r.breakpointAddrs[address]; exists {
		bp.Enabled = true
		return bp
	}

	bp := &Breakpoint{
		ID:      r.nextBreakpointID,
		Address: address,
		Enabled: true,
	}
	r.nextBreakpointID++
	r.breakpoints[bp.ID] = bp
	r.breakpointAddrs[address] = bp
	return bp
}

// RemoveBreakpoint removes a breakpoint by ID
func (r *Runner) RemoveBreakpoint(id int) bool {
	bp, exists := r.breakpoints[id]
	if !exists {
		return false
	}
	delete(r.breakpoints, id)
	delete(r.breakpointAddrs, bp.Address)
	return true
}

// ListBreakpoints returns all breakpoints sorted by ID
func (r *Runner) ListBreakpoints() []*Breakpoint {
	list := make([]*Breakpoint, 0, len(r.breakpoints))
	for _, bp := range r.breakpoints {
		list = append(list, bp)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}

// Step executes a single instruction
func (r *Runner) Step() *ExecutionResult {
	result := &ExecutionResult{StopReason: StopStep}
	if r.terminatedAt(r.cpu.NextAddress()) {
		result.StopReason = StopTermination
	} else {
		r.step(result)
		if r.terminated {
			result.StopReason = StopTermination
			result.SWI = r.swi
		}
	}
	result.LastPC = r.cpu.NextAddress()
	r.result = result
	return result
}

// Run executes until termination, a breakpoint or the configured step
// limit
func (r *Runner) Run(ctx context.Context) *ExecutionResult {
	return r.RunWithTrace(ctx, nil)
}

// RunWithTrace is Run with a callback invoked before each instruction
func (r *Runner) RunWithTrace(ctx context.Context, callback TraceCallback) *ExecutionResult {
	result := &ExecutionResult{}
	r.result = result

	// a breakpoint at the current address was already reported
	first := true

	for result.StopReason == StopNone {
		pc := r.cpu.NextAddress()

		switch {
		case r.terminatedAt(pc):
			result.StopReason = StopTermination
			continue
		case r.config.MaxSteps > 0 && result.StepsExecuted >= r.config.MaxSteps:
			result.StopReason = StopMaxSteps
			continue
		case result.StepsExecuted%contextCheckInterval == 0 && ctx.Err() != nil:
			result.StopReason = StopCanceled
			continue
		}

		if bp, hit := r.breakpointAddrs[pc]; hit && bp.Enabled && !first {
			bp.HitCount++
			result.StopReason = StopBreakpoint
			result.BreakpointID = bp.ID
			continue
		}
		first = false

		if callback != nil && !callback(result.StepsExecuted, pc, r.cpu.Decoded(), r.cpu.Thumb()) {
			result.StopReason = StopCallback
			continue
		}

		r.step(result)
		if r.terminated {
			result.StopReason = StopTermination
			result.SWI = r.swi
		}
	}

	result.LastPC = r.cpu.NextAddress()
	r.logger.Debug("stopped",
		"reason", result.StopReason.String(),
		"steps", result.StepsExecuted,
		"cycles", result.Cycles,
		"pc", fmt.Sprintf("%08X", result.LastPC))
	return result
}

func (r *Runner) step(result *ExecutionResult) {
	result.Cycles += uint64(r.cpu.Step(r.mem))
	result.StepsExecuted++
}

func (r *Runner) terminatedAt(pc uint32) bool {
	return r.terminated || r.terminationAddrs[pc]
}
