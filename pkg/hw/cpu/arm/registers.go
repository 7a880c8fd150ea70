package arm

import (
	"fmt"
	"log/slog"
	"strings"
)

// Register numbers with a dedicated role
const (
	SP = 13
	LR = 14
	PC = 15
)

// CPSR/SPSR bit positions
const (
	FlagN = 31
	FlagZ = 30
	FlagC = 29
	FlagV = 28
	FlagI = 7
	FlagF = 6
	FlagT = 5
)

// Registers is the ARM7TDMI register file.
//
// The live registers always hold the values of the current mode. Banked
// registers of the other modes are kept in shadow slots, and a mode switch
// swaps live registers and slots: first the outgoing mode is swapped out,
// which brings the file back to the User/System baseline, then the incoming
// mode is swapped in.
type Registers struct {
	gp       [16]uint32
	bank     [15]uint32
	cpsr     uint32
	spsr     uint32
	spsrBank [5]uint32

	lastWrite int
	logger    *slog.Logger
}

// NewRegisters returns a register file in the reset state: Supervisor mode,
// IRQ and FIQ disabled, ARM state.
func NewRegisters() *Registers {
	return &Registers{
		cpsr:      uint32(ModeSupervisor) | 1<<FlagI | 1<<FlagF,
		lastWrite: -1,
	}
}

func (r *Registers) log() *slog.Logger {
	if r.logger == nil {
		return slog.Default()
	}
	return r.logger
}

// SetLogger sets the logger used to report invalid mode bits
func (r *Registers) SetLogger(logger *slog.Logger) {
	r.logger = logger
}

// Read returns the live value of a register
func (r *Registers) Read(reg int) uint32 {
	return r.gp[reg]
}

// Write sets the live value of a register
func (r *Registers) Write(reg int, value uint32) {
	r.gp[reg] = value
	r.lastWrite = reg
}

// LastWrite returns the last register written through Write, if any
func (r *Registers) LastWrite() (int, bool) {
	return r.lastWrite, r.lastWrite >= 0
}

// ReadUser reads the User bank view of a register regardless of the
// current mode
func (r *Registers) ReadUser(reg int) uint32 {
	return *r.userSlot(reg)
}

// WriteUser writes the User bank view of a register regardless of the
// current mode
func (r *Registers) WriteUser(reg int, value uint32) {
	*r.userSlot(reg) = value
}

func (r *Registers) userSlot(reg int) *uint32 {
	// while a banked mode is active its slots hold the baseline values
	if first, slot, ok := bankedRange(r.Mode()); ok && reg >= first && reg <= LR {
		return &r.bank[slot+reg-first]
	}
	return &r.gp[reg]
}

// Mode returns the current processor mode
func (r *Registers) Mode() Mode {
	return ModeFromBits(r.cpsr)
}

// ReadCPSR returns the current program status register
func (r *Registers) ReadCPSR() uint32 {
	return r.cpsr
}

// WriteCPSR replaces the whole CPSR, switching register banks if the mode
// bits change
func (r *Registers) WriteCPSR(value uint32) {
	old, next := r.Mode(), ModeFromBits(value)
	r.checkMode(next, value)
	r.swapBanks(old, next)
	r.cpsr = value
}

// WriteMode switches the processor mode
func (r *Registers) WriteMode(mode Mode) {
	if ModeFromBits(uint32(mode)) != mode || mode == ModeInvalid {
		r.log().Error("ignored switch to invalid mode", "mode", mode)
		return
	}
	r.swapBanks(r.Mode(), mode)
	r.cpsr = (r.cpsr &^ modeMask) | uint32(mode)
}

func (r *Registers) checkMode(mode Mode, psr uint32) {
	if mode == ModeInvalid {
		r.log().Error("invalid mode bits written to CPSR", "bits", fmt.Sprintf("%05b", psr&modeMask), "cpsr", fmt.Sprintf("%08X", psr))
	}
}

func (r *Registers) swapBanks(old, next Mode) {
	if old == next {
		return
	}

	switch old {
	case ModeFIQ, ModeSupervisor, ModeAbort, ModeIRQ, ModeUndefined:
		r.swap(old)
		slot, _ := spsrSlot(old)
		r.spsrBank[slot] = r.spsr
	case ModeUser, ModeSystem:
	default:
	}

	switch next {
	case ModeFIQ, ModeSupervisor, ModeAbort, ModeIRQ, ModeUndefined:
		r.swap(next)
		slot, _ := spsrSlot(next)
		r.spsr = r.spsrBank[slot]
	case ModeUser, ModeSystem:
	default:
	}
}

func (r *Registers) swap(mode Mode) {
	first, slot, _ := bankedRange(mode)
	for reg := first; reg <= LR; reg++ {
		r.gp[reg], r.bank[slot] = r.bank[slot], r.gp[reg]
		slot++
	}
}

// ReadSPSR returns the SPSR of the current mode. User and System modes have
// no SPSR and the returned value is meaningless.
func (r *Registers) ReadSPSR() uint32 {
	return r.spsr
}

// WriteSPSR sets the SPSR of the current mode
func (r *Registers) WriteSPSR(value uint32) {
	r.spsr = value
}

func (r *Registers) getf(bit int) bool {
	return (r.cpsr>>bit)&1 != 0
}

func (r *Registers) putf(bit int, set bool) {
	if set {
		r.cpsr |= 1 << bit
	} else {
		r.cpsr &^= 1 << bit
	}
}

func (r *Registers) GetN() bool { return r.getf(FlagN) }
func (r *Registers) SetN() { r.putf(FlagN, true) }
func (r *Registers) ClearN() { r.putf(FlagN, false) }
func (r *Registers) PutN(set bool) { r.putf(FlagN, set) }
func (r *Registers) GetZ() bool { return r.getf(FlagZ) }
func (r *Registers) SetZ() { r.putf(FlagZ, true) }
func (r *Registers) ClearZ() { r.putf(FlagZ, false) }
func (r *Registers) PutZ(set bool) { r.putf(FlagZ, set) }
func (r *Registers) GetC() bool { return r.getf(FlagC) }
func (r *Registers) SetC() { r.putf(FlagC, true) }
func (r *Registers) ClearC() { r.putf(FlagC, false) }
func (r *Registers) PutC(set bool) { r.putf(FlagC, set) }
func (r *Registers) GetV() bool { return r.getf(FlagV) }
func (r *Registers) SetV() { r.putf(FlagV, true) }
func (r *Registers) ClearV() { r.putf(FlagV, false) }
func (r *Registers) PutV(set bool) { r.putf(FlagV, set) }
func (r *Registers) GetI() bool { return r.getf(FlagI) }
func (r *Registers) SetI() { r.putf(FlagI, true) }
func (r *Registers) ClearI() { r.putf(FlagI, false) }
func (r *Registers) PutI(set bool) { r.putf(FlagI, set) }
func (r *Registers) GetF() bool { return r.getf(FlagF) }
func (r *Registers) SetF() { r.putf(FlagF, true) }
func (r *Registers) ClearF() { r.putf(FlagF, false) }
func (r *Registers) PutF(set bool) { r.putf(FlagF, set) }
func (r *Registers) GetT() bool { return r.getf(FlagT) }
func (r *Registers) SetT() { r.putf(FlagT, true) }
func (r *Registers) ClearT() { r.putf(FlagT, false) }
func (r *Registers) PutT(set bool) { r.putf(FlagT, set) }

// Snapshot is a plain data copy of a register file
type Snapshot struct {
	GP       [16]uint32 `yaml:"gp"`
	Bank     [15]uint32 `yaml:"bank"`
	CPSR     uint32     `yaml:"cpsr"`
	SPSR     uint32     `yaml:"spsr"`
	SPSRBank [5]uint32  `yaml:"spsr_bank"`
}

// Snapshot copies the register file state
func (r *Registers) Snapshot() Snapshot {
	return Snapshot{
		GP:       r.gp,
		Bank:     r.bank,
		CPSR:     r.cpsr,
		SPSR:     r.spsr,
		SPSRBank: r.spsrBank,
	}
}

// Restore overwrites the register file with a snapshot. No bank switching
// takes place, the snapshot is taken as is.
func (r *Registers) Restore(s Snapshot) {
	r.gp = s.GP
	r.bank = s.Bank
	r.cpsr = s.CPSR
	r.spsr = s.SPSR
	r.spsrBank = s.SPSRBank
	r.lastWrite = -1
}

var registerNames = [16]string{
	"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
	"r8", "r9", "r10", "r11", "r12", "sp", "lr", "pc",
}

// RegisterName returns the assembler name of a register
func RegisterName(reg int) string {
	if reg < 0 || reg >= len(registerNames) {
		return fmt.Sprintf("r%d", reg)
	}
	return registerNames[reg]
}

func (r *Registers) String() string {
	var b strings.Builder
	for reg := 0; reg < 16; reg++ {
		fmt.Fprintf(&b, "%-3s=%08X", RegisterName(reg), r.gp[reg])
		if reg%4 == 3 {
			b.WriteByte('\n')
		} else {
			b.WriteString("  ")
		}
	}
	fmt.Fprintf(&b, "cpsr=%08X [%s] mode=%s", r.cpsr, FlagString(r.cpsr), r.Mode())
	return b.String()
}

// FlagString renders the flag bits of a status register value, upper case
// letters meaning set
func FlagString(psr uint32) string {
	flags := []struct {
		bit  int
		name byte
	}{
		{FlagN, 'n'}, {FlagZ, 'z'}, {FlagC, 'c'}, {FlagV, 'v'},
		{FlagI, 'i'}, {FlagF, 'f'}, {FlagT, 't'},
	}
	out := make([]byte, len(flags))
	for i, f := range flags {
		out[i] = f.name
		if (psr>>f.bit)&1 != 0 {
			out[i] = f.name - 'a' + 'A'
		}
	}
	return string(out)
}
