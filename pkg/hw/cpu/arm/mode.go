package arm

import "fmt"

// Mode is an ARM7TDMI processor mode, encoded as the lowest 5 bits of the CPSR
type Mode uint32

const (
	ModeInvalid    Mode = 0
	ModeUser       Mode = 0b10000
	ModeFIQ        Mode = 0b10001
	ModeIRQ        Mode = 0b10010
	ModeSupervisor Mode = 0b10011
	ModeAbort      Mode = 0b10111
	ModeUndefined  Mode = 0b11011
	ModeSystem     Mode = 0b11111
)

const modeMask uint32 = 0x1F

// ModeFromBits decodes the mode bits of a status register value. Unknown
// encodings decode to ModeInvalid.
func ModeFromBits(psr uint32) Mode {
	switch m := Mode(psr & modeMask); m {
	case ModeUser, ModeFIQ, ModeIRQ, ModeSupervisor, ModeAbort, ModeUndefined, ModeSystem:
		return m
	default:
		return ModeInvalid
	}
}

// Privileged returns true for every mode but User
func (m Mode) Privileged() bool {
	return m != ModeUser && m != ModeInvalid
}

// HasBank returns true for the modes owning banked registers and an SPSR
func (m Mode) HasBank() bool {
	_, _, ok := bankedRange(m)
	return ok
}

func (m Mode) String() string {
	switch m {
	case ModeUser:
		return "usr"
	case ModeFIQ:
		return "fiq"
	case ModeIRQ:
		return "irq"
	case ModeSupervisor:
		return "svc"
	case ModeAbort:
		return "abt"
	case ModeUndefined:
		return "und"
	case ModeSystem:
		return "sys"
	default:
		return fmt.Sprintf("invalid(%05b)", uint32(m))
	}
}

// bankedRange returns the first live register banked by a mode and the
// bank slot holding it. Registers first..14 are banked.
func bankedRange(m Mode) (first int, slot int, ok bool) {
	switch m {
	case ModeFIQ:
		return 8, 0, true
	case ModeSupervisor:
		return 13, 7, true
	case ModeAbort:
		return 13, 9, true
	case ModeIRQ:
		return 13, 11, true
	case ModeUndefined:
		return 13, 13, true
	default:
		return 0, 0, false
	}
}

// spsrSlot returns the index of the banked SPSR of a mode
func spsrSlot(m Mode) (int, bool) {
	switch m {
	case ModeFIQ:
		return 0, true
	case ModeSupervisor:
		return 1, true
	case ModeAbort:
		return 2, true
	case ModeIRQ:
		return 3, true
	case ModeUndefined:
		return 4, true
	default:
		return 0, false
	}
}
