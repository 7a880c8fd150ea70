package arm

import "fmt"

// Condition is the 4 bit condition field of ARM instructions and THUMB
// conditional branches
type Condition uint32

const (
	CondEQ Condition = iota // Equal (Z=1)
	CondNE                  // Not Equal (Z=0)
	CondCS                  // Carry Set (C=1, unsigned >=)
	CondCC                  // Carry Clear (C=0, unsigned <)
	CondMI                  // Minus (N=1)
	CondPL                  // Plus (N=0)
	CondVS                  // Overflow Set (V=1)
	CondVC                  // Overflow Clear (V=0)
	CondHI                  // Unsigned Higher (C=1 AND Z=0)
	CondLS                  // Unsigned Lower or Same (C=0 OR Z=1)
	CondGE                  // Signed Greater or Equal (N=V)
	CondLT                  // Signed Less Than (N!=V)
	CondGT                  // Signed Greater (Z=0 AND N=V)
	CondLE                  // Signed Less or Equal (Z=1 OR N!=V)
	CondAL                  // Always
	CondNV                  // Never, not encoded by ARMv4T programs
)

var conditionNames = [16]string{
	"EQ", "NE", "CS", "CC", "MI", "PL", "VS", "VC",
	"HI", "LS", "GE", "LT", "GT", "LE", "AL", "NV",
}

// String returns the condition code name
func (c Condition) String() string {
	if int(c) < len(conditionNames) {
		return conditionNames[c]
	}
	return fmt.Sprintf("unknown(%d)", uint32(c))
}

// Passed evaluates the condition against the flags of a status register
// value. NV is not a valid ARMv4T condition and panics.
func (c Condition) Passed(psr uint32) bool {
	n := (psr>>FlagN)&1 != 0
	z := (psr>>FlagZ)&1 != 0
	carry := (psr>>FlagC)&1 != 0
	v := (psr>>FlagV)&1 != 0

	switch c {
	case CondEQ:
		return z
	case CondNE:
		return !z
	case CondCS:
		return carry
	case CondCC:
		return !carry
	case CondMI:
		return n
	case CondPL:
		return !n
	case CondVS:
		return v
	case CondVC:
		return !v
	case CondHI:
		return carry && !z
	case CondLS:
		return !carry || z
	case CondGE:
		return n == v
	case CondLT:
		return n != v
	case CondGT:
		return !z && n == v
	case CondLE:
		return z || n != v
	case CondAL:
		return true
	default:
		panic(fmt.Sprintf("arm: unreachable condition code %s", c))
	}
}
