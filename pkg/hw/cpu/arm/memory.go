package arm

import "fmt"

// Cycles counts CPU clock cycles
type Cycles uint32

// AccessType tells a memory whether an access follows the previous one in
// address order. Sequential accesses are usually cheaper.
type AccessType uint8

const (
	// NonSeq is a random (N cycle) access
	NonSeq AccessType = iota
	// Seq is a sequential (S cycle) access
	Seq
)

// String returns the ARM7TDMI name of the cycle kind of the access
func (a AccessType) String() string {
	if a == Seq {
		return "S"
	}
	return "N"
}

// Width of a memory access
type Width uint8

const (
	Byte Width = iota
	Half
	Word
)

// Bytes returns the number of bytes transferred by an access of this width
func (w Width) Bytes() uint32 {
	return 1 << w
}

func (w Width) String() string {
	switch w {
	case Byte:
		return "byte"
	case Half:
		return "halfword"
	case Word:
		return "word"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(w))
	}
}

// Memory is the capability the CPU uses to reach the outside world.
//
// Loads and stores are data accesses: implementations add the data access
// cost of the access to *wait when wait is not nil. Instruction fetches are
// issued with a nil wait and charged separately through CodeCycles.
//
// Every address must be accepted. What an out of range load returns and
// whether an out of range store has any effect is up to the implementation.
type Memory interface {
	Load8(address uint32, access AccessType, wait *Cycles) uint8
	Load16(address uint32, access AccessType, wait *Cycles) uint16
	Load32(address uint32, access AccessType, wait *Cycles) uint32

	Store8(address uint32, value uint8, access AccessType, wait *Cycles)
	Store16(address uint32, value uint16, access AccessType, wait *Cycles)
	Store32(address uint32, value uint32, access AccessType, wait *Cycles)

	// CodeCycles returns the cost of an instruction fetch
	CodeCycles(width Width, address uint32, access AccessType) Cycles
	// DataCycles returns the cost of a data load or store
	DataCycles(width Width, address uint32, access AccessType) Cycles
}
