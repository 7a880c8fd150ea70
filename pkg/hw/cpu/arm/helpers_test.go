package arm

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

type dataAccess struct {
	store   bool
	address uint32
	access  AccessType
}

// testMemory is 16KB of little endian memory with configurable wait
// states, recording every data access
type testMemory struct {
	data         [0x4000]byte
	nWait, sWait Cycles
	accesses     []dataAccess
}

func (m *testMemory) cost(access AccessType) Cycles {
	if access == Seq {
		return 1 + m.sWait
	}
	return 1 + m.nWait
}

func (m *testMemory) charge(store bool, address uint32, access AccessType, wait *Cycles) {
	if wait == nil {
		return
	}
	*wait += m.cost(access)
	m.accesses = append(m.accesses, dataAccess{store: store, address: address, access: access})
}

func (m *testMemory) mapped(address uint32, n uint32) bool {
	return uint64(address)+uint64(n) <= uint64(len(m.data))
}

func (m *testMemory) Load8(address uint32, access AccessType, wait *Cycles) uint8 {
	m.charge(false, address, access, wait)
	if !m.mapped(address, 1) {
		return 0
	}
	return m.data[address]
}

func (m *testMemory) Load16(address uint32, access AccessType, wait *Cycles) uint16 {
	m.charge(false, address, access, wait)
	if !m.mapped(address, 2) {
		return 0
	}
	return binary.LittleEndian.Uint16(m.data[address:])
}

func (m *testMemory) Load32(address uint32, access AccessType, wait *Cycles) uint32 {
	m.charge(false, address, access, wait)
	if !m.mapped(address, 4) {
		return 0
	}
	return binary.LittleEndian.Uint32(m.data[address:])
}

func (m *testMemory) Store8(address uint32, value uint8, access AccessType, wait *Cycles) {
	m.charge(true, address, access, wait)
	if m.mapped(address, 1) {
		m.data[address] = value
	}
}

func (m *testMemory) Store16(address uint32, value uint16, access AccessType, wait *Cycles) {
	m.charge(true, address, access, wait)
	if m.mapped(address, 2) {
		binary.LittleEndian.PutUint16(m.data[address:], value)
	}
}

func (m *testMemory) Store32(address uint32, value uint32, access AccessType, wait *Cycles) {
	m.charge(true, address, access, wait)
	if m.mapped(address, 4) {
		binary.LittleEndian.PutUint32(m.data[address:], value)
	}
}

func (m *testMemory) CodeCycles(_ Width, _ uint32, access AccessType) Cycles {
	return m.cost(access)
}

func (m *testMemory) DataCycles(_ Width, _ uint32, access AccessType) Cycles {
	return m.cost(access)
}

func (m *testMemory) words(address uint32, values ...uint32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(m.data[address+4*uint32(i):], v)
	}
}

func (m *testMemory) halves(address uint32, values ...uint16) {
	for i, v := range values {
		binary.LittleEndian.PutUint16(m.data[address+2*uint32(i):], v)
	}
}

func (m *testMemory) word(address uint32) uint32 {
	return binary.LittleEndian.Uint32(m.data[address:])
}

// armProgram returns a CPU about to execute the given ARM opcodes at
// address 0x100, in System mode with interrupts enabled
func armProgram(t *testing.T, ops ...uint32) (*CPU, *testMemory) {
	t.Helper()

	m := &testMemory{}
	m.words(0x100, ops...)

	c := New()
	c.Registers.WriteCPSR(uint32(ModeSystem))
	c.SetPC(0x100, m)
	require.Equal(t, uint32(0x100), c.NextAddress())
	return c, m
}

// thumbProgram returns a CPU about to execute the given THUMB opcodes at
// address 0x100, in System mode with interrupts enabled
func thumbProgram(t *testing.T, ops ...uint16) (*CPU, *testMemory) {
	t.Helper()

	m := &testMemory{}
	m.halves(0x100, ops...)

	c := New()
	c.Registers.WriteCPSR(uint32(ModeSystem) | 1<<FlagT)
	c.SetPC(0x100, m)
	require.Equal(t, uint32(0x100), c.NextAddress())
	return c, m
}

// steps executes n instructions and returns the cycles they took
func steps(c *CPU, m Memory, n int) Cycles {
	var total Cycles
	for i := 0; i < n; i++ {
		total += c.Step(m)
	}
	return total
}
