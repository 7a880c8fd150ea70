package arm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	c := New()
	assert.Equal(t, ModeSupervisor, c.Registers.Mode())
	assert.True(t, c.Registers.GetI())
	assert.True(t, c.Registers.GetF())
	assert.False(t, c.Thumb())
	assert.Zero(t, c.TotalCycles)

	called := false
	c = New(WithExceptionHandler(func(*CPU, Memory, Exception, uint32) bool {
		called = true
		return true
	}))
	m := &testMemory{}
	c.SetPC(0, m)
	require.True(t, c.HandleException(ExceptionSWI, m))
	assert.True(t, called)
}

func TestResetRegisters(t *testing.T) {
	c, _ := thumbProgram(t, 0)
	c.Registers.WriteCPSR(uint32(ModeUser) | 1<<FlagT)

	c.ResetRegisters()
	assert.Equal(t, ModeSupervisor, c.Registers.Mode())
	assert.True(t, c.Registers.GetI())
	assert.True(t, c.Registers.GetF())
	assert.False(t, c.Thumb())
}

func TestPipeline(t *testing.T) {
	t.Run("arm reads pc + 8", func(t *testing.T) {
		// MOV R0, PC
		// MOV R1, #1
		c, m := armProgram(t, 0xE1A0000F, 0xE3A01001)
		assert.Equal(t, uint32(0xE1A0000F), c.Decoded())
		assert.Equal(t, uint32(0xE3A01001), c.Fetched())

		c.Step(m)
		assert.Equal(t, uint32(0x108), c.Registers.Read(0))
		assert.Equal(t, uint32(0x104), c.NextAddress())
		assert.Equal(t, uint32(0xE3A01001), c.Decoded())
	})

	t.Run("thumb reads pc + 4", func(t *testing.T) {
		// MOV R0, PC (hi register form)
		c, m := thumbProgram(t, 0x4678)
		c.Step(m)
		assert.Equal(t, uint32(0x104), c.Registers.Read(0))
		assert.Equal(t, uint32(0x102), c.NextAddress())
	})

	t.Run("register shifts read pc + 12", func(t *testing.T) {
		// ADD R0, PC, R1, LSL R2
		c, m := armProgram(t, 0xE08F0211)
		c.Registers.Write(1, 1)
		c.Registers.Write(2, 4)
		assert.Equal(t, Cycles(2), c.Step(m))
		assert.Equal(t, uint32(0x10C+0x10), c.Registers.Read(0))
	})

	t.Run("writing the pc branches", func(t *testing.T) {
		// MOV PC, #0x200
		c, m := armProgram(t, 0xE3A00C02|PC<<12)
		m.words(0x200, 0xE3A00007)

		assert.Equal(t, Cycles(3), c.Step(m))
		assert.Equal(t, uint32(0x200), c.NextAddress())
		c.Step(m)
		assert.Equal(t, uint32(7), c.Registers.Read(0))
	})

	t.Run("set pc", func(t *testing.T) {
		c, m := armProgram(t)
		m.words(0x300, 0x11111111, 0x22222222)
		assert.Equal(t, Cycles(2), c.SetPC(0x300, m))
		assert.Equal(t, uint32(0x300), c.NextAddress())
		assert.Equal(t, uint32(0x11111111), c.Decoded())
		assert.Equal(t, uint32(0x22222222), c.Fetched())
		assert.Equal(t, uint32(0x308), c.Registers.Read(PC))
	})
}

func TestCycles(t *testing.T) {
	cases := []struct {
		name   string
		ops    []uint32
		setup  func(c *CPU, m *testMemory)
		cycles Cycles
	}{
		// N = 3 cycles, S = 2 cycles
		{name: "data processing 1S", ops: []uint32{0xE3A00001}, cycles: 2},
		{name: "failed condition 1S", ops: []uint32{0x03A00001}, cycles: 2},
		{name: "register shift 1S+1I", ops: []uint32{0xE1A00211}, cycles: 3},
		{name: "branch 2S+1N", ops: []uint32{0xEA000002}, cycles: 7},
		{
			name: "load 1S+1N+1I", ops: []uint32{0xE5910000}, cycles: 6,
			setup: func(c *CPU, m *testMemory) { c.Registers.Write(1, 0x1000) },
		},
		{
			name: "load pc 2S+2N+1I", ops: []uint32{0xE591F000}, cycles: 11,
			setup: func(c *CPU, m *testMemory) { c.Registers.Write(1, 0x1000) },
		},
		{
			name: "store 2N", ops: []uint32{0xE5810000}, cycles: 6,
			setup: func(c *CPU, m *testMemory) { c.Registers.Write(1, 0x1000) },
		},
		{
			name: "store multiple (n-1)S+2N", ops: []uint32{0xE8A10003}, cycles: 8,
			setup: func(c *CPU, m *testMemory) { c.Registers.Write(1, 0x1000) },
		},
		{
			name: "load multiple nS+1N+1I", ops: []uint32{0xE8BD0007}, cycles: 10,
			setup: func(c *CPU, m *testMemory) { c.Registers.Write(SP, 0x1000) },
		},
		{
			name: "multiply 1S+1I", ops: []uint32{0xE0000291}, cycles: 3,
			setup: func(c *CPU, m *testMemory) { c.Registers.Write(2, 5) },
		},
		{
			name: "multiply 1S+4I", ops: []uint32{0xE0000291}, cycles: 6,
			setup: func(c *CPU, m *testMemory) { c.Registers.Write(2, 0x12345678) },
		},
		{
			name: "multiply accumulate 1S+2I", ops: []uint32{0xE0203291}, cycles: 4,
			setup: func(c *CPU, m *testMemory) { c.Registers.Write(2, 0xFFFFFFFF) },
		},
		{
			name: "multiply long 1S+3I", ops: []uint32{0xE0810392}, cycles: 5,
			setup: func(c *CPU, m *testMemory) { c.Registers.Write(3, 0x100) },
		},
		{
			name: "multiply long accumulate 1S+4I", ops: []uint32{0xE0A10392}, cycles: 6,
			setup: func(c *CPU, m *testMemory) { c.Registers.Write(3, 0x100) },
		},
		{
			name: "swap 1S+2N+1I", ops: []uint32{0xE1020091}, cycles: 9,
			setup: func(c *CPU, m *testMemory) { c.Registers.Write(2, 0x1000) },
		},
		{name: "swi 2S+1N", ops: []uint32{0xEF000000}, cycles: 7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, m := armProgram(t, tc.ops...)
			m.nWait, m.sWait = 2, 1
			if tc.setup != nil {
				tc.setup(c, m)
			}

			before := c.TotalCycles
			assert.Equal(t, tc.cycles, c.Step(m))
			assert.Equal(t, uint64(tc.cycles), c.TotalCycles-before)
		})
	}
}

func TestSingleTransfer(t *testing.T) {
	t.Run("addressing modes", func(t *testing.T) {
		// LDR R0, [R1, #4]!
		// LDR R2, [R1], #-8
		// LDR R3, [R1, R4, LSL #2]
		// STR R5, [R1, #-4]
		c, m := armProgram(t, 0xE5B10004, 0xE4112008, 0xE7913104, 0xE5015004)
		m.words(0x1000, 0xA, 0xB, 0xC, 0xD)
		c.Registers.Write(1, 0x1000)
		c.Registers.Write(4, 2)
		c.Registers.Write(5, 0x55)

		steps(c, m, 4)
		assert.Equal(t, uint32(0xB), c.Registers.Read(0))
		assert.Equal(t, uint32(0xB), c.Registers.Read(2))
		assert.Equal(t, uint32(0xFFC), c.Registers.Read(1))
		assert.Equal(t, uint32(0xB), c.Registers.Read(3))
		assert.Equal(t, uint32(0x55), m.word(0xFF8))
	})

	t.Run("user mode transfers", func(t *testing.T) {
		// LDRT R0, [R1], #4
		// STRT R2, [R1], #4
		c, m := armProgram(t, 0xE4B10004, 0xE4A12004)
		m.words(0x1000, 0xA)
		c.Registers.Write(1, 0x1000)
		c.Registers.Write(2, 0x22)

		steps(c, m, 2)
		assert.Equal(t, uint32(0xA), c.Registers.Read(0))
		assert.Equal(t, uint32(0x22), m.word(0x1004))
		assert.Equal(t, uint32(0x1008), c.Registers.Read(1))
	})

	t.Run("misaligned word loads rotate", func(t *testing.T) {
		// LDR R0, [R1]
		c, m := armProgram(t, 0xE5910000)
		m.words(0x1000, 0x44332211)
		c.Registers.Write(1, 0x1001)
		c.Step(m)
		assert.Equal(t, uint32(0x11443322), c.Registers.Read(0))
	})

	t.Run("bytes", func(t *testing.T) {
		// LDRB R0, [R1]
		// STRB R2, [R1, #1]
		c, m := armProgram(t, 0xE5D10000, 0xE5C12001)
		m.words(0x1000, 0x44332211)
		c.Registers.Write(1, 0x1002)
		c.Registers.Write(2, 0x1FF)
		steps(c, m, 2)
		assert.Equal(t, uint32(0x33), c.Registers.Read(0))
		assert.Equal(t, uint32(0xFF332211), m.word(0x1000))
	})

	t.Run("halfwords", func(t *testing.T) {
		// LDRH R0, [R1]
		// LDRSH R2, [R1]
		// LDRSB R3, [R1, #1]
		// LDRH R4, [R1, #1]
		// LDRSH R5, [R1, #1]
		// STRH R6, [R1, #4]
		c, m := armProgram(t, 0xE1D100B0, 0xE1D120F0, 0xE1D130D1, 0xE1D140B1, 0xE1D150F1, 0xE1C160B4)
		m.words(0x1000, 0x1180F0F0)
		c.Registers.Write(1, 0x1000)
		c.Registers.Write(6, 0xABCD1234)

		steps(c, m, 6)
		assert.Equal(t, uint32(0xF0F0), c.Registers.Read(0))
		assert.Equal(t, uint32(0xFFFFF0F0), c.Registers.Read(2))
		assert.Equal(t, uint32(0xFFFFFFF0), c.Registers.Read(3))
		assert.Equal(t, uint32(0xF00000F0), c.Registers.Read(4))
		assert.Equal(t, uint32(0xFFFFFFF0), c.Registers.Read(5))
		assert.Equal(t, uint32(0x1234), m.word(0x1004))
	})

	t.Run("loads win over write back", func(t *testing.T) {
		// LDR R1, [R1, #4]!
		c, m := armProgram(t, 0xE5B11004)
		m.words(0x1004, 0x77)
		c.Registers.Write(1, 0x1000)
		c.Step(m)
		assert.Equal(t, uint32(0x77), c.Registers.Read(1))
	})

	t.Run("storing the pc stores pc + 12", func(t *testing.T) {
		// STR PC, [R1]
		c, m := armProgram(t, 0xE581F000)
		c.Registers.Write(1, 0x1000)
		c.Step(m)
		assert.Equal(t, uint32(0x10C), m.word(0x1000))
	})

	t.Run("loading the pc branches in arm state", func(t *testing.T) {
		// LDR PC, [R1]
		c, m := armProgram(t, 0xE591F000)
		m.words(0x1000, 0x301)
		c.Registers.Write(1, 0x1000)
		c.Step(m)
		assert.False(t, c.Thumb())
		assert.Equal(t, uint32(0x300), c.NextAddress())
	})
}

func TestBlockTransfer(t *testing.T) {
	t.Run("addressing modes", func(t *testing.T) {
		for _, tc := range []struct {
			name  string
			op    uint32
			start uint32
			base  uint32
		}{
			{"IA", 0xE8A0000E, 0x1000, 0x100C},
			{"IB", 0xE9A0000E, 0x1004, 0x100C},
			{"DA", 0xE820000E, 0x0FF8, 0x0FF4},
			{"DB", 0xE920000E, 0x0FF4, 0x0FF4},
		} {
			t.Run(tc.name, func(t *testing.T) {
				// STM<mode> R0!, {R1-R3}
				c, m := armProgram(t, tc.op)
				c.Registers.Write(0, 0x1000)
				c.Registers.Write(1, 1)
				c.Registers.Write(2, 2)
				c.Registers.Write(3, 3)
				c.Step(m)

				assert.Equal(t, tc.base, c.Registers.Read(0))
				assert.Equal(t, uint32(1), m.word(tc.start))
				assert.Equal(t, uint32(2), m.word(tc.start+4))
				assert.Equal(t, uint32(3), m.word(tc.start+8))
				assert.Equal(t, []dataAccess{
					{store: true, address: tc.start, access: NonSeq},
					{store: true, address: tc.start + 4, access: Seq},
					{store: true, address: tc.start + 8, access: Seq},
				}, m.accesses)
			})
		}
	})

	t.Run("base first in a store list stores the original base", func(t *testing.T) {
		// STMIA R0!, {R0, R1}
		c, m := armProgram(t, 0xE8A00003)
		c.Registers.Write(0, 0x1000)
		c.Step(m)
		assert.Equal(t, uint32(0x1000), m.word(0x1000))
		assert.Equal(t, uint32(0x1008), c.Registers.Read(0))
	})

	t.Run("base later in a store list stores the written back base", func(t *testing.T) {
		// STMIA R1!, {R0, R1}
		c, m := armProgram(t, 0xE8A10003)
		c.Registers.Write(1, 0x1000)
		c.Step(m)
		assert.Equal(t, uint32(0x1008), m.word(0x1004))
		assert.Equal(t, uint32(0x1008), c.Registers.Read(1))
	})

	t.Run("loading the base disables write back", func(t *testing.T) {
		// LDMIA R0!, {R0, R1}
		c, m := armProgram(t, 0xE8B00003)
		m.words(0x1000, 0xAAAA, 0xBBBB)
		c.Registers.Write(0, 0x1000)
		c.Step(m)
		assert.Equal(t, uint32(0xAAAA), c.Registers.Read(0))
		assert.Equal(t, uint32(0xBBBB), c.Registers.Read(1))
	})

	t.Run("empty list transfers the pc", func(t *testing.T) {
		// STMIA R0!, {}
		c, m := armProgram(t, 0xE8A00000)
		c.Registers.Write(0, 0x1000)
		c.Step(m)
		assert.Equal(t, uint32(0x10C), m.word(0x1000))
		assert.Equal(t, uint32(0x1040), c.Registers.Read(0))

		// LDMIA R0!, {}
		c, m = armProgram(t, 0xE8B00000)
		m.words(0x1000, 0x200)
		c.Registers.Write(0, 0x1000)
		c.Step(m)
		assert.Equal(t, uint32(0x200), c.NextAddress())
		assert.Equal(t, uint32(0x1040), c.Registers.Read(0))
	})

	t.Run("user bank transfer", func(t *testing.T) {
		// STMIA R0, {R13, R14}^
		// LDMIA R0, {R13}^
		c, m := armProgram(t, 0xE8C06000, 0xE8D02000)
		c.Registers.Write(SP, 0x5555)
		c.Registers.WriteMode(ModeIRQ)
		c.Registers.Write(SP, 0x1111)
		c.Registers.Write(LR, 0x2222)
		c.Registers.Write(0, 0x1000)

		c.Step(m)
		assert.Equal(t, uint32(0x5555), m.word(0x1000))
		assert.Equal(t, uint32(0), m.word(0x1004))

		m.words(0x1000, 0x9999)
		c.Step(m)
		assert.Equal(t, uint32(0x1111), c.Registers.Read(SP))
		assert.Equal(t, uint32(0x9999), c.Registers.ReadUser(SP))
	})

	t.Run("loading the pc with S restores the CPSR", func(t *testing.T) {
		// LDMIA SP!, {R0, PC}^
		c, m := armProgram(t, 0xE8FD8001)
		m.words(0x1000, 0x42, 0x201)
		c.Registers.WriteMode(ModeSupervisor)
		c.Registers.WriteSPSR(uint32(ModeUser) | 1<<FlagT)
		c.Registers.Write(SP, 0x1000)

		c.Step(m)
		assert.Equal(t, ModeUser, c.Registers.Mode())
		assert.True(t, c.Thumb())
		assert.Equal(t, uint32(0x200), c.NextAddress())
		assert.Equal(t, uint32(0x42), c.Registers.Read(0))
	})

	t.Run("push and pop", func(t *testing.T) {
		// STMDB SP!, {R0-R2}
		// LDMIA SP!, {R3-R5}
		c, m := armProgram(t, 0xE92D0007, 0xE8BD0038)
		c.Registers.Write(SP, 0x2000)
		for reg := 0; reg < 3; reg++ {
			c.Registers.Write(reg, uint32(10+reg))
		}

		c.Step(m)
		assert.Equal(t, uint32(0x1FF4), c.Registers.Read(SP))
		c.Step(m)
		assert.Equal(t, uint32(0x2000), c.Registers.Read(SP))
		assert.Equal(t, uint32(10), c.Registers.Read(3))
		assert.Equal(t, uint32(11), c.Registers.Read(4))
		assert.Equal(t, uint32(12), c.Registers.Read(5))
	})
}

func TestMultiply(t *testing.T) {
	// MULS R0, R1, R2
	// MLA R3, R1, R2, R0
	// UMULL R4, R5, R1, R2
	// SMULLS R6, R7, R1, R2
	// SMLAL R6, R7, R1, R2
	c, m := armProgram(t, 0xE0100291, 0xE0230291, 0xE0854291, 0xE0D76291, 0xE0E76291)
	c.Registers.Write(1, 0xFFFFFFFE)
	c.Registers.Write(2, 3)

	c.Step(m)
	assert.Equal(t, uint32(0xFFFFFFFA), c.Registers.Read(0))
	assert.True(t, c.Registers.GetN())

	c.Step(m)
	assert.Equal(t, uint32(0xFFFFFFF4), c.Registers.Read(3))

	c.Step(m)
	assert.Equal(t, uint32(0xFFFFFFFA), c.Registers.Read(4))
	assert.Equal(t, uint32(2), c.Registers.Read(5))

	c.Step(m)
	assert.Equal(t, uint32(0xFFFFFFFA), c.Registers.Read(6))
	assert.Equal(t, uint32(0xFFFFFFFF), c.Registers.Read(7))
	assert.True(t, c.Registers.GetN())
	assert.False(t, c.Registers.GetZ())

	c.Step(m)
	assert.Equal(t, uint32(0xFFFFFFF4), c.Registers.Read(6))
	assert.Equal(t, uint32(0xFFFFFFFF), c.Registers.Read(7))
}

func TestPSRTransfer(t *testing.T) {
	t.Run("mrs and msr", func(t *testing.T) {
		// MRS R0, CPSR
		// MSR CPSR_fc, R1
		// MSR SPSR_fc, R2
		// MRS R3, SPSR
		c, m := armProgram(t, 0xE10F0000, 0xE129F001, 0xE169F002, 0xE14F3000)
		c.Registers.Write(1, 0x90000000|uint32(ModeIRQ))
		c.Registers.Write(2, 0x12345678)

		steps(c, m, 4)
		assert.Equal(t, uint32(ModeSystem), c.Registers.Read(0))
		assert.Equal(t, ModeIRQ, c.Registers.Mode())
		assert.True(t, c.Registers.GetN())
		assert.True(t, c.Registers.GetV())
		assert.Equal(t, uint32(0x10000078), c.Registers.Read(3))
	})

	t.Run("user mode only writes flags", func(t *testing.T) {
		// MSR CPSR_fc, R0
		c, m := armProgram(t, 0xE129F000)
		c.Registers.WriteCPSR(uint32(ModeUser))
		c.Registers.Write(0, 0xF0000000|uint32(ModeSupervisor)|1<<FlagI)
		c.Step(m)
		assert.Equal(t, uint32(0xF0000000|uint32(ModeUser)), c.Registers.ReadCPSR())
	})

	t.Run("the T bit is never written", func(t *testing.T) {
		// MSR CPSR_c, #0xFF
		c, m := armProgram(t, 0xE321F0FF)
		c.Step(m)
		assert.False(t, c.Thumb())
		assert.Equal(t, ModeSystem, c.Registers.Mode())
		assert.True(t, c.Registers.GetI())
		assert.True(t, c.Registers.GetF())
	})

	t.Run("flags only", func(t *testing.T) {
		// MSR CPSR_f, #0x40000000
		c, m := armProgram(t, 0xE328F101)
		c.Step(m)
		assert.Equal(t, uint32(0x40000000|uint32(ModeSystem)), c.Registers.ReadCPSR())
	})
}

func TestSwap(t *testing.T) {
	// SWP R0, R1, [R2]
	// SWPB R3, R4, [R2]
	c, m := armProgram(t, 0xE1020091, 0xE1423094)
	m.words(0x1000, 0x11223344)
	c.Registers.Write(1, 0xAABBCCDD)
	c.Registers.Write(2, 0x1000)
	c.Registers.Write(4, 0x1EE)

	c.Step(m)
	assert.Equal(t, uint32(0x11223344), c.Registers.Read(0))
	assert.Equal(t, uint32(0xAABBCCDD), m.word(0x1000))

	c.Step(m)
	assert.Equal(t, uint32(0xDD), c.Registers.Read(3))
	assert.Equal(t, uint32(0xAABBCCEE), m.word(0x1000))
}

func TestBranches(t *testing.T) {
	t.Run("branch with link", func(t *testing.T) {
		// BL +0x100
		c, m := armProgram(t, 0xEB00003E)
		c.Step(m)
		assert.Equal(t, uint32(0x104), c.Registers.Read(LR))
		assert.Equal(t, uint32(0x200), c.NextAddress())
	})

	t.Run("backwards", func(t *testing.T) {
		// B .
		c, m := armProgram(t, 0xEAFFFFFE)
		steps(c, m, 3)
		assert.Equal(t, uint32(0x100), c.NextAddress())
	})

	t.Run("bx to thumb and back", func(t *testing.T) {
		// BX R0
		c, m := armProgram(t, 0xE12FFF10)
		// BX R1
		m.halves(0x200, 0x4708)
		c.Registers.Write(0, 0x201)
		c.Registers.Write(1, 0x100)

		c.Step(m)
		assert.True(t, c.Thumb())
		assert.Equal(t, uint32(0x200), c.NextAddress())
		assert.Equal(t, uint32(0x204), c.Registers.Read(PC))

		c.Step(m)
		assert.False(t, c.Thumb())
		assert.Equal(t, uint32(0x100), c.NextAddress())
	})
}

func TestCPUString(t *testing.T) {
	c, _ := armProgram(t, 0xE3A00001)
	assert.Contains(t, c.String(), "state=arm decoded=E3A00001")
}
