package arm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExceptionDescriptors(t *testing.T) {
	assert.Equal(t, uint32(0x08), ExceptionSWI.Vector())
	assert.Equal(t, uint32(0x1C), ExceptionFIQ.Vector())
	assert.Equal(t, ModeUndefined, ExceptionUndefined.Mode())
	assert.Equal(t, ModeAbort, ExceptionDataAbort.Mode())
	assert.Equal(t, "prefetch abort", ExceptionPrefetchAbort.String())

	assert.True(t, ExceptionIRQ.Masked(1<<FlagI))
	assert.False(t, ExceptionIRQ.Masked(1<<FlagF))
	assert.True(t, ExceptionFIQ.Masked(1<<FlagF))
	assert.False(t, ExceptionSWI.Masked(1<<FlagI|1<<FlagF))
}

func TestExceptionEntry(t *testing.T) {
	kinds := []Exception{
		ExceptionReset, ExceptionUndefined, ExceptionSWI, ExceptionPrefetchAbort,
		ExceptionDataAbort, ExceptionAddressExceeds26Bit, ExceptionIRQ, ExceptionFIQ,
	}

	for _, e := range kinds {
		for _, thumb := range []bool{false, true} {
			name := e.String() + " from arm"
			if thumb {
				name = e.String() + " from thumb"
			}

			t.Run(name, func(t *testing.T) {
				var c *CPU
				var m *testMemory
				if thumb {
					c, m = thumbProgram(t)
				} else {
					c, m = armProgram(t)
				}
				c.Registers.PutN(true)
				c.Registers.PutC(true)
				cpsr := c.Registers.ReadCPSR()
				next := c.NextAddress()

				require.True(t, c.HandleException(e, m))

				r := &c.Registers
				assert.Equal(t, e.Mode(), r.Mode())
				assert.Equal(t, cpsr, r.ReadSPSR())
				assert.False(t, c.Thumb())
				assert.True(t, r.GetI())
				assert.Equal(t, e == ExceptionFIQ || e == ExceptionReset, r.GetF())
				assert.True(t, r.GetN())
				assert.Equal(t, e.Vector(), c.NextAddress())

				// synchronous kinds return past the instruction, the
				// others return with SUBS PC, LR, #4
				switch {
				case e != ExceptionSWI && e != ExceptionUndefined:
					assert.Equal(t, next+4, r.Read(LR))
				case thumb:
					assert.Equal(t, next+2, r.Read(LR))
				default:
					assert.Equal(t, next+4, r.Read(LR))
				}
			})
		}
	}
}

func TestExceptionMasking(t *testing.T) {
	c, m := armProgram(t)
	c.Registers.SetI()
	before := c.Registers.Snapshot()
	cycles := c.TotalCycles

	assert.False(t, c.HandleException(ExceptionIRQ, m))
	assert.Equal(t, before, c.Registers.Snapshot())
	assert.Equal(t, cycles, c.TotalCycles)

	c.Registers.ClearI()
	c.Registers.SetF()
	assert.False(t, c.HandleException(ExceptionFIQ, m))
	assert.True(t, c.HandleException(ExceptionIRQ, m))
	assert.Equal(t, ModeIRQ, c.Registers.Mode())
}

func TestExceptionSPSR(t *testing.T) {
	// entering any exception from any mode leaves the interrupted CPSR in
	// the SPSR of the exception mode
	for _, mode := range allModes {
		for e := ExceptionReset; e <= ExceptionFIQ; e++ {
			c, m := armProgram(t)
			c.Registers.WriteCPSR(0xA0000000 | uint32(mode))
			cpsr := c.Registers.ReadCPSR()

			require.True(t, c.HandleException(e, m))
			assert.Equal(t, cpsr, c.Registers.ReadSPSR(), "%s from %s", e, mode)
		}
	}
}

func TestExceptionHook(t *testing.T) {
	t.Run("consumed", func(t *testing.T) {
		// SWI 0x42
		c, m := armProgram(t, 0xEF000042)

		var got Exception
		var ret uint32
		c.SetExceptionHandler(func(c *CPU, m Memory, e Exception, returnAddress uint32) bool {
			got, ret = e, returnAddress
			return true
		})

		before := c.Registers.Snapshot()
		c.Step(m)
		assert.Equal(t, ExceptionSWI, got)
		assert.Equal(t, uint32(0x104), ret)
		assert.Equal(t, ModeSystem, c.Registers.Mode())
		assert.Equal(t, uint32(0x104), c.NextAddress())
		assert.Equal(t, before.GP[LR], c.Registers.Read(LR))
	})

	t.Run("declined", func(t *testing.T) {
		c, m := armProgram(t, 0xEF000042)
		called := 0
		c.SetExceptionHandler(func(*CPU, Memory, Exception, uint32) bool {
			called++
			return false
		})

		c.Step(m)
		assert.Equal(t, 1, called)
		assert.Equal(t, ModeSupervisor, c.Registers.Mode())
		assert.Equal(t, uint32(0x08), c.NextAddress())

		c.RemoveExceptionHandler()
		c.HandleException(ExceptionFIQ, m)
		assert.Equal(t, 1, called)
	})
}

func TestInterruptRoundTrip(t *testing.T) {
	// MOV R0, #1
	// MOV R1, #2
	c, m := armProgram(t, 0xE3A00001, 0xE3A01002)
	// SUBS PC, LR, #4
	m.words(0x18, 0xE25EF004)

	c.Step(m)
	cycles := c.TotalCycles
	require.True(t, c.HandleException(ExceptionIRQ, m))
	assert.Equal(t, cycles+2, c.TotalCycles)
	assert.Equal(t, uint32(0x108), c.Registers.Read(LR))

	c.Step(m)
	assert.Equal(t, ModeSystem, c.Registers.Mode())
	assert.False(t, c.Registers.GetI())
	assert.Equal(t, uint32(0x104), c.NextAddress())

	c.Step(m)
	assert.Equal(t, uint32(1), c.Registers.Read(0))
	assert.Equal(t, uint32(2), c.Registers.Read(1))
}

func TestUndefinedInstructions(t *testing.T) {
	for name, op := range map[string]uint32{
		"undefined":   0xE7F000F0,
		"coprocessor": 0xEE000000,
		"ldc":         0xED900000,
		"strsb":       0xE1C000D0,
	} {
		t.Run(name, func(t *testing.T) {
			c, m := armProgram(t, op)
			c.Step(m)
			assert.Equal(t, ModeUndefined, c.Registers.Mode())
			assert.Equal(t, uint32(0x104), c.Registers.Read(LR))
			assert.Equal(t, uint32(0x04), c.NextAddress())
		})
	}
}

func TestThumbSWI(t *testing.T) {
	// SWI 1, handled by MOVS PC, LR
	c, m := thumbProgram(t, 0xDF01)
	m.words(0x08, 0xE1B0F00E)

	c.Step(m)
	assert.Equal(t, ModeSupervisor, c.Registers.Mode())
	assert.False(t, c.Thumb())
	assert.Equal(t, uint32(0x102), c.Registers.Read(LR))
	assert.True(t, c.Registers.ReadSPSR()&(1<<FlagT) != 0)

	c.Step(m)
	assert.True(t, c.Thumb())
	assert.Equal(t, ModeSystem, c.Registers.Mode())
	assert.Equal(t, uint32(0x102), c.NextAddress())
}
