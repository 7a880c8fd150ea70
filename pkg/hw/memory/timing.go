// Package memory provides reference implementations of the arm.Memory
// capability: a fixed size flat memory and a growable byte vector. Both
// charge configurable wait states per access width, access type and
// code/data bus use.
package memory

import "github.com/Manu343726/armv4t/pkg/hw/cpu/arm"

// WaitStates are the extra cycles of an access on top of the single bus
// cycle every access takes
type WaitStates struct {
	NonSeq arm.Cycles `mapstructure:"nonseq" yaml:"nonseq"`
	Seq    arm.Cycles `mapstructure:"seq" yaml:"seq"`
}

func (w WaitStates) cycles(access arm.AccessType) arm.Cycles {
	if access == arm.Seq {
		return 1 + w.Seq
	}
	return 1 + w.NonSeq
}

// Timing configures the cost of memory accesses. With a 16 bit bus, word
// accesses are split into two halfword accesses, the second one always
// sequential.
type Timing struct {
	Code WaitStates `mapstructure:"code" yaml:"code"`
	Data WaitStates `mapstructure:"data" yaml:"data"`
	// Bus16 selects a 16 bit data bus
	Bus16 bool `mapstructure:"bus16" yaml:"bus16"`
}

// ZeroWait is the timing of memory without wait states on a 32 bit bus:
// every access takes one cycle
var ZeroWait = Timing{}

func (t Timing) cost(w WaitStates, width arm.Width, access arm.AccessType) arm.Cycles {
	if width == arm.Word && t.Bus16 {
		return w.cycles(access) + w.cycles(arm.Seq)
	}
	return w.cycles(access)
}

// CodeCycles returns the cost of an instruction fetch
func (t Timing) CodeCycles(width arm.Width, _ uint32, access arm.AccessType) arm.Cycles {
	return t.cost(t.Code, width, access)
}

// DataCycles returns the cost of a data load or store
func (t Timing) DataCycles(width arm.Width, _ uint32, access arm.AccessType) arm.Cycles {
	return t.cost(t.Data, width, access)
}

func (t Timing) charge(wait *arm.Cycles, width arm.Width, access arm.AccessType) {
	if wait != nil {
		*wait += t.cost(t.Data, width, access)
	}
}
