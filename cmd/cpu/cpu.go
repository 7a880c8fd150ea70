package cpu

import (
	"github.com/spf13/cobra"
)

// CpuCmd groups the commands that drive the emulated core
var CpuCmd = &cobra.Command{
	Use:   "cpu",
	Short: "Run programs on the emulated ARM7TDMI",
}
