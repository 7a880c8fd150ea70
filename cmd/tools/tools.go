package tools

import (
	"github.com/spf13/cobra"
)

// ToolsCmd groups the commands that are not tied to running a program
var ToolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "ARMv4T miscellaneous tools",
}
