package tools

import (
	"fmt"
	"os"
	"strings"

	"github.com/Manu343726/armv4t/pkg/hw/cpu/arm"
	"github.com/Manu343726/armv4t/pkg/hw/cpu/runner"
	"github.com/Manu343726/armv4t/pkg/utils"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var supportedModules = map[string]func() (string, error){
	"config":  configDocs,
	"psr":     psrDocs,
	"vectors": vectorDocs,
}

// configDocs dumps the default configuration in the format read by --config
func configDocs() (string, error) {
	data, err := yaml.Marshal(runner.DefaultConfig())
	if err != nil {
		return "", err
	}
	return "# default configuration (~/.armv4t.yaml)\n" + string(data), nil
}

// psrDocs draws the layout of the status registers
func psrDocs() (string, error) {
	frame, err := utils.AsciiFrame([]utils.AsciiFrameField{
		{Name: "mode", Begin: 0, Width: 5},
		{Name: "T", Begin: arm.FlagT, Width: 1},
		{Name: "F", Begin: arm.FlagF, Width: 1},
		{Name: "I", Begin: arm.FlagI, Width: 1},
		{Name: "V", Begin: arm.FlagV, Width: 1},
		{Name: "C", Begin: arm.FlagC, Width: 1},
		{Name: "Z", Begin: arm.FlagZ, Width: 1},
		{Name: "N", Begin: arm.FlagN, Width: 1},
	}, 32, "b", utils.AsciiFrameUnitLayout_RightToLeft, 2)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("CPSR / SPSR\n\n")
	b.WriteString(frame)
	b.WriteString("\nModes:\n")
	for _, mode := range []arm.Mode{arm.ModeUser, arm.ModeFIQ, arm.ModeIRQ, arm.ModeSupervisor, arm.ModeAbort, arm.ModeUndefined, arm.ModeSystem} {
		fmt.Fprintf(&b, "  %05b  %s\n", uint32(mode), mode)
	}
	return b.String(), nil
}

// vectorDocs lists the exception vector table
func vectorDocs() (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s  %-22s  %s\n", "vector", "exception", "mode")
	for e := arm.ExceptionReset; e <= arm.ExceptionFIQ; e++ {
		fmt.Fprintf(&b, "0x%08X  %-22s  %s\n", e.Vector(), e, e.Mode())
	}
	return b.String(), nil
}

func moduleNames() []string {
	return utils.Keys(supportedModules)
}

var docsCmd = &cobra.Command{
	Use:   "docs module",
	Short: "Show ARMv4T core documentation",
	Long: `Dumps the documentation of the specified module.
By default the tool dumps the documentation to stdout, but it can be redirected to a file using the --output flag.

Supported modules:
` + strings.Join(utils.Map(moduleNames(), func(module string) string { return "  " + module }), "\n"),
	Args:      cobra.MatchAll(cobra.OnlyValidArgs, cobra.ExactArgs(1)),
	ValidArgs: moduleNames(),
	Run: func(cmd *cobra.Command, args []string) {
		docs, err := supportedModules[args[0]]()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error generating documentation:", err)
			os.Exit(1)
		}

		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile == "" {
			fmt.Println(docs)
			return
		}

		file, err := os.Create(outputFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error creating file:", err)
			os.Exit(1)
		}
		defer file.Close()
		fmt.Fprintln(file, docs)
	},
}

func init() {
	ToolsCmd.AddCommand(docsCmd)
	docsCmd.Flags().StringP("output", "o", "", "Output file. If not specified, the documentation is dumped to stdout.")
}
