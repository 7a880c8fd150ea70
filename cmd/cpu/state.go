package cpu

import (
	"fmt"
	"io"
	"os"

	"github.com/Manu343726/armv4t/pkg/hw/cpu/arm"
	"github.com/Manu343726/armv4t/pkg/hw/cpu/runner"
	"github.com/fatih/color"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var (
	colorHeader    = color.New(color.FgWhite, color.Bold, color.Underline)
	colorReg       = color.New(color.FgGreen)
	colorHex       = color.New(color.FgMagenta)
	colorAddr      = color.New(color.FgCyan)
	colorFlagSet   = color.New(color.FgGreen, color.Bold)
	colorFlagClear = color.New(color.FgHiBlack)
	colorStop      = color.New(color.FgYellow, color.Bold)
)

// setupColor applies the --color flag: auto only colors terminals
func setupColor(mode string, out *os.File) error {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	case "auto":
		color.NoColor = !term.IsTerminal(int(out.Fd()))
	default:
		return fmt.Errorf("unknown color mode '%s', expected auto, always or never", mode)
	}
	return nil
}

func formatFlags(psr uint32) string {
	flags := arm.FlagString(psr)
	var out string
	for i := range flags {
		name := string(flags[i])
		if name[0] >= 'A' && name[0] <= 'Z' {
			out += colorFlagSet.Sprint(name)
		} else {
			out += colorFlagClear.Sprint(name)
		}
	}
	return out
}

// printState dumps the registers of the CPU and the reason it stopped
func printState(w io.Writer, r *runner.Runner, result *runner.ExecutionResult) {
	c := r.CPU()
	regs := &c.Registers

	colorHeader.Fprintln(w, "=== CPU State ===")
	fmt.Fprintf(w, "%s: %s  %s: %d  %s: %d\n",
		colorReg.Sprint("stop"), colorStop.Sprint(result.StopReason),
		colorReg.Sprint("steps"), result.StepsExecuted,
		colorReg.Sprint("cycles"), result.Cycles)
	if result.StopReason == runner.StopTermination && result.SWI != 0 {
		fmt.Fprintf(w, "%s: %s\n", colorReg.Sprint("swi"), colorHex.Sprintf("0x%06X", result.SWI))
	}

	state := "arm"
	if c.Thumb() {
		state = "thumb"
	}
	fmt.Fprintf(w, "%s: %s (%s)\n", colorReg.Sprint("next"), colorAddr.Sprintf("0x%08X", c.NextAddress()), state)
	fmt.Fprintln(w)

	colorHeader.Fprintln(w, "Registers:")
	for reg := 0; reg < 16; reg++ {
		fmt.Fprintf(w, "  %s = %s (%11d)\n",
			colorReg.Sprintf("%-3s", arm.RegisterName(reg)),
			colorHex.Sprintf("0x%08X", regs.Read(reg)),
			int32(regs.Read(reg)))
	}

	cpsr := regs.ReadCPSR()
	fmt.Fprintf(w, "  %s = %s %s mode=%s\n",
		colorReg.Sprint("cpsr"), colorHex.Sprintf("0x%08X", cpsr), formatFlags(cpsr), regs.Mode())
	if mode := regs.Mode(); mode.HasBank() {
		spsr := regs.ReadSPSR()
		fmt.Fprintf(w, "  %s = %s %s\n", colorReg.Sprint("spsr"), colorHex.Sprintf("0x%08X", spsr), formatFlags(spsr))
	}
}

// stateDump is the --dump-state document
type stateDump struct {
	Result      runner.ExecutionResult `yaml:"result"`
	Thumb       bool                   `yaml:"thumb"`
	NextAddress uint32                 `yaml:"next_address"`
	TotalCycles uint64                 `yaml:"total_cycles"`
	Registers   arm.Snapshot           `yaml:"registers"`
	Config      runner.Config          `yaml:"config"`
}

func newStateDump(r *runner.Runner, result *runner.ExecutionResult, config runner.Config) stateDump {
	c := r.CPU()
	return stateDump{
		Result:      *result,
		Thumb:       c.Thumb(),
		NextAddress: c.NextAddress(),
		TotalCycles: c.TotalCycles,
		Registers:   c.Registers.Snapshot(),
		Config:      config,
	}
}

// writeStateDump writes the final machine state as YAML
func writeStateDump(w io.Writer, dump stateDump) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(dump); err != nil {
		return err
	}
	return encoder.Close()
}
