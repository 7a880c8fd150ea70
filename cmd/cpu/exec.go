package cpu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/Manu343726/armv4t/pkg/hw/cpu/loader"
	"github.com/Manu343726/armv4t/pkg/hw/cpu/runner"
	"github.com/Manu343726/armv4t/pkg/hw/memory"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// exec exit codes
const (
	exitTerminated = iota
	exitUsage
	exitLoad
	exitStopped
	exitDumpState
)

var (
	execTrace     bool
	execDumpState string
	execColor     string
)

var execCmd = &cobra.Command{
	Use:   "exec <image>",
	Short: "Execute an ARM program",
	Long: `Loads a program image and executes it until it terminates.

The command accepts either:
  - ARM ELF executables, loaded segment by segment at their physical
    addresses and started at the ELF entry point
  - Raw binaries, copied at the memory base address and started there

A program terminates when it raises the termination software interrupt
(SWI 0 by default) or when it is about to execute one of the termination
addresses. Every flag can also be set in the configuration file or through
ARMV4T_* environment variables, e.g. ARMV4T_MAX_STEPS.

Exit codes:
  0  the program terminated
  1  invalid arguments or configuration
  2  the image could not be loaded
  3  execution stopped before the program terminated
  4  the state dump could not be written

Example:
  armv4t cpu exec program.elf
  armv4t cpu exec --format raw --thumb --max-steps 100000 program.bin`,
	Args: cobra.ExactArgs(1),
	Run:  runExec,
}

func init() {
	CpuCmd.AddCommand(execCmd)

	defaults := runner.DefaultConfig()
	flags := execCmd.Flags()

	flags.Uint32("memory-size", defaults.Memory.Size, "Memory size in bytes")
	flags.Uint32("memory-base", defaults.Memory.Base, "Address of the first byte of memory, where raw images are loaded")
	flags.Uint32("code-nonseq-wait", 0, "Wait states of non sequential instruction fetches")
	flags.Uint32("code-seq-wait", 0, "Wait states of sequential instruction fetches")
	flags.Uint32("data-nonseq-wait", 0, "Wait states of non sequential data accesses")
	flags.Uint32("data-seq-wait", 0, "Wait states of sequential data accesses")
	flags.Bool("bus16", false, "Emulate a 16 bit bus: word accesses take two halfword accesses")
	flags.String("format", defaults.Format, "Image format: auto, raw or elf")
	flags.Bool("thumb", false, "Start raw images in THUMB state")
	flags.Uint32("stack", 0, "Initial stack pointer of every mode (default: top of memory)")
	flags.Uint64P("max-steps", "n", 0, "Maximum number of instructions to execute (0 = unlimited)")
	flags.Int64("termination-swi", defaults.TerminationSWI, "SWI comment that terminates the program (-1 = none)")
	flags.StringSlice("termination-address", nil, "Addresses that terminate the program when about to be executed")

	for key, flag := range map[string]string{
		"memory.size":               "memory-size",
		"memory.base":               "memory-base",
		"memory.timing.code.nonseq": "code-nonseq-wait",
		"memory.timing.code.seq":    "code-seq-wait",
		"memory.timing.data.nonseq": "data-nonseq-wait",
		"memory.timing.data.seq":    "data-seq-wait",
		"memory.timing.bus16":       "bus16",
		"format":                    "format",
		"thumb":                     "thumb",
		"stack":                     "stack",
		"max_steps":                 "max-steps",
		"termination_swi":           "termination-swi",
		"termination_addresses":     "termination-address",
	} {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(flag)))
	}

	flags.BoolVarP(&execTrace, "trace", "t", false, "Trace each executed instruction to stderr")
	flags.StringVar(&execDumpState, "dump-state", "", "Write the final CPU state as YAML to this file ('-' for stdout)")
	flags.StringVar(&execColor, "color", "auto", "Color the register dump: auto, always or never")
}

// loadConfig reads the runner configuration from flags, environment and
// configuration file, on top of the defaults
func loadConfig() (runner.Config, error) {
	config := runner.DefaultConfig()
	if err := viper.Unmarshal(&config); err != nil {
		return config, err
	}
	return config, config.Validate()
}

func runExec(cmd *cobra.Command, args []string) {
	if err := setupColor(execColor, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, args[0], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the image at path and returns the exit code of the command
func execute(ctx context.Context, path string, stdout, stderr io.Writer) int {
	logger, closeLog, err := newLogger(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error configuring logging: %v\n", err)
		return exitUsage
	}
	defer closeLog()

	config, err := loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Error reading configuration: %v\n", err)
		return exitUsage
	}

	r, err := runner.NewFromFile(path, config, runner.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		if errors.Is(err, runner.ErrInvalidConfig) || errors.Is(err, memory.ErrInvalidSize) || errors.Is(err, loader.ErrUnsupportedFormat) {
			return exitUsage
		}
		return exitLoad
	}

	image := r.Image()
	logger.Info("loaded",
		"path", path,
		"format", image.Format.String(),
		"entry", fmt.Sprintf("%08X", image.Entry),
		"thumb", image.Thumb,
		"segments", len(image.Segments))

	var result *runner.ExecutionResult
	if execTrace {
		result = r.RunWithTrace(ctx, traceInstruction(stderr))
	} else {
		result = r.Run(ctx)
	}

	printState(stdout, r, result)

	if execDumpState != "" {
		if err := dumpState(execDumpState, stdout, newStateDump(r, result, config)); err != nil {
			fmt.Fprintf(stderr, "Error writing state dump: %v\n", err)
			return exitDumpState
		}
	}

	if result.StopReason != runner.StopTermination {
		return exitStopped
	}
	return exitTerminated
}

func dumpState(path string, stdout io.Writer, dump stateDump) error {
	if path == "-" {
		return writeStateDump(stdout, dump)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeStateDump(file, dump); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// traceInstruction prints every instruction before it executes
func traceInstruction(w io.Writer) runner.TraceCallback {
	return func(step uint64, pc uint32, opcode uint32, thumb bool) bool {
		encoding := colorHex.Sprintf("%08X", opcode)
		if thumb {
			encoding = colorHex.Sprintf("    %04X", opcode)
		}
		fmt.Fprintf(w, "[%6d] %s %s\n", step, colorAddr.Sprintf("0x%08X", pc), encoding)
		return true
	}
}
