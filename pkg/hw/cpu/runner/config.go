package runner

import (
	"errors"

	"github.com/Manu343726/armv4t/pkg/hw/memory"
	"github.com/Manu343726/armv4t/pkg/utils"
)

var ErrInvalidConfig = errors.New("invalid runner configuration")

// NoTerminationSWI disables termination by software interrupt
const NoTerminationSWI int64 = -1

// Config configures how a program is loaded and when its execution stops.
// It is read by viper, so every field carries mapstructure tags, and dumped
// as YAML.
type Config struct {
	Memory memory.Config `mapstructure:"memory" yaml:"memory"`

	// Format of the image: auto, raw or elf
	Format string `mapstructure:"format" yaml:"format"`
	// Thumb starts raw images in THUMB state
	Thumb bool `mapstructure:"thumb" yaml:"thumb"`
	// Stack is the initial SP of every banked mode, 0 meaning the top of
	// memory
	Stack uint32 `mapstructure:"stack" yaml:"stack"`

	// MaxSteps stops execution after that many instructions, 0 meaning
	// no limit
	MaxSteps uint64 `mapstructure:"max_steps" yaml:"max_steps"`
	// TerminationSWI is the SWI comment that ends the program, or
	// NoTerminationSWI
	TerminationSWI int64 `mapstructure:"termination_swi" yaml:"termination_swi"`
	// TerminationAddresses end the program when about to be executed
	TerminationAddresses []uint32 `mapstructure:"termination_addresses" yaml:"termination_addresses"`
}

// DefaultConfig loads images at 0 in 1MB of zero wait state memory and
// stops at SWI 0
func DefaultConfig() Config {
	return Config{
		Memory:         memory.DefaultConfig(),
		Format:         "auto",
		TerminationSWI: 0,
	}
}

// Validate checks the configuration for values the runner cannot work with
func (c *Config) Validate() error {
	if c.TerminationSWI < NoTerminationSWI || c.TerminationSWI > 0xFFFFFF {
		return utils.MakeError(ErrInvalidConfig, "termination SWI %d is not a 24 bit comment", c.TerminationSWI)
	}
	if c.Stack%4 != 0 {
		return utils.MakeError(ErrInvalidConfig, "stack 0x%08X is not word aligned", c.Stack)
	}
	return nil
}

// stackTop returns the initial stack pointer
func (c *Config) stackTop() uint32 {
	if c.Stack != 0 {
		return c.Stack
	}
	return c.Memory.Base + c.Memory.Size
}
