package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/Manu343726/armv4t/cmd/cpu"
	"github.com/Manu343726/armv4t/cmd/tools"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "armv4t",
	Short: "A cycle accurate ARM7TDMI emulator",
	Long: `armv4t emulates the ARM7TDMI core: the ARM and THUMB instruction sets of
the ARMv4T architecture, counting the cycles every instruction takes.

This CLI loads ELF or raw program images, runs them to completion and
dumps the final state of the core.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.AddCommand(cpu.CpuCmd, tools.ToolsCmd)
	cobra.OnInitialize(initConfig)

	flags := RootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.armv4t.yaml)")
	flags.String("log-level", "warn", "Log level: trace, debug, info, warn or error")
	flags.String("log-file", "", "Also write debug logs as JSON to this file")

	cobra.CheckErr(viper.BindPFlag("log.level", flags.Lookup("log-level")))
	cobra.CheckErr(viper.BindPFlag("log.file", flags.Lookup("log-file")))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".armv4t" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".armv4t")
	}

	// ARMV4T_MEMORY_TIMING_CODE_NONSEQ, ARMV4T_MAX_STEPS, ...
	viper.SetEnvPrefix("ARMV4T")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
