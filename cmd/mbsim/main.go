package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.3.1"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mbsim",
		Short: "Modbus TCP slave simulator",
		Long: `mbsim is a Modbus TCP slave simulator for bench testing SCADA masters,
gateways, and protocol tooling. It serves the eight core function codes
against an in-memory data bank shared by all client connections.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newServerCmd())
	rootCmd.AddCommand(newReadCmd())
	rootCmd.AddCommand(newWriteCmd())
	rootCmd.AddCommand(newFunctionsCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newInitCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		// Exit code 1 for CLI/usage errors; runtime errors exit with code 2
		// inside the individual commands.
		os.Exit(1)
	}
}
