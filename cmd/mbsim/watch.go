package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tturner/mbsim/internal/tui"
)

type watchFlags struct {
	addr     string
	interval time.Duration
}

func newWatchCmd() *cobra.Command {
	flags := &watchFlags{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live dashboard of a running server's counters",
		Long: `Poll the server's metrics endpoint and render its counters in place.

The server must run with metrics enabled (metrics.enable: true in the
config). The endpoint answers each TCP connection with a plaintext
counter dump and closes.`,
		Example: `  mbsim watch
  mbsim watch --addr 127.0.0.1:9502 --interval 2s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := tui.RunWatch(flags.addr, flags.interval); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(2)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "127.0.0.1:9502", "Metrics endpoint address")
	cmd.Flags().DurationVar(&flags.interval, "interval", time.Second, "Poll interval")

	return cmd
}
