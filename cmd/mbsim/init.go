package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tturner/mbsim/internal/config"
)

func newInitCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a config file interactively",
		Long:  `Walk through the server settings and write a starter mbsim.yaml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runInit(outPath); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(2)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", config.DefaultConfigFile, "Output config file path")

	return cmd
}

func validatePort(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}

func runInit(outPath string) error {
	if _, err := os.Stat(outPath); err == nil {
		var overwrite bool
		confirm := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("%s already exists. Overwrite?", outPath)).
				Value(&overwrite),
		))
		if err := confirm.Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println("aborted")
			return nil
		}
	}

	listenIP := "0.0.0.0"
	port := strconv.Itoa(config.DefaultPort)
	logLevel := "info"
	enableMetrics := true

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen IP").
				Description("0.0.0.0 listens on all IPv4 interfaces, :: on IPv6").
				Value(&listenIP),
			huh.NewInput().
				Title("TCP port").
				Description("502 is the conventional Modbus port and usually needs privileges").
				Validate(validatePort).
				Value(&port),
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("silent", "silent"),
					huh.NewOption("error", "error"),
					huh.NewOption("info", "info"),
					huh.NewOption("verbose", "verbose"),
					huh.NewOption("debug", "debug"),
				).
				Value(&logLevel),
			huh.NewConfirm().
				Title("Enable the metrics endpoint?").
				Description("Required for mbsim watch").
				Value(&enableMetrics),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	cfg.Server.ListenIP = listenIP
	cfg.Server.TCPPort, _ = strconv.Atoi(port)
	cfg.Logging.Level = logLevel
	cfg.Metrics.Enable = enableMetrics

	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := cfg.Save(outPath); err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", outPath)
	fmt.Printf("start the server with: mbsim server --config %s\n", outPath)
	return nil
}
