package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tturner/mbsim/internal/capture"
	"github.com/tturner/mbsim/internal/config"
	"github.com/tturner/mbsim/internal/logging"
	"github.com/tturner/mbsim/internal/metrics"
	"github.com/tturner/mbsim/internal/server"
)

type serverFlags struct {
	listenIP   string
	listenPort int
	configPath string
	logLevel   string
	logFile    string
	pcapFile   string
	statsJSON  bool
}

func newServerCmd() *cobra.Command {
	flags := &serverFlags{}

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the Modbus TCP slave",
		Long: `Run mbsim as a Modbus TCP slave that masters can poll and write.

The slave keeps a single in-memory image of 65536 coils and 65536 registers,
shared by every connection. Holding and input registers read the same word
space; coils and discrete inputs read the same bit space.

Configuration is loaded from mbsim.yaml (or --config). All settings have
defaults, so the server also runs without any config file.

Press Ctrl+C to stop the server gracefully.`,
		Example: `  # Serve on the conventional port (needs privileges below 1024)
  mbsim server

  # Serve on an unprivileged port
  mbsim server --listen-port 1502

  # Use a custom config file and verbose logging
  mbsim server --config bench.yaml --log-level verbose

  # Capture served traffic to a PCAP file
  mbsim server --listen-port 1502 --pcap session.pcap`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runServer(cmd, flags); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(2)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.listenIP, "listen-ip", "", "Listen IP address (overrides config)")
	cmd.Flags().IntVar(&flags.listenPort, "listen-port", 0, "Listen port (overrides config)")
	cmd.Flags().StringVar(&flags.configPath, "config", config.DefaultConfigFile, "Config file path")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level: silent|error|info|verbose|debug (overrides config)")
	cmd.Flags().StringVar(&flags.logFile, "log-file", "", "Also write logs to this file (overrides config)")
	cmd.Flags().StringVar(&flags.pcapFile, "pcap", "", "Capture served traffic to a PCAP file")
	cmd.Flags().BoolVar(&flags.statsJSON, "stats-json", false, "Emit periodic JSON stats on stdout")

	return cmd
}

func loadServerConfig(cmd *cobra.Command, flags *serverFlags) (*config.Config, error) {
	// A missing default config file is fine; an explicit --config must exist.
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(flags.configPath); os.IsNotExist(err) {
			return config.DefaultConfig(), nil
		}
	}
	return config.LoadConfig(flags.configPath)
}

func runServer(cmd *cobra.Command, flags *serverFlags) error {
	cfg, err := loadServerConfig(cmd, flags)
	if err != nil {
		return err
	}

	// Override config with CLI flags
	if flags.listenIP != "" {
		cfg.Server.ListenIP = flags.listenIP
	}
	if flags.listenPort != 0 {
		cfg.Server.TCPPort = flags.listenPort
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.logFile != "" {
		cfg.Logging.File = flags.logFile
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(level, cfg.Logging.File)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Close()

	var pcapCapture *capture.Capture
	if flags.pcapFile != "" {
		fmt.Fprintf(os.Stdout, "Starting packet capture: %s\n", flags.pcapFile)
		pcapCapture, err = capture.StartCaptureLoopback(cfg.Server.TCPPort, flags.pcapFile)
		if err != nil {
			return fmt.Errorf("start packet capture: %w", err)
		}
		defer pcapCapture.Stop()
	}

	var sink *metrics.Sink
	if cfg.Metrics.CSVPath != "" {
		writer, err := metrics.NewWriter(cfg.Metrics.CSVPath)
		if err != nil {
			return err
		}
		defer writer.Close()
		sink = metrics.NewSink(writer)
	}

	srv, err := server.NewServer(cfg, logger, sink)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	if flags.statsJSON {
		srv.EnableStatsJSON()
	}

	if !flags.statsJSON {
		fmt.Fprintf(os.Stdout, "%s starting on %s:%d\n", cfg.Server.Name, cfg.Server.ListenIP, cfg.Server.TCPPort)
		fmt.Fprintf(os.Stdout, "  Press Ctrl+C to stop\n")
	}

	logger.LogStartup(cfg.Server.Name, cfg.Server.ListenIP, cfg.Server.TCPPort, flags.configPath)

	if err := srv.Start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Fprintf(os.Stdout, "\nShutting down...\n")

	if err := srv.Stop(); err != nil {
		return fmt.Errorf("stop server: %w", err)
	}

	stats := srv.GetStats()
	fmt.Fprintf(os.Stdout, "Served %d requests (%d exceptions) over %d connections\n",
		stats.TotalRequests, stats.TotalExceptions, stats.TotalConnections)

	if pcapCapture != nil {
		pcapCapture.Stop()
		fmt.Fprintf(os.Stdout, "Packets captured: %d (%s)\n", pcapCapture.PacketCount(), flags.pcapFile)
	}

	return nil
}
