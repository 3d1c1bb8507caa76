package config

// Configuration loading and validation for mbsim

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tturner/mbsim/internal/modbus"
)

// DefaultConfigFile is the config file looked up when --config is not given.
const DefaultConfigFile = "mbsim.yaml"

// DefaultPort is the conventional Modbus TCP port.
const DefaultPort = 502

// ServerSection configures the TCP listener.
type ServerSection struct {
	Name       string `yaml:"name"`
	ListenIP   string `yaml:"listen_ip"`
	TCPPort    int    `yaml:"tcp_port"`
	UnitID     uint8  `yaml:"unit_id,omitempty"`      // informational; the slave echoes whatever the client sends
	MaxClients int    `yaml:"max_clients,omitempty"` // 0 = unbounded
}

// CoilPreset seeds a run of coils at startup.
type CoilPreset struct {
	Address int    `yaml:"address"`
	Values  []bool `yaml:"values"`
}

// RegisterPreset seeds a run of registers at startup.
type RegisterPreset struct {
	Address int      `yaml:"address"`
	Values  []uint16 `yaml:"values"`
}

// PresetsSection seeds the data bank before the listener starts.
type PresetsSection struct {
	Coils     []CoilPreset     `yaml:"coils,omitempty"`
	Registers []RegisterPreset `yaml:"registers,omitempty"`
}

// LoggingSection configures the leveled logger.
type LoggingSection struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// MetricsSection configures the stats endpoint and the CSV request log.
type MetricsSection struct {
	Enable   bool   `yaml:"enable"`
	ListenIP string `yaml:"listen_ip"`
	Port     int    `yaml:"port"`
	CSVPath  string `yaml:"csv_path,omitempty"`
}

// Config is the full mbsim server configuration.
type Config struct {
	Server  ServerSection  `yaml:"server"`
	Presets PresetsSection `yaml:"presets,omitempty"`
	Logging LoggingSection `yaml:"logging"`
	Metrics MetricsSection `yaml:"metrics"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadConfig reads, defaults, and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s\n\n"+
				"To fix this:\n"+
				"  1. Generate one interactively: mbsim init\n"+
				"  2. Or specify a custom config file with --config <path>\n\n"+
				"The server also runs without a config file using built-in defaults", path)
		}
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = "mbsim"
	}
	if cfg.Server.ListenIP == "" {
		cfg.Server.ListenIP = "0.0.0.0"
	}
	if cfg.Server.TCPPort == 0 {
		cfg.Server.TCPPort = DefaultPort
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Metrics.ListenIP == "" {
		cfg.Metrics.ListenIP = "127.0.0.1"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9502
	}
}

// Validate checks a configuration after defaults have been applied.
func Validate(cfg *Config) error {
	if cfg.Server.TCPPort < 1 || cfg.Server.TCPPort > 65535 {
		return fmt.Errorf("server.tcp_port must be between 1 and 65535, got %d", cfg.Server.TCPPort)
	}
	if cfg.Server.MaxClients < 0 {
		return fmt.Errorf("server.max_clients must be >= 0")
	}
	switch strings.ToLower(cfg.Logging.Level) {
	case "silent", "error", "info", "verbose", "debug":
	default:
		return fmt.Errorf("logging.level must be silent, error, info, verbose, or debug")
	}
	if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", cfg.Metrics.Port)
	}

	for i, p := range cfg.Presets.Coils {
		if len(p.Values) == 0 {
			return fmt.Errorf("presets.coils[%d]: values must not be empty", i)
		}
		if p.Address < 0 || p.Address+len(p.Values) > modbus.BankSize {
			return fmt.Errorf("presets.coils[%d]: range %d+%d exceeds address space 0-%d",
				i, p.Address, len(p.Values), modbus.BankSize-1)
		}
	}
	for i, p := range cfg.Presets.Registers {
		if len(p.Values) == 0 {
			return fmt.Errorf("presets.registers[%d]: values must not be empty", i)
		}
		if p.Address < 0 || p.Address+len(p.Values) > modbus.BankSize {
			return fmt.Errorf("presets.registers[%d]: range %d+%d exceeds address space 0-%d",
				i, p.Address, len(p.Values), modbus.BankSize-1)
		}
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# mbsim server configuration\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return fmt.Errorf("write config file %s: %w", path, err)
	}
	return nil
}
