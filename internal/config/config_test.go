package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mbsim.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.ListenIP != "0.0.0.0" {
		t.Errorf("ListenIP = %q", cfg.Server.ListenIP)
	}
	if cfg.Server.TCPPort != DefaultPort {
		t.Errorf("TCPPort = %d, want %d", cfg.Server.TCPPort, DefaultPort)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, `
server:
  listen_ip: 127.0.0.1
  tcp_port: 1502
presets:
  registers:
    - address: 10
      values: [4660, 43981]
  coils:
    - address: 0
      values: [true, false, true]
logging:
  level: debug
metrics:
  enable: true
  port: 9600
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.ListenIP != "127.0.0.1" || cfg.Server.TCPPort != 1502 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if len(cfg.Presets.Registers) != 1 || cfg.Presets.Registers[0].Values[0] != 4660 {
		t.Errorf("presets = %+v", cfg.Presets)
	}
	if !cfg.Metrics.Enable || cfg.Metrics.Port != 9600 {
		t.Errorf("metrics = %+v", cfg.Metrics)
	}
	// defaults still fill unset fields
	if cfg.Server.Name != "mbsim" {
		t.Errorf("Name = %q", cfg.Server.Name)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "mbsim init") {
		t.Errorf("error should hint at mbsim init: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"bad port", func(c *Config) { c.Server.TCPPort = 70000 }, "tcp_port"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"empty preset", func(c *Config) {
			c.Presets.Registers = []RegisterPreset{{Address: 0}}
		}, "values"},
		{"preset overflow", func(c *Config) {
			c.Presets.Coils = []CoilPreset{{Address: 65535, Values: []bool{true, true}}}
		}, "address space"},
		{"negative max clients", func(c *Config) { c.Server.MaxClients = -1 }, "max_clients"},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(cfg)
		err := Validate(cfg)
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.wantSub) {
			t.Errorf("%s: error %q does not mention %q", tc.name, err, tc.wantSub)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := DefaultConfig()
	cfg.Server.TCPPort = 1502
	cfg.Presets.Registers = []RegisterPreset{{Address: 5, Values: []uint16{1, 2, 3}}}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	back, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if back.Server.TCPPort != 1502 {
		t.Errorf("TCPPort = %d", back.Server.TCPPort)
	}
	if len(back.Presets.Registers) != 1 || back.Presets.Registers[0].Values[2] != 3 {
		t.Errorf("presets = %+v", back.Presets)
	}
}
