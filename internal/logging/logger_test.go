package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want LogLevel
		err  bool
	}{
		{"silent", LogLevelSilent, false},
		{"error", LogLevelError, false},
		{"info", LogLevelInfo, false},
		{"INFO", LogLevelInfo, false},
		{"", LogLevelInfo, false},
		{"verbose", LogLevelVerbose, false},
		{"debug", LogLevelDebug, false},
		{"loud", LogLevelInfo, true},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		if tc.err {
			if err == nil {
				t.Errorf("ParseLevel(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mbsim.log")
	logger, err := NewLogger(LogLevelDebug, path)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	logger.Info("server on %s:%d", "127.0.0.1", 1502)
	logger.Debug("debug detail")
	logger.LogHex("RX", []byte{0x00, 0x01, 0xFF})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "INFO: server on 127.0.0.1:1502") {
		t.Errorf("log file missing info line:\n%s", out)
	}
	if !strings.Contains(out, "DEBUG: debug detail") {
		t.Errorf("log file missing debug line:\n%s", out)
	}
	if !strings.Contains(out, "RX: 00 01 ff") {
		t.Errorf("log file missing hex dump:\n%s", out)
	}
}

func TestLoggerLevelFiltersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mbsim.log")
	logger, err := NewLogger(LogLevelError, path)
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("should be dropped")
	logger.Error("should be kept")
	logger.Close()

	data, _ := os.ReadFile(path)
	out := string(data)
	if strings.Contains(out, "dropped") {
		t.Errorf("info line leaked at error level:\n%s", out)
	}
	if !strings.Contains(out, "ERROR: should be kept") {
		t.Errorf("error line missing:\n%s", out)
	}
}

func TestSetLevel(t *testing.T) {
	logger, err := NewLogger(LogLevelInfo, "")
	if err != nil {
		t.Fatal(err)
	}
	defer logger.Close()

	logger.SetLevel(LogLevelDebug)
	if logger.GetLevel() != LogLevelDebug {
		t.Errorf("GetLevel = %d, want %d", logger.GetLevel(), LogLevelDebug)
	}
}
