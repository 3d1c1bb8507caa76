package client

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/tturner/mbsim/internal/config"
	"github.com/tturner/mbsim/internal/logging"
	"github.com/tturner/mbsim/internal/modbus"
	"github.com/tturner/mbsim/internal/server"
)

func startSlave(t *testing.T) (*server.Server, int) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Server.ListenIP = "127.0.0.1"

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Server.TCPPort = l.Addr().(*net.TCPAddr).Port
	l.Close()

	logger, err := logging.NewLogger(logging.LogLevelSilent, "")
	if err != nil {
		t.Fatal(err)
	}
	srv, err := server.NewServer(cfg, logger, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })
	return srv, srv.Addr().Port
}

func connect(t *testing.T, port int) *Client {
	t.Helper()
	c, err := Connect("127.0.0.1", port, 1, 2*time.Second)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientRegisterRoundTrip(t *testing.T) {
	_, port := startSlave(t)
	c := connect(t, port)

	if err := c.WriteSingleRegister(10, 0x1234); err != nil {
		t.Fatalf("WriteSingleRegister: %v", err)
	}
	words, err := c.ReadWords(modbus.FcReadHoldingRegisters, 10, 1)
	if err != nil {
		t.Fatalf("ReadWords: %v", err)
	}
	if words[0] != 0x1234 {
		t.Errorf("word = 0x%04X, want 0x1234", words[0])
	}

	// input registers alias the same word space
	words, err = c.ReadWords(modbus.FcReadInputRegisters, 10, 1)
	if err != nil {
		t.Fatalf("ReadWords input: %v", err)
	}
	if words[0] != 0x1234 {
		t.Errorf("input word = 0x%04X, want 0x1234", words[0])
	}
}

func TestClientCoilRoundTrip(t *testing.T) {
	_, port := startSlave(t)
	c := connect(t, port)

	if err := c.WriteSingleCoil(7, true); err != nil {
		t.Fatalf("WriteSingleCoil: %v", err)
	}
	bits, err := c.ReadBits(modbus.FcReadCoils, 0, 10)
	if err != nil {
		t.Fatalf("ReadBits: %v", err)
	}
	for i, want := range []bool{false, false, false, false, false, false, false, true, false, false} {
		if bits[i] != want {
			t.Errorf("bit %d = %v, want %v", i, bits[i], want)
		}
	}
}

func TestClientMultipleWrites(t *testing.T) {
	srv, port := startSlave(t)
	c := connect(t, port)

	regs := []uint16{0x000A, 0x0102, 0xFFFF}
	if err := c.WriteMultipleRegisters(100, regs); err != nil {
		t.Fatalf("WriteMultipleRegisters: %v", err)
	}
	coils := []bool{true, false, true, true, false, false, true, true, true}
	if err := c.WriteMultipleCoils(20, coils); err != nil {
		t.Fatalf("WriteMultipleCoils: %v", err)
	}

	words, _ := srv.DataBank().GetWords(100, len(regs))
	for i := range regs {
		if words[i] != regs[i] {
			t.Errorf("word %d = 0x%04X, want 0x%04X", i, words[i], regs[i])
		}
	}
	bits, _ := srv.DataBank().GetBits(20, len(coils))
	for i := range coils {
		if bits[i] != coils[i] {
			t.Errorf("coil %d = %v, want %v", i, bits[i], coils[i])
		}
	}
}

func TestClientExceptionError(t *testing.T) {
	_, port := startSlave(t)
	c := connect(t, port)

	_, err := c.ReadWords(modbus.FcReadHoldingRegisters, 0xFFFF, 2)
	if err == nil {
		t.Fatal("expected exception")
	}
	var excErr ExceptionError
	if !errors.As(err, &excErr) {
		t.Fatalf("error %T, want ExceptionError", err)
	}
	if excErr.Code != modbus.ExceptionIllegalDataAddress {
		t.Errorf("Code = 0x%02X, want 0x02", uint8(excErr.Code))
	}
	if excErr.Function != modbus.FcReadHoldingRegisters {
		t.Errorf("Function = 0x%02X, want 0x03", uint8(excErr.Function))
	}
}

func TestClientSessionSurvivesException(t *testing.T) {
	_, port := startSlave(t)
	c := connect(t, port)

	if _, err := c.ReadWords(modbus.FcReadHoldingRegisters, 0xFFFF, 2); err == nil {
		t.Fatal("expected exception")
	}
	// same connection keeps working
	if _, err := c.ReadWords(modbus.FcReadHoldingRegisters, 0, 1); err != nil {
		t.Fatalf("follow-up read: %v", err)
	}
}

func TestClientConnectRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	if _, err := Connect("127.0.0.1", port, 1, 500*time.Millisecond); err == nil {
		t.Fatal("expected connection error")
	}
}
