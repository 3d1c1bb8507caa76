package server

// Modbus TCP slave server: shared data bank plus one session goroutine per
// accepted connection.

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/tturner/mbsim/internal/config"
	"github.com/tturner/mbsim/internal/logging"
	"github.com/tturner/mbsim/internal/metrics"
	"github.com/tturner/mbsim/internal/modbus"
)

// ServerStats tracks aggregate server activity.
type ServerStats struct {
	TotalConnections  int      `json:"total_connections"`
	ActiveConnections int      `json:"active_connections"`
	TotalRequests     int      `json:"total_requests"`
	TotalExceptions   int      `json:"total_exceptions"`
	FramingErrors     int      `json:"framing_errors"`
	RecentClients     []string `json:"recent_clients"`
}

// Server owns the listener, the shared data bank, and all live sessions.
// The bank is injected into every session; separate Server values are fully
// independent, so tests can run several slaves in one process.
type Server struct {
	config *config.Config
	logger *logging.Logger
	bank   *modbus.DataBank
	sink   *metrics.Sink

	tcpListener     *net.TCPListener
	metricsListener net.Listener

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}

	statsMu sync.RWMutex
	stats   ServerStats

	statsJSON bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer creates a server with a fresh data bank, seeded from the
// configured presets. sink may be nil when request metrics are disabled.
func NewServer(cfg *config.Config, logger *logging.Logger, sink *metrics.Sink) (*Server, error) {
	bank := modbus.NewDataBank()
	for i, p := range cfg.Presets.Coils {
		if !bank.SetBits(p.Address, p.Values) {
			return nil, fmt.Errorf("apply coil preset %d: range %d+%d out of bounds", i, p.Address, len(p.Values))
		}
	}
	for i, p := range cfg.Presets.Registers {
		if !bank.SetWords(p.Address, p.Values) {
			return nil, fmt.Errorf("apply register preset %d: range %d+%d out of bounds", i, p.Address, len(p.Values))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		config: cfg,
		logger: logger,
		bank:   bank,
		sink:   sink,
		conns:  make(map[net.Conn]struct{}),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// DataBank exposes the shared bank for presets, diagnostics, and tests.
func (s *Server) DataBank() *modbus.DataBank {
	return s.bank
}

// EnableStatsJSON enables periodic JSON stats output on stdout. The watch
// dashboard does not read this stream; it polls the metrics endpoint.
func (s *Server) EnableStatsJSON() {
	s.statsJSON = true
}

// GetStats returns a copy of current stats.
func (s *Server) GetStats() ServerStats {
	s.statsMu.RLock()
	stats := s.stats
	stats.RecentClients = append([]string(nil), s.stats.RecentClients...)
	s.statsMu.RUnlock()

	s.connsMu.Lock()
	stats.ActiveConnections = len(s.conns)
	s.connsMu.Unlock()
	return stats
}

func (s *Server) trackConn(conn net.Conn) {
	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()
}

func (s *Server) untrackConn(conn net.Conn) {
	s.connsMu.Lock()
	delete(s.conns, conn)
	s.connsMu.Unlock()
}

func (s *Server) activeConns() int {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	return len(s.conns)
}

// recordConnection increments connection stats.
func (s *Server) recordConnection(remoteAddr string) {
	s.statsMu.Lock()
	s.stats.TotalConnections++
	// Keep last 10 clients
	s.stats.RecentClients = append(s.stats.RecentClients, remoteAddr)
	if len(s.stats.RecentClients) > 10 {
		s.stats.RecentClients = s.stats.RecentClients[1:]
	}
	s.statsMu.Unlock()
}

// recordRequest increments request stats.
func (s *Server) recordRequest(exc modbus.ExceptionCode) {
	s.statsMu.Lock()
	s.stats.TotalRequests++
	if exc != modbus.ExceptionNone {
		s.stats.TotalExceptions++
	}
	s.statsMu.Unlock()
}

// recordFramingError increments the framing error count.
func (s *Server) recordFramingError() {
	s.statsMu.Lock()
	s.stats.FramingErrors++
	s.statsMu.Unlock()
}
