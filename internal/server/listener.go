package server

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"

	mberrors "github.com/tturner/mbsim/internal/errors"
)

// Start binds the listener and serves in the background. Callers that want a
// blocking foreground server use ListenAndServe instead.
func (s *Server) Start() error {
	if s.config.Metrics.Enable {
		if err := s.startMetricsListener(); err != nil {
			return err
		}
	}

	tcpAddr, err := net.ResolveTCPAddr("tcp", fmt.Sprintf("%s:%d", s.config.Server.ListenIP, s.config.Server.TCPPort))
	if err != nil {
		return fmt.Errorf("resolve TCP address: %w", err)
	}

	s.tcpListener, err = net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return mberrors.WrapListenError(err, s.config.Server.ListenIP, s.config.Server.TCPPort)
	}

	s.logger.Info("Modbus TCP server listening on %s", s.tcpListener.Addr())

	s.wg.Add(1)
	go s.acceptLoop()

	if s.statsJSON {
		s.wg.Add(1)
		go s.statsLoop()

		readyEvent := map[string]interface{}{
			"event":     "server_ready",
			"listen":    s.tcpListener.Addr().String(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if data, err := json.Marshal(readyEvent); err == nil {
			fmt.Fprintf(os.Stdout, "%s\n", data)
		}
	}

	return nil
}

// ListenAndServe starts the server and blocks until Stop is called.
func (s *Server) ListenAndServe() error {
	if err := s.Start(); err != nil {
		return err
	}
	<-s.ctx.Done()
	return nil
}

// Addr returns the bound TCP address after Start.
func (s *Server) Addr() *net.TCPAddr {
	if s.tcpListener == nil {
		return nil
	}
	if addr, ok := s.tcpListener.Addr().(*net.TCPAddr); ok {
		return addr
	}
	return nil
}

// Stop stops accepting, closes every live session, and waits for the
// session goroutines to finish.
func (s *Server) Stop() error {
	s.cancel()

	if s.tcpListener != nil {
		s.tcpListener.Close()
	}
	if s.metricsListener != nil {
		s.metricsListener.Close()
	}

	s.connsMu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()

	s.logger.Info("Server stopped")
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		s.tcpListener.SetDeadline(time.Now().Add(1 * time.Second))
		conn, err := s.tcpListener.AcceptTCP()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Error("Accept error: %v", err)
			continue
		}

		if max := s.config.Server.MaxClients; max > 0 && s.activeConns() >= max {
			s.logger.Info("Rejecting %s: max_clients (%d) reached", conn.RemoteAddr(), max)
			conn.Close()
			continue
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) startMetricsListener() error {
	addr := fmt.Sprintf("%s:%d", s.config.Metrics.ListenIP, s.config.Metrics.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("start metrics listener: %w", err)
	}
	s.metricsListener = listener
	s.logger.Info("Metrics listener on %s", listener.Addr())
	s.wg.Add(1)
	go s.metricsLoop()
	return nil
}

// metricsLoop answers each metrics connection with a plaintext counter dump.
func (s *Server) metricsLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.metricsListener.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			continue
		}
		stats := s.GetStats()
		_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		fmt.Fprintf(conn, "mbsim_server_up 1\n")
		fmt.Fprintf(conn, "mbsim_connections_total %d\n", stats.TotalConnections)
		fmt.Fprintf(conn, "mbsim_connections_active %d\n", stats.ActiveConnections)
		fmt.Fprintf(conn, "mbsim_requests_total %d\n", stats.TotalRequests)
		fmt.Fprintf(conn, "mbsim_exceptions_total %d\n", stats.TotalExceptions)
		fmt.Fprintf(conn, "mbsim_framing_errors_total %d\n", stats.FramingErrors)
		_ = conn.Close()
	}
}

// statsLoop outputs JSON stats periodically when stats streaming is enabled.
func (s *Server) statsLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			data, err := json.Marshal(map[string]interface{}{
				"type":  "stats",
				"stats": s.GetStats(),
			})
			if err != nil {
				continue
			}
			fmt.Fprintf(os.Stdout, "%s\n", data)
		}
	}
}
