package server

// Per-connection MBAP session loop.
//
// The session is strictly serial: read header, read body, dispatch, reply.
// Framing violations close the connection without a reply; protocol-level
// failures answer with an exception PDU and keep the session alive.

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/tturner/mbsim/internal/metrics"
	"github.com/tturner/mbsim/internal/modbus"
)

func (s *Server) handleConn(conn *net.TCPConn) {
	defer s.wg.Done()

	remote := conn.RemoteAddr().String()
	s.trackConn(conn)
	defer func() {
		s.untrackConn(conn)
		conn.Close()
		s.logger.Info("Client disconnected: %s", remote)
	}()

	s.logger.Info("Client connected: %s", remote)
	s.recordConnection(remote)

	header := make([]byte, modbus.MBAPHeaderSize)
	for {
		if s.ctx.Err() != nil {
			return
		}

		if _, err := io.ReadFull(conn, header); err != nil {
			if !errors.Is(err, io.EOF) && s.ctx.Err() == nil {
				s.logger.Verbose("%s: header read: %v", remote, err)
			}
			return
		}

		hdr, err := modbus.DecodeMBAPHeader(header)
		if err != nil {
			// unreachable with a full 7-byte read, but keep the error path honest
			s.recordFramingError()
			return
		}
		if hdr.ProtocolID != 0 || !hdr.ValidLength() {
			s.logger.Verbose("%s: bad MBAP header (protocol 0x%04X, length %d), closing",
				remote, hdr.ProtocolID, hdr.Length)
			s.recordFramingError()
			return
		}

		body := make([]byte, hdr.Length-1)
		if _, err := io.ReadFull(conn, body); err != nil {
			s.logger.Verbose("%s: short frame body, closing", remote)
			s.recordFramingError()
			return
		}

		if modbus.FunctionCode(body[0]).IsException() {
			s.logger.Verbose("%s: function code 0x%02X has exception bit set, closing", remote, body[0])
			s.recordFramingError()
			return
		}

		s.logger.LogHex("RX "+remote, append(header, body...))

		start := time.Now()
		req, err := modbus.DecodeRequestPDU(body)
		if err != nil {
			s.logger.Verbose("%s: %v, closing", remote, err)
			s.recordFramingError()
			return
		}

		payload, exc := modbus.Dispatch(req, s.bank)

		var pdu []byte
		if exc != modbus.ExceptionNone {
			pdu = modbus.EncodeExceptionPDU(req.Function, exc)
		} else {
			pdu = modbus.EncodeResponsePDU(req.Function, payload)
		}

		frame := modbus.EncodeMBAPHeader(modbus.MBAPHeader{
			TransactionID: hdr.TransactionID,
			ProtocolID:    hdr.ProtocolID,
			Length:        uint16(len(pdu) + 1),
			UnitID:        hdr.UnitID,
		})
		frame = append(frame, pdu...)

		s.logger.LogHex("TX "+remote, frame)

		if _, err := conn.Write(frame); err != nil {
			s.logger.Verbose("%s: write: %v", remote, err)
			return
		}

		rtt := float64(time.Since(start).Microseconds()) / 1000.0
		s.recordRequest(exc)
		s.logger.LogRequest(remote, req.Function.String(), exc.String(), rtt)
		if s.sink != nil {
			s.sink.Record(metrics.RequestMetric{
				Timestamp: start,
				Remote:    remote,
				Function:  req.Function.String(),
				Success:   exc == modbus.ExceptionNone,
				Exception: exc.String(),
				RTTMs:     rtt,
			})
		}
	}
}
