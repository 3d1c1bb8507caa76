package client

// Minimal Modbus TCP master used by the read/write subcommands and tests.

import (
	"fmt"
	"io"
	"net"
	"time"

	mberrors "github.com/tturner/mbsim/internal/errors"
	"github.com/tturner/mbsim/internal/modbus"
)

// ExceptionError is returned when the slave answers with an exception PDU.
type ExceptionError struct {
	Function modbus.FunctionCode
	Code     modbus.ExceptionCode
}

func (e ExceptionError) Error() string {
	return fmt.Sprintf("slave exception on %s: 0x%02X (%s)", e.Function, uint8(e.Code), e.Code)
}

// Client is a Modbus TCP master bound to one slave connection. It is not
// safe for concurrent use; requests on one connection are strictly serial.
type Client struct {
	conn    net.Conn
	unitID  uint8
	timeout time.Duration
	txnID   uint16
}

// Connect dials a Modbus TCP slave.
func Connect(ip string, port int, unitID uint8, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", ip, port), timeout)
	if err != nil {
		return nil, mberrors.WrapNetworkError(err, ip, port)
	}
	return &Client{conn: conn, unitID: unitID, timeout: timeout}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// ReadBits reads coils (FC 0x01) or discrete inputs (FC 0x02).
func (c *Client) ReadBits(fc modbus.FunctionCode, addr, quantity uint16) ([]bool, error) {
	if fc != modbus.FcReadCoils && fc != modbus.FcReadDiscreteInputs {
		return nil, fmt.Errorf("function 0x%02X does not read bits", uint8(fc))
	}
	data, err := c.roundTrip(fc, modbus.ReadRequest(addr, quantity))
	if err != nil {
		return nil, err
	}
	return modbus.DecodeReadBitsResponse(data, quantity)
}

// ReadWords reads holding registers (FC 0x03) or input registers (FC 0x04).
func (c *Client) ReadWords(fc modbus.FunctionCode, addr, quantity uint16) ([]uint16, error) {
	if fc != modbus.FcReadHoldingRegisters && fc != modbus.FcReadInputRegisters {
		return nil, fmt.Errorf("function 0x%02X does not read words", uint8(fc))
	}
	data, err := c.roundTrip(fc, modbus.ReadRequest(addr, quantity))
	if err != nil {
		return nil, err
	}
	return modbus.DecodeReadWordsResponse(data)
}

// WriteSingleCoil writes one coil (FC 0x05).
func (c *Client) WriteSingleCoil(addr uint16, value bool) error {
	_, err := c.roundTrip(modbus.FcWriteSingleCoil, modbus.WriteSingleCoilRequest(addr, value))
	return err
}

// WriteSingleRegister writes one holding register (FC 0x06).
func (c *Client) WriteSingleRegister(addr, value uint16) error {
	_, err := c.roundTrip(modbus.FcWriteSingleRegister, modbus.WriteSingleRegisterRequest(addr, value))
	return err
}

// WriteMultipleCoils writes a run of coils (FC 0x0F).
func (c *Client) WriteMultipleCoils(addr uint16, values []bool) error {
	_, err := c.roundTrip(modbus.FcWriteMultipleCoils, modbus.WriteMultipleCoilsRequest(addr, values))
	return err
}

// WriteMultipleRegisters writes a run of holding registers (FC 0x10).
func (c *Client) WriteMultipleRegisters(addr uint16, values []uint16) error {
	_, err := c.roundTrip(modbus.FcWriteMultipleRegisters, modbus.WriteMultipleRegistersRequest(addr, values))
	return err
}

// roundTrip sends one request PDU and returns the response data payload.
func (c *Client) roundTrip(fc modbus.FunctionCode, data []byte) ([]byte, error) {
	c.txnID++

	pdu := make([]byte, 0, 1+len(data))
	pdu = append(pdu, byte(fc))
	pdu = append(pdu, data...)

	frame := modbus.EncodeMBAPHeader(modbus.MBAPHeader{
		TransactionID: c.txnID,
		ProtocolID:    0x0000,
		Length:        uint16(len(pdu) + 1),
		UnitID:        c.unitID,
	})
	frame = append(frame, pdu...)

	if c.timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.timeout))
	}
	if _, err := c.conn.Write(frame); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	header := make([]byte, modbus.MBAPHeaderSize)
	if _, err := io.ReadFull(c.conn, header); err != nil {
		return nil, fmt.Errorf("read response header: %w", err)
	}
	hdr, err := modbus.DecodeMBAPHeader(header)
	if err != nil {
		return nil, err
	}
	if hdr.ProtocolID != 0x0000 {
		return nil, fmt.Errorf("response protocol ID 0x%04X, want 0x0000", hdr.ProtocolID)
	}
	if !hdr.ValidLength() {
		return nil, fmt.Errorf("response length %d out of range", hdr.Length)
	}
	if hdr.TransactionID != c.txnID {
		return nil, fmt.Errorf("response transaction ID 0x%04X, want 0x%04X", hdr.TransactionID, c.txnID)
	}

	body := make([]byte, hdr.Length-1)
	if _, err := io.ReadFull(c.conn, body); err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	respFC := modbus.FunctionCode(body[0])
	if respFC.IsException() {
		if len(body) < 2 {
			return nil, fmt.Errorf("exception response missing code")
		}
		return nil, ExceptionError{Function: respFC &^ 0x80, Code: modbus.ExceptionCode(body[1])}
	}
	if respFC != fc {
		return nil, fmt.Errorf("response function 0x%02X, want 0x%02X", uint8(respFC), uint8(fc))
	}
	return body[1:], nil
}
