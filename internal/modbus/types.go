package modbus

// Modbus TCP (MBAP) protocol types.
//
// The server models a single logical slave with two addressable spaces:
//   - Bit space: coils and discrete inputs (FC 1/2/5/15), one shared image
//   - Word space: holding and input registers (FC 3/4/6/16), one shared image

import "encoding/binary"

// FunctionCode represents a Modbus function code.
type FunctionCode uint8

// MBAPHeader is the Modbus Application Protocol header for TCP mode.
type MBAPHeader struct {
	TransactionID uint16 // Client-assigned ID for request/response correlation
	ProtocolID    uint16 // Always 0x0000 for Modbus
	Length        uint16 // Byte count of UnitID + PDU
	UnitID        uint8  // Slave/unit identifier
}

// MBAPHeaderSize is the fixed MBAP header size (7 bytes).
const MBAPHeaderSize = 7

// MinPDUSize is the minimum PDU size (function code only).
const MinPDUSize = 1

// MaxPDUSize is the maximum Modbus PDU size (253 bytes).
const MaxPDUSize = 253

// MaxADUSize is the maximum Modbus TCP ADU size (MBAP header + PDU).
const MaxADUSize = MBAPHeaderSize + MaxPDUSize

// Request is a decoded Modbus request PDU. Field usage depends on Function:
// reads carry Addr and Quantity, single writes carry Addr and Value, multiple
// writes carry Addr, Quantity, ByteCount and the raw Payload bytes.
type Request struct {
	Function  FunctionCode
	Addr      uint16
	Quantity  uint16
	Value     uint16 // raw wire value for single writes (0xFF00 = coil ON)
	ByteCount uint8
	Payload   []byte
}

// ExceptionCode represents a Modbus exception code.
type ExceptionCode uint8

const (
	ExceptionNone               ExceptionCode = 0x00
	ExceptionIllegalFunction    ExceptionCode = 0x01
	ExceptionIllegalDataAddress ExceptionCode = 0x02
	ExceptionIllegalDataValue   ExceptionCode = 0x03
	ExceptionSlaveDeviceFailure ExceptionCode = 0x04
	ExceptionAcknowledge        ExceptionCode = 0x05
	ExceptionSlaveDeviceBusy    ExceptionCode = 0x06
	ExceptionMemoryParityError  ExceptionCode = 0x08
	ExceptionGatewayPathUnavail ExceptionCode = 0x0A
	ExceptionGatewayTargetFail  ExceptionCode = 0x0B
)

// EncodeMBAPHeader encodes an MBAP header into 7 bytes.
func EncodeMBAPHeader(h MBAPHeader) []byte {
	buf := make([]byte, MBAPHeaderSize)
	binary.BigEndian.PutUint16(buf[0:2], h.TransactionID)
	binary.BigEndian.PutUint16(buf[2:4], h.ProtocolID)
	binary.BigEndian.PutUint16(buf[4:6], h.Length)
	buf[6] = h.UnitID
	return buf
}

// DecodeMBAPHeader decodes an MBAP header from bytes.
func DecodeMBAPHeader(data []byte) (MBAPHeader, error) {
	if len(data) < MBAPHeaderSize {
		return MBAPHeader{}, errTooShort("MBAP header", len(data), MBAPHeaderSize)
	}
	return MBAPHeader{
		TransactionID: binary.BigEndian.Uint16(data[0:2]),
		ProtocolID:    binary.BigEndian.Uint16(data[2:4]),
		Length:        binary.BigEndian.Uint16(data[4:6]),
		UnitID:        data[6],
	}, nil
}

// ValidLength reports whether an MBAP length field is acceptable for an
// incoming frame. The length counts the unit ID plus the PDU, so anything
// outside (2, 256) cannot frame a usable request.
func (h MBAPHeader) ValidLength() bool {
	return h.Length > 2 && h.Length < 256
}

// String returns a human-readable name for the exception code.
func (e ExceptionCode) String() string {
	switch e {
	case ExceptionNone:
		return "None"
	case ExceptionIllegalFunction:
		return "Illegal_Function"
	case ExceptionIllegalDataAddress:
		return "Illegal_Data_Address"
	case ExceptionIllegalDataValue:
		return "Illegal_Data_Value"
	case ExceptionSlaveDeviceFailure:
		return "Slave_Device_Failure"
	case ExceptionAcknowledge:
		return "Acknowledge"
	case ExceptionSlaveDeviceBusy:
		return "Slave_Device_Busy"
	case ExceptionMemoryParityError:
		return "Memory_Parity_Error"
	case ExceptionGatewayPathUnavail:
		return "Gateway_Path_Unavailable"
	case ExceptionGatewayTargetFail:
		return "Gateway_Target_Failed"
	default:
		return "Unknown"
	}
}
