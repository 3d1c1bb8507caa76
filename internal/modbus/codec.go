package modbus

// Modbus PDU codec: decode request PDUs into typed requests, encode response
// and exception PDUs, and pack/unpack LSB-first coil bitmaps.

import (
	"encoding/binary"
	"fmt"
)

// errTooShort returns a standardised validation error for short buffers.
func errTooShort(what string, got, need int) error {
	return fmt.Errorf("%s too short: %d bytes (minimum %d)", what, got, need)
}

// DecodeRequestPDU decodes the PDU portion of a request frame (function code
// plus data, unit ID already consumed) into a Request.
//
// Quantity and byte-count policy checks belong to the dispatcher; decoding
// fails only when the bytes on the wire cannot frame the fields the function
// code declares. A decode error is a framing-class failure and the session
// terminates without a reply.
func DecodeRequestPDU(pdu []byte) (Request, error) {
	if len(pdu) < MinPDUSize {
		return Request{}, errTooShort("request PDU", len(pdu), MinPDUSize)
	}
	fc := FunctionCode(pdu[0])
	data := pdu[1:]

	switch fc {
	case FcReadCoils, FcReadDiscreteInputs, FcReadHoldingRegisters, FcReadInputRegisters:
		if len(data) < 4 {
			return Request{}, errTooShort(fc.String()+" request", len(data), 4)
		}
		return Request{
			Function: fc,
			Addr:     binary.BigEndian.Uint16(data[0:2]),
			Quantity: binary.BigEndian.Uint16(data[2:4]),
		}, nil

	case FcWriteSingleCoil, FcWriteSingleRegister:
		if len(data) < 4 {
			return Request{}, errTooShort(fc.String()+" request", len(data), 4)
		}
		return Request{
			Function: fc,
			Addr:     binary.BigEndian.Uint16(data[0:2]),
			Value:    binary.BigEndian.Uint16(data[2:4]),
		}, nil

	case FcWriteMultipleCoils, FcWriteMultipleRegisters:
		if len(data) < 5 {
			return Request{}, errTooShort(fc.String()+" request", len(data), 5)
		}
		byteCount := data[4]
		if len(data) < 5+int(byteCount) {
			return Request{}, errTooShort(fc.String()+" request data", len(data)-5, int(byteCount))
		}
		return Request{
			Function:  fc,
			Addr:      binary.BigEndian.Uint16(data[0:2]),
			Quantity:  binary.BigEndian.Uint16(data[2:4]),
			ByteCount: byteCount,
			Payload:   cloneBytes(data[5 : 5+int(byteCount)]),
		}, nil

	default:
		// Unrecognized function codes decode to a bare request; the
		// dispatcher answers with Illegal_Function.
		return Request{Function: fc, Payload: cloneBytes(data)}, nil
	}
}

// EncodeResponsePDU builds a success response PDU: function code + payload.
func EncodeResponsePDU(fc FunctionCode, payload []byte) []byte {
	pdu := make([]byte, 0, 1+len(payload))
	pdu = append(pdu, byte(fc))
	return append(pdu, payload...)
}

// EncodeExceptionPDU builds an exception response PDU: the request function
// code with the high bit set, followed by the exception code.
func EncodeExceptionPDU(fc FunctionCode, exc ExceptionCode) []byte {
	return []byte{byte(fc) | 0x80, byte(exc)}
}

// BitmapBytes returns the number of data bytes needed to carry count bits.
func BitmapBytes(count uint16) int {
	return (int(count) + 7) / 8
}

// PackBits packs a bit sequence into bytes, LSB-first within each byte.
// Unused high bits of the final byte stay zero.
func PackBits(bits []bool) []byte {
	out := make([]byte, BitmapBytes(uint16(len(bits))))
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << (i % 8)
		}
	}
	return out
}

// UnpackBits extracts count bits from an LSB-first bitmap.
func UnpackBits(data []byte, count uint16) []bool {
	out := make([]bool, count)
	for i := range out {
		out[i] = data[i/8]&(1<<(i%8)) != 0
	}
	return out
}

// --- Client-side request builders (data payload after the function code) ---

// ReadRequest builds the addr+quantity payload shared by FC 0x01-0x04.
func ReadRequest(startAddr, quantity uint16) []byte {
	return encodeAddrQty(startAddr, quantity)
}

// WriteSingleCoilRequest builds the data payload for FC 0x05.
func WriteSingleCoilRequest(addr uint16, value bool) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint16(buf[0:2], addr)
	if value {
		binary.BigEndian.PutUint16(buf[2:4], CoilOn)
	}
	return buf
}

// WriteSingleRegisterRequest builds the data payload for FC 0x06.
func WriteSingleRegisterRequest(addr, value uint16) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint16(buf[0:2], addr)
	binary.BigEndian.PutUint16(buf[2:4], value)
	return buf
}

// WriteMultipleCoilsRequest builds the data payload for FC 0x0F.
func WriteMultipleCoilsRequest(startAddr uint16, values []bool) []byte {
	packed := PackBits(values)
	buf := make([]byte, 5, 5+len(packed))
	binary.BigEndian.PutUint16(buf[0:2], startAddr)
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(values)))
	buf[4] = byte(len(packed))
	return append(buf, packed...)
}

// WriteMultipleRegistersRequest builds the data payload for FC 0x10.
func WriteMultipleRegistersRequest(startAddr uint16, values []uint16) []byte {
	buf := make([]byte, 5+2*len(values))
	binary.BigEndian.PutUint16(buf[0:2], startAddr)
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(values)))
	buf[4] = byte(2 * len(values))
	for i, v := range values {
		binary.BigEndian.PutUint16(buf[5+2*i:], v)
	}
	return buf
}

// --- Client-side response parsers ---

// DecodeReadBitsResponse parses the data field of a FC 0x01/0x02 response
// into count booleans.
func DecodeReadBitsResponse(data []byte, count uint16) ([]bool, error) {
	if len(data) < 1 {
		return nil, errTooShort("read bits response", len(data), 1)
	}
	byteCount := int(data[0])
	if len(data) < 1+byteCount {
		return nil, errTooShort("read bits response data", len(data)-1, byteCount)
	}
	if byteCount < BitmapBytes(count) {
		return nil, fmt.Errorf("read bits response carries %d bytes, need %d for %d bits",
			byteCount, BitmapBytes(count), count)
	}
	return UnpackBits(data[1:1+byteCount], count), nil
}

// DecodeReadWordsResponse parses the data field of a FC 0x03/0x04 response
// into register values.
func DecodeReadWordsResponse(data []byte) ([]uint16, error) {
	if len(data) < 1 {
		return nil, errTooShort("read words response", len(data), 1)
	}
	byteCount := int(data[0])
	if len(data) < 1+byteCount {
		return nil, errTooShort("read words response data", len(data)-1, byteCount)
	}
	if byteCount%2 != 0 {
		return nil, fmt.Errorf("odd byte count in register response: %d", byteCount)
	}
	words := make([]uint16, byteCount/2)
	for i := range words {
		words[i] = binary.BigEndian.Uint16(data[1+2*i:])
	}
	return words, nil
}

// DecodeWriteResponse parses the addr+value (or addr+quantity) echo of a
// write response.
func DecodeWriteResponse(data []byte) (addr, value uint16, err error) {
	if len(data) < 4 {
		return 0, 0, errTooShort("write response", len(data), 4)
	}
	return binary.BigEndian.Uint16(data[0:2]), binary.BigEndian.Uint16(data[2:4]), nil
}

// --- internal helpers ---

func encodeAddrQty(addr, qty uint16) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint16(buf[0:2], addr)
	binary.BigEndian.PutUint16(buf[2:4], qty)
	return buf
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
