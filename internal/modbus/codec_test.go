package modbus

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestDecodeReadRequestPDU(t *testing.T) {
	pdu := append([]byte{byte(FcReadHoldingRegisters)}, ReadRequest(0x000A, 2)...)
	req, err := DecodeRequestPDU(pdu)
	if err != nil {
		t.Fatalf("DecodeRequestPDU: %v", err)
	}
	if req.Function != FcReadHoldingRegisters {
		t.Errorf("Function = 0x%02X, want 0x%02X", req.Function, FcReadHoldingRegisters)
	}
	if req.Addr != 0x000A {
		t.Errorf("Addr = 0x%04X, want 0x000A", req.Addr)
	}
	if req.Quantity != 2 {
		t.Errorf("Quantity = %d, want 2", req.Quantity)
	}
}

func TestDecodeWriteSingleCoilPDU(t *testing.T) {
	// Values other than 0xFF00 and 0x0000 must still decode.
	for _, value := range []uint16{0x0000, 0xFF00, 0x1234} {
		pdu := make([]byte, 5)
		pdu[0] = byte(FcWriteSingleCoil)
		binary.BigEndian.PutUint16(pdu[1:3], 0x0007)
		binary.BigEndian.PutUint16(pdu[3:5], value)

		req, err := DecodeRequestPDU(pdu)
		if err != nil {
			t.Fatalf("value 0x%04X: %v", value, err)
		}
		if req.Value != value {
			t.Errorf("Value = 0x%04X, want 0x%04X", req.Value, value)
		}
	}
}

func TestDecodeWriteMultiplePDU(t *testing.T) {
	pdu := append([]byte{byte(FcWriteMultipleCoils)},
		WriteMultipleCoilsRequest(0x0013, []bool{true, false, true, true, false, false, true, true, true, false})...)
	req, err := DecodeRequestPDU(pdu)
	if err != nil {
		t.Fatalf("DecodeRequestPDU: %v", err)
	}
	if req.Addr != 0x0013 {
		t.Errorf("Addr = 0x%04X, want 0x0013", req.Addr)
	}
	if req.Quantity != 10 {
		t.Errorf("Quantity = %d, want 10", req.Quantity)
	}
	if req.ByteCount != 2 {
		t.Errorf("ByteCount = %d, want 2", req.ByteCount)
	}
	if !bytes.Equal(req.Payload, []byte{0xCD, 0x01}) {
		t.Errorf("Payload = % X, want CD 01", req.Payload)
	}
}

func TestDecodeRequestPDUTruncated(t *testing.T) {
	cases := [][]byte{
		{},
		{byte(FcReadCoils)},
		{byte(FcReadCoils), 0x00, 0x00, 0x00},
		{byte(FcWriteSingleRegister), 0x00, 0x0A},
		{byte(FcWriteMultipleRegisters), 0x00, 0x00, 0x00, 0x01},
		// byte count declares 4 data bytes, only 2 present
		{byte(FcWriteMultipleRegisters), 0x00, 0x00, 0x00, 0x02, 0x04, 0x12, 0x34},
	}
	for i, pdu := range cases {
		if _, err := DecodeRequestPDU(pdu); err == nil {
			t.Errorf("case %d: expected decode error for % X", i, pdu)
		}
	}
}

func TestDecodeUnknownFunction(t *testing.T) {
	req, err := DecodeRequestPDU([]byte{0x42, 0x00, 0x00, 0x00, 0x01})
	if err != nil {
		t.Fatalf("unknown function must decode: %v", err)
	}
	if req.Function != 0x42 {
		t.Errorf("Function = 0x%02X, want 0x42", req.Function)
	}
}

func TestEncodeExceptionPDU(t *testing.T) {
	pdu := EncodeExceptionPDU(FcReadHoldingRegisters, ExceptionIllegalDataValue)
	if !bytes.Equal(pdu, []byte{0x83, 0x03}) {
		t.Errorf("pdu = % X, want 83 03", pdu)
	}
}

func TestPackBitsLSBFirst(t *testing.T) {
	bits := []bool{true, false, true, true, false, false, true, true, true, false}
	packed := PackBits(bits)
	if !bytes.Equal(packed, []byte{0xCD, 0x01}) {
		t.Errorf("packed = % X, want CD 01", packed)
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	for _, count := range []uint16{1, 7, 8, 9, 16, 37, 2000} {
		bits := make([]bool, count)
		for i := range bits {
			bits[i] = i%3 == 0
		}
		packed := PackBits(bits)
		if len(packed) != BitmapBytes(count) {
			t.Fatalf("count %d: packed %d bytes, want %d", count, len(packed), BitmapBytes(count))
		}
		back := UnpackBits(packed, count)
		for i := range bits {
			if back[i] != bits[i] {
				t.Fatalf("count %d: bit %d = %v, want %v", count, i, back[i], bits[i])
			}
		}
		// encode(decode(bytes)) must reproduce the bytes when trailing bits are zero
		if repacked := PackBits(back); !bytes.Equal(repacked, packed) {
			t.Errorf("count %d: repacked % X, want % X", count, repacked, packed)
		}
	}
}

func TestWriteMultipleRegistersRequestLayout(t *testing.T) {
	data := WriteMultipleRegistersRequest(0x0001, []uint16{0x000A, 0x0102})
	want := []byte{0x00, 0x01, 0x00, 0x02, 0x04, 0x00, 0x0A, 0x01, 0x02}
	if !bytes.Equal(data, want) {
		t.Errorf("data = % X, want % X", data, want)
	}
}

func TestDecodeReadBitsResponse(t *testing.T) {
	bits, err := DecodeReadBitsResponse([]byte{0x02, 0x80, 0x00}, 10)
	if err != nil {
		t.Fatalf("DecodeReadBitsResponse: %v", err)
	}
	for i, want := range []bool{false, false, false, false, false, false, false, true, false, false} {
		if bits[i] != want {
			t.Errorf("bit %d = %v, want %v", i, bits[i], want)
		}
	}
}

func TestDecodeReadWordsResponse(t *testing.T) {
	words, err := DecodeReadWordsResponse([]byte{0x04, 0x12, 0x34, 0xAB, 0xCD})
	if err != nil {
		t.Fatalf("DecodeReadWordsResponse: %v", err)
	}
	if len(words) != 2 || words[0] != 0x1234 || words[1] != 0xABCD {
		t.Errorf("words = %04X, want [1234 ABCD]", words)
	}
}

func TestDecodeReadWordsResponseOddByteCount(t *testing.T) {
	if _, err := DecodeReadWordsResponse([]byte{0x03, 0x12, 0x34, 0xAB}); err == nil {
		t.Fatal("expected error for odd byte count")
	}
}

func TestMBAPHeaderRoundTrip(t *testing.T) {
	h := MBAPHeader{TransactionID: 0x0102, ProtocolID: 0, Length: 6, UnitID: 0xFF}
	buf := EncodeMBAPHeader(h)
	if len(buf) != MBAPHeaderSize {
		t.Fatalf("header len = %d, want %d", len(buf), MBAPHeaderSize)
	}
	back, err := DecodeMBAPHeader(buf)
	if err != nil {
		t.Fatalf("DecodeMBAPHeader: %v", err)
	}
	if back != h {
		t.Errorf("header = %+v, want %+v", back, h)
	}
}

func TestMBAPHeaderValidLength(t *testing.T) {
	cases := []struct {
		length uint16
		want   bool
	}{
		{2, false},
		{3, true},
		{255, true},
		{256, false},
		{0, false},
	}
	for _, tc := range cases {
		h := MBAPHeader{Length: tc.length}
		if got := h.ValidLength(); got != tc.want {
			t.Errorf("ValidLength(%d) = %v, want %v", tc.length, got, tc.want)
		}
	}
}
