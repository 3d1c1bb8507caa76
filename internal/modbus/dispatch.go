package modbus

// Dispatcher: maps a decoded request onto the data bank and produces either
// a success payload or an exception code.

import "encoding/binary"

// Dispatch applies req against bank and returns the response data payload
// (the bytes following the function code) or, on failure, a non-zero
// exception code.
//
// Holding and input registers alias the same word space, and coils and
// discrete inputs alias the same bit space; the slave keeps a single image
// per value width.
func Dispatch(req Request, bank *DataBank) ([]byte, ExceptionCode) {
	switch req.Function {
	case FcReadCoils, FcReadDiscreteInputs:
		if req.Quantity < 1 || req.Quantity > MaxReadBits {
			return nil, ExceptionIllegalDataValue
		}
		bits, ok := bank.GetBits(int(req.Addr), int(req.Quantity))
		if !ok {
			return nil, ExceptionIllegalDataAddress
		}
		packed := PackBits(bits)
		payload := make([]byte, 0, 1+len(packed))
		payload = append(payload, byte(len(packed)))
		return append(payload, packed...), ExceptionNone

	case FcReadHoldingRegisters, FcReadInputRegisters:
		if req.Quantity < 1 || req.Quantity > MaxReadWords {
			return nil, ExceptionIllegalDataValue
		}
		words, ok := bank.GetWords(int(req.Addr), int(req.Quantity))
		if !ok {
			return nil, ExceptionIllegalDataAddress
		}
		payload := make([]byte, 1+2*len(words))
		payload[0] = byte(2 * len(words))
		for i, w := range words {
			binary.BigEndian.PutUint16(payload[1+2*i:], w)
		}
		return payload, ExceptionNone

	case FcWriteSingleCoil:
		// Any wire value is accepted; only 0xFF00 switches the coil ON.
		if !bank.SetBits(int(req.Addr), []bool{req.Value == CoilOn}) {
			return nil, ExceptionIllegalDataAddress
		}
		return echoAddrValue(req.Addr, req.Value), ExceptionNone

	case FcWriteSingleRegister:
		if !bank.SetWords(int(req.Addr), []uint16{req.Value}) {
			return nil, ExceptionIllegalDataAddress
		}
		return echoAddrValue(req.Addr, req.Value), ExceptionNone

	case FcWriteMultipleCoils:
		if req.Quantity < 1 || req.Quantity > MaxWriteBits {
			return nil, ExceptionIllegalDataValue
		}
		if int(req.ByteCount) < BitmapBytes(req.Quantity) {
			return nil, ExceptionIllegalDataValue
		}
		if !bank.SetBits(int(req.Addr), UnpackBits(req.Payload, req.Quantity)) {
			return nil, ExceptionIllegalDataAddress
		}
		return echoAddrValue(req.Addr, req.Quantity), ExceptionNone

	case FcWriteMultipleRegisters:
		if req.Quantity < 1 || req.Quantity > MaxWriteWords {
			return nil, ExceptionIllegalDataValue
		}
		if int(req.ByteCount) != 2*int(req.Quantity) {
			return nil, ExceptionIllegalDataValue
		}
		words := make([]uint16, req.Quantity)
		for i := range words {
			words[i] = binary.BigEndian.Uint16(req.Payload[2*i:])
		}
		if !bank.SetWords(int(req.Addr), words) {
			return nil, ExceptionIllegalDataAddress
		}
		return echoAddrValue(req.Addr, req.Quantity), ExceptionNone

	default:
		return nil, ExceptionIllegalFunction
	}
}

func echoAddrValue(addr, value uint16) []byte {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint16(payload[0:2], addr)
	binary.BigEndian.PutUint16(payload[2:4], value)
	return payload
}
