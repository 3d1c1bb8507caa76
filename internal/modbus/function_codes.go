package modbus

// Modbus function codes served by the slave.

const (
	// Bit access
	FcReadCoils          FunctionCode = 0x01 // Read 1-2000 coils
	FcReadDiscreteInputs FunctionCode = 0x02 // Read 1-2000 discrete inputs

	// 16-bit register access
	FcReadHoldingRegisters FunctionCode = 0x03 // Read 1-125 holding registers
	FcReadInputRegisters   FunctionCode = 0x04 // Read 1-125 input registers

	// Single write
	FcWriteSingleCoil     FunctionCode = 0x05 // Write a single coil (ON/OFF)
	FcWriteSingleRegister FunctionCode = 0x06 // Write a single holding register

	// Multiple write
	FcWriteMultipleCoils     FunctionCode = 0x0F // Write 1-1968 coils
	FcWriteMultipleRegisters FunctionCode = 0x10 // Write 1-123 holding registers
)

// Quantity limits per function class.
const (
	MaxReadBits   = 2000 // FC 0x01/0x02
	MaxReadWords  = 125  // FC 0x03/0x04
	MaxWriteBits  = 1968 // FC 0x0F
	MaxWriteWords = 123  // FC 0x10
)

// CoilOn is the wire value that switches a coil ON in FC 0x05. Any other
// value is accepted on the wire and treated as OFF.
const CoilOn uint16 = 0xFF00

// String returns a human-readable name for the function code.
func (fc FunctionCode) String() string {
	switch fc {
	case FcReadCoils:
		return "Read_Coils"
	case FcReadDiscreteInputs:
		return "Read_Discrete_Inputs"
	case FcReadHoldingRegisters:
		return "Read_Holding_Registers"
	case FcReadInputRegisters:
		return "Read_Input_Registers"
	case FcWriteSingleCoil:
		return "Write_Single_Coil"
	case FcWriteSingleRegister:
		return "Write_Single_Register"
	case FcWriteMultipleCoils:
		return "Write_Multiple_Coils"
	case FcWriteMultipleRegisters:
		return "Write_Multiple_Registers"
	default:
		return "Unknown"
	}
}

// IsRead returns true for read function codes.
func (fc FunctionCode) IsRead() bool {
	switch fc {
	case FcReadCoils, FcReadDiscreteInputs,
		FcReadHoldingRegisters, FcReadInputRegisters:
		return true
	default:
		return false
	}
}

// IsWrite returns true for write function codes.
func (fc FunctionCode) IsWrite() bool {
	switch fc {
	case FcWriteSingleCoil, FcWriteSingleRegister,
		FcWriteMultipleCoils, FcWriteMultipleRegisters:
		return true
	default:
		return false
	}
}

// IsKnownFunction returns true for function codes the slave serves.
func IsKnownFunction(fc FunctionCode) bool {
	return fc.IsRead() || fc.IsWrite()
}

// IsException returns true if a response function code has the exception bit set.
func (fc FunctionCode) IsException() bool {
	return fc&0x80 != 0
}
