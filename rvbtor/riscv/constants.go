package riscv

// Major opcodes (bits 6:0) of the RV64I base ISA.
const (
	OpcodeLoad    = 0x03 // 000_0011
	OpcodeMathI   = 0x13 // 001_0011
	OpcodeAUIPC   = 0x17 // 001_0111
	OpcodeMathWI  = 0x1B // 001_1011
	OpcodeStore   = 0x23 // 010_0011
	OpcodeMathReg = 0x33 // 011_0011
	OpcodeLUI     = 0x37 // 011_0111
	OpcodeMathW   = 0x3B // 011_1011
	OpcodeBranch  = 0x63 // 110_0011
	OpcodeJALR    = 0x67 // 110_0111
	OpcodeJAL     = 0x6F // 110_1111
)

// Opcodes lists every major opcode the base ISA decodes, in ascending order.
var Opcodes = [...]uint32{
	OpcodeLoad,
	OpcodeMathI,
	OpcodeAUIPC,
	OpcodeMathWI,
	OpcodeStore,
	OpcodeMathReg,
	OpcodeLUI,
	OpcodeMathW,
	OpcodeBranch,
	OpcodeJALR,
	OpcodeJAL,
}

// Field positions within an instruction word.
const (
	ShiftRd     = 7
	ShiftFunct3 = 12
	ShiftRs1    = 15
	ShiftRs2    = 20
	ShiftFunct7 = 25

	MaskOpcode   = 0x7F
	MaskRegister = 0x1F
	MaskFunct3   = 0x7
	MaskFunct7   = 0x7F
)

// funct7 values that disambiguate instructions sharing opcode and funct3.
const (
	Funct7Base = 0x00 // 0000000: ADD, SRL, SLLI, ...
	Funct7Alt  = 0x20 // 0100000: SUB, SRA, SRAI, ...
)

const (
	NumRegisters = 32
	InstrSize    = 4

	// DefaultAddrBits keeps the symbolic memory at 256 cells.
	// Real programs need far more; model size grows with every populated cell.
	DefaultAddrBits = 8
	// DefaultBound explores a single instruction.
	DefaultBound = 1
)
