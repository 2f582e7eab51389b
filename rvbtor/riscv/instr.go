package riscv

import "fmt"

// Op identifies one RV64I instruction. The zero value is OpUnrecognized.
type Op uint8

const (
	OpUnrecognized Op = iota

	LUI
	AUIPC
	JAL
	JALR
	BEQ
	BNE
	BLT
	BGE
	BLTU
	BGEU
	LB
	LH
	LW
	LD
	LBU
	LHU
	LWU
	SB
	SH
	SW
	SD
	ADDI
	SLTI
	SLTIU
	XORI
	ORI
	ANDI
	SLLI
	SRLI
	SRAI
	ADD
	SUB
	SLL
	SLT
	SLTU
	XOR
	SRL
	SRA
	OR
	AND
	ADDIW
	SLLIW
	SRLIW
	SRAIW
	ADDW
	SUBW
	SLLW
	SRLW
	SRAW

	opEnd
)

// NumOps is the number of recognized instructions.
const NumOps = int(opEnd) - 1

// Format is the encoding layout of an instruction, which decides where its immediate lives.
type Format uint8

const (
	FormatR Format = iota
	FormatI
	FormatS
	FormatB
	FormatU
	FormatJ
)

func (f Format) String() string {
	switch f {
	case FormatR:
		return "R"
	case FormatI:
		return "I"
	case FormatS:
		return "S"
	case FormatB:
		return "B"
	case FormatU:
		return "U"
	case FormatJ:
		return "J"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// Encoding describes how one instruction is matched: word&Mask == Match.
type Encoding struct {
	Op     Op
	Name   string
	Format Format
	Mask   uint32
	Match  uint32
}

// Opcode returns the major opcode of the encoding.
func (e Encoding) Opcode() uint32 {
	return e.Match & MaskOpcode
}

// Funct3 returns the funct3 value and whether the encoding constrains it at all.
func (e Encoding) Funct3() (uint32, bool) {
	return (e.Match >> ShiftFunct3) & MaskFunct3, (e.Mask>>ShiftFunct3)&MaskFunct3 != 0
}

// Funct7 returns the bits of funct7 the encoding constrains and their required value.
// A zero mask leaves funct7 free (it belongs to the immediate).
func (e Encoding) Funct7() (mask uint32, value uint32) {
	return (e.Mask >> ShiftFunct7) & MaskFunct7, (e.Match >> ShiftFunct7) & MaskFunct7
}

const (
	f3Any = -1

	f7Any    = 0x00
	f7Exact  = 0x7F
	f7Funct6 = 0x7E // RV64 immediate shifts: bit 25 is shamt[5]
)

func enc(op Op, name string, format Format, opcode uint32, funct3 int, f7mask, f7value uint32) Encoding {
	mask := uint32(MaskOpcode) | f7mask<<ShiftFunct7
	match := opcode | f7value<<ShiftFunct7
	if funct3 != f3Any {
		mask |= MaskFunct3 << ShiftFunct3
		match |= uint32(funct3) << ShiftFunct3
	}
	return Encoding{Op: op, Name: name, Format: format, Mask: mask, Match: match}
}

// Table lists every recognized instruction, indexed by Op-1.
// The order is also the order of the fuzzer's instruction vocabulary.
var Table = [NumOps]Encoding{
	enc(LUI, "lui", FormatU, OpcodeLUI, f3Any, f7Any, 0),
	enc(AUIPC, "auipc", FormatU, OpcodeAUIPC, f3Any, f7Any, 0),
	enc(JAL, "jal", FormatJ, OpcodeJAL, f3Any, f7Any, 0),
	enc(JALR, "jalr", FormatI, OpcodeJALR, 0, f7Any, 0),

	enc(BEQ, "beq", FormatB, OpcodeBranch, 0, f7Any, 0),
	enc(BNE, "bne", FormatB, OpcodeBranch, 1, f7Any, 0),
	enc(BLT, "blt", FormatB, OpcodeBranch, 4, f7Any, 0),
	enc(BGE, "bge", FormatB, OpcodeBranch, 5, f7Any, 0),
	enc(BLTU, "bltu", FormatB, OpcodeBranch, 6, f7Any, 0),
	enc(BGEU, "bgeu", FormatB, OpcodeBranch, 7, f7Any, 0),

	enc(LB, "lb", FormatI, OpcodeLoad, 0, f7Any, 0),
	enc(LH, "lh", FormatI, OpcodeLoad, 1, f7Any, 0),
	enc(LW, "lw", FormatI, OpcodeLoad, 2, f7Any, 0),
	enc(LD, "ld", FormatI, OpcodeLoad, 3, f7Any, 0),
	enc(LBU, "lbu", FormatI, OpcodeLoad, 4, f7Any, 0),
	enc(LHU, "lhu", FormatI, OpcodeLoad, 5, f7Any, 0),
	enc(LWU, "lwu", FormatI, OpcodeLoad, 6, f7Any, 0),

	enc(SB, "sb", FormatS, OpcodeStore, 0, f7Any, 0),
	enc(SH, "sh", FormatS, OpcodeStore, 1, f7Any, 0),
	enc(SW, "sw", FormatS, OpcodeStore, 2, f7Any, 0),
	enc(SD, "sd", FormatS, OpcodeStore, 3, f7Any, 0),

	enc(ADDI, "addi", FormatI, OpcodeMathI, 0, f7Any, 0),
	enc(SLTI, "slti", FormatI, OpcodeMathI, 2, f7Any, 0),
	enc(SLTIU, "sltiu", FormatI, OpcodeMathI, 3, f7Any, 0),
	enc(XORI, "xori", FormatI, OpcodeMathI, 4, f7Any, 0),
	enc(ORI, "ori", FormatI, OpcodeMathI, 6, f7Any, 0),
	enc(ANDI, "andi", FormatI, OpcodeMathI, 7, f7Any, 0),
	enc(SLLI, "slli", FormatI, OpcodeMathI, 1, f7Funct6, Funct7Base),
	enc(SRLI, "srli", FormatI, OpcodeMathI, 5, f7Funct6, Funct7Base),
	enc(SRAI, "srai", FormatI, OpcodeMathI, 5, f7Funct6, Funct7Alt),

	enc(ADD, "add", FormatR, OpcodeMathReg, 0, f7Exact, Funct7Base),
	enc(SUB, "sub", FormatR, OpcodeMathReg, 0, f7Exact, Funct7Alt),
	enc(SLL, "sll", FormatR, OpcodeMathReg, 1, f7Exact, Funct7Base),
	enc(SLT, "slt", FormatR, OpcodeMathReg, 2, f7Exact, Funct7Base),
	enc(SLTU, "sltu", FormatR, OpcodeMathReg, 3, f7Exact, Funct7Base),
	enc(XOR, "xor", FormatR, OpcodeMathReg, 4, f7Exact, Funct7Base),
	enc(SRL, "srl", FormatR, OpcodeMathReg, 5, f7Exact, Funct7Base),
	enc(SRA, "sra", FormatR, OpcodeMathReg, 5, f7Exact, Funct7Alt),
	enc(OR, "or", FormatR, OpcodeMathReg, 6, f7Exact, Funct7Base),
	enc(AND, "and", FormatR, OpcodeMathReg, 7, f7Exact, Funct7Base),

	enc(ADDIW, "addiw", FormatI, OpcodeMathWI, 0, f7Any, 0),
	enc(SLLIW, "slliw", FormatI, OpcodeMathWI, 1, f7Exact, Funct7Base),
	enc(SRLIW, "srliw", FormatI, OpcodeMathWI, 5, f7Exact, Funct7Base),
	enc(SRAIW, "sraiw", FormatI, OpcodeMathWI, 5, f7Exact, Funct7Alt),

	enc(ADDW, "addw", FormatR, OpcodeMathW, 0, f7Exact, Funct7Base),
	enc(SUBW, "subw", FormatR, OpcodeMathW, 0, f7Exact, Funct7Alt),
	enc(SLLW, "sllw", FormatR, OpcodeMathW, 1, f7Exact, Funct7Base),
	enc(SRLW, "srlw", FormatR, OpcodeMathW, 5, f7Exact, Funct7Base),
	enc(SRAW, "sraw", FormatR, OpcodeMathW, 5, f7Exact, Funct7Alt),
}

// Encoding returns the table entry of a recognized op.
func (op Op) Encoding() Encoding {
	if op == OpUnrecognized || op >= opEnd {
		panic(fmt.Errorf("no encoding for op %d", uint8(op)))
	}
	return Table[op-1]
}

func (op Op) String() string {
	if op == OpUnrecognized || op >= opEnd {
		return "unrecognized"
	}
	return Table[op-1].Name
}

// Ops returns all recognized ops in table order.
func Ops() []Op {
	out := make([]Op, 0, NumOps)
	for op := LUI; op < opEnd; op++ {
		out = append(out, op)
	}
	return out
}

func (op Op) IsBranch() bool { return op >= BEQ && op <= BGEU }
func (op Op) IsLoad() bool   { return op >= LB && op <= LWU }
func (op Op) IsStore() bool  { return op >= SB && op <= SD }

// WritesRd reports whether the op has a destination register.
// Branches and stores reuse the rd bits for their immediate.
func (op Op) WritesRd() bool {
	return op != OpUnrecognized && op < opEnd && !op.IsBranch() && !op.IsStore()
}

// IsWord reports whether the op computes on 32 bits and sign-extends the result.
func (op Op) IsWord() bool { return op >= ADDIW && op <= SRAW }

// AccessSize returns the number of bytes a load or store touches.
func (op Op) AccessSize() int {
	switch op {
	case LB, LBU, SB:
		return 1
	case LH, LHU, SH:
		return 2
	case LW, LWU, SW:
		return 4
	case LD, SD:
		return 8
	default:
		return 0
	}
}

// SignedLoad reports whether a load sign-extends the value it reads.
func (op Op) SignedLoad() bool {
	switch op {
	case LB, LH, LW, LD:
		return true
	default:
		return false
	}
}
