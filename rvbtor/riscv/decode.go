package riscv

import "fmt"

// Functions to parse the field values out of an instruction word.
// The symbolic decoder in the synth package emits the same shifts and masks.

func ParseOpcode(instr uint32) uint32 {
	return instr & MaskOpcode
}

func ParseRd(instr uint32) uint32 {
	return (instr >> ShiftRd) & MaskRegister
}

func ParseFunct3(instr uint32) uint32 {
	return (instr >> ShiftFunct3) & MaskFunct3
}

func ParseRs1(instr uint32) uint32 {
	return (instr >> ShiftRs1) & MaskRegister
}

func ParseRs2(instr uint32) uint32 {
	return (instr >> ShiftRs2) & MaskRegister
}

func ParseFunct7(instr uint32) uint32 {
	return instr >> ShiftFunct7
}

func ParseImmTypeI(instr uint32) int32 {
	return int32(instr) >> 20
}

func ParseImmTypeS(instr uint32) int32 {
	return (int32(instr)>>20)&^0x1F | int32(ParseRd(instr))
}

func ParseImmTypeB(instr uint32) int32 {
	rd := int32(ParseRd(instr))
	return (rd &^ 1) +
		int32(ParseFunct7(instr)&0x3F)<<5 +
		(rd&1)<<11 +
		(int32(instr)>>19)&^0xFFF
}

func ParseImmTypeU(instr uint32) int32 {
	return int32(instr &^ 0xFFF)
}

func ParseImmTypeJ(instr uint32) int32 {
	return int32(instr&0x000FF000) +
		int32((instr>>20)&0x7FE) +
		int32(ParseRs2(instr)&1)<<11 +
		(int32(instr)>>11)&^0xFFFFF
}

// Instr is a decoded instruction word.
type Instr struct {
	Op   Op
	Word uint32

	Rd  uint8
	Rs1 uint8
	Rs2 uint8

	// Imm is the sign-extended immediate of the op's format.
	// R-type instructions carry the I-type value, which they ignore.
	Imm int64
}

func (in Instr) String() string {
	return fmt.Sprintf("%s rd=x%d rs1=x%d rs2=x%d imm=%d (%08x)", in.Op, in.Rd, in.Rs1, in.Rs2, in.Imm, in.Word)
}

// Lookup returns the op whose encoding matches the word, or OpUnrecognized.
func Lookup(instr uint32) Op {
	for _, e := range Table {
		if instr&e.Mask == e.Match {
			return e.Op
		}
	}
	return OpUnrecognized
}

// Decode classifies an instruction word and extracts its operands.
func Decode(instr uint32) Instr {
	out := Instr{
		Op:   Lookup(instr),
		Word: instr,
		Rd:   uint8(ParseRd(instr)),
		Rs1:  uint8(ParseRs1(instr)),
		Rs2:  uint8(ParseRs2(instr)),
	}
	out.Imm = int64(Immediate(instr, FormatOf(instr)))
	return out
}

// FormatOf picks the immediate layout of a word by its opcode class alone,
// the same precedence the symbolic immediate selector uses: J, U, B, S, then I.
func FormatOf(instr uint32) Format {
	switch ParseOpcode(instr) {
	case OpcodeJAL:
		return FormatJ
	case OpcodeLUI, OpcodeAUIPC:
		return FormatU
	case OpcodeBranch:
		return FormatB
	case OpcodeStore:
		return FormatS
	default:
		return FormatI
	}
}

// Immediate reassembles the immediate of the given layout.
func Immediate(instr uint32, f Format) int32 {
	switch f {
	case FormatS:
		return ParseImmTypeS(instr)
	case FormatB:
		return ParseImmTypeB(instr)
	case FormatU:
		return ParseImmTypeU(instr)
	case FormatJ:
		return ParseImmTypeJ(instr)
	default:
		return ParseImmTypeI(instr)
	}
}

// Flags projects a decoded word onto one boolean per table entry, indexed by Op-1.
// At most one flag is set.
func Flags(instr uint32) (out [NumOps]bool) {
	if op := Lookup(instr); op != OpUnrecognized {
		out[op-1] = true
	}
	return
}

// KnownOpcode reports whether the word's major opcode belongs to the base ISA.
func KnownOpcode(instr uint32) bool {
	opcode := ParseOpcode(instr)
	for _, o := range Opcodes {
		if o == opcode {
			return true
		}
	}
	return false
}

// Encode assembles an instruction word. Operands that the op's format has no room for are ignored;
// immediates are truncated to the bits the format can carry.
func Encode(op Op, rd, rs1, rs2 uint8, imm int64) uint32 {
	e := op.Encoding()
	out := e.Match
	r := func(v uint8, shift uint) uint32 { return (uint32(v) & MaskRegister) << shift }
	u := uint32(imm)
	switch e.Format {
	case FormatR:
		out |= r(rd, ShiftRd) | r(rs1, ShiftRs1) | r(rs2, ShiftRs2)
	case FormatI:
		out |= r(rd, ShiftRd) | r(rs1, ShiftRs1)
		switch op {
		case SLLI, SRLI, SRAI:
			out |= (u & 0x3F) << ShiftRs2
		case SLLIW, SRLIW, SRAIW:
			out |= (u & 0x1F) << ShiftRs2
		default:
			out |= (u & 0xFFF) << ShiftRs2
		}
	case FormatS:
		out |= r(rs1, ShiftRs1) | r(rs2, ShiftRs2)
		out |= (u & 0x1F) << ShiftRd
		out |= ((u >> 5) & 0x7F) << ShiftFunct7
	case FormatB:
		out |= r(rs1, ShiftRs1) | r(rs2, ShiftRs2)
		out |= ((u >> 1) & 0xF) << 8
		out |= ((u >> 5) & 0x3F) << 25
		out |= ((u >> 11) & 1) << 7
		out |= ((u >> 12) & 1) << 31
	case FormatU:
		out |= r(rd, ShiftRd) | (u &^ 0xFFF)
	case FormatJ:
		out |= r(rd, ShiftRd)
		out |= ((u >> 12) & 0xFF) << 12
		out |= ((u >> 11) & 1) << 20
		out |= ((u >> 1) & 0x3FF) << 21
		out |= ((u >> 20) & 1) << 31
	}
	return out
}

// CheckTable verifies that no instruction word can match two table entries.
func CheckTable() error {
	for i, a := range Table {
		if a.Op != Op(i+1) {
			return fmt.Errorf("table entry %d holds %s", i, a.Name)
		}
		if a.Match&^a.Mask != 0 {
			return fmt.Errorf("%s: match bits %08x outside mask %08x", a.Name, a.Match, a.Mask)
		}
		for _, b := range Table[i+1:] {
			if (a.Match^b.Match)&a.Mask&b.Mask == 0 {
				return fmt.Errorf("encodings of %s and %s overlap", a.Name, b.Name)
			}
		}
	}
	return nil
}

func init() {
	if err := CheckTable(); err != nil {
		panic(err)
	}
}
