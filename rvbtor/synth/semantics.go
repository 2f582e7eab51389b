package synth

import (
	"github.com/rvbmc/bmc/rvbtor/btor2"
	"github.com/rvbmc/bmc/rvbtor/riscv"
)

// registerValue selects the register named by a 5-bit field, x0 when no other index matches.
func (s *synth) registerValue(field btor2.ID) btor2.ID {
	b, n := s.b, &s.n
	cases := make([]btor2.Case, 0, riscv.NumRegisters-1)
	for i := 1; i < riscv.NumRegisters; i++ {
		cases = append(cases, btor2.Case{When: b.Eq(field, b.Const(s.word, uint64(i))), Then: n.Registers[i]})
	}
	return b.Select(cases, n.Registers[0])
}

func (s *synth) set(op riscv.Op, v btor2.ID) {
	s.results[op-1] = v
}

// semantics computes what every op writes to rd, the branch conditions,
// the control-flow targets and the addresses loads and stores touch.
func (s *synth) semantics() {
	b, n := s.b, &s.n

	b.Comment("Operands")
	n.Rs1Val = b.Name(s.registerValue(n.Rs1), "rs1_val")
	n.Rs2Val = b.Name(s.registerValue(n.Rs2), "rs2_val")
	rs1, rs2, imm := n.Rs1Val, n.Rs2Val, n.Imm
	c64 := func(v uint64) btor2.ID { return b.Const(s.reg, v) }
	c32 := func(v uint64) btor2.ID { return b.Const(s.word, v) }
	sum := b.Name(b.Add(rs1, imm), "rs1_plus_imm")

	b.Comment("Control flow")
	s.pcPlus4 = b.Name(b.Add(n.PC, b.Const(s.addr, riscv.InstrSize)), "pc_plus_4")
	s.target = b.Name(b.Add(n.PC, s.narrow(imm)), "pc_plus_imm")
	s.jalrTarget = s.narrow(b.And(sum, c64(^uint64(1))))
	// rd gets the full 64-bit pc+4, not the address-width one.
	link := b.Name(b.Add(s.widen(n.PC), c64(riscv.InstrSize)), "link")
	s.set(riscv.JAL, link)
	s.set(riscv.JALR, link)
	s.conds[riscv.BEQ-1] = b.Eq(rs1, rs2)
	s.conds[riscv.BNE-1] = b.Neq(rs1, rs2)
	s.conds[riscv.BLT-1] = b.Slt(rs1, rs2)
	s.conds[riscv.BGE-1] = b.Sgte(rs1, rs2)
	s.conds[riscv.BLTU-1] = b.Ult(rs1, rs2)
	s.conds[riscv.BGEU-1] = b.Ugte(rs1, rs2)

	b.Comment("Upper immediates")
	s.set(riscv.LUI, imm)
	s.set(riscv.AUIPC, b.Add(s.widen(n.PC), imm))

	b.Comment("Loads")
	s.cells = s.offsets(s.narrow(sum), 8)
	loaded := s.readLE(n.Memory, s.cells)
	s.set(riscv.LB, b.Sext(loaded[0], 56))
	s.set(riscv.LH, b.Sext(loaded[1], 48))
	s.set(riscv.LW, b.Sext(loaded[3], 32))
	s.set(riscv.LD, loaded[7])
	s.set(riscv.LBU, b.Uext(loaded[0], 56))
	s.set(riscv.LHU, b.Uext(loaded[1], 48))
	s.set(riscv.LWU, b.Uext(loaded[3], 32))

	b.Comment("Register-immediate")
	s.set(riscv.ADDI, sum)
	s.set(riscv.SLTI, b.Uext(b.Slt(rs1, imm), 63))
	s.set(riscv.SLTIU, b.Uext(b.Ult(rs1, imm), 63))
	s.set(riscv.XORI, b.Xor(rs1, imm))
	s.set(riscv.ORI, b.Or(rs1, imm))
	s.set(riscv.ANDI, b.And(rs1, imm))
	shamtI := b.And(imm, c64(0x3F))
	s.set(riscv.SLLI, b.Sll(rs1, shamtI))
	s.set(riscv.SRLI, b.Srl(rs1, shamtI))
	s.set(riscv.SRAI, b.Sra(rs1, shamtI))

	b.Comment("Register-register")
	s.set(riscv.ADD, b.Add(rs1, rs2))
	s.set(riscv.SUB, b.Sub(rs1, rs2))
	shamtR := b.And(rs2, c64(0x3F))
	s.set(riscv.SLL, b.Sll(rs1, shamtR))
	s.set(riscv.SLT, b.Uext(b.Slt(rs1, rs2), 63))
	s.set(riscv.SLTU, b.Uext(b.Ult(rs1, rs2), 63))
	s.set(riscv.XOR, b.Xor(rs1, rs2))
	s.set(riscv.SRL, b.Srl(rs1, shamtR))
	s.set(riscv.SRA, b.Sra(rs1, shamtR))
	s.set(riscv.OR, b.Or(rs1, rs2))
	s.set(riscv.AND, b.And(rs1, rs2))

	b.Comment("32-bit")
	lo1, lo2 := b.Slice(rs1, 31, 0), b.Slice(rs2, 31, 0)
	sext := func(x btor2.ID) btor2.ID { return b.Sext(x, 32) }
	s.set(riscv.ADDIW, sext(b.Add(lo1, s.immWord)))
	shamtIW := b.And(s.immWord, c32(0x1F))
	s.set(riscv.SLLIW, sext(b.Sll(lo1, shamtIW)))
	s.set(riscv.SRLIW, sext(b.Srl(lo1, shamtIW)))
	s.set(riscv.SRAIW, sext(b.Sra(lo1, shamtIW)))
	s.set(riscv.ADDW, sext(b.Add(lo1, lo2)))
	s.set(riscv.SUBW, sext(b.Sub(lo1, lo2)))
	shamtW := b.And(lo2, c32(0x1F))
	s.set(riscv.SLLW, sext(b.Sll(lo1, shamtW)))
	s.set(riscv.SRLW, sext(b.Srl(lo1, shamtW)))
	s.set(riscv.SRAW, sext(b.Sra(lo1, shamtW)))
}
