package synth

import (
	"github.com/rvbmc/bmc/rvbtor/btor2"
	"github.com/rvbmc/bmc/rvbtor/riscv"
)

// immediate reassembles the five immediate layouts from the instruction word and
// picks one by opcode class. Terms of a sum cover disjoint bit ranges, so add acts as or.
func (s *synth) immediate() {
	b, n := s.b, &s.n
	c := func(v uint32) btor2.ID { return b.Const(s.word, uint64(v)) }
	w := n.Instr

	b.Comment("Immediates")
	immI := b.Name(b.Sra(w, c(20)), "imm_i")
	// imm[11:5] = instr[31:25], imm[4:0] = rd
	immS := b.Name(b.Add(b.And(immI, c(^uint32(0x1F))), n.Rd), "imm_s")
	// imm[4:1] = rd[4:1], imm[10:5] = funct7[5:0], imm[11] = rd[0], imm[31:12] = sign
	immB := b.Name(b.Add(b.Add(b.Add(
		b.And(n.Rd, c(^uint32(1))),
		b.Sll(b.And(n.Funct7, c(0x3F)), c(5))),
		b.Sll(b.And(n.Rd, c(1)), c(11))),
		b.And(b.Sra(w, c(19)), c(^uint32(0xFFF)))), "imm_b")
	immU := b.Name(b.And(w, c(^uint32(0xFFF))), "imm_u")
	// imm[19:12] = instr[19:12], imm[10:1] = instr[30:21], imm[11] = rs2[0], imm[31:20] = sign
	immJ := b.Name(b.Add(b.Add(b.Add(
		b.And(w, c(0xFF000)),
		b.And(b.Srl(w, c(20)), c(0x7FE))),
		b.Sll(b.And(n.Rs2, c(1)), c(11))),
		b.And(b.Sra(w, c(11)), c(^uint32(0xFFFFF)))), "imm_j")

	isU := b.Or(s.opcodeIs[riscv.OpcodeLUI], s.opcodeIs[riscv.OpcodeAUIPC])
	s.immWord = b.Name(b.Select([]btor2.Case{
		{When: s.opcodeIs[riscv.OpcodeJAL], Then: immJ},
		{When: isU, Then: immU},
		{When: s.opcodeIs[riscv.OpcodeBranch], Then: immB},
		{When: s.opcodeIs[riscv.OpcodeStore], Then: immS},
	}, immI), "imm")
	n.Imm = b.Name(b.Sext(s.immWord, 32), "imm64")
}
