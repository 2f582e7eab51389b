package synth

import (
	"github.com/rvbmc/bmc/rvbtor/btor2"
	"github.com/rvbmc/bmc/rvbtor/riscv"
)

// offsets returns base, base+1, ..., base+n-1 in the address sort, wrapping at its width.
func (s *synth) offsets(base btor2.ID, n int) []btor2.ID {
	out := make([]btor2.ID, n)
	out[0] = base
	for k := 1; k < n; k++ {
		out[k] = s.b.Add(base, s.b.Const(s.addr, uint64(k)))
	}
	return out
}

// readLE reads the cells at addrs, lowest address least significant.
// Entry k of the result holds the first k+1 bytes.
func (s *synth) readLE(mem btor2.ID, addrs []btor2.ID) []btor2.ID {
	out := make([]btor2.ID, len(addrs))
	acc := s.b.Read(mem, addrs[0])
	out[0] = acc
	for k, a := range addrs[1:] {
		acc = s.b.Concat(s.b.Read(mem, a), acc)
		out[k+1] = acc
	}
	return out
}

func (s *synth) fetch() {
	b, n := s.b, &s.n
	b.Comment("Fetch")
	instr := s.readLE(n.Memory, s.offsets(n.PC, riscv.InstrSize))
	n.Instr = b.Name(instr[riscv.InstrSize-1], "instr")

	b.Comment("Fields")
	field := func(shift, mask uint64, symbol string) btor2.ID {
		v := n.Instr
		if shift != 0 {
			v = b.Srl(v, b.Const(s.word, shift))
		}
		return b.Name(b.And(v, b.Const(s.word, mask)), symbol)
	}
	n.Opcode = field(0, riscv.MaskOpcode, "opcode")
	n.Rd = field(riscv.ShiftRd, riscv.MaskRegister, "rd")
	n.Rs1 = field(riscv.ShiftRs1, riscv.MaskRegister, "rs1")
	n.Rs2 = field(riscv.ShiftRs2, riscv.MaskRegister, "rs2")
	n.Funct3 = field(riscv.ShiftFunct3, riscv.MaskFunct3, "funct3")
	n.Funct7 = field(riscv.ShiftFunct7, riscv.MaskFunct7, "funct7")
}
