package synth

import (
	"github.com/rvbmc/bmc/rvbtor/btor2"
	"github.com/rvbmc/bmc/rvbtor/riscv"
)

// classify emits one predicate per table entry. Entries sharing an opcode and funct3
// share their conjunction; funct7 tests are shared per (mask, value).
func (s *synth) classify() {
	b, n := s.b, &s.n
	b.Comment("Opcode groups")
	s.opcodeIs = make(map[uint32]btor2.ID, len(riscv.Opcodes))
	groups := make([]btor2.ID, 0, len(riscv.Opcodes))
	for _, opc := range riscv.Opcodes {
		id := b.Eq(n.Opcode, b.Const(s.word, uint64(opc)))
		s.opcodeIs[opc] = id
		groups = append(groups, id)
	}
	n.KnownOpcode = b.Name(b.Any(groups...), "known_opcode")

	b.Comment("funct3 / funct7")
	var funct3Is [riscv.MaskFunct3 + 1]btor2.ID
	for i := range funct3Is {
		funct3Is[i] = b.Eq(n.Funct3, b.Const(s.word, uint64(i)))
	}
	masked := make(map[uint32]btor2.ID)
	funct7Is := make(map[[2]uint32]btor2.ID)
	funct7 := func(mask, value uint32) btor2.ID {
		key := [2]uint32{mask, value}
		if id, ok := funct7Is[key]; ok {
			return id
		}
		f, ok := masked[mask]
		if !ok {
			f = n.Funct7
			if mask != riscv.MaskFunct7 {
				f = b.And(f, b.Const(s.word, uint64(mask)))
			}
			masked[mask] = f
		}
		id := b.Eq(f, b.Const(s.word, uint64(value)))
		funct7Is[key] = id
		return id
	}

	b.Comment("Instructions")
	withFunct3 := make(map[[2]uint32]btor2.ID)
	for _, e := range riscv.Table {
		p := s.opcodeIs[e.Opcode()]
		if f3, ok := e.Funct3(); ok {
			key := [2]uint32{e.Opcode(), f3}
			q, ok := withFunct3[key]
			if !ok {
				q = b.And(p, funct3Is[f3])
				withFunct3[key] = q
			}
			p = q
		}
		if mask, value := e.Funct7(); mask != 0 {
			p = b.And(p, funct7(mask, value))
		}
		n.Preds[e.Op-1] = b.Name(p, e.Name)
	}
	n.KnownInstr = b.Name(b.Any(n.Preds[:]...), "known_instruction")
}
