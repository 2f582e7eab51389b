package synth

import (
	"github.com/rvbmc/bmc/rvbtor/btor2"
	"github.com/rvbmc/bmc/rvbtor/riscv"
)

// compose emits the next function of every state variable except the memory initializer.
//
// At most one instruction predicate holds in any step, so a single selected rd value
// guarded per register by "some rd-writing op fired and rd names it" is the same
// function as a per-register cascade over all ops.
func (s *synth) compose() {
	b, n := s.b, &s.n

	b.Comment("Counter")
	b.Next(n.Counter, b.Add(n.Counter, b.One(s.reg)))

	b.Comment("Registers")
	for i := range s.rdIs {
		s.rdIs[i] = b.Eq(n.Rd, b.Const(s.word, uint64(i)))
	}
	var cases []btor2.Case
	var writers []btor2.ID
	for _, op := range riscv.Ops() {
		if !op.WritesRd() {
			continue
		}
		cases = append(cases, btor2.Case{When: n.Pred(op), Then: s.results[op-1]})
		writers = append(writers, n.Pred(op))
	}
	n.RdValue = b.Name(b.Select(cases, b.Zero(s.reg)), "rd_value")
	s.rdWrite = b.Name(b.Any(writers...), "writes_rd")

	b.Next(n.Registers[0], b.Zero(s.reg))
	b.Next(n.Written[0], b.True())
	for i := 1; i < riscv.NumRegisters; i++ {
		hit := b.And(s.rdWrite, s.rdIs[i])
		b.Next(n.Registers[i], b.Ite(hit, n.RdValue, n.Registers[i]))
		b.Next(n.Written[i], b.Or(n.Written[i], hit))
	}

	b.Comment("Program counter")
	// Highest precedence first: JAL, JALR, then the branches from BGEU down to BEQ.
	pcCases := []btor2.Case{
		{When: n.Pred(riscv.JAL), Then: s.target},
		{When: n.Pred(riscv.JALR), Then: s.jalrTarget},
	}
	for op := riscv.BGEU; op >= riscv.BEQ; op-- {
		taken := b.Ite(s.conds[op-1], s.target, s.pcPlus4)
		pcCases = append(pcCases, btor2.Case{When: n.Pred(op), Then: taken})
	}
	n.NextPC = b.Name(b.Select(pcCases, s.pcPlus4), "next_pc")
	b.Next(n.PC, n.NextPC)

	b.Comment("Memory")
	var layers [4]btor2.ID
	acc := n.Memory
	k := 0
	for i, size := range []int{1, 2, 4, 8} {
		for ; k < size; k++ {
			v := b.Slice(n.Rs2Val, uint(8*k+7), uint(8*k))
			acc = b.Write(acc, s.cells[k], v)
		}
		layers[i] = acc
	}
	next := b.Select([]btor2.Case{
		{When: n.Pred(riscv.SD), Then: layers[3]},
		{When: n.Pred(riscv.SW), Then: layers[2]},
		{When: n.Pred(riscv.SH), Then: layers[1]},
		{When: n.Pred(riscv.SB), Then: layers[0]},
	}, n.Memory)
	b.Next(n.Memory, b.Name(next, "next_memory"))
}
