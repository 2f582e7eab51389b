package synth

import (
	"github.com/rvbmc/bmc/rvbtor/btor2"
	"github.com/rvbmc/bmc/rvbtor/riscv"
)

// BadNames labels the bad properties in emission order, the order btormc numbers them (b0, b1, ...).
var BadNames = [...]string{
	"counter_exhausted",
	"unknown_opcode",
	"unrecognized_instruction",
	"misaligned_control_transfer",
	"load_to_zero",
	"ambiguous_instruction",
}

func (s *synth) misaligned(target btor2.ID) btor2.ID {
	return s.b.Redor(s.b.Slice(target, 1, 0))
}

func (s *synth) badStates() {
	b, n := s.b, &s.n
	bad := &n.Bad

	b.Comment("Bad states")
	bad.CounterExhausted = b.Bad(b.Eq(n.Counter, b.Const(s.reg, s.cfg.Bound)), BadNames[0])
	bad.UnknownOpcode = b.Bad(b.Not(n.KnownOpcode), BadNames[1])
	bad.Unrecognized = b.Bad(b.And(n.KnownOpcode, b.Not(n.KnownInstr)), BadNames[2])

	var taken, loads []btor2.ID
	for _, op := range riscv.Ops() {
		switch {
		case op.IsBranch():
			taken = append(taken, b.And(n.Pred(op), s.conds[op-1]))
		case op.IsLoad():
			loads = append(loads, n.Pred(op))
		}
	}
	// Taken branches count as control transfers too: RV64I raises
	// instruction-address-misaligned for them, not only for JAL and JALR.
	targetMisaligned := s.misaligned(s.target)
	bad.Misaligned = b.Bad(b.Any(
		b.And(n.Pred(riscv.JAL), targetMisaligned),
		b.And(n.Pred(riscv.JALR), s.misaligned(s.jalrTarget)),
		b.And(b.Any(taken...), targetMisaligned),
	), BadNames[3])
	bad.LoadToZero = b.Bad(b.And(b.Any(loads...), s.rdIs[0]), BadNames[4])

	if s.cfg.CheckExclusive {
		seen, dup := n.Preds[0], b.False()
		for _, p := range n.Preds[1:] {
			dup = b.Or(dup, b.And(seen, p))
			seen = b.Or(seen, p)
		}
		bad.Ambiguous = b.Bad(dup, BadNames[5])
	}
}
