package synth

import (
	"fmt"

	"github.com/rvbmc/bmc/rvbtor/btor2"
	"github.com/rvbmc/bmc/rvbtor/state"
)

func (s *synth) declareSorts() {
	b := s.b
	b.Comment("Sorts")
	s.boolean = b.BitVec(1, "Boolean")
	s.addr = b.BitVec(s.cfg.AddrBits, "Address_space")
	s.cell = b.BitVec(8, "Memory_cell")
	s.word = b.BitVec(32, "Command")
	s.reg = b.BitVec(64, "Register")
	s.mem = b.Array(s.addr, s.cell, "Memory")
}

// declareState declares every state variable, then their initial values from the snapshot.
func (s *synth) declareState(ms state.MachineState) error {
	b, n := s.b, &s.n

	b.Comment("State")
	n.Counter = b.State(s.reg, "iterations_counter")
	for i := range n.Registers {
		n.Registers[i] = b.State(s.reg, fmt.Sprintf("x%d", i))
	}
	n.PC = b.State(s.addr, "pc")
	for i := range n.Written {
		n.Written[i] = b.State(s.boolean, fmt.Sprintf("x%d_defined", i))
	}
	n.MemoryInit = b.State(s.mem, "memory_initializer")
	n.Memory = b.State(s.mem, "memory")

	b.Comment("Initial values")
	b.Init(n.Counter, b.Zero(s.reg))
	for i := range n.Registers {
		v, defined := ms.Register(i)
		if i == 0 {
			v, defined = 0, true
		} else if !defined {
			v = 0
		}
		b.Init(n.Registers[i], b.Const(s.reg, v))
		if defined {
			b.Init(n.Written[i], b.True())
		} else {
			b.Init(n.Written[i], b.False())
		}
	}
	b.Init(n.PC, b.Const(s.addr, ms.PC()))

	b.Comment("Memory")
	mem, err := s.initialMemory(ms)
	if err != nil {
		return err
	}
	b.Init(n.Memory, mem)
	return nil
}

// initialMemory chains one write per populated cell, in address order, onto the
// unconstrained initializer. Cells outside the snapshot stay unconstrained.
func (s *synth) initialMemory(ms state.MachineState) (btor2.ID, error) {
	b := s.b
	acc := s.n.MemoryInit
	first := true
	for _, a := range ms.Addresses() {
		if !s.cfg.holds(a) {
			if s.cfg.OutOfRange == RejectAddressSpaceTooSmall {
				return 0, fmt.Errorf("%w: populated address %#x needs more than %d bits", ErrAddressSpaceTooSmall, a, s.cfg.AddrBits)
			}
			s.ignored = append(s.ignored, a)
			continue
		}
		v, _ := ms.LoadByte(a)
		idx := b.Const(s.addr, a)
		if first && v == 0 {
			// btormc does not track a cell whose first write equals the array default.
			acc = b.Write(acc, idx, b.One(s.cell))
		}
		acc = b.Write(acc, idx, b.Const(s.cell, uint64(v)))
		first = false
	}
	return acc, nil
}
