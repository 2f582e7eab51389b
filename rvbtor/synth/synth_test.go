package synth

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rvbmc/bmc/rvbtor/btor2"
	"github.com/rvbmc/bmc/rvbtor/fuzz"
	"github.com/rvbmc/bmc/rvbtor/riscv"
	"github.com/rvbmc/bmc/rvbtor/sim"
	"github.com/rvbmc/bmc/rvbtor/state"
)

func program(pc uint64, words ...uint32) *state.State {
	s := state.New()
	s.SetPC(pc)
	for i, w := range words {
		s.SetWord(pc+4*uint64(i), w)
	}
	return s
}

func build(t *testing.T, s state.MachineState, cfg Config) (*Result, *sim.Machine) {
	res, err := Synthesize(s, cfg)
	require.NoError(t, err)
	return res, sim.New(res.Model)
}

func firing(m *sim.Machine) map[btor2.ID]bool {
	out := make(map[btor2.ID]bool)
	for _, id := range m.Bad() {
		out[id] = true
	}
	return out
}

func requireOnly(t *testing.T, m *sim.Machine, n *Nodes, op riscv.Op) {
	for _, o := range riscv.Ops() {
		require.Equal(t, o == op, m.Bool(n.Pred(o)), "predicate %s", o)
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	require.Equal(t, uint(8), DefaultConfig().AddrBits)
	require.Equal(t, uint64(1), DefaultConfig().Bound)

	for _, cfg := range []Config{
		{AddrBits: 1, Bound: 1},
		{AddrBits: 65, Bound: 1},
		{AddrBits: 8, Bound: 0},
		{AddrBits: 8, Bound: 1, OutOfRange: 7},
	} {
		require.Error(t, cfg.Validate(), "%+v", cfg)
		_, err := Synthesize(state.New(), cfg)
		require.Error(t, err)
	}
}

func TestStreamShape(t *testing.T) {
	s, err := fuzz.RandomState(3, 8)
	require.NoError(t, err)
	res, _ := build(t, s, DefaultConfig())

	var states []string
	for i, l := range res.Model.Lines() {
		require.Equal(t, btor2.ID(i+1), l.ID)
		for _, a := range l.Args {
			require.Less(t, a, l.ID, "line %d (%s)", l.ID, l.Op)
		}
		if l.Kind == btor2.KindState {
			states = append(states, l.Symbol)
		}
	}
	require.Len(t, states, 1+32+1+32+2)
	require.Equal(t, "iterations_counter", states[0])
	require.Equal(t, "x0", states[1])
	require.Equal(t, "x31", states[32])
	require.Equal(t, "pc", states[33])
	require.Equal(t, "x0_defined", states[34])
	require.Equal(t, "x31_defined", states[65])
	require.Equal(t, []string{"memory_initializer", "memory"}, states[66:])

	n := res.Nodes
	require.Equal(t, "counter_exhausted", res.Model.Line(n.Bad.CounterExhausted).Symbol)
	require.Less(t, n.Bad.CounterExhausted, n.Bad.UnknownOpcode)
	require.Less(t, n.Bad.UnknownOpcode, n.Bad.Unrecognized)
	require.Less(t, n.Bad.Unrecognized, n.Bad.Misaligned)
	require.Less(t, n.Bad.Misaligned, n.Bad.LoadToZero)
	require.Zero(t, n.Bad.Ambiguous)
}

func TestDeterministic(t *testing.T) {
	s, err := fuzz.RandomState(11, 8)
	require.NoError(t, err)
	a, err := Synthesize(s, DefaultConfig())
	require.NoError(t, err)
	b, err := Synthesize(s, DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, a.Model.Lines(), b.Model.Lines())
}

func TestFetchLittleEndian(t *testing.T) {
	s := state.New()
	s.SetPC(0x10)
	s.SetBytes(0x10, []byte{0x93, 0x00, 0x50, 0x00})
	res, m := build(t, s, DefaultConfig())
	n := &res.Nodes

	require.Equal(t, uint64(0x00500093), m.Uint64(n.Instr))
	require.Equal(t, uint64(0x13), m.Uint64(n.Opcode))
	require.Equal(t, uint64(1), m.Uint64(n.Rd))
	require.Equal(t, uint64(0), m.Uint64(n.Rs1))
	require.Equal(t, uint64(5), m.Uint64(n.Rs2))
	require.Equal(t, uint64(0), m.Uint64(n.Funct3))
	require.Equal(t, uint64(0), m.Uint64(n.Funct7))
	require.Equal(t, uint64(5), m.Uint64(n.Imm))
	requireOnly(t, m, n, riscv.ADDI)
}

func TestAddi(t *testing.T) {
	res, m := build(t, program(0x10, 0x00500093), DefaultConfig())
	n := &res.Nodes
	require.False(t, m.Bool(n.Written[1]))

	m.Step()
	require.Equal(t, uint64(5), m.Uint64(n.Registers[1]))
	require.True(t, m.Bool(n.Written[1]))
	require.False(t, m.Bool(n.Written[2]))
	require.Equal(t, uint64(0x14), m.Uint64(n.PC))
	require.Equal(t, uint64(1), m.Uint64(n.Counter))
}

func TestLinkAtTopOfSpace(t *testing.T) {
	for _, tc := range []struct {
		name string
		word uint32
		pc   uint64
	}{
		{"JAL", riscv.Encode(riscv.JAL, 1, 0, 0, 8), 0x04},
		{"JALR", riscv.Encode(riscv.JALR, 1, 2, 0, 0), 0x20},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := program(0xFC, tc.word)
			s.SetRegister(2, 0x20)
			res, m := build(t, s, DefaultConfig())
			n := &res.Nodes
			m.Step()
			require.Equal(t, uint64(0x100), m.Uint64(n.Registers[1]), "link keeps the full width")
			require.Equal(t, tc.pc, m.Uint64(n.PC))
		})
	}

	t.Run("AUIPC", func(t *testing.T) {
		res, m := build(t, program(0xFC, riscv.Encode(riscv.AUIPC, 1, 0, 0, 0)), DefaultConfig())
		m.Step()
		require.Equal(t, uint64(0xFC), m.Uint64(res.Nodes.Registers[1]))
	})
}

func TestBranchImmediate(t *testing.T) {
	beq := riscv.Encode(riscv.BEQ, 0, 1, 2, 8)
	require.Equal(t, uint32(0x00208463), beq)

	for _, tc := range []struct {
		name   string
		x1, x2 uint64
		pc     uint64
	}{
		{"Taken", 7, 7, 0x28},
		{"NotTaken", 7, 8, 0x24},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := program(0x20, beq)
			s.SetRegister(1, tc.x1)
			s.SetRegister(2, tc.x2)
			res, m := build(t, s, DefaultConfig())
			n := &res.Nodes
			require.Equal(t, uint64(8), m.Uint64(n.Imm))
			requireOnly(t, m, n, riscv.BEQ)
			m.Step()
			require.Equal(t, tc.pc, m.Uint64(n.PC))
			require.False(t, m.Bool(n.Written[0x8]), "the rd bits of a branch are immediate bits")
		})
	}
}

func TestNegativeImmediates(t *testing.T) {
	for _, tc := range []struct {
		op  riscv.Op
		imm int64
	}{
		{riscv.ADDI, -1},
		{riscv.ADDI, -2048},
		{riscv.SW, -4},
		{riscv.BNE, -4096},
		{riscv.JAL, -1 << 20},
		{riscv.LUI, -4096},
		{riscv.JAL, 1<<20 - 2},
		{riscv.BGE, 4094},
	} {
		s := program(0x40, riscv.Encode(tc.op, 1, 2, 3, tc.imm))
		res, m := build(t, s, DefaultConfig())
		require.Equal(t, uint64(tc.imm), m.Uint64(res.Nodes.Imm), "%s %d", tc.op, tc.imm)
	}
}

// Every word of the generator's base vocabulary matches exactly one predicate.
func TestExactlyOnePredicate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckExclusive = true
	for _, e := range riscv.Table {
		t.Run(e.Name, func(t *testing.T) {
			res, m := build(t, program(0, e.Match), cfg)
			n := &res.Nodes
			requireOnly(t, m, n, e.Op)
			bad := firing(m)
			require.False(t, bad[n.Bad.UnknownOpcode])
			require.False(t, bad[n.Bad.Unrecognized])
			require.False(t, bad[n.Bad.Ambiguous])
		})
	}

	// The generator vocabulary lists 0x40002013 as srai; its funct3 selects slti.
	t.Run("ListedSrai", func(t *testing.T) {
		res, m := build(t, program(0, 0x40002013), cfg)
		n := &res.Nodes
		requireOnly(t, m, n, riscv.SLTI)
		require.False(t, firing(m)[n.Bad.Ambiguous])
	})
}

func TestUnknownOpcode(t *testing.T) {
	s := program(0x8, 0x0000007F)
	s.SetRegister(5, 9)
	res, m := build(t, s, DefaultConfig())
	n := &res.Nodes
	requireOnly(t, m, n, riscv.OpUnrecognized)
	bad := firing(m)
	require.True(t, bad[n.Bad.UnknownOpcode])
	require.False(t, bad[n.Bad.Unrecognized])

	m.Step()
	require.Equal(t, uint64(0xC), m.Uint64(n.PC))
	require.Equal(t, uint64(9), m.Uint64(n.Registers[5]))
}

func TestUnrecognizedInstruction(t *testing.T) {
	for _, w := range []uint32{
		0x02000033,              // funct7 0000001 (M extension) on MathReg
		0x00007003,              // load with funct3 7
		0x00002063,              // branch with funct3 2
		0x0000101B | 0x02000000, // slliw with shamt[5] set
	} {
		res, m := build(t, program(0, w), DefaultConfig())
		n := &res.Nodes
		requireOnly(t, m, n, riscv.OpUnrecognized)
		bad := firing(m)
		require.False(t, bad[n.Bad.UnknownOpcode], "%08x", w)
		require.True(t, bad[n.Bad.Unrecognized], "%08x", w)
	}
}

func TestMisaligned(t *testing.T) {
	for _, tc := range []struct {
		name  string
		s     *state.State
		fires bool
	}{
		{"JalAligned", program(0x10, riscv.Encode(riscv.JAL, 1, 0, 0, 8)), false},
		{"JalOffset", program(0x10, riscv.Encode(riscv.JAL, 1, 0, 0, 6)), true},
		{"JalOddPC", program(0x11, riscv.Encode(riscv.JAL, 1, 0, 0, 4)), true},
		{"JalrClearsBit0", func() *state.State {
			s := program(0x10, riscv.Encode(riscv.JALR, 1, 2, 0, 1))
			s.SetRegister(2, 0x40)
			return s
		}(), false},
		{"JalrBit1", func() *state.State {
			s := program(0x10, riscv.Encode(riscv.JALR, 1, 2, 0, 2))
			s.SetRegister(2, 0x40)
			return s
		}(), true},
		{"BranchTaken", program(0x10, riscv.Encode(riscv.BEQ, 0, 0, 0, 2)), true},
		{"BranchNotTaken", program(0x10, riscv.Encode(riscv.BNE, 0, 0, 0, 2)), false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			res, m := build(t, tc.s, DefaultConfig())
			require.Equal(t, tc.fires, firing(m)[res.Nodes.Bad.Misaligned])
		})
	}
}

func TestStoreLoadRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		store, load riscv.Op
		expected    uint64
	}{
		{riscv.SW, riscv.LW, 0xFFFF_FFFF_9ABC_DEF0},
		{riscv.SW, riscv.LWU, 0x9ABC_DEF0},
		{riscv.SD, riscv.LD, 0x1234_5678_9ABC_DEF0},
		{riscv.SH, riscv.LH, 0xFFFF_FFFF_FFFF_DEF0},
		{riscv.SH, riscv.LHU, 0xDEF0},
		{riscv.SB, riscv.LB, 0xFFFF_FFFF_FFFF_FFF0},
		{riscv.SB, riscv.LBU, 0xF0},
	} {
		t.Run(tc.store.String()+"/"+tc.load.String(), func(t *testing.T) {
			s := program(0x20,
				riscv.Encode(tc.store, 0, 1, 2, -8),
				riscv.Encode(tc.load, 3, 1, 0, -8))
			s.SetRegister(1, 0x88)
			s.SetRegister(2, 0x1234_5678_9ABC_DEF0)
			cfg := DefaultConfig()
			cfg.Bound = 2
			res, m := build(t, s, cfg)
			n := &res.Nodes

			m.Step()
			require.Equal(t, uint64(0xF0), m.ReadArray(n.Memory, 0x80))
			size := tc.store.AccessSize()
			require.Equal(t, size, len(m.Eval(n.Memory).Array.Indices())-8, "store touches only its own width")
			require.False(t, firing(m)[n.Bad.CounterExhausted])

			m.Step()
			require.Equal(t, tc.expected, m.Uint64(n.Registers[3]))
			require.True(t, m.Bool(n.Written[3]))
			require.True(t, firing(m)[n.Bad.CounterExhausted])
		})
	}
}

func TestLoadToZero(t *testing.T) {
	s := program(0, riscv.Encode(riscv.LW, 0, 0, 0, 0x40))
	res, m := build(t, s, DefaultConfig())
	require.True(t, firing(m)[res.Nodes.Bad.LoadToZero])
	m.Step()
	require.Zero(t, m.Uint64(res.Nodes.Registers[0]))

	s = program(0, riscv.Encode(riscv.ADDI, 0, 0, 0, 1))
	res, m = build(t, s, DefaultConfig())
	require.False(t, firing(m)[res.Nodes.Bad.LoadToZero], "ALU writes to x0 are no-ops, not violations")
}

func TestCounterExhausted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bound = 3
	res, m := build(t, program(0, 0x00000013, 0x00000013, 0x00000013), cfg)
	for i := 0; i < 3; i++ {
		require.False(t, firing(m)[res.Nodes.Bad.CounterExhausted])
		m.Step()
	}
	require.True(t, firing(m)[res.Nodes.Bad.CounterExhausted])
}

func TestAddressPolicy(t *testing.T) {
	s := program(0, 0x00000013)
	s.SetByte(0x100, 0xAA)
	s.SetByte(0x1FF, 0xBB)

	t.Run("Ignore", func(t *testing.T) {
		res, m := build(t, s, DefaultConfig())
		require.Equal(t, []uint64{0x100, 0x1FF}, res.Ignored)
		require.Equal(t, []uint64{0, 1, 2, 3}, m.Eval(res.Nodes.Memory).Array.Indices())
	})

	t.Run("Wider", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.AddrBits = 9
		res, m := build(t, s, cfg)
		require.Empty(t, res.Ignored)
		require.Equal(t, uint64(0xBB), m.ReadArray(res.Nodes.Memory, 0x1FF))
	})

	t.Run("Reject", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.OutOfRange = RejectAddressSpaceTooSmall
		res, err := Synthesize(s, cfg)
		require.ErrorIs(t, err, ErrAddressSpaceTooSmall)
		require.Nil(t, res)
	})
}

func TestZeroFirstCell(t *testing.T) {
	s := state.New()
	s.SetByte(0, 0)
	s.SetByte(1, 0)
	res, m := build(t, s, DefaultConfig())
	b := res.Model

	var values []string
	for _, l := range b.Lines() {
		if l.Kind == btor2.KindInit && l.Args[0] == res.Nodes.Memory {
			break
		}
		if l.Op == "write" {
			values = append(values, b.Line(l.Args[2]).Op)
		}
	}
	require.Equal(t, []string{"one", "zero", "zero"}, values)
	require.Zero(t, m.ReadArray(res.Nodes.Memory, 0))
}

func TestUndefinedRegisters(t *testing.T) {
	s := program(0, riscv.Encode(riscv.ADD, 4, 5, 6, 0))
	s.SetRegister(5, 3)
	res, m := build(t, s, DefaultConfig())
	n := &res.Nodes
	require.True(t, m.Bool(n.Written[0]))
	require.True(t, m.Bool(n.Written[5]))
	require.False(t, m.Bool(n.Written[6]))
	require.Zero(t, m.Uint64(n.Registers[6]))
	m.Step()
	require.Equal(t, uint64(3), m.Uint64(n.Registers[4]))
	require.True(t, m.Bool(n.Written[4]))
	require.False(t, m.Bool(n.Written[6]))
}

type brokenState struct {
	*state.State
}

func (brokenState) Addresses() []uint64 { return []uint64{4, 0} }

func TestMalformedState(t *testing.T) {
	res, err := Synthesize(brokenState{program(0, 0x13)}, DefaultConfig())
	require.Nil(t, res)
	var malformed *state.MalformedStateErr
	require.True(t, errors.As(err, &malformed))
}

func TestWideAddressSpace(t *testing.T) {
	s := program(0xFFFF_FFFF_FFFF_FFF0, riscv.Encode(riscv.JAL, 1, 0, 0, 32))
	cfg := DefaultConfig()
	cfg.AddrBits = 64
	res, m := build(t, s, cfg)
	m.Step()
	require.Equal(t, uint64(0x10), m.Uint64(res.Nodes.PC))
	require.Equal(t, uint64(0xFFFF_FFFF_FFFF_FFF4), m.Uint64(res.Nodes.Registers[1]))
}

func requireMatchesReference(t *testing.T, s *state.State, cfg Config) {
	res, m := build(t, s, cfg)
	n := &res.Nodes
	expected, info := refStep(s, cfg.AddrBits)

	requireOnly(t, m, n, info.op)
	bad := firing(m)
	require.Equal(t, info.misaligned, bad[n.Bad.Misaligned])
	require.Equal(t, info.op.IsLoad() && riscv.ParseRd(s.Instr()) == 0, bad[n.Bad.LoadToZero])
	require.Equal(t, riscv.KnownOpcode(s.Instr()), !bad[n.Bad.UnknownOpcode])

	m.Step()
	require.Equal(t, inSpace(expected, cfg.AddrBits), observe(m, n), "%s", riscv.Decode(s.Instr()))
}

func TestRandomStatesMatchReference(t *testing.T) {
	for seed := int64(0); seed < 300; seed++ {
		s, err := fuzz.RandomState(seed, 8)
		require.NoError(t, err)
		requireMatchesReference(t, s, DefaultConfig())
	}
}

func FuzzSynthesizeWord(f *testing.F) {
	f.Add(uint32(0x00500093), int64(0))
	f.Add(uint32(0x4000501b), int64(1))
	f.Add(uint32(0xFFFFFFFF), int64(2))
	f.Add(uint32(0x02000033), int64(3))
	f.Fuzz(func(t *testing.T, word uint32, seed int64) {
		r := rand.New(rand.NewSource(seed))
		s := program(uint64(r.Intn(64))*4, word)
		for i := 1; i < riscv.NumRegisters; i++ {
			if r.Intn(2) == 0 {
				s.SetRegister(i, r.Uint64())
			}
		}
		for i := 0; i < 16; i++ {
			s.SetByte(uint64(r.Intn(256)), byte(r.Intn(256)))
		}
		s.SetWord(s.PC(), word)
		requireMatchesReference(t, s, DefaultConfig())
	})
}
