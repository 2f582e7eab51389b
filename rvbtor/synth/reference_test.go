package synth

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/rvbmc/bmc/rvbtor/riscv"
	"github.com/rvbmc/bmc/rvbtor/sim"
	"github.com/rvbmc/bmc/rvbtor/state"
)

func cloneState(s *state.State) *state.State {
	out := *s
	out.Seed = nil
	out.Memory = make(map[hexutil.Uint64]uint8, len(s.Memory))
	for k, v := range s.Memory {
		out.Memory[k] = v
	}
	return &out
}

type refInfo struct {
	op         riscv.Op
	misaligned bool
}

// refStep executes one instruction concretely, addresses wrapping at addrBits.
// Unpopulated memory and undefined registers read as zero.
func refStep(s *state.State, addrBits uint) (*state.State, refInfo) {
	mask := ^uint64(0)
	if addrBits < 64 {
		mask = 1<<addrBits - 1
	}
	out := cloneState(s)
	pc := s.PC() & mask
	load := func(addr uint64, size int) (v uint64) {
		for k := size - 1; k >= 0; k-- {
			c, _ := s.LoadByte((addr + uint64(k)) & mask)
			v = v<<8 | uint64(c)
		}
		return
	}
	in := riscv.Decode(uint32(load(pc, 4)))
	reg := func(i uint8) uint64 {
		v, ok := s.Register(int(i))
		if !ok {
			return 0
		}
		return v
	}
	rs1, rs2, imm := reg(in.Rs1), reg(in.Rs2), uint64(in.Imm)
	sext := func(v uint64, bits uint) uint64 { return uint64(int64(v<<(64-bits)) >> (64 - bits)) }
	w32 := func(v uint32) uint64 { return uint64(int64(int32(v))) }
	b2u := func(c bool) uint64 {
		if c {
			return 1
		}
		return 0
	}
	store := func(size int) {
		for k := 0; k < size; k++ {
			out.SetByte((rs1+imm+uint64(k))&mask, byte(rs2>>(8*k)))
		}
	}
	next := pc + 4
	taken := false
	branch := func(c bool) {
		if c {
			next, taken = pc+imm, true
		}
	}

	var rd uint64
	switch in.Op {
	case riscv.LUI:
		rd = imm
	case riscv.AUIPC:
		rd = pc + imm
	case riscv.JAL:
		rd, next = pc+4, pc+imm
	case riscv.JALR:
		rd, next = pc+4, (rs1+imm)&^1
	case riscv.BEQ:
		branch(rs1 == rs2)
	case riscv.BNE:
		branch(rs1 != rs2)
	case riscv.BLT:
		branch(int64(rs1) < int64(rs2))
	case riscv.BGE:
		branch(int64(rs1) >= int64(rs2))
	case riscv.BLTU:
		branch(rs1 < rs2)
	case riscv.BGEU:
		branch(rs1 >= rs2)
	case riscv.LB:
		rd = sext(load(rs1+imm, 1), 8)
	case riscv.LH:
		rd = sext(load(rs1+imm, 2), 16)
	case riscv.LW:
		rd = sext(load(rs1+imm, 4), 32)
	case riscv.LD:
		rd = load(rs1+imm, 8)
	case riscv.LBU:
		rd = load(rs1+imm, 1)
	case riscv.LHU:
		rd = load(rs1+imm, 2)
	case riscv.LWU:
		rd = load(rs1+imm, 4)
	case riscv.SB:
		store(1)
	case riscv.SH:
		store(2)
	case riscv.SW:
		store(4)
	case riscv.SD:
		store(8)
	case riscv.ADDI:
		rd = rs1 + imm
	case riscv.SLTI:
		rd = b2u(int64(rs1) < int64(imm))
	case riscv.SLTIU:
		rd = b2u(rs1 < imm)
	case riscv.XORI:
		rd = rs1 ^ imm
	case riscv.ORI:
		rd = rs1 | imm
	case riscv.ANDI:
		rd = rs1 & imm
	case riscv.SLLI:
		rd = rs1 << (imm & 63)
	case riscv.SRLI:
		rd = rs1 >> (imm & 63)
	case riscv.SRAI:
		rd = uint64(int64(rs1) >> (imm & 63))
	case riscv.ADD:
		rd = rs1 + rs2
	case riscv.SUB:
		rd = rs1 - rs2
	case riscv.SLL:
		rd = rs1 << (rs2 & 63)
	case riscv.SLT:
		rd = b2u(int64(rs1) < int64(rs2))
	case riscv.SLTU:
		rd = b2u(rs1 < rs2)
	case riscv.XOR:
		rd = rs1 ^ rs2
	case riscv.SRL:
		rd = rs1 >> (rs2 & 63)
	case riscv.SRA:
		rd = uint64(int64(rs1) >> (rs2 & 63))
	case riscv.OR:
		rd = rs1 | rs2
	case riscv.AND:
		rd = rs1 & rs2
	case riscv.ADDIW:
		rd = w32(uint32(rs1) + uint32(imm))
	case riscv.SLLIW:
		rd = w32(uint32(rs1) << (imm & 31))
	case riscv.SRLIW:
		rd = w32(uint32(rs1) >> (imm & 31))
	case riscv.SRAIW:
		rd = w32(uint32(int32(uint32(rs1)) >> (imm & 31)))
	case riscv.ADDW:
		rd = w32(uint32(rs1) + uint32(rs2))
	case riscv.SUBW:
		rd = w32(uint32(rs1) - uint32(rs2))
	case riscv.SLLW:
		rd = w32(uint32(rs1) << (rs2 & 31))
	case riscv.SRLW:
		rd = w32(uint32(rs1) >> (rs2 & 31))
	case riscv.SRAW:
		rd = w32(uint32(int32(uint32(rs1)) >> (rs2 & 31)))
	}
	if in.Op.WritesRd() && in.Rd != 0 {
		out.SetRegister(int(in.Rd), rd)
	}
	next &= mask
	out.SetPC(next)

	transfer := in.Op == riscv.JAL || in.Op == riscv.JALR || taken
	return out, refInfo{op: in.Op, misaligned: transfer && next&3 != 0}
}

// observe reads the current step of a synthesized model back into a snapshot.
func observe(m *sim.Machine, n *Nodes) *state.State {
	out := state.New()
	out.SetPC(m.Uint64(n.PC))
	for i := 1; i < riscv.NumRegisters; i++ {
		if m.Bool(n.Written[i]) {
			out.SetRegister(i, m.Uint64(n.Registers[i]))
		}
	}
	for _, a := range m.Eval(n.Memory).Array.Indices() {
		out.SetByte(a, byte(m.ReadArray(n.Memory, a)))
	}
	return out
}

// inSpace drops the cells a model with addrBits cannot hold.
func inSpace(s *state.State, addrBits uint) *state.State {
	out := cloneState(s)
	for a := range out.Memory {
		if addrBits < 64 && uint64(a)>>addrBits != 0 {
			delete(out.Memory, a)
		}
	}
	return out
}
