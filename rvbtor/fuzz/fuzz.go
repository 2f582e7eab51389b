// Package fuzz generates random machine snapshots holding one base-ISA instruction at the program counter.
package fuzz

import (
	"fmt"
	"math/rand"

	"github.com/rvbmc/bmc/rvbtor/riscv"
	"github.com/rvbmc/bmc/rvbtor/state"
)

// MaxSpaceBits caps the region used for code and data, however wide the address space is.
const MaxSpaceBits = 16

const (
	immIMin, immIMax = -2048, 2047
	immBMin, immBMax = -4096, 4094
	immJMin, immJMax = -1 << 20, 1<<20 - 2
)

// RandomState builds a reproducible snapshot for the given seed.
//
// The program counter is 4-aligned and the whole instruction fits in the address space.
// rs1 and rs2 get random values unless they name x0. Control transfers and memory
// accesses are steered so their target stays inside the space; loads find 8 populated bytes.
func RandomState(seed int64, addrBits uint) (*state.State, error) {
	if addrBits < 5 || addrBits > 64 {
		return nil, fmt.Errorf("address width %d out of range [5, 64]", addrBits)
	}
	r := rand.New(rand.NewSource(seed))
	bits := addrBits
	if bits > MaxSpaceBits {
		bits = MaxSpaceBits
	}
	space := int64(1) << bits

	s := state.New()
	s.Seed = &seed
	pc := r.Int63n(space-3) &^ 3
	s.SetPC(uint64(pc))

	op := riscv.Table[r.Intn(riscv.NumOps)].Op
	rd := uint8(r.Intn(riscv.NumRegisters))
	rs1 := uint8(r.Intn(riscv.NumRegisters))
	rs2 := uint8(r.Intn(riscv.NumRegisters))
	s.SetRegister(int(rs1), r.Uint64())
	s.SetRegister(int(rs2), r.Uint64())
	imm := int64(r.Uint64())

	// base sets rs1 to an address in [0, limit) and returns its value.
	base := func(limit int64) int64 {
		if rs1 == 0 {
			return 0
		}
		v := r.Int63n(limit)
		s.SetRegister(int(rs1), uint64(v))
		return v
	}

	switch {
	case op == riscv.JAL:
		imm = pick(r, pc, 0, space-4, immJMin, immJMax, 4) - pc
	case op.IsBranch():
		imm = pick(r, pc, 0, space-4, immBMin, immBMax, 4) - pc
	case op == riscv.JALR:
		b := base(space)
		imm = pick(r, b, 0, space-4, immIMin, immIMax, 4) - b
	case op.IsLoad():
		b := base(space - 8)
		addr := pick(r, b, 0, space-8, immIMin, immIMax, 1)
		imm = addr - b
		s.SetDoubleword(uint64(addr), r.Uint64())
	case op.IsStore():
		b := base(space - 8)
		imm = pick(r, b, 0, space-8, immIMin, immIMax, 1) - b
	}

	s.SetWord(uint64(pc), riscv.Encode(op, rd, rs1, rs2, imm))
	return s, nil
}

// pick returns a random multiple of align within [lo, hi] whose distance from origin fits [dmin, dmax].
// If the window holds no such value, origin rounded down to align is returned.
func pick(r *rand.Rand, origin, lo, hi, dmin, dmax, align int64) int64 {
	if origin+dmin > lo {
		lo = origin + dmin
	}
	if origin+dmax < hi {
		hi = origin + dmax
	}
	lo = (lo + align - 1) / align * align
	hi = hi / align * align
	if hi < lo {
		return origin / align * align
	}
	return lo + r.Int63n((hi-lo)/align+1)*align
}
