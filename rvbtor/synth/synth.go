// Package synth turns a machine snapshot into a BTOR2 transition system
// whose every step executes one RV64I instruction symbolically.
//
// Stages run in a fixed order and share one statement stream:
// symbolic state, fetch and field decoding, classification, immediates,
// per-instruction results, next-state functions and finally the bad properties.
package synth

import (
	"errors"
	"fmt"

	"github.com/rvbmc/bmc/rvbtor/btor2"
	"github.com/rvbmc/bmc/rvbtor/riscv"
	"github.com/rvbmc/bmc/rvbtor/state"
)

// AddressPolicy decides what happens to populated cells the address space cannot hold.
type AddressPolicy uint8

const (
	// IgnoreAddressSpaceTooSmall leaves cells at or above 2^AddrBits out of the model
	// and lists them in Result.Ignored. The model stays small; that is the point.
	IgnoreAddressSpaceTooSmall AddressPolicy = iota
	// RejectAddressSpaceTooSmall fails with ErrAddressSpaceTooSmall instead.
	RejectAddressSpaceTooSmall
)

func (p AddressPolicy) String() string {
	switch p {
	case IgnoreAddressSpaceTooSmall:
		return "ignore"
	case RejectAddressSpaceTooSmall:
		return "reject"
	default:
		return fmt.Sprintf("AddressPolicy(%d)", uint8(p))
	}
}

var ErrAddressSpaceTooSmall = errors.New("address space too small")

type Config struct {
	// AddrBits is the width of the address sort; memory holds 2^AddrBits cells.
	AddrBits uint
	// Bound is the iteration count at which the counter-exhausted property fires.
	Bound      uint64
	OutOfRange AddressPolicy
	// CheckExclusive adds a property that fires when two instruction predicates hold at once.
	CheckExclusive bool
}

func DefaultConfig() Config {
	return Config{
		AddrBits:   riscv.DefaultAddrBits,
		Bound:      riscv.DefaultBound,
		OutOfRange: IgnoreAddressSpaceTooSmall,
	}
}

func (c Config) Validate() error {
	if c.AddrBits < 2 || c.AddrBits > 64 {
		return fmt.Errorf("address width %d out of range [2, 64]", c.AddrBits)
	}
	if c.Bound == 0 {
		return errors.New("bound must be at least 1")
	}
	if c.OutOfRange > RejectAddressSpaceTooSmall {
		return fmt.Errorf("unknown address policy %s", c.OutOfRange)
	}
	return nil
}

func (c Config) holds(addr uint64) bool {
	return c.AddrBits >= 64 || addr>>c.AddrBits == 0
}

// Result is a synthesized model.
type Result struct {
	Model *btor2.Builder
	// Ignored lists the populated addresses left out of the initial memory, ascending.
	Ignored []uint64
	Nodes   Nodes
}

// Nodes names the statements of a model that callers inspect.
type Nodes struct {
	Counter    btor2.ID
	Registers  [riscv.NumRegisters]btor2.ID
	PC         btor2.ID
	Written    [riscv.NumRegisters]btor2.ID
	MemoryInit btor2.ID
	Memory     btor2.ID

	Instr                                btor2.ID
	Opcode, Rd, Rs1, Rs2, Funct3, Funct7 btor2.ID
	// Imm is the selected immediate, sign-extended to 64 bits.
	Imm btor2.ID
	// Preds holds one predicate per recognized instruction, indexed by Op-1.
	Preds       [riscv.NumOps]btor2.ID
	KnownOpcode btor2.ID
	KnownInstr  btor2.ID

	Rs1Val, Rs2Val btor2.ID
	RdValue        btor2.ID
	NextPC         btor2.ID

	Bad BadNodes
}

// Pred returns the predicate of a recognized op.
func (n *Nodes) Pred(op riscv.Op) btor2.ID {
	return n.Preds[op-1]
}

// BadNodes holds the bad statements, in emission order. Ambiguous is zero unless
// Config.CheckExclusive is set.
type BadNodes struct {
	CounterExhausted btor2.ID
	UnknownOpcode    btor2.ID
	Unrecognized     btor2.ID
	Misaligned       btor2.ID
	LoadToZero       btor2.ID
	Ambiguous        btor2.ID
}

type synth struct {
	cfg     Config
	b       *btor2.Builder
	n       Nodes
	ignored []uint64

	boolean, addr, cell, word, reg, mem btor2.ID

	opcodeIs map[uint32]btor2.ID
	immWord  btor2.ID

	// results holds the value each rd-writing op produces, indexed by Op-1.
	results [riscv.NumOps]btor2.ID
	// conds holds the branch conditions, indexed by Op-1.
	conds [riscv.NumOps]btor2.ID

	pcPlus4, target, jalrTarget btor2.ID
	// cells are the addresses rs1+imm .. rs1+imm+7 used by loads and stores.
	cells []btor2.ID

	rdIs    [riscv.NumRegisters]btor2.ID
	rdWrite btor2.ID
}

// Synthesize builds the transition system for the given snapshot.
// A malformed snapshot or configuration is an error and no model is returned.
func Synthesize(ms state.MachineState, cfg Config) (res *Result, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := state.Validate(ms); err != nil {
		return nil, fmt.Errorf("invalid machine state: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("synthesis failed: %v", r)
		}
	}()

	s := &synth{cfg: cfg, b: btor2.NewBuilder()}
	s.declareSorts()
	if err := s.declareState(ms); err != nil {
		return nil, err
	}
	s.fetch()
	s.classify()
	s.immediate()
	s.semantics()
	s.compose()
	s.badStates()
	return &Result{Model: s.b, Ignored: s.ignored, Nodes: s.n}, nil
}

// widen zero-extends an address to register width.
func (s *synth) widen(x btor2.ID) btor2.ID {
	if s.cfg.AddrBits == 64 {
		return x
	}
	return s.b.Uext(x, 64-s.cfg.AddrBits)
}

// narrow truncates a register value to address width.
func (s *synth) narrow(x btor2.ID) btor2.ID {
	if s.cfg.AddrBits == 64 {
		return x
	}
	return s.b.Slice(x, s.cfg.AddrBits-1, 0)
}
