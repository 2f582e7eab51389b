package state

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/rvbmc/bmc/rvbtor/riscv"
)

// MachineState is a read-only snapshot of a RISC-V hart: program counter,
// 32 registers that may be undefined, and a sparse byte-addressed memory.
type MachineState interface {
	PC() uint64
	// Register returns the value of register i (0..31) and whether it was ever defined.
	Register(i int) (value uint64, defined bool)
	// LoadByte returns the byte at addr and whether the address is populated.
	LoadByte(addr uint64) (byte, bool)
	// Addresses lists the populated addresses in ascending order.
	Addresses() []uint64
}

type Register struct {
	Value   hexutil.Uint64 `json:"value"`
	Defined bool           `json:"defined"`
}

// State is the JSON snapshot format. Register x0 is always (0, defined).
type State struct {
	ProgramCounter hexutil.Uint64                 `json:"pc"`
	Registers      [riscv.NumRegisters]Register `json:"registers"`
	Memory         map[hexutil.Uint64]uint8       `json:"memory"`

	// Seed is kept when the state came out of the random generator.
	Seed *int64 `json:"seed,omitempty"`
}

var _ MachineState = (*State)(nil)

func New() *State {
	s := &State{Memory: make(map[hexutil.Uint64]uint8)}
	s.Registers[0].Defined = true
	return s
}

func (s *State) PC() uint64 {
	return uint64(s.ProgramCounter)
}

func (s *State) SetPC(pc uint64) {
	s.ProgramCounter = hexutil.Uint64(pc)
}

func (s *State) Register(i int) (uint64, bool) {
	r := s.Registers[i]
	return uint64(r.Value), r.Defined
}

// SetRegister defines register i. Writes to x0 are ignored.
func (s *State) SetRegister(i int, v uint64) {
	if i == 0 {
		return
	}
	s.Registers[i] = Register{Value: hexutil.Uint64(v), Defined: true}
}

func (s *State) LoadByte(addr uint64) (byte, bool) {
	v, ok := s.Memory[hexutil.Uint64(addr)]
	return v, ok
}

func (s *State) SetByte(addr uint64, v byte) {
	if s.Memory == nil {
		s.Memory = make(map[hexutil.Uint64]uint8)
	}
	s.Memory[hexutil.Uint64(addr)] = v
}

// SetBytes stores dat byte by byte, starting at addr.
func (s *State) SetBytes(addr uint64, dat []byte) {
	for i, v := range dat {
		s.SetByte(addr+uint64(i), v)
	}
}

// SetWord stores a 32-bit value little-endian at addr.
func (s *State) SetWord(addr uint64, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	s.SetBytes(addr, buf[:])
}

// SetDoubleword stores a 64-bit value little-endian at addr.
func (s *State) SetDoubleword(addr uint64, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	s.SetBytes(addr, buf[:])
}

// Instr returns the little-endian word at the program counter. Unpopulated bytes read as zero.
func (s *State) Instr() uint32 {
	var buf [4]byte
	for i := range buf {
		buf[i], _ = s.LoadByte(s.PC() + uint64(i))
	}
	return binary.LittleEndian.Uint32(buf[:])
}

func (s *State) Addresses() []uint64 {
	out := make([]uint64, 0, len(s.Memory))
	for a := range s.Memory {
		out = append(out, uint64(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MalformedStateErr reports a snapshot that violates the MachineState contract.
type MalformedStateErr struct {
	Field  string
	Reason string
}

func (e *MalformedStateErr) Error() string {
	return fmt.Sprintf("malformed state: %s: %s", e.Field, e.Reason)
}

// Validate checks the structural invariants every consumer of a MachineState relies on.
// It does not look at what the memory contains.
func Validate(ms MachineState) error {
	if v, defined := ms.Register(0); v != 0 || !defined {
		return &MalformedStateErr{Field: "x0", Reason: fmt.Sprintf("must be (0, defined), got (%#x, %v)", v, defined)}
	}
	addrs := ms.Addresses()
	for i, a := range addrs {
		if i > 0 && addrs[i-1] >= a {
			return &MalformedStateErr{
				Field:  "memory",
				Reason: fmt.Sprintf("populated addresses not strictly ascending at %#x (after %#x)", a, addrs[i-1]),
			}
		}
		if _, ok := ms.LoadByte(a); !ok {
			return &MalformedStateErr{Field: "memory", Reason: fmt.Sprintf("listed address %#x is not readable", a)}
		}
	}
	return nil
}
