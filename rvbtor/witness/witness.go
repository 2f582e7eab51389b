// Package witness reads btormc counterexample traces (--trace-gen-full)
// of synthesized models back into machine snapshots.
package witness

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rvbmc/bmc/rvbtor/riscv"
	"github.com/rvbmc/bmc/rvbtor/state"
)

var ErrNoFrame = errors.New("no state frame in witness")

// Positions of the state variables in a synthesized model, used when a trace carries no symbols.
const (
	indexCounter    = 0
	indexRegisters  = 1
	indexPC         = indexRegisters + riscv.NumRegisters
	indexWritten    = indexPC + 1
	indexMemoryInit = indexWritten + riscv.NumRegisters
	indexMemory     = indexMemoryInit + 1
)

type Witness struct {
	// Bad lists the indices of the bad properties the trace violates, e.g. 0 for "b0".
	Bad []int
	// Step is the number of the last state frame.
	Step int
	// State is the machine in the last state frame.
	State *state.State
}

type assignment struct {
	index  int
	addr   *uint64
	value  uint64
	symbol string
}

func parseBinary(s string) (uint64, error) {
	if len(s) == 0 || len(s) > 64 {
		return 0, fmt.Errorf("bad binary value %q", s)
	}
	return strconv.ParseUint(s, 2, 64)
}

func parseAssignment(line string) (assignment, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return assignment{}, fmt.Errorf("too few fields in %q", line)
	}
	var a assignment
	idx, err := strconv.Atoi(fields[0])
	if err != nil {
		return a, fmt.Errorf("bad state index %q: %w", fields[0], err)
	}
	a.index = idx
	rest := fields[1:]
	if strings.HasPrefix(rest[0], "[") {
		if !strings.HasSuffix(rest[0], "]") || len(rest) < 2 {
			return a, fmt.Errorf("bad array element in %q", line)
		}
		addr, err := parseBinary(strings.TrimSuffix(strings.TrimPrefix(rest[0], "["), "]"))
		if err != nil {
			return a, fmt.Errorf("bad address: %w", err)
		}
		a.addr = &addr
		rest = rest[1:]
	}
	if a.value, err = parseBinary(rest[0]); err != nil {
		return a, err
	}
	if len(rest) > 1 {
		a.symbol = rest[1]
		if i := strings.LastIndexByte(a.symbol, '#'); i >= 0 {
			a.symbol = a.symbol[:i]
		}
	}
	return a, nil
}

// Parse reads a whole trace and reconstructs the machine from its last state frame.
// Symbols decide what an assignment means; unlabelled lines fall back to the state order
// of a synthesized model.
func Parse(r io.Reader) (*Witness, error) {
	var (
		out     Witness
		frame   []assignment
		inFrame bool
		found   bool
		lineNum int
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "" || line == "sat" || line == ".":
			inFrame = false
		case line[0] == 'b' && out.Bad == nil && !found:
			for _, f := range strings.Fields(line) {
				i, err := strconv.Atoi(strings.TrimPrefix(f, "b"))
				if err != nil {
					return nil, fmt.Errorf("line %d: bad property %q: %w", lineNum, f, err)
				}
				out.Bad = append(out.Bad, i)
			}
		case line[0] == '#':
			step, err := strconv.Atoi(line[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: bad frame header %q: %w", lineNum, line, err)
			}
			out.Step, frame, inFrame, found = step, frame[:0], true, true
		case line[0] == '@':
			inFrame = false
		case inFrame:
			a, err := parseAssignment(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			frame = append(frame, a)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read witness: %w", err)
	}
	if !found {
		return nil, ErrNoFrame
	}
	s, err := restate(frame)
	if err != nil {
		return nil, fmt.Errorf("frame #%d: %w", out.Step, err)
	}
	out.State = s
	return &out, nil
}

func restate(frame []assignment) (*state.State, error) {
	s := state.New()
	var written [riscv.NumRegisters]*bool
	var values [riscv.NumRegisters]*uint64
	for _, a := range frame {
		a := a
		kind, reg := classify(a)
		switch kind {
		case "register":
			values[reg] = &a.value
		case "written":
			w := a.value == 1
			written[reg] = &w
		case "pc":
			s.SetPC(a.value)
		case "memory":
			if a.addr == nil {
				return nil, fmt.Errorf("memory assignment without address (state %d)", a.index)
			}
			if a.value > 0xFF {
				return nil, fmt.Errorf("memory cell %#x holds %#x, more than a byte", *a.addr, a.value)
			}
			s.SetByte(*a.addr, byte(a.value))
		}
	}
	for i := 1; i < riscv.NumRegisters; i++ {
		if values[i] == nil {
			continue
		}
		if written[i] != nil && !*written[i] {
			continue
		}
		s.SetRegister(i, *values[i])
	}
	return s, nil
}

// classify names the state variable an assignment belongs to, with the register number if any.
func classify(a assignment) (string, int) {
	if a.symbol != "" {
		switch {
		case a.symbol == "iterations_counter":
			return "counter", 0
		case a.symbol == "pc":
			return "pc", 0
		case a.symbol == "memory":
			return "memory", 0
		case strings.HasPrefix(a.symbol, "x"):
			num := strings.TrimPrefix(a.symbol, "x")
			kind := "register"
			if strings.HasSuffix(num, "_defined") {
				kind, num = "written", strings.TrimSuffix(num, "_defined")
			}
			if i, err := strconv.Atoi(num); err == nil && i >= 0 && i < riscv.NumRegisters {
				return kind, i
			}
		}
		return "", 0
	}
	switch {
	case a.index == indexCounter:
		return "counter", 0
	case a.index >= indexRegisters && a.index < indexPC:
		return "register", a.index - indexRegisters
	case a.index == indexPC:
		return "pc", 0
	case a.index >= indexWritten && a.index < indexMemoryInit:
		return "written", a.index - indexWritten
	case a.index == indexMemory:
		return "memory", 0
	}
	return "", 0
}
