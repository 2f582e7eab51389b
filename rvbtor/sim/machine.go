// Package sim executes a BTOR2 stream concretely, one transition at a time.
// Inputs read as zero and so do state variables without an init.
package sim

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/rvbmc/bmc/rvbtor/btor2"
)

// Value is either a bitvector or an array.
type Value struct {
	Bits  U256
	Array *Array
}

// Array is an immutable array value. Unwritten elements are zero.
type Array struct {
	cells map[uint64]U256
}

func (a *Array) Get(idx uint64) U256 {
	if a == nil {
		return U256{}
	}
	return a.cells[idx]
}

func (a *Array) with(idx uint64, v U256) *Array {
	out := &Array{cells: make(map[uint64]U256, a.Len()+1)}
	if a != nil {
		for k, c := range a.cells {
			out.cells[k] = c
		}
	}
	out.cells[idx] = v
	return out
}

func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.cells)
}

// Indices lists the explicitly written indices in ascending order.
func (a *Array) Indices() []uint64 {
	if a == nil {
		return nil
	}
	out := make([]uint64, 0, len(a.cells))
	for k := range a.cells {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type Machine struct {
	b *btor2.Builder

	states []btor2.ID
	bads   []btor2.ID
	init   map[btor2.ID]btor2.ID
	next   map[btor2.ID]btor2.ID

	cur  map[btor2.ID]Value
	memo map[btor2.ID]Value
	step uint64
}

func New(b *btor2.Builder) *Machine {
	m := &Machine{
		b:    b,
		init: make(map[btor2.ID]btor2.ID),
		next: make(map[btor2.ID]btor2.ID),
	}
	for _, l := range b.Lines() {
		switch l.Kind {
		case btor2.KindState:
			m.states = append(m.states, l.ID)
		case btor2.KindInit:
			m.init[l.Args[0]] = l.Args[1]
		case btor2.KindNext:
			m.next[l.Args[0]] = l.Args[1]
		case btor2.KindBad:
			m.bads = append(m.bads, l.ID)
		}
	}
	m.Reset()
	return m
}

// Reset puts the machine in its initial step.
func (m *Machine) Reset() {
	m.cur = make(map[btor2.ID]Value, len(m.states))
	m.memo = make(map[btor2.ID]Value)
	m.step = 0
	vals := make(map[btor2.ID]Value, len(m.states))
	for _, st := range m.states {
		if v, ok := m.init[st]; ok {
			vals[st] = m.Eval(v)
		}
	}
	m.cur = vals
	m.memo = make(map[btor2.ID]Value)
}

// Step takes one transition. States without a next function keep their value.
func (m *Machine) Step() {
	vals := make(map[btor2.ID]Value, len(m.states))
	for _, st := range m.states {
		if v, ok := m.next[st]; ok {
			vals[st] = m.Eval(v)
		} else {
			vals[st] = m.cur[st]
		}
	}
	m.cur = vals
	m.memo = make(map[btor2.ID]Value)
	m.step++
}

// Steps returns the number of transitions taken since the last reset.
func (m *Machine) Steps() uint64 {
	return m.step
}

func (m *Machine) Uint64(id btor2.ID) uint64 {
	v := m.Eval(id)
	return v.Bits.Uint64()
}

func (m *Machine) Bool(id btor2.ID) bool {
	v := m.Eval(id)
	return !v.Bits.IsZero()
}

// ReadArray returns element idx of the array value id.
func (m *Machine) ReadArray(id btor2.ID, idx uint64) uint64 {
	v := m.Eval(id)
	c := v.Array.Get(idx)
	return c.Uint64()
}

// Bad returns the bad statements whose condition holds in the current step.
func (m *Machine) Bad() []btor2.ID {
	var out []btor2.ID
	for _, id := range m.bads {
		if m.Bool(m.b.Line(id).Args[0]) {
			out = append(out, id)
		}
	}
	return out
}

// Eval evaluates a value statement in the current step.
func (m *Machine) Eval(id btor2.ID) Value {
	if v, ok := m.memo[id]; ok {
		return v
	}
	v := m.eval(m.b.Line(id))
	m.memo[id] = v
	return v
}

func (m *Machine) eval(l *btor2.Line) Value {
	switch l.Kind {
	case btor2.KindState:
		return m.cur[l.ID]
	case btor2.KindInput:
		return Value{}
	case btor2.KindConst:
		return Value{Bits: m.constant(l)}
	case btor2.KindOp:
	default:
		panic(fmt.Errorf("statement %d (%s) has no value", l.ID, l.Op))
	}

	args := make([]Value, len(l.Args))
	for i, a := range l.Args {
		args[i] = m.Eval(a)
	}
	switch l.Op {
	case "ite":
		if !args[0].Bits.IsZero() {
			return args[1]
		}
		return args[2]
	case "read":
		return Value{Bits: args[0].Array.Get(args[1].Bits.Uint64())}
	case "write":
		return Value{Array: args[0].Array.with(args[1].Bits.Uint64(), args[2].Bits)}
	}

	w := m.b.Width(l.ID)
	x := args[0].Bits
	var y U256
	if len(args) > 1 {
		y = args[1].Bits
	}
	wx := m.b.Width(l.Args[0])
	var out U256
	switch l.Op {
	case "not":
		out = not(x, w)
	case "neg":
		out = neg(x, w)
	case "inc":
		out = add(x, toU256(1), w)
	case "dec":
		out = sub(x, toU256(1), w)
	case "redor":
		out = fromBool(!x.IsZero())
	case "redand":
		out = fromBool(eq(x, widthMask(wx)))
	case "sext":
		out = truncate(signExtend(x, wx), w)
	case "uext":
		out = x
	case "slice":
		out = slice(x, l.Params[0], l.Params[1])
	case "and":
		out = and(x, y)
	case "or":
		out = or(x, y)
	case "xor":
		out = xor(x, y)
	case "implies":
		out = or(not(x, 1), y)
	case "iff":
		out = fromBool(eq(x, y))
	case "add":
		out = add(x, y, w)
	case "sub":
		out = sub(x, y, w)
	case "mul":
		out = mul(x, y, w)
	case "sll":
		out = sll(x, y, w)
	case "srl":
		out = srl(x, y, w)
	case "sra":
		out = sra(x, y, w)
	case "eq":
		out = fromBool(eq(x, y))
	case "neq":
		out = fromBool(!eq(x, y))
	case "ult":
		out = fromBool(ult(x, y))
	case "ulte":
		out = fromBool(!ult(y, x))
	case "ugt":
		out = fromBool(ult(y, x))
	case "ugte":
		out = fromBool(!ult(x, y))
	case "slt":
		out = fromBool(slt(x, y, wx))
	case "slte":
		out = fromBool(!slt(y, x, wx))
	case "sgt":
		out = fromBool(slt(y, x, wx))
	case "sgte":
		out = fromBool(!slt(x, y, wx))
	case "concat":
		out = concat(x, y, m.b.Width(l.Args[1]))
	default:
		panic(fmt.Errorf("statement %d: unsupported operator %q", l.ID, l.Op))
	}
	return Value{Bits: out}
}

func (m *Machine) constant(l *btor2.Line) U256 {
	w := m.b.Width(l.ID)
	switch l.Op {
	case "zero":
		return U256{}
	case "one":
		return toU256(1)
	case "ones":
		return widthMask(w)
	case "constd":
		v, err := strconv.ParseUint(l.Value, 10, 64)
		if err != nil {
			panic(fmt.Errorf("statement %d: bad constant %q: %w", l.ID, l.Value, err))
		}
		return truncate(toU256(v), w)
	default:
		panic(fmt.Errorf("statement %d: unsupported constant %q", l.ID, l.Op))
	}
}
