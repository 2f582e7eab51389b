package btor2

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// Builder appends statements to a single, forward-reference-free stream.
// It owns the identifier counter: every emission returns the next identifier,
// and operands must always name statements emitted before.
//
// Misuse (forward references, mismatched widths, non-value operands) panics:
// it is a bug in the caller, never a property of the input.
type Builder struct {
	lines    []Line
	comments map[ID][]string
	pending  []string

	sorts    map[ID]SortInfo
	bitvecs  map[uint]ID
	arrays   map[[2]ID]ID
	consts   map[constKey]ID
	boolSort ID
}

type constKey struct {
	sort  ID
	value uint64
}

func NewBuilder() *Builder {
	return &Builder{
		comments: make(map[ID][]string),
		sorts:    make(map[ID]SortInfo),
		bitvecs:  make(map[uint]ID),
		arrays:   make(map[[2]ID]ID),
		consts:   make(map[constKey]ID),
	}
}

// Len returns the number of statements emitted so far.
func (b *Builder) Len() int {
	return len(b.lines)
}

// Lines returns the emitted statements in order. The slice must not be modified.
func (b *Builder) Lines() []Line {
	return b.lines
}

// Line returns the statement with the given identifier.
func (b *Builder) Line(id ID) *Line {
	if id == 0 || int(id) > len(b.lines) {
		panic(fmt.Errorf("unknown statement %d", id))
	}
	return &b.lines[id-1]
}

// Comments returns the comment lines emitted just before the given statement.
func (b *Builder) Comments(id ID) []string {
	return b.comments[id]
}

// Comment attaches a comment line in front of the next statement.
func (b *Builder) Comment(format string, args ...any) {
	b.pending = append(b.pending, fmt.Sprintf(format, args...))
}

// Name sets the debugging label of a statement and returns it.
func (b *Builder) Name(id ID, symbol string) ID {
	b.Line(id).Symbol = symbol
	return id
}

func (b *Builder) emit(l Line) ID {
	l.ID = ID(len(b.lines) + 1)
	for _, a := range l.Args {
		if a == 0 || a >= l.ID {
			panic(fmt.Errorf("statement %d (%s) references %d: not yet emitted", l.ID, l.Op, a))
		}
	}
	if len(b.pending) > 0 {
		b.comments[l.ID] = b.pending
		b.pending = nil
	}
	b.lines = append(b.lines, l)
	return l.ID
}

// Sorts

// BitVec returns the bitvector sort of the given width, declaring it on first use.
func (b *Builder) BitVec(width uint, symbol string) ID {
	if width == 0 {
		panic("zero-width bitvector sort")
	}
	if id, ok := b.bitvecs[width]; ok {
		return id
	}
	id := b.emit(Line{Kind: KindSort, Op: "sort", Value: "bitvec", Params: []uint{width}, Symbol: symbol})
	b.bitvecs[width] = id
	b.sorts[id] = SortInfo{Width: width}
	if width == 1 {
		b.boolSort = id
	}
	return id
}

// Array returns the array sort from index to element sort, declaring it on first use.
func (b *Builder) Array(index, elem ID, symbol string) ID {
	key := [2]ID{index, elem}
	if id, ok := b.arrays[key]; ok {
		return id
	}
	if b.Sort(index).Array || b.Sort(elem).Array {
		panic("nested array sorts are not supported")
	}
	id := b.emit(Line{Kind: KindSort, Op: "sort", Value: "array", Args: []ID{index, elem}, Symbol: symbol})
	b.arrays[key] = id
	b.sorts[id] = SortInfo{Array: true, Index: index, Elem: elem}
	return id
}

// Bool returns the 1-bit sort.
func (b *Builder) Bool() ID {
	if b.boolSort == 0 {
		return b.BitVec(1, "Boolean")
	}
	return b.boolSort
}

// Sort describes a declared sort.
func (b *Builder) Sort(sort ID) SortInfo {
	info, ok := b.sorts[sort]
	if !ok {
		panic(fmt.Errorf("statement %d is not a sort", sort))
	}
	return info
}

// SortOf returns the sort of a value statement.
func (b *Builder) SortOf(v ID) ID {
	l := b.Line(v)
	switch l.Kind {
	case KindConst, KindState, KindInput, KindOp:
		return l.Sort
	default:
		panic(fmt.Errorf("statement %d (%s) is not a value", v, l.Op))
	}
}

// Width returns the bit width of a bitvector value.
func (b *Builder) Width(v ID) uint {
	info := b.Sort(b.SortOf(v))
	if info.Array {
		panic(fmt.Errorf("statement %d is an array, not a bitvector", v))
	}
	return info.Width
}

func (b *Builder) sameSort(op string, vs ...ID) ID {
	s := b.SortOf(vs[0])
	for _, v := range vs[1:] {
		if o := b.SortOf(v); o != s {
			panic(fmt.Errorf("%s: operand %d has sort %d, expected %d", op, v, o, s))
		}
	}
	return s
}

func (b *Builder) requireBool(op string, c ID) {
	if b.Width(c) != 1 {
		panic(fmt.Errorf("%s: condition %d is not boolean", op, c))
	}
}

// Constants and state

func mask(width uint) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}

// Const returns a constant of the given bitvector sort, reusing an earlier declaration of the same value.
// The value is truncated to the sort width.
func (b *Builder) Const(sort ID, v uint64) ID {
	info := b.Sort(sort)
	if info.Array {
		panic("array constants are not supported")
	}
	if info.Width > 64 {
		panic(fmt.Errorf("constants wider than 64 bits are not supported (width %d)", info.Width))
	}
	v &= mask(info.Width)
	key := constKey{sort: sort, value: v}
	if id, ok := b.consts[key]; ok {
		return id
	}
	l := Line{Kind: KindConst, Sort: sort}
	switch {
	case v == 0:
		l.Op = "zero"
	case v == 1:
		l.Op = "one"
	case v == mask(info.Width):
		l.Op = "ones"
	default:
		l.Op = "constd"
		l.Value = strconv.FormatUint(v, 10)
	}
	id := b.emit(l)
	b.consts[key] = id
	return id
}

func (b *Builder) Zero(sort ID) ID { return b.Const(sort, 0) }
func (b *Builder) One(sort ID) ID  { return b.Const(sort, 1) }
func (b *Builder) Ones(sort ID) ID { return b.Const(sort, ^uint64(0)) }

// True and False are the boolean constants.
func (b *Builder) True() ID  { return b.One(b.Bool()) }
func (b *Builder) False() ID { return b.Zero(b.Bool()) }

// State declares a state variable.
func (b *Builder) State(sort ID, symbol string) ID {
	b.Sort(sort)
	return b.emit(Line{Kind: KindState, Op: "state", Sort: sort, Symbol: symbol})
}

// Input declares a primary input, unconstrained in every step.
func (b *Builder) Input(sort ID, symbol string) ID {
	b.Sort(sort)
	return b.emit(Line{Kind: KindInput, Op: "input", Sort: sort, Symbol: symbol})
}

func (b *Builder) requireState(op string, st ID) ID {
	l := b.Line(st)
	if l.Kind != KindState {
		panic(fmt.Errorf("%s: statement %d is not a state variable", op, st))
	}
	return l.Sort
}

// Init sets the value of a state variable in the initial step.
func (b *Builder) Init(st, v ID) ID {
	s := b.requireState("init", st)
	b.sameSort("init", st, v)
	return b.emit(Line{Kind: KindInit, Op: "init", Sort: s, Args: []ID{st, v}})
}

// Next sets the value of a state variable in the following step.
func (b *Builder) Next(st, v ID) ID {
	s := b.requireState("next", st)
	b.sameSort("next", st, v)
	return b.emit(Line{Kind: KindNext, Op: "next", Sort: s, Args: []ID{st, v}})
}

// Bad declares a property whose truth in any reachable step is a violation.
func (b *Builder) Bad(cond ID, symbol string) ID {
	b.requireBool("bad", cond)
	return b.emit(Line{Kind: KindBad, Op: "bad", Args: []ID{cond}, Symbol: symbol})
}

// Constraint restricts the explored steps to those where cond holds.
func (b *Builder) Constraint(cond ID, symbol string) ID {
	b.requireBool("constraint", cond)
	return b.emit(Line{Kind: KindConstraint, Op: "constraint", Args: []ID{cond}, Symbol: symbol})
}

// Operators

func (b *Builder) op(name string, sort ID, args []ID, params ...uint) ID {
	return b.emit(Line{Kind: KindOp, Op: name, Sort: sort, Args: args, Params: params})
}

func (b *Builder) unary(name string, x ID) ID {
	b.Width(x)
	return b.op(name, b.SortOf(x), []ID{x})
}

func (b *Builder) Not(x ID) ID { return b.unary("not", x) }
func (b *Builder) Neg(x ID) ID { return b.unary("neg", x) }
func (b *Builder) Inc(x ID) ID { return b.unary("inc", x) }
func (b *Builder) Dec(x ID) ID { return b.unary("dec", x) }

// Redor is true when any bit of x is set.
func (b *Builder) Redor(x ID) ID {
	b.Width(x)
	return b.op("redor", b.Bool(), []ID{x})
}

// Redand is true when every bit of x is set.
func (b *Builder) Redand(x ID) ID {
	b.Width(x)
	return b.op("redand", b.Bool(), []ID{x})
}

// Sext sign-extends x by the given number of bits.
func (b *Builder) Sext(x ID, by uint) ID {
	return b.op("sext", b.BitVec(b.Width(x)+by, ""), []ID{x}, by)
}

// Uext zero-extends x by the given number of bits.
func (b *Builder) Uext(x ID, by uint) ID {
	return b.op("uext", b.BitVec(b.Width(x)+by, ""), []ID{x}, by)
}

// Slice extracts bits upper..lower (inclusive) of x.
func (b *Builder) Slice(x ID, upper, lower uint) ID {
	if upper < lower || upper >= b.Width(x) {
		panic(fmt.Errorf("slice [%d:%d] out of range for width %d", upper, lower, b.Width(x)))
	}
	return b.op("slice", b.BitVec(upper-lower+1, ""), []ID{x}, upper, lower)
}

func (b *Builder) binary(name string, x, y ID) ID {
	b.Width(x)
	return b.op(name, b.sameSort(name, x, y), []ID{x, y})
}

func (b *Builder) And(x, y ID) ID { return b.binary("and", x, y) }
func (b *Builder) Or(x, y ID) ID  { return b.binary("or", x, y) }
func (b *Builder) Xor(x, y ID) ID { return b.binary("xor", x, y) }
func (b *Builder) Add(x, y ID) ID { return b.binary("add", x, y) }
func (b *Builder) Sub(x, y ID) ID { return b.binary("sub", x, y) }
func (b *Builder) Mul(x, y ID) ID { return b.binary("mul", x, y) }
func (b *Builder) Sll(x, y ID) ID { return b.binary("sll", x, y) }
func (b *Builder) Srl(x, y ID) ID { return b.binary("srl", x, y) }
func (b *Builder) Sra(x, y ID) ID { return b.binary("sra", x, y) }

func (b *Builder) compare(name string, x, y ID) ID {
	b.sameSort(name, x, y)
	b.Width(x)
	return b.op(name, b.Bool(), []ID{x, y})
}

func (b *Builder) Eq(x, y ID) ID   { return b.compare("eq", x, y) }
func (b *Builder) Neq(x, y ID) ID  { return b.compare("neq", x, y) }
func (b *Builder) Ult(x, y ID) ID  { return b.compare("ult", x, y) }
func (b *Builder) Ulte(x, y ID) ID { return b.compare("ulte", x, y) }
func (b *Builder) Ugt(x, y ID) ID  { return b.compare("ugt", x, y) }
func (b *Builder) Ugte(x, y ID) ID { return b.compare("ugte", x, y) }
func (b *Builder) Slt(x, y ID) ID  { return b.compare("slt", x, y) }
func (b *Builder) Slte(x, y ID) ID { return b.compare("slte", x, y) }
func (b *Builder) Sgt(x, y ID) ID  { return b.compare("sgt", x, y) }
func (b *Builder) Sgte(x, y ID) ID { return b.compare("sgte", x, y) }

// Concat places x above y: the result's low bits are y.
func (b *Builder) Concat(x, y ID) ID {
	return b.op("concat", b.BitVec(b.Width(x)+b.Width(y), ""), []ID{x, y})
}

// Ite selects t when the boolean c holds and e otherwise. Works on arrays too.
func (b *Builder) Ite(c, t, e ID) ID {
	b.requireBool("ite", c)
	return b.op("ite", b.sameSort("ite", t, e), []ID{c, t, e})
}

// Read loads the element at idx of array arr.
func (b *Builder) Read(arr, idx ID) ID {
	info := b.Sort(b.SortOf(arr))
	if !info.Array || b.SortOf(idx) != info.Index {
		panic(fmt.Errorf("read: %d is not indexable by %d", arr, idx))
	}
	return b.op("read", info.Elem, []ID{arr, idx})
}

// Write returns arr with the element at idx replaced by v.
func (b *Builder) Write(arr, idx, v ID) ID {
	s := b.SortOf(arr)
	info := b.Sort(s)
	if !info.Array || b.SortOf(idx) != info.Index || b.SortOf(v) != info.Elem {
		panic(fmt.Errorf("write: %d[%d] cannot hold %d", arr, idx, v))
	}
	return b.op("write", s, []ID{arr, idx, v})
}

// Output

// WriteTo renders the stream in BTOR2 text form, one statement per line.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	write := func(s string) error {
		m, err := bw.WriteString(s)
		n += int64(m)
		return err
	}
	for i := range b.lines {
		l := &b.lines[i]
		for _, c := range b.comments[l.ID] {
			if err := write("; " + c + "\n"); err != nil {
				return n, err
			}
		}
		if err := write(l.String() + "\n"); err != nil {
			return n, err
		}
	}
	for _, c := range b.pending {
		if err := write("; " + c + "\n"); err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}
