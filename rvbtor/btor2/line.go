package btor2

import (
	"strconv"
	"strings"
)

// ID identifies a statement. Identifiers are dense and start at 1.
type ID uint32

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Kind groups statements by their role in the transition system.
type Kind uint8

const (
	KindSort Kind = iota
	KindConst
	KindState
	KindInput
	KindOp
	KindInit
	KindNext
	KindBad
	KindConstraint
)

func (k Kind) String() string {
	switch k {
	case KindSort:
		return "sort"
	case KindConst:
		return "constant"
	case KindState:
		return "state-variable"
	case KindInput:
		return "input"
	case KindOp:
		return "combinational-op"
	case KindInit:
		return "init"
	case KindNext:
		return "next"
	case KindBad:
		return "bad"
	case KindConstraint:
		return "constraint"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Line is one numbered statement of the output stream.
type Line struct {
	ID   ID
	Kind Kind
	Op   string

	// Sort is the result sort of the statement; zero for sorts, bad and constraint lines.
	Sort ID
	Args []ID
	// Params carries the integer operands of sort declarations, slice and extension ops.
	Params []uint
	// Value is the literal of a constd/consth/const line.
	Value string

	// Symbol is a debugging label with no semantic meaning.
	Symbol string
}

func (l *Line) String() string {
	var sb strings.Builder
	sb.WriteString(l.ID.String())
	sb.WriteByte(' ')
	sb.WriteString(l.Op)
	if l.Kind == KindSort {
		// "<id> sort bitvec <w>" / "<id> sort array <index> <elem>"
		sb.WriteByte(' ')
		sb.WriteString(l.Value)
	} else if l.Sort != 0 {
		sb.WriteByte(' ')
		sb.WriteString(l.Sort.String())
	}
	for _, a := range l.Args {
		sb.WriteByte(' ')
		sb.WriteString(a.String())
	}
	for _, p := range l.Params {
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatUint(uint64(p), 10))
	}
	if l.Kind != KindSort && l.Value != "" {
		sb.WriteByte(' ')
		sb.WriteString(l.Value)
	}
	if l.Symbol != "" {
		sb.WriteByte(' ')
		sb.WriteString(l.Symbol)
	}
	return sb.String()
}

// SortInfo describes a declared sort.
type SortInfo struct {
	Array bool
	// Width of a bitvector sort.
	Width uint
	// Index and Elem sorts of an array sort.
	Index, Elem ID
}
