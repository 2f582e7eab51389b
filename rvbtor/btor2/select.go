package btor2

// Case is one arm of an ordered choice: when When holds, the choice yields Then.
type Case struct {
	When ID
	Then ID
}

// Select folds an ordered list of cases into nested ite statements.
// Earlier cases take precedence over later ones; when no case holds the result is otherwise.
// The fold runs from the last case to the first, so the highest-precedence ite is emitted last.
func (b *Builder) Select(cases []Case, otherwise ID) ID {
	out := otherwise
	for i := len(cases) - 1; i >= 0; i-- {
		out = b.Ite(cases[i].When, cases[i].Then, out)
	}
	return out
}

// Any is the disjunction of the given booleans, false when empty.
func (b *Builder) Any(conds ...ID) ID {
	if len(conds) == 0 {
		return b.False()
	}
	out := conds[0]
	for _, c := range conds[1:] {
		out = b.Or(out, c)
	}
	return out
}

// All is the conjunction of the given booleans, true when empty.
func (b *Builder) All(conds ...ID) ID {
	if len(conds) == 0 {
		return b.True()
	}
	out := conds[0]
	for _, c := range conds[1:] {
		out = b.And(out, c)
	}
	return out
}
