package sorting

import (
	nt "gridlite/entity"
)

// Mode selects whether more than one key may be sorted from header interaction.
type Mode string

const (
	Multiple Mode = "multiple"
	Single   Mode = "single"
)

// Lookup finds the column declared for a field.
type Lookup func(field string) (nt.Column, bool)

// Sorter merges incoming expressions into State using column defaults.
type Sorter struct {
	State  *State
	Mode   Mode
	lookup Lookup
}

// New creates a Sorter.
func New(mode Mode, lookup Lookup) *Sorter {

	if mode == "" {
		mode = Multiple
	}

	return &Sorter{
		State:  NewState(),
		Mode:   mode,
		lookup: lookup,
	}
}

// Sort merges each expression onto its existing entry, or onto a default one, and stores it.
// Unset case sensitivity and comparer come from the column.
func (srt *Sorter) Sort(exprs ...nt.SortExpression) {

	for _, expr := range exprs {
		base, ok := srt.State.Get(expr.Key)
		if !ok {
			base = srt.defaultExpression(expr.Key)
		}

		base.Direction = expr.Direction
		if expr.CaseSensitive != nil {
			base.CaseSensitive = expr.CaseSensitive
		}
		if expr.Comparer != nil {
			base.Comparer = expr.Comparer
		}

		srt.State.Set(base)
	}
}

// Prepare returns the expression a header click on column would apply, without changing State.
// An existing entry advances ascending, descending, none; otherwise a new entry starts ascending.
func (srt *Sorter) Prepare(col nt.Column) nt.SortExpression {

	expr, ok := srt.State.Get(col.Field)
	if !ok {
		return srt.defaultExpression(col.Field)
	}

	expr.Direction = expr.Direction.Next()
	applyColumn(&expr, col)
	return expr
}

// Apply stores a prepared expression, first clearing other keys in single mode.
func (srt *Sorter) Apply(expr nt.SortExpression) {

	if srt.Mode == Single {
		srt.State.Clear()
	}
	srt.State.Set(expr)
}

// Reset removes the given keys, or every key when none are given.
func (srt *Sorter) Reset(keys ...string) {

	if len(keys) == 0 {
		srt.State.Clear()
		return
	}
	for _, key := range keys {
		srt.State.Delete(key)
	}
}

// unexported

func (srt *Sorter) defaultExpression(key string) nt.SortExpression {

	expr := nt.SortExpression{
		Key:           key,
		Direction:     nt.Ascending,
		CaseSensitive: nt.Ptr(false),
	}

	if srt.lookup == nil {
		return expr
	}
	col, ok := srt.lookup(key)
	if !ok {
		return expr
	}

	applyColumn(&expr, col)
	return expr
}

func applyColumn(expr *nt.SortExpression, col nt.Column) {
	expr.CaseSensitive = nt.Ptr(col.SortCaseSensitive)
	expr.Comparer = col.Comparer
}
