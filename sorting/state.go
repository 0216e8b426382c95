// Package sorting holds the multi-key sort state and its stable ordering of records.
package sorting

import (
	"slices"

	nt "gridlite/entity"
)

// State is an insertion ordered map of sort expressions; insertion order is precedence.
type State struct {
	keys  []string
	exprs map[string]nt.SortExpression
}

// NewState returns an empty State.
func NewState() *State {
	return &State{exprs: map[string]nt.SortExpression{}}
}

// Set stores an expression, or removes its key when the direction is None.
// Updating an existing key keeps its precedence.
func (st *State) Set(expr nt.SortExpression) {

	if expr.Direction == nt.None {
		st.Delete(expr.Key)
		return
	}

	if _, ok := st.exprs[expr.Key]; !ok {
		st.keys = append(st.keys, expr.Key)
	}
	st.exprs[expr.Key] = expr
}

// Get returns the expression for a key.
func (st *State) Get(key string) (nt.SortExpression, bool) {
	expr, ok := st.exprs[key]
	return expr, ok
}

// Has is true when the key is sorted.
func (st *State) Has(key string) bool {
	_, ok := st.exprs[key]
	return ok
}

// Delete removes a key.
func (st *State) Delete(key string) {
	delete(st.exprs, key)
	st.keys = slices.DeleteFunc(st.keys, func(k string) bool { return k == key })
}

// Clear removes every key.
func (st *State) Clear() {
	st.keys = nil
	st.exprs = map[string]nt.SortExpression{}
}

// Len is the number of sort keys.
func (st *State) Len() int {
	return len(st.keys)
}

// Expressions returns the expressions in precedence order.
func (st *State) Expressions() []nt.SortExpression {

	exprs := make([]nt.SortExpression, len(st.keys))
	for i, key := range st.keys {
		exprs[i] = st.exprs[key]
	}
	return exprs
}

// Clone returns an independent copy.
func (st *State) Clone() *State {

	clone := &State{
		keys:  slices.Clone(st.keys),
		exprs: make(map[string]nt.SortExpression, len(st.exprs)),
	}
	for key, expr := range st.exprs {
		clone.exprs[key] = expr
	}
	return clone
}

// Compare walks the keys in precedence order; the first non-zero comparison decides.
func (st *State) Compare(a, b nt.Record) int {

	for _, key := range st.keys {
		expr := st.exprs[key]

		cmp := compareValues(expr, nt.Resolve(a, key), nt.Resolve(b, key))
		if cmp == 0 {
			continue
		}
		if expr.Direction == nt.Descending {
			return -cmp
		}
		return cmp
	}
	return 0
}

// Apply sorts records in place; ties keep their relative order.
func (st *State) Apply(records []nt.Record) {

	if st.Len() == 0 {
		return
	}
	slices.SortStableFunc(records, st.Compare)
}

// unexported

func compareValues(expr nt.SortExpression, a, b nt.Value) int {

	if expr.Comparer != nil {
		return expr.Comparer(a, b)
	}

	caseSensitive := expr.CaseSensitive != nil && *expr.CaseSensitive
	return nt.Compare(a, b, caseSensitive)
}
