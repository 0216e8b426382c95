// Package filter evaluates records against per-field groups of filter expressions.
package filter

import (
	"slices"

	nt "gridlite/entity"
)

// Group is the ordered list of expressions sharing a field.
// Each expression after the first joins the accumulated result with its Criteria.
type Group struct {
	Key         string
	expressions []nt.FilterExpression
}

// Set appends an expression, or replaces the one occupying the same slot.
func (grp *Group) Set(expr nt.FilterExpression) {

	idx := slices.IndexFunc(grp.expressions, expr.Same)
	if idx == -1 {
		grp.expressions = append(grp.expressions, expr)
		return
	}
	grp.expressions[idx] = expr
}

// Remove drops the expression occupying the same slot, if any.
func (grp *Group) Remove(expr nt.FilterExpression) {
	grp.expressions = slices.DeleteFunc(grp.expressions, expr.Same)
}

// Empty is true when no expressions remain.
func (grp *Group) Empty() bool {
	return len(grp.expressions) == 0
}

// All returns a copy of the expressions in order.
func (grp *Group) All() []nt.FilterExpression {
	return slices.Clone(grp.expressions)
}

// Test folds the group's expressions left to right.
func (grp *Group) Test(rec nt.Record) bool {

	if len(grp.expressions) == 0 {
		return true
	}

	pass := grp.expressions[0].Test(rec)
	for _, expr := range grp.expressions[1:] {
		switch expr.Criteria {
		case nt.Or:
			pass = pass || expr.Test(rec)
		default:
			pass = pass && expr.Test(rec)
		}
	}
	return pass
}

// State maps fields to their groups, in the order fields were first filtered.
// Groups are combined with AND.
type State struct {
	keys   []string
	groups map[string]*Group
}

// NewState returns an empty State.
func NewState() *State {
	return &State{groups: map[string]*Group{}}
}

// Set inserts or updates an expression in its field's group.
func (st *State) Set(expr nt.FilterExpression) {

	grp, ok := st.groups[expr.Key]
	if !ok {
		grp = &Group{Key: expr.Key}
		st.groups[expr.Key] = grp
		st.keys = append(st.keys, expr.Key)
	}
	grp.Set(expr)
}

// Remove drops a single expression, and its group once emptied.
func (st *State) Remove(expr nt.FilterExpression) {

	grp, ok := st.groups[expr.Key]
	if !ok {
		return
	}

	grp.Remove(expr)
	if grp.Empty() {
		st.Delete(expr.Key)
	}
}

// Get returns the group for a field.
func (st *State) Get(key string) (*Group, bool) {
	grp, ok := st.groups[key]
	return grp, ok
}

// Delete drops a field's group.
func (st *State) Delete(key string) {
	delete(st.groups, key)
	st.keys = slices.DeleteFunc(st.keys, func(k string) bool { return k == key })
}

// Clear drops every group.
func (st *State) Clear() {
	st.keys = nil
	st.groups = map[string]*Group{}
}

// Keys lists the filtered fields.
func (st *State) Keys() []string {
	return slices.Clone(st.keys)
}

// Len is the number of groups.
func (st *State) Len() int {
	return len(st.keys)
}

// Expressions flattens every group, in field order.
func (st *State) Expressions() []nt.FilterExpression {

	var exprs []nt.FilterExpression
	for _, key := range st.keys {
		exprs = append(exprs, st.groups[key].expressions...)
	}
	return exprs
}

// Test is true when the record passes every group.
func (st *State) Test(rec nt.Record) bool {

	for _, key := range st.keys {
		if !st.groups[key].Test(rec) {
			return false
		}
	}
	return true
}

// Apply returns the records that pass, in their original order.
func (st *State) Apply(records []nt.Record) []nt.Record {

	if st.Len() == 0 {
		return records
	}

	kept := make([]nt.Record, 0, len(records))
	for _, rec := range records {
		if st.Test(rec) {
			kept = append(kept, rec)
		}
	}
	return kept
}

// Clone returns an independent copy for evaluation off the caller's goroutine.
func (st *State) Clone() *State {

	clone := &State{
		keys:   slices.Clone(st.keys),
		groups: make(map[string]*Group, len(st.groups)),
	}
	for key, grp := range st.groups {
		clone.groups[key] = &Group{Key: key, expressions: slices.Clone(grp.expressions)}
	}
	return clone
}
