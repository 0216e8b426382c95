package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nt "gridlite/entity"
)

var people = []nt.Record{
	{"id": 1, "name": "Alice", "active": true, "address": map[string]any{"city": "Sofia"}},
	{"id": 2, "name": "bob", "active": false, "address": map[string]any{"city": "Plovdiv"}},
	{"id": 3, "name": "Carol", "active": true},
	{"id": 4, "name": "alfred", "active": false, "address": map[string]any{"city": "Sofia"}},
}

func ids(records []nt.Record) (out []int) {
	for _, rec := range records {
		out = append(out, rec["id"].(int))
	}
	return
}

func expr(t *testing.T, col nt.Column, name string, term any) nt.FilterExpression {
	t.Helper()

	op, err := Resolve(col, name)
	require.NoError(t, err)
	return nt.FilterExpression{Key: col.Field, Condition: op, SearchTerm: term}
}

var (
	nameCol   = nt.Column{Field: "name"}
	idCol     = nt.Column{Field: "id", DataType: nt.Number}
	activeCol = nt.Column{Field: "active", DataType: nt.Boolean}
	cityCol   = nt.Column{Field: "address.city"}
)

func TestResolve(t *testing.T) {

	op, err := Resolve(nameCol, "")
	require.NoError(t, err)
	assert.Equal(t, nt.Contains, op.Op)

	op, err = Resolve(idCol, "")
	require.NoError(t, err)
	assert.Equal(t, nt.Equals, op.Op)

	_, err = Resolve(idCol, "contains")
	var unknown *UnknownOperandError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "contains", unknown.Name)
	assert.Equal(t, nt.Number, unknown.DataType)

	custom := nt.OperandSet{{Name: "odd", Test: func(value, _ nt.Value) bool {
		n, err := value.Number()
		return err == nil && int(n)%2 == 1
	}}}
	op, err = Resolve(nt.Column{Field: "id", Operands: custom}, "")
	require.NoError(t, err)
	assert.Equal(t, "odd", op.Name)
}

func TestOperands(t *testing.T) {

	tests := []struct {
		name string
		col  nt.Column
		op   string
		term any
		want []int
	}{
		{"contains ignores case", nameCol, "contains", "AL", []int{1, 4}},
		{"does not contain", nameCol, "doesNotContain", "al", []int{2, 3}},
		{"starts with", nameCol, "startsWith", "b", []int{2}},
		{"ends with", nameCol, "endsWith", "ol", []int{3}},
		{"string equals", nameCol, "equals", "BOB", []int{2}},
		{"nested contains", cityCol, "contains", "sof", []int{1, 4}},
		{"nested no value", cityCol, "doesNotEqual", "Sofia", []int{2}},
		{"nested empty", cityCol, "empty", nil, []int{3}},
		{"nested not empty", cityCol, "notEmpty", nil, []int{1, 2, 4}},
		{"number equals string term", idCol, "equals", "2", []int{2}},
		{"greater than", idCol, "greaterThan", 2, []int{3, 4}},
		{"less than or equal", idCol, "lessThanOrEqual", 2, []int{1, 2}},
		{"between inclusive", idCol, "between", []any{2, 3}, []int{2, 3}},
		{"between bad range", idCol, "between", 2, nil},
		{"boolean equals", activeCol, "equals", "true", []int{1, 3}},
		{"boolean false", activeCol, "false", nil, []int{2, 4}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := NewState()
			st.Set(expr(t, tc.col, tc.op, tc.term))
			assert.Equal(t, tc.want, ids(st.Apply(people)))
		})
	}
}

func TestCaseSensitive(t *testing.T) {

	ex := expr(t, nameCol, "startsWith", "a")
	ex.CaseSensitive = nt.Ptr(true)

	st := NewState()
	st.Set(ex)
	assert.Equal(t, []int{4}, ids(st.Apply(people)))
}

func TestGroupCriteria(t *testing.T) {

	alice := expr(t, nameCol, "equals", "alice")
	bob := expr(t, nameCol, "equals", "bob")
	bob.Criteria = nt.Or

	st := NewState()
	st.Set(alice)
	st.Set(bob)
	assert.Equal(t, []int{1, 2}, ids(st.Apply(people)))

	// and across fields
	st.Set(expr(t, activeCol, "true", nil))
	assert.Equal(t, []int{1}, ids(st.Apply(people)))
	assert.Equal(t, []string{"name", "active"}, st.Keys())
}

func TestGroupSetReplacesSameSlot(t *testing.T) {

	st := NewState()
	st.Set(expr(t, nameCol, "contains", "al"))
	st.Set(expr(t, nameCol, "contains", "car"))

	grp, ok := st.Get("name")
	require.True(t, ok)
	require.Len(t, grp.All(), 1)
	assert.Equal(t, "car", grp.All()[0].SearchTerm)
	assert.Equal(t, []int{3}, ids(st.Apply(people)))
}

func TestRemove(t *testing.T) {

	contains := expr(t, nameCol, "contains", "al")
	starts := expr(t, nameCol, "startsWith", "a")

	st := NewState()
	st.Set(contains)
	st.Set(starts)
	require.Len(t, st.Expressions(), 2)

	st.Remove(contains)
	assert.Equal(t, "a", st.Expressions()[0].SearchTerm)
	assert.Equal(t, 1, st.Len())

	st.Remove(starts)
	assert.Equal(t, 0, st.Len())
	_, ok := st.Get("name")
	assert.False(t, ok)
}

func TestApplyEmptyState(t *testing.T) {

	st := NewState()
	out := st.Apply(people)
	assert.Equal(t, []int{1, 2, 3, 4}, ids(out))
	assert.True(t, st.Test(nt.Record{}))
}

func TestClone(t *testing.T) {

	st := NewState()
	st.Set(expr(t, nameCol, "contains", "al"))

	clone := st.Clone()
	st.Set(expr(t, idCol, "equals", 1))
	st.Delete("name")

	assert.Equal(t, []string{"name"}, clone.Keys())
	assert.Equal(t, []int{1, 4}, ids(clone.Apply(people)))
}
