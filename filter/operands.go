package filter

import (
	"fmt"
	"strings"

	nt "gridlite/entity"
)

// Builtin operand sets by data type.
// A record with no value at the field fails every operand except empty.
var (
	StringOperands = nt.OperandSet{
		{Op: nt.Contains, Name: "contains", Test: textual(strings.Contains)},
		{Op: nt.DoesNotContain, Name: "doesNotContain", Test: textual(func(s, t string) bool { return !strings.Contains(s, t) })},
		{Op: nt.StartsWith, Name: "startsWith", Test: textual(strings.HasPrefix)},
		{Op: nt.EndsWith, Name: "endsWith", Test: textual(strings.HasSuffix)},
		{Op: nt.Equals, Name: "equals", Test: textual(func(s, t string) bool { return s == t })},
		{Op: nt.DoesNotEqual, Name: "doesNotEqual", Test: textual(func(s, t string) bool { return s != t })},
		{Op: nt.Empty, Name: "empty", Test: empty},
		{Op: nt.NotEmpty, Name: "notEmpty", Test: notEmpty},
	}

	NumberOperands = nt.OperandSet{
		{Op: nt.Equals, Name: "equals", Test: numeric(func(n, t float64) bool { return n == t })},
		{Op: nt.DoesNotEqual, Name: "doesNotEqual", Test: numeric(func(n, t float64) bool { return n != t })},
		{Op: nt.GreaterThan, Name: "greaterThan", Test: numeric(func(n, t float64) bool { return n > t })},
		{Op: nt.LessThan, Name: "lessThan", Test: numeric(func(n, t float64) bool { return n < t })},
		{Op: nt.GreaterThanOrEqual, Name: "greaterThanOrEqual", Test: numeric(func(n, t float64) bool { return n >= t })},
		{Op: nt.LessThanOrEqual, Name: "lessThanOrEqual", Test: numeric(func(n, t float64) bool { return n <= t })},
		{Op: nt.Between, Name: "between", Test: between},
		{Op: nt.Empty, Name: "empty", Test: empty},
		{Op: nt.NotEmpty, Name: "notEmpty", Test: notEmpty},
	}

	BooleanOperands = nt.OperandSet{
		{Op: nt.Equals, Name: "equals", Test: boolean},
		{Op: nt.True, Name: "true", Test: is(true)},
		{Op: nt.False, Name: "false", Test: is(false)},
		{Op: nt.Empty, Name: "empty", Test: empty},
		{Op: nt.NotEmpty, Name: "notEmpty", Test: notEmpty},
	}
)

// UnknownOperandError reports a condition name not legal for a column's data type.
type UnknownOperandError struct {
	Field    string
	Name     string
	DataType nt.DataType
}

func (err *UnknownOperandError) Error() string {
	return fmt.Sprintf("no %s operand named %q for field %q", err.DataType, err.Name, err.Field)
}

// For returns the operand set for a column: its own when declared, else the builtin for its data type.
func For(col nt.Column) nt.OperandSet {

	if len(col.Operands) > 0 {
		return col.Operands
	}

	switch col.Normalize().DataType {
	case nt.Number:
		return NumberOperands
	case nt.Boolean:
		return BooleanOperands
	}
	return StringOperands
}

// Resolve finds the named operand in a column's set.
// An empty name resolves to the set's default, the first operand.
func Resolve(col nt.Column, name string) (op nt.Operand, err error) {

	set := For(col)
	if name == "" && len(set) > 0 {
		op = set[0]
		return
	}

	op, ok := set.Lookup(name)
	if !ok {
		err = &UnknownOperandError{Field: col.Field, Name: name, DataType: col.Normalize().DataType}
	}
	return
}

// unexported

func textual(fn func(value, term string) bool) nt.Predicate {
	return func(value, term nt.Value) bool {
		if value.Raw == nil {
			return false
		}
		return fn(value.String(), term.String())
	}
}

func numeric(fn func(value, term float64) bool) nt.Predicate {
	return func(value, term nt.Value) bool {
		if value.Raw == nil {
			return false
		}
		n, err := value.Number()
		if err != nil {
			return false
		}
		t, err := term.Number()
		if err != nil {
			return false
		}
		return fn(n, t)
	}
}

func between(value, term nt.Value) bool {

	lo, hi, err := term.Range()
	if err != nil {
		return false
	}
	return numeric(func(n, t float64) bool { return n >= t })(value, lo) &&
		numeric(func(n, t float64) bool { return n <= t })(value, hi)
}

func boolean(value, term nt.Value) bool {

	b, err := value.Bool()
	if err != nil {
		return false
	}
	t, err := term.Bool()
	if err != nil {
		return false
	}
	return b == t
}

func is(want bool) nt.Predicate {
	return func(value, _ nt.Value) bool {
		b, err := value.Bool()
		return err == nil && b == want
	}
}

func empty(value, _ nt.Value) bool {
	return value.Empty()
}

func notEmpty(value, _ nt.Value) bool {
	return !value.Empty()
}
