package entity

import (
	"strings"

	"github.com/pkg/errors"
)

// FilterOp identifies a filter predicate.
type FilterOp int

const (
	// Custom marks a caller supplied predicate
	Custom FilterOp = iota

	// Textual
	Contains
	DoesNotContain
	StartsWith
	EndsWith

	// Comparison
	Equals
	DoesNotEqual
	GreaterThan
	LessThan
	GreaterThanOrEqual
	LessThanOrEqual
	Between

	// Boolean
	True
	False

	// Presence
	Empty
	NotEmpty
)

// Criteria joins a filter expression to the ones before it in its group.
type Criteria int

const (
	And Criteria = iota
	Or
)

// String returns the criteria name.
func (cr Criteria) String() string {
	if cr == Or {
		return "or"
	}
	return "and"
}

// ParseCriteria parses "and" or "or"; empty means and.
func ParseCriteria(str string) (cr Criteria, err error) {

	switch strings.ToLower(str) {
	case "", "and":
		cr = And
	case "or":
		cr = Or
	default:
		err = errors.Errorf("unknown criteria %q", str)
	}
	return
}

// Predicate tests a resolved field value against a search term.
type Predicate func(value, term Value) bool

// Operand is a named predicate.
// An Operand with only a Name is symbolic and must be resolved against a column's OperandSet.
type Operand struct {
	Op   FilterOp
	Name string
	Test Predicate
}

// Condition returns a symbolic operand for resolution by name.
func Condition(name string) Operand {
	return Operand{Name: name}
}

// Resolved is true once the operand carries a predicate.
func (op Operand) Resolved() bool {
	return op.Test != nil
}

// Match applies the predicate, lowercasing textual values unless case sensitive.
func (op Operand) Match(value, term Value, caseSensitive bool) bool {

	if op.Test == nil {
		return false
	}
	if !caseSensitive {
		value, term = value.Lower(), term.Lower()
	}
	return op.Test(value, term)
}

// OperandSet is the ordered collection of operands legal for a data type; the first is the default.
type OperandSet []Operand

// Lookup finds an operand by name.
func (set OperandSet) Lookup(name string) (Operand, bool) {
	for _, op := range set {
		if op.Name == name {
			return op, true
		}
	}
	return Operand{}, false
}

// Names lists the operand names in order.
func (set OperandSet) Names() []string {
	names := make([]string, len(set))
	for i, op := range set {
		names[i] = op.Name
	}
	return names
}

// FilterExpression is one condition on a field.
type FilterExpression struct {
	Key        string
	Condition  Operand
	SearchTerm any
	// CaseSensitive falls back to the column's setting when nil.
	CaseSensitive *bool
	Criteria      Criteria
}

// Sensitive reports the effective case sensitivity.
func (expr FilterExpression) Sensitive() bool {
	return expr.CaseSensitive != nil && *expr.CaseSensitive
}

// Test evaluates the expression against a record.
func (expr FilterExpression) Test(rec Record) bool {
	return expr.Condition.Match(Resolve(rec, expr.Key), Value{Raw: expr.SearchTerm}, expr.Sensitive())
}

// Same is true when two expressions occupy the same slot in a group: same condition and criteria.
func (expr FilterExpression) Same(other FilterExpression) bool {
	return expr.Key == other.Key &&
		expr.Condition.Op == other.Condition.Op &&
		expr.Condition.Name == other.Condition.Name &&
		expr.Criteria == other.Criteria
}
