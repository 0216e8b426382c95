package entity

import (
	"strings"

	"github.com/pkg/errors"
)

// Direction of a sort expression.
type Direction int

const (
	Ascending Direction = iota
	Descending
	None
)

// String returns the direction name.
func (dir Direction) String() string {
	switch dir {
	case Ascending:
		return "ascending"
	case Descending:
		return "descending"
	}
	return "none"
}

// Next advances through the tri-state cycle ascending, descending, none.
func (dir Direction) Next() Direction {
	switch dir {
	case Ascending:
		return Descending
	case Descending:
		return None
	}
	return Ascending
}

// ParseDirection accepts long and short direction names.
func ParseDirection(str string) (dir Direction, err error) {

	switch strings.ToLower(str) {
	case "", "asc", "ascending":
		dir = Ascending
	case "desc", "descending":
		dir = Descending
	case "none":
		dir = None
	default:
		err = errors.Errorf("unknown sort direction %q", str)
	}
	return
}

// Comparer orders two resolved field values: negative, zero or positive.
type Comparer func(a, b Value) int

// SortExpression is one key of a multi-key sort.
type SortExpression struct {
	Key       string
	Direction Direction
	// CaseSensitive and Comparer fall back to the column's settings when nil.
	CaseSensitive *bool
	Comparer      Comparer
}
