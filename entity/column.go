package entity

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DataType is the kind of value a column holds, selecting its operand set and default ordering.
type DataType string

const (
	String  DataType = "string"
	Number  DataType = "number"
	Boolean DataType = "boolean"
)

// UnmarshalYAML rejects unknown data types.
func (dt *DataType) UnmarshalYAML(node *yaml.Node) (err error) {

	var raw string
	err = node.Decode(&raw)
	if err != nil {
		return
	}

	switch DataType(raw) {
	case "", String, Number, Boolean:
		*dt = DataType(raw)
	default:
		err = errors.Errorf("unknown data type %q at line %d", raw, node.Line)
	}
	return
}

// Column describes how a field of the source records is presented, sorted and filtered.
type Column struct {
	Field               string   `yaml:"field"`
	DataType            DataType `yaml:"data_type,omitempty"`
	Header              string   `yaml:"header,omitempty"`
	Width               int      `yaml:"width,omitempty"`
	Hidden              bool     `yaml:"hidden,omitempty"`
	Sortable            bool     `yaml:"sortable,omitempty"`
	SortCaseSensitive   bool     `yaml:"sort_case_sensitive,omitempty"`
	Filterable          bool     `yaml:"filterable,omitempty"`
	FilterCaseSensitive bool     `yaml:"filter_case_sensitive,omitempty"`

	// Comparer replaces the default ordering for this column when set.
	Comparer Comparer `yaml:"-"`
	// Operands replaces the builtin operand set for the column's data type when set.
	Operands OperandSet `yaml:"-"`
}

// Normalize fills in defaults.
func (col Column) Normalize() Column {
	if col.DataType == "" {
		col.DataType = String
	}
	return col
}

// Title is the header text, falling back to the field path.
func (col Column) Title() string {
	if col.Header != "" {
		return col.Header
	}
	return col.Field
}

// ColumnUpdate is a partial Column keyed by Field; only non-nil members overwrite.
type ColumnUpdate struct {
	Field               string
	DataType            *DataType
	Header              *string
	Width               *int
	Hidden              *bool
	Sortable            *bool
	SortCaseSensitive   *bool
	Filterable          *bool
	FilterCaseSensitive *bool
	Comparer            Comparer
	Operands            OperandSet
}

// Merge applies an update onto a column.
func (col Column) Merge(upd ColumnUpdate) Column {

	if upd.DataType != nil {
		col.DataType = *upd.DataType
	}
	if upd.Header != nil {
		col.Header = *upd.Header
	}
	if upd.Width != nil {
		col.Width = *upd.Width
	}
	if upd.Hidden != nil {
		col.Hidden = *upd.Hidden
	}
	if upd.Sortable != nil {
		col.Sortable = *upd.Sortable
	}
	if upd.SortCaseSensitive != nil {
		col.SortCaseSensitive = *upd.SortCaseSensitive
	}
	if upd.Filterable != nil {
		col.Filterable = *upd.Filterable
	}
	if upd.FilterCaseSensitive != nil {
		col.FilterCaseSensitive = *upd.FilterCaseSensitive
	}
	if upd.Comparer != nil {
		col.Comparer = upd.Comparer
	}
	if upd.Operands != nil {
		col.Operands = upd.Operands
	}

	return col.Normalize()
}

// Ptr returns a pointer to v, for filling in optional members.
func Ptr[T any](v T) *T {
	return &v
}
