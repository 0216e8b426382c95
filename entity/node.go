package entity

import "fmt"

// ActiveNode is the highlighted cell: either idle or a (row, column) pair.
// The zero value is idle.
type ActiveNode struct {
	Column string
	Row    int
	active bool
}

// Active returns a node at row and column.
func Active(column string, row int) ActiveNode {
	return ActiveNode{Column: column, Row: row, active: true}
}

// Idle returns the "no active node" value.
func Idle() ActiveNode {
	return ActiveNode{}
}

// IsIdle is true when no cell is active.
func (node ActiveNode) IsIdle() bool {
	return !node.active
}

func (node ActiveNode) String() string {
	if !node.active {
		return "idle"
	}
	return fmt.Sprintf("%s@%d", node.Column, node.Row)
}
