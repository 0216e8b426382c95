// Package navigation tracks the active cell and moves it in response to directional commands.
package navigation

import (
	"slices"
	"sync"

	nt "gridlite/entity"
)

// Command is a directional key.
type Command string

const (
	ArrowDown  Command = "ArrowDown"
	ArrowUp    Command = "ArrowUp"
	ArrowLeft  Command = "ArrowLeft"
	ArrowRight Command = "ArrowRight"
	Home       Command = "Home"
	End        Command = "End"
)

// Bounds supplies the current extent of the grid.
type Bounds interface {
	// TotalRows is the length of the published view.
	TotalRows() int
	// VisibleColumns lists the fields of non-hidden columns in display order.
	VisibleColumns() []string
}

// RowHandle is an on-screen row materialized by the viewport.
type RowHandle interface {
	ScrollToColumn(field string)
}

// Viewport is the windowing collaborator that brings cells into view.
type Viewport interface {
	ScrollToRow(index int)
	// ResolveRow returns nil when the row is not materialized.
	ResolveRow(index int) RowHandle
}

// Navigator owns the active node.
type Navigator struct {
	bounds   Bounds
	onChange func(prev, next nt.ActiveNode)

	mu       sync.Mutex
	viewport Viewport
	active   nt.ActiveNode
	previous nt.ActiveNode
}

// New creates a Navigator in the idle state; onChange may be nil.
func New(bounds Bounds, onChange func(prev, next nt.ActiveNode)) *Navigator {

	return &Navigator{
		bounds:   bounds,
		onChange: onChange,
	}
}

// Attach sets the viewport; nil detaches.
func (nav *Navigator) Attach(vp Viewport) {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	nav.viewport = vp
}

// Active returns the active node.
func (nav *Navigator) Active() nt.ActiveNode {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.active
}

// Previous returns the node that was active before the latest change.
func (nav *Navigator) Previous() nt.ActiveNode {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.previous
}

// SetActive replaces the active node, as when a cell is clicked.
// A column that is not visible, or an empty view, leaves the navigator idle;
// the row is clamped to the view.
func (nav *Navigator) SetActive(node nt.ActiveNode) {

	if !node.IsIdle() {
		total := nav.bounds.TotalRows()
		if total == 0 || !slices.Contains(nav.bounds.VisibleColumns(), node.Column) {
			node = nt.Idle()
		} else {
			node.Row = clamp(node.Row, total-1)
		}
	}

	nav.set(node)
}

// Navigate applies a command, returning false for keys it does not handle.
// Moves are clamped to the bounds; at a boundary the node is left unchanged.
func (nav *Navigator) Navigate(cmd Command) bool {

	switch cmd {
	case ArrowDown, ArrowUp, ArrowLeft, ArrowRight, Home, End:
	default:
		return false
	}

	columns := nav.bounds.VisibleColumns()
	if len(columns) == 0 {
		return true
	}
	last := max(nav.bounds.TotalRows()-1, 0)

	next := nav.baseline(columns, last)
	idx := max(slices.Index(columns, next.Column), 0)

	switch cmd {
	case ArrowDown:
		next.Row = min(next.Row+1, last)
	case ArrowUp:
		next.Row = max(next.Row-1, 0)
	case ArrowLeft:
		next.Column = columns[max(idx-1, 0)]
	case ArrowRight:
		next.Column = columns[min(idx+1, len(columns)-1)]
	case Home:
		next.Row = 0
	case End:
		next.Row = last
	}

	nav.set(next)

	switch cmd {
	case ArrowLeft, ArrowRight:
		nav.scrollToCell(next)
	default:
		nav.scrollToRow(next.Row)
	}
	return true
}

// Revalidate clears an active node whose column is no longer visible or whose view is empty,
// and clamps its row to the view. It reports whether the node changed.
func (nav *Navigator) Revalidate() bool {

	node := nav.Active()
	if node.IsIdle() {
		return false
	}

	total := nav.bounds.TotalRows()
	switch {
	case total == 0, !slices.Contains(nav.bounds.VisibleColumns(), node.Column):
		node = nt.Idle()
	case node.Row > total-1:
		node = nt.Active(node.Column, total-1)
	default:
		return false
	}

	nav.set(node)
	return true
}

// Disconnect resets to idle and forgets the previous node.
func (nav *Navigator) Disconnect() {

	nav.mu.Lock()
	prev := nav.active
	nav.active = nt.Idle()
	nav.previous = nt.Idle()
	nav.mu.Unlock()

	if !prev.IsIdle() && nav.onChange != nil {
		nav.onChange(prev, nt.Idle())
	}
}

// unexported

func (nav *Navigator) baseline(columns []string, last int) nt.ActiveNode {

	node := nav.Active()
	if node.IsIdle() {
		return nt.Active(columns[0], 0)
	}
	if !slices.Contains(columns, node.Column) {
		node.Column = columns[0]
	}
	node.Row = clamp(node.Row, last)
	return node
}

func clamp(row, last int) int {
	return min(max(row, 0), max(last, 0))
}

func (nav *Navigator) set(node nt.ActiveNode) {

	nav.mu.Lock()
	prev := nav.active
	if prev == node {
		nav.mu.Unlock()
		return
	}
	nav.previous = prev
	nav.active = node
	nav.mu.Unlock()

	if nav.onChange != nil {
		nav.onChange(prev, node)
	}
}

func (nav *Navigator) scrollToRow(row int) {

	vp := nav.currentViewport()
	if vp == nil {
		return
	}
	vp.ScrollToRow(row)
}

func (nav *Navigator) scrollToCell(node nt.ActiveNode) {

	vp := nav.currentViewport()
	if vp == nil {
		return
	}
	handle := vp.ResolveRow(node.Row)
	if handle == nil {
		return
	}
	handle.ScrollToColumn(node.Column)
}

func (nav *Navigator) currentViewport() Viewport {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.viewport
}
