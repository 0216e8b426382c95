package tui

import (
	"slices"
	"sync"

	"gridlite/navigation"
)

// Window is the slice of the view that fits the terminal: a run of rows from Offset and a run of
// columns from ColOffset. It implements navigation.Viewport.
type Window struct {
	mu        sync.Mutex
	offset    int
	colOffset int
	rows      int
	width     int
	fields    []string
	widths    []int
}

// NewWindow creates an empty window.
func NewWindow() *Window {
	return &Window{rows: 1}
}

// Resize sets the number of rows and the width in cells available.
func (win *Window) Resize(rows, width int) {
	win.mu.Lock()
	defer win.mu.Unlock()

	win.rows = max(rows, 1)
	win.width = width
}

// SetColumns sets the visible fields and their rendered widths.
func (win *Window) SetColumns(fields []string, widths []int) {
	win.mu.Lock()
	defer win.mu.Unlock()

	win.fields = fields
	win.widths = widths
	win.colOffset = min(win.colOffset, max(len(fields)-1, 0))
}

// Rows returns the half-open range of view rows in the window, clamped to total.
func (win *Window) Rows(total int) (from, to int) {
	win.mu.Lock()
	defer win.mu.Unlock()

	from = min(win.offset, max(total-1, 0))
	to = min(from+win.rows, total)
	return
}

// Columns returns the half-open range of visible field indexes that fit the width.
func (win *Window) Columns() (from, to int) {
	win.mu.Lock()
	defer win.mu.Unlock()

	from = win.colOffset
	to = from
	used := 0
	for to < len(win.widths) {
		if to > from && used+win.widths[to] > win.width {
			break
		}
		used += win.widths[to]
		to++
	}
	return
}

// ScrollToRow brings a row into the window, moving it as little as possible.
func (win *Window) ScrollToRow(index int) {
	win.mu.Lock()
	defer win.mu.Unlock()

	win.scrollToRow(index)
}

// ResolveRow returns a handle for a row in the window, or nil.
func (win *Window) ResolveRow(index int) navigation.RowHandle {
	win.mu.Lock()
	defer win.mu.Unlock()

	if index < win.offset || index >= win.offset+win.rows {
		return nil
	}
	return rowHandle{win: win}
}

// unexported

type rowHandle struct {
	win *Window
}

// ScrollToColumn brings a field into the window horizontally.
func (rh rowHandle) ScrollToColumn(field string) {
	win := rh.win
	win.mu.Lock()
	defer win.mu.Unlock()

	idx := slices.Index(win.fields, field)
	if idx == -1 {
		return
	}

	if idx < win.colOffset {
		win.colOffset = idx
		return
	}
	for win.colOffset < idx && win.span(win.colOffset, idx) > win.width {
		win.colOffset++
	}
}

func (win *Window) scrollToRow(index int) {

	switch {
	case index < win.offset:
		win.offset = max(index, 0)
	case index >= win.offset+win.rows:
		win.offset = index - win.rows + 1
	}
}

func (win *Window) span(from, to int) (total int) {
	for _, width := range win.widths[from : to+1] {
		total += width
	}
	return
}
