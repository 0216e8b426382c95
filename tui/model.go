// Package tui renders a Grid in the terminal and forwards key presses to it.
package tui

import (
	"context"
	"slices"

	tea "charm.land/bubbletea/v2"
	"charm.land/bubbles/v2/key"
	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"gridlite"
	nt "gridlite/entity"
)

const (
	headerHeight = 2
	footerHeight = 2
	minWidth     = 8
)

// Model is the bubbletea model for the grid.
type Model struct {
	Name string

	grid    *gridlite.Grid
	window  *Window
	keys    KeyMap
	changes chan gridlite.Change

	ctx         context.Context
	logger      nt.Logger
	errorString string

	width  int
	height int
}

// New attaches a window to grid and observes it for redraws.
func New(ctx context.Context, grid *gridlite.Grid, name string, lgr nt.Logger) Model {

	if lgr == nil {
		lgr = nt.NopLogger{}
	}

	m := Model{
		Name:    name,
		grid:    grid,
		window:  NewWindow(),
		keys:    DefaultKeyMap(),
		changes: make(chan gridlite.Change, 64),
		ctx:     ctx,
		logger:  lgr,
	}

	grid.Attach(m.window)
	grid.Observe(func(chg gridlite.Change) {
		if chg.Kind == gridlite.StateChanged {
			return
		}
		select {
		case m.changes <- chg:
		default:
			// a redraw is already queued
		}
	})

	m.layoutColumns()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.listen()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {

	switch msg := msg.(type) {

	case SettledMsg:
		if msg.Change.Err != nil {
			m.errorString = msg.Change.Err.Error()
		}
		m.layoutColumns()
		return m, m.listen()

	case ErrorMsg:
		m.logger.Error(m.ctx, "grid operation failed", msg.Err)
		m.errorString = msg.Err.Error()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.window.Resize(msg.Height-headerHeight-footerHeight, msg.Width)
		m.layoutColumns()
		return m, nil

	case tea.KeyPressMsg:
		m.errorString = ""

		if cmd, ok := m.keys.Command(msg); ok {
			m.grid.Navigate(cmd)
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Sort):
			field := m.activeField()
			return m, m.do(func(ctx context.Context) error {
				return m.grid.SortFromHeader(ctx, field)
			})

		case key.Matches(msg, m.keys.ClearSort):
			m.grid.ClearSort(m.ctx)

		case key.Matches(msg, m.keys.QuickFilter):
			return m, m.quickFilter()

		case key.Matches(msg, m.keys.RemoveGroup):
			field := m.activeField()
			return m, m.do(func(ctx context.Context) error {
				return m.grid.RemoveAllExpressions(ctx, field)
			})

		case key.Matches(msg, m.keys.ClearFilter):
			m.grid.ClearFilter(m.ctx)
		}
	}

	return m, nil
}

func (m Model) View() tea.View {

	if m.width == 0 {
		return tea.NewView("Loading...")
	}

	screenLayer := lipgloss.NewLayer("screen", m.renderTable())

	footer := RenderFooter(m.grid.Active(), m.grid.TotalItems(), len(m.grid.FilterExpressions()), m.Name, m.width)
	if m.errorString != "" {
		footer = ErrorStyle.Render(m.errorString)
	}
	footerLayer := lipgloss.NewLayer("footer", footer+"\n"+RenderHelp(m.keys.Help())).Y(m.height - footerHeight)

	canvas := lipgloss.NewCanvas(m.width, m.height)
	canvas.Compose(screenLayer)
	canvas.Compose(footerLayer)

	view := tea.NewView(canvas)
	view.AltScreen = true
	return view
}

// unexported

func (m Model) listen() tea.Cmd {
	return func() tea.Msg {
		chg, ok := <-m.changes
		if !ok {
			return nil
		}
		return SettledMsg{Change: chg}
	}
}

func (m Model) do(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		err := fn(m.ctx)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return nil
	}
}

// quickFilter filters the active column on the active cell's value.
func (m Model) quickFilter() tea.Cmd {

	active := m.grid.Active()
	view := m.grid.DataView()
	if active.IsIdle() || active.Row >= len(view) {
		return nil
	}

	expr, err := m.grid.DefaultExpression(active.Column)
	if err != nil {
		return func() tea.Msg { return ErrorMsg{Err: err} }
	}

	val := nt.Resolve(view[active.Row], active.Column)
	switch {
	case val.Empty():
		expr.Condition = nt.Condition("empty")
	case val.IsString():
		expr.SearchTerm = val.Raw
	default:
		expr.Condition = nt.Condition("equals")
		expr.SearchTerm = val.Raw
	}

	return m.do(func(ctx context.Context) error {
		return m.grid.FilterWithEvent(ctx, expr, gridlite.Add)
	})
}

func (m Model) activeField() string {

	active := m.grid.Active()
	if !active.IsIdle() {
		return active.Column
	}

	visible := m.grid.VisibleColumns()
	if len(visible) == 0 {
		return ""
	}
	return visible[0]
}

func (m Model) visibleColumns() (columns []nt.Column) {
	for _, col := range m.grid.Columns() {
		if !col.Hidden {
			columns = append(columns, col)
		}
	}
	return
}

func (m Model) layoutColumns() {

	columns := m.visibleColumns()
	fields := make([]string, len(columns))
	widths := make([]int, len(columns))
	for i, col := range columns {
		fields[i] = col.Field
		widths[i] = columnWidth(col) + cellPaddingR
	}
	m.window.SetColumns(fields, widths)
}

func (m Model) renderTable() string {

	view := m.grid.DataView()
	columns := m.visibleColumns()

	from, to := m.window.Rows(len(view))
	colFrom, colTo := m.window.Columns()
	colTo = min(colTo, len(columns))
	colFrom = min(colFrom, colTo)
	columns = columns[colFrom:colTo]

	directions := map[string]string{}
	for _, expr := range m.grid.SortingExpressions() {
		directions[expr.Key] = expr.Direction.String()
	}

	headers := make([]string, len(columns))
	for i, col := range columns {
		title := col.Title()
		if glyph, ok := sortGlyphs[directions[col.Field]]; ok {
			title += " " + glyph
		}
		headers[i] = truncate(title, columnWidth(col))
	}

	rows := make([][]string, 0, to-from)
	for _, rec := range view[from:to] {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = truncate(nt.Resolve(rec, col.Field).String(), columnWidth(col))
		}
		rows = append(rows, row)
	}

	activeRow, activeCol := -1, -1
	active := m.grid.Active()
	if !active.IsIdle() {
		activeRow = active.Row - from
		activeCol = slices.IndexFunc(columns, func(col nt.Column) bool { return col.Field == active.Column })
	}

	tbl := StyleTable(table.New()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(CellStyler(activeRow, activeCol))

	return tbl.Render()
}

func columnWidth(col nt.Column) int {
	if col.Width > 0 {
		return col.Width
	}
	return max(lipgloss.Width(col.Title())+2, minWidth)
}

func truncate(in string, width int) string {

	runes := []rune(in)
	if len(runes) <= width || width < 1 {
		return in
	}
	return string(runes[:width-1]) + MutedStyle.Render(ellipsis)
}
