package tui

import (
	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

var (
	BorderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")) // Subtle warm grey border
	HeaderStyle  = lipgloss.NewStyle().Bold(true)
	HlRowStyle   = lipgloss.NewStyle().Background(lipgloss.Color("235")) // Very subtle warm grey row
	HlColStyle   = lipgloss.NewStyle().Background(lipgloss.Color("234")) // Twice as subtle
	HlCellStyle  = lipgloss.NewStyle().Background(lipgloss.Color("237")) // Slightly warmer cell
	MutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("246")) // Warm muted grey text
	FooterStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	UnStyle      = lipgloss.NewStyle()
	sortGlyphs   = map[string]string{"ascending": "▲", "descending": "▼"}
	ellipsis     = "…"
	cellPaddingR = 1
)

// CellStyler highlights the active cell, its row and its column.
// Rows and columns are relative to the rendered window; -1 highlights nothing.
func CellStyler(activeRow, activeCol int) func(row, col int) lipgloss.Style {
	return func(row, col int) lipgloss.Style {

		if row == table.HeaderRow {
			return HeaderStyle.PaddingRight(cellPaddingR)
		}

		rowMatch := row == activeRow
		colMatch := col == activeCol

		var style lipgloss.Style
		switch {
		case rowMatch && colMatch:
			style = HlCellStyle
		case rowMatch:
			style = HlRowStyle
		case colMatch:
			style = HlColStyle
		default:
			style = UnStyle
		}
		return style.PaddingRight(cellPaddingR)
	}
}

// StyleTable applies borders: a single rule under the header.
func StyleTable(tbl *table.Table) *table.Table {

	return tbl.Border(lipgloss.Border{
		Top:         "─",
		Middle:      "─",
		MiddleLeft:  "─",
		MiddleRight: "─",
	}).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderStyle(BorderStyle)
}
