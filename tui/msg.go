package tui

import "gridlite"

// SettledMsg signals that the grid published a view or moved its active node.
type SettledMsg struct {
	Change gridlite.Change
}

// ErrorMsg carries a failed grid operation.
type ErrorMsg struct {
	Err error
}
