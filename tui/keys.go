package tui

import (
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"gridlite/navigation"
)

// KeyMap binds terminal keys to grid actions.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	Home        key.Binding
	End         key.Binding
	Sort        key.Binding
	ClearSort   key.Binding
	QuickFilter key.Binding
	RemoveGroup key.Binding
	ClearFilter key.Binding
	Quit        key.Binding
}

// DefaultKeyMap has arrow and vi style movement.
func DefaultKeyMap() KeyMap {

	return KeyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Home:        key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first row")),
		End:         key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last row")),
		Sort:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort column")),
		ClearSort:   key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "clear sort")),
		QuickFilter: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter on cell")),
		RemoveGroup: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "unfilter column")),
		ClearFilter: key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "clear filters")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// Command maps a key press onto a navigation command.
func (km KeyMap) Command(msg tea.KeyPressMsg) (cmd navigation.Command, ok bool) {

	switch {
	case key.Matches(msg, km.Up):
		cmd = navigation.ArrowUp
	case key.Matches(msg, km.Down):
		cmd = navigation.ArrowDown
	case key.Matches(msg, km.Left):
		cmd = navigation.ArrowLeft
	case key.Matches(msg, km.Right):
		cmd = navigation.ArrowRight
	case key.Matches(msg, km.Home):
		cmd = navigation.Home
	case key.Matches(msg, km.End):
		cmd = navigation.End
	default:
		return
	}

	ok = true
	return
}

// Help lists the bindings for the footer.
func (km KeyMap) Help() []key.Binding {
	return []key.Binding{km.Sort, km.QuickFilter, km.RemoveGroup, km.ClearFilter, km.Quit}
}
