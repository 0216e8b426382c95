package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	"charm.land/lipgloss/v2"

	nt "gridlite/entity"
)

// RenderFooter renders the active position, view size and filter count on the left and the
// source name on the right.
func RenderFooter(active nt.ActiveNode, total, filters int, name string, width int) string {

	position := "-"
	if !active.IsIdle() {
		position = fmt.Sprintf("%d", active.Row+1)
	}

	left := fmt.Sprintf("%s/%d", position, total)
	if filters > 0 {
		left += fmt.Sprintf("  %d filter(s)", filters)
	}

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(name), 0)
	return FooterStyle.Render(left + strings.Repeat(" ", padding) + name)
}

// RenderHelp renders key bindings on one line.
func RenderHelp(bindings []key.Binding) string {

	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, fmt.Sprintf("%s %s", help.Key, help.Desc))
	}
	return MutedStyle.Render(strings.Join(parts, " • "))
}
