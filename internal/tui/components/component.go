// Package components holds the sidebar, task list, calendar and help panes
// of the taskgrid TUI.
package components

import tea "github.com/charmbracelet/bubbletea"

// Component is a pane owned by the App. The App sizes it and forwards the
// keys it does not handle itself.
type Component interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Component, tea.Cmd)
	View() string
	SetSize(width, height int)
}

// Focusable panes draw a highlighted border and react to keys only while
// focused.
type Focusable interface {
	Component
	Focus()
	Blur()
	Focused() bool
}

var (
	_ Focusable = (*SidebarModel)(nil)
	_ Focusable = (*TaskListModel)(nil)
	_ Focusable = (*CalendarModel)(nil)
	_ Component = (*HelpModel)(nil)
)

// FocusOnly focuses target and blurs every other pane.
func FocusOnly(target Focusable, panes ...Focusable) {
	for _, p := range panes {
		if p != target {
			p.Blur()
		}
	}
	target.Focus()
}
