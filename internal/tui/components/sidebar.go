package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hy4ri/taskgrid/internal/router"
	"github.com/hy4ri/taskgrid/internal/tui/styles"
	"github.com/hy4ri/taskgrid/internal/tui/utils"
)

// sidebarChrome is the number of rows inside the border not used by items:
// the title and the blank line below it.
const sidebarChrome = 2

// SidebarModel manages the navigation sidebar.
type SidebarModel struct {
	title         string
	items         []SidebarItem
	cursor        int
	scrollOffset  int
	width, height int
	focused       bool
	active        router.Route
}

// NewSidebar creates a new SidebarModel.
func NewSidebar(title string) *SidebarModel {
	return &SidebarModel{title: title}
}

// Init implements Component.
func (s *SidebarModel) Init() tea.Cmd {
	return nil
}

// Update implements Component.
func (s *SidebarModel) Update(msg tea.Msg) (Component, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		return s.handleKeyMsg(msg)
	}
	return s, nil
}

func (s *SidebarModel) handleKeyMsg(msg tea.KeyMsg) (Component, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		s.MoveCursor(1)
	case "k", "up":
		s.MoveCursor(-1)
	case "G":
		s.cursor = len(s.items)
		s.MoveCursor(-1)
	case "enter", "l":
		return s, s.selectCmd()
	}
	return s, nil
}

func (s *SidebarModel) selectCmd() tea.Cmd {
	item := s.CurrentItem()
	if item == nil || !item.Selectable() {
		return nil
	}
	route := item.Route
	return func() tea.Msg { return RouteSelectedMsg{Route: route} }
}

func (s *SidebarModel) listHeight() int {
	return max(1, s.height-2-sidebarChrome)
}

// View implements Component.
func (s *SidebarModel) View() string {
	var b strings.Builder
	b.WriteString(styles.Title.Render(s.title))
	b.WriteString("\n\n")

	listHeight := s.listHeight()
	s.clampScroll(listHeight)
	start := s.scrollOffset
	end := min(start+listHeight, len(s.items))

	inner := s.width - 4
	for i := start; i < end; i++ {
		b.WriteString(s.renderItem(i, inner))
		b.WriteString("\n")
	}
	if rendered := end - start; rendered < listHeight {
		b.WriteString(strings.Repeat("\n", listHeight-rendered))
	}

	container := styles.Sidebar
	if s.focused {
		container = styles.SidebarFocused
	}
	return container.Width(s.width - 2).Height(max(3, s.height-2)).Render(strings.TrimSuffix(b.String(), "\n"))
}

func (s *SidebarModel) renderItem(i, width int) string {
	item := s.items[i]
	switch item.Kind {
	case ItemSeparator:
		return styles.SidebarSeparator.Render(strings.Repeat("─", max(1, width)))
	case ItemHeader:
		return styles.SidebarHeader.Render(utils.TruncateString(item.Name, width))
	}

	cursor := "  "
	style := styles.SidebarItem
	selected := i == s.cursor && s.focused
	if selected {
		cursor = "> "
		style = styles.SidebarSelected
	} else if item.Route == s.active {
		style = styles.SidebarActive
	}

	count := ""
	if item.Count > 0 {
		count = fmt.Sprintf(" (%d)", item.Count)
	}
	nameWidth := width - 5 - lipgloss.Width(item.Icon) - len(count)
	if nameWidth < 1 {
		count = ""
		nameWidth = width - 5 - lipgloss.Width(item.Icon)
	}
	name := utils.TruncateString(item.Name, nameWidth)

	icon := item.Icon
	if item.Kind == ItemProject {
		icon = lipgloss.NewStyle().Foreground(styles.ProjectColor(item.Color)).Render(icon)
	}
	return style.MaxWidth(width).Render(cursor + icon + " " + name + count)
}

func (s *SidebarModel) clampScroll(listHeight int) {
	if s.cursor < s.scrollOffset {
		s.scrollOffset = s.cursor
	}
	if s.cursor >= s.scrollOffset+listHeight {
		s.scrollOffset = s.cursor - listHeight + 1
	}
	if s.scrollOffset > len(s.items)-listHeight {
		s.scrollOffset = len(s.items) - listHeight
	}
	if s.scrollOffset < 0 {
		s.scrollOffset = 0
	}
}

// SetSize implements Component.
func (s *SidebarModel) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// Focus sets the sidebar as focused.
func (s *SidebarModel) Focus() {
	s.focused = true
}

// Blur removes focus from the sidebar.
func (s *SidebarModel) Blur() {
	s.focused = false
}

// Focused returns whether the sidebar is focused.
func (s *SidebarModel) Focused() bool {
	return s.focused
}

// SetItems replaces the entries, keeping the cursor on a selectable one.
func (s *SidebarModel) SetItems(items []SidebarItem) {
	s.items = items
	if s.cursor >= len(items) {
		s.cursor = len(items) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
	if item := s.CurrentItem(); item != nil && !item.Selectable() {
		s.MoveCursor(1)
	}
}

// SetActive highlights the entry for route and moves the cursor onto it.
func (s *SidebarModel) SetActive(route router.Route) {
	s.active = route
	for i, item := range s.items {
		if item.Selectable() && item.Route == route {
			s.cursor = i
			return
		}
	}
}

// MoveCursor moves the cursor by delta, skipping headers and separators.
func (s *SidebarModel) MoveCursor(delta int) {
	if len(s.items) == 0 {
		return
	}
	step := 1
	if delta < 0 {
		step = -1
	}
	pos := s.cursor + delta
	for pos >= 0 && pos < len(s.items) && !s.items[pos].Selectable() {
		pos += step
	}
	if pos < 0 || pos >= len(s.items) {
		// Ran off the end; stay on the last selectable item in that direction.
		pos = s.cursor
		for next := pos + step; next >= 0 && next < len(s.items); next += step {
			if s.items[next].Selectable() {
				pos = next
			}
		}
	}
	if pos >= 0 && pos < len(s.items) && s.items[pos].Selectable() {
		s.cursor = pos
	}
}

// ItemAt returns the entry drawn on row y of the sidebar, counted from its
// top border.
func (s *SidebarModel) ItemAt(y int) (SidebarItem, bool) {
	i := s.scrollOffset + y - 1 - sidebarChrome
	if y < 1+sidebarChrome || i < 0 || i >= len(s.items) || !s.items[i].Selectable() {
		return SidebarItem{}, false
	}
	return s.items[i], true
}

// Cursor returns the current cursor position.
func (s *SidebarModel) Cursor() int {
	return s.cursor
}

// Items returns the current sidebar items.
func (s *SidebarModel) Items() []SidebarItem {
	return s.items
}

// CurrentItem returns the item at the current cursor position.
func (s *SidebarModel) CurrentItem() *SidebarItem {
	if s.cursor >= 0 && s.cursor < len(s.items) {
		return &s.items[s.cursor]
	}
	return nil
}
