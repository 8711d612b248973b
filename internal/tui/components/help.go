package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hy4ri/taskgrid/internal/tui/styles"
)

// HelpClosedMsg is emitted when the help overlay is dismissed.
type HelpClosedMsg struct{}

// HelpModel renders the keyboard shortcut overlay.
type HelpModel struct {
	width, height int
	title, footer string
	// keymap rows are {key, description}; a row with an empty description
	// starts a section named by its key.
	keymap [][]string
}

// NewHelp creates a new HelpModel.
func NewHelp(title, footer string) *HelpModel {
	return &HelpModel{title: title, footer: footer}
}

// Init implements Component.
func (h *HelpModel) Init() tea.Cmd {
	return nil
}

// Update implements Component.
func (h *HelpModel) Update(msg tea.Msg) (Component, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc", "?", "q":
			return h, func() tea.Msg { return HelpClosedMsg{} }
		}
	}
	return h, nil
}

// View implements Component.
func (h *HelpModel) View() string {
	if len(h.keymap) == 0 {
		return styles.Dialog.Render(h.title)
	}

	sections := h.sections()
	half := (len(sections) + 1) / 2

	var col1, col2 strings.Builder
	for i, section := range sections {
		col := &col1
		if i >= half {
			col = &col2
		}
		col.WriteString(section)
	}

	colWidth := min(h.width/2, 50)
	columnStyle := lipgloss.NewStyle().Width(colWidth).PaddingLeft(2).PaddingRight(2)

	var b strings.Builder
	b.WriteString(styles.Title.Render(h.title))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		columnStyle.Render(col1.String()),
		columnStyle.Render(col2.String()),
	))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(h.width).Align(lipgloss.Center).Render(styles.HelpDesc.Render(h.footer)))
	return b.String()
}

func (h *HelpModel) sections() []string {
	keyStyle := styles.HelpKey.Width(12).Align(lipgloss.Right).PaddingRight(2)

	var out []string
	var cur strings.Builder
	for _, item := range h.keymap {
		if len(item) < 2 {
			continue
		}
		key, desc := item[0], item[1]
		if desc == "" {
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
			cur.WriteString("\n" + styles.SectionHeader.Render(" "+key+" ") + "\n")
			continue
		}
		cur.WriteString(keyStyle.Render(key) + styles.HelpDesc.Render(desc) + "\n")
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// SetSize implements Component.
func (h *HelpModel) SetSize(width, height int) {
	h.width = width
	h.height = height
}

// SetKeymap sets the help rows.
func (h *HelpModel) SetKeymap(items [][]string) {
	h.keymap = items
}
