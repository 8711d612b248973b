// Package styles provides Lip Gloss styles for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hy4ri/taskgrid/internal/model"
)

// Terminal-adaptive colors that work in both light and dark terminals.
var (
	// Subtle is a muted color for secondary text
	Subtle = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"}

	// Highlight is the accent color for selected items
	Highlight = lipgloss.AdaptiveColor{Light: "#3D6DCC", Dark: "#6E9BF5"}

	// Special colors
	ErrorColor   = lipgloss.AdaptiveColor{Light: "#FF0000", Dark: "#FF6666"}
	SuccessColor = lipgloss.AdaptiveColor{Light: "#00AA00", Dark: "#66FF66"}
	WarningColor = lipgloss.AdaptiveColor{Light: "#FFAA00", Dark: "#FFCC66"}

	selectionBg = lipgloss.AdaptiveColor{Light: "#EEEEEE", Dark: "#2A2A2A"}
	barBg       = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#1F1F1F"}
)

// Priority colors, high to low.
var (
	PriorityHighColor   = lipgloss.Color("#D0473D")
	PriorityNormalColor = lipgloss.Color("#EA8811")
	PriorityLowColor    = lipgloss.Color("")
)

// Base styles
var (
	// Title is the style for section titles
	// NOTE: No margins - they break viewport scroll sync line counting
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Highlight)

	Subtitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Subtle)
)

// Task styles
var (
	TaskItem = lipgloss.NewStyle().
			PaddingLeft(2)

	TaskSelected = lipgloss.NewStyle().
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeftForeground(Highlight).
			Bold(true).
			Background(selectionBg)

	TaskCompleted = lipgloss.NewStyle().
			PaddingLeft(2).
			Faint(true).
			Strikethrough(true)

	TaskDue = lipgloss.NewStyle().
		Foreground(Subtle).
		PaddingLeft(1)

	TaskDueOverdue = lipgloss.NewStyle().
			Foreground(ErrorColor).
			PaddingLeft(1)

	TaskDueToday = lipgloss.NewStyle().
			Foreground(SuccessColor).
			PaddingLeft(1)

	TaskTag = lipgloss.NewStyle().
		Foreground(Highlight).
		PaddingLeft(1)

	TaskReminder = lipgloss.NewStyle().
			Foreground(WarningColor).
			PaddingLeft(1)
)

// Priority styles
var (
	TaskPriorityHigh   = lipgloss.NewStyle().Foreground(PriorityHighColor)
	TaskPriorityNormal = lipgloss.NewStyle().Foreground(PriorityNormalColor)
	TaskPriorityLow    = lipgloss.NewStyle()
)

// PriorityStyle returns the style for a task priority.
func PriorityStyle(p model.Priority) lipgloss.Style {
	switch p {
	case model.PriorityHigh:
		return TaskPriorityHigh
	case model.PriorityNormal:
		return TaskPriorityNormal
	default:
		return TaskPriorityLow
	}
}

// ProjectColor returns the project's color, or Subtle when it has none.
func ProjectColor(color *string) lipgloss.TerminalColor {
	if color == nil || *color == "" {
		return Subtle
	}
	return lipgloss.Color(*color)
}

// Sidebar styles
var (
	Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Subtle).
		Padding(0, 1)

	SidebarFocused = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Highlight).
			Padding(0, 1)

	SidebarHeader = lipgloss.NewStyle().
			Foreground(Subtle).
			Bold(true)

	SidebarSeparator = lipgloss.NewStyle().
				Foreground(Subtle).
				Faint(true)

	SidebarItem = lipgloss.NewStyle().
			PaddingLeft(1)

	SidebarSelected = lipgloss.NewStyle().
			PaddingLeft(1).
			Bold(true).
			Background(lipgloss.AdaptiveColor{Light: "#EEEEEE", Dark: "#333333"})

	// SidebarActive is for the current route when the sidebar is not focused
	SidebarActive = lipgloss.NewStyle().
			PaddingLeft(1).
			Foreground(Highlight).
			Bold(true)
)

// StatusBar styles
var (
	StatusBar = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}).
			Background(barBg).
			Padding(0, 1)

	StatusBarKey = lipgloss.NewStyle().
			Bold(true).
			Foreground(Highlight).
			Background(barBg)

	StatusBarText = lipgloss.NewStyle().
			Foreground(Subtle).
			Background(barBg)

	StatusBarError = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Background(barBg).
			Bold(true)

	StatusBarSuccess = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Background(barBg).
				Bold(true)
)

// Sync indicator styles, one per connection state.
var (
	SyncOff     = lipgloss.NewStyle().Foreground(Subtle)
	SyncBusy    = lipgloss.NewStyle().Foreground(WarningColor)
	SyncOK      = lipgloss.NewStyle().Foreground(SuccessColor)
	SyncProblem = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
)

// Help styles
var (
	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(Highlight)

	HelpDesc = lipgloss.NewStyle().
			Foreground(Subtle)
)

// Input styles
var (
	Input = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Subtle).
		Padding(0, 1)

	InputFocused = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Highlight).
			Padding(0, 1)

	InputLabel = lipgloss.NewStyle().
			Bold(true)

	InputError = lipgloss.NewStyle().
			Foreground(ErrorColor)
)

// Dialog styles
var (
	Dialog = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Highlight).
		Padding(1, 2)

	DialogTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Highlight).
			MarginBottom(1)

	// Banner is the in-app reminder shown when desktop notifications are
	// unavailable.
	Banner = lipgloss.NewStyle().
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(WarningColor).
		Padding(0, 1)

	Tooltip = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Subtle).
		Padding(0, 1)
)

var Spinner = lipgloss.NewStyle().
	Foreground(Highlight)

// NOTE: No margins here - they add extra lines that break viewport scroll sync.
var (
	SectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(Subtle).
			Underline(true)

	SectionOverdue = lipgloss.NewStyle().
			Bold(true).
			Foreground(ErrorColor).
			Underline(true)

	DateGroupHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(Highlight).
			Underline(true)
)

// Calendar styles
// NOTE: Width is NOT set here - cells are sized when rendering
var (
	CalendarHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(Highlight)

	CalendarWeekday = lipgloss.NewStyle().
			Foreground(Subtle)

	CalendarDay = lipgloss.NewStyle()

	CalendarDaySelected = lipgloss.NewStyle().
				Bold(true).
				Background(Highlight).
				Foreground(lipgloss.Color("#ffffff"))

	CalendarDayToday = lipgloss.NewStyle().
				Bold(true).
				Foreground(SuccessColor)

	CalendarDayWithTasks = lipgloss.NewStyle().
				Foreground(WarningColor)

	CalendarDayOtherMonth = lipgloss.NewStyle().
				Faint(true)

	CalendarCellBorder = lipgloss.NewStyle().
				Foreground(Subtle)

	CalendarTaskPreview = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#444444", Dark: "#BBBBBB"})

	CalendarMoreTasks = lipgloss.NewStyle().
				Foreground(Subtle).
				Italic(true)

	CalendarHourLabel = lipgloss.NewStyle().
				Foreground(Subtle)

	CalendarSlotHover = lipgloss.NewStyle().
				Background(lipgloss.AdaptiveColor{Light: "#DDE6F7", Dark: "#23324D"})

	CalendarNowLine = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// CalendarBlock is tinted with the project color when rendering.
	CalendarBlock = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	CalendarBlockDone = lipgloss.NewStyle().
				Faint(true).
				Strikethrough(true)

	CalendarBlockDragging = lipgloss.NewStyle().
				Bold(true).
				Reverse(true)
)

// Checkbox styles
const (
	CheckboxUnchecked = "[ ]"
	CheckboxChecked   = "[x]"
)
