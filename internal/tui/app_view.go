package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hy4ri/taskgrid/internal/calendar"
	"github.com/hy4ri/taskgrid/internal/cloud"
	"github.com/hy4ri/taskgrid/internal/i18n"
	"github.com/hy4ri/taskgrid/internal/model"
	"github.com/hy4ri/taskgrid/internal/router"
	"github.com/hy4ri/taskgrid/internal/tui/styles"
	"github.com/hy4ri/taskgrid/internal/tui/utils"
)

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	if a.showHelp {
		return a.helpComp.View()
	}

	var b strings.Builder
	b.WriteString(a.renderHeader())
	b.WriteString("\n")
	if a.banner != nil {
		b.WriteString(styles.Banner.Width(a.width).MaxHeight(1).Render(utils.TruncateString("◷ "+a.banner.text, a.width-2)))
		b.WriteString("\n")
	}

	body := a.renderMain()
	if w := a.sidebarWidth(); w > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, a.sidebar.View(), " ", body)
	}
	b.WriteString(lipgloss.NewStyle().Height(a.bodyHeight()).MaxHeight(a.bodyHeight()).Render(body))
	b.WriteString("\n")
	b.WriteString(a.renderStatusBar())

	content := b.String()
	switch {
	case a.taskForm != nil:
		content = a.overlayCentered(content, styles.Dialog.Width(min(a.width-4, 70)).Render(a.taskForm.View()))
	case a.projectForm != nil:
		content = a.overlayCentered(content, styles.Dialog.Width(min(a.width-4, 56)).Render(a.projectForm.View()))
	case a.confirm != nil:
		content = a.overlayCentered(content, styles.Dialog.Render(a.confirm.message))
	case a.mover != nil:
		content = a.overlayCentered(content, styles.Dialog.Render(a.renderMover()))
	default:
		if box, at, ok := a.renderTooltip(); ok {
			content = overlay(content, box, int(at.X), int(at.Y))
		}
	}
	return content
}

// renderHeader renders the title line with the sync indicator on the right.
func (a *App) renderHeader() string {
	left := styles.Title.Render(a.tr.T("AppName")) + styles.Subtitle.Render(" · "+a.routeTitle())
	right := a.renderSync()
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return utils.TruncateString(left, a.width)
	}
	return left + strings.Repeat(" ", gap) + right
}

func (a *App) renderSync() string {
	s := a.sync
	text, style := a.syncText(s)
	if s.Busy() {
		return a.spinner.View() + " " + style.Render(text)
	}
	return style.Render(text)
}

// syncText describes the sync status. Reasons are message ids.
func (a *App) syncText(s cloud.Status) (string, lipgloss.Style) {
	switch s.State {
	case cloud.StateDisconnected:
		if s.Reason != cloud.ReasonNone {
			return a.tr.T(string(s.Reason)), styles.SyncProblem
		}
		return a.tr.T("SyncDisconnected"), styles.SyncOff
	case cloud.StateAuthenticating:
		return a.tr.T("SyncAuthenticating"), styles.SyncBusy
	case cloud.StateSyncing:
		return a.tr.T("SyncSyncing"), styles.SyncBusy
	case cloud.StateConnected:
		if when, ok := model.ParseTimestamp(s.LastSyncedAt); ok {
			return a.tr.T("SyncConnected", i18n.Data{"When": a.formatSyncedAt(when.Local())}), styles.SyncOK
		}
		return a.tr.T("SyncReady"), styles.SyncOK
	case cloud.StateError:
		return a.tr.T("SyncError", i18n.Data{"Message": a.tr.T(string(s.Reason))}), styles.SyncProblem
	}
	return a.tr.T("SyncIdle"), styles.SyncOff
}

func (a *App) formatSyncedAt(t time.Time) string {
	if calendar.SameDay(t, a.clock.Now()) {
		return model.FormatTime(t, a.state.Settings.TimeFormat)
	}
	return t.Format("Jan 2") + " " + model.FormatTime(t, a.state.Settings.TimeFormat)
}

func (a *App) renderMain() string {
	switch a.route.Name {
	case router.Calendar:
		return lipgloss.JoinVertical(lipgloss.Left, a.calendarComp.View(), a.dayList.View())
	case router.Search:
		style := styles.Input
		if a.searching {
			style = styles.InputFocused
		}
		return style.Render(a.searchInput.View()) + "\n" + a.list.View()
	}
	return a.list.View()
}

func (a *App) renderStatusBar() string {
	if a.statusMsg != "" {
		style := styles.StatusBarSuccess
		if a.statusErr {
			style = styles.StatusBarError
		}
		return styles.StatusBar.Width(a.width).Render(style.Render(utils.TruncateString(a.statusMsg, a.width-2)))
	}

	hints := []struct{ key, desc string }{
		{a.keymap.NewTask.Key, a.tr.T("EditorNewTask")},
		{a.keymap.CompleteTask.Key, a.tr.T("HelpComplete")},
		{a.keymap.Search.Key, a.tr.T("ViewSearch")},
		{a.keymap.SwitchPane.Key, a.tr.T("HelpSwitchPane")},
		{a.keymap.Help.Key, a.tr.T("HelpToggle")},
		{a.keymap.Quit.Key, a.tr.T("HelpQuit")},
	}
	if a.route.Name == router.Calendar {
		hints = append([]struct{ key, desc string }{{a.keymap.CalendarView.Key, a.tr.T("HelpCalendarMode")}}, hints...)
	}
	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = styles.StatusBarKey.Render(h.key) + " " + styles.StatusBarText.Render(h.desc)
	}
	return styles.StatusBar.Width(a.width).MaxHeight(1).Render(strings.Join(parts, "  "))
}

func (a *App) renderMover() string {
	var b strings.Builder
	b.WriteString(styles.DialogTitle.Render(a.tr.T("MoveTitle")))
	b.WriteString("\n")
	for i, target := range a.moveTargets() {
		cursor := "  "
		style := styles.SidebarItem
		if i == a.mover.cursor {
			cursor = "> "
			style = styles.SidebarSelected
		}
		b.WriteString(style.Render(cursor + a.projectName(target)))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// renderTooltip renders the tooltip of the hovered calendar block and where
// it goes on screen.
func (a *App) renderTooltip() (string, calendar.Point, bool) {
	if a.tooltipTask == "" || a.route.Name != router.Calendar {
		return "", calendar.Point{}, false
	}
	task, ok := a.state.Task(a.tooltipTask)
	if !ok {
		return "", calendar.Point{}, false
	}
	var project *model.Project
	if task.ProjectID != nil {
		if p, ok := a.state.Project(*task.ProjectID); ok {
			project = &p
		}
	}
	text := calendar.TooltipText(task, project, a.state.Settings.TimeFormat, a.tr.T("CalendarNoTime"))
	box := styles.Tooltip.Render(text)
	size := calendar.Size{Width: float64(lipgloss.Width(box)), Height: float64(lipgloss.Height(box))}
	at := calendar.PlaceTooltip(a.tooltipAt, size, calendar.Size{Width: float64(a.width), Height: float64(a.height)})
	return box, at, true
}

func (a *App) overlayCentered(content, box string) string {
	x := max(0, (a.width-lipgloss.Width(box))/2)
	y := max(0, (a.height-lipgloss.Height(box))/2)
	return overlay(content, box, x, y)
}

// overlay draws box over content with its top left corner at (x, y). Lines
// covered by the box are replaced.
func overlay(content, box string, x, y int) string {
	lines := strings.Split(content, "\n")
	pad := strings.Repeat(" ", max(0, x))
	for i, line := range strings.Split(box, "\n") {
		row := y + i
		if row < 0 {
			continue
		}
		for row >= len(lines) {
			lines = append(lines, "")
		}
		lines[row] = pad + line
	}
	return strings.Join(lines, "\n")
}
