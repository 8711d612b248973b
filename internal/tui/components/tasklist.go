package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hy4ri/taskgrid/internal/model"
	"github.com/hy4ri/taskgrid/internal/tui/styles"
	"github.com/hy4ri/taskgrid/internal/tui/utils"
)

// Row is one line of a task list: either a group header or a task.
type Row struct {
	Header string
	// Warn renders the header in the overdue style.
	Warn bool
	Task *model.Task
}

// TaskRows wraps tasks as rows.
func TaskRows(tasks []model.Task) []Row {
	rows := make([]Row, len(tasks))
	for i := range tasks {
		rows[i] = Row{Task: &tasks[i]}
	}
	return rows
}

// TaskListModel manages a scrollable list of tasks.
type TaskListModel struct {
	rows          []Row
	cursor        int
	width, height int
	focused       bool
	viewport      viewport.Model
	viewportReady bool
	title         string
	emptyMessage  string

	now         time.Time
	timeFormat  model.TimeFormat
	projects    map[string]model.Project
	showProject bool
}

// NewTaskList creates a new TaskListModel.
func NewTaskList() *TaskListModel {
	return &TaskListModel{
		timeFormat: model.TimeFormat24h,
		now:        time.Now(),
	}
}

// Init implements Component.
func (t *TaskListModel) Init() tea.Cmd {
	return nil
}

// Update implements Component.
func (t *TaskListModel) Update(msg tea.Msg) (Component, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return t.handleKeyMsg(msg)
	case tea.MouseMsg:
		var cmd tea.Cmd
		t.viewport, cmd = t.viewport.Update(msg)
		return t, cmd
	}
	return t, nil
}

func (t *TaskListModel) handleKeyMsg(msg tea.KeyMsg) (Component, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		t.MoveCursor(1)
	case "k", "up":
		t.MoveCursor(-1)
	case "G":
		t.Bottom()
	case "ctrl+d":
		t.MoveCursor(t.pageSize() / 2)
	case "ctrl+u":
		t.MoveCursor(-t.pageSize() / 2)
	case "enter":
		if task, ok := t.SelectedTask(); ok {
			return t, func() tea.Msg { return TaskSelectedMsg{Task: task} }
		}
	}
	return t, nil
}

func (t *TaskListModel) pageSize() int {
	return max(2, t.height-1)
}

// View implements Component.
func (t *TaskListModel) View() string {
	var b strings.Builder
	b.WriteString(styles.Title.Render(utils.TruncateString(t.title, t.width)))
	b.WriteString("\n")

	if !t.hasTasks() {
		for _, row := range t.rows {
			b.WriteString(t.renderRow(-1, row))
			b.WriteString("\n")
		}
		b.WriteString(styles.HelpDesc.Render(t.emptyMessage))
		return b.String()
	}

	lines := make([]string, len(t.rows))
	for i, row := range t.rows {
		lines[i] = t.renderRow(i, row)
	}
	t.viewport.SetContent(strings.Join(lines, "\n"))
	t.syncScroll()
	b.WriteString(t.viewport.View())
	return b.String()
}

func (t *TaskListModel) renderRow(i int, row Row) string {
	if row.Task == nil {
		style := styles.DateGroupHeader
		if row.Warn {
			style = styles.SectionOverdue
		}
		return style.Render(utils.TruncateString(row.Header, t.width))
	}
	return t.renderTask(*row.Task, i == t.cursor && t.focused)
}

func (t *TaskListModel) renderTask(task model.Task, selected bool) string {
	checkbox := styles.CheckboxUnchecked
	if task.Done() {
		checkbox = styles.CheckboxChecked
	}
	prio := " "
	if task.Priority == model.PriorityHigh {
		prio = "!"
	} else if task.Priority == model.PriorityNormal {
		prio = "·"
	}

	var meta []string
	if due := utils.FormatDue(task, t.now, t.timeFormat); due != "" {
		style := styles.TaskDue
		if d, ok := task.Due(); ok && !task.Done() {
			switch {
			case d.Before(t.now) && !sameDay(d, t.now):
				style = styles.TaskDueOverdue
			case sameDay(d, t.now):
				style = styles.TaskDueToday
			}
		}
		meta = append(meta, style.Render(due))
	}
	if task.ReminderAt != nil {
		meta = append(meta, styles.TaskReminder.Render("◷"))
	}
	for _, tag := range task.Tags {
		meta = append(meta, styles.TaskTag.Render("#"+tag))
	}
	if t.showProject && task.ProjectID != nil {
		if p, ok := t.projects[*task.ProjectID]; ok {
			meta = append(meta, lipgloss.NewStyle().Foreground(styles.ProjectColor(p.Color)).PaddingLeft(1).Render("● "+p.Name))
		}
	}
	suffix := strings.Join(meta, "")

	prefix := checkbox + " " + styles.PriorityStyle(task.Priority).Render(prio) + " "
	titleWidth := t.width - 4 - lipgloss.Width(prefix) - lipgloss.Width(suffix)
	line := prefix + utils.TruncateString(task.Title, max(titleWidth, 8)) + suffix

	style := styles.TaskItem
	switch {
	case selected:
		style = styles.TaskSelected
	case task.Done():
		style = styles.TaskCompleted
	}
	return style.MaxWidth(t.width).Render(line)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// syncScroll keeps the cursor row inside the viewport.
func (t *TaskListModel) syncScroll() {
	if !t.viewportReady {
		return
	}
	if t.cursor < t.viewport.YOffset {
		t.viewport.SetYOffset(t.cursor)
	} else if t.cursor >= t.viewport.YOffset+t.viewport.Height {
		t.viewport.SetYOffset(t.cursor - t.viewport.Height + 1)
	}
}

// SetSize implements Component.
func (t *TaskListModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	vpHeight := max(1, height-1)
	if !t.viewportReady {
		t.viewport = viewport.New(width, vpHeight)
		t.viewport.Style = lipgloss.NewStyle()
		t.viewport.MouseWheelEnabled = true
		t.viewportReady = true
		return
	}
	t.viewport.Width = width
	t.viewport.Height = vpHeight
}

// Focus sets focus on the task list.
func (t *TaskListModel) Focus() {
	t.focused = true
}

// Blur removes focus.
func (t *TaskListModel) Blur() {
	t.focused = false
}

// Focused returns focus state.
func (t *TaskListModel) Focused() bool {
	return t.focused
}

// SetTitle sets the title header.
func (t *TaskListModel) SetTitle(title string) {
	t.title = title
}

// SetEmptyMessage sets the message shown when there are no tasks.
func (t *TaskListModel) SetEmptyMessage(msg string) {
	t.emptyMessage = msg
}

// SetContext sets what task lines are rendered relative to.
func (t *TaskListModel) SetContext(now time.Time, format model.TimeFormat, projects []model.Project, showProject bool) {
	t.now = now
	t.timeFormat = format
	t.showProject = showProject
	t.projects = make(map[string]model.Project, len(projects))
	for _, p := range projects {
		t.projects[p.ID] = p
	}
}

// SetRows replaces the rows. The cursor stays on the same task when it is
// still listed.
func (t *TaskListModel) SetRows(rows []Row) {
	selected, had := t.SelectedTask()
	t.rows = rows
	if had && t.SelectTask(selected.ID) {
		return
	}
	t.cursor = min(t.cursor, len(rows)-1)
	if t.cursor < 0 {
		t.cursor = 0
	}
	if !t.isTask(t.cursor) {
		t.MoveCursor(1)
		if !t.isTask(t.cursor) {
			t.MoveCursor(-1)
		}
	}
}

// Rows returns the current rows.
func (t *TaskListModel) Rows() []Row {
	return t.rows
}

func (t *TaskListModel) isTask(i int) bool {
	return i >= 0 && i < len(t.rows) && t.rows[i].Task != nil
}

func (t *TaskListModel) hasTasks() bool {
	for _, r := range t.rows {
		if r.Task != nil {
			return true
		}
	}
	return false
}

// SelectTask moves the cursor to the task with id.
func (t *TaskListModel) SelectTask(id string) bool {
	for i, r := range t.rows {
		if r.Task != nil && r.Task.ID == id {
			t.cursor = i
			return true
		}
	}
	return false
}

// SelectedTask returns the task under the cursor.
func (t *TaskListModel) SelectedTask() (model.Task, bool) {
	if !t.isTask(t.cursor) {
		return model.Task{}, false
	}
	return *t.rows[t.cursor].Task, true
}

// SelectedIndex returns the position of the selected task among the tasks
// of the list, ignoring headers.
func (t *TaskListModel) SelectedIndex() int {
	n := -1
	for i := 0; i <= t.cursor && i < len(t.rows); i++ {
		if t.rows[i].Task != nil {
			n++
		}
	}
	return n
}

// MoveCursor moves the cursor by delta tasks' worth of rows, skipping
// headers.
func (t *TaskListModel) MoveCursor(delta int) {
	if len(t.rows) == 0 {
		return
	}
	step := 1
	if delta < 0 {
		step = -1
	}
	pos := t.cursor
	for moved := 0; moved < abs(delta); moved++ {
		next := pos + step
		for next >= 0 && next < len(t.rows) && !t.isTask(next) {
			next += step
		}
		if next < 0 || next >= len(t.rows) {
			break
		}
		pos = next
	}
	t.cursor = pos
}

// Top moves the cursor to the first task.
func (t *TaskListModel) Top() {
	t.cursor = 0
	if !t.isTask(0) {
		t.MoveCursor(1)
	}
}

// Bottom moves the cursor to the last task.
func (t *TaskListModel) Bottom() {
	t.cursor = len(t.rows) - 1
	if !t.isTask(t.cursor) {
		t.MoveCursor(-1)
	}
}

// TaskAt returns the task drawn on line y of the component.
func (t *TaskListModel) TaskAt(y int) (model.Task, bool) {
	i := y - 1 + t.viewport.YOffset
	if y < 1 || !t.isTask(i) {
		return model.Task{}, false
	}
	t.cursor = i
	return *t.rows[i].Task, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
