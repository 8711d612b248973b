package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hy4ri/taskgrid/internal/calendar"
	"github.com/hy4ri/taskgrid/internal/clock"
	"github.com/hy4ri/taskgrid/internal/i18n"
	"github.com/hy4ri/taskgrid/internal/model"
	"github.com/hy4ri/taskgrid/internal/router"
	"github.com/hy4ri/taskgrid/internal/store"
)

// Wednesday; the week view starts on Monday the 9th.
var testNow = time.Date(2026, 3, 11, 9, 0, 0, 0, time.Local)

func newTestApp(t *testing.T, route router.Route) (*App, *store.Store, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(testNow)
	st := store.New(model.EmptyState(), store.WithClock(clk))
	a := NewApp(Deps{
		Store:      st,
		Translator: i18n.MustNew("en"),
		Clock:      clk,
	}, route)
	t.Cleanup(a.Close)
	a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return a, st, clk
}

func addTask(t *testing.T, st *store.Store, in model.TaskInput) model.Task {
	t.Helper()
	task, err := st.AddTask(in)
	require.NoError(t, err)
	return task
}

func at(hour, minute int) *string {
	return model.Ptr(model.FormatLocal(time.Date(2026, 3, 11, hour, minute, 0, 0, time.Local)))
}

func press(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+k":
		return tea.KeyMsg{Type: tea.KeyCtrlK}
	}
	return runes(key)
}

func typeKeys(a *App, s string) {
	for _, r := range s {
		a.Update(runes(string(r)))
	}
}

// nextEvent returns the next message posted by a timer.
func nextEvent(t *testing.T, a *App) tea.Msg {
	t.Helper()
	select {
	case msg := <-a.events:
		return msg
	default:
		t.Fatal("no background message posted")
		return nil
	}
}

func TestApp_SearchShortcut(t *testing.T) {
	a, st, _ := newTestApp(t, router.Route{Name: router.Today})
	addTask(t, st, model.TaskInput{Title: "Buy milk"})
	addTask(t, st, model.TaskInput{Title: "Walk dog"})

	a.Update(press("ctrl+k"))
	require.True(t, a.searching)
	assert.Equal(t, router.Search, a.route.Name)

	typeKeys(a, "milk n")
	assert.Nil(t, a.taskForm, "n is typed into the query")
	assert.Equal(t, "milk n", a.route.Param)

	a.searchInput.SetValue("milk")
	a.applyQuery()
	rows := a.list.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Buy milk", rows[0].Task.Title)

	a.Update(press("esc"))
	assert.True(t, a.searching, "first esc clears the query")
	assert.Equal(t, "", a.searchInput.Value())
	assert.Empty(t, a.list.Rows())

	a.Update(press("esc"))
	assert.False(t, a.searching)
}

func TestApp_NewTaskShortcut(t *testing.T) {
	a, st, _ := newTestApp(t, router.Route{Name: router.Today})

	a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n"), Alt: true})
	assert.Nil(t, a.taskForm, "modified keys do not open the editor")

	a.Update(press("n"))
	require.NotNil(t, a.taskForm)

	typeKeys(a, "Call mom")
	a.Update(press("enter"))
	assert.Nil(t, a.taskForm)

	tasks := st.State().Tasks
	require.Len(t, tasks, 1)
	assert.Equal(t, "Call mom", tasks[0].Title)
	assert.True(t, tasks[0].IsAllDay, "today's tasks default to all-day")
	assert.Equal(t, *at(9, 0), *tasks[0].DueAt)

	sel, ok := a.list.SelectedTask()
	require.True(t, ok)
	assert.Equal(t, tasks[0].ID, sel.ID)
}

func TestApp_EditorIgnoresShortcuts(t *testing.T) {
	a, _, _ := newTestApp(t, router.Route{Name: router.Today})
	a.Update(press("n"))
	require.NotNil(t, a.taskForm)

	a.Update(press("ctrl+k"))
	assert.False(t, a.searching)
	assert.NotNil(t, a.taskForm)

	a.Update(press("esc"))
	assert.Nil(t, a.taskForm)
}

func TestApp_DeleteTaskWithConfirmation(t *testing.T) {
	a, st, _ := newTestApp(t, router.Route{Name: router.Today})
	task := addTask(t, st, model.TaskInput{Title: "Dishes", DueAt: at(18, 0)})

	a.Update(press("d"))
	a.Update(press("d"))
	require.NotNil(t, a.confirm)
	assert.Contains(t, a.confirm.message, "Dishes")

	a.Update(press("y"))
	assert.Nil(t, a.confirm)
	_, ok := st.State().Task(task.ID)
	assert.False(t, ok)
}

func TestApp_CompleteAndPriorityKeys(t *testing.T) {
	a, st, _ := newTestApp(t, router.Route{Name: router.Today})
	task := addTask(t, st, model.TaskInput{Title: "Stretch", DueAt: at(7, 0)})

	a.Update(press("3"))
	got, _ := st.State().Task(task.ID)
	assert.Equal(t, model.PriorityHigh, got.Priority)

	a.Update(press("x"))
	got, _ = st.State().Task(task.ID)
	assert.True(t, got.Done())
}

func TestApp_RoutesAndHistory(t *testing.T) {
	a, st, _ := newTestApp(t, router.Route{Name: router.Today})
	p, err := st.AddProject(model.ProjectInput{Name: "Work"})
	require.NoError(t, err)

	a.navigate(router.Route{Name: router.Project, Param: p.ID})
	assert.Equal(t, "Work", a.routeTitle())

	a.Update(press("C"))
	assert.Equal(t, router.Calendar, a.route.Name)

	a.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, router.Project, a.route.Name)

	a.navigate(router.Route{Name: router.Project, Param: "missing"})
	assert.Equal(t, router.InboxID, a.route.Param, "unknown projects fall back to the inbox")
}

func TestApp_BannerExpires(t *testing.T) {
	a, _, _ := newTestApp(t, router.Route{Name: router.Today})

	_, cmd := a.Update(backgroundMsg{inner: bannerMsg{task: model.Task{ID: "t1", Title: "Stretch"}}})
	require.NotNil(t, cmd)
	require.NotNil(t, a.banner)
	assert.Contains(t, a.banner.text, "Stretch")
	assert.Equal(t, 2, a.bodyTop())
	assert.Contains(t, a.View(), "Stretch")

	id := a.banner.id
	a.Update(bannerExpiredMsg{id: id + 1})
	assert.NotNil(t, a.banner, "a newer banner is not closed by an older timer")

	a.Update(bannerExpiredMsg{id: id})
	assert.Nil(t, a.banner)
	assert.Equal(t, 1, a.bodyTop())
}

func TestApp_ReminderShowsBanner(t *testing.T) {
	a, st, clk := newTestApp(t, router.Route{Name: router.Today})
	addTask(t, st, model.TaskInput{Title: "Take pills", ReminderAt: at(9, 5)})

	clk.Advance(5 * time.Minute)
	msg := nextEvent(t, a)
	require.IsType(t, bannerMsg{}, msg)

	a.Update(msg)
	require.NotNil(t, a.banner)
	assert.Contains(t, a.banner.text, "Take pills")
}

func TestApp_RestoreKeepsLocalEdits(t *testing.T) {
	a, st, _ := newTestApp(t, router.Route{Name: router.Today})
	local := addTask(t, st, model.TaskInput{Title: "Local"})

	remote := model.EmptyState()
	remoteTask, err := model.NewTask(model.TaskInput{Title: "Remote"}, testNow)
	require.NoError(t, err)
	remote.Tasks = append(remote.Tasks, remoteTask)

	a.Update(restoredMsg{state: &remote})
	_, ok := st.State().Task(local.ID)
	assert.True(t, ok, "tasks created during the download survive")
	_, ok = st.State().Task(remoteTask.ID)
	assert.True(t, ok)
}

// weekCell returns the screen cell of grid row on today's column.
func weekCell(a *App, row int) (int, int) {
	col := 0
	for i, d := range calendar.WeekDays(testNow) {
		if calendar.SameDay(d, testNow) {
			col = i
		}
	}
	const gutter, colW, scroll = 6, 12, 16
	x := a.mainX() + gutter + col*colW + 3
	y := a.bodyTop() + row - scroll + calendarHeaderRows
	return x, y
}

func TestApp_DragResizesBlock(t *testing.T) {
	a, st, _ := newTestApp(t, router.Route{Name: router.Calendar})
	task := addTask(t, st, model.TaskInput{Title: "Standup", DueAt: at(10, 0), Duration: 60})

	// 10:00 to 11:00 covers grid rows 20 and 21 at two rows per hour.
	x, y := weekCell(a, 21)
	a.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	_, active := a.drag.Active()
	require.True(t, active, "bottom edge starts a resize")

	a.Update(tea.MouseMsg{X: x, Y: y + 2, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	d, _ := a.drag.Active()
	assert.Equal(t, 120, d.Preview().Duration)

	a.Update(tea.MouseMsg{X: x, Y: y + 2, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	_, active = a.drag.Active()
	assert.False(t, active)

	got, _ := st.State().Task(task.ID)
	assert.Equal(t, 120, got.Duration)
	assert.Equal(t, *at(10, 0), *got.DueAt, "bottom edge keeps the start")
}

func TestApp_ClickEmptySlotOpensEditor(t *testing.T) {
	a, _, _ := newTestApp(t, router.Route{Name: router.Calendar})

	x, y := weekCell(a, 24)
	a.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	require.NotNil(t, a.taskForm)
	assert.Equal(t, "2026-03-11 12:00", a.taskForm.DueInput.Value())
}

func TestApp_HoverShowsTooltip(t *testing.T) {
	a, st, clk := newTestApp(t, router.Route{Name: router.Calendar})
	task := addTask(t, st, model.TaskInput{Title: "Lunch", DueAt: at(12, 0), Duration: 90})

	x, y := weekCell(a, 25)
	a.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion})
	assert.Empty(t, a.tooltipTask, "shown after a delay")

	clk.Advance(calendar.TooltipDelay)
	a.Update(nextEvent(t, a))
	assert.Equal(t, task.ID, a.tooltipTask)
	assert.True(t, strings.Contains(a.View(), "Lunch"))

	// Moving off the calendar hides it.
	a.Update(tea.MouseMsg{X: 1, Y: y, Action: tea.MouseActionMotion})
	assert.Empty(t, a.tooltipTask)
}
