package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hy4ri/taskgrid/internal/i18n"
	"github.com/hy4ri/taskgrid/internal/model"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeInto(f *TaskForm, s string) {
	for _, r := range s {
		f.Update(runes(string(r)))
	}
}

func focusField(f *TaskForm, field FormField) {
	for f.FocusedField != field {
		f.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
}

func TestTaskForm_ToInput(t *testing.T) {
	tr := i18n.MustNew("en")
	projects := []model.Project{{ID: "p1", Name: "Work"}}
	f := NewTaskForm(tr, projects, model.TaskInput{})

	typeInto(f, "Write report")
	focusField(f, FormFieldDue)
	typeInto(f, "2026-03-12 14:30")
	focusField(f, FormFieldDuration)
	typeInto(f, "45")
	focusField(f, FormFieldPriority)
	f.Update(runes("3"))
	focusField(f, FormFieldTags)
	typeInto(f, "work, Urgent,work")

	focusField(f, FormFieldProject)
	f.Update(tea.KeyMsg{Type: tea.KeySpace})
	require.True(t, f.ProjectListOpen())
	f.Update(tea.KeyMsg{Type: tea.KeyDown})
	f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, f.ProjectListOpen())

	in, err := f.ToInput()
	require.NoError(t, err)
	assert.Equal(t, "Write report", in.Title)
	require.NotNil(t, in.DueAt)
	assert.Equal(t, "2026-03-12T14:30:00", *in.DueAt)
	assert.InDelta(t, 45, in.Duration, 0.001)
	assert.Equal(t, model.PriorityHigh, in.Priority)
	assert.Equal(t, []string{"work", "Urgent"}, in.Tags)
	require.NotNil(t, in.ProjectID)
	assert.Equal(t, "p1", *in.ProjectID)
	assert.False(t, in.IsAllDay)
}

func TestTaskForm_InvalidValues(t *testing.T) {
	tr := i18n.MustNew("en")

	f := NewTaskForm(tr, nil, model.TaskInput{Title: "Call"})
	focusField(f, FormFieldDue)
	typeInto(f, "tomorrow-ish")
	_, err := f.ToInput()
	assert.ErrorIs(t, err, errInvalidDate)
	assert.NotEmpty(t, f.err)

	f = NewTaskForm(tr, nil, model.TaskInput{Title: "Call"})
	focusField(f, FormFieldDuration)
	typeInto(f, "-5")
	_, err = f.ToInput()
	assert.ErrorIs(t, err, errInvalidDuration)

	f = NewTaskForm(tr, nil, model.TaskInput{})
	assert.False(t, f.IsValid(), "empty title")
}

func TestTaskForm_ToPatchClearsDates(t *testing.T) {
	tr := i18n.MustNew("en")
	task := model.Task{
		ID:         "t1",
		Title:      "Dentist",
		DueAt:      model.Ptr("2026-03-12T09:00:00"),
		IsAllDay:   true,
		ReminderAt: model.Ptr("2026-03-12T08:00:00"),
		Priority:   model.PriorityNormal,
		Duration:   60,
		Tags:       []string{"health"},
		ProjectID:  model.Ptr("p1"),
	}
	f := NewEditTaskForm(tr, task, []model.Project{{ID: "p1", Name: "Home"}})
	require.True(t, f.Editing())
	assert.True(t, f.AllDay)
	assert.Equal(t, "2026-03-12 09:00", f.DueInput.Value())

	focusField(f, FormFieldDue)
	f.DueInput.SetValue("")
	f.TagsInput.SetValue("")

	patch, err := f.ToPatch()
	require.NoError(t, err)
	assert.True(t, patch.DueAt.Set)
	assert.Nil(t, patch.DueAt.Value, "cleared due date")
	require.NotNil(t, patch.IsAllDay)
	assert.False(t, *patch.IsAllDay, "all-day needs a due date")
	assert.Equal(t, "2026-03-12T08:00:00", *patch.ReminderAt.Value)
	assert.Equal(t, []string{}, patch.Tags)
	assert.Equal(t, "p1", *patch.ProjectID.Value)
}

func TestTaskForm_TagCompletion(t *testing.T) {
	tr := i18n.MustNew("en")
	f := NewTaskForm(tr, nil, model.TaskInput{Title: "Shop"})
	f.AvailableTags = []string{"errand", "home", "work"}

	focusField(f, FormFieldTags)
	typeInto(f, "home, er")
	assert.Equal(t, []string{"errand"}, f.Suggestions())

	f.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, "home, errand, ", f.TagsInput.Value())
	assert.NotContains(t, f.Suggestions(), "home", "selected tags are not offered again")
}

func TestTaskForm_ToggleAllDayAndPriority(t *testing.T) {
	tr := i18n.MustNew("en")
	f := NewTaskForm(tr, nil, model.TaskInput{Title: "x"})

	focusField(f, FormFieldAllDay)
	f.Update(tea.KeyMsg{Type: tea.KeySpace})
	assert.True(t, f.AllDay)

	focusField(f, FormFieldPriority)
	f.Update(runes("h"))
	assert.Equal(t, model.PriorityLow, f.Priority)
	f.Update(runes("h"))
	assert.Equal(t, model.PriorityLow, f.Priority, "clamped")
}

func TestProjectForm(t *testing.T) {
	tr := i18n.MustNew("en")

	f := NewProjectForm(tr, nil)
	assert.False(t, f.Editing())
	for _, r := range "Garden" {
		f.Update(runes(string(r)))
	}
	assert.Equal(t, "Garden", f.ToInput().Name)

	color := "#ff8800"
	p := model.Project{ID: "p1", Name: "Work", Color: &color}
	f = NewProjectForm(tr, &p)
	require.True(t, f.Editing())
	f.ColorInput.SetValue("")
	patch := f.ToPatch()
	assert.True(t, patch.Color.Set)
	assert.Nil(t, patch.Color.Value)
}

func TestShiftDue(t *testing.T) {
	now := time.Date(2026, 3, 11, 16, 0, 0, 0, time.Local)

	timed := model.Task{DueAt: model.Ptr("2026-03-02T14:30:00")}
	patch := shiftDue(timed, now, 1)
	assert.Equal(t, "2026-03-12T14:30:00", *patch.DueAt.Value, "keeps the time of day")

	patch = shiftDue(model.Task{}, now, 0)
	assert.Equal(t, "2026-03-11T09:00:00", *patch.DueAt.Value)
	require.NotNil(t, patch.IsAllDay)
	assert.True(t, *patch.IsAllDay)
}
