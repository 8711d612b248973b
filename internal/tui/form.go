package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hy4ri/taskgrid/internal/agenda"
	"github.com/hy4ri/taskgrid/internal/i18n"
	"github.com/hy4ri/taskgrid/internal/model"
	"github.com/hy4ri/taskgrid/internal/tui/styles"
)

// dateInputLayout is how dates are shown in the editor. Parsing accepts
// every layout model.ParseTimestamp does.
const dateInputLayout = "2006-01-02 15:04"

var (
	errInvalidDate     = errors.New("invalid date")
	errInvalidDuration = errors.New("invalid duration")
)

// FormField represents which field is currently focused in the form.
type FormField int

const (
	FormFieldTitle FormField = iota
	FormFieldDescription
	FormFieldDue
	FormFieldAllDay
	FormFieldReminder
	FormFieldDuration
	FormFieldPriority
	FormFieldTags
	FormFieldProject
	formFieldCount
)

// TaskForm manages the state of the add/edit task form.
type TaskForm struct {
	// TaskID is set when editing.
	TaskID string

	TitleInput       textinput.Model
	DescriptionInput textinput.Model
	DueInput         textinput.Model
	ReminderInput    textinput.Model
	DurationInput    textinput.Model
	TagsInput        textinput.Model

	AllDay    bool
	Priority  model.Priority
	ProjectID *string

	FocusedField FormField
	Projects     []model.Project
	// AvailableTags feeds the tag suggestions.
	AvailableTags []string

	projectCursor   int
	showProjectList bool
	err             string
	tr              *i18n.Translator
	width           int
}

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = 50
	return in
}

// NewTaskForm creates a form for a new task prefilled from defaults.
func NewTaskForm(tr *i18n.Translator, projects []model.Project, defaults model.TaskInput) *TaskForm {
	f := &TaskForm{
		TitleInput:       newInput(tr.T("EditorTitle"), model.MaxTitle),
		DescriptionInput: newInput(tr.T("EditorDescription"), model.MaxDescription),
		DueInput:         newInput(dateInputLayout, 20),
		ReminderInput:    newInput(dateInputLayout, 20),
		DurationInput:    newInput(strconv.Itoa(model.DefaultDuration), 4),
		TagsInput:        newInput(tr.T("EditorTags"), 200),
		Priority:         model.PriorityNormal,
		Projects:         projects,
		tr:               tr,
	}
	f.TitleInput.Focus()

	f.TitleInput.SetValue(defaults.Title)
	f.DescriptionInput.SetValue(defaults.Description)
	f.DueInput.SetValue(formatInputDate(defaults.DueAt))
	f.ReminderInput.SetValue(formatInputDate(defaults.ReminderAt))
	f.AllDay = defaults.IsAllDay
	if defaults.Duration > 0 {
		f.DurationInput.SetValue(strconv.Itoa(model.NormalizeDuration(defaults.Duration)))
	}
	if defaults.Priority.Valid() {
		f.Priority = defaults.Priority
	}
	f.TagsInput.SetValue(strings.Join(defaults.Tags, ", "))
	f.ProjectID = defaults.ProjectID
	return f
}

// NewEditTaskForm creates a form pre-populated for editing t.
func NewEditTaskForm(tr *i18n.Translator, t model.Task, projects []model.Project) *TaskForm {
	f := NewTaskForm(tr, projects, model.TaskInput{
		Title:       t.Title,
		Description: t.Description,
		DueAt:       t.DueAt,
		IsAllDay:    t.IsAllDay,
		ReminderAt:  t.ReminderAt,
		Duration:    float64(t.Duration),
		Priority:    t.Priority,
		Tags:        t.Tags,
		ProjectID:   t.ProjectID,
	})
	f.TaskID = t.ID
	return f
}

func formatInputDate(value *string) string {
	if value == nil {
		return ""
	}
	t, ok := model.ParseTimestamp(*value)
	if !ok {
		return ""
	}
	return t.Format(dateInputLayout)
}

// Editing reports whether the form edits an existing task.
func (f *TaskForm) Editing() bool {
	return f.TaskID != ""
}

// SetWidth sets the form width for responsive layout.
func (f *TaskForm) SetWidth(width int) {
	f.width = width
	inputWidth := min(max(width-10, 30), 60)
	for _, in := range f.inputs() {
		in.Width = inputWidth
	}
}

func (f *TaskForm) inputs() []*textinput.Model {
	return []*textinput.Model{&f.TitleInput, &f.DescriptionInput, &f.DueInput, &f.ReminderInput, &f.DurationInput, &f.TagsInput}
}

func (f *TaskForm) input(field FormField) *textinput.Model {
	switch field {
	case FormFieldTitle:
		return &f.TitleInput
	case FormFieldDescription:
		return &f.DescriptionInput
	case FormFieldDue:
		return &f.DueInput
	case FormFieldReminder:
		return &f.ReminderInput
	case FormFieldDuration:
		return &f.DurationInput
	case FormFieldTags:
		return &f.TagsInput
	}
	return nil
}

// Update handles input for the form. Enter and Esc are handled by the
// parent.
func (f *TaskForm) Update(msg tea.Msg) (*TaskForm, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if f.showProjectList {
			return f.handleProjectListKey(msg)
		}

		switch msg.String() {
		case "tab", "down":
			f.nextField()
			return f, nil
		case "shift+tab", "up":
			f.prevField()
			return f, nil
		case "ctrl+p":
			if f.FocusedField == FormFieldProject {
				f.showProjectList = true
			}
			return f, nil
		case "ctrl+n":
			if f.FocusedField == FormFieldTags {
				f.completeTag()
			}
			return f, nil
		}

		switch f.FocusedField {
		case FormFieldPriority:
			switch msg.String() {
			case "1":
				f.Priority = model.PriorityLow
			case "2":
				f.Priority = model.PriorityNormal
			case "3":
				f.Priority = model.PriorityHigh
			case "h", "left":
				f.Priority = max(model.PriorityLow, f.Priority-1)
			case "l", "right":
				f.Priority = min(model.PriorityHigh, f.Priority+1)
			}
			return f, nil
		case FormFieldAllDay:
			switch msg.String() {
			case " ", "y", "n", "h", "l", "left", "right":
				f.AllDay = !f.AllDay
			}
			return f, nil
		case FormFieldProject:
			if msg.String() == " " || msg.String() == "l" || msg.String() == "right" {
				f.showProjectList = true
			}
			return f, nil
		}
	}

	if in := f.input(f.FocusedField); in != nil {
		var cmd tea.Cmd
		*in, cmd = in.Update(msg)
		return f, cmd
	}
	return f, nil
}

// handleProjectListKey handles key input when the project dropdown is open.
// The first entry is the inbox.
func (f *TaskForm) handleProjectListKey(msg tea.KeyMsg) (*TaskForm, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if f.projectCursor < len(f.Projects) {
			f.projectCursor++
		}
	case "k", "up":
		if f.projectCursor > 0 {
			f.projectCursor--
		}
	case "enter", " ":
		if f.projectCursor == 0 {
			f.ProjectID = nil
		} else {
			f.ProjectID = model.Ptr(f.Projects[f.projectCursor-1].ID)
		}
		f.showProjectList = false
	case "esc", "q":
		f.showProjectList = false
	}
	return f, nil
}

// ProjectListOpen reports whether the project dropdown is open. Enter and
// Esc belong to the dropdown while it is.
func (f *TaskForm) ProjectListOpen() bool {
	return f.showProjectList
}

func (f *TaskForm) nextField() {
	f.focus((f.FocusedField + 1) % formFieldCount)
}

func (f *TaskForm) prevField() {
	f.focus((f.FocusedField - 1 + formFieldCount) % formFieldCount)
}

func (f *TaskForm) focus(field FormField) {
	if in := f.input(f.FocusedField); in != nil {
		in.Blur()
	}
	f.FocusedField = field
	if in := f.input(field); in != nil {
		in.Focus()
	}
}

// currentTags splits the tags input; the last element is the fragment being
// typed.
func (f *TaskForm) currentTags() ([]string, string) {
	parts := strings.Split(f.TagsInput.Value(), ",")
	last := strings.TrimSpace(parts[len(parts)-1])
	return model.NormalizeTags(parts[:len(parts)-1]), last
}

// Suggestions returns the tags offered for the fragment being typed.
func (f *TaskForm) Suggestions() []string {
	selected, fragment := f.currentTags()
	return agenda.TagSuggestions(f.AvailableTags, selected, fragment)
}

func (f *TaskForm) completeTag() {
	suggestions := f.Suggestions()
	if len(suggestions) == 0 {
		return
	}
	selected, _ := f.currentTags()
	f.TagsInput.SetValue(strings.Join(append(selected, suggestions[0]), ", ") + ", ")
	f.TagsInput.CursorEnd()
}

// IsValid returns true if the form has valid data for submission.
func (f *TaskForm) IsValid() bool {
	return strings.TrimSpace(f.TitleInput.Value()) != ""
}

type formValues struct {
	due      *string
	reminder *string
	duration float64
	tags     []string
}

func (f *TaskForm) values() (formValues, error) {
	var v formValues
	var err error
	if v.due, err = parseInputDate(f.DueInput.Value()); err != nil {
		return v, fmt.Errorf("due: %w", err)
	}
	if v.reminder, err = parseInputDate(f.ReminderInput.Value()); err != nil {
		return v, fmt.Errorf("reminder: %w", err)
	}
	v.duration = model.DefaultDuration
	if raw := strings.TrimSpace(f.DurationInput.Value()); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return v, errInvalidDuration
		}
		v.duration = float64(n)
	}
	v.tags = model.NormalizeTags(strings.Split(f.TagsInput.Value(), ","))
	return v, nil
}

func parseInputDate(raw string) (*string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, ok := model.ParseTimestamp(raw)
	if !ok {
		return nil, errInvalidDate
	}
	return model.Ptr(model.FormatLocal(t)), nil
}

// ToInput converts the form to the input of a new task.
func (f *TaskForm) ToInput() (model.TaskInput, error) {
	v, err := f.values()
	if err != nil {
		f.err = f.errorText(err)
		return model.TaskInput{}, err
	}
	return model.TaskInput{
		Title:       f.TitleInput.Value(),
		Description: f.DescriptionInput.Value(),
		ProjectID:   f.ProjectID,
		Tags:        v.tags,
		DueAt:       v.due,
		IsAllDay:    f.AllDay && v.due != nil,
		ReminderAt:  v.reminder,
		Priority:    f.Priority,
		Duration:    v.duration,
	}, nil
}

// ToPatch converts the form to a patch of the edited task. Cleared date
// fields clear the task's dates.
func (f *TaskForm) ToPatch() (model.TaskPatch, error) {
	v, err := f.values()
	if err != nil {
		f.err = f.errorText(err)
		return model.TaskPatch{}, err
	}
	title := f.TitleInput.Value()
	desc := f.DescriptionInput.Value()
	allDay := f.AllDay && v.due != nil
	priority := f.Priority

	patch := model.TaskPatch{
		Title:       &title,
		Description: &desc,
		Tags:        v.tags,
		IsAllDay:    &allDay,
		Priority:    &priority,
		Duration:    &v.duration,
		DueAt:       model.Clear[string](),
		ReminderAt:  model.Clear[string](),
		ProjectID:   model.Clear[string](),
	}
	if patch.Tags == nil {
		patch.Tags = []string{}
	}
	if v.due != nil {
		patch.DueAt = model.SetTo(*v.due)
	}
	if v.reminder != nil {
		patch.ReminderAt = model.SetTo(*v.reminder)
	}
	if f.ProjectID != nil {
		patch.ProjectID = model.SetTo(*f.ProjectID)
	}
	return patch, nil
}

func (f *TaskForm) errorText(err error) string {
	if errors.Is(err, errInvalidDuration) {
		return f.tr.T("EditorInvalidDuration")
	}
	return f.tr.T("EditorInvalidDate")
}

func (f *TaskForm) projectName(id *string) string {
	if id == nil {
		return f.tr.T("ViewInbox")
	}
	for _, p := range f.Projects {
		if p.ID == *id {
			return p.Name
		}
	}
	return f.tr.T("ViewInbox")
}

// View renders the form.
func (f *TaskForm) View() string {
	var b strings.Builder

	title := f.tr.T("EditorNewTask")
	if f.Editing() {
		title = f.tr.T("EditorEditTask")
	}
	b.WriteString(styles.DialogTitle.Render(title))
	b.WriteString("\n")

	b.WriteString(f.renderField(f.tr.T("EditorTitle"), f.TitleInput.View(), FormFieldTitle))
	b.WriteString(f.renderField(f.tr.T("EditorDescription"), f.DescriptionInput.View(), FormFieldDescription))
	b.WriteString(f.renderField(f.tr.T("EditorDue"), f.DueInput.View(), FormFieldDue))
	b.WriteString(f.renderField(f.tr.T("EditorAllDay"), checkbox(f.AllDay), FormFieldAllDay))
	b.WriteString(f.renderField(f.tr.T("EditorReminder"), f.ReminderInput.View(), FormFieldReminder))
	b.WriteString(f.renderField(f.tr.T("EditorDuration"), f.DurationInput.View(), FormFieldDuration))
	b.WriteString(f.renderField(f.tr.T("EditorPriority"), f.renderPriority(), FormFieldPriority))

	tags := f.TagsInput.View()
	if f.FocusedField == FormFieldTags {
		if s := f.Suggestions(); len(s) > 0 {
			tags += "\n" + styles.HelpDesc.Render("ctrl+n: #"+strings.Join(s, " #"))
		}
	}
	b.WriteString(f.renderField(f.tr.T("EditorTags"), tags, FormFieldTags))
	b.WriteString(f.renderField(f.tr.T("EditorProject"), f.renderProject(), FormFieldProject))

	if f.err != "" {
		b.WriteString(styles.InputError.Render(f.err))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.HelpDesc.Render(f.tr.T("EditorHint")))
	return b.String()
}

func checkbox(on bool) string {
	if on {
		return styles.CheckboxChecked
	}
	return styles.CheckboxUnchecked
}

// renderField renders a form field with label.
func (f *TaskForm) renderField(label, input string, field FormField) string {
	labelStyle := styles.InputLabel
	if f.FocusedField == field {
		labelStyle = labelStyle.Foreground(styles.Highlight)
	}
	return fmt.Sprintf("%s\n%s\n", labelStyle.Render(label), input)
}

func (f *TaskForm) renderPriority() string {
	names := map[model.Priority]string{
		model.PriorityLow:    f.tr.T("PriorityLow"),
		model.PriorityNormal: f.tr.T("PriorityNormal"),
		model.PriorityHigh:   f.tr.T("PriorityHigh"),
	}
	var parts []string
	for p := model.PriorityLow; p <= model.PriorityHigh; p++ {
		style := styles.PriorityStyle(p)
		if p == f.Priority {
			style = style.Bold(true).Underline(true)
		}
		parts = append(parts, style.Render(names[p]))
	}
	selector := strings.Join(parts, "  ")
	if f.FocusedField == FormFieldPriority {
		selector = "[ " + selector + " ]"
	}
	return selector
}

func (f *TaskForm) renderProject() string {
	if !f.showProjectList {
		name := f.projectName(f.ProjectID)
		if f.FocusedField == FormFieldProject {
			return "[ " + name + " ] (ctrl+p)"
		}
		return name
	}

	names := []string{f.tr.T("ViewInbox")}
	for _, p := range f.Projects {
		names = append(names, p.Name)
	}
	var lines []string
	for i, name := range names {
		cursor := "  "
		style := styles.SidebarItem
		if i == f.projectCursor {
			cursor = "> "
			style = styles.SidebarSelected
		}
		lines = append(lines, style.Render(cursor+name))
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Highlight).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// ProjectForm edits a project's name and color.
type ProjectForm struct {
	ProjectID  string
	NameInput  textinput.Model
	ColorInput textinput.Model
	focused    int
	tr         *i18n.Translator
}

// NewProjectForm creates a form for p, or for a new project when p is nil.
func NewProjectForm(tr *i18n.Translator, p *model.Project) *ProjectForm {
	f := &ProjectForm{
		NameInput:  newInput(tr.T("EditorName"), model.MaxName),
		ColorInput: newInput("#7C3AED", 7),
		tr:         tr,
	}
	if p != nil {
		f.ProjectID = p.ID
		f.NameInput.SetValue(p.Name)
		f.ColorInput.SetValue(model.Deref(p.Color))
	}
	f.NameInput.Focus()
	return f
}

// Editing reports whether the form edits an existing project.
func (f *ProjectForm) Editing() bool {
	return f.ProjectID != ""
}

// Update handles input for the form.
func (f *ProjectForm) Update(msg tea.Msg) (*ProjectForm, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			f.focused = 1 - f.focused
			if f.focused == 0 {
				f.ColorInput.Blur()
				f.NameInput.Focus()
			} else {
				f.NameInput.Blur()
				f.ColorInput.Focus()
			}
			return f, nil
		}
	}
	var cmd tea.Cmd
	if f.focused == 0 {
		f.NameInput, cmd = f.NameInput.Update(msg)
	} else {
		f.ColorInput, cmd = f.ColorInput.Update(msg)
	}
	return f, cmd
}

func (f *ProjectForm) color() *string {
	c := strings.TrimSpace(f.ColorInput.Value())
	if c == "" {
		return nil
	}
	return &c
}

// ToInput converts the form to the input of a new project.
func (f *ProjectForm) ToInput() model.ProjectInput {
	return model.ProjectInput{Name: f.NameInput.Value(), Color: f.color()}
}

// ToPatch converts the form to a patch of the edited project.
func (f *ProjectForm) ToPatch() model.ProjectPatch {
	name := f.NameInput.Value()
	patch := model.ProjectPatch{Name: &name, Color: model.Clear[string]()}
	if c := f.color(); c != nil {
		patch.Color = model.SetTo(*c)
	}
	return patch
}

// View renders the form.
func (f *ProjectForm) View() string {
	title := f.tr.T("EditorNewProject")
	if f.Editing() {
		title = f.tr.T("EditorEditProject")
	}
	swatch := ""
	if c := f.color(); c != nil {
		swatch = " " + lipgloss.NewStyle().Foreground(lipgloss.Color(*c)).Render("●")
	}

	var b strings.Builder
	b.WriteString(styles.DialogTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(styles.InputLabel.Render(f.tr.T("EditorName")) + "\n" + f.NameInput.View() + "\n")
	b.WriteString(styles.InputLabel.Render(f.tr.T("EditorColor")) + swatch + "\n" + f.ColorInput.View() + "\n\n")
	b.WriteString(styles.HelpDesc.Render(f.tr.T("EditorHint")))
	return b.String()
}

// shiftDue moves t's due date to the day offset from now, keeping its time
// of day. Tasks without a due date become all-day tasks at 09:00.
func shiftDue(t model.Task, now time.Time, offset int) model.TaskPatch {
	day := now.AddDate(0, 0, offset)
	hour, minute, allDay := 9, 0, true
	if due, ok := t.Due(); ok {
		hour, minute, allDay = due.Hour(), due.Minute(), t.IsAllDay
	}
	at := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.Local)
	return model.TaskPatch{DueAt: model.SetTo(model.FormatLocal(at)), IsAllDay: &allDay}
}
