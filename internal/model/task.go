package model

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Field limits.
const (
	MaxTitle       = 200
	MaxDescription = 10000
	MaxTag         = 30
	MaxName        = 120

	DefaultDuration = 60
	MinDuration     = 5
	MaxDuration     = 24 * 60
)

// Priority is the importance of a task.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityNormal Priority = 2
	PriorityHigh   Priority = 3
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityNormal || p == PriorityHigh
}

// Subtask is a checklist item inside a task.
type Subtask struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// Task is a unit of work. A nil ProjectID places the task in the inbox and a
// non-nil DoneAt marks it completed.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ProjectID   *string   `json:"projectId"`
	Tags        []string  `json:"tags"`
	DueAt       *string   `json:"dueAt"`
	IsAllDay    bool      `json:"isAllDay"`
	ReminderAt  *string   `json:"reminderAt"`
	Priority    Priority  `json:"priority"`
	Subtasks    []Subtask `json:"subtasks"`
	DoneAt      *string   `json:"doneAt"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   string    `json:"updatedAt"`
	Order       float64   `json:"order"`
	Duration    int       `json:"duration"`
}

// TaskInput carries the caller-supplied fields of a new task. Zero values
// fall back to defaults: a fresh id, normal priority, a 60 minute duration
// and an order derived from the creation time.
type TaskInput struct {
	ID          string
	Title       string
	Description string
	ProjectID   *string
	Tags        []string
	DueAt       *string
	IsAllDay    bool
	ReminderAt  *string
	Priority    Priority
	Subtasks    []Subtask
	DoneAt      *string
	CreatedAt   string
	Order       *float64
	Duration    float64
}

// TaskPatch lists the fields to change on an existing task. Nil pointers and
// nil slices leave the field untouched; an empty title keeps the old title.
type TaskPatch struct {
	Title       *string
	Description *string
	ProjectID   Nullable[string]
	Tags        []string
	DueAt       Nullable[string]
	IsAllDay    *bool
	ReminderAt  Nullable[string]
	Priority    *Priority
	Subtasks    []Subtask
	DoneAt      Nullable[string]
	Order       *float64
	Duration    *float64
}

// NewTask builds a sanitized task stamped at now.
func NewTask(in TaskInput, now time.Time) (Task, error) {
	title, err := sanitizeTitle(in.Title)
	if err != nil {
		return Task{}, err
	}

	id := in.ID
	if id == "" {
		id = NewID()
	}

	createdAt := FormatStamp(now)
	if in.CreatedAt != "" {
		if t, ok := ParseTimestamp(in.CreatedAt); ok {
			createdAt = FormatStamp(t)
		}
	}

	duration := float64(DefaultDuration)
	if in.Duration != 0 {
		duration = in.Duration
	}

	return Task{
		ID:          id,
		Title:       title,
		Description: truncateRunes(in.Description, MaxDescription),
		ProjectID:   normalizeProjectID(in.ProjectID),
		Tags:        NormalizeTags(in.Tags),
		DueAt:       normalizeDate(in.DueAt),
		IsAllDay:    in.IsAllDay,
		ReminderAt:  normalizeDate(in.ReminderAt),
		Priority:    clampPriority(in.Priority),
		Subtasks:    normalizeSubtasks(in.Subtasks),
		DoneAt:      normalizeDate(in.DoneAt),
		CreatedAt:   createdAt,
		UpdatedAt:   FormatStamp(now),
		Order:       sanitizeOrder(in.Order, now),
		Duration:    NormalizeDuration(duration),
	}, nil
}

// Apply returns a copy of t with the patch applied, every touched field
// re-validated and UpdatedAt set to now.
func (t Task) Apply(p TaskPatch, now time.Time) (Task, error) {
	next := t
	if p.Title != nil && *p.Title != "" {
		title, err := sanitizeTitle(*p.Title)
		if err != nil {
			return t, err
		}
		next.Title = title
	}
	if p.Description != nil {
		next.Description = truncateRunes(*p.Description, MaxDescription)
	}
	if p.ProjectID.Set {
		next.ProjectID = normalizeProjectID(p.ProjectID.Value)
	}
	if p.Tags != nil {
		next.Tags = NormalizeTags(p.Tags)
	}
	if p.DueAt.Set {
		next.DueAt = normalizeDate(p.DueAt.Value)
	}
	if p.IsAllDay != nil {
		next.IsAllDay = *p.IsAllDay
	}
	if p.ReminderAt.Set {
		next.ReminderAt = normalizeDate(p.ReminderAt.Value)
	}
	if p.Priority != nil {
		next.Priority = clampPriority(*p.Priority)
	}
	if p.Subtasks != nil {
		next.Subtasks = normalizeSubtasks(p.Subtasks)
	}
	if p.DoneAt.Set {
		next.DoneAt = normalizeDate(p.DoneAt.Value)
	}
	if p.Order != nil {
		next.Order = sanitizeOrder(p.Order, now)
	}
	if p.Duration != nil {
		next.Duration = NormalizeDuration(*p.Duration)
	}
	next.UpdatedAt = FormatStamp(now)
	return next, nil
}

// Done reports whether the task is completed.
func (t Task) Done() bool {
	return t.DoneAt != nil
}

// Due returns the parsed due time in local time.
func (t Task) Due() (time.Time, bool) {
	if t.DueAt == nil {
		return time.Time{}, false
	}
	due, ok := ParseTimestamp(*t.DueAt)
	return due.In(time.Local), ok
}

// InProject reports whether the task belongs to the given project scope,
// where nil is the inbox.
func (t Task) InProject(projectID *string) bool {
	return SameProject(t.ProjectID, projectID)
}

// HasTag reports whether the task carries tag, ignoring case.
func (t Task) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if strings.EqualFold(existing, tag) {
			return true
		}
	}
	return false
}

// EntityID implements Entity.
func (t Task) EntityID() string { return t.ID }

// SortOrder implements Entity.
func (t Task) SortOrder() float64 { return t.Order }

// LastModified implements Entity.
func (t Task) LastModified() string { return t.UpdatedAt }

// WithOrder returns a copy of t with the given order.
func (t Task) WithOrder(order float64) Task {
	t.Order = order
	return t
}

// NormalizeDuration rounds minutes and clamps them to [MinDuration, MaxDuration].
// Non-positive or non-finite values yield DefaultDuration.
func NormalizeDuration(minutes float64) int {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes <= 0 {
		return DefaultDuration
	}
	rounded := int(math.Floor(minutes + 0.5))
	if rounded < MinDuration {
		return MinDuration
	}
	if rounded > MaxDuration {
		return MaxDuration
	}
	return rounded
}

// NormalizeTags trims and truncates tags, drops empty ones and removes
// case-insensitive duplicates keeping the first spelling.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = truncateRunes(strings.TrimSpace(tag), MaxTag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	return out
}

// SameProject compares two project scopes, treating nil and "" as the inbox.
func SameProject(a, b *string) bool {
	return Deref(a) == Deref(b)
}

// NewID returns a fresh entity id.
func NewID() string {
	return uuid.NewString()
}

func normalizeSubtasks(items []Subtask) []Subtask {
	out := make([]Subtask, 0, len(items))
	for _, item := range items {
		title := truncateRunes(strings.TrimSpace(item.Title), MaxTitle)
		if title == "" {
			continue
		}
		id := item.ID
		if id == "" {
			id = NewID()
		}
		out = append(out, Subtask{ID: id, Title: title, Done: item.Done})
	}
	return out
}

func sanitizeTitle(title string) (string, error) {
	value := truncateRunes(strings.TrimSpace(title), MaxTitle)
	if value == "" {
		return "", ErrEmptyTitle
	}
	return value, nil
}

func clampPriority(p Priority) Priority {
	if p.Valid() {
		return p
	}
	return PriorityNormal
}

func sanitizeOrder(order *float64, now time.Time) float64 {
	if order == nil || math.IsNaN(*order) || math.IsInf(*order, 0) {
		return float64(now.UnixMilli())
	}
	return *order
}

func normalizeProjectID(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	v := *id
	return &v
}
