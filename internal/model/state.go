package model

// StateVersion is the only persisted document version this build accepts.
const StateVersion = 1

// RemoveBehavior decides what happens to the tasks of a deleted project.
type RemoveBehavior string

const (
	MoveToInbox     RemoveBehavior = "move-to-inbox"
	DeleteWithTasks RemoveBehavior = "delete-with-tasks"
)

// Valid reports whether b is a known behavior.
func (b RemoveBehavior) Valid() bool {
	return b == MoveToInbox || b == DeleteWithTasks
}

// TimeFormat selects the clock used to render times.
type TimeFormat string

const (
	TimeFormat24h TimeFormat = "24h"
	TimeFormat12h TimeFormat = "12h"
)

// Valid reports whether f is a known format.
func (f TimeFormat) Valid() bool {
	return f == TimeFormat24h || f == TimeFormat12h
}

// Settings are the user preferences stored with the state.
type Settings struct {
	RemoveProjectBehavior RemoveBehavior `json:"removeProjectBehavior"`
	TimeFormat            TimeFormat     `json:"timeFormat"`
}

// DefaultSettings returns the settings of a fresh install.
func DefaultSettings() Settings {
	return Settings{
		RemoveProjectBehavior: MoveToInbox,
		TimeFormat:            TimeFormat24h,
	}
}

// NormalizeSettings replaces unknown values with defaults.
func NormalizeSettings(s Settings) Settings {
	return DefaultSettings().Merge(s)
}

// Merge overlays the valid fields of update onto s. Unknown or empty values
// keep the current setting.
func (s Settings) Merge(update Settings) Settings {
	if update.RemoveProjectBehavior.Valid() {
		s.RemoveProjectBehavior = update.RemoveProjectBehavior
	}
	if update.TimeFormat.Valid() {
		s.TimeFormat = update.TimeFormat
	}
	return s
}

// State is the whole application document.
type State struct {
	Version  int       `json:"version"`
	Projects []Project `json:"projects"`
	Tasks    []Task    `json:"tasks"`
	Settings Settings  `json:"settings"`
}

// EmptyState returns a valid state with no projects or tasks.
func EmptyState() State {
	return State{
		Version:  StateVersion,
		Projects: []Project{},
		Tasks:    []Task{},
		Settings: DefaultSettings(),
	}
}

// Task looks up a task by id.
func (s State) Task(id string) (Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// Project looks up a project by id.
func (s State) Project(id string) (Project, bool) {
	for _, p := range s.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}

// Clone copies the top-level collections so the result can be modified
// without touching s.
func (s State) Clone() State {
	out := s
	out.Projects = append(make([]Project, 0, len(s.Projects)), s.Projects...)
	out.Tasks = append(make([]Task, 0, len(s.Tasks)), s.Tasks...)
	return out
}

// Entity is an identified, ordered and timestamped item of a State collection.
type Entity interface {
	EntityID() string
	SortOrder() float64
	LastModified() string
}
