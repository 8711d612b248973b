package store

import "github.com/hy4ri/taskgrid/internal/model"

// EventKind identifies the mutation that produced a Change.
type EventKind int

const (
	TaskAdded EventKind = iota + 1
	TaskUpdated
	TaskToggled
	TaskDeleted
	TaskReordered
	TaskMoved
	TasksCleared
	ProjectAdded
	ProjectUpdated
	ProjectDeleted
	ProjectReordered
	SettingsUpdated
	StateReplaced
	StateReset
)

var kindNames = map[EventKind]string{
	TaskAdded:        "task:add",
	TaskUpdated:      "task:update",
	TaskToggled:      "task:toggle",
	TaskDeleted:      "task:delete",
	TaskReordered:    "task:reorder",
	TaskMoved:        "task:move",
	TasksCleared:     "task:clearCompleted",
	ProjectAdded:     "project:add",
	ProjectUpdated:   "project:update",
	ProjectDeleted:   "project:delete",
	ProjectReordered: "project:reorder",
	SettingsUpdated:  "settings:update",
	StateReplaced:    "state:replace",
	StateReset:       "state:reset",
}

func (k EventKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Meta describes a Change.
type Meta struct {
	Kind      EventKind
	ID        string
	ProjectID *string
}

// Change is delivered to observers after every applied mutation.
type Change struct {
	State model.State
	Meta  Meta
}

// Observer receives state changes.
type Observer interface {
	OnChange(Change)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Change)

// OnChange implements Observer.
func (f ObserverFunc) OnChange(c Change) { f(c) }

// Persister receives every new snapshot. Implementations are expected to
// coalesce writes.
type Persister interface {
	Schedule(model.State)
}
