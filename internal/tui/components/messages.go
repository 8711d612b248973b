package components

import (
	"time"

	"github.com/hy4ri/taskgrid/internal/model"
	"github.com/hy4ri/taskgrid/internal/router"
)

// RouteSelectedMsg is emitted when an entry is chosen in the sidebar.
type RouteSelectedMsg struct {
	Route router.Route
}

// TaskSelectedMsg is emitted when a task is opened from a list or the
// calendar.
type TaskSelectedMsg struct {
	Task model.Task
}

// DaySelectedMsg is emitted when a day is picked in the calendar.
type DaySelectedMsg struct {
	Date time.Time
}
