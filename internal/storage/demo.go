package storage

import (
	"time"

	"github.com/hy4ri/taskgrid/internal/model"
)

type projectPreset struct {
	id, name, color string
}

var projectPresets = []projectPreset{
	{"proj-alpha", "Product Alpha", "#EB5757"},
	{"proj-growth", "Growth & Marketing", "#2F80ED"},
	{"proj-ops", "Operations & Support", "#27AE60"},
	{"proj-life", "Personal & Wellness", "#F2C94C"},
}

// Days are offsets from Monday.
type demoEntry struct {
	title     string
	days      []int
	start     int
	duration  int
	priority  model.Priority
	projectID string
}

var demoSchedule = []demoEntry{
	{"Morning sync", []int{0, 1, 2, 3, 4}, 8*60 + 15, 30, model.PriorityHigh, "proj-ops"},
	{"Deep work on the feature", []int{0, 1, 2, 3, 4}, 9 * 60, 180, model.PriorityNormal, "proj-alpha"},
	{"Metrics dashboard refresh", []int{0, 2, 4}, 12*60 + 15, 45, model.PriorityNormal, "proj-growth"},
	{"Inbox triage", []int{0, 1, 2, 3, 4}, 13 * 60, 30, model.PriorityLow, "proj-ops"},
	{"Team 1:1s", []int{0, 2, 4}, 13*60 + 45, 90, model.PriorityHigh, "proj-ops"},
	{"Lunch & networking", []int{0, 1, 2, 3, 4}, 12 * 60, 45, model.PriorityLow, "proj-life"},
	{"Marketing experiments", []int{1, 3}, 15 * 60, 120, model.PriorityNormal, "proj-growth"},
	{"Design call", []int{1, 3}, 17 * 60, 60, model.PriorityNormal, "proj-alpha"},
	{"End of day report", []int{0, 1, 2, 3, 4}, 18 * 60, 30, model.PriorityNormal, "proj-ops"},
	{"Customer support", []int{1, 2, 4}, 19 * 60, 60, model.PriorityLow, "proj-ops"},
	{"Evening workout", []int{1, 3, 5}, 20 * 60, 60, model.PriorityNormal, "proj-life"},
	{"Content sprint", []int{5}, 10 * 60, 150, model.PriorityNormal, "proj-growth"},
	{"Weekend prototype", []int{6}, 10*60 + 30, 210, model.PriorityLow, "proj-alpha"},
	{"Plan next week", []int{6}, 15 * 60, 120, model.PriorityNormal, "proj-ops"},
	{"Personal growth", []int{5}, 15*60 + 30, 90, model.PriorityNormal, "proj-life"},
}

// DefaultState returns the state of a fresh install: four sample projects
// and a week of scheduled tasks around now.
func DefaultState(now time.Time) model.State {
	state := model.EmptyState()
	stamp := model.FormatStamp(now)

	for i, preset := range projectPresets {
		state.Projects = append(state.Projects, model.Project{
			ID:        preset.id,
			Name:      preset.name,
			Color:     model.Ptr(preset.color),
			Order:     float64((i + 1) * 1000),
			CreatedAt: stamp,
			UpdatedAt: stamp,
		})
	}

	local := now.In(time.Local)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
	weekStart := midnight.AddDate(0, 0, -((int(midnight.Weekday()) + 6) % 7))

	order := 0
	for _, entry := range demoSchedule {
		for _, day := range entry.days {
			date := weekStart.AddDate(0, 0, day)
			due := time.Date(date.Year(), date.Month(), date.Day(), entry.start/60, entry.start%60, 0, 0, time.Local)
			order++
			state.Tasks = append(state.Tasks, model.Task{
				ID:        model.NewID(),
				Title:     entry.title,
				ProjectID: model.Ptr(entry.projectID),
				Tags:      []string{},
				DueAt:     model.Ptr(model.FormatLocal(due)),
				Priority:  entry.priority,
				Subtasks:  []model.Subtask{},
				CreatedAt: stamp,
				UpdatedAt: stamp,
				Order:     float64(order * 1000),
				Duration:  entry.duration,
			})
		}
	}
	return state
}
