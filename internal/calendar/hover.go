package calendar

import (
	"fmt"
	"math"
	"time"

	"github.com/hy4ri/taskgrid/internal/model"
)

// HoverSlot returns the first minute of the quarter hour under relY in a
// day column of the given height.
func HoverSlot(relY, columnHeight float64) int {
	if columnHeight <= 0 {
		return 0
	}
	minutes := clamp(relY/columnHeight*DayMinutes, 0, DayMinutes-QuarterMinutes)
	return int(math.Floor(minutes/QuarterMinutes)) * QuarterMinutes
}

// ClickMinutes returns the minute of the day under relY, rounded.
func ClickMinutes(relY, columnHeight float64) int {
	if columnHeight <= 0 {
		return 0
	}
	return int(roundHalfUp(clamp(relY/columnHeight*DayMinutes, 0, DayMinutes-1)))
}

// ClickToCreate returns the input of a task created by clicking a day
// column at relY. It fails on a column with no height.
func ClickToCreate(day time.Time, relY, columnHeight float64) (model.TaskInput, bool) {
	if columnHeight <= 0 {
		return model.TaskInput{}, false
	}
	due := atMinutes(day, ClickMinutes(relY, columnHeight))
	return model.TaskInput{
		DueAt:    model.Ptr(model.FormatLocal(due)),
		Duration: model.DefaultDuration,
	}, true
}

// TaskLabel is the text of a month cell chip: the time unless the task is
// all-day, then the title.
func TaskLabel(t model.Task, format model.TimeFormat) string {
	due, ok := t.Due()
	if t.IsAllDay || !ok {
		return t.Title
	}
	return model.FormatTime(due, format) + " · " + t.Title
}

// TooltipText is the two-line description of a task block.
func TooltipText(t model.Task, project *model.Project, format model.TimeFormat, noTime string) string {
	stamp := noTime
	if due, ok := t.Due(); ok {
		stamp = model.FormatTime(due, format)
	}
	prefix := ""
	if project != nil && project.Name != "" {
		prefix = project.Name + " · "
	}
	return fmt.Sprintf("%s%s\n%s · %d min", prefix, t.Title, stamp, taskDuration(t))
}
