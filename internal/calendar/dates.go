// Package calendar holds the date arithmetic and pointer math behind the month
// and week views: grid construction, time to offset projection, drag-resize,
// hover slots, click-to-create and tooltip placement.
package calendar

import (
	"sort"
	"time"

	"github.com/hy4ri/taskgrid/internal/model"
)

// Cells in a month grid: six weeks of seven days.
const (
	DaysPerWeek   = 7
	WeeksPerMonth = 6
	MonthCells    = DaysPerWeek * WeeksPerMonth

	// MaxCellTasks is how many tasks a month cell lists before "+N".
	MaxCellTasks = 3
)

// StartOfDay returns local midnight of t's day.
func StartOfDay(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// MonthStart returns local midnight of the first day of t's month.
func MonthStart(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.Local)
}

// WeekStart returns local midnight of the Monday of t's week.
func WeekStart(t time.Time) time.Time {
	day := StartOfDay(t)
	return day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
}

// AddMonths returns the first day of the month offset months after t.
func AddMonths(t time.Time, offset int) time.Time {
	return MonthStart(t).AddDate(0, offset, 0)
}

// SameDay reports whether a and b fall on the same local date.
func SameDay(a, b time.Time) bool {
	return DateKey(a) == DateKey(b)
}

// DateKey returns the local YYYY-MM-DD of t.
func DateKey(t time.Time) string {
	return t.In(time.Local).Format(model.DateLayout)
}

// MonthGrid returns the 42 days shown for the month containing visible,
// starting on the Monday on or before the first of the month.
func MonthGrid(visible time.Time) [MonthCells]time.Time {
	first := WeekStart(MonthStart(visible))
	var days [MonthCells]time.Time
	for i := range days {
		days[i] = first.AddDate(0, 0, i)
	}
	return days
}

// WeekDays returns the seven days of the week containing t.
func WeekDays(t time.Time) [DaysPerWeek]time.Time {
	first := WeekStart(t)
	var days [DaysPerWeek]time.Time
	for i := range days {
		days[i] = first.AddDate(0, 0, i)
	}
	return days
}

// BucketByDate groups tasks by the local date of their due time. Tasks
// without a parseable due time are left out. Each bucket keeps input order.
func BucketByDate(tasks []model.Task) map[string][]model.Task {
	buckets := make(map[string][]model.Task)
	for _, t := range tasks {
		due, ok := t.Due()
		if !ok {
			continue
		}
		key := DateKey(due)
		buckets[key] = append(buckets[key], t)
	}
	return buckets
}

// MonthCell is one day of the month grid.
type MonthCell struct {
	Date     time.Time
	Outside  bool
	Today    bool
	Selected bool
	Tasks    []model.Task
	Overflow int
	Busy     bool
}

// BuildMonth lays out the month grid for visible.
func BuildMonth(visible, selected, now time.Time, buckets map[string][]model.Task) [MonthCells]MonthCell {
	var cells [MonthCells]MonthCell
	for i, day := range MonthGrid(visible) {
		tasks := buckets[DateKey(day)]
		cell := MonthCell{
			Date:     day,
			Outside:  day.Month() != MonthStart(visible).Month(),
			Today:    SameDay(day, now),
			Selected: SameDay(day, selected),
			Busy:     len(tasks) > 0,
		}
		if len(tasks) > MaxCellTasks {
			cell.Tasks = tasks[:MaxCellTasks]
			cell.Overflow = len(tasks) - MaxCellTasks
		} else {
			cell.Tasks = tasks
		}
		cells[i] = cell
	}
	return cells
}

// SortByDue orders tasks by due time, unscheduled first.
func SortByDue(tasks []model.Task) []model.Task {
	sorted := append([]model.Task(nil), tasks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return dueMillis(sorted[i]) < dueMillis(sorted[j])
	})
	return sorted
}

func dueMillis(t model.Task) int64 {
	due, ok := t.Due()
	if !ok {
		return 0
	}
	return due.UnixMilli()
}

// Mode is the calendar layout.
type Mode int

const (
	ModeWeek Mode = iota
	ModeMonth
)

func (m Mode) String() string {
	if m == ModeMonth {
		return "month"
	}
	return "week"
}

// View is the navigation state of the calendar. The zero Mode is the week.
type View struct {
	Mode     Mode
	Visible  time.Time
	Selected time.Time
}

// NewView starts on today's week.
func NewView(now time.Time) View {
	return View{Mode: ModeWeek, Visible: MonthStart(now), Selected: StartOfDay(now)}
}

// Prev steps back a month or a week.
func (v View) Prev() View {
	if v.Mode == ModeMonth {
		v.Visible = AddMonths(v.Visible, -1)
		return v
	}
	v.Selected = StartOfDay(v.Selected.AddDate(0, 0, -DaysPerWeek))
	v.Visible = MonthStart(v.Selected)
	return v
}

// Next steps forward a month or a week.
func (v View) Next() View {
	if v.Mode == ModeMonth {
		v.Visible = AddMonths(v.Visible, 1)
		return v
	}
	v.Selected = StartOfDay(v.Selected.AddDate(0, 0, DaysPerWeek))
	v.Visible = MonthStart(v.Selected)
	return v
}

// Today jumps to the current day.
func (v View) Today(now time.Time) View {
	v.Selected = StartOfDay(now)
	v.Visible = MonthStart(now)
	return v
}

// Select focuses a day.
func (v View) Select(day time.Time) View {
	v.Selected = StartOfDay(day)
	v.Visible = MonthStart(day)
	return v
}

// SetMode switches the layout. Entering the week view realigns the visible
// month with the selected day.
func (v View) SetMode(m Mode) View {
	if v.Mode == m {
		return v
	}
	v.Mode = m
	if m == ModeWeek {
		v.Visible = MonthStart(v.Selected)
	}
	return v
}

// Range returns the first and last day currently on screen.
func (v View) Range() (time.Time, time.Time) {
	if v.Mode == ModeMonth {
		grid := MonthGrid(v.Visible)
		return grid[0], grid[MonthCells-1]
	}
	days := WeekDays(v.Selected)
	return days[0], days[DaysPerWeek-1]
}
