package calendar

import (
	"math"
	"time"

	"github.com/hy4ri/taskgrid/internal/model"
)

// Minute arithmetic of the week grid.
const (
	DayMinutes     = 24 * 60
	QuarterMinutes = 15
	MinDuration    = 15

	DefaultHourHeight     = 60
	DefaultMinBlockHeight = 28
	DefaultScrollHour     = 8
)

// Grid projects minutes of the day onto a vertical axis. Units are whatever
// the renderer uses: pixels or terminal rows.
type Grid struct {
	HourHeight     float64
	MinBlockHeight float64
}

// DefaultGrid is the pixel grid: 60 units per hour and blocks at least 28 high.
func DefaultGrid() Grid {
	return Grid{HourHeight: DefaultHourHeight, MinBlockHeight: DefaultMinBlockHeight}
}

// Offset converts minutes since midnight to a vertical offset.
func (g Grid) Offset(minutes float64) float64 {
	return minutes / 60 * g.HourHeight
}

// Minutes converts a vertical distance to minutes.
func (g Grid) Minutes(offset float64) float64 {
	if g.HourHeight <= 0 {
		return 0
	}
	return offset / g.HourHeight * 60
}

// ColumnHeight is the height of a full day column.
func (g Grid) ColumnHeight() float64 {
	return g.Offset(DayMinutes)
}

// ScrollOffset is where the week view starts scrolled to.
func (g Grid) ScrollOffset() float64 {
	return g.Offset(DefaultScrollHour * 60)
}

// Block is a task positioned in a day column.
type Block struct {
	Task     model.Task
	Start    int
	Duration int
	Top      float64
	Height   float64
}

// End is the minute the block ends, capped at midnight.
func (b Block) End() int {
	return min(DayMinutes, b.Start+b.Duration)
}

// Layout positions a task by its due time. Tasks without a due time have no
// block.
func (g Grid) Layout(t model.Task) (Block, bool) {
	due, ok := t.Due()
	if !ok {
		return Block{}, false
	}
	start := due.Hour()*60 + due.Minute()
	duration := taskDuration(t)
	return Block{
		Task:     t,
		Start:    start,
		Duration: duration,
		Top:      math.Max(g.Offset(float64(start)), 0),
		Height:   math.Max(g.Offset(float64(duration)), g.MinBlockHeight),
	}, true
}

// DayBlocks lays out the tasks due on day, earliest first.
func (g Grid) DayBlocks(buckets map[string][]model.Task, day time.Time) []Block {
	tasks := SortByDue(buckets[DateKey(day)])
	blocks := make([]Block, 0, len(tasks))
	for _, t := range tasks {
		if b, ok := g.Layout(t); ok {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// SnapQuarter rounds minutes to the nearest quarter hour, halves upward.
func SnapQuarter(minutes float64) float64 {
	return math.Floor(minutes/QuarterMinutes+0.5) * QuarterMinutes
}

func taskDuration(t model.Task) int {
	if t.Duration <= 0 {
		return model.DefaultDuration
	}
	return t.Duration
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// atMinutes returns day's local midnight plus minutes.
func atMinutes(day time.Time, minutes int) time.Time {
	d := StartOfDay(day)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, minutes, 0, 0, time.Local)
}
