// Package utils provides shared utility functions for the TUI.
package utils

import (
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/hy4ri/taskgrid/internal/model"
)

// TruncateString truncates a string to a given width and adds an ellipsis if truncated.
func TruncateString(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return runewidth.Truncate(s, width, "…")
}

// Fit truncates s and pads it with spaces to exactly width cells.
func Fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.FillRight(TruncateString(s, width), width)
}

// Center pads s on both sides to width cells.
func Center(s string, width int) string {
	s = TruncateString(s, width)
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	left := gap / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
}

// FormatDue renders a task's due date relative to now: a time for today,
// a weekday within the week and a date otherwise.
func FormatDue(t model.Task, now time.Time, format model.TimeFormat) string {
	due, ok := t.Due()
	if !ok {
		return ""
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, due.Location())
	diff := int(math.Round(day.Sub(today).Hours() / 24))

	var label string
	switch {
	case diff == 0:
		label = ""
	case diff == 1:
		label = "tomorrow"
	case diff == -1:
		label = "yesterday"
	case diff > 1 && diff < 7:
		label = due.Format("Mon")
	case due.Year() == now.Year():
		label = due.Format("Jan 2")
	default:
		label = due.Format("Jan 2 2006")
	}

	if t.IsAllDay {
		if label == "" {
			return "today"
		}
		return label
	}
	clock := model.FormatTime(due, format)
	if label == "" {
		return clock
	}
	return label + " " + clock
}
