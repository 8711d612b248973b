// Package model defines the task, project and settings entities together with
// the sanitizing constructors and updaters that keep them valid.
package model

import (
	"strings"
	"time"
)

const (
	// LocalLayout is the wall-clock form used for dueAt, reminderAt and doneAt.
	LocalLayout = "2006-01-02T15:04:05"

	// StampLayout is the UTC form used for createdAt and updatedAt.
	StampLayout = "2006-01-02T15:04:05.000Z07:00"

	// DateLayout is the layout of a calendar date key.
	DateLayout = "2006-01-02"
)

var localLayouts = []string{
	LocalLayout,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	DateLayout,
}

// ParseTimestamp parses any timestamp the application writes or accepts.
// Zoned values keep their offset, zone-less values are read in local time.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatLocal renders t as a zone-less local timestamp.
func FormatLocal(t time.Time) string {
	return t.In(time.Local).Format(LocalLayout)
}

// FormatStamp renders t as a UTC timestamp with millisecond precision.
func FormatStamp(t time.Time) string {
	return t.UTC().Format(StampLayout)
}

// EpochMillis returns the Unix time of value in milliseconds, or 0 when the
// value cannot be parsed.
func EpochMillis(value string) int64 {
	t, ok := ParseTimestamp(value)
	if !ok {
		return 0
	}
	return t.UnixMilli()
}

// normalizeDate returns nil for empty or unparseable input, otherwise the
// local form of the timestamp.
func normalizeDate(value *string) *string {
	if value == nil {
		return nil
	}
	t, ok := ParseTimestamp(*value)
	if !ok {
		return nil
	}
	s := FormatLocal(t)
	return &s
}

// FormatTime renders the clock part of t in the given time format.
func FormatTime(t time.Time, format TimeFormat) string {
	if format == TimeFormat12h {
		return t.Format("3:04 PM")
	}
	return t.Format("15:04")
}
