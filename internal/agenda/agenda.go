// Package agenda answers the read-only list queries behind each screen.
package agenda

import (
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/hy4ri/taskgrid/internal/calendar"
	"github.com/hy4ri/taskgrid/internal/model"
	"github.com/hy4ri/taskgrid/internal/router"
)

// UpcomingDays is the length of the upcoming window, today included.
const UpcomingDays = 7

// MaxSuggestions caps TagSuggestions.
const MaxSuggestions = 8

// DayGroup is the tasks due on one date.
type DayGroup struct {
	Date  time.Time
	Tasks []model.Task
}

// SortByPriorityAndTime orders by priority (high first), then due time
// (unscheduled last), then title.
func SortByPriorityAndTime(tasks []model.Task) []model.Task {
	sorted := append([]model.Task(nil), tasks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		at, bt := dueOrMax(a), dueOrMax(b)
		if at != bt {
			return at < bt
		}
		return a.Title < b.Title
	})
	return sorted
}

// SortByManualOrder orders by order value; missing orders go last and ties
// fall back to creation time.
func SortByManualOrder(tasks []model.Task) []model.Task {
	sorted := append([]model.Task(nil), tasks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := manualOrder(sorted[i]), manualOrder(sorted[j])
		if a == b {
			return sorted[i].CreatedAt < sorted[j].CreatedAt
		}
		return a < b
	})
	return sorted
}

// Today returns the open tasks that are overdue and those due today.
func Today(tasks []model.Task, now time.Time) (overdue, today []model.Task) {
	midnight := calendar.StartOfDay(now)
	for _, t := range tasks {
		if t.Done() {
			continue
		}
		due, ok := t.Due()
		if !ok {
			continue
		}
		switch {
		case due.Before(midnight):
			overdue = append(overdue, t)
		case calendar.SameDay(due, now):
			today = append(today, t)
		}
	}
	return SortByPriorityAndTime(overdue), SortByPriorityAndTime(today)
}

// Upcoming groups the open tasks due within UpcomingDays of today by date.
func Upcoming(tasks []model.Task, now time.Time) []DayGroup {
	from := calendar.StartOfDay(now)
	until := from.AddDate(0, 0, UpcomingDays)

	buckets := make(map[string][]model.Task)
	for _, t := range tasks {
		if t.Done() {
			continue
		}
		due, ok := t.Due()
		if !ok || due.Before(from) || !due.Before(until) {
			continue
		}
		key := calendar.DateKey(due)
		buckets[key] = append(buckets[key], t)
	}

	var groups []DayGroup
	for day := from; day.Before(until); day = day.AddDate(0, 0, 1) {
		if items := buckets[calendar.DateKey(day)]; len(items) > 0 {
			groups = append(groups, DayGroup{Date: day, Tasks: SortByPriorityAndTime(items)})
		}
	}
	return groups
}

// Project returns the open tasks of a project, nil being the inbox, in
// manual order.
func Project(tasks []model.Task, projectID *string) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if !t.Done() && t.InProject(projectID) {
			out = append(out, t)
		}
	}
	return SortByManualOrder(out)
}

// Tag returns the open tasks carrying tag.
func Tag(tasks []model.Task, tag string) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if !t.Done() && t.HasTag(tag) {
			out = append(out, t)
		}
	}
	return SortByPriorityAndTime(out)
}

// Done returns the completed tasks, most recently completed first. filter
// is empty for every project, router.InboxID for the inbox or a project id.
func Done(tasks []model.Task, filter string) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if !t.Done() {
			continue
		}
		switch filter {
		case "":
		case router.InboxID:
			if t.ProjectID != nil && *t.ProjectID != "" {
				continue
			}
		default:
			if model.Deref(t.ProjectID) != filter {
				continue
			}
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return model.EpochMillis(*out[i].DoneAt) > model.EpochMillis(*out[j].DoneAt)
	})
	return out
}

// Day returns the tasks due on day, for the calendar details pane.
func Day(tasks []model.Task, day time.Time) []model.Task {
	return SortByPriorityAndTime(calendar.BucketByDate(tasks)[calendar.DateKey(day)])
}

// Search matches query against titles and descriptions, ignoring case.
// Completed tasks are included. An empty query matches nothing.
func Search(tasks []model.Task, query string) []model.Task {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(query))
	if needle == "" {
		return nil
	}
	var out []model.Task
	for _, t := range tasks {
		if strings.Contains(fold.String(t.Title), needle) ||
			(t.Description != "" && strings.Contains(fold.String(t.Description), needle)) {
			out = append(out, t)
		}
	}
	return out
}

// TagCount is a tag and how many tasks carry it.
type TagCount struct {
	Name  string
	Count int
}

// Tags lists every tag in use, sorted alphabetically.
func Tags(tasks []model.Task) []TagCount {
	counts := make(map[string]int)
	for _, t := range tasks {
		for _, tag := range t.Tags {
			counts[tag]++
		}
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	newCollator().SortStrings(names)

	out := make([]TagCount, len(names))
	for i, name := range names {
		out[i] = TagCount{Name: name, Count: counts[name]}
	}
	return out
}

// TagSuggestions returns up to MaxSuggestions of the available tags that are
// not selected yet and contain filter, ignoring case.
func TagSuggestions(available, selected []string, filter string) []string {
	fold := cases.Fold()
	taken := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		taken[s] = struct{}{}
	}

	unique := make([]string, 0, len(available))
	seen := make(map[string]struct{}, len(available))
	for _, tag := range available {
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		unique = append(unique, tag)
	}
	newCollator().SortStrings(unique)

	needle := fold.String(strings.TrimSpace(filter))
	var out []string
	for _, tag := range unique {
		if _, ok := taken[tag]; ok {
			continue
		}
		if needle != "" && !strings.Contains(fold.String(tag), needle) {
			continue
		}
		out = append(out, tag)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}

// Defaults returns the prefilled fields of a task created from route.
func Defaults(r router.Route, now time.Time) model.TaskInput {
	switch r.Name {
	case router.Project:
		id, _ := r.ProjectID()
		return model.TaskInput{ProjectID: id}
	case router.Tag:
		if r.Param == "" {
			return model.TaskInput{}
		}
		return model.TaskInput{Tags: []string{r.Param}}
	case router.Today:
		return model.TaskInput{DueAt: nineOClock(now, 0), IsAllDay: true}
	case router.Upcoming:
		return model.TaskInput{DueAt: nineOClock(now, 1), IsAllDay: true}
	default:
		return model.TaskInput{}
	}
}

func nineOClock(now time.Time, offsetDays int) *string {
	day := calendar.StartOfDay(now).AddDate(0, 0, offsetDays)
	at := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.Local)
	return model.Ptr(model.FormatLocal(at))
}

func newCollator() *collate.Collator {
	return collate.New(language.Und, collate.IgnoreCase)
}

func dueOrMax(t model.Task) int64 {
	due, ok := t.Due()
	if !ok {
		return math.MaxInt64
	}
	return due.UnixMilli()
}

func manualOrder(t model.Task) float64 {
	if math.IsNaN(t.Order) || math.IsInf(t.Order, 0) {
		return math.MaxFloat64
	}
	return t.Order
}
