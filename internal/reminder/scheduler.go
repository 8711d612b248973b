// Package reminder keeps one timer per task reminder and delivers due
// reminders as desktop notifications or in-app banners.
package reminder

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hy4ri/taskgrid/internal/clock"
	"github.com/hy4ri/taskgrid/internal/model"
)

// MaxDelay is the longest single wait. Reminders further out are re-armed
// when the wait ends.
const MaxDelay = time.Duration(math.MaxInt32) * time.Millisecond

type entry struct {
	timer      clock.Timer
	reminderAt string
}

// Scheduler arms a one-shot timer for every open task with a reminder.
type Scheduler struct {
	clock  clock.Clock
	fire   func(model.Task)
	logger *zap.Logger

	mu     sync.Mutex
	timers map[string]entry
}

// NewScheduler creates a scheduler that calls fire when a reminder is due.
// fire runs on the clock's goroutine.
func NewScheduler(c clock.Clock, fire func(model.Task), logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		clock:  c,
		fire:   fire,
		logger: logger,
		timers: make(map[string]entry),
	}
}

// Sync reconciles the timers with tasks. A task whose reminder is unchanged
// keeps its timer; a changed reminder is rescheduled; tasks that are gone,
// completed or without a reminder lose theirs.
func (s *Scheduler) Sync(tasks []model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if t.ReminderAt == nil || *t.ReminderAt == "" || t.Done() {
			continue
		}
		live[t.ID] = struct{}{}

		existing, ok := s.timers[t.ID]
		if ok && existing.reminderAt == *t.ReminderAt {
			continue
		}
		if ok {
			existing.timer.Stop()
			delete(s.timers, t.ID)
		}
		s.scheduleLocked(t)
	}

	for id, e := range s.timers {
		if _, ok := live[id]; !ok {
			e.timer.Stop()
			delete(s.timers, id)
		}
	}
}

func (s *Scheduler) scheduleLocked(t model.Task) {
	at, ok := model.ParseTimestamp(*t.ReminderAt)
	if !ok {
		s.logger.Debug("skipping unparseable reminder", zap.String("task", t.ID), zap.String("reminderAt", *t.ReminderAt))
		return
	}
	delay := at.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}
	if delay > MaxDelay {
		delay = MaxDelay
	}

	reminderAt := *t.ReminderAt
	var timer clock.Timer
	timer = s.clock.AfterFunc(delay, func() {
		s.mu.Lock()
		current, ok := s.timers[t.ID]
		if !ok || current.timer != timer {
			s.mu.Unlock()
			return
		}
		if s.clock.Now().Before(at) {
			s.scheduleLocked(t)
			s.mu.Unlock()
			return
		}
		delete(s.timers, t.ID)
		s.mu.Unlock()

		s.logger.Debug("reminder due", zap.String("task", t.ID))
		if s.fire != nil {
			s.fire(t)
		}
	})
	s.timers[t.ID] = entry{timer: timer, reminderAt: reminderAt}
}

// Pending returns the ids of tasks with an armed timer.
func (s *Scheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.timers))
	for id := range s.timers {
		ids = append(ids, id)
	}
	return ids
}

// Stop cancels every timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.timers {
		e.timer.Stop()
		delete(s.timers, id)
	}
}
