package reminder

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hy4ri/taskgrid/internal/clock"
	"github.com/hy4ri/taskgrid/internal/model"
)

var start = time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)

func withReminder(id string, at time.Time) model.Task {
	return model.Task{ID: id, Title: id, ReminderAt: model.Ptr(model.FormatLocal(at))}
}

func newScheduler() (*Scheduler, *clock.Manual, *[]string) {
	clk := clock.NewManual(start)
	fired := &[]string{}
	s := NewScheduler(clk, func(t model.Task) { *fired = append(*fired, t.ID) }, nil)
	return s, clk, fired
}

func TestScheduler_FiresAtReminderTime(t *testing.T) {
	s, clk, fired := newScheduler()
	s.Sync([]model.Task{
		withReminder("later", start.Add(time.Hour)),
		withReminder("soon", start.Add(time.Minute)),
	})
	assert.Len(t, s.Pending(), 2)

	clk.Advance(time.Minute)
	assert.Equal(t, []string{"soon"}, *fired)

	clk.Advance(time.Hour)
	assert.Equal(t, []string{"soon", "later"}, *fired)
	assert.Empty(t, s.Pending())
}

func TestScheduler_OverdueFiresImmediately(t *testing.T) {
	s, clk, fired := newScheduler()
	s.Sync([]model.Task{withReminder("late", start.Add(-time.Hour))})

	clk.Advance(0)
	assert.Equal(t, []string{"late"}, *fired)
}

func TestScheduler_SyncIsIdempotent(t *testing.T) {
	s, clk, fired := newScheduler()
	tasks := []model.Task{withReminder("a", start.Add(10*time.Minute))}

	s.Sync(tasks)
	clk.Advance(5 * time.Minute)
	s.Sync(tasks)
	s.Sync(tasks)
	clk.Advance(5 * time.Minute)

	assert.Equal(t, []string{"a"}, *fired)
	assert.Zero(t, clk.Pending())
}

func TestScheduler_Reschedules(t *testing.T) {
	s, clk, fired := newScheduler()
	s.Sync([]model.Task{withReminder("a", start.Add(10*time.Minute))})
	s.Sync([]model.Task{withReminder("a", start.Add(20*time.Minute))})

	clk.Advance(15 * time.Minute)
	assert.Empty(t, *fired)
	clk.Advance(5 * time.Minute)
	assert.Equal(t, []string{"a"}, *fired)
}

func TestScheduler_CancelsRemovedTasks(t *testing.T) {
	tests := []struct {
		name string
		next []model.Task
	}{
		{"deleted", nil},
		{"completed", func() []model.Task {
			task := withReminder("a", start.Add(time.Minute))
			task.DoneAt = model.Ptr("2026-03-10T09:00:30")
			return []model.Task{task}
		}()},
		{"cleared", []model.Task{{ID: "a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, clk, fired := newScheduler()
			s.Sync([]model.Task{withReminder("a", start.Add(time.Minute))})
			s.Sync(tt.next)

			clk.Advance(time.Hour)
			assert.Empty(t, *fired)
			assert.Zero(t, clk.Pending())
		})
	}
}

func TestScheduler_ClampsLongDelays(t *testing.T) {
	s, clk, fired := newScheduler()
	s.Sync([]model.Task{withReminder("far", start.AddDate(0, 2, 0))})

	clk.Advance(MaxDelay)
	assert.Empty(t, *fired, "still weeks away")
	assert.Equal(t, []string{"far"}, s.Pending(), "re-armed")

	clk.Set(start.AddDate(0, 2, 0))
	assert.Equal(t, []string{"far"}, *fired)

	clk.Advance(MaxDelay)
	assert.Equal(t, []string{"far"}, *fired, "fires once")
}

func TestScheduler_Stop(t *testing.T) {
	s, clk, fired := newScheduler()
	s.Sync([]model.Task{withReminder("a", start.Add(time.Minute))})
	s.Stop()
	clk.Advance(time.Hour)
	assert.Empty(t, *fired)
}

type fakeNotifier struct {
	err   error
	calls int
	title string
}

func (f *fakeNotifier) Notify(title, _ string) error {
	f.calls++
	f.title = title
	return f.err
}

func TestDispatcher_ExactlyOnePath(t *testing.T) {
	tests := []struct {
		name       string
		permitted  bool
		nativeErr  error
		wantPath   Path
		wantNative int
		wantBanner int
	}{
		{"native", true, nil, PathNative, 1, 0},
		{"not permitted", false, nil, PathBanner, 0, 1},
		{"native fails", true, errors.New("no dbus"), PathBanner, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			native := &fakeNotifier{err: tt.nativeErr}
			banners := 0
			d := &Dispatcher{
				Native:    native,
				Permitted: tt.permitted,
				Banner:    func(model.Task) { banners++ },
			}

			path := d.Deliver(model.Task{ID: "t", Title: "Call Bob"})
			assert.Equal(t, tt.wantPath, path)
			assert.Equal(t, tt.wantNative, native.calls)
			assert.Equal(t, tt.wantBanner, banners)
		})
	}
}

func TestDispatcher_DefaultText(t *testing.T) {
	native := &fakeNotifier{}
	d := &Dispatcher{Native: native, Permitted: true}
	require.Equal(t, PathNative, d.Deliver(model.Task{Title: "Call Bob"}))
	assert.Equal(t, "Reminder: Call Bob", native.title)
}
