// Package store holds the application state and applies every mutation to it.
//
// Each mutation computes a new snapshot, hands it to the persister and then
// notifies observers synchronously in subscription order. Mutations that name
// an id which does not exist change nothing and report false.
package store

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hy4ri/taskgrid/internal/clock"
	"github.com/hy4ri/taskgrid/internal/model"
)

// Store is the single owner of the application state.
type Store struct {
	mu        sync.Mutex
	state     model.State
	observers []subscription
	nextSubID int

	persister Persister
	clock     clock.Clock
	logger    *zap.Logger
	defaults  func(time.Time) model.State
}

type subscription struct {
	id       int
	observer Observer
}

// Option configures a Store.
type Option func(*Store)

// WithPersister schedules a save of every new snapshot.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithClock sets the clock used for timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLogger sets the logger used to report failing observers.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithDefaults sets the state Reset falls back to.
func WithDefaults(fn func(time.Time) model.State) Option {
	return func(s *Store) { s.defaults = fn }
}

// New creates a store holding initial.
func New(initial model.State, opts ...Option) *Store {
	s := &Store{
		state:  initial,
		clock:  clock.New(),
		logger: zap.NewNop(),
		defaults: func(time.Time) model.State {
			return model.EmptyState()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot. Callers must treat it as read-only.
func (s *Store) State() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Store) Subscribe(o Observer) func() {
	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.observers = append(s.observers, subscription{id: id, observer: o})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.observers {
				if sub.id == id {
					s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// SubscribeFunc registers fn as an observer.
func (s *Store) SubscribeFunc(fn func(Change)) func() {
	return s.Subscribe(ObserverFunc(fn))
}

// update runs producer against the current state. A producer returning false
// leaves the state untouched and nothing is broadcast.
func (s *Store) update(meta Meta, producer func(current model.State) (model.State, bool)) bool {
	s.mu.Lock()
	next, ok := producer(s.state)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.state = next
	observers := append([]subscription(nil), s.observers...)
	persister := s.persister
	s.mu.Unlock()

	if persister != nil {
		persister.Schedule(next)
	}
	change := Change{State: next, Meta: meta}
	for _, sub := range observers {
		s.deliver(sub.observer, change)
	}
	return true
}

func (s *Store) deliver(o Observer, change Change) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("store observer failed",
				zap.Stringer("event", change.Meta.Kind),
				zap.String("id", change.Meta.ID),
				zap.Any("panic", r),
			)
		}
	}()
	o.OnChange(change)
}

func (s *Store) now() time.Time {
	return s.clock.Now()
}

// AddTask creates a task from in and appends it to the state.
func (s *Store) AddTask(in model.TaskInput) (model.Task, error) {
	task, err := model.NewTask(in, s.now())
	if err != nil {
		return model.Task{}, fmt.Errorf("add task: %w", err)
	}
	s.update(Meta{Kind: TaskAdded, ID: task.ID}, func(cur model.State) (model.State, bool) {
		next := cur.Clone()
		next.Tasks = append(next.Tasks, task)
		return next, true
	})
	return task, nil
}

// UpdateTask applies p to the task with the given id.
func (s *Store) UpdateTask(id string, p model.TaskPatch) (bool, error) {
	var applyErr error
	ok := s.update(Meta{Kind: TaskUpdated, ID: id}, func(cur model.State) (model.State, bool) {
		return s.replaceTask(cur, id, func(t model.Task) (model.Task, error) {
			updated, err := t.Apply(p, s.now())
			applyErr = err
			return updated, err
		})
	})
	if applyErr != nil {
		return false, fmt.Errorf("update task: %w", applyErr)
	}
	return ok, nil
}

// ToggleTaskDone flips the completion of a task. A non-nil force sets the
// completion to *force instead.
func (s *Store) ToggleTaskDone(id string, force *bool) bool {
	return s.update(Meta{Kind: TaskToggled, ID: id}, func(cur model.State) (model.State, bool) {
		return s.replaceTask(cur, id, func(t model.Task) (model.Task, error) {
			complete := !t.Done()
			if force != nil {
				complete = *force
			}
			now := s.now()
			doneAt := model.Clear[string]()
			if complete {
				doneAt = model.SetTo(model.FormatLocal(now))
			}
			return t.Apply(model.TaskPatch{DoneAt: doneAt}, now)
		})
	})
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(id string) bool {
	return s.update(Meta{Kind: TaskDeleted, ID: id}, func(cur model.State) (model.State, bool) {
		tasks := make([]model.Task, 0, len(cur.Tasks))
		found := false
		for _, t := range cur.Tasks {
			if t.ID == id {
				found = true
				continue
			}
			tasks = append(tasks, t)
		}
		if !found {
			return cur, false
		}
		next := cur
		next.Tasks = tasks
		return next, true
	})
}

// ReorderTask moves a task to dest among the tasks of projectID (nil is the
// inbox) and resequences that scope only.
func (s *Store) ReorderTask(id string, dest int, projectID *string) bool {
	return s.update(Meta{Kind: TaskReordered, ID: id, ProjectID: projectID}, func(cur model.State) (model.State, bool) {
		return reorderWithin(cur, cur.Tasks, id, dest, projectID)
	})
}

// MoveTaskToProject assigns a task to projectID and places it at dest within
// the destination scope.
func (s *Store) MoveTaskToProject(id string, projectID *string, dest int) bool {
	return s.update(Meta{Kind: TaskMoved, ID: id, ProjectID: projectID}, func(cur model.State) (model.State, bool) {
		moved, ok := s.replaceTask(cur, id, func(t model.Task) (model.Task, error) {
			return t.Apply(model.TaskPatch{ProjectID: model.Nullable[string]{Set: true, Value: projectID}}, s.now())
		})
		if !ok {
			return cur, false
		}
		return reorderWithin(moved, moved.Tasks, id, dest, projectID)
	})
}

// AddProject creates a project from in.
func (s *Store) AddProject(in model.ProjectInput) (model.Project, error) {
	project, err := model.NewProject(in, s.now())
	if err != nil {
		return model.Project{}, fmt.Errorf("add project: %w", err)
	}
	s.update(Meta{Kind: ProjectAdded, ID: project.ID}, func(cur model.State) (model.State, bool) {
		next := cur.Clone()
		next.Projects = append(next.Projects, project)
		return next, true
	})
	return project, nil
}

// UpdateProject applies p to the project with the given id.
func (s *Store) UpdateProject(id string, p model.ProjectPatch) (bool, error) {
	var applyErr error
	ok := s.update(Meta{Kind: ProjectUpdated, ID: id}, func(cur model.State) (model.State, bool) {
		next := cur.Clone()
		for i, project := range next.Projects {
			if project.ID != id {
				continue
			}
			updated, err := project.Apply(p, s.now())
			if err != nil {
				applyErr = err
				return cur, false
			}
			next.Projects[i] = updated
			return next, true
		}
		return cur, false
	})
	if applyErr != nil {
		return false, fmt.Errorf("update project: %w", applyErr)
	}
	return ok, nil
}

// DeleteProject removes a project. Its tasks are deleted or moved to the
// inbox according to behavior, or the stored setting when behavior is empty.
func (s *Store) DeleteProject(id string, behavior model.RemoveBehavior) bool {
	return s.update(Meta{Kind: ProjectDeleted, ID: id}, func(cur model.State) (model.State, bool) {
		if _, ok := cur.Project(id); !ok {
			return cur, false
		}
		if !behavior.Valid() {
			behavior = cur.Settings.RemoveProjectBehavior
		}

		next := cur
		next.Projects = make([]model.Project, 0, len(cur.Projects))
		for _, p := range cur.Projects {
			if p.ID != id {
				next.Projects = append(next.Projects, p)
			}
		}

		now := s.now()
		next.Tasks = make([]model.Task, 0, len(cur.Tasks))
		for _, t := range cur.Tasks {
			if model.Deref(t.ProjectID) != id {
				next.Tasks = append(next.Tasks, t)
				continue
			}
			if behavior == model.DeleteWithTasks {
				continue
			}
			inboxed, _ := t.Apply(model.TaskPatch{ProjectID: model.Clear[string]()}, now)
			next.Tasks = append(next.Tasks, inboxed)
		}
		return next, true
	})
}

// ReorderProject moves a project to dest and resequences all projects.
func (s *Store) ReorderProject(id string, dest int) bool {
	return s.update(Meta{Kind: ProjectReordered, ID: id}, func(cur model.State) (model.State, bool) {
		projects, ok := Reorder(cur.Projects, id, dest)
		if !ok {
			return cur, false
		}
		next := cur
		next.Projects = projects
		return next, true
	})
}

// UpdateSettings merges the valid fields of update into the settings.
func (s *Store) UpdateSettings(update model.Settings) model.Settings {
	var merged model.Settings
	s.update(Meta{Kind: SettingsUpdated}, func(cur model.State) (model.State, bool) {
		next := cur
		next.Settings = cur.Settings.Merge(update)
		merged = next.Settings
		return next, true
	})
	return merged
}

// ClearCompletedTasks removes completed tasks within scope and returns how
// many were removed.
func (s *Store) ClearCompletedTasks(scope Scope) int {
	removed := 0
	s.update(Meta{Kind: TasksCleared, ProjectID: scope.ProjectID}, func(cur model.State) (model.State, bool) {
		next := cur
		next.Tasks = make([]model.Task, 0, len(cur.Tasks))
		for _, t := range cur.Tasks {
			if t.Done() && scope.Contains(t) {
				removed++
				continue
			}
			next.Tasks = append(next.Tasks, t)
		}
		return next, true
	})
	return removed
}

// ReplaceState swaps in a whole new state, for example a cloud merge result.
func (s *Store) ReplaceState(state model.State) {
	s.update(Meta{Kind: StateReplaced}, func(model.State) (model.State, bool) {
		return state, true
	})
}

// Reset replaces the state with the configured defaults.
func (s *Store) Reset() {
	fresh := s.defaults(s.now())
	s.update(Meta{Kind: StateReset}, func(model.State) (model.State, bool) {
		return fresh, true
	})
}

func (s *Store) replaceTask(cur model.State, id string, fn func(model.Task) (model.Task, error)) (model.State, bool) {
	for i, t := range cur.Tasks {
		if t.ID != id {
			continue
		}
		updated, err := fn(t)
		if err != nil {
			return cur, false
		}
		next := cur.Clone()
		next.Tasks[i] = updated
		return next, true
	}
	return cur, false
}

func reorderWithin(cur model.State, tasks []model.Task, id string, dest int, projectID *string) (model.State, bool) {
	scoped := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.InProject(projectID) {
			scoped = append(scoped, t)
		}
	}
	reordered, ok := Reorder(scoped, id, dest)
	if !ok {
		return cur, false
	}

	byID := make(map[string]model.Task, len(reordered))
	for _, t := range reordered {
		byID[t.ID] = t
	}
	next := cur
	next.Tasks = make([]model.Task, len(tasks))
	for i, t := range tasks {
		if r, ok := byID[t.ID]; ok {
			next.Tasks[i] = r
			continue
		}
		next.Tasks[i] = t
	}
	return next, true
}
