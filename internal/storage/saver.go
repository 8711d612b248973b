package storage

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hy4ri/taskgrid/internal/clock"
	"github.com/hy4ri/taskgrid/internal/model"
)

// SaveDelay is how long the saver waits for further changes before writing.
const SaveDelay = 200 * time.Millisecond

// Saver coalesces bursts of snapshots into a single write of the latest one.
type Saver struct {
	clock  clock.Clock
	write  func(model.State) error
	logger *zap.Logger

	mu      sync.Mutex
	pending *model.State
	timer   clock.Timer
}

// NewSaver creates a saver that hands snapshots to write.
func NewSaver(c clock.Clock, write func(model.State) error, logger *zap.Logger) *Saver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saver{clock: c, write: write, logger: logger}
}

// Schedule replaces the pending snapshot and restarts the delay.
func (s *Saver) Schedule(state model.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = &state
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.clock.AfterFunc(SaveDelay, s.Flush)
}

// Flush writes the pending snapshot now, if there is one. Write errors are
// logged and the snapshot is dropped.
func (s *Saver) Flush() {
	s.mu.Lock()
	state := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	if state == nil {
		return
	}
	if err := s.write(*state); err != nil {
		s.logger.Error("failed to save state", zap.Error(err))
	}
}
