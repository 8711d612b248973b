// Package storage persists the application state as a versioned JSON document.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hy4ri/taskgrid/internal/model"
)

// FileName is the name of the state document inside the data directory.
const FileName = "state.json"

// ErrVersionMismatch is returned by Decode for documents of another version.
var ErrVersionMismatch = errors.New("unsupported state version")

// FileStore reads and writes the state document.
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore creates a store for the document at path.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the location of the document.
func (f *FileStore) Path() string {
	return f.path
}

// Load returns the stored state. A missing, malformed or outdated document
// yields the demo state for now.
func (f *FileStore) Load(now time.Time) model.State {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.logger.Warn("failed to read state file", zap.String("path", f.path), zap.Error(err))
		}
		return DefaultState(now)
	}

	state, err := Decode(data)
	if err != nil {
		f.logger.Warn("discarding stored state", zap.String("path", f.path), zap.Error(err))
		return DefaultState(now)
	}
	return state
}

// Save writes state atomically.
func (f *FileStore) Save(state model.State) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Clear removes the stored document.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	return nil
}

// Decode parses a state document and normalizes it: settings fall back to
// defaults, missing collections become empty and due dates are rewritten in
// local form.
func Decode(data []byte) (model.State, error) {
	var raw model.State
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.State{}, fmt.Errorf("failed to parse state: %w", err)
	}
	if raw.Version != model.StateVersion {
		return model.State{}, fmt.Errorf("%w: %d", ErrVersionMismatch, raw.Version)
	}

	state := model.EmptyState()
	if raw.Projects != nil {
		state.Projects = raw.Projects
	}
	if raw.Tasks != nil {
		state.Tasks = make([]model.Task, len(raw.Tasks))
		for i, t := range raw.Tasks {
			if t.DueAt != nil {
				if due, ok := model.ParseTimestamp(*t.DueAt); ok {
					t.DueAt = model.Ptr(model.FormatLocal(due))
				}
			}
			state.Tasks[i] = t
		}
	}
	state.Settings = model.NormalizeSettings(raw.Settings)
	return state, nil
}

// Encode serializes state as an indented JSON document.
func Encode(state model.State) ([]byte, error) {
	state.Version = model.StateVersion
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize state: %w", err)
	}
	return data, nil
}
