// Package merge reconciles a local state with a cloud backup. For every id
// the copy with the later updatedAt wins; on a tie the remote copy wins.
package merge

import (
	"github.com/hy4ri/taskgrid/internal/model"
	"github.com/hy4ri/taskgrid/internal/store"
)

// State merges remote into local. Settings take every valid remote value.
func State(local, remote model.State) model.State {
	return model.State{
		Version:  model.StateVersion,
		Projects: Collection(local.Projects, remote.Projects),
		Tasks:    Collection(local.Tasks, remote.Tasks),
		Settings: local.Settings.Merge(remote.Settings),
	}
}

// Collection merges two collections by id and returns the result sorted by
// order. Items without an id are dropped. Timestamps that cannot be parsed
// count as the epoch.
func Collection[T model.Entity](local, remote []T) []T {
	index := make(map[string]int, len(local)+len(remote))
	merged := make([]T, 0, len(local)+len(remote))

	for _, item := range local {
		id := item.EntityID()
		if id == "" {
			continue
		}
		if i, ok := index[id]; ok {
			merged[i] = item
			continue
		}
		index[id] = len(merged)
		merged = append(merged, item)
	}

	for _, item := range remote {
		id := item.EntityID()
		if id == "" {
			continue
		}
		i, ok := index[id]
		if !ok {
			index[id] = len(merged)
			merged = append(merged, item)
			continue
		}
		if model.EpochMillis(item.LastModified()) >= model.EpochMillis(merged[i].LastModified()) {
			merged[i] = item
		}
	}

	return store.SortByOrder(merged)
}

// ShouldApply reports whether a backup stamped syncedAt needs merging when
// lastSeen is the stamp of the last backup applied. Unstamped backups are
// always applied.
func ShouldApply(lastSeen, syncedAt string, force bool) bool {
	return force || syncedAt == "" || lastSeen != syncedAt
}
