package cloud

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/hy4ri/taskgrid/internal/model"
	"github.com/hy4ri/taskgrid/internal/storage"
)

// Meta describes a backup.
type Meta struct {
	SyncedAt string `json:"syncedAt,omitempty"`
}

// Backup is the document stored in the cloud.
type Backup struct {
	Meta  Meta         `json:"meta"`
	State *model.State `json:"state"`
}

type rawBackup struct {
	Meta  Meta            `json:"meta"`
	State json.RawMessage `json:"state"`
}

// EncodeBackup serializes a backup of state stamped with syncedAt.
func EncodeBackup(state model.State, syncedAt string) ([]byte, error) {
	state.Version = model.StateVersion
	data, err := json.Marshal(Backup{Meta: Meta{SyncedAt: syncedAt}, State: &state})
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return data, nil
}

// DecodeBackup parses a backup. A document without a usable state, such as
// the "{}" a fresh file holds, yields nil without error.
func DecodeBackup(data []byte) (*Backup, error) {
	var raw rawBackup
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse backup: %w", err)
	}
	if len(raw.State) == 0 || string(raw.State) == "null" {
		return nil, nil
	}
	state, err := storage.Decode(raw.State)
	if err != nil {
		return nil, fmt.Errorf("failed to parse backup state: %w", err)
	}
	return &Backup{Meta: raw.Meta, State: &state}, nil
}

var jsonSuffix = regexp.MustCompile(`(?i)\.json$`)

// BackupName returns the per-account file name "<base>-<account>.json".
func BackupName(base, accountID string) string {
	if accountID == "" {
		accountID = "default"
	}
	return jsonSuffix.ReplaceAllString(base, "") + "-" + accountID + ".json"
}
