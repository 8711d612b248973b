// Package cloud keeps a backup of the state in the user's Google Drive.
package cloud

import "fmt"

// State is the phase of the sync connection.
type State string

const (
	StateIdle           State = "idle"
	StateDisconnected   State = "disconnected"
	StateAuthenticating State = "authenticating"
	StateConnected      State = "connected"
	StateSyncing        State = "syncing"
	StateError          State = "error"
)

// Reason explains a status. The values double as message ids of the UI
// catalogue.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonNotConfigured  Reason = "SyncNotConfigured"
	ReasonAuthFailed     Reason = "SyncAuthFailed"
	ReasonSessionExpired Reason = "SyncSessionExpired"
	ReasonPushFailed     Reason = "SyncPushFailed"
	ReasonPullFailed     Reason = "SyncPullFailed"
	ReasonFileFailed     Reason = "SyncFileFailed"
)

// Status is a snapshot reported to status listeners.
type Status struct {
	State  State
	Reason Reason
	// Detail is the underlying error text, for logs and the CLI.
	Detail        string
	LastSyncedAt  string
	Authenticated bool
}

// Busy reports whether a network operation is running.
func (s Status) Busy() bool {
	return s.State == StateSyncing || s.State == StateAuthenticating
}

// String renders a status for the CLI.
func (s Status) String() string {
	out := string(s.State)
	if s.Reason != ReasonNone {
		out += fmt.Sprintf(" (%s)", s.Reason)
	}
	if s.LastSyncedAt != "" {
		out += ", last synced " + s.LastSyncedAt
	}
	return out
}
