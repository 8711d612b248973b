package cloud

import (
	"context"
	"errors"
)

// ErrFileNotFound is returned when a backup file id no longer exists.
var ErrFileNotFound = errors.New("backup file not found")

// Backend stores backup documents for an account.
type Backend interface {
	// AccountID names the signed-in account.
	AccountID(ctx context.Context) (string, error)
	// FindFile returns the id of the file called name, or "" when there is
	// none.
	FindFile(ctx context.Context, name string) (string, error)
	// CreateFile creates an empty backup file and returns its id.
	CreateFile(ctx context.Context, name string) (string, error)
	Upload(ctx context.Context, fileID string, data []byte) error
	Download(ctx context.Context, fileID string) ([]byte, error)
}
