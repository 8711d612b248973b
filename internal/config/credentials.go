package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

const keyringService = appName

// ErrNoSecret is returned when a secret is stored nowhere.
var ErrNoSecret = errors.New("secret not found")

// DataDir returns the path to the data directory for state and secure storage.
// Uses XDG_DATA_HOME or defaults to ~/.local/share/taskgrid/
func DataDir() (string, error) {
	// Check XDG_DATA_HOME first
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataHome = filepath.Join(homeDir, ".local", "share")
	}

	dataDir := filepath.Join(dataHome, appName)
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}

// Secrets stores small credentials such as OAuth tokens.
type Secrets struct {
	// Dir holds the fallback files used when no keyring is available.
	Dir string
}

// GetSecret retrieves a secret from available sources.
// Priority: 1. TASKGRID_<NAME> env var, 2. System keyring, 3. Credentials file
func (s Secrets) GetSecret(name string) (string, error) {
	// 1. Check environment variable (highest priority, allows override)
	if v := os.Getenv(envName(name)); v != "" {
		return strings.TrimSpace(v), nil
	}

	// 2. Try system keyring
	v, err := keyring.Get(keyringService, name)
	if err == nil && v != "" {
		return strings.TrimSpace(v), nil
	}

	// 3. Fall back to credentials file
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoSecret
		}
		return "", fmt.Errorf("failed to read credentials file: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

// SaveSecret stores a secret securely.
// Tries system keyring first, falls back to credentials file.
func (s Secrets) SaveSecret(name, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("secret %s cannot be empty", name)
	}

	// Try keyring first
	if err := keyring.Set(keyringService, name, value); err == nil {
		return nil
	}

	// Fall back to file storage
	if err := os.MkdirAll(s.Dir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(s.path(name), []byte(value), 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	return nil
}

// ClearSecret removes a secret from all locations.
func (s Secrets) ClearSecret(name string) error {
	// Try to delete from keyring (ignore errors)
	_ = keyring.Delete(keyringService, name)

	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials file: %w", err)
	}

	return nil
}

// HasSecret returns true if the secret is available from any source.
func (s Secrets) HasSecret(name string) bool {
	v, _ := s.GetSecret(name)
	return v != ""
}

func (s Secrets) path(name string) string {
	return filepath.Join(s.Dir, "."+name)
}

func envName(name string) string {
	return "TASKGRID_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
