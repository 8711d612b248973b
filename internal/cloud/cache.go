package cloud

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CacheFileName is the file that remembers backup file ids per account.
const CacheFileName = "sync-files.json"

// FileCache maps account ids to backup file ids. A nil or pathless cache
// keeps entries in memory only.
type FileCache struct {
	path string

	mu    sync.Mutex
	files map[string]string
}

// LoadFileCache reads the cache at path. A missing or unreadable file
// starts an empty cache.
func LoadFileCache(path string) *FileCache {
	c := &FileCache{path: path, files: map[string]string{}}
	if path == "" {
		return c
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	if err := json.Unmarshal(data, &c.files); err != nil || c.files == nil {
		c.files = map[string]string{}
	}
	return c
}

// Get returns the cached file id for account.
func (c *FileCache) Get(account string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.files[account]
	return id, ok
}

// Set records the file id for account and writes the cache.
func (c *FileCache) Set(account, fileID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[account] = fileID
	return c.save()
}

// Delete forgets account.
func (c *FileCache) Delete(account string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.files, account)
	return c.save()
}

func (c *FileCache) save() error {
	if c.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(c.files, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode file cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write file cache: %w", err)
	}
	return nil
}
