package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFrom_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
ui:
  time_format: 12h
  hour_height: 40
  vim_mode: false
sync:
  client_id: from-file
  backup_file_name: ""
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	t.Setenv("TASKGRID_CLIENT_ID", "from-env")
	t.Setenv("TASKGRID_REDIRECT_PORT", "9999")
	t.Setenv("TASKGRID_NOTIFICATIONS", "false")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "12h", cfg.UI.TimeFormat)
	assert.Equal(t, 8, cfg.UI.HourHeight, "hour height is clamped")
	assert.False(t, cfg.UI.VimMode)
	assert.Equal(t, "from-env", cfg.Sync.ClientID)
	assert.Equal(t, 9999, cfg.Sync.RedirectPort)
	assert.False(t, cfg.Notifications.Native)
	assert.Equal(t, "taskgrid-backup", cfg.Sync.BackupFileName)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.HasOAuthCredentials())
}

func TestLoadFrom_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ui: [unclosed"), 0600))
	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Sync.BackupFolderID = "folder-1"

	require.NoError(t, SaveTo(path, cfg))
	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSecrets(t *testing.T) {
	keyring.MockInit()
	s := Secrets{Dir: t.TempDir()}

	_, err := s.GetSecret("oauth-token")
	assert.ErrorIs(t, err, ErrNoSecret)

	require.NoError(t, s.SaveSecret("oauth-token", " abc "))
	v, err := s.GetSecret("oauth-token")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	t.Setenv("TASKGRID_OAUTH_TOKEN", "override")
	v, err = s.GetSecret("oauth-token")
	require.NoError(t, err)
	assert.Equal(t, "override", v)

	os.Unsetenv("TASKGRID_OAUTH_TOKEN")
	require.NoError(t, s.ClearSecret("oauth-token"))
	assert.False(t, s.HasSecret("oauth-token"))

	assert.Error(t, s.SaveSecret("oauth-token", "  "))
}

func TestSecrets_FileFallback(t *testing.T) {
	keyring.MockInitWithError(keyring.ErrUnsupportedPlatform)
	t.Cleanup(keyring.MockInit)
	s := Secrets{Dir: t.TempDir()}

	require.NoError(t, s.SaveSecret("oauth-token", "file-value"))
	info, err := os.Stat(filepath.Join(s.Dir, ".oauth-token"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	v, err := s.GetSecret("oauth-token")
	require.NoError(t, err)
	assert.Equal(t, "file-value", v)
}
