// Package config handles loading and saving application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const appName = "taskgrid"

// Config represents the application configuration.
type Config struct {
	UI            UIConfig           `yaml:"ui"`
	Notifications NotificationConfig `yaml:"notifications"`
	Sync          SyncConfig         `yaml:"sync"`
	Log           LogConfig          `yaml:"log"`

	// DataDir overrides the directory holding the state file and logs.
	DataDir string `yaml:"data_dir,omitempty"`
}

// UIConfig holds UI-related settings.
type UIConfig struct {
	TimeFormat   string `yaml:"time_format,omitempty"` // "24h" or "12h", seeds new installs
	Locale       string `yaml:"locale,omitempty"`
	HourHeight   int    `yaml:"hour_height"` // rows per hour in the week view
	DefaultRoute string `yaml:"default_route,omitempty"`
	VimMode      bool   `yaml:"vim_mode"`
}

// NotificationConfig controls reminder delivery.
type NotificationConfig struct {
	// Native allows desktop notifications; banners are used otherwise.
	Native bool `yaml:"native"`
}

// SyncConfig holds the cloud backup settings.
type SyncConfig struct {
	ClientID       string `yaml:"client_id,omitempty"`
	ClientSecret   string `yaml:"client_secret,omitempty"`
	BackupFolderID string `yaml:"backup_folder_id,omitempty"`
	BackupFileName string `yaml:"backup_file_name,omitempty"`
	RedirectPort   int    `yaml:"redirect_port"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		UI: UIConfig{
			Locale:       "en",
			HourHeight:   2,
			DefaultRoute: "#/calendar",
			VimMode:      true,
		},
		Notifications: NotificationConfig{Native: true},
		Sync: SyncConfig{
			BackupFileName: "taskgrid-backup",
			RedirectPort:   8765,
		},
		Log: LogConfig{Level: "info"},
	}
}

// ConfigDir returns the path to the configuration directory.
// Creates the directory if it doesn't exist.
func ConfigDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configHome = filepath.Join(homeDir, ".config")
	}

	configDir := filepath.Join(configHome, appName)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the configuration from the default config file, after loading
// .env files from the working directory and the config directory.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	loadDotEnv(".env", filepath.Join(filepath.Dir(path), ".env"))
	return LoadFrom(path)
}

// LoadFrom reads the configuration at path and applies environment
// overrides. If the file doesn't exist, the defaults are used.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// Save writes the configuration to the config file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes the configuration to path.
func SaveTo(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	// Write with restricted permissions (owner read/write only)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveDataDir returns the configured data directory or the XDG default,
// creating it if needed.
func (c *Config) ResolveDataDir() (string, error) {
	if c.DataDir == "" {
		return DataDir()
	}
	if err := os.MkdirAll(c.DataDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return c.DataDir, nil
}

// HasOAuthCredentials returns true if OAuth client credentials are configured.
func (c *Config) HasOAuthCredentials() bool {
	return c.Sync.ClientID != ""
}

// loadDotEnv loads the .env files that exist. Variables already set in the
// environment win.
func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

func (c *Config) applyEnv() {
	setString := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v := strings.TrimSpace(os.Getenv(key)); v != "" {
				*dst = v
				return
			}
		}
	}
	setInt := func(dst *int, key string) {
		if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
			*dst = v
		}
	}
	setBool := func(dst *bool, key string) {
		if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
			*dst = v
		}
	}

	setString(&c.UI.TimeFormat, "TASKGRID_TIME_FORMAT")
	setString(&c.UI.Locale, "TASKGRID_LOCALE")
	setInt(&c.UI.HourHeight, "TASKGRID_HOUR_HEIGHT")
	setString(&c.UI.DefaultRoute, "TASKGRID_DEFAULT_ROUTE")
	setBool(&c.UI.VimMode, "TASKGRID_VIM_MODE")
	setBool(&c.Notifications.Native, "TASKGRID_NOTIFICATIONS")
	setString(&c.Sync.ClientID, "TASKGRID_CLIENT_ID", "CLIENT_ID")
	setString(&c.Sync.ClientSecret, "TASKGRID_CLIENT_SECRET", "CLIENT_SECRET")
	setString(&c.Sync.BackupFolderID, "TASKGRID_BACKUP_FOLDER_ID")
	setString(&c.Sync.BackupFileName, "TASKGRID_BACKUP_FILE_NAME")
	setInt(&c.Sync.RedirectPort, "TASKGRID_REDIRECT_PORT")
	setString(&c.Log.Level, "TASKGRID_LOG_LEVEL")
	setString(&c.DataDir, "TASKGRID_DATA_DIR")
}

func (c *Config) normalize() {
	if c.UI.HourHeight < 1 {
		c.UI.HourHeight = 1
	}
	if c.UI.HourHeight > 8 {
		c.UI.HourHeight = 8
	}
	if c.Sync.BackupFileName == "" {
		c.Sync.BackupFileName = DefaultConfig().Sync.BackupFileName
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
