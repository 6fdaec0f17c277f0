// Package config handles the XDG configuration directory, file paths,
// and backend credentials.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	// AppName is the application directory name.
	AppName = "taskflow"

	// SessionFile is the persisted session filename.
	SessionFile = "session.json"

	// PrefsFile is the persisted sort/filter preferences filename.
	PrefsFile = "prefs.json"

	// EnvURL names the backend project URL variable.
	EnvURL = "TASKFLOW_SUPABASE_URL"

	// EnvAnonKey names the backend anon (publishable) key variable.
	EnvAnonKey = "TASKFLOW_SUPABASE_ANON_KEY"
)

// ErrMissingBackend is returned when the backend URL or anon key is not
// configured.
var ErrMissingBackend = errors.New("missing backend configuration (set " + EnvURL + " and " + EnvAnonKey + ")")

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// BackendURL is the backend project base URL.
	BackendURL string

	// AnonKey is the backend's anon API key.
	AnonKey string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// New creates a Config with the default or specified config directory and
// loads backend credentials from a .env file (config dir first, then the
// working directory) and the environment. Environment variables win over
// .env entries.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	cfg := &Config{Dir: dir}

	// godotenv.Load never overrides variables already set, so the real
	// environment takes precedence.
	_ = godotenv.Load(filepath.Join(dir, ".env"))
	_ = godotenv.Load()

	cfg.BackendURL = os.Getenv(EnvURL)
	cfg.AnonKey = os.Getenv(EnvAnonKey)

	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// HasBackend reports whether the backend URL and anon key are configured.
func (c *Config) HasBackend() bool {
	return c.BackendURL != "" && c.AnonKey != ""
}

// SessionPath returns the path to the persisted session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// PrefsPath returns the path to the persisted preferences file.
func (c *Config) PrefsPath() string {
	return filepath.Join(c.Dir, PrefsFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasSession checks if a session file exists.
func (c *Config) HasSession() bool {
	_, err := os.Stat(c.SessionPath())
	return err == nil
}

// RemoveSession deletes the session file.
func (c *Config) RemoveSession() error {
	return os.Remove(c.SessionPath())
}
