package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigDirUsesXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got, want := DefaultConfigDir(), filepath.Join("/tmp/xdg", AppName); got != want {
		t.Errorf("DefaultConfigDir() = %q, want %q", got, want)
	}
}

func TestPaths(t *testing.T) {
	c := &Config{Dir: "/etc/taskflow"}
	if got := c.SessionPath(); got != filepath.Join("/etc/taskflow", SessionFile) {
		t.Errorf("SessionPath() = %q", got)
	}
	if got := c.PrefsPath(); got != filepath.Join("/etc/taskflow", PrefsFile) {
		t.Errorf("PrefsPath() = %q", got)
	}
}

func TestHasBackend(t *testing.T) {
	c := &Config{}
	if c.HasBackend() {
		t.Error("empty config reports a backend")
	}
	c.BackendURL = "https://proj.supabase.co"
	if c.HasBackend() {
		t.Error("url alone is enough")
	}
	c.AnonKey = "anon"
	if !c.HasBackend() {
		t.Error("configured backend not detected")
	}
}

func TestNewLoadsDotEnvFromConfigDir(t *testing.T) {
	// Clear both variables for the duration of the test; t.Setenv
	// registers the restore before Unsetenv clears the value.
	t.Setenv(EnvURL, "")
	t.Setenv(EnvAnonKey, "")
	os.Unsetenv(EnvURL)
	os.Unsetenv(EnvAnonKey)

	dir := t.TempDir()
	env := EnvURL + "=https://proj.supabase.co\n" + EnvAnonKey + "=anon-key\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.BackendURL != "https://proj.supabase.co" || cfg.AnonKey != "anon-key" {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.HasBackend() {
		t.Error("backend not detected from .env")
	}
}

func TestSessionFileLifecycle(t *testing.T) {
	c := &Config{Dir: t.TempDir()}
	if c.HasSession() {
		t.Error("session reported before any file exists")
	}
	if err := os.WriteFile(c.SessionPath(), []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	if !c.HasSession() {
		t.Error("session file not detected")
	}
	if err := c.RemoveSession(); err != nil {
		t.Fatalf("RemoveSession: %v", err)
	}
	if c.HasSession() {
		t.Error("session file survived removal")
	}
}
