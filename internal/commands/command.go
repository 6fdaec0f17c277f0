// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"
	"sync"

	"taskflow/internal/auth"
	"taskflow/internal/config"
	"taskflow/internal/remote"
	"taskflow/internal/store"
)

// ProviderAuthenticator is the optional PKCE provider sign-in surface of
// a backend. Satisfied by the supabase client; nil when the backend does
// not support it.
type ProviderAuthenticator interface {
	ProviderAuthURL(provider, redirectURL, verifier string) string
	ExchangeCode(ctx context.Context, code, verifier string) (*remote.Session, error)
}

// App bundles the wired stores a command operates on. Commands never
// import a backend package directly.
type App struct {
	Auth     *auth.Manager
	Remote   remote.Service
	Tasks    *store.TaskStore
	Lists    *store.ListStore
	Settings *store.SettingsStore
	Provider ProviderAuthenticator
}

// Close tears down the app's stores.
func (a *App) Close() {
	if a.Tasks != nil {
		a.Tasks.Close()
	}
	if a.Lists != nil {
		a.Lists.Close()
	}
}

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires a signed-in
	// session. Commands like help, version, login, signup return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths, backend credentials).
	// app is nil if NeedsAuth() returns false and no backend is
	// configured. Returns an exit code.
	Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int
}

// Registry holds registered commands, mapping names and aliases to the
// command.
type Registry struct {
	mu   sync.RWMutex
	cmds map[string]Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{cmds: make(map[string]Command)}
}

// Register adds a command. Name and alias collisions are errors.
func (r *Registry) Register(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := append([]string{c.Name()}, c.Aliases()...)
	for _, name := range names {
		if _, exists := r.cmds[name]; exists {
			return fmt.Errorf("command already registered: %s", name)
		}
	}
	for _, name := range names {
		r.cmds[name] = c
	}
	return nil
}

// Find looks up a command by name or alias.
func (r *Registry) Find(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.cmds[name]
	return cmd, ok
}

// All returns all unique commands sorted by name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]Command)
	for _, cmd := range r.cmds {
		seen[cmd.Name()] = cmd
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Command, len(names))
	for i, name := range names {
		out[i] = seen[name]
	}
	return out
}

// DefaultRegistry is the global command registry.
var DefaultRegistry = NewRegistry()

// Register adds a command to the default registry.
func Register(c Command) {
	if err := DefaultRegistry.Register(c); err != nil {
		panic(err)
	}
}
