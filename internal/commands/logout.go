package commands

import (
	"context"
	"flag"
	"io"

	"taskflow/internal/config"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Sign out and forget the local session" }
func (c *LogoutCmd) Usage() string     { return "taskflow logout" }
func (c *LogoutCmd) NeedsAuth() bool   { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if app == nil {
		// No backend configured; nothing to revoke, just drop the file.
		cfg.RemoveSession()
		return ok(cfg, out)
	}

	// Best effort restore so the access token can be revoked. Logout is
	// idempotent: the local session goes away either way.
	app.Auth.Restore(ctx)
	app.Auth.SignOut(ctx)
	return ok(cfg, out)
}
