package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
)

func init() {
	Register(&WhoamiCmd{})
}

// WhoamiCmd implements the whoami command.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string      { return "whoami" }
func (c *WhoamiCmd) Aliases() []string { return nil }
func (c *WhoamiCmd) Synopsis() string  { return "Print the signed-in user" }
func (c *WhoamiCmd) Usage() string     { return "taskflow whoami" }
func (c *WhoamiCmd) NeedsAuth() bool   { return true }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	session := app.Auth.Session()
	if session == nil {
		fmt.Fprintln(errOut, "error: not logged in (run: taskflow login)")
		return exitcode.AuthError
	}

	fmt.Fprintf(out, "%s (%s)\n", session.User.Email, session.User.ID)
	return exitcode.Success
}
