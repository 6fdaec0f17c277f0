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
	Register(&FlagCmd{})
}

// FlagCmd implements the flag command.
type FlagCmd struct{}

func (c *FlagCmd) Name() string      { return "flag" }
func (c *FlagCmd) Aliases() []string { return nil }
func (c *FlagCmd) Synopsis() string  { return "Toggle the flag marker on a task" }
func (c *FlagCmd) Usage() string     { return "taskflow flag <ref>" }
func (c *FlagCmd) NeedsAuth() bool   { return true }

func (c *FlagCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *FlagCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "error: task reference required")
		return exitcode.UserError
	}

	loadView(cfg, app)
	if err := fetchAll(ctx, app); err != nil {
		return fail(errOut, err)
	}

	task, err := resolveTaskRef(app, args[0])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if err := app.Tasks.ToggleFlag(ctx, task.ID); err != nil {
		return fail(errOut, err)
	}

	return ok(cfg, out)
}
