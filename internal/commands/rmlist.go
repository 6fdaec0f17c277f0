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
	Register(&RmListCmd{})
}

// RmListCmd implements the rmlist command. Deleting a list detaches its
// tasks rather than deleting them.
type RmListCmd struct {
	force bool
}

func (c *RmListCmd) Name() string      { return "rmlist" }
func (c *RmListCmd) Aliases() []string { return nil }
func (c *RmListCmd) Synopsis() string  { return "Delete a list" }
func (c *RmListCmd) Usage() string     { return "taskflow rmlist [--force] <name>" }
func (c *RmListCmd) NeedsAuth() bool   { return true }

func (c *RmListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "")
	fs.BoolVar(&c.force, "f", false, "")
}

func (c *RmListCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "error: list name required")
		return exitcode.UserError
	}

	if err := fetchAll(ctx, app); err != nil {
		return fail(errOut, err)
	}

	list, err := resolveList(app, args[0])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v: %s\n", err, args[0])
		return exitcode.UserError
	}

	if !c.force {
		for _, t := range app.Tasks.Tasks() {
			if t.ListID != nil && *t.ListID == list.ID {
				fmt.Fprintf(errOut, "error: list not empty: %s (use --force; its tasks will be kept without a list)\n", list.Name)
				return exitcode.UserError
			}
		}
	}

	if err := app.Lists.Delete(ctx, list.ID); err != nil {
		return fail(errOut, err)
	}

	return ok(cfg, out)
}
