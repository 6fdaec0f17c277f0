package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/model"
)

func init() {
	Register(&ReorderCmd{})
}

// ReorderCmd implements the reorder command. Named lists move to the
// front in the given order; unnamed lists keep their relative order
// after them. The whole reorder is sent as one batch.
type ReorderCmd struct{}

func (c *ReorderCmd) Name() string      { return "reorder" }
func (c *ReorderCmd) Aliases() []string { return nil }
func (c *ReorderCmd) Synopsis() string  { return "Reorder lists" }
func (c *ReorderCmd) Usage() string     { return "taskflow reorder <name> [<name> ...]" }
func (c *ReorderCmd) NeedsAuth() bool   { return true }

func (c *ReorderCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ReorderCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: at least one list name required")
		return exitcode.UserError
	}

	if err := app.Lists.Fetch(ctx); err != nil {
		return fail(errOut, err)
	}

	named := make(map[string]bool)
	ordered := make([]model.List, 0, len(app.Lists.Lists()))
	for _, name := range args {
		list, err := resolveList(app, name)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v: %s\n", err, name)
			return exitcode.UserError
		}
		if named[list.ID] {
			fmt.Fprintf(errOut, "error: duplicate list name: %s\n", name)
			return exitcode.UserError
		}
		named[list.ID] = true
		ordered = append(ordered, list)
	}
	for _, l := range app.Lists.Lists() {
		if !named[l.ID] {
			ordered = append(ordered, l)
		}
	}

	if err := app.Lists.Reorder(ctx, ordered); err != nil {
		return fail(errOut, err)
	}

	return ok(cfg, out)
}
