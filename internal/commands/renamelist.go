package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/model"
)

func init() {
	Register(&RenameListCmd{})
}

// RenameListCmd implements the renamelist command.
type RenameListCmd struct{}

func (c *RenameListCmd) Name() string      { return "renamelist" }
func (c *RenameListCmd) Aliases() []string { return nil }
func (c *RenameListCmd) Synopsis() string  { return "Rename a list" }
func (c *RenameListCmd) Usage() string     { return "taskflow renamelist <old-name> <new-name>" }
func (c *RenameListCmd) NeedsAuth() bool   { return true }

func (c *RenameListCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RenameListCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(errOut, "error: old and new list names required")
		return exitcode.UserError
	}
	newName := args[1]
	if strings.TrimSpace(newName) == "" {
		fmt.Fprintln(errOut, "error: new list name required")
		return exitcode.UserError
	}

	if err := app.Lists.Fetch(ctx); err != nil {
		return fail(errOut, err)
	}

	list, err := resolveList(app, args[0])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v: %s\n", err, args[0])
		return exitcode.UserError
	}

	var patch model.ListPatch
	patch.Name = model.Set(newName)
	if err := app.Lists.Update(ctx, list.ID, patch); err != nil {
		return fail(errOut, err)
	}

	return ok(cfg, out)
}
