package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/output"
)

func init() {
	Register(&ListsCmd{})
}

// ListsCmd implements the lists command.
type ListsCmd struct{}

func (c *ListsCmd) Name() string      { return "lists" }
func (c *ListsCmd) Aliases() []string { return nil }
func (c *ListsCmd) Synopsis() string  { return "Show lists with open task counts" }
func (c *ListsCmd) Usage() string     { return "taskflow lists" }
func (c *ListsCmd) NeedsAuth() bool   { return true }

func (c *ListsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ListsCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if err := fetchAll(ctx, app); err != nil {
		return fail(errOut, err)
	}

	open := make(map[string]int)
	for _, t := range app.Tasks.Tasks() {
		if t.ListID != nil && !t.IsCompleted {
			open[*t.ListID]++
		}
	}

	lists := app.Lists.Lists()
	if len(lists) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no lists")
		}
		return exitcode.Success
	}
	for _, l := range lists {
		output.FormatListLine(out, l, open[l.ID])
	}
	return exitcode.Success
}
