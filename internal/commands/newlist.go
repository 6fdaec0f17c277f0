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
	Register(&NewListCmd{})
}

// NewListCmd implements the newlist command.
type NewListCmd struct {
	color string
	icon  string
}

func (c *NewListCmd) Name() string      { return "newlist" }
func (c *NewListCmd) Aliases() []string { return []string{"addlist"} }
func (c *NewListCmd) Synopsis() string  { return "Create a list" }
func (c *NewListCmd) Usage() string {
	return "taskflow newlist [--color <hex>] [--icon <name>] <name...>"
}
func (c *NewListCmd) NeedsAuth() bool { return true }

func (c *NewListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.color, "color", "", "")
	fs.StringVar(&c.icon, "icon", "", "")
}

func (c *NewListCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: list name required")
		return exitcode.UserError
	}
	name := strings.Join(args, " ")
	if strings.TrimSpace(name) == "" {
		fmt.Fprintln(errOut, "error: list name required")
		return exitcode.UserError
	}

	if err := app.Lists.Fetch(ctx); err != nil {
		return fail(errOut, err)
	}
	if _, err := resolveList(app, name); err == nil {
		fmt.Fprintf(errOut, "error: list already exists: %s\n", name)
		return exitcode.UserError
	}

	draft := model.ListDraft{Name: name, Color: c.color, Icon: c.icon}
	if _, err := app.Lists.Add(ctx, draft); err != nil {
		return fail(errOut, err)
	}

	return ok(cfg, out)
}
