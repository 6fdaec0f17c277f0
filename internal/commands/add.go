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
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	listName string
	due      string
	notes    string
	flagged  bool
	every    string
	interval int
	until    string
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskflow add [--list <name>] [--due <date>] [--notes <text>] [--flag] [--every <rule>] [--interval <n>] [--until <date>] <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVar(&c.notes, "notes", "", "")
	fs.BoolVar(&c.flagged, "flag", false, "")
	fs.StringVar(&c.every, "every", "", "")
	fs.IntVar(&c.interval, "interval", 1, "")
	fs.StringVar(&c.until, "until", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}
	title := strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	draft := model.TaskDraft{
		Title:              title,
		IsFlagged:          c.flagged,
		RecurrenceInterval: 1,
	}

	if c.notes != "" {
		notes := c.notes
		draft.Notes = &notes
	}
	if c.due != "" {
		due, err := parseDate(c.due)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		draft.DueDate = &due
	}
	if c.every != "" {
		rule, err := parseRecurrence(c.every)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		if draft.DueDate == nil {
			fmt.Fprintln(errOut, "error: recurring tasks need a due date (use --due)")
			return exitcode.UserError
		}
		draft.IsRecurring = true
		draft.RecurrenceRule = &rule
		if c.interval < 1 {
			fmt.Fprintln(errOut, "error: interval must be at least 1")
			return exitcode.UserError
		}
		draft.RecurrenceInterval = c.interval
		if c.until != "" {
			until, err := parseDate(c.until)
			if err != nil {
				fmt.Fprintf(errOut, "error: %v\n", err)
				return exitcode.UserError
			}
			draft.RecurrenceEndDate = &until
		}
	}

	if c.listName != "" {
		if err := app.Lists.Fetch(ctx); err != nil {
			return fail(errOut, err)
		}
		list, err := resolveList(app, c.listName)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v: %s\n", err, c.listName)
			return exitcode.UserError
		}
		draft.ListID = &list.ID
	}

	if _, err := app.Tasks.Add(ctx, draft); err != nil {
		return fail(errOut, err)
	}

	return ok(cfg, out)
}
