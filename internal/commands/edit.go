package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/model"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Unset flags leave the field
// alone; the --clear-* flags write NULL.
type EditCmd struct {
	title      string
	notes      string
	due        string
	listName   string
	every      string
	interval   int
	until      string
	clearNotes bool
	clearDue   bool
	clearList  bool
	noRepeat   bool
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Update task fields" }
func (c *EditCmd) Usage() string {
	return "taskflow edit [--title <text>] [--notes <text>] [--due <date>] [--list <name>] [--every <rule>] [--interval <n>] [--until <date>] [--clear-notes] [--clear-due] [--clear-list] [--no-repeat] <ref>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.title, "title", "", "")
	fs.StringVar(&c.notes, "notes", "", "")
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
	fs.StringVar(&c.every, "every", "", "")
	fs.IntVar(&c.interval, "interval", 0, "")
	fs.StringVar(&c.until, "until", "", "")
	fs.BoolVar(&c.clearNotes, "clear-notes", false, "")
	fs.BoolVar(&c.clearDue, "clear-due", false, "")
	fs.BoolVar(&c.clearList, "clear-list", false, "")
	fs.BoolVar(&c.noRepeat, "no-repeat", false, "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
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

	var patch model.TaskPatch
	if c.title != "" {
		patch.Title = model.Set(c.title)
	}
	if c.notes != "" {
		notes := c.notes
		patch.Notes = model.Set(&notes)
	}
	if c.clearNotes {
		patch.Notes = model.Set[*string](nil)
	}
	if c.due != "" {
		due, err := parseDate(c.due)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		patch.DueDate = model.Set(&due)
	}
	if c.clearDue {
		patch.DueDate = model.Set[*time.Time](nil)
	}
	if c.listName != "" {
		list, err := resolveList(app, c.listName)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v: %s\n", err, c.listName)
			return exitcode.UserError
		}
		patch.ListID = model.Set(&list.ID)
	}
	if c.clearList {
		patch.ListID = model.Set[*string](nil)
	}
	if c.every != "" {
		rule, err := parseRecurrence(c.every)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		patch.IsRecurring = model.Set(true)
		patch.RecurrenceRule = model.Set(&rule)
	}
	if c.interval > 0 {
		patch.RecurrenceInterval = model.Set(c.interval)
	}
	if c.until != "" {
		until, err := parseDate(c.until)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		patch.RecurrenceEndDate = model.Set(&until)
	}
	if c.noRepeat {
		patch.IsRecurring = model.Set(false)
		patch.RecurrenceRule = model.Set[*model.RecurrenceRule](nil)
		patch.RecurrenceEndDate = model.Set[*time.Time](nil)
	}

	if patch.IsZero() {
		fmt.Fprintln(errOut, "error: nothing to change")
		return exitcode.UserError
	}

	if err := app.Tasks.Update(ctx, task.ID, patch); err != nil {
		return fail(errOut, err)
	}

	return ok(cfg, out)
}
