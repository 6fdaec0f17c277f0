package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/model"
	"taskflow/internal/output"
	"taskflow/internal/prefs"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command. View flags change the persisted
// sort and filter preferences, so a bare "taskflow list" keeps showing
// the last configured view.
type ListCmd struct {
	sortField string
	asc       bool
	desc      bool
	listName  string
	allLists  bool
	all       bool
	open      bool
	done      bool
	flagged   bool
	withNotes bool
	withDue   bool
	reset     bool
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks in the current view" }
func (c *ListCmd) Usage() string {
	return "taskflow list [--sort <due|created|priority|alpha>] [--asc|--desc] [--list <name>|--all-lists] [--all|--open|--done] [--flagged] [--with-notes] [--with-due] [--reset]"
}
func (c *ListCmd) NeedsAuth() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.sortField, "sort", "", "")
	fs.BoolVar(&c.asc, "asc", false, "")
	fs.BoolVar(&c.desc, "desc", false, "")
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
	fs.BoolVar(&c.allLists, "all-lists", false, "")
	fs.BoolVar(&c.all, "all", false, "")
	fs.BoolVar(&c.open, "open", false, "")
	fs.BoolVar(&c.done, "done", false, "")
	fs.BoolVar(&c.flagged, "flagged", false, "")
	fs.BoolVar(&c.withNotes, "with-notes", false, "")
	fs.BoolVar(&c.withDue, "with-due", false, "")
	fs.BoolVar(&c.reset, "reset", false, "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if len(args) != 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	p := loadView(cfg, app)
	if c.reset {
		p = prefs.Default()
	} else {
		seedViewFromSettings(ctx, cfg, app, &p)
	}

	if err := fetchAll(ctx, app); err != nil {
		return fail(errOut, err)
	}

	if code := c.applyViewFlags(app, &p, errOut); code != exitcode.Success {
		return code
	}

	app.Tasks.SetSortOptions(p.Sort)
	app.Tasks.SetFilterOptions(p.Filter)
	if err := saveView(cfg, app); err != nil {
		fmt.Fprintf(errOut, "error: failed to save view preferences: %v\n", err)
		return exitcode.UserError
	}

	tasks := app.Tasks.Filtered()

	if p.Filter.ListID != nil {
		if list, found := app.Lists.Find(*p.Filter.ListID); found {
			output.FormatListHeader(out, list.Name)
		}
	}
	if len(tasks) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks")
		}
		return exitcode.Success
	}
	for i, t := range tasks {
		output.FormatTask(out, i+1, t)
	}
	return exitcode.Success
}

// applyViewFlags folds the provided view flags into the preferences.
func (c *ListCmd) applyViewFlags(app *App, p *prefs.Prefs, errOut io.Writer) int {
	switch c.sortField {
	case "":
	case "due":
		p.Sort.Field = model.SortByDueDate
	case "created":
		p.Sort.Field = model.SortByCreatedAt
	case "priority":
		p.Sort.Field = model.SortByPriority
	case "alpha":
		p.Sort.Field = model.SortByAlphabetical
	default:
		fmt.Fprintf(errOut, "error: invalid sort field %q (want due, created, priority or alpha)\n", c.sortField)
		return exitcode.UserError
	}
	if c.asc {
		p.Sort.Direction = model.SortAscending
	}
	if c.desc {
		p.Sort.Direction = model.SortDescending
	}

	if c.listName != "" {
		list, err := resolveList(app, c.listName)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v: %s\n", err, c.listName)
			return exitcode.UserError
		}
		p.Filter.ListID = &list.ID
	}
	if c.allLists {
		p.Filter.ListID = nil
	}

	switch {
	case c.all:
		p.Filter.Completed = nil
	case c.open:
		open := false
		p.Filter.Completed = &open
	case c.done:
		done := true
		p.Filter.Completed = &done
	}

	if c.flagged {
		flagged := true
		p.Filter.Flagged = &flagged
	}
	if c.withNotes {
		p.Filter.HasNotes = true
	}
	if c.withDue {
		p.Filter.HasDueDate = true
	}
	return exitcode.Success
}
