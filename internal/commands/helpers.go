package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/model"
	"taskflow/internal/prefs"
	"taskflow/internal/store"
)

// Sentinels for list and task reference resolution.
var (
	ErrListNameNotFound  = errors.New("list not found")
	ErrListNameAmbiguous = errors.New("ambiguous list name")
	ErrTaskRefNotFound   = errors.New("task not found")
	ErrTaskRefAmbiguous  = errors.New("ambiguous task reference")
)

// loadView reads the persisted sort/filter preferences and applies them
// to the task store. A broken prefs file falls back to defaults.
func loadView(cfg *config.Config, app *App) prefs.Prefs {
	p, _ := prefs.Load(cfg.PrefsPath())
	app.Tasks.SetSortOptions(p.Sort)
	app.Tasks.SetFilterOptions(p.Filter)
	return p
}

// seedViewFromSettings folds the account's default view into p when no
// local preferences file exists yet. Absent settings leave p alone.
func seedViewFromSettings(ctx context.Context, cfg *config.Config, app *App, p *prefs.Prefs) {
	if _, err := os.Stat(cfg.PrefsPath()); err == nil {
		return
	}
	if err := app.Settings.Fetch(ctx); err != nil {
		return
	}
	s, found := app.Settings.Settings()
	if !found {
		return
	}
	switch model.SortField(s.DefaultSort) {
	case model.SortByDueDate, model.SortByCreatedAt, model.SortByPriority, model.SortByAlphabetical:
		p.Sort.Field = model.SortField(s.DefaultSort)
	}
	switch model.SortDirection(s.DefaultSortDirection) {
	case model.SortAscending, model.SortDescending:
		p.Sort.Direction = model.SortDirection(s.DefaultSortDirection)
	}
	if s.ShowCompletedTasks {
		p.Filter.Completed = nil
	}
}

// saveView persists the task store's current view configuration.
func saveView(cfg *config.Config, app *App) error {
	return prefs.Save(cfg.PrefsPath(), prefs.Prefs{
		Sort:   app.Tasks.SortOptions(),
		Filter: app.Tasks.FilterOptions(),
	})
}

// fetchAll populates both collections from the backend.
func fetchAll(ctx context.Context, app *App) error {
	if err := app.Lists.Fetch(ctx); err != nil {
		return err
	}
	return app.Tasks.Fetch(ctx)
}

// resolveList finds a list by name (case-insensitive, trimmed).
func resolveList(app *App, name string) (model.List, error) {
	nameLower := strings.ToLower(strings.TrimSpace(name))

	var matches []model.List
	for _, l := range app.Lists.Lists() {
		if strings.ToLower(strings.TrimSpace(l.Name)) == nameLower {
			matches = append(matches, l)
		}
	}

	switch len(matches) {
	case 0:
		return model.List{}, ErrListNameNotFound
	case 1:
		return matches[0], nil
	default:
		return model.List{}, ErrListNameAmbiguous
	}
}

// resolveTaskRef resolves a task reference: a 1-based number into the
// current filtered view, or a unique id prefix over the raw collection.
func resolveTaskRef(app *App, ref string) (model.Task, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		view := app.Tasks.Filtered()
		if n < 1 || n > len(view) {
			return model.Task{}, fmt.Errorf("task number out of range: %d", n)
		}
		return view[n-1], nil
	}

	var matches []model.Task
	for _, t := range app.Tasks.Tasks() {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return model.Task{}, ErrTaskRefNotFound
	case 1:
		return matches[0], nil
	default:
		return model.Task{}, ErrTaskRefAmbiguous
	}
}

// dateLayout is the accepted format for date-valued flags.
const dateLayout = "2006-01-02"

// parseDate parses a date flag value as midnight UTC.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// parseRecurrence validates a recurrence rule flag value.
func parseRecurrence(s string) (model.RecurrenceRule, error) {
	switch model.RecurrenceRule(s) {
	case model.RecurrenceDaily, model.RecurrenceWeekly, model.RecurrenceMonthly, model.RecurrenceCustom:
		return model.RecurrenceRule(s), nil
	}
	return "", fmt.Errorf("invalid recurrence %q (want daily, weekly, monthly or custom)", s)
}

// fail prints a store/backend error and returns the matching exit code.
func fail(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, store.ErrNotSignedIn):
		fmt.Fprintln(errOut, "error: not logged in (run: taskflow login)")
		return exitcode.AuthError
	case errors.Is(err, ErrListNameNotFound), errors.Is(err, ErrListNameAmbiguous),
		errors.Is(err, ErrTaskRefNotFound), errors.Is(err, ErrTaskRefAmbiguous),
		errors.Is(err, store.ErrTaskNotFound), errors.Is(err, store.ErrListNotFound):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

// ok prints the standard success marker unless quiet.
func ok(cfg *config.Config, out io.Writer) int {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
