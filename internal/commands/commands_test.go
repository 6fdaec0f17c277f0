package commands

import (
	"bytes"
	"context"
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskflow/internal/auth"
	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/model"
	"taskflow/internal/store"
	"taskflow/internal/testutil"
)

// newTestApp builds an App over a fake backend with a signed-in user.
func newTestApp(t *testing.T, f *testutil.FakeRemote) (*App, *config.Config, string) {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{Dir: dir}

	logger := log.New(io.Discard, "", 0)
	mgr := auth.NewManager(f, filepath.Join(dir, config.SessionFile), logger)
	f.AddUser("tester@example.com", "secret123")
	session, err := mgr.SignIn(context.Background(), "tester@example.com", "secret123")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	app := &App{
		Auth:     mgr,
		Remote:   f,
		Tasks:    store.NewTaskStore(f, mgr, logger),
		Lists:    store.NewListStore(f, mgr, logger),
		Settings: store.NewSettingsStore(f, mgr, logger),
	}
	t.Cleanup(app.Close)
	return app, cfg, session.User.ID
}

// runCmd runs a command against the app and captures its output.
func runCmd(t *testing.T, cmd Command, cfg *config.Config, app *App, args []string) (stdout, stderr string, code int) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	code = cmd.Run(context.Background(), cfg, app, args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestVersionCommand(t *testing.T) {
	stdout, stderr, code := runCmd(t, &VersionCmd{}, &config.Config{}, nil, nil)
	if code != exitcode.Success {
		t.Errorf("exit code = %d, want %d", code, exitcode.Success)
	}
	if stderr != "" {
		t.Errorf("stderr = %q", stderr)
	}
	if stdout != "taskflow 0.1.0\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestHelpCommand(t *testing.T) {
	stdout, _, code := runCmd(t, &HelpCmd{}, &config.Config{}, nil, nil)
	if code != exitcode.Success {
		t.Errorf("exit code = %d", code)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("help output missing Usage section")
	}
}

func TestAddCommand(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, userID := newTestApp(t, f)

	cmd := &AddCmd{due: "2024-06-01", flagged: true}
	stdout, stderr, code := runCmd(t, cmd, cfg, app, []string{"buy", "milk"})
	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("stdout = %q", stdout)
	}

	tasks := app.Tasks.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks", len(tasks))
	}
	got := tasks[0]
	if got.Title != "buy milk" || !got.IsFlagged || got.UserID != userID {
		t.Errorf("task = %+v", got)
	}
	want := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	if got.DueDate == nil || !got.DueDate.Equal(want) {
		t.Errorf("due = %v", got.DueDate)
	}
}

func TestAddCommandRequiresTitle(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, _ := newTestApp(t, f)

	_, stderr, code := runCmd(t, &AddCmd{}, cfg, app, nil)
	if code != exitcode.UserError {
		t.Errorf("exit code = %d, want %d", code, exitcode.UserError)
	}
	if !strings.Contains(stderr, "title required") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestAddCommandToNamedList(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, userID := newTestApp(t, f)
	list := f.SeedList(model.List{UserID: userID, Name: "Groceries"})

	cmd := &AddCmd{listName: "groceries"} // case-insensitive
	_, stderr, code := runCmd(t, cmd, cfg, app, []string{"milk"})
	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	got := app.Tasks.Tasks()[0]
	if got.ListID == nil || *got.ListID != list.ID {
		t.Errorf("list id = %v, want %s", got.ListID, list.ID)
	}
}

func TestAddCommandUnknownList(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, _ := newTestApp(t, f)

	cmd := &AddCmd{listName: "nope"}
	_, stderr, code := runCmd(t, cmd, cfg, app, []string{"milk"})
	if code != exitcode.UserError {
		t.Errorf("exit code = %d", code)
	}
	if !strings.Contains(stderr, "list not found") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestAddCommandRecurringNeedsDueDate(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, _ := newTestApp(t, f)

	cmd := &AddCmd{every: "daily"}
	_, stderr, code := runCmd(t, cmd, cfg, app, []string{"water plants"})
	if code != exitcode.UserError {
		t.Errorf("exit code = %d", code)
	}
	if !strings.Contains(stderr, "due date") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestListCommand(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, userID := newTestApp(t, f)

	early := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC)
	f.SeedTask(model.Task{UserID: userID, Title: "pay rent", DueDate: &late, IsFlagged: true})
	f.SeedTask(model.Task{UserID: userID, Title: "buy milk", DueDate: &early})
	f.SeedTask(model.Task{UserID: userID, Title: "old chore", IsCompleted: true})

	stdout, stderr, code := runCmd(t, &ListCmd{}, cfg, app, nil)
	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}

	// Default view: completed hidden, due date ascending, numbered.
	expected := "   1  [ ] buy milk (due 2024-06-01)\n   2  [ ] pay rent ! (due 2024-06-20)\n"
	if stdout != expected {
		t.Errorf("stdout = %q, want %q", stdout, expected)
	}
}

func TestListCommandPersistsView(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, userID := newTestApp(t, f)
	f.SeedTask(model.Task{UserID: userID, Title: "done", IsCompleted: true})
	f.SeedTask(model.Task{UserID: userID, Title: "open"})

	// Switch the view to show everything.
	_, stderr, code := runCmd(t, &ListCmd{all: true}, cfg, app, nil)
	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}

	// A bare list run afterwards keeps the stored view.
	stdout, _, code := runCmd(t, &ListCmd{}, cfg, app, nil)
	if code != exitcode.Success {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout, "done") || !strings.Contains(stdout, "open") {
		t.Errorf("persisted view lost: %q", stdout)
	}

	// Reset returns to hiding completed tasks.
	stdout, _, _ = runCmd(t, &ListCmd{reset: true}, cfg, app, nil)
	if strings.Contains(stdout, "done") {
		t.Errorf("reset view still shows completed: %q", stdout)
	}
}

func TestListCommandSeedsViewFromSettings(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, userID := newTestApp(t, f)

	// Account defaults apply on first run, before any prefs file exists.
	var patch model.SettingsPatch
	patch.DefaultSort = model.Set("alphabetical")
	patch.ShowCompletedTasks = model.Set(true)
	if _, err := f.UpsertUserSettings(context.Background(), userID, patch); err != nil {
		t.Fatal(err)
	}
	f.SeedTask(model.Task{UserID: userID, Title: "banana", IsCompleted: true})
	f.SeedTask(model.Task{UserID: userID, Title: "apple"})

	stdout, stderr, code := runCmd(t, &ListCmd{}, cfg, app, nil)
	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	expected := "   1  [ ] apple\n   2  [x] banana\n"
	if stdout != expected {
		t.Errorf("stdout = %q, want %q", stdout, expected)
	}
}

func TestDoneCommandByNumber(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, userID := newTestApp(t, f)
	early := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC)
	f.SeedTask(model.Task{UserID: userID, Title: "second", DueDate: &late})
	first := f.SeedTask(model.Task{UserID: userID, Title: "first", DueDate: &early})

	_, stderr, code := runCmd(t, &DoneCmd{}, cfg, app, []string{"1"})
	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}

	stored, _ := f.Task(first.ID)
	if !stored.IsCompleted {
		t.Error("view-numbered task not the one completed")
	}
}

func TestDoneCommandRecurring(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, userID := newTestApp(t, f)
	due := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	f.SeedTask(model.Task{
		UserID:             userID,
		Title:              "water plants",
		DueDate:            &due,
		IsRecurring:        true,
		RecurrenceRule:     func() *model.RecurrenceRule { r := model.RecurrenceDaily; return &r }(),
		RecurrenceInterval: 1,
	})

	_, stderr, code := runCmd(t, &DoneCmd{}, cfg, app, []string{"1"})
	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	if f.TaskCount() != 2 {
		t.Errorf("backend has %d tasks, want 2 after recurring completion", f.TaskCount())
	}
}

func TestRmCommandByIDPrefix(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, userID := newTestApp(t, f)
	seeded := f.SeedTask(model.Task{UserID: userID, Title: "doomed"})

	_, stderr, code := runCmd(t, &RmCmd{}, cfg, app, []string{seeded.ID[:8]})
	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	if f.TaskCount() != 0 {
		t.Error("task not deleted")
	}
}

func TestRmCommandUnknownRef(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, _ := newTestApp(t, f)

	_, stderr, code := runCmd(t, &RmCmd{}, cfg, app, []string{"zzzz"})
	if code != exitcode.UserError {
		t.Errorf("exit code = %d", code)
	}
	if !strings.Contains(stderr, "task not found") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestFlagCommand(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, userID := newTestApp(t, f)
	seeded := f.SeedTask(model.Task{UserID: userID, Title: "task"})

	_, stderr, code := runCmd(t, &FlagCmd{}, cfg, app, []string{"1"})
	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	stored, _ := f.Task(seeded.ID)
	if !stored.IsFlagged {
		t.Error("task not flagged")
	}
}

func TestEditCommand(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, userID := newTestApp(t, f)
	due := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	notes := "old notes"
	seeded := f.SeedTask(model.Task{UserID: userID, Title: "old", Notes: &notes, DueDate: &due})

	cmd := &EditCmd{title: "new", clearDue: true}
	_, stderr, code := runCmd(t, cmd, cfg, app, []string{"1"})
	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}

	stored, _ := f.Task(seeded.ID)
	if stored.Title != "new" {
		t.Errorf("title = %q", stored.Title)
	}
	if stored.DueDate != nil {
		t.Error("due date not cleared")
	}
	if stored.Notes == nil || *stored.Notes != "old notes" {
		t.Error("untouched field changed")
	}
}

func TestEditCommandNothingToChange(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, userID := newTestApp(t, f)
	f.SeedTask(model.Task{UserID: userID, Title: "task"})

	_, stderr, code := runCmd(t, &EditCmd{}, cfg, app, []string{"1"})
	if code != exitcode.UserError {
		t.Errorf("exit code = %d", code)
	}
	if !strings.Contains(stderr, "nothing to change") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestListsCommand(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, userID := newTestApp(t, f)
	groceries := f.SeedList(model.List{UserID: userID, Name: "Groceries", SortOrder: 0})
	f.SeedList(model.List{UserID: userID, Name: "Chores", SortOrder: 1})
	f.SeedTask(model.Task{UserID: userID, Title: "milk", ListID: &groceries.ID})
	f.SeedTask(model.Task{UserID: userID, Title: "eggs", ListID: &groceries.ID})
	f.SeedTask(model.Task{UserID: userID, Title: "done", ListID: &groceries.ID, IsCompleted: true})

	stdout, stderr, code := runCmd(t, &ListsCmd{}, cfg, app, nil)
	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	expected := "Groceries (2)\nChores (0)\n"
	if stdout != expected {
		t.Errorf("stdout = %q, want %q", stdout, expected)
	}
}

func TestNewListCommandRejectsDuplicate(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, userID := newTestApp(t, f)
	f.SeedList(model.List{UserID: userID, Name: "Groceries"})

	_, stderr, code := runCmd(t, &NewListCmd{}, cfg, app, []string{"groceries"})
	if code != exitcode.UserError {
		t.Errorf("exit code = %d", code)
	}
	if !strings.Contains(stderr, "already exists") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRenameListCommand(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, userID := newTestApp(t, f)
	list := f.SeedList(model.List{UserID: userID, Name: "Groceries"})

	_, stderr, code := runCmd(t, &RenameListCmd{}, cfg, app, []string{"groceries", "Food"})
	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	stored, _ := f.List(list.ID)
	if stored.Name != "Food" {
		t.Errorf("name = %q", stored.Name)
	}
}

func TestRmListCommandRequiresForceWhenNotEmpty(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, userID := newTestApp(t, f)
	list := f.SeedList(model.List{UserID: userID, Name: "Groceries"})
	task := f.SeedTask(model.Task{UserID: userID, Title: "milk", ListID: &list.ID})

	_, stderr, code := runCmd(t, &RmListCmd{}, cfg, app, []string{"groceries"})
	if code != exitcode.UserError {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	if _, ok := f.List(list.ID); !ok {
		t.Fatal("list deleted without --force")
	}

	_, stderr, code = runCmd(t, &RmListCmd{force: true}, cfg, app, []string{"groceries"})
	if code != exitcode.Success {
		t.Fatalf("forced exit code = %d, stderr = %q", code, stderr)
	}
	if _, ok := f.List(list.ID); ok {
		t.Error("list survived forced delete")
	}
	stored, ok := f.Task(task.ID)
	if !ok || stored.ListID != nil {
		t.Errorf("task not detached: ok=%v listID=%v", ok, stored.ListID)
	}
}

func TestReorderCommand(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, userID := newTestApp(t, f)
	a := f.SeedList(model.List{UserID: userID, Name: "a", SortOrder: 0})
	f.SeedList(model.List{UserID: userID, Name: "b", SortOrder: 1})
	c := f.SeedList(model.List{UserID: userID, Name: "c", SortOrder: 2})

	_, stderr, code := runCmd(t, &ReorderCmd{}, cfg, app, []string{"c", "a"})
	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	if f.UpsertCalls != 1 {
		t.Errorf("UpsertCalls = %d, want 1", f.UpsertCalls)
	}

	storedC, _ := f.List(c.ID)
	storedA, _ := f.List(a.ID)
	if storedC.SortOrder != 0 || storedA.SortOrder != 1 {
		t.Errorf("c=%d a=%d, want 0 and 1", storedC.SortOrder, storedA.SortOrder)
	}
}

func TestSettingsCommand(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, _ := newTestApp(t, f)

	// No row yet.
	stdout, _, code := runCmd(t, &SettingsCmd{}, cfg, app, nil)
	if code != exitcode.Success {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout, "no settings saved") {
		t.Errorf("stdout = %q", stdout)
	}

	// Update, then show.
	_, stderr, code := runCmd(t, &SettingsCmd{theme: "dark", notifications: "on"}, cfg, app, nil)
	if code != exitcode.Success {
		t.Fatalf("update exit code = %d, stderr = %q", code, stderr)
	}

	stdout, _, code = runCmd(t, &SettingsCmd{}, cfg, app, nil)
	if code != exitcode.Success {
		t.Fatalf("show exit code = %d", code)
	}
	if !strings.Contains(stdout, "theme: dark") || !strings.Contains(stdout, "notifications: on") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestSettingsCommandRejectsBadToggle(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, _ := newTestApp(t, f)

	_, stderr, code := runCmd(t, &SettingsCmd{notifications: "maybe"}, cfg, app, nil)
	if code != exitcode.UserError {
		t.Errorf("exit code = %d", code)
	}
	if !strings.Contains(stderr, "invalid value") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestWhoamiCommand(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, userID := newTestApp(t, f)

	stdout, _, code := runCmd(t, &WhoamiCmd{}, cfg, app, nil)
	if code != exitcode.Success {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout, "tester@example.com") || !strings.Contains(stdout, userID) {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestSignupCommandValidation(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, _ := newTestApp(t, f)

	cmd := &SignupCmd{email: "new@example.com", password: "short"}
	_, stderr, code := runCmd(t, cmd, cfg, app, nil)
	if code != exitcode.UserError {
		t.Errorf("exit code = %d", code)
	}
	if !strings.Contains(stderr, "at least 6 characters") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestSignupCommandConfirmEmailPolicy(t *testing.T) {
	f := testutil.NewFakeRemote()
	f.ConfirmEmail = true
	app, cfg, _ := newTestApp(t, f)

	cmd := &SignupCmd{email: "new@example.com", password: "secret123"}
	stdout, stderr, code := runCmd(t, cmd, cfg, app, nil)
	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	if !strings.Contains(stdout, "check your email") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestLogoutCommand(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, _ := newTestApp(t, f)

	_, stderr, code := runCmd(t, &LogoutCmd{}, cfg, app, nil)
	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	if app.Auth.Session() != nil {
		t.Error("session survived logout")
	}
	if cfg.HasSession() {
		t.Error("session file survived logout")
	}
}

func TestQuietSuppressesOK(t *testing.T) {
	f := testutil.NewFakeRemote()
	app, cfg, _ := newTestApp(t, f)
	cfg.Quiet = true

	stdout, _, code := runCmd(t, &AddCmd{}, cfg, app, []string{"quiet task"})
	if code != exitcode.Success {
		t.Fatalf("exit code = %d", code)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty under quiet", stdout)
	}
}
