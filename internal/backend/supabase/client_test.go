package supabase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskflow/internal/backend/supabase"
	"taskflow/internal/model"
	"taskflow/internal/remote"
	"taskflow/internal/testutil"
)

func newTestClient(f *testutil.FakeSupabase) *supabase.Client {
	return supabase.NewWithHTTPClient(f.URL(), "anon-key", f.Server.Client())
}

func TestSignIn(t *testing.T) {
	f := testutil.NewFakeSupabase()
	defer f.Close()
	userID := f.RegisterUser("alice@example.com", "correct horse")

	c := newTestClient(f)
	session, err := c.SignIn(context.Background(), "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if session.User.ID != userID {
		t.Errorf("user id = %q, want %q", session.User.ID, userID)
	}
	if !session.Valid() {
		t.Error("session not valid")
	}
	if session.Token.RefreshToken == "" {
		t.Error("no refresh token")
	}
}

func TestSignInBadCredentials(t *testing.T) {
	f := testutil.NewFakeSupabase()
	defer f.Close()
	f.RegisterUser("alice@example.com", "correct horse")

	c := newTestClient(f)
	if _, err := c.SignIn(context.Background(), "alice@example.com", "wrong"); err == nil {
		t.Fatal("SignIn succeeded, want error")
	}
}

func TestSignInFallsBackToTokenClaims(t *testing.T) {
	f := testutil.NewFakeSupabase()
	defer f.Close()
	f.OmitUser = true
	userID := f.RegisterUser("alice@example.com", "correct horse")

	c := newTestClient(f)
	session, err := c.SignIn(context.Background(), "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	// With no user object or expires_in in the response, identity and
	// expiry come from the access token's claims.
	if session.User.ID != userID {
		t.Errorf("user id = %q, want %q", session.User.ID, userID)
	}
	if session.Token.Expiry.IsZero() || !session.Valid() {
		t.Errorf("expiry not recovered from claims: %v", session.Token.Expiry)
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	f := testutil.NewFakeSupabase()
	defer f.Close()
	f.RegisterUser("alice@example.com", "correct horse")

	c := newTestClient(f)
	session, err := c.SignIn(context.Background(), "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	fresh, err := c.Refresh(context.Background(), session.Token.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if fresh.Token.AccessToken == session.Token.AccessToken {
		t.Error("access token not rotated")
	}

	// The old refresh token is spent.
	if _, err := c.Refresh(context.Background(), session.Token.RefreshToken); err == nil {
		t.Error("spent refresh token accepted")
	}
}

func TestSignUp(t *testing.T) {
	f := testutil.NewFakeSupabase()
	defer f.Close()

	c := newTestClient(f)
	session, user, err := c.SignUp(context.Background(), "bob@example.com", "secret123")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if session == nil || user == nil {
		t.Fatal("missing session or user")
	}
	if user.Email != "bob@example.com" {
		t.Errorf("email = %q", user.Email)
	}

	// Duplicate registration is rejected.
	if _, _, err := c.SignUp(context.Background(), "bob@example.com", "secret123"); err == nil {
		t.Error("duplicate signup accepted")
	}
}

func TestTaskRoundTrip(t *testing.T) {
	f := testutil.NewFakeSupabase()
	defer f.Close()
	c := newTestClient(f)
	ctx := context.Background()

	due := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	task, err := c.InsertTask(ctx, model.TaskDraft{
		UserID:  "user-1",
		Title:   "buy milk",
		DueDate: &due,
	})
	if err != nil {
		t.Fatalf("InsertTask: %v", err)
	}
	if task.ID == "" {
		t.Fatal("no server-assigned id")
	}
	if task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Errorf("due = %v, want %v", task.DueDate, due)
	}

	tasks, err := c.SelectTasks(ctx, "user-1")
	if err != nil {
		t.Fatalf("SelectTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "buy milk" {
		t.Fatalf("tasks = %+v", tasks)
	}

	patch := model.TaskPatch{Title: model.Set("buy oat milk"), IsCompleted: model.Set(true)}
	if err := c.UpdateTask(ctx, task.ID, patch); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	row, _ := f.Row("tasks", task.ID)
	if row["title"] != "buy oat milk" || row["is_completed"] != true {
		t.Errorf("stored row = %v", row)
	}

	if err := c.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if _, ok := f.Row("tasks", task.ID); ok {
		t.Error("row survived delete")
	}
}

func TestUpdateTaskNotFound(t *testing.T) {
	f := testutil.NewFakeSupabase()
	defer f.Close()
	c := newTestClient(f)

	patch := model.TaskPatch{Title: model.Set("nope")}
	if err := c.UpdateTask(context.Background(), "missing", patch); !errors.Is(err, remote.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListRoundTripAndPositions(t *testing.T) {
	f := testutil.NewFakeSupabase()
	defer f.Close()
	c := newTestClient(f)
	ctx := context.Background()

	a, err := c.InsertList(ctx, model.ListDraft{UserID: "user-1", Name: "groceries", SortOrder: 0})
	if err != nil {
		t.Fatalf("InsertList: %v", err)
	}
	b, err := c.InsertList(ctx, model.ListDraft{UserID: "user-1", Name: "chores", SortOrder: 1})
	if err != nil {
		t.Fatalf("InsertList: %v", err)
	}

	err = c.UpsertListPositions(ctx, []model.ListPosition{
		{ID: b.ID, SortOrder: 0},
		{ID: a.ID, SortOrder: 1},
	})
	if err != nil {
		t.Fatalf("UpsertListPositions: %v", err)
	}

	lists, err := c.SelectLists(ctx, "user-1")
	if err != nil {
		t.Fatalf("SelectLists: %v", err)
	}
	if len(lists) != 2 || lists[0].Name != "chores" || lists[1].Name != "groceries" {
		t.Errorf("lists = %+v", lists)
	}
}

func TestUserSettingsUpsertConflictsOnUser(t *testing.T) {
	f := testutil.NewFakeSupabase()
	defer f.Close()
	c := newTestClient(f)
	ctx := context.Background()

	if _, err := c.UserSettings(ctx, "user-1"); !errors.Is(err, remote.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for a new account", err)
	}

	var patch model.SettingsPatch
	patch.Theme = model.Set("dark")
	first, err := c.UpsertUserSettings(ctx, "user-1", patch)
	if err != nil {
		t.Fatalf("UpsertUserSettings: %v", err)
	}

	patch = model.SettingsPatch{}
	patch.NotificationsEnabled = model.Set(true)
	second, err := c.UpsertUserSettings(ctx, "user-1", patch)
	if err != nil {
		t.Fatalf("second UpsertUserSettings: %v", err)
	}

	if second.ID != first.ID {
		t.Error("upsert created a second row for the same user")
	}
	if second.Theme != "dark" || !second.NotificationsEnabled {
		t.Errorf("merge lost fields: %+v", second)
	}
}
