// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskflow/internal/model"
	"taskflow/internal/remote"
)

// FakeRemote is an in-memory implementation of remote.Service and
// remote.Authenticator for testing. Mutations broadcast change events to
// open streams, mimicking the backend's realtime behavior, and ids are
// server-assigned UUIDs as on the real backend.
type FakeRemote struct {
	mu       sync.Mutex
	tasks    map[string]model.Task
	lists    map[string]model.List
	settings map[string]model.UserSettings // by user id
	users    map[string]fakeUser           // by email
	byToken  map[string]string             // access token -> user id

	taskSubs map[int]chan model.TaskChange
	listSubs map[int]chan model.ListChange
	nextSub  int

	// UpsertCalls counts batch position upserts, for asserting that a
	// reorder is one call.
	UpsertCalls int

	// ConfirmEmail makes SignUp withhold the session, modeling a
	// confirm-email-first policy.
	ConfirmEmail bool

	// UpdateTaskGate, when non-nil, blocks UpdateTask until the gate is
	// closed or receives, so tests can hold a mutation in flight.
	UpdateTaskGate chan struct{}

	// Error injection for testing
	SelectTasksErr     error
	InsertTaskErr      error
	UpdateTaskErr      error
	DeleteTaskErr      error
	StreamTasksErr     error
	SelectListsErr     error
	InsertListErr      error
	UpdateListErr      error
	DeleteListErr      error
	UpsertPositionsErr error
	StreamListsErr     error
	SettingsErr        error
	UpsertSettingsErr  error
	SignInErr          error
	SignUpErr          error
	RefreshErr         error
	SignOutErr         error
}

type fakeUser struct {
	id       string
	password string
}

// NewFakeRemote creates an empty fake backend.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		tasks:    make(map[string]model.Task),
		lists:    make(map[string]model.List),
		settings: make(map[string]model.UserSettings),
		users:    make(map[string]fakeUser),
		byToken:  make(map[string]string),
		taskSubs: make(map[int]chan model.TaskChange),
		listSubs: make(map[int]chan model.ListChange),
	}
}

// SeedTask stores a task directly, assigning an id and timestamps when
// missing, and returns the stored row. No change event is emitted.
func (f *FakeRemote) SeedTask(t model.Task) model.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.UpdatedAt = t.CreatedAt
	f.tasks[t.ID] = t
	return t
}

// SeedList stores a list directly, assigning an id when missing.
func (f *FakeRemote) SeedList(l model.List) model.List {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	l.UpdatedAt = l.CreatedAt
	f.lists[l.ID] = l
	return l
}

// Task returns the stored row by id.
func (f *FakeRemote) Task(id string) (model.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	return t, ok
}

// List returns the stored row by id.
func (f *FakeRemote) List(id string) (model.List, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lists[id]
	return l, ok
}

// TaskCount returns the number of stored tasks.
func (f *FakeRemote) TaskCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

// OpenTaskStreams returns the number of live task streams, for leak
// assertions.
func (f *FakeRemote) OpenTaskStreams() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.taskSubs)
}

// EmitTaskChange delivers an event to every open task stream, as if
// pushed by the server.
func (f *FakeRemote) EmitTaskChange(ev model.TaskChange) {
	f.mu.Lock()
	chans := make([]chan model.TaskChange, 0, len(f.taskSubs))
	for _, ch := range f.taskSubs {
		chans = append(chans, ch)
	}
	f.mu.Unlock()
	for _, ch := range chans {
		ch <- ev
	}
}

// EmitListChange delivers an event to every open list stream.
func (f *FakeRemote) EmitListChange(ev model.ListChange) {
	f.mu.Lock()
	chans := make([]chan model.ListChange, 0, len(f.listSubs))
	for _, ch := range f.listSubs {
		chans = append(chans, ch)
	}
	f.mu.Unlock()
	for _, ch := range chans {
		ch <- ev
	}
}

// SelectTasks implements remote.Service.
func (f *FakeRemote) SelectTasks(ctx context.Context, userID string) ([]model.Task, error) {
	if f.SelectTasksErr != nil {
		return nil, f.SelectTasksErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.Task
	for _, t := range f.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// InsertTask implements remote.Service, assigning id and timestamps and
// broadcasting an insert event.
func (f *FakeRemote) InsertTask(ctx context.Context, draft model.TaskDraft) (model.Task, error) {
	if f.InsertTaskErr != nil {
		return model.Task{}, f.InsertTaskErr
	}

	now := time.Now()
	task := model.Task{
		ID:                 uuid.NewString(),
		UserID:             draft.UserID,
		ListID:             draft.ListID,
		Title:              draft.Title,
		Notes:              draft.Notes,
		DueDate:            draft.DueDate,
		IsFlagged:          draft.IsFlagged,
		IsRecurring:        draft.IsRecurring,
		RecurrenceRule:     draft.RecurrenceRule,
		RecurrenceInterval: draft.RecurrenceInterval,
		RecurrenceEndDate:  draft.RecurrenceEndDate,
		ParentTaskID:       draft.ParentTaskID,
		SortOrder:          draft.SortOrder,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	f.mu.Lock()
	f.tasks[task.ID] = task
	f.mu.Unlock()

	f.EmitTaskChange(model.TaskChange{Type: model.ChangeInsert, New: &task})
	return task, nil
}

// UpdateTask implements remote.Service.
func (f *FakeRemote) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) error {
	if f.UpdateTaskGate != nil {
		<-f.UpdateTaskGate
	}
	if f.UpdateTaskErr != nil {
		return f.UpdateTaskErr
	}

	f.mu.Lock()
	task, ok := f.tasks[id]
	if !ok {
		f.mu.Unlock()
		return remote.ErrNotFound
	}
	patch.Apply(&task)
	task.UpdatedAt = time.Now()
	f.tasks[id] = task
	f.mu.Unlock()

	f.EmitTaskChange(model.TaskChange{Type: model.ChangeUpdate, New: &task})
	return nil
}

// DeleteTask implements remote.Service.
func (f *FakeRemote) DeleteTask(ctx context.Context, id string) error {
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}

	f.mu.Lock()
	task, ok := f.tasks[id]
	if !ok {
		f.mu.Unlock()
		return remote.ErrNotFound
	}
	delete(f.tasks, id)
	f.mu.Unlock()

	f.EmitTaskChange(model.TaskChange{Type: model.ChangeDelete, Old: &model.Task{ID: task.ID}})
	return nil
}

// StreamTaskChanges implements remote.Service.
func (f *FakeRemote) StreamTaskChanges(ctx context.Context, userID string) (remote.TaskStream, error) {
	if f.StreamTasksErr != nil {
		return nil, f.StreamTasksErr
	}

	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	ch := make(chan model.TaskChange, 64)
	f.taskSubs[id] = ch
	f.mu.Unlock()

	return &fakeTaskStream{ch: ch, close: func() {
		f.mu.Lock()
		if _, ok := f.taskSubs[id]; ok {
			delete(f.taskSubs, id)
			close(ch)
		}
		f.mu.Unlock()
	}}, nil
}

// SelectLists implements remote.Service.
func (f *FakeRemote) SelectLists(ctx context.Context, userID string) ([]model.List, error) {
	if f.SelectListsErr != nil {
		return nil, f.SelectListsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.List
	for _, l := range f.lists {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// InsertList implements remote.Service.
func (f *FakeRemote) InsertList(ctx context.Context, draft model.ListDraft) (model.List, error) {
	if f.InsertListErr != nil {
		return model.List{}, f.InsertListErr
	}

	now := time.Now()
	list := model.List{
		ID:        uuid.NewString(),
		UserID:    draft.UserID,
		Name:      draft.Name,
		Color:     draft.Color,
		Icon:      draft.Icon,
		SortOrder: draft.SortOrder,
		CreatedAt: now,
		UpdatedAt: now,
	}

	f.mu.Lock()
	f.lists[list.ID] = list
	f.mu.Unlock()

	f.EmitListChange(model.ListChange{Type: model.ChangeInsert, New: &list})
	return list, nil
}

// UpdateList implements remote.Service.
func (f *FakeRemote) UpdateList(ctx context.Context, id string, patch model.ListPatch) error {
	if f.UpdateListErr != nil {
		return f.UpdateListErr
	}

	f.mu.Lock()
	list, ok := f.lists[id]
	if !ok {
		f.mu.Unlock()
		return remote.ErrNotFound
	}
	patch.Apply(&list)
	list.UpdatedAt = time.Now()
	f.lists[id] = list
	f.mu.Unlock()

	f.EmitListChange(model.ListChange{Type: model.ChangeUpdate, New: &list})
	return nil
}

// DeleteList implements remote.Service. Tasks pointing at the list are
// detached, modeling the schema's ON DELETE SET NULL.
func (f *FakeRemote) DeleteList(ctx context.Context, id string) error {
	if f.DeleteListErr != nil {
		return f.DeleteListErr
	}

	f.mu.Lock()
	list, ok := f.lists[id]
	if !ok {
		f.mu.Unlock()
		return remote.ErrNotFound
	}
	delete(f.lists, id)

	var detached []model.Task
	for tid, t := range f.tasks {
		if t.ListID != nil && *t.ListID == id {
			t.ListID = nil
			t.UpdatedAt = time.Now()
			f.tasks[tid] = t
			detached = append(detached, t)
		}
	}
	f.mu.Unlock()

	f.EmitListChange(model.ListChange{Type: model.ChangeDelete, Old: &model.List{ID: list.ID}})
	for i := range detached {
		f.EmitTaskChange(model.TaskChange{Type: model.ChangeUpdate, New: &detached[i]})
	}
	return nil
}

// UpsertListPositions implements remote.Service.
func (f *FakeRemote) UpsertListPositions(ctx context.Context, positions []model.ListPosition) error {
	f.mu.Lock()
	f.UpsertCalls++
	f.mu.Unlock()
	if f.UpsertPositionsErr != nil {
		return f.UpsertPositionsErr
	}

	f.mu.Lock()
	for _, p := range positions {
		if l, ok := f.lists[p.ID]; ok {
			l.SortOrder = p.SortOrder
			l.UpdatedAt = time.Now()
			f.lists[p.ID] = l
		}
	}
	f.mu.Unlock()
	return nil
}

// StreamListChanges implements remote.Service.
func (f *FakeRemote) StreamListChanges(ctx context.Context, userID string) (remote.ListStream, error) {
	if f.StreamListsErr != nil {
		return nil, f.StreamListsErr
	}

	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	ch := make(chan model.ListChange, 64)
	f.listSubs[id] = ch
	f.mu.Unlock()

	return &fakeListStream{ch: ch, close: func() {
		f.mu.Lock()
		if _, ok := f.listSubs[id]; ok {
			delete(f.listSubs, id)
			close(ch)
		}
		f.mu.Unlock()
	}}, nil
}

// UserSettings implements remote.Service.
func (f *FakeRemote) UserSettings(ctx context.Context, userID string) (model.UserSettings, error) {
	if f.SettingsErr != nil {
		return model.UserSettings{}, f.SettingsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[userID]
	if !ok {
		return model.UserSettings{}, remote.ErrNotFound
	}
	return s, nil
}

// UpsertUserSettings implements remote.Service.
func (f *FakeRemote) UpsertUserSettings(ctx context.Context, userID string, patch model.SettingsPatch) (model.UserSettings, error) {
	if f.UpsertSettingsErr != nil {
		return model.UserSettings{}, f.UpsertSettingsErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[userID]
	if !ok {
		s = model.UserSettings{ID: uuid.NewString(), UserID: userID, CreatedAt: time.Now()}
	}
	patch.Apply(&s)
	s.UpdatedAt = time.Now()
	f.settings[userID] = s
	return s, nil
}

type fakeTaskStream struct {
	ch    chan model.TaskChange
	close func()
	once  sync.Once
}

func (s *fakeTaskStream) Events() <-chan model.TaskChange { return s.ch }
func (s *fakeTaskStream) Close() error {
	s.once.Do(s.close)
	return nil
}

type fakeListStream struct {
	ch    chan model.ListChange
	close func()
	once  sync.Once
}

func (s *fakeListStream) Events() <-chan model.ListChange { return s.ch }
func (s *fakeListStream) Close() error {
	s.once.Do(s.close)
	return nil
}
