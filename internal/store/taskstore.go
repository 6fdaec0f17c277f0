// Package store implements the client-side state containers: the task
// store (fetch, optimistic completion toggle, recurrence expansion,
// filtered/sorted derived view, realtime reconciliation) and the list
// store. Stores own the authoritative in-memory collections for the
// signed-in user; the backend remains the source of truth and the
// collections are re-fetched on every session start, never persisted
// locally.
package store

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/remote"
)

var (
	// ErrNotSignedIn is returned when an operation requires an
	// authenticated user and there is none.
	ErrNotSignedIn = errors.New("store: not signed in")

	// ErrTaskNotFound is returned when the referenced id is not in the
	// local collection.
	ErrTaskNotFound = errors.New("store: task not found")

	// ErrToggleInFlight is returned when a completion toggle is requested
	// for a task whose previous toggle has not resolved yet. Rejecting the
	// second toggle keeps the failure revert from clobbering newer state.
	ErrToggleInFlight = errors.New("store: toggle already in flight")

	// ErrStoreClosed is returned after Close.
	ErrStoreClosed = errors.New("store: closed")
)

// SessionSource supplies the current user identity. Implemented by
// auth.Manager.
type SessionSource interface {
	// UserID returns the signed-in user's id, or false when signed out.
	UserID() (string, bool)
}

// TaskStore owns the in-memory task collection for the signed-in user.
// All mutations are atomic snapshot updates under one mutex; completion
// handlers resolving after Close leave state untouched.
type TaskStore struct {
	remote  remote.Service
	session SessionSource
	logger  *log.Logger
	now     func() time.Time

	mu        sync.Mutex
	tasks     []model.Task
	loading   bool
	sort      model.SortOptions
	filter    model.FilterOptions
	inflight  map[string]struct{}
	closed    bool
	subs      map[int]func()
	nextSub   int
	teardowns map[int]func()
	nextTear  int
}

// NewTaskStore creates a task store over the given remote service and
// session source. logger may be nil; it defaults to log.Default.
func NewTaskStore(svc remote.Service, session SessionSource, logger *log.Logger) *TaskStore {
	if logger == nil {
		logger = log.Default()
	}
	return &TaskStore{
		remote:    svc,
		session:   session,
		logger:    logger,
		now:       time.Now,
		sort:      model.DefaultSortOptions(),
		filter:    model.DefaultFilterOptions(),
		inflight:  make(map[string]struct{}),
		subs:      make(map[int]func()),
		teardowns: make(map[int]func()),
	}
}

// Fetch replaces the local collection with the backend's current rows for
// the signed-in user, ordered by stored sort order. On failure the
// collection is left unchanged and the loading flag cleared.
func (s *TaskStore) Fetch(ctx context.Context) error {
	userID, ok := s.session.UserID()
	if !ok {
		return ErrNotSignedIn
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	s.loading = true
	s.mu.Unlock()
	s.notify()

	tasks, err := s.remote.SelectTasks(ctx, userID)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	s.loading = false
	if err == nil {
		s.tasks = tasks
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		s.logger.Printf("taskstore: fetch: %v", err)
		return err
	}
	return nil
}

// Add submits the draft to the backend (injecting the owner) and, on
// success, appends the server-assigned canonical row to the collection.
// Ids are always server-assigned; the client never generates one.
func (s *TaskStore) Add(ctx context.Context, draft model.TaskDraft) (*model.Task, error) {
	userID, ok := s.session.UserID()
	if !ok {
		return nil, ErrNotSignedIn
	}
	draft.UserID = userID

	task, err := s.remote.InsertTask(ctx, draft)
	if err != nil {
		s.logger.Printf("taskstore: add: %v", err)
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()
	s.notify()

	return &task, nil
}

// Update issues a remote partial update and, only if it succeeds, merges
// the same changes into the matching local record by shallow overwrite.
// Not optimistic: a failed call leaves local state byte-for-byte intact.
func (s *TaskStore) Update(ctx context.Context, id string, patch model.TaskPatch) error {
	if err := s.remote.UpdateTask(ctx, id, patch); err != nil {
		s.logger.Printf("taskstore: update %s: %v", id, err)
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			patch.Apply(&s.tasks[i])
			break
		}
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// Delete issues a remote delete and, on success, removes the record from
// the collection. Not optimistic.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	if err := s.remote.DeleteTask(ctx, id); err != nil {
		s.logger.Printf("taskstore: delete %s: %v", id, err)
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	s.removeLocked(id)
	s.mu.Unlock()
	s.notify()
	return nil
}

// ToggleComplete flips the task's completion state, applying the change
// locally before the backend confirms it and reverting on failure. While
// a toggle for an id is unresolved, further toggles on that id are
// rejected with ErrToggleInFlight, so the revert always restores its own
// snapshot. Completing a task with a recurrence rule triggers expansion
// from the pre-toggle snapshot.
func (s *TaskStore) ToggleComplete(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	idx := -1
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrTaskNotFound
	}
	if _, busy := s.inflight[id]; busy {
		s.mu.Unlock()
		return ErrToggleInFlight
	}

	snapshot := s.tasks[idx]
	completed := !snapshot.IsCompleted
	var completedAt *time.Time
	if completed {
		t := s.now()
		completedAt = &t
	}

	s.tasks[idx].IsCompleted = completed
	s.tasks[idx].CompletedAt = completedAt
	s.inflight[id] = struct{}{}
	s.mu.Unlock()
	s.notify()

	patch := model.TaskPatch{
		IsCompleted: model.Set(completed),
		CompletedAt: model.Set(completedAt),
	}
	err := s.remote.UpdateTask(ctx, id, patch)

	s.mu.Lock()
	delete(s.inflight, id)
	if err != nil && !s.closed {
		for i := range s.tasks {
			if s.tasks[i].ID == id {
				s.tasks[i].IsCompleted = snapshot.IsCompleted
				s.tasks[i].CompletedAt = snapshot.CompletedAt
				break
			}
		}
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		s.logger.Printf("taskstore: toggle %s: %v", id, err)
		return err
	}

	if completed && snapshot.RecurrenceRule != nil {
		if err := s.expandRecurrence(ctx, snapshot); err != nil {
			// The toggle itself succeeded; the missing occurrence is
			// logged and absorbed.
			s.logger.Printf("taskstore: recurrence for %s: %v", id, err)
		}
	}
	return nil
}

// ToggleFlag flips the flagged state through the regular non-optimistic
// update path.
func (s *TaskStore) ToggleFlag(ctx context.Context, id string) error {
	s.mu.Lock()
	var flagged bool
	found := false
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			flagged = s.tasks[i].IsFlagged
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return ErrTaskNotFound
	}

	return s.Update(ctx, id, model.TaskPatch{IsFlagged: model.Set(!flagged)})
}

// expandRecurrence creates the next occurrence of original. No-op when
// the task lacks a due date or a fixed-period rule, or when the computed
// next due date falls past the recurrence end date.
func (s *TaskStore) expandRecurrence(ctx context.Context, original model.Task) error {
	next, ok := NextDueDate(original)
	if !ok {
		return nil
	}
	if original.RecurrenceEndDate != nil && next.After(*original.RecurrenceEndDate) {
		return nil
	}

	// Every occurrence in a chain references the root task, not its
	// predecessor.
	parent := original.ID
	if original.ParentTaskID != nil {
		parent = *original.ParentTaskID
	}

	_, err := s.Add(ctx, model.TaskDraft{
		ListID:             original.ListID,
		Title:              original.Title,
		Notes:              original.Notes,
		DueDate:            &next,
		IsFlagged:          original.IsFlagged,
		IsRecurring:        true,
		RecurrenceRule:     original.RecurrenceRule,
		RecurrenceInterval: original.RecurrenceInterval,
		RecurrenceEndDate:  original.RecurrenceEndDate,
		ParentTaskID:       &parent,
	})
	return err
}

// Tasks returns a snapshot copy of the raw collection.
func (s *TaskStore) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Loading reports whether a fetch is in progress.
func (s *TaskStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Filtered returns the derived view: the collection narrowed by the
// active filter predicates and stable-sorted by the sort configuration.
// Recomputed on every call; never cached.
func (s *TaskStore) Filtered() []model.Task {
	s.mu.Lock()
	tasks := make([]model.Task, len(s.tasks))
	copy(tasks, s.tasks)
	sortOpts := s.sort
	filterOpts := s.filter
	s.mu.Unlock()

	out := FilterTasks(tasks, filterOpts)
	SortTasks(out, sortOpts)
	return out
}

// SortOptions returns the current sort configuration.
func (s *TaskStore) SortOptions() model.SortOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sort
}

// SetSortOptions replaces the sort configuration.
func (s *TaskStore) SetSortOptions(opts model.SortOptions) {
	s.mu.Lock()
	s.sort = opts
	s.mu.Unlock()
	s.notify()
}

// FilterOptions returns the current filter configuration.
func (s *TaskStore) FilterOptions() model.FilterOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetFilterOptions replaces the filter configuration.
func (s *TaskStore) SetFilterOptions(opts model.FilterOptions) {
	s.mu.Lock()
	s.filter = opts
	s.mu.Unlock()
	s.notify()
}

// Subscribe registers fn to run after every state change. The returned
// function removes the registration and is safe to call more than once.
func (s *TaskStore) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// SubscribeChanges opens the user-scoped realtime stream and reconciles
// its events into the collection until torn down. The returned teardown
// closes the stream and is idempotent. Callers must re-subscribe when the
// authenticated user changes and tear down on sign-out; a dropped
// teardown leaks a live stream.
func (s *TaskStore) SubscribeChanges(ctx context.Context) (func(), error) {
	userID, ok := s.session.UserID()
	if !ok {
		return nil, ErrNotSignedIn
	}

	stream, err := s.remote.StreamTaskChanges(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		stream.Close()
		return nil, ErrStoreClosed
	}
	id := s.nextTear
	s.nextTear++
	var once sync.Once
	teardown := func() {
		once.Do(func() {
			if err := stream.Close(); err != nil {
				s.logger.Printf("taskstore: close stream: %v", err)
			}
			s.mu.Lock()
			delete(s.teardowns, id)
			s.mu.Unlock()
		})
	}
	s.teardowns[id] = teardown
	s.mu.Unlock()

	go s.reconcile(stream)
	return teardown, nil
}

// reconcile is the single consumer loop for one change stream.
func (s *TaskStore) reconcile(stream remote.TaskStream) {
	for ev := range stream.Events() {
		s.applyChange(ev)
	}
}

// applyChange folds one server-pushed event into the collection. Inserts
// are deduplicated by id, guarding against the event racing a local Add
// for the same row; updates replace the record wholesale with the
// server's version; deletes remove by id.
func (s *TaskStore) applyChange(ev model.TaskChange) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	switch ev.Type {
	case model.ChangeInsert:
		if ev.New == nil {
			s.mu.Unlock()
			return
		}
		for i := range s.tasks {
			if s.tasks[i].ID == ev.New.ID {
				s.mu.Unlock()
				return
			}
		}
		s.tasks = append(s.tasks, *ev.New)
	case model.ChangeUpdate:
		if ev.New == nil {
			s.mu.Unlock()
			return
		}
		for i := range s.tasks {
			if s.tasks[i].ID == ev.New.ID {
				s.tasks[i] = *ev.New
				break
			}
		}
	case model.ChangeDelete:
		if ev.Old == nil {
			s.mu.Unlock()
			return
		}
		s.removeLocked(ev.Old.ID)
	default:
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.notify()
}

// Close tears down every open stream and marks the store dead. Late
// completion handlers and stream events become no-ops.
func (s *TaskStore) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	tears := make([]func(), 0, len(s.teardowns))
	for _, fn := range s.teardowns {
		tears = append(tears, fn)
	}
	s.mu.Unlock()

	for _, fn := range tears {
		fn()
	}
}

func (s *TaskStore) removeLocked(id string) {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return
		}
	}
}

func (s *TaskStore) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
