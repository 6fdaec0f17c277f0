package store

import (
	"context"
	"errors"
	"log"
	"sync"

	"taskflow/internal/model"
	"taskflow/internal/remote"
)

// ErrListNotFound is returned when the referenced list id is not in the
// local collection.
var ErrListNotFound = errors.New("store: list not found")

// ListStore owns the in-memory list collection. Same shape as TaskStore
// without the optimistic paths or recurrence.
type ListStore struct {
	remote  remote.Service
	session SessionSource
	logger  *log.Logger

	mu        sync.Mutex
	lists     []model.List
	loading   bool
	closed    bool
	subs      map[int]func()
	nextSub   int
	teardowns map[int]func()
	nextTear  int
}

// NewListStore creates a list store over the given remote service and
// session source. logger may be nil; it defaults to log.Default.
func NewListStore(svc remote.Service, session SessionSource, logger *log.Logger) *ListStore {
	if logger == nil {
		logger = log.Default()
	}
	return &ListStore{
		remote:    svc,
		session:   session,
		logger:    logger,
		subs:      make(map[int]func()),
		teardowns: make(map[int]func()),
	}
}

// Fetch replaces the local collection with the backend's rows for the
// signed-in user, ordered by sort order.
func (s *ListStore) Fetch(ctx context.Context) error {
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

	lists, err := s.remote.SelectLists(ctx, userID)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	s.loading = false
	if err == nil {
		s.lists = lists
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		s.logger.Printf("liststore: fetch: %v", err)
		return err
	}
	return nil
}

// Add creates a list at the end of the ordering: its sort order is one
// past the current maximum.
func (s *ListStore) Add(ctx context.Context, draft model.ListDraft) (*model.List, error) {
	userID, ok := s.session.UserID()
	if !ok {
		return nil, ErrNotSignedIn
	}
	draft.UserID = userID

	s.mu.Lock()
	maxOrder := 0
	for i := range s.lists {
		if s.lists[i].SortOrder > maxOrder {
			maxOrder = s.lists[i].SortOrder
		}
	}
	s.mu.Unlock()
	draft.SortOrder = maxOrder + 1

	list, err := s.remote.InsertList(ctx, draft)
	if err != nil {
		s.logger.Printf("liststore: add: %v", err)
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	s.lists = append(s.lists, list)
	s.mu.Unlock()
	s.notify()

	return &list, nil
}

// Update issues a remote partial update, merging into local state only
// on success.
func (s *ListStore) Update(ctx context.Context, id string, patch model.ListPatch) error {
	if err := s.remote.UpdateList(ctx, id, patch); err != nil {
		s.logger.Printf("liststore: update %s: %v", id, err)
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	for i := range s.lists {
		if s.lists[i].ID == id {
			patch.Apply(&s.lists[i])
			break
		}
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// Delete removes a list. The backend detaches tasks that referenced it;
// the task collection picks that up through fetch or the change stream.
func (s *ListStore) Delete(ctx context.Context, id string) error {
	if err := s.remote.DeleteList(ctx, id); err != nil {
		s.logger.Printf("liststore: delete %s: %v", id, err)
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	for i := range s.lists {
		if s.lists[i].ID == id {
			s.lists = append(s.lists[:i], s.lists[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// Reorder rewrites every list's sort position to its index in ordered,
// upserts them as a single batch call, and mirrors the new order into
// local state on success.
func (s *ListStore) Reorder(ctx context.Context, ordered []model.List) error {
	positions := make([]model.ListPosition, len(ordered))
	for i, l := range ordered {
		positions[i] = model.ListPosition{ID: l.ID, SortOrder: i}
	}

	if err := s.remote.UpsertListPositions(ctx, positions); err != nil {
		s.logger.Printf("liststore: reorder: %v", err)
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	next := make([]model.List, len(ordered))
	for i, l := range ordered {
		l.SortOrder = i
		next[i] = l
	}
	s.lists = next
	s.mu.Unlock()
	s.notify()
	return nil
}

// Lists returns a snapshot copy of the collection.
func (s *ListStore) Lists() []model.List {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.List, len(s.lists))
	copy(out, s.lists)
	return out
}

// Loading reports whether a fetch is in progress.
func (s *ListStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Find returns the list with the given id.
func (s *ListStore) Find(id string) (model.List, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lists {
		if s.lists[i].ID == id {
			return s.lists[i], true
		}
	}
	return model.List{}, false
}

// Subscribe registers fn to run after every state change. The returned
// function removes the registration and is safe to call more than once.
func (s *ListStore) Subscribe(fn func()) func() {
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
// its events until torn down. The returned teardown is idempotent.
func (s *ListStore) SubscribeChanges(ctx context.Context) (func(), error) {
	userID, ok := s.session.UserID()
	if !ok {
		return nil, ErrNotSignedIn
	}

	stream, err := s.remote.StreamListChanges(ctx, userID)
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
				s.logger.Printf("liststore: close stream: %v", err)
			}
			s.mu.Lock()
			delete(s.teardowns, id)
			s.mu.Unlock()
		})
	}
	s.teardowns[id] = teardown
	s.mu.Unlock()

	go func() {
		for ev := range stream.Events() {
			s.applyChange(ev)
		}
	}()
	return teardown, nil
}

func (s *ListStore) applyChange(ev model.ListChange) {
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
		for i := range s.lists {
			if s.lists[i].ID == ev.New.ID {
				s.mu.Unlock()
				return
			}
		}
		s.lists = append(s.lists, *ev.New)
	case model.ChangeUpdate:
		if ev.New == nil {
			s.mu.Unlock()
			return
		}
		for i := range s.lists {
			if s.lists[i].ID == ev.New.ID {
				s.lists[i] = *ev.New
				break
			}
		}
	case model.ChangeDelete:
		if ev.Old == nil {
			s.mu.Unlock()
			return
		}
		for i := range s.lists {
			if s.lists[i].ID == ev.Old.ID {
				s.lists = append(s.lists[:i], s.lists[i+1:]...)
				break
			}
		}
	default:
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.notify()
}

// Close tears down every open stream and marks the store dead.
func (s *ListStore) Close() {
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

func (s *ListStore) notify() {
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
