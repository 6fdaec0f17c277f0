// Package remote defines the backend-agnostic interface for the hosted
// data service. All backend calls go through this interface; stores never
// import a backend package directly.
package remote

import (
	"context"
	"errors"

	"taskflow/internal/model"
)

// ErrNotFound is returned when a row does not exist on the backend.
var ErrNotFound = errors.New("not found")

// TaskStream delivers server-pushed task change events. Events is closed
// after Close returns or the stream's context is cancelled. Close is
// idempotent and releases the underlying subscription.
type TaskStream interface {
	Events() <-chan model.TaskChange
	Close() error
}

// ListStream is the list-collection counterpart of TaskStream.
type ListStream interface {
	Events() <-chan model.ListChange
	Close() error
}

// Service defines the remote data operations the stores depend on.
//
// Insert calls return the canonical server row: the backend assigns id and
// created/updated timestamps, never the client. Update calls are partial
// patches; only set fields are written. Change streams are scoped to the
// owner and deliver at-least-once with best-effort ordering.
type Service interface {
	// SelectTasks returns all of the user's tasks ordered by sort order.
	SelectTasks(ctx context.Context, userID string) ([]model.Task, error)

	// InsertTask creates a task and returns the server-assigned row.
	InsertTask(ctx context.Context, draft model.TaskDraft) (model.Task, error)

	// UpdateTask applies a partial patch to a task by id.
	UpdateTask(ctx context.Context, id string, patch model.TaskPatch) error

	// DeleteTask removes a task by id.
	DeleteTask(ctx context.Context, id string) error

	// StreamTaskChanges opens the user-scoped task change stream.
	StreamTaskChanges(ctx context.Context, userID string) (TaskStream, error)

	// SelectLists returns all of the user's lists ordered by sort order.
	SelectLists(ctx context.Context, userID string) ([]model.List, error)

	// InsertList creates a list and returns the server-assigned row.
	InsertList(ctx context.Context, draft model.ListDraft) (model.List, error)

	// UpdateList applies a partial patch to a list by id.
	UpdateList(ctx context.Context, id string, patch model.ListPatch) error

	// DeleteList removes a list by id. The backend detaches (nulls) the
	// list reference on tasks that pointed to it; tasks are never
	// cascade-deleted.
	DeleteList(ctx context.Context, id string) error

	// UpsertListPositions rewrites list sort positions as one batch call.
	UpsertListPositions(ctx context.Context, positions []model.ListPosition) error

	// StreamListChanges opens the user-scoped list change stream.
	StreamListChanges(ctx context.Context, userID string) (ListStream, error)

	// UserSettings returns the user's settings row.
	UserSettings(ctx context.Context, userID string) (model.UserSettings, error)

	// UpsertUserSettings patches (creating if absent) the settings row and
	// returns the canonical result.
	UpsertUserSettings(ctx context.Context, userID string, patch model.SettingsPatch) (model.UserSettings, error)
}
