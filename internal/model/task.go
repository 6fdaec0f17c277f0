// Package model defines the entity types shared by the stores, the remote
// service interface, and its backends.
package model

import "time"

// RecurrenceRule identifies how a task repeats.
type RecurrenceRule string

const (
	RecurrenceDaily   RecurrenceRule = "daily"
	RecurrenceWeekly  RecurrenceRule = "weekly"
	RecurrenceMonthly RecurrenceRule = "monthly"
	RecurrenceCustom  RecurrenceRule = "custom"
)

// Task is a single task row as stored by the backend.
// Nullable columns are pointers; nil means SQL NULL.
type Task struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id"`
	ListID             *string         `json:"list_id"`
	Title              string          `json:"title"`
	Notes              *string         `json:"notes"`
	DueDate            *time.Time      `json:"due_date"`
	IsCompleted        bool            `json:"is_completed"`
	CompletedAt        *time.Time      `json:"completed_at"`
	IsFlagged          bool            `json:"is_flagged"`
	IsRecurring        bool            `json:"is_recurring"`
	RecurrenceRule     *RecurrenceRule `json:"recurrence_rule"`
	RecurrenceInterval int             `json:"recurrence_interval"`
	RecurrenceEndDate  *time.Time      `json:"recurrence_end_date"`
	ParentTaskID       *string         `json:"parent_task_id"`
	SortOrder          int             `json:"sort_order"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// TaskDraft is the client-supplied portion of a new task. The backend
// assigns id and timestamps; the task store injects UserID.
type TaskDraft struct {
	UserID             string          `json:"user_id"`
	ListID             *string         `json:"list_id,omitempty"`
	Title              string          `json:"title"`
	Notes              *string         `json:"notes,omitempty"`
	DueDate            *time.Time      `json:"due_date,omitempty"`
	IsFlagged          bool            `json:"is_flagged"`
	IsRecurring        bool            `json:"is_recurring"`
	RecurrenceRule     *RecurrenceRule `json:"recurrence_rule,omitempty"`
	RecurrenceInterval int             `json:"recurrence_interval,omitempty"`
	RecurrenceEndDate  *time.Time      `json:"recurrence_end_date,omitempty"`
	ParentTaskID       *string         `json:"parent_task_id,omitempty"`
	SortOrder          int             `json:"sort_order,omitempty"`
}

// List is a task grouping row.
type List struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListDraft is the client-supplied portion of a new list.
type ListDraft struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	Icon      string `json:"icon,omitempty"`
	SortOrder int    `json:"sort_order"`
}

// ListPosition pairs a list id with its new sort position, used by the
// batch reorder upsert.
type ListPosition struct {
	ID        string `json:"id"`
	SortOrder int    `json:"sort_order"`
}

// UserSettings is the per-user settings row. It is synced through the
// backend, unlike the local sort/filter preferences.
type UserSettings struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	NotificationSound    string    `json:"notification_sound"`
	Theme                string    `json:"theme"`
	DefaultListID        *string   `json:"default_list_id"`
	ShowCompletedTasks   bool      `json:"show_completed_tasks"`
	DefaultSort          string    `json:"default_sort"`
	DefaultSortDirection string    `json:"default_sort_direction"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
