package model

// ChangeType classifies a realtime change event.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// TaskChange is one event from the task change stream. New is set for
// inserts and updates, Old for deletes (the backend only ships the old
// row's identity columns on delete).
type TaskChange struct {
	Type ChangeType
	New  *Task
	Old  *Task
}

// ListChange is one event from the list change stream.
type ListChange struct {
	Type ChangeType
	New  *List
	Old  *List
}
