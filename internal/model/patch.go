package model

import "time"

// Field holds an optional patch value. The zero value means "leave the
// column untouched"; Set marks the field for inclusion in the patch.
// Nullable columns use a pointer value type, so Set[*T](nil) writes NULL.
type Field[T any] struct {
	value T
	valid bool
}

// Set returns a Field carrying v.
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, valid: true}
}

// Valid reports whether the field was set.
func (f Field[T]) Valid() bool { return f.valid }

// Value returns the carried value. Meaningless unless Valid.
func (f Field[T]) Value() T { return f.value }

// TaskPatch is a partial update for a task row. Only set fields are sent
// to the backend and merged into local state.
type TaskPatch struct {
	ListID             Field[*string]
	Title              Field[string]
	Notes              Field[*string]
	DueDate            Field[*time.Time]
	IsCompleted        Field[bool]
	CompletedAt        Field[*time.Time]
	IsFlagged          Field[bool]
	IsRecurring        Field[bool]
	RecurrenceRule     Field[*RecurrenceRule]
	RecurrenceInterval Field[int]
	RecurrenceEndDate  Field[*time.Time]
	SortOrder          Field[int]
}

// IsZero reports whether no fields are set.
func (p TaskPatch) IsZero() bool {
	return len(p.Changes()) == 0
}

// Changes returns the set fields as a column->value map, the shape the
// backend sends as a partial-update body.
func (p TaskPatch) Changes() map[string]any {
	m := make(map[string]any)
	if p.ListID.Valid() {
		m["list_id"] = p.ListID.Value()
	}
	if p.Title.Valid() {
		m["title"] = p.Title.Value()
	}
	if p.Notes.Valid() {
		m["notes"] = p.Notes.Value()
	}
	if p.DueDate.Valid() {
		m["due_date"] = p.DueDate.Value()
	}
	if p.IsCompleted.Valid() {
		m["is_completed"] = p.IsCompleted.Value()
	}
	if p.CompletedAt.Valid() {
		m["completed_at"] = p.CompletedAt.Value()
	}
	if p.IsFlagged.Valid() {
		m["is_flagged"] = p.IsFlagged.Value()
	}
	if p.IsRecurring.Valid() {
		m["is_recurring"] = p.IsRecurring.Value()
	}
	if p.RecurrenceRule.Valid() {
		m["recurrence_rule"] = p.RecurrenceRule.Value()
	}
	if p.RecurrenceInterval.Valid() {
		m["recurrence_interval"] = p.RecurrenceInterval.Value()
	}
	if p.RecurrenceEndDate.Valid() {
		m["recurrence_end_date"] = p.RecurrenceEndDate.Value()
	}
	if p.SortOrder.Valid() {
		m["sort_order"] = p.SortOrder.Value()
	}
	return m
}

// Apply merges the set fields into t by shallow overwrite.
func (p TaskPatch) Apply(t *Task) {
	if p.ListID.Valid() {
		t.ListID = p.ListID.Value()
	}
	if p.Title.Valid() {
		t.Title = p.Title.Value()
	}
	if p.Notes.Valid() {
		t.Notes = p.Notes.Value()
	}
	if p.DueDate.Valid() {
		t.DueDate = p.DueDate.Value()
	}
	if p.IsCompleted.Valid() {
		t.IsCompleted = p.IsCompleted.Value()
	}
	if p.CompletedAt.Valid() {
		t.CompletedAt = p.CompletedAt.Value()
	}
	if p.IsFlagged.Valid() {
		t.IsFlagged = p.IsFlagged.Value()
	}
	if p.IsRecurring.Valid() {
		t.IsRecurring = p.IsRecurring.Value()
	}
	if p.RecurrenceRule.Valid() {
		t.RecurrenceRule = p.RecurrenceRule.Value()
	}
	if p.RecurrenceInterval.Valid() {
		t.RecurrenceInterval = p.RecurrenceInterval.Value()
	}
	if p.RecurrenceEndDate.Valid() {
		t.RecurrenceEndDate = p.RecurrenceEndDate.Value()
	}
	if p.SortOrder.Valid() {
		t.SortOrder = p.SortOrder.Value()
	}
}

// ListPatch is a partial update for a list row.
type ListPatch struct {
	Name      Field[string]
	Color     Field[string]
	Icon      Field[string]
	SortOrder Field[int]
}

// Changes returns the set fields as a column->value map.
func (p ListPatch) Changes() map[string]any {
	m := make(map[string]any)
	if p.Name.Valid() {
		m["name"] = p.Name.Value()
	}
	if p.Color.Valid() {
		m["color"] = p.Color.Value()
	}
	if p.Icon.Valid() {
		m["icon"] = p.Icon.Value()
	}
	if p.SortOrder.Valid() {
		m["sort_order"] = p.SortOrder.Value()
	}
	return m
}

// Apply merges the set fields into l by shallow overwrite.
func (p ListPatch) Apply(l *List) {
	if p.Name.Valid() {
		l.Name = p.Name.Value()
	}
	if p.Color.Valid() {
		l.Color = p.Color.Value()
	}
	if p.Icon.Valid() {
		l.Icon = p.Icon.Value()
	}
	if p.SortOrder.Valid() {
		l.SortOrder = p.SortOrder.Value()
	}
}

// SettingsPatch is a partial update for the user settings row.
type SettingsPatch struct {
	NotificationsEnabled Field[bool]
	NotificationSound    Field[string]
	Theme                Field[string]
	DefaultListID        Field[*string]
	ShowCompletedTasks   Field[bool]
	DefaultSort          Field[string]
	DefaultSortDirection Field[string]
}

// Changes returns the set fields as a column->value map.
func (p SettingsPatch) Changes() map[string]any {
	m := make(map[string]any)
	if p.NotificationsEnabled.Valid() {
		m["notifications_enabled"] = p.NotificationsEnabled.Value()
	}
	if p.NotificationSound.Valid() {
		m["notification_sound"] = p.NotificationSound.Value()
	}
	if p.Theme.Valid() {
		m["theme"] = p.Theme.Value()
	}
	if p.DefaultListID.Valid() {
		m["default_list_id"] = p.DefaultListID.Value()
	}
	if p.ShowCompletedTasks.Valid() {
		m["show_completed_tasks"] = p.ShowCompletedTasks.Value()
	}
	if p.DefaultSort.Valid() {
		m["default_sort"] = p.DefaultSort.Value()
	}
	if p.DefaultSortDirection.Valid() {
		m["default_sort_direction"] = p.DefaultSortDirection.Value()
	}
	return m
}

// Apply merges the set fields into s by shallow overwrite.
func (p SettingsPatch) Apply(s *UserSettings) {
	if p.NotificationsEnabled.Valid() {
		s.NotificationsEnabled = p.NotificationsEnabled.Value()
	}
	if p.NotificationSound.Valid() {
		s.NotificationSound = p.NotificationSound.Value()
	}
	if p.Theme.Valid() {
		s.Theme = p.Theme.Value()
	}
	if p.DefaultListID.Valid() {
		s.DefaultListID = p.DefaultListID.Value()
	}
	if p.ShowCompletedTasks.Valid() {
		s.ShowCompletedTasks = p.ShowCompletedTasks.Value()
	}
	if p.DefaultSort.Valid() {
		s.DefaultSort = p.DefaultSort.Value()
	}
	if p.DefaultSortDirection.Valid() {
		s.DefaultSortDirection = p.DefaultSortDirection.Value()
	}
}
