package model

// SortField selects the comparison key for the derived task view.
type SortField string

const (
	SortByDueDate      SortField = "due_date"
	SortByCreatedAt    SortField = "created_at"
	SortByPriority     SortField = "priority"
	SortByAlphabetical SortField = "alphabetical"
)

// SortDirection is the order of the derived view.
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// SortOptions is the user-chosen sort configuration. Persisted locally,
// never synced.
type SortOptions struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

// DefaultSortOptions matches the app's first-launch behavior.
func DefaultSortOptions() SortOptions {
	return SortOptions{Field: SortByDueDate, Direction: SortAscending}
}

// FilterOptions is a set of independent predicates ANDed over the task
// collection. A nil pointer (or false bool) disables that predicate.
type FilterOptions struct {
	ListID     *string `json:"list_id,omitempty"`
	Flagged    *bool   `json:"is_flagged,omitempty"`
	Completed  *bool   `json:"is_completed,omitempty"`
	HasNotes   bool    `json:"has_notes,omitempty"`
	HasDueDate bool    `json:"has_due_date,omitempty"`
}

// DefaultFilterOptions hides completed tasks, mirroring the stock
// reminders-app behavior.
func DefaultFilterOptions() FilterOptions {
	completed := false
	return FilterOptions{Completed: &completed}
}

// Match reports whether t passes every active predicate.
func (f FilterOptions) Match(t Task) bool {
	if f.ListID != nil {
		if t.ListID == nil || *t.ListID != *f.ListID {
			return false
		}
	}
	if f.Flagged != nil && t.IsFlagged != *f.Flagged {
		return false
	}
	if f.Completed != nil && t.IsCompleted != *f.Completed {
		return false
	}
	if f.HasNotes && (t.Notes == nil || *t.Notes == "") {
		return false
	}
	if f.HasDueDate && t.DueDate == nil {
		return false
	}
	return true
}
