package store

import (
	"testing"
	"time"

	"taskflow/internal/model"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func titles(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func sameTitles(got []model.Task, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i].Title != want[i] {
			return false
		}
	}
	return true
}

func TestFilterTasks(t *testing.T) {
	listA := "list-a"
	tasks := []model.Task{
		{Title: "open in a", ListID: &listA},
		{Title: "done in a", ListID: &listA, IsCompleted: true},
		{Title: "flagged loose", IsFlagged: true},
		{Title: "with notes", Notes: strPtr("remember")},
		{Title: "empty notes", Notes: strPtr("")},
		{Title: "dated", DueDate: datePtr(2024, time.June, 1)},
	}

	tests := []struct {
		name   string
		filter model.FilterOptions
		want   []string
	}{
		{
			name:   "no predicates passes all",
			filter: model.FilterOptions{},
			want:   []string{"open in a", "done in a", "flagged loose", "with notes", "empty notes", "dated"},
		},
		{
			name:   "by list",
			filter: model.FilterOptions{ListID: &listA},
			want:   []string{"open in a", "done in a"},
		},
		{
			name:   "hide completed",
			filter: model.FilterOptions{Completed: boolPtr(false)},
			want:   []string{"open in a", "flagged loose", "with notes", "empty notes", "dated"},
		},
		{
			name:   "only completed",
			filter: model.FilterOptions{Completed: boolPtr(true)},
			want:   []string{"done in a"},
		},
		{
			name:   "flagged only",
			filter: model.FilterOptions{Flagged: boolPtr(true)},
			want:   []string{"flagged loose"},
		},
		{
			name:   "has notes excludes empty string",
			filter: model.FilterOptions{HasNotes: true},
			want:   []string{"with notes"},
		},
		{
			name:   "has due date",
			filter: model.FilterOptions{HasDueDate: true},
			want:   []string{"dated"},
		},
		{
			name:   "combined list and open",
			filter: model.FilterOptions{ListID: &listA, Completed: boolPtr(false)},
			want:   []string{"open in a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterTasks(tasks, tt.filter)
			if !sameTitles(got, tt.want) {
				t.Errorf("FilterTasks = %v, want %v", titles(got), tt.want)
			}
		})
	}
}

func TestSortTasksDueDateNilsLast(t *testing.T) {
	tasks := []model.Task{
		{Title: "undated one"},
		{Title: "late", DueDate: datePtr(2024, time.June, 20)},
		{Title: "undated two"},
		{Title: "early", DueDate: datePtr(2024, time.June, 1)},
	}

	asc := make([]model.Task, len(tasks))
	copy(asc, tasks)
	SortTasks(asc, model.SortOptions{Field: model.SortByDueDate, Direction: model.SortAscending})
	if !sameTitles(asc, []string{"early", "late", "undated one", "undated two"}) {
		t.Errorf("ascending = %v", titles(asc))
	}

	desc := make([]model.Task, len(tasks))
	copy(desc, tasks)
	SortTasks(desc, model.SortOptions{Field: model.SortByDueDate, Direction: model.SortDescending})
	// Undated tasks stay last even when the direction flips.
	if !sameTitles(desc, []string{"late", "early", "undated one", "undated two"}) {
		t.Errorf("descending = %v", titles(desc))
	}
}

func TestSortTasksPriority(t *testing.T) {
	tasks := []model.Task{
		{Title: "plain one"},
		{Title: "flagged one", IsFlagged: true},
		{Title: "plain two"},
		{Title: "flagged two", IsFlagged: true},
	}

	SortTasks(tasks, model.SortOptions{Field: model.SortByPriority, Direction: model.SortAscending})
	if !sameTitles(tasks, []string{"flagged one", "flagged two", "plain one", "plain two"}) {
		t.Errorf("ascending = %v", titles(tasks))
	}

	SortTasks(tasks, model.SortOptions{Field: model.SortByPriority, Direction: model.SortDescending})
	if !sameTitles(tasks, []string{"plain one", "plain two", "flagged one", "flagged two"}) {
		t.Errorf("descending = %v", titles(tasks))
	}
}

func TestSortTasksAlphabetical(t *testing.T) {
	tasks := []model.Task{
		{Title: "banana"},
		{Title: "Apple"},
		{Title: "cherry"},
	}

	SortTasks(tasks, model.SortOptions{Field: model.SortByAlphabetical, Direction: model.SortAscending})
	// Collation sorts case-insensitively, unlike byte order.
	if !sameTitles(tasks, []string{"Apple", "banana", "cherry"}) {
		t.Errorf("alphabetical = %v", titles(tasks))
	}
}

func TestSortTasksCreatedAt(t *testing.T) {
	base := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		{Title: "second", CreatedAt: base.Add(time.Hour)},
		{Title: "first", CreatedAt: base},
		{Title: "third", CreatedAt: base.Add(2 * time.Hour)},
	}

	SortTasks(tasks, model.SortOptions{Field: model.SortByCreatedAt, Direction: model.SortAscending})
	if !sameTitles(tasks, []string{"first", "second", "third"}) {
		t.Errorf("ascending = %v", titles(tasks))
	}

	SortTasks(tasks, model.SortOptions{Field: model.SortByCreatedAt, Direction: model.SortDescending})
	if !sameTitles(tasks, []string{"third", "second", "first"}) {
		t.Errorf("descending = %v", titles(tasks))
	}
}

func TestSortTasksStableOnTies(t *testing.T) {
	due := datePtr(2024, time.June, 1)
	tasks := []model.Task{
		{Title: "a", DueDate: due},
		{Title: "b", DueDate: due},
		{Title: "c", DueDate: due},
	}

	SortTasks(tasks, model.SortOptions{Field: model.SortByDueDate, Direction: model.SortAscending})
	if !sameTitles(tasks, []string{"a", "b", "c"}) {
		t.Errorf("ties reordered: %v", titles(tasks))
	}
}
