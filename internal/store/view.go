package store

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"taskflow/internal/model"
)

// FilterTasks returns the tasks passing every active predicate, in input
// order. The predicates are independent, so application order is
// irrelevant.
func FilterTasks(tasks []model.Task, f model.FilterOptions) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// SortTasks stable-sorts tasks in place by the configured field.
//
// Tasks without a due date sort after all tasks with one under both
// directions. For priority, flagged counts as higher; direction still
// inverts the final order. Alphabetical comparison is collation-based,
// not byte order.
func SortTasks(tasks []model.Task, opts model.SortOptions) {
	var col *collate.Collator
	if opts.Field == model.SortByAlphabetical {
		// Collators are not safe for concurrent use; build one per sort.
		col = collate.New(language.Und)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]

		if opts.Field == model.SortByDueDate {
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return false
			case a.DueDate == nil:
				return false
			case b.DueDate == nil:
				return true
			}
		}

		var cmp int
		switch opts.Field {
		case model.SortByDueDate:
			cmp = a.DueDate.Compare(*b.DueDate)
		case model.SortByCreatedAt:
			cmp = a.CreatedAt.Compare(b.CreatedAt)
		case model.SortByPriority:
			cmp = flagRank(b) - flagRank(a)
		case model.SortByAlphabetical:
			cmp = col.CompareString(a.Title, b.Title)
		}

		if opts.Direction == model.SortDescending {
			cmp = -cmp
		}
		return cmp < 0
	})
}

func flagRank(t model.Task) int {
	if t.IsFlagged {
		return 1
	}
	return 0
}
