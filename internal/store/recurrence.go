package store

import (
	"time"

	"taskflow/internal/model"
)

// NextDueDate computes the next occurrence of a recurring task: the
// original due date plus RecurrenceInterval periods of the rule. Returns
// false when the task has no due date, no rule, or a rule with no fixed
// period ("custom").
func NextDueDate(t model.Task) (time.Time, bool) {
	if t.DueDate == nil || t.RecurrenceRule == nil {
		return time.Time{}, false
	}

	interval := t.RecurrenceInterval
	if interval < 1 {
		interval = 1
	}

	due := *t.DueDate
	switch *t.RecurrenceRule {
	case model.RecurrenceDaily:
		return due.AddDate(0, 0, interval), true
	case model.RecurrenceWeekly:
		return due.AddDate(0, 0, 7*interval), true
	case model.RecurrenceMonthly:
		return addMonthsClamped(due, interval), true
	default:
		return time.Time{}, false
	}
}

// addMonthsClamped advances t by the given number of calendar months,
// clamping the day to the target month's last day (Jan 31 + 1 month is
// Feb 28/29, not Mar 2). Go's AddDate would normalize past the month end.
func addMonthsClamped(t time.Time, months int) time.Time {
	day := t.Day()
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	first = first.AddDate(0, months, 0)

	if last := lastDayOfMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// lastDayOfMonth returns the number of days in the given month. Day 0 of
// the following month is the last day of this one.
func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
