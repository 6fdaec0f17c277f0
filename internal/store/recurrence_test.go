package store

import (
	"testing"
	"time"

	"taskflow/internal/model"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func rulePtr(r model.RecurrenceRule) *model.RecurrenceRule {
	return &r
}

func TestNextDueDate(t *testing.T) {
	tests := []struct {
		name     string
		due      *time.Time
		rule     *model.RecurrenceRule
		interval int
		want     time.Time
		wantOK   bool
	}{
		{
			name:     "daily",
			due:      datePtr(2024, time.March, 10),
			rule:     rulePtr(model.RecurrenceDaily),
			interval: 1,
			want:     time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC),
			wantOK:   true,
		},
		{
			name:     "daily interval three",
			due:      datePtr(2024, time.March, 10),
			rule:     rulePtr(model.RecurrenceDaily),
			interval: 3,
			want:     time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC),
			wantOK:   true,
		},
		{
			name:     "weekly",
			due:      datePtr(2024, time.March, 10),
			rule:     rulePtr(model.RecurrenceWeekly),
			interval: 2,
			want:     time.Date(2024, time.March, 24, 0, 0, 0, 0, time.UTC),
			wantOK:   true,
		},
		{
			name:     "monthly",
			due:      datePtr(2024, time.March, 15),
			rule:     rulePtr(model.RecurrenceMonthly),
			interval: 1,
			want:     time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC),
			wantOK:   true,
		},
		{
			name:     "monthly clamps to short month",
			due:      datePtr(2024, time.January, 31),
			rule:     rulePtr(model.RecurrenceMonthly),
			interval: 1,
			want:     time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
			wantOK:   true,
		},
		{
			name:     "monthly clamps in non leap year",
			due:      datePtr(2023, time.January, 31),
			rule:     rulePtr(model.RecurrenceMonthly),
			interval: 1,
			want:     time.Date(2023, time.February, 28, 0, 0, 0, 0, time.UTC),
			wantOK:   true,
		},
		{
			name:     "monthly across year boundary",
			due:      datePtr(2024, time.December, 31),
			rule:     rulePtr(model.RecurrenceMonthly),
			interval: 2,
			want:     time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC),
			wantOK:   true,
		},
		{
			name:     "zero interval treated as one",
			due:      datePtr(2024, time.March, 10),
			rule:     rulePtr(model.RecurrenceDaily),
			interval: 0,
			want:     time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC),
			wantOK:   true,
		},
		{
			name:     "custom rule has no fixed period",
			due:      datePtr(2024, time.March, 10),
			rule:     rulePtr(model.RecurrenceCustom),
			interval: 1,
			wantOK:   false,
		},
		{
			name:     "no due date",
			rule:     rulePtr(model.RecurrenceDaily),
			interval: 1,
			wantOK:   false,
		},
		{
			name:     "no rule",
			due:      datePtr(2024, time.March, 10),
			interval: 1,
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := model.Task{
				DueDate:            tt.due,
				RecurrenceRule:     tt.rule,
				RecurrenceInterval: tt.interval,
			}
			got, ok := NextDueDate(task)
			if ok != tt.wantOK {
				t.Fatalf("NextDueDate ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("NextDueDate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextDueDatePreservesTimeOfDay(t *testing.T) {
	due := time.Date(2024, time.January, 31, 9, 30, 0, 0, time.UTC)
	task := model.Task{
		DueDate:            &due,
		RecurrenceRule:     rulePtr(model.RecurrenceMonthly),
		RecurrenceInterval: 1,
	}

	got, ok := NextDueDate(task)
	if !ok {
		t.Fatal("NextDueDate ok = false, want true")
	}
	want := time.Date(2024, time.February, 29, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextDueDate = %v, want %v", got, want)
	}
}
