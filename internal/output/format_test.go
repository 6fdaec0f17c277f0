package output_test

import (
	"bytes"
	"testing"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/output"
	"taskflow/internal/testutil"
)

func TestTaskListing(t *testing.T) {
	due := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	output.FormatListHeader(&buf, "Groceries")
	output.FormatTask(&buf, 1, model.Task{Title: "buy milk", DueDate: &due})
	output.FormatTask(&buf, 2, model.Task{Title: "pay rent", IsCompleted: true, IsFlagged: true})

	testutil.GoldenString(t, "task_listing", buf.String())
}

func TestChangeFeed(t *testing.T) {
	var buf bytes.Buffer
	output.FormatChange(&buf, model.TaskChange{Type: model.ChangeInsert, New: &model.Task{Title: "buy milk"}})
	output.FormatChange(&buf, model.TaskChange{Type: model.ChangeUpdate, New: &model.Task{Title: "buy oat milk"}})
	output.FormatChange(&buf, model.TaskChange{Type: model.ChangeDelete, Old: &model.Task{ID: "3f2a"}})
	output.FormatListChange(&buf, model.ListChange{Type: model.ChangeInsert, New: &model.List{Name: "Groceries"}})
	output.FormatListChange(&buf, model.ListChange{Type: model.ChangeDelete, Old: &model.List{ID: "9b1c"}})

	testutil.GoldenString(t, "change_feed", buf.String())
}

func TestFormatTaskNormalizesTitle(t *testing.T) {
	var buf bytes.Buffer
	output.FormatTask(&buf, 1, model.Task{Title: "  \n "})
	if got, want := buf.String(), "   1  [ ] (untitled)\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	buf.Reset()
	output.FormatTask(&buf, 2, model.Task{Title: "line one\nline two"})
	if got, want := buf.String(), "   2  [ ] line one line two\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatListLine(t *testing.T) {
	var buf bytes.Buffer
	output.FormatListLine(&buf, model.List{Name: "Chores"}, 3)
	if got, want := buf.String(), "Chores (3)\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	buf.Reset()
	output.FormatListLine(&buf, model.List{Name: "   "}, 0)
	if got, want := buf.String(), "(untitled) (0)\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatChangeMissingPayloadIsSilent(t *testing.T) {
	var buf bytes.Buffer
	output.FormatChange(&buf, model.TaskChange{Type: model.ChangeInsert})
	output.FormatChange(&buf, model.TaskChange{Type: model.ChangeDelete})
	if buf.Len() != 0 {
		t.Errorf("got %q, want no output", buf.String())
	}
}
