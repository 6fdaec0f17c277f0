// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"taskflow/internal/model"
)

const (
	// ListSeparator is the separator line for list sections.
	ListSeparator = "------------"

	// DueDateLayout is how due dates render in task lines.
	DueDateLayout = "2006-01-02"
)

// FormatTask formats a task line.
// Format: "{N:>4}  [ ] {TITLE}" with optional " !" flag marker and
// " (due YYYY-MM-DD)" suffix.
func FormatTask(w io.Writer, num int, task model.Task) {
	box := "[ ]"
	if task.IsCompleted {
		box = "[x]"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%4d  %s %s", num, box, normalizeTitle(task.Title))
	if task.IsFlagged {
		b.WriteString(" !")
	}
	if task.DueDate != nil {
		fmt.Fprintf(&b, " (due %s)", task.DueDate.Format(DueDateLayout))
	}
	fmt.Fprintln(w, b.String())
}

// FormatListHeader formats a list section header.
func FormatListHeader(w io.Writer, name string) {
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintln(w, normalizeListName(name))
	fmt.Fprintln(w, ListSeparator)
}

// FormatListLine formats a list row for the lists command, with its open
// task count.
func FormatListLine(w io.Writer, list model.List, openTasks int) {
	fmt.Fprintf(w, "%s (%d)\n", normalizeListName(list.Name), openTasks)
}

// FormatChange formats one realtime change event for the watch command.
func FormatChange(w io.Writer, ev model.TaskChange) {
	switch ev.Type {
	case model.ChangeInsert:
		if ev.New != nil {
			fmt.Fprintf(w, "+ %s\n", normalizeTitle(ev.New.Title))
		}
	case model.ChangeUpdate:
		if ev.New != nil {
			fmt.Fprintf(w, "~ %s\n", normalizeTitle(ev.New.Title))
		}
	case model.ChangeDelete:
		if ev.Old != nil {
			fmt.Fprintf(w, "- %s\n", ev.Old.ID)
		}
	}
}

// FormatListChange formats one realtime list change event.
func FormatListChange(w io.Writer, ev model.ListChange) {
	switch ev.Type {
	case model.ChangeInsert:
		if ev.New != nil {
			fmt.Fprintf(w, "+ list %s\n", normalizeListName(ev.New.Name))
		}
	case model.ChangeUpdate:
		if ev.New != nil {
			fmt.Fprintf(w, "~ list %s\n", normalizeListName(ev.New.Name))
		}
	case model.ChangeDelete:
		if ev.Old != nil {
			fmt.Fprintf(w, "- list %s\n", ev.Old.ID)
		}
	}
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

// normalizeListName normalizes a list name for display.
// Empty or whitespace-only names become "(untitled)".
func normalizeListName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "(untitled)"
	}
	return name
}
