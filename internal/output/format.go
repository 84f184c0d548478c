// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"taskdeck/internal/service"
)

// ReminderTimeFormat is the display layout for reminder due times.
const ReminderTimeFormat = "2006-01-02 15:04"

// FormatTask formats a task line with its subtasks.
// Format: "{N:>4}  [x] {TITLE}\n", then one "          [ ] {SUBTASK}\n" per
// subtask.
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  %s %s\n", num, checkbox(task.Completed()), normalizeTitle(task.Title))
	for _, sub := range task.Subtasks {
		fmt.Fprintf(w, "          %s %s\n", checkbox(sub.Done), normalizeTitle(sub.Title))
	}
}

// FormatTaskDetail formats a task with its description.
func FormatTaskDetail(w io.Writer, num int, task service.Task) {
	FormatTask(w, num, task)
	if task.Description != nil && strings.TrimSpace(*task.Description) != "" {
		for _, line := range strings.Split(strings.TrimRight(*task.Description, "\n"), "\n") {
			fmt.Fprintf(w, "          %s\n", line)
		}
	}
	if task.CompletedAt != nil {
		fmt.Fprintf(w, "          completed %s\n", task.CompletedAt.Local().Format(ReminderTimeFormat))
	}
}

// FormatAccount formats the account profile.
func FormatAccount(w io.Writer, acct service.Account) {
	admin := "no"
	if acct.Admin {
		admin = "yes"
	}
	fmt.Fprintf(w, "name:     %s\n", acct.Name)
	fmt.Fprintf(w, "username: %s\n", acct.Username)
	fmt.Fprintf(w, "email:    %s\n", acct.Email)
	fmt.Fprintf(w, "admin:    %s\n", admin)
	fmt.Fprintf(w, "tasks:    %d\n", len(acct.Tasks))
}

// FormatReminder formats a pending reminder line.
func FormatReminder(w io.Writer, r service.Reminder) {
	due := "(no date)"
	if !r.Due.IsZero() {
		due = r.Due.In(time.Local).Format(ReminderTimeFormat)
	}
	fmt.Fprintf(w, "      %s  %s\n", due, normalizeTitle(r.Title))
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// normalizeTitle normalizes a title for display.
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
