package output

import (
	"bytes"
	"testing"
	"time"

	"taskdeck/internal/service"
	"taskdeck/internal/testutil"
)

func TestFormatTask(t *testing.T) {
	done := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var buf bytes.Buffer

	FormatTask(&buf, 1, service.Task{Title: "Buy milk"})
	FormatTask(&buf, 2, service.Task{Title: "Plan trip", CompletedAt: &done, Subtasks: []service.Subtask{
		{Title: "Book flights", Done: true},
		{Title: "Pack"},
	}})
	FormatTask(&buf, 10, service.Task{Title: "line one\nline two"})
	FormatTask(&buf, 11, service.Task{Title: "   "})

	testutil.GoldenString(t, "tasks", buf.String())
}

func TestFormatAccount(t *testing.T) {
	var buf bytes.Buffer
	FormatAccount(&buf, service.Account{
		Name:     "Ann Example",
		Username: "ann",
		Email:    "ann@example.com",
		Admin:    true,
		Tasks:    []service.AccountTask{{TaskID: "t1"}, {TaskID: "t2"}},
	})

	testutil.GoldenString(t, "account", buf.String())
}

func TestFormatTaskDetail_Description(t *testing.T) {
	desc := "first\nsecond\n"
	var buf bytes.Buffer
	FormatTaskDetail(&buf, 3, service.Task{Title: "Write report", Description: &desc})

	want := "   3  [ ] Write report\n          first\n          second\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestFormatReminder_NoDate(t *testing.T) {
	var buf bytes.Buffer
	FormatReminder(&buf, service.Reminder{Title: "call"})
	if buf.String() != "      (no date)  call\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}
