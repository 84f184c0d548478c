package commands_test

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"taskdeck/internal/commands"
	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/identity"
	"taskdeck/internal/service"
	"taskdeck/internal/testutil"
)

type fixture struct {
	store     *testutil.FakeStore
	reminders *testutil.FakeReminders
	env       *commands.Env
}

// newFixture seeds an account owning one task per title, in order, and
// signs in.
func newFixture(t *testing.T, titles ...string) *fixture {
	t.Helper()
	store := testutil.NewFakeStore()
	reminders := &testutil.FakeReminders{}

	acct := service.Account{Sub: "sub-1", Email: "eve@example.com", Name: "Eve", Username: "eve"}
	for i, title := range titles {
		id := string(rune('a' + i))
		store.AddTask(service.Task{ID: id, Title: title, Owner: "sub-1", Subtasks: []service.Subtask{}})
		acct.Tasks = append(acct.Tasks, service.AccountTask{TaskID: id, Permission: service.PermissionFull, Position: i})
	}
	store.AddAccount(acct)

	log, _ := test.NewNullLogger()
	id := identity.Identity{Sub: "sub-1", Email: "eve@example.com", Name: "Eve", Username: "eve"}
	env, err := commands.NewEnv(context.Background(), store, reminders, id, log)
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}
	return &fixture{store: store, reminders: reminders, env: env}
}

// run parses argv with the command's flags and runs it.
func run(t *testing.T, cmd commands.Command, env *commands.Env, argv []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()

	fs := newFlagSet(cmd)
	if err := fs.Parse(argv); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{
		Dir:   t.TempDir(),
		Quiet: quiet,
	}
	code = cmd.Run(context.Background(), cfg, env, fs.Args(), &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func newFlagSet(cmd commands.Command) *flag.FlagSet {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cmd.RegisterFlags(fs)
	return fs
}

func taskTitle(t *testing.T, f *fixture, id string) string {
	t.Helper()
	task, ok := f.store.GetTask(id)
	if !ok {
		t.Fatalf("task %s not in store", id)
	}
	return task.Title
}

func TestVersionCommand(t *testing.T) {
	stdout, stderr, code := run(t, &commands.VersionCmd{}, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "taskdeck 0.1.0\n" {
		t.Errorf("expected version output, got %q", stdout)
	}
}

func TestHelpCommand(t *testing.T) {
	stdout, _, code := run(t, &commands.HelpCmd{}, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("help output should contain 'Usage:'")
	}
}

func TestListCommand(t *testing.T) {
	f := newFixture(t, "Buy milk", "Call mom")

	stdout, stderr, code := run(t, &commands.ListCmd{}, f.env, nil, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d: %s", exitcode.Success, code, stderr)
	}
	want := "   1  [ ] Buy milk\n   2  [ ] Call mom\n"
	if stdout != want {
		t.Errorf("expected %q, got %q", want, stdout)
	}
}

func TestListCommand_Empty(t *testing.T) {
	f := newFixture(t)

	stdout, _, code := run(t, &commands.ListCmd{}, f.env, nil, false)
	if code != exitcode.Success || stdout != "no tasks found\n" {
		t.Errorf("expected 'no tasks found', got %q (code %d)", stdout, code)
	}

	stdout, _, _ = run(t, &commands.ListCmd{}, f.env, nil, true)
	if stdout != "" {
		t.Errorf("expected no stdout in quiet mode, got %q", stdout)
	}
}

func TestListCommand_Verbose(t *testing.T) {
	f := newFixture(t, "Write report")
	desc := "draft first"
	if _, err := f.env.Tasks.UpdateTask(context.Background(), f.env.Session, service.UpdateTask{ID: "a", Description: &desc}); err != nil {
		t.Fatal(err)
	}

	stdout, _, code := run(t, &commands.ListCmd{}, f.env, []string{"-v"}, false)
	if code != exitcode.Success {
		t.Fatalf("expected success, got %d", code)
	}
	if !strings.Contains(stdout, "          draft first\n") {
		t.Errorf("expected description line, got %q", stdout)
	}
}

func TestListCommand_RefreshesStaleSession(t *testing.T) {
	f := newFixture(t, "Buy milk")
	f.store.AddTask(service.Task{ID: "z", Title: "Shared", Owner: "other"})
	f.env.Session.MarkStale()

	stdout, _, code := run(t, &commands.ListCmd{}, f.env, nil, false)
	if code != exitcode.Success {
		t.Fatalf("expected success, got %d", code)
	}
	if !strings.Contains(stdout, "   2  [ ] Shared\n") {
		t.Errorf("expected refreshed task appended, got %q", stdout)
	}
}

func TestListCommand_UnexpectedArg(t *testing.T) {
	f := newFixture(t)

	_, stderr, code := run(t, &commands.ListCmd{}, f.env, []string{"work"}, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: unexpected argument: work\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestAddCommand(t *testing.T) {
	f := newFixture(t, "Buy milk")

	stdout, stderr, code := run(t, &commands.AddCmd{}, f.env, []string{"-d", "two cartons", "Call", "mom"}, false)
	if code != exitcode.Success {
		t.Fatalf("expected success, got %d: %s", code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", stdout)
	}

	acct, _ := f.store.GetAccount("sub-1")
	if len(acct.Tasks) != 2 || acct.Tasks[1].Position != 1 {
		t.Fatalf("expected appended projection, got %+v", acct.Tasks)
	}
	created, _ := f.store.GetTask(acct.Tasks[1].TaskID)
	if created.Title != "Call mom" || created.Description == nil || *created.Description != "two cartons" {
		t.Errorf("unexpected created task: %+v", created)
	}
}

func TestAddCommand_Quiet(t *testing.T) {
	f := newFixture(t)

	stdout, _, code := run(t, &commands.AddCmd{}, f.env, []string{"Buy milk"}, true)
	if code != exitcode.Success || stdout != "" {
		t.Errorf("expected silent success, got %q (code %d)", stdout, code)
	}
}

func TestAddCommand_NoTitle(t *testing.T) {
	f := newFixture(t)

	_, stderr, code := run(t, &commands.AddCmd{}, f.env, nil, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: title required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if f.store.Calls["CreateTask"] != 0 {
		t.Error("expected no create call")
	}
}

func TestAddCommand_BackendError(t *testing.T) {
	f := newFixture(t)
	f.store.CreateTaskErr = errors.New("boom")

	_, stderr, code := run(t, &commands.AddCmd{}, f.env, []string{"Buy milk"}, false)
	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: backend error: create task: boom\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestEditCommand(t *testing.T) {
	f := newFixture(t, "Buy milk", "Call mom")

	_, stderr, code := run(t, &commands.EditCmd{}, f.env, []string{"--title", "Call dad", "2"}, false)
	if code != exitcode.Success {
		t.Fatalf("expected success, got %d: %s", code, stderr)
	}
	if got := taskTitle(t, f, "b"); got != "Call dad" {
		t.Errorf("expected renamed task, got %q", got)
	}
	if got := taskTitle(t, f, "a"); got != "Buy milk" {
		t.Errorf("expected other task untouched, got %q", got)
	}
}

func TestEditCommand_ClearDescription(t *testing.T) {
	f := newFixture(t, "Buy milk")

	_, _, code := run(t, &commands.EditCmd{}, f.env, []string{"--description", "", "1"}, false)
	if code != exitcode.Success {
		t.Fatalf("expected success, got %d", code)
	}
	task, _ := f.store.GetTask("a")
	if task.Description == nil || *task.Description != "" {
		t.Errorf("expected empty description set, got %v", task.Description)
	}
}

func TestEditCommand_NoFields(t *testing.T) {
	f := newFixture(t, "Buy milk")

	_, _, code := run(t, &commands.EditCmd{}, f.env, []string{"1"}, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if f.store.Calls["UpdateTask"] != 0 {
		t.Error("expected no update sent")
	}
}

func TestDoneAndUndoCommands(t *testing.T) {
	f := newFixture(t, "Buy milk")

	if _, stderr, code := run(t, &commands.DoneCmd{}, f.env, []string{"1"}, false); code != exitcode.Success {
		t.Fatalf("done failed: %d %s", code, stderr)
	}
	task, _ := f.store.GetTask("a")
	if !task.Completed() {
		t.Fatal("expected task completed")
	}

	if _, stderr, code := run(t, &commands.UndoCmd{}, f.env, []string{"1"}, false); code != exitcode.Success {
		t.Fatalf("undo failed: %d %s", code, stderr)
	}
	task, _ = f.store.GetTask("a")
	if task.Completed() {
		t.Error("expected completion cleared")
	}
}

func TestDoneCommand_AlreadyCompleted(t *testing.T) {
	f := newFixture(t, "Buy milk")
	now := time.Now()
	if _, err := f.env.Tasks.UpdateTask(context.Background(), f.env.Session, service.UpdateTask{ID: "a", CompletedAt: &now}); err != nil {
		t.Fatal(err)
	}
	before := f.store.Calls["UpdateTask"]

	stdout, _, code := run(t, &commands.DoneCmd{}, f.env, []string{"1"}, false)
	if code != exitcode.Success || stdout != "ok\n" {
		t.Errorf("expected ok, got %q (code %d)", stdout, code)
	}
	if f.store.Calls["UpdateTask"] != before {
		t.Error("expected no update for completed task")
	}
}

func TestDoneCommand_OutOfRange(t *testing.T) {
	f := newFixture(t, "Buy milk")

	_, stderr, code := run(t, &commands.DoneCmd{}, f.env, []string{"5"}, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task number out of range: 5\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestSubCommand(t *testing.T) {
	f := newFixture(t, "Plan trip")

	if _, stderr, code := run(t, &commands.SubCmd{}, f.env, []string{"1", "Book", "flights"}, false); code != exitcode.Success {
		t.Fatalf("sub failed: %d %s", code, stderr)
	}
	task, _ := f.store.GetTask("a")
	if len(task.Subtasks) != 1 || task.Subtasks[0].Title != "Book flights" || task.Subtasks[0].ID == "" {
		t.Fatalf("unexpected subtasks: %+v", task.Subtasks)
	}

	if _, stderr, code := run(t, &commands.SubCmd{}, f.env, []string{"--toggle", "1", "1"}, false); code != exitcode.Success {
		t.Fatalf("toggle failed: %d %s", code, stderr)
	}
	task, _ = f.store.GetTask("a")
	if !task.Subtasks[0].Done {
		t.Error("expected subtask done")
	}
}

func TestSubCommand_Errors(t *testing.T) {
	f := newFixture(t, "Plan trip")

	tests := []struct {
		name    string
		argv    []string
		wantErr string
	}{
		{"no title", []string{"1"}, "error: title required\n"},
		{"toggle out of range", []string{"--toggle", "3", "1"}, "error: subtask number out of range: 3\n"},
		{"toggle with title", []string{"--toggle", "1", "1", "extra"}, "error: cannot use both --toggle and a title\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := run(t, &commands.SubCmd{}, f.env, tt.argv, false)
			if code != exitcode.UserError {
				t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
			}
			if stderr != tt.wantErr {
				t.Errorf("expected %q, got %q", tt.wantErr, stderr)
			}
		})
	}
}

func TestRmCommand_Renumbers(t *testing.T) {
	f := newFixture(t, "one", "two", "three")

	if _, stderr, code := run(t, &commands.RmCmd{}, f.env, []string{"2"}, false); code != exitcode.Success {
		t.Fatalf("rm failed: %d %s", code, stderr)
	}

	acct, _ := f.store.GetAccount("sub-1")
	if len(acct.Tasks) != 2 {
		t.Fatalf("expected 2 projections, got %+v", acct.Tasks)
	}
	for i, want := range []string{"a", "c"} {
		if acct.Tasks[i].TaskID != want || acct.Tasks[i].Position != i {
			t.Errorf("entry %d: got %+v", i, acct.Tasks[i])
		}
	}
	if len(f.reminders.Deleted) != 1 || f.reminders.Deleted[0] != "b" {
		t.Errorf("expected reminder cleanup for b, got %v", f.reminders.Deleted)
	}

	stdout, _, _ := run(t, &commands.ListCmd{}, f.env, nil, false)
	if stdout != "   1  [ ] one\n   2  [ ] three\n" {
		t.Errorf("unexpected list after rm: %q", stdout)
	}
}

func TestRmCommand_DeleteFails(t *testing.T) {
	f := newFixture(t, "one")
	f.store.DeleteTaskErr = errors.New("timeout")

	_, _, code := run(t, &commands.RmCmd{}, f.env, []string{"1"}, false)
	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if len(f.reminders.Deleted) != 0 {
		t.Error("expected no reminder cleanup when delete fails")
	}
}

func TestClearCommand(t *testing.T) {
	f := newFixture(t, "one", "two")

	_, stderr, code := run(t, &commands.ClearCmd{}, f.env, nil, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: 2 tasks would be deleted (use --force)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}

	if _, stderr, code := run(t, &commands.ClearCmd{}, f.env, []string{"--force"}, false); code != exitcode.Success {
		t.Fatalf("clear failed: %d %s", code, stderr)
	}
	acct, _ := f.store.GetAccount("sub-1")
	if len(acct.Tasks) != 0 {
		t.Errorf("expected no projections, got %+v", acct.Tasks)
	}
	if _, ok := f.store.GetTask("a"); ok {
		t.Error("expected tasks deleted")
	}
}

func TestClearCommand_EmptyNeedsNoForce(t *testing.T) {
	f := newFixture(t)

	stdout, _, code := run(t, &commands.ClearCmd{}, f.env, nil, false)
	if code != exitcode.Success || stdout != "ok\n" {
		t.Errorf("expected ok, got %q (code %d)", stdout, code)
	}
}

func TestRemindCommand(t *testing.T) {
	f := newFixture(t, "Buy milk")

	if _, stderr, code := run(t, &commands.RemindCmd{}, f.env, []string{"1", "2026-01-02T15:04:05Z"}, false); code != exitcode.Success {
		t.Fatalf("remind failed: %d %s", code, stderr)
	}
	reminders, _ := f.reminders.ListReminders(context.Background(), "a")
	if len(reminders) != 1 || reminders[0].Title != "Buy milk" {
		t.Fatalf("unexpected reminders: %+v", reminders)
	}
	if !reminders[0].Due.Equal(time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)) {
		t.Errorf("unexpected due %v", reminders[0].Due)
	}

	stdout, _, code := run(t, &commands.RemindCmd{}, f.env, []string{"1"}, false)
	if code != exitcode.Success || !strings.Contains(stdout, "Buy milk") {
		t.Errorf("expected reminder listed, got %q (code %d)", stdout, code)
	}
}

func TestRemindCommand_NoReminders(t *testing.T) {
	f := newFixture(t, "Buy milk")

	stdout, _, code := run(t, &commands.RemindCmd{}, f.env, []string{"1"}, false)
	if code != exitcode.Success || stdout != "no reminders\n" {
		t.Errorf("expected 'no reminders', got %q (code %d)", stdout, code)
	}
}

func TestRemindCommand_InvalidTime(t *testing.T) {
	f := newFixture(t, "Buy milk")

	_, stderr, code := run(t, &commands.RemindCmd{}, f.env, []string{"1", "soon"}, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: invalid reminder time: soon\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestRemindCommand_Disabled(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddAccount(service.Account{Sub: "sub-1", Email: "e@example.com", Name: "Eve", Username: "eve"})
	store.AddTask(service.Task{ID: "a", Title: "Buy milk", Owner: "sub-1"})
	log, _ := test.NewNullLogger()
	env, err := commands.NewEnv(context.Background(), store, nil, identity.Identity{Sub: "sub-1", Email: "e@example.com", Name: "Eve", Username: "eve"}, log)
	if err != nil {
		t.Fatal(err)
	}

	_, stderr, code := run(t, &commands.RemindCmd{}, env, []string{"1", "1h"}, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr, "reminders not configured") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestParseReminderTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2026-03-02T09:30:00Z", time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC), false},
		{"90m", now.Add(90 * time.Minute), false},
		{"2026-03-05", time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), false},
		{"-1h", time.Time{}, true},
		{"tomorrow", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := commands.ParseReminderTime(tt.in, now)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestWhoamiCommand(t *testing.T) {
	f := newFixture(t, "Buy milk")

	stdout, _, code := run(t, &commands.WhoamiCmd{}, f.env, nil, false)
	if code != exitcode.Success {
		t.Fatalf("expected success, got %d", code)
	}
	for _, want := range []string{"username: eve\n", "email:    eve@example.com\n", "tasks:    1\n"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in %q", want, stdout)
		}
	}
}

func TestNewEnv_CreatesAccount(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddTask(service.Task{ID: "a", Title: "Mine", Owner: "sub-9"})
	log, _ := test.NewNullLogger()

	env, err := commands.NewEnv(context.Background(), store, nil, identity.Identity{Sub: "sub-9", Email: "n@example.com", Name: "Nia", Username: "nia"}, log)
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}
	acct, ok := store.GetAccount("sub-9")
	if !ok {
		t.Fatal("expected account created")
	}
	if len(acct.Tasks) != 1 || acct.Tasks[0].TaskID != "a" {
		t.Errorf("expected reconciled projection, got %+v", acct.Tasks)
	}
	if env.Reminders == nil {
		t.Error("expected reminders fallback")
	}
}

func TestNewEnv_MissingIdentityField(t *testing.T) {
	store := testutil.NewFakeStore()

	_, err := commands.NewEnv(context.Background(), store, nil, identity.Identity{Sub: "sub-9"}, nil)
	if exitcode.FromError(err) != exitcode.AuthError {
		t.Errorf("expected auth error, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := commands.NewRegistry()
	if err := r.Register(&commands.RmCmd{}); err != nil {
		t.Fatal(err)
	}
	if cmd, ok := r.Find("delete"); !ok || cmd.Name() != "rm" {
		t.Error("expected alias lookup")
	}
	if err := r.Register(&commands.RmCmd{}); !errors.Is(err, commands.ErrDuplicateCommand) {
		t.Errorf("expected ErrDuplicateCommand, got %v", err)
	}
	if len(r.All()) != 1 {
		t.Errorf("expected 1 unique command, got %d", len(r.All()))
	}
}

func TestDefaultRegistry_Commands(t *testing.T) {
	var names []string
	for _, cmd := range commands.DefaultRegistry.All() {
		names = append(names, cmd.Name())
	}
	want := "add clear done edit help list login logout remind rm serve sub undo version whoami"
	if got := strings.Join(names, " "); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
