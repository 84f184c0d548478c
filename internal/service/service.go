package service

import "context"

// Store is the remote record store for accounts and tasks.
// All GraphQL calls go through this interface.
// Reconciliation and lifecycle code never import the gateway directly.
type Store interface {
	// ListAccounts returns every account visible to the caller.
	ListAccounts(ctx context.Context) ([]Account, error)

	// CreateAccount creates an account and returns the stored record.
	CreateAccount(ctx context.Context, account Account) (*Account, error)

	// UpdateAccount applies a partial account update.
	UpdateAccount(ctx context.Context, cmd UpdateAccount) (*Account, error)

	// AddAccountTasks appends entries to an account's task list
	// without touching existing entries.
	AddAccountTasks(ctx context.Context, sub string, entries []AccountTask) (*Account, error)

	// RemoveAccountTask removes the entry for taskID from an account's task list.
	RemoveAccountTask(ctx context.Context, sub, taskID string) (*Account, error)

	// ListTasks returns every task visible to the caller.
	ListTasks(ctx context.Context) ([]Task, error)

	// CreateTask creates a task and returns the stored record.
	CreateTask(ctx context.Context, task Task) (*Task, error)

	// UpdateTask applies a partial task update and returns the stored record.
	UpdateTask(ctx context.Context, cmd UpdateTask) (*Task, error)

	// DeleteTask deletes a task and returns its id.
	DeleteTask(ctx context.Context, taskID string) (string, error)
}

// Reminders schedules and cancels task reminders.
type Reminders interface {
	// ScheduleReminder creates a reminder entry for a task.
	ScheduleReminder(ctx context.Context, r Reminder) error

	// ListReminders returns pending reminders for a task.
	ListReminders(ctx context.Context, taskID string) ([]Reminder, error)

	// DeleteReminderSchedules cancels every pending reminder for a task.
	DeleteReminderSchedules(ctx context.Context, taskID string) error
}

// NoopReminders is used when no reminder backend is configured.
type NoopReminders struct{}

func (NoopReminders) ScheduleReminder(ctx context.Context, r Reminder) error {
	return ErrRemindersDisabled
}

func (NoopReminders) ListReminders(ctx context.Context, taskID string) ([]Reminder, error) {
	return nil, nil
}

func (NoopReminders) DeleteReminderSchedules(ctx context.Context, taskID string) error {
	return nil
}
