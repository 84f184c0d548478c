// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"sync"

	"taskdeck/internal/service"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("not found")

// FakeStore is an in-memory implementation of service.Store for testing.
type FakeStore struct {
	mu       sync.RWMutex
	accounts []service.Account
	tasks    []service.Task

	// Calls counts invocations per method name.
	Calls map[string]int
	// AccountUpdates records every UpdateAccount command in order.
	AccountUpdates []service.UpdateAccount
	// AddedEntries records every AddAccountTasks batch in order.
	AddedEntries [][]service.AccountTask

	// Error injection for testing
	ListAccountsErr      error
	CreateAccountErr     error
	UpdateAccountErr     error
	AddAccountTasksErr   error
	RemoveAccountTaskErr error
	ListTasksErr         error
	CreateTaskErr        error
	UpdateTaskErr        error
	DeleteTaskErr        error

	// DropRecords makes create/update return no record, as a backend
	// violating the protocol would.
	DropRecords bool
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{Calls: make(map[string]int)}
}

// AddAccount seeds an account.
func (f *FakeStore) AddAccount(a service.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts = append(f.accounts, cloneAccount(a))
}

// AddTask seeds a task.
func (f *FakeStore) AddTask(t service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, t)
}

// GetAccount returns the stored account for sub.
func (f *FakeStore) GetAccount(sub string) (service.Account, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, a := range f.accounts {
		if a.Sub == sub {
			return cloneAccount(a), true
		}
	}
	return service.Account{}, false
}

// GetTask returns the stored task for id.
func (f *FakeStore) GetTask(id string) (service.Task, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// Writes returns the number of account write calls.
func (f *FakeStore) Writes() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.Calls["UpdateAccount"] + f.Calls["AddAccountTasks"] + f.Calls["RemoveAccountTask"]
}

// ListAccounts implements service.Store.
func (f *FakeStore) ListAccounts(ctx context.Context) ([]service.Account, error) {
	f.count("ListAccounts")
	if f.ListAccountsErr != nil {
		return nil, f.ListAccountsErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.Account, len(f.accounts))
	for i, a := range f.accounts {
		result[i] = cloneAccount(a)
	}
	return result, nil
}

// CreateAccount implements service.Store.
func (f *FakeStore) CreateAccount(ctx context.Context, account service.Account) (*service.Account, error) {
	f.count("CreateAccount")
	if f.CreateAccountErr != nil {
		return nil, f.CreateAccountErr
	}
	if f.DropRecords {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts = append(f.accounts, cloneAccount(account))
	created := cloneAccount(account)
	return &created, nil
}

// UpdateAccount implements service.Store.
func (f *FakeStore) UpdateAccount(ctx context.Context, cmd service.UpdateAccount) (*service.Account, error) {
	f.count("UpdateAccount")
	if f.UpdateAccountErr != nil {
		return nil, f.UpdateAccountErr
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AccountUpdates = append(f.AccountUpdates, cmd)
	for i := range f.accounts {
		if f.accounts[i].Sub == cmd.Sub {
			cmd.Apply(&f.accounts[i])
			updated := cloneAccount(f.accounts[i])
			return &updated, nil
		}
	}
	return nil, ErrNotFound
}

// AddAccountTasks implements service.Store.
func (f *FakeStore) AddAccountTasks(ctx context.Context, sub string, entries []service.AccountTask) (*service.Account, error) {
	f.count("AddAccountTasks")
	if f.AddAccountTasksErr != nil {
		return nil, f.AddAccountTasksErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AddedEntries = append(f.AddedEntries, append([]service.AccountTask{}, entries...))
	for i := range f.accounts {
		if f.accounts[i].Sub == sub {
			f.accounts[i].Tasks = append(f.accounts[i].Tasks, entries...)
			updated := cloneAccount(f.accounts[i])
			return &updated, nil
		}
	}
	return nil, ErrNotFound
}

// RemoveAccountTask implements service.Store.
func (f *FakeStore) RemoveAccountTask(ctx context.Context, sub, taskID string) (*service.Account, error) {
	f.count("RemoveAccountTask")
	if f.RemoveAccountTaskErr != nil {
		return nil, f.RemoveAccountTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.accounts {
		if f.accounts[i].Sub != sub {
			continue
		}
		kept := f.accounts[i].Tasks[:0]
		for _, e := range f.accounts[i].Tasks {
			if e.TaskID != taskID {
				kept = append(kept, e)
			}
		}
		f.accounts[i].Tasks = kept
		updated := cloneAccount(f.accounts[i])
		return &updated, nil
	}
	return nil, ErrNotFound
}

// ListTasks implements service.Store.
func (f *FakeStore) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.count("ListTasks")
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.Task, len(f.tasks))
	copy(result, f.tasks)
	return result, nil
}

// CreateTask implements service.Store.
func (f *FakeStore) CreateTask(ctx context.Context, task service.Task) (*service.Task, error) {
	f.count("CreateTask")
	if f.CreateTaskErr != nil {
		return nil, f.CreateTaskErr
	}
	if f.DropRecords {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
	created := task
	return &created, nil
}

// UpdateTask implements service.Store.
func (f *FakeStore) UpdateTask(ctx context.Context, cmd service.UpdateTask) (*service.Task, error) {
	f.count("UpdateTask")
	if f.UpdateTaskErr != nil {
		return nil, f.UpdateTaskErr
	}
	if f.DropRecords {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == cmd.ID {
			cmd.Apply(&f.tasks[i])
			updated := f.tasks[i]
			return &updated, nil
		}
	}
	return nil, ErrNotFound
}

// DeleteTask implements service.Store. Deleting an unknown id succeeds,
// matching an unconditional delete on the backend.
func (f *FakeStore) DeleteTask(ctx context.Context, taskID string) (string, error) {
	f.count("DeleteTask")
	if f.DeleteTaskErr != nil {
		return "", f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == taskID {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			break
		}
	}
	return taskID, nil
}

func (f *FakeStore) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Calls == nil {
		f.Calls = make(map[string]int)
	}
	f.Calls[name]++
}

func cloneAccount(a service.Account) service.Account {
	a.Tasks = append([]service.AccountTask{}, a.Tasks...)
	return a
}

// FakeReminders is an in-memory implementation of service.Reminders.
type FakeReminders struct {
	mu        sync.Mutex
	reminders []service.Reminder

	// Deleted records task ids passed to DeleteReminderSchedules.
	Deleted []string

	ScheduleErr error
	DeleteErr   error
}

// ScheduleReminder implements service.Reminders.
func (f *FakeReminders) ScheduleReminder(ctx context.Context, r service.Reminder) error {
	if f.ScheduleErr != nil {
		return f.ScheduleErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders = append(f.reminders, r)
	return nil
}

// ListReminders implements service.Reminders.
func (f *FakeReminders) ListReminders(ctx context.Context, taskID string) ([]service.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []service.Reminder
	for _, r := range f.reminders {
		if r.TaskID == taskID {
			result = append(result, r)
		}
	}
	return result, nil
}

// DeleteReminderSchedules implements service.Reminders.
func (f *FakeReminders) DeleteReminderSchedules(ctx context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deleted = append(f.Deleted, taskID)
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	kept := f.reminders[:0]
	for _, r := range f.reminders {
		if r.TaskID != taskID {
			kept = append(kept, r)
		}
	}
	f.reminders = kept
	return nil
}
