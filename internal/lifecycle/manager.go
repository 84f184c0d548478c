// Package lifecycle creates, updates and deletes tasks while keeping the
// account's task projections in step.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"taskdeck/internal/logging"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
)

// PlaceholderTitle is the title given to newly created tasks.
const PlaceholderTitle = "New task"

// ReminderCleaner cancels scheduled reminders for a deleted task.
type ReminderCleaner interface {
	DeleteReminderSchedules(ctx context.Context, taskID string) error
}

// Manager runs task mutations against the store and the session.
type Manager struct {
	store     service.Store
	reminders ReminderCleaner
	log       logrus.FieldLogger
	newID     func() string
}

// NewManager creates a Manager. A nil reminders uses service.NoopReminders;
// a nil logger uses logging.Logger.
func NewManager(store service.Store, reminders ReminderCleaner, log logrus.FieldLogger) *Manager {
	if reminders == nil {
		reminders = service.NoopReminders{}
	}
	if log == nil {
		log = logging.Logger
	}
	return &Manager{
		store:     store,
		reminders: reminders,
		log:       log,
		newID:     uuid.NewString,
	}
}

// CreateTask creates a placeholder task and appends one projection for it
// to the account.
//
// The task and its projection are written in two calls. If the second
// fails the session is marked stale and the next refresh adds the
// missing projection.
func (m *Manager) CreateTask(ctx context.Context, sess *session.Session) (*service.Task, error) {
	acct, err := sess.RequireAccount()
	if err != nil {
		return nil, err
	}

	created, err := m.store.CreateTask(ctx, service.Task{
		ID:       m.newID(),
		Title:    PlaceholderTitle,
		Owner:    sess.Identity().Sub,
		Subtasks: []service.Subtask{},
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("create task: %w", service.ErrProtocol)
	}
	sess.AddTask(*created)

	entry := service.AccountTask{
		TaskID:     created.ID,
		Permission: service.PermissionFull,
		Position:   len(acct.Tasks),
	}
	if _, err := m.store.AddAccountTasks(ctx, acct.Sub, []service.AccountTask{entry}); err != nil {
		sess.MarkStale()
		return nil, fmt.Errorf("add task %s to account: %w", created.ID, err)
	}
	sess.AppendAccountTask(entry)

	m.log.WithField("task_id", created.ID).Debug("Event ID: TASK_CREATED, Description: task created")
	return created, nil
}

// UpdateTask applies a partial update and merges it into the session copy.
func (m *Manager) UpdateTask(ctx context.Context, sess *session.Session, cmd service.UpdateTask) (*service.Task, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	updated, err := m.store.UpdateTask(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", cmd.ID, err)
	}
	if updated == nil {
		return nil, fmt.Errorf("update task %s: %w", cmd.ID, service.ErrProtocol)
	}

	// The returned record is authoritative and may differ from the command.
	merged := *updated
	sess.PutTask(merged)
	return &merged, nil
}

// DeleteTask deletes a task, removes its projection and closes the gap in
// positions. When alsoUpdateAccount is false the account list is only
// changed in the session. Reminder cleanup runs once the task is deleted,
// whatever happens to the account write.
func (m *Manager) DeleteTask(ctx context.Context, sess *session.Session, taskID string, alsoUpdateAccount bool) (string, error) {
	acct, err := sess.RequireAccount()
	if err != nil {
		return "", err
	}

	if _, err := m.store.DeleteTask(ctx, taskID); err != nil {
		return "", fmt.Errorf("delete task %s: %w", taskID, err)
	}
	defer m.cleanupReminders(ctx, taskID)

	sess.RemoveTask(taskID)

	entries := sess.AccountTasks()
	idx := indexOf(entries, taskID)
	if idx < 0 {
		m.log.WithFields(logrus.Fields{"task_id": taskID, "sub": acct.Sub}).
			Warn("Event ID: ACCOUNT_TASK_MISSING, Description: deleted task has no projection on the account")
		sess.MarkStale()
		if alsoUpdateAccount {
			if _, err := m.store.RemoveAccountTask(ctx, acct.Sub, taskID); err != nil {
				return "", fmt.Errorf("remove task %s from account: %w", taskID, err)
			}
		}
		return taskID, nil
	}

	remaining := RemoveAt(entries, idx)
	sess.SetAccountTasks(remaining)

	if alsoUpdateAccount {
		if _, err := m.store.UpdateAccount(ctx, service.ReplaceTasks(acct.Sub, remaining)); err != nil {
			sess.MarkStale()
			return "", fmt.Errorf("update account tasks: %w", err)
		}
	}
	return taskID, nil
}

// DeleteAllTasks deletes every task on the account one at a time, then
// clears the account list with a single write.
func (m *Manager) DeleteAllTasks(ctx context.Context, sess *session.Session) error {
	acct, err := sess.RequireAccount()
	if err != nil {
		return err
	}

	for _, entry := range acct.Tasks {
		if _, err := m.DeleteTask(ctx, sess, entry.TaskID, false); err != nil {
			sess.MarkStale()
			return err
		}
	}

	if _, err := m.store.UpdateAccount(ctx, service.ReplaceTasks(acct.Sub, nil)); err != nil {
		sess.MarkStale()
		return fmt.Errorf("clear account tasks: %w", err)
	}
	sess.SetAccountTasks(nil)
	return nil
}

func (m *Manager) cleanupReminders(ctx context.Context, taskID string) {
	if err := m.reminders.DeleteReminderSchedules(ctx, taskID); err != nil {
		m.log.WithField("task_id", taskID).Warnf("Event ID: REMINDER_CLEANUP_FAILED, Description: %v", err)
	}
}

// RemoveAt drops entries[idx] and shifts every entry positioned after it
// down by one.
func RemoveAt(entries []service.AccountTask, idx int) []service.AccountTask {
	removed := entries[idx].Position
	result := make([]service.AccountTask, 0, len(entries)-1)
	for i, e := range entries {
		if i == idx {
			continue
		}
		if e.Position > removed {
			e.Position--
		}
		result = append(result, e)
	}
	return result
}

func indexOf(entries []service.AccountTask, taskID string) int {
	for i, e := range entries {
		if e.TaskID == taskID {
			return i
		}
	}
	return -1
}
