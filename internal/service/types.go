// Package service defines the backend-agnostic domain types and interfaces.
package service

import "time"

// PermissionFull grants full control over a task within an account.
const PermissionFull = 1

// Subtask is an ordered child item of a Task.
type Subtask struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// Task is the authoritative to-do record.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Owner       string     `json:"owner"`
	Subtasks    []Subtask  `json:"subtasks"`
}

// Completed reports whether the task has a completion timestamp.
func (t Task) Completed() bool {
	return t.CompletedAt != nil
}

// AccountTask is an account's projection of a task: a reference,
// a permission level and a display position.
type AccountTask struct {
	TaskID     string `json:"taskId"`
	Permission int    `json:"permission"`
	Position   int    `json:"position"`
}

// Account is the per-identity application record.
type Account struct {
	Sub      string        `json:"sub"`
	Email    string        `json:"email"`
	Username string        `json:"username"`
	Name     string        `json:"name"`
	Admin    bool          `json:"isAdmin"`
	Tasks    []AccountTask `json:"tasks"`
}

// Reminder is a scheduled alert for a task.
type Reminder struct {
	ID     string // backend id of the scheduled entry
	TaskID string
	Title  string
	Due    time.Time
}
