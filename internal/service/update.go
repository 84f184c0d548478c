package service

import (
	"fmt"
	"time"
)

// UpdateTask is a partial task update. A nil field is left untouched.
type UpdateTask struct {
	ID          string
	Title       *string
	Description *string
	CompletedAt *time.Time
	// ClearCompleted resets the completion timestamp. It cannot be
	// combined with CompletedAt.
	ClearCompleted bool
	Subtasks       *[]Subtask
}

// Validate checks that the command names a task and sets at least one
// legal field.
func (u UpdateTask) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("%w: task id required", ErrInvalidUpdate)
	}
	if u.CompletedAt != nil && u.ClearCompleted {
		return fmt.Errorf("%w: completedAt set and cleared", ErrInvalidUpdate)
	}
	if u.Title == nil && u.Description == nil && u.CompletedAt == nil && !u.ClearCompleted && u.Subtasks == nil {
		return fmt.Errorf("%w: no fields to update", ErrInvalidUpdate)
	}
	return nil
}

// Apply merges the set fields into t.
func (u UpdateTask) Apply(t *Task) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		d := *u.Description
		t.Description = &d
	}
	if u.CompletedAt != nil {
		at := *u.CompletedAt
		t.CompletedAt = &at
	}
	if u.ClearCompleted {
		t.CompletedAt = nil
	}
	if u.Subtasks != nil {
		t.Subtasks = append([]Subtask{}, (*u.Subtasks)...)
	}
}

// Input returns the GraphQL input object holding only the set fields.
func (u UpdateTask) Input() map[string]any {
	in := map[string]any{"id": u.ID}
	if u.Title != nil {
		in["title"] = *u.Title
	}
	if u.Description != nil {
		in["description"] = *u.Description
	}
	if u.CompletedAt != nil {
		in["completedAt"] = u.CompletedAt.UTC().Format(time.RFC3339)
	}
	if u.ClearCompleted {
		in["completedAt"] = nil
	}
	if u.Subtasks != nil {
		subs := *u.Subtasks
		if subs == nil {
			subs = []Subtask{}
		}
		in["subtasks"] = subs
	}
	return in
}

// UpdateAccount is a partial account update. A nil field is left untouched.
type UpdateAccount struct {
	Sub   string
	Admin *bool
	// Tasks replaces the whole task list when non-nil.
	Tasks *[]AccountTask
}

// SetAdmin returns an update that only changes the admin flag.
func SetAdmin(sub string, admin bool) UpdateAccount {
	return UpdateAccount{Sub: sub, Admin: &admin}
}

// ReplaceTasks returns an update that only replaces the task list.
func ReplaceTasks(sub string, entries []AccountTask) UpdateAccount {
	list := append([]AccountTask{}, entries...)
	return UpdateAccount{Sub: sub, Tasks: &list}
}

// Validate checks that the command names an account and sets at least
// one field.
func (u UpdateAccount) Validate() error {
	if u.Sub == "" {
		return fmt.Errorf("%w: account sub required", ErrInvalidUpdate)
	}
	if u.Admin == nil && u.Tasks == nil {
		return fmt.Errorf("%w: no fields to update", ErrInvalidUpdate)
	}
	return nil
}

// Apply merges the set fields into a.
func (u UpdateAccount) Apply(a *Account) {
	if u.Admin != nil {
		a.Admin = *u.Admin
	}
	if u.Tasks != nil {
		a.Tasks = append([]AccountTask{}, (*u.Tasks)...)
	}
}

// Input returns the GraphQL input object holding only the set fields.
func (u UpdateAccount) Input() map[string]any {
	in := map[string]any{"sub": u.Sub}
	if u.Admin != nil {
		in["isAdmin"] = *u.Admin
	}
	if u.Tasks != nil {
		in["tasks"] = append([]AccountTask{}, (*u.Tasks)...)
	}
	return in
}
