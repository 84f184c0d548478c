// Package session holds the state of one signed-in user: the identity,
// the account record and the in-memory task set.
//
// A Session is owned by a single caller and is not safe for concurrent use.
package session

import (
	"sort"

	"taskdeck/internal/identity"
	"taskdeck/internal/service"
)

// Session is the explicit context passed to reconciler and lifecycle
// operations.
type Session struct {
	identity identity.Identity
	account  *service.Account
	tasks    []service.Task
	// stale is set when the projection list may no longer match the
	// authoritative tasks and must be recomputed.
	stale bool
}

// New creates a session for an identity with no account loaded.
func New(id identity.Identity) *Session {
	return &Session{identity: id, stale: true}
}

// Identity returns the signed-in identity.
func (s *Session) Identity() identity.Identity {
	return s.identity
}

// Account returns a copy of the loaded account, or nil.
func (s *Session) Account() *service.Account {
	if s.account == nil {
		return nil
	}
	a := *s.account
	a.Tasks = append([]service.AccountTask{}, s.account.Tasks...)
	return &a
}

// RequireAccount returns the loaded account or ErrNoAccount.
func (s *Session) RequireAccount() (*service.Account, error) {
	if s.account == nil {
		return nil, service.ErrNoAccount
	}
	return s.Account(), nil
}

// SetAccount replaces the loaded account.
func (s *Session) SetAccount(a *service.Account) {
	if a == nil {
		s.account = nil
		return
	}
	cp := *a
	cp.Tasks = append([]service.AccountTask{}, a.Tasks...)
	s.account = &cp
}

// AccountTasks returns a copy of the account's projection list.
func (s *Session) AccountTasks() []service.AccountTask {
	if s.account == nil {
		return nil
	}
	return append([]service.AccountTask{}, s.account.Tasks...)
}

// SetAccountTasks replaces the account's projection list.
func (s *Session) SetAccountTasks(entries []service.AccountTask) {
	if s.account == nil {
		return
	}
	s.account.Tasks = append([]service.AccountTask{}, entries...)
}

// AppendAccountTask appends one projection.
func (s *Session) AppendAccountTask(entry service.AccountTask) {
	if s.account == nil {
		return
	}
	s.account.Tasks = append(s.account.Tasks, entry)
}

// Tasks returns a copy of the in-memory task set.
func (s *Session) Tasks() []service.Task {
	return append([]service.Task{}, s.tasks...)
}

// SetTasks replaces the in-memory task set.
func (s *Session) SetTasks(tasks []service.Task) {
	s.tasks = append([]service.Task{}, tasks...)
}

// Task looks up a task by id.
func (s *Session) Task(id string) (service.Task, bool) {
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// AddTask appends a task to the in-memory set.
func (s *Session) AddTask(t service.Task) {
	s.tasks = append(s.tasks, t)
}

// PutTask replaces the task with the same id, or appends it.
func (s *Session) PutTask(t service.Task) {
	for i := range s.tasks {
		if s.tasks[i].ID == t.ID {
			s.tasks[i] = t
				return
		}
	}
	s.AddTask(t)
}

// RemoveTask drops a task from the in-memory set. It reports whether the
// task was present.
func (s *Session) RemoveTask(id string) bool {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
				return true
		}
	}
	return false
}

// Ordered returns tasks in the account's display order. Tasks with no
// projection follow in task-set order.
func (s *Session) Ordered() []service.Task {
	entries := s.AccountTasks()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Position < entries[j].Position
	})

	byID := make(map[string]service.Task, len(s.tasks))
	for _, t := range s.tasks {
		byID[t.ID] = t
	}

	result := make([]service.Task, 0, len(s.tasks))
	seen := make(map[string]bool, len(s.tasks))
	for _, e := range entries {
		if t, ok := byID[e.TaskID]; ok && !seen[t.ID] {
			result = append(result, t)
			seen[t.ID] = true
		}
	}
	for _, t := range s.tasks {
		if !seen[t.ID] {
			result = append(result, t)
		}
	}
	return result
}

// Stale reports whether projections must be recomputed.
func (s *Session) Stale() bool {
	return s.stale
}

// MarkStale flags the projection view for recomputation.
func (s *Session) MarkStale() {
	s.stale = true
}

// MarkClean records that projections match the task set.
func (s *Session) MarkClean() {
	s.stale = false
}
