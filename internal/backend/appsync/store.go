// Package appsync implements service.Store on top of the managed GraphQL API.
package appsync

import (
	"context"
	"fmt"

	"taskdeck/internal/graphql"
	"taskdeck/internal/service"
)

// PageSize is the number of records requested per list page.
const PageSize = 100

// Store implements service.Store using a graphql.Executor.
type Store struct {
	gql graphql.Executor
}

// New creates a Store.
func New(gql graphql.Executor) *Store {
	return &Store{gql: gql}
}

type page[T any] struct {
	Items     []T     `json:"items"`
	NextToken *string `json:"nextToken"`
}

// ListAccounts implements service.Store.
func (s *Store) ListAccounts(ctx context.Context) ([]service.Account, error) {
	var result []service.Account
	var token *string
	for {
		var out struct {
			ListAccounts *page[service.Account] `json:"listAccounts"`
		}
		if err := s.execute(ctx, opListAccounts, pageVars(token), &out); err != nil {
			return nil, err
		}
		if out.ListAccounts == nil {
			return result, nil
		}
		result = append(result, out.ListAccounts.Items...)
		token = out.ListAccounts.NextToken
		if token == nil || *token == "" {
			return result, nil
		}
	}
}

// CreateAccount implements service.Store.
func (s *Store) CreateAccount(ctx context.Context, account service.Account) (*service.Account, error) {
	if account.Tasks == nil {
		account.Tasks = []service.AccountTask{}
	}
	var out struct {
		CreateAccount *service.Account `json:"createAccount"`
	}
	if err := s.execute(ctx, opCreateAccount, map[string]interface{}{"input": account}, &out); err != nil {
		return nil, err
	}
	if out.CreateAccount == nil {
		return nil, missing(opCreateAccount, "createAccount")
	}
	return out.CreateAccount, nil
}

// UpdateAccount implements service.Store.
func (s *Store) UpdateAccount(ctx context.Context, cmd service.UpdateAccount) (*service.Account, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	var out struct {
		UpdateAccount *service.Account `json:"updateAccount"`
	}
	if err := s.execute(ctx, opUpdateAccount, map[string]interface{}{"input": cmd.Input()}, &out); err != nil {
		return nil, err
	}
	if out.UpdateAccount == nil {
		return nil, missing(opUpdateAccount, "updateAccount")
	}
	return out.UpdateAccount, nil
}

// AddAccountTasks implements service.Store.
func (s *Store) AddAccountTasks(ctx context.Context, sub string, entries []service.AccountTask) (*service.Account, error) {
	var out struct {
		AddAccountTasks *service.Account `json:"addAccountTasks"`
	}
	vars := map[string]interface{}{"sub": sub, "tasks": entries}
	if err := s.execute(ctx, opAddAccountTasks, vars, &out); err != nil {
		return nil, err
	}
	if out.AddAccountTasks == nil {
		return nil, missing(opAddAccountTasks, "addAccountTasks")
	}
	return out.AddAccountTasks, nil
}

// RemoveAccountTask implements service.Store.
func (s *Store) RemoveAccountTask(ctx context.Context, sub, taskID string) (*service.Account, error) {
	var out struct {
		RemoveAccountTask *service.Account `json:"removeAccountTask"`
	}
	vars := map[string]interface{}{"sub": sub, "taskId": taskID}
	if err := s.execute(ctx, opRemoveAccountTask, vars, &out); err != nil {
		return nil, err
	}
	if out.RemoveAccountTask == nil {
		return nil, missing(opRemoveAccountTask, "removeAccountTask")
	}
	return out.RemoveAccountTask, nil
}

// ListTasks implements service.Store.
func (s *Store) ListTasks(ctx context.Context) ([]service.Task, error) {
	var result []service.Task
	var token *string
	for {
		var out struct {
			ListTasks *page[service.Task] `json:"listTasks"`
		}
		if err := s.execute(ctx, opListTasks, pageVars(token), &out); err != nil {
			return nil, err
		}
		if out.ListTasks == nil {
			return result, nil
		}
		result = append(result, out.ListTasks.Items...)
		token = out.ListTasks.NextToken
		if token == nil || *token == "" {
			return result, nil
		}
	}
}

// CreateTask implements service.Store.
func (s *Store) CreateTask(ctx context.Context, task service.Task) (*service.Task, error) {
	if task.Subtasks == nil {
		task.Subtasks = []service.Subtask{}
	}
	var out struct {
		CreateTask *service.Task `json:"createTask"`
	}
	if err := s.execute(ctx, opCreateTask, map[string]interface{}{"input": task}, &out); err != nil {
		return nil, err
	}
	if out.CreateTask == nil {
		return nil, missing(opCreateTask, "createTask")
	}
	return out.CreateTask, nil
}

// UpdateTask implements service.Store.
func (s *Store) UpdateTask(ctx context.Context, cmd service.UpdateTask) (*service.Task, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	var out struct {
		UpdateTask *service.Task `json:"updateTask"`
	}
	if err := s.execute(ctx, opUpdateTask, map[string]interface{}{"input": cmd.Input()}, &out); err != nil {
		return nil, err
	}
	if out.UpdateTask == nil {
		return nil, missing(opUpdateTask, "updateTask")
	}
	return out.UpdateTask, nil
}

// DeleteTask implements service.Store.
func (s *Store) DeleteTask(ctx context.Context, taskID string) (string, error) {
	var out struct {
		DeleteTask *struct {
			ID string `json:"id"`
		} `json:"deleteTask"`
	}
	vars := map[string]interface{}{"input": map[string]interface{}{"id": taskID}}
	if err := s.execute(ctx, opDeleteTask, vars, &out); err != nil {
		return "", err
	}
	if out.DeleteTask == nil || out.DeleteTask.ID == "" {
		return "", missing(opDeleteTask, "deleteTask")
	}
	return out.DeleteTask.ID, nil
}

// execute runs op. A non-empty errors array fails the call.
func (s *Store) execute(ctx context.Context, op graphql.Operation, vars map[string]interface{}, out interface{}) error {
	res, err := s.gql.Execute(ctx, op, vars)
	if err != nil {
		return err
	}
	if res.HasErrors() {
		return &service.GraphQLError{Operation: op.Name, Messages: res.Messages()}
	}
	if err := res.Decode(out); err != nil {
		return fmt.Errorf("%s: decode data: %w", op.Name, err)
	}
	return nil
}

func pageVars(token *string) map[string]interface{} {
	vars := map[string]interface{}{"limit": PageSize}
	if token != nil {
		vars["nextToken"] = *token
	}
	return vars
}

func missing(op graphql.Operation, field string) error {
	return fmt.Errorf("%s: response has no %s: %w", op.Name, field, service.ErrProtocol)
}
