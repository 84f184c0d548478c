package appsync

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"taskdeck/internal/graphql"
	"taskdeck/internal/service"
)

type call struct {
	op   string
	vars map[string]interface{}
}

// fakeExecutor replays canned responses in order.
type fakeExecutor struct {
	responses []*graphql.Result
	err       error
	calls     []call
}

func (f *fakeExecutor) Execute(ctx context.Context, op graphql.Operation, vars map[string]interface{}) (*graphql.Result, error) {
	f.calls = append(f.calls, call{op: op.Name, vars: vars})
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return &graphql.Result{}, nil
	}
	res := f.responses[0]
	f.responses = f.responses[1:]
	return res, nil
}

func data(s string) *graphql.Result {
	return &graphql.Result{Data: json.RawMessage(s)}
}

func TestListTasks_FollowsNextToken(t *testing.T) {
	exec := &fakeExecutor{responses: []*graphql.Result{
		data(`{"listTasks":{"items":[{"id":"t1","title":"a","owner":"u","subtasks":[]}],"nextToken":"p2"}}`),
		data(`{"listTasks":{"items":[{"id":"t2","title":"b","owner":"u","subtasks":[{"id":"s1","title":"x","done":true}]}],"nextToken":null}}`),
	}}
	store := New(exec)

	tasks, err := store.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != "t1" || tasks[1].ID != "t2" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
	if !tasks[1].Subtasks[0].Done {
		t.Errorf("expected subtask decoded as done")
	}
	if len(exec.calls) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(exec.calls))
	}
	if _, ok := exec.calls[0].vars["nextToken"]; ok {
		t.Errorf("first page should not send nextToken")
	}
	if exec.calls[1].vars["nextToken"] != "p2" {
		t.Errorf("second page sent %v", exec.calls[1].vars["nextToken"])
	}
}

func TestListAccounts_ErrorsFailRead(t *testing.T) {
	exec := &fakeExecutor{responses: []*graphql.Result{{
		Data:   json.RawMessage(`{"listAccounts":{"items":[{"sub":"u1"}]}}`),
		Errors: []graphql.Error{{Message: "partial failure"}},
	}}}
	store := New(exec)

	_, err := store.ListAccounts(context.Background())
	var gqlErr *service.GraphQLError
	if !errors.As(err, &gqlErr) {
		t.Fatalf("expected GraphQLError, got %v", err)
	}
	if gqlErr.Operation != "ListAccounts" || gqlErr.Messages[0] != "partial failure" {
		t.Errorf("unexpected error: %+v", gqlErr)
	}
}

func TestCreateTask_MissingRecordIsProtocolError(t *testing.T) {
	exec := &fakeExecutor{responses: []*graphql.Result{data(`{"createTask":null}`)}}
	store := New(exec)

	_, err := store.CreateTask(context.Background(), service.Task{ID: "t1", Title: "New task", Owner: "u1"})
	if !errors.Is(err, service.ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
	input := exec.calls[0].vars["input"].(service.Task)
	if input.Subtasks == nil {
		t.Errorf("expected empty subtask list to be sent, got nil")
	}
}

func TestCreateAccount_ReturnsRecord(t *testing.T) {
	exec := &fakeExecutor{responses: []*graphql.Result{
		data(`{"createAccount":{"sub":"u1","email":"a@b.c","username":"ann","name":"Ann","isAdmin":true,"tasks":[]}}`),
	}}
	store := New(exec)

	acct, err := store.CreateAccount(context.Background(), service.Account{Sub: "u1", Admin: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acct.Sub != "u1" || !acct.Admin || acct.Username != "ann" {
		t.Errorf("unexpected account: %+v", acct)
	}
}

func TestUpdateAccount_SendsOnlySetFields(t *testing.T) {
	exec := &fakeExecutor{responses: []*graphql.Result{data(`{"updateAccount":{"sub":"u1","tasks":[]}}`)}}
	store := New(exec)

	if _, err := store.UpdateAccount(context.Background(), service.SetAdmin("u1", false)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	input := exec.calls[0].vars["input"].(map[string]interface{})
	if _, ok := input["tasks"]; ok {
		t.Errorf("tasks should not be sent for an admin-only update: %v", input)
	}
	if input["isAdmin"] != false || input["sub"] != "u1" {
		t.Errorf("unexpected input: %v", input)
	}
}

func TestUpdateTask_InvalidCommandNotSent(t *testing.T) {
	exec := &fakeExecutor{}
	store := New(exec)

	_, err := store.UpdateTask(context.Background(), service.UpdateTask{ID: "t1"})
	if !errors.Is(err, service.ErrInvalidUpdate) {
		t.Fatalf("expected ErrInvalidUpdate, got %v", err)
	}
	if len(exec.calls) != 0 {
		t.Errorf("expected no calls, got %d", len(exec.calls))
	}
}

func TestUpdateTask_ErrorsFailWrite(t *testing.T) {
	title := "renamed"
	exec := &fakeExecutor{responses: []*graphql.Result{{
		Data:   json.RawMessage(`{"updateTask":{"id":"t1","title":"renamed"}}`),
		Errors: []graphql.Error{{Message: "conditional check failed"}},
	}}}
	store := New(exec)

	_, err := store.UpdateTask(context.Background(), service.UpdateTask{ID: "t1", Title: &title})
	var gqlErr *service.GraphQLError
	if !errors.As(err, &gqlErr) {
		t.Fatalf("expected GraphQLError, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	exec := &fakeExecutor{responses: []*graphql.Result{data(`{"deleteTask":{"id":"t1"}}`)}}
	store := New(exec)

	id, err := store.DeleteTask(context.Background(), "t1")
	if err != nil || id != "t1" {
		t.Fatalf("expected t1, got %q %v", id, err)
	}
}

func TestAddAccountTasks_TransportError(t *testing.T) {
	exec := &fakeExecutor{err: graphql.ErrUnauthorized}
	store := New(exec)

	_, err := store.AddAccountTasks(context.Background(), "u1", []service.AccountTask{{TaskID: "t1", Permission: service.PermissionFull}})
	if !errors.Is(err, graphql.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if exec.calls[0].vars["sub"] != "u1" {
		t.Errorf("unexpected vars: %v", exec.calls[0].vars)
	}
}
