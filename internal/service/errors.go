package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProtocol is returned when a write response lacks the expected record.
	ErrProtocol = errors.New("protocol violation")

	// ErrMissingIdentityField is returned when the identity provider
	// omits a required field.
	ErrMissingIdentityField = errors.New("missing identity field")

	// ErrNoAccount is returned when an operation needs an account
	// and none is loaded in the session.
	ErrNoAccount = errors.New("no account in session")

	// ErrInvalidUpdate is returned for an update command that sets no
	// fields or sets conflicting ones.
	ErrInvalidUpdate = errors.New("invalid update")

	// ErrTaskNotFound is returned when a task id is not in the session.
	ErrTaskNotFound = errors.New("task not found")

	// ErrRemindersDisabled is returned when scheduling without a reminder backend.
	ErrRemindersDisabled = errors.New("reminders not configured")
)

// GraphQLError carries the errors array of a failed GraphQL operation.
type GraphQLError struct {
	Operation string
	Messages  []string
}

func (e *GraphQLError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, strings.Join(e.Messages, "; "))
}
