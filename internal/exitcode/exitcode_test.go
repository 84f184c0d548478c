package exitcode

import (
	"errors"
	"fmt"
	"testing"

	"taskdeck/internal/auth"
	"taskdeck/internal/config"
	"taskdeck/internal/graphql"
	"taskdeck/internal/identity"
	"taskdeck/internal/service"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, Success},
		{"missing identity field", fmt.Errorf("login: %w", service.ErrMissingIdentityField), AuthError},
		{"unauthorized", fmt.Errorf("ListTasks: %w", graphql.ErrUnauthorized), AuthError},
		{"not configured", config.ErrNotConfigured, AuthError},
		{"not logged in", auth.ErrNotLoggedIn, AuthError},
		{"invalid token", fmt.Errorf("%w: signature is invalid", identity.ErrInvalidToken), AuthError},
		{"no account", service.ErrNoAccount, UserError},
		{"invalid update", fmt.Errorf("%w: no fields", service.ErrInvalidUpdate), UserError},
		{"task not found", service.ErrTaskNotFound, UserError},
		{"reminders disabled", service.ErrRemindersDisabled, UserError},
		{"graphql errors", &service.GraphQLError{Operation: "CreateTask", Messages: []string{"boom"}}, BackendError},
		{"protocol", service.ErrProtocol, BackendError},
		{"transport", errors.New("connection refused"), BackendError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromError(tt.err); got != tt.want {
				t.Errorf("FromError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
