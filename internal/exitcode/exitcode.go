// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"errors"

	"taskdeck/internal/auth"
	"taskdeck/internal/config"
	"taskdeck/internal/graphql"
	"taskdeck/internal/identity"
	"taskdeck/internal/service"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, not found, invalid update).
	UserError = 1

	// AuthError indicates an auth/config error.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// FromError maps an operation error to an exit code.
func FromError(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, service.ErrMissingIdentityField),
		errors.Is(err, graphql.ErrUnauthorized),
		errors.Is(err, identity.ErrInvalidToken),
		errors.Is(err, auth.ErrNotLoggedIn),
		errors.Is(err, config.ErrNotConfigured):
		return AuthError
	case errors.Is(err, service.ErrNoAccount),
		errors.Is(err, service.ErrInvalidUpdate),
		errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrRemindersDisabled):
		return UserError
	default:
		return BackendError
	}
}
