// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"taskdeck/internal/account"
	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/identity"
	"taskdeck/internal/lifecycle"
	"taskdeck/internal/logging"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires a loaded session.
	// Commands like help, version, login, logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths).
	// env is nil if NeedsAuth() returns false.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int
}

// Env is a signed-in session and the components operating on it.
type Env struct {
	Session   *session.Session
	Accounts  *account.Reconciler
	Tasks     *lifecycle.Manager
	Reminders service.Reminders
	Log       logrus.FieldLogger
}

// NewEnv builds an Env for id and runs the sign-in flow: the account is
// ensured, tasks are fetched and projections reconciled.
func NewEnv(ctx context.Context, store service.Store, reminders service.Reminders, id identity.Identity, log logrus.FieldLogger) (*Env, error) {
	if log == nil {
		log = logging.Logger
	}
	if reminders == nil {
		reminders = service.NoopReminders{}
	}
	env := &Env{
		Session:   session.New(id),
		Accounts:  account.NewReconciler(store, log),
		Tasks:     lifecycle.NewManager(store, reminders, log),
		Reminders: reminders,
		Log:       log,
	}
	if err := env.Accounts.Load(ctx, env.Session); err != nil {
		return nil, err
	}
	return env, nil
}

// Fail prints err with its category and returns the matching exit code.
func Fail(errOut io.Writer, err error) int {
	code := exitcode.FromError(err)
	switch code {
	case exitcode.AuthError:
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
	case exitcode.BackendError:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	default:
		fmt.Fprintf(errOut, "error: %v\n", err)
	}
	return code
}

// ok prints the success marker unless quiet.
func ok(cfg *config.Config, out io.Writer) int {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
