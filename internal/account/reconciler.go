// Package account keeps the signed-in user's account record in step with
// the identity provider and with the authoritative task records.
package account

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"taskdeck/internal/logging"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
)

// Reconciler ensures accounts exist and their task projections are complete.
type Reconciler struct {
	store service.Store
	log   logrus.FieldLogger
}

// NewReconciler creates a Reconciler. A nil logger uses logging.Logger.
func NewReconciler(store service.Store, log logrus.FieldLogger) *Reconciler {
	if log == nil {
		log = logging.Logger
	}
	return &Reconciler{store: store, log: log}
}

// EnsureAccount finds or creates the account for the session identity and
// stores it in the session. An existing account's admin flag is updated
// when group membership has changed.
func (r *Reconciler) EnsureAccount(ctx context.Context, sess *session.Session) (*service.Account, error) {
	id := sess.Identity()
	if err := id.Validate(); err != nil {
		return nil, err
	}
	admin := id.IsAdmin()

	accounts, err := r.store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	for i := range accounts {
		if accounts[i].Sub != id.Sub {
			continue
		}
		acct := accounts[i]
		if acct.Admin != admin {
			r.log.WithField("sub", id.Sub).Infof("Event ID: ACCOUNT_ADMIN_SYNC, Description: admin flag %t -> %t", acct.Admin, admin)
			if _, err := r.store.UpdateAccount(ctx, service.SetAdmin(acct.Sub, admin)); err != nil {
				return nil, fmt.Errorf("update account admin flag: %w", err)
			}
			acct.Admin = admin
		}
		sess.SetAccount(&acct)
		return sess.Account(), nil
	}

	created, err := r.store.CreateAccount(ctx, service.Account{
		Sub:      id.Sub,
		Email:    id.Email,
		Username: id.Username,
		Name:     id.Name,
		Admin:    admin,
		Tasks:    []service.AccountTask{},
	})
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("create account: %w", service.ErrProtocol)
	}
	r.log.WithField("sub", id.Sub).Info("Event ID: ACCOUNT_CREATED, Description: created account for new identity")

	sess.SetAccount(created)
	return sess.Account(), nil
}

// ReconcileTasks appends a projection for every task missing from the
// account's list. Existing entries are never reordered. The list is
// written only when something was added.
//
// A projection whose task no longer exists is not detected here; Refresh
// handles that direction.
func (r *Reconciler) ReconcileTasks(ctx context.Context, sess *session.Session, tasks []service.Task) error {
	acct, err := sess.RequireAccount()
	if err != nil {
		return err
	}

	entries, added := appendMissing(acct.Tasks, tasks)
	if added == 0 {
		sess.MarkClean()
		return nil
	}

	r.log.WithField("sub", acct.Sub).Infof("Event ID: ACCOUNT_TASKS_RECONCILED, Description: adding %d missing task projections", added)
	if _, err := r.store.UpdateAccount(ctx, service.ReplaceTasks(acct.Sub, entries)); err != nil {
		return fmt.Errorf("update account tasks: %w", err)
	}
	sess.SetAccountTasks(entries)
	sess.MarkClean()
	return nil
}

// Load runs the sign-in flow: ensure the account, fetch every visible
// task, then reconcile projections.
func (r *Reconciler) Load(ctx context.Context, sess *session.Session) error {
	if _, err := r.EnsureAccount(ctx, sess); err != nil {
		return err
	}
	tasks, err := r.store.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	sess.SetTasks(tasks)
	return r.ReconcileTasks(ctx, sess, tasks)
}

// Refresh recomputes projections from the authoritative tasks when the
// session is stale. Orphaned projections are dropped, positions are
// renumbered densely and missing tasks are appended.
func (r *Reconciler) Refresh(ctx context.Context, sess *session.Session) error {
	if !sess.Stale() {
		return nil
	}
	acct, err := sess.RequireAccount()
	if err != nil {
		return err
	}

	tasks, err := r.store.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	sess.SetTasks(tasks)

	entries := Project(acct.Tasks, tasks)
	if !equalEntries(entries, acct.Tasks) {
		r.log.WithField("sub", acct.Sub).Info("Event ID: ACCOUNT_TASKS_REBUILT, Description: recomputed task projections")
		if _, err := r.store.UpdateAccount(ctx, service.ReplaceTasks(acct.Sub, entries)); err != nil {
			return fmt.Errorf("update account tasks: %w", err)
		}
		sess.SetAccountTasks(entries)
	}
	sess.MarkClean()
	return nil
}

// UpdateAccount applies cmd to the session's account remotely and locally.
func (r *Reconciler) UpdateAccount(ctx context.Context, sess *session.Session, cmd service.UpdateAccount) error {
	acct, err := sess.RequireAccount()
	if err != nil {
		return err
	}
	cmd.Sub = acct.Sub
	if err := cmd.Validate(); err != nil {
		return err
	}
	if _, err := r.store.UpdateAccount(ctx, cmd); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	cmd.Apply(acct)
	sess.SetAccount(acct)
	return nil
}
