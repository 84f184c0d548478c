// Package main is the entry point for the taskdeck CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskdeck/internal/auth"
	"taskdeck/internal/backend/appsync"
	"taskdeck/internal/backend/googletasks"
	"taskdeck/internal/cli"
	"taskdeck/internal/commands"
	"taskdeck/internal/config"
	"taskdeck/internal/graphql"
	"taskdeck/internal/identity"
	"taskdeck/internal/logging"
	"taskdeck/internal/service"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, newEnv)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

// newEnv signs in: refresh the stored token, read the identity from the
// ID token, then load the account and tasks through the gateway.
func newEnv(ctx context.Context, cfg *config.Config) (*commands.Env, error) {
	if err := logging.Init(logging.Options{
		Dir:        cfg.LogPath(),
		Debug:      cfg.Debug,
		Stderr:     os.Stderr,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}); err != nil {
		return nil, err
	}
	log := logging.Logger

	if err := cfg.RequireAPI(); err != nil {
		return nil, err
	}
	creds, err := auth.NewCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}
	idToken, err := creds.IDToken()
	if err != nil {
		return nil, err
	}

	parser, err := identity.LoadParser(cfg.Auth.PublicKeyFile)
	if err != nil {
		return nil, err
	}
	if !parser.Verifies() {
		log.Debug("Event ID: IDENTITY_UNVERIFIED, Description: no public key configured, token signature not checked")
	}
	id, err := parser.Parse(idToken)
	if err != nil {
		return nil, err
	}

	gql := graphql.NewClient(cfg.API.Endpoint, creds.HTTPClient, graphql.Options{
		Timeout: cfg.API.Timeout.Duration,
		Log:     log,
	})
	store := appsync.New(gql)

	var reminders service.Reminders = service.NoopReminders{}
	if cfg.Reminders.Enabled {
		client, err := googletasks.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("reminders: %w", err)
		}
		reminders = client
	}

	return commands.NewEnv(ctx, store, reminders, id, log)
}
