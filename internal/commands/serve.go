package commands

import (
	"context"
	"flag"
	"io"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/httpapi"
)

func init() {
	Register(&ServeCmd{})
}

// ServeCmd implements the serve command.
type ServeCmd struct {
	addr string
}

func (c *ServeCmd) Name() string      { return "serve" }
func (c *ServeCmd) Aliases() []string { return nil }
func (c *ServeCmd) Synopsis() string  { return "Serve the task list over a local JSON API" }
func (c *ServeCmd) Usage() string     { return "taskdeck serve [--addr <host:port>]" }
func (c *ServeCmd) NeedsAuth() bool   { return true }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	c.addr = ""
	fs.StringVar(&c.addr, "addr", "", "")
}

// Run blocks until ctx is cancelled.
func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	addr := c.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	srv := httpapi.New(httpapi.Backend{
		Session:  env.Session,
		Accounts: env.Accounts,
		Tasks:    env.Tasks,
		Log:      env.Log,
	})
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return Fail(errOut, err)
	}
	return exitcode.Success
}
