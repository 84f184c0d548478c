package commands

import (
	"context"
	"flag"
	"io"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/output"
)

func init() {
	Register(&WhoamiCmd{})
}

// WhoamiCmd implements the whoami command.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string      { return "whoami" }
func (c *WhoamiCmd) Aliases() []string { return []string{"account"} }
func (c *WhoamiCmd) Synopsis() string  { return "Show the signed-in account" }
func (c *WhoamiCmd) Usage() string     { return "taskdeck whoami" }
func (c *WhoamiCmd) NeedsAuth() bool   { return true }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	acct, err := env.Session.RequireAccount()
	if err != nil {
		return Fail(errOut, err)
	}
	output.FormatAccount(out, *acct)
	return exitcode.Success
}
