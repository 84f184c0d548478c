package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
)

func init() {
	Register(&ClearCmd{})
}

// ClearCmd implements the clear command.
type ClearCmd struct {
	force bool
}

func (c *ClearCmd) Name() string      { return "clear" }
func (c *ClearCmd) Aliases() []string { return nil }
func (c *ClearCmd) Synopsis() string  { return "Delete every task" }
func (c *ClearCmd) Usage() string     { return "taskdeck clear [--force]" }
func (c *ClearCmd) NeedsAuth() bool   { return true }

func (c *ClearCmd) RegisterFlags(fs *flag.FlagSet) {
	c.force = false
	fs.BoolVar(&c.force, "force", false, "")
	fs.BoolVar(&c.force, "f", false, "")
}

func (c *ClearCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	n := len(env.Session.AccountTasks())
	if n > 0 && !c.force {
		fmt.Fprintf(errOut, "error: %d tasks would be deleted (use --force)\n", n)
		return exitcode.UserError
	}
	if err := env.Tasks.DeleteAllTasks(ctx, env.Session); err != nil {
		return Fail(errOut, err)
	}
	return ok(cfg, out)
}
