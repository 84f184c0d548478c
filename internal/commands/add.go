package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string     { return "taskdeck add [--description <text>] <title...>" }
func (c *AddCmd) NeedsAuth() bool   { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	c.description = ""
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
}

// Run creates a placeholder task, then sets its title.
func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	title := strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	created, err := env.Tasks.CreateTask(ctx, env.Session)
	if err != nil {
		return Fail(errOut, err)
	}

	cmd := service.UpdateTask{ID: created.ID, Title: &title}
	if c.description != "" {
		desc := c.description
		cmd.Description = &desc
	}
	if _, err := env.Tasks.UpdateTask(ctx, env.Session, cmd); err != nil {
		return Fail(errOut, err)
	}
	return ok(cfg, out)
}
