package commands

import (
	"context"
	"flag"
	"io"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command.
type EditCmd struct {
	title       *string
	description *string
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change a task's title or description" }
func (c *EditCmd) Usage() string {
	return "taskdeck edit [--title <text>] [--description <text>] <n>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.title, c.description = nil, nil
	fs.Func("title", "", func(s string) error {
		c.title = &s
		return nil
	})
	fs.Func("description", "", func(s string) error {
		c.description = &s
		return nil
	})
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	task, code := lookupTask(env.Session, args, errOut)
	if code != exitcode.Success {
		return code
	}

	cmd := service.UpdateTask{ID: task.ID, Title: c.title, Description: c.description}
	if _, err := env.Tasks.UpdateTask(ctx, env.Session, cmd); err != nil {
		return Fail(errOut, err)
	}
	return ok(cfg, out)
}
