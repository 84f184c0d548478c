package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/service"
)

func init() {
	Register(&SubCmd{})
}

// SubCmd implements the sub command: append a subtask, or toggle one
// with --toggle.
type SubCmd struct {
	toggle int
}

func (c *SubCmd) Name() string      { return "sub" }
func (c *SubCmd) Aliases() []string { return nil }
func (c *SubCmd) Synopsis() string  { return "Add or toggle a subtask" }
func (c *SubCmd) Usage() string     { return "taskdeck sub <n> <title...> | taskdeck sub --toggle <m> <n>" }
func (c *SubCmd) NeedsAuth() bool   { return true }

func (c *SubCmd) RegisterFlags(fs *flag.FlagSet) {
	c.toggle = 0
	fs.IntVar(&c.toggle, "toggle", 0, "")
}

func (c *SubCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	task, code := lookupTask(env.Session, args, errOut)
	if code != exitcode.Success {
		return code
	}

	subtasks := append([]service.Subtask{}, task.Subtasks...)
	if c.toggle != 0 {
		if len(args) > 1 {
			fmt.Fprintln(errOut, "error: cannot use both --toggle and a title")
			return exitcode.UserError
		}
		if c.toggle < 1 || c.toggle > len(subtasks) {
			fmt.Fprintf(errOut, "error: subtask number out of range: %d\n", c.toggle)
			return exitcode.UserError
		}
		subtasks[c.toggle-1].Done = !subtasks[c.toggle-1].Done
	} else {
		title := strings.Join(args[1:], " ")
		if strings.TrimSpace(title) == "" {
			fmt.Fprintln(errOut, "error: title required")
			return exitcode.UserError
		}
		subtasks = append(subtasks, service.Subtask{ID: uuid.NewString(), Title: title})
	}

	if _, err := env.Tasks.UpdateTask(ctx, env.Session, service.UpdateTask{ID: task.ID, Subtasks: &subtasks}); err != nil {
		return Fail(errOut, err)
	}
	return ok(cfg, out)
}
