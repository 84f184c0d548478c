package commands

import (
	"context"
	"flag"
	"io"
	"time"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/service"
)

func init() {
	Register(&DoneCmd{now: time.Now})
	Register(&UndoCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct {
	now func() time.Time
}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return nil }
func (c *DoneCmd) Synopsis() string  { return "Mark a task completed" }
func (c *DoneCmd) Usage() string     { return "taskdeck done <n>" }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	task, code := lookupTask(env.Session, args, errOut)
	if code != exitcode.Success {
		return code
	}
	if task.Completed() {
		return ok(cfg, out)
	}

	now := time.Now()
	if c.now != nil {
		now = c.now()
	}
	if _, err := env.Tasks.UpdateTask(ctx, env.Session, service.UpdateTask{ID: task.ID, CompletedAt: &now}); err != nil {
		return Fail(errOut, err)
	}
	return ok(cfg, out)
}

// UndoCmd implements the undo command.
type UndoCmd struct{}

func (c *UndoCmd) Name() string      { return "undo" }
func (c *UndoCmd) Aliases() []string { return []string{"reopen"} }
func (c *UndoCmd) Synopsis() string  { return "Mark a task not completed" }
func (c *UndoCmd) Usage() string     { return "taskdeck undo <n>" }
func (c *UndoCmd) NeedsAuth() bool   { return true }

func (c *UndoCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UndoCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	task, code := lookupTask(env.Session, args, errOut)
	if code != exitcode.Success {
		return code
	}
	if !task.Completed() {
		return ok(cfg, out)
	}

	if _, err := env.Tasks.UpdateTask(ctx, env.Session, service.UpdateTask{ID: task.ID, ClearCompleted: true}); err != nil {
		return Fail(errOut, err)
	}
	return ok(cfg, out)
}
