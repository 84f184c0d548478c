package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/output"
	"taskdeck/internal/service"
)

func init() {
	Register(&RemindCmd{now: time.Now})
}

// RemindCmd implements the remind command. With a time it schedules a
// reminder; without one it lists the task's pending reminders.
type RemindCmd struct {
	now func() time.Time
}

func (c *RemindCmd) Name() string      { return "remind" }
func (c *RemindCmd) Aliases() []string { return nil }
func (c *RemindCmd) Synopsis() string  { return "Schedule or list reminders for a task" }
func (c *RemindCmd) Usage() string     { return "taskdeck remind <n> [<time>]" }
func (c *RemindCmd) NeedsAuth() bool   { return true }

func (c *RemindCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RemindCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	task, code := lookupTask(env.Session, args, errOut)
	if code != exitcode.Success {
		return code
	}

	if len(args) < 2 {
		reminders, err := env.Reminders.ListReminders(ctx, task.ID)
		if err != nil {
			return Fail(errOut, err)
		}
		if len(reminders) == 0 {
			if !cfg.Quiet {
				fmt.Fprintln(out, "no reminders")
			}
			return exitcode.Success
		}
		for _, r := range reminders {
			output.FormatReminder(out, r)
		}
		return exitcode.Success
	}

	now := time.Now()
	if c.now != nil {
		now = c.now()
	}
	due, err := ParseReminderTime(strings.Join(args[1:], " "), now)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	r := service.Reminder{TaskID: task.ID, Title: task.Title, Due: due}
	if err := env.Reminders.ScheduleReminder(ctx, r); err != nil {
		return Fail(errOut, err)
	}
	return ok(cfg, out)
}

// ParseReminderTime accepts an RFC3339 timestamp, a duration from now
// or a local calendar date.
func ParseReminderTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return time.Time{}, fmt.Errorf("reminder must be in the future: %s", s)
		}
		return now.Add(d), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid reminder time: %s", s)
}
