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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskdeck help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskdeck                                         List tasks
  taskdeck list [common flags] [-v]                List tasks, with details
  taskdeck add [common flags] [-d <text>] <title...>
  taskdeck edit [common flags] [--title <text>] [--description <text>] <n>
  taskdeck done [common flags] <n>
  taskdeck undo [common flags] <n>
  taskdeck sub [common flags] <n> <title...>
  taskdeck sub [common flags] --toggle <m> <n>
  taskdeck rm [common flags] <n>
  taskdeck clear [common flags] [--force]
  taskdeck remind [common flags] <n> [<time>]
  taskdeck whoami [common flags]
  taskdeck serve [common flags] [--addr <host:port>]
  taskdeck login [common flags] [--google]
  taskdeck logout [common flags]
  taskdeck help
  taskdeck version

Tasks are numbered from 1 in display order.
Reminder times: RFC3339 (2026-01-02T15:04:05Z), a duration (90m, 2h), or a date (2026-01-02).

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
