package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskflow help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskflow                                        List tasks (current view)
  taskflow list [view flags]                      List tasks, optionally changing the view
  taskflow add [--list <name>] [--due <date>] [--notes <text>] [--flag]
               [--every <daily|weekly|monthly>] [--interval <n>] [--until <date>] <title...>
  taskflow done <ref>                             Toggle completion (expands recurring tasks)
  taskflow flag <ref>                             Toggle the flag marker
  taskflow edit [field flags] <ref>               Update task fields
  taskflow rm <ref>                               Delete a task
  taskflow lists                                  Show lists with open task counts
  taskflow newlist [--color <hex>] [--icon <name>] <name>
  taskflow renamelist <old-name> <new-name>
  taskflow rmlist [--force] <name>                Delete a list (tasks are detached)
  taskflow reorder <name> [<name> ...]            Reorder lists
  taskflow watch                                  Stream live changes until interrupted
  taskflow settings [--theme <name>] [--notifications <on|off>]
  taskflow login [--provider <name>]
  taskflow signup
  taskflow logout
  taskflow whoami
  taskflow help
  taskflow version

Task references (<ref>) are the number shown by the list command, or a
unique task id prefix.

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
