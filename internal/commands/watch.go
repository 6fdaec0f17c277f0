package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/output"
)

func init() {
	Register(&WatchCmd{})
}

// WatchCmd implements the watch command. It prints live task and list
// changes until interrupted or the streams close.
type WatchCmd struct{}

func (c *WatchCmd) Name() string      { return "watch" }
func (c *WatchCmd) Aliases() []string { return nil }
func (c *WatchCmd) Synopsis() string  { return "Stream live changes" }
func (c *WatchCmd) Usage() string     { return "taskflow watch" }
func (c *WatchCmd) NeedsAuth() bool   { return true }

func (c *WatchCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WatchCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	userID, signedIn := app.Auth.UserID()
	if !signedIn {
		fmt.Fprintln(errOut, "error: not logged in (run: taskflow login)")
		return exitcode.AuthError
	}

	taskStream, err := app.Remote.StreamTaskChanges(ctx, userID)
	if err != nil {
		return fail(errOut, err)
	}
	defer taskStream.Close()

	listStream, err := app.Remote.StreamListChanges(ctx, userID)
	if err != nil {
		return fail(errOut, err)
	}
	defer listStream.Close()

	if !cfg.Quiet {
		fmt.Fprintln(errOut, "watching for changes (ctrl-c to stop)")
	}

	taskEvents := taskStream.Events()
	listEvents := listStream.Events()
	for taskEvents != nil || listEvents != nil {
		select {
		case <-ctx.Done():
			return exitcode.Success
		case ev, ok := <-taskEvents:
			if !ok {
				taskEvents = nil
				continue
			}
			output.FormatChange(out, ev)
		case ev, ok := <-listEvents:
			if !ok {
				listEvents = nil
				continue
			}
			output.FormatListChange(out, ev)
		}
	}

	fmt.Fprintln(errOut, "error: stream closed")
	return exitcode.BackendError
}
