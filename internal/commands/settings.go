package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/model"
)

func init() {
	Register(&SettingsCmd{})
}

// SettingsCmd implements the settings command. Without flags it prints
// the synced per-account settings; with flags it updates them.
type SettingsCmd struct {
	theme         string
	notifications string
	sound         string
	showCompleted string
	defaultList   string
}

func (c *SettingsCmd) Name() string      { return "settings" }
func (c *SettingsCmd) Aliases() []string { return nil }
func (c *SettingsCmd) Synopsis() string  { return "Show or change account settings" }
func (c *SettingsCmd) Usage() string {
	return "taskflow settings [--theme <name>] [--notifications <on|off>] [--sound <name>] [--show-completed <on|off>] [--default-list <name>]"
}
func (c *SettingsCmd) NeedsAuth() bool { return true }

func (c *SettingsCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.theme, "theme", "", "")
	fs.StringVar(&c.notifications, "notifications", "", "")
	fs.StringVar(&c.sound, "sound", "", "")
	fs.StringVar(&c.showCompleted, "show-completed", "", "")
	fs.StringVar(&c.defaultList, "default-list", "", "")
}

func (c *SettingsCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if err := app.Settings.Fetch(ctx); err != nil {
		return fail(errOut, err)
	}

	var patch model.SettingsPatch
	if c.theme != "" {
		patch.Theme = model.Set(c.theme)
	}
	if c.sound != "" {
		patch.NotificationSound = model.Set(c.sound)
	}
	if c.notifications != "" {
		on, err := parseOnOff(c.notifications)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		patch.NotificationsEnabled = model.Set(on)
	}
	if c.showCompleted != "" {
		on, err := parseOnOff(c.showCompleted)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		patch.ShowCompletedTasks = model.Set(on)
	}
	if c.defaultList != "" {
		if err := app.Lists.Fetch(ctx); err != nil {
			return fail(errOut, err)
		}
		list, err := resolveList(app, c.defaultList)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v: %s\n", err, c.defaultList)
			return exitcode.UserError
		}
		patch.DefaultListID = model.Set(&list.ID)
	}

	if len(patch.Changes()) > 0 {
		if err := app.Settings.Update(ctx, patch); err != nil {
			return fail(errOut, err)
		}
		return ok(cfg, out)
	}

	settings, found := app.Settings.Settings()
	if !found {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no settings saved (defaults apply)")
		}
		return exitcode.Success
	}

	fmt.Fprintf(out, "theme: %s\n", settings.Theme)
	fmt.Fprintf(out, "notifications: %s\n", onOff(settings.NotificationsEnabled))
	fmt.Fprintf(out, "sound: %s\n", settings.NotificationSound)
	fmt.Fprintf(out, "show completed: %s\n", onOff(settings.ShowCompletedTasks))
	if settings.DefaultListID != nil {
		fmt.Fprintf(out, "default list: %s\n", *settings.DefaultListID)
	}
	return exitcode.Success
}

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid value %q (want on or off)", s)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
