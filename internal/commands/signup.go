package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
)

// minPasswordLen is the minimum accepted password length.
const minPasswordLen = 6

func init() {
	Register(&SignupCmd{})
}

// SignupCmd implements the signup command.
type SignupCmd struct {
	email    string
	password string
	confirm  string
}

func (c *SignupCmd) Name() string      { return "signup" }
func (c *SignupCmd) Aliases() []string { return nil }
func (c *SignupCmd) Synopsis() string  { return "Create an account" }
func (c *SignupCmd) Usage() string {
	return "taskflow signup [--email <email>] [--password <password>]"
}
func (c *SignupCmd) NeedsAuth() bool { return false }

func (c *SignupCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.email, "e", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *SignupCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if app == nil {
		printBackendSetup(cfg, errOut)
		return exitcode.AuthError
	}

	email := c.email
	if email == "" {
		var err error
		email, err = promptLine(errOut, "Email: ")
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	}
	if email == "" {
		fmt.Fprintln(errOut, "error: email required")
		return exitcode.UserError
	}

	password := c.password
	confirm := password
	if password == "" {
		var err error
		password, err = promptLine(errOut, "Password: ")
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		confirm, err = promptLine(errOut, "Confirm password: ")
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	}

	if len(password) < minPasswordLen {
		fmt.Fprintf(errOut, "error: password must be at least %d characters\n", minPasswordLen)
		return exitcode.UserError
	}
	if password != confirm {
		fmt.Fprintln(errOut, "error: passwords do not match")
		return exitcode.UserError
	}

	session, _, err := app.Auth.SignUp(ctx, email, password)
	if err != nil {
		fmt.Fprintf(errOut, "error: sign up failed: %v\n", err)
		return exitcode.AuthError
	}

	// With email confirmation enabled the backend returns no session.
	if session == nil {
		fmt.Fprintln(out, "account created; check your email to confirm, then run: taskflow login")
		return exitcode.Success
	}

	return ok(cfg, out)
}
