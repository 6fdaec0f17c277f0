package commands

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
)

const (
	// OAuth callback timeout
	oauthCallbackTimeout = 5 * time.Minute

	// Token exchange timeout
	tokenExchangeTimeout = 30 * time.Second

	// Starting port for OAuth callback server
	oauthStartPort = 8085

	// Max port attempts
	oauthMaxPortAttempts = 5
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email    string
	password string
	provider string
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Sign in" }
func (c *LoginCmd) Usage() string {
	return "taskflow login [--email <email>] [--password <password>] [--provider <name>]"
}
func (c *LoginCmd) NeedsAuth() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.email, "e", "", "")
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.provider, "provider", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if app == nil {
		printBackendSetup(cfg, errOut)
		return exitcode.AuthError
	}

	// Check for an existing, still-valid session.
	if err := app.Auth.Restore(ctx); err == nil {
		if s := app.Auth.Session(); s != nil && s.Valid() {
			if !cfg.Quiet {
				fmt.Fprintln(out, "already logged in")
			}
			return exitcode.Success
		}
	}

	if c.provider != "" {
		return c.runProvider(ctx, cfg, app, out, errOut)
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
	password := c.password
	if password == "" {
		var err error
		password, err = promptLine(errOut, "Password: ")
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	}

	if _, err := app.Auth.SignIn(ctx, email, password); err != nil {
		fmt.Fprintf(errOut, "error: sign in failed: %v\n", err)
		return exitcode.AuthError
	}

	return ok(cfg, out)
}

// runProvider performs a PKCE sign-in through an external identity
// provider, using a local callback server to receive the auth code.
func (c *LoginCmd) runProvider(ctx context.Context, cfg *config.Config, app *App, out, errOut io.Writer) int {
	if app.Provider == nil {
		fmt.Fprintln(errOut, "error: provider sign-in is not supported by this backend")
		return exitcode.UserError
	}

	port, listener, err := findAvailablePort()
	if err != nil {
		fmt.Fprintln(errOut, "error: could not bind to local port for OAuth callback")
		return exitcode.AuthError
	}
	defer listener.Close()

	redirectURL := fmt.Sprintf("http://localhost:%d/callback", port)
	verifier := oauth2.GenerateVerifier()
	authURL := app.Provider.ProviderAuthURL(c.provider, redirectURL, verifier)

	fmt.Fprintln(errOut, "Open this URL in your browser:")
	fmt.Fprintln(errOut, authURL)

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	handler := http.NewServeMux()
	handler.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "No code in callback", http.StatusBadRequest)
			errCh <- fmt.Errorf("no code in callback")
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>Sign in successful</h1><p>You may close this window.</p></body></html>")
		codeCh <- code
	})

	server := &http.Server{Handler: handler}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	var code string
	select {
	case code = <-codeCh:
		// Got code
	case err := <-errCh:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	case <-time.After(oauthCallbackTimeout):
		fmt.Fprintln(errOut, "error: oauth callback timed out")
		return exitcode.AuthError
	case <-ctx.Done():
		fmt.Fprintln(errOut, "error: cancelled")
		return exitcode.AuthError
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)

	exchangeCtx, cancelExchange := context.WithTimeout(ctx, tokenExchangeTimeout)
	defer cancelExchange()

	session, err := app.Provider.ExchangeCode(exchangeCtx, code, verifier)
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to exchange code for session: %v\n", err)
		return exitcode.AuthError
	}

	if err := app.Auth.AdoptSession(session); err != nil {
		fmt.Fprintf(errOut, "error: failed to save session: %v\n", err)
		return exitcode.AuthError
	}

	return ok(cfg, out)
}

// findAvailablePort tries to find an available port starting from oauthStartPort.
func findAvailablePort() (int, net.Listener, error) {
	for i := 0; i < oauthMaxPortAttempts; i++ {
		port := oauthStartPort + i
		addr := fmt.Sprintf("localhost:%d", port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			return port, listener, nil
		}
	}
	return 0, nil, fmt.Errorf("no available port found")
}

// promptLine prints a prompt to errOut and reads one line from stdin.
func promptLine(errOut io.Writer, prompt string) (string, error) {
	fmt.Fprint(errOut, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// printBackendSetup explains how to configure backend credentials.
func printBackendSetup(cfg *config.Config, errOut io.Writer) {
	fmt.Fprintln(errOut, "error: backend not configured")
	fmt.Fprintln(errOut, "")
	fmt.Fprintf(errOut, "Set %s and %s in the environment,\n", config.EnvURL, config.EnvAnonKey)
	fmt.Fprintf(errOut, "or put them in %s/.env\n", cfg.Dir)
}
