// Package main is the entry point for the taskflow CLI.
package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"taskflow/internal/auth"
	"taskflow/internal/backend/supabase"
	"taskflow/internal/cli"
	"taskflow/internal/commands"
	"taskflow/internal/config"
	"taskflow/internal/store"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, newApp)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

// newApp wires the supabase backend, the session manager, and the
// stores into an App.
func newApp(ctx context.Context, cfg *config.Config) (*commands.App, error) {
	client, err := supabase.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDir(); err != nil {
		return nil, err
	}

	logger := log.New(io.Discard, "", 0)
	if cfg.Debug {
		logger = log.New(os.Stderr, "taskflow: ", log.LstdFlags)
	}

	mgr := auth.NewManager(client, cfg.SessionPath(), logger)
	client.SetTokenProvider(mgr)

	return &commands.App{
		Auth:     mgr,
		Remote:   client,
		Tasks:    store.NewTaskStore(client, mgr, logger),
		Lists:    store.NewListStore(client, mgr, logger),
		Settings: store.NewSettingsStore(client, mgr, logger),
		Provider: client,
	}, nil
}
