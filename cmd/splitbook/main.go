package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"splitbook/internal/config"
	"splitbook/internal/ledger"
	"splitbook/internal/log"
	"splitbook/internal/poller"
	"splitbook/internal/tui"
	"splitbook/internal/view"
	"splitbook/internal/workflow"
)

func main() {
	// Load .env file for local development (ignore errors in production)
	_ = godotenv.Load()

	// The terminal belongs to the TUI; logs go to a file when requested
	// and are dropped otherwise.
	var logWriter io.Writer = io.Discard
	if path := os.Getenv("SPLITBOOK_LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			slog.Error("Failed to open log file", "error", err, "path", path)
			os.Exit(1)
		}
		defer f.Close()
		logWriter = f
	}
	handler := tint.NewHandler(logWriter, &tint.Options{Level: slog.LevelDebug, NoColor: true})
	logger := log.New(handler, log.ComponentApp)
	slog.SetDefault(logger.Logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	client := ledger.New(cfg.ServerURL)
	store := view.NewStore()

	var program *tea.Program
	p := poller.New(client, store, cfg.PollInterval,
		poller.WithLogger(logger.WithComponent(log.ComponentPoller)),
		poller.WithOnUpdate(func() {
			if program != nil {
				program.Send(tui.StoreUpdated{})
			}
		}))
	w := workflow.New(client, p, logger.WithComponent(log.ComponentWorkflow))

	program = tea.NewProgram(tui.New(store, p, w), tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Start(ctx); err != nil {
		logger.Error("Failed to start poller", "error", err)
		os.Exit(1)
	}
	defer p.Stop(context.Background())

	logger.Info("Starting splitbook", "server", cfg.ServerURL, "poll_interval", cfg.PollInterval)
	if _, err := program.Run(); err != nil {
		logger.Error("UI error", "error", err)
		os.Exit(1)
	}
}
