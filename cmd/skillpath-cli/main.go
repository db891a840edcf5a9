// skillpath-cli runs an assessment in the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ashureev/skillpath/internal/app"
	"github.com/ashureev/skillpath/internal/cli"
	"github.com/ashureev/skillpath/internal/config"
	"github.com/joho/godotenv"
)

func main() {
	plain := flag.Bool("plain", false, "disable colors and markdown rendering")
	width := flag.Int("width", 80, "word-wrap width for the final report")
	verbose := flag.Bool("v", false, "log to stderr")
	flag.Parse()

	level := slog.LevelError
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	_ = godotenv.Load()
	if os.Getenv("STORE_BACKEND") == "" {
		_ = os.Setenv("STORE_BACKEND", config.StoreMemory)
	}

	if err := run(logger, cli.Options{Plain: *plain, Width: *width}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, opts cli.Options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	deps, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating app: %w", err)
	}
	defer func() {
		if closeErr := deps.Close(); closeErr != nil {
			logger.Error("Failed to close application", "error", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = cli.New(deps.Engine, os.Stdin, os.Stdout, opts).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
