package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/roman-kulish/spirange/cmd/spirange/app"
)

func main() {
	// stdout carries the measurement only
	var logLevel slog.LevelVar
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &logLevel}))

	config, err := app.NewConfigFromCLI(filepath.Base(os.Args[0]), os.Args[1:], os.Stderr)
	if err != nil {
		if !errors.Is(err, app.ErrUsage) {
			logger.Error(err.Error())
		}
		os.Exit(1)
	}

	logLevel.Set(config.Level())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err = app.Run(ctx, config, os.Stdout, logger); err != nil {
		logger.Error(err.Error())

		cancel()
		os.Exit(1)
	}
}
