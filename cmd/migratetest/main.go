package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/zheruizz/another.ai-app/internal/app"
	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/testhelpers"
)

// migratetest opens the configured database, which applies the schema, and checks that the demo personas exist.
func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second) //nolint:mnd // 30 seconds

	cfg, err := app.LoadConfig(os.LookupEnv)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error loading config", errors.SlogError(err))
		os.Exit(1)
	}

	services, err := app.Open(ctx, cfg, logger, prometheus.NewRegistry(), app.Options{}) //nolint:exhaustruct // defaults
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error opening database", errors.SlogError(err))
		os.Exit(1)
	}

	personas, err := services.Store.ListPersonas(ctx)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error listing personas", errors.SlogError(err))
		os.Exit(1)
	}
	if len(personas) == 0 {
		logger.LogAttrs(ctx, slog.LevelError, "no personas found, something is likely wrong")
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "persona count", slog.Int("count", len(personas)))

	if err = services.Close(); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error closing database", errors.SlogError(err))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "Migration test successful 🙌", slog.Duration("duration", time.Since(start)))
	cancel()
	os.Exit(0)
}
