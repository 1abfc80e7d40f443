// Package services opens the application services for CLI commands.
package services

import (
	"context"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/zheruizz/another.ai-app/internal/app"
	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/logging"
)

// Logger writes warnings and errors to stderr so that command output stays readable.
func Logger() *slog.Logger {
	return slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelWarn,
		ReplaceAttr: nil,
	})))
}

// Open loads the configuration from the environment and opens the services it describes.
func Open(ctx context.Context, logger *slog.Logger) (*app.Services, app.Config, error) {
	cfg, err := app.LoadConfig(os.LookupEnv)
	if err != nil {
		return nil, cfg, errors.Wrap(err, "load config")
	}
	services, err := app.Open(ctx, cfg, logger, prometheus.NewRegistry(), app.Options{}) //nolint:exhaustruct // defaults
	if err != nil {
		return nil, cfg, errors.Wrap(err, "open services")
	}
	return services, cfg, nil
}
