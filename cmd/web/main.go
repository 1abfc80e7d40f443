package main

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zheruizz/another.ai-app/internal/app"
	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/logging"
	"github.com/zheruizz/another.ai-app/internal/pprofserver"
	"github.com/zheruizz/another.ai-app/internal/survey"
)

type application struct {
	logger     *slog.Logger
	store      app.Store
	runner     *survey.Runner
	validate   *validator.Validate
	metrics    http.Handler
	runTimeout time.Duration
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	cfg, err := app.LoadConfig(lookupEnv)
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), //nolint:exhaustruct // defaults are fine
	)

	var services *app.Services
	if services, err = app.Open(ctx, cfg, logger, registry, app.Options{}); err != nil { //nolint:exhaustruct // defaults
		return errors.Wrap(err, "open services")
	}
	defer func() {
		if closeErr := services.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "close services", errors.SlogError(closeErr))
		}
	}()

	pprofserver.Launch(ctx, cfg.PprofAddr, logger)

	application := application{
		logger:     logger,
		store:      services.Store,
		runner:     services.Runner,
		validate:   newValidator(),
		metrics:    promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), //nolint:exhaustruct // defaults are fine
		runTimeout: cfg.RunTimeout,
	}

	return application.configureAndStartServer(ctx, cfg.Addr)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	loggerHandler := logging.NewContextHandler(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   true,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.LogAttrs(ctx, slog.LevelError, "failure loading .env", errors.SlogError(err))
		os.Exit(1)
	}

	err := run(ctx, logger, os.LookupEnv)
	stop()
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
