// Package app assembles the storage, model client and survey engine from configuration.
package app

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/zheruizz/another.ai-app/internal/ai"
	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/models"
	"github.com/zheruizz/another.ai-app/internal/pgstore"
	"github.com/zheruizz/another.ai-app/internal/repositories"
	"github.com/zheruizz/another.ai-app/internal/secrets"
	"github.com/zheruizz/another.ai-app/internal/sqlite"
	"github.com/zheruizz/another.ai-app/internal/survey"
)

// Store is implemented by both the SQLite and the PostgreSQL stores.
type Store interface {
	survey.Store

	CreateProject(ctx context.Context, name string, description string) (*models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	DeleteProject(ctx context.Context, id int64) error

	CreatePersona(ctx context.Context, persona models.Persona) (*models.Persona, error)
	ListPersonas(ctx context.Context) ([]models.Persona, error)
	GetPersona(ctx context.Context, id int64) (*models.Persona, error)
	DeletePersona(ctx context.Context, id int64) error

	CreateSurvey(ctx context.Context, projectID int64, name string) (*models.Survey, error)
	ListSurveys(ctx context.Context, projectID int64) ([]models.Survey, error)
	GetSurvey(ctx context.Context, id int64) (*models.Survey, error)
	DeleteSurvey(ctx context.Context, id int64) error
	AddQuestion(ctx context.Context, surveyID int64, questionText, variantA, variantB string) (*models.Question, error)

	GetRun(ctx context.Context, runID string) (*models.Run, error)
	ListResults(ctx context.Context, surveyID int64) ([]models.Result, error)
	ListRunResults(ctx context.Context, runID string) ([]models.Result, error)
	CountResponses(ctx context.Context, runID string) (int, error)
}

var (
	_ Store = (*repositories.Store)(nil)
	_ Store = (*pgstore.Store)(nil)
)

// Services are the long-lived dependencies shared by the binaries.
type Services struct {
	Store  Store
	Runner *survey.Runner
	close  func() error
}

// Close releases the database connections.
func (s *Services) Close() error {
	return s.close()
}

// Options customise Open. The zero value uses production defaults.
type Options struct {
	// Completer replaces the configured model provider.
	Completer ai.Completer
	// Backoff is the base retry delay of the sampler. Defaults to survey.DefaultBackoff.
	Backoff time.Duration
	// Resolver looks up provider API keys. Defaults to secrets.NewResolver().
	Resolver *secrets.Resolver
}

// Open connects to the configured database and wires the survey engine. ctx bounds background maintenance of
// the database and must outlive the returned Services.
func Open(
	ctx context.Context,
	cfg Config,
	logger *slog.Logger,
	registerer prometheus.Registerer,
	opts Options,
) (*Services, error) {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	completer := opts.Completer
	if completer == nil {
		resolver := opts.Resolver
		if resolver == nil {
			resolver = secrets.NewResolver()
		}
		completer = newCompleter(cfg, resolver, logger)
	}

	backoff := opts.Backoff
	if backoff == 0 {
		backoff = survey.DefaultBackoff
	}

	metrics := survey.NewMetrics(registerer)
	sampler := survey.NewSampler(survey.NewGenerator(completer, metrics), backoff, logger, metrics)
	runner := survey.NewRunner(store, sampler, survey.RunnerConfig{
		Model:             cfg.Model,
		Temperature:       cfg.Temperature,
		DefaultSampleSize: cfg.DefaultSampleSize,
		MaxSampleSize:     cfg.MaxSampleSize,
		EnableRawOutput:   cfg.EnableRawOutput,
	}, logger, metrics)

	return &Services{
		Store:  store,
		Runner: runner,
		close:  closeStore,
	}, nil
}

func openStore(ctx context.Context, cfg Config, logger *slog.Logger) (Store, func() error, error) {
	if cfg.DatabaseURL != "" {
		store, err := pgstore.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open postgres store")
		}
		return store, func() error {
			store.Close()
			return nil
		}, nil
	}

	dbs, err := sqlite.NewDatabase(ctx, cfg.SQLiteURL, logger)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open sqlite database", slog.String("url", cfg.SQLiteURL))
	}
	return repositories.NewStore(dbs, logger), dbs.Close, nil
}

// newCompleter builds the provider client lazily so that credentials are only resolved when a run needs them.
func newCompleter(cfg Config, resolver *secrets.Resolver, logger *slog.Logger) ai.Completer {
	var completer ai.Completer = ai.NewLazy(func(ctx context.Context) (ai.Completer, error) {
		switch cfg.Provider {
		case ProviderGemini:
			if cfg.GeminiAPIKey == "" {
				return nil, errors.Wrap(secrets.ErrNoAPIKey, "resolve gemini key")
			}
			client, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey)
			if err != nil {
				return nil, err
			}
			return client, nil
		default:
			key, err := resolver.APIKey(ctx, secrets.Source{
				SecretName: cfg.OpenAISecretName,
				Region:     cfg.OpenAISecretRegion,
				Field:      "",
				EnvValue:   cfg.OpenAIAPIKey,
			})
			if err != nil {
				return nil, errors.Wrap(err, "resolve openai key")
			}
			logger.LogAttrs(ctx, slog.LevelInfo, "openai client initialised", slog.String("model", cfg.Model))
			return ai.NewOpenAIClient(key, cfg.OpenAIBaseURL), nil
		}
	})
	if cfg.AIRequestsPerSecond > 0 {
		burst := max(1, int(math.Ceil(cfg.AIRequestsPerSecond)))
		completer = ai.NewRateLimited(completer, cfg.AIRequestsPerSecond, burst)
	}
	return completer
}
