package survey

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/models"
	"github.com/zheruizz/another.ai-app/internal/random"
)

const (
	batchConcurrency   = 5
	batchRetries       = 2
	maxErrorSummaryLen = 1000
	runCompleted       = "Survey run completed"
)

// Store is the persistence the runner reads from and appends to.
type Store interface {
	ListQuestions(ctx context.Context, surveyID int64) ([]models.Question, error)
	ListPersonasByIDs(ctx context.Context, ids []int64) ([]models.Persona, error)
	CreateRun(ctx context.Context, run *models.Run) error
	InsertResponse(ctx context.Context, response *models.Response) error
	InsertResult(ctx context.Context, result *models.Result) error
	FinishRun(
		ctx context.Context,
		runID string,
		status models.RunStatus,
		finishedAt time.Time,
		errorSummary string,
	) error
}

// RunnerConfig holds the externally configured run parameters.
type RunnerConfig struct {
	Model             string
	Temperature       float64
	DefaultSampleSize int
	MaxSampleSize     int
	EnableRawOutput   bool
}

// RunResult is returned by a successful run.
type RunResult struct {
	Message string          `json:"message"`
	RunID   string          `json:"run_id"`
	Results []models.Result `json:"results"`
	// MissingPersonaIDs lists requested personas that do not exist. The run proceeds without them.
	MissingPersonaIDs []int64 `json:"missing_persona_ids,omitempty"`
}

// Runner executes survey runs.
type Runner struct {
	store   Store
	sampler *Sampler
	config  RunnerConfig
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

func NewRunner(store Store, sampler *Sampler, config RunnerConfig, logger *slog.Logger, metrics *Metrics) *Runner {
	return &Runner{
		store:   store,
		sampler: sampler,
		config:  config,
		logger:  logger.With(slog.String("source", "Runner")),
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// EffectiveSampleSize returns requested, or the configured default when requested is zero, clamped to
// [1, MaxSampleSize]. RunSurvey rejects negative sizes before calling it.
func (r *Runner) EffectiveSampleSize(requested int) int {
	size := requested
	if size == 0 {
		size = r.config.DefaultSampleSize
	}
	return min(max(size, 1), max(r.config.MaxSampleSize, 1))
}

// RunSurvey samples every persona on every question of the survey and stores one result per persona.
//
// A requestedSampleSize of zero selects the configured default and a negative one is a validation error. Validation
// failures are marked with ErrValidation, storage failures with ErrPersistence. Once the run record exists, any
// failure marks the run failed; responses stored before the failure are kept.
func (r *Runner) RunSurvey(
	ctx context.Context,
	surveyID int64,
	personaIDs []int64,
	requestedSampleSize int,
) (*RunResult, error) {
	if len(personaIDs) == 0 {
		return nil, validationError("persona_ids must be a non-empty array")
	}
	if requestedSampleSize < 0 {
		return nil, validationError("sample_size must not be negative")
	}

	seed, err := random.Seed()
	if err != nil {
		return nil, errors.Wrap(err, "generate seed")
	}
	now := r.now()
	run := models.Run{
		ID:              uuid.NewString(),
		SurveyID:        surveyID,
		Status:          models.RunStatusRunning,
		SampleSize:      r.EffectiveSampleSize(requestedSampleSize),
		PersonaIDs:      slices.Clone(personaIDs),
		Model:           r.config.Model,
		Temperature:     r.config.Temperature,
		Seed:            seed,
		EnableRawOutput: r.config.EnableRawOutput,
		CreatedAt:       now,
		StartedAt:       now,
	}
	if err = r.store.CreateRun(ctx, &run); err != nil {
		return nil, persistenceError(err, "create run")
	}

	logger := r.logger.With(slog.String("run_id", run.ID), slog.Int64("survey_id", surveyID))
	logger.LogAttrs(ctx, slog.LevelInfo, "run started",
		slog.Int("sample_size", run.SampleSize), slog.Int("personas", len(personaIDs)))

	result, err := r.execute(ctx, logger, &run, personaIDs)
	if err != nil {
		r.fail(ctx, logger, run.ID, err)
		return nil, err
	}

	r.metrics.observeRun(models.RunStatusSucceeded)
	logger.LogAttrs(ctx, slog.LevelInfo, "run succeeded", slog.Int("results", len(result.Results)))
	return result, nil
}

func (r *Runner) execute(
	ctx context.Context,
	logger *slog.Logger,
	run *models.Run,
	personaIDs []int64,
) (*RunResult, error) {
	questions, err := r.store.ListQuestions(ctx, run.SurveyID)
	if err != nil {
		return nil, persistenceError(err, "list questions")
	}
	personas, err := r.store.ListPersonasByIDs(ctx, personaIDs)
	if err != nil {
		return nil, persistenceError(err, "list personas")
	}
	if len(questions) == 0 {
		return nil, validationError("no questions found")
	}
	slices.SortFunc(questions, func(a, b models.Question) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(personas, func(a, b models.Persona) int { return cmp.Compare(a.ID, b.ID) })

	missing := missingPersonaIDs(personaIDs, personas)
	if len(missing) > 0 {
		logger.LogAttrs(ctx, slog.LevelWarn, "requested personas not found", slog.Any("persona_ids", missing))
	}

	tallies := make([]Tally, len(personas))
	for i, persona := range personas {
		for _, question := range questions {
			if err = r.sampleQuestion(ctx, run, persona, question, &tallies[i]); err != nil {
				return nil, err
			}
		}
	}

	results := make([]models.Result, 0, len(personas))
	for i, persona := range personas {
		summary := Aggregate(tallies[i])
		result := models.Result{
			RunID:              run.ID,
			SurveyID:           run.SurveyID,
			PersonaID:          persona.ID,
			VariantAPreference: summary.VariantAPreference,
			VariantBPreference: summary.VariantBPreference,
			ConfidenceInterval: summary.ConfidenceInterval,
			RationaleClusters:  summary.RationaleClusters,
			CreatedAt:          r.now(),
		}
		if err = r.store.InsertResult(ctx, &result); err != nil {
			return nil, persistenceError(err, "insert result")
		}
		results = append(results, result)
	}

	if err = r.store.FinishRun(ctx, run.ID, models.RunStatusSucceeded, r.now(), ""); err != nil {
		return nil, persistenceError(err, "finish run")
	}

	return &RunResult{
		Message:           runCompleted,
		RunID:             run.ID,
		Results:           results,
		MissingPersonaIDs: missing,
	}, nil
}

// sampleQuestion draws one batch and stores every sample as it is counted.
func (r *Runner) sampleQuestion(
	ctx context.Context,
	run *models.Run,
	persona models.Persona,
	question models.Question,
	tally *Tally,
) error {
	samples, err := r.sampler.Sample(ctx, BatchParams{
		GenerateParams: GenerateParams{
			Persona:         persona,
			QuestionText:    question.QuestionText,
			VariantA:        question.VariantA,
			VariantB:        question.VariantB,
			Model:           run.Model,
			Temperature:     run.Temperature,
			EnableRawOutput: run.EnableRawOutput,
		},
		SampleSize:  run.SampleSize,
		Concurrency: batchConcurrency,
		Retries:     batchRetries,
	})
	if err != nil {
		return errors.Wrap(err, "sample batch")
	}

	for i, sample := range samples {
		response := models.Response{
			RunID:         run.ID,
			SurveyID:      run.SurveyID,
			PersonaID:     persona.ID,
			QuestionID:    question.ID,
			Preference:    sample.Preference,
			Rationale:     sample.Rationale,
			Confidence:    sample.Confidence,
			ResponseIndex: i + 1,
			RawOutput:     sample.RawOutput,
			CreatedAt:     r.now(),
		}
		if err = r.store.InsertResponse(ctx, &response); err != nil {
			return persistenceError(err, "insert response")
		}
		tally.Add(sample)
	}
	return nil
}

// fail marks the run failed. It uses a context detached from ctx so that a cancelled run is still recorded.
func (r *Runner) fail(ctx context.Context, logger *slog.Logger, runID string, cause error) {
	logger.LogAttrs(ctx, slog.LevelError, "run failed", errors.SlogError(cause))
	r.metrics.observeRun(models.RunStatusFailed)

	ctx = context.WithoutCancel(ctx)
	summary := truncateRunes(cause.Error(), maxErrorSummaryLen)
	if err := r.store.FinishRun(ctx, runID, models.RunStatusFailed, r.now(), summary); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "could not mark run failed", errors.SlogError(err))
	}
}

func missingPersonaIDs(requested []int64, found []models.Persona) []int64 {
	var missing []int64
	for _, id := range requested {
		if slices.ContainsFunc(found, func(p models.Persona) bool { return p.ID == id }) {
			continue
		}
		if !slices.Contains(missing, id) {
			missing = append(missing, id)
		}
	}
	return missing
}
