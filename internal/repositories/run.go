package repositories

import (
	"context"
	"log/slog"
	"time"

	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/models"
	"github.com/zheruizz/another.ai-app/internal/sqlite"
)

const (
	runColumns = `id, survey_id, status, sample_size, persona_ids, model, temperature, seed, enable_raw_output,
       error_summary, created_at, started_at, finished_at`
	resultColumns = `id, run_id, survey_id, persona_id, variant_a_preference, variant_b_preference,
       confidence_interval, rationale_clusters, created_at`
)

// RunRepository stores survey runs and what they produce. Responses and results are append-only.
type RunRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewRunRepository(dbs *sqlite.Database, logger *slog.Logger) *RunRepository {
	return &RunRepository{
		dbs:    dbs,
		logger: logger.With(slog.String("source", "RunRepository")),
	}
}

func (r *RunRepository) CreateRun(ctx context.Context, run *models.Run) error {
	stmt := `INSERT INTO survey_runs (id, survey_id, status, sample_size, persona_ids, model, temperature, seed,
                         enable_raw_output, error_summary, created_at, started_at, finished_at)
VALUES (:id, :survey_id, :status, :sample_size, :persona_ids, :model, :temperature, :seed,
        :enable_raw_output, :error_summary, :created_at, :started_at, :finished_at)`
	if _, err := r.dbs.ReadWrite.NamedExecContext(ctx, stmt, run); err != nil {
		return errors.Wrap(err, "insert run", slog.String("run_id", run.ID))
	}
	return nil
}

// InsertResponse appends a response and sets its id.
func (r *RunRepository) InsertResponse(ctx context.Context, response *models.Response) error {
	stmt := `INSERT INTO survey_responses (run_id, survey_id, persona_id, question_id, variant_preference, rationale,
                              confidence_score, response_index, raw_output, created_at)
VALUES (:run_id, :survey_id, :persona_id, :question_id, :variant_preference, :rationale,
        :confidence_score, :response_index, :raw_output, :created_at)`
	result, err := r.dbs.ReadWrite.NamedExecContext(ctx, stmt, response)
	if err != nil {
		return errors.Wrap(err, "insert response", slog.String("run_id", response.RunID))
	}
	if response.ID, err = result.LastInsertId(); err != nil {
		return errors.Wrap(err, "last insert id")
	}
	return nil
}

// InsertResult appends a result and sets its id.
func (r *RunRepository) InsertResult(ctx context.Context, res *models.Result) error {
	if res.RationaleClusters == nil {
		res.RationaleClusters = models.RationaleClusters{}
	}
	stmt := `INSERT INTO survey_results (run_id, survey_id, persona_id, variant_a_preference, variant_b_preference,
                            confidence_interval, rationale_clusters, created_at)
VALUES (:run_id, :survey_id, :persona_id, :variant_a_preference, :variant_b_preference,
        :confidence_interval, :rationale_clusters, :created_at)`
	result, err := r.dbs.ReadWrite.NamedExecContext(ctx, stmt, res)
	if err != nil {
		return errors.Wrap(err, "insert result", slog.String("run_id", res.RunID))
	}
	if res.ID, err = result.LastInsertId(); err != nil {
		return errors.Wrap(err, "last insert id")
	}
	return nil
}

// FinishRun moves a running run to a terminal status. It returns models.ErrNotFound when no running run has the id.
func (r *RunRepository) FinishRun(
	ctx context.Context,
	runID string,
	status models.RunStatus,
	finishedAt time.Time,
	errorSummary string,
) error {
	if !status.Terminal() {
		return errors.New("finish run with non-terminal status", slog.String("status", string(status)))
	}
	stmt := `UPDATE survey_runs
SET status = ?, finished_at = ?, error_summary = NULLIF(?, '')
WHERE id = ? AND status = 'running'`
	result, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, status, finishedAt.UTC(), errorSummary, runID)
	if err != nil {
		return errors.Wrap(err, "update run", slog.String("run_id", runID))
	}
	return requireAffected(result, slog.String("run_id", runID))
}

func (r *RunRepository) GetRun(ctx context.Context, runID string) (*models.Run, error) {
	var run models.Run
	stmt := `SELECT ` + runColumns + ` FROM survey_runs WHERE id = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &run, stmt, runID); err != nil {
		return nil, notFoundOr(err, "select run", slog.String("run_id", runID))
	}
	return &run, nil
}

// ListResults returns every stored result of a survey across its runs, oldest first.
func (r *RunRepository) ListResults(ctx context.Context, surveyID int64) ([]models.Result, error) {
	results := []models.Result{}
	stmt := `SELECT ` + resultColumns + ` FROM survey_results WHERE survey_id = ? ORDER BY id`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &results, stmt, surveyID); err != nil {
		return nil, errors.Wrap(err, "select results", slog.Int64("survey_id", surveyID))
	}
	return results, nil
}

func (r *RunRepository) ListRunResults(ctx context.Context, runID string) ([]models.Result, error) {
	results := []models.Result{}
	stmt := `SELECT ` + resultColumns + ` FROM survey_results WHERE run_id = ? ORDER BY id`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &results, stmt, runID); err != nil {
		return nil, errors.Wrap(err, "select run results", slog.String("run_id", runID))
	}
	return results, nil
}

func (r *RunRepository) CountResponses(ctx context.Context, runID string) (int, error) {
	var count int
	stmt := `SELECT count(*) FROM survey_responses WHERE run_id = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &count, stmt, runID); err != nil {
		return 0, errors.Wrap(err, "count responses", slog.String("run_id", runID))
	}
	return count, nil
}
