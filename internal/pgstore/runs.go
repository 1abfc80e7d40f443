package pgstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/models"
)

const (
	runColumns = `id, survey_id, status, sample_size, persona_ids, model, temperature, seed, enable_raw_output,
       error_summary, created_at, started_at, finished_at`
	resultColumns = `id, run_id, survey_id, persona_id, variant_a_preference, variant_b_preference,
       confidence_interval, rationale_clusters, created_at`
)

func (s *Store) CreateRun(ctx context.Context, run *models.Run) error {
	stmt := `INSERT INTO survey_runs (id, survey_id, status, sample_size, persona_ids, model, temperature, seed,
                         enable_raw_output, error_summary, created_at, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	if _, err := s.pool.Exec(ctx, stmt, run.ID, run.SurveyID, string(run.Status), run.SampleSize, run.PersonaIDs,
		run.Model, run.Temperature, run.Seed, run.EnableRawOutput, run.ErrorSummary, run.CreatedAt, run.StartedAt,
		run.FinishedAt); err != nil {
		return errors.Wrap(err, "insert run", slog.String("run_id", run.ID))
	}
	return nil
}

func (s *Store) InsertResponse(ctx context.Context, response *models.Response) error {
	stmt := `INSERT INTO survey_responses (run_id, survey_id, persona_id, question_id, variant_preference, rationale,
                              confidence_score, response_index, raw_output, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id`
	if err := s.pool.QueryRow(ctx, stmt, response.RunID, response.SurveyID, response.PersonaID, response.QuestionID,
		string(response.Preference), response.Rationale, response.Confidence, response.ResponseIndex,
		response.RawOutput, response.CreatedAt).Scan(&response.ID); err != nil {
		return errors.Wrap(err, "insert response", slog.String("run_id", response.RunID))
	}
	return nil
}

func (s *Store) InsertResult(ctx context.Context, result *models.Result) error {
	if result.RationaleClusters == nil {
		result.RationaleClusters = models.RationaleClusters{}
	}
	stmt := `INSERT INTO survey_results (run_id, survey_id, persona_id, variant_a_preference, variant_b_preference,
                            confidence_interval, rationale_clusters, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`
	if err := s.pool.QueryRow(ctx, stmt, result.RunID, result.SurveyID, result.PersonaID, result.VariantAPreference,
		result.VariantBPreference, result.ConfidenceInterval, result.RationaleClusters, result.CreatedAt).
		Scan(&result.ID); err != nil {
		return errors.Wrap(err, "insert result", slog.String("run_id", result.RunID))
	}
	return nil
}

// FinishRun moves a running run to a terminal status. It returns models.ErrNotFound when no running run has the id.
func (s *Store) FinishRun(
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
SET status = $1, finished_at = $2, error_summary = NULLIF($3, '')
WHERE id = $4 AND status = 'running'`
	tag, err := s.pool.Exec(ctx, stmt, string(status), finishedAt.UTC(), errorSummary, runID)
	if err != nil {
		return errors.Wrap(err, "update run", slog.String("run_id", runID))
	}
	return requireAffected(tag, slog.String("run_id", runID))
}

func (s *Store) GetRun(ctx context.Context, runID string) (*models.Run, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+runColumns+` FROM survey_runs WHERE id = $1`, runID)
	run, err := collectOne[models.Run](rows, err)
	if err != nil {
		return nil, notFoundOr(err, "select run", slog.String("run_id", runID))
	}
	return &run, nil
}

func (s *Store) ListResults(ctx context.Context, surveyID int64) ([]models.Result, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+resultColumns+` FROM survey_results WHERE survey_id = $1 ORDER BY id`,
		surveyID)
	results, err := collect[models.Result](rows, err)
	if err != nil {
		return nil, errors.Wrap(err, "select results", slog.Int64("survey_id", surveyID))
	}
	return results, nil
}

func (s *Store) ListRunResults(ctx context.Context, runID string) ([]models.Result, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+resultColumns+` FROM survey_results WHERE run_id = $1 ORDER BY id`,
		runID)
	results, err := collect[models.Result](rows, err)
	if err != nil {
		return nil, errors.Wrap(err, "select run results", slog.String("run_id", runID))
	}
	return results, nil
}

func (s *Store) CountResponses(ctx context.Context, runID string) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM survey_responses WHERE run_id = $1`, runID).
		Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count responses", slog.String("run_id", runID))
	}
	return count, nil
}
