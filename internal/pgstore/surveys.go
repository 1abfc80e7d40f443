package pgstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/models"
)

func (s *Store) CreateSurvey(ctx context.Context, projectID int64, name string) (*models.Survey, error) {
	survey := models.Survey{ProjectID: projectID, Name: name, CreatedAt: time.Now().UTC()}
	stmt := `INSERT INTO surveys (project_id, name, created_at) VALUES ($1, $2, $3) RETURNING id`
	if err := s.pool.QueryRow(ctx, stmt, projectID, name, survey.CreatedAt).Scan(&survey.ID); err != nil {
		return nil, errors.Wrap(err, "insert survey", slog.Int64("project_id", projectID))
	}
	return &survey, nil
}

// ListSurveys returns the surveys of a project, or all surveys when projectID is zero.
func (s *Store) ListSurveys(ctx context.Context, projectID int64) ([]models.Survey, error) {
	stmt := `SELECT id, project_id, name, created_at
FROM surveys
WHERE $1 = 0 OR project_id = $1
ORDER BY id`
	rows, err := s.pool.Query(ctx, stmt, projectID)
	surveys, err := collect[models.Survey](rows, err)
	if err != nil {
		return nil, errors.Wrap(err, "select surveys", slog.Int64("project_id", projectID))
	}
	return surveys, nil
}

func (s *Store) GetSurvey(ctx context.Context, id int64) (*models.Survey, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, project_id, name, created_at FROM surveys WHERE id = $1`, id)
	survey, err := collectOne[models.Survey](rows, err)
	if err != nil {
		return nil, notFoundOr(err, "select survey", slog.Int64("survey_id", id))
	}
	return &survey, nil
}

func (s *Store) DeleteSurvey(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM surveys WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete survey", slog.Int64("survey_id", id))
	}
	return requireAffected(tag, slog.Int64("survey_id", id))
}

func (s *Store) AddQuestion(
	ctx context.Context,
	surveyID int64,
	questionText string,
	variantA string,
	variantB string,
) (*models.Question, error) {
	question := models.Question{
		SurveyID:     surveyID,
		QuestionText: questionText,
		VariantA:     variantA,
		VariantB:     variantB,
		CreatedAt:    time.Now().UTC(),
	}
	stmt := `INSERT INTO survey_questions (survey_id, question_text, variant_a, variant_b, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`
	if err := s.pool.QueryRow(ctx, stmt, surveyID, questionText, variantA, variantB, question.CreatedAt).
		Scan(&question.ID); err != nil {
		return nil, errors.Wrap(err, "insert question", slog.Int64("survey_id", surveyID))
	}
	return &question, nil
}

// ListQuestions returns the questions of a survey in ascending id order.
func (s *Store) ListQuestions(ctx context.Context, surveyID int64) ([]models.Question, error) {
	stmt := `SELECT id, survey_id, question_text, variant_a, variant_b, created_at
FROM survey_questions
WHERE survey_id = $1
ORDER BY id`
	rows, err := s.pool.Query(ctx, stmt, surveyID)
	questions, err := collect[models.Question](rows, err)
	if err != nil {
		return nil, errors.Wrap(err, "select questions", slog.Int64("survey_id", surveyID))
	}
	return questions, nil
}
