package repositories

import (
	"context"
	"log/slog"
	"time"

	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/models"
	"github.com/zheruizz/another.ai-app/internal/sqlite"
)

type SurveyRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewSurveyRepository(dbs *sqlite.Database, logger *slog.Logger) *SurveyRepository {
	return &SurveyRepository{
		dbs:    dbs,
		logger: logger.With(slog.String("source", "SurveyRepository")),
	}
}

func (r *SurveyRepository) CreateSurvey(ctx context.Context, projectID int64, name string) (*models.Survey, error) {
	survey := models.Survey{
		ProjectID: projectID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	stmt := `INSERT INTO surveys (project_id, name, created_at) VALUES (:project_id, :name, :created_at)`
	result, err := r.dbs.ReadWrite.NamedExecContext(ctx, stmt, survey)
	if err != nil {
		return nil, errors.Wrap(err, "insert survey", slog.Int64("project_id", projectID))
	}
	if survey.ID, err = result.LastInsertId(); err != nil {
		return nil, errors.Wrap(err, "last insert id")
	}
	return &survey, nil
}

// ListSurveys returns the surveys of a project, or all surveys when projectID is zero.
func (r *SurveyRepository) ListSurveys(ctx context.Context, projectID int64) ([]models.Survey, error) {
	surveys := []models.Survey{}
	stmt := `SELECT id, project_id, name, created_at
FROM surveys
WHERE ? = 0 OR project_id = ?
ORDER BY id`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &surveys, stmt, projectID, projectID); err != nil {
		return nil, errors.Wrap(err, "select surveys", slog.Int64("project_id", projectID))
	}
	return surveys, nil
}

func (r *SurveyRepository) GetSurvey(ctx context.Context, id int64) (*models.Survey, error) {
	var survey models.Survey
	stmt := `SELECT id, project_id, name, created_at FROM surveys WHERE id = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &survey, stmt, id); err != nil {
		return nil, notFoundOr(err, "select survey", slog.Int64("survey_id", id))
	}
	return &survey, nil
}

// DeleteSurvey deletes the survey with its questions, runs, responses and results.
func (r *SurveyRepository) DeleteSurvey(ctx context.Context, id int64) error {
	result, err := r.dbs.ReadWrite.ExecContext(ctx, `DELETE FROM surveys WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete survey", slog.Int64("survey_id", id))
	}
	return requireAffected(result, slog.Int64("survey_id", id))
}

func (r *SurveyRepository) AddQuestion(
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
VALUES (:survey_id, :question_text, :variant_a, :variant_b, :created_at)`
	result, err := r.dbs.ReadWrite.NamedExecContext(ctx, stmt, question)
	if err != nil {
		return nil, errors.Wrap(err, "insert question", slog.Int64("survey_id", surveyID))
	}
	if question.ID, err = result.LastInsertId(); err != nil {
		return nil, errors.Wrap(err, "last insert id")
	}
	return &question, nil
}

// ListQuestions returns the questions of a survey in ascending id order.
func (r *SurveyRepository) ListQuestions(ctx context.Context, surveyID int64) ([]models.Question, error) {
	questions := []models.Question{}
	stmt := `SELECT id, survey_id, question_text, variant_a, variant_b, created_at
FROM survey_questions
WHERE survey_id = ?
ORDER BY id`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &questions, stmt, surveyID); err != nil {
		return nil, errors.Wrap(err, "select questions", slog.Int64("survey_id", surveyID))
	}
	return questions, nil
}
