package repositories

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/models"
	"github.com/zheruizz/another.ai-app/internal/sqlite"
)

type ProjectRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewProjectRepository(dbs *sqlite.Database, logger *slog.Logger) *ProjectRepository {
	return &ProjectRepository{
		dbs:    dbs,
		logger: logger.With(slog.String("source", "ProjectRepository")),
	}
}

func (r *ProjectRepository) CreateProject(ctx context.Context, name string, description string) (*models.Project, error) {
	project := models.Project{
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	stmt := `INSERT INTO projects (name, description, created_at) VALUES (:name, :description, :created_at)`
	result, err := r.dbs.ReadWrite.NamedExecContext(ctx, stmt, project)
	if err != nil {
		return nil, errors.Wrap(err, "insert project")
	}
	if project.ID, err = result.LastInsertId(); err != nil {
		return nil, errors.Wrap(err, "last insert id")
	}
	return &project, nil
}

func (r *ProjectRepository) ListProjects(ctx context.Context) ([]models.Project, error) {
	projects := []models.Project{}
	stmt := `SELECT id, name, description, created_at FROM projects ORDER BY id`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &projects, stmt); err != nil {
		return nil, errors.Wrap(err, "select projects")
	}
	return projects, nil
}

func (r *ProjectRepository) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	var project models.Project
	stmt := `SELECT id, name, description, created_at FROM projects WHERE id = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &project, stmt, id); err != nil {
		return nil, notFoundOr(err, "select project", slog.Int64("project_id", id))
	}
	return &project, nil
}

// DeleteProject deletes the project with its surveys, runs, responses and results.
func (r *ProjectRepository) DeleteProject(ctx context.Context, id int64) error {
	result, err := r.dbs.ReadWrite.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete project", slog.Int64("project_id", id))
	}
	return requireAffected(result, slog.Int64("project_id", id))
}

// notFoundOr translates sql.ErrNoRows to models.ErrNotFound and wraps everything else.
func notFoundOr(err error, msg string, attrs ...slog.Attr) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(models.ErrNotFound, msg, attrs...)
	}
	return errors.Wrap(err, msg, attrs...)
}

// requireAffected returns models.ErrNotFound when the statement changed no rows.
func requireAffected(result sql.Result, attrs ...slog.Attr) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return errors.Wrap(models.ErrNotFound, "no rows affected", attrs...)
	}
	return nil
}
