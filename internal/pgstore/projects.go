package pgstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/models"
)

func (s *Store) CreateProject(ctx context.Context, name string, description string) (*models.Project, error) {
	project := models.Project{Name: name, Description: description, CreatedAt: time.Now().UTC()}
	stmt := `INSERT INTO projects (name, description, created_at) VALUES ($1, $2, $3) RETURNING id`
	if err := s.pool.QueryRow(ctx, stmt, name, description, project.CreatedAt).Scan(&project.ID); err != nil {
		return nil, errors.Wrap(err, "insert project")
	}
	return &project, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, description, created_at FROM projects ORDER BY id`)
	projects, err := collect[models.Project](rows, err)
	if err != nil {
		return nil, errors.Wrap(err, "select projects")
	}
	return projects, nil
}

func (s *Store) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, description, created_at FROM projects WHERE id = $1`, id)
	project, err := collectOne[models.Project](rows, err)
	if err != nil {
		return nil, notFoundOr(err, "select project", slog.Int64("project_id", id))
	}
	return &project, nil
}

func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete project", slog.Int64("project_id", id))
	}
	return requireAffected(tag, slog.Int64("project_id", id))
}
