package pgstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/models"
)

const personaColumns = `id, name, role, description, avatar_url, traits, created_at, updated_at`

func (s *Store) CreatePersona(ctx context.Context, persona models.Persona) (*models.Persona, error) {
	now := time.Now().UTC()
	persona.CreatedAt = now
	persona.UpdatedAt = now
	if persona.Traits == nil {
		persona.Traits = models.Traits{}
	}
	stmt := `INSERT INTO personas (name, role, description, avatar_url, traits, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`
	if err := s.pool.QueryRow(ctx, stmt, persona.Name, persona.Role, persona.Description, persona.AvatarURL,
		persona.Traits, persona.CreatedAt, persona.UpdatedAt).Scan(&persona.ID); err != nil {
		return nil, errors.Wrap(err, "insert persona")
	}
	return &persona, nil
}

func (s *Store) ListPersonas(ctx context.Context) ([]models.Persona, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+personaColumns+` FROM personas ORDER BY id`)
	personas, err := collect[models.Persona](rows, err)
	if err != nil {
		return nil, errors.Wrap(err, "select personas")
	}
	return personas, nil
}

func (s *Store) GetPersona(ctx context.Context, id int64) (*models.Persona, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+personaColumns+` FROM personas WHERE id = $1`, id)
	persona, err := collectOne[models.Persona](rows, err)
	if err != nil {
		return nil, notFoundOr(err, "select persona", slog.Int64("persona_id", id))
	}
	return &persona, nil
}

// ListPersonasByIDs returns the existing personas among ids in ascending id order. Unknown ids are skipped.
func (s *Store) ListPersonasByIDs(ctx context.Context, ids []int64) ([]models.Persona, error) {
	if len(ids) == 0 {
		return []models.Persona{}, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT `+personaColumns+` FROM personas WHERE id = ANY($1) ORDER BY id`, ids)
	personas, err := collect[models.Persona](rows, err)
	if err != nil {
		return nil, errors.Wrap(err, "select personas by id")
	}
	return personas, nil
}

func (s *Store) DeletePersona(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM personas WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete persona", slog.Int64("persona_id", id))
	}
	return requireAffected(tag, slog.Int64("persona_id", id))
}
