package repositories

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/models"
	"github.com/zheruizz/another.ai-app/internal/sqlite"
)

const personaColumns = `id, name, role, description, avatar_url, traits, created_at, updated_at`

type PersonaRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewPersonaRepository(dbs *sqlite.Database, logger *slog.Logger) *PersonaRepository {
	return &PersonaRepository{
		dbs:    dbs,
		logger: logger.With(slog.String("source", "PersonaRepository")),
	}
}

// CreatePersona stores persona and returns it with the generated id and timestamps.
func (r *PersonaRepository) CreatePersona(ctx context.Context, persona models.Persona) (*models.Persona, error) {
	now := time.Now().UTC()
	persona.CreatedAt = now
	persona.UpdatedAt = now
	if persona.Traits == nil {
		persona.Traits = models.Traits{}
	}
	stmt := `INSERT INTO personas (name, role, description, avatar_url, traits, created_at, updated_at)
VALUES (:name, :role, :description, :avatar_url, :traits, :created_at, :updated_at)`
	result, err := r.dbs.ReadWrite.NamedExecContext(ctx, stmt, persona)
	if err != nil {
		return nil, errors.Wrap(err, "insert persona")
	}
	if persona.ID, err = result.LastInsertId(); err != nil {
		return nil, errors.Wrap(err, "last insert id")
	}
	return &persona, nil
}

func (r *PersonaRepository) ListPersonas(ctx context.Context) ([]models.Persona, error) {
	personas := []models.Persona{}
	stmt := `SELECT ` + personaColumns + ` FROM personas ORDER BY id`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &personas, stmt); err != nil {
		return nil, errors.Wrap(err, "select personas")
	}
	return personas, nil
}

func (r *PersonaRepository) GetPersona(ctx context.Context, id int64) (*models.Persona, error) {
	var persona models.Persona
	stmt := `SELECT ` + personaColumns + ` FROM personas WHERE id = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &persona, stmt, id); err != nil {
		return nil, notFoundOr(err, "select persona", slog.Int64("persona_id", id))
	}
	return &persona, nil
}

// ListPersonasByIDs returns the existing personas among ids in ascending id order. Unknown ids are skipped.
func (r *PersonaRepository) ListPersonasByIDs(ctx context.Context, ids []int64) ([]models.Persona, error) {
	personas := []models.Persona{}
	if len(ids) == 0 {
		return personas, nil
	}
	query, args, err := sqlx.In(`SELECT `+personaColumns+` FROM personas WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "expand persona ids")
	}
	if err = r.dbs.ReadOnly.SelectContext(ctx, &personas, r.dbs.ReadOnly.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "select personas by id")
	}
	return personas, nil
}

func (r *PersonaRepository) DeletePersona(ctx context.Context, id int64) error {
	result, err := r.dbs.ReadWrite.ExecContext(ctx, `DELETE FROM personas WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete persona", slog.Int64("persona_id", id))
	}
	return requireAffected(result, slog.Int64("persona_id", id))
}
