package repositories

import (
	"log/slog"

	"github.com/zheruizz/another.ai-app/internal/sqlite"
)

// Store bundles the SQLite repositories behind a single value.
type Store struct {
	*ProjectRepository
	*PersonaRepository
	*SurveyRepository
	*RunRepository
}

func NewStore(dbs *sqlite.Database, logger *slog.Logger) *Store {
	return &Store{
		ProjectRepository: NewProjectRepository(dbs, logger),
		PersonaRepository: NewPersonaRepository(dbs, logger),
		SurveyRepository:  NewSurveyRepository(dbs, logger),
		RunRepository:     NewRunRepository(dbs, logger),
	}
}
