// Package pgstore stores projects, personas, surveys and runs in PostgreSQL.
package pgstore

import (
	"context"
	"embed"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDirectory = "migrations"

// pool is the subset of pgxpool.Pool used by the store, so tests can substitute pgxmock.
type pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

type Store struct {
	pool   pool
	logger *slog.Logger
}

// New connects to the database at url and applies pending migrations.
func New(ctx context.Context, url string, logger *slog.Logger) (*Store, error) {
	dbpool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "create connection pool")
	}
	if err = dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	if err = migrate(ctx, dbpool, logger); err != nil {
		dbpool.Close()
		return nil, err
	}
	return newStore(dbpool, logger), nil
}

func newStore(p pool, logger *slog.Logger) *Store {
	return &Store{
		pool:   p,
		logger: logger.With(slog.String("source", "pgstore")),
	}
}

func migrate(ctx context.Context, dbpool *pgxpool.Pool, logger *slog.Logger) error {
	db := stdlib.OpenDBFromPool(dbpool)
	defer func() {
		if err := db.Close(); err != nil {
			logger.LogAttrs(ctx, slog.LevelError, "could not close migration connection",
				errors.SlogError(errors.Wrap(err, "close migration connection")))
		}
	}()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "migrations starting")
	if err := goose.UpContext(ctx, db, migrationsDirectory); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// notFoundOr translates pgx.ErrNoRows to models.ErrNotFound and wraps everything else.
func notFoundOr(err error, msg string, attrs ...slog.Attr) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errors.Wrap(models.ErrNotFound, msg, attrs...)
	}
	return errors.Wrap(err, msg, attrs...)
}

func requireAffected(tag pgconn.CommandTag, attrs ...slog.Attr) error {
	if tag.RowsAffected() == 0 {
		return errors.Wrap(models.ErrNotFound, "no rows affected", attrs...)
	}
	return nil
}

// collect scans all rows into T by matching column names to db struct tags.
func collect[T any](rows pgx.Rows, err error) ([]T, error) {
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, errors.Wrap(err, "collect rows")
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// collectOne scans exactly one row into T.
func collectOne[T any](rows pgx.Rows, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, errors.Wrap(err, "query")
	}
	item, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		return zero, err //nolint:wrapcheck // callers translate pgx.ErrNoRows
	}
	return item, nil
}
