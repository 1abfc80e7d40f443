package pgstore

import (
	"context"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/models"
	"github.com/zheruizz/another.ai-app/internal/testhelpers"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return newStore(mock, testhelpers.NewLogger(io.Discard)), mock
}

func TestStore_CreateProject(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO projects")).
		WithArgs("Launch", "pricing page", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	project, err := store.CreateProject(context.Background(), "Launch", "pricing page")
	require.NoError(t, err)
	require.Equal(t, int64(7), project.ID)
	require.Equal(t, "Launch", project.Name)
	require.False(t, project.CreatedAt.IsZero())
}

func TestStore_GetProject(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		name    string
		rows    *pgxmock.Rows
		wantErr error
	}{
		{
			name:    "found",
			rows:    pgxmock.NewRows([]string{"id", "name", "description", "created_at"}).AddRow(int64(1), "p", "", now),
			wantErr: nil,
		},
		{
			name:    "missing",
			rows:    pgxmock.NewRows([]string{"id", "name", "description", "created_at"}),
			wantErr: models.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			mock.ExpectQuery(regexp.QuoteMeta("FROM projects WHERE id = $1")).
				WithArgs(int64(1)).
				WillReturnRows(tt.rows)

			project, err := store.GetProject(context.Background(), 1)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "p", project.Name)
		})
	}
}

func TestStore_DeletePersona(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM personas")).
			WithArgs(int64(3)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		require.NoError(t, store.DeletePersona(context.Background(), 3))
	})

	t.Run("missing", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM personas")).
			WithArgs(int64(3)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		require.ErrorIs(t, store.DeletePersona(context.Background(), 3), models.ErrNotFound)
	})
}

func TestStore_ListPersonasByIDs(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ANY($1)")).
		WithArgs([]int64{2, 1}).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "role", "description", "avatar_url", "traits", "created_at", "updated_at",
		}).
			AddRow(int64(1), "Luxury Buyer", null.StringFrom("Shopper"), null.String{}, null.String{},
				models.Traits{}, now, now).
			AddRow(int64(2), "Value Seeker", null.StringFrom("Shopper"), null.String{}, null.String{},
				models.Traits{"budget": "low"}, now, now))

	personas, err := store.ListPersonasByIDs(context.Background(), []int64{2, 1})
	require.NoError(t, err)
	require.Len(t, personas, 2)
	require.Equal(t, "Luxury Buyer", personas[0].Name)
	require.Equal(t, "low", personas[1].Traits["budget"])

	empty, err := store.ListPersonasByIDs(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestStore_ListQuestions_QueryError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM survey_questions")).
		WithArgs(int64(5)).
		WillReturnError(errors.New("connection reset"))

	_, err := store.ListQuestions(context.Background(), 5)
	require.ErrorContains(t, err, "connection reset")
}

func TestStore_FinishRun(t *testing.T) {
	finishedAt := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("marks running run finished", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE survey_runs")).
			WithArgs("failed", finishedAt, "model unavailable", "run-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		require.NoError(t, store.FinishRun(context.Background(), "run-1", models.RunStatusFailed, finishedAt,
			"model unavailable"))
	})

	t.Run("already finished", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE survey_runs")).
			WithArgs("succeeded", finishedAt, "", "run-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		err := store.FinishRun(context.Background(), "run-1", models.RunStatusSucceeded, finishedAt, "")
		require.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("rejects non-terminal status", func(t *testing.T) {
		store, _ := newMockStore(t)
		err := store.FinishRun(context.Background(), "run-1", models.RunStatusRunning, finishedAt, "")
		require.Error(t, err)
	})
}

func TestStore_InsertResponse(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	response := models.Response{
		RunID:         "run-1",
		SurveyID:      1,
		PersonaID:     2,
		QuestionID:    3,
		Preference:    models.VariantB,
		Rationale:     "cheaper",
		Confidence:    0.8,
		ResponseIndex: 1,
		CreatedAt:     now,
	}
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO survey_responses")).
		WithArgs("run-1", int64(1), int64(2), int64(3), "B", "cheaper", 0.8, 1, null.String{}, now).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))

	require.NoError(t, store.InsertResponse(context.Background(), &response))
	require.Equal(t, int64(11), response.ID)
}

func TestStore_GetRun(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM survey_runs WHERE id = $1")).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "survey_id", "status", "sample_size", "persona_ids", "model", "temperature", "seed",
			"enable_raw_output", "error_summary", "created_at", "started_at", "finished_at",
		}).AddRow("run-1", int64(1), models.RunStatusSucceeded, 20, models.IDList{1, 2}, "gpt-4o-mini", 0.7,
			int64(42), false, null.String{}, now, now, null.TimeFrom(now)))

	run, err := store.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.Equal(t, models.RunStatusSucceeded, run.Status)
	require.Equal(t, models.IDList{1, 2}, run.PersonaIDs)
	require.True(t, run.FinishedAt.Valid)
}

func TestStore_CountResponses(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM survey_responses")).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(40))

	count, err := store.CountResponses(context.Background(), "run-1")
	require.NoError(t, err)
	require.Equal(t, 40, count)
}

func TestNotFoundOr(t *testing.T) {
	require.ErrorIs(t, notFoundOr(pgx.ErrNoRows, "select"), models.ErrNotFound)
	err := notFoundOr(errors.New("boom"), "select")
	require.NotErrorIs(t, err, models.ErrNotFound)
}
