package repositories_test

import (
	"context"
	"io"
	"testing"

	"github.com/zheruizz/another.ai-app/internal/repositories"
	"github.com/zheruizz/another.ai-app/internal/sqlite"
	"github.com/zheruizz/another.ai-app/internal/testhelpers"
)

// newTestStore creates a store backed by a new in-memory database with the demo fixtures.
func newTestStore(t *testing.T) *repositories.Store {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	logger := testhelpers.NewLogger(io.Discard)

	dbs, err := sqlite.NewDatabase(ctx, ":memory:", logger)
	if err != nil {
		cancel()
		t.Fatal(err)
	}

	t.Cleanup(func() {
		cancel()
		if err = dbs.Close(); err != nil {
			t.Fatal(err)
		}
	})

	return repositories.NewStore(dbs, logger)
}
