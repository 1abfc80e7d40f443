package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresIntegrationEnv opts in to tests that start a PostgreSQL container.
const PostgresIntegrationEnv = "SYNTHPANEL_PG_INTEGRATION"

// StartPostgres runs a throwaway PostgreSQL container and returns its connection string. The container is
// terminated when the test finishes. The test is skipped unless PostgresIntegrationEnv is set.
func StartPostgres(t *testing.T) string {
	t.Helper()
	if os.Getenv(PostgresIntegrationEnv) == "" {
		t.Skipf("set %s=1 to run PostgreSQL integration tests", PostgresIntegrationEnv)
	}

	ctx := context.Background()
	c, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("synthpanel"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, c)
	require.NoError(t, err)

	url, err := c.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return url
}
