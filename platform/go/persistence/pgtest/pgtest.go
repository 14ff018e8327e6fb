// Package pgtest starts a throwaway Postgres for integration tests and applies the
// embedded schema to it.
package pgtest

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/benchline/lims-core/platform/go/persistence"
)

const (
	Schema  = "lims"
	AppRole = "lims_app"
)

// Env bundles what integration tests need from a bootstrapped database.
type Env struct {
	ConnString string
	Pool       *pgxpool.Pool
	SessionDB  *persistence.SessionDB
}

// Start runs postgres:16-alpine, bootstraps the schema and app role, and registers cleanup.
// It skips the test in short mode.
func Start(t *testing.T) Env {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("lims"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2*time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pgContainer.Terminate(context.Background())
	})

	connString, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: connString, SearchPath: Schema})
	require.NoError(t, err)
	t.Cleanup(func() { persistence.ClosePool(pool) })

	require.NoError(t, persistence.BootstrapSchema(ctx, pool, persistence.BootstrapConfig{
		Schema:  Schema,
		AppRole: AppRole,
	}))

	return Env{
		ConnString: connString,
		Pool:       pool,
		SessionDB:  persistence.NewSessionDB(persistence.SessionDBConfig{Pool: pool, AppRole: AppRole}),
	}
}
