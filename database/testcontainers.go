package database

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	tclog "github.com/testcontainers/testcontainers-go/log"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

type nopLogger struct{}

func (*nopLogger) Printf(_ string, _ ...any) {}

var _ tclog.Logger = (*nopLogger)(nil)

var (
	dbName = "testdb"
	dbUser = "testuser"
	dbPass = "testpass"
)

// startTestPostgres starts a migrated Postgres container and returns its
// connection string plus a container cleanup.
func startTestPostgres(t *testing.T) (string, func()) {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPass),
		postgres.BasicWaitStrategies(),
		tc.WithLogger(&nopLogger{}),
	)
	require.NoError(t, err)

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := pgx.Connect(ctx, connStr)
	require.NoError(t, err)

	// Apply, roll back, and reapply the migrations so the down path stays
	// exercised.
	require.NoError(t, MigrateUp(ctx, conn))
	require.NoError(t, MigrateDown(ctx, conn))
	require.NoError(t, MigrateUp(ctx, conn))
	require.NoError(t, conn.Close(ctx))

	return connStr, func() {
		tc.CleanupContainer(t, postgresContainer)
	}
}

// SetupTestDB creates a Postgres container using testcontainers, runs
// migrations, and returns a single connection.
func SetupTestDB(t *testing.T) (*pgx.Conn, func()) {
	t.Helper()

	connStr, cleanupContainer := startTestPostgres(t)

	db, err := pgx.Connect(context.Background(), connStr)
	require.NoError(t, err)

	cleanupFunc := func() {
		_ = db.Close(context.Background())
		cleanupContainer()
	}

	return db, cleanupFunc
}

// SetupTestPool creates a Postgres container using testcontainers, runs
// migrations, and returns a connection pool.
func SetupTestPool(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()

	connStr, cleanupContainer := startTestPostgres(t)

	pool, err := pgxpool.New(context.Background(), connStr)
	require.NoError(t, err)

	cleanupFunc := func() {
		pool.Close()
		cleanupContainer()
	}

	return pool, cleanupFunc
}
