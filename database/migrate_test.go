package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsCreateSchema(t *testing.T) {
	t.Parallel()

	db, cleanup := SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	// Defaults: generated id, active true, both timestamps set.
	var (
		id        uuid.UUID
		active    bool
		createdAt time.Time
		updatedAt time.Time
	)
	err := db.QueryRow(ctx, `
		INSERT INTO dag_bundles (name) VALUES ('my-bundle')
		RETURNING id, active, created_at, updated_at`).
		Scan(&id, &active, &createdAt, &updatedAt)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, id)
	assert.True(t, active)
	assert.False(t, createdAt.IsZero())
	assert.False(t, updatedAt.IsZero())

	// Bundle names are unique.
	_, err = db.Exec(ctx, `INSERT INTO dag_bundles (name) VALUES ('my-bundle')`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")
}
