// Package dbtest opens migrated in-memory SQLite databases for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-spotmaps-go/pkg/database"
)

// New returns a fresh in-memory database with every migration applied.
func New(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db, nil))
	return db
}
