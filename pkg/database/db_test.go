package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv_DefaultsToSQLite(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_MAX_CONNS", "")

	cfg := ConfigFromEnv()
	assert.Equal(t, DriverSQLite, cfg.Driver)
	assert.Contains(t, cfg.DSN, ".data/spotmaps.db")
	assert.Equal(t, 5, cfg.MaxConns)
}

func TestConfigFromEnv_Postgres(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_MAX_CONNS", "12")

	cfg := ConfigFromEnv()
	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.Contains(t, cfg.DSN, "postgres://")
	assert.Equal(t, 12, cfg.MaxConns)
}

func TestConnect_RejectsUnknownDriver(t *testing.T) {
	_, err := Connect(Config{Driver: "mysql", DSN: "x"})
	require.Error(t, err)
}

func TestConnectAndMigrate_FileDatabase(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "nested", "spotmaps.db")
	db, err := Connect(Config{Driver: DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db, nil))
	// second run is a no-op
	require.NoError(t, Migrate(ctx, db, nil))

	v, err := MigrationVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	for _, table := range []string{"users", "spots", "analytics"} {
		var n int
		err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}

	require.NoError(t, MigrateDown(ctx, db, nil))
	v, err = MigrationVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestEnsureSQLiteDir_SkipsMemory(t *testing.T) {
	assert.NoError(t, ensureSQLiteDir(":memory:"))
	assert.NoError(t, ensureSQLiteDir("file::memory:?cache=shared"))
}

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, `'UTC'`, quoteLiteral("UTC"))
	assert.Equal(t, `'it''s'`, quoteLiteral("it's"))
}
