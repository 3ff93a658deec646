package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "spotmaps version 0.1.0 (build: dev)\n", out.String())
}

func TestMigrateCommands(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", dsn)

	run := func(args ...string) string {
		t.Helper()
		cmd := rootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		require.NoError(t, cmd.Execute())
		return out.String()
	}

	run("migrate", "up")
	assert.Equal(t, "schema version 2\n", run("migrate", "status"))
	run("migrate", "down")
	assert.Equal(t, "schema version 1\n", run("migrate", "status"))
}

func TestLoadConfig_File(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
