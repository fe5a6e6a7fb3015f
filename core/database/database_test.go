package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigNormalize(t *testing.T) {
	cfg := Config{Host: "db", Name: "likes"}
	require.NoError(t, cfg.Normalize())
	assert.Equal(t, "5432", cfg.Port)
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.Equal(t, 5, cfg.MaxConnections)
	assert.Equal(t, DefaultMigrationsDir, cfg.MigrationsDir)

	assert.Error(t, (&Config{Name: "likes"}).Normalize())
	assert.Error(t, (&Config{Host: "db"}).Normalize())
}

func TestConfigURLEscapesCredentials(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "bot", Password: "p@ss:w", Name: "likes", SSLMode: "disable"}
	assert.Equal(t, "postgres://bot:p%40ss%3Aw@db:5432/likes?sslmode=disable", cfg.URL())
	assert.Contains(t, cfg.DSN(), "dbname=likes")
}

func TestMigrationFileHelpers(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.up.sql", "0001_a.up.sql", "0001_a.down.sql", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644))
	}

	files := listMigrationFiles(dir)
	assert.Equal(t, []string{"0001_a.up.sql", "0002_b.up.sql"}, files)
	assert.Equal(t, uint64(2), parseVersion("0002_b.up.sql"))
	assert.Equal(t, []string{"0002_b.up.sql"}, appliedBetween(files, 1, 2))
	assert.Empty(t, appliedBetween(files, 2, 2))
}

func TestResolveMigrationsDir(t *testing.T) {
	abs, err := resolveMigrationsDir("/srv/migrations")
	require.NoError(t, err)
	assert.Equal(t, "/srv/migrations", abs)

	rel, err := resolveMigrationsDir("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(rel))
	assert.Equal(t, DefaultMigrationsDir, filepath.Base(rel))
}
