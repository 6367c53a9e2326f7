package database

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"cultivation-planner/internal/config"
	"cultivation-planner/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrate_SQLite(t *testing.T) {
	cfg := config.AppConfig{DBDriver: "sqlite", DBPath: filepath.Join(t.TempDir(), "planner.db")}

	db, err := Open(cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	require.NoError(t, Migrate(db, slog.New(slog.NewTextHandler(io.Discard, nil))))
	for _, m := range model.AllModels() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}

	// migrating twice is a no-op
	require.NoError(t, Migrate(db, slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(config.AppConfig{DBDriver: "mysql"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{path: ":memory:", expected: "file::memory:?_pragma=foreign_keys(1)"},
		{path: "data/planner.db", expected: "file:data/planner.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, sqliteDSN(tt.path))
	}
}
