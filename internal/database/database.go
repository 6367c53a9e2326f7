package database

import (
	"fmt"
	"log/slog"

	"cultivation-planner/internal/config"
	"cultivation-planner/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database. sqlite is pure Go and needs no cgo.
func Open(cfg config.AppConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL)
	case "sqlite":
		dialector = sqlite.Open(sqliteDSN(cfg.DBPath))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.DBDriver, err)
	}
	return db, nil
}

// Migrate creates or updates every table
func Migrate(db *gorm.DB, log *slog.Logger) error {
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	log.Info("Database migrated", "driver", db.Dialector.Name(), "tables", len(model.AllModels()))
	return nil
}

// sqliteDSN enables foreign keys, which sqlite leaves off per connection
func sqliteDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?_pragma=foreign_keys(1)"
	}
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
