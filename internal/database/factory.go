package database

import (
	"fmt"
	"path/filepath"

	"driveway/internal/config"
	"driveway/internal/database/migrations"
	"driveway/internal/drive"
)

// NewDatabaseFromConfig creates a Database implementation based on the
// database config type and migrates it to the latest schema.
func NewDatabaseFromConfig(cfg config.DatabaseConfig) (drive.Database, error) {
	var path string
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		path = filepath.Join(cfg.DataDir, "driveway.db")
	case "memory":
		path = ":memory:"
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}

	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return NewSQLiteDatabaseFromDB(db), nil
}
