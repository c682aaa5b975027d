package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/stratplan/stratplan/internal/config"
	_ "modernc.org/sqlite"
)

// NewInMemory creates an in-memory database with foreign keys enabled and
// all embedded migrations applied. WAL mode and backups are not used.
func NewInMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	// A single connection keeps every caller on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	db := &DB{
		DB:     sqlDB,
		path:   ":memory:",
		config: &config.DatabaseConfig{},
		logger: slog.Default().With("component", "database"),
	}

	m, err := NewMigrator(db)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	if _, err := m.MigrateUp(context.Background()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating in-memory database: %w", err)
	}

	return db, nil
}
