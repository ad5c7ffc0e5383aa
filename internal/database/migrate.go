package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// MigrationStatus reports the schema version of a database against the embedded migrations.
type MigrationStatus struct {
	Current int64
	Latest  int64
}

// Pending reports whether the database is behind the embedded migrations.
func (s MigrationStatus) Pending() bool {
	return s.Current < s.Latest
}

func newProvider(db *sql.DB) (*goose.Provider, error) {
	fsys, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}

// Migrate applies all pending schema migrations and returns the number applied.
func Migrate(ctx context.Context, db *sql.DB) (int, error) {
	provider, err := newProvider(db)
	if err != nil {
		return 0, err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return len(results), fmt.Errorf("failed to apply migrations: %w", err)
	}
	return len(results), nil
}

// Status returns the current and latest schema versions.
func Status(ctx context.Context, db *sql.DB) (MigrationStatus, error) {
	provider, err := newProvider(db)
	if err != nil {
		return MigrationStatus{}, err
	}

	current, err := provider.GetDBVersion(ctx)
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("failed to read schema version: %w", err)
	}

	var latest int64
	for _, src := range provider.ListSources() {
		if src.Version > latest {
			latest = src.Version
		}
	}

	return MigrationStatus{Current: current, Latest: latest}, nil
}
