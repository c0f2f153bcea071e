package migration

import (
	"context"
	"time"
)

// Migration represents a schema change with its metadata and SQL content.
type Migration struct {
	Version     string // Version identifier (e.g., "001", "002")
	Description string
	SQL         string
}

// Executor handles the actual execution of migrations against the database.
type Executor interface {
	// ExecuteMigration runs a single migration within a transaction.
	ExecuteMigration(ctx context.Context, migration Migration) error

	// InitializeVersionTable creates the schema_migrations table if it doesn't exist.
	InitializeVersionTable(ctx context.Context) error

	// RecordMigration records a successful migration in the version tracking table.
	RecordMigration(ctx context.Context, version string, executionTime time.Duration) error

	// GetAppliedVersions returns all applied migration versions with timestamps.
	GetAppliedVersions(ctx context.Context) ([]AppliedMigration, error)
}

// AppliedMigration represents a migration that has been successfully applied.
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
}
