// Package migration applies versioned schema changes to the SQLite key-value store.
//
// Migrations are declared in code as an ordered slice of Migration values. The
// Runner records every applied version in a schema_migrations table so that a
// migration executes at most once per database file, and each migration runs
// inside its own transaction.
//
// Example usage:
//
//	runner := NewRunner(NewSQLiteExecutor(db), migrations, logger)
//	if err := runner.Run(ctx); err != nil {
//		return fmt.Errorf("migrate: %w", err)
//	}
package migration
