package migration

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Runner applies pending in-code migrations in version order.
type Runner struct {
	executor   Executor
	migrations []Migration
	logger     *slog.Logger
}

// NewRunner creates a Runner for the supplied migrations.
func NewRunner(executor Executor, migrations []Migration, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	sorted := append([]Migration(nil), migrations...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Version < sorted[j].Version
	})
	return &Runner{executor: executor, migrations: sorted, logger: logger.With("component", "migration")}
}

// Run executes every migration that has not been recorded yet.
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.executor == nil {
		return fmt.Errorf("migration runner not configured")
	}
	if err := validateVersions(r.migrations); err != nil {
		return err
	}

	if err := r.executor.InitializeVersionTable(ctx); err != nil {
		return fmt.Errorf("failed to initialize version table: %w", err)
	}

	pending, err := r.Pending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		r.logger.DebugContext(ctx, "schema up to date", "applied", len(r.migrations))
		return nil
	}

	for i, m := range pending {
		start := time.Now()
		logger := r.logger.With("version", m.Version, "description", m.Description)
		logger.InfoContext(ctx, "applying migration", "position", i+1, "pending", len(pending))

		if err := r.executor.ExecuteMigration(ctx, m); err != nil {
			logger.ErrorContext(ctx, "migration failed", "error", err)
			return NewMigrationError(m.Version, "execute migration", fmt.Errorf("%w: %v", ErrMigrationFailed, err))
		}

		elapsed := time.Since(start)
		if err := r.executor.RecordMigration(ctx, m.Version, elapsed); err != nil {
			logger.ErrorContext(ctx, "failed to record migration", "error", err)
			return NewMigrationError(m.Version, "record migration", err)
		}
		logger.InfoContext(ctx, "migration applied", "duration", elapsed)
	}
	return nil
}

// Pending returns the migrations not yet present in the version table.
func (r *Runner) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := r.executor.GetAppliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied versions: %w", err)
	}
	seen := make(map[string]struct{}, len(applied))
	for _, a := range applied {
		seen[a.Version] = struct{}{}
	}

	var pending []Migration
	for _, m := range r.migrations {
		if _, ok := seen[m.Version]; ok {
			continue
		}
		pending = append(pending, m)
	}
	return pending, nil
}

func validateVersions(migrations []Migration) error {
	seen := make(map[string]struct{}, len(migrations))
	for _, m := range migrations {
		version := strings.TrimSpace(m.Version)
		if version == "" {
			return NewMigrationError("", "validate", ErrInvalidVersion)
		}
		if _, dup := seen[version]; dup {
			return NewMigrationError(version, "validate", ErrDuplicateVersion)
		}
		seen[version] = struct{}{}
	}
	return nil
}
