package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/cobunny/internal/persistence"
	"github.com/example/cobunny/internal/persistence/sqlite/migration"
)

var migrations = []migration.Migration{
	{
		Version:     "001",
		Description: "create kv_entries",
		SQL: `
			CREATE TABLE IF NOT EXISTS kv_entries (
				namespace TEXT NOT NULL,
				key TEXT NOT NULL,
				value BLOB NOT NULL,
				updated_at TEXT NOT NULL,
				PRIMARY KEY (namespace, key)
			);
		`,
	},
}

// Store implements persistence.Store on top of a SQLite key-value table. All keys
// are scoped to the namespace supplied at open time.
type Store struct {
	pool      *ConnectionPool
	retry     *RetryHelper
	mapper    *ErrorMapper
	namespace string
	now       func() time.Time
	logger    *slog.Logger
}

// Options configures Open.
type Options struct {
	Namespace string
	Logger    *slog.Logger
	Now       func() time.Time
}

// Open returns a Store backed by the database at path. Call Migrate before use.
func Open(path string, opts Options) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite: database path is required")
	}
	cfg := migration.DefaultSQLiteConfig(path)
	if path == ":memory:" {
		cfg = migration.InMemoryTestSQLiteConfig()
	}
	return OpenWithConfig(cfg, opts)
}

// OpenWithConfig returns a Store using an explicit connection configuration.
func OpenWithConfig(cfg migration.SQLiteConfig, opts Options) (*Store, error) {
	pool, err := NewConnectionPool(cfg)
	if err != nil {
		return nil, err
	}

	namespace := strings.TrimSpace(opts.Namespace)
	if namespace == "" {
		namespace = persistence.DefaultNamespace
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		pool:      pool,
		retry:     NewRetryHelper(DefaultRetryConfig()),
		mapper:    NewErrorMapper(),
		namespace: namespace,
		now:       now,
		logger:    logger.With("store", "sqlite", "namespace", namespace),
	}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Close()
}

// Migrate applies pending schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	runner := migration.NewRunner(migration.NewSQLiteExecutor(s.pool.DB()), migrations, s.logger)
	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT value FROM kv_entries WHERE namespace = ? AND key = ?`

	var value []byte
	err := s.retry.WithRetry(ctx, func() error {
		return s.pool.DB().QueryRowContext(ctx, query, s.namespace, key).Scan(&value)
	})
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, persistence.ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: get %s: %w", key, err)
	}
	return value, nil
}

// Set inserts or replaces the value stored under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	const query = `
		INSERT INTO kv_entries (namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	updatedAt := s.now().UTC().Format(time.RFC3339Nano)

	err := s.retry.WithRetry(ctx, func() error {
		return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, query, s.namespace, key, value, updatedAt)
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("sqlite: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key, reporting persistence.ErrNotFound when it was absent.
func (s *Store) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM kv_entries WHERE namespace = ? AND key = ?`

	var affected int64
	err := s.retry.WithRetry(ctx, func() error {
		result, err := s.pool.DB().ExecContext(ctx, query, s.namespace, key)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("sqlite: delete %s: %w", key, err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// Keys lists the keys stored in the namespace.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	const query = `SELECT key FROM kv_entries WHERE namespace = ? ORDER BY key ASC`

	rows, err := s.pool.DB().QueryContext(ctx, query, s.namespace)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list keys: %w", s.mapper.MapError(err))
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("sqlite: scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
