package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/cobunny/internal/persistence/sqlite"
)

// NewSQLiteStore opens a migrated SQLite store in a temporary directory. The
// store is closed when the test finishes.
func NewSQLiteStore(tb testing.TB, namespace string) *sqlite.Store {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "cobunny.db")
	store, err := sqlite.Open(path, sqlite.Options{Namespace: namespace, Logger: DiscardLogger()})
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	tb.Cleanup(func() { _ = store.Close() })
	return store
}
