package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/stacklyhub/internal/persistence/sqlite"
)

// NewSQLiteStorage opens a migrated client storage database in a temporary
// directory. It is closed automatically when the test finishes.
func NewSQLiteStorage(tb testing.TB) *sqlite.Storage {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "stacklyhub.db")
	storage, err := sqlite.Open(context.Background(), sqlite.DefaultConfig(path), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = storage.Close() })
	return storage
}
