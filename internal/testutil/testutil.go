// Package testutil provides shared test helpers for setting up stores and
// persistence providers.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/nlzhou/notebook/internal/storage"
	"github.com/nlzhou/notebook/internal/store"
)

// Logger returns a logger that discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// FileProvider creates a temporary file-backed persistence provider.
func FileProvider(t *testing.T) *storage.File {
	t.Helper()
	p, err := storage.NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	return p
}

// Store creates a store over a temporary file provider, seeded with the
// preset folders.
func Store(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	s, err := store.New(FileProvider(t), Logger(), opts...)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
