package testutil

import (
	"path/filepath"
	"testing"

	"github.com/headline-goat/intent-goat/internal/store"
)

// SetupTestStore opens a store in t.TempDir() and closes it when the test
// completes.
func SetupTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})

	return s
}
