package testutil

import (
	"testing"

	"github.com/HerbHall/netscope/internal/store"
)

// NewStore opens an in-memory SQLite store closed at test cleanup.
func NewStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New(:memory:): %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
