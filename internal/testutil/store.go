package testutil

import (
	"snapsync/internal/snap"
	"snapsync/internal/store"
)

// NewTestStore creates a new in-memory object store for testing.
func NewTestStore() *store.MemoryStore {
	return store.NewMemoryStore("test-store")
}

var _ snap.ObjectStore = (*store.MemoryStore)(nil)
