package store

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"snapsync/internal/snap"
)

// MemoryStore is an in-memory implementation of the ObjectStore interface,
// useful for testing and dry wiring. Safe for concurrent use.
type MemoryStore struct {
	name string

	mu      sync.RWMutex
	objects map[string][]byte // key -> content
	classes map[string]string // key -> storage class
}

// NewMemoryStore creates a new in-memory store with the given name.
func NewMemoryStore(name string) *MemoryStore {
	return &MemoryStore{
		name:    name,
		objects: make(map[string][]byte),
		classes: make(map[string]string),
	}
}

// Put stores an object at key.
func (m *MemoryStore) Put(_ context.Context, key string, r io.Reader, size int64, storageClass string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.classes[key] = storageClass
	return nil
}

// ValidateSetup always succeeds for the in-memory store.
func (m *MemoryStore) ValidateSetup(context.Context) error { return nil }

// Object returns the stored content and storage class for key.
func (m *MemoryStore) Object(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return data, m.classes[key], ok
}

// Keys returns all stored object keys, sorted.
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Count returns the number of stored objects.
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// Compile-time check that MemoryStore implements snap.ObjectStore
var _ snap.ObjectStore = (*MemoryStore)(nil)
