package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store. It is used by the examples and the
// unit tests; the namespace starts unprovisioned so first-write
// bootstrap behavior can be exercised without a real backend.
type MemoryStore struct {
	mu          sync.RWMutex
	provisioned bool
	entries     map[string]Object
}

// NewMemoryStore creates an empty store with an unprovisioned namespace.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Object),
	}
}

// Get retrieves the object stored under key.
func (m *MemoryStore) Get(ctx context.Context, key string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}

	// Copy so callers can retain the body without racing later writes.
	obj := entry
	obj.Body = append([]byte(nil), entry.Body...)
	return &obj, nil
}

// Put stores obj under key. Last write wins.
func (m *MemoryStore) Put(ctx context.Context, key string, obj *Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.provisioned {
		return ErrNamespaceMissing
	}

	stored := *obj
	stored.Body = append([]byte(nil), obj.Body...)
	stored.LastModified = time.Now()
	m.entries[key] = stored
	return nil
}

// EnsureNamespace provisions the namespace. Idempotent.
func (m *MemoryStore) EnsureNamespace(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.provisioned = true
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
