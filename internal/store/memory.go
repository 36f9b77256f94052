package store

import (
	"context"
	"sync"
)

// Memory is an in-process BlobStore. ReadErr and WriteErr, when set, are
// returned by Get and Put so callers can exercise failure paths.
type Memory struct {
	mu     sync.RWMutex
	blobs  map[string][]byte
	writes int

	ReadErr  error
	WriteErr error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

// Get implements BlobStore.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	v, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put implements BlobStore.
func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteErr != nil {
		return m.WriteErr
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.blobs[key] = v
	m.writes++
	return nil
}

// Writes returns the number of successful Put calls.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
