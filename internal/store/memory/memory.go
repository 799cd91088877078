package memory

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/aniarc/internal/store"
)

// Backend keeps values in process memory.
// Used for tests and for ephemeral runs where nothing should survive a restart.
type Backend struct {
	mu     sync.RWMutex
	values map[string][]byte // key -> value
	closed bool
}

// New creates an empty memory backend
func New() *Backend {
	return &Backend{
		values: make(map[string][]byte),
	}
}

// Get returns a copy of the value stored under key
func (b *Backend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.values[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set stores a copy of value under key
func (b *Backend) Set(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	b.values[key] = v
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (b *Backend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.values, key)
	return nil
}

// Ping always succeeds while the backend is open
func (b *Backend) Ping(_ context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return store.ErrClosed
	}
	return nil
}

// Close marks the backend closed. Stored values stay readable.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	return nil
}
