package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Backend.Get when the key does not exist.
	ErrNotFound = errors.New("key not found")
	// ErrClosed is returned by Ping once the backend has been closed.
	ErrClosed = errors.New("backend closed")
)

// Backend is a durable byte-oriented key-value store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// BatchWriter is implemented by backends that can write several keys in a
// single round trip or transaction.
type BatchWriter interface {
	SetMany(ctx context.Context, values map[string][]byte) error
}
