package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/aniarc/internal/store"
)

// Store handles Redis operations for user state
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Get retrieves a raw value by user state name
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.Get(ctx, UserStateKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", name, err)
	}
	return data, nil
}

// Set stores a raw value without expiration
func (s *Store) Set(ctx context.Context, name string, value []byte) error {
	if err := s.client.Set(ctx, UserStateKey(name), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", name, err)
	}
	return nil
}

// SetMany stores several values in one pipeline (bulk operation)
func (s *Store) SetMany(ctx context.Context, values map[string][]byte) error {
	pipe := s.client.TxPipeline()
	for name, value := range values {
		pipe.Set(ctx, UserStateKey(name), value, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save user state: %w", err)
	}
	return nil
}

// Delete removes a value
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.client.Del(ctx, UserStateKey(name)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}
