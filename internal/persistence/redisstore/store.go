// Package redisstore implements persistence.Store on a Redis server.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/example/cobunny/internal/persistence"
)

// Store keeps every value under "<namespace>:<key>".
type Store struct {
	client    *redis.Client
	namespace string
	owned     bool
}

// New wraps an existing client. The caller keeps ownership of client.
func New(client *redis.Client, namespace string) *Store {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = persistence.DefaultNamespace
	}
	return &Store{client: client, namespace: namespace}
}

// Dial connects to addr, verifies the connection and returns a Store that
// closes the client on Close.
func Dial(ctx context.Context, addr string, db int, namespace string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	store := New(client, namespace)
	store.owned = true
	return store, nil
}

// Close releases the client when the store created it.
func (s *Store) Close() error {
	if s == nil || !s.owned {
		return nil
	}
	return s.client.Close()
}

func (s *Store) key(key string) string {
	return s.namespace + ":" + key
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key, reporting persistence.ErrNotFound when it was absent.
func (s *Store) Delete(ctx context.Context, key string) error {
	removed, err := s.client.Del(ctx, s.key(key)).Result()
	if err != nil {
		return fmt.Errorf("redis: delete %s: %w", key, err)
	}
	if removed == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
