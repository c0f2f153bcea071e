package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Keys under which the application state is stored.
const (
	UsersKey         = "cobunny_users"
	SessionKey       = "cobunny_user"
	BookingsKey      = "cobunny_bookings"
	BookingSeqKey    = "cobunny_booking_seq"
	DefaultNamespace = "cobunny"
)

// Store exposes key-value operations scoped to a single namespace.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// ReadJSON decodes the value stored under key into dst. It reports false with a nil
// error when the key is absent. Undecodable bytes yield an error matching ErrCorrupt.
func ReadJSON(ctx context.Context, store Store, key string, dst any) (bool, error) {
	if store == nil {
		return false, fmt.Errorf("persistence: store not configured")
	}
	raw, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("persistence: read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, &CorruptValueError{Key: key, Err: err}
	}
	return true, nil
}

// WriteJSON serializes value and stores it under key.
func WriteJSON(ctx context.Context, store Store, key string, value any) error {
	if store == nil {
		return fmt.Errorf("persistence: store not configured")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("persistence: encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("persistence: write %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func Remove(ctx context.Context, store Store, key string) error {
	if store == nil {
		return fmt.Errorf("persistence: store not configured")
	}
	if err := store.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("persistence: remove %s: %w", key, err)
	}
	return nil
}
