package kv

import (
	"context"
	"errors"
)

// Storage defines persistence operations over string keys and values.
type Storage interface {
	// GetItem returns the value stored under key or ErrNotFound.
	GetItem(ctx context.Context, key string) (string, error)
	// SetItem stores value under key, overwriting any previous value.
	SetItem(ctx context.Context, key, value string) error
	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(ctx context.Context, key string) error
	// CompareAndRemove deletes key only when it currently holds expected.
	CompareAndRemove(ctx context.Context, key, expected string) (bool, error)
	// Close releases backend resources.
	Close() error
}

// ErrNotFound is returned when the requested key does not exist.
var ErrNotFound = errors.New("item not found")
