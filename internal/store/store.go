package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key has never been written
var ErrNotFound = errors.New("key not found")

// KV is a minimal durable key-value store
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}
