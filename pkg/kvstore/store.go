// Package kvstore keeps whole blobs under string keys. Writes replace the previous
// value; there are no partial updates.
package kvstore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("kvstore: key not found")

// Store is implemented by RedisStore, SQLiteStore and MemoryStore.
type Store interface {
	// Load returns ErrNotFound when nothing is stored under key.
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
