package memory

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Store.Get for an absent key.
var ErrNotFound = errors.New("thread not found")

// Store is the external key-value persistence contract: whole-thread blobs
// keyed by thread id, expired by the store after ttl. The core never
// deletes threads itself.
type Store interface {
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// StorageError wraps a persistence failure. CreateThread fails loudly with
// it; AddTurn and GetThread degrade to false/nil instead.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("thread storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
