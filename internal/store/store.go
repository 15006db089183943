// Package store is the small key-value abstraction every persisted document
// goes through. Keys are plain strings namespaced by prefix; values are
// opaque bytes (JSON documents or attachment blobs).
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found")

// KV is a namespaced key-value store. Implementations are safe for
// concurrent use.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// List returns the keys starting with prefix in ascending order.
	List(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
)

// Open creates the named backend. path is ignored for memory.
func Open(backend, path string) (KV, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendBolt:
		return OpenBolt(path)
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("store.Open: unknown backend %q", backend)
	}
}
