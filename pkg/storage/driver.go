// Package storage defines the key/value persistence used for the session
// collection and application settings.
package storage

import "context"

// KV persists string values by key. Implementations must be safe for
// concurrent use.
type KV interface {
	// Get returns the value for key, or a NotFoundError when it is unset.
	Get(ctx context.Context, key string) (string, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns every stored key in lexical order.
	Keys(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}
