// Package inmemory provides a map-backed storage.KV, used in tests and when
// persistence is disabled.
package inmemory

import (
	"context"
	"slices"
	"sync"

	"github.com/zhyuuka/xingling-chat/pkg/storage"
)

// Driver implements storage.KV using an in-memory map.
type Driver struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewDriver creates an empty in-memory store.
func NewDriver() *Driver {
	return &Driver{
		values: make(map[string]string),
	}
}

func (d *Driver) Get(_ context.Context, key string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	v, ok := d.values[key]
	if !ok {
		return "", storage.NotFoundError{Key: key}
	}
	return v, nil
}

func (d *Driver) Put(_ context.Context, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.values[key] = value
	return nil
}

func (d *Driver) Delete(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.values, key)
	return nil
}

func (d *Driver) Keys(_ context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	keys := make([]string, 0, len(d.values))
	for k := range d.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}
