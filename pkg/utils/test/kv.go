package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/zhyuuka/xingling-chat/pkg/storage"
	"github.com/zhyuuka/xingling-chat/pkg/storage/inmemory"
)

// ErrInjected is returned by RecordingKV when FailPut is set.
var ErrInjected = errors.New("injected storage failure")

// RecordingKV wraps an in-memory store and records every Put.
type RecordingKV struct {
	*inmemory.Driver

	mu     sync.Mutex
	puts   map[string]int
	failOn map[string]bool

	// FailPut causes Put to return ErrInjected without storing.
	FailPut bool
}

// NewRecordingKV creates an empty RecordingKV.
func NewRecordingKV() *RecordingKV {
	return &RecordingKV{
		Driver: inmemory.NewDriver(),
		puts:   make(map[string]int),
		failOn: make(map[string]bool),
	}
}

// FailOn makes every later Put of key return ErrInjected.
func (r *RecordingKV) FailOn(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failOn[key] = true
}

func (r *RecordingKV) Put(ctx context.Context, key, value string) error {
	r.mu.Lock()
	fail := r.FailPut || r.failOn[key]
	if !fail {
		r.puts[key]++
	}
	r.mu.Unlock()

	if fail {
		return ErrInjected
	}
	return r.Driver.Put(ctx, key, value)
}

// Puts returns how many times key was written.
func (r *RecordingKV) Puts(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.puts[key]
}

var _ storage.KV = (*RecordingKV)(nil)
