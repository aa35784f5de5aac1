// Package dedup suppresses repeat notifications within a time window.
package dedup

import (
	"context"
	"sync"
	"time"
)

// DefaultWindow is the deduplication window applied when none is given.
const DefaultWindow = 60 * time.Second

// Store records dedup keys and reports repeats. CheckAndRecord must be
// atomic: of two concurrent calls with the same key, exactly one may
// observe it as unseen.
type Store interface {
	// CheckAndRecord returns true when the key was already seen within
	// the current window, recording it otherwise.
	CheckAndRecord(ctx context.Context, key string) bool
	// Close releases any background resources.
	Close() error
}

// memoryStore clears its key set in bulk on a fixed timer. The effective
// suppression window for a key therefore varies between zero and the full
// window depending on when in the cycle it was first seen; exact per-key
// expiry is the redis store's job.
type memoryStore struct {
	mu   sync.Mutex
	keys map[string]struct{}
	done chan struct{}
	once sync.Once
}

// NewMemoryStore creates an in-process store cleared in bulk every
// window.
func NewMemoryStore(window time.Duration) Store {
	if window <= 0 {
		window = DefaultWindow
	}
	s := &memoryStore{
		keys: make(map[string]struct{}),
		done: make(chan struct{}),
	}
	go s.clearLoop(window)
	return s
}

func (s *memoryStore) clearLoop(window time.Duration) {
	ticker := time.NewTicker(window)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.keys = make(map[string]struct{})
			s.mu.Unlock()
		}
	}
}

func (s *memoryStore) CheckAndRecord(_ context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.keys[key]; seen {
		return true
	}
	s.keys[key] = struct{}{}
	return false
}

func (s *memoryStore) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
