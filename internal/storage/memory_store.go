package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-process backend used in tests and as a last-resort
// fallback when nothing else is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
	down bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Available(ctx context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.down
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down {
		return nil, errBackendDown
	}
	v, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return errBackendDown
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return errBackendDown
	}
	delete(s.data, key)
	return nil
}

// SetDown makes Available report false and every operation fail.
func (s *MemoryStore) SetDown(down bool) {
	s.mu.Lock()
	s.down = down
	s.mu.Unlock()
}

// Len reports the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
