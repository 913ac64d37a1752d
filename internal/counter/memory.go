package counter

import (
	"context"
	"sync"
)

// MemoryStore is an in-process counter used by the devtoken CLI and tests. It
// honors the same distinct-values-under-concurrency contract as DynamoStore.
type MemoryStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counts: make(map[string]int64)}
}

func (s *MemoryStore) NextCounter(_ context.Context, dayKey string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[dayKey]++
	return s.counts[dayKey], nil
}
