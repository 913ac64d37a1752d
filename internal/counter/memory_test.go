package counter

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Sequential(t *testing.T) {
	s := NewMemoryStore()

	for want := int64(1); want <= 3; want++ {
		got, err := s.NextCounter(context.Background(), "2024-01-15")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestMemoryStore_DaysAreIndependent(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.NextCounter(context.Background(), "2024-01-15")
	require.NoError(t, err)

	got, err := s.NextCounter(context.Background(), "2024-01-16")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestMemoryStore_ConcurrentDistinct(t *testing.T) {
	const n = 100
	s := NewMemoryStore()

	var wg sync.WaitGroup
	values := make([]int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := s.NextCounter(context.Background(), "2024-01-15")
			if err != nil {
				t.Errorf("next counter: %v", err)
				return
			}
			values[i] = v
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for _, v := range values {
		assert.False(t, seen[v], "duplicate counter %d", v)
		seen[v] = true
	}
}
