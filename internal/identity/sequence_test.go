package identity

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStartsAtOne(t *testing.T) {
	seq := NewMemory()

	id, err := seq.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	id, err = seq.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
}

func TestMemoryConcurrentAllocation(t *testing.T) {
	const goroutines = 16
	const perGoroutine = 100

	seq := NewMemory()
	ids := make(chan int64, goroutines*perGoroutine)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id, err := seq.Next(context.Background())
				assert.NoError(t, err)
				ids <- id
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, goroutines*perGoroutine)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, goroutines*perGoroutine)
}
