package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/hireloop/internal/core/domain"
)

func TestRunPool_ConcurrencyLimit(t *testing.T) {
	pool := NewRunPool(testLogger(), RunPoolConfig{MaxConcurrentRuns: 2})
	ctx := context.Background()

	var running int32
	var peak int32
	var wg sync.WaitGroup

	totalRuns := 5
	wg.Add(totalRuns)

	// Handler that holds its slot long enough for submissions to pile up
	handler := func(ctx context.Context, req RunRequest) {
		current := atomic.AddInt32(&running, 1)
		for {
			max := atomic.LoadInt32(&peak)
			if current > max {
				if !atomic.CompareAndSwapInt32(&peak, max, current) {
					continue
				}
			}
			break
		}

		time.Sleep(100 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		wg.Done()
	}

	pool.Start(ctx, handler)

	for i := 0; i < totalRuns; i++ {
		require.NoError(t, pool.Submit(ctx, RunRequest{
			UserID:  "user-1",
			Initial: domain.Envelope{NextAgent: domain.AgentDigest},
		}))
	}

	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2), "should not exceed max concurrency")
	assert.Greater(t, atomic.LoadInt32(&peak), int32(0), "should have run some requests")
}

func TestRunPool_QueueFull(t *testing.T) {
	pool := NewRunPool(testLogger(), RunPoolConfig{MaxConcurrentRuns: 1, QueueSize: 1})
	ctx := context.Background()

	// pool not started: the queue fills and the next submit is rejected
	require.NoError(t, pool.Submit(ctx, RunRequest{UserID: "user-1"}))
	err := pool.Submit(ctx, RunRequest{UserID: "user-2"})
	assert.Error(t, err)
}
