package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestQueueRunsEnqueuedTasks(t *testing.T) {
	q := NewQueue(8, 2, zap.NewNop())

	var counter int64
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		ok := q.Enqueue(func(context.Context) {
			atomic.AddInt64(&counter, 1)
			wg.Done()
		})
		require.True(t, ok)
	}
	wg.Wait()
	q.Shutdown()

	assert.Equal(t, int64(5), atomic.LoadInt64(&counter))
}

func TestQueueDropsWhenFull(t *testing.T) {
	q := NewQueue(1, 1, zap.NewNop())
	defer q.Shutdown()

	block := make(chan struct{})
	started := make(chan struct{})
	require.True(t, q.Enqueue(func(context.Context) {
		close(started)
		<-block
	}))
	<-started

	// Worker is busy; one task fits the buffer, the next is dropped.
	require.True(t, q.Enqueue(func(context.Context) {}))
	assert.False(t, q.Enqueue(func(context.Context) {}))

	close(block)
}

func TestQueueDrainsBufferedTasksOnShutdown(t *testing.T) {
	q := NewQueue(8, 1, zap.NewNop())

	var counter int64
	block := make(chan struct{})
	started := make(chan struct{})
	require.True(t, q.Enqueue(func(context.Context) {
		close(started)
		<-block
		atomic.AddInt64(&counter, 1)
	}))
	<-started
	for i := 0; i < 3; i++ {
		require.True(t, q.Enqueue(func(context.Context) {
			atomic.AddInt64(&counter, 1)
		}))
	}

	done := make(chan struct{})
	go func() {
		q.Shutdown()
		close(done)
	}()
	close(block)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	assert.Equal(t, int64(4), atomic.LoadInt64(&counter))
}

func TestQueueRejectsAfterShutdown(t *testing.T) {
	q := NewQueue(8, 1, zap.NewNop())
	q.Shutdown()

	assert.False(t, q.Enqueue(func(context.Context) {}))
}
