package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsTasks(t *testing.T) {
	p := New(4)
	defer p.Close()
	assert.Equal(t, 4, p.Workers())

	var n atomic.Int64
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		require.NoError(t, p.Submit(t.Context(), func() {
			defer wg.Done()
			n.Add(1)
		}))
	}
	wg.Wait()
	assert.Equal(t, int64(100), n.Load())
}

func TestPool_CloseDrainsQueue(t *testing.T) {
	p := New(1)

	var n atomic.Int64
	for range 2 {
		require.NoError(t, p.Submit(t.Context(), func() {
			time.Sleep(5 * time.Millisecond)
			n.Add(1)
		}))
	}
	p.Close()
	assert.Equal(t, int64(2), n.Load())
	assert.Equal(t, int64(2), p.Completed())
}

func TestPool_SubmitAfterClose(t *testing.T) {
	p := New(2)
	p.Close()
	p.Close()

	assert.ErrorIs(t, p.Submit(t.Context(), func() {}), ErrClosed)
}

func TestPool_SubmitContextCanceled(t *testing.T) {
	p := New(1)
	defer p.Close()

	block := make(chan struct{})
	defer close(block)

	// One task occupies the worker, two fill the queue.
	for range 3 {
		require.NoError(t, p.Submit(t.Context(), func() { <-block }))
	}

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Submit(ctx, func() {}), context.DeadlineExceeded)
}

func TestPool_RecoversPanics(t *testing.T) {
	p := New(1)

	done := make(chan struct{})
	require.NoError(t, p.Submit(t.Context(), func() { panic("boom") }))
	require.NoError(t, p.Submit(t.Context(), func() { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker died after panic")
	}
	p.Close()
	assert.Equal(t, int64(1), p.panics.Load())
}

func TestPool_DefaultWorkers(t *testing.T) {
	p := New(0)
	defer p.Close()
	assert.Positive(t, p.Workers())
}
