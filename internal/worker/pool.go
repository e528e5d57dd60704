// Package worker provides the bounded worker pool that runs scan and icon
// preheat work off the caller's goroutine.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("worker: pool closed")

// Pool manages a fixed set of goroutines draining a bounded task queue.
type Pool struct {
	numWorkers int
	workCh     chan func()
	stopCh     chan struct{}
	wg         sync.WaitGroup
	closed     atomic.Bool
	submitMu   sync.RWMutex
	logger     *slog.Logger

	completed atomic.Int64
	panics    atomic.Int64
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger used to report task panics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a pool with numWorkers goroutines.
// numWorkers <= 0 uses runtime.GOMAXPROCS(0).
func New(numWorkers int, opts ...Option) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		workCh:     make(chan func(), numWorkers*2), // 2x buffer for pipelining
		stopCh:     make(chan struct{}),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(numWorkers)
	for range numWorkers {
		go p.worker()
	}

	return p
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.numWorkers }

// Completed returns the number of tasks that ran, panicked ones included.
func (p *Pool) Completed() int64 { return p.completed.Load() }

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			// Drain queued work before exiting.
			for {
				select {
				case task, ok := <-p.workCh:
					if !ok {
						return
					}
					p.run(task)
				default:
					return
				}
			}
		case task, ok := <-p.workCh:
			if !ok {
				return
			}
			p.run(task)
		}
	}
}

func (p *Pool) run(task func()) {
	defer p.completed.Add(1)
	defer func() {
		if r := recover(); r != nil {
			p.panics.Add(1)
			p.logger.Error("worker task panicked", "panic", r)
		}
	}()
	task()
}

// Submit enqueues task, blocking while the queue is full.
//
// Error conditions:
//   - Returns ErrClosed if the pool is closed
//   - Returns ctx.Err() if ctx is done before the task is enqueued
func (p *Pool) Submit(ctx context.Context, task func()) error {
	p.submitMu.RLock()
	defer p.submitMu.RUnlock()

	if p.closed.Load() {
		return ErrClosed
	}

	select {
	case p.workCh <- task:
		return nil
	case <-p.stopCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work, runs what is queued, and waits for the
// workers to exit. It is idempotent.
func (p *Pool) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}

	p.submitMu.Lock()
	close(p.stopCh)
	close(p.workCh)
	p.submitMu.Unlock()

	p.wg.Wait()
}
