package compute

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ParallelDevice is the data-parallel software backend.
type ParallelDevice struct {
	workers   int
	groupSize int
}

// NewParallelDevice creates a parallel device.
// workers <= 0 uses GOMAXPROCS; groupSize <= 0 uses the probed default.
func NewParallelDevice(workers, groupSize int) *ParallelDevice {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if groupSize <= 0 {
		groupSize = DefaultGroupSize()
	}
	return &ParallelDevice{workers: workers, groupSize: groupSize}
}

// Name implements Device.
func (d *ParallelDevice) Name() string { return "parallel" }

// Workers returns the number of concurrently executing work groups.
func (d *ParallelDevice) Workers() int { return d.workers }

// GroupSize returns the number of work items per work group.
func (d *ParallelDevice) GroupSize() int { return d.groupSize }

// NewCommandBuffer implements Device.
func (d *ParallelDevice) NewCommandBuffer() CommandBuffer {
	return &parallelCommandBuffer{dev: d, done: make(chan struct{})}
}

type dispatch struct {
	label  string
	n      int
	kernel Kernel
}

type parallelCommandBuffer struct {
	dev *ParallelDevice

	mu         sync.Mutex
	dispatches []dispatch
	committed  bool

	stop atomic.Bool
	done chan struct{}
	err  error
}

func (cb *parallelCommandBuffer) Dispatch(label string, n int, k Kernel) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.committed || n <= 0 || k == nil {
		return
	}
	cb.dispatches = append(cb.dispatches, dispatch{label: label, n: n, kernel: k})
}

func (cb *parallelCommandBuffer) Commit() {
	cb.mu.Lock()
	if cb.committed {
		cb.mu.Unlock()
		return
	}
	cb.committed = true
	dispatches := cb.dispatches
	cb.mu.Unlock()

	go func() {
		defer close(cb.done)
		for _, d := range dispatches {
			if cb.stop.Load() {
				return
			}
			if err := cb.dev.run(d, &cb.stop); err != nil {
				cb.err = NewDispatchError(d.label, err)
				return
			}
		}
	}()
}

func (cb *parallelCommandBuffer) Wait(ctx context.Context) error {
	cb.mu.Lock()
	committed := cb.committed
	cb.mu.Unlock()
	if !committed {
		return ErrNotCommitted
	}

	select {
	case <-cb.done:
		return cb.err
	case <-ctx.Done():
		cb.stop.Store(true)
		<-cb.done
		return ctx.Err()
	}
}

// run executes one dispatch; it returns after every started work group
// finished. No new group starts once stop is set.
func (d *ParallelDevice) run(disp dispatch, stop *atomic.Bool) error {
	var g errgroup.Group
	g.SetLimit(d.workers)

	for start := 0; start < disp.n && !stop.Load(); start += d.groupSize {
		end := min(start+d.groupSize, disp.n)
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %v", ErrKernelFault, r)
				}
			}()
			for gid := start; gid < end; gid++ {
				disp.kernel(gid)
			}
			return nil
		})
	}

	return g.Wait()
}
