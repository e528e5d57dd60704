package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrOverBudget is returned by AcquireMemory when the reservation does not
// fit in the remaining texture budget.
var ErrOverBudget = errors.New("resource: texture budget exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for cached texture bytes.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxBackgroundWorkers is the maximum number of concurrent preheat renders.
	// If 0, defaults to 1.
	MaxBackgroundWorkers int64

	// RendersPerSec limits background icon renders.
	// If 0, unlimited.
	RendersPerSec float64

	// RenderBurst is the token bucket size. If 0, defaults to
	// MaxBackgroundWorkers.
	RenderBurst int
}

// Controller bounds the resources shared by icon caches: texture bytes,
// concurrent background renders, and the background render rate.
// A nil *Controller imposes no limits.
type Controller struct {
	cfg Config

	budget *semaphore.Weighted // nil if unlimited
	used   atomic.Int64

	slots   *semaphore.Weighted
	renders *rate.Limiter // nil if unlimited
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxBackgroundWorkers <= 0 {
		cfg.MaxBackgroundWorkers = 1
	}
	if cfg.RenderBurst <= 0 {
		cfg.RenderBurst = int(cfg.MaxBackgroundWorkers)
	}

	c := &Controller{cfg: cfg, slots: semaphore.NewWeighted(cfg.MaxBackgroundWorkers)}
	if cfg.MemoryLimitBytes > 0 {
		c.budget = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.RendersPerSec > 0 {
		c.renders = rate.NewLimiter(rate.Limit(cfg.RendersPerSec), cfg.RenderBurst)
	}
	return c
}

// AcquireMemory reserves texture bytes without blocking. The caller decides
// what to evict when it gets ErrOverBudget.
func (c *Controller) AcquireMemory(bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}
	if c.budget != nil && !c.budget.TryAcquire(bytes) {
		return ErrOverBudget
	}
	c.used.Add(bytes)
	return nil
}

// ReleaseMemory returns bytes reserved by AcquireMemory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	if c.budget != nil {
		c.budget.Release(bytes)
	}
	c.used.Add(-bytes)
}

// MemoryUsage returns the reserved texture bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.used.Load()
}

// MemoryLimit returns the configured memory limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// Fits reports whether bytes could ever be reserved.
func (c *Controller) Fits(bytes int64) bool {
	if c == nil || c.cfg.MemoryLimitBytes <= 0 {
		return true
	}
	return bytes <= c.cfg.MemoryLimitBytes
}

// AcquireBackground blocks until a background render slot is free.
func (c *Controller) AcquireBackground(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.slots.Acquire(ctx, 1)
}

// ReleaseBackground releases a background worker slot.
func (c *Controller) ReleaseBackground() {
	if c == nil {
		return
	}
	c.slots.Release(1)
}

// MaxBackground returns the number of background slots.
func (c *Controller) MaxBackground() int {
	if c == nil {
		return 1
	}
	return int(c.cfg.MaxBackgroundWorkers)
}

// WaitRender waits until the render limit allows one more render.
func (c *Controller) WaitRender(ctx context.Context) error {
	if c == nil || c.renders == nil {
		return nil
	}
	return c.renders.Wait(ctx)
}
