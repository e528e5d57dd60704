package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/hupe1980/appdeck/internal/resource"
)

const (
	// DefaultMaxEntries is the default entry bound.
	DefaultMaxEntries = 200
	// DefaultMaxBytes is the default texture byte budget.
	DefaultMaxBytes = 50 << 20
	// DefaultPreheatWorkers is the default number of concurrent preheat renders.
	DefaultPreheatWorkers = 4
)

// Config holds the cache bounds and preheat limits.
type Config struct {
	MaxEntries int
	MaxBytes   int64
	// PreheatWorkers bounds concurrent preheat renders.
	PreheatWorkers int
	// RenderRate limits preheat renders per second. 0 is unlimited.
	RenderRate float64
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		MaxEntries:     DefaultMaxEntries,
		MaxBytes:       DefaultMaxBytes,
		PreheatWorkers: DefaultPreheatWorkers,
	}
}

func (c Config) normalized() Config {
	if c.MaxEntries <= 0 {
		c.MaxEntries = DefaultMaxEntries
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = DefaultMaxBytes
	}
	if c.PreheatWorkers <= 0 {
		c.PreheatWorkers = DefaultPreheatWorkers
	}
	if c.RenderRate < 0 {
		c.RenderRate = 0
	}
	return c
}

// Submitter runs background tasks. *worker.Pool implements it.
type Submitter interface {
	Submit(ctx context.Context, task func()) error
}

// Observer defines the interface for observing cache events.
type Observer interface {
	// OnLookup is called for every Get.
	OnLookup(hit bool)
	// OnEvict is called when an insert evicts count entries.
	OnEvict(count int)
	// OnRender is called when a render completes.
	OnRender(duration time.Duration, err error)
}

// NoopObserver is a no-op implementation of Observer.
type NoopObserver struct{}

func (NoopObserver) OnLookup(hit bool)                          {}
func (NoopObserver) OnEvict(count int)                          {}
func (NoopObserver) OnRender(duration time.Duration, err error) {}

// Option configures a TextureCache.
type Option func(*TextureCache)

// WithConfig replaces the cache configuration.
func WithConfig(cfg Config) Option {
	return func(c *TextureCache) {
		c.cfg = cfg
	}
}

// WithResourceController sets the controller enforcing the byte budget,
// preheat slots and render rate. By default the cache builds one from its
// Config.
func WithResourceController(rc *resource.Controller) Option {
	return func(c *TextureCache) {
		c.rc = rc
	}
}

// WithSubmitter runs preheat renders on s instead of fresh goroutines.
func WithSubmitter(s Submitter) Option {
	return func(c *TextureCache) {
		c.submitter = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *TextureCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver sets the cache observer.
func WithObserver(o Observer) Option {
	return func(c *TextureCache) {
		if o != nil {
			c.observer = o
		}
	}
}
