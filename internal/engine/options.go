package engine

import (
	"log/slog"

	"github.com/hupe1980/appdeck/internal/compute"
	"github.com/hupe1980/appdeck/internal/layout"
	"github.com/hupe1980/appdeck/internal/rescache"
	"github.com/hupe1980/appdeck/internal/score"
)

// DefaultCPUThreshold is the item count below which the CPU path is used.
const DefaultCPUThreshold = 50

// Config holds the search engine knobs.
type Config struct {
	// CPUThreshold selects the CPU path for item lists shorter than this.
	CPUThreshold int
	// MaxCacheEntries bounds the search-result cache.
	MaxCacheEntries int
	// TrustedPrefix is the secondary-key prefix that earns a bonus.
	TrustedPrefix string
	// FieldCapacity is the per-field transfer capacity in bytes, terminator included.
	FieldCapacity int
	// QueryCapacity is the query transfer capacity in bytes, terminator included.
	QueryCapacity int
	// Compute selects how the compute device is probed.
	Compute compute.Mode
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		CPUThreshold:    DefaultCPUThreshold,
		MaxCacheEntries: rescache.DefaultMaxEntries,
		TrustedPrefix:   score.DefaultTrustedPrefix,
		FieldCapacity:   layout.DefaultFieldCapacity,
		QueryCapacity:   layout.DefaultQueryCapacity,
		Compute:         compute.ModeAuto,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.CPUThreshold < 0 {
		c.CPUThreshold = d.CPUThreshold
	}
	if c.MaxCacheEntries <= 0 {
		c.MaxCacheEntries = d.MaxCacheEntries
	}
	if c.FieldCapacity < 2 {
		c.FieldCapacity = d.FieldCapacity
	}
	if c.QueryCapacity < 2 {
		c.QueryCapacity = d.QueryCapacity
	}
	return c
}

// Prober selects a compute device. A nil device disables the compute path.
type Prober func(mode compute.Mode) (compute.Device, compute.Info)

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the engine configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithCPUThreshold sets the CPU path threshold. 0 always uses the compute
// path when a device is present.
func WithCPUThreshold(n int) Option {
	return func(e *Engine) {
		e.cfg.CPUThreshold = n
	}
}

// WithDevice pins the compute device, bypassing the probe. A nil device
// forces the CPU path.
func WithDevice(dev compute.Device) Option {
	return func(e *Engine) {
		e.prober = func(mode compute.Mode) (compute.Device, compute.Info) {
			info := compute.Info{Mode: mode, Backend: "none", Features: compute.Features()}
			if dev != nil {
				info.Backend = dev.Name()
			}
			return dev, info
		}
	}
}

// WithProber replaces the compute probe.
func WithProber(p Prober) Option {
	return func(e *Engine) {
		if p != nil {
			e.prober = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver sets the observer notified of searches and fallbacks.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}
