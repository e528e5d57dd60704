package engine

import (
	"sync/atomic"
	"time"
)

// Execution paths reported to observers.
const (
	PathPassthrough = "passthrough"
	PathCache       = "cache"
	PathCompute     = "compute"
	PathCPU         = "cpu"
	PathFallback    = "fallback"
)

// Observer defines the interface for observing engine events.
type Observer interface {
	// OnSearch is called when a search completes.
	OnSearch(path string, results int, duration time.Duration, cached bool)

	// OnFallback is called when a compute dispatch fails and the call
	// is retried on the CPU path.
	OnFallback(stage string, err error)
}

// NoopObserver is a no-op implementation of Observer.
type NoopObserver struct{}

func (NoopObserver) OnSearch(path string, results int, duration time.Duration, cached bool) {}
func (NoopObserver) OnFallback(stage string, err error)                                     {}

// Stats is a point-in-time snapshot of engine counters.
type Stats struct {
	ComputeRuns int64
	CPURuns     int64
	Fallbacks   int64
	CacheHits   int64
	CacheMisses int64
	Passthrough int64
}

type counters struct {
	computeRuns atomic.Int64
	cpuRuns     atomic.Int64
	fallbacks   atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	passthrough atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		ComputeRuns: c.computeRuns.Load(),
		CPURuns:     c.cpuRuns.Load(),
		Fallbacks:   c.fallbacks.Load(),
		CacheHits:   c.cacheHits.Load(),
		CacheMisses: c.cacheMisses.Load(),
		Passthrough: c.passthrough.Load(),
	}
}
