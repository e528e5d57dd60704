package appdeck

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/appdeck/internal/cache"
	"github.com/hupe1980/appdeck/internal/engine"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus; see package metrics/prom.
type MetricsCollector interface {
	// RecordSearch is called after each search. path is one of
	// "passthrough", "cache", "compute", "cpu" or "fallback".
	RecordSearch(path string, results int, duration time.Duration, cached bool)

	// RecordFallback is called when a compute dispatch fails and the
	// search is retried on the CPU. stage is the failed dispatch label.
	RecordFallback(stage string, err error)

	// RecordIconLookup is called for every icon lookup.
	RecordIconLookup(hit bool)

	// RecordIconEviction is called when an insert evicts count textures.
	RecordIconEviction(count int)

	// RecordIconRender is called after each icon render.
	RecordIconRender(duration time.Duration, err error)

	// RecordRescan is called after each rescan.
	RecordRescan(items int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSearch(string, int, time.Duration, bool) {}
func (NoopMetricsCollector) RecordFallback(string, error)                  {}
func (NoopMetricsCollector) RecordIconLookup(bool)                         {}
func (NoopMetricsCollector) RecordIconEviction(int)                        {}
func (NoopMetricsCollector) RecordIconRender(time.Duration, error)         {}
func (NoopMetricsCollector) RecordRescan(int, time.Duration, error)        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SearchCount      atomic.Int64
	SearchCached     atomic.Int64
	SearchCompute    atomic.Int64
	SearchCPU        atomic.Int64
	SearchTotalNanos atomic.Int64
	Fallbacks        atomic.Int64
	IconHits         atomic.Int64
	IconMisses       atomic.Int64
	IconEvictions    atomic.Int64
	IconRenders      atomic.Int64
	IconRenderErrors atomic.Int64
	RescanCount      atomic.Int64
	RescanErrors     atomic.Int64
	RescanItems      atomic.Int64
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(path string, results int, duration time.Duration, cached bool) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if cached {
		b.SearchCached.Add(1)
	}
	switch path {
	case engine.PathCompute:
		b.SearchCompute.Add(1)
	case engine.PathCPU, engine.PathFallback:
		b.SearchCPU.Add(1)
	}
}

// RecordFallback implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFallback(stage string, err error) {
	b.Fallbacks.Add(1)
}

// RecordIconLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIconLookup(hit bool) {
	if hit {
		b.IconHits.Add(1)
	} else {
		b.IconMisses.Add(1)
	}
}

// RecordIconEviction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIconEviction(count int) {
	b.IconEvictions.Add(int64(count))
}

// RecordIconRender implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIconRender(duration time.Duration, err error) {
	b.IconRenders.Add(1)
	if err != nil {
		b.IconRenderErrors.Add(1)
	}
}

// RecordRescan implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRescan(items int, duration time.Duration, err error) {
	b.RescanCount.Add(1)
	if err != nil {
		b.RescanErrors.Add(1)
		return
	}
	b.RescanItems.Store(int64(items))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SearchCount:      b.SearchCount.Load(),
		SearchCached:     b.SearchCached.Load(),
		SearchCompute:    b.SearchCompute.Load(),
		SearchCPU:        b.SearchCPU.Load(),
		SearchAvgNanos:   b.getAvgSearchNanos(),
		Fallbacks:        b.Fallbacks.Load(),
		IconHits:         b.IconHits.Load(),
		IconMisses:       b.IconMisses.Load(),
		IconEvictions:    b.IconEvictions.Load(),
		IconRenders:      b.IconRenders.Load(),
		IconRenderErrors: b.IconRenderErrors.Load(),
		RescanCount:      b.RescanCount.Load(),
		RescanErrors:     b.RescanErrors.Load(),
		RescanItems:      b.RescanItems.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SearchCount      int64
	SearchCached     int64
	SearchCompute    int64
	SearchCPU        int64
	SearchAvgNanos   int64
	Fallbacks        int64
	IconHits         int64
	IconMisses       int64
	IconEvictions    int64
	IconRenders      int64
	IconRenderErrors int64
	RescanCount      int64
	RescanErrors     int64
	RescanItems      int64
}

// engineObserver forwards engine events to a MetricsCollector.
type engineObserver struct{ m MetricsCollector }

var _ engine.Observer = engineObserver{}

func (o engineObserver) OnSearch(path string, results int, d time.Duration, cached bool) {
	o.m.RecordSearch(path, results, d, cached)
}

func (o engineObserver) OnFallback(stage string, err error) {
	o.m.RecordFallback(stage, err)
}

// cacheObserver forwards icon cache events to a MetricsCollector.
type cacheObserver struct{ m MetricsCollector }

var _ cache.Observer = cacheObserver{}

func (o cacheObserver) OnLookup(hit bool)                   { o.m.RecordIconLookup(hit) }
func (o cacheObserver) OnEvict(count int)                   { o.m.RecordIconEviction(count) }
func (o cacheObserver) OnRender(d time.Duration, err error) { o.m.RecordIconRender(d, err) }
