// Package prom exports appdeck metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	c := prom.New(prom.WithRegisterer(reg))
//	deck, _ := appdeck.Open(ctx, appdeck.WithMetricsCollector(c))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/appdeck"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "appdeck"

// Collector implements appdeck.MetricsCollector with Prometheus metrics.
type Collector struct {
	searches      *prometheus.CounterVec
	searchLatency *prometheus.HistogramVec
	searchResults prometheus.Histogram
	fallbacks     *prometheus.CounterVec
	iconLookups   *prometheus.CounterVec
	iconEvictions prometheus.Counter
	iconRenders   *prometheus.HistogramVec
	rescans       *prometheus.CounterVec
	rescanLatency prometheus.Histogram
	items         prometheus.Gauge
}

var _ appdeck.MetricsCollector = (*Collector)(nil)

type options struct {
	namespace  string
	registerer prometheus.Registerer
}

// Option configures a Collector.
type Option func(*options)

// WithNamespace overrides DefaultNamespace.
func WithNamespace(ns string) Option {
	return func(o *options) { o.namespace = ns }
}

// WithRegisterer registers the metrics with r instead of the default registry.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) { o.registerer = r }
}

// New creates a Collector and registers its metrics. It panics if a metric
// with the same name is already registered.
func New(opts ...Option) *Collector {
	o := options{namespace: DefaultNamespace, registerer: prometheus.DefaultRegisterer}
	for _, fn := range opts {
		fn(&o)
	}

	c := &Collector{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "searches_total",
			Help:      "Searches by execution path.",
		}, []string{"path"}),
		searchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Name:      "search_duration_seconds",
			Help:      "Search latency by execution path.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14),
		}, []string{"path"}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Name:      "search_results",
			Help:      "Number of results per search.",
			Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "compute_fallbacks_total",
			Help:      "Compute dispatch failures retried on the CPU, by stage.",
		}, []string{"stage"}),
		iconLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "icon_lookups_total",
			Help:      "Icon cache lookups by result.",
		}, []string{"result"}),
		iconEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "icon_evictions_total",
			Help:      "Icon textures evicted from the cache.",
		}),
		iconRenders: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Name:      "icon_render_duration_seconds",
			Help:      "Icon render latency by status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		rescans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "rescans_total",
			Help:      "Application rescans by status.",
		}, []string{"status"}),
		rescanLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Name:      "rescan_duration_seconds",
			Help:      "Application rescan latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		items: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: o.namespace,
			Name:      "items",
			Help:      "Items in the current snapshot.",
		}),
	}

	o.registerer.MustRegister(
		c.searches,
		c.searchLatency,
		c.searchResults,
		c.fallbacks,
		c.iconLookups,
		c.iconEvictions,
		c.iconRenders,
		c.rescans,
		c.rescanLatency,
		c.items,
	)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordSearch implements appdeck.MetricsCollector.
func (c *Collector) RecordSearch(path string, results int, duration time.Duration, cached bool) {
	c.searches.WithLabelValues(path).Inc()
	c.searchLatency.WithLabelValues(path).Observe(duration.Seconds())
	c.searchResults.Observe(float64(results))
}

// RecordFallback implements appdeck.MetricsCollector.
func (c *Collector) RecordFallback(stage string, err error) {
	c.fallbacks.WithLabelValues(stage).Inc()
}

// RecordIconLookup implements appdeck.MetricsCollector.
func (c *Collector) RecordIconLookup(hit bool) {
	if hit {
		c.iconLookups.WithLabelValues("hit").Inc()
	} else {
		c.iconLookups.WithLabelValues("miss").Inc()
	}
}

// RecordIconEviction implements appdeck.MetricsCollector.
func (c *Collector) RecordIconEviction(count int) {
	c.iconEvictions.Add(float64(count))
}

// RecordIconRender implements appdeck.MetricsCollector.
func (c *Collector) RecordIconRender(duration time.Duration, err error) {
	c.iconRenders.WithLabelValues(status(err)).Observe(duration.Seconds())
}

// RecordRescan implements appdeck.MetricsCollector.
func (c *Collector) RecordRescan(items int, duration time.Duration, err error) {
	c.rescans.WithLabelValues(status(err)).Inc()
	c.rescanLatency.Observe(duration.Seconds())
	if err == nil {
		c.items.Set(float64(items))
	}
}
