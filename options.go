package appdeck

import (
	"time"

	"github.com/hupe1980/appdeck/config"
	"github.com/hupe1980/appdeck/icon"
	"github.com/hupe1980/appdeck/internal/cache"
	"github.com/hupe1980/appdeck/internal/compute"
	"github.com/hupe1980/appdeck/internal/engine"
	"github.com/hupe1980/appdeck/model"
	"github.com/hupe1980/appdeck/scan"
)

type options struct {
	search           engine.Config
	icons            cache.Config
	defaultIconSize  int
	iconDirs         []string
	scanner          scan.Scanner
	roots            []string
	maxDepth         int
	debounce         time.Duration
	watch            bool
	renderer         icon.Renderer
	workers          int
	skipInitialScan  bool
	metricsCollector MetricsCollector
	logger           *Logger
	errs             []error
}

// Option configures a Deck.
type Option func(*options)

func (o *options) invalid(name string, value any, cause error) {
	o.errs = append(o.errs, &ErrInvalidOption{Name: name, Value: value, cause: cause})
}

// WithConfig applies a file configuration. Later options override it.
// The log section is ignored; use WithLogger.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		if err := cfg.Validate(); err != nil {
			o.invalid("config", "", err)
			return
		}
		o.search = engine.Config{
			CPUThreshold:    cfg.Search.CPUThreshold,
			MaxCacheEntries: cfg.Search.MaxCacheEntries,
			TrustedPrefix:   cfg.Search.TrustedPrefix,
			FieldCapacity:   cfg.Search.FieldCapacity,
			QueryCapacity:   cfg.Search.QueryCapacity,
			Compute:         cfg.Search.ComputeMode(),
		}
		o.icons = cache.Config{
			MaxEntries:     cfg.Icons.MaxEntries,
			MaxBytes:       cfg.Icons.MaxBytes,
			PreheatWorkers: cfg.Icons.PreheatWorkers,
			RenderRate:     cfg.Icons.RenderRate,
		}
		o.defaultIconSize = cfg.Icons.DefaultSize
		o.iconDirs = cfg.Icons.SearchDirs
		o.roots = cfg.Scan.Roots
		o.maxDepth = cfg.Scan.MaxDepth
		o.debounce = cfg.Scan.Debounce.Std()
		o.watch = cfg.Scan.Watch
	}
}

// WithScanner sets the application scanner. It takes precedence over WithRoots.
func WithScanner(s scan.Scanner) Option {
	return func(o *options) {
		o.scanner = s
	}
}

// WithItems serves a fixed item list instead of scanning.
func WithItems(items []model.SearchItem) Option {
	return func(o *options) {
		o.scanner = scan.Static(items)
	}
}

// WithRoots scans the given application directories.
func WithRoots(roots ...string) Option {
	return func(o *options) {
		o.roots = roots
	}
}

// WithRenderer sets the icon renderer. By default icons are decoded from
// image files inside each application's source path.
func WithRenderer(r icon.Renderer) Option {
	return func(o *options) {
		o.renderer = r
	}
}

// WithIconDirs adds directories searched for <identity>.png icons.
func WithIconDirs(dirs ...string) Option {
	return func(o *options) {
		o.iconDirs = dirs
	}
}

// WithComputeMode selects the search execution backend: "auto", "parallel"
// or "cpu". The APPDECK_COMPUTE environment variable overrides it.
func WithComputeMode(mode string) Option {
	return func(o *options) {
		m, ok := compute.ParseMode(mode)
		if !ok {
			o.invalid("compute", mode, nil)
			return
		}
		o.search.Compute = m
	}
}

// WithCPUThreshold sets the item count below which searches run on the CPU.
func WithCPUThreshold(n int) Option {
	return func(o *options) {
		if n < 0 {
			o.invalid("cpu_threshold", n, nil)
			return
		}
		o.search.CPUThreshold = n
	}
}

// WithTrustedPrefix sets the secondary-key prefix that earns a score bonus.
// An empty prefix disables the bonus.
func WithTrustedPrefix(prefix string) Option {
	return func(o *options) {
		o.search.TrustedPrefix = prefix
	}
}

// WithSearchCacheSize bounds the search-result cache.
func WithSearchCacheSize(entries int) Option {
	return func(o *options) {
		if entries <= 0 {
			o.invalid("max_cache_entries", entries, nil)
			return
		}
		o.search.MaxCacheEntries = entries
	}
}

// WithFieldCapacity sets the per-field transfer capacity in bytes.
// Longer names and secondary keys are truncated for matching.
func WithFieldCapacity(bytes int) Option {
	return func(o *options) {
		if bytes < 2 {
			o.invalid("field_capacity", bytes, nil)
			return
		}
		o.search.FieldCapacity = bytes
	}
}

// WithIconCacheSize bounds the icon cache by entries and texture bytes.
func WithIconCacheSize(entries int, bytes int64) Option {
	return func(o *options) {
		if entries <= 0 || bytes <= 0 {
			o.invalid("icon_cache", [2]int64{int64(entries), bytes}, nil)
			return
		}
		o.icons.MaxEntries = entries
		o.icons.MaxBytes = bytes
	}
}

// WithDefaultIconSize sets the size used when Icon is called with size 0.
func WithDefaultIconSize(size int) Option {
	return func(o *options) {
		if size <= 0 || size > icon.MaxSize {
			o.invalid("default_icon_size", size, nil)
			return
		}
		o.defaultIconSize = size
	}
}

// WithPreheat sets the number of concurrent preheat renders and the render
// rate limit in renders per second (0 is unlimited).
func WithPreheat(workers int, rate float64) Option {
	return func(o *options) {
		if workers <= 0 || rate < 0 {
			o.invalid("preheat", workers, nil)
			return
		}
		o.icons.PreheatWorkers = workers
		o.icons.RenderRate = rate
	}
}

// WithWorkers sizes the background worker pool.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithDebounce sets the quiet period Watch waits before rescanning.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = d
	}
}

// WithWatch makes Open start watching the scanned directories in the
// background until Close. It requires a scanner that reports its roots.
func WithWatch(enabled bool) Option {
	return func(o *options) {
		o.watch = enabled
	}
}

// WithoutInitialScan makes Open skip the first Rescan.
func WithoutInitialScan() Option {
	return func(o *options) {
		o.skipInitialScan = true
	}
}

// WithMetricsCollector configures metrics collection for operations.
// Pass nil to disable metrics collection.
//
// Example:
//
//	metrics := &appdeck.BasicMetricsCollector{}
//	deck, _ := appdeck.Open(ctx, appdeck.WithMetricsCollector(metrics))
//	// ... use deck ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, Avg latency: %dns\n", stats.SearchCount, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := appdeck.NewJSONLogger(slog.LevelInfo)
//	deck, _ := appdeck.Open(ctx, appdeck.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		search:           engine.DefaultConfig(),
		icons:            cache.DefaultConfig(),
		defaultIconSize:  icon.DefaultSize,
		maxDepth:         scan.DefaultMaxDepth,
		debounce:         scan.DefaultDebounce,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
