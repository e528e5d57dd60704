package appdeck

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/appdeck/icon"
	"github.com/hupe1980/appdeck/internal/cache"
	"github.com/hupe1980/appdeck/internal/engine"
	"github.com/hupe1980/appdeck/internal/worker"
	"github.com/hupe1980/appdeck/model"
	"github.com/hupe1980/appdeck/scan"
)

// PreheatJob tracks an asynchronous icon preheat.
type PreheatJob = cache.PreheatJob

// PreheatStats summarizes a finished preheat.
type PreheatStats = cache.PreheatStats

// SearchStats is a snapshot of search engine counters.
type SearchStats = engine.Stats

// IconStats is a snapshot of icon cache counters.
type IconStats = cache.Stats

// Stats combines the engine and icon cache counters.
type Stats struct {
	Generation uint64
	Items      int
	Backend    string
	Search     SearchStats
	Icons      IconStats
}

// state is one published item generation.
type state struct {
	snap  model.Snapshot
	paths map[string]string
}

// Deck owns the application snapshot, the search engine, and the icon cache.
// It is safe for concurrent use.
type Deck struct {
	opts    options
	logger  *Logger
	metrics MetricsCollector

	engine  *engine.Engine
	icons   *cache.TextureCache
	pool    *worker.Pool
	scanner scan.Scanner

	current  atomic.Pointer[state]
	gen      atomic.Uint64
	rescanMu sync.Mutex

	closed atomic.Bool
	stop   context.CancelFunc
	wg     sync.WaitGroup
}

// Open creates a Deck and, when a scanner is configured, runs the first scan.
func Open(ctx context.Context, optFns ...Option) (*Deck, error) {
	o := applyOptions(optFns)
	if len(o.errs) > 0 {
		return nil, errors.Join(o.errs...)
	}

	d := &Deck{
		opts:    o,
		logger:  o.logger,
		metrics: o.metricsCollector,
		scanner: o.scanner,
	}
	d.current.Store(&state{})
	d.stop = func() {}

	if d.scanner == nil && len(o.roots) > 0 {
		d.scanner = scan.NewDirScanner(o.roots,
			scan.WithMaxDepth(o.maxDepth),
			scan.WithLogger(o.logger.Logger),
		)
	}

	d.pool = worker.New(o.workers, worker.WithLogger(o.logger.Logger))

	d.engine = engine.New(
		engine.WithConfig(o.search),
		engine.WithLogger(o.logger.Logger),
		engine.WithObserver(engineObserver{m: d.metrics}),
	)

	renderer := o.renderer
	if renderer == nil {
		renderer = icon.NewFileRenderer(d.sourcePath, o.iconDirs...)
	}
	d.icons = cache.New(renderer,
		cache.WithConfig(o.icons),
		cache.WithSubmitter(d.pool),
		cache.WithLogger(o.logger.Logger),
		cache.WithObserver(cacheObserver{m: d.metrics}),
	)

	if d.scanner != nil && !o.skipInitialScan {
		if _, err := d.Rescan(ctx); err != nil {
			d.pool.Close()
			return nil, err
		}
	}

	if o.watch {
		if _, ok := d.scanner.(interface{ Roots() []string }); !ok {
			d.pool.Close()
			return nil, ErrNoScanner
		}
		watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		d.stop = cancel
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			if err := d.Watch(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
				d.logger.WarnContext(watchCtx, "background watch stopped", "error", err)
			}
		}()
	}
	return d, nil
}

func (d *Deck) sourcePath(identity string) (string, bool) {
	p, ok := d.current.Load().paths[identity]
	return p, ok
}

// Snapshot returns the current item generation.
func (d *Deck) Snapshot() model.Snapshot {
	return d.current.Load().snap
}

// Items returns the current items. The slice must not be modified.
func (d *Deck) Items() []model.SearchItem {
	return d.current.Load().snap.Items
}

// Generation returns the current snapshot generation; 0 before the first scan.
func (d *Deck) Generation() uint64 {
	return d.current.Load().snap.Generation
}

// Search returns the items matching query in relevance order. An empty
// query returns every item in snapshot order. The only errors are
// ErrClosed and context errors.
func (d *Deck) Search(ctx context.Context, query string) ([]model.SearchItem, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}

	start := time.Now()
	res, err := d.engine.Search(ctx, d.Items(), query)
	d.logger.LogSearch(ctx, query, len(res), time.Since(start), err)
	return res, err
}

// Hits is Search with per-item match detail.
func (d *Deck) Hits(ctx context.Context, query string) ([]model.Hit, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}

	start := time.Now()
	res, err := d.engine.Hits(ctx, d.Items(), query)
	d.logger.LogSearch(ctx, query, len(res), time.Since(start), err)
	return res, err
}

// Icon returns the texture for identity. size 0 uses the default icon size.
// Identities without a resolvable icon yield a placeholder texture.
func (d *Deck) Icon(ctx context.Context, identity string, size int) (*icon.Texture, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	return d.icons.Get(ctx, identity, d.iconSize(size))
}

// Icons returns the icon cache as a render-layer provider.
func (d *Deck) Icons() icon.Provider { return d.icons }

func (d *Deck) iconSize(size int) int {
	if size <= 0 {
		return d.opts.defaultIconSize
	}
	return size
}

// Preheat renders icons for identities in the background. A nil identities
// slice preheats every item of the current snapshot.
func (d *Deck) Preheat(ctx context.Context, identities []string, size int) (*PreheatJob, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	if identities == nil {
		items := d.Items()
		identities = make([]string, len(items))
		for i := range items {
			identities[i] = items[i].ID
		}
	}

	job := d.icons.Preheat(ctx, identities, d.iconSize(size))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.logger.LogPreheat(ctx, job.Wait())
	}()
	return job, nil
}

// ClearIcons drops every cached texture.
func (d *Deck) ClearIcons() { d.icons.Clear() }

// ClearSearchCache drops every cached search result.
func (d *Deck) ClearSearchCache() { d.engine.ClearCache() }

// Rescan runs the scanner and publishes its result as a new generation.
// The search-result cache is cleared around the publish so no result
// computed against the previous generation survives it.
func (d *Deck) Rescan(ctx context.Context) (model.Snapshot, error) {
	if d.closed.Load() {
		return model.Snapshot{}, ErrClosed
	}
	if d.scanner == nil {
		return model.Snapshot{}, ErrNoScanner
	}

	d.rescanMu.Lock()
	defer d.rescanMu.Unlock()

	start := time.Now()
	items, err := d.scanner.Scan(ctx)
	dur := time.Since(start)
	d.metrics.RecordRescan(len(items), dur, err)
	if err != nil {
		d.logger.LogRescan(ctx, d.Generation(), 0, dur, err)
		return model.Snapshot{}, err
	}

	st := &state{
		snap:  model.Snapshot{Generation: d.gen.Add(1), Items: items},
		paths: make(map[string]string, len(items)),
	}
	for _, it := range items {
		if _, ok := st.paths[it.ID]; !ok && it.SourcePath != "" {
			st.paths[it.ID] = it.SourcePath
		}
	}

	d.engine.ClearCache()
	d.current.Store(st)
	d.engine.ClearCache()

	d.logger.LogRescan(ctx, st.snap.Generation, len(items), dur, nil)
	return st.snap, nil
}

// RescanAsync runs Rescan on the worker pool. The channel receives the
// result once, then closes.
func (d *Deck) RescanAsync(ctx context.Context) <-chan error {
	ch := make(chan error, 1)

	err := d.pool.Submit(ctx, func() {
		_, err := d.Rescan(ctx)
		ch <- err
		close(ch)
	})
	if err != nil {
		if errors.Is(err, worker.ErrClosed) {
			err = ErrClosed
		}
		ch <- err
		close(ch)
	}
	return ch
}

// Watch rescans whenever the scanned directories change, until ctx is done.
// It requires a scanner that reports its roots, such as *scan.DirScanner.
func (d *Deck) Watch(ctx context.Context) error {
	if d.closed.Load() {
		return ErrClosed
	}
	rs, ok := d.scanner.(interface{ Roots() []string })
	if !ok {
		return ErrNoScanner
	}
	roots := rs.Roots()

	w, err := scan.NewWatcher(roots, func() {
		if d.closed.Load() {
			return
		}
		go func() {
			err := <-d.RescanAsync(ctx)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrClosed) {
				d.logger.WarnContext(ctx, "watch rescan failed", "error", err)
			}
		}()
	},
		scan.WithDebounce(d.opts.debounce),
		scan.WithWatchDepth(d.opts.maxDepth),
		scan.WithWatchLogger(d.logger.Logger),
	)
	if err != nil {
		d.logger.LogWatch(ctx, roots, err)
		return err
	}

	d.logger.LogWatch(ctx, roots, nil)
	return w.Run(ctx)
}

// Stats returns engine and icon cache counters.
func (d *Deck) Stats() Stats {
	snap := d.Snapshot()
	return Stats{
		Generation: snap.Generation,
		Items:      snap.Len(),
		Backend:    d.engine.Info().Backend,
		Search:     d.engine.Stats(),
		Icons:      d.icons.Stats(),
	}
}

// Reprobe re-detects the compute backend and returns its name.
func (d *Deck) Reprobe() string {
	return d.engine.Reprobe().Backend
}

// IDs returns the ids of items, in order.
func IDs(items []model.SearchItem) []string {
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	return ids
}

// Close stops background work. Preheats and rescans already queued run to
// completion first. Close is idempotent.
func (d *Deck) Close() error {
	if d == nil || !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	d.stop()
	d.pool.Close()
	d.wg.Wait()
	return nil
}
