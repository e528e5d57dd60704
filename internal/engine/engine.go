package engine

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/appdeck/internal/compute"
	"github.com/hupe1980/appdeck/internal/kernel"
	"github.com/hupe1980/appdeck/internal/layout"
	"github.com/hupe1980/appdeck/internal/rescache"
	"github.com/hupe1980/appdeck/internal/score"
	"github.com/hupe1980/appdeck/model"
)

// Engine is the search engine. It is safe for concurrent use; every call
// works on its own pooled transfer buffers.
type Engine struct {
	cfg    Config
	scorer score.Scorer
	pool   *layout.Pool
	cache  *rescache.Cache

	prober Prober
	mu     sync.RWMutex
	device compute.Device
	info   compute.Info

	logger   *slog.Logger
	observer Observer
	stats    counters
}

// New creates an engine and probes the compute device.
func New(opts ...Option) *Engine {
	e := &Engine{
		cfg:      DefaultConfig(),
		prober:   compute.Probe,
		logger:   slog.New(slog.DiscardHandler),
		observer: NoopObserver{},
	}

	for _, opt := range opts {
		opt(e)
	}

	e.cfg = e.cfg.normalized()
	e.scorer = score.NewScorer(e.cfg.TrustedPrefix)
	e.pool = layout.NewPool(layout.Layout{FieldCapacity: e.cfg.FieldCapacity}, e.cfg.QueryCapacity)
	e.cache = rescache.New(e.cfg.MaxCacheEntries)

	e.Reprobe()
	return e
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Reprobe re-runs the compute probe. An unavailable device stays
// unavailable until the next Reprobe.
func (e *Engine) Reprobe() compute.Info {
	dev, info := e.prober(e.cfg.Compute)

	e.mu.Lock()
	e.device = dev
	e.info = info
	e.mu.Unlock()

	e.logger.Info("compute device probed",
		"backend", info.Backend,
		"mode", info.Mode.String(),
		"features", info.Features,
		"workers", info.Workers,
		"group_size", info.GroupSize,
		"overridden", info.Overridden,
	)
	return info
}

// Device returns the current compute device, nil if unavailable.
func (e *Engine) Device() compute.Device {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.device
}

// Info returns the result of the last probe.
func (e *Engine) Info() compute.Info {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.info
}

// ClearCache drops every cached search result. Call it whenever the item
// list changes.
func (e *Engine) ClearCache() { e.cache.Clear() }

// CacheLen returns the number of cached queries.
func (e *Engine) CacheLen() int { return e.cache.Len() }

// Stats returns engine counters.
func (e *Engine) Stats() Stats { return e.stats.snapshot() }

// Search returns the items matching query ordered by relevance. An empty
// normalized query returns items unchanged. The only errors returned are
// context errors.
func (e *Engine) Search(ctx context.Context, items []model.SearchItem, query string) ([]model.SearchItem, error) {
	q := e.normalize(query)
	if q == "" {
		e.passthrough(len(items))
		return items, nil
	}

	res, err := e.rank(ctx, items, q, false)
	if err != nil {
		return nil, err
	}

	out := make([]model.SearchItem, len(res))
	for i, h := range res {
		out[i] = items[h.rank.Index]
	}
	return out, nil
}

// Hits is Search with per-item match details. For an empty normalized
// query every item is returned in order with MatchNone.
func (e *Engine) Hits(ctx context.Context, items []model.SearchItem, query string) ([]model.Hit, error) {
	q := e.normalize(query)
	if q == "" {
		e.passthrough(len(items))
		out := make([]model.Hit, len(items))
		for i := range items {
			out[i] = model.Hit{Item: items[i], Index: i}
		}
		return out, nil
	}

	res, err := e.rank(ctx, items, q, true)
	if err != nil {
		return nil, err
	}

	out := make([]model.Hit, len(res))
	for i, h := range res {
		idx := int(h.rank.Index)
		out[i] = model.Hit{
			Item:  items[idx],
			Index: idx,
			Kind:  h.match.Kind,
			Field: h.match.Field,
			Score: h.rank.Score,
		}
	}
	return out, nil
}

// normalize folds, trims and clamps the query to the transfer capacity.
func (e *Engine) normalize(query string) string {
	return score.ClampString(score.NormalizeQuery(query), e.cfg.QueryCapacity-1)
}

func (e *Engine) passthrough(n int) {
	e.stats.passthrough.Add(1)
	e.observer.OnSearch(PathPassthrough, n, 0, false)
}

type hit struct {
	rank  score.Ranked
	match score.Match
}

func (e *Engine) rank(ctx context.Context, items []model.SearchItem, q string, details bool) ([]hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	if ids, ok := e.cache.Get(q); ok {
		e.stats.cacheHits.Add(1)
		res := e.resolve(items, q, ids, details)
		e.observer.OnSearch(PathCache, len(res), time.Since(start), true)
		return res, nil
	}
	e.stats.cacheMisses.Add(1)

	path := PathCPU
	var (
		res []hit
		err error
	)

	dev := e.Device()
	if dev != nil && len(items) >= e.cfg.CPUThreshold {
		path = PathCompute
		res, err = e.rankCompute(ctx, dev, items, q)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			e.fallback(err)
			path = PathFallback
			res = nil
		} else {
			e.stats.computeRuns.Add(1)
		}
	}

	if path != PathCompute {
		res = e.rankCPU(items, q)
		e.stats.cpuRuns.Add(1)
	}

	res = dedupe(items, res)

	ids := make([]string, len(res))
	for i, h := range res {
		ids[i] = items[h.rank.Index].ID
	}
	e.cache.Put(q, ids)

	d := time.Since(start)
	e.observer.OnSearch(path, len(res), d, false)
	e.logger.Debug("search",
		"path", path,
		"items", len(items),
		"results", len(res),
		"duration", d,
	)
	return res, nil
}

func (e *Engine) fallback(err error) {
	stage := "unknown"
	var de *compute.DispatchError
	if errors.As(err, &de) {
		stage = de.Label
	}

	e.stats.fallbacks.Add(1)
	e.observer.OnFallback(stage, err)
	e.logger.Warn("compute dispatch failed, falling back to CPU",
		"stage", stage,
		"error", err,
	)
}

// rankCompute runs the kernel pipeline on dev.
func (e *Engine) rankCompute(ctx context.Context, dev compute.Device, items []model.SearchItem, q string) ([]hit, error) {
	tb := e.pool.Get()
	tb.Load(items, q)
	a := &kernel.Args{
		Query:   tb.Query.Bytes(),
		Items:   tb.Items,
		Results: &tb.Results,
		Scorer:  e.scorer,
	}

	order, err := kernel.Run(ctx, dev, a)
	if err != nil {
		// A device that returns early on cancellation may still be writing
		// into tb, so it never goes back to the pool.
		if ctx.Err() == nil {
			e.pool.Put(tb)
		}
		return nil, err
	}
	defer e.pool.Put(tb)

	// Name and Key alias the pooled buffers, so only the score and index
	// leave this function.
	res := make([]hit, len(order))
	for i, idx := range order {
		res[i] = hit{
			rank:  score.Ranked{Score: tb.Results.Score[idx], Index: idx},
			match: a.Match(int(idx)),
		}
	}
	return res, nil
}

// rankCPU evaluates and sorts sequentially. Fields are clamped exactly as
// the transfer records clamp them.
func (e *Engine) rankCPU(items []model.SearchItem, q string) []hit {
	qb := []byte(q)
	limit := e.pool.Layout().MaxFieldLength()

	var res []hit
	for i := range items {
		name, key := e.fields(items[i], limit)
		m, s := e.scorer.Evaluate(qb, name, key)
		if !m.Matched() {
			continue
		}
		res = append(res, hit{
			rank:  score.Ranked{Score: s, Name: name, Key: key, Index: uint32(i)},
			match: m,
		})
	}

	slices.SortFunc(res, func(a, b hit) int { return score.Compare(a.rank, b.rank) })
	return res
}

// resolve maps cached ids back onto the current snapshot. Ids that are no
// longer present are dropped. An id shared by several items resolves to its
// best-ranked matching occurrence, as dedupe picked it.
func (e *Engine) resolve(items []model.SearchItem, q string, ids []string, details bool) []hit {
	if len(ids) == 0 {
		return nil
	}

	index := make(map[string][]int, len(items))
	for i := range items {
		index[items[i].ID] = append(index[items[i].ID], i)
	}

	qb := []byte(q)
	limit := e.pool.Layout().MaxFieldLength()

	res := make([]hit, 0, len(ids))
	for _, id := range ids {
		occ := index[id]
		switch {
		case len(occ) == 0:
			continue
		case len(occ) == 1 && !details:
			res = append(res, hit{rank: score.Ranked{Index: uint32(occ[0])}})
			continue
		}

		var (
			best  hit
			found bool
		)
		for _, i := range occ {
			name, key := e.fields(items[i], limit)
			m, s := e.scorer.Evaluate(qb, name, key)
			if !m.Matched() {
				continue
			}
			h := hit{rank: score.Ranked{Score: s, Name: name, Key: key, Index: uint32(i)}, match: m}
			if !found || score.Compare(h.rank, best.rank) < 0 {
				best, found = h, true
			}
		}
		if found {
			res = append(res, best)
		}
	}
	return res
}

func (e *Engine) fields(it model.SearchItem, limit int) (name, key []byte) {
	name = []byte(score.ClampString(score.Fold(it.Name), limit))
	key = []byte(score.ClampString(score.Fold(it.SecondaryKey), limit))
	return name, key
}

// dedupe keeps the best-ranked occurrence of every id.
func dedupe(items []model.SearchItem, res []hit) []hit {
	if len(res) < 2 {
		return res
	}
	seen := make(map[string]struct{}, len(res))
	out := res[:0]
	for _, h := range res {
		id := items[h.rank.Index].ID
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, h)
	}
	return out
}
