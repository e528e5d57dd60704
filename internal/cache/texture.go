package cache

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/appdeck/icon"
	"github.com/hupe1980/appdeck/internal/resource"
)

// Key identifies a texture.
type Key struct {
	Identity string
	Size     int
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%d", k.Identity, k.Size)
}

type entry struct {
	tex        *icon.Texture
	lastAccess atomic.Int64
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Renders   int64
	Evictions int64
	Entries   int
	Bytes     int64
	// BudgetBytes is the byte limit of the resource controller, which may
	// be shared with other caches. 0 means untracked.
	BudgetBytes int64
	// PreheatSlots is the number of concurrent preheat renders.
	PreheatSlots int
}

// TextureCache is safe for concurrent use.
type TextureCache struct {
	cfg       Config
	renderer  icon.Renderer
	rc        *resource.Controller
	submitter Submitter
	logger    *slog.Logger
	observer  Observer

	mu      sync.RWMutex
	entries map[Key]*entry
	bytes   int64

	group      singleflight.Group
	clock      atomic.Int64
	generation atomic.Uint64

	hits      atomic.Int64
	misses    atomic.Int64
	renders   atomic.Int64
	evictions atomic.Int64
}

// New creates a cache rendering misses with r.
func New(r icon.Renderer, opts ...Option) *TextureCache {
	c := &TextureCache{
		cfg:      DefaultConfig(),
		renderer: r,
		logger:   slog.New(slog.DiscardHandler),
		observer: NoopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.cfg = c.cfg.normalized()
	if c.rc == nil {
		c.rc = resource.NewController(resource.Config{
			MemoryLimitBytes:     c.cfg.MaxBytes,
			MaxBackgroundWorkers: int64(c.cfg.PreheatWorkers),
			RendersPerSec:        c.cfg.RenderRate,
		})
	}
	c.entries = make(map[Key]*entry, c.cfg.MaxEntries)
	return c
}

// Config returns the effective configuration.
func (c *TextureCache) Config() Config { return c.cfg }

func (c *TextureCache) tick() int64 { return c.clock.Add(1) }

// Get returns the texture for identity at size, rendering it on a miss.
// Render failures yield a placeholder texture. The error is non-nil only if
// ctx is done before the texture is available; a render abandoned this way
// still completes and is cached.
func (c *TextureCache) Get(ctx context.Context, identity string, size int) (*icon.Texture, error) {
	key := Key{Identity: identity, Size: icon.ClampSize(size)}

	if tex, ok := c.lookup(key); ok {
		c.hits.Add(1)
		c.observer.OnLookup(true)
		return tex, nil
	}
	c.misses.Add(1)
	c.observer.OnLookup(false)

	return c.fetch(ctx, context.WithoutCancel(ctx), key)
}

// Contains reports whether the texture is cached without touching its
// access time.
func (c *TextureCache) Contains(identity string, size int) bool {
	key := Key{Identity: identity, Size: icon.ClampSize(size)}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[key]
	return ok
}

func (c *TextureCache) lookup(key Key) (*icon.Texture, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	e.lastAccess.Store(c.tick())
	return e.tex, true
}

// fetch renders key once across concurrent callers. renderCtx is passed to
// the renderer; waitCtx only bounds this caller's wait.
func (c *TextureCache) fetch(waitCtx, renderCtx context.Context, key Key) (*icon.Texture, error) {
	for {
		ch := c.group.DoChan(key.String(), func() (any, error) {
			if tex, ok := c.lookup(key); ok {
				return tex, nil
			}
			return c.load(renderCtx, key)
		})

		select {
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(*icon.Texture), nil
			}
			// Joined a flight whose own context was canceled; start over.
			if waitCtx.Err() == nil && renderCtx.Err() == nil {
				continue
			}
			return nil, res.Err
		case <-waitCtx.Done():
			return nil, waitCtx.Err()
		}
	}
}

func (c *TextureCache) load(ctx context.Context, key Key) (*icon.Texture, error) {
	gen := c.generation.Load()

	start := time.Now()
	img, err := c.render(ctx, key)
	d := time.Since(start)
	c.renders.Add(1)
	c.observer.OnRender(d, err)

	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return nil, err
	}

	var tex *icon.Texture
	if err != nil {
		c.logger.Debug("icon render failed, using placeholder",
			"identity", key.Identity,
			"size", key.Size,
			"error", err,
		)
		tex = icon.Placeholder(key.Identity, key.Size)
	} else {
		tex = icon.ToTexture(key.Identity, key.Size, img)
	}

	return c.insert(key, tex, gen), nil
}

func (c *TextureCache) render(ctx context.Context, key Key) (img image.Image, err error) {
	if c.renderer == nil {
		return nil, icon.ErrNoIcon
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("icon: renderer panicked: %v", r)
		}
	}()
	img, err = c.renderer.Render(ctx, key.Identity, key.Size)
	if err == nil && img == nil {
		err = icon.ErrNoIcon
	}
	return img, err
}

// insert stores tex unless the cache was cleared since gen or tex can never
// fit the byte budget. It returns the texture callers should use.
func (c *TextureCache) insert(key Key, tex *icon.Texture, gen uint64) *icon.Texture {
	size := tex.Bytes()
	if size > c.cfg.MaxBytes || !c.rc.Fits(size) {
		c.logger.Debug("texture exceeds cache budget, not cached", "key", key.String(), "bytes", size)
		return tex
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation.Load() {
		return tex
	}
	if e, ok := c.entries[key]; ok {
		e.lastAccess.Store(c.tick())
		return e.tex
	}

	evicted, ok := c.makeRoomLocked(size)
	if evicted > 0 {
		c.evictions.Add(int64(evicted))
		c.observer.OnEvict(evicted)
	}
	if !ok {
		return tex
	}

	e := &entry{tex: tex}
	e.lastAccess.Store(c.tick())
	c.entries[key] = e
	c.bytes += size
	return tex
}

// makeRoomLocked evicts least recently accessed entries until one more
// texture of size bytes fits, reserving its memory on success.
func (c *TextureCache) makeRoomLocked(size int64) (int, bool) {
	fits := func() bool {
		return len(c.entries) < c.cfg.MaxEntries &&
			c.bytes+size <= c.cfg.MaxBytes &&
			c.rc.AcquireMemory(size) == nil
	}
	if fits() {
		return 0, true
	}

	type victim struct {
		key  Key
		tick int64
	}
	victims := make([]victim, 0, len(c.entries))
	for k, e := range c.entries {
		victims = append(victims, victim{key: k, tick: e.lastAccess.Load()})
	}
	slices.SortFunc(victims, func(a, b victim) int { return cmp.Compare(a.tick, b.tick) })

	evicted := 0
	for _, v := range victims {
		c.removeLocked(v.key)
		evicted++
		if fits() {
			return evicted, true
		}
	}
	return evicted, false
}

func (c *TextureCache) removeLocked(key Key) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	delete(c.entries, key)
	size := e.tex.Bytes()
	c.bytes -= size
	c.rc.ReleaseMemory(size)
}

// Remove drops one texture.
func (c *TextureCache) Remove(identity string, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(Key{Identity: identity, Size: icon.ClampSize(size)})
}

// Clear drops every texture. Renders in flight complete for their callers
// but are not inserted.
func (c *TextureCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation.Add(1)
	c.rc.ReleaseMemory(c.bytes)
	c.bytes = 0
	c.entries = make(map[Key]*entry, c.cfg.MaxEntries)
}

// Len returns the number of cached textures.
func (c *TextureCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys returns the cached keys from least to most recently accessed.
func (c *TextureCache) Keys() []Key {
	c.mu.RLock()
	defer c.mu.RUnlock()

	type kt struct {
		key  Key
		tick int64
	}
	all := make([]kt, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, kt{key: k, tick: e.lastAccess.Load()})
	}
	slices.SortFunc(all, func(a, b kt) int { return cmp.Compare(a.tick, b.tick) })

	keys := make([]Key, len(all))
	for i := range all {
		keys[i] = all[i].key
	}
	return keys
}

// Stats returns cache counters.
func (c *TextureCache) Stats() Stats {
	c.mu.RLock()
	entries, bytes := len(c.entries), c.bytes
	c.mu.RUnlock()

	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Renders:   c.renders.Load(),
		Evictions: c.evictions.Load(),
		Entries:   entries,
		Bytes:     bytes,

		BudgetBytes:  c.rc.MemoryLimit(),
		PreheatSlots: c.rc.MaxBackground(),
	}
}
