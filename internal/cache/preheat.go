package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/appdeck/icon"
)

// PreheatStats summarizes a finished preheat.
type PreheatStats struct {
	Requested int
	// Rendered counts textures produced by a successful render.
	Rendered int
	// Cached counts keys that were already present.
	Cached int
	// Failed counts keys that ended up as placeholders.
	Failed int
	// Skipped counts keys abandoned because ctx was done or the
	// submitter refused the task.
	Skipped  int
	Duration time.Duration
}

// PreheatJob tracks one asynchronous preheat.
type PreheatJob struct {
	done  chan struct{}
	stats PreheatStats

	rendered atomic.Int64
	cached   atomic.Int64
	failed   atomic.Int64
	skipped  atomic.Int64
}

// Done is closed when every key has been handled.
func (j *PreheatJob) Done() <-chan struct{} { return j.done }

// Wait blocks until the job completes and returns its stats.
func (j *PreheatJob) Wait() PreheatStats {
	<-j.done
	return j.stats
}

// Preheat populates the cache for identities at size without blocking the
// caller. Keys already cached are skipped. Renders run concurrently, bounded
// by the preheat slots and the render rate of the resource controller.
func (c *TextureCache) Preheat(ctx context.Context, identities []string, size int) *PreheatJob {
	job := &PreheatJob{
		done:  make(chan struct{}),
		stats: PreheatStats{Requested: len(identities)},
	}
	size = icon.ClampSize(size)

	go func() {
		start := time.Now()
		var wg sync.WaitGroup

		for i, id := range identities {
			if ctx.Err() != nil {
				job.skipped.Add(int64(len(identities) - i))
				break
			}
			if c.Contains(id, size) {
				job.cached.Add(1)
				continue
			}
			if err := c.rc.AcquireBackground(ctx); err != nil {
				job.skipped.Add(int64(len(identities) - i))
				break
			}
			if err := c.rc.WaitRender(ctx); err != nil {
				c.rc.ReleaseBackground()
				job.skipped.Add(int64(len(identities) - i))
				break
			}

			key := Key{Identity: id, Size: size}
			task := func() {
				defer wg.Done()
				defer c.rc.ReleaseBackground()
				c.preheatOne(ctx, job, key)
			}

			wg.Add(1)
			if c.submitter == nil {
				go task()
				continue
			}
			if err := c.submitter.Submit(ctx, task); err != nil {
				wg.Done()
				c.rc.ReleaseBackground()
				job.skipped.Add(1)
			}
		}

		wg.Wait()
		job.stats.Rendered = int(job.rendered.Load())
		job.stats.Cached = int(job.cached.Load())
		job.stats.Failed = int(job.failed.Load())
		job.stats.Skipped = int(job.skipped.Load())
		job.stats.Duration = time.Since(start)

		c.logger.Debug("icon preheat finished",
			"requested", job.stats.Requested,
			"rendered", job.stats.Rendered,
			"cached", job.stats.Cached,
			"failed", job.stats.Failed,
			"skipped", job.stats.Skipped,
			"duration", job.stats.Duration,
		)
		close(job.done)
	}()

	return job
}

func (c *TextureCache) preheatOne(ctx context.Context, job *PreheatJob, key Key) {
	if c.Contains(key.Identity, key.Size) {
		job.cached.Add(1)
		return
	}
	tex, err := c.fetch(ctx, ctx, key)
	switch {
	case err != nil:
		job.skipped.Add(1)
	case tex.Placeholder:
		job.failed.Add(1)
	default:
		job.rendered.Add(1)
	}
}
