package appdeck

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/appdeck/icon"
	"github.com/hupe1980/appdeck/model"
	"github.com/hupe1980/appdeck/scan"
	"github.com/hupe1980/appdeck/testutil"
)

func solid(size int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 0xff, 0xff
	}
	return img
}

func openDeck(t *testing.T, opts ...Option) *Deck {
	t.Helper()

	base := []Option{
		WithItems(testutil.LauncherItems()),
		WithComputeMode("cpu"),
		WithRenderer(icon.RendererFunc(func(_ context.Context, _ string, size int) (image.Image, error) {
			return solid(size), nil
		})),
	}
	d, err := Open(context.Background(), append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestOpen_InitialScan(t *testing.T) {
	d := openDeck(t)

	assert.Equal(t, uint64(1), d.Generation())
	assert.Equal(t, []string{"Pages", "Safari", "Xcode"}, testutil.Names(d.Items()))
	snap := d.Snapshot()
	assert.Equal(t, 3, snap.Len())
}

func TestOpen_WithoutInitialScan(t *testing.T) {
	d := openDeck(t, WithoutInitialScan())

	assert.Equal(t, uint64(0), d.Generation())
	assert.Empty(t, d.Items())

	snap, err := d.Rescan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Generation)
}

func TestOpen_InvalidOptions(t *testing.T) {
	_, err := Open(context.Background(),
		WithComputeMode("quantum"),
		WithCPUThreshold(-1),
	)
	require.Error(t, err)

	var invalid *ErrInvalidOption
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "compute", invalid.Name)
	assert.Contains(t, err.Error(), "cpu_threshold")
}

func TestOpen_ScanError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Open(context.Background(), WithScanner(scan.Func(func(context.Context) ([]model.SearchItem, error) {
		return nil, boom
	})))
	require.ErrorIs(t, err, boom)
}

func TestDeck_Search(t *testing.T) {
	ctx := context.Background()
	d := openDeck(t)

	res, err := d.Search(ctx, "saf")
	require.NoError(t, err)
	assert.Equal(t, []string{"Safari"}, testutil.Names(res))

	res, err = d.Search(ctx, "pple")
	require.NoError(t, err)
	assert.Equal(t, []string{"Pages", "Xcode", "Safari"}, testutil.Names(res))

	res, err = d.Search(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, d.Items(), res)

	res, err = d.Search(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestDeck_Hits(t *testing.T) {
	d := openDeck(t)

	hits, err := d.Hits(context.Background(), "saf")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, model.MatchExact, hits[0].Kind)
	assert.Equal(t, model.FieldName, hits[0].Field)
	assert.InDelta(t, 107.8, hits[0].Score, 1e-4)
	assert.Equal(t, "Safari", d.Items()[hits[0].Index].Name)
}

func TestDeck_ParallelMatchesCPU(t *testing.T) {
	ctx := context.Background()
	items := testutil.NewRNG(7).Items(500)

	cpu := openDeck(t, WithItems(items), WithComputeMode("cpu"))
	par := openDeck(t, WithItems(items), WithComputeMode("parallel"), WithCPUThreshold(0))
	assert.Equal(t, "none", cpu.Stats().Backend)
	assert.Equal(t, "parallel", par.Stats().Backend)

	rng := testutil.NewRNG(11)
	for i := 0; i < 25; i++ {
		q := rng.Query(items, 4)

		want, err := cpu.Hits(ctx, q)
		require.NoError(t, err)
		got, err := par.Hits(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, want, got, "query %q", q)
	}
	assert.Positive(t, par.Stats().Search.ComputeRuns)
}

func TestDeck_RescanPublishesGeneration(t *testing.T) {
	ctx := context.Background()

	var (
		mu    sync.Mutex
		items = testutil.LauncherItems()
	)
	scanner := scan.Func(func(context.Context) ([]model.SearchItem, error) {
		mu.Lock()
		defer mu.Unlock()
		return scan.Normalize(append([]model.SearchItem(nil), items...)), nil
	})
	d := openDeck(t, WithScanner(scanner))

	res, err := d.Search(ctx, "saf")
	require.NoError(t, err)
	require.Len(t, res, 1)

	mu.Lock()
	items = append(items, model.SearchItem{ID: "org.mozilla.firefox", Name: "Safe Mode Firefox"})
	mu.Unlock()

	snap, err := d.Rescan(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), snap.Generation)
	assert.Equal(t, uint64(2), d.Generation())

	res, err = d.Search(ctx, "saf")
	require.NoError(t, err)
	assert.Equal(t, []string{"Safari", "Safe Mode Firefox"}, testutil.Names(res))
}

func TestDeck_RescanFailureKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	fail := false
	scanner := scan.Func(func(context.Context) ([]model.SearchItem, error) {
		if fail {
			return nil, errors.New("disk gone")
		}
		return testutil.LauncherItems(), nil
	})
	d := openDeck(t, WithScanner(scanner))

	fail = true
	_, err := d.Rescan(ctx)
	require.Error(t, err)
	assert.Equal(t, uint64(1), d.Generation())
	assert.Len(t, d.Items(), 3)
}

func TestDeck_RescanAsync(t *testing.T) {
	d := openDeck(t)

	select {
	case err := <-d.RescanAsync(context.Background()):
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("rescan did not finish")
	}
	assert.Equal(t, uint64(2), d.Generation())
}

func TestDeck_NoScanner(t *testing.T) {
	d, err := Open(context.Background())
	require.NoError(t, err)
	defer d.Close()

	_, err = d.Rescan(context.Background())
	require.ErrorIs(t, err, ErrNoScanner)
	require.ErrorIs(t, d.Watch(context.Background()), ErrNoScanner)

	res, err := d.Search(context.Background(), "a")
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestDeck_Icon(t *testing.T) {
	ctx := context.Background()
	d := openDeck(t, WithDefaultIconSize(32))

	tex, err := d.Icon(ctx, "com.apple.Safari", 0)
	require.NoError(t, err)
	assert.Equal(t, 32, tex.Size)
	assert.False(t, tex.Placeholder)

	again, err := d.Icons().Get(ctx, "com.apple.Safari", 32)
	require.NoError(t, err)
	assert.Same(t, tex, again)

	d.ClearIcons()
	fresh, err := d.Icon(ctx, "com.apple.Safari", 32)
	require.NoError(t, err)
	assert.NotSame(t, tex, fresh)
}

func TestDeck_IconPlaceholder(t *testing.T) {
	d := openDeck(t, WithRenderer(icon.RendererFunc(func(context.Context, string, int) (image.Image, error) {
		return nil, ErrNoIcon
	})))

	tex, err := d.Icon(context.Background(), "com.apple.Safari", 16)
	require.NoError(t, err)
	assert.True(t, tex.Placeholder)
	assert.Equal(t, 16, tex.Size)
}

func TestDeck_IconFromBundle(t *testing.T) {
	root := t.TempDir()
	res := filepath.Join(root, "Notes.app", "Contents", "Resources")
	require.NoError(t, os.MkdirAll(res, 0o755))

	f, err := os.Create(filepath.Join(res, "AppIcon.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, solid(8)))
	require.NoError(t, f.Close())

	d, err := Open(context.Background(), WithRoots(root))
	require.NoError(t, err)
	defer d.Close()

	items := d.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Notes", items[0].Name)

	tex, err := d.Icon(context.Background(), items[0].ID, 16)
	require.NoError(t, err)
	assert.False(t, tex.Placeholder)
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, tex.Image.RGBAAt(8, 8))

	missing, err := d.Icon(context.Background(), "unknown", 16)
	require.NoError(t, err)
	assert.True(t, missing.Placeholder)
}

func TestDeck_Preheat(t *testing.T) {
	ctx := context.Background()
	d := openDeck(t)

	job, err := d.Preheat(ctx, nil, 24)
	require.NoError(t, err)
	stats := job.Wait()
	assert.Equal(t, 3, stats.Requested)
	assert.Equal(t, 3, stats.Rendered)

	for _, it := range d.Items() {
		assert.True(t, d.icons.Contains(it.ID, 24))
	}

	job, err = d.Preheat(ctx, []string{"com.apple.Safari"}, 24)
	require.NoError(t, err)
	assert.Equal(t, 1, job.Wait().Cached)
}

func TestDeck_Watch(t *testing.T) {
	root := t.TempDir()
	d, err := Open(context.Background(), WithRoots(root), WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer d.Close()
	require.Empty(t, d.Items())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Watch(ctx) }()

	// Give the watcher time to register the root.
	time.Sleep(100 * time.Millisecond)

	entry := "[Desktop Entry]\nType=Application\nName=Terminal\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "terminal.desktop"), []byte(entry), 0o644))

	assert.Eventually(t, func() bool {
		return len(d.Items()) == 1
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestDeck_Closed(t *testing.T) {
	ctx := context.Background()
	d := openDeck(t)
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	_, err := d.Search(ctx, "saf")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = d.Hits(ctx, "saf")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = d.Icon(ctx, "x", 0)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = d.Preheat(ctx, nil, 0)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = d.Rescan(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, <-d.RescanAsync(ctx), ErrClosed)
}

func TestDeck_Metrics(t *testing.T) {
	ctx := context.Background()
	m := &BasicMetricsCollector{}
	d := openDeck(t, WithMetricsCollector(m))

	_, err := d.Search(ctx, "saf")
	require.NoError(t, err)
	_, err = d.Search(ctx, "saf")
	require.NoError(t, err)
	_, err = d.Icon(ctx, "com.apple.Safari", 8)
	require.NoError(t, err)
	_, err = d.Icon(ctx, "com.apple.Safari", 8)
	require.NoError(t, err)

	s := m.GetStats()
	assert.Equal(t, int64(2), s.SearchCount)
	assert.Equal(t, int64(1), s.SearchCached)
	assert.Equal(t, int64(1), s.SearchCPU)
	assert.Equal(t, int64(1), s.IconHits)
	assert.Equal(t, int64(1), s.IconMisses)
	assert.Equal(t, int64(1), s.IconRenders)
	assert.Equal(t, int64(1), s.RescanCount)
	assert.Equal(t, int64(3), s.RescanItems)

	stats := d.Stats()
	assert.Equal(t, uint64(1), stats.Generation)
	assert.Equal(t, 3, stats.Items)
	assert.Equal(t, int64(1), stats.Search.CacheHits)
	assert.Equal(t, 1, stats.Icons.Entries)
}

func TestDeck_ConcurrentSearchAndRescan(t *testing.T) {
	ctx := context.Background()
	d := openDeck(t, WithItems(testutil.NewRNG(3).Items(200)), WithComputeMode("parallel"), WithCPUThreshold(10))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, err := d.Search(ctx, string(rune('a'+(i+j)%26)))
				assert.NoError(t, err)
			}
		}(i)
	}
	for i := 0; i < 5; i++ {
		_, err := d.Rescan(ctx)
		require.NoError(t, err)
	}
	wg.Wait()
	assert.Equal(t, uint64(6), d.Generation())
}

func TestDeck_BackgroundWatch(t *testing.T) {
	root := t.TempDir()
	d, err := Open(context.Background(), WithRoots(root), WithWatch(true), WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	entry := "[Desktop Entry]\nType=Application\nName=Files\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "files.desktop"), []byte(entry), 0o644))

	assert.Eventually(t, func() bool {
		return len(d.Items()) == 1
	}, 5*time.Second, 20*time.Millisecond)

	done := make(chan struct{})
	go func() {
		_ = d.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("close did not stop the watcher")
	}
}

func TestOpen_WatchRequiresRoots(t *testing.T) {
	_, err := Open(context.Background(), WithItems(testutil.LauncherItems()), WithWatch(true))
	require.ErrorIs(t, err, ErrNoScanner)
}

func TestDeck_Reprobe(t *testing.T) {
	d := openDeck(t, WithComputeMode("parallel"))
	assert.Equal(t, "parallel", d.Reprobe())
	assert.Equal(t, "parallel", d.Stats().Backend)
}
