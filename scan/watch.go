package scan

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a change triggers a rescan.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports changes below application roots.
type Watcher struct {
	watcher  *fsnotify.Watcher
	roots    []string
	maxDepth int
	debounce time.Duration
	logger   *slog.Logger
	onChange func()
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the quiet period. A non-positive value uses DefaultDebounce.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchDepth sets how many directory levels below a root are watched.
func WithWatchDepth(depth int) WatchOption {
	return func(w *Watcher) {
		if depth > 0 {
			w.maxDepth = depth
		}
	}
}

// WithWatchLogger sets the logger.
func WithWatchLogger(l *slog.Logger) WatchOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWatcher watches roots and calls onChange once per burst of changes.
// Roots that do not exist yet are ignored.
func NewWatcher(roots []string, onChange func(), opts ...WatchOption) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("scan: watcher needs a change callback")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fsw,
		roots:    slices.Clone(roots),
		maxDepth: DefaultMaxDepth,
		debounce: DefaultDebounce,
		logger:   slog.New(slog.DiscardHandler),
		onChange: onChange,
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, root := range w.roots {
		if err := w.addTree(root, 0); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Watched returns the directories currently watched.
func (w *Watcher) Watched() []string {
	return w.watcher.WatchList()
}

// addTree watches dir and its non-bundle subdirectories down to maxDepth.
// Bundle internals are not watched; a change to the bundle directory entry
// itself is enough to trigger a rescan.
func (w *Watcher) addTree(dir string, level int) error {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if level >= w.maxDepth {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.logger.Debug("watch: read dir failed", "dir", dir, "error", err)
		return nil
	}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") || strings.HasSuffix(e.Name(), ".app") {
			continue
		}
		if err := w.addTree(filepath.Join(dir, e.Name()), level+1); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) level(path string) int {
	best := -1
	for _, root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			if d := depth(root, path); best < 0 || d < best {
				best = d
			}
		}
	}
	return best
}

// Run delivers debounced change notifications until ctx is done, then
// closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			if ev.Op.Has(fsnotify.Create) && !strings.HasSuffix(ev.Name, ".app") {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if lvl := w.level(ev.Name); lvl >= 0 && lvl <= w.maxDepth {
						_ = w.addTree(ev.Name, lvl)
					}
				}
			}
			w.logger.Debug("watch: change", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)
			pending = true
		case <-timer.C:
			if pending {
				pending = false
				w.onChange()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch: error", "error", err)
		}
	}
}

// Close stops the watcher without waiting for Run to return.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
