package scan

import (
	"cmp"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hupe1980/appdeck/internal/score"
	"github.com/hupe1980/appdeck/model"
)

// Scanner produces an application snapshot.
type Scanner interface {
	Scan(ctx context.Context) ([]model.SearchItem, error)
}

// Func adapts a function to Scanner.
type Func func(ctx context.Context) ([]model.SearchItem, error)

// Scan calls f.
func (f Func) Scan(ctx context.Context) ([]model.SearchItem, error) { return f(ctx) }

// Static returns a Scanner that always yields items.
func Static(items []model.SearchItem) Scanner {
	return Func(func(context.Context) ([]model.SearchItem, error) {
		return Normalize(slices.Clone(items)), nil
	})
}

// DefaultMaxDepth is how deep DirScanner descends below a root looking for
// applications (e.g. /Applications/Utilities).
const DefaultMaxDepth = 2

// DirScanner scans application directories.
type DirScanner struct {
	roots    []string
	maxDepth int
	logger   *slog.Logger
}

// DirOption configures a DirScanner.
type DirOption func(*DirScanner)

// WithMaxDepth sets how many directory levels below a root are searched.
func WithMaxDepth(depth int) DirOption {
	return func(s *DirScanner) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) DirOption {
	return func(s *DirScanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewDirScanner creates a scanner for roots. Earlier roots win when the same
// application id appears more than once.
func NewDirScanner(roots []string, opts ...DirOption) *DirScanner {
	s := &DirScanner{
		roots:    slices.Clone(roots),
		maxDepth: DefaultMaxDepth,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Roots returns the scanned roots.
func (s *DirScanner) Roots() []string { return slices.Clone(s.roots) }

// MaxDepth returns the configured search depth.
func (s *DirScanner) MaxDepth() int { return s.maxDepth }

// Scan walks every root. Missing roots are skipped; unreadable entries are
// logged and skipped.
func (s *DirScanner) Scan(ctx context.Context) ([]model.SearchItem, error) {
	var items []model.SearchItem

	for _, root := range s.roots {
		found, err := s.scanRoot(ctx, root)
		if err != nil {
			return nil, err
		}
		items = append(items, found...)
	}

	return Normalize(items), nil
}

func (s *DirScanner) scanRoot(ctx context.Context, root string) ([]model.SearchItem, error) {
	if _, err := os.Stat(root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("scan root missing", "root", root)
			return nil, nil
		}
		return nil, err
	}

	var items []model.SearchItem
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			s.logger.Debug("scan entry unreadable", "path", path, "error", err)
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		switch {
		case d.IsDir() && strings.HasSuffix(name, ".app"):
			items = append(items, ReadBundle(path))
			return filepath.SkipDir
		case d.IsDir():
			if path != root && (strings.HasPrefix(name, ".") || depth(root, path) > s.maxDepth) {
				return filepath.SkipDir
			}
		case strings.HasSuffix(name, ".desktop"):
			it, ok, err := ReadDesktopFile(path)
			if err != nil {
				s.logger.Debug("desktop entry unreadable", "path", path, "error", err)
				return nil
			}
			if ok {
				items = append(items, it)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// Normalize drops items without an id, keeps the first occurrence of every
// id, and sorts by folded name then id. It reuses the storage of items.
func Normalize(items []model.SearchItem) []model.SearchItem {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}

	slices.SortStableFunc(out, func(a, b model.SearchItem) int {
		if c := cmp.Compare(score.Fold(a.Name), score.Fold(b.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
