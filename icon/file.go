package icon

import (
	"context"
	"fmt"
	"image"
	_ "image/png" // register decoder
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

// LookupFunc resolves an identity to the path of its application.
type LookupFunc func(identity string) (path string, ok bool)

// FileRenderer decodes icon image files found next to, or inside, an
// application's source path. Apple .icns containers are not decoded; bundles
// are expected to ship a PNG, WebP or BMP rendition.
type FileRenderer struct {
	lookup LookupFunc
	dirs   []string
}

// NewFileRenderer creates a renderer resolving identities with lookup and
// additionally searching dirs for files named after the identity
// (e.g. /usr/share/pixmaps).
func NewFileRenderer(lookup LookupFunc, dirs ...string) *FileRenderer {
	return &FileRenderer{lookup: lookup, dirs: dirs}
}

var imageExts = []string{".png", ".webp", ".bmp"}

// Candidates returns the files Render will try for identity, in order.
func (r *FileRenderer) Candidates(identity string) []string {
	var out []string

	if r.lookup != nil {
		if p, ok := r.lookup(identity); ok && p != "" {
			out = append(out, pathCandidates(p)...)
		}
	}
	for _, dir := range r.dirs {
		for _, ext := range imageExts {
			out = append(out, filepath.Join(dir, identity+ext))
		}
	}
	return out
}

func pathCandidates(p string) []string {
	ext := strings.ToLower(filepath.Ext(p))
	for _, e := range imageExts {
		if ext == e {
			return []string{p}
		}
	}

	var out []string
	for _, e := range imageExts {
		out = append(out,
			filepath.Join(p, "Contents", "Resources", "AppIcon"+e),
			filepath.Join(p, "Contents", "Resources", "icon"+e),
			filepath.Join(p, "icon"+e),
		)
	}
	if ext != "" {
		base := strings.TrimSuffix(p, filepath.Ext(p))
		for _, e := range imageExts {
			out = append(out, base+e)
		}
	}
	return out
}

// Render decodes the first readable candidate.
func (r *FileRenderer) Render(ctx context.Context, identity string, size int) (image.Image, error) {
	for _, path := range r.Candidates(identity) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := decodeFile(path)
		if err == nil {
			return img, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("icon: decode %s: %w", path, err)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoIcon, identity)
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}
