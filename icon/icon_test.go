package icon

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestClampSize(t *testing.T) {
	assert.Equal(t, DefaultSize, ClampSize(0))
	assert.Equal(t, DefaultSize, ClampSize(-3))
	assert.Equal(t, 32, ClampSize(32))
	assert.Equal(t, MaxSize, ClampSize(MaxSize+1))
}

func TestToTexture_PreservesAspect(t *testing.T) {
	red := color.RGBA{R: 0xff, A: 0xff}
	tex := ToTexture("wide", 32, solid(200, 100, red))

	assert.Equal(t, 32, tex.Size)
	assert.Equal(t, int64(32*32*4), tex.Bytes())
	assert.False(t, tex.Placeholder)

	// Letterboxed: top row transparent, center row red.
	assert.Equal(t, uint8(0), tex.Image.RGBAAt(16, 0).A)
	assert.Equal(t, red, tex.Image.RGBAAt(16, 16))
}

func TestToTexture_EmptySource(t *testing.T) {
	tex := ToTexture("empty", 8, image.NewRGBA(image.Rectangle{}))
	assert.Equal(t, 8, tex.Size)
	assert.Equal(t, uint8(0), tex.Image.RGBAAt(4, 4).A)
}

func TestPlaceholder(t *testing.T) {
	a := Placeholder("com.apple.Safari", 16)
	b := Placeholder("com.apple.Safari", 16)
	c := Placeholder("com.apple.Pages", 16)

	assert.True(t, a.Placeholder)
	assert.Equal(t, a.Image.Pix, b.Image.Pix, "deterministic per identity")
	assert.Equal(t, uint8(0), a.Image.RGBAAt(0, 0).A, "transparent margin")
	assert.Equal(t, uint8(0xff), a.Image.RGBAAt(8, 8).A)
	assert.NotEqual(t, a.Image.RGBAAt(8, 8), c.Image.RGBAAt(8, 8))

	var nilTex *Texture
	assert.Zero(t, nilTex.Bytes())
	assert.Equal(t, "com.apple.Safari@16", a.String())
}

func TestFileRenderer(t *testing.T) {
	dir := t.TempDir()
	bundle := filepath.Join(dir, "Safari.app")
	writePNG(t, filepath.Join(bundle, "Contents", "Resources", "AppIcon.png"), solid(8, 8, color.White))

	pixmaps := filepath.Join(dir, "pixmaps")
	writePNG(t, filepath.Join(pixmaps, "firefox.png"), solid(4, 4, color.Black))

	paths := map[string]string{"com.apple.Safari": bundle}
	r := NewFileRenderer(func(id string) (string, bool) {
		p, ok := paths[id]
		return p, ok
	}, pixmaps)

	img, err := r.Render(t.Context(), "com.apple.Safari", 64)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())

	img, err = r.Render(t.Context(), "firefox", 64)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())

	_, err = r.Render(t.Context(), "missing", 64)
	assert.True(t, errors.Is(err, ErrNoIcon))
}

func TestFileRenderer_DirectImagePath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tool.png")
	writePNG(t, p, solid(2, 2, color.White))

	r := NewFileRenderer(func(string) (string, bool) { return p, true })
	assert.Equal(t, []string{p}, r.Candidates("tool"))

	_, err := r.Render(t.Context(), "tool", 16)
	require.NoError(t, err)
}

func TestFileRenderer_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.png"), []byte("not a png"), 0o644))

	r := NewFileRenderer(nil, dir)
	_, err := r.Render(t.Context(), "bad", 16)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoIcon))
}

func TestFileRenderer_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	r := NewFileRenderer(nil, t.TempDir())
	_, err := r.Render(ctx, "x", 16)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRendererFunc(t *testing.T) {
	var r Renderer = RendererFunc(func(ctx context.Context, id string, size int) (image.Image, error) {
		return solid(size, size, color.White), nil
	})
	img, err := r.Render(t.Context(), "x", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
}
