package icon

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// ErrNoIcon is returned by renderers when an identity has no resolvable icon.
var ErrNoIcon = errors.New("icon: no icon for identity")

// DefaultSize is the default texture edge length in pixels.
const DefaultSize = 64

// MaxSize bounds the texture edge length.
const MaxSize = 1024

// Texture is a rendered square icon.
type Texture struct {
	Identity string
	Size     int
	Image    *image.RGBA
	// Placeholder is true if the identity could not be rendered.
	Placeholder bool
}

// Bytes returns the pixel memory held by the texture.
func (t *Texture) Bytes() int64 {
	if t == nil || t.Image == nil {
		return 0
	}
	return int64(len(t.Image.Pix))
}

func (t *Texture) String() string {
	if t == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s@%d", t.Identity, t.Size)
}

// Renderer renders the native icon of an identity.
type Renderer interface {
	Render(ctx context.Context, identity string, size int) (image.Image, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, identity string, size int) (image.Image, error)

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, identity string, size int) (image.Image, error) {
	return f(ctx, identity, size)
}

// Provider serves textures to the render layer. The returned error is
// non-nil only when ctx is done; render failures yield a placeholder.
type Provider interface {
	Get(ctx context.Context, identity string, size int) (*Texture, error)
}

// ClampSize maps size into [1, MaxSize]; size <= 0 yields DefaultSize.
func ClampSize(size int) int {
	switch {
	case size <= 0:
		return DefaultSize
	case size > MaxSize:
		return MaxSize
	default:
		return size
	}
}

// ToTexture scales img to fit a size×size tile, preserving aspect ratio.
func ToTexture(identity string, size int, img image.Image) *Texture {
	size = ClampSize(size)
	dst := image.NewRGBA(image.Rect(0, 0, size, size))

	b := img.Bounds()
	if w, h := b.Dx(), b.Dy(); w > 0 && h > 0 {
		dw, dh := size, size
		if w > h {
			dh = max(1, size*h/w)
		} else if h > w {
			dw = max(1, size*w/h)
		}
		x0 := (size - dw) / 2
		y0 := (size - dh) / 2
		draw.ApproxBiLinear.Scale(dst, image.Rect(x0, y0, x0+dw, y0+dh), img, b, draw.Over, nil)
	}

	return &Texture{Identity: identity, Size: size, Image: dst}
}

// Placeholder returns the fallback tile for identity: a flat square tinted
// by a hash of the identity, inset by a one pixel transparent margin.
func Placeholder(identity string, size int) *Texture {
	size = ClampSize(size)
	dst := image.NewRGBA(image.Rect(0, 0, size, size))

	h := fnv.New32a()
	_, _ = h.Write([]byte(identity))
	sum := h.Sum32()
	fill := color.RGBA{
		R: 96 + uint8(sum%64),
		G: 96 + uint8((sum>>8)%64),
		B: 96 + uint8((sum>>16)%64),
		A: 0xff,
	}

	inner := image.Rect(0, 0, size, size)
	if size > 2 {
		inner = inner.Inset(1)
	}
	draw.Draw(dst, inner, image.NewUniform(fill), image.Point{}, draw.Src)

	return &Texture{Identity: identity, Size: size, Image: dst, Placeholder: true}
}
