// Package sprite bakes label text into square point-sprite textures.
//
// A texture is a white radial glow with the label centered on it, stroked in
// white and filled in black. Textures are deterministic for a given label and
// size, and every texture must be released by whoever owns it.
package sprite

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync/atomic"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DefaultSize is the texture edge length in pixels.
const DefaultSize = 512

// Reference metrics at DefaultSize; other sizes scale proportionally.
const (
	refFontPx    = 48.0
	refLineWidth = 3.0
)

// ErrNoDrawingSurface is returned when a 2D drawing surface cannot be acquired.
var ErrNoDrawingSurface = errors.New("sprite: no 2D drawing surface")

// gradientStops is the alpha ramp of the backing glow from center (0) to edge (1).
var gradientStops = []struct {
	at    float64
	alpha float64
}{
	{0, 1.0},
	{0.3, 0.9},
	{0.7, 0.6},
	{1.0, 0},
}

// Pool counts live textures so owners can verify cleanup.
type Pool struct {
	live atomic.Int64
}

// Live returns the number of textures allocated from the pool and not yet released.
func (p *Pool) Live() int {
	if p == nil {
		return 0
	}
	return int(p.live.Load())
}

// Texture is a baked label image.
type Texture struct {
	Label string
	Size  int

	img      *image.RGBA
	pool     *Pool
	released bool
}

// Image returns the backing image, or nil once released.
func (t *Texture) Image() *image.RGBA {
	return t.img
}

// Released reports whether Release has been called.
func (t *Texture) Released() bool {
	return t.released
}

// Release frees the pixel buffer. Calling it more than once is a no-op.
func (t *Texture) Release() {
	if t == nil || t.released {
		return
	}
	t.released = true
	t.img = nil
	if t.pool != nil {
		t.pool.live.Add(-1)
	}
}

// Sample returns the texel at normalized (u, v), with the texture rotated by
// spin radians about its center. Coordinates outside the square are transparent.
func (t *Texture) Sample(u, v, spin float64) color.RGBA {
	if t.img == nil {
		return color.RGBA{}
	}
	if spin != 0 {
		du, dv := u-0.5, v-0.5
		sin, cos := math.Sincos(-spin)
		u = 0.5 + du*cos - dv*sin
		v = 0.5 + du*sin + dv*cos
	}
	if u < 0 || u >= 1 || v < 0 || v >= 1 {
		return color.RGBA{}
	}
	x := int(u * float64(t.Size))
	y := int(v * float64(t.Size))
	return t.img.RGBAAt(x, y)
}

// Generator renders label textures of one size. It owns a font face and must
// be closed when no more textures are needed.
type Generator struct {
	size   int
	stroke int // stroke radius in pixels
	face   font.Face
	pool   *Pool
}

// NewGenerator acquires the drawing surface for textures of the given size.
// Textures are counted against pool, which may be nil.
func NewGenerator(size int, pool *Pool) (*Generator, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: invalid size %d", ErrNoDrawingSurface, size)
	}

	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("%w: parse font: %v", ErrNoDrawingSurface, err)
	}

	scale := float64(size) / DefaultSize
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    math.Max(1, refFontPx*scale),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: font face: %v", ErrNoDrawingSurface, err)
	}

	return &Generator{
		size:   size,
		stroke: int(math.Max(1, math.Round(refLineWidth/2*scale))),
		face:   face,
		pool:   pool,
	}, nil
}

// Size returns the texture edge length.
func (g *Generator) Size() int {
	return g.size
}

// Close releases the font face.
func (g *Generator) Close() error {
	if g.face == nil {
		return nil
	}
	err := g.face.Close()
	g.face = nil
	return err
}

// Generate renders label into a new texture.
func (g *Generator) Generate(label string) (*Texture, error) {
	if g.face == nil {
		return nil, fmt.Errorf("%w: generator closed", ErrNoDrawingSurface)
	}

	img := image.NewRGBA(image.Rect(0, 0, g.size, g.size))
	paintGlow(img)
	g.paintLabel(img, label)

	if g.pool != nil {
		g.pool.live.Add(1)
	}
	return &Texture{Label: label, Size: g.size, img: img, pool: g.pool}, nil
}

// Generate is a convenience wrapper that builds a one-shot generator.
func Generate(label string, size int) (*Texture, error) {
	g, err := NewGenerator(size, nil)
	if err != nil {
		return nil, err
	}
	defer g.Close()
	return g.Generate(label)
}

// paintGlow fills img with the white radial gradient.
func paintGlow(img *image.RGBA) {
	size := img.Bounds().Dx()
	half := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - half
			dy := float64(y) + 0.5 - half
			a := uint8(math.Round(glowAlpha(math.Hypot(dx, dy)/half) * 255))
			// Premultiplied white.
			img.SetRGBA(x, y, color.RGBA{R: a, G: a, B: a, A: a})
		}
	}
}

// glowAlpha interpolates the gradient stops at normalized radius r.
func glowAlpha(r float64) float64 {
	if r <= 0 {
		return gradientStops[0].alpha
	}
	for i := 1; i < len(gradientStops); i++ {
		lo, hi := gradientStops[i-1], gradientStops[i]
		if r <= hi.at {
			t := (r - lo.at) / (hi.at - lo.at)
			return lo.alpha + (hi.alpha-lo.alpha)*t
		}
	}
	return 0
}

// paintLabel draws label centered, stroked white then filled black.
func (g *Generator) paintLabel(img *image.RGBA, label string) {
	d := &font.Drawer{Dst: img, Face: g.face}

	width := d.MeasureString(label)
	m := g.face.Metrics()
	x := (fixed.I(g.size) - width) / 2
	// Vertically center between ascent and descent.
	y := (fixed.I(g.size) + m.Ascent - m.Descent) / 2

	d.Src = image.NewUniform(color.White)
	w := g.stroke
	for dy := -w; dy <= w; dy++ {
		for dx := -w; dx <= w; dx++ {
			if dx == 0 && dy == 0 || dx*dx+dy*dy > w*w {
				continue
			}
			d.Dot = fixed.Point26_6{X: x + fixed.I(dx), Y: y + fixed.I(dy)}
			d.DrawString(label)
		}
	}

	d.Src = image.NewUniform(color.Black)
	d.Dot = fixed.Point26_6{X: x, Y: y}
	d.DrawString(label)
}
