package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"runtime"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/sync/errgroup"

	"github.com/litescript/ls-stackfield/internal/field"
	"github.com/litescript/ls-stackfield/internal/geom"
)

var (
	// ErrSurfaceUnavailable is returned when a drawing surface cannot be
	// acquired or has been released.
	ErrSurfaceUnavailable = errors.New("render: surface unavailable")

	// ErrZeroSize is returned by Resize for an empty layout. The previous
	// framebuffer is kept.
	ErrZeroSize = errors.New("render: zero-size layout")
)

// Fog and alpha-test parameters.
const (
	FogNear   = 250.0
	FogFar    = 1400.0
	AlphaTest = 0.05

	maxBands = 8
)

// backgroundStops is the radial backdrop from center (0) to corner (1).
var backgroundStops = []struct {
	at  float64
	hex string
}{
	{0, "#1a1a2e"},
	{0.25, "#16213e"},
	{0.5, "#0f0f23"},
	{1, "#000000"},
}

// Surface is a software framebuffer with a cached backdrop.
type Surface struct {
	width, height int
	img           *image.RGBA
	bg            *image.RGBA
}

// NewSurface acquires a width×height framebuffer.
func NewSurface(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrSurfaceUnavailable, width, height)
	}
	s := &Surface{}
	s.allocate(width, height)
	return s, nil
}

func (s *Surface) allocate(width, height int) {
	s.width, s.height = width, height
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
	s.bg = backdrop(width, height)
	draw.Draw(s.img, s.img.Bounds(), s.bg, image.Point{}, draw.Src)
}

// Size returns the framebuffer dimensions.
func (s *Surface) Size() (width, height int) {
	return s.width, s.height
}

// Aspect returns width/height.
func (s *Surface) Aspect() float64 {
	if s.height == 0 {
		return 0
	}
	return float64(s.width) / float64(s.height)
}

// Image returns the framebuffer, or nil once released.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// Resize reallocates the framebuffer. A zero or negative size returns
// ErrZeroSize and leaves the surface unchanged.
func (s *Surface) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrZeroSize
	}
	if s.img == nil {
		return ErrSurfaceUnavailable
	}
	if width == s.width && height == s.height {
		return nil
	}
	s.allocate(width, height)
	return nil
}

// Release drops the framebuffer. The surface cannot render afterwards.
func (s *Surface) Release() {
	s.img = nil
	s.bg = nil
}

// Sprite is a point laid out in screen space.
type Sprite struct {
	Point  *field.Point
	X, Y   float64 // center in pixels
	Radius float64 // half the on-screen size in pixels
	Depth  float64
	Spin   float64
	Fog    float64 // 0 = clear, 1 = fully fogged
}

// Layout projects every node that is in front of the camera and returns them
// sorted far to near.
func (s *Surface) Layout(scene *Scene, poses []field.Pose, cam *geom.Camera) []Sprite {
	nodes := scene.Nodes()
	sprites := make([]Sprite, 0, len(nodes))

	for i, p := range nodes {
		if i >= len(poses) {
			break
		}
		pose := poses[i]
		proj, ok := cam.Project(pose.Position)
		if !ok {
			continue
		}
		sprites = append(sprites, Sprite{
			Point:  p,
			X:      (proj.X + 1) / 2 * float64(s.width),
			Y:      (1 - proj.Y) / 2 * float64(s.height),
			Radius: p.Size * pose.Scale * geom.Attenuation(s.height, proj.Depth) / 2,
			Depth:  proj.Depth,
			Spin:   pose.Spin,
			Fog:    fogFactor(proj.Depth),
		})
	}

	sort.SliceStable(sprites, func(i, j int) bool {
		return sprites[i].Depth > sprites[j].Depth
	})
	return sprites
}

// Render draws the scene. Rows are split into bands rasterized concurrently;
// Render returns once every band has finished.
func (s *Surface) Render(ctx context.Context, scene *Scene, poses []field.Pose, cam *geom.Camera) error {
	if s.img == nil {
		return ErrSurfaceUnavailable
	}
	sprites := s.Layout(scene, poses, cam)

	bands := runtime.GOMAXPROCS(0)
	if bands > maxBands {
		bands = maxBands
	}
	if bands > s.height {
		bands = s.height
	}
	rowsPer := (s.height + bands - 1) / bands

	g, ctx := errgroup.WithContext(ctx)
	for y0 := 0; y0 < s.height; y0 += rowsPer {
		y1 := min(y0+rowsPer, s.height)
		g.Go(func() error {
			return s.renderBand(ctx, y0, y1, sprites)
		})
	}
	return g.Wait()
}

func (s *Surface) renderBand(ctx context.Context, y0, y1 int, sprites []Sprite) error {
	band := image.Rect(0, y0, s.width, y1)
	draw.Draw(s.img, band, s.bg, band.Min, draw.Src)

	for _, sp := range sprites {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.drawSprite(sp, y0, y1)
	}
	return nil
}

// drawSprite composites sp onto rows [y0, y1).
func (s *Surface) drawSprite(sp Sprite, y0, y1 int) {
	tex := sp.Point.Texture
	if tex == nil || sp.Radius <= 0 {
		return
	}

	minX := max(0, int(math.Floor(sp.X-sp.Radius)))
	maxX := min(s.width, int(math.Ceil(sp.X+sp.Radius)))
	minY := max(y0, int(math.Floor(sp.Y-sp.Radius)))
	maxY := min(y1, int(math.Ceil(sp.Y+sp.Radius)))

	tr, tg, tb, _ := sp.Point.Color.RGBA()
	keep := 1 - sp.Fog
	diameter := 2 * sp.Radius

	for y := minY; y < maxY; y++ {
		v := (float64(y) + 0.5 - (sp.Y - sp.Radius)) / diameter
		for x := minX; x < maxX; x++ {
			u := (float64(x) + 0.5 - (sp.X - sp.Radius)) / diameter
			texel := tex.Sample(u, v, sp.Spin)
			if float64(texel.A)/255 < AlphaTest {
				continue
			}

			// Texels are premultiplied; tint then fade toward black fog.
			sr := float64(texel.R) * float64(tr) / 0xffff * keep
			sg := float64(texel.G) * float64(tg) / 0xffff * keep
			sb := float64(texel.B) * float64(tb) / 0xffff * keep
			sa := float64(texel.A) / 255

			off := s.img.PixOffset(x, y)
			pix := s.img.Pix[off : off+4 : off+4]
			pix[0] = uint8(sr + float64(pix[0])*(1-sa))
			pix[1] = uint8(sg + float64(pix[1])*(1-sa))
			pix[2] = uint8(sb + float64(pix[2])*(1-sa))
			pix[3] = uint8(float64(texel.A) + float64(pix[3])*(1-sa))
		}
	}
}

// Cell is one terminal character cell made of two stacked pixels.
type Cell struct {
	Top, Bottom color.RGBA
}

// Cells samples the framebuffer into a cols×rows grid of half-block cells.
func (s *Surface) Cells(cols, rows int) [][]Cell {
	if s.img == nil || cols <= 0 || rows <= 0 {
		return nil
	}
	grid := make([][]Cell, rows)
	for r := range grid {
		grid[r] = make([]Cell, cols)
		ty := (2 * r) * s.height / (2 * rows)
		by := (2*r + 1) * s.height / (2 * rows)
		for c := range grid[r] {
			x := c * s.width / cols
			grid[r][c] = Cell{Top: s.img.RGBAAt(x, ty), Bottom: s.img.RGBAAt(x, by)}
		}
	}
	return grid
}

func fogFactor(depth float64) float64 {
	return geom.Clamp((depth-FogNear)/(FogFar-FogNear), 0, 1)
}

// backdrop renders the radial background for a width×height surface.
func backdrop(width, height int) *image.RGBA {
	stops := make([]colorful.Color, len(backgroundStops))
	for i, st := range backgroundStops {
		stops[i], _ = colorful.Hex(st.hex)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	hw, hh := float64(width)/2, float64(height)/2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx := (float64(x) + 0.5 - hw) / hw
			dy := (float64(y) + 0.5 - hh) / hh
			// Ellipse reaching the corners at r=1.
			r := math.Sqrt(dx*dx+dy*dy) / math.Sqrt2
			c := gradientAt(stops, r)
			cr, cg, cb := c.RGB255()
			img.SetRGBA(x, y, color.RGBA{R: cr, G: cg, B: cb, A: 255})
		}
	}
	return img
}

func gradientAt(stops []colorful.Color, r float64) colorful.Color {
	if r <= 0 {
		return stops[0]
	}
	for i := 1; i < len(backgroundStops); i++ {
		lo, hi := backgroundStops[i-1].at, backgroundStops[i].at
		if r <= hi {
			return stops[i-1].BlendRgb(stops[i], (r-lo)/(hi-lo))
		}
	}
	return stops[len(stops)-1]
}
