// Package field places labeled points on a sphere shell and computes their
// per-frame drift.
package field

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-stackfield/internal/geom"
	"github.com/litescript/ls-stackfield/internal/sprite"
)

// Placement constants.
const (
	MinRadius = 500.0
	MaxRadius = 800.0

	BaseSize   = 80.0
	SizeJitter = 40.0

	MaxSpeed = 0.25 // per-axis velocity bound

	Saturation = 0.8
	Lightness  = 0.7
)

// TextureFunc bakes the sprite texture for a label.
type TextureFunc func(label string) (*sprite.Texture, error)

// Point is one labeled sprite in the field.
type Point struct {
	Index    int
	Label    string
	Anchor   geom.Vec3 // fixed sphere-shell placement, center of oscillation
	Velocity geom.Vec3
	Hue      float64 // degrees
	Color    colorful.Color
	Size     float64
	Texture  *sprite.Texture
}

// Update implements Entity.
func (p *Point) Update(t float64) Pose {
	return Motion(p.Anchor, p.Velocity, p.Index, t)
}

// Release frees the point's texture.
func (p *Point) Release() {
	p.Texture.Release()
}

// HueFor returns the evenly spaced hue in degrees for index i of n.
func HueFor(i, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(i) / float64(n) * 360
}

// Initialize creates one point per label. Random draws come from rng in a
// fixed order per point: radius, theta, phi, size, then velocity X, Y, Z.
// If a texture cannot be generated, textures created so far are released.
func Initialize(labels []string, rng *rand.Rand, gen TextureFunc) ([]*Point, error) {
	n := len(labels)
	points := make([]*Point, 0, n)

	for i, label := range labels {
		radius := MinRadius + rng.Float64()*(MaxRadius-MinRadius)
		theta := rng.Float64() * 2 * math.Pi
		phi := math.Acos(2*rng.Float64() - 1)
		size := BaseSize + rng.Float64()*SizeJitter
		velocity := geom.Vec3{
			X: (rng.Float64() - 0.5) * 2 * MaxSpeed,
			Y: (rng.Float64() - 0.5) * 2 * MaxSpeed,
			Z: (rng.Float64() - 0.5) * 2 * MaxSpeed,
		}

		hue := HueFor(i, n)
		p := &Point{
			Index:    i,
			Label:    label,
			Anchor:   geom.Spherical(radius, theta, phi),
			Velocity: velocity,
			Hue:      hue,
			Color:    colorful.Hsl(hue, Saturation, Lightness),
			Size:     size,
		}

		if gen != nil {
			tex, err := gen(label)
			if err != nil {
				ReleaseAll(points)
				return nil, fmt.Errorf("texture for %q: %w", label, err)
			}
			p.Texture = tex
		}
		points = append(points, p)
	}

	return points, nil
}

// ReleaseAll frees every point's texture.
func ReleaseAll(points []*Point) {
	for _, p := range points {
		p.Release()
	}
}
