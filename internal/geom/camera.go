package geom

import "math"

// Camera defaults match a 75° perspective camera with a 1..3000 clip range.
const (
	DefaultFovDeg = 75.0
	DefaultNear   = 1.0
	DefaultFar    = 3000.0
)

// Camera is a perspective camera looking from Position toward Target.
type Camera struct {
	Position Vec3
	Target   Vec3
	Up       Vec3
	FovDeg   float64
	Aspect   float64
	Near     float64
	Far      float64
}

// NewCamera creates a camera on the +Z axis at the given distance, facing the origin.
func NewCamera(aspect, distance float64) *Camera {
	c := &Camera{
		Position: Vec3{Z: distance},
		Up:       Vec3{Y: 1},
		FovDeg:   DefaultFovDeg,
		Aspect:   1,
		Near:     DefaultNear,
		Far:      DefaultFar,
	}
	c.SetAspect(aspect)
	return c
}

// SetAspect updates the projection aspect ratio. Non-finite or non-positive
// values are ignored so a collapsed container cannot poison the projection.
func (c *Camera) SetAspect(aspect float64) {
	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		return
	}
	c.Aspect = aspect
}

// LookAt orients the camera toward target.
func (c *Camera) LookAt(target Vec3) {
	c.Target = target
}

// basis returns the right, up and forward unit vectors of the view.
func (c *Camera) basis() (right, up, forward Vec3) {
	forward = c.Target.Sub(c.Position).Normalized()
	right = forward.Cross(c.Up)
	if right.Norm() < 1e-9 {
		// Looking straight along the up axis (pitch at ±90°).
		right = forward.Cross(Vec3{Z: -1})
	}
	right = right.Normalized()
	up = right.Cross(forward)
	return right, up, forward
}

// Projected is a world point mapped into the camera's view.
type Projected struct {
	X     float64 // Normalized device X (-1 left, +1 right)
	Y     float64 // Normalized device Y (-1 bottom, +1 top)
	Depth float64 // Distance along the view direction
}

// Project maps p into normalized device coordinates. The second return is
// false when p lies outside the near/far range.
func (c *Camera) Project(p Vec3) (Projected, bool) {
	right, up, forward := c.basis()
	d := p.Sub(c.Position)

	depth := d.Dot(forward)
	if depth < c.Near || depth > c.Far {
		return Projected{Depth: depth}, false
	}

	tanHalf := math.Tan(c.FovDeg * math.Pi / 360)
	return Projected{
		X:     d.Dot(right) / (depth * tanHalf * c.Aspect),
		Y:     d.Dot(up) / (depth * tanHalf),
		Depth: depth,
	}, true
}

// Attenuation returns the screen-space size multiplier for a sprite at depth,
// given the viewport height in pixels.
func Attenuation(viewportHeight int, depth float64) float64 {
	if depth <= 0 {
		return 0
	}
	return float64(viewportHeight) / 2 / depth
}
