// Package camera implements the orbit camera driven by pointer drags and wheel zoom.
package camera

import (
	"math"

	"github.com/litescript/ls-stackfield/internal/geom"
)

// Controller tuning.
const (
	DragSensitivity = 0.01  // radians per pixel
	WheelFactor     = 0.5   // distance units per wheel delta unit
	AutoRotateStep  = 0.005 // yaw radians per idle frame

	MinDistance     = 200.0
	MaxDistance     = 2000.0
	DefaultDistance = 1000.0

	MaxPitch = math.Pi / 2
)

// Controller holds orbit state: yaw and pitch around the origin plus distance.
// All inputs are clamped rather than rejected.
type Controller struct {
	yaw      float64
	pitch    float64
	distance float64

	dragging bool
	lastX    float64
	lastY    float64

	// Pointer in normalized device coordinates, tracked for hover effects.
	pointerX float64
	pointerY float64
}

// New returns a controller at the default distance looking down -Z.
func New() *Controller {
	return &Controller{distance: DefaultDistance}
}

// Yaw returns the horizontal orbit angle in [0, 2π).
func (c *Controller) Yaw() float64 { return c.yaw }

// Pitch returns the vertical orbit angle in [-π/2, π/2].
func (c *Controller) Pitch() float64 { return c.pitch }

// Distance returns the distance from the origin.
func (c *Controller) Distance() float64 { return c.distance }

// Dragging reports whether a drag is in progress.
func (c *Controller) Dragging() bool { return c.dragging }

// Pointer returns the last pointer position in normalized device coordinates.
func (c *Controller) Pointer() (x, y float64) { return c.pointerX, c.pointerY }

// Press starts a drag at (x, y).
func (c *Controller) Press(x, y float64) {
	c.dragging = true
	c.lastX, c.lastY = x, y
}

// Move records pointer motion within a width×height container. While
// dragging, the delta since the last recorded position orbits the camera.
func (c *Controller) Move(x, y float64, width, height int) {
	if !finite(x) || !finite(y) {
		return
	}
	if width > 0 && height > 0 {
		c.pointerX = x/float64(width)*2 - 1
		c.pointerY = -(y/float64(height))*2 + 1
	}

	if !c.dragging {
		return
	}
	c.Nudge((x-c.lastX)*DragSensitivity, (y-c.lastY)*DragSensitivity)
	c.lastX, c.lastY = x, y
}

// Release ends a drag.
func (c *Controller) Release() {
	c.dragging = false
}

// Wheel zooms by deltaY. It always returns true: the host must suppress the
// default scroll for the same input.
func (c *Controller) Wheel(deltaY float64) bool {
	c.Zoom(deltaY * WheelFactor)
	return true
}

// Nudge rotates the orbit by the given yaw and pitch deltas. Non-finite
// deltas are dropped.
func (c *Controller) Nudge(dYaw, dPitch float64) {
	if !finite(dYaw) || !finite(dPitch) {
		return
	}
	c.yaw = wrapAngle(c.yaw + dYaw)
	c.pitch = geom.Clamp(c.pitch+dPitch, -MaxPitch, MaxPitch)
}

// Zoom changes the distance by delta, clamped to [MinDistance, MaxDistance].
func (c *Controller) Zoom(delta float64) {
	if !finite(delta) {
		return
	}
	c.distance = geom.Clamp(c.distance+delta, MinDistance, MaxDistance)
}

// Position returns the camera position for the current orbit state.
func (c *Controller) Position() geom.Vec3 {
	d := geom.Clamp(c.distance, MinDistance, MaxDistance)
	cosPitch := math.Cos(c.pitch)
	return geom.Vec3{
		X: d * math.Sin(c.yaw) * cosPitch,
		Y: d * math.Sin(c.pitch),
		Z: d * math.Cos(c.yaw) * cosPitch,
	}
}

// Tick advances one frame. It returns the position for this frame and then,
// when idle, applies the auto-rotate step for the next one.
func (c *Controller) Tick() geom.Vec3 {
	pos := c.Position()
	if !c.dragging {
		c.yaw = wrapAngle(c.yaw + AutoRotateStep)
	}
	return pos
}

// Apply moves cam to pos and points it at the origin.
func Apply(cam *geom.Camera, pos geom.Vec3) {
	cam.Position = pos
	cam.LookAt(geom.Vec3{})
}

func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
