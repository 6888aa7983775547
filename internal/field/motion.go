package field

import (
	"math"

	"github.com/litescript/ls-stackfield/internal/geom"
)

// Motion tuning.
const (
	orbitRate    = 0.3  // angular rate of the in-plane circle
	phaseStep    = 0.1  // per-index phase offset
	orbitRadius  = 30.0 // XY circle radius
	bobAmplitude = 50.0 // Z oscillation amplitude
	driftGain    = 5.0  // velocity multiplier
	spinRate     = 0.1
	pulseRate    = 1.5
	pulseDepth   = 0.2
)

// Pose is the rendered state of a point at a given time.
type Pose struct {
	Position geom.Vec3
	Spin     float64 // local rotation in radians
	Scale    float64
}

// Entity is anything in the scene whose pose is a function of time.
type Entity interface {
	Update(t float64) Pose
}

// Motion computes the pose of the point with the given anchor, velocity and
// index at time t. The oscillation is centered on the anchor; the velocity
// term grows linearly with t, so positions are not bounded over long runs.
func Motion(anchor, velocity geom.Vec3, index int, t float64) Pose {
	i := float64(index)
	angle := t*orbitRate + i*phaseStep

	return Pose{
		Position: geom.Vec3{
			X: anchor.X + math.Cos(angle)*orbitRadius + velocity.X*t*driftGain,
			Y: anchor.Y + math.Sin(angle)*orbitRadius + velocity.Y*t*driftGain,
			Z: anchor.Z + math.Sin(t+i)*bobAmplitude + velocity.Z*t*driftGain,
		},
		Spin:  t * spinRate,
		Scale: 1 + math.Sin(t*pulseRate+i)*pulseDepth,
	}
}

// UpdateAll returns the pose of every entity at time t.
func UpdateAll[E Entity](entities []E, t float64) []Pose {
	poses := make([]Pose, len(entities))
	for i, e := range entities {
		poses[i] = e.Update(t)
	}
	return poses
}
