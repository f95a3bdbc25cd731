// Package systems contains the per-tick simulation logic: gas exchange between
// environment, lung and blood, the need policy, the respirator state machine,
// metabolism and organism drift.
package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/respire/components"
)

// Bounds represents the simulation bounds.
type Bounds struct {
	Width, Height float32
}

// DriftParams controls random-walk movement.
type DriftParams struct {
	MaxSpeed float32 // world units per second
	Jitter   float32 // max velocity change per second
}

// UpdateDrift applies a random-walk velocity change and integrates position
// with toroidal wrap. Organisms with zero MaxSpeed stay put.
func UpdateDrift(pos *components.Position, vel *components.Velocity, bounds Bounds, p DriftParams, dt float32, rng *rand.Rand) {
	if p.MaxSpeed <= 0 {
		vel.X, vel.Y = 0, 0
		return
	}

	vel.X += (rng.Float32()*2 - 1) * p.Jitter * dt
	vel.Y += (rng.Float32()*2 - 1) * p.Jitter * dt

	// Limit velocity
	speed := velocityMagnitude(vel.X, vel.Y)
	if speed > p.MaxSpeed {
		scale := p.MaxSpeed / speed
		vel.X *= scale
		vel.Y *= scale
	}

	pos.X = wrap(pos.X+vel.X*dt, bounds.Width)
	pos.Y = wrap(pos.Y+vel.Y*dt, bounds.Height)
}

// velocityMagnitude returns the magnitude of a velocity vector.
func velocityMagnitude(vx, vy float32) float32 {
	return float32(math.Sqrt(float64(vx*vx + vy*vy)))
}

// wrap returns a positive modulo (Go's % can return negative).
func wrap(a, b float32) float32 {
	if b <= 0 {
		return 0
	}
	r := float32(math.Mod(float64(a), float64(b)))
	if r < 0 {
		r += b
	}
	return r
}
