// SPDX-License-Identifier: EPL-2.0

// Package spatial has the 3D math behind positional audio: distance
// rolloff, stereo panning relative to the listener, doppler shift and
// occluder intersection.
//
// Coordinates are left-handed: with Up (0,1,0) and Forward (0,0,1) the
// listener's right is +X.
package spatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vector is used for every position, velocity and direction.
type Vector = r3.Vec

// Vec is shorthand for Vector{X: x, Y: y, Z: z}.
func Vec(x, y, z float64) Vector { return Vector{X: x, Y: y, Z: z} }

// Pose is a listener state.
type Pose struct {
	Position Vector
	Velocity Vector
	Forward  Vector
	Up       Vector
}

// DefaultPose sits at the origin looking down +Z.
func DefaultPose() Pose {
	return Pose{Forward: Vec(0, 0, 1), Up: Vec(0, 1, 0)}
}

// Right returns the unit vector to the listener's right, or zero when
// Forward and Up are parallel or degenerate.
func (p Pose) Right() Vector {
	r := r3.Cross(p.Up, p.Forward)
	if r3.Norm(r) == 0 {
		return Vector{}
	}
	return r3.Unit(r)
}

// SourcePose is a sound emitter state.
type SourcePose struct {
	Position Vector
	Velocity Vector
}

// SpeedOfSound in metres per second.
const SpeedOfSound = 340.0

// Settings are the global 3D factors.
type Settings struct {
	// DopplerScale exaggerates (>1) or reduces (<1) the doppler shift.
	DopplerScale float64
	// DistanceFactor is world units per metre.
	DistanceFactor float64
	// RolloffScale scales the attenuation slope.
	RolloffScale float64
}

func DefaultSettings() Settings {
	return Settings{DopplerScale: 1, DistanceFactor: 1, RolloffScale: 1}
}

// Attenuation is the inverse-distance gain: 1 inside minDist, and
// minDist / (minDist + rolloff*(d - minDist)) beyond it, with d held at maxDist.
func Attenuation(distance, minDist, maxDist, rolloff float64) float64 {
	if minDist <= 0 || distance <= minDist {
		return 1
	}
	if maxDist > minDist && distance > maxDist {
		distance = maxDist
	}
	g := minDist / (minDist + rolloff*(distance-minDist))
	return math.Max(0, math.Min(1, g))
}

// Pan returns equal-power left and right gains for a source heard by
// listener. A source at the listener's position is centred.
func Pan(listener Pose, source Vector) (left, right float64) {
	x := 0.0
	dir := r3.Sub(source, listener.Position)
	if r3.Norm(dir) > 0 {
		x = r3.Dot(r3.Unit(dir), listener.Right())
	}
	x = math.Max(-1, math.Min(1, x))

	angle := (x + 1) * math.Pi / 4
	return math.Cos(angle), math.Sin(angle)
}

// Pitch limits for Doppler.
const (
	MinPitch = 0.25
	MaxPitch = 4.0
)

// Doppler returns the pitch ratio heard by listener for src:
// (c - vl) / (c - vs), with both speeds projected on the source to listener
// axis and c = SpeedOfSound*DistanceFactor. DopplerScale blends from 1.
func Doppler(listener Pose, src SourcePose, s Settings) float64 {
	if s.DopplerScale == 0 {
		return 1
	}
	axis := r3.Sub(listener.Position, src.Position)
	if r3.Norm(axis) == 0 {
		return 1
	}
	axis = r3.Unit(axis)

	c := SpeedOfSound * s.DistanceFactor
	if c <= 0 {
		return 1
	}
	// Speeds at or beyond c would flip the sign.
	limit := c * 0.99
	vl := math.Max(-limit, math.Min(limit, r3.Dot(listener.Velocity, axis)))
	vs := math.Max(-limit, math.Min(limit, r3.Dot(src.Velocity, axis)))

	ratio := (c - vl) / (c - vs)
	pitch := 1 + s.DopplerScale*(ratio-1)
	return math.Max(MinPitch, math.Min(MaxPitch, pitch))
}
