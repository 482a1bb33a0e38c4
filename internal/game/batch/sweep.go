// Package batch builds launch-parameter sweeps, releases them into the
// simulation in waves and exports the landing distances.
package batch

import (
	"errors"
	"fmt"

	"github.com/Faultbox/golfsim/pkg/math"
)

// Sweep defaults.
const (
	DefaultDivisions = 10
	DefaultBatchSize = 150
)

// ErrInvalidSweep is returned for sweeps with fewer than one division.
var ErrInvalidSweep = errors.New("invalid sweep")

// Range is an inclusive parameter interval.
type Range struct {
	Min float32 `json:"min" yaml:"min"`
	Max float32 `json:"max" yaml:"max"`
}

// At returns the i-th of divisions evenly spaced values. One division
// yields the minimum.
func (r Range) At(i, divisions int) float32 {
	if divisions <= 1 {
		return r.Min
	}
	return r.Min + float32(i)*(r.Max-r.Min)/float32(divisions-1)
}

// Ranges holds the swept launch parameters: power in m/s, yaw offset and
// pitch in degrees.
type Ranges struct {
	Power Range `json:"power" yaml:"power"`
	Yaw   Range `json:"yaw" yaml:"yaw"`
	Pitch Range `json:"pitch" yaml:"pitch"`
}

// DefaultRanges returns power 15-30, yaw -15-15 and pitch 30-60.
func DefaultRanges() Ranges {
	return Ranges{
		Power: Range{Min: 15, Max: 30},
		Yaw:   Range{Min: -15, Max: 15},
		Pitch: Range{Min: 30, Max: 60},
	}
}

// ShotParameter is one point of a sweep.
type ShotParameter struct {
	Power float32
	Yaw   float32
	Pitch float32
	Index int
}

// BuildSweep returns divisions^3 shots ordered power (outer), yaw, pitch
// (inner).
func BuildSweep(r Ranges, divisions int) ([]ShotParameter, error) {
	if divisions < 1 {
		return nil, fmt.Errorf("%w: %d divisions", ErrInvalidSweep, divisions)
	}
	shots := make([]ShotParameter, 0, divisions*divisions*divisions)
	for p := 0; p < divisions; p++ {
		for y := 0; y < divisions; y++ {
			for q := 0; q < divisions; q++ {
				shots = append(shots, ShotParameter{
					Power: r.Power.At(p, divisions),
					Yaw:   r.Yaw.At(y, divisions),
					Pitch: r.Pitch.At(q, divisions),
					Index: len(shots),
				})
			}
		}
	}
	return shots, nil
}

// Velocity returns the launch velocity for a ball at launch aiming at
// target (both world X/Z): the direction to the target rotated by Yaw
// about +Y, tilted up by Pitch and scaled by Power.
func (p ShotParameter) Velocity(launch, target math.Vec2) math.Vec3 {
	up := math.Vec3{Y: 1}
	flat := target.Sub(launch).Normalize()
	if flat.LengthSquared() == 0 {
		flat = math.Vec2{X: 1}
	}
	dir := math.Vec3{X: flat.X, Z: flat.Y}

	dir = math.QuatFromAxisAngle(up, math.Radians(p.Yaw)).Rotate(dir)
	side := dir.Cross(up).Normalize()
	dir = math.QuatFromAxisAngle(side, math.Radians(p.Pitch)).Rotate(dir)
	return dir.Normalize().Scale(p.Power)
}
