// Package lighting places the sun that lights the course.
package lighting

import (
	gomath "math"

	"github.com/Faultbox/golfsim/pkg/math"
)

// Sun is a directional light given as angles on the sky.
type Sun struct {
	Azimuth   float32 // degrees around Y, 0 along +Z
	Elevation float32 // degrees above the horizon
	Ambient   float32
}

// DefaultSun is a mid-afternoon sun.
var DefaultSun = Sun{Azimuth: 210, Elevation: 55, Ambient: 0.3}

// Direction returns the unit vector pointing towards the sun.
func (s Sun) Direction() math.Vec3 {
	az := float64(math.Radians(s.Azimuth))
	el := float64(math.Radians(s.Elevation))
	return math.Vec3{
		X: float32(gomath.Cos(el) * gomath.Sin(az)),
		Y: float32(gomath.Sin(el)),
		Z: float32(gomath.Cos(el) * gomath.Cos(az)),
	}
}

// LightDir returns the direction the light travels, away from the sun.
func (s Sun) LightDir() math.Vec3 {
	return s.Direction().Negate()
}
