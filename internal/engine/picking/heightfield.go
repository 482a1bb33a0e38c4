package picking

import (
	"github.com/Faultbox/golfsim/pkg/math"
)

// HeightField is a terrain sampled in its local X/Z coordinates.
type HeightField interface {
	Width() float32
	Height() float32
	MinHeight() float32
	MaxHeight() float32
	HeightAt(x, z float32) float32
}

const (
	marchSteps  = 256
	bisectSteps = 16
)

// IntersectHeightField finds where the ray first crosses the surface of h,
// placed with its local origin at origin. The ray is marched through the
// field's bounding box and the crossing refined by bisection.
func (r Ray) IntersectHeightField(h HeightField, origin math.Vec3) (math.Vec3, bool) {
	box := NewAABB(
		origin.Add(math.Vec3{Y: h.MinHeight()}),
		origin.Add(math.Vec3{X: h.Width(), Y: h.MaxHeight(), Z: h.Height()}),
	)
	// Flat fields have an empty box; give the march something to cross.
	box.Min.Y -= 1e-3
	box.Max.Y += 1e-3

	tmin, tmax, ok := r.IntersectAABB(box)
	if !ok {
		return math.Vec3{}, false
	}

	above := func(t float32) bool {
		p := r.At(t).Sub(origin)
		return p.Y > h.HeightAt(p.X, p.Z)
	}

	step := (tmax - tmin) / marchSteps
	prev := tmin
	if !above(prev) {
		return r.At(prev), true
	}
	for i := 1; i <= marchSteps; i++ {
		t := tmin + float32(i)*step
		if above(t) {
			prev = t
			continue
		}
		lo, hi := prev, t
		for range bisectSteps {
			mid := (lo + hi) / 2
			if above(mid) {
				lo = mid
			} else {
				hi = mid
			}
		}
		return r.At(hi), true
	}
	return math.Vec3{}, false
}
