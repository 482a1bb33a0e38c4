package physics

import (
	gomath "math"

	"github.com/Faultbox/golfsim/pkg/math"
)

// WorldSettings configures a World.
type WorldSettings struct {
	Gravity        math.Vec3
	LinearDamping  float32
	AngularDamping float32
	// RestingSpeed is the normal approach speed under which contacts do not
	// bounce.
	RestingSpeed float32
	// MaxSubsteps caps the sub-steps a fast body takes per Step.
	MaxSubsteps int
}

// DefaultWorldSettings returns earth gravity and light damping.
func DefaultWorldSettings() WorldSettings {
	return WorldSettings{
		Gravity:        math.Vec3{Y: -9.81},
		LinearDamping:  0.05,
		AngularDamping: 0.1,
		RestingSpeed:   0.5,
		MaxSubsteps:    128,
	}
}

// World holds rigid bodies and advances them in time.
type World struct {
	common    *Common
	settings  WorldSettings
	bodies    []*RigidBody
	nextID    uint32
	destroyed bool

	statics []*Collider
}

// Settings returns the world configuration.
func (w *World) Settings() WorldSettings { return w.settings }

// SetGravity changes the gravity vector.
func (w *World) SetGravity(g math.Vec3) { w.settings.Gravity = g }

// BodyCount returns the number of live bodies.
func (w *World) BodyCount() int { return len(w.bodies) }

// CreateRigidBody adds a dynamic body with unit mass at t.
func (w *World) CreateRigidBody(t math.Transform) *RigidBody {
	w.nextID++
	b := &RigidBody{
		world: w,
		slot:  len(w.bodies),
		id:    w.nextID,
		typ:   Dynamic,
		mass:  1,
	}
	b.SetTransform(t)
	w.bodies = append(w.bodies, b)
	return b
}

// DestroyRigidBody removes b and its colliders from the world. Bodies of
// other worlds and already destroyed bodies are ignored.
func (w *World) DestroyRigidBody(b *RigidBody) {
	if b == nil || b.world != w {
		return
	}
	last := len(w.bodies) - 1
	w.bodies[b.slot] = w.bodies[last]
	w.bodies[b.slot].slot = b.slot
	w.bodies[last] = nil
	w.bodies = w.bodies[:last]
	for _, c := range b.colliders {
		c.body = nil
	}
	b.colliders = nil
	b.world = nil
}

// Step advances every dynamic body by dt seconds. A body moves at most
// half its radius per sub-step so it cannot tunnel through thin geometry.
func (w *World) Step(dt float32) {
	if dt <= 0 {
		return
	}
	w.statics = w.statics[:0]
	for _, b := range w.bodies {
		if b.typ == Static {
			w.statics = append(w.statics, b.colliders...)
		}
	}
	for _, b := range w.bodies {
		if b.typ == Dynamic {
			w.advance(b, dt)
		}
	}
}

func (w *World) advance(b *RigidBody, dt float32) {
	s := w.settings
	col, radius := b.sphere()

	steps := 1
	if col != nil {
		travel := (b.linear.Length() + s.Gravity.Length()*dt) * dt
		steps = int(gomath.Ceil(float64(travel / (0.5 * radius))))
		steps = max(1, min(steps, max(1, s.MaxSubsteps)))
	}
	h := dt / float32(steps)
	g := s.Gravity.Length()

	b.touching = false
	for i := 0; i < steps; i++ {
		b.linear = b.linear.Add(s.Gravity.Scale(h))
		b.linear = b.linear.Scale(1 / (1 + s.LinearDamping*h))
		b.angular = b.angular.Scale(1 / (1 + s.AngularDamping*h))
		b.transform.Position = b.transform.Position.Add(b.linear.Scale(h))
		if col != nil && w.collide(b, col, radius, g, h) {
			b.touching = true
		}
		b.transform.Orientation = b.transform.Orientation.Integrate(b.angular, h)
	}
}

// collide resolves every contact of the sphere collider against the
// static colliders its filter accepts.
func (w *World) collide(b *RigidBody, col *Collider, radius, gravity, h float32) bool {
	center := b.transform.Position.Add(col.local.Position)
	pad := math.Vec3{X: radius, Y: radius, Z: radius}
	lo, hi := center.Sub(pad), center.Add(pad)

	touched := false
	for _, other := range w.statics {
		if other.body == nil || !col.CollidesWith(other) {
			continue
		}
		src, ok := other.shape.(triangleSource)
		if !ok {
			continue
		}
		mat := mix(col.material, other.material)
		src.overlapping(other.origin(), lo, hi, func(t triangle) {
			c := b.transform.Position.Add(col.local.Position)
			n, depth, hit := sphereTriangle(c, radius, t)
			if !hit {
				return
			}
			touched = true
			w.respond(b, radius, n, depth, mat, gravity, h)
		})
	}
	return touched
}

// respond pushes the body out of a contact and applies the normal,
// friction and rolling resistance impulses. The static side has infinite
// mass so impulses are expressed per unit mass of the sphere.
func (w *World) respond(b *RigidBody, r float32, n math.Vec3, depth float32, mat Material, gravity, h float32) {
	b.transform.Position = b.transform.Position.Add(n.Scale(depth))

	if vn := b.linear.Dot(n); vn < 0 {
		e := mat.Bounciness
		if -vn < w.settings.RestingSpeed {
			e = 0
		}
		jn := -(1 + e) * vn
		b.linear = b.linear.Add(n.Scale(jn))

		// Slip at the contact point of a solid sphere (I = 2/5 m r^2).
		arm := n.Scale(-r)
		slip := b.linear.Add(b.angular.Cross(arm))
		slip = slip.Sub(n.Scale(slip.Dot(n)))
		if s := slip.Length(); s > 1e-6 {
			jt := min(s/3.5, mat.Friction*jn)
			impulse := slip.Scale(-jt / s)
			b.linear = b.linear.Add(impulse)
			b.angular = b.angular.Add(arm.Cross(impulse).Scale(5 / (2 * r * r)))
		}
	}

	if mat.RollingResistance > 0 {
		vn := b.linear.Dot(n)
		vt := b.linear.Sub(n.Scale(vn))
		if s := vt.Length(); s > 0 {
			k := max(0, 1-mat.RollingResistance*gravity*h/s)
			b.linear = n.Scale(vn).Add(vt.Scale(k))
			b.angular = b.angular.Scale(k)
		}
	}
}

// sphereTriangle returns the contact normal (pointing towards the sphere)
// and penetration depth of a sphere against t.
func sphereTriangle(c math.Vec3, r float32, t triangle) (math.Vec3, float32, bool) {
	face := t.b.Sub(t.a).Cross(t.c.Sub(t.a))
	if face.LengthSquared() == 0 {
		return math.Vec3{}, 0, false
	}
	face = face.Normalize()
	if t.solid && face.Y < 0 {
		face = face.Negate()
	}

	p := closestOnTriangle(c, t.a, t.b, t.c)
	d := c.Sub(p)
	dist2 := d.LengthSquared()

	if t.solid {
		// Centre under the surface of a height field cell: push up along
		// the face normal.
		if s := c.Sub(t.a).Dot(face); s < 0 && dist2 <= s*s*(1+1e-4) {
			return face, r - s, true
		}
	}
	if dist2 >= r*r {
		return math.Vec3{}, 0, false
	}
	if dist2 < 1e-12 {
		return face, r, true
	}
	dist := float32(gomath.Sqrt(float64(dist2)))
	return d.Scale(1 / dist), r - dist, true
}

// closestOnTriangle returns the point of triangle abc closest to p.
func closestOnTriangle(p, a, b, c math.Vec3) math.Vec3 {
	ab, ac, ap := b.Sub(a), c.Sub(a), p.Sub(a)
	d1, d2 := ab.Dot(ap), ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}
	bp := p.Sub(b)
	d3, d4 := ab.Dot(bp), ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.Scale(d1 / (d1 - d3)))
	}
	cp := p.Sub(c)
	d5, d6 := ab.Dot(cp), ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.Scale(d2 / (d2 - d6)))
	}
	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		return b.Add(c.Sub(b).Scale((d4 - d3) / ((d4 - d3) + (d5 - d6))))
	}
	denom := 1 / (va + vb + vc)
	v, u := vb*denom, vc*denom
	return a.Add(ab.Scale(v)).Add(ac.Scale(u))
}
