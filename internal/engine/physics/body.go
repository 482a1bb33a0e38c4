package physics

import (
	gomath "math"

	"github.com/Faultbox/golfsim/pkg/math"
)

// Bits is a collision category or mask bit set.
type Bits uint16

// AllBits collides with everything.
const AllBits Bits = 0xffff

// Material describes the contact response of a collider.
type Material struct {
	Bounciness        float32 // restitution, 0..1
	Friction          float32 // Coulomb coefficient
	RollingResistance float32 // rolling deceleration as a fraction of gravity
}

// DefaultMaterial is used by colliders created without an explicit material.
func DefaultMaterial() Material {
	return Material{Bounciness: 0.5, Friction: 0.3, RollingResistance: 0}
}

// mix combines two materials for a contact.
func mix(a, b Material) Material {
	return Material{
		Bounciness:        min(a.Bounciness, b.Bounciness),
		Friction:          float32(gomath.Sqrt(float64(a.Friction * b.Friction))),
		RollingResistance: max(a.RollingResistance, b.RollingResistance),
	}
}

// BodyType selects how a body takes part in the simulation.
type BodyType int

const (
	Static BodyType = iota
	Dynamic
)

func (t BodyType) String() string {
	if t == Static {
		return "static"
	}
	return "dynamic"
}

// Collider attaches a shape to a body with a local offset, a material and
// collision filter bits.
type Collider struct {
	body     *RigidBody
	shape    Shape
	local    math.Transform
	category Bits
	mask     Bits
	material Material
}

func (c *Collider) Body() *RigidBody                   { return c.body }
func (c *Collider) Shape() Shape                       { return c.shape }
func (c *Collider) LocalTransform() math.Transform     { return c.local }
func (c *Collider) CollisionCategoryBits() Bits        { return c.category }
func (c *Collider) CollideWithMaskBits() Bits          { return c.mask }
func (c *Collider) Material() Material                 { return c.material }
func (c *Collider) SetCollisionCategoryBits(bits Bits) { c.category = bits }
func (c *Collider) SetCollideWithMaskBits(bits Bits)   { c.mask = bits }
func (c *Collider) SetMaterial(m Material)             { c.material = m }

// CollidesWith reports whether the filter bits of both colliders accept
// each other.
func (c *Collider) CollidesWith(other *Collider) bool {
	return c.category&other.mask != 0 && other.category&c.mask != 0
}

// origin is the world position of the collider frame. Static geometry is
// translated only.
func (c *Collider) origin() math.Vec3 {
	return c.body.transform.Position.Add(c.local.Position)
}

// RigidBody is a body in a World. Bodies are created dynamic.
type RigidBody struct {
	world     *World
	slot      int
	id        uint32
	typ       BodyType
	transform math.Transform
	linear    math.Vec3
	angular   math.Vec3
	mass      float32
	colliders []*Collider
	touching  bool
}

func (b *RigidBody) ID() uint32                     { return b.id }
func (b *RigidBody) Type() BodyType                 { return b.typ }
func (b *RigidBody) SetType(t BodyType)             { b.typ = t }
func (b *RigidBody) Transform() math.Transform      { return b.transform }
func (b *RigidBody) Position() math.Vec3            { return b.transform.Position }
func (b *RigidBody) LinearVelocity() math.Vec3      { return b.linear }
func (b *RigidBody) SetLinearVelocity(v math.Vec3)  { b.linear = v }
func (b *RigidBody) AngularVelocity() math.Vec3     { return b.angular }
func (b *RigidBody) SetAngularVelocity(w math.Vec3) { b.angular = w }
func (b *RigidBody) Mass() float32                  { return b.mass }
func (b *RigidBody) Colliders() []*Collider         { return b.colliders }

// InContact reports whether the body touched static geometry during the
// last step.
func (b *RigidBody) InContact() bool { return b.touching }

// SetTransform teleports the body.
func (b *RigidBody) SetTransform(t math.Transform) {
	t.Orientation = t.Orientation.Normalize()
	b.transform = t
}

// SetMass sets the body mass; non-positive values are ignored.
func (b *RigidBody) SetMass(m float32) {
	if m > 0 {
		b.mass = m
	}
}

// AddCollider attaches shape at the given local transform. The collider
// starts in category 1 colliding with everything.
func (b *RigidBody) AddCollider(shape Shape, local math.Transform) *Collider {
	c := &Collider{
		body:     b,
		shape:    shape,
		local:    local,
		category: 1,
		mask:     AllBits,
		material: DefaultMaterial(),
	}
	b.colliders = append(b.colliders, c)
	return c
}

// RemoveCollider detaches c. Colliders of other bodies are ignored.
func (b *RigidBody) RemoveCollider(c *Collider) {
	for i, other := range b.colliders {
		if other == c {
			b.colliders = append(b.colliders[:i], b.colliders[i+1:]...)
			c.body = nil
			return
		}
	}
}

// sphere returns the first sphere collider of the body.
func (b *RigidBody) sphere() (*Collider, float32) {
	for _, c := range b.colliders {
		if s, ok := c.shape.(*SphereShape); ok {
			return c, s.radius
		}
	}
	return nil, 0
}
