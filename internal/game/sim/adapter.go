package sim

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/golfsim/internal/engine/goal"
	"github.com/Faultbox/golfsim/internal/engine/physics"
	"github.com/Faultbox/golfsim/internal/engine/terrain"
	"github.com/Faultbox/golfsim/internal/logger"
	"github.com/Faultbox/golfsim/pkg/math"
)

// Collision categories.
const (
	CategoryTerrain physics.Bits = 1 << iota
	CategoryGoal
	CategoryBall
)

// ErrNoStatic is returned when balls are created before the course
// geometry was added to the world.
var ErrNoStatic = errors.New("static course geometry not built")

// MaterialProperties is the contact material shared by every collider the
// adapter creates.
type MaterialProperties struct {
	Bounciness        float32
	Friction          float32
	RollingResistance float32
}

func (m MaterialProperties) physics() physics.Material {
	return physics.Material{
		Bounciness:        m.Bounciness,
		Friction:          m.Friction,
		RollingResistance: m.RollingResistance,
	}
}

// Handle refers to a ball body owned by the Adapter. The zero Handle is
// never valid; a destroyed body's handle stays invalid even when its slot
// is reused.
type Handle struct {
	index      uint32
	generation uint32
}

// IsZero reports whether h was never assigned.
func (h Handle) IsZero() bool { return h.generation == 0 }

type ballSlot struct {
	generation uint32
	body       *physics.RigidBody
	collider   *physics.Collider
	shape      *physics.SphereShape
	radius     float32
}

type staticGeometry struct {
	terrainBody *physics.RigidBody
	field       *physics.HeightFieldShape
	goalBody    *physics.RigidBody
	meshes      []*physics.TriangleMesh
	shapes      []*physics.ConcaveMeshShape
}

// Adapter owns every physics object of the simulation: the static course
// colliders and one body per ball, addressed through generation-checked
// handles.
type Adapter struct {
	common   *physics.Common
	world    *physics.World
	shapes   *ShapeRegistry
	material MaterialProperties

	slots  []ballSlot
	free   []uint32
	live   int
	static *staticGeometry
}

// NewAdapter creates an adapter over world. Sphere shapes are shared
// through a registry backed by common.
func NewAdapter(common *physics.Common, world *physics.World, material MaterialProperties) *Adapter {
	return &Adapter{
		common:   common,
		world:    world,
		shapes:   NewShapeRegistry(common),
		material: material,
	}
}

// Shapes returns the sphere shape registry.
func (a *Adapter) Shapes() *ShapeRegistry { return a.shapes }

// World returns the physics world.
func (a *Adapter) World() *physics.World { return a.world }

// LiveBodies returns the number of live ball bodies.
func (a *Adapter) LiveBodies() int { return a.live }

// HasStatic reports whether the course geometry is in the world.
func (a *Adapter) HasStatic() bool { return a.static != nil }

// BuildStatic adds the course to the world: a height field for the bulk
// terrain (TERRAIN) and one concave mesh per goal mesh part (GOAL). Both
// sit at origin, the world position of grid-local (0, 0, 0). Any previous
// course is destroyed first.
func (a *Adapter) BuildStatic(grid *terrain.HeightGrid, origin math.Vec3, mesh *goal.Mesh) error {
	a.DestroyStatic()

	field, err := a.common.CreateHeightFieldShape(grid.NumCols(), grid.NumRows(), grid.Width(), grid.Height(), grid.Heights())
	if err != nil {
		return fmt.Errorf("terrain collider: %w", err)
	}
	st := &staticGeometry{field: field}
	st.terrainBody = a.world.CreateRigidBody(math.TransformAt(origin))
	st.terrainBody.SetType(physics.Static)
	a.attachStatic(st.terrainBody, field, CategoryTerrain)

	st.goalBody = a.world.CreateRigidBody(math.TransformAt(origin))
	st.goalBody.SetType(physics.Static)
	for _, kind := range goal.Kinds() {
		part := mesh.Part(kind)
		tm := a.common.CreateTriangleMesh()
		st.meshes = append(st.meshes, tm)
		if perr := tm.AddSubpart(physics.TriangleVertexArray{
			Positions: part.Collision.Positions,
			Indices:   part.Collision.Indices,
		}); perr != nil {
			err = multierr.Append(err, fmt.Errorf("goal %s collider: %w", kind, perr))
			continue
		}
		shape, serr := a.common.CreateConcaveMeshShape(tm)
		if serr != nil {
			err = multierr.Append(err, fmt.Errorf("goal %s collider: %w", kind, serr))
			continue
		}
		st.shapes = append(st.shapes, shape)
		a.attachStatic(st.goalBody, shape, CategoryGoal)
	}
	a.static = st
	if err != nil {
		a.DestroyStatic()
		return err
	}

	logger.Debug("static colliders built",
		zap.Int("cells", grid.NumCols()*grid.NumRows()),
		zap.Int("goalParts", len(st.shapes)))
	return nil
}

func (a *Adapter) attachStatic(body *physics.RigidBody, shape physics.Shape, category physics.Bits) {
	c := body.AddCollider(shape, math.TransformIdentity())
	c.SetCollisionCategoryBits(category)
	c.SetCollideWithMaskBits(CategoryBall)
	c.SetMaterial(a.material.physics())
}

// DestroyStatic removes the course colliders. It is a no-op without a
// course.
func (a *Adapter) DestroyStatic() {
	st := a.static
	if st == nil {
		return
	}
	a.world.DestroyRigidBody(st.terrainBody)
	a.world.DestroyRigidBody(st.goalBody)
	a.common.DestroyHeightFieldShape(st.field)
	for _, s := range st.shapes {
		a.common.DestroyConcaveMeshShape(s)
	}
	for _, m := range st.meshes {
		a.common.DestroyTriangleMesh(m)
	}
	a.static = nil
}

// CreateBallBody creates a dynamic sphere of mass r^3 at position. Near
// the goal the ball collides with the cavity geometry only, elsewhere with
// the bulk terrain only.
func (a *Adapter) CreateBallBody(position math.Vec3, radius float32, nearGoal bool) (Handle, error) {
	if a.static == nil {
		return Handle{}, ErrNoStatic
	}
	shape, err := a.shapes.Shape(radius)
	if err != nil {
		return Handle{}, err
	}

	body := a.world.CreateRigidBody(math.TransformAt(position))
	body.SetType(physics.Dynamic)
	body.SetMass(radius * radius * radius)

	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, ballSlot{})
	}
	slot := &a.slots[idx]
	slot.generation++
	slot.body = body
	slot.shape = shape
	slot.radius = radius
	slot.collider = a.addBallCollider(body, shape, maskFor(nearGoal))
	a.live++
	return Handle{index: idx, generation: slot.generation}, nil
}

func (a *Adapter) addBallCollider(body *physics.RigidBody, shape *physics.SphereShape, mask physics.Bits) *physics.Collider {
	c := body.AddCollider(shape, math.TransformIdentity())
	c.SetCollisionCategoryBits(CategoryBall)
	c.SetCollideWithMaskBits(mask)
	c.SetMaterial(a.material.physics())
	return c
}

func maskFor(nearGoal bool) physics.Bits {
	if nearGoal {
		return CategoryGoal
	}
	return CategoryTerrain
}

func (a *Adapter) slot(h Handle) *ballSlot {
	if h.IsZero() || int(h.index) >= len(a.slots) {
		return nil
	}
	s := &a.slots[h.index]
	if s.generation != h.generation || s.body == nil {
		return nil
	}
	return s
}

// Valid reports whether h refers to a live body.
func (a *Adapter) Valid(h Handle) bool { return a.slot(h) != nil }

// DestroyBallBody destroys the body behind h. Stale and zero handles are
// ignored.
func (a *Adapter) DestroyBallBody(h Handle) {
	s := a.slot(h)
	if s == nil {
		return
	}
	a.world.DestroyRigidBody(s.body)
	a.shapes.RemoveUsage(s.radius)
	s.body, s.collider, s.shape = nil, nil, nil
	a.free = append(a.free, h.index)
	a.live--
}

// SetColliderMask swaps the ball collider for a new one with mask. The
// collider is replaced rather than updated in place.
func (a *Adapter) SetColliderMask(h Handle, mask physics.Bits) {
	s := a.slot(h)
	if s == nil {
		return
	}
	s.body.RemoveCollider(s.collider)
	s.collider = a.addBallCollider(s.body, s.shape, mask)
}

// ColliderMask returns the collide-with mask of the ball collider.
func (a *Adapter) ColliderMask(h Handle) physics.Bits {
	if s := a.slot(h); s != nil {
		return s.collider.CollideWithMaskBits()
	}
	return 0
}

// Transform returns the body transform.
func (a *Adapter) Transform(h Handle) (math.Transform, bool) {
	s := a.slot(h)
	if s == nil {
		return math.Transform{}, false
	}
	return s.body.Transform(), true
}

// LinearVelocity returns the body velocity, zero for stale handles.
func (a *Adapter) LinearVelocity(h Handle) math.Vec3 {
	if s := a.slot(h); s != nil {
		return s.body.LinearVelocity()
	}
	return math.Vec3{}
}

// SetLinearVelocity sets the body velocity.
func (a *Adapter) SetLinearVelocity(h Handle, v math.Vec3) {
	if s := a.slot(h); s != nil {
		s.body.SetLinearVelocity(v)
	}
}

// Teleport moves the body to position with identity orientation and
// zero velocity.
func (a *Adapter) Teleport(h Handle, position math.Vec3) {
	s := a.slot(h)
	if s == nil {
		return
	}
	s.body.SetTransform(math.TransformAt(position))
	s.body.SetLinearVelocity(math.Vec3{})
	s.body.SetAngularVelocity(math.Vec3{})
}

// Step advances the physics world by dt.
func (a *Adapter) Step(dt float32) { a.world.Step(dt) }

// Close destroys every ball body and the course geometry.
func (a *Adapter) Close() {
	for i := range a.slots {
		s := &a.slots[i]
		if s.body != nil {
			a.DestroyBallBody(Handle{index: uint32(i), generation: s.generation})
		}
	}
	a.DestroyStatic()
}
