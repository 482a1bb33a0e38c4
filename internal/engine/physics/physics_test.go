package physics

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/golfsim/pkg/math"
)

const step = float32(1.0 / 60.0)

func abs32(v float32) float32 {
	return float32(gomath.Abs(float64(v)))
}

// flatWorld builds a world with a flat height field of the given size
// centred on the origin.
func flatWorld(t *testing.T, size float32, mat Material) (*Common, *World, *Collider) {
	t.Helper()
	common := NewCommon()
	world := common.CreateWorld(DefaultWorldSettings())

	const cells = 10
	heights := make([]float32, (cells+1)*(cells+1))
	field, err := common.CreateHeightFieldShape(cells, cells, size, size, heights)
	if err != nil {
		t.Fatalf("CreateHeightFieldShape: %v", err)
	}
	ground := world.CreateRigidBody(math.TransformAt(math.Vec3{X: -size / 2, Z: -size / 2}))
	ground.SetType(Static)
	col := ground.AddCollider(field, math.TransformIdentity())
	col.SetMaterial(mat)
	return common, world, col
}

func addBall(t *testing.T, common *Common, world *World, pos math.Vec3, r float32, mat Material) *RigidBody {
	t.Helper()
	shape, err := common.CreateSphereShape(r)
	if err != nil {
		t.Fatalf("CreateSphereShape: %v", err)
	}
	body := world.CreateRigidBody(math.TransformAt(pos))
	body.AddCollider(shape, math.TransformIdentity()).SetMaterial(mat)
	return body
}

func TestBallComesToRest(t *testing.T) {
	mat := Material{Bounciness: 0.5, Friction: 0.3}
	common, world, _ := flatWorld(t, 20, mat)
	ball := addBall(t, common, world, math.Vec3{Y: 2}, 0.5, mat)

	for i := 0; i < 300; i++ {
		world.Step(step)
	}

	if y := ball.Position().Y; abs32(y-0.5) > 1e-3 {
		t.Errorf("resting height = %v, want 0.5", y)
	}
	if v := ball.LinearVelocity().LengthSquared(); v > 0.01 {
		t.Errorf("resting |v|^2 = %v, want ~0", v)
	}
	if !ball.InContact() {
		t.Error("resting ball should be in contact")
	}
}

func TestBallBounces(t *testing.T) {
	mat := Material{Bounciness: 0.5, Friction: 0.3}
	common, world, _ := flatWorld(t, 20, mat)
	ball := addBall(t, common, world, math.Vec3{Y: 3}, 0.5, mat)

	var maxUp float32
	for i := 0; i < 120; i++ {
		world.Step(step)
		maxUp = max(maxUp, ball.LinearVelocity().Y)
	}
	if maxUp < 1 {
		t.Errorf("max upward speed = %v, want a visible bounce", maxUp)
	}
}

func TestNoBounceBelowRestingSpeed(t *testing.T) {
	mat := Material{Bounciness: 1, Friction: 0}
	common, world, _ := flatWorld(t, 20, mat)
	ball := addBall(t, common, world, math.Vec3{Y: 0.5}, 0.5, mat)
	ball.SetLinearVelocity(math.Vec3{Y: -0.2})

	world.Step(step)

	if vy := ball.LinearVelocity().Y; vy > 1e-4 {
		t.Errorf("slow contact bounced with vy = %v", vy)
	}
}

func TestFilterBitsSkipContacts(t *testing.T) {
	mat := DefaultMaterial()
	common, world, ground := flatWorld(t, 20, mat)
	ground.SetCollisionCategoryBits(2)
	ground.SetCollideWithMaskBits(4)

	ball := addBall(t, common, world, math.Vec3{Y: 1}, 0.5, mat)
	ball.Colliders()[0].SetCollisionCategoryBits(4)
	ball.Colliders()[0].SetCollideWithMaskBits(1)

	for i := 0; i < 60; i++ {
		world.Step(step)
	}
	if y := ball.Position().Y; y > -1 {
		t.Errorf("filtered ball should fall through, y = %v", y)
	}

	ball.Colliders()[0].SetCollideWithMaskBits(2)
	ball.SetTransform(math.TransformAt(math.Vec3{Y: 1}))
	ball.SetLinearVelocity(math.Vec3{})
	for i := 0; i < 60; i++ {
		world.Step(step)
	}
	if y := ball.Position().Y; y < 0.4 {
		t.Errorf("accepted ball should land, y = %v", y)
	}
}

func TestFastBallDoesNotTunnel(t *testing.T) {
	common := NewCommon()
	world := common.CreateWorld(DefaultWorldSettings())

	mesh := common.CreateTriangleMesh()
	err := mesh.AddSubpart(TriangleVertexArray{
		Positions: []math.Vec3{{X: -5, Z: -5}, {X: 5, Z: -5}, {X: 5, Z: 5}, {X: -5, Z: 5}},
		Indices:   []uint32{0, 2, 1, 0, 3, 2},
	})
	if err != nil {
		t.Fatalf("AddSubpart: %v", err)
	}
	shape, err := common.CreateConcaveMeshShape(mesh)
	if err != nil {
		t.Fatalf("CreateConcaveMeshShape: %v", err)
	}
	ground := world.CreateRigidBody(math.TransformIdentity())
	ground.SetType(Static)
	ground.AddCollider(shape, math.TransformIdentity())

	ball := addBall(t, common, world, math.Vec3{Y: 1}, 0.1, DefaultMaterial())
	ball.SetLinearVelocity(math.Vec3{Y: -300})
	world.Step(step)

	if y := ball.Position().Y; y < 0 {
		t.Errorf("ball tunnelled through the floor, y = %v", y)
	}
	if vy := ball.LinearVelocity().Y; vy <= 0 {
		t.Errorf("ball should rebound, vy = %v", vy)
	}
}

func TestSunkenBallIsPushedOut(t *testing.T) {
	mat := Material{Friction: 0.3}
	common, world, _ := flatWorld(t, 20, mat)
	ball := addBall(t, common, world, math.Vec3{Y: -2}, 0.5, mat)

	world.Step(step)

	if y := ball.Position().Y; abs32(y-0.5) > 1e-3 {
		t.Errorf("sunken ball height = %v, want 0.5", y)
	}
}

func TestRollingResistanceStopsBall(t *testing.T) {
	mat := Material{Bounciness: 0.2, Friction: 0.3, RollingResistance: 0.1}
	common, world, _ := flatWorld(t, 100, mat)
	ball := addBall(t, common, world, math.Vec3{Y: 0.5}, 0.5, mat)
	ball.SetLinearVelocity(math.Vec3{X: 5})

	for i := 0; i < 60; i++ {
		world.Step(step)
	}
	v := ball.LinearVelocity().Length()
	w := ball.AngularVelocity().Length()
	if v == 0 || abs32(w*0.5-v)/v > 0.1 {
		t.Errorf("after 1s expected rolling, |v| = %v, |w|r = %v", v, w*0.5)
	}
	if ball.Transform().Orientation == math.QuatIdentity() {
		t.Error("rolling ball orientation did not change")
	}

	for i := 0; i < 600; i++ {
		world.Step(step)
	}
	if v := ball.LinearVelocity().LengthSquared(); v > 1e-4 {
		t.Errorf("ball still moving after 11s, |v|^2 = %v", v)
	}
}

func TestFrictionlessSlideKeepsSpeed(t *testing.T) {
	mat := Material{}
	common, world, _ := flatWorld(t, 100, mat)
	settings := DefaultWorldSettings()
	settings.LinearDamping = 0
	world.settings = settings

	ball := addBall(t, common, world, math.Vec3{Y: 0.5}, 0.5, mat)
	ball.SetLinearVelocity(math.Vec3{X: 5})
	for i := 0; i < 60; i++ {
		world.Step(step)
	}
	if vx := ball.LinearVelocity().X; abs32(vx-5) > 1e-3 {
		t.Errorf("vx = %v, want 5", vx)
	}
}

func TestStatsCountLiveObjects(t *testing.T) {
	common := NewCommon()
	world := common.CreateWorld(DefaultWorldSettings())

	s1, _ := common.CreateSphereShape(1)
	s2, _ := common.CreateSphereShape(2)
	field, _ := common.CreateHeightFieldShape(1, 1, 1, 1, []float32{0, 0, 0, 0})
	mesh := common.CreateTriangleMesh()
	concave, _ := common.CreateConcaveMeshShape(mesh)

	want := Stats{Worlds: 1, Spheres: 2, HeightFields: 1, TriangleMeshes: 1, ConcaveMeshes: 1}
	if got := common.Stats(); got != want {
		t.Fatalf("Stats() = %+v, want %+v", got, want)
	}
	if got := common.Stats().Shapes(); got != 4 {
		t.Errorf("Shapes() = %d, want 4", got)
	}

	common.DestroySphereShape(s1)
	common.DestroySphereShape(s1)
	common.DestroySphereShape(nil)
	common.DestroySphereShape(s2)
	common.DestroyHeightFieldShape(field)
	common.DestroyConcaveMeshShape(concave)
	common.DestroyTriangleMesh(mesh)
	common.DestroyTriangleMesh(mesh)
	world.CreateRigidBody(math.TransformIdentity())
	common.DestroyWorld(world)
	common.DestroyWorld(world)

	if got := common.Stats(); got != (Stats{}) {
		t.Errorf("Stats() after teardown = %+v, want zero", got)
	}
	if world.BodyCount() != 0 {
		t.Errorf("BodyCount() = %d after DestroyWorld", world.BodyCount())
	}
}

func TestDestroyRigidBody(t *testing.T) {
	common := NewCommon()
	world := common.CreateWorld(DefaultWorldSettings())
	other := common.CreateWorld(DefaultWorldSettings())

	a := world.CreateRigidBody(math.TransformIdentity())
	b := world.CreateRigidBody(math.TransformIdentity())
	c := world.CreateRigidBody(math.TransformIdentity())

	world.DestroyRigidBody(a)
	world.DestroyRigidBody(a)
	other.DestroyRigidBody(b)
	if got := world.BodyCount(); got != 2 {
		t.Fatalf("BodyCount() = %d, want 2", got)
	}

	world.DestroyRigidBody(c)
	world.DestroyRigidBody(b)
	if got := world.BodyCount(); got != 0 {
		t.Errorf("BodyCount() = %d, want 0", got)
	}
	if a.ID() == b.ID() || b.ID() == c.ID() {
		t.Error("body ids must be unique")
	}
}

func TestRemoveCollider(t *testing.T) {
	common := NewCommon()
	world := common.CreateWorld(DefaultWorldSettings())
	shape, _ := common.CreateSphereShape(1)
	body := world.CreateRigidBody(math.TransformIdentity())

	first := body.AddCollider(shape, math.TransformIdentity())
	second := body.AddCollider(shape, math.TransformIdentity())
	body.RemoveCollider(first)

	if got := body.Colliders(); len(got) != 1 || got[0] != second {
		t.Errorf("Colliders() = %v, want only the second collider", got)
	}
	if first.Body() != nil {
		t.Error("removed collider still references its body")
	}
}

func TestCollidesWith(t *testing.T) {
	tests := []struct {
		name        string
		catA, maskA Bits
		catB, maskB Bits
		want        bool
	}{
		{"mutual", 1, 2, 2, 1, true},
		{"one sided", 1, 2, 2, 4, false},
		{"disjoint", 1, 1, 2, 2, false},
		{"all", 4, AllBits, 8, AllBits, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Collider{category: tt.catA, mask: tt.maskA}
			b := &Collider{category: tt.catB, mask: tt.maskB}
			if got := a.CollidesWith(b); got != tt.want {
				t.Errorf("CollidesWith = %v, want %v", got, tt.want)
			}
			if got := b.CollidesWith(a); got != tt.want {
				t.Errorf("CollidesWith is not symmetric")
			}
		})
	}
}

func TestClosestOnTriangle(t *testing.T) {
	a := math.Vec3{}
	b := math.Vec3{X: 1}
	c := math.Vec3{Z: 1}
	tests := []struct {
		name string
		p    math.Vec3
		want math.Vec3
	}{
		{"above interior", math.Vec3{X: 0.25, Y: 1, Z: 0.25}, math.Vec3{X: 0.25, Z: 0.25}},
		{"vertex a", math.Vec3{X: -1, Z: -1}, a},
		{"vertex b", math.Vec3{X: 2, Z: -0.5}, b},
		{"vertex c", math.Vec3{X: -0.5, Z: 2}, c},
		{"edge ab", math.Vec3{X: 0.5, Z: -1}, math.Vec3{X: 0.5}},
		{"edge bc", math.Vec3{X: 1, Z: 1}, math.Vec3{X: 0.5, Z: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := closestOnTriangle(tt.p, a, b, c)
			if got.Sub(tt.want).Length() > 1e-5 {
				t.Errorf("closestOnTriangle = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTriangleGridQuery(t *testing.T) {
	var tris [][3]math.Vec3
	for i := 0; i < 10; i++ {
		x := float32(i)
		tris = append(tris, [3]math.Vec3{{X: x}, {X: x + 1}, {X: x, Z: 1}})
	}
	g := buildTriangleGrid(tris)

	seen := map[int]int{}
	g.query(math.Vec3{X: 2.5, Y: -1, Z: 0.2}, math.Vec3{X: 4.5, Y: 1, Z: 0.4}, func(i int) { seen[i]++ })
	for _, i := range []int{2, 3, 4} {
		if seen[i] != 1 {
			t.Errorf("triangle %d reported %d times, want 1", i, seen[i])
		}
	}
	if seen[8] != 0 || seen[0] != 0 {
		t.Errorf("distant triangles reported: %v", seen)
	}

	n := 0
	g.query(math.Vec3{X: 20, Y: -1, Z: 20}, math.Vec3{X: 21, Y: 1, Z: 21}, func(int) { n++ })
	if n != 0 {
		t.Errorf("query outside the mesh reported %d triangles", n)
	}
}

func TestShapeValidation(t *testing.T) {
	common := NewCommon()
	if _, err := common.CreateSphereShape(0); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("zero radius: err = %v, want ErrInvalidShape", err)
	}
	if _, err := common.CreateHeightFieldShape(2, 2, 1, 1, make([]float32, 4)); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("short heights: err = %v, want ErrInvalidShape", err)
	}
	mesh := common.CreateTriangleMesh()
	if err := mesh.AddSubpart(TriangleVertexArray{Positions: make([]math.Vec3, 2), Indices: []uint32{0, 1, 2}}); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("bad index: err = %v, want ErrInvalidShape", err)
	}
	if err := mesh.AddSubpart(TriangleVertexArray{Indices: []uint32{0, 1}}); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("partial triangle: err = %v, want ErrInvalidShape", err)
	}
	common.DestroyTriangleMesh(mesh)
	if _, err := common.CreateConcaveMeshShape(mesh); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("destroyed mesh: err = %v, want ErrInvalidShape", err)
	}
}
