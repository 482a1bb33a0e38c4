package camera

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/golfsim/pkg/math"
)

func near(a, b float32) bool {
	return gomath.Abs(float64(a-b)) < 1e-4
}

func TestPositionDistance(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = math.Vec3{X: 3, Y: -2, Z: 5}
	for _, yaw := range []float32{0, 1, 2.5} {
		c.RotationY = yaw
		if d := c.Position().Distance(c.Center); !near(d, c.Distance) {
			t.Errorf("yaw %g: distance %g, want %g", yaw, d, c.Distance)
		}
	}

	c.RotationX, c.RotationY = 0, 0
	if p := c.Position(); !near(p.Z, c.Center.Z+c.Distance) || !near(p.Y, c.Center.Y) {
		t.Errorf("level camera at %v", p)
	}
}

func TestHandleDragClampsPitch(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleDrag(0, 1e6)
	if c.RotationX != c.MaxPitch {
		t.Errorf("pitch %g, want %g", c.RotationX, c.MaxPitch)
	}
	c.HandleDrag(0, -1e6)
	if c.RotationX != c.MinPitch {
		t.Errorf("pitch %g, want %g", c.RotationX, c.MinPitch)
	}
	yaw := c.RotationY
	c.HandleDrag(100, 0)
	if !near(c.RotationY, yaw-100*c.DragSensitivity) {
		t.Errorf("yaw %g", c.RotationY)
	}
}

func TestHandleZoomClamps(t *testing.T) {
	c := NewOrbitCamera()
	for i := 0; i < 200; i++ {
		c.HandleZoom(1)
	}
	if c.Distance != c.MinDistance {
		t.Errorf("distance %g, want %g", c.Distance, c.MinDistance)
	}
	for i := 0; i < 200; i++ {
		c.HandleZoom(-1)
	}
	if c.Distance != c.MaxDistance {
		t.Errorf("distance %g, want %g", c.Distance, c.MaxDistance)
	}
}

func TestHandleMovementForward(t *testing.T) {
	c := NewOrbitCamera()
	before := c.Position().Distance(math.Vec3{})
	c.HandleMovement(1, 0, 0.1)
	if c.Center.Z >= 0 || !near(c.Center.X, 0) {
		t.Errorf("forward moved center to %v, want negative Z", c.Center)
	}
	if c.Position().Distance(math.Vec3{}) >= before {
		t.Error("camera did not move toward the scene")
	}

	c.Center = math.Vec3{}
	c.HandleMovement(0, 1, 0.1)
	if c.Center.X <= 0 || !near(c.Center.Z, 0) {
		t.Errorf("right moved center to %v, want positive X", c.Center)
	}
}

func TestFitToBounds(t *testing.T) {
	c := NewOrbitCamera()
	c.FitToBounds(math.Vec3{X: -50, Y: -5, Z: -20}, math.Vec3{X: 50, Y: 1, Z: 20})
	if !near(c.Center.X, 0) || !near(c.Center.Y, -2) || !near(c.Center.Z, 0) {
		t.Errorf("center %v", c.Center)
	}
	if !near(c.Distance, 90) {
		t.Errorf("distance %g, want 90", c.Distance)
	}
}
