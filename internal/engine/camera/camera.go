// Package camera provides the orbit camera of the viewer.
package camera

import (
	gomath "math"

	"github.com/Faultbox/golfsim/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center math.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
	PanSpeed        float32 // fraction of Distance per second

	FovY      float32 // radians
	Near, Far float32
}

// NewOrbitCamera creates an orbit camera sized for a course of about a
// hundred metres.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        60,
		RotationX:       0.6,
		MinDistance:     1,
		MaxDistance:     500,
		MinPitch:        0.05,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		PanSpeed:        0.5,
		FovY:            math.Radians(45),
		Near:            0.1,
		Far:             2000,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	pitch, yaw := float64(c.RotationX), float64(c.RotationY)
	return c.Center.Add(math.Vec3{
		X: c.Distance * float32(gomath.Cos(pitch)*gomath.Sin(yaw)),
		Y: c.Distance * float32(gomath.Sin(pitch)),
		Z: c.Distance * float32(gomath.Cos(pitch)*gomath.Cos(yaw)),
	})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Y: 1})
}

// ProjectionMatrix returns the perspective projection for a viewport of
// the given size.
func (c *OrbitCamera) ProjectionMatrix(width, height int) math.Mat4 {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	return math.Perspective(c.FovY, aspect, c.Near, c.Far)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX = math.Clamp(c.RotationX+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = math.Clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// HandleMovement pans the center on the ground plane relative to the view
// direction. forward and right are -1..1; dt is the frame time.
func (c *OrbitCamera) HandleMovement(forward, right, dt float32) {
	speed := c.Distance * c.PanSpeed * dt
	sin := float32(gomath.Sin(float64(c.RotationY)))
	cos := float32(gomath.Cos(float64(c.RotationY)))

	// W moves into the scene, away from the camera.
	c.Center.X += (-sin*forward + cos*right) * speed
	c.Center.Z += (-cos*forward - sin*right) * speed
}

// FitToBounds centres the camera on a bounding box and backs off far
// enough to see all of it.
func (c *OrbitCamera) FitToBounds(lo, hi math.Vec3) {
	c.Center = lo.Add(hi).Scale(0.5)
	size := max(hi.X-lo.X, hi.Z-lo.Z)
	c.Distance = math.Clamp(size*0.9, c.MinDistance, c.MaxDistance)
	c.RotationX = 0.6
	c.RotationY = 0
}
