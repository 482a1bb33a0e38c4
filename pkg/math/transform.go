package math

// Transform is a rigid body pose: a position and an orientation.
type Transform struct {
	Position    Vec3
	Orientation Quat
}

// TransformIdentity returns the pose at the origin with no rotation.
func TransformIdentity() Transform {
	return Transform{Orientation: QuatIdentity()}
}

// TransformAt returns an unrotated pose at p.
func TransformAt(p Vec3) Transform {
	return Transform{Position: p, Orientation: QuatIdentity()}
}

// Apply maps a point from local space into the transform's parent space.
func (t Transform) Apply(p Vec3) Vec3 {
	return t.Orientation.Rotate(p).Add(t.Position)
}

// Matrix returns the model matrix of the pose.
func (t Transform) Matrix() Mat4 {
	return Translate(t.Position.X, t.Position.Y, t.Position.Z).Mul(t.Orientation.ToMat4())
}

// InterpolateTransforms blends two poses: positions linearly, orientations by
// slerp. factor 0 yields a, 1 yields b.
func InterpolateTransforms(a, b Transform, factor float32) Transform {
	return Transform{
		Position:    a.Position.Lerp(b.Position, factor),
		Orientation: a.Orientation.Slerp(b.Orientation, factor),
	}
}
