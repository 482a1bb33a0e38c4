package math

import (
	"math"
	"testing"
)

func near(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

func nearVec3(a, b Vec3, eps float32) bool {
	return near(a.X, b.X, eps) && near(a.Y, b.Y, eps) && near(a.Z, b.Z, eps)
}

func TestVec2Cross(t *testing.T) {
	tests := []struct {
		name string
		a, b Vec2
		want float32
	}{
		{"ccw", Vec2{1, 0}, Vec2{0, 1}, 1},
		{"cw", Vec2{0, 1}, Vec2{1, 0}, -1},
		{"parallel", Vec2{2, 2}, Vec2{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Cross(tt.b); got != tt.want {
				t.Errorf("Cross() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVec2Rotate(t *testing.T) {
	got := Vec2{1, 0}.Rotate(math.Pi / 2)
	if !near(got.X, 0, 1e-6) || !near(got.Y, 1, 1e-6) {
		t.Errorf("Rotate(pi/2) = %v, want (0, 1)", got)
	}
}

func TestVec2Length(t *testing.T) {
	v := Vec2{3, 4}
	if v.Length() != 5 {
		t.Errorf("Length() = %v, want 5", v.Length())
	}
	if v.LengthSquared() != 25 {
		t.Errorf("LengthSquared() = %v, want 25", v.LengthSquared())
	}
	if l := v.Normalize().Length(); !near(l, 1, 1e-6) {
		t.Errorf("Normalize().Length() = %v, want 1", l)
	}
	if (Vec2{}).Normalize() != (Vec2{}) {
		t.Error("Normalize of zero vector should stay zero")
	}
}

func TestVec3Cross(t *testing.T) {
	got := Vec3{1, 0, 0}.Cross(Vec3{0, 1, 0})
	if got != (Vec3{0, 0, 1}) {
		t.Errorf("Cross() = %v, want (0, 0, 1)", got)
	}
}

func TestVec3Lerp(t *testing.T) {
	got := Vec3{0, 0, 0}.Lerp(Vec3{10, 20, 30}, 0.5)
	if got != (Vec3{5, 10, 15}) {
		t.Errorf("Lerp() = %v, want (5, 10, 15)", got)
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	if m.Mul(Identity()) != m {
		t.Error("M * I should equal M")
	}
}

func TestTransformPoint(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		p    Vec3
		want Vec3
	}{
		{"translate", Translate(10, 20, 30), Vec3{1, 2, 3}, Vec3{11, 22, 33}},
		{"scale", Scale(2, 2, 2), Vec3{1, 2, 3}, Vec3{2, 4, 6}},
		{"scaled at", ScaledAt(Vec3{1, 1, 1}, 3), Vec3{1, 0, -1}, Vec3{4, 1, -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.TransformPoint(tt.p); got != tt.want {
				t.Errorf("TransformPoint() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScaledAtMatchesProduct(t *testing.T) {
	p := Vec3{4, -2, 7}
	want := Translate(p.X, p.Y, p.Z).Mul(Scale(0.5, 0.5, 0.5))
	if got := ScaledAt(p, 0.5); got != want {
		t.Errorf("ScaledAt() = %v, want %v", got, want)
	}
}

func TestPerspective(t *testing.T) {
	m := Perspective(math.Pi/4, 1, 0.1, 100)
	if m[15] != 0 {
		t.Errorf("Perspective [15] = %f, want 0", m[15])
	}
	if m[11] != -1 {
		t.Errorf("Perspective [11] = %f, want -1", m[11])
	}
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	eye := Vec3{3, 4, 5}
	m := LookAt(eye, Vec3{}, Vec3{0, 1, 0})
	if got := m.TransformPoint(eye); !nearVec3(got, Vec3{}, 1e-5) {
		t.Errorf("eye in view space = %v, want origin", got)
	}
}

func TestQuatRotate(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{0, 1, 0}, math.Pi/2)
	got := q.Rotate(Vec3{1, 0, 0})
	if !nearVec3(got, Vec3{0, 0, -1}, 1e-6) {
		t.Errorf("Rotate() = %v, want (0, 0, -1)", got)
	}
	back := q.Conjugate().Rotate(got)
	if !nearVec3(back, Vec3{1, 0, 0}, 1e-6) {
		t.Errorf("Conjugate().Rotate() = %v, want (1, 0, 0)", back)
	}
}

func TestQuatRotateMatchesMatrix(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{1, 2, 3}.Normalize(), 0.7)
	v := Vec3{0.3, -1, 2}
	if a, b := q.Rotate(v), q.ToMat4().TransformPoint(v); !nearVec3(a, b, 1e-5) {
		t.Errorf("Rotate() = %v, matrix = %v", a, b)
	}
}

func TestQuatSlerp(t *testing.T) {
	q1 := QuatIdentity()
	q2 := QuatFromAxisAngle(Vec3{0, 1, 0}, math.Pi/2)

	if r := q1.Slerp(q2, 0); !near(r.W, q1.W, 1e-3) {
		t.Errorf("Slerp(0).W = %v, want %v", r.W, q1.W)
	}
	if r := q1.Slerp(q2, 1); !near(r.W, q2.W, 1e-3) {
		t.Errorf("Slerp(1).W = %v, want %v", r.W, q2.W)
	}
	want := float32(math.Cos(math.Pi / 8))
	if r := q1.Slerp(q2, 0.5); !near(r.W, want, 1e-2) {
		t.Errorf("Slerp(0.5).W = %v, want %v", r.W, want)
	}
}

func TestQuatIntegrate(t *testing.T) {
	// quarter turn about +Y over one second in small steps
	q := QuatIdentity()
	w := Vec3{0, math.Pi / 2, 0}
	for i := 0; i < 1000; i++ {
		q = q.Integrate(w, 0.001)
	}
	got := q.Rotate(Vec3{1, 0, 0})
	if !nearVec3(got, Vec3{0, 0, -1}, 1e-2) {
		t.Errorf("integrated rotation = %v, want (0, 0, -1)", got)
	}
}

func TestInterpolateTransforms(t *testing.T) {
	a := TransformAt(Vec3{0, 0, 0})
	b := Transform{Position: Vec3{2, 4, 6}, Orientation: QuatFromAxisAngle(Vec3{0, 0, 1}, 1)}

	tests := []struct {
		factor float32
		want   Vec3
	}{
		{0, Vec3{0, 0, 0}},
		{0.25, Vec3{0.5, 1, 1.5}},
		{1, Vec3{2, 4, 6}},
	}
	for _, tt := range tests {
		got := InterpolateTransforms(a, b, tt.factor)
		if !nearVec3(got.Position, tt.want, 1e-6) {
			t.Errorf("factor %v: position %v, want %v", tt.factor, got.Position, tt.want)
		}
	}
	if end := InterpolateTransforms(a, b, 1); !near(end.Orientation.Dot(b.Orientation), 1, 1e-4) {
		t.Errorf("factor 1 orientation %v, want %v", end.Orientation, b.Orientation)
	}
}

func TestTransformMatrix(t *testing.T) {
	tr := Transform{Position: Vec3{1, 2, 3}, Orientation: QuatFromAxisAngle(Vec3{0, 1, 0}, math.Pi/2)}
	p := Vec3{1, 0, 0}
	if a, b := tr.Apply(p), tr.Matrix().TransformPoint(p); !nearVec3(a, b, 1e-5) {
		t.Errorf("Apply() = %v, Matrix() = %v", a, b)
	}
}
