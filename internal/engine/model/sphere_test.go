package model

import (
	gomath "math"
	"testing"
)

func TestSphereCounts(t *testing.T) {
	tests := []struct {
		stacks, slices int
	}{
		{2, 3},
		{4, 8},
		{DefaultStacks, DefaultSlices},
	}
	for _, tt := range tests {
		m, err := Sphere(tt.stacks, tt.slices)
		if err != nil {
			t.Fatalf("Sphere(%d, %d): %v", tt.stacks, tt.slices, err)
		}
		wantVerts := 2 + (tt.stacks-1)*(tt.slices+1)
		wantTris := 2 * tt.slices * (tt.stacks - 1)
		if len(m.Vertices) != wantVerts || m.TriangleCount() != wantTris {
			t.Errorf("Sphere(%d, %d): %d vertices %d triangles, want %d %d",
				tt.stacks, tt.slices, len(m.Vertices), m.TriangleCount(), wantVerts, wantTris)
		}
		for _, idx := range m.Indices {
			if int(idx) >= len(m.Vertices) {
				t.Fatalf("index %d out of range", idx)
			}
		}
	}
}

func TestSphereInvalid(t *testing.T) {
	for _, args := range [][2]int{{1, 8}, {4, 2}, {0, 0}} {
		if _, err := Sphere(args[0], args[1]); err == nil {
			t.Errorf("Sphere(%d, %d) should fail", args[0], args[1])
		}
	}
}

func TestSphereIsUnitAndOutward(t *testing.T) {
	m, err := Sphere(8, 12)
	if err != nil {
		t.Fatalf("Sphere: %v", err)
	}
	for i, v := range m.Vertices {
		p := v.Position
		if l := gomath.Sqrt(float64(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])); gomath.Abs(l-1) > 1e-5 {
			t.Errorf("vertex %d has length %g", i, l)
		}
	}

	// Every face normal must point away from the center.
	for i := 0; i < len(m.Indices); i += 3 {
		a := m.Vertices[m.Indices[i]].Position
		b := m.Vertices[m.Indices[i+1]].Position
		c := m.Vertices[m.Indices[i+2]].Position
		e1 := [3]float32{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
		e2 := [3]float32{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
		n := [3]float32{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}
		centroid := [3]float32{a[0] + b[0] + c[0], a[1] + b[1] + c[1], a[2] + b[2] + c[2]}
		if n[0]*centroid[0]+n[1]*centroid[1]+n[2]*centroid[2] <= 0 {
			t.Fatalf("triangle %d faces inward", i/3)
		}
	}

	for i := 0; i < 3; i++ {
		if m.Bounds.Min[i] > -0.99 || m.Bounds.Max[i] < 0.99 {
			t.Errorf("bounds axis %d = %v..%v", i, m.Bounds.Min[i], m.Bounds.Max[i])
		}
	}
}
