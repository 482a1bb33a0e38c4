package terrain

import (
	"errors"
	gomath "math"
	"testing"
)

func nearf(a, b, eps float32) bool {
	return float32(gomath.Abs(float64(a-b))) <= eps
}

func slopedGrid(t *testing.T) *HeightGrid {
	t.Helper()
	// h = x + 2z on a 4x2 grid spanning 8x4 units
	cols, rows := 4, 2
	heights := make([]float32, (cols+1)*(rows+1))
	for r := 0; r <= rows; r++ {
		for c := 0; c <= cols; c++ {
			heights[r*(cols+1)+c] = float32(c)*2 + 2*float32(r)*2
		}
	}
	g, err := New(cols, rows, 8, 4, heights)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return g
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		cols    int
		rows    int
		heights int
	}{
		{"zero cols", 0, 2, 3},
		{"short heights", 2, 2, 8},
		{"long heights", 2, 2, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cols, tt.rows, 10, 10, make([]float32, tt.heights))
			if !errors.Is(err, ErrInvalidGrid) {
				t.Errorf("New() error = %v, want ErrInvalidGrid", err)
			}
		})
	}
}

func TestHeightAtPlane(t *testing.T) {
	g := slopedGrid(t)
	// a planar field is reproduced exactly by either cell triangle
	points := [][2]float32{{0, 0}, {1, 0.5}, {3.9, 3.9}, {8, 4}, {5.5, 1.25}, {2, 2}}
	for _, p := range points {
		want := p[0] + 2*p[1]
		if got := g.HeightAt(p[0], p[1]); !nearf(got, want, 1e-4) {
			t.Errorf("HeightAt(%v, %v) = %v, want %v", p[0], p[1], got, want)
		}
	}
}

func TestHeightAtTriangleSplit(t *testing.T) {
	// single cell with one raised corner at (col+1, row+1)
	g, err := New(1, 1, 1, 1, []float32{0, 0, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if got := g.HeightAt(0.25, 0.25); got != 0 {
		t.Errorf("lower triangle height = %v, want 0", got)
	}
	if got := g.HeightAt(0.75, 0.75); !nearf(got, 0.5, 1e-6) {
		t.Errorf("upper triangle height = %v, want 0.5", got)
	}
	// on the diagonal both triangles agree
	if got := g.HeightAt(0.5, 0.5); got != 0 {
		t.Errorf("diagonal height = %v, want 0", got)
	}
}

func TestHeightAtClamps(t *testing.T) {
	g := slopedGrid(t)
	if got := g.HeightAt(-5, -5); got != 0 {
		t.Errorf("HeightAt outside = %v, want 0", got)
	}
	if got := g.HeightAt(100, 100); got != g.MaxHeight() {
		t.Errorf("HeightAt far corner = %v, want %v", got, g.MaxHeight())
	}
}

func TestNormalAt(t *testing.T) {
	g, err := Flat(3, 3, 3, 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	n := g.NormalAt(1.2, 2.7)
	if n.X != 0 || n.Z != 0 || !nearf(n.Y, 1, 1e-6) {
		t.Errorf("flat normal = %v, want (0, 1, 0)", n)
	}

	s := slopedGrid(t)
	n = s.NormalAt(1, 1)
	// gradient (1, 2) → normal ∝ (-1, 1, -2)
	if !(n.X < 0 && n.Z < 0 && n.Y > 0) || !nearf(n.Z, 2*n.X, 1e-5) {
		t.Errorf("sloped normal = %v", n)
	}
}

func TestMinMax(t *testing.T) {
	g := slopedGrid(t)
	if g.MinHeight() != 0 || g.MaxHeight() != 16 {
		t.Errorf("min/max = %v/%v, want 0/16", g.MinHeight(), g.MaxHeight())
	}
	b := g.Bounds()
	if b.Max.X != 8 || b.Max.Z != 4 || b.Max.Y != 16 {
		t.Errorf("Bounds() = %+v", b)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	p := NoiseParams{Seed: 7, Frequency: 5, Amplitude: 2}
	a, err := Generate(16, 12, 30, 20, p)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	b, _ := Generate(16, 12, 30, 20, p)
	for i, h := range a.Heights() {
		if h != b.Heights()[i] {
			t.Fatalf("height %d differs: %v vs %v", i, h, b.Heights()[i])
		}
		if h < -2 || h > 2 {
			t.Fatalf("height %d = %v outside amplitude", i, h)
		}
	}
	if a.MinHeight() == a.MaxHeight() {
		t.Error("noise terrain should not be flat")
	}
}

func TestGenerateZeroAmplitude(t *testing.T) {
	g, err := Generate(4, 4, 10, 10, NoiseParams{Frequency: 3})
	if err != nil {
		t.Fatal(err)
	}
	if g.MinHeight() != 0 || g.MaxHeight() != 0 {
		t.Errorf("zero amplitude grid not flat: %v..%v", g.MinHeight(), g.MaxHeight())
	}
}

func TestGenerateRejectsZeroFrequency(t *testing.T) {
	if _, err := Generate(4, 4, 10, 10, NoiseParams{Amplitude: 1}); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("Generate() error = %v, want ErrInvalidGrid", err)
	}
}
