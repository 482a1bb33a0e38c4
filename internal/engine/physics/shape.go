// Package physics is a small impulse-based rigid body engine for spheres
// moving over static height fields and concave triangle meshes. It covers
// what the golf simulation needs and nothing more: dynamic bodies carry
// sphere colliders, static bodies carry terrain and cavity geometry.
package physics

import (
	"errors"
	"fmt"

	"github.com/Faultbox/golfsim/pkg/math"
)

// ErrInvalidShape is returned when shape construction data is inconsistent.
var ErrInvalidShape = errors.New("invalid collision shape")

// ShapeType identifies a collision shape implementation.
type ShapeType int

const (
	ShapeSphere ShapeType = iota
	ShapeHeightField
	ShapeConcaveMesh
)

func (t ShapeType) String() string {
	switch t {
	case ShapeSphere:
		return "sphere"
	case ShapeHeightField:
		return "heightfield"
	case ShapeConcaveMesh:
		return "concave-mesh"
	default:
		return "unknown"
	}
}

// Shape is collision geometry shared between colliders.
type Shape interface {
	Type() ShapeType
}

// triangle is a world-space triangle handed to the narrow phase.
// Solid triangles belong to a height field: anything below them is inside.
type triangle struct {
	a, b, c math.Vec3
	solid   bool
}

// triangleSource enumerates the triangles whose XZ extent overlaps a box.
type triangleSource interface {
	overlapping(origin, lo, hi math.Vec3, fn func(triangle))
}

// SphereShape is a sphere centred on its collider's origin.
type SphereShape struct {
	radius    float32
	destroyed bool
}

func (s *SphereShape) Type() ShapeType { return ShapeSphere }

// Radius returns the sphere radius.
func (s *SphereShape) Radius() float32 { return s.radius }

// HeightFieldShape is a regular grid of heights. Local X runs over columns,
// local Z over rows, starting at the collider origin. Each cell is split
// along its (col+1,row)-(col,row+1) diagonal.
type HeightFieldShape struct {
	cols, rows   int
	cellW, cellD float32
	heights      []float32
	minH, maxH   float32
	destroyed    bool
}

func newHeightField(cols, rows int, width, depth float32, heights []float32) (*HeightFieldShape, error) {
	if cols < 1 || rows < 1 || width <= 0 || depth <= 0 {
		return nil, fmt.Errorf("%w: %dx%d cells over %gx%g", ErrInvalidShape, cols, rows, width, depth)
	}
	if want := (cols + 1) * (rows + 1); len(heights) != want {
		return nil, fmt.Errorf("%w: %d heights, want %d", ErrInvalidShape, len(heights), want)
	}
	h := &HeightFieldShape{
		cols:    cols,
		rows:    rows,
		cellW:   width / float32(cols),
		cellD:   depth / float32(rows),
		heights: append([]float32(nil), heights...),
		minH:    heights[0],
		maxH:    heights[0],
	}
	for _, v := range heights {
		h.minH = min(h.minH, v)
		h.maxH = max(h.maxH, v)
	}
	return h, nil
}

func (h *HeightFieldShape) Type() ShapeType { return ShapeHeightField }

// MinHeight returns the lowest height sample.
func (h *HeightFieldShape) MinHeight() float32 { return h.minH }

// MaxHeight returns the highest height sample.
func (h *HeightFieldShape) MaxHeight() float32 { return h.maxH }

func (h *HeightFieldShape) corner(origin math.Vec3, col, row int) math.Vec3 {
	return math.Vec3{
		X: origin.X + float32(col)*h.cellW,
		Y: origin.Y + h.heights[row*(h.cols+1)+col],
		Z: origin.Z + float32(row)*h.cellD,
	}
}

func (h *HeightFieldShape) overlapping(origin, lo, hi math.Vec3, fn func(triangle)) {
	// Boxes below the surface are still reported: solid triangles push
	// sunken spheres back up.
	if lo.Y > origin.Y+h.maxH {
		return
	}
	if hi.X < origin.X || hi.Z < origin.Z ||
		lo.X > origin.X+float32(h.cols)*h.cellW || lo.Z > origin.Z+float32(h.rows)*h.cellD {
		return
	}
	c0 := clampCell(int(floor((lo.X-origin.X)/h.cellW)), h.cols)
	c1 := clampCell(int(floor((hi.X-origin.X)/h.cellW)), h.cols)
	r0 := clampCell(int(floor((lo.Z-origin.Z)/h.cellD)), h.rows)
	r1 := clampCell(int(floor((hi.Z-origin.Z)/h.cellD)), h.rows)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			p00 := h.corner(origin, col, row)
			p10 := h.corner(origin, col+1, row)
			p01 := h.corner(origin, col, row+1)
			p11 := h.corner(origin, col+1, row+1)
			fn(triangle{a: p00, b: p01, c: p10, solid: true})
			fn(triangle{a: p10, b: p01, c: p11, solid: true})
		}
	}
}

// TriangleVertexArray is one indexed sub-part of a triangle mesh.
type TriangleVertexArray struct {
	Positions []math.Vec3
	Indices   []uint32
}

// TriangleMesh groups sub-parts into a single concave mesh. A uniform XZ
// grid accelerates triangle lookup; it is rebuilt after AddSubpart.
type TriangleMesh struct {
	tris      [][3]math.Vec3
	index     *triangleGrid
	destroyed bool
}

// AddSubpart appends an indexed triangle list to the mesh.
func (m *TriangleMesh) AddSubpart(part TriangleVertexArray) error {
	if len(part.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a triangle list", ErrInvalidShape, len(part.Indices))
	}
	for i := 0; i < len(part.Indices); i += 3 {
		var t [3]math.Vec3
		for k := 0; k < 3; k++ {
			idx := part.Indices[i+k]
			if int(idx) >= len(part.Positions) {
				return fmt.Errorf("%w: index %d out of range (%d positions)", ErrInvalidShape, idx, len(part.Positions))
			}
			t[k] = part.Positions[idx]
		}
		m.tris = append(m.tris, t)
	}
	m.index = nil
	return nil
}

// TriangleCount returns the number of triangles over all sub-parts.
func (m *TriangleMesh) TriangleCount() int { return len(m.tris) }

func (m *TriangleMesh) lookup() *triangleGrid {
	if m.index == nil {
		m.index = buildTriangleGrid(m.tris)
	}
	return m.index
}

// ConcaveMeshShape is a static collision shape backed by a TriangleMesh.
type ConcaveMeshShape struct {
	mesh      *TriangleMesh
	destroyed bool
}

func (s *ConcaveMeshShape) Type() ShapeType { return ShapeConcaveMesh }

// Mesh returns the backing triangle mesh.
func (s *ConcaveMeshShape) Mesh() *TriangleMesh { return s.mesh }

func (s *ConcaveMeshShape) overlapping(origin, lo, hi math.Vec3, fn func(triangle)) {
	g := s.mesh.lookup()
	g.query(lo.Sub(origin), hi.Sub(origin), func(i int) {
		t := s.mesh.tris[i]
		fn(triangle{a: t[0].Add(origin), b: t[1].Add(origin), c: t[2].Add(origin)})
	})
}

func clampCell(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
