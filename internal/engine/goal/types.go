// Package goal cuts the circular goal cavity out of a height grid and
// synthesizes its side walls and bottom cap. The output feeds both the
// renderer (unwelded streams with face normals) and the physics world
// (welded collision meshes).
package goal

import (
	"errors"

	"github.com/Faultbox/golfsim/internal/engine/terrain"
	"github.com/Faultbox/golfsim/pkg/math"
)

// DefaultSectors is the number of rim samples used when Spec.Sectors is zero.
const DefaultSectors = 24

// WeldEpsilon is the distance under which two points are treated as one.
const WeldEpsilon = 1e-4

var (
	// ErrInvalidCavity reports a cavity that cannot be cut from the grid:
	// bad radius, depth or sector count, or a footprint leaving the grid.
	ErrInvalidCavity = errors.New("invalid cavity")
	// ErrCornerCount reports a boundary cell with an impossible number of
	// corners outside the cavity.
	ErrCornerCount = errors.New("unexpected outside corner count")
	// ErrTriangulation reports a boundary cell whose remaining area could not
	// be closed into loops or ear-clipped.
	ErrTriangulation = errors.New("boundary cell triangulation failed")
)

// Spec places and sizes the cavity.
type Spec struct {
	// RelativeCenter is the cavity center in 0..1 along X and Z. It is mapped
	// so the whole circle stays on the grid: c = r + rel*(size - 2r).
	RelativeCenter math.Vec2
	Radius         float32
	Depth          float32
	// Sectors is the rim sample count; it must be a multiple of 4 so the
	// cardinal points are sampled exactly and no rim chord runs parallel to
	// a grid line.
	Sectors int
}

// Center returns the grid-local cavity center for grid g.
func (s Spec) Center(g *terrain.HeightGrid) math.Vec2 {
	return math.Vec2{
		X: s.Radius + s.RelativeCenter.X*(g.Width()-2*s.Radius),
		Y: s.Radius + s.RelativeCenter.Y*(g.Height()-2*s.Radius),
	}
}

func (s Spec) sectors() int {
	if s.Sectors == 0 {
		return DefaultSectors
	}
	return s.Sectors
}

// RimPoint is one sample of the cavity rim projected onto the terrain.
type RimPoint struct {
	Position math.Vec2 // grid-local X/Z
	Col, Row int       // cell containing the point
	Height   float32
}

// Vertex is the render layout: position followed by normal.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
}

// CollisionMesh is a welded, compactly indexed triangle list.
type CollisionMesh struct {
	Positions []math.Vec3
	Indices   []uint32
}

// TriangleCount returns the number of triangles.
func (c CollisionMesh) TriangleCount() int {
	return len(c.Indices) / 3
}

// Part is one independently drawable and collidable piece of the mesh.
type Part struct {
	Vertices  []Vertex
	Indices   []uint32
	Collision CollisionMesh
}

// TriangleCount returns the number of render triangles.
func (p *Part) TriangleCount() int {
	return len(p.Indices) / 3
}

// PartKind indexes Mesh.Parts.
type PartKind int

const (
	PartTerrain PartKind = iota
	PartWalls
	PartBottom
	partCount
)

func (k PartKind) String() string {
	switch k {
	case PartTerrain:
		return "terrain"
	case PartWalls:
		return "walls"
	case PartBottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// Kinds lists the mesh parts in render order.
func Kinds() []PartKind {
	return []PartKind{PartTerrain, PartWalls, PartBottom}
}

// Mesh is the terrain with the cavity cut out, in grid-local coordinates.
type Mesh struct {
	Parts [partCount]Part

	Center       math.Vec2 // grid-local X/Z
	Radius       float32
	Depth        float32
	RimHeight    float32 // average height of the sampled rim
	BottomHeight float32 // RimHeight - Depth

	// Rim holds the sampled rim points. Loop is the full rim loop used by
	// the walls: rim samples plus grid-edge crossings in angular order.
	Rim  []RimPoint
	Loop []math.Vec3
}

// Part returns the part of the given kind.
func (m *Mesh) Part(k PartKind) *Part {
	return &m.Parts[k]
}
