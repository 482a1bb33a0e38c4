// Package model builds the procedural meshes the viewer draws besides the
// course: the unit sphere used for every ball.
package model

// Vertex is the interleaved render layout: position followed by normal.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
}

// Mesh holds indexed triangles ready for GPU upload.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
}

// Bounds holds the axis-aligned bounding box of a mesh.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// computeBounds updates Bounds from the vertices.
func (m *Mesh) computeBounds() {
	m.Bounds = Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
	for _, v := range m.Vertices {
		for i := 0; i < 3; i++ {
			m.Bounds.Min[i] = min(m.Bounds.Min[i], v.Position[i])
			m.Bounds.Max[i] = max(m.Bounds.Max[i], v.Position[i])
		}
	}
}
