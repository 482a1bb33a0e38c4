package physics

import "fmt"

// Stats counts the live objects owned by a Common.
type Stats struct {
	Worlds         int
	Spheres        int
	HeightFields   int
	TriangleMeshes int
	ConcaveMeshes  int
}

// Shapes returns the number of live shapes of every kind.
func (s Stats) Shapes() int {
	return s.Spheres + s.HeightFields + s.ConcaveMeshes
}

// Common is the factory for worlds and shapes. Shapes are shared between
// colliders and must be destroyed explicitly; destroying twice is a no-op.
type Common struct {
	stats Stats
}

// NewCommon creates an empty factory.
func NewCommon() *Common {
	return &Common{}
}

// Stats returns the live object counters.
func (c *Common) Stats() Stats { return c.stats }

// CreateWorld creates a physics world.
func (c *Common) CreateWorld(settings WorldSettings) *World {
	c.stats.Worlds++
	return &World{common: c, settings: settings}
}

// DestroyWorld destroys every body of w and the world itself.
func (c *Common) DestroyWorld(w *World) {
	if w == nil || w.destroyed {
		return
	}
	for len(w.bodies) > 0 {
		w.DestroyRigidBody(w.bodies[len(w.bodies)-1])
	}
	w.destroyed = true
	c.stats.Worlds--
}

// CreateSphereShape creates a sphere of the given radius.
func (c *Common) CreateSphereShape(radius float32) (*SphereShape, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("%w: sphere radius %g", ErrInvalidShape, radius)
	}
	c.stats.Spheres++
	return &SphereShape{radius: radius}, nil
}

// DestroySphereShape releases s.
func (c *Common) DestroySphereShape(s *SphereShape) {
	if s == nil || s.destroyed {
		return
	}
	s.destroyed = true
	c.stats.Spheres--
}

// CreateHeightFieldShape creates a height field of cols x rows cells
// covering width x depth, with (cols+1)*(rows+1) row-major heights.
func (c *Common) CreateHeightFieldShape(cols, rows int, width, depth float32, heights []float32) (*HeightFieldShape, error) {
	h, err := newHeightField(cols, rows, width, depth, heights)
	if err != nil {
		return nil, err
	}
	c.stats.HeightFields++
	return h, nil
}

// DestroyHeightFieldShape releases h.
func (c *Common) DestroyHeightFieldShape(h *HeightFieldShape) {
	if h == nil || h.destroyed {
		return
	}
	h.destroyed = true
	c.stats.HeightFields--
}

// CreateTriangleMesh creates an empty triangle mesh.
func (c *Common) CreateTriangleMesh() *TriangleMesh {
	c.stats.TriangleMeshes++
	return &TriangleMesh{}
}

// DestroyTriangleMesh releases m.
func (c *Common) DestroyTriangleMesh(m *TriangleMesh) {
	if m == nil || m.destroyed {
		return
	}
	m.destroyed = true
	m.tris, m.index = nil, nil
	c.stats.TriangleMeshes--
}

// CreateConcaveMeshShape wraps m in a collision shape.
func (c *Common) CreateConcaveMeshShape(m *TriangleMesh) (*ConcaveMeshShape, error) {
	if m == nil || m.destroyed {
		return nil, fmt.Errorf("%w: concave shape needs a live triangle mesh", ErrInvalidShape)
	}
	c.stats.ConcaveMeshes++
	return &ConcaveMeshShape{mesh: m}, nil
}

// DestroyConcaveMeshShape releases s. The backing mesh stays alive.
func (c *Common) DestroyConcaveMeshShape(s *ConcaveMeshShape) {
	if s == nil || s.destroyed {
		return
	}
	s.destroyed = true
	c.stats.ConcaveMeshes--
}
