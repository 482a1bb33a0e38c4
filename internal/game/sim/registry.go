package sim

import (
	"fmt"

	"github.com/Faultbox/golfsim/internal/engine/physics"
)

// SphereFactory creates and destroys sphere shapes.
type SphereFactory interface {
	CreateSphereShape(radius float32) (*physics.SphereShape, error)
	DestroySphereShape(s *physics.SphereShape)
}

type shapeEntry struct {
	shape *physics.SphereShape
	refs  int
}

// ShapeRegistry shares one sphere shape between every ball of the same
// radius. A shape lives exactly as long as its usage count is positive.
type ShapeRegistry struct {
	factory SphereFactory
	entries map[float32]*shapeEntry
}

// NewShapeRegistry creates an empty registry backed by factory.
func NewShapeRegistry(factory SphereFactory) *ShapeRegistry {
	return &ShapeRegistry{
		factory: factory,
		entries: make(map[float32]*shapeEntry),
	}
}

// Shape returns the sphere for radius and records one more usage. The
// first request for a radius creates the shape.
func (r *ShapeRegistry) Shape(radius float32) (*physics.SphereShape, error) {
	if e, ok := r.entries[radius]; ok {
		e.refs++
		return e.shape, nil
	}
	s, err := r.factory.CreateSphereShape(radius)
	if err != nil {
		return nil, fmt.Errorf("sphere shape r=%g: %w", radius, err)
	}
	r.entries[radius] = &shapeEntry{shape: s, refs: 1}
	return s, nil
}

// RemoveUsage drops one usage of radius and destroys the shape when none
// remain. Unknown radii are ignored.
func (r *ShapeRegistry) RemoveUsage(radius float32) {
	e, ok := r.entries[radius]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		r.factory.DestroySphereShape(e.shape)
		delete(r.entries, radius)
	}
}

// Usage returns the usage count of radius.
func (r *ShapeRegistry) Usage(radius float32) int {
	if e, ok := r.entries[radius]; ok {
		return e.refs
	}
	return 0
}

// Len returns the number of live shapes.
func (r *ShapeRegistry) Len() int { return len(r.entries) }
