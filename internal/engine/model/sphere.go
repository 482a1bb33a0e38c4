package model

import (
	"fmt"
	gomath "math"
)

// Default sphere tessellation.
const (
	DefaultStacks = 16
	DefaultSlices = 24
)

// Sphere builds a unit UV sphere centred on the origin. stacks splits it
// from pole to pole, slices around the Y axis. Each ring duplicates its
// first vertex so the seam closes; the poles are single vertices.
// Triangles wind counter-clockwise seen from outside.
func Sphere(stacks, slices int) (*Mesh, error) {
	if stacks < 2 || slices < 3 {
		return nil, fmt.Errorf("sphere needs at least 2 stacks and 3 slices, got %d/%d", stacks, slices)
	}

	m := &Mesh{}
	top := m.add(0, 1, 0)
	ring := slices + 1
	for st := 1; st < stacks; st++ {
		phi := gomath.Pi * float64(st) / float64(stacks)
		y, r := gomath.Cos(phi), gomath.Sin(phi)
		for sl := 0; sl <= slices; sl++ {
			theta := 2 * gomath.Pi * float64(sl) / float64(slices)
			m.add(float32(r*gomath.Sin(theta)), float32(y), float32(r*gomath.Cos(theta)))
		}
	}
	bottom := m.add(0, -1, 0)

	first := top + 1
	last := first + uint32((stacks-2)*ring)
	for sl := uint32(0); sl < uint32(slices); sl++ {
		m.Indices = append(m.Indices, top, first+sl, first+sl+1)
		m.Indices = append(m.Indices, bottom, last+sl+1, last+sl)
	}
	for st := 0; st < stacks-2; st++ {
		a := first + uint32(st*ring)
		b := a + uint32(ring)
		for sl := uint32(0); sl < uint32(slices); sl++ {
			m.Indices = append(m.Indices,
				a+sl, b+sl, b+sl+1,
				a+sl, b+sl+1, a+sl+1)
		}
	}

	m.computeBounds()
	return m, nil
}

// add appends a unit-sphere vertex whose normal equals its position.
func (m *Mesh) add(x, y, z float32) uint32 {
	m.Vertices = append(m.Vertices, Vertex{
		Position: [3]float32{x, y, z},
		Normal:   [3]float32{x, y, z},
	})
	return uint32(len(m.Vertices) - 1)
}
