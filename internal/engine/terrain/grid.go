// Package terrain provides the regular height grid the course is built on:
// construction, procedural generation and height/normal queries.
package terrain

import (
	"errors"
	"fmt"

	"github.com/Faultbox/golfsim/pkg/math"
)

// ErrInvalidGrid is returned for grids with non-positive dimensions or a
// height slice of the wrong length.
var ErrInvalidGrid = errors.New("invalid height grid")

// Bounds is the axis-aligned bounding box of the grid in grid-local space.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// HeightGrid is a rectangular grid of (NumCols+1) x (NumRows+1) height
// samples spanning Width x Height units, with the origin at the (0, 0)
// corner. Heights are stored row-major: heights[row*(NumCols+1)+col].
//
// Each cell is split into two triangles along the (col+1,row)-(col,row+1)
// diagonal; HeightAt and NormalAt are exact on that triangulation.
//
// A grid is immutable once built; regeneration builds a new one.
type HeightGrid struct {
	numCols, numRows int
	width, height    float32
	cellW, cellH     float32
	heights          []float32
	minH, maxH       float32
}

// New validates and wraps a height slice. The slice is copied.
func New(numCols, numRows int, width, height float32, heights []float32) (*HeightGrid, error) {
	if numCols <= 0 || numRows <= 0 || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d cells over %gx%g", ErrInvalidGrid, numCols, numRows, width, height)
	}
	want := (numCols + 1) * (numRows + 1)
	if len(heights) != want {
		return nil, fmt.Errorf("%w: got %d heights, want %d", ErrInvalidGrid, len(heights), want)
	}

	g := &HeightGrid{
		numCols: numCols,
		numRows: numRows,
		width:   width,
		height:  height,
		cellW:   width / float32(numCols),
		cellH:   height / float32(numRows),
		heights: append([]float32(nil), heights...),
		minH:    heights[0],
		maxH:    heights[0],
	}
	for _, h := range heights {
		if h < g.minH {
			g.minH = h
		}
		if h > g.maxH {
			g.maxH = h
		}
	}
	return g, nil
}

// Flat returns a grid with every sample at height h.
func Flat(numCols, numRows int, width, height, h float32) (*HeightGrid, error) {
	heights := make([]float32, (numCols+1)*(numRows+1))
	for i := range heights {
		heights[i] = h
	}
	return New(numCols, numRows, width, height, heights)
}

func (g *HeightGrid) NumCols() int       { return g.numCols }
func (g *HeightGrid) NumRows() int       { return g.numRows }
func (g *HeightGrid) Width() float32     { return g.width }
func (g *HeightGrid) Height() float32    { return g.height }
func (g *HeightGrid) CellWidth() float32 { return g.cellW }
func (g *HeightGrid) CellDepth() float32 { return g.cellH }
func (g *HeightGrid) MinHeight() float32 { return g.minH }
func (g *HeightGrid) MaxHeight() float32 { return g.maxH }

// Heights exposes the sample slice. Callers must not modify it.
func (g *HeightGrid) Heights() []float32 {
	return g.heights
}

// At returns the sample at a grid corner. Indices are clamped.
func (g *HeightGrid) At(col, row int) float32 {
	col = clampi(col, 0, g.numCols)
	row = clampi(row, 0, g.numRows)
	return g.heights[row*(g.numCols+1)+col]
}

// Corner returns the grid-local position of a grid corner.
func (g *HeightGrid) Corner(col, row int) math.Vec3 {
	return math.Vec3{
		X: float32(col) * g.cellW,
		Y: g.At(col, row),
		Z: float32(row) * g.cellH,
	}
}

// CellAt returns the cell containing a grid-local point, clamped to the grid.
func (g *HeightGrid) CellAt(x, z float32) (col, row int) {
	col = clampi(int(x/g.cellW), 0, g.numCols-1)
	row = clampi(int(z/g.cellH), 0, g.numRows-1)
	return col, row
}

// Contains reports whether a grid-local point lies on the grid.
func (g *HeightGrid) Contains(x, z float32) bool {
	return x >= 0 && z >= 0 && x <= g.width && z <= g.height
}

// HeightAt projects a grid-local point onto the terrain triangle containing
// it. Points outside the grid are clamped to the border.
func (g *HeightGrid) HeightAt(x, z float32) float32 {
	x = math.Clamp(x, 0, g.width)
	z = math.Clamp(z, 0, g.height)
	col, row := g.CellAt(x, z)
	fx := x/g.cellW - float32(col)
	fz := z/g.cellH - float32(row)

	h00 := g.At(col, row)
	h10 := g.At(col+1, row)
	h01 := g.At(col, row+1)
	if fx+fz <= 1 {
		return h00 + fx*(h10-h00) + fz*(h01-h00)
	}
	h11 := g.At(col+1, row+1)
	return h11 + (1-fx)*(h01-h11) + (1-fz)*(h10-h11)
}

// NormalAt returns the upward unit normal of the terrain triangle under a
// grid-local point.
func (g *HeightGrid) NormalAt(x, z float32) math.Vec3 {
	x = math.Clamp(x, 0, g.width)
	z = math.Clamp(z, 0, g.height)
	col, row := g.CellAt(x, z)
	fx := x/g.cellW - float32(col)
	fz := z/g.cellH - float32(row)

	var a, b, c math.Vec3
	if fx+fz <= 1 {
		a, b, c = g.Corner(col, row), g.Corner(col+1, row), g.Corner(col, row+1)
	} else {
		a, b, c = g.Corner(col+1, row+1), g.Corner(col, row+1), g.Corner(col+1, row)
	}
	n := b.Sub(a).Cross(c.Sub(a)).Normalize()
	if n.Y < 0 {
		n = n.Negate()
	}
	return n
}

// Bounds returns the grid-local bounding box.
func (g *HeightGrid) Bounds() Bounds {
	return Bounds{
		Min: math.Vec3{X: 0, Y: g.minH, Z: 0},
		Max: math.Vec3{X: g.width, Y: g.maxH, Z: g.height},
	}
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
