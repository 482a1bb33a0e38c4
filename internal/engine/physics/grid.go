package physics

import (
	gomath "math"

	"github.com/Faultbox/golfsim/pkg/math"
)

// maxGridCells bounds the lookup grid along each axis.
const maxGridCells = 256

// triangleGrid buckets triangles by the XZ cells their bounding boxes
// cover. Queries visit every overlapping bucket once and report each
// triangle at most once.
type triangleGrid struct {
	min        math.Vec3
	maxY, minY float32
	cellSize   float32
	cols, rows int
	cells      [][]int32
	stamp      []uint32
	epoch      uint32
}

func buildTriangleGrid(tris [][3]math.Vec3) *triangleGrid {
	g := &triangleGrid{cols: 1, rows: 1, cellSize: 1}
	if len(tris) == 0 {
		g.cells = make([][]int32, 1)
		return g
	}

	lo, hi := tris[0][0], tris[0][0]
	var extent float32
	for _, t := range tris {
		tlo, thi := t[0], t[0]
		for _, p := range t[1:] {
			tlo, thi = minVec(tlo, p), maxVec(thi, p)
		}
		lo, hi = minVec(lo, tlo), maxVec(hi, thi)
		extent += max(thi.X-tlo.X, thi.Z-tlo.Z)
	}
	g.min = lo
	g.minY, g.maxY = lo.Y, hi.Y

	// Cells roughly the size of an average triangle.
	size := extent / float32(len(tris))
	span := max(hi.X-lo.X, hi.Z-lo.Z)
	if size <= 0 {
		size = max(span, 1)
	}
	if span/size > maxGridCells {
		size = span / maxGridCells
	}
	g.cellSize = size
	g.cols = max(1, int(gomath.Ceil(float64((hi.X-lo.X)/size))))
	g.rows = max(1, int(gomath.Ceil(float64((hi.Z-lo.Z)/size))))
	g.cells = make([][]int32, g.cols*g.rows)
	g.stamp = make([]uint32, len(tris))

	for i, t := range tris {
		tlo, thi := t[0], t[0]
		for _, p := range t[1:] {
			tlo, thi = minVec(tlo, p), maxVec(thi, p)
		}
		c0, r0 := g.cell(tlo)
		c1, r1 := g.cell(thi)
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				g.cells[r*g.cols+c] = append(g.cells[r*g.cols+c], int32(i))
			}
		}
	}
	return g
}

func (g *triangleGrid) cell(p math.Vec3) (col, row int) {
	col = clampCell(int(floor((p.X-g.min.X)/g.cellSize)), g.cols)
	row = clampCell(int(floor((p.Z-g.min.Z)/g.cellSize)), g.rows)
	return col, row
}

// query reports the triangles bucketed in cells overlapping [lo, hi].
func (g *triangleGrid) query(lo, hi math.Vec3, fn func(int)) {
	if len(g.stamp) == 0 || lo.Y > g.maxY || hi.Y < g.minY {
		return
	}
	maxX := g.min.X + float32(g.cols)*g.cellSize
	maxZ := g.min.Z + float32(g.rows)*g.cellSize
	if hi.X < g.min.X || hi.Z < g.min.Z || lo.X > maxX || lo.Z > maxZ {
		return
	}
	g.epoch++
	if g.epoch == 0 {
		clear(g.stamp)
		g.epoch = 1
	}
	c0, r0 := g.cell(lo)
	c1, r1 := g.cell(hi)
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			for _, i := range g.cells[r*g.cols+c] {
				if g.stamp[i] == g.epoch {
					continue
				}
				g.stamp[i] = g.epoch
				fn(int(i))
			}
		}
	}
}

func floor(v float32) float32 {
	return float32(gomath.Floor(float64(v)))
}

func minVec(a, b math.Vec3) math.Vec3 {
	return math.Vec3{X: min(a.X, b.X), Y: min(a.Y, b.Y), Z: min(a.Z, b.Z)}
}

func maxVec(a, b math.Vec3) math.Vec3 {
	return math.Vec3{X: max(a.X, b.X), Y: max(a.Y, b.Y), Z: max(a.Z, b.Z)}
}
