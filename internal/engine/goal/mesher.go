package goal

import (
	"fmt"
	gomath "math"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/golfsim/internal/engine/terrain"
	"github.com/Faultbox/golfsim/internal/logger"
	"github.com/Faultbox/golfsim/pkg/math"
)

// edgeKey names a grid edge. Horizontal edges run from corner (col,row) to
// (col+1,row), vertical edges from (col,row) to (col,row+1).
type edgeKey struct {
	col, row int
	vertical bool
}

// mesher holds the state of one Generate call.
type mesher struct {
	grid    *terrain.HeightGrid
	center  vec
	radius  float64
	depth   float64
	sectors int

	// rim polygon vertices, counter-clockwise in the X/Z plane
	rim     []vec
	rimIDs  []int
	edgeLen float64

	pool      *pointPool
	crossings map[edgeKey][]int

	// cell range touched by the cavity, padded by one cell
	col0, col1, row0, row1 int

	tris [partCount][]triangle
}

// triangle is three grid-local positions.
type triangle [3]math.Vec3

// Generate cuts the cavity described by spec out of grid. The result is a
// pure function of its inputs.
func Generate(grid *terrain.HeightGrid, spec Spec) (*Mesh, error) {
	if err := validate(grid, spec); err != nil {
		return nil, err
	}

	c := spec.Center(grid)
	m := &mesher{
		grid:      grid,
		center:    vec{float64(c.X), float64(c.Y)},
		radius:    float64(spec.Radius),
		depth:     float64(spec.Depth),
		sectors:   spec.sectors(),
		pool:      newPointPool(WeldEpsilon),
		crossings: make(map[edgeKey][]int),
	}
	m.bounds()
	rim := m.sampleRim()
	m.addCorners()
	m.collectCrossings()
	m.snapRimToEdges()

	for row := 0; row < grid.NumRows(); row++ {
		for col := 0; col < grid.NumCols(); col++ {
			if err := m.meshCell(col, row); err != nil {
				return nil, err
			}
		}
	}

	loop := m.rimLoop()
	m.patchHoles(loop)

	var rimSum float64
	for _, p := range rim {
		rimSum += float64(p.Height)
	}
	rimHeight := float32(rimSum / float64(len(rim)))
	bottom := rimHeight - spec.Depth
	m.buildWalls(loop, bottom)
	m.buildBottom(loop, bottom)

	mesh := &Mesh{
		Center:       c,
		Radius:       spec.Radius,
		Depth:        spec.Depth,
		RimHeight:    rimHeight,
		BottomHeight: bottom,
		Rim:          rim,
	}
	for _, id := range loop {
		mesh.Loop = append(mesh.Loop, m.point3(id))
	}
	for _, k := range Kinds() {
		mesh.Parts[k] = buildPart(m.tris[k])
	}

	logger.Debug("goal cavity meshed",
		zap.Float32("centerX", c.X),
		zap.Float32("centerZ", c.Y),
		zap.Float32("radius", spec.Radius),
		zap.Int("loopPoints", len(loop)),
		zap.Int("terrainTris", mesh.Parts[PartTerrain].TriangleCount()),
		zap.Int("wallTris", mesh.Parts[PartWalls].TriangleCount()),
		zap.Int("bottomTris", mesh.Parts[PartBottom].TriangleCount()))
	return mesh, nil
}

func validate(grid *terrain.HeightGrid, spec Spec) error {
	if grid == nil {
		return fmt.Errorf("%w: nil grid", ErrInvalidCavity)
	}
	n := spec.sectors()
	if n < 8 || n%4 != 0 {
		return fmt.Errorf("%w: %d sectors, need a multiple of 4 of at least 8", ErrInvalidCavity, n)
	}
	if spec.Radius <= 0 || spec.Depth <= 0 {
		return fmt.Errorf("%w: radius %g and depth %g must be positive", ErrInvalidCavity, spec.Radius, spec.Depth)
	}
	rel := spec.RelativeCenter
	if rel.X < 0 || rel.X > 1 || rel.Y < 0 || rel.Y > 1 {
		return fmt.Errorf("%w: relative center %v outside 0..1", ErrInvalidCavity, rel)
	}
	if 2*spec.Radius > grid.Width() || 2*spec.Radius > grid.Height() {
		return fmt.Errorf("%w: radius %g exceeds half the terrain extent %gx%g",
			ErrInvalidCavity, spec.Radius, grid.Width(), grid.Height())
	}
	// the rim polygon must be wider than a cell, or it could float inside one
	width := 2 * float64(spec.Radius) * gomath.Cos(gomath.Pi/float64(n))
	if width <= float64(grid.CellWidth()) || width <= float64(grid.CellDepth()) {
		return fmt.Errorf("%w: radius %g does not span a %gx%g cell",
			ErrInvalidCavity, spec.Radius, grid.CellWidth(), grid.CellDepth())
	}

	c := spec.Center(grid)
	minCol := gomath.Floor(float64(c.X-spec.Radius) / float64(grid.CellWidth()))
	maxCol := gomath.Ceil(float64(c.X+spec.Radius) / float64(grid.CellWidth()))
	minRow := gomath.Floor(float64(c.Y-spec.Radius) / float64(grid.CellDepth()))
	maxRow := gomath.Ceil(float64(c.Y+spec.Radius) / float64(grid.CellDepth()))
	if minCol < 0 || minRow < 0 || maxCol > float64(grid.NumCols()) || maxRow > float64(grid.NumRows()) {
		return fmt.Errorf("%w: footprint cells [%v..%v]x[%v..%v] leave the %dx%d grid",
			ErrInvalidCavity, minCol, maxCol, minRow, maxRow, grid.NumCols(), grid.NumRows())
	}
	return nil
}

func (m *mesher) bounds() {
	cw := float64(m.grid.CellWidth())
	ch := float64(m.grid.CellDepth())
	m.col0 = max(int(gomath.Floor((m.center.x-m.radius)/cw))-1, 0)
	m.col1 = min(int(gomath.Ceil((m.center.x+m.radius)/cw))+1, m.grid.NumCols())
	m.row0 = max(int(gomath.Floor((m.center.z-m.radius)/ch))-1, 0)
	m.row1 = min(int(gomath.Ceil((m.center.z+m.radius)/ch))+1, m.grid.NumRows())
}

func (m *mesher) inFootprint(col, row int) bool {
	return col >= m.col0 && col < m.col1 && row >= m.row0 && row < m.row1
}

func (m *mesher) heightAt(v vec) float32 {
	return m.grid.HeightAt(float32(v.x), float32(v.z))
}

// cornerPos matches terrain.HeightGrid.Corner bit for bit.
func (m *mesher) cornerPos(col, row int) vec {
	return vec{float64(float32(col) * m.grid.CellWidth()), float64(float32(row) * m.grid.CellDepth())}
}

func (m *mesher) cornerID(col, row int) int {
	return m.pool.add(m.cornerPos(col, row), func(vec) float32 { return m.grid.At(col, row) })
}

func (m *mesher) point3(id int) math.Vec3 {
	p := m.pool.points[id]
	return math.Vec3{X: float32(p.pos.x), Y: p.height, Z: float32(p.pos.z)}
}

// sampleRim places the rim samples at equal angles starting at +X. Quarter
// turns are snapped to exact axis offsets.
func (m *mesher) sampleRim() []RimPoint {
	n := m.sectors
	quarter := n / 4
	m.rim = make([]vec, n)
	m.rimIDs = make([]int, n)
	rim := make([]RimPoint, n)
	for k := 0; k < n; k++ {
		var cs, sn float64
		switch {
		case k%quarter != 0:
			sn, cs = gomath.Sincos(2 * gomath.Pi * float64(k) / float64(n))
		case k == 0:
			cs = 1
		case k == quarter:
			sn = 1
		case k == 2*quarter:
			cs = -1
		default:
			sn = -1
		}
		p := m.center.add(vec{cs, sn}.scale(m.radius))
		m.rim[k] = p
		m.rimIDs[k] = m.pool.add(p, m.heightAt)
		col, row := m.grid.CellAt(float32(p.x), float32(p.z))
		rim[k] = RimPoint{
			Position: math.Vec2{X: float32(p.x), Y: float32(p.z)},
			Col:      col,
			Row:      row,
			Height:   m.pool.points[m.rimIDs[k]].height,
		}
	}
	m.edgeLen = gomath.Sqrt(m.rim[0].dist2(m.rim[1]))
	return rim
}

// addCorners pools the grid corners of the footprint before any crossing,
// so crossings that land on a corner take the corner's exact position.
func (m *mesher) addCorners() {
	for row := m.row0; row <= m.row1; row++ {
		for col := m.col0; col <= m.col1; col++ {
			m.cornerID(col, row)
		}
	}
}

// rimDistance returns the signed distance from p to the rim polygon,
// positive inside.
func (m *mesher) rimDistance(p vec) float64 {
	d := gomath.Inf(1)
	n := len(m.rim)
	for k := 0; k < n; k++ {
		a, b := m.rim[k], m.rim[(k+1)%n]
		if s := b.sub(a).cross(p.sub(a)) / m.edgeLen; s < d {
			d = s
		}
	}
	return d
}

// insideRim reports whether p lies strictly inside the rim polygon.
func (m *mesher) insideRim(p vec) bool {
	return m.rimDistance(p) > 0
}

// collectCrossings intersects every grid edge of the footprint with the rim
// polygon. Each edge is evaluated once from its lower corner, so the two
// cells sharing it see the same points.
func (m *mesher) collectCrossings() {
	for row := m.row0; row <= m.row1; row++ {
		for col := m.col0; col < m.col1; col++ {
			m.edgeCrossings(edgeKey{col: col, row: row})
		}
	}
	for row := m.row0; row < m.row1; row++ {
		for col := m.col0; col <= m.col1; col++ {
			m.edgeCrossings(edgeKey{col: col, row: row, vertical: true})
		}
	}
}

func (m *mesher) edgeCrossings(e edgeKey) {
	a := m.cornerPos(e.col, e.row)
	b := m.cornerPos(e.col+1, e.row)
	if e.vertical {
		b = m.cornerPos(e.col, e.row+1)
	}
	d := b.sub(a)
	dLen := gomath.Sqrt(d.x*d.x + d.z*d.z)
	tEps := WeldEpsilon / dLen
	uEps := WeldEpsilon / m.edgeLen

	type hit struct {
		t  float64
		id int
	}
	var hits []hit
	n := len(m.rim)
	for k := 0; k < n; k++ {
		p, q := m.rim[k], m.rim[(k+1)%n]
		r := q.sub(p)
		denom := d.cross(r)
		if gomath.Abs(denom) < 1e-12 {
			continue
		}
		ap := p.sub(a)
		t := ap.cross(r) / denom
		u := ap.cross(d) / denom
		if t < -tEps || t > 1+tEps || u < -uEps || u > 1+uEps {
			continue
		}
		t = gomath.Min(gomath.Max(t, 0), 1)
		id := m.pool.add(a.add(d.scale(t)), m.heightAt)
		dup := false
		for _, h := range hits {
			if h.id == id {
				dup = true
				break
			}
		}
		if !dup {
			hits = append(hits, hit{t: t, id: id})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].t < hits[j].t })
	for _, h := range hits {
		m.crossings[e] = append(m.crossings[e], h.id)
	}
}

// snapRimToEdges registers rim samples lying within WeldEpsilon of a
// footprint edge as crossings of that edge, so both cells sharing the edge
// keep them on their border.
func (m *mesher) snapRimToEdges() {
	for _, id := range m.rimIDs {
		p := m.pool.pos(id)
		for col := m.col0; col <= m.col1; col++ {
			if gomath.Abs(p.x-m.cornerPos(col, 0).x) >= WeldEpsilon {
				continue
			}
			for row := m.row0; row < m.row1; row++ {
				lo, hi := m.cornerPos(col, row).z, m.cornerPos(col, row+1).z
				if p.z >= lo-WeldEpsilon && p.z <= hi+WeldEpsilon {
					m.addCrossing(edgeKey{col: col, row: row, vertical: true}, id)
				}
			}
		}
		for row := m.row0; row <= m.row1; row++ {
			if gomath.Abs(p.z-m.cornerPos(0, row).z) >= WeldEpsilon {
				continue
			}
			for col := m.col0; col < m.col1; col++ {
				lo, hi := m.cornerPos(col, row).x, m.cornerPos(col+1, row).x
				if p.x >= lo-WeldEpsilon && p.x <= hi+WeldEpsilon {
					m.addCrossing(edgeKey{col: col, row: row}, id)
				}
			}
		}
	}
}

// addCrossing inserts id into the crossings of e, keeping them ordered
// along the edge.
func (m *mesher) addCrossing(e edgeKey, id int) {
	ids := m.crossings[e]
	for _, x := range ids {
		if x == id {
			return
		}
	}
	ids = append(ids, id)
	along := func(id int) float64 {
		if e.vertical {
			return m.pool.pos(id).z
		}
		return m.pool.pos(id).x
	}
	sort.SliceStable(ids, func(i, j int) bool { return along(ids[i]) < along(ids[j]) })
	m.crossings[e] = ids
}

// rimLoop returns every point on the rim (samples and crossings) ordered
// counter-clockwise around the center.
func (m *mesher) rimLoop() []int {
	seen := make(map[int]bool)
	var loop []int
	for _, id := range m.rimIDs {
		if !seen[id] {
			seen[id] = true
			loop = append(loop, id)
		}
	}
	for _, ids := range m.crossings {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				loop = append(loop, id)
			}
		}
	}
	sort.Slice(loop, func(i, j int) bool {
		ai := m.pool.pos(loop[i]).angleAround(m.center)
		aj := m.pool.pos(loop[j]).angleAround(m.center)
		if ai != aj {
			return ai < aj
		}
		return loop[i] < loop[j]
	})
	return loop
}

// patchHoles closes the rim against any loop point no terrain triangle
// reached by fanning it to its loop neighbours.
func (m *mesher) patchHoles(loop []int) {
	used := make(map[math.Vec3]bool)
	for _, t := range m.tris[PartTerrain] {
		for _, p := range t {
			used[p] = true
		}
	}
	n := len(loop)
	for i, id := range loop {
		p := m.point3(id)
		if used[p] {
			continue
		}
		prev := m.point3(loop[(i+n-1)%n])
		next := m.point3(loop[(i+1)%n])
		logger.Debug("patching unconsumed rim point", zap.Float32("x", p.X), zap.Float32("z", p.Z))
		m.emitUp(PartTerrain, prev, p, next)
	}
}

// buildWalls emits two triangles per consecutive loop pair, facing the
// cavity axis.
func (m *mesher) buildWalls(loop []int, bottom float32) {
	axis := math.Vec3{X: float32(m.center.x), Z: float32(m.center.z)}
	n := len(loop)
	for i := 0; i < n; i++ {
		top0 := m.point3(loop[i])
		top1 := m.point3(loop[(i+1)%n])
		bot0 := math.Vec3{X: top0.X, Y: bottom, Z: top0.Z}
		bot1 := math.Vec3{X: top1.X, Y: bottom, Z: top1.Z}

		inward := axis.Sub(top0.Lerp(top1, 0.5))
		inward.Y = 0
		m.emitFacing(PartWalls, inward, top0, top1, bot0)
		m.emitFacing(PartWalls, inward, top1, bot0, bot1)
	}
}

// buildBottom fans the loop, lowered to the bottom height, around the center.
func (m *mesher) buildBottom(loop []int, bottom float32) {
	c := math.Vec3{X: float32(m.center.x), Y: bottom, Z: float32(m.center.z)}
	n := len(loop)
	for i := 0; i < n; i++ {
		a := m.point3(loop[i])
		b := m.point3(loop[(i+1)%n])
		a.Y, b.Y = bottom, bottom
		m.emitUp(PartBottom, c, a, b)
	}
}

// emitUp appends a triangle wound so its normal points up.
func (m *mesher) emitUp(k PartKind, a, b, c math.Vec3) {
	m.emitFacing(k, math.Vec3{Y: 1}, a, b, c)
}

// emitFacing appends a triangle wound so its normal has a non-negative
// component along dir.
func (m *mesher) emitFacing(k PartKind, dir, a, b, c math.Vec3) {
	if faceNormal(a, b, c).Dot(dir) < 0 {
		b, c = c, b
	}
	m.tris[k] = append(m.tris[k], triangle{a, b, c})
}

func faceNormal(a, b, c math.Vec3) math.Vec3 {
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}

// buildPart converts a triangle soup into the render and collision streams.
func buildPart(tris []triangle) Part {
	var p Part
	positions := make([]math.Vec3, 0, len(tris)*3)
	for _, t := range tris {
		n := faceNormal(t[0], t[1], t[2]).Array()
		for _, v := range t {
			p.Indices = append(p.Indices, uint32(len(p.Vertices)))
			p.Vertices = append(p.Vertices, Vertex{Position: v.Array(), Normal: n})
			positions = append(positions, v)
		}
	}
	p.Collision = Weld(positions, p.Indices, WeldEpsilon)
	return p
}
