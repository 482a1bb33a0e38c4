package goal

import (
	"fmt"
	gomath "math"
	"sort"
)

// cell edge bits, counter-clockwise from the bottom (row) edge
const (
	edgeBottom = 1 << iota
	edgeRight
	edgeTop
	edgeLeft
)

// meshCell emits the terrain triangles of one grid cell.
func (m *mesher) meshCell(col, row int) error {
	if !m.inFootprint(col, row) {
		m.emitQuad(col, row)
		return nil
	}

	corners := [4]struct {
		id   int
		edge int
	}{
		{m.cornerID(col, row), edgeBottom | edgeLeft},
		{m.cornerID(col+1, row), edgeBottom | edgeRight},
		{m.cornerID(col+1, row+1), edgeRight | edgeTop},
		{m.cornerID(col, row+1), edgeTop | edgeLeft},
	}
	edges := [4]struct {
		key edgeKey
		bit int
	}{
		{edgeKey{col: col, row: row}, edgeBottom},
		{edgeKey{col: col + 1, row: row, vertical: true}, edgeRight},
		{edgeKey{col: col, row: row + 1}, edgeTop},
		{edgeKey{col: col, row: row, vertical: true}, edgeLeft},
	}

	// candidates are the vertices of the cut piece: corners inside the rim,
	// rim samples in the cell and edge crossings
	onEdge := make(map[int]int)
	var candidates []int
	seen := make(map[int]bool)
	addCandidate := func(id int) {
		if !seen[id] {
			seen[id] = true
			candidates = append(candidates, id)
		}
	}

	outside := 0
	for _, c := range corners {
		onEdge[c.id] |= c.edge
		if m.insideRim(m.pool.pos(c.id)) {
			addCandidate(c.id)
		} else {
			outside++
		}
	}
	x0, z0 := m.cornerPos(col, row).x, m.cornerPos(col, row).z
	x1, z1 := m.cornerPos(col+1, row+1).x, m.cornerPos(col+1, row+1).z
	for _, id := range m.rimIDs {
		p := m.pool.pos(id)
		if p.x >= x0 && p.x <= x1 && p.z >= z0 && p.z <= z1 {
			addCandidate(id)
		}
	}
	for _, e := range edges {
		for _, id := range m.crossings[e.key] {
			onEdge[id] |= e.bit
			addCandidate(id)
		}
	}

	if len(candidates) == 0 {
		m.emitQuad(col, row)
		return nil
	}

	switch outside {
	case 0:
		// fully inside the cavity
		return nil
	case 1, 2, 3, 4:
	default:
		return fmt.Errorf("%w: cell (%d,%d) has %d outside corners", ErrCornerCount, col, row, outside)
	}

	loops, err := m.cellLoops(col, row, x0, z0, x1, z1, onEdge, candidates)
	if err != nil {
		return err
	}
	for _, loop := range loops {
		tris, err := earClip(loop, m.pool.pos)
		if err != nil {
			return fmt.Errorf("%w: cell (%d,%d): %v", ErrTriangulation, col, row, err)
		}
		for _, t := range tris {
			m.emitUp(PartTerrain, m.point3(t[0]), m.point3(t[1]), m.point3(t[2]))
		}
	}
	return nil
}

// emitQuad emits the two standard triangles of an untouched cell, split
// along the same diagonal HeightAt uses.
func (m *mesher) emitQuad(col, row int) {
	c00 := m.grid.Corner(col, row)
	c10 := m.grid.Corner(col+1, row)
	c11 := m.grid.Corner(col+1, row+1)
	c01 := m.grid.Corner(col, row+1)
	m.emitUp(PartTerrain, c00, c10, c01)
	m.emitUp(PartTerrain, c10, c11, c01)
}

// cellLoops returns the boundary loops, counter-clockwise in X/Z, of the part
// of the cell outside the rim. The loops are made of the uncovered stretches
// of the cell border plus the cut chain walked backwards.
func (m *mesher) cellLoops(col, row int, x0, z0, x1, z1 float64, onEdge map[int]int, candidates []int) ([][]int, error) {
	w, h := x1-x0, z1-z0

	// perimeter parameter of border points, counter-clockwise from (x0,z0)
	perimeter := func(id int) float64 {
		p := m.pool.pos(id)
		switch onEdge[id] {
		case edgeBottom | edgeLeft:
			return 0
		case edgeBottom | edgeRight:
			return w
		case edgeRight | edgeTop:
			return w + h
		case edgeTop | edgeLeft:
			return 2*w + h
		}
		switch {
		case onEdge[id]&edgeBottom != 0:
			return p.x - x0
		case onEdge[id]&edgeRight != 0:
			return w + (p.z - z0)
		case onEdge[id]&edgeTop != 0:
			return w + h + (x1 - p.x)
		default:
			return 2*w + h + (z1 - p.z)
		}
	}

	border := make([]int, 0, len(onEdge))
	for id := range onEdge {
		border = append(border, id)
	}
	sort.Slice(border, func(i, j int) bool {
		pi, pj := perimeter(border[i]), perimeter(border[j])
		if pi != pj {
			return pi < pj
		}
		return border[i] < border[j]
	})

	next := make(map[int][]int)
	edgeCount := 0
	link := func(a, b int) {
		next[a] = append(next[a], b)
		edgeCount++
	}

	cut := m.cutOrder(candidates, onEdge, perimeter, x0, z0, x1, z1)
	closed := len(cut) >= 3 && polygonArea(cut, m.pool.pos) > 1e-12
	side := make(map[int]int, len(cut))
	if closed {
		for i, a := range cut {
			side[a] = cut[(i+1)%len(cut)]
		}
	}

	// a border stretch is terrain unless it is a side of the cut piece
	for i, a := range border {
		b := border[(i+1)%len(border)]
		if after, ok := side[a]; !ok || after != b {
			link(a, b)
		}
	}

	if closed {
		for i, a := range cut {
			b := cut[(i+1)%len(cut)]
			if onEdge[a]&onEdge[b] != 0 {
				continue
			}
			link(b, a)
		}
	}

	starts := append(append([]int(nil), border...), cut...)
	var loops [][]int
	used := 0
	for used < edgeCount {
		start := -1
		for _, id := range starts {
			if n := len(next[id]); n == 1 || (n > 1 && start < 0) {
				start = id
				if n == 1 {
					break
				}
			}
		}
		if start < 0 {
			break
		}

		loop := []int{start}
		cur := start
		for {
			outs := next[cur]
			if len(outs) == 0 {
				return nil, fmt.Errorf("%w: cell (%d,%d): open boundary at point %d", ErrTriangulation, col, row, cur)
			}
			pick := 0
			if len(outs) > 1 && len(loop) > 1 {
				pick = m.leftmost(loop[len(loop)-2], cur, outs)
			}
			nxt := outs[pick]
			next[cur] = append(outs[:pick:pick], outs[pick+1:]...)
			used++
			if nxt == start {
				break
			}
			if len(loop) > edgeCount {
				return nil, fmt.Errorf("%w: cell (%d,%d): boundary does not close", ErrTriangulation, col, row)
			}
			loop = append(loop, nxt)
			cur = nxt
		}
		if len(loop) >= 3 && polygonArea(loop, m.pool.pos) > 1e-12 {
			loops = append(loops, loop)
		}
	}
	return loops, nil
}

// leftmost picks, at a vertex where the region pinches, the outgoing edge
// turning furthest counter-clockwise from the incoming one. This keeps the
// region on the left and walks pinched regions as one weakly simple loop.
func (m *mesher) leftmost(prev, cur int, outs []int) int {
	in := m.pool.pos(cur).sub(m.pool.pos(prev))
	best, bestTurn := 0, gomath.Inf(-1)
	for i, id := range outs {
		out := m.pool.pos(id).sub(m.pool.pos(cur))
		turn := gomath.Atan2(in.cross(out), in.x*out.x+in.z*out.z)
		if turn > bestTurn {
			best, bestTurn = i, turn
		}
	}
	return best
}

// cutOrder sorts the vertices of the cut piece counter-clockwise along the
// cell border. Border points keep their perimeter parameter so the piece
// agrees with the border walk; rim samples inside the cell are projected
// onto the border from the centroid of the piece.
func (m *mesher) cutOrder(ids []int, onEdge map[int]int, perimeter func(int) float64, x0, z0, x1, z1 float64) []int {
	var c vec
	for _, id := range ids {
		c = c.add(m.pool.pos(id))
	}
	c = c.scale(1 / float64(len(ids)))
	w, h := x1-x0, z1-z0

	key := make(map[int]float64, len(ids))
	for _, id := range ids {
		if _, ok := onEdge[id]; ok {
			key[id] = perimeter(id)
			continue
		}
		d := m.pool.pos(id).sub(c)
		tx, tz := gomath.Inf(1), gomath.Inf(1)
		switch {
		case d.x > 0:
			tx = (x1 - c.x) / d.x
		case d.x < 0:
			tx = (x0 - c.x) / d.x
		}
		switch {
		case d.z > 0:
			tz = (z1 - c.z) / d.z
		case d.z < 0:
			tz = (z0 - c.z) / d.z
		}
		switch {
		case gomath.IsInf(tx, 1) && gomath.IsInf(tz, 1):
			key[id] = 0
		case tx <= tz && d.x > 0:
			key[id] = w + (c.z + tx*d.z - z0)
		case tx <= tz:
			key[id] = 2*w + h + (z1 - (c.z + tx*d.z))
		case d.z < 0:
			key[id] = c.x + tz*d.x - x0
		default:
			key[id] = w + h + (x1 - (c.x + tz*d.x))
		}
	}

	out := append([]int(nil), ids...)
	sort.Slice(out, func(i, j int) bool {
		if key[out[i]] != key[out[j]] {
			return key[out[i]] < key[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// polygonArea returns the signed shoelace area, positive counter-clockwise.
func polygonArea(ids []int, pos func(int) vec) float64 {
	var a float64
	n := len(ids)
	for i := 0; i < n; i++ {
		a += pos(ids[i]).cross(pos(ids[(i+1)%n]))
	}
	return a / 2
}

// earClip triangulates a simple counter-clockwise polygon given as point ids.
func earClip(loop []int, pos func(int) vec) ([][3]int, error) {
	poly := append([]int(nil), loop...)
	var tris [][3]int
	const areaEps = 1e-14

	for len(poly) > 3 {
		n := len(poly)
		clipped := false
		for i := 0; i < n; i++ {
			ia, ib, ic := poly[(i+n-1)%n], poly[i], poly[(i+1)%n]
			a, b, c := pos(ia), pos(ib), pos(ic)
			if b.sub(a).cross(c.sub(b)) <= areaEps {
				continue
			}
			blocked := false
			for _, id := range poly {
				if id == ia || id == ib || id == ic {
					continue
				}
				if inTriangle(pos(id), a, b, c) {
					blocked = true
					break
				}
			}
			if blocked {
				continue
			}
			tris = append(tris, [3]int{ia, ib, ic})
			poly = append(poly[:i], poly[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			return tris, fmt.Errorf("no ear among %d remaining vertices", n)
		}
	}
	if a, b, c := pos(poly[0]), pos(poly[1]), pos(poly[2]); b.sub(a).cross(c.sub(a)) > areaEps {
		tris = append(tris, [3]int{poly[0], poly[1], poly[2]})
	}
	return tris, nil
}

// inTriangle reports whether p lies inside or on the counter-clockwise
// triangle abc.
func inTriangle(p, a, b, c vec) bool {
	const eps = -1e-12
	return b.sub(a).cross(p.sub(a)) >= eps &&
		c.sub(b).cross(p.sub(b)) >= eps &&
		a.sub(c).cross(p.sub(c)) >= eps
}
