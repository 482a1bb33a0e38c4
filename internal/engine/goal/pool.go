package goal

import gomath "math"

// vec is the float64 ground-plane point the mesher works in.
type vec struct{ x, z float64 }

func (a vec) sub(b vec) vec             { return vec{a.x - b.x, a.z - b.z} }
func (a vec) add(b vec) vec             { return vec{a.x + b.x, a.z + b.z} }
func (a vec) scale(s float64) vec       { return vec{a.x * s, a.z * s} }
func (a vec) cross(b vec) float64       { return a.x*b.z - a.z*b.x }
func (a vec) dist2(b vec) float64       { d := a.sub(b); return d.x*d.x + d.z*d.z }
func (a vec) angleAround(c vec) float64 { return gomath.Atan2(a.z-c.z, a.x-c.x) }

// pooledPoint is a ground-plane point with its projected terrain height.
type pooledPoint struct {
	pos    vec
	height float32
}

// pointPool hands out one id per location: points closer than eps to an
// existing point resolve to that point. Lookups hash on a grid of eps-sized
// buckets and scan the 3x3 neighbourhood.
type pointPool struct {
	eps     float64
	points  []pooledPoint
	buckets map[[2]int64][]int
}

func newPointPool(eps float64) *pointPool {
	return &pointPool{eps: eps, buckets: make(map[[2]int64][]int)}
}

func (p *pointPool) key(v vec) [2]int64 {
	return [2]int64{int64(gomath.Floor(v.x / p.eps)), int64(gomath.Floor(v.z / p.eps))}
}

// find returns the id of a point within eps of v, or -1.
func (p *pointPool) find(v vec) int {
	k := p.key(v)
	eps2 := p.eps * p.eps
	for dx := int64(-1); dx <= 1; dx++ {
		for dz := int64(-1); dz <= 1; dz++ {
			for _, id := range p.buckets[[2]int64{k[0] + dx, k[1] + dz}] {
				if p.points[id].pos.dist2(v) < eps2 {
					return id
				}
			}
		}
	}
	return -1
}

// add returns the id for v, inserting it with the height from heightFn when
// no nearby point exists.
func (p *pointPool) add(v vec, heightFn func(vec) float32) int {
	if id := p.find(v); id >= 0 {
		return id
	}
	id := len(p.points)
	p.points = append(p.points, pooledPoint{pos: v, height: heightFn(v)})
	k := p.key(v)
	p.buckets[k] = append(p.buckets[k], id)
	return id
}

func (p *pointPool) pos(id int) vec {
	return p.points[id].pos
}
