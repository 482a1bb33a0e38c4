package goal

import (
	gomath "math"

	"github.com/Faultbox/golfsim/pkg/math"
)

// Weld merges positions closer than epsilon and rewrites indices to the
// merged set. Positions are renumbered in order of first use, unreferenced
// positions are dropped and triangles that collapse are removed, so welding
// an already welded mesh returns it unchanged.
func Weld(positions []math.Vec3, indices []uint32, epsilon float32) CollisionMesh {
	eps := float64(epsilon)
	eps2 := eps * eps
	buckets := make(map[[3]int64][]uint32)
	remap := make(map[uint32]uint32, len(positions))

	var out CollisionMesh
	key := func(p math.Vec3) [3]int64 {
		return [3]int64{
			int64(gomath.Floor(float64(p.X) / eps)),
			int64(gomath.Floor(float64(p.Y) / eps)),
			int64(gomath.Floor(float64(p.Z) / eps)),
		}
	}
	lookup := func(p math.Vec3) (uint32, bool) {
		k := key(p)
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					for _, id := range buckets[[3]int64{k[0] + dx, k[1] + dy, k[2] + dz}] {
						q := out.Positions[id]
						ddx := float64(q.X - p.X)
						ddy := float64(q.Y - p.Y)
						ddz := float64(q.Z - p.Z)
						if ddx*ddx+ddy*ddy+ddz*ddz < eps2 {
							return id, true
						}
					}
				}
			}
		}
		return 0, false
	}
	resolve := func(src uint32) uint32 {
		if id, ok := remap[src]; ok {
			return id
		}
		p := positions[src]
		id, ok := lookup(p)
		if !ok {
			id = uint32(len(out.Positions))
			out.Positions = append(out.Positions, p)
			k := key(p)
			buckets[k] = append(buckets[k], id)
		}
		remap[src] = id
		return id
	}

	for i := 0; i+2 < len(indices); i += 3 {
		a := resolve(indices[i])
		b := resolve(indices[i+1])
		c := resolve(indices[i+2])
		if a == b || b == c || a == c {
			continue
		}
		out.Indices = append(out.Indices, a, b, c)
	}
	return out
}
