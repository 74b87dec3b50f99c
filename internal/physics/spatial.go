package physics

import (
	"math"
	"sort"

	"github.com/apexdrift/simcore/pkg/vmath"
)

// cellKey addresses one broad-phase grid cell.
type cellKey struct {
	X, Y, Z int32
}

// spatialHash bins bodies into fixed-size grid cells keyed by integer
// coordinates. A body occupies every cell its bounding sphere touches.
type spatialHash struct {
	cellSize float64
	cells    map[cellKey][]*Body
}

func newSpatialHash(cellSize float64) *spatialHash {
	return &spatialHash{
		cellSize: cellSize,
		cells:    make(map[cellKey][]*Body),
	}
}

func (h *spatialHash) clear() {
	for k := range h.cells {
		delete(h.cells, k)
	}
}

func (h *spatialHash) cellCoord(v float64) int32 {
	return int32(math.Floor(v / h.cellSize))
}

// insert adds the body to every cell overlapped by its bounding sphere.
func (h *spatialHash) insert(b *Body) {
	r := b.Shape.BoundingRadius()
	minX := h.cellCoord(b.Position.X - r)
	maxX := h.cellCoord(b.Position.X + r)
	minY := h.cellCoord(b.Position.Y - r)
	maxY := h.cellCoord(b.Position.Y + r)
	minZ := h.cellCoord(b.Position.Z - r)
	maxZ := h.cellCoord(b.Position.Z + r)
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				k := cellKey{x, y, z}
				h.cells[k] = append(h.cells[k], b)
			}
		}
	}
}

// pairKey orders a candidate pair by body ID.
type pairKey struct {
	A, B int
}

// candidatePairs returns every unordered pair of bodies sharing a cell
// whose filter groups match and whose bounding spheres overlap. Pairs are
// sorted by ID so iteration order is deterministic regardless of map
// order.
func (h *spatialHash) candidatePairs() []pairKey {
	seen := make(map[pairKey]struct{})
	for _, bodies := range h.cells {
		for i := 0; i < len(bodies); i++ {
			for j := i + 1; j < len(bodies); j++ {
				a, b := bodies[i], bodies[j]
				if a.Static() && b.Static() {
					continue
				}
				if a.Group&b.Mask == 0 || b.Group&a.Mask == 0 {
					continue
				}
				rsum := a.Shape.BoundingRadius() + b.Shape.BoundingRadius()
				if a.Position.Sub(b.Position).LengthSq() > rsum*rsum {
					continue
				}
				k := pairKey{a.ID, b.ID}
				if k.A > k.B {
					k.A, k.B = k.B, k.A
				}
				seen[k] = struct{}{}
			}
		}
	}
	pairs := make([]pairKey, 0, len(seen))
	for k := range seen {
		pairs = append(pairs, k)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	return pairs
}

// query appends every body whose bounding sphere intersects the sphere at
// centre with radius r, in ID order.
func (h *spatialHash) query(centre vmath.Vec3, r float64) []*Body {
	minX := h.cellCoord(centre.X - r)
	maxX := h.cellCoord(centre.X + r)
	minY := h.cellCoord(centre.Y - r)
	maxY := h.cellCoord(centre.Y + r)
	minZ := h.cellCoord(centre.Z - r)
	maxZ := h.cellCoord(centre.Z + r)

	found := make(map[int]*Body)
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				for _, b := range h.cells[cellKey{x, y, z}] {
					dx := b.Position.X - centre.X
					dy := b.Position.Y - centre.Y
					dz := b.Position.Z - centre.Z
					rr := r + b.Shape.BoundingRadius()
					if dx*dx+dy*dy+dz*dz <= rr*rr {
						found[b.ID] = b
					}
				}
			}
		}
	}
	ids := make([]int, 0, len(found))
	for id := range found {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*Body, len(ids))
	for i, id := range ids {
		out[i] = found[id]
	}
	return out
}
