package sim

import (
	"fmt"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/apexdrift/simcore/internal/cache"
	"github.com/apexdrift/simcore/pkg/core"
	"github.com/apexdrift/simcore/pkg/vmath"
)

// surfaceCell quantizes ground-plane queries for memoization. Half-metre
// cells are far smaller than any meaningful grip region.
const surfaceCellSize = 0.5

type surfaceCell struct {
	X, Y int32
}

// SurfaceRegion is one grip region of the track, a polygon in the ground
// plane. Regions are checked in registration order; the first polygon
// containing the query point wins.
type SurfaceRegion struct {
	Area    geom.Geometry
	Surface core.Surface
}

// SurfaceMap answers surface_at(x, y) queries from a list of polygonal
// regions over a default surface. Point-in-polygon results are cached per
// quantized cell; the substep loop queries once per wheel.
type SurfaceMap struct {
	regions []SurfaceRegion
	def     core.Surface
	cells   *cache.Cache[surfaceCell, core.Surface]
}

// NewSurfaceMap creates a map that answers every query with the default
// surface until regions are added.
func NewSurfaceMap(def core.Surface) *SurfaceMap {
	def.Grip = vmath.Clamp(def.Grip, 0, 2)
	return &SurfaceMap{
		def:   def,
		cells: cache.New[surfaceCell, core.Surface](),
	}
}

// DefaultAsphalt is the surface used when no map is configured.
func DefaultAsphalt() core.Surface {
	return core.Surface{Grip: 1.0, Tag: "asphalt", Particle: "smoke"}
}

// AddRegion registers a polygonal region from its WKT representation.
func (m *SurfaceMap) AddRegion(wkt string, s core.Surface) error {
	g, err := geom.UnmarshalWKT(wkt)
	if err != nil {
		return fmt.Errorf("surface region wkt: %w", err)
	}
	m.AddRegionGeometry(g, s)
	return nil
}

// AddRegionGeometry registers an already-parsed polygonal region.
func (m *SurfaceMap) AddRegionGeometry(g geom.Geometry, s core.Surface) {
	s.Grip = vmath.Clamp(s.Grip, 0, 2)
	m.regions = append(m.regions, SurfaceRegion{Area: g, Surface: s})
	m.cells.Reset()
}

// At returns the surface under the ground-plane point (x, y).
func (m *SurfaceMap) At(x, y float64) core.Surface {
	if len(m.regions) == 0 {
		return m.def
	}

	cell := surfaceCell{
		X: int32(math.Floor(x / surfaceCellSize)),
		Y: int32(math.Floor(y / surfaceCellSize)),
	}
	if s, ok := m.cells.Get(cell); ok {
		return s
	}

	s := m.lookup(x, y)
	m.cells.Put(cell, s)
	return s
}

func (m *SurfaceMap) lookup(x, y float64) core.Surface {
	p := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: x, Y: y},
		Type: geom.DimXY,
	}).AsGeometry()
	for _, r := range m.regions {
		if geom.Intersects(r.Area, p) {
			return r.Surface
		}
	}
	return m.def
}
