// Package track loads track definition files and applies them to a
// simulation: grip regions, boundary walls and the spawn pose. Tracks are
// authored either in local metric coordinates or as WGS84 GPS traces.
package track

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/apexdrift/simcore/internal/geo"
	"github.com/apexdrift/simcore/internal/sim"
	"github.com/apexdrift/simcore/pkg/core"
	"github.com/apexdrift/simcore/pkg/vmath"
)

const (
	CRSLocal = "local"
	CRSWGS84 = "wgs84"

	defaultWallHeight    = 1.2
	defaultWallThickness = 0.5
)

// SurfaceDef is one grip region. Points form the polygon outline; WKT is
// accepted as an alternative for local-coordinate tracks.
type SurfaceDef struct {
	Points   [][]float64 `json:"points,omitempty"`
	WKT      string      `json:"wkt,omitempty"`
	Tag      string      `json:"tag"`
	Grip     float64     `json:"grip"`
	Particle string      `json:"particle,omitempty"`
}

// WallDef is one boundary polyline, extruded into static wall boxes.
type WallDef struct {
	Points    [][]float64 `json:"points"`
	Height    float64     `json:"height,omitempty"`
	Thickness float64     `json:"thickness,omitempty"`
}

// SpawnDef is the vehicle starting pose.
type SpawnDef struct {
	Position []float64 `json:"position"`
	YawDeg   float64   `json:"yawDeg"`
}

// Track is a parsed track definition file.
type Track struct {
	Name string `json:"name"`

	// CRS is "local" (metres, the default) or "wgs84" (GPS lon/lat pairs
	// projected onto a local plane).
	CRS    string    `json:"crs,omitempty"`
	Origin []float64 `json:"origin,omitempty"`

	Spawn          *SpawnDef    `json:"spawn,omitempty"`
	DefaultSurface *SurfaceDef  `json:"defaultSurface,omitempty"`
	Surfaces       []SurfaceDef `json:"surfaces,omitempty"`
	Walls          []WallDef    `json:"walls,omitempty"`

	projector *geo.Projector
}

// Load reads and validates a track definition file.
func Load(path string) (*Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading track file: %w", err)
	}
	return Parse(data)
}

// Parse parses a track definition from its JSON encoding.
func Parse(data []byte) (*Track, error) {
	var t Track
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing track file: %w", err)
	}
	if t.CRS == "" {
		t.CRS = CRSLocal
	}
	if t.CRS != CRSLocal && t.CRS != CRSWGS84 {
		return nil, fmt.Errorf("unknown track crs %q", t.CRS)
	}

	if t.CRS == CRSWGS84 {
		origin := t.Origin
		if len(origin) == 0 {
			origin = t.firstPoint()
		}
		if len(origin) < 2 {
			return nil, fmt.Errorf("wgs84 track needs an origin or at least one wall point")
		}
		t.projector = geo.NewProjector(origin[0], origin[1])
	}

	for i, s := range t.Surfaces {
		if s.WKT != "" && t.CRS == CRSWGS84 {
			return nil, fmt.Errorf("surface %d: wkt regions require local coordinates", i)
		}
		if s.WKT == "" && len(s.Points) < 3 {
			return nil, fmt.Errorf("surface %d: polygon needs at least 3 points", i)
		}
	}
	for i, w := range t.Walls {
		if len(w.Points) < 2 {
			return nil, fmt.Errorf("wall %d: polyline needs at least 2 points", i)
		}
	}
	return &t, nil
}

func (t *Track) firstPoint() []float64 {
	for _, w := range t.Walls {
		if len(w.Points) > 0 {
			return w.Points[0]
		}
	}
	for _, s := range t.Surfaces {
		if len(s.Points) > 0 {
			return s.Points[0]
		}
	}
	return nil
}

// toLocal projects a track-file point into world coordinates.
func (t *Track) toLocal(p []float64) (x, y float64) {
	if t.projector != nil {
		return t.projector.ToLocal(p[0], p[1])
	}
	return p[0], p[1]
}

func (s SurfaceDef) surface() core.Surface {
	particle := s.Particle
	if particle == "" {
		particle = "smoke"
	}
	return core.Surface{Grip: s.Grip, Tag: s.Tag, Particle: particle}
}

// SurfaceMap builds the grip map for this track.
func (t *Track) SurfaceMap() (*sim.SurfaceMap, error) {
	def := sim.DefaultAsphalt()
	if t.DefaultSurface != nil {
		def = t.DefaultSurface.surface()
	}

	m := sim.NewSurfaceMap(def)
	for i, s := range t.Surfaces {
		wkt := s.WKT
		if wkt == "" {
			wkt = t.polygonWKT(s.Points)
		}
		if err := m.AddRegion(wkt, s.surface()); err != nil {
			return nil, fmt.Errorf("surface %d: %w", i, err)
		}
	}
	return m, nil
}

// polygonWKT renders a projected point list as a closed WKT polygon.
func (t *Track) polygonWKT(points [][]float64) string {
	var b strings.Builder
	b.WriteString("POLYGON((")
	for i, p := range points {
		if i > 0 {
			b.WriteString(",")
		}
		x, y := t.toLocal(p)
		fmt.Fprintf(&b, "%g %g", x, y)
	}
	// Close the ring if the author left it open.
	fx, fy := t.toLocal(points[0])
	lx, ly := t.toLocal(points[len(points)-1])
	if fx != lx || fy != ly {
		fmt.Fprintf(&b, ",%g %g", fx, fy)
	}
	b.WriteString("))")
	return b.String()
}

// Place adds the track's walls to the simulation and moves the vehicle to
// the spawn pose.
func (t *Track) Place(s *sim.Simulation) error {
	for i, w := range t.Walls {
		points := make([][]float64, len(w.Points))
		for j, p := range w.Points {
			x, y := t.toLocal(p)
			points[j] = []float64{x, y}
		}
		ls, err := geo.PolylineFromPoints(points)
		if err != nil {
			return fmt.Errorf("wall %d: %w", i, err)
		}

		height := w.Height
		if height <= 0 {
			height = defaultWallHeight
		}
		thickness := w.Thickness
		if thickness <= 0 {
			thickness = defaultWallThickness
		}
		for _, seg := range geo.WallSegments(ls) {
			s.AddWall(seg.Centre, seg.HalfLength, thickness/2, height/2, seg.Yaw)
		}
	}

	if t.Spawn != nil {
		if len(t.Spawn.Position) < 2 {
			return fmt.Errorf("spawn position needs x and y")
		}
		x, y := t.toLocal(t.Spawn.Position)
		s.SetSpawn(vmath.Vec3{X: x, Y: y}, t.Spawn.YawDeg*math.Pi/180)
	}
	return nil
}
