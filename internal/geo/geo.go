// Package geo handles track geometry: coordinate parsing, GPS projection
// and polyline-to-wall conversion.
package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/apexdrift/simcore/pkg/vmath"
)

// Track files authored from GPS traces carry WGS84 (EPSG:4326) coordinates.
// They are projected to Web Mercator (EPSG:3857), which is metric near the
// origin, then re-origined so the track sits around (0, 0) in world space.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// CoordFromString parses a string in the format "x,y" or "x,y,z" into a
// world-space position. Extra components are ignored.
func CoordFromString(coords string) (vmath.Vec3, error) {
	parts := strings.Split(coords, ",")
	if len(parts) < 2 {
		return vmath.Vec3{}, ErrInvalidCoordinates
	}
	x, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return vmath.Vec3{}, ErrInvalidCoordinates
	}
	y, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return vmath.Vec3{}, ErrInvalidCoordinates
	}
	var z float64
	if len(parts) > 2 {
		z, err = strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return vmath.Vec3{}, ErrInvalidCoordinates
		}
	}
	return vmath.Vec3{X: x, Y: y, Z: z}, nil
}

// Projector converts WGS84 longitude/latitude pairs into local metric
// coordinates relative to a fixed origin.
type Projector struct {
	originX, originY float64
	transform        func(a, b, c float64) (float64, float64, float64)
}

// NewProjector creates a projector anchored at the given GPS origin.
func NewProjector(originLon, originLat float64) *Projector {
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ := f(originLon, originLat, 0)
	return &Projector{originX: x, originY: y, transform: f}
}

// ToLocal projects a longitude/latitude pair into metres relative to the
// projector's origin.
func (p *Projector) ToLocal(lon, lat float64) (x, y float64) {
	mx, my, _ := p.transform(lon, lat, 0)
	return mx - p.originX, my - p.originY
}

// Segment is one straight wall piece derived from a boundary polyline.
type Segment struct {
	Centre     vmath.Vec3
	HalfLength float64
	Yaw        float64
}

// WallSegments converts a boundary polyline into wall segments suitable
// for static box bodies. Zero-length edges are skipped.
func WallSegments(ls geom.LineString) []Segment {
	seq := ls.Coordinates()
	n := seq.Length()
	if n < 2 {
		return nil
	}

	segments := make([]Segment, 0, n-1)
	for i := 0; i+1 < n; i++ {
		a := seq.GetXY(i)
		b := seq.GetXY(i + 1)
		dx, dy := b.X-a.X, b.Y-a.Y
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		segments = append(segments, Segment{
			Centre:     vmath.Vec3{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2},
			HalfLength: length / 2,
			// At yaw 0 a wall box's long axis lies along world X.
			Yaw: math.Atan2(dy, dx),
		})
	}
	return segments
}
