package track

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexdrift/simcore/internal/sim"
)

const localTrack = `{
	"name": "industrial",
	"spawn": {"position": [5, -10], "yawDeg": 90},
	"defaultSurface": {"tag": "concrete", "grip": 0.95},
	"surfaces": [
		{"points": [[20, 20], [40, 20], [40, 40], [20, 40]], "tag": "gravel", "grip": 0.6, "particle": "dust"}
	],
	"walls": [
		{"points": [[0, 50], [100, 50]], "height": 2, "thickness": 1},
		{"points": [[0, -50], [100, -50], [100, 50]]}
	]
}`

func TestParseLocalTrack(t *testing.T) {
	tr, err := Parse([]byte(localTrack))
	require.NoError(t, err)

	assert.Equal(t, "industrial", tr.Name)
	assert.Equal(t, CRSLocal, tr.CRS)
	require.Len(t, tr.Surfaces, 1)
	require.Len(t, tr.Walls, 2)
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.json")
	require.NoError(t, os.WriteFile(path, []byte(localTrack), 0644))

	tr, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "industrial", tr.Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestSurfaceMapRegions(t *testing.T) {
	tr, err := Parse([]byte(localTrack))
	require.NoError(t, err)

	m, err := tr.SurfaceMap()
	require.NoError(t, err)

	inside := m.At(30, 30)
	assert.Equal(t, "gravel", inside.Tag)
	assert.Equal(t, 0.6, inside.Grip)

	outside := m.At(-30, -30)
	assert.Equal(t, "concrete", outside.Tag)
	assert.Equal(t, 0.95, outside.Grip)
}

func TestPlaceAddsWallsAndSpawn(t *testing.T) {
	tr, err := Parse([]byte(localTrack))
	require.NoError(t, err)

	s, err := sim.New(sim.DefaultOptions())
	require.NoError(t, err)
	before := len(s.World.Bodies())

	require.NoError(t, tr.Place(s))

	// One segment for the first wall, two for the second.
	assert.Equal(t, before+3, len(s.World.Bodies()))
	assert.Equal(t, 5.0, s.Body().Position.X)
	assert.Equal(t, -10.0, s.Body().Position.Y)
	assert.InDelta(t, 3.14159/2, s.Body().Orientation.Yaw(), 1e-3)
}

func TestResetReturnsToSpawn(t *testing.T) {
	tr, err := Parse([]byte(localTrack))
	require.NoError(t, err)

	s, err := sim.New(sim.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, tr.Place(s))

	s.Body().Position.X = 40
	s.Vehicle.Reset()
	assert.Equal(t, 5.0, s.Vehicle.Position.X)
	assert.Equal(t, -10.0, s.Vehicle.Position.Y)
}

func TestParseWGS84ProjectsAroundOrigin(t *testing.T) {
	input := `{
		"name": "gps-lot",
		"crs": "wgs84",
		"walls": [
			{"points": [[9.2815, 48.9183], [9.2825, 48.9183]]}
		]
	}`
	tr, err := Parse([]byte(input))
	require.NoError(t, err)

	s, err := sim.New(sim.DefaultOptions())
	require.NoError(t, err)
	before := len(s.World.Bodies())
	require.NoError(t, tr.Place(s))

	bodies := s.World.Bodies()
	require.Equal(t, before+1, len(bodies))
	wall := bodies[len(bodies)-1]
	// First point is the implicit origin; the wall centre sits east of it.
	assert.Greater(t, wall.Position.X, 0.0)
	assert.InDelta(t, 0, wall.Position.Y, 1e-6)
}

func TestParseRejectsUnknownCRS(t *testing.T) {
	_, err := Parse([]byte(`{"name": "x", "crs": "utm"}`))
	require.Error(t, err)
}

func TestParseRejectsShortWall(t *testing.T) {
	_, err := Parse([]byte(`{"name": "x", "walls": [{"points": [[0, 0]]}]}`))
	require.Error(t, err)
}

func TestParseRejectsShortSurface(t *testing.T) {
	_, err := Parse([]byte(`{"name": "x", "surfaces": [{"points": [[0, 0], [1, 1]], "grip": 1}]}`))
	require.Error(t, err)
}

func TestParseRejectsWKTOnWGS84(t *testing.T) {
	input := `{
		"name": "x",
		"crs": "wgs84",
		"origin": [9.0, 48.0],
		"surfaces": [{"wkt": "POLYGON((0 0,1 0,1 1,0 0))", "grip": 1}]
	}`
	_, err := Parse([]byte(input))
	require.Error(t, err)
}
