package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolyline_Valid(t *testing.T) {
	input := "[[100.5,200.25],[300.75,400.5],[500,600]]"
	ls, err := ParsePolyline(input)

	require.NoError(t, err)
	seq := ls.Coordinates()
	require.Equal(t, 3, seq.Length())
	assert.Equal(t, 100.5, seq.GetXY(0).X)
	assert.Equal(t, 200.25, seq.GetXY(0).Y)
	assert.Equal(t, 500.0, seq.GetXY(2).X)
	assert.Equal(t, 600.0, seq.GetXY(2).Y)
}

func TestParsePolyline_InvalidJSON(t *testing.T) {
	_, err := ParsePolyline("not valid json")
	require.Error(t, err)
}

func TestParsePolyline_TooFewPoints(t *testing.T) {
	_, err := ParsePolyline("[[100,200]]")
	require.Error(t, err)
}

func TestParsePolyline_InsufficientCoordinates(t *testing.T) {
	_, err := ParsePolyline("[[100],[200,300]]")
	require.Error(t, err)
}

func TestPolylineFromPoints_Valid(t *testing.T) {
	ls, err := PolylineFromPoints([][]float64{{0, 0}, {5, 5}})
	require.NoError(t, err)
	assert.Equal(t, 2, ls.Coordinates().Length())
}
