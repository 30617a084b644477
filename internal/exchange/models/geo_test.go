package models

import (
	"testing"

	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolygon(t *testing.T) {
	t.Run("valid square", func(t *testing.T) {
		poly, err := ParsePolygon([]string{"20,20", "20,40", "40,40", "40,20"})
		require.NoError(t, err)
		assert.Len(t, poly, 4)
		assert.Equal(t, Point{Lat: 20, Lon: 40}, poly[1])
	})

	t.Run("too few points", func(t *testing.T) {
		_, err := ParsePolygon([]string{"20,20", "20,40"})
		assert.ErrorIs(t, err, e.ErrInvalidInput)
	})

	t.Run("point with three values", func(t *testing.T) {
		_, err := ParsePolygon([]string{"20,20", "20,40,1", "40,40"})
		assert.ErrorIs(t, err, e.ErrInvalidInput)
	})

	t.Run("not a number", func(t *testing.T) {
		_, err := ParsePolygon([]string{"20,20", "x,40", "40,40"})
		var verr *e.ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "point")
	})
}

func TestPolygon_Contains(t *testing.T) {
	poly := Polygon{{20, 20}, {20, 40}, {40, 40}, {40, 20}}

	assert.True(t, poly.Contains(Point{30, 30}))
	assert.False(t, poly.Contains(Point{10, 30}))
	assert.False(t, poly.Contains(Point{30, 50}))

	minLat, maxLat, minLon, maxLon := poly.Bounds()
	assert.Equal(t, []float64{20, 40, 20, 40}, []float64{minLat, maxLat, minLon, maxLon})

	triangle := Polygon{{0, 0}, {10, 0}, {0, 10}}
	assert.True(t, triangle.Contains(Point{2, 2}))
	assert.False(t, triangle.Contains(Point{8, 8}))
}
