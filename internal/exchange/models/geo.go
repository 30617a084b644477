package models

import (
	"fmt"
	"strconv"
	"strings"

	e "github.com/gartstein/tradehub/internal/exchange/errors"
)

// Point is a latitude/longitude pair.
type Point struct {
	Lat float64
	Lon float64
}

// Polygon is a closed ring of points; the last point connects to the first.
type Polygon []Point

// ParsePolygon builds a polygon from "lat,lon" strings. A polygon needs at
// least 3 points and every point exactly two coordinates.
func ParsePolygon(raw []string) (Polygon, error) {
	if len(raw) < 3 {
		return nil, e.NewValidationError(map[string]string{
			"point": fmt.Sprintf("at least 3 points required, got %d", len(raw)),
		})
	}
	poly := make(Polygon, 0, len(raw))
	for _, r := range raw {
		parts := strings.Split(r, ",")
		if len(parts) != 2 {
			return nil, e.NewValidationError(map[string]string{"point": "invalid point format: " + r})
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, e.NewValidationError(map[string]string{"point": "invalid latitude: " + r})
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, e.NewValidationError(map[string]string{"point": "invalid longitude: " + r})
		}
		poly = append(poly, Point{Lat: lat, Lon: lon})
	}
	return poly, nil
}

// Bounds returns the bounding box of the polygon.
func (p Polygon) Bounds() (minLat, maxLat, minLon, maxLon float64) {
	if len(p) == 0 {
		return
	}
	minLat, maxLat = p[0].Lat, p[0].Lat
	minLon, maxLon = p[0].Lon, p[0].Lon
	for _, pt := range p[1:] {
		if pt.Lat < minLat {
			minLat = pt.Lat
		}
		if pt.Lat > maxLat {
			maxLat = pt.Lat
		}
		if pt.Lon < minLon {
			minLon = pt.Lon
		}
		if pt.Lon > maxLon {
			maxLon = pt.Lon
		}
	}
	return
}

// Contains reports whether the point lies strictly inside the polygon
// (even-odd rule).
func (p Polygon) Contains(pt Point) bool {
	inside := false
	for i, j := 0, len(p)-1; i < len(p); j, i = i, i+1 {
		a, b := p[i], p[j]
		if (a.Lon > pt.Lon) != (b.Lon > pt.Lon) {
			cross := (b.Lat-a.Lat)*(pt.Lon-a.Lon)/(b.Lon-a.Lon) + a.Lat
			if pt.Lat < cross {
				inside = !inside
			}
		}
	}
	return inside
}
