package utils

import (
	"encoding/json"
	"errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// ErrNoBoundary is returned when a facility has no usable boundary geometry.
var ErrNoBoundary = errors.New("no boundary geometry")

// Boundary is a facility outline loaded from its stored GeoJSON.
type Boundary struct {
	polygons []orb.Polygon
}

// ParseBoundary decodes stored GeoJSON into a boundary. Accepts a bare
// geometry or a full feature; only polygon geometries are usable.
func ParseBoundary(raw []byte) (*Boundary, error) {
	if len(raw) == 0 {
		return nil, ErrNoBoundary
	}

	var geom orb.Geometry
	if g, err := geojson.UnmarshalGeometry(raw); err == nil {
		geom = g.Geometry()
	} else {
		var feat geojson.Feature
		if err := json.Unmarshal(raw, &feat); err != nil {
			return nil, ErrNoBoundary
		}
		geom = feat.Geometry
	}

	switch g := geom.(type) {
	case orb.Polygon:
		return &Boundary{polygons: []orb.Polygon{g}}, nil
	case orb.MultiPolygon:
		return &Boundary{polygons: g}, nil
	default:
		return nil, ErrNoBoundary
	}
}

// Contains reports whether the point lies inside the boundary.
func (b *Boundary) Contains(lat, lon float64) bool {
	p := orb.Point{lon, lat}
	for _, poly := range b.polygons {
		if planar.PolygonContains(poly, p) {
			return true
		}
	}
	return false
}
