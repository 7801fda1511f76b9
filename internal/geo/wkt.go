// Package geo converts site geometries between the WKT encoding served by
// the site-lookup collaborator and the GeoJSON shape the geostreams store
// expects. Conversion is pure; no network calls.
package geo

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"

	"geostream/internal/types"
)

// PointFromWKT parses a WKT geometry and returns it as a GeoJSON Point with
// three-element coordinates. Site geometries arrive pre-reduced to their
// centroid, so anything other than a Point is rejected.
func PointFromWKT(s string) (types.Geometry, error) {
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return types.Geometry{}, types.NewAppError(
			types.ErrCodeValidationBadGeometry,
			"failed to parse WKT geometry",
			err,
		)
	}

	p, ok := g.(*geom.Point)
	if !ok {
		return types.Geometry{}, types.NewAppError(
			types.ErrCodeValidationBadGeometry,
			"site geometry is not a point",
			nil,
		)
	}

	coords := p.Coords()
	if len(coords) < 2 {
		return types.Geometry{}, types.NewAppError(
			types.ErrCodeValidationBadGeometry,
			"point geometry has fewer than two coordinates",
			nil,
		)
	}

	out := types.Geometry{Type: "Point", Coordinates: make([]float64, 3)}
	copy(out.Coordinates, coords)
	return out, nil
}
