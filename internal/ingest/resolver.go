// Package ingest implements the two ingestion pipelines: the row-wise
// geospatial path (resolve sensor → stream → datapoint per CSV row) and the
// bulk-upload path (POST the raw traits file), plus the per-run aggregation
// that shapes the final result.
package ingest

import (
	"context"
	"log/slog"

	"geostream/internal/external"
	"geostream/internal/geo"
	"geostream/internal/types"
)

// Resolver maps a plot identity to the set of sensors that represent it in
// the geospatial store, creating sensors that do not yet exist.
type Resolver struct {
	Geostreams external.GeostreamsClient
	Sites      external.SiteLookup
	Log        *slog.Logger
}

// ResolveSites resolves a plot to sensors.
//
// When plotName is non-empty, a name-based sensor lookup is attempted first;
// a hit returns a singleton map immediately and skips the geographic query
// entirely. This is a deliberate short-circuit, not a fallback: a configured
// plot name pins every row of the run to one known sensor.
//
// Otherwise the site-lookup collaborator is queried with the coordinate pair
// and filter date, and every candidate site is resolved to a sensor,
// creating one where the name lookup finds nothing. An empty map means no
// candidates matched; the caller skips the row but still counts the line.
func (r *Resolver) ResolveSites(ctx context.Context, plotName string, lat, lon float64, filterDate string) (map[types.ResourceID]types.MatchedSite, error) {
	matched := map[types.ResourceID]types.MatchedSite{}

	if plotName != "" {
		sensor, err := r.Geostreams.GetSensorByName(ctx, plotName)
		if err != nil {
			return nil, err
		}
		if sensor != nil {
			matched[sensor.ID] = types.MatchedSite{Name: sensor.Name, Geometry: sensor.Geometry}
			return matched, nil
		}
	}

	if r.Sites == nil {
		return matched, nil
	}

	candidates, err := r.Sites.SitesByCoordinate(ctx, lat, lon, filterDate)
	if err != nil {
		return nil, err
	}

	for _, candidate := range candidates {
		geometry, err := geo.PointFromWKT(candidate.Geometry)
		if err != nil {
			return nil, err
		}

		sensor, err := r.Geostreams.GetSensorByName(ctx, candidate.SiteName)
		if err != nil {
			return nil, err
		}

		if sensor != nil {
			matched[sensor.ID] = types.MatchedSite{Name: sensor.Name, Geometry: sensor.Geometry}
			continue
		}

		id, err := r.Geostreams.CreateSensor(ctx, candidate.SiteName, geometry)
		if err != nil {
			return nil, err
		}
		matched[id] = types.MatchedSite{Name: candidate.SiteName, Geometry: geometry}
	}

	if len(matched) == 0 {
		r.Log.DebugContext(ctx, "no sites matched coordinate",
			"lat", lat,
			"lon", lon,
			"filter_date", filterDate,
		)
	}
	return matched, nil
}
