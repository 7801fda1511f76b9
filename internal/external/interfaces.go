package external

import (
	"context"

	"geostream/internal/types"
)

// GeostreamsClient abstracts the geospatial time-series store. Lookups are
// name-filtered GETs with exact-match semantics; creates return the
// store-assigned id. Implementations must not retry failed calls.
type GeostreamsClient interface {
	// GetSensorByName returns the sensor whose name exactly equals name,
	// or nil when no such sensor exists.
	GetSensorByName(ctx context.Context, name string) (*types.Sensor, error)

	// CreateSensor creates a point sensor with the fixed sensor-type
	// metadata and region label, returning its id.
	CreateSensor(ctx context.Context, name string, geometry types.Geometry) (types.ResourceID, error)

	// GetStreamByName returns the stream whose name exactly equals name,
	// or nil when no such stream exists.
	GetStreamByName(ctx context.Context, name string) (*types.Stream, error)

	// CreateStream creates a stream tied to the given sensor, returning
	// its id.
	CreateStream(ctx context.Context, name string, sensorID types.ResourceID, geometry types.Geometry) (types.ResourceID, error)

	// CreateDatapoint posts one datapoint to its stream.
	CreateDatapoint(ctx context.Context, dp types.Datapoint) error
}

// TraitsUploader abstracts the relational trait database's bulk-upload
// endpoint. The raw file content is posted wholesale.
type TraitsUploader interface {
	// UploadTraits posts the file content with the content type implied by
	// fileType ("csv", "json", or "xml") and returns the ids of the newly
	// created trait records. An unrecognized fileType is rejected before
	// any network call.
	UploadTraits(ctx context.Context, content []byte, fileType string) ([]types.ResourceID, error)
}

// SiteLookup abstracts the site-lookup-by-coordinate collaborator, which
// maps a coordinate pair and a filter date to zero or more candidate sites
// with WKT geometries.
type SiteLookup interface {
	SitesByCoordinate(ctx context.Context, lat, lon float64, filterDate string) ([]types.CandidateSite, error)
}
