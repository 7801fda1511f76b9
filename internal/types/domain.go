package types

import (
	"encoding/json"
	"fmt"
)

// ResourceID is a store-assigned identifier for a geostreams resource.
// The Geostreams API serves ids as JSON numbers while this adapter treats
// them as opaque strings, so unmarshalling accepts both encodings.
type ResourceID string

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (id *ResourceID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ResourceID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("resource id must be a string or number: %w", err)
	}
	*id = ResourceID(n.String())
	return nil
}

// Geometry is a GeoJSON geometry as exchanged with the Geostreams API.
// Sensors and streams carry Point geometries with three-element coordinates
// (longitude, latitude, elevation).
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// PointGeometry builds a Point geometry from a coordinate pair, padding the
// elevation to zero the way the Geostreams store expects.
func PointGeometry(lon, lat float64) Geometry {
	return Geometry{
		Type:        "Point",
		Coordinates: []float64{lon, lat, 0},
	}
}

// SensorTypeInfo is the fixed sensor-type block attached to every sensor
// this adapter creates.
type SensorTypeInfo struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	SensorType int    `json:"sensorType"`
}

// SensorProperties is the metadata block posted when creating a sensor.
type SensorProperties struct {
	PopupContent string         `json:"popupContent"`
	Type         SensorTypeInfo `json:"type"`
	Name         string         `json:"name"`
	Region       string         `json:"region"`
}

// Sensor is a named geospatial point entity in the downstream store,
// representing one plot. Owned by the store; this adapter holds only a
// transient reference per run.
type Sensor struct {
	ID       ResourceID `json:"id"`
	Name     string     `json:"name"`
	Geometry Geometry   `json:"geometry"`
}

// Stream is a named feature tied to exactly one sensor, the container for
// datapoints. Its name embeds the owning sensor id, making it globally
// unique by construction.
type Stream struct {
	ID       ResourceID `json:"id"`
	Name     string     `json:"name"`
	Geometry Geometry   `json:"geometry"`
	SensorID ResourceID `json:"sensor_id"`
}

// Datapoint is a single timestamped observation attached to one stream.
// Created once per CSV row; never read back, updated, or deleted.
type Datapoint struct {
	StartTime  string            `json:"start_time"`
	EndTime    string            `json:"end_time"`
	Type       string            `json:"type"`
	Geometry   Geometry          `json:"geometry"`
	Properties map[string]string `json:"properties"`
	StreamID   ResourceID        `json:"stream_id"`
}

// MatchedSite is the per-row resolution of a plot to a sensor: its display
// name and the geometry new streams and datapoints inherit. It lives only
// for the duration of one row's processing.
type MatchedSite struct {
	Name     string
	Geometry Geometry
}

// CandidateSite is one result from the site-lookup-by-coordinate
// collaborator: a plot name and its geometry encoded as WKT.
type CandidateSite struct {
	SiteName string `json:"sitename"`
	Geometry string `json:"geometry"`
}

// RunSummary is the per-adapter block of a RunResult. The counters are
// rendered as strings to match the result contract consumed by the
// surrounding job framework.
type RunSummary struct {
	Version          string   `json:"version"`
	UTCTimestamp     string   `json:"utc_timestamp"`
	ProcessingTime   string   `json:"processing_time"`
	NumFilesReceived string   `json:"num_files_received"`
	NumCSVFiles      string   `json:"num_csv_files"`
	LinesLoaded      string   `json:"lines_loaded"`
	FilesProcessed   []string `json:"files_processed"`
}

// RunResult is the final outcome of one ingestion run. Code 0 is success;
// negative codes are failures. The summary is keyed by the adapter name in
// the JSON encoding, matching the harness contract.
type RunResult struct {
	Code    int
	Error   string
	Adapter string
	Summary *RunSummary
}

// MarshalJSON encodes the result as {code, error?, <adapter>: summary}.
func (r RunResult) MarshalJSON() ([]byte, error) {
	out := map[string]any{"code": r.Code}
	if r.Error != "" {
		out["error"] = r.Error
	}
	if r.Summary != nil && r.Adapter != "" {
		out[r.Adapter] = r.Summary
	}
	return json.Marshal(out)
}
