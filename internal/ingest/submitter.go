package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"geostream/internal/external"
	"geostream/internal/types"
)

// StreamName derives the stream name for a trait on a sensor. The sensor id
// is embedded so the name is globally unique by construction, and the same
// derivation serves both lookup and creation.
func StreamName(prefix string, sensorID types.ResourceID) string {
	return fmt.Sprintf("%s (%s)", prefix, sensorID)
}

// Submitter ensures a uniquely-named stream exists per resolved sensor and
// posts one datapoint to it. One HTTP call per stream resolution or
// creation, one per datapoint; no batching, no retry.
type Submitter struct {
	Geostreams external.GeostreamsClient
	Log        *slog.Logger
}

// Submit walks the resolved sensor set. For each sensor it finds or creates
// the stream named "{streamPrefix} ({sensorID})" and creates one datapoint
// carrying the time range and metadata. The stream and datapoint inherit
// the sensor's geometry unless an explicit override is supplied. The first
// failed call aborts the remaining set.
func (s *Submitter) Submit(
	ctx context.Context,
	streamPrefix string,
	matched map[types.ResourceID]types.MatchedSite,
	startTime, endTime string,
	metadata map[string]string,
	override *types.Geometry,
) error {
	for sensorID, site := range matched {
		geometry := site.Geometry
		if override != nil {
			geometry = *override
		}

		name := StreamName(streamPrefix, sensorID)

		stream, err := s.Geostreams.GetStreamByName(ctx, name)
		if err != nil {
			return err
		}

		var streamID types.ResourceID
		if stream != nil {
			streamID = stream.ID
		} else {
			streamID, err = s.Geostreams.CreateStream(ctx, name, sensorID, geometry)
			if err != nil {
				return err
			}
		}

		dp := types.Datapoint{
			StartTime:  startTime,
			EndTime:    endTime,
			Type:       "Point",
			Geometry:   geometry,
			Properties: metadata,
			StreamID:   streamID,
		}
		if err := s.Geostreams.CreateDatapoint(ctx, dp); err != nil {
			return err
		}

		s.Log.DebugContext(ctx, "datapoint submitted",
			"stream_name", name,
			"sensor_name", site.Name,
			"start_time", startTime,
		)
	}
	return nil
}
