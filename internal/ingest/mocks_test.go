package ingest

import (
	"context"
	"fmt"

	"geostream/internal/types"
)

// --- Test Doubles ---

// mockGeostreams is an in-memory GeostreamsClient. Created sensors and
// streams become visible to subsequent name lookups, which lets tests
// exercise the find-or-create sequencing.
type mockGeostreams struct {
	sensorsByName map[string]*types.Sensor
	streamsByName map[string]*types.Stream

	sensorLookups  []string
	streamLookups  []string
	createdSensors []string
	createdStreams []string
	datapoints     []types.Datapoint
	streamGeoms    map[string]types.Geometry

	nextID int
	// failDatapointAt fails the Nth CreateDatapoint call (1-based); 0 never.
	failDatapointAt int
	lookupErr       error
}

func newMockGeostreams() *mockGeostreams {
	return &mockGeostreams{
		sensorsByName: map[string]*types.Sensor{},
		streamsByName: map[string]*types.Stream{},
		streamGeoms:   map[string]types.Geometry{},
	}
}

func (m *mockGeostreams) GetSensorByName(ctx context.Context, name string) (*types.Sensor, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	m.sensorLookups = append(m.sensorLookups, name)
	return m.sensorsByName[name], nil
}

func (m *mockGeostreams) CreateSensor(ctx context.Context, name string, geometry types.Geometry) (types.ResourceID, error) {
	m.nextID++
	id := types.ResourceID(fmt.Sprintf("sensor-%d", m.nextID))
	m.createdSensors = append(m.createdSensors, name)
	m.sensorsByName[name] = &types.Sensor{ID: id, Name: name, Geometry: geometry}
	return id, nil
}

func (m *mockGeostreams) GetStreamByName(ctx context.Context, name string) (*types.Stream, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	m.streamLookups = append(m.streamLookups, name)
	return m.streamsByName[name], nil
}

func (m *mockGeostreams) CreateStream(ctx context.Context, name string, sensorID types.ResourceID, geometry types.Geometry) (types.ResourceID, error) {
	m.nextID++
	id := types.ResourceID(fmt.Sprintf("stream-%d", m.nextID))
	m.createdStreams = append(m.createdStreams, name)
	m.streamGeoms[name] = geometry
	m.streamsByName[name] = &types.Stream{ID: id, Name: name, Geometry: geometry, SensorID: sensorID}
	return id, nil
}

func (m *mockGeostreams) CreateDatapoint(ctx context.Context, dp types.Datapoint) error {
	if m.failDatapointAt > 0 && len(m.datapoints)+1 == m.failDatapointAt {
		return fmt.Errorf("simulated datapoint failure")
	}
	m.datapoints = append(m.datapoints, dp)
	return nil
}

// mockSiteLookup serves a fixed candidate list and records calls.
type mockSiteLookup struct {
	candidates []types.CandidateSite
	calls      []siteLookupCall
	err        error
}

type siteLookupCall struct {
	lat, lon   float64
	filterDate string
}

func (m *mockSiteLookup) SitesByCoordinate(ctx context.Context, lat, lon float64, filterDate string) ([]types.CandidateSite, error) {
	m.calls = append(m.calls, siteLookupCall{lat: lat, lon: lon, filterDate: filterDate})
	if m.err != nil {
		return nil, m.err
	}
	return m.candidates, nil
}

// mockResolver implements SiteResolver for row-processor tests.
type mockResolver struct {
	matched map[types.ResourceID]types.MatchedSite
	calls   []resolveCall
	err     error
}

type resolveCall struct {
	plotName   string
	lat, lon   float64
	filterDate string
}

func (m *mockResolver) ResolveSites(ctx context.Context, plotName string, lat, lon float64, filterDate string) (map[types.ResourceID]types.MatchedSite, error) {
	m.calls = append(m.calls, resolveCall{plotName: plotName, lat: lat, lon: lon, filterDate: filterDate})
	if m.err != nil {
		return nil, m.err
	}
	return m.matched, nil
}

// mockSubmitter implements DatapointSubmitter for row-processor tests.
type mockSubmitter struct {
	calls []submitCall
	// failAt fails the Nth Submit call (1-based); 0 never.
	failAt int
}

type submitCall struct {
	streamPrefix       string
	matched            map[types.ResourceID]types.MatchedSite
	startTime, endTime string
	metadata           map[string]string
	override           *types.Geometry
}

func (m *mockSubmitter) Submit(ctx context.Context, streamPrefix string, matched map[types.ResourceID]types.MatchedSite, startTime, endTime string, metadata map[string]string, override *types.Geometry) error {
	if m.failAt > 0 && len(m.calls)+1 == m.failAt {
		return fmt.Errorf("simulated submit failure")
	}
	m.calls = append(m.calls, submitCall{
		streamPrefix: streamPrefix,
		matched:      matched,
		startTime:    startTime,
		endTime:      endTime,
		metadata:     metadata,
		override:     override,
	})
	return nil
}

// mockFileProcessor serves canned outcomes keyed by path.
type mockFileProcessor struct {
	outcomes map[string]FileOutcome
	calls    []string
}

func (m *mockFileProcessor) ProcessFile(ctx context.Context, path string) FileOutcome {
	m.calls = append(m.calls, path)
	if outcome, ok := m.outcomes[path]; ok {
		return outcome
	}
	return FileOutcome{Path: path, Read: true}
}

// mockTraitsUploader records bulk uploads.
type mockTraitsUploader struct {
	uploads []uploadCall
	err     error
}

type uploadCall struct {
	content  string
	fileType string
}

func (m *mockTraitsUploader) UploadTraits(ctx context.Context, content []byte, fileType string) ([]types.ResourceID, error) {
	m.uploads = append(m.uploads, uploadCall{content: string(content), fileType: fileType})
	if m.err != nil {
		return nil, m.err
	}
	return []types.ResourceID{"1"}, nil
}
