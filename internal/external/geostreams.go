package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"geostream/internal/types"
)

// sensorRegion is the fixed region label attached to every sensor this
// adapter creates.
const sensorRegion = "Maricopa"

// sensorTypeMetadata is the fixed sensor-type block attached to every
// sensor this adapter creates.
var sensorTypeMetadata = types.SensorTypeInfo{
	ID:         "MAC Met Station",
	Title:      "MAC Met Station",
	SensorType: 4,
}

// GeostreamsClientConfig holds the configuration for creating a
// GeostreamsHTTPClient.
type GeostreamsClientConfig struct {
	BaseURL string
	Key     types.SecretString
	Logger  *slog.Logger
}

// GeostreamsHTTPClient implements GeostreamsClient against the geostreams
// REST API. All requests route through BaseClient.
type GeostreamsHTTPClient struct {
	base    *BaseClient
	baseURL string
	key     types.SecretString
	logger  *slog.Logger
}

var _ GeostreamsClient = (*GeostreamsHTTPClient)(nil)

// NewGeostreamsClient creates a GeostreamsHTTPClient. The httpClient timeout
// bounds every lookup and create call.
func NewGeostreamsClient(httpClient *http.Client, cfg GeostreamsClientConfig) *GeostreamsHTTPClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &GeostreamsHTTPClient{
		base:    NewBaseClient(httpClient, "geostreams", "GeostreamLoader/1.0"),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		key:     cfg.Key,
		logger:  logger,
	}
}

// NewGeostreamsClientWithBase creates a GeostreamsHTTPClient with a
// pre-configured BaseClient. Useful in tests that share a breaker.
func NewGeostreamsClientWithBase(base *BaseClient, cfg GeostreamsClientConfig) *GeostreamsHTTPClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &GeostreamsHTTPClient{
		base:    base,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		key:     cfg.Key,
		logger:  logger,
	}
}

// endpoint builds {base}/api/geostreams/{collection}?{query}&key={key}.
func (c *GeostreamsHTTPClient) endpoint(collection string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("key", c.key.Unmask())
	return fmt.Sprintf("%s/api/geostreams/%s?%s", c.baseURL, collection, query.Encode())
}

// GetSensorByName looks up a sensor by name. The store may ignore the name
// filter and return unrelated items, so the response array is scanned and
// only an exact name match is accepted.
func (c *GeostreamsHTTPClient) GetSensorByName(ctx context.Context, name string) (*types.Sensor, error) {
	query := url.Values{"sensor_name": {name}}

	var sensors []types.Sensor
	if err := c.getJSON(ctx, c.endpoint("sensors", query), &sensors); err != nil {
		return nil, err
	}

	for i := range sensors {
		if sensors[i].Name == name {
			return &sensors[i], nil
		}
	}
	return nil, nil
}

// GetStreamByName looks up a stream by name with the same exact-match scan
// as GetSensorByName.
func (c *GeostreamsHTTPClient) GetStreamByName(ctx context.Context, name string) (*types.Stream, error) {
	query := url.Values{"stream_name": {name}}

	var streams []types.Stream
	if err := c.getJSON(ctx, c.endpoint("streams", query), &streams); err != nil {
		return nil, err
	}

	for i := range streams {
		if streams[i].Name == name {
			return &streams[i], nil
		}
	}
	return nil, nil
}

// sensorCreateRequest is the JSON body posted to create a sensor.
type sensorCreateRequest struct {
	Name       string                 `json:"name"`
	Type       string                 `json:"type"`
	Geometry   types.Geometry         `json:"geometry"`
	Properties types.SensorProperties `json:"properties"`
}

// CreateSensor creates a point sensor with the fixed metadata block and
// returns the store-assigned id.
func (c *GeostreamsHTTPClient) CreateSensor(ctx context.Context, name string, geometry types.Geometry) (types.ResourceID, error) {
	body := sensorCreateRequest{
		Name:     name,
		Type:     "Point",
		Geometry: geometry,
		Properties: types.SensorProperties{
			PopupContent: name,
			Type:         sensorTypeMetadata,
			Name:         name,
			Region:       sensorRegion,
		},
	}

	id, err := c.postForID(ctx, c.endpoint("sensors", nil), body)
	if err != nil {
		return "", err
	}

	c.logger.InfoContext(ctx, "created sensor", "sensor_name", name, "sensor_id", string(id))
	return id, nil
}

// streamCreateRequest is the JSON body posted to create a stream.
type streamCreateRequest struct {
	Name       string           `json:"name"`
	Type       string           `json:"type"`
	Geometry   types.Geometry   `json:"geometry"`
	Properties map[string]any   `json:"properties"`
	SensorID   types.ResourceID `json:"sensor_id"`
}

// CreateStream creates a stream tied to sensorID and returns its id.
func (c *GeostreamsHTTPClient) CreateStream(ctx context.Context, name string, sensorID types.ResourceID, geometry types.Geometry) (types.ResourceID, error) {
	body := streamCreateRequest{
		Name:       name,
		Type:       "Feature",
		Geometry:   geometry,
		Properties: map[string]any{},
		SensorID:   sensorID,
	}

	id, err := c.postForID(ctx, c.endpoint("streams", nil), body)
	if err != nil {
		return "", err
	}

	c.logger.InfoContext(ctx, "created stream", "stream_name", name, "stream_id", string(id))
	return id, nil
}

// CreateDatapoint posts one datapoint to its stream. The response body is
// not inspected beyond the status check; datapoints are never read back.
func (c *GeostreamsHTTPClient) CreateDatapoint(ctx context.Context, dp types.Datapoint) error {
	payload, err := json.Marshal(dp)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to serialize datapoint", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("datapoints", nil), bytes.NewReader(payload))
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create datapoint request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return c.statusError("create datapoint", resp)
	}
	return nil
}

// getJSON issues a GET and decodes a 200 response into out.
func (c *GeostreamsHTTPClient) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create lookup request", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.statusError("lookup", resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return types.NewAppError(types.ErrCodeUpstreamGeostreams, "failed to decode lookup response", err)
	}
	return nil
}

// postForID issues a JSON POST and decodes the {id} create response.
func (c *GeostreamsHTTPClient) postForID(ctx context.Context, rawURL string, body any) (types.ResourceID, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to serialize create request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", c.statusError("create", resp)
	}

	var created struct {
		ID types.ResourceID `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", types.NewAppError(types.ErrCodeUpstreamGeostreams, "failed to decode create response", err)
	}
	if created.ID == "" {
		return "", types.NewAppError(types.ErrCodeUpstreamGeostreams, "store returned empty resource id", nil)
	}
	return created.ID, nil
}

// statusError builds an AppError for a non-2xx geostreams response,
// capturing a snippet of the body for diagnosis.
func (c *GeostreamsHTTPClient) statusError(op string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return types.NewAppError(
		types.ErrCodeUpstreamGeostreams,
		fmt.Sprintf("%s returned %d", op, resp.StatusCode),
		nil,
	).WithDetails(map[string]any{"body": string(snippet)})
}
