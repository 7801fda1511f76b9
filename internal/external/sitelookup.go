package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"geostream/internal/types"
)

// SiteLookupClientConfig holds the configuration for creating a
// SiteLookupHTTPClient.
type SiteLookupClientConfig struct {
	BaseURL string
	Key     types.SecretString
	Logger  *slog.Logger
}

// SiteLookupHTTPClient implements SiteLookup against the site collection of
// the trait database. Coordinates are sent latitude-first; site geometries
// come back as WKT centroids.
type SiteLookupHTTPClient struct {
	base    *BaseClient
	baseURL string
	key     types.SecretString
	logger  *slog.Logger
}

var _ SiteLookup = (*SiteLookupHTTPClient)(nil)

// NewSiteLookupClient creates a SiteLookupHTTPClient.
func NewSiteLookupClient(httpClient *http.Client, cfg SiteLookupClientConfig) *SiteLookupHTTPClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SiteLookupHTTPClient{
		base:    NewBaseClient(httpClient, "site-lookup", "GeostreamLoader/1.0"),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		key:     cfg.Key,
		logger:  logger,
	}
}

// siteLookupResponse is the site collection response envelope: each entry
// wraps one site record.
type siteLookupResponse struct {
	Data []struct {
		Site types.CandidateSite `json:"site"`
	} `json:"data"`
}

// SitesByCoordinate returns the candidate sites containing the coordinate
// on the given filter date. Zero candidates is not an error.
func (c *SiteLookupHTTPClient) SitesByCoordinate(ctx context.Context, lat, lon float64, filterDate string) ([]types.CandidateSite, error) {
	query := url.Values{
		"key":        {c.key.Unmask()},
		"containing": {formatLatLon(lat, lon)},
	}
	if filterDate != "" {
		query.Set("date", filterDate)
	}
	lookupURL := fmt.Sprintf("%s/api/v1/sites?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create site lookup request", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, types.NewAppError(
			types.ErrCodeUpstreamSiteLookup,
			fmt.Sprintf("site lookup returned %d", resp.StatusCode),
			nil,
		).WithDetails(map[string]any{"body": string(snippet)})
	}

	var decoded siteLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamSiteLookup, "failed to decode site lookup response", err)
	}

	sites := make([]types.CandidateSite, 0, len(decoded.Data))
	for _, entry := range decoded.Data {
		sites = append(sites, entry.Site)
	}

	c.logger.DebugContext(ctx, "site lookup",
		"lat", lat,
		"lon", lon,
		"filter_date", filterDate,
		"candidates", len(sites),
	)
	return sites, nil
}

// formatLatLon renders the "containing" query value. Latitude comes first;
// the collaborator's coordinate convention is latitude,longitude.
func formatLatLon(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}
