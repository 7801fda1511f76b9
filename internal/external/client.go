// Package external holds the outbound HTTP clients for the downstream
// stores: the geospatial time-series store (geostreams), the relational
// trait database (BETYdb), and the site-lookup-by-coordinate collaborator.
// All calls are routed through BaseClient, which enforces consistent
// behavior: circuit breaking, run-id propagation, and error mapping.
//
// BaseClient never retries. Sensor, stream, and datapoint creates are not
// idempotent, so a replayed request could double-create a resource; a failed
// call surfaces immediately and is handled at the file boundary.
package external

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"geostream/internal/types"
)

// BaseClient wraps an *http.Client and a circuit breaker to enforce
// consistent behavior on all outbound HTTP calls. Store clients embed a
// BaseClient to inherit it.
type BaseClient struct {
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*http.Response]
	userAgent string
}

// NewBaseClient creates a BaseClient with the given http client, circuit
// breaker name, and user agent string.
func NewBaseClient(httpClient *http.Client, breakerName string, userAgent string) *BaseClient {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &BaseClient{
		client:    httpClient,
		breaker:   cb,
		userAgent: userAgent,
	}
}

// Do executes the HTTP request with:
//  1. Run-id injection (X-Run-Id from context)
//  2. User-Agent header injection
//  3. Circuit breaker wrapping (5xx counts as a breaker failure)
//  4. Error mapping to types.AppError
//
// On success the response is returned as-is, including non-2xx statuses
// below 500; the caller owns status interpretation and must close the body.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	if runID := types.GetRunID(req.Context()); runID != "" {
		req.Header.Set("X-Run-Id", runID)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.client.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		// Treat 5xx as errors so repeated upstream outages open the breaker.
		if r.StatusCode >= 500 {
			return r, fmt.Errorf("upstream returned %d", r.StatusCode)
		}
		return r, nil
	})

	if err == nil {
		return resp, nil
	}

	if resp != nil {
		resp.Body.Close()
	}

	return nil, c.mapError(resp, err)
}

// mapError translates HTTP-level failures into domain-level AppErrors.
func (c *BaseClient) mapError(resp *http.Response, err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(
			types.ErrCodeUpstreamRateLimited,
			"circuit breaker is open; upstream store unavailable",
			err,
		)
	}

	if resp != nil && resp.StatusCode >= 500 {
		return types.NewAppError(
			types.ErrCodeUpstreamUnavailable,
			fmt.Sprintf("upstream returned %d", resp.StatusCode),
			err,
		)
	}

	// Network error, DNS failure, timeout.
	return types.NewAppError(
		types.ErrCodeUpstreamUnavailable,
		"upstream request failed",
		err,
	)
}
