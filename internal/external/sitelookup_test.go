package external

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestSiteLookupClient(t *testing.T, serverURL string) *SiteLookupHTTPClient {
	t.Helper()
	return NewSiteLookupClient(
		&http.Client{Timeout: 5 * time.Second},
		SiteLookupClientConfig{
			BaseURL: serverURL,
			Key:     "test_site_key",
		},
	)
}

func TestSitesByCoordinate_LatitudeFirst(t *testing.T) {
	var receivedContaining string
	var receivedDate string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sites" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		receivedContaining = r.URL.Query().Get("containing")
		receivedDate = r.URL.Query().Get("date")

		io.WriteString(w, `{"data": [
			{"site": {"sitename": "Range 4 Pass 9", "geometry": "POINT (-111.97 33.07)"}},
			{"site": {"sitename": "Range 4 Pass 10", "geometry": "POINT (-111.96 33.07)"}}
		]}`)
	}))
	defer server.Close()

	client := newTestSiteLookupClient(t, server.URL)

	sites, err := client.SitesByCoordinate(context.Background(), 33.07, -111.97, "2017-01-25")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	// Latitude first: the collaborator's coordinate convention.
	if receivedContaining != "33.07,-111.97" {
		t.Errorf("expected containing=33.07,-111.97, got %q", receivedContaining)
	}
	if receivedDate != "2017-01-25" {
		t.Errorf("expected date filter, got %q", receivedDate)
	}

	if len(sites) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(sites))
	}
	if sites[0].SiteName != "Range 4 Pass 9" || sites[0].Geometry != "POINT (-111.97 33.07)" {
		t.Errorf("unexpected first candidate %+v", sites[0])
	}
}

func TestSitesByCoordinate_ZeroCandidatesIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data": []}`)
	}))
	defer server.Close()

	client := newTestSiteLookupClient(t, server.URL)

	sites, err := client.SitesByCoordinate(context.Background(), 33.07, -111.97, "")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(sites) != 0 {
		t.Errorf("expected no candidates, got %d", len(sites))
	}
}

func TestSitesByCoordinate_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestSiteLookupClient(t, server.URL)

	if _, err := client.SitesByCoordinate(context.Background(), 1, 2, ""); err == nil {
		t.Error("expected error for 404")
	}
}
