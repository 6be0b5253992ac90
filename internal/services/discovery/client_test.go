package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/models"
	"github.com/ternarybob/venator/internal/services/fetcher"
)

func newTestClient(serverURL string) *Client {
	logger := arbor.NewLogger()
	f := fetcher.NewFetcher(nil, nil, fetcher.NewRetryPolicyWithAttempts(1), logger)
	return NewClient(f, WithBaseURL(serverURL), WithPageLimit(50), WithLogger(logger))
}

func TestClient_GetPaginatedEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/discover/get-paginated-events", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "51.5074", q.Get("latitude"))
		assert.Equal(t, "-0.1278", q.Get("longitude"))
		assert.Equal(t, "50", q.Get("pagination_limit"))
		assert.Equal(t, "crypto", q.Get("slug"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"entries":[{"api_id":"evt-1","event":{"name":"DeFi Night","url":"defi1234"},"guest_count":12}],"has_more":false}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.GetPaginatedEvents(context.Background(), models.Partition{Name: "London, UK", Latitude: 51.5074, Longitude: -0.1278})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "evt-1", resp.Entries[0].APIID)
	assert.Equal(t, "defi1234", resp.Entries[0].Event.URL)
	assert.Equal(t, 12, resp.Entries[0].GuestCount)
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetPaginatedEvents(context.Background(), models.Partition{Name: "x"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "/discover/get-paginated-events", apiErr.Endpoint)
}

func TestClient_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetCategoryPage(context.Background())
	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, time.Minute, rlErr.RetryAfter)
}

func TestClient_RateLimitedUsesRetryAfterHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "45")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetCategoryPage(context.Background())
	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, 45*time.Second, rlErr.RetryAfter)
}

func TestClient_GetCategoryPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/discover/category/get-page", r.URL.Path)
		assert.Equal(t, "crypto", r.URL.Query().Get("slug"))
		w.Write([]byte(`{
			"category": {"slug": "crypto", "event_count": 830},
			"timeline_calendars": [
				{"calendar": {"api_id": "cal-1", "name": "ETH Global", "slug": "ethglobal"}, "event_count": 12},
				{"calendar": {"api_id": "cal-2", "name": "Empty", "slug": "empty"}, "event_count": 0}
			],
			"featured_calendars": [
				{"calendar": {"api_id": "cal-3", "name": "Solana", "slug": "/solana/"}, "event_count": 40},
				{"calendar": {"api_id": "cal-1", "name": "ETH Global", "slug": "ethglobal"}, "event_count": 12},
				{"calendar": {"api_id": "cal-4", "name": "No slug"}, "event_count": 5}
			]
		}`))
	}))
	defer server.Close()

	info, err := newTestClient(server.URL).GetCategoryPage(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 830, info.EventCount)
	require.Len(t, info.Calendars, 2)
	assert.Equal(t, "solana", info.Calendars[0].Slug)
	assert.Equal(t, 40, info.Calendars[0].EventCount)
	assert.Equal(t, "ethglobal", info.Calendars[1].Slug)
}
