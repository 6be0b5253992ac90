package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/models"
	"github.com/ternarybob/venator/internal/services/fetcher"
)

const (
	// DefaultBaseURL is the base URL for the discovery API.
	DefaultBaseURL = "https://api2.luma.com"

	// DefaultPageLimit is the number of results requested per partition.
	DefaultPageLimit = 100

	// DefaultCategory is the category slug queried when none is configured.
	DefaultCategory = "crypto"
)

// JSONGetter performs a paced, retried GET and decodes the JSON body
type JSONGetter interface {
	GetJSON(ctx context.Context, rawURL string, result interface{}) error
}

// Client is a discovery API client.
type Client struct {
	baseURL   string
	category  string
	pageLimit int
	getter    JSONGetter
	logger    arbor.ILogger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithCategory sets the category slug sent with every query.
func WithCategory(slug string) ClientOption {
	return func(c *Client) {
		if slug != "" {
			c.category = slug
		}
	}
}

// WithPageLimit sets the pagination limit.
func WithPageLimit(limit int) ClientOption {
	return func(c *Client) {
		if limit > 0 {
			c.pageLimit = limit
		}
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a discovery API client on top of getter, which owns
// pacing, retries and the session identity.
func NewClient(getter JSONGetter, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		category:  DefaultCategory,
		pageLimit: DefaultPageLimit,
		getter:    getter,
		logger:    arbor.NewLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Category returns the category slug the client queries
func (c *Client) Category() string {
	return c.category
}

// GetPaginatedEvents returns the events the API lists near a partition
func (c *Client) GetPaginatedEvents(ctx context.Context, partition models.Partition) (*PaginatedEventsResponse, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(partition.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(partition.Longitude, 'f', -1, 64))
	params.Set("pagination_limit", strconv.Itoa(c.pageLimit))
	params.Set("slug", c.category)

	var result PaginatedEventsResponse
	if err := c.get(ctx, "/discover/get-paginated-events", params, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// GetCategoryPage returns the category's event count and its calendars that
// currently list events, busiest first.
func (c *Client) GetCategoryPage(ctx context.Context) (*models.CategoryInfo, error) {
	params := url.Values{}
	params.Set("slug", c.category)

	var result CategoryPageResponse
	if err := c.get(ctx, "/discover/category/get-page", params, &result); err != nil {
		return nil, err
	}

	info := &models.CategoryInfo{
		Slug:       c.category,
		EventCount: result.Category.EventCount,
	}

	seen := make(map[string]bool)
	groups := [][]CalendarEntry{result.TimelineCalendars, result.FeaturedCalendars}
	for _, group := range groups {
		for _, entry := range group {
			slug := strings.Trim(entry.Calendar.Slug, "/")
			if slug == "" || entry.EventCount <= 0 || seen[slug] {
				continue
			}
			seen[slug] = true
			info.Calendars = append(info.Calendars, models.CalendarRef{
				APIID:      entry.Calendar.APIID,
				Name:       entry.Calendar.Name,
				Slug:       slug,
				EventCount: entry.EventCount,
			})
		}
	}

	sort.SliceStable(info.Calendars, func(i, j int) bool {
		return info.Calendars[i].EventCount > info.Calendars[j].EventCount
	})

	return info, nil
}

// get performs a GET request to the API.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	c.logger.Debug().
		Str("url", c.baseURL+path).
		Str("query", params.Encode()).
		Msg("Discovery API request")

	err := c.getter.GetJSON(ctx, reqURL, result)
	if err == nil {
		return nil
	}

	var statusErr *fetcher.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusTooManyRequests {
			retryAfter := statusErr.RetryAfter
			if retryAfter <= 0 {
				retryAfter = time.Minute
			}
			return &RateLimitError{RetryAfter: retryAfter}
		}
		return &APIError{
			StatusCode: statusErr.StatusCode,
			Message:    statusErr.Body,
			Endpoint:   path,
		}
	}

	return fmt.Errorf("discovery request %s failed: %w", path, err)
}
