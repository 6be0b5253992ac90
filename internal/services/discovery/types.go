package discovery

import (
	"fmt"
	"time"
)

// PaginatedEventsResponse is the body of /discover/get-paginated-events
type PaginatedEventsResponse struct {
	Entries    []Entry `json:"entries"`
	HasMore    bool    `json:"has_more"`
	NextCursor string  `json:"next_cursor"`
}

// Entry is one discovered event as returned by the API
type Entry struct {
	APIID          string      `json:"api_id"`
	Event          EventInfo   `json:"event"`
	Hosts          []Host      `json:"hosts"`
	CoverImage     *CoverImage `json:"cover_image"`
	Calendar       *Calendar   `json:"calendar"`
	StartAt        string      `json:"start_at"`
	EndAt          string      `json:"end_at"`
	GuestCount     int         `json:"guest_count"`
	TicketCount    int         `json:"ticket_count"`
	WaitlistActive bool        `json:"waitlist_active"`
}

// EventInfo is the nested event object of an entry
type EventInfo struct {
	APIID          string          `json:"api_id"`
	Name           string          `json:"name"`
	URL            string          `json:"url"` // slug
	Description    string          `json:"description"`
	GeoAddressInfo *GeoAddressInfo `json:"geo_address_info"`
	Timezone       string          `json:"timezone"`
	CoverURL       string          `json:"cover_url"`
	StartAt        string          `json:"start_at"`
	EndAt          string          `json:"end_at"`
}

type GeoAddressInfo struct {
	Address     string `json:"address"`
	CityState   string `json:"city_state"`
	Region      string `json:"region"`
	Country     string `json:"country"`
	FullAddress string `json:"full_address"`
}

type Host struct {
	APIID string `json:"api_id"`
	Name  string `json:"name"`
}

type CoverImage struct {
	URL      string `json:"url"`
	ImageURL string `json:"image_url"`
}

type Calendar struct {
	APIID         string `json:"api_id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	CoverImageURL string `json:"cover_image_url"`
	AvatarURL     string `json:"avatar_url"`
}

// CategoryPageResponse is the body of /discover/category/get-page
type CategoryPageResponse struct {
	Category struct {
		Name       string `json:"name"`
		Slug       string `json:"slug"`
		EventCount int    `json:"event_count"`
	} `json:"category"`
	TimelineCalendars []CalendarEntry `json:"timeline_calendars"`
	FeaturedCalendars []CalendarEntry `json:"featured_calendars"`
}

type CalendarEntry struct {
	Calendar   Calendar `json:"calendar"`
	EventCount int      `json:"event_count"`
}

// APIError represents an error from the discovery API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discovery API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// RateLimitError represents a rate limit error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("discovery API rate limit exceeded, retry after %v", e.RetryAfter)
}
