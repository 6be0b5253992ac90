package models

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Source identifies the discovery path that produced an event record
type Source string

const (
	SourceAPI Source = "api"
	SourceWeb Source = "web"
)

const (
	// TagAPISourced marks records produced by the API discovery path
	TagAPISourced = "api-sourced"
	// TagWebScraped marks records produced by the browser crawl
	TagWebScraped = "web-scraped"
)

// EventRecord is the canonical unit persisted by the merge store.
// ExternalID is the unique key; a later write with the same id replaces the record in full.
type EventRecord struct {
	// Identity
	ExternalID string `json:"external_id" validate:"required"` // platform id, or detail URL for browser-only records
	Slug       string `json:"slug,omitempty"`

	// Content
	Title       string `json:"title"`
	Description string `json:"description"`
	Venue       string `json:"venue"`
	Organizer   string `json:"organizer"`

	// Schedule (ISO-8601, UTC when the source carried no zone; raw text when unparseable)
	DateTime    string `json:"date_time"`
	EndTime     string `json:"end_time"`
	RawDateText string `json:"raw_date_text,omitempty"`
	Timezone    string `json:"timezone,omitempty"`

	CategoryTags []string `json:"category_tags"`
	TicketURL    string   `json:"ticket_url" validate:"omitempty,url"`
	ImageURL     string   `json:"image_url" validate:"omitempty,url"`

	// Counts are nil for browser-sourced records
	GuestCount     *int  `json:"guest_count,omitempty"`
	TicketCount    *int  `json:"ticket_count,omitempty"`
	WaitlistActive *bool `json:"waitlist_active,omitempty"`

	DiscoveryLocation string    `json:"discovery_location"` // diagnostics only
	Source            Source    `json:"source" validate:"oneof=api web"`
	ScrapedAt         time.Time `json:"scraped_at"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks the record against its struct constraints
func (e *EventRecord) Validate() error {
	if err := validatorInstance().Struct(e); err != nil {
		return fmt.Errorf("invalid event record %q: %w", e.ExternalID, err)
	}
	return nil
}

// DropInvalidURLs blanks ticket_url and image_url when they are not absolute
// http(s) URLs and returns the cleared field names. A bad link costs the
// field, not the record.
func (e *EventRecord) DropInvalidURLs() []string {
	var cleared []string
	for _, field := range []struct {
		name  string
		value *string
	}{
		{"ticket_url", &e.TicketURL},
		{"image_url", &e.ImageURL},
	} {
		if *field.value == "" || isHTTPURL(*field.value) {
			continue
		}
		*field.value = ""
		cleared = append(cleared, field.name)
	}
	return cleared
}

func isHTTPURL(v string) bool {
	lower := strings.ToLower(v)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	return validatorInstance().Var(v, "url") == nil
}

// AddTags appends tags not already present, preserving first-seen order.
// Comparison is case-insensitive and blank tags are ignored.
func (e *EventRecord) AddTags(tags ...string) {
	seen := make(map[string]bool, len(e.CategoryTags)+len(tags))
	for _, t := range e.CategoryTags {
		seen[strings.ToLower(t)] = true
	}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		e.CategoryTags = append(e.CategoryTags, t)
	}
}

// TagsString returns the category tags comma-joined for output
func (e *EventRecord) TagsString() string {
	return strings.Join(e.CategoryTags, ",")
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// BoolPtr returns a pointer to v
func BoolPtr(v bool) *bool {
	return &v
}
