package models

// Partition is a named geographic point used to query the discovery API
type Partition struct {
	Name      string  `yaml:"name" json:"name"`
	Latitude  float64 `yaml:"lat" json:"lat"`
	Longitude float64 `yaml:"lng" json:"lng"`
}

// SeedKind classifies a browser crawl seed, which determines its scroll budget
type SeedKind string

const (
	SeedKindCategory SeedKind = "category"
	SeedKindCalendar SeedKind = "calendar"
	SeedKindSearch   SeedKind = "search"
)

// Seed is a discovery page the browser crawl starts from.
// ExpectedCount is zero when the page's event count is unknown.
type Seed struct {
	URL           string
	Kind          SeedKind
	Name          string
	ExpectedCount int
}

// CalendarRef is a calendar surfaced by the category page API
type CalendarRef struct {
	APIID      string `json:"api_id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	EventCount int    `json:"event_count"`
}

// CategoryInfo summarises the category page: its total event count and featured calendars
type CategoryInfo struct {
	Slug       string
	EventCount int
	Calendars  []CalendarRef
}
