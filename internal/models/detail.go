package models

// EventDetail holds the fields extracted from an event page's structured-data block
type EventDetail struct {
	Title       string
	Description string
	StartDate   string // as found in the block, not yet normalized
	EndDate     string
	ImageURL    string
	Venue       string
	Organizer   string
	Keywords    []string
	URL         string // canonical URL, may be relative
}
