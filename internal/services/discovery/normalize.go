package discovery

import (
	"errors"
	"strings"
	"time"

	"github.com/ternarybob/venator/internal/common"
	"github.com/ternarybob/venator/internal/models"
)

// ErrMissingID is returned for entries without a platform id
var ErrMissingID = errors.New("entry has no api_id")

// BuildVenue assembles the venue from the geo address parts that are present:
// address, city_state (region when city_state is absent) and country.
func BuildVenue(geo *GeoAddressInfo) string {
	if geo == nil {
		return ""
	}

	var parts []string
	if s := strings.TrimSpace(geo.Address); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(geo.CityState); s != "" {
		parts = append(parts, s)
	} else if s := strings.TrimSpace(geo.Region); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(geo.Country); s != "" {
		parts = append(parts, s)
	}

	return strings.Join(parts, ", ")
}

// BuildOrganizer joins the non-empty host names
func BuildOrganizer(hosts []Host) string {
	var names []string
	for _, h := range hosts {
		if name := strings.TrimSpace(h.Name); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

// ResolveImage returns the first image the entry carries
func ResolveImage(entry *Entry) string {
	candidates := []string{entry.Event.CoverURL}
	if entry.CoverImage != nil {
		candidates = append(candidates, entry.CoverImage.URL, entry.CoverImage.ImageURL)
	}
	if entry.Calendar != nil {
		candidates = append(candidates, entry.Calendar.CoverImageURL, entry.Calendar.AvatarURL)
	}

	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return ""
}

// ParseEntry normalizes one API entry into an event record. baseURL is the
// web base used for the default ticket URL.
func ParseEntry(entry *Entry, partition string, baseURL string, baseTags []string) (*models.EventRecord, error) {
	id := strings.TrimSpace(entry.APIID)
	if id == "" {
		return nil, ErrMissingID
	}

	slug := strings.Trim(strings.TrimSpace(entry.Event.URL), "/")
	ticketURL := common.EventURL(baseURL, id)
	if slug != "" {
		ticketURL = common.EventURL(baseURL, slug)
	}

	startAt := entry.StartAt
	if startAt == "" {
		startAt = entry.Event.StartAt
	}
	endAt := entry.EndAt
	if endAt == "" {
		endAt = entry.Event.EndAt
	}

	record := &models.EventRecord{
		ExternalID:        id,
		Slug:              slug,
		Title:             strings.TrimSpace(entry.Event.Name),
		Description:       strings.TrimSpace(entry.Event.Description),
		Venue:             BuildVenue(entry.Event.GeoAddressInfo),
		Organizer:         BuildOrganizer(entry.Hosts),
		DateTime:          common.NormalizeDateTime(startAt),
		EndTime:           common.NormalizeDateTime(endAt),
		Timezone:          entry.Event.Timezone,
		TicketURL:         ticketURL,
		ImageURL:          common.ResolveURL(baseURL, ResolveImage(entry)),
		GuestCount:        models.IntPtr(entry.GuestCount),
		TicketCount:       models.IntPtr(entry.TicketCount),
		WaitlistActive:    models.BoolPtr(entry.WaitlistActive),
		DiscoveryLocation: partition,
		Source:            models.SourceAPI,
		ScrapedAt:         time.Now().UTC(),
	}
	record.DropInvalidURLs()
	record.AddTags(baseTags...)
	record.AddTags(models.TagAPISourced)

	return record, nil
}

// ApplyDetail merges an event page's structured detail into an API record.
// Description, dates and image always take the page's value when present; the
// venue only fills a gap; an absolute canonical URL becomes the ticket URL.
func ApplyDetail(record *models.EventRecord, detail *models.EventDetail) {
	if detail == nil {
		return
	}

	if detail.Description != "" {
		record.Description = detail.Description
	}
	if detail.StartDate != "" {
		record.RawDateText = detail.StartDate
		record.DateTime = common.NormalizeDateTime(detail.StartDate)
	}
	if detail.EndDate != "" {
		record.EndTime = common.NormalizeDateTime(detail.EndDate)
	}
	if detail.ImageURL != "" {
		record.ImageURL = detail.ImageURL
	}
	if record.Venue == "" && detail.Venue != "" {
		record.Venue = detail.Venue
	}
	if common.IsAbsoluteURL(detail.URL) {
		record.TicketURL = detail.URL
	}

	record.AddTags(detail.Keywords...)
}
