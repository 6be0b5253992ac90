package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/venator/internal/models"
)

func TestBuildVenue(t *testing.T) {
	tests := []struct {
		name string
		geo  *GeoAddressInfo
		want string
	}{
		{"nil", nil, ""},
		{"address and country", &GeoAddressInfo{Address: "221B Baker St", Country: "UK"}, "221B Baker St, UK"},
		{"city state preferred over region", &GeoAddressInfo{CityState: "Austin, Texas", Region: "Texas", Country: "USA"}, "Austin, Texas, USA"},
		{"region fallback", &GeoAddressInfo{Region: "Bavaria", Country: "Germany"}, "Bavaria, Germany"},
		{"all blank", &GeoAddressInfo{Address: "  "}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildVenue(tt.geo))
		})
	}
}

func TestBuildOrganizer(t *testing.T) {
	hosts := []Host{{Name: "Alice"}, {Name: ""}, {Name: " Bob "}}
	assert.Equal(t, "Alice, Bob", BuildOrganizer(hosts))
	assert.Equal(t, "", BuildOrganizer(nil))
}

func TestResolveImage(t *testing.T) {
	entry := &Entry{
		CoverImage: &CoverImage{ImageURL: "https://img/cover-alt.png"},
		Calendar:   &Calendar{AvatarURL: "https://img/avatar.png"},
	}
	assert.Equal(t, "https://img/cover-alt.png", ResolveImage(entry))

	entry.Event.CoverURL = "https://img/event.png"
	assert.Equal(t, "https://img/event.png", ResolveImage(entry))

	assert.Equal(t, "https://img/avatar.png", ResolveImage(&Entry{Calendar: &Calendar{AvatarURL: "https://img/avatar.png"}}))
	assert.Equal(t, "", ResolveImage(&Entry{}))
}

func TestParseEntry(t *testing.T) {
	entry := &Entry{
		APIID: "evt-abc123",
		Event: EventInfo{
			Name:           "ETH Meetup",
			URL:            "/ethmeet1/",
			Description:    "Monthly meetup",
			GeoAddressInfo: &GeoAddressInfo{Address: "221B Baker St", Country: "UK"},
			Timezone:       "Europe/London",
		},
		Hosts:       []Host{{Name: "Alice"}},
		StartAt:     "2025-03-01T18:00:00",
		EndAt:       "2025-03-01T21:00:00Z",
		GuestCount:  42,
		TicketCount: 7,
	}

	record, err := ParseEntry(entry, "London, UK", "https://lu.ma", []string{"crypto", "web3"})
	require.NoError(t, err)

	assert.Equal(t, "evt-abc123", record.ExternalID)
	assert.Equal(t, "ethmeet1", record.Slug)
	assert.Equal(t, "ETH Meetup", record.Title)
	assert.Equal(t, "221B Baker St, UK", record.Venue)
	assert.Equal(t, "Alice", record.Organizer)
	assert.Equal(t, "2025-03-01T18:00:00Z", record.DateTime)
	assert.Equal(t, "2025-03-01T21:00:00Z", record.EndTime)
	assert.Equal(t, "https://lu.ma/ethmeet1", record.TicketURL)
	assert.Equal(t, []string{"crypto", "web3", models.TagAPISourced}, record.CategoryTags)
	assert.Equal(t, 42, *record.GuestCount)
	assert.Equal(t, 7, *record.TicketCount)
	assert.False(t, *record.WaitlistActive)
	assert.Equal(t, "London, UK", record.DiscoveryLocation)
	assert.Equal(t, models.SourceAPI, record.Source)
	assert.NoError(t, record.Validate())
}

func TestParseEntry_Defaults(t *testing.T) {
	record, err := ParseEntry(&Entry{APIID: "evt-nourl"}, "Paris, France", "https://lu.ma", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://lu.ma/evt-nourl", record.TicketURL)
	assert.Equal(t, 0, *record.GuestCount)
	assert.Equal(t, "", record.Venue)
	assert.Equal(t, "", record.DateTime)
}

func TestParseEntry_ImageURLs(t *testing.T) {
	tests := []struct {
		name  string
		cover string
		want  string
	}{
		{"absolute", "https://cdn.example.com/a.png", "https://cdn.example.com/a.png"},
		{"protocol relative", "//cdn.example.com/a.png", "https://cdn.example.com/a.png"},
		{"relative to web base", "/images/a.png", "https://lu.ma/images/a.png"},
		{"bad escape is dropped", "https://cdn.example.com/a b%zz.png", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{APIID: "evt-1", Event: EventInfo{CoverURL: tt.cover}}

			record, err := ParseEntry(entry, "London, UK", "https://lu.ma", nil)
			require.NoError(t, err)

			assert.Equal(t, tt.want, record.ImageURL)
			assert.NoError(t, record.Validate())
		})
	}
}

func TestParseEntry_MissingID(t *testing.T) {
	_, err := ParseEntry(&Entry{Event: EventInfo{Name: "No id"}}, "x", "https://lu.ma", nil)
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestApplyDetail(t *testing.T) {
	record := &models.EventRecord{
		ExternalID:  "evt-1",
		Description: "short",
		DateTime:    "2025-03-01T18:00:00Z",
		Venue:       "",
		ImageURL:    "https://img/api.png",
		TicketURL:   "https://lu.ma/ethmeet1",
	}
	record.AddTags("crypto", "web3", models.TagAPISourced)

	ApplyDetail(record, &models.EventDetail{
		Description: "Full description",
		StartDate:   "2025-03-02T10:00:00+01:00",
		EndDate:     "2025-03-02T12:00:00+01:00",
		ImageURL:    "https://img/detail.png",
		Venue:       "Convention Centre",
		Keywords:    []string{"ethereum", "Crypto"},
		URL:         "https://lu.ma/e/ethmeet1",
	})

	assert.Equal(t, "Full description", record.Description)
	assert.Equal(t, "2025-03-02T10:00:00+01:00", record.DateTime)
	assert.Equal(t, "2025-03-02T10:00:00+01:00", record.RawDateText)
	assert.Equal(t, "2025-03-02T12:00:00+01:00", record.EndTime)
	assert.Equal(t, "https://img/detail.png", record.ImageURL)
	assert.Equal(t, "Convention Centre", record.Venue)
	assert.Equal(t, "https://lu.ma/e/ethmeet1", record.TicketURL)
	assert.Equal(t, []string{"crypto", "web3", models.TagAPISourced, "ethereum"}, record.CategoryTags)
}

func TestApplyDetail_KeepsAPIVenue(t *testing.T) {
	record := &models.EventRecord{Venue: "221B Baker St, UK", Description: "api"}
	ApplyDetail(record, &models.EventDetail{Venue: "Somewhere else", URL: "relative"})

	assert.Equal(t, "221B Baker St, UK", record.Venue)
	assert.Equal(t, "api", record.Description)
	assert.Equal(t, "", record.TicketURL)
}
