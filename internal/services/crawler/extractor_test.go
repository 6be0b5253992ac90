package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/models"
	"github.com/ternarybob/venator/internal/services/transform"
)

func newTestExtractor() *Extractor {
	return NewExtractor("https://lu.ma", []string{"crypto", "web3"},
		transform.NewService(arbor.NewLogger(), transform.FormatText, "https://lu.ma"))
}

func TestExtractor_StructuredData(t *testing.T) {
	html := `<html><head>
		<title>Ignored title</title>
		<script type="application/ld+json">{
			"@context": "https://schema.org",
			"@graph": [{
				"@type": ["Event"],
				"name": "Bitcoin Builders",
				"description": "<p>Hack on <b>lightning</b></p>",
				"startDate": "2025-06-01T17:00:00Z",
				"endDate": "2025-06-01T20:00:00Z",
				"image": {"@type": "ImageObject", "url": "/img/btc.png"},
				"location": {"@type": "Place", "address": {"streetAddress": "1 Main St", "addressLocality": "Austin"}},
				"organizer": [{"name": "Alice"}, {"name": "Bob"}],
				"keywords": "bitcoin, lightning"
			}]
		}</script></head><body><h1>Other heading</h1></body></html>`

	record, err := newTestExtractor().Extract(html, "https://lu.ma/btc12345")
	require.NoError(t, err)

	assert.Equal(t, "https://lu.ma/btc12345", record.ExternalID)
	assert.Equal(t, "btc12345", record.Slug)
	assert.Equal(t, "Bitcoin Builders", record.Title)
	assert.Equal(t, "Hack on lightning", record.Description)
	assert.Equal(t, "2025-06-01T17:00:00Z", record.DateTime)
	assert.Equal(t, "2025-06-01T17:00:00Z", record.RawDateText)
	assert.Equal(t, "2025-06-01T20:00:00Z", record.EndTime)
	assert.Equal(t, "1 Main St, Austin", record.Venue)
	assert.Equal(t, "Alice, Bob", record.Organizer)
	assert.Equal(t, "https://lu.ma/img/btc.png", record.ImageURL)
	assert.Equal(t, "https://lu.ma/btc12345", record.TicketURL)
	assert.Equal(t, []string{"crypto", "web3", models.TagWebScraped, "bitcoin", "lightning"}, record.CategoryTags)
	assert.Equal(t, models.SourceWeb, record.Source)
	assert.Nil(t, record.GuestCount)
	assert.NoError(t, record.Validate())
}

func TestExtractor_CSSFallbacks(t *testing.T) {
	html := `<html><head>
		<meta name="description" content="Meta description">
		<meta property="og:image" content="https://cdn.lu.ma/og.png">
	</head><body>
		<h1>  DeFi   Night </h1>
		<time datetime="2025-07-04T19:00:00">July 4</time>
		<div class="location">Rooftop Bar</div>
		<a class="host" href="/user/usr-1">Carol</a>
		<a href="/tickets/xyz">Get tickets</a>
		<span class="tag">DeFi</span><span class="tag">Social</span>
	</body></html>`

	record, err := newTestExtractor().Extract(html, "https://lu.ma/defi9876")
	require.NoError(t, err)

	assert.Equal(t, "DeFi Night", record.Title)
	assert.Equal(t, "Meta description", record.Description)
	assert.Equal(t, "2025-07-04T19:00:00", record.RawDateText)
	assert.Equal(t, "2025-07-04T19:00:00Z", record.DateTime)
	assert.Equal(t, "Rooftop Bar", record.Venue)
	assert.Equal(t, "Carol", record.Organizer)
	assert.Equal(t, "https://cdn.lu.ma/og.png", record.ImageURL)
	assert.Equal(t, "https://lu.ma/tickets/xyz", record.TicketURL)
	assert.Equal(t, []string{"crypto", "web3", models.TagWebScraped, "DeFi", "Social"}, record.CategoryTags)
}

func TestExtractor_TitleFallbacks(t *testing.T) {
	e := newTestExtractor()

	record, err := e.Extract(`<html><head><meta property="og:title" content="OG Title"><title>Page Title</title></head><body></body></html>`, "https://lu.ma/og123456")
	require.NoError(t, err)
	assert.Equal(t, "OG Title", record.Title)

	record, err = e.Extract(`<html><head><title>Page Title</title></head><body></body></html>`, "https://lu.ma/pg123456")
	require.NoError(t, err)
	assert.Equal(t, "Page Title", record.Title)
	assert.Equal(t, "", record.DateTime)

	_, err = e.Extract(`<html><body><p>nothing here</p></body></html>`, "https://lu.ma/empty123")
	assert.ErrorIs(t, err, ErrNoTitle)
}
