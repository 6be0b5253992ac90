package jsonld

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestFindEvent(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		wantName string
	}{
		{
			name:     "single object",
			html:     `<script type="application/ld+json">{"@type":"Event","name":"ETH Meetup"}</script>`,
			wantName: "ETH Meetup",
		},
		{
			name: "lowercase type inside list",
			html: `<script type="application/ld+json">[{"@type":"Organization","name":"Luma"},
				{"@type":["event","Thing"],"name":"DeFi Night"}]</script>`,
			wantName: "DeFi Night",
		},
		{
			name:     "graph member",
			html:     `<script type="application/ld+json">{"@graph":[{"@type":"Event","name":"ZK Day"}]}</script>`,
			wantName: "ZK Day",
		},
		{
			name: "malformed block skipped",
			html: `<script type="application/ld+json">{not json</script>
				<script type="application/ld+json">{"@type":"Event","name":"Second"}</script>`,
			wantName: "Second",
		},
		{
			name: "no event",
			html: `<script type="application/ld+json">{"@type":"WebPage","name":"Home"}</script>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := FindEvent(parse(t, "<html><head>"+tt.html+"</head></html>"))
			if tt.wantName == "" {
				assert.Nil(t, node)
				return
			}
			require.NotNil(t, node)
			assert.Equal(t, tt.wantName, node["name"])
		})
	}
}

func TestExtractDetail(t *testing.T) {
	doc := parse(t, `<script type="application/ld+json">{
		"@type": "Event",
		"name": "Bitcoin Builders",
		"description": "<p>Talks on <b>bitcoin</b></p>",
		"startDate": "2025-03-01T18:00:00-05:00",
		"endDate": "2025-03-01T21:00:00-05:00",
		"image": [{"@type":"ImageObject","url":"https://images.lumacdn.com/cover.png"}],
		"location": {"@type":"Place","address":{"streetAddress":"1 Main St","addressLocality":"Austin","addressCountry":{"name":"US"}}},
		"organizer": [{"name":"Alice"},{"name":"Bob"}],
		"keywords": "bitcoin, lightning",
		"url": "https://lu.ma/btc12345"
	}</script>`)

	detail := ExtractDetail(FindEvent(doc))
	require.NotNil(t, detail)

	assert.Equal(t, "Bitcoin Builders", detail.Title)
	assert.Equal(t, "<p>Talks on <b>bitcoin</b></p>", detail.Description)
	assert.Equal(t, "2025-03-01T18:00:00-05:00", detail.StartDate)
	assert.Equal(t, "https://images.lumacdn.com/cover.png", detail.ImageURL)
	assert.Equal(t, "1 Main St, Austin, US", detail.Venue)
	assert.Equal(t, "Alice, Bob", detail.Organizer)
	assert.Equal(t, []string{"bitcoin", "lightning"}, detail.Keywords)
	assert.Equal(t, "https://lu.ma/btc12345", detail.URL)
}

func TestExtractDetail_CategoryFallbackAndPlaceName(t *testing.T) {
	detail := ExtractDetail(map[string]interface{}{
		"@type":    "Event",
		"location": map[string]interface{}{"name": "Hall A", "address": "ignored"},
		"category": []interface{}{"defi", "", "dao"},
	})

	assert.Equal(t, "Hall A", detail.Venue)
	assert.Equal(t, []string{"defi", "dao"}, detail.Keywords)
	assert.Nil(t, ExtractDetail(nil))
}
