package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicLinkPolicy_IsEventLink(t *testing.T) {
	policy := NewHeuristicLinkPolicy("https://lu.ma")

	tests := []struct {
		href string
		want bool
	}{
		{"https://lu.ma/abc12345", true},
		{"/abc12345", true},
		{"https://www.lu.ma/ethdenver2025", true},
		{"/ethglobal/abc12345", true},
		{"/discover", false},
		{"/discover?category=crypto", false},
		{"/signup", false},
		{"/calendar/cal-12345678", false},
		{"/user/usr-abc12345", false},
		{"/san-francisco", false},
		{"/hong-kong", false},
		{"/xyz", false},
		{"/ghijklmnop", false},
		{"https://other.com/abc12345", false},
		{"/", false},
		{"/a/b/c12345678", false},
		{"/ethglobal/short1", false},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.IsEventLink(tt.href))
		})
	}
}

func TestExtractEventLinks(t *testing.T) {
	html := `<html><body>
		<a href="/abc12345?utm=x">Event A</a>
		<a href="https://lu.ma/abc12345#top">Event A again</a>
		<a href="/discover">Discover</a>
		<a href="mailto:hi@lu.ma">Mail</a>
		<a href="javascript:void(0)">JS</a>
		<a href="https://twitter.com/luma123456">Twitter</a>
		<a href="/def67890/">Event B</a>
	</body></html>`

	links, found, err := ExtractEventLinks(html, "https://lu.ma/discover?category=crypto", NewHeuristicLinkPolicy("https://lu.ma"))
	require.NoError(t, err)

	assert.Equal(t, []string{"https://lu.ma/abc12345", "https://lu.ma/def67890"}, links)
	assert.Equal(t, 5, found)
}
