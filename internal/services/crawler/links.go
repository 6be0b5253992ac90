package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/venator/internal/common"
	"github.com/ternarybob/venator/internal/interfaces"
)

// nonEventPrefixes are site sections that never hold a single event
var nonEventPrefixes = []string{
	"discover", "about", "pricing", "help", "terms", "login", "signup",
	"calendar", "user", "profile", "settings", "notifications",
}

// locationTokens are city pages, which share the shape of event slugs
var locationTokens = map[string]bool{
	"san-francisco": true, "new-york": true, "london": true, "berlin": true,
	"singapore": true, "tokyo": true, "seoul": true, "dubai": true,
	"toronto": true, "sydney": true, "hong-kong": true, "mumbai": true,
	"bangalore": true, "miami": true, "los-angeles": true, "amsterdam": true,
	"zurich": true, "tel-aviv": true, "austin": true, "istanbul": true,
	"paris": true, "madrid": true, "rome": true, "prague": true,
	"budapest": true, "bucharest": true, "brussels": true, "cape-town": true,
	"nairobi": true, "lagos": true, "abu-dhabi": true, "taipei": true,
	"manila": true, "kuala-lumpur": true, "mexico-city": true, "sao-paulo": true,
	"buenos-aires": true, "bogota": true, "lima": true, "beijing": true,
}

// HeuristicLinkPolicy recognises event detail links by the shape of their path:
// same host, not a known site section or city page, and a slug of at least
// eight characters containing a digit or hex letter. A two-segment path is
// accepted when its second segment has that shape.
type HeuristicLinkPolicy struct {
	baseURL string
}

var _ interfaces.LinkPolicy = (*HeuristicLinkPolicy)(nil)

// NewHeuristicLinkPolicy creates the default link policy for pages under baseURL
func NewHeuristicLinkPolicy(baseURL string) *HeuristicLinkPolicy {
	return &HeuristicLinkPolicy{baseURL: baseURL}
}

// IsEventLink classifies href, which may be relative to the base URL
func (p *HeuristicLinkPolicy) IsEventLink(href string) bool {
	resolved := common.ResolveURL(p.baseURL, href)
	if resolved == "" || !common.SameHost(p.baseURL, resolved) {
		return false
	}

	u, err := url.Parse(resolved)
	if err != nil {
		return false
	}

	path := strings.Trim(u.Path, "/")
	if path == "" {
		return false
	}

	lower := strings.ToLower(path)
	for _, prefix := range nonEventPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	if locationTokens[lower] {
		return false
	}

	parts := strings.Split(lower, "/")
	switch len(parts) {
	case 1:
		return looksLikeSlug(parts[0])
	case 2:
		return looksLikeSlug(parts[1])
	default:
		return false
	}
}

// looksLikeSlug reports whether s is long enough and carries a digit or hex letter
func looksLikeSlug(s string) bool {
	if len(s) < 8 {
		return false
	}
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') {
			return true
		}
	}
	return false
}

// ExtractEventLinks returns the canonical URLs of the event links in html, in
// document order and without duplicates. Links are resolved against pageURL;
// query strings and fragments are dropped.
func ExtractEventLinks(html string, pageURL string, policy interfaces.LinkPolicy) ([]string, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse HTML for link extraction: %w", err)
	}

	var links []string
	seen := make(map[string]bool)
	found := 0

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if shouldSkipLink(href) {
			return
		}
		found++

		resolved := common.ResolveURL(pageURL, href)
		if resolved == "" || !policy.IsEventLink(resolved) {
			return
		}

		canonical := canonicalURL(resolved)
		if !seen[canonical] {
			seen[canonical] = true
			links = append(links, canonical)
		}
	})

	return links, found, nil
}

// shouldSkipLink determines if a link should be skipped during extraction
func shouldSkipLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	if href == "" || strings.HasPrefix(href, "#") {
		return true
	}
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "sms:", "data:"} {
		if strings.HasPrefix(href, scheme) {
			return true
		}
	}
	return false
}

func canonicalURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = "/" + strings.Trim(u.Path, "/")
	return u.String()
}
