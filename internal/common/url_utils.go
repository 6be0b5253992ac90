package common

import (
	"net/url"
	"strings"
)

// EventURL builds the public page URL for a slug or event id
func EventURL(baseURL, slug string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(slug, "/")
}

// ResolveURL resolves href against baseURL. Absolute hrefs are returned unchanged;
// protocol-relative hrefs get https. Returns "" when either cannot be parsed.
func ResolveURL(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// IsAbsoluteURL reports whether s is an absolute http(s) URL
func IsAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// SlugFromURL returns the path of an event URL without slashes, query or fragment,
// e.g. "https://lu.ma/abc12345?tk=x" -> "abc12345". Two-segment paths are kept joined.
func SlugFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.Trim(u.Path, "/")
}

// SameHost reports whether rawURL points at baseURL's host (www. ignored)
func SameHost(baseURL, rawURL string) bool {
	b, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Host == "" {
		return true
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.") == strings.TrimPrefix(strings.ToLower(b.Host), "www.")
}
