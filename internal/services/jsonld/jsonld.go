// Package jsonld locates schema.org Event objects in a page's
// application/ld+json blocks and maps them onto models.EventDetail.
package jsonld

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/venator/internal/models"
)

// FindEvent returns the first object whose @type is Event (case-insensitive).
// Top-level arrays and @graph members are searched; malformed blocks are skipped.
func FindEvent(doc *goquery.Document) map[string]interface{} {
	var found map[string]interface{}

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}

		var data interface{}
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return true
		}

		found = findEventNode(data)
		return found == nil
	})

	return found
}

func findEventNode(data interface{}) map[string]interface{} {
	switch v := data.(type) {
	case []interface{}:
		for _, item := range v {
			if node := findEventNode(item); node != nil {
				return node
			}
		}
	case map[string]interface{}:
		if isEventType(v["@type"]) {
			return v
		}
		if graph, ok := v["@graph"]; ok {
			return findEventNode(graph)
		}
	}
	return nil
}

func isEventType(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return strings.EqualFold(v, "event")
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.EqualFold(s, "event") {
				return true
			}
		}
	}
	return false
}

// ExtractDetail maps an Event object onto an EventDetail.
// Description is returned as found (usually HTML); callers clean it.
func ExtractDetail(node map[string]interface{}) *models.EventDetail {
	if node == nil {
		return nil
	}

	detail := &models.EventDetail{
		Title:       stringValue(node["name"]),
		Description: stringValue(node["description"]),
		StartDate:   stringValue(node["startDate"]),
		EndDate:     stringValue(node["endDate"]),
		ImageURL:    imageValue(node["image"]),
		Venue:       locationValue(node["location"]),
		Organizer:   strings.Join(namesValue(node["organizer"]), ", "),
		URL:         stringValue(node["url"]),
	}

	keywords := listValue(node["keywords"])
	if len(keywords) == 0 {
		keywords = listValue(node["category"])
	}
	detail.Keywords = keywords

	return detail
}

func stringValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// imageValue accepts a URL string, an ImageObject, or a list of either
func imageValue(v interface{}) string {
	switch img := v.(type) {
	case string:
		return strings.TrimSpace(img)
	case map[string]interface{}:
		if u := stringValue(img["url"]); u != "" {
			return u
		}
		return stringValue(img["contentUrl"])
	case []interface{}:
		for _, item := range img {
			if u := imageValue(item); u != "" {
				return u
			}
		}
	}
	return ""
}

// locationValue prefers the place name, then its address
func locationValue(v interface{}) string {
	switch loc := v.(type) {
	case string:
		return strings.TrimSpace(loc)
	case map[string]interface{}:
		if name := stringValue(loc["name"]); name != "" {
			return name
		}
		return addressValue(loc["address"])
	case []interface{}:
		for _, item := range loc {
			if s := locationValue(item); s != "" {
				return s
			}
		}
	}
	return ""
}

// addressValue formats a PostalAddress or returns a plain address string
func addressValue(v interface{}) string {
	switch addr := v.(type) {
	case string:
		return strings.TrimSpace(addr)
	case map[string]interface{}:
		var parts []string
		for _, key := range []string{"streetAddress", "addressLocality", "addressRegion", "addressCountry"} {
			part := stringValue(addr[key])
			if part == "" {
				if m, ok := addr[key].(map[string]interface{}); ok {
					part = stringValue(m["name"])
				}
			}
			if part != "" {
				parts = append(parts, part)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func namesValue(v interface{}) []string {
	switch n := v.(type) {
	case string:
		if s := strings.TrimSpace(n); s != "" {
			return []string{s}
		}
	case map[string]interface{}:
		if s := stringValue(n["name"]); s != "" {
			return []string{s}
		}
	case []interface{}:
		var names []string
		for _, item := range n {
			names = append(names, namesValue(item)...)
		}
		return names
	}
	return nil
}

// listValue accepts a comma separated string or a list of strings
func listValue(v interface{}) []string {
	var out []string
	switch l := v.(type) {
	case string:
		for _, part := range strings.Split(l, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	case []interface{}:
		for _, item := range l {
			if s := stringValue(item); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
