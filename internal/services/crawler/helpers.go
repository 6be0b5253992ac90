package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// createDocument creates a goquery.Document from HTML string
func createDocument(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// extractTextFromDoc tries multiple selectors in priority order and returns the
// text of the first matching element
func extractTextFromDoc(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		text := strings.Join(strings.Fields(doc.Find(selector).First().Text()), " ")
		if text != "" {
			return text
		}
	}
	return ""
}

// extractAttrFromDoc returns attr of the first element matching one of selectors
func extractAttrFromDoc(doc *goquery.Document, selectors []string, attr string) string {
	for _, selector := range selectors {
		if value, exists := doc.Find(selector).First().Attr(attr); exists {
			if value = strings.TrimSpace(value); value != "" {
				return value
			}
		}
	}
	return ""
}

// extractMultipleTextsFromDoc collects text from all matching elements for the
// first selector that matches anything
func extractMultipleTextsFromDoc(doc *goquery.Document, selectors []string) []string {
	textMap := make(map[string]bool)
	var results []string

	for _, selector := range selectors {
		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if text != "" && !textMap[text] {
				textMap[text] = true
				results = append(results, text)
			}
		})
		if len(results) > 0 {
			break
		}
	}

	return results
}

// extractDateFromDoc returns the raw date of the first matching element,
// preferring its datetime attribute over its text
func extractDateFromDoc(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		element := doc.Find(selector).First()
		if element.Length() == 0 {
			continue
		}
		if datetime, exists := element.Attr("datetime"); exists && strings.TrimSpace(datetime) != "" {
			return strings.TrimSpace(datetime)
		}
		if text := strings.Join(strings.Fields(element.Text()), " "); text != "" {
			return text
		}
	}
	return ""
}
