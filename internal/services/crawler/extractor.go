package crawler

import (
	"errors"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/venator/internal/common"
	"github.com/ternarybob/venator/internal/models"
	"github.com/ternarybob/venator/internal/services/jsonld"
	"github.com/ternarybob/venator/internal/services/transform"
)

// ErrNoTitle is returned for pages that do not look like an event page
var ErrNoTitle = errors.New("page has no event title")

var (
	titleSelectors       = []string{"h1", "header h1"}
	descriptionSelectors = []string{"div.event-description", "div.description"}
	dateSelectors        = []string{"time", "div .event-date", ".event-date"}
	venueSelectors       = []string{".venue", ".location", "address"}
	organizerSelectors   = []string{".organizer", "a.host"}
	imageSelectors       = []string{"img.cover", "img.event-cover", ".event-image img"}
	ticketSelectors      = []string{"a.ticket-link", "a[href*='ticket']", "a[href*='register']"}
	tagSelectors         = []string{".event-tags a", ".tags a", ".tag", ".category"}
)

// Extractor builds event records from rendered event pages: structured data
// first, then CSS fallbacks, then the page title
type Extractor struct {
	baseURL   string
	baseTags  []string
	transform *transform.Service
}

// NewExtractor creates an extractor. Relative image and ticket URLs resolve against baseURL.
func NewExtractor(baseURL string, baseTags []string, transformService *transform.Service) *Extractor {
	return &Extractor{
		baseURL:   strings.TrimRight(baseURL, "/"),
		baseTags:  baseTags,
		transform: transformService,
	}
}

// Extract parses html fetched from pageURL. The record's id is pageURL; the
// caller replaces it when the slug is known from the API.
func (e *Extractor) Extract(html string, pageURL string) (*models.EventRecord, error) {
	doc, err := createDocument(html)
	if err != nil {
		return nil, err
	}

	record := &models.EventRecord{
		ExternalID: pageURL,
		Slug:       common.SlugFromURL(pageURL),
		Source:     models.SourceWeb,
		ScrapedAt:  time.Now().UTC(),
	}

	var keywords []string
	if detail := jsonld.ExtractDetail(jsonld.FindEvent(doc)); detail != nil {
		record.Title = detail.Title
		record.Description = detail.Description
		record.RawDateText = detail.StartDate
		record.EndTime = common.NormalizeDateTime(detail.EndDate)
		record.Venue = detail.Venue
		record.Organizer = detail.Organizer
		record.ImageURL = detail.ImageURL
		if common.IsAbsoluteURL(detail.URL) {
			record.TicketURL = detail.URL
		}
		keywords = detail.Keywords
	}

	e.applyFallbacks(doc, record)

	if record.Title == "" {
		return nil, ErrNoTitle
	}

	if e.transform != nil {
		record.Description = e.transform.CleanDescription(record.Description)
	}
	record.DateTime = common.NormalizeDateTime(record.RawDateText)
	if record.ImageURL != "" {
		record.ImageURL = common.ResolveURL(e.baseURL, record.ImageURL)
	}
	if record.TicketURL == "" {
		record.TicketURL = pageURL
	} else {
		record.TicketURL = common.ResolveURL(e.baseURL, record.TicketURL)
	}

	record.AddTags(e.baseTags...)
	record.AddTags(models.TagWebScraped)
	record.AddTags(keywords...)
	if len(keywords) == 0 {
		record.AddTags(extractMultipleTextsFromDoc(doc, tagSelectors)...)
	}

	return record, nil
}

// applyFallbacks fills fields the structured data left empty from the page markup
func (e *Extractor) applyFallbacks(doc *goquery.Document, record *models.EventRecord) {
	if record.Title == "" {
		record.Title = extractTextFromDoc(doc, titleSelectors)
	}
	if record.Title == "" {
		record.Title = extractAttrFromDoc(doc, []string{"meta[property='og:title']"}, "content")
	}
	if record.Title == "" {
		record.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	if record.Description == "" {
		if sel := firstMatch(doc, descriptionSelectors); sel != nil {
			record.Description, _ = sel.Html()
		}
	}
	if record.Description == "" {
		record.Description = extractAttrFromDoc(doc, []string{"meta[name='description']", "meta[property='og:description']"}, "content")
	}

	if record.RawDateText == "" {
		record.RawDateText = extractDateFromDoc(doc, dateSelectors)
	}
	if record.Venue == "" {
		record.Venue = extractTextFromDoc(doc, venueSelectors)
	}
	if record.Organizer == "" {
		record.Organizer = extractTextFromDoc(doc, organizerSelectors)
	}
	if record.ImageURL == "" {
		record.ImageURL = extractAttrFromDoc(doc, imageSelectors, "src")
	}
	if record.ImageURL == "" {
		record.ImageURL = extractAttrFromDoc(doc, []string{"meta[property='og:image']"}, "content")
	}
	if record.TicketURL == "" {
		record.TicketURL = extractAttrFromDoc(doc, ticketSelectors, "href")
	}
}

func firstMatch(doc *goquery.Document, selectors []string) *goquery.Selection {
	for _, selector := range selectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}
