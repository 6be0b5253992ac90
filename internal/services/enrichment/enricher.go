package enrichment

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/common"
	"github.com/ternarybob/venator/internal/models"
	"github.com/ternarybob/venator/internal/services/jsonld"
	"github.com/ternarybob/venator/internal/services/transform"
)

// PageFetcher fetches an HTML page
type PageFetcher interface {
	GetHTML(ctx context.Context, rawURL string) (string, error)
}

// cacheEntry holds one slug's outcome; detail is nil when the page had no usable data
type cacheEntry struct {
	once   sync.Once
	detail *models.EventDetail
}

// Enricher fetches event pages over plain HTTP and extracts their structured data.
// Results, including failures, are cached per slug for the lifetime of the Enricher,
// so one Enricher is created per run. Safe for concurrent use; concurrent callers
// for the same slug share a single fetch.
type Enricher struct {
	fetcher   PageFetcher
	transform *transform.Service
	baseURL   string
	logger    arbor.ILogger

	mu    sync.Mutex
	cache map[string]*cacheEntry

	fetches int64
	misses  int64
}

// NewEnricher creates an enricher for pages under baseURL
func NewEnricher(fetcher PageFetcher, transformService *transform.Service, baseURL string, logger arbor.ILogger) *Enricher {
	return &Enricher{
		fetcher:   fetcher,
		transform: transformService,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
		cache:     make(map[string]*cacheEntry),
	}
}

// Enrich returns the detail for slug, fetching the page at most once.
// Fetch and parse failures are logged and reported as ok=false, never returned.
func (e *Enricher) Enrich(ctx context.Context, slug string) (*models.EventDetail, bool) {
	slug = strings.Trim(strings.TrimSpace(slug), "/")
	if slug == "" {
		return nil, false
	}

	e.mu.Lock()
	entry, exists := e.cache[slug]
	if !exists {
		entry = &cacheEntry{}
		e.cache[slug] = entry
	}
	e.mu.Unlock()

	entry.once.Do(func() {
		entry.detail = e.fetch(ctx, slug)
	})

	return entry.detail, entry.detail != nil
}

// Stats returns how many pages were fetched and how many yielded no detail
func (e *Enricher) Stats() (fetches int, misses int) {
	return int(atomic.LoadInt64(&e.fetches)), int(atomic.LoadInt64(&e.misses))
}

func (e *Enricher) fetch(ctx context.Context, slug string) *models.EventDetail {
	atomic.AddInt64(&e.fetches, 1)
	pageURL := common.EventURL(e.baseURL, slug)

	html, err := e.fetcher.GetHTML(ctx, pageURL)
	if err != nil {
		atomic.AddInt64(&e.misses, 1)
		e.logger.Debug().Err(err).Str("slug", slug).Msg("Failed to fetch event page")
		return nil
	}

	detail := e.ParseDetail(html, slug)
	if detail == nil {
		atomic.AddInt64(&e.misses, 1)
		e.logger.Debug().Str("slug", slug).Msg("No structured event data on page")
	}
	return detail
}

// ParseDetail extracts the event detail from an event page's HTML.
// The description is cleaned and the URL resolved to an absolute ticket URL,
// falling back to the page URL when the block carries none.
func (e *Enricher) ParseDetail(html string, slug string) *models.EventDetail {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	detail := jsonld.ExtractDetail(jsonld.FindEvent(doc))
	if detail == nil {
		return nil
	}

	if e.transform != nil {
		detail.Description = e.transform.CleanDescription(detail.Description)
	}
	if !common.IsAbsoluteURL(detail.URL) {
		detail.URL = common.EventURL(e.baseURL, slug)
	}
	if detail.ImageURL != "" && !common.IsAbsoluteURL(detail.ImageURL) {
		detail.ImageURL = common.ResolveURL(e.baseURL, detail.ImageURL)
	}

	return detail
}
