package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/common"
	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/models"
	"github.com/ternarybob/venator/internal/services/fetcher"
)

// Options controls the browser crawl
type Options struct {
	BaseURL               string
	PageSettle            time.Duration
	ScrollPause           time.Duration
	LoadMorePause         time.Duration
	StableChecks          int
	ScrollTimeout         time.Duration
	CategoryScrollTimeout time.Duration
	MaxScrollTimeout      time.Duration
	TargetGrace           time.Duration
	MaxEventsPerSeed      int
}

// OptionsFromConfig maps the crawler configuration section onto Options
func OptionsFromConfig(baseURL string, cfg *common.CrawlerConfig) Options {
	return Options{
		BaseURL:               baseURL,
		PageSettle:            common.ParseDurationOrDefault(cfg.PageSettle, 2*time.Second),
		ScrollPause:           common.ParseDurationOrDefault(cfg.ScrollPause, 2*time.Second),
		LoadMorePause:         2 * time.Second,
		StableChecks:          cfg.StableChecks,
		ScrollTimeout:         common.ParseDurationOrDefault(cfg.ScrollTimeout, 60*time.Second),
		CategoryScrollTimeout: common.ParseDurationOrDefault(cfg.CategoryScrollTimeout, 120*time.Second),
		MaxScrollTimeout:      common.ParseDurationOrDefault(cfg.MaxScrollTimeout, 180*time.Second),
		TargetGrace:           common.ParseDurationOrDefault(cfg.TargetGrace, 15*time.Second),
		MaxEventsPerSeed:      cfg.MaxEventsPerSeed,
	}
}

// Result is the outcome of one browser crawl
type Result struct {
	Records         []*models.EventRecord
	SeedsProcessed  int
	SeedsFailed     int
	LinksDiscovered int
	PagesFailed     int
	IDsFromAPI      int // records that adopted the id of an API record with the same slug
	Errors          []string
}

// Crawler walks discovery pages in a browser, collects event links and
// extracts a record from each event page
type Crawler struct {
	page      Page
	policy    interfaces.LinkPolicy
	extractor *Extractor
	scroller  *Scroller
	limiter   *fetcher.RateLimiter
	opts      Options
	logger    arbor.ILogger
}

// NewCrawler creates a crawler driving page. limiter paces page visits and may be nil.
func NewCrawler(page Page, policy interfaces.LinkPolicy, extractor *Extractor, limiter *fetcher.RateLimiter, opts Options, logger arbor.ILogger) *Crawler {
	if opts.StableChecks < 1 {
		opts.StableChecks = 4
	}
	return &Crawler{
		page:      page,
		policy:    policy,
		extractor: extractor,
		scroller:  NewScroller(logger),
		limiter:   limiter,
		opts:      opts,
		logger:    logger,
	}
}

// Crawl processes seeds in order. knownSlugs maps slugs found by the API phase
// to their external ids. A failing seed or event page is logged, counted and
// skipped; the error is non-nil only when ctx ends first.
func (c *Crawler) Crawl(ctx context.Context, seeds []models.Seed, knownSlugs map[string]string) (*Result, error) {
	result := &Result{}
	seen := make(map[string]bool)

	for i, seed := range seeds {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		c.logger.Info().
			Str("seed", seed.URL).
			Str("kind", string(seed.Kind)).
			Str("progress", fmt.Sprintf("%d/%d", i+1, len(seeds))).
			Msg("Crawling seed")

		links, err := c.collectLinks(ctx, seed)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.SeedsFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("seed %s: %v", seed.URL, err))
			c.logger.Warn().Err(err).Str("seed", seed.URL).Msg("Seed failed, continuing with next seed")
			continue
		}
		result.SeedsProcessed++

		visited := 0
		for _, link := range links {
			if seen[link] {
				continue
			}
			if c.opts.MaxEventsPerSeed > 0 && visited >= c.opts.MaxEventsPerSeed {
				break
			}
			seen[link] = true
			visited++
			result.LinksDiscovered++

			record, err := c.extractEvent(ctx, link)
			if err != nil {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				result.PagesFailed++
				c.logger.Debug().Err(err).Str("url", link).Msg("Failed to extract event page")
				continue
			}

			if id, ok := knownSlugs[record.Slug]; ok && record.Slug != "" {
				record.ExternalID = id
				result.IDsFromAPI++
			}
			record.DiscoveryLocation = seedLocation(seed)
			result.Records = append(result.Records, record)
		}

		c.logger.Debug().
			Str("seed", seed.URL).
			Int("links", len(links)).
			Int("visited", visited).
			Msg("Seed complete")
	}

	c.logger.Info().
		Int("seeds", len(seeds)).
		Int("seeds_failed", result.SeedsFailed).
		Int("links", result.LinksDiscovered).
		Int("records", len(result.Records)).
		Msg("Browser crawl complete")

	return result, nil
}

// collectLinks loads a seed page fully and returns its event links
func (c *Crawler) collectLinks(ctx context.Context, seed models.Seed) ([]string, error) {
	if err := c.visit(ctx, seed.URL); err != nil {
		return nil, err
	}

	budget := c.budgetFor(seed)
	if _, err := c.scroller.Scroll(ctx, c.page, ScrollOptions{
		Pause:         c.opts.ScrollPause,
		LoadMorePause: c.opts.LoadMorePause,
		StableChecks:  c.opts.StableChecks,
		Budget:        budget,
		MaxBudget:     maxDuration(budget, c.opts.MaxScrollTimeout),
		TargetCount:   seed.ExpectedCount,
		Grace:         c.opts.TargetGrace,
	}); err != nil {
		return nil, fmt.Errorf("scroll failed: %w", err)
	}

	html, err := c.page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}

	links, found, err := ExtractEventLinks(html, seed.URL, c.policy)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("seed", seed.URL).
		Int("anchors", found).
		Int("event_links", len(links)).
		Msg("Links classified")

	return links, nil
}

func (c *Crawler) extractEvent(ctx context.Context, link string) (*models.EventRecord, error) {
	if err := c.visit(ctx, link); err != nil {
		return nil, err
	}
	html, err := c.page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	return c.extractor.Extract(html, link)
}

// visit paces, navigates and waits for client rendering
func (c *Crawler) visit(ctx context.Context, url string) error {
	if err := c.limiter.Wait(ctx, url); err != nil {
		return err
	}
	if err := c.page.Navigate(ctx, url); err != nil {
		return err
	}
	return sleepContext(ctx, c.opts.PageSettle)
}

// budgetFor returns the scroll budget of a seed: category pages get the extended
// budget, calendars scale with their event count between 20s and 60s
func (c *Crawler) budgetFor(seed models.Seed) time.Duration {
	switch seed.Kind {
	case models.SeedKindCategory:
		return c.opts.CategoryScrollTimeout
	case models.SeedKindCalendar:
		budget := time.Duration(seed.ExpectedCount) * 2 * time.Second
		if budget < 20*time.Second {
			budget = 20 * time.Second
		}
		if budget > 60*time.Second {
			budget = 60 * time.Second
		}
		return budget
	default:
		return c.opts.ScrollTimeout
	}
}

func seedLocation(seed models.Seed) string {
	if seed.Name != "" {
		return "web:" + seed.Name
	}
	return "web:" + string(seed.Kind)
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
