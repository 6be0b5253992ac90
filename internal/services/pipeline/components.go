package pipeline

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/common"
	"github.com/ternarybob/venator/internal/httpclient"
	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/models"
	"github.com/ternarybob/venator/internal/services/crawler"
	"github.com/ternarybob/venator/internal/services/discovery"
	"github.com/ternarybob/venator/internal/services/enrichment"
	"github.com/ternarybob/venator/internal/services/fetcher"
	"github.com/ternarybob/venator/internal/services/transform"
)

// APIDiscoverer runs the geo-partitioned API discovery
type APIDiscoverer interface {
	Discover(ctx context.Context, partitions []models.Partition) (*discovery.Result, error)
	DiscoverCategory(ctx context.Context) (*models.CategoryInfo, error)
}

// WebCrawler runs the browser fallback crawl
type WebCrawler interface {
	Crawl(ctx context.Context, seeds []models.Seed, knownSlugs map[string]string) (*crawler.Result, error)
}

// EnrichmentStats reports detail page fetches of a run
type EnrichmentStats interface {
	Stats() (fetches int, misses int)
}

// RunComponents are the collaborators of a single run. They are built fresh
// for every run so caches and sessions never outlive it.
type RunComponents struct {
	Discoverer APIDiscoverer
	Enrichment EnrichmentStats // nil when enrichment is disabled

	// StartCrawler launches the browser; it is only called when the web phase runs
	StartCrawler func(ctx context.Context) (WebCrawler, error)

	closers []func()
}

// Close releases everything the run started, in reverse order
func (c *RunComponents) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// ComponentFactory builds the collaborators of a run
type ComponentFactory interface {
	NewRunComponents(runID string, logger arbor.ILogger) (*RunComponents, error)
}

// Factory builds production components from configuration
type Factory struct {
	config *common.Config
}

// NewFactory creates a factory for config
func NewFactory(config *common.Config) *Factory {
	return &Factory{config: config}
}

// NewRunComponents wires the session, fetcher, enricher, API client and browser
// crawler of one run. The session is shared by all of them.
func (f *Factory) NewRunComponents(runID string, logger arbor.ILogger) (*RunComponents, error) {
	cfg := f.config
	webBase := cfg.Platform.WebBaseURL

	session, err := httpclient.NewSession(&cfg.Session, webBase, cfg.Platform.APIBaseURL)
	if err != nil {
		return nil, err
	}

	limiter := fetcher.NewRateLimiter(common.ParseDurationOrDefault(cfg.Discovery.RequestDelay, 300*time.Millisecond))
	retry := fetcher.NewRetryPolicyWithAttempts(cfg.Discovery.MaxAttempts)
	httpFetcher := fetcher.NewFetcher(session, limiter, retry, logger)
	transformService := transform.NewService(logger, cfg.Enrichment.DescriptionFormat, webBase)

	components := &RunComponents{}

	var enricher interfaces.DetailEnricher
	if cfg.Enrichment.Enabled {
		e := enrichment.NewEnricher(httpFetcher, transformService, webBase, logger)
		enricher = e
		components.Enrichment = e
	}

	client := discovery.NewClient(httpFetcher,
		discovery.WithBaseURL(cfg.Platform.APIBaseURL),
		discovery.WithCategory(cfg.Platform.CategorySlug),
		discovery.WithPageLimit(cfg.Discovery.PageLimit),
		discovery.WithLogger(logger),
	)
	components.Discoverer = discovery.NewEngine(client, enricher, webBase, cfg.Discovery.BaseTags, cfg.Discovery.Workers, logger)

	components.StartCrawler = func(ctx context.Context) (WebCrawler, error) {
		browser := crawler.NewBrowser(crawler.BrowserConfig{
			Headless:          cfg.Crawler.Headless,
			NoSandbox:         cfg.Crawler.NoSandbox,
			UserAgent:         session.UserAgent,
			NavigationTimeout: common.ParseDurationOrDefault(cfg.Crawler.NavigationTimeout, 30*time.Second),
		}, session, webBase, logger)
		if err := browser.Start(ctx); err != nil {
			return nil, err
		}
		components.closers = append(components.closers, browser.Close)

		pageLimiter := fetcher.NewJitteredRateLimiter(
			common.ParseDurationOrDefault(cfg.Crawler.DelayMin, 600*time.Millisecond),
			common.ParseDurationOrDefault(cfg.Crawler.DelayMax, 1100*time.Millisecond),
		)
		return crawler.NewCrawler(
			browser.Page(),
			crawler.NewHeuristicLinkPolicy(webBase),
			crawler.NewExtractor(webBase, cfg.Discovery.BaseTags, transformService),
			pageLimiter,
			crawler.OptionsFromConfig(webBase, &cfg.Crawler),
			logger,
		), nil
	}

	logger.Debug().Str("run_id", runID).Bool("enrichment", enricher != nil).Msg("Run components created")

	return components, nil
}
