package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/common"
	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/models"
	"github.com/ternarybob/venator/internal/services/crawler"
	"github.com/ternarybob/venator/internal/services/merge"
)

// Phase names accepted in Options.Phases
const (
	PhaseAPI = "api"
	PhaseWeb = "web"
)

// ErrRunInProgress is returned when Run is called while another run is active
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// Merger joins both discovery paths into the store
type Merger interface {
	Merge(ctx context.Context, apiRecords, webRecords []*models.EventRecord) (*merge.Result, error)
}

// Options configures the orchestrator
type Options struct {
	Phases     []string
	RunTimeout time.Duration // soft limit on the discovery phases; zero disables it
	Partitions []models.Partition
	Seeds      crawler.SeedPlan // Category is filled in per run
	FilterAPI  bool             // apply the relevance filter to API records too
}

// Orchestrator sequences one run: API discovery, browser crawl, relevance
// filtering and the final merge, collecting statistics along the way
type Orchestrator struct {
	factory  ComponentFactory
	filter   interfaces.RelevanceFilter
	merger   Merger
	runs     interfaces.RunStorage  // may be nil
	recorder interfaces.RunRecorder // may be nil
	opts     Options
	logger   arbor.ILogger
	running  atomic.Bool
}

var _ interfaces.PipelineRunner = (*Orchestrator)(nil)

// NewOrchestrator creates an orchestrator. runs and recorder may be nil.
func NewOrchestrator(factory ComponentFactory, filter interfaces.RelevanceFilter, merger Merger, runs interfaces.RunStorage, recorder interfaces.RunRecorder, opts Options, logger arbor.ILogger) *Orchestrator {
	if len(opts.Phases) == 0 {
		opts.Phases = []string{PhaseAPI, PhaseWeb}
	}
	return &Orchestrator{
		factory:  factory,
		filter:   filter,
		merger:   merger,
		runs:     runs,
		recorder: recorder,
		opts:     opts,
		logger:   logger,
	}
}

// Run executes one pipeline run. Discovery is bounded by the run timeout; the
// merge always runs on ctx so a timed-out run still persists what it found.
// When ctx is cancelled before the merge nothing is written. The returned
// statistics are never nil.
func (o *Orchestrator) Run(ctx context.Context) (*models.RunStats, error) {
	runID := common.NewRunID()
	stats := models.NewRunStats(runID, o.opts.Phases)

	if !o.running.CompareAndSwap(false, true) {
		stats.Status = models.RunStatusFailed
		stats.RecordError(ErrRunInProgress.Error())
		stats.Finish()
		return stats, ErrRunInProgress
	}
	defer o.running.Store(false)

	logger := common.RunLogger(o.logger, runID)
	logger.Info().Strs("phases", o.opts.Phases).Msg("Pipeline run started")

	components, err := o.factory.NewRunComponents(runID, logger)
	if err != nil {
		return o.fail(ctx, logger, stats, fmt.Errorf("failed to build run components: %w", err))
	}
	defer components.Close()

	discoveryCtx := ctx
	if o.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		discoveryCtx, cancel = context.WithTimeout(ctx, o.opts.RunTimeout)
		defer cancel()
	}

	var apiRecords, webRecords []*models.EventRecord
	knownSlugs := make(map[string]string)

	if o.hasPhase(PhaseAPI) {
		apiRecords = o.runAPIPhase(discoveryCtx, logger, components, stats)
		for _, r := range apiRecords {
			if r.Slug != "" {
				knownSlugs[r.Slug] = r.ExternalID
			}
		}
		if o.opts.FilterAPI {
			var excluded int
			apiRecords, excluded = o.applyFilter(apiRecords)
			stats.RelevanceFiltered += excluded
		}
	}

	if o.hasPhase(PhaseWeb) {
		if discoveryCtx.Err() == nil {
			webRecords = o.runWebPhase(discoveryCtx, logger, components, knownSlugs, stats)
			var excluded int
			webRecords, excluded = o.applyFilter(webRecords)
			stats.RelevanceFiltered += excluded
		} else {
			stats.RecordError("web phase skipped: run timeout reached")
			logger.Warn().Msg("Run timeout reached before the web phase, skipping it")
		}
	}

	if err := ctx.Err(); err != nil {
		return o.fail(ctx, logger, stats, fmt.Errorf("run cancelled before merge: %w", err))
	}

	result, err := o.merger.Merge(ctx, apiRecords, webRecords)
	if result != nil {
		stats.InvalidRecords = result.Invalid
		stats.DuplicatesPrevented = result.Duplicates
	}
	if err != nil {
		return o.fail(ctx, logger, stats, err)
	}
	stats.Saved = result.Saved

	if stats.ErrorCount > 0 && stats.Saved == 0 {
		stats.Status = models.RunStatusDegraded
	} else {
		stats.Status = models.RunStatusSuccess
	}
	o.complete(ctx, logger, stats)

	return stats, nil
}

// IsRunning reports whether a run is in progress
func (o *Orchestrator) IsRunning() bool {
	return o.running.Load()
}

func (o *Orchestrator) runAPIPhase(ctx context.Context, logger arbor.ILogger, components *RunComponents, stats *models.RunStats) []*models.EventRecord {
	logger.Info().Int("partitions", len(o.opts.Partitions)).Msg("API discovery phase started")

	result, err := components.Discoverer.Discover(ctx, o.opts.Partitions)
	if result != nil {
		stats.PartitionsProcessed = result.PartitionsProcessed
		stats.PartitionsFailed = result.PartitionsFailed
		stats.APICalls = result.APICalls
		stats.EntriesSkipped = result.EntriesSkipped
		stats.APIRecordsFound = len(result.Records)
		for _, msg := range result.Errors {
			stats.RecordError(msg)
		}
	}
	if err != nil {
		stats.RecordError(fmt.Sprintf("api discovery interrupted: %v", err))
		logger.Warn().Err(err).Msg("API discovery interrupted, keeping partial results")
	}

	if components.Enrichment != nil {
		stats.DetailFetches, stats.DetailMisses = components.Enrichment.Stats()
	}

	if result == nil {
		return nil
	}
	return result.Records
}

func (o *Orchestrator) runWebPhase(ctx context.Context, logger arbor.ILogger, components *RunComponents, knownSlugs map[string]string, stats *models.RunStats) []*models.EventRecord {
	plan := o.opts.Seeds
	if plan.UseCalendars || plan.CategorySlug != "" {
		category, err := components.Discoverer.DiscoverCategory(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("Category page unavailable, crawling without calendar seeds")
		} else {
			plan.Category = category
		}
	}

	seeds := crawler.PlanSeeds(plan)
	if len(seeds) == 0 {
		logger.Info().Msg("No browser seeds planned, skipping web phase")
		return nil
	}
	logger.Info().Int("seeds", len(seeds)).Msg("Browser crawl phase started")

	webCrawler, err := components.StartCrawler(ctx)
	if err != nil {
		stats.RecordError(fmt.Sprintf("browser start failed: %v", err))
		logger.Error().Err(err).Msg("Failed to start browser, skipping web phase")
		return nil
	}

	result, err := webCrawler.Crawl(ctx, seeds, knownSlugs)
	if result != nil {
		stats.SeedsProcessed = result.SeedsProcessed
		stats.SeedsFailed = result.SeedsFailed
		stats.LinksDiscovered = result.LinksDiscovered
		stats.PagesFailed = result.PagesFailed
		stats.WebRecordsFound = len(result.Records)
		stats.WebIDsFromAPI = result.IDsFromAPI
		for _, msg := range result.Errors {
			stats.RecordError(msg)
		}
	}
	if err != nil {
		stats.RecordError(fmt.Sprintf("browser crawl interrupted: %v", err))
		logger.Warn().Err(err).Msg("Browser crawl interrupted, keeping partial results")
	}

	if result == nil {
		return nil
	}
	return result.Records
}

func (o *Orchestrator) applyFilter(records []*models.EventRecord) ([]*models.EventRecord, int) {
	if o.filter == nil {
		return records, 0
	}
	return o.filter.Apply(records)
}

func (o *Orchestrator) hasPhase(phase string) bool {
	for _, p := range o.opts.Phases {
		if p == phase {
			return true
		}
	}
	return false
}

// fail marks the run failed, records it and returns err
func (o *Orchestrator) fail(ctx context.Context, logger arbor.ILogger, stats *models.RunStats, err error) (*models.RunStats, error) {
	stats.Status = models.RunStatusFailed
	stats.RecordError(err.Error())
	o.complete(ctx, logger, stats)
	return stats, err
}

// complete stamps the end of the run, persists its statistics and reports them
func (o *Orchestrator) complete(ctx context.Context, logger arbor.ILogger, stats *models.RunStats) {
	stats.Finish()

	if o.runs != nil {
		if err := o.runs.SaveRun(context.WithoutCancel(ctx), stats); err != nil {
			logger.Warn().Err(err).Msg("Failed to save run statistics")
		}
	}
	if o.recorder != nil {
		o.recorder.RecordRun(stats)
	}

	logger.Info().
		Str("status", string(stats.Status)).
		Int("saved", stats.Saved).
		Int("duplicates", stats.DuplicatesPrevented).
		Int("filtered", stats.RelevanceFiltered).
		Int("errors", stats.ErrorCount).
		Dur("runtime", stats.Runtime).
		Msg("Pipeline run finished")
}
