package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/models"
)

// EventsAPI is the subset of the discovery API the engine needs
type EventsAPI interface {
	GetPaginatedEvents(ctx context.Context, partition models.Partition) (*PaginatedEventsResponse, error)
	GetCategoryPage(ctx context.Context) (*models.CategoryInfo, error)
}

// Result is the outcome of one API discovery pass. Records are in catalog
// order, then in the order the API listed them within each partition.
type Result struct {
	Records             []*models.EventRecord
	PartitionsProcessed int
	PartitionsFailed    int
	APICalls            int
	EntriesSkipped      int
	Errors              []string
}

// partitionResult is one worker's output for a single partition
type partitionResult struct {
	records []*models.EventRecord
	skipped int
	err     error
}

// Engine fans discovery queries out across geographic partitions
type Engine struct {
	api      EventsAPI
	enricher interfaces.DetailEnricher
	baseURL  string
	baseTags []string
	workers  int
	logger   arbor.ILogger
}

// NewEngine creates a discovery engine. enricher may be nil to skip detail pages.
// workers bounds how many partitions are queried at once; all of them share the
// API client's pacer, so extra workers never raise the request rate.
func NewEngine(api EventsAPI, enricher interfaces.DetailEnricher, baseURL string, baseTags []string, workers int, logger arbor.ILogger) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		api:      api,
		enricher: enricher,
		baseURL:  baseURL,
		baseTags: baseTags,
		workers:  workers,
		logger:   logger,
	}
}

// Discover queries every partition and returns the normalized records. A failing
// partition is logged, counted and skipped. The error is non-nil only when ctx
// ends first; the partial result is still returned.
func (e *Engine) Discover(ctx context.Context, partitions []models.Partition) (*Result, error) {
	startTime := time.Now()
	results := make([]*partitionResult, len(partitions))

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := e.workers
	if workers > len(partitions) {
		workers = len(partitions)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					continue
				}
				results[idx] = e.processPartition(ctx, idx, len(partitions), partitions[idx])
			}
		}()
	}

dispatch:
	for idx := range partitions {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	result := &Result{}
	for idx, pr := range results {
		if pr == nil {
			continue
		}
		result.APICalls++
		result.EntriesSkipped += pr.skipped
		if pr.err != nil {
			result.PartitionsFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("partition %s: %v", partitions[idx].Name, pr.err))
			continue
		}
		result.PartitionsProcessed++
		result.Records = append(result.Records, pr.records...)
	}

	e.logger.Info().
		Int("partitions", len(partitions)).
		Int("processed", result.PartitionsProcessed).
		Int("failed", result.PartitionsFailed).
		Int("records", len(result.Records)).
		Dur("duration", time.Since(startTime)).
		Msg("API discovery complete")

	return result, ctx.Err()
}

// DiscoverCategory returns the category page summary used to plan browser seeds
func (e *Engine) DiscoverCategory(ctx context.Context) (*models.CategoryInfo, error) {
	info, err := e.api.GetCategoryPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load category page: %w", err)
	}

	e.logger.Info().
		Int("event_count", info.EventCount).
		Int("calendars", len(info.Calendars)).
		Msg("Category page loaded")

	return info, nil
}

func (e *Engine) processPartition(ctx context.Context, idx, total int, partition models.Partition) *partitionResult {
	e.logger.Info().
		Str("partition", partition.Name).
		Str("progress", fmt.Sprintf("%d/%d", idx+1, total)).
		Msg("Querying partition")

	resp, err := e.api.GetPaginatedEvents(ctx, partition)
	if err != nil {
		e.logger.Warn().Err(err).Str("partition", partition.Name).Msg("Partition query failed, skipping")
		return &partitionResult{err: err}
	}

	pr := &partitionResult{}
	for i := range resp.Entries {
		entry := &resp.Entries[i]

		record, err := ParseEntry(entry, partition.Name, e.baseURL, e.baseTags)
		if err != nil {
			pr.skipped++
			e.logger.Debug().Err(err).Str("partition", partition.Name).Int("index", i).Msg("Skipping entry")
			continue
		}

		if e.enricher != nil && record.Slug != "" {
			if detail, ok := e.enricher.Enrich(ctx, record.Slug); ok {
				ApplyDetail(record, detail)
			}
		}

		pr.records = append(pr.records, record)
	}

	e.logger.Debug().
		Str("partition", partition.Name).
		Int("entries", len(resp.Entries)).
		Int("records", len(pr.records)).
		Msg("Partition processed")

	return pr
}
