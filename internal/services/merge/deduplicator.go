package merge

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/models"
)

// Result summarises one merge
type Result struct {
	Saved      int // records written by the final store write
	Duplicates int // candidates whose id was already stored or seen earlier in the run
	Invalid    int // candidates dropped by validation
}

// Deduplicator is the single point that owns external id uniqueness. It joins
// the records of both discovery paths and writes them in one store write.
type Deduplicator struct {
	store  interfaces.EventStorage
	logger arbor.ILogger
}

// NewDeduplicator creates a deduplicator writing to store
func NewDeduplicator(store interfaces.EventStorage, logger arbor.ILogger) *Deduplicator {
	return &Deduplicator{
		store:  store,
		logger: logger,
	}
}

// Merge combines apiRecords then webRecords in discovery order. The known ids
// are read from the store once, when the merge begins, so writes made while
// discovery ran are still seen. A record whose id is already known, either
// from the store or earlier in this call, replaces the held value and counts
// as a duplicate. The merged set is then written atomically; a write failure
// is returned and nothing is saved.
func (d *Deduplicator) Merge(ctx context.Context, apiRecords, webRecords []*models.EventRecord) (*Result, error) {
	stored, err := d.store.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load known event ids: %w", err)
	}

	known := make(map[string]bool, len(stored))
	for _, id := range stored {
		known[id] = true
	}

	result := &Result{}
	index := make(map[string]int)
	var merged []*models.EventRecord

	for _, batch := range [][]*models.EventRecord{apiRecords, webRecords} {
		for _, record := range batch {
			if record == nil {
				result.Invalid++
				continue
			}
			if cleared := record.DropInvalidURLs(); len(cleared) > 0 {
				d.logger.Debug().Strs("fields", cleared).Str("external_id", record.ExternalID).Msg("Cleared malformed URLs")
			}
			if err := record.Validate(); err != nil {
				result.Invalid++
				d.logger.Debug().Err(err).Str("external_id", record.ExternalID).Msg("Dropping invalid record")
				continue
			}

			id := record.ExternalID
			if known[id] {
				result.Duplicates++
			}
			known[id] = true

			if i, ok := index[id]; ok {
				merged[i] = record
				continue
			}
			index[id] = len(merged)
			merged = append(merged, record)
		}
	}

	if err := d.store.SaveAll(ctx, merged); err != nil {
		return result, fmt.Errorf("failed to write merged events: %w", err)
	}
	result.Saved = len(merged)

	d.logger.Info().
		Int("api_candidates", len(apiRecords)).
		Int("web_candidates", len(webRecords)).
		Int("saved", result.Saved).
		Int("duplicates", result.Duplicates).
		Int("invalid", result.Invalid).
		Msg("Merge complete")

	return result, nil
}
