package interfaces

import (
	"context"

	"github.com/ternarybob/venator/internal/models"
)

// DetailEnricher resolves a slug to the structured detail of its event page.
// ok is false when the page had no usable structured data or could not be fetched.
type DetailEnricher interface {
	Enrich(ctx context.Context, slug string) (detail *models.EventDetail, ok bool)
}

// LinkPolicy decides whether an anchor href on a discovery page points at an event
type LinkPolicy interface {
	IsEventLink(href string) bool
}

// RelevanceFilter decides whether a discovered record belongs in the dataset
type RelevanceFilter interface {
	IsRelevant(record *models.EventRecord) bool
	// Apply returns the relevant records in order and the number excluded
	Apply(records []*models.EventRecord) ([]*models.EventRecord, int)
}

// PipelineRunner executes one full discovery run
type PipelineRunner interface {
	Run(ctx context.Context) (*models.RunStats, error)
}

// RunRecorder receives completed run statistics
type RunRecorder interface {
	RecordRun(stats *models.RunStats)
}
