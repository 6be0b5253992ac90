package interfaces

import (
	"context"

	"github.com/ternarybob/venator/internal/models"
)

// EventQuery filters stored events for the read API.
// Status is one of "upcoming", "ended", "ongoing" or empty for all.
type EventQuery struct {
	Search   string
	Location string
	Status   string
	Limit    int
	Skip     int
}

// EventStorage persists event records keyed by external id
type EventStorage interface {
	// ListIDs returns every external id currently stored
	ListIDs(ctx context.Context) ([]string, error)
	// SaveAll upserts all records in one atomic write; on error nothing is written
	SaveAll(ctx context.Context, records []*models.EventRecord) error
	GetEvent(ctx context.Context, externalID string) (*models.EventRecord, error)
	QueryEvents(ctx context.Context, query *EventQuery) ([]*models.EventRecord, error)
	CountEvents(ctx context.Context) (int, error)
	CountBySource(ctx context.Context, source models.Source) (int, error)
}
