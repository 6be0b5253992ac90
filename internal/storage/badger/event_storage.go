package badger

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/venator/internal/common"
	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/models"
)

// Event status filters accepted by QueryEvents
const (
	StatusUpcoming = "upcoming"
	StatusEnded    = "ended"
	StatusOngoing  = "ongoing"
)

// EventStorage implements the EventStorage interface for Badger.
// Records are keyed by external id.
type EventStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
	now    func() time.Time
}

// NewEventStorage creates a new EventStorage instance
func NewEventStorage(db *BadgerDB, logger arbor.ILogger) interfaces.EventStorage {
	return &EventStorage{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// ListIDs returns every stored external id
func (s *EventStorage) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.Store().ForEach(nil, func(record *models.EventRecord) error {
		ids = append(ids, record.ExternalID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list event ids: %w", err)
	}
	return ids, nil
}

// SaveAll upserts records inside a single badger transaction. Either every
// record is written or, on error, none is.
func (s *EventStorage) SaveAll(ctx context.Context, records []*models.EventRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	for _, record := range records {
		if record == nil || record.ExternalID == "" {
			return fmt.Errorf("event external id is required")
		}
	}

	err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		for _, record := range records {
			if err := s.db.Store().TxUpsert(txn, record.ExternalID, record); err != nil {
				return fmt.Errorf("failed to upsert event %s: %w", record.ExternalID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save events: %w", err)
	}

	s.logger.Debug().Int("count", len(records)).Msg("Events saved")
	return nil
}

// GetEvent returns the record stored under externalID
func (s *EventStorage) GetEvent(ctx context.Context, externalID string) (*models.EventRecord, error) {
	var record models.EventRecord
	if err := s.db.Store().Get(externalID, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &record, nil
}

// QueryEvents returns records matching query, ordered by start date ascending.
// Search matches title, description, venue and organizer case-insensitively;
// Location matches the venue.
func (s *EventStorage) QueryEvents(ctx context.Context, query *interfaces.EventQuery) ([]*models.EventRecord, error) {
	if query == nil {
		query = &interfaces.EventQuery{}
	}

	bq, err := buildSearchQuery(query.Search)
	if err != nil {
		return nil, err
	}

	var records []models.EventRecord
	if err := s.db.Store().Find(&records, bq); err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	var locationRe *regexp.Regexp
	if loc := strings.TrimSpace(query.Location); loc != "" {
		locationRe = regexp.MustCompile("(?i)" + regexp.QuoteMeta(loc))
	}

	now := s.now().UTC()
	var result []*models.EventRecord
	for i := range records {
		record := &records[i]
		if locationRe != nil && !locationRe.MatchString(record.Venue) {
			continue
		}
		if query.Status != "" && eventStatus(record, now) != query.Status {
			continue
		}
		result = append(result, record)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DateTime < result[j].DateTime
	})

	if query.Skip > 0 {
		if query.Skip >= len(result) {
			return []*models.EventRecord{}, nil
		}
		result = result[query.Skip:]
	}
	if query.Limit > 0 && len(result) > query.Limit {
		result = result[:query.Limit]
	}

	return result, nil
}

// CountEvents returns the number of stored records
func (s *EventStorage) CountEvents(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.EventRecord{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return int(count), nil
}

// CountBySource returns the number of stored records produced by source
func (s *EventStorage) CountBySource(ctx context.Context, source models.Source) (int, error) {
	count, err := s.db.Store().Count(&models.EventRecord{}, badgerhold.Where("Source").Eq(source))
	if err != nil {
		return 0, fmt.Errorf("failed to count events by source: %w", err)
	}
	return int(count), nil
}

func buildSearchQuery(search string) (*badgerhold.Query, error) {
	search = strings.TrimSpace(search)
	if search == "" {
		return nil, nil
	}

	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(search))
	if err != nil {
		return nil, fmt.Errorf("invalid search: %w", err)
	}

	return badgerhold.Where("Title").RegExp(re).
		Or(badgerhold.Where("Description").RegExp(re)).
		Or(badgerhold.Where("Venue").RegExp(re)).
		Or(badgerhold.Where("Organizer").RegExp(re)), nil
}

// eventStatus classifies a record against now. Records whose start date
// cannot be parsed have no status.
func eventStatus(record *models.EventRecord, now time.Time) string {
	start, ok := common.ParseDateTime(record.DateTime)
	if !ok {
		return ""
	}
	end, ok := common.ParseDateTime(record.EndTime)
	if !ok {
		end = start
	}

	switch {
	case now.Before(start):
		return StatusUpcoming
	case now.After(end):
		return StatusEnded
	default:
		return StatusOngoing
	}
}
