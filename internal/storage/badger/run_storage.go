package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/models"
)

// RunStorage implements the RunStorage interface for Badger
type RunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRunStorage creates a new RunStorage instance
func NewRunStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RunStorage {
	return &RunStorage{
		db:     db,
		logger: logger,
	}
}

// SaveRun inserts or replaces the statistics of a run
func (s *RunStorage) SaveRun(ctx context.Context, stats *models.RunStats) error {
	if stats == nil || stats.RunID == "" {
		return fmt.Errorf("run ID is required")
	}
	if err := s.db.Store().Upsert(stats.RunID, stats); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetLastRun returns the most recently started run
func (s *RunStorage) GetLastRun(ctx context.Context) (*models.RunStats, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, interfaces.ErrRunNotFound
	}
	return runs[0], nil
}

// ListRuns returns up to limit runs ordered by start time, newest first
func (s *RunStorage) ListRuns(ctx context.Context, limit int) ([]*models.RunStats, error) {
	query := badgerhold.Where("RunID").Ne("").SortBy("StartedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []models.RunStats
	if err := s.db.Store().Find(&runs, query); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	result := make([]*models.RunStats, len(runs))
	for i := range runs {
		result[i] = &runs[i]
	}
	return result, nil
}
