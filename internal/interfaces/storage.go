package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/venator/internal/models"
)

// ErrEventNotFound is returned when no record exists for an external id
var ErrEventNotFound = errors.New("event not found")

// ErrRunNotFound is returned when no run has been recorded yet
var ErrRunNotFound = errors.New("run not found")

// RunStorage keeps the statistics of completed runs
type RunStorage interface {
	SaveRun(ctx context.Context, stats *models.RunStats) error
	GetLastRun(ctx context.Context) (*models.RunStats, error)
	ListRuns(ctx context.Context, limit int) ([]*models.RunStats, error)
}

// StorageManager - interface for managing all storage backends
type StorageManager interface {
	EventStorage() EventStorage
	RunStorage() RunStorage
	Close() error
}
