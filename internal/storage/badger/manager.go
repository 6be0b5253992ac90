package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/common"
	"github.com/ternarybob/venator/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db     *BadgerDB
	events interfaces.EventStorage
	runs   interfaces.RunStorage
	logger arbor.ILogger
}

// NewManager opens the database and creates the storages backed by it
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:     db,
		events: NewEventStorage(db, logger),
		runs:   NewRunStorage(db, logger),
		logger: logger,
	}

	logger.Info().Str("path", config.Path).Msg("Badger storage manager initialized")

	return manager, nil
}

// EventStorage returns the event storage interface
func (m *Manager) EventStorage() interfaces.EventStorage {
	return m.events
}

// RunStorage returns the run statistics storage interface
func (m *Manager) RunStorage() interfaces.RunStorage {
	return m.runs
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
