package app

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/common"
	"github.com/ternarybob/venator/internal/handlers"
	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/models"
	"github.com/ternarybob/venator/internal/services/crawler"
	"github.com/ternarybob/venator/internal/services/discovery"
	"github.com/ternarybob/venator/internal/services/merge"
	"github.com/ternarybob/venator/internal/services/metrics"
	"github.com/ternarybob/venator/internal/services/pipeline"
	"github.com/ternarybob/venator/internal/services/relevance"
	"github.com/ternarybob/venator/internal/services/scheduler"
	"github.com/ternarybob/venator/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Pipeline
	Orchestrator     *pipeline.Orchestrator
	SchedulerService interfaces.SchedulerService // nil when scheduling is disabled
	Metrics          *metrics.Collector          // nil when metrics are disabled

	// HTTP handlers
	APIHandler   *handlers.APIHandler
	EventHandler *handlers.EventHandler
	RunHandler   *handlers.RunHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.StorageManager.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Strs("phases", cfg.PhaseList()).
		Bool("scheduler", app.SchedulerService != nil).
		Bool("metrics", app.Metrics != nil).
		Msg("Application initialized")

	return app, nil
}

func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices builds the pipeline: relevance filter, deduplicator, component
// factory and orchestrator, then the metrics collector and scheduler around it
func (a *App) initServices() error {
	cfg := a.Config

	partitions, err := discovery.LoadPartitions(cfg.Discovery.PartitionsFile)
	if err != nil {
		return err
	}

	ignored := append([]string{models.TagAPISourced, models.TagWebScraped}, cfg.Discovery.BaseTags...)
	filter := relevance.NewFilter(cfg.Relevance.Keywords, ignored, a.Logger)
	deduplicator := merge.NewDeduplicator(a.StorageManager.EventStorage(), a.Logger)

	var recorder interfaces.RunRecorder
	if cfg.Metrics.Enabled {
		a.Metrics = metrics.NewCollector(cfg.Metrics.Namespace)
		recorder = a.Metrics
	}

	a.Orchestrator = pipeline.NewOrchestrator(
		pipeline.NewFactory(cfg),
		filter,
		deduplicator,
		a.StorageManager.RunStorage(),
		recorder,
		pipeline.Options{
			Phases:     cfg.PhaseList(),
			RunTimeout: common.ParseDurationOrDefault(cfg.Pipeline.RunTimeout, 2*time.Hour),
			Partitions: partitions,
			Seeds: crawler.SeedPlan{
				BaseURL:          cfg.Platform.WebBaseURL,
				CategorySlug:     cfg.Platform.CategorySlug,
				UseCalendars:     cfg.Crawler.UseCalendarSeeds,
				MaxCalendarSeeds: cfg.Crawler.MaxCalendarSeeds,
				SearchTerms:      cfg.Crawler.SearchTerms,
				ExtraSeeds:       cfg.Crawler.ExtraSeeds,
			},
			FilterAPI: cfg.Relevance.ApplyToAPI,
		},
		a.Logger,
	)

	if cfg.Scheduler.Enabled {
		a.SchedulerService = scheduler.NewService(a.Orchestrator, a.Logger, cfg.Scheduler.RunOnStart)
	}

	a.Logger.Debug().Int("partitions", len(partitions)).Msg("Pipeline services initialized")
	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	a.EventHandler = handlers.NewEventHandler(a.StorageManager.EventStorage(), a.Logger)
	a.RunHandler = handlers.NewRunHandler(a.StorageManager.RunStorage(), a.SchedulerService, a.Logger)
}

// StartScheduler starts the cron scheduler when it is enabled
func (a *App) StartScheduler() error {
	if a.SchedulerService == nil {
		return nil
	}
	return a.SchedulerService.Start(a.Config.Scheduler.Schedule)
}

// Close stops the scheduler and closes storage
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
