package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/models"
)

// ErrRunInProgress is returned by TriggerNow while a run is executing
var ErrRunInProgress = errors.New("pipeline run already in progress")

// ErrNotRunning is returned by TriggerNow before Start or after Stop
var ErrNotRunning = errors.New("scheduler is not running")

const jobName = "event-discovery"

// Service runs the pipeline on a cron schedule. At most one run executes at a
// time; a tick that fires during a run is skipped.
type Service struct {
	runner     interfaces.PipelineRunner
	cron       *cron.Cron
	logger     arbor.ILogger
	runOnStart bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex // protects the fields below
	running      bool
	isProcessing bool
	schedule     string
	entryID      cron.EntryID
	lastRun      *time.Time
	lastStats    *models.RunStats
	lastError    string
}

var _ interfaces.SchedulerService = (*Service)(nil)

// NewService creates a scheduler for runner. With runOnStart a run is
// triggered as soon as the scheduler starts.
func NewService(runner interfaces.PipelineRunner, logger arbor.ILogger, runOnStart bool) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		runner:     runner,
		cron:       cron.New(),
		logger:     logger,
		runOnStart: runOnStart,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins the scheduler with the given 5-field cron expression
func (s *Service) Start(cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if cronExpr == "" {
		cronExpr = "0 2 * * *" // daily at 02:00
	}

	id, err := s.cron.AddFunc(cronExpr, s.runScheduledTask)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.entryID = id
	s.schedule = cronExpr

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", cronExpr).
		Bool("run_on_start", s.runOnStart).
		Msg("Scheduler started")

	if s.runOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runScheduledTask()
		}()
	}

	return nil
}

// Stop halts the scheduler, cancels an in-flight run and waits for it to return
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	cronCtx := s.cron.Stop()
	s.cancel()
	<-cronCtx.Done()
	s.wg.Wait()

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// TriggerNow starts a run in the background unless one is already executing.
// A stopped scheduler refuses with ErrNotRunning.
func (s *Service) TriggerNow() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	if s.isProcessing {
		s.mu.Unlock()
		return ErrRunInProgress
	}
	// registered under mu so Stop's wg.Wait sees it
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.runScheduledTask()
	}()
	return nil
}

// IsRunning returns true if the scheduler is active
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// GetStatus returns the schedule and the outcome of the last run
func (s *Service) GetStatus() *interfaces.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := &interfaces.JobStatus{
		Name:        jobName,
		Enabled:     s.running,
		Schedule:    s.schedule,
		Description: "Discover, enrich and merge events",
		LastRun:     s.lastRun,
		IsRunning:   s.isProcessing,
		LastError:   s.lastError,
	}
	if s.running {
		if next := s.cron.Entry(s.entryID).Next; !next.IsZero() {
			status.NextRun = &next
		}
	}
	return status
}

// LastStats returns the statistics of the last completed run, or nil
func (s *Service) LastStats() *models.RunStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStats
}

func (s *Service) runScheduledTask() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in scheduled run")
			s.finishRun(nil, fmt.Errorf("panic: %v", r))
		}
	}()

	s.mu.Lock()
	if s.isProcessing {
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous run still in progress, skipping this cycle")
		return
	}
	s.isProcessing = true
	s.mu.Unlock()

	s.logger.Info().Msg("Scheduled pipeline run starting")

	stats, err := s.runner.Run(s.ctx)
	s.finishRun(stats, err)

	if err != nil {
		event := s.logger.Error().Err(err)
		logStats(event, stats).Msg("Scheduled pipeline run failed")
		return
	}
	logStats(s.logger.Info(), stats).Msg("Scheduled pipeline run completed")
}

func (s *Service) finishRun(stats *models.RunStats, err error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.isProcessing = false
	s.lastRun = &now
	if stats != nil {
		s.lastStats = stats
	}
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
}

// logStats adds the flattened run statistics to a log event in key order
func logStats(event arbor.ILogEvent, stats *models.RunStats) arbor.ILogEvent {
	if stats == nil {
		return event
	}
	fields := stats.ToMap()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		event = event.Str(k, fmt.Sprint(fields[k]))
	}
	return event
}
