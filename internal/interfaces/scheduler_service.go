package interfaces

import "time"

// JobStatus represents the current status of the scheduled pipeline job
type JobStatus struct {
	Name        string     `json:"name"`
	Enabled     bool       `json:"enabled"`
	Schedule    string     `json:"schedule"`
	Description string     `json:"description"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	IsRunning   bool       `json:"is_running"`
	LastError   string     `json:"last_error,omitempty"`
}

// SchedulerService manages cron-based scheduling of pipeline runs
type SchedulerService interface {
	// Start the scheduler with a cron expression
	Start(cronExpr string) error

	// Stop the scheduler and wait for an in-flight run to return
	Stop() error

	// TriggerNow starts a run immediately in the background
	TriggerNow() error

	// IsRunning returns true if scheduler is active
	IsRunning() bool

	// GetStatus returns the schedule and the outcome of the last run
	GetStatus() *JobStatus
}
