package models

import (
	"strings"
	"time"
)

// RunStatus summarises how a pipeline run ended
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusSuccess  RunStatus = "success"
	RunStatusDegraded RunStatus = "degraded" // errors occurred and nothing was saved
	RunStatusFailed   RunStatus = "failed"   // final store write did not complete
)

// RunStats is created at run start, mutated by each phase and returned to the caller
type RunStats struct {
	RunID  string    `json:"run_id"`
	Phases []string  `json:"phases"`
	Status RunStatus `json:"status"`

	// API discovery
	PartitionsProcessed int `json:"partitions_processed"`
	PartitionsFailed    int `json:"partitions_failed"`
	APICalls            int `json:"api_calls"`
	EntriesSkipped      int `json:"entries_skipped"`
	DetailFetches       int `json:"detail_fetches"`
	DetailMisses        int `json:"detail_misses"`
	APIRecordsFound     int `json:"api_records_found"`

	// Browser crawl
	SeedsProcessed  int `json:"seeds_processed"`
	SeedsFailed     int `json:"seeds_failed"`
	LinksDiscovered int `json:"links_discovered"`
	PagesFailed     int `json:"pages_failed"`
	WebRecordsFound int `json:"web_records_found"`
	WebIDsFromAPI   int `json:"web_ids_from_api"`

	// Filtering and merge
	RelevanceFiltered   int `json:"relevance_filtered"`
	InvalidRecords      int `json:"invalid_records"`
	DuplicatesPrevented int `json:"duplicates_prevented"`
	Saved               int `json:"saved"`

	ErrorCount int      `json:"error_count"`
	Errors     []string `json:"errors,omitempty"`

	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Runtime    time.Duration `json:"runtime"`
}

// NewRunStats creates statistics for a run starting now
func NewRunStats(runID string, phases []string) *RunStats {
	return &RunStats{
		RunID:     runID,
		Phases:    phases,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
}

// RecordError counts an error and keeps its message for the run summary
func (s *RunStats) RecordError(msg string) {
	s.ErrorCount++
	if len(s.Errors) < 50 {
		s.Errors = append(s.Errors, msg)
	}
}

// Finish stamps the end time and runtime
func (s *RunStats) Finish() {
	s.FinishedAt = time.Now().UTC()
	s.Runtime = s.FinishedAt.Sub(s.StartedAt)
}

// ToMap flattens the statistics into a key/value summary for logging and notification
func (s *RunStats) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"run_id":               s.RunID,
		"phases":               strings.Join(s.Phases, ","),
		"status":               string(s.Status),
		"partitions_processed": s.PartitionsProcessed,
		"partitions_failed":    s.PartitionsFailed,
		"api_calls":            s.APICalls,
		"entries_skipped":      s.EntriesSkipped,
		"detail_fetches":       s.DetailFetches,
		"detail_misses":        s.DetailMisses,
		"api_records_found":    s.APIRecordsFound,
		"seeds_processed":      s.SeedsProcessed,
		"seeds_failed":         s.SeedsFailed,
		"links_discovered":     s.LinksDiscovered,
		"pages_failed":         s.PagesFailed,
		"web_records_found":    s.WebRecordsFound,
		"web_ids_from_api":     s.WebIDsFromAPI,
		"relevance_filtered":   s.RelevanceFiltered,
		"invalid_records":      s.InvalidRecords,
		"duplicates_prevented": s.DuplicatesPrevented,
		"saved":                s.Saved,
		"error_count":          s.ErrorCount,
		"runtime_seconds":      s.Runtime.Seconds(),
	}
}
