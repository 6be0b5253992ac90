package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/models"
)

// Collector exposes pipeline run statistics as Prometheus metrics.
// Metrics live on the collector's own registry, not the global one.
type Collector struct {
	registry *prometheus.Registry

	runsTotal          *prometheus.CounterVec
	recordsFoundTotal  *prometheus.CounterVec
	savedTotal         prometheus.Counter
	duplicatesTotal    prometheus.Counter
	filteredTotal      prometheus.Counter
	invalidTotal       prometheus.Counter
	errorsTotal        prometheus.Counter
	apiCallsTotal      prometheus.Counter
	partitionsFailed   prometheus.Counter
	detailFetchesTotal prometheus.Counter
	lastRunTimestamp   prometheus.Gauge
	lastRunDuration    prometheus.Gauge
	lastRunSaved       prometheus.Gauge
	runDurationSeconds prometheus.Summary
	httpRequestsTotal  *prometheus.CounterVec
}

var _ interfaces.RunRecorder = (*Collector)(nil)

// NewCollector creates and registers the run metrics under namespace
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "venator"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Pipeline runs by final status",
	}, []string{"status"})
	c.recordsFoundTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_found_total",
		Help:      "Event records discovered, by discovery path",
	}, []string{"source"})
	c.savedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_saved_total",
		Help:      "Event records written by the final merge",
	})
	c.duplicatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duplicates_prevented_total",
		Help:      "Candidates whose external id was already known",
	})
	c.filteredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "relevance_filtered_total",
		Help:      "Records excluded by the relevance filter",
	})
	c.invalidTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invalid_records_total",
		Help:      "Records dropped by validation before the merge",
	})
	c.errorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Errors recorded during runs",
	})
	c.apiCallsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_calls_total",
		Help:      "Discovery API partition queries",
	})
	c.partitionsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "partitions_failed_total",
		Help:      "Partition queries that failed",
	})
	c.detailFetchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "detail_fetches_total",
		Help:      "Event detail pages fetched for enrichment",
	})
	c.lastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp at which the last run finished",
	})
	c.lastRunDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_duration_seconds",
		Help:      "Wall-clock runtime of the last run",
	})
	c.lastRunSaved = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_saved",
		Help:      "Records saved by the last run",
	})
	c.runDurationSeconds = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Runtime of pipeline runs",
	})

	c.httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Requests served by the event API, by route and status class",
	}, []string{"route", "class"})

	c.registry.MustRegister(
		c.runsTotal, c.recordsFoundTotal, c.savedTotal, c.duplicatesTotal,
		c.filteredTotal, c.invalidTotal, c.errorsTotal, c.apiCallsTotal,
		c.partitionsFailed, c.detailFetchesTotal, c.lastRunTimestamp,
		c.lastRunDuration, c.lastRunSaved, c.runDurationSeconds,
		c.httpRequestsTotal,
	)

	return c
}

// RecordRun folds a finished run into the metrics
func (c *Collector) RecordRun(stats *models.RunStats) {
	if stats == nil {
		return
	}

	c.runsTotal.WithLabelValues(string(stats.Status)).Inc()
	c.recordsFoundTotal.WithLabelValues(string(models.SourceAPI)).Add(float64(stats.APIRecordsFound))
	c.recordsFoundTotal.WithLabelValues(string(models.SourceWeb)).Add(float64(stats.WebRecordsFound))
	c.savedTotal.Add(float64(stats.Saved))
	c.duplicatesTotal.Add(float64(stats.DuplicatesPrevented))
	c.filteredTotal.Add(float64(stats.RelevanceFiltered))
	c.invalidTotal.Add(float64(stats.InvalidRecords))
	c.errorsTotal.Add(float64(stats.ErrorCount))
	c.apiCallsTotal.Add(float64(stats.APICalls))
	c.partitionsFailed.Add(float64(stats.PartitionsFailed))
	c.detailFetchesTotal.Add(float64(stats.DetailFetches))

	if !stats.FinishedAt.IsZero() {
		c.lastRunTimestamp.Set(float64(stats.FinishedAt.Unix()))
	}
	c.lastRunDuration.Set(stats.Runtime.Seconds())
	c.lastRunSaved.Set(float64(stats.Saved))
	c.runDurationSeconds.Observe(stats.Runtime.Seconds())
}

// Registry returns the registry holding the run metrics
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveRequest counts one served API request under route and the status class ("2xx", "4xx", ...)
func (c *Collector) ObserveRequest(route string, statusCode int) {
	c.httpRequestsTotal.WithLabelValues(route, fmt.Sprintf("%dxx", statusCode/100)).Inc()
}
