package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/app"
	"github.com/ternarybob/venator/internal/models"
)

// runPipelineOnce executes one run and returns the process exit code.
// An interrupt cancels the run; a cancelled run writes nothing.
func runPipelineOnce(application *app.App, logger arbor.ILogger) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := application.Orchestrator.Run(ctx)
	if stats != nil {
		printSummary(stats)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Pipeline run failed")
		return 1
	}
	if stats.Status == models.RunStatusFailed {
		return 1
	}
	return 0
}

func printSummary(stats *models.RunStats) {
	summary := stats.ToMap()
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println("Run summary:")
	for _, k := range keys {
		fmt.Printf("  %-24s %v\n", k, summary[k])
	}
}
