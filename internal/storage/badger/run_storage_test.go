package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/models"
)

func TestRunStorage_LastRun(t *testing.T) {
	storage := NewRunStorage(openTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	_, err := storage.GetLastRun(ctx)
	assert.ErrorIs(t, err, interfaces.ErrRunNotFound)

	base := time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)
	for i, id := range []string{"run_a", "run_c", "run_b"} {
		stats := models.NewRunStats(id, []string{"api", "web"})
		stats.StartedAt = base.Add(time.Duration([]int{0, 2, 1}[i]) * 24 * time.Hour)
		stats.Saved = i
		stats.Status = models.RunStatusSuccess
		require.NoError(t, storage.SaveRun(ctx, stats))
	}

	last, err := storage.GetLastRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run_c", last.RunID)
	assert.Equal(t, []string{"api", "web"}, last.Phases)

	runs, err := storage.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run_c", runs[0].RunID)
	assert.Equal(t, "run_b", runs[1].RunID)
	assert.Equal(t, "run_a", runs[2].RunID)
}

func TestRunStorage_SaveRunRequiresID(t *testing.T) {
	storage := NewRunStorage(openTestDB(t), arbor.NewLogger())

	err := storage.SaveRun(context.Background(), &models.RunStats{})
	assert.Error(t, err)
}
